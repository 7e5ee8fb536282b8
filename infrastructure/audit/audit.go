package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/uptrace/bun"

	"receiptstudio/models"
)

// Service writes audit records inside the caller transaction so the record
// commits or rolls back with the change it describes.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

func (s *Service) Write(ctx context.Context, tx bun.Tx, userID int64, action, entityType, entityID string, before, after any) error {
	beforeJSON, err := marshal(before)
	if err != nil {
		return fmt.Errorf("audit before: %w", err)
	}
	afterJSON, err := marshal(after)
	if err != nil {
		return fmt.Errorf("audit after: %w", err)
	}
	log := &models.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		BeforeJSON: beforeJSON,
		AfterJSON:  afterJSON,
	}
	if _, err := tx.NewInsert().Model(log).Exec(ctx); err != nil {
		return fmt.Errorf("insert audit %s: %w", action, err)
	}
	return nil
}

// ForEntity returns the history of one entity, newest first.
func (s *Service) ForEntity(ctx context.Context, db bun.IDB, entityType, entityID string) ([]models.AuditLog, error) {
	logs := make([]models.AuditLog, 0)
	err := db.NewSelect().Model(&logs).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		OrderExpr("id DESC").
		Scan(ctx)
	return logs, err
}

func marshal(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
