package templates

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"receiptstudio/infrastructure/audit"
	apperrors "receiptstudio/infrastructure/errors"
	"receiptstudio/infrastructure/sqlite"
	"receiptstudio/models"
)

var (
	ErrNotFound     = apperrors.New(apperrors.CodeNotFound, "template not found")
	ErrForbidden    = apperrors.New(apperrors.CodeForbidden, "template belongs to another user")
	ErrNameRequired = apperrors.New(apperrors.CodeValidation, "template name is required")
)

// DefaultTemplateName is the public template created by the seed command.
const DefaultTemplateName = "Default"

// Viewer identifies who is asking for a template.
type Viewer struct {
	UserID  int64
	IsAdmin bool
}

// CanUse reports whether v may render receipts with t.
func CanUse(t models.Template, v Viewer) bool {
	return v.IsAdmin || t.IsPublic || (v.UserID > 0 && t.CreatedBy == v.UserID)
}

// CanModify reports whether v may edit or delete t.
func CanModify(t models.Template, v Viewer) bool {
	return v.IsAdmin || (v.UserID > 0 && t.CreatedBy == v.UserID)
}

// List returns the viewer's own templates followed by public ones. Admins see all.
func List(ctx context.Context, db *sqlite.DB, v Viewer) ([]models.Template, error) {
	out := make([]models.Template, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		q := tx.NewSelect().Model(&out).
			OrderExpr("CASE WHEN t.created_by = ? THEN 0 ELSE 1 END", v.UserID).
			OrderExpr("t.name COLLATE NOCASE ASC")
		if !v.IsAdmin {
			q = q.Where("t.created_by = ? OR t.is_public = 1", v.UserID)
		}
		return q.Scan(ctx)
	})
	return out, err
}

// Load returns the template by id without an access check.
func Load(ctx context.Context, db *sqlite.DB, id string) (models.Template, error) {
	var t models.Template
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return loadTx(ctx, tx, id, &t)
	})
	return t, err
}

// LoadAccessible returns the template when v may use it.
func LoadAccessible(ctx context.Context, db *sqlite.DB, id string, v Viewer) (models.Template, error) {
	t, err := Load(ctx, db, id)
	if err != nil {
		return t, err
	}
	if !CanUse(t, v) {
		// Hide existence from users who cannot see it.
		return models.Template{}, ErrNotFound
	}
	return t, nil
}

func loadTx(ctx context.Context, tx bun.Tx, id string, t *models.Template) error {
	err := tx.NewSelect().Model(t).Where("t.id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Create stores t as a new template owned by userID.
func Create(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, userID int64, t models.Template) (models.Template, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return t, ErrNameRequired
	}
	t.ID = uuid.NewString()
	t.CreatedBy = userID
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now

	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&t).Exec(ctx); err != nil {
			return fmt.Errorf("insert template: %w", err)
		}
		if auditSvc != nil {
			return auditSvc.Write(ctx, tx, userID, "template.create", "templates", t.ID, nil, t)
		}
		return nil
	})
	return t, err
}

// Update replaces every editable column of t. Ownership and creation time are kept.
func Update(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, v Viewer, t models.Template) (models.Template, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return t, ErrNameRequired
	}
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var before models.Template
		if err := loadTx(ctx, tx, t.ID, &before); err != nil {
			return err
		}
		if !CanModify(before, v) {
			return ErrForbidden
		}
		t.CreatedBy = before.CreatedBy
		t.CreatedAt = before.CreatedAt
		t.UpdatedAt = time.Now().UTC()
		if _, err := tx.NewUpdate().Model(&t).WherePK().ExcludeColumn("created_by", "created_at").Exec(ctx); err != nil {
			return fmt.Errorf("update template: %w", err)
		}
		if auditSvc != nil {
			return auditSvc.Write(ctx, tx, v.UserID, "template.update", "templates", t.ID, before, t)
		}
		return nil
	})
	return t, err
}

// Delete removes the template and its menu. Receipts keep their content with template_id cleared.
func Delete(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, v Viewer, id string) error {
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var before models.Template
		if err := loadTx(ctx, tx, id, &before); err != nil {
			return err
		}
		if !CanModify(before, v) {
			return ErrForbidden
		}
		if _, err := tx.NewDelete().Model((*models.Template)(nil)).Where("id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete template: %w", err)
		}
		if auditSvc != nil {
			return auditSvc.Write(ctx, tx, v.UserID, "template.delete", "templates", id, before, nil)
		}
		return nil
	})
}

// Duplicate copies a usable template, including its menu, into a private
// template owned by the viewer.
func Duplicate(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, v Viewer, id string) (models.Template, error) {
	var dup models.Template
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var src models.Template
		if err := loadTx(ctx, tx, id, &src); err != nil {
			return err
		}
		if !CanUse(src, v) {
			return ErrNotFound
		}

		dup = src
		dup.ID = uuid.NewString()
		dup.Name = "Copy of " + src.Name
		dup.CreatedBy = v.UserID
		dup.IsPublic = false
		now := time.Now().UTC()
		dup.CreatedAt, dup.UpdatedAt = now, now
		if _, err := tx.NewInsert().Model(&dup).Exec(ctx); err != nil {
			return fmt.Errorf("insert template copy: %w", err)
		}

		var menu []models.MenuItem
		if err := tx.NewSelect().Model(&menu).Where("template_id = ?", src.ID).Scan(ctx); err != nil {
			return err
		}
		for i := range menu {
			menu[i].ID = uuid.NewString()
			menu[i].TemplateID = dup.ID
			menu[i].CreatedAt, menu[i].UpdatedAt = now, now
		}
		if len(menu) > 0 {
			if _, err := tx.NewInsert().Model(&menu).Exec(ctx); err != nil {
				return fmt.Errorf("copy menu: %w", err)
			}
		}

		if auditSvc != nil {
			return auditSvc.Write(ctx, tx, v.UserID, "template.duplicate", "templates", dup.ID, map[string]string{"source_id": src.ID}, dup)
		}
		return nil
	})
	return dup, err
}

// EnsureDefault creates the public "Default" template owned by ownerID unless one exists.
func EnsureDefault(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, ownerID int64) (bool, error) {
	var count int
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT COUNT(1) FROM templates WHERE name = ? AND is_public = 1`, DefaultTemplateName).Scan(ctx, &count)
	})
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	t := NewTemplate(DefaultTemplateName, ownerID)
	t.IsPublic = true
	t.BusinessName = "Your Business"
	if _, err := Create(ctx, db, auditSvc, ownerID, t); err != nil {
		return false, err
	}
	return true, nil
}
