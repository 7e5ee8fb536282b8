package receipts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"receiptstudio/frontend/menu"
	"receiptstudio/infrastructure/audit"
	"receiptstudio/infrastructure/charges"
	apperrors "receiptstudio/infrastructure/errors"
	"receiptstudio/infrastructure/sqlite"
	"receiptstudio/infrastructure/templates"
	"receiptstudio/infrastructure/validate"
	"receiptstudio/models"
)

var (
	ErrNotFound     = apperrors.New(apperrors.CodeNotFound, "receipt not found")
	ErrItemNotFound = apperrors.New(apperrors.CodeNotFound, "receipt item not found")
	ErrLastItem     = apperrors.New(apperrors.CodeConflict, "a receipt must keep at least one item")
)

// NewReceiptNumber returns the default number for a receipt created at now.
func NewReceiptNumber(now time.Time) string {
	return fmt.Sprintf("RCP-%d", now.UnixMilli())
}

// ChargeConfigOf rebuilds the calculator config stored on a receipt.
func ChargeConfigOf(r models.Receipt) charges.Config {
	return charges.Config{
		TaxEnabled:               r.TaxEnabled,
		TaxRatePercent:           r.TaxRate,
		ServiceChargeEnabled:     r.ServiceChargeEnabled,
		ServiceChargeRatePercent: r.ServiceChargeRate,
		DiscountEnabled:          r.DiscountEnabled,
		DiscountAmount:           r.DiscountAmount,
		RoundingEnabled:          r.RoundingEnabled,
		RoundingAmount:           r.RoundingAmount,
	}
}

// LineItemsOf converts stored lines in position order.
func LineItemsOf(items []models.ReceiptItem) []charges.LineItem {
	out := make([]charges.LineItem, 0, len(items))
	for _, item := range items {
		out = append(out, charges.LineItem{
			ID:          item.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return out
}

// applyTotals recomputes the stored amounts from the receipt's own lines and charges.
func applyTotals(r *models.Receipt) charges.Breakdown {
	b := charges.Compute(LineItemsOf(r.Items), ChargeConfigOf(*r)).Rounded()
	r.Subtotal = b.Subtotal
	r.DiscountApplied = b.Discount
	r.ServiceChargeAmount = b.ServiceCharge
	r.TaxAmount = b.Tax
	r.RoundingApplied = b.Rounding
	r.Total = b.Total
	return b
}

var totalColumns = []string{
	"subtotal", "discount_applied", "service_charge_amount", "tax_amount", "rounding_applied", "total", "updated_at",
}

func normalizeInput(in ReceiptInput) (ReceiptInput, error) {
	in.TemplateID = strings.TrimSpace(in.TemplateID)
	in.ReceiptNumber = strings.TrimSpace(in.ReceiptNumber)
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerEmail = strings.TrimSpace(in.CustomerEmail)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.ReceiptDate = strings.TrimSpace(in.ReceiptDate)
	in.ReceiptTime = strings.TrimSpace(in.ReceiptTime)
	in.Notes = strings.TrimSpace(in.Notes)
	for i := range in.Items {
		in.Items[i].Description = strings.TrimSpace(in.Items[i].Description)
	}
	return in, validate.Struct(in)
}

// applyInput copies the editable fields onto r. Line ids are kept when present and unique.
func applyInput(r *models.Receipt, in ReceiptInput) {
	r.ReceiptNumber = in.ReceiptNumber
	r.CustomerName = in.CustomerName
	r.CustomerEmail = in.CustomerEmail
	r.CustomerPhone = in.CustomerPhone
	r.ReceiptDate = in.ReceiptDate
	r.ReceiptTime = in.ReceiptTime
	r.Notes = in.Notes
	r.IsPublic = in.IsPublic

	c := in.Charges
	r.TaxEnabled, r.TaxRate = c.TaxEnabled, c.TaxRate
	r.ServiceChargeEnabled, r.ServiceChargeRate = c.ServiceChargeEnabled, c.ServiceChargeRate
	r.DiscountEnabled, r.DiscountAmount = c.DiscountEnabled, c.DiscountAmount
	r.RoundingEnabled, r.RoundingAmount = c.RoundingEnabled, c.RoundingAmount

	seen := make(map[string]bool, len(in.Items))
	r.Items = make([]models.ReceiptItem, 0, len(in.Items))
	for i, item := range in.Items {
		id := strings.TrimSpace(item.ID)
		if id == "" || seen[id] {
			id = uuid.NewString()
		}
		seen[id] = true
		r.Items = append(r.Items, models.ReceiptItem{
			ReceiptID:   r.ID,
			ID:          id,
			Position:    i,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
}

// InputOf returns the editable fields of a stored receipt.
func InputOf(r models.Receipt) ReceiptInput {
	in := ReceiptInput{
		ReceiptNumber: r.ReceiptNumber,
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		CustomerPhone: r.CustomerPhone,
		ReceiptDate:   r.ReceiptDate,
		ReceiptTime:   r.ReceiptTime,
		Notes:         r.Notes,
		IsPublic:      r.IsPublic,
		Charges:       ChargesFromConfig(ChargeConfigOf(r)),
	}
	if r.TemplateID != nil {
		in.TemplateID = *r.TemplateID
	}
	for _, item := range r.Items {
		in.Items = append(in.Items, ItemInput{
			ID:          item.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return in
}

// CanModify reports whether v owns r or is an admin.
func CanModify(r models.Receipt, v templates.Viewer) bool {
	return v.IsAdmin || (v.UserID > 0 && r.CreatedBy == v.UserID)
}

// auditView is the JSON snapshot written to the audit log.
type auditView struct {
	ReceiptNumber string `json:"receipt_number"`
	TemplateID    string `json:"template_id,omitempty"`
	Items         int    `json:"items"`
	Total         string `json:"total"`
	IsPublic      bool   `json:"is_public"`
}

func snapshot(r models.Receipt) auditView {
	v := auditView{ReceiptNumber: r.ReceiptNumber, Items: len(r.Items), Total: r.Total.StringFixed(2), IsPublic: r.IsPublic}
	if r.TemplateID != nil {
		v.TemplateID = *r.TemplateID
	}
	return v
}

func resolveTemplateTx(ctx context.Context, tx bun.Tx, templateID string, v templates.Viewer) (*string, error) {
	if templateID == "" {
		return nil, nil
	}
	var tpl models.Template
	err := tx.NewSelect().Model(&tpl).Column("id", "created_by", "is_public").Where("t.id = ?", templateID).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, templates.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !templates.CanUse(tpl, v) {
		return nil, templates.ErrNotFound
	}
	return &tpl.ID, nil
}

func loadTx(ctx context.Context, tx bun.Tx, id string, r *models.Receipt) error {
	err := tx.NewSelect().Model(r).
		Relation("Items", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("ri.position ASC")
		}).
		Relation("Template").
		Where("r.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if r.TemplateID == nil || (r.Template != nil && r.Template.ID == "") {
		r.Template = nil
	}
	return nil
}

// loadOwnedTx loads a receipt v may modify. Other users' receipts are reported as not found.
func loadOwnedTx(ctx context.Context, tx bun.Tx, id string, v templates.Viewer, r *models.Receipt) error {
	if err := loadTx(ctx, tx, id, r); err != nil {
		return err
	}
	if !CanModify(*r, v) {
		*r = models.Receipt{}
		return ErrNotFound
	}
	return nil
}

func insertItemsTx(ctx context.Context, tx bun.Tx, items []models.ReceiptItem) error {
	if len(items) == 0 {
		return nil
	}
	if _, err := tx.NewInsert().Model(&items).Exec(ctx); err != nil {
		return fmt.Errorf("insert receipt items: %w", err)
	}
	return nil
}

func updateTotalsTx(ctx context.Context, tx bun.Tx, r *models.Receipt) error {
	r.UpdatedAt = time.Now().UTC()
	if _, err := tx.NewUpdate().Model(r).Column(totalColumns...).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("update receipt totals: %w", err)
	}
	return nil
}

// Create validates in, computes the totals and stores the receipt with its lines.
func Create(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, v templates.Viewer, in ReceiptInput) (models.Receipt, error) {
	in, err := normalizeInput(in)
	if err != nil {
		return models.Receipt{}, err
	}
	now := time.Now().UTC()
	rec := models.Receipt{ID: uuid.NewString(), CreatedBy: v.UserID, CreatedAt: now, UpdatedAt: now}
	applyInput(&rec, in)
	applyTotals(&rec)

	err = db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		templateID, err := resolveTemplateTx(ctx, tx, in.TemplateID, v)
		if err != nil {
			return err
		}
		rec.TemplateID = templateID
		if _, err := tx.NewInsert().Model(&rec).Exec(ctx); err != nil {
			return fmt.Errorf("insert receipt: %w", err)
		}
		if err := insertItemsTx(ctx, tx, rec.Items); err != nil {
			return err
		}
		if auditSvc != nil {
			return auditSvc.Write(ctx, tx, v.UserID, "receipt.create", "receipts", rec.ID, nil, snapshot(rec))
		}
		return nil
	})
	if err != nil {
		return models.Receipt{}, err
	}
	return rec, nil
}

// Load returns a receipt with its lines and template, without an access check.
func Load(ctx context.Context, db *sqlite.DB, id string) (models.Receipt, error) {
	var rec models.Receipt
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return loadTx(ctx, tx, id, &rec)
	})
	return rec, err
}

// LoadForViewer returns a receipt owned by v, or any receipt for an admin.
func LoadForViewer(ctx context.Context, db *sqlite.DB, id string, v templates.Viewer) (models.Receipt, error) {
	var rec models.Receipt
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return loadOwnedTx(ctx, tx, id, v, &rec)
	})
	return rec, err
}

// LoadPublic returns a receipt only when it is shared.
func LoadPublic(ctx context.Context, db *sqlite.DB, id string) (models.Receipt, error) {
	rec, err := Load(ctx, db, id)
	if err != nil {
		return models.Receipt{}, err
	}
	if !rec.IsPublic {
		return models.Receipt{}, ErrNotFound
	}
	return rec, nil
}

// Update replaces the receipt's fields and lines and recomputes its totals.
func Update(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, v templates.Viewer, id string, in ReceiptInput) (models.Receipt, error) {
	in, err := normalizeInput(in)
	if err != nil {
		return models.Receipt{}, err
	}
	var rec models.Receipt
	err = db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := loadOwnedTx(ctx, tx, id, v, &rec); err != nil {
			return err
		}
		before := snapshot(rec)
		templateID, err := resolveTemplateTx(ctx, tx, in.TemplateID, v)
		if err != nil {
			return err
		}
		applyInput(&rec, in)
		rec.TemplateID = templateID
		rec.Template = nil
		applyTotals(&rec)
		rec.UpdatedAt = time.Now().UTC()

		if _, err := tx.NewUpdate().Model(&rec).
			ExcludeColumn("id", "created_by", "created_at").
			WherePK().
			Exec(ctx); err != nil {
			return fmt.Errorf("update receipt: %w", err)
		}
		if _, err := tx.NewDelete().Model((*models.ReceiptItem)(nil)).Where("receipt_id = ?", rec.ID).Exec(ctx); err != nil {
			return fmt.Errorf("replace receipt items: %w", err)
		}
		if err := insertItemsTx(ctx, tx, rec.Items); err != nil {
			return err
		}
		if auditSvc != nil {
			return auditSvc.Write(ctx, tx, v.UserID, "receipt.update", "receipts", rec.ID, before, snapshot(rec))
		}
		return nil
	})
	if err != nil {
		return models.Receipt{}, err
	}
	return rec, nil
}

// Delete removes a receipt and its lines.
func Delete(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, v templates.Viewer, id string) error {
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var rec models.Receipt
		if err := loadOwnedTx(ctx, tx, id, v, &rec); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model((*models.Receipt)(nil)).Where("id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete receipt: %w", err)
		}
		if auditSvc != nil {
			return auditSvc.Write(ctx, tx, v.UserID, "receipt.delete", "receipts", id, snapshot(rec), nil)
		}
		return nil
	})
}

// DeleteItem removes one line and recomputes the totals. The last line cannot be removed.
func DeleteItem(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, v templates.Viewer, receiptID, itemID string) (models.Receipt, error) {
	var rec models.Receipt
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := loadOwnedTx(ctx, tx, receiptID, v, &rec); err != nil {
			return err
		}
		idx := -1
		for i, item := range rec.Items {
			if item.ID == itemID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return ErrItemNotFound
		}
		if len(rec.Items) <= 1 {
			return ErrLastItem
		}
		removed := rec.Items[idx]
		before := snapshot(rec)
		if _, err := tx.NewDelete().Model((*models.ReceiptItem)(nil)).
			Where("receipt_id = ? AND id = ?", receiptID, itemID).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete receipt item: %w", err)
		}
		rec.Items = append(rec.Items[:idx:idx], rec.Items[idx+1:]...)
		applyTotals(&rec)
		if err := updateTotalsTx(ctx, tx, &rec); err != nil {
			return err
		}
		if auditSvc != nil {
			return auditSvc.Write(ctx, tx, v.UserID, "receipt.item.delete", "receipts", rec.ID,
				map[string]any{"receipt": before, "item": removed.Description}, snapshot(rec))
		}
		return nil
	})
	if err != nil {
		return models.Receipt{}, err
	}
	return rec, nil
}

// AppendMenuItem adds an active item of the receipt's template as a line with quantity 1.
func AppendMenuItem(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, v templates.Viewer, receiptID, menuItemID string) (models.Receipt, error) {
	var rec models.Receipt
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := loadOwnedTx(ctx, tx, receiptID, v, &rec); err != nil {
			return err
		}
		if rec.TemplateID == nil {
			return menu.ErrNotFound
		}
		var mi models.MenuItem
		err := tx.NewSelect().Model(&mi).
			Where("mi.id = ?", menuItemID).
			Where("mi.template_id = ?", *rec.TemplateID).
			Where("mi.is_active = 1").
			Limit(1).
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return menu.ErrNotFound
		}
		if err != nil {
			return err
		}

		position := 0
		for _, item := range rec.Items {
			if item.Position >= position {
				position = item.Position + 1
			}
		}
		line := models.ReceiptItem{
			ReceiptID:   rec.ID,
			ID:          uuid.NewString(),
			Position:    position,
			Description: mi.Name,
			Quantity:    1,
			UnitPrice:   mi.Price,
		}
		before := snapshot(rec)
		if _, err := tx.NewInsert().Model(&line).Exec(ctx); err != nil {
			return fmt.Errorf("insert receipt item: %w", err)
		}
		rec.Items = append(rec.Items, line)
		applyTotals(&rec)
		if err := updateTotalsTx(ctx, tx, &rec); err != nil {
			return err
		}
		if auditSvc != nil {
			return auditSvc.Write(ctx, tx, v.UserID, "receipt.item.add", "receipts", rec.ID, before, snapshot(rec))
		}
		return nil
	})
	if err != nil {
		return models.Receipt{}, err
	}
	return rec, nil
}

// SetVisibility shares or unshares a receipt.
func SetVisibility(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, v templates.Viewer, id string, public bool) error {
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var rec models.Receipt
		if err := loadOwnedTx(ctx, tx, id, v, &rec); err != nil {
			return err
		}
		if rec.IsPublic == public {
			return nil
		}
		if _, err := tx.NewUpdate().Model((*models.Receipt)(nil)).
			Set("is_public = ?", public).
			Set("updated_at = ?", time.Now().UTC()).
			Where("id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("update receipt visibility: %w", err)
		}
		if auditSvc != nil {
			return auditSvc.Write(ctx, tx, v.UserID, "receipt.visibility", "receipts", id,
				map[string]bool{"is_public": rec.IsPublic}, map[string]bool{"is_public": public})
		}
		return nil
	})
}

const summarySelect = `
SELECT r.id, r.receipt_number,
       COALESCE(t.name, '') AS template_name,
       COALESCE(t.business_name, '') AS business_name,
       r.customer_name, r.total, r.receipt_date, r.receipt_time, r.is_public, r.created_by,
       COALESCE(u.username, '') AS created_by_name,
       r.created_at
FROM receipts AS r
LEFT JOIN templates AS t ON t.id = r.template_id
LEFT JOIN users AS u ON u.id = r.created_by`

// DefaultListLimit caps gallery lists.
const DefaultListLimit = 200

func listSummaries(ctx context.Context, db *sqlite.DB, where string, args []any, search string, limit int) ([]Summary, error) {
	query := summarySelect + "\nWHERE " + where
	if s := strings.TrimSpace(search); s != "" {
		pattern := sqlite.LikePattern(s)
		query += "\n  AND (LOWER(COALESCE(t.business_name, '')) LIKE ? " + sqlite.LikeEscape +
			" OR LOWER(r.customer_name) LIKE ? " + sqlite.LikeEscape +
			" OR LOWER(r.receipt_number) LIKE ? " + sqlite.LikeEscape + ")"
		args = append(args, pattern, pattern, pattern)
	}
	query += "\nORDER BY r.created_at DESC, r.receipt_number DESC\nLIMIT ?"
	args = append(args, limit)

	rows := make([]Summary, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(query, args...).Scan(ctx, &rows)
	})
	return rows, err
}

// ListMine returns the user's receipts, newest first.
func ListMine(ctx context.Context, db *sqlite.DB, userID int64, search string) ([]Summary, error) {
	return listSummaries(ctx, db, "r.created_by = ?", []any{userID}, search, DefaultListLimit)
}

// ListPublic returns shared receipts of every user, newest first.
func ListPublic(ctx context.Context, db *sqlite.DB, search string) ([]Summary, error) {
	return listSummaries(ctx, db, "r.is_public = 1", nil, search, DefaultListLimit)
}

// ListForExport returns every receipt v may export: all for an admin, own otherwise.
func ListForExport(ctx context.Context, db *sqlite.DB, v templates.Viewer) ([]Summary, error) {
	if v.IsAdmin {
		return listSummaries(ctx, db, "1 = 1", nil, "", -1)
	}
	return listSummaries(ctx, db, "r.created_by = ?", []any{v.UserID}, "", -1)
}
