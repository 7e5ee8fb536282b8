package menu

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"receiptstudio/infrastructure/audit"
	apperrors "receiptstudio/infrastructure/errors"
	"receiptstudio/infrastructure/format"
	"receiptstudio/infrastructure/sqlite"
	"receiptstudio/infrastructure/templates"
	"receiptstudio/infrastructure/validate"
	"receiptstudio/models"
)

var (
	ErrNotFound      = apperrors.New(apperrors.CodeNotFound, "menu item not found")
	ErrInvalidHeader = apperrors.New(apperrors.CodeValidation, "invalid CSV header; expected name,description,price,category")
)

// authorizeTx checks that v may read, or with modify set change, the menu of templateID.
// Templates v cannot use are reported as not found.
func authorizeTx(ctx context.Context, tx bun.Tx, templateID string, v templates.Viewer, modify bool) error {
	var tpl models.Template
	err := tx.NewSelect().Model(&tpl).
		Column("id", "created_by", "is_public").
		Where("t.id = ?", templateID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return templates.ErrNotFound
	}
	if err != nil {
		return err
	}
	if !templates.CanUse(tpl, v) {
		return templates.ErrNotFound
	}
	if modify && !templates.CanModify(tpl, v) {
		return templates.ErrForbidden
	}
	return nil
}

func normalizeInput(in ItemInput) (ItemInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	return in, validate.Struct(in)
}

// List returns a template's menu ordered by sort order, then name.
func List(ctx context.Context, db *sqlite.DB, v templates.Viewer, templateID string, f Filter) ([]models.MenuItem, error) {
	items := make([]models.MenuItem, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := authorizeTx(ctx, tx, templateID, v, false); err != nil {
			return err
		}
		q := tx.NewSelect().Model(&items).
			Where("mi.template_id = ?", templateID).
			OrderExpr("mi.sort_order ASC").
			OrderExpr("mi.name COLLATE NOCASE ASC")
		if s := strings.TrimSpace(f.Search); s != "" {
			pattern := sqlite.LikePattern(s)
			q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Where("LOWER(mi.name) LIKE ? "+sqlite.LikeEscape, pattern).
					WhereOr("LOWER(mi.description) LIKE ? "+sqlite.LikeEscape, pattern)
			})
		}
		switch c := strings.TrimSpace(f.Category); {
		case c == "":
		case strings.EqualFold(c, UncategorizedFilter):
			q = q.Where("mi.category = ''")
		default:
			q = q.Where("mi.category = ?", c)
		}
		return q.Scan(ctx)
	})
	return items, err
}

// SearchActive feeds the receipt menu picker: active items only, name or description match.
func SearchActive(ctx context.Context, db *sqlite.DB, v templates.Viewer, templateID, query string, limit int) ([]models.MenuItem, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	items := make([]models.MenuItem, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := authorizeTx(ctx, tx, templateID, v, false); err != nil {
			return err
		}
		q := tx.NewSelect().Model(&items).
			Where("mi.template_id = ?", templateID).
			Where("mi.is_active = 1").
			OrderExpr("mi.sort_order ASC").
			OrderExpr("mi.name COLLATE NOCASE ASC").
			Limit(limit)
		if s := strings.TrimSpace(query); s != "" {
			pattern := sqlite.LikePattern(s)
			q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Where("LOWER(mi.name) LIKE ? "+sqlite.LikeEscape, pattern).
					WhereOr("LOWER(mi.description) LIKE ? "+sqlite.LikeEscape, pattern)
			})
		}
		return q.Scan(ctx)
	})
	return items, err
}

// Categories lists the distinct non-empty categories of a template's menu.
func Categories(ctx context.Context, db *sqlite.DB, templateID string) ([]string, error) {
	out := make([]string, 0)
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`
SELECT DISTINCT category
FROM menu_items
WHERE template_id = ? AND category <> ''
ORDER BY category COLLATE NOCASE ASC`, templateID).Scan(ctx, &out)
	})
	return out, err
}

func loadTx(ctx context.Context, tx bun.Tx, templateID, id string, item *models.MenuItem) error {
	err := tx.NewSelect().Model(item).
		Where("mi.id = ?", id).
		Where("mi.template_id = ?", templateID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func nextSortOrderTx(ctx context.Context, tx bun.Tx, templateID string) (int, error) {
	return tx.NewSelect().Model((*models.MenuItem)(nil)).Where("template_id = ?", templateID).Count(ctx)
}

// Create appends an item to the end of a template's menu.
func Create(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, v templates.Viewer, templateID string, in ItemInput) (models.MenuItem, error) {
	in, err := normalizeInput(in)
	if err != nil {
		return models.MenuItem{}, err
	}
	now := time.Now().UTC()
	item := models.MenuItem{
		ID:          uuid.NewString(),
		TemplateID:  templateID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price.Round(2),
		Category:    in.Category,
		IsActive:    in.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := authorizeTx(ctx, tx, templateID, v, true); err != nil {
			return err
		}
		n, err := nextSortOrderTx(ctx, tx, templateID)
		if err != nil {
			return err
		}
		item.SortOrder = n
		if _, err := tx.NewInsert().Model(&item).Exec(ctx); err != nil {
			return fmt.Errorf("insert menu item: %w", err)
		}
		if auditSvc != nil {
			return auditSvc.Write(ctx, tx, v.UserID, "menu.create", "menu_items", item.ID, nil, item)
		}
		return nil
	})
	return item, err
}

// Update replaces the editable fields of one item.
func Update(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, v templates.Viewer, templateID, id string, in ItemInput) (models.MenuItem, error) {
	in, err := normalizeInput(in)
	if err != nil {
		return models.MenuItem{}, err
	}
	var item models.MenuItem
	err = db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := authorizeTx(ctx, tx, templateID, v, true); err != nil {
			return err
		}
		if err := loadTx(ctx, tx, templateID, id, &item); err != nil {
			return err
		}
		before := item
		item.Name = in.Name
		item.Description = in.Description
		item.Price = in.Price.Round(2)
		item.Category = in.Category
		item.IsActive = in.IsActive
		item.UpdatedAt = time.Now().UTC()
		if _, err := tx.NewUpdate().Model(&item).
			Column("name", "description", "price", "category", "is_active", "updated_at").
			WherePK().
			Exec(ctx); err != nil {
			return fmt.Errorf("update menu item: %w", err)
		}
		if auditSvc != nil {
			return auditSvc.Write(ctx, tx, v.UserID, "menu.update", "menu_items", item.ID, before, item)
		}
		return nil
	})
	return item, err
}

// ToggleActive flips an item between active and inactive.
func ToggleActive(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, v templates.Viewer, templateID, id string) (models.MenuItem, error) {
	var item models.MenuItem
	err := db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := authorizeTx(ctx, tx, templateID, v, true); err != nil {
			return err
		}
		if err := loadTx(ctx, tx, templateID, id, &item); err != nil {
			return err
		}
		item.IsActive = !item.IsActive
		item.UpdatedAt = time.Now().UTC()
		if _, err := tx.NewUpdate().Model(&item).Column("is_active", "updated_at").WherePK().Exec(ctx); err != nil {
			return fmt.Errorf("toggle menu item: %w", err)
		}
		if auditSvc != nil {
			return auditSvc.Write(ctx, tx, v.UserID, "menu.toggle", "menu_items", item.ID,
				map[string]bool{"is_active": !item.IsActive}, map[string]bool{"is_active": item.IsActive})
		}
		return nil
	})
	return item, err
}

func Delete(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, v templates.Viewer, templateID, id string) error {
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := authorizeTx(ctx, tx, templateID, v, true); err != nil {
			return err
		}
		var before models.MenuItem
		if err := loadTx(ctx, tx, templateID, id, &before); err != nil {
			return err
		}
		if _, err := tx.NewDelete().Model(&before).WherePK().Exec(ctx); err != nil {
			return fmt.Errorf("delete menu item: %w", err)
		}
		if auditSvc != nil {
			return auditSvc.Write(ctx, tx, v.UserID, "menu.delete", "menu_items", id, before, nil)
		}
		return nil
	})
}

type csvColumns struct {
	name, description, price, category int
}

func parseHeader(header []string) (csvColumns, error) {
	cols := csvColumns{name: -1, description: -1, price: -1, category: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "name":
			cols.name = i
		case "description":
			cols.description = i
		case "price":
			cols.price = i
		case "category":
			cols.category = i
		}
	}
	if cols.name < 0 || cols.price < 0 {
		return cols, ErrInvalidHeader
	}
	return cols, nil
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// ImportCSV upserts menu rows read from reader. Rows are matched to existing items by
// name, case-insensitively; bad rows are counted and skipped.
func ImportCSV(ctx context.Context, db *sqlite.DB, auditSvc *audit.Service, v templates.Viewer, templateID string, reader io.Reader) (ImportSummary, error) {
	summary := ImportSummary{}
	r := csv.NewReader(reader)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return summary, apperrors.Wrap(apperrors.CodeValidation, err, "read CSV header")
	}
	cols, err := parseHeader(header)
	if err != nil {
		return summary, err
	}

	err = db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		if err := authorizeTx(ctx, tx, templateID, v, true); err != nil {
			return err
		}
		sortOrder, err := nextSortOrderTx(ctx, tx, templateID)
		if err != nil {
			return err
		}
		for {
			record, err := r.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				summary.Errors++
				continue
			}
			name := field(record, cols.name)
			price, perr := format.ParseAmount(field(record, cols.price))
			if name == "" || perr != nil || price.IsNegative() {
				summary.Errors++
				continue
			}
			price = price.Round(2)
			now := time.Now().UTC()

			var existing models.MenuItem
			err = tx.NewSelect().Model(&existing).
				Where("mi.template_id = ?", templateID).
				Where("LOWER(mi.name) = ?", strings.ToLower(name)).
				Limit(1).
				Scan(ctx)
			switch {
			case err == nil:
				existing.Description = field(record, cols.description)
				existing.Price = price
				existing.Category = field(record, cols.category)
				existing.UpdatedAt = now
				if _, err := tx.NewUpdate().Model(&existing).
					Column("description", "price", "category", "updated_at").
					WherePK().
					Exec(ctx); err != nil {
					summary.Errors++
					continue
				}
				summary.Updated++
			case errors.Is(err, sql.ErrNoRows):
				item := models.MenuItem{
					ID:          uuid.NewString(),
					TemplateID:  templateID,
					Name:        name,
					Description: field(record, cols.description),
					Price:       price,
					Category:    field(record, cols.category),
					IsActive:    true,
					SortOrder:   sortOrder,
					CreatedAt:   now,
					UpdatedAt:   now,
				}
				if _, err := tx.NewInsert().Model(&item).Exec(ctx); err != nil {
					summary.Errors++
					continue
				}
				sortOrder++
				summary.Inserted++
			default:
				return err
			}
		}

		if auditSvc != nil {
			after := map[string]any{"inserted": summary.Inserted, "updated": summary.Updated, "errors": summary.Errors}
			if err := auditSvc.Write(ctx, tx, v.UserID, "menu.import", "templates", templateID, nil, after); err != nil {
				return err
			}
		}
		return nil
	})
	return summary, err
}

// WriteCSV writes items in the import format so an export can be re-imported.
func WriteCSV(w io.Writer, items []models.MenuItem) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", "description", "price", "category"}); err != nil {
		return err
	}
	for _, item := range items {
		if err := cw.Write([]string{item.Name, item.Description, format.Plain(item.Price), item.Category}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ToPicker converts items to the JSON picker shape.
func ToPicker(items []models.MenuItem) []PickerItem {
	out := make([]PickerItem, 0, len(items))
	for _, item := range items {
		out = append(out, PickerItem{
			ID:          item.ID,
			Name:        item.Name,
			Description: item.Description,
			Price:       format.Plain(item.Price),
			Category:    item.Category,
		})
	}
	return out
}
