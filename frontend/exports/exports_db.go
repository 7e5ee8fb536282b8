package exports

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/uptrace/bun"

	"receiptstudio/frontend/receipts"
	"receiptstudio/infrastructure/format"
	"receiptstudio/infrastructure/sqlite"
)

// ExportTypeReceipts names the receipts CSV in export_runs.
const ExportTypeReceipts = "receipts_csv"

var receiptsHeader = []string{
	"receipt_number", "business_name", "template_name", "customer_name",
	"receipt_date", "receipt_time", "total", "is_public", "created_by", "created_at",
}

// WriteReceiptsCSV writes one row per receipt. Totals are the persisted rounded amounts.
func WriteReceiptsCSV(w io.Writer, rows []receipts.Summary) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(receiptsHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.ReceiptNumber,
			r.BusinessName,
			r.TemplateName,
			r.CustomerName,
			r.ReceiptDate,
			r.ReceiptTime,
			format.Plain(r.Total),
			strconv.FormatBool(r.IsPublic),
			r.CreatedByName,
			r.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func recordExportRun(ctx context.Context, db *sqlite.DB, userID int64, exportType string, rowCount int) error {
	return db.WithWriteTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		var uid any
		if userID > 0 {
			uid = userID
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO export_runs (user_id, export_type, row_count, created_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)`,
			uid, exportType, rowCount)
		return err
	})
}

// CountRuns returns how many exports of exportType userID has downloaded.
func CountRuns(ctx context.Context, db *sqlite.DB, userID int64, exportType string) (int, error) {
	var count int
	err := db.WithReadTx(ctx, func(ctx context.Context, tx bun.Tx) error {
		return tx.NewRaw(`SELECT COUNT(1) FROM export_runs WHERE user_id = ? AND export_type = ?`, userID, exportType).Scan(ctx, &count)
	})
	return count, err
}
