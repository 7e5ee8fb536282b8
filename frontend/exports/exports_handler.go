package exports

import (
	"bytes"
	"net/http"
	"time"

	"receiptstudio/frontend/receipts"
	sessioncontext "receiptstudio/frontend/shared/context"
	"receiptstudio/frontend/shared/html"
	"receiptstudio/infrastructure/logger"
	"receiptstudio/infrastructure/sqlite"
)

// ReceiptsExportCSVHandler downloads the user's receipts, or every receipt for an admin.
func ReceiptsExportCSVHandler(db *sqlite.DB, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, ok := sessioncontext.ViewerFromContext(r.Context())
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		rows, err := receipts.ListForExport(r.Context(), db, v)
		if err != nil {
			html.Fail(w, r, log, err)
			return
		}
		var buf bytes.Buffer
		if err := WriteReceiptsCSV(&buf, rows); err != nil {
			html.Fail(w, r, log, err)
			return
		}

		filename := "receipts-" + time.Now().UTC().Format("20060102") + ".csv"
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		w.Header().Set("Cache-Control", "no-store")
		if _, err := w.Write(buf.Bytes()); err != nil {
			return
		}
		if err := recordExportRun(r.Context(), db, v.UserID, ExportTypeReceipts, len(rows)); err != nil {
			log.Error(log.WithField(r.Context(), "export_type", ExportTypeReceipts), "record export run failed", err)
		}
	}
}
