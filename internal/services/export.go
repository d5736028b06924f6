package services

import (
	"bytes"
	"encoding/csv"
	"time"
)

// ExportLedgerCSV renders ledger rows into CSV for the admin surface.
func ExportLedgerCSV(rows []LedgerRow) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"user_id", "completed_at", "next_allowed"})
	for _, r := range rows {
		rec := []string{
			r.UserID,
			r.CompletedAt.Format(time.RFC3339),
			r.NextAllowed.Format(time.RFC3339),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
