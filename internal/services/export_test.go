package services

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"
)

func TestExportLedgerCSV(t *testing.T) {
	completed := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)
	rows := []LedgerRow{
		{UserID: "u1", CompletedAt: completed, NextAllowed: completed.Add(CooldownWindow)},
		{UserID: "u2", CompletedAt: completed.Add(time.Hour), NextAllowed: completed.Add(time.Hour).Add(CooldownWindow)},
	}
	b, err := ExportLedgerCSV(rows)
	if err != nil {
		t.Fatalf("ExportLedgerCSV: %v", err)
	}
	recs, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("records = %d, want header plus 2 rows", len(recs))
	}
	if recs[0][0] != "user_id" || recs[0][2] != "next_allowed" {
		t.Fatalf("header = %v", recs[0])
	}
	if recs[1][0] != "u1" || recs[1][1] != "2026-02-01T09:30:00Z" {
		t.Fatalf("row = %v", recs[1])
	}
	if recs[2][2] != "2026-03-03T10:30:00Z" {
		t.Fatalf("next allowed = %q", recs[2][2])
	}
}

func TestExportLedgerCSVEmpty(t *testing.T) {
	b, err := ExportLedgerCSV(nil)
	if err != nil {
		t.Fatalf("ExportLedgerCSV: %v", err)
	}
	recs, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	if err != nil || len(recs) != 1 {
		t.Fatalf("records = %v (err %v), want header only", recs, err)
	}
}
