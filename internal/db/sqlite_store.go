package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jwyneal/typequiz/internal/services"
)

// SQLiteStore backs the cooldown ledger and operator accounts with SQLite.
// It satisfies services.CooldownLedger and services.OperatorStore.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(userID string) (time.Time, bool, error) {
	var stamp string
	err := s.db.QueryRow(`SELECT completed_at FROM cooldowns WHERE user_id = ?`, userID).Scan(&stamp)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("get cooldown for %s: %w", userID, err)
	}
	t, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse cooldown stamp for %s: %w", userID, err)
	}
	return t, true, nil
}

func (s *SQLiteStore) Put(userID string, completedAt time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO cooldowns (user_id, completed_at) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET completed_at = excluded.completed_at`,
		userID, completedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("put cooldown for %s: %w", userID, err)
	}
	return nil
}

func (s *SQLiteStore) Snapshot() (map[string]time.Time, error) {
	rows, err := s.db.Query(`SELECT user_id, completed_at FROM cooldowns`)
	if err != nil {
		return nil, fmt.Errorf("list cooldowns: %w", err)
	}
	defer func() { _ = rows.Close() }()
	out := map[string]time.Time{}
	for rows.Next() {
		var uid, stamp string
		if err := rows.Scan(&uid, &stamp); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339, stamp)
		if err != nil {
			return nil, fmt.Errorf("parse cooldown stamp for %s: %w", uid, err)
		}
		out[uid] = t
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Delete(userID string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM cooldowns WHERE user_id = ?`, userID)
	if err != nil {
		return false, fmt.Errorf("delete cooldown for %s: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) FindOperatorByEmail(email string) (*services.Operator, error) {
	var op services.Operator
	var created string
	err := s.db.QueryRow(
		`SELECT id, email, pass_hash, created_at FROM operators WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&op.ID, &op.Email, &op.PassHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find operator: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, created); err == nil {
		op.CreatedAt = t
	}
	return &op, nil
}

func (s *SQLiteStore) AddOperator(op *services.Operator) error {
	if op == nil {
		return errors.New("nil operator")
	}
	_, err := s.db.Exec(
		`INSERT INTO operators (id, email, pass_hash, created_at) VALUES (?, ?, ?, ?)`,
		op.ID, strings.ToLower(strings.TrimSpace(op.Email)), op.PassHash,
		op.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("add operator: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AddAudit(e services.AuditEntry) {
	_, err := s.db.Exec(
		`INSERT INTO audit_log (at, actor, action, target, note) VALUES (?, ?, ?, ?, ?)`,
		e.Time.UTC().Format(time.RFC3339), e.Actor, e.Action, e.Target, e.Note)
	if err != nil {
		log.Printf("sqlite store: add audit: %v", err)
	}
}

func (s *SQLiteStore) ListAudit() []services.AuditEntry {
	rows, err := s.db.Query(`SELECT at, actor, action, target, note FROM audit_log ORDER BY id`)
	if err != nil {
		log.Printf("sqlite store: list audit: %v", err)
		return nil
	}
	defer func() { _ = rows.Close() }()
	var out []services.AuditEntry
	for rows.Next() {
		var e services.AuditEntry
		var at string
		var target, note sql.NullString
		if err := rows.Scan(&at, &e.Actor, &e.Action, &target, &note); err != nil {
			log.Printf("sqlite store: scan audit: %v", err)
			return out
		}
		if t, err := time.Parse(time.RFC3339, at); err == nil {
			e.Time = t
		}
		e.Target, e.Note = target.String, note.String
		out = append(out, e)
	}
	return out
}

var (
	_ services.CooldownLedger = (*SQLiteStore)(nil)
	_ services.OperatorStore  = (*SQLiteStore)(nil)
)
