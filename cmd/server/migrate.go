package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	dbstore "github.com/jwyneal/typequiz/internal/db"
	"github.com/jwyneal/typequiz/internal/ledger"
)

// MigrateIfNeeded performs the one-time import of a legacy JSON cooldown
// ledger into a fresh SQLite database. It is a no-op when the database
// already exists or no legacy file is present.
func MigrateIfNeeded(legacyPath, sqlitePath, migrationsDir string) error {
	if sqlitePath == "" {
		return errors.New("sqlite path is required")
	}
	if _, err := os.Stat(sqlitePath); err == nil {
		return nil // already migrated
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("check sqlite file: %w", err)
	}
	if legacyPath == "" {
		return nil
	}
	if _, err := os.Stat(legacyPath); errors.Is(err, os.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("check legacy ledger: %w", err)
	}

	legacy, err := ledger.NewFileLedger(legacyPath)
	if err != nil {
		return fmt.Errorf("load legacy ledger: %w", err)
	}
	entries, err := legacy.Snapshot()
	if err != nil {
		return fmt.Errorf("read legacy ledger: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	log.Printf("First run detected, importing %d cooldown entries from %s...", len(entries), legacyPath)

	if err := os.MkdirAll(filepath.Dir(sqlitePath), 0o755); err != nil {
		return fmt.Errorf("create sqlite dir: %w", err)
	}
	sqlDB, err := sql.Open("sqlite3", sqliteDSN(sqlitePath))
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("warning: failed to close sqlite db: %v", cerr)
		}
	}()
	if err := dbstore.RunMigrations(sqlDB, migrationsDir); err != nil {
		return err
	}
	store, err := dbstore.NewSQLiteStore(sqlDB)
	if err != nil {
		return err
	}
	for uid, t := range entries {
		if err := store.Put(uid, t); err != nil {
			return fmt.Errorf("import entry for %s: %w", uid, err)
		}
	}
	log.Printf("Ledger migration complete.")
	return nil
}
