package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwyneal/typequiz/internal/api"
	dbstore "github.com/jwyneal/typequiz/internal/db"
	"github.com/jwyneal/typequiz/internal/ledger"
	"github.com/jwyneal/typequiz/internal/metrics"
	"github.com/jwyneal/typequiz/internal/middleware"
	"github.com/jwyneal/typequiz/internal/notify"
	"github.com/jwyneal/typequiz/internal/services"
	"github.com/jwyneal/typequiz/internal/utils"
)

func main() {
	addr := utils.SafeEnv("TYPEQUIZ_ADDR", ":8080")
	bankPath := utils.SafeEnv("TYPEQUIZ_BANK_PATH", "function_questions.json")
	ledgerPath := utils.SafeEnv("TYPEQUIZ_LEDGER_PATH", "user_test_history.json")
	sqlitePath := os.Getenv("TYPEQUIZ_SQLITE_PATH")
	migrationsDir := os.Getenv("TYPEQUIZ_MIGRATIONS_DIR")
	gatewayURL := os.Getenv("TYPEQUIZ_GATEWAY_URL")
	commit := os.Getenv("TYPEQUIZ_COMMIT")
	buildTime := os.Getenv("TYPEQUIZ_BUILD_TIME")

	// A missing or malformed bank means the quiz cannot run at all.
	bank, err := services.LoadBank(bankPath)
	if err != nil {
		log.Fatalf("question bank: %v", err)
	}

	var cooldowns services.CooldownLedger
	var operators services.OperatorStore
	if sqlitePath != "" {
		if err := MigrateIfNeeded(ledgerPath, sqlitePath, migrationsDir); err != nil {
			log.Fatalf("ledger migration: %v", err)
		}
		if err := os.MkdirAll(filepath.Dir(sqlitePath), 0o755); err != nil {
			log.Fatalf("create sqlite dir: %v", err)
		}
		sqlDB, err := sql.Open("sqlite3", sqliteDSN(sqlitePath))
		if err != nil {
			log.Fatalf("open sqlite: %v", err)
		}
		if err := dbstore.RunMigrations(sqlDB, migrationsDir); err != nil {
			log.Fatalf("run migrations: %v", err)
		}
		store, err := dbstore.NewSQLiteStore(sqlDB)
		if err != nil {
			log.Fatalf("sqlite store: %v", err)
		}
		cooldowns, operators = store, store
	} else {
		fl, err := ledger.NewFileLedger(ledgerPath)
		if err != nil {
			log.Fatalf("cooldown ledger: %v", err)
		}
		cooldowns = fl
		operators = api.NewMemoryStore()
	}

	var notifier services.Notifier = notify.LogNotifier{}
	if gatewayURL != "" {
		notifier = notify.NewWebhookNotifier(gatewayURL)
	}

	roles := api.NewMemoryRoleDirectory()
	reporter := services.NewReportService(roles)
	engine := services.NewSessionService(bank, cooldowns, notifier, reporter)
	engine.SetPace(utils.SafeEnvDuration("TYPEQUIZ_PACE", services.DefaultPace))

	reg := prometheus.NewRegistry()
	engine.SetMetrics(metrics.NewCollector(reg))

	admin := services.NewAdminService(operators, cooldowns, middleware.SignToken)

	// 6 start attempts per minute per user absorbs double-sent commands
	// without letting anyone hammer the shuffle.
	limiter := middleware.NewUserRateLimiter(6, 3)
	go func() {
		t := time.NewTicker(10 * time.Minute)
		defer t.Stop()
		for range t.C {
			limiter.Cleanup(30 * time.Minute)
		}
	}()

	mux := http.NewServeMux()
	api.NewRouter(engine, reporter, admin, limiter).Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":              true,
			"name":            "typequiz API",
			"questions":       bank.Total(),
			"active_sessions": engine.ActiveSessions(),
			"commit":          commit,
			"build_time":      buildTime,
		})
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"commit":     commit,
			"build_time": buildTime,
		})
	})
	mux.Handle("/metrics", metrics.Handler(reg))

	handler := middleware.SecureHeaders(middleware.CORS(middleware.NoStore(middleware.WithAuth(mux))))

	log.Printf("typequiz server listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func sqliteDSN(path string) string {
	return fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", filepath.ToSlash(path))
}
