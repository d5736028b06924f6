package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/jwyneal/typequiz/internal/middleware"
	"github.com/jwyneal/typequiz/internal/services"
)

// Router exposes the quiz engine to the chat gateway and the admin surface.
type Router struct {
	engine   *services.SessionService
	reporter *services.ReportService
	admin    *services.AdminService
	limiter  *middleware.UserRateLimiter
}

func NewRouter(engine *services.SessionService, reporter *services.ReportService, admin *services.AdminService, limiter *middleware.UserRateLimiter) *Router {
	return &Router{engine: engine, reporter: reporter, admin: admin, limiter: limiter}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/quiz/start", rt.handleStart)       // POST
	mux.HandleFunc("/api/quiz/answer", rt.handleAnswer)     // POST
	mux.HandleFunc("/api/quiz/wording", rt.handleWording)   // POST
	mux.HandleFunc("/api/quiz/question", rt.handleQuestion) // GET
	mux.HandleFunc("/api/stats", rt.handleStats)            // GET
	mux.HandleFunc("/api/admin/register", rt.handleAdminRegister)
	mux.HandleFunc("/api/admin/login", rt.handleAdminLogin)
	mux.Handle("/api/admin/ledger", middleware.RequireAuth(http.HandlerFunc(rt.handleAdminLedger)))
	mux.Handle("/api/admin/ledger/", middleware.RequireAuth(http.HandlerFunc(rt.handleAdminLedgerUser)))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeServiceError(w http.ResponseWriter, err error) {
	if se, ok := services.AsServiceError(err); ok {
		status := http.StatusInternalServerError
		switch se.Code {
		case services.ErrorInvalid:
			status = http.StatusBadRequest
		case services.ErrorUnauthorized:
			status = http.StatusUnauthorized
		case services.ErrorForbidden:
			status = http.StatusForbidden
		case services.ErrorNotFound:
			status = http.StatusNotFound
		case services.ErrorConflict:
			status = http.StatusConflict
		case services.ErrorTooManyRequests:
			status = http.StatusTooManyRequests
		}
		http.Error(w, se.Message, status)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// POST /api/quiz/start
// {user_id, group_id} — the gateway forwards the start command here. The
// cooldown outcome is an expected result, not an error status.
func (rt *Router) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		UserID  string `json:"user_id"`
		GroupID string `json:"group_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}
	if rt.limiter != nil && !rt.limiter.Allow(req.UserID) {
		http.Error(w, "too many start attempts", http.StatusTooManyRequests)
		return
	}
	out, err := rt.engine.Start(req.UserID, req.GroupID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !out.Started {
		writeJSON(w, map[string]any{
			"status":       "cooldown",
			"next_allowed": out.NextAllowed.Format(time.RFC3339),
		})
		return
	}
	writeJSON(w, map[string]any{"status": "started", "total_questions": out.Total})
}

// POST /api/quiz/answer
// {user_id, cursor, score} — cursor is the value rendered into the pressed
// button. Stale presses are absorbed here with an ok response; the gateway
// never needs to distinguish them.
func (rt *Router) handleAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		UserID string `json:"user_id"`
		Cursor int    `json:"cursor"`
		Score  int    `json:"score"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}
	if err := rt.engine.RecordAnswer(req.UserID, req.Cursor, req.Score); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

// POST /api/quiz/wording
// {user_id, cursor, wording} — re-present the pending question in the other
// phrasing; no session state changes.
func (rt *Router) handleWording(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		UserID  string `json:"user_id"`
		Cursor  int    `json:"cursor"`
		Wording string `json:"wording"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}
	if err := rt.engine.Wording(req.UserID, req.Cursor, services.Wording(req.Wording)); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

// GET /api/quiz/question?user_id=...&wording=plain
func (rt *Router) handleQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}
	p, err := rt.engine.CurrentPrompt(userID, services.Wording(r.URL.Query().Get("wording")))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, p)
}

// GET /api/stats?group_id=...
func (rt *Router) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	groupID := r.URL.Query().Get("group_id")
	if groupID == "" {
		http.Error(w, "group_id required", http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{
		"group_id":     groupID,
		"distribution": rt.reporter.Distribution(groupID),
	})
}

func (rt *Router) handleAdminRegister(w http.ResponseWriter, r *http.Request) {
	rt.handleAdminAuth(w, r, rt.admin.Register)
}

func (rt *Router) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	rt.handleAdminAuth(w, r, rt.admin.Login)
}

func (rt *Router) handleAdminAuth(w http.ResponseWriter, r *http.Request, fn func(email, password string) (*services.AuthResult, error)) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := fn(req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]any{"token": res.Token, "operator_id": res.OperatorID})
}

// GET /api/admin/ledger[?format=csv]
func (rt *Router) handleAdminLedger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	_, actor, _ := middleware.OperatorFromContext(r.Context())
	rows, err := rt.admin.LedgerSnapshot(actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "csv" {
		b, err := services.ExportLedgerCSV(rows)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=ledger.csv")
		_, _ = w.Write(b)
		return
	}
	writeJSON(w, map[string]any{"entries": rows})
}

// DELETE /api/admin/ledger/{user_id} — clear one user's cooldown so they
// may retake early.
func (rt *Router) handleAdminLedgerUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID := strings.TrimPrefix(r.URL.Path, "/api/admin/ledger/")
	if userID == "" || strings.Contains(userID, "/") {
		http.NotFound(w, r)
		return
	}
	_, actor, _ := middleware.OperatorFromContext(r.Context())
	if err := rt.admin.ClearCooldown(userID, actor); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}
