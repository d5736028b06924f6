package services

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Operator is an administrative account for the ops surface (ledger
// inspection, early-retake overrides).
type Operator struct {
	ID        string
	Email     string
	PassHash  []byte
	CreatedAt time.Time
}

// OperatorStore persists operator accounts and the admin audit trail.
type OperatorStore interface {
	FindOperatorByEmail(email string) (*Operator, error)
	AddOperator(op *Operator) error
	AddAudit(entry AuditEntry)
}

// TokenSigner mints an access token for an authenticated operator.
type TokenSigner func(uid, email string, ttl time.Duration) (string, error)

// AdminService handles operator registration/login and the administrative
// ledger operations.
type AdminService struct {
	store     OperatorStore
	ledger    CooldownLedger
	now       func() time.Time
	idGen     func(prefix string, n int) string
	signToken TokenSigner
	tokenTTL  time.Duration
}

type AuthResult struct {
	Token      string
	OperatorID string
}

func NewAdminService(store OperatorStore, ledger CooldownLedger, signer TokenSigner) *AdminService {
	return &AdminService{
		store:     store,
		ledger:    ledger,
		now:       func() time.Time { return time.Now().UTC() },
		idGen:     func(prefix string, n int) string { return prefix + shortID(n) },
		signToken: signer,
		tokenTTL:  30 * 24 * time.Hour,
	}
}

func shortID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}

func (s *AdminService) Register(email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("email/password required")
	}
	existing, err := s.store.FindOperatorByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewConflictError("email exists")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	op := &Operator{ID: s.idGen("op", 7), Email: email, PassHash: hash, CreatedAt: s.now()}
	if err := s.store.AddOperator(op); err != nil {
		return nil, err
	}
	if s.signToken == nil {
		return nil, NewInvalidError("token signer not configured")
	}
	token, err := s.signToken(op.ID, op.Email, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, OperatorID: op.ID}, nil
}

func (s *AdminService) Login(email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("email/password required")
	}
	op, err := s.store.FindOperatorByEmail(email)
	if err != nil {
		return nil, err
	}
	if op == nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(op.PassHash, []byte(password)); err != nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	if s.signToken == nil {
		return nil, NewInvalidError("token signer not configured")
	}
	token, err := s.signToken(op.ID, op.Email, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, OperatorID: op.ID}, nil
}

// LedgerRow is one user's completion record in admin views.
type LedgerRow struct {
	UserID      string    `json:"user_id"`
	CompletedAt time.Time `json:"completed_at"`
	NextAllowed time.Time `json:"next_allowed"`
}

// LedgerSnapshot lists every completion record, sorted by user ID.
func (s *AdminService) LedgerSnapshot(actor string) ([]LedgerRow, error) {
	m, err := s.ledger.Snapshot()
	if err != nil {
		return nil, err
	}
	out := make([]LedgerRow, 0, len(m))
	for uid, t := range m {
		out = append(out, LedgerRow{UserID: uid, CompletedAt: t, NextAllowed: t.Add(CooldownWindow)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "ledger_snapshot"})
	return out, nil
}

// ClearCooldown removes one user's completion record so they may retake the
// quiz before the window expires.
func (s *AdminService) ClearCooldown(userID, actor string) error {
	if strings.TrimSpace(userID) == "" {
		return NewInvalidError("user_id required")
	}
	ok, err := s.ledger.Delete(userID)
	if err != nil {
		return err
	}
	if !ok {
		return NewNotFoundError("no ledger entry for user")
	}
	s.store.AddAudit(AuditEntry{Time: s.now(), Actor: actor, Action: "clear_cooldown", Target: userID})
	return nil
}

func (s *AdminService) TokenTTL() time.Duration {
	return s.tokenTTL
}
