package api

import (
	"strings"
	"sync"

	"github.com/jwyneal/typequiz/internal/services"
)

// MemoryStore keeps operator accounts and the admin audit trail in memory.
// It is the OperatorStore used in tests and when no SQLite path is
// configured.
type MemoryStore struct {
	mu        sync.RWMutex
	operators map[string]*services.Operator
	audit     []services.AuditEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{operators: map[string]*services.Operator{}}
}

func (s *MemoryStore) FindOperatorByEmail(email string) (*services.Operator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.operators[strings.ToLower(email)], nil
}

func (s *MemoryStore) AddOperator(op *services.Operator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operators[strings.ToLower(op.Email)] = op
	return nil
}

func (s *MemoryStore) AddAudit(e services.AuditEntry) {
	s.mu.Lock()
	s.audit = append(s.audit, e)
	s.mu.Unlock()
}

func (s *MemoryStore) ListAudit() []services.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]services.AuditEntry, len(s.audit))
	copy(out, s.audit)
	return out
}

var _ services.OperatorStore = (*MemoryStore)(nil)
