package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vidaflow/backend/internal/model/account"
	"github.com/vidaflow/backend/internal/model/agenda"
	"github.com/vidaflow/backend/internal/model/ops"
)

// LinkCode is a short-lived pairing code issued to a user for binding a
// chat phone number to their account.
type LinkCode struct {
	Code      string
	UserID    string
	ExpiresAt time.Time
}

// MemoryStore implements Store with in-process maps, suitable for tests and
// for running without a database path configured.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[string]account.User
	tokens      map[string]string // token -> user ID
	capability  map[string]map[string]bool
	linkCodes   map[string]LinkCode
	events      []agenda.Event
	bugs        []ops.BugReport
	diagnostics []ops.Diagnostic
	audit       []ops.AuditRecord
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]account.User),
		tokens:     make(map[string]string),
		capability: make(map[string]map[string]bool),
		linkCodes:  make(map[string]LinkCode),
	}
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// AddUser registers a user with an optional API token.
func (s *MemoryStore) AddUser(user account.User, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	if token != "" {
		s.tokens[token] = user.ID
	}
}

// Grant gives userID the named capability.
func (s *MemoryStore) Grant(userID, capability string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capability[userID] == nil {
		s.capability[userID] = make(map[string]bool)
	}
	s.capability[userID][capability] = true
}

// AddLinkCode installs a pending pairing code.
func (s *MemoryStore) AddLinkCode(code LinkCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.linkCodes[code.Code] = code
}

// AddBugReport seeds a bug report row.
func (s *MemoryStore) AddBugReport(bug ops.BugReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bugs = append(s.bugs, bug)
}

// AddDiagnostic seeds a diagnostic row.
func (s *MemoryStore) AddDiagnostic(diag ops.Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diagnostics = append(s.diagnostics, diag)
}

// AuditRecords returns a copy of everything appended so far.
func (s *MemoryStore) AuditRecords() []ops.AuditRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ops.AuditRecord, len(s.audit))
	copy(out, s.audit)
	return out
}

func (s *MemoryStore) UserByToken(_ context.Context, token string) (account.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.tokens[token]
	if !ok {
		return account.User{}, ErrNotFound
	}
	return s.users[id], nil
}

func (s *MemoryStore) UserByPhone(_ context.Context, phone string) (account.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Phone != "" && user.Phone == phone {
			return user, nil
		}
	}
	return account.User{}, ErrNotFound
}

func (s *MemoryStore) HasCapability(_ context.Context, userID, capability string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.capability[userID][capability], nil
}

func (s *MemoryStore) SetRole(_ context.Context, userID string, role account.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.Role = role
	s.users[userID] = user
	return nil
}

func (s *MemoryStore) ConsumeLinkCode(_ context.Context, code, phone string) (account.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, ok := s.linkCodes[code]
	if !ok || time.Now().After(pending.ExpiresAt) {
		return account.User{}, ErrCodeInvalid
	}
	user, ok := s.users[pending.UserID]
	if !ok {
		return account.User{}, ErrCodeInvalid
	}

	delete(s.linkCodes, code)
	user.Phone = phone
	s.users[user.ID] = user
	return user, nil
}

func (s *MemoryStore) EventsBetween(_ context.Context, userID string, from, to time.Time) ([]agenda.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []agenda.Event
	for _, event := range s.events {
		if event.UserID != userID {
			continue
		}
		if event.StartsAt.Before(from) || !event.StartsAt.Before(to) {
			continue
		}
		out = append(out, event)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (s *MemoryStore) CreateEvent(_ context.Context, event agenda.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *MemoryStore) ListBugReports(_ context.Context) ([]ops.BugReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ops.BugReport, len(s.bugs))
	copy(out, s.bugs)
	return out, nil
}

func (s *MemoryStore) ListDiagnostics(_ context.Context) ([]ops.Diagnostic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ops.Diagnostic, len(s.diagnostics))
	copy(out, s.diagnostics)
	return out, nil
}

func (s *MemoryStore) CreateDiagnostic(_ context.Context, diag ops.Diagnostic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diagnostics = append(s.diagnostics, diag)
	return nil
}

func (s *MemoryStore) AppendAudit(_ context.Context, record ops.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, record)
	return nil
}
