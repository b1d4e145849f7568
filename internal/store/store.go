package store

import (
	"context"
	"errors"
	"time"

	"github.com/vidaflow/backend/internal/model/account"
	"github.com/vidaflow/backend/internal/model/agenda"
	"github.com/vidaflow/backend/internal/model/ops"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrCodeInvalid = errors.New("link code invalid or expired")
)

// Store is the backend data contract shared by every handler. Implementations
// must be safe for concurrent use.
type Store interface {
	// Ping verifies the backing store answers within the context deadline.
	Ping(ctx context.Context) error

	// Identity and permissions.
	UserByToken(ctx context.Context, token string) (account.User, error)
	UserByPhone(ctx context.Context, phone string) (account.User, error)
	HasCapability(ctx context.Context, userID, capability string) (bool, error)
	SetRole(ctx context.Context, userID string, role account.Role) error

	// ConsumeLinkCode binds phone to the account the code was issued for and
	// invalidates the code. Returns ErrCodeInvalid for unknown or expired
	// codes.
	ConsumeLinkCode(ctx context.Context, code, phone string) (account.User, error)

	// Agenda.
	EventsBetween(ctx context.Context, userID string, from, to time.Time) ([]agenda.Event, error)
	CreateEvent(ctx context.Context, event agenda.Event) error

	// Ops console data.
	ListBugReports(ctx context.Context) ([]ops.BugReport, error)
	ListDiagnostics(ctx context.Context) ([]ops.Diagnostic, error)
	CreateDiagnostic(ctx context.Context, diag ops.Diagnostic) error

	// AppendAudit records one privileged action attempt.
	AppendAudit(ctx context.Context, record ops.AuditRecord) error
}
