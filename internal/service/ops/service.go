package ops

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/vidaflow/backend/internal/model/account"
	opsmodel "github.com/vidaflow/backend/internal/model/ops"
	"github.com/vidaflow/backend/internal/store"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidRole      = errors.New("invalid role")
)

// Service gates the ops console actions behind permission checks and
// records privileged mutations in the audit log.
type Service struct {
	store store.Store
	now   func() time.Time
}

// NewService creates the ops service on top of the given store.
func NewService(st store.Store) *Service {
	return &Service{store: st, now: time.Now}
}

// Authenticate resolves a bearer token to a user. Missing or unknown tokens
// collapse into ErrPermissionDenied so callers cannot probe for valid ones.
func (s *Service) Authenticate(ctx context.Context, token string) (account.User, error) {
	if token == "" {
		return account.User{}, ErrPermissionDenied
	}
	user, err := s.store.UserByToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return account.User{}, ErrPermissionDenied
	}
	if err != nil {
		return account.User{}, fmt.Errorf("resolve token: %w", err)
	}
	return user, nil
}

// ListBugs returns bug reports with PII redacted from the free-text
// descriptions. Requires the ops_bugs_view capability.
func (s *Service) ListBugs(ctx context.Context, caller account.User) ([]opsmodel.BugReport, error) {
	if err := s.requireCapability(ctx, caller, opsmodel.CapBugsView); err != nil {
		return nil, err
	}

	bugs, err := s.store.ListBugReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bug reports: %w", err)
	}
	for i := range bugs {
		bugs[i].Description = Redact(bugs[i].Description)
	}
	return bugs, nil
}

// ListDiagnostics returns diagnostic rows. Requires ops_diagnostics_view.
func (s *Service) ListDiagnostics(ctx context.Context, caller account.User) ([]opsmodel.Diagnostic, error) {
	if err := s.requireCapability(ctx, caller, opsmodel.CapDiagnosticsView); err != nil {
		return nil, err
	}

	diags, err := s.store.ListDiagnostics(ctx)
	if err != nil {
		return nil, fmt.Errorf("list diagnostics: %w", err)
	}
	return diags, nil
}

// CreateMarker inserts a timestamped diagnostic marker. Requires
// ops_diagnostics_view; the write is audited.
func (s *Service) CreateMarker(ctx context.Context, caller account.User, label string) (opsmodel.Diagnostic, error) {
	if err := s.requireCapability(ctx, caller, opsmodel.CapDiagnosticsView); err != nil {
		return opsmodel.Diagnostic{}, err
	}
	if label == "" {
		label = "marker"
	}

	diag := opsmodel.Diagnostic{
		ID:        uuid.NewString(),
		Label:     label,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateDiagnostic(ctx, diag); err != nil {
		s.audit(ctx, opsmodel.AuditRecord{
			Actor:  caller.ID,
			Action: "create_marker",
			Status: opsmodel.AuditError,
			Reason: err.Error(),
		})
		return opsmodel.Diagnostic{}, fmt.Errorf("create marker: %w", err)
	}

	s.audit(ctx, opsmodel.AuditRecord{
		Actor:      caller.ID,
		Action:     "create_marker",
		Status:     opsmodel.AuditOK,
		TargetType: "diagnostic",
		TargetID:   diag.ID,
	})
	return diag, nil
}

// SetRole changes targetID's role. Only admins may call it; blocked and
// failed attempts are audited alongside successful ones.
func (s *Service) SetRole(ctx context.Context, caller account.User, targetID, newRole string) error {
	if caller.Role != account.RoleAdmin {
		s.audit(ctx, opsmodel.AuditRecord{
			Actor:      caller.ID,
			Action:     "set_role",
			Status:     opsmodel.AuditBlocked,
			Reason:     "caller is not admin",
			TargetType: "user",
			TargetID:   targetID,
		})
		return ErrPermissionDenied
	}

	role, ok := account.ParseRole(newRole)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidRole, newRole)
	}

	if err := s.store.SetRole(ctx, targetID, role); err != nil {
		s.audit(ctx, opsmodel.AuditRecord{
			Actor:      caller.ID,
			Action:     "set_role",
			Status:     opsmodel.AuditError,
			Reason:     err.Error(),
			TargetType: "user",
			TargetID:   targetID,
		})
		return fmt.Errorf("set role: %w", err)
	}

	s.audit(ctx, opsmodel.AuditRecord{
		Actor:      caller.ID,
		Action:     "set_role",
		Status:     opsmodel.AuditOK,
		TargetType: "user",
		TargetID:   targetID,
		Metadata:   map[string]any{"newRole": string(role)},
	})
	return nil
}

func (s *Service) requireCapability(ctx context.Context, caller account.User, capability string) error {
	allowed, err := s.store.HasCapability(ctx, caller.ID, capability)
	if err != nil {
		return fmt.Errorf("check capability: %w", err)
	}
	if !allowed {
		return ErrPermissionDenied
	}
	return nil
}

// audit is best-effort: a failed write is logged and never propagated, so
// the primary action's outcome is unaffected.
func (s *Service) audit(ctx context.Context, record opsmodel.AuditRecord) {
	record.ID = uuid.NewString()
	record.CreatedAt = s.now().UTC()
	if err := s.store.AppendAudit(ctx, record); err != nil {
		log.Printf("[ops] audit write failed (action=%s status=%s): %v", record.Action, record.Status, err)
	}
}
