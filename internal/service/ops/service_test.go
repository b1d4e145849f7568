package ops

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vidaflow/backend/internal/model/account"
	opsmodel "github.com/vidaflow/backend/internal/model/ops"
	"github.com/vidaflow/backend/internal/store"
)

// countingStore wraps a store and counts listing calls so tests can assert
// a denied caller never reaches the domain action.
type countingStore struct {
	store.Store
	bugListCalls int
}

func (c *countingStore) ListBugReports(ctx context.Context) ([]opsmodel.BugReport, error) {
	c.bugListCalls++
	return c.Store.ListBugReports(ctx)
}

func seededStore() *store.MemoryStore {
	mem := store.NewMemoryStore()
	mem.AddUser(account.User{ID: "viewer", Name: "Ana", Role: account.RoleTeam}, "tok-viewer")
	mem.AddUser(account.User{ID: "admin", Name: "Bia", Role: account.RoleAdmin}, "tok-admin")
	mem.AddUser(account.User{ID: "target", Name: "Caio", Role: account.RoleUser}, "")
	mem.Grant("viewer", opsmodel.CapBugsView)
	mem.Grant("viewer", opsmodel.CapDiagnosticsView)
	return mem
}

func TestAuthenticate(t *testing.T) {
	svc := NewService(seededStore())
	ctx := context.Background()

	user, err := svc.Authenticate(ctx, "tok-viewer")
	if err != nil {
		t.Fatalf("Authenticate err: %v", err)
	}
	if user.ID != "viewer" {
		t.Fatalf("unexpected user: %+v", user)
	}

	if _, err := svc.Authenticate(ctx, ""); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("empty token should be denied, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "bogus"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("unknown token should be denied, got %v", err)
	}
}

func TestListBugsDeniedNeverHitsStore(t *testing.T) {
	mem := seededStore()
	counting := &countingStore{Store: mem}
	svc := NewService(counting)

	caller := account.User{ID: "admin", Role: account.RoleAdmin} // admin but no capability
	_, err := svc.ListBugs(context.Background(), caller)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission denial, got %v", err)
	}
	if counting.bugListCalls != 0 {
		t.Fatalf("denied caller must not trigger the listing, got %d calls", counting.bugListCalls)
	}
}

func TestListBugsRedactsDescriptions(t *testing.T) {
	mem := seededStore()
	mem.AddBugReport(opsmodel.BugReport{
		ID:          "b1",
		Reporter:    "target",
		Description: "me chamem em ana@example.com ou +55 11 98888-7777",
		CreatedAt:   time.Now(),
	})
	svc := NewService(mem)

	bugs, err := svc.ListBugs(context.Background(), account.User{ID: "viewer", Role: account.RoleTeam})
	if err != nil {
		t.Fatalf("ListBugs err: %v", err)
	}
	if len(bugs) != 1 {
		t.Fatalf("expected 1 bug, got %d", len(bugs))
	}
	desc := bugs[0].Description
	if strings.Contains(desc, "ana@example.com") || strings.Contains(desc, "98888") {
		t.Fatalf("description not redacted: %q", desc)
	}
	if !strings.Contains(desc, "[email redacted]") || !strings.Contains(desc, "[phone redacted]") {
		t.Fatalf("placeholders missing: %q", desc)
	}
}

func TestCreateMarkerAudited(t *testing.T) {
	mem := seededStore()
	svc := NewService(mem)

	diag, err := svc.CreateMarker(context.Background(), account.User{ID: "viewer"}, "deploy-42")
	if err != nil {
		t.Fatalf("CreateMarker err: %v", err)
	}
	if diag.Label != "deploy-42" {
		t.Fatalf("unexpected marker: %+v", diag)
	}

	records := mem.AuditRecords()
	if len(records) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(records))
	}
	rec := records[0]
	if rec.Action != "create_marker" || rec.Status != opsmodel.AuditOK || rec.TargetID != diag.ID {
		t.Fatalf("unexpected audit record: %+v", rec)
	}
}

func TestSetRoleByAdmin(t *testing.T) {
	mem := seededStore()
	svc := NewService(mem)
	ctx := context.Background()

	admin := account.User{ID: "admin", Role: account.RoleAdmin}
	if err := svc.SetRole(ctx, admin, "target", "team"); err != nil {
		t.Fatalf("SetRole err: %v", err)
	}

	records := mem.AuditRecords()
	if len(records) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(records))
	}
	rec := records[0]
	if rec.Status != opsmodel.AuditOK || rec.TargetID != "target" {
		t.Fatalf("unexpected audit record: %+v", rec)
	}
	if rec.Metadata["newRole"] != "team" {
		t.Fatalf("metadata missing new role: %+v", rec.Metadata)
	}
}

func TestSetRoleBlockedForNonAdmin(t *testing.T) {
	mem := seededStore()
	svc := NewService(mem)

	viewer := account.User{ID: "viewer", Role: account.RoleTeam}
	err := svc.SetRole(context.Background(), viewer, "target", "admin")
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected denial, got %v", err)
	}

	records := mem.AuditRecords()
	if len(records) != 1 || records[0].Status != opsmodel.AuditBlocked {
		t.Fatalf("blocked attempt should be audited: %+v", records)
	}
}

func TestSetRoleRejectsUnknownRole(t *testing.T) {
	svc := NewService(seededStore())

	admin := account.User{ID: "admin", Role: account.RoleAdmin}
	err := svc.SetRole(context.Background(), admin, "target", "superuser")
	if !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

// Audit failures must never surface to the caller.
func TestAuditFailureDoesNotFailAction(t *testing.T) {
	mem := seededStore()
	svc := NewService(&auditFailingStore{Store: mem})

	admin := account.User{ID: "admin", Role: account.RoleAdmin}
	if err := svc.SetRole(context.Background(), admin, "target", "team"); err != nil {
		t.Fatalf("action must succeed despite audit failure, got %v", err)
	}
}

type auditFailingStore struct {
	store.Store
}

func (a *auditFailingStore) AppendAudit(context.Context, opsmodel.AuditRecord) error {
	return errors.New("audit table unavailable")
}

func TestRedact(t *testing.T) {
	in := "contato: joao.silva@mail.com.br, tel (11) 4002-8922 8765"
	out := Redact(in)
	if strings.Contains(out, "@") || strings.Contains(out, "4002") {
		t.Fatalf("redaction incomplete: %q", out)
	}

	// Text without PII passes through untouched.
	if got := Redact("tela branca ao abrir metas"); got != "tela branca ao abrir metas" {
		t.Fatalf("clean text should be unchanged, got %q", got)
	}
}
