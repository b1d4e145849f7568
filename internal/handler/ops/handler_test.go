package ops

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vidaflow/backend/internal/model/account"
	opsmodel "github.com/vidaflow/backend/internal/model/ops"
	opsservice "github.com/vidaflow/backend/internal/service/ops"
	"github.com/vidaflow/backend/internal/store"
)

func setupRouter() (*chi.Mux, *store.MemoryStore) {
	mem := store.NewMemoryStore()
	mem.AddUser(account.User{ID: "viewer", Name: "Ana", Role: account.RoleTeam}, "tok-viewer")
	mem.AddUser(account.User{ID: "admin", Name: "Bia", Role: account.RoleAdmin}, "tok-admin")
	mem.AddUser(account.User{ID: "target", Name: "Caio", Role: account.RoleUser}, "")
	mem.Grant("viewer", opsmodel.CapBugsView)
	mem.Grant("viewer", opsmodel.CapDiagnosticsView)

	handler := New(opsservice.NewService(mem))
	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, mem
}

func post(t *testing.T, r http.Handler, path, token string, body map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestBugsListRequiresToken(t *testing.T) {
	r, _ := setupRouter()
	resp := post(t, r, "/ops/bugs", "", map[string]string{"action": "list"})
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without token, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "permission denied") {
		t.Fatalf("denial must be generic, got %q", resp.Body.String())
	}
}

func TestBugsListWithCapability(t *testing.T) {
	r, mem := setupRouter()
	mem.AddBugReport(opsmodel.BugReport{
		ID:          "b1",
		Reporter:    "target",
		Description: "erro ao salvar, contato bia@example.com",
		CreatedAt:   time.Now(),
	})

	resp := post(t, r, "/ops/bugs", "tok-viewer", map[string]string{"action": "list"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var body struct {
		Data []opsmodel.BugReport `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Data) != 1 {
		t.Fatalf("expected 1 bug, got %d", len(body.Data))
	}
	if strings.Contains(body.Data[0].Description, "@") {
		t.Fatalf("email leaked through the boundary: %q", body.Data[0].Description)
	}
}

func TestBugsListDeniedWithoutCapability(t *testing.T) {
	r, _ := setupRouter()
	// Admin role alone does not grant listing capabilities.
	resp := post(t, r, "/ops/bugs", "tok-admin", map[string]string{"action": "list"})
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestDiagnosticsUnknownAction(t *testing.T) {
	r, _ := setupRouter()
	resp := post(t, r, "/ops/diagnostics", "tok-viewer", map[string]string{"action": "explode"})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown action, got %d", resp.Code)
	}
}

func TestDiagnosticsCreateMarker(t *testing.T) {
	r, mem := setupRouter()
	resp := post(t, r, "/ops/diagnostics", "tok-viewer", map[string]string{
		"action": "create_marker",
		"label":  "deploy-42",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	records := mem.AuditRecords()
	if len(records) != 1 || records[0].Action != "create_marker" {
		t.Fatalf("marker creation should be audited: %+v", records)
	}
}

func TestSetRoleHappyPath(t *testing.T) {
	r, mem := setupRouter()
	resp := post(t, r, "/ops/roles", "tok-admin", map[string]string{
		"action":   "set_role",
		"targetId": "target",
		"newRole":  "team",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), `"success":true`) {
		t.Fatalf("expected success body, got %q", resp.Body.String())
	}

	records := mem.AuditRecords()
	if len(records) != 1 || records[0].Status != opsmodel.AuditOK {
		t.Fatalf("role change should be audited: %+v", records)
	}
}

func TestSetRoleForbiddenForNonAdmin(t *testing.T) {
	r, _ := setupRouter()
	resp := post(t, r, "/ops/roles", "tok-viewer", map[string]string{
		"action":   "set_role",
		"targetId": "target",
		"newRole":  "admin",
	})
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestSetRoleRejectsBadRole(t *testing.T) {
	r, _ := setupRouter()
	resp := post(t, r, "/ops/roles", "tok-admin", map[string]string{
		"action":   "set_role",
		"targetId": "target",
		"newRole":  "root",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid role, got %d", resp.Code)
	}
}

func TestSetRoleRequiresTarget(t *testing.T) {
	r, _ := setupRouter()
	resp := post(t, r, "/ops/roles", "tok-admin", map[string]string{
		"action":  "set_role",
		"newRole": "team",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without targetId, got %d", resp.Code)
	}
}
