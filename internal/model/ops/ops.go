package ops

import "time"

// Capabilities checked before privileged listings run.
const (
	CapBugsView        = "ops_bugs_view"
	CapDiagnosticsView = "ops_diagnostics_view"
)

// BugReport is a user-filed problem report surfaced in the ops console.
// Description may contain whatever the user typed, so it is redacted before
// leaving the boundary.
type BugReport struct {
	ID          string    `json:"id"`
	Reporter    string    `json:"reporter"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Diagnostic is a system-generated marker or measurement row.
type Diagnostic struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Audit statuses.
const (
	AuditOK      = "ok"
	AuditBlocked = "blocked"
	AuditError   = "error"
)

// AuditRecord captures one attempt at a privileged action.
type AuditRecord struct {
	ID         string         `json:"id"`
	Actor      string         `json:"actor"`
	Action     string         `json:"action"`
	Status     string         `json:"status"`
	Reason     string         `json:"reason,omitempty"`
	TargetType string         `json:"targetType,omitempty"`
	TargetID   string         `json:"targetId,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}
