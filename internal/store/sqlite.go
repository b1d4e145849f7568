package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vidaflow/backend/internal/model/account"
	"github.com/vidaflow/backend/internal/model/agenda"
	"github.com/vidaflow/backend/internal/model/ops"
)

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and applies the
// schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id        TEXT PRIMARY KEY,
		name      TEXT NOT NULL,
		phone     TEXT,
		role      TEXT NOT NULL DEFAULT 'user',
		api_token TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_users_phone ON users(phone);
	CREATE INDEX IF NOT EXISTS idx_users_token ON users(api_token);

	CREATE TABLE IF NOT EXISTS capabilities (
		user_id    TEXT NOT NULL,
		capability TEXT NOT NULL,
		PRIMARY KEY (user_id, capability)
	);

	CREATE TABLE IF NOT EXISTS link_codes (
		code       TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		expires_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id        TEXT PRIMARY KEY,
		user_id   TEXT NOT NULL,
		title     TEXT NOT NULL,
		starts_at TEXT NOT NULL,
		raw_text  TEXT,
		status    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_user_start ON events(user_id, starts_at);

	CREATE TABLE IF NOT EXISTS bug_reports (
		id          TEXT PRIMARY KEY,
		reporter    TEXT NOT NULL,
		description TEXT NOT NULL,
		created_at  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS diagnostics (
		id         TEXT PRIMARY KEY,
		label      TEXT NOT NULL,
		detail     TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS audit_log (
		id          TEXT PRIMARY KEY,
		actor       TEXT NOT NULL,
		action      TEXT NOT NULL,
		status      TEXT NOT NULL,
		reason      TEXT,
		target_type TEXT,
		target_id   TEXT,
		metadata    TEXT,
		created_at  TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) UserByToken(ctx context.Context, token string) (account.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, COALESCE(phone, ''), role FROM users WHERE api_token = ?`, token)
	return scanUser(row)
}

func (s *SQLiteStore) UserByPhone(ctx context.Context, phone string) (account.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, COALESCE(phone, ''), role FROM users WHERE phone = ?`, phone)
	return scanUser(row)
}

func scanUser(row *sql.Row) (account.User, error) {
	var user account.User
	err := row.Scan(&user.ID, &user.Name, &user.Phone, &user.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return account.User{}, ErrNotFound
	}
	if err != nil {
		return account.User{}, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}

func (s *SQLiteStore) HasCapability(ctx context.Context, userID, capability string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM capabilities WHERE user_id = ? AND capability = ?`,
		userID, capability).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query capability: %w", err)
	}
	return count > 0, nil
}

func (s *SQLiteStore) SetRole(ctx context.Context, userID string, role account.Role) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, string(role), userID)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ConsumeLinkCode(ctx context.Context, code, phone string) (account.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return account.User{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var userID, expiresRaw string
	err = tx.QueryRowContext(ctx,
		`SELECT user_id, expires_at FROM link_codes WHERE code = ?`, code).Scan(&userID, &expiresRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return account.User{}, ErrCodeInvalid
	}
	if err != nil {
		return account.User{}, fmt.Errorf("query link code: %w", err)
	}

	expiresAt, err := time.Parse(time.RFC3339Nano, expiresRaw)
	if err != nil || time.Now().After(expiresAt) {
		return account.User{}, ErrCodeInvalid
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM link_codes WHERE code = ?`, code); err != nil {
		return account.User{}, fmt.Errorf("delete link code: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET phone = ? WHERE id = ?`, phone, userID); err != nil {
		return account.User{}, fmt.Errorf("bind phone: %w", err)
	}

	var user account.User
	err = tx.QueryRowContext(ctx,
		`SELECT id, name, COALESCE(phone, ''), role FROM users WHERE id = ?`, userID).
		Scan(&user.ID, &user.Name, &user.Phone, &user.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return account.User{}, ErrCodeInvalid
	}
	if err != nil {
		return account.User{}, fmt.Errorf("load user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return account.User{}, fmt.Errorf("commit: %w", err)
	}
	return user, nil
}

func (s *SQLiteStore) EventsBetween(ctx context.Context, userID string, from, to time.Time) ([]agenda.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, starts_at, COALESCE(raw_text, ''), status
		 FROM events
		 WHERE user_id = ? AND starts_at >= ? AND starts_at < ?
		 ORDER BY starts_at`,
		userID, from.UTC().Format(time.RFC3339Nano), to.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []agenda.Event
	for rows.Next() {
		var event agenda.Event
		var startsRaw string
		if err := rows.Scan(&event.ID, &event.UserID, &event.Title, &startsRaw, &event.RawText, &event.Status); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if event.StartsAt, err = time.Parse(time.RFC3339Nano, startsRaw); err != nil {
			return nil, fmt.Errorf("parse event time: %w", err)
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateEvent(ctx context.Context, event agenda.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, user_id, title, starts_at, raw_text, status) VALUES (?, ?, ?, ?, ?, ?)`,
		event.ID, event.UserID, event.Title,
		event.StartsAt.UTC().Format(time.RFC3339Nano), event.RawText, event.Status)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListBugReports(ctx context.Context) ([]ops.BugReport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, reporter, description, created_at FROM bug_reports ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query bug reports: %w", err)
	}
	defer rows.Close()

	var out []ops.BugReport
	for rows.Next() {
		var bug ops.BugReport
		var createdRaw string
		if err := rows.Scan(&bug.ID, &bug.Reporter, &bug.Description, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan bug report: %w", err)
		}
		if bug.CreatedAt, err = time.Parse(time.RFC3339Nano, createdRaw); err != nil {
			return nil, fmt.Errorf("parse bug time: %w", err)
		}
		out = append(out, bug)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListDiagnostics(ctx context.Context) ([]ops.Diagnostic, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, label, COALESCE(detail, ''), created_at FROM diagnostics ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	var out []ops.Diagnostic
	for rows.Next() {
		var diag ops.Diagnostic
		var createdRaw string
		if err := rows.Scan(&diag.ID, &diag.Label, &diag.Detail, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		if diag.CreatedAt, err = time.Parse(time.RFC3339Nano, createdRaw); err != nil {
			return nil, fmt.Errorf("parse diagnostic time: %w", err)
		}
		out = append(out, diag)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateDiagnostic(ctx context.Context, diag ops.Diagnostic) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO diagnostics (id, label, detail, created_at) VALUES (?, ?, ?, ?)`,
		diag.ID, diag.Label, diag.Detail, diag.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert diagnostic: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AppendAudit(ctx context.Context, record ops.AuditRecord) error {
	var metadata []byte
	if record.Metadata != nil {
		var err error
		if metadata, err = json.Marshal(record.Metadata); err != nil {
			return fmt.Errorf("encode audit metadata: %w", err)
		}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, actor, action, status, reason, target_type, target_id, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Actor, record.Action, record.Status, record.Reason,
		record.TargetType, record.TargetID, string(metadata),
		record.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// Seed helpers used by provisioning scripts and tests.

// InsertUser creates a user row with an optional API token.
func (s *SQLiteStore) InsertUser(ctx context.Context, user account.User, token string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, phone, role, api_token) VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Phone, string(user.Role), token)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GrantCapability gives userID the named capability.
func (s *SQLiteStore) GrantCapability(ctx context.Context, userID, capability string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO capabilities (user_id, capability) VALUES (?, ?)`, userID, capability)
	if err != nil {
		return fmt.Errorf("grant capability: %w", err)
	}
	return nil
}

// InsertLinkCode installs a pending pairing code.
func (s *SQLiteStore) InsertLinkCode(ctx context.Context, code LinkCode) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO link_codes (code, user_id, expires_at) VALUES (?, ?, ?)`,
		code.Code, code.UserID, code.ExpiresAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert link code: %w", err)
	}
	return nil
}

// InsertBugReport seeds a bug report row.
func (s *SQLiteStore) InsertBugReport(ctx context.Context, bug ops.BugReport) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bug_reports (id, reporter, description, created_at) VALUES (?, ?, ?, ?)`,
		bug.ID, bug.Reporter, bug.Description, bug.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert bug report: %w", err)
	}
	return nil
}
