package database

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Statements use {{id}} and {{real}} for the types that differ per dialect.
var migrations = [][]string{
	// 1: users and teams
	{
		`CREATE TABLE IF NOT EXISTS teams (
			id {{id}},
			name TEXT NOT NULL UNIQUE,
			lead_user_id BIGINT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id {{id}},
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			phone_number TEXT NOT NULL DEFAULT '',
			employee_id TEXT NOT NULL DEFAULT '',
			start_date TEXT,
			privacy_consent_at TEXT,
			terms_accepted_at TEXT,
			role TEXT NOT NULL DEFAULT 'starter',
			status TEXT NOT NULL DEFAULT 'pending',
			team_id BIGINT REFERENCES teams(id) ON DELETE SET NULL,
			approved_by_id BIGINT,
			approved_at TEXT,
			admin_notes TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_team ON users(team_id)`,
		`CREATE INDEX IF NOT EXISTS idx_users_status ON users(status)`,
	},
	// 2: leads and status history
	{
		`CREATE TABLE IF NOT EXISTS leads (
			id {{id}},
			owner_user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			team_id BIGINT NOT NULL,
			full_name TEXT NOT NULL,
			phone TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			current_status TEXT NOT NULL DEFAULT 'new_cold',
			status_updated_at TEXT NOT NULL,
			last_activity_at TEXT,
			tags TEXT NOT NULL DEFAULT '[]',
			note TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_leads_owner ON leads(owner_user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_leads_team ON leads(team_id)`,
		`CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(current_status)`,
		`CREATE TABLE IF NOT EXISTS lead_status_history (
			id {{id}},
			lead_id BIGINT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
			changed_by_user_id BIGINT NOT NULL,
			from_status TEXT,
			to_status TEXT NOT NULL,
			changed_at TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			meta TEXT NOT NULL DEFAULT '{}'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_lead ON lead_status_history(lead_id)`,
		`CREATE INDEX IF NOT EXISTS idx_history_to_status ON lead_status_history(to_status, changed_at)`,
	},
	// 3: activity events
	{
		`CREATE TABLE IF NOT EXISTS call_events (
			id {{id}},
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			lead_id BIGINT REFERENCES leads(id) ON DELETE SET NULL,
			datetime TEXT NOT NULL,
			contact_ref TEXT NOT NULL DEFAULT '',
			outcome TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			next_call_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_call_events_user ON call_events(user_id, datetime)`,
		`CREATE TABLE IF NOT EXISTS appointment_events (
			id {{id}},
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			lead_id BIGINT REFERENCES leads(id) ON DELETE SET NULL,
			type TEXT NOT NULL,
			datetime TEXT NOT NULL,
			result TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_appointment_events_user ON appointment_events(user_id, datetime)`,
		`CREATE TABLE IF NOT EXISTS closing_events (
			id {{id}},
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			lead_id BIGINT REFERENCES leads(id) ON DELETE SET NULL,
			datetime TEXT NOT NULL,
			result TEXT NOT NULL DEFAULT 'won',
			units {{real}} NOT NULL DEFAULT 0,
			product_category TEXT NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_closing_events_user ON closing_events(user_id, datetime)`,
	},
	// 4: kpi configuration and audit log
	{
		`CREATE TABLE IF NOT EXISTS kpi_configs (
			id {{id}},
			name TEXT NOT NULL UNIQUE,
			label TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			formula TEXT NOT NULL DEFAULT '',
			warn_threshold {{real}},
			good_threshold {{real}},
			visibility_roles TEXT NOT NULL DEFAULT '[]'
		)`,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id {{id}},
			actor_user_id BIGINT,
			action TEXT NOT NULL,
			object_type TEXT NOT NULL,
			object_id BIGINT,
			diff TEXT NOT NULL DEFAULT '',
			context TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_created ON audit_logs(created_at)`,
	},
}

func (c *Conn) ddl(stmt string) string {
	r := strings.NewReplacer(
		"{{id}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{real}}", "REAL",
	)
	if c.Dialect == DialectPostgres {
		r = strings.NewReplacer(
			"{{id}}", "BIGSERIAL PRIMARY KEY",
			"{{real}}", "DOUBLE PRECISION",
		)
	}
	return r.Replace(stmt)
}

// Migrate runs all pending schema migrations, each inside its own
// transaction. Applied versions are tracked in schema_migrations.
func Migrate(ctx context.Context, c *Conn) error {
	if _, err := c.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for i, stmts := range migrations {
		version := i + 1

		var exists int
		if err := c.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		tx, err := c.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", version, err)
		}

		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, c.ddl(stmt)); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d: %w", version, err)
			}
		}

		if _, err := tx.ExecContext(ctx, c.Rebind("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)"),
			version, formatTime(time.Now())); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", version, err)
		}
	}

	return nil
}
