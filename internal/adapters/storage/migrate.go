package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// migration is one forward-only schema step. Statements are portable between
// SQLite and Postgres: TEXT timestamps in TimeLayout, INTEGER booleans.
type migration struct {
	version    int
	name       string
	statements []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "tenancy",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS association (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				slug TEXT NOT NULL UNIQUE,
				contact_email TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS club (
				id TEXT PRIMARY KEY,
				association_id TEXT NOT NULL REFERENCES association(id),
				name TEXT NOT NULL,
				slug TEXT NOT NULL,
				city TEXT NOT NULL DEFAULT '',
				contact_email TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL,
				created_at TEXT NOT NULL,
				UNIQUE (association_id, slug)
			)`,
			`CREATE TABLE IF NOT EXISTS member (
				id TEXT PRIMARY KEY,
				association_id TEXT NOT NULL REFERENCES association(id),
				club_id TEXT REFERENCES club(id),
				account_id TEXT NOT NULL DEFAULT '',
				name TEXT NOT NULL,
				email TEXT NOT NULL,
				role TEXT NOT NULL,
				status TEXT NOT NULL,
				joined_at TEXT NOT NULL,
				UNIQUE (association_id, email)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_member_account ON member(account_id)`,
			`CREATE INDEX IF NOT EXISTS idx_member_club ON member(club_id)`,
		},
	},
	{
		version: 2,
		name:    "events_and_communications",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS event (
				id TEXT PRIMARY KEY,
				association_id TEXT NOT NULL REFERENCES association(id),
				club_id TEXT REFERENCES club(id),
				title TEXT NOT NULL,
				type TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				location TEXT NOT NULL DEFAULT '',
				start_at TEXT NOT NULL,
				end_at TEXT NOT NULL,
				visibility TEXT NOT NULL,
				created_by TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_event_window ON event(association_id, start_at, end_at)`,
			`CREATE TABLE IF NOT EXISTS announcement (
				id TEXT PRIMARY KEY,
				association_id TEXT NOT NULL REFERENCES association(id),
				club_id TEXT REFERENCES club(id),
				title TEXT NOT NULL,
				content TEXT NOT NULL,
				status TEXT NOT NULL,
				created_by TEXT NOT NULL DEFAULT '',
				published_by TEXT NOT NULL DEFAULT '',
				pinned INTEGER NOT NULL DEFAULT 0,
				pinned_at TEXT,
				visible_from TEXT,
				visible_until TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				published_at TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_announcement_assoc ON announcement(association_id, status)`,
			`CREATE TABLE IF NOT EXISTS comment (
				id TEXT PRIMARY KEY,
				association_id TEXT NOT NULL REFERENCES association(id),
				target_type TEXT NOT NULL,
				target_id TEXT NOT NULL,
				author_id TEXT NOT NULL,
				author_name TEXT NOT NULL DEFAULT '',
				body TEXT NOT NULL,
				created_at TEXT NOT NULL,
				edited_at TEXT,
				deleted_at TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_comment_target ON comment(target_type, target_id, created_at)`,
			`CREATE TABLE IF NOT EXISTS target_like (
				target_type TEXT NOT NULL,
				target_id TEXT NOT NULL,
				account_id TEXT NOT NULL,
				created_at TEXT NOT NULL,
				PRIMARY KEY (target_type, target_id, account_id)
			)`,
			`CREATE TABLE IF NOT EXISTS notification (
				id TEXT PRIMARY KEY,
				association_id TEXT NOT NULL REFERENCES association(id),
				recipient_id TEXT NOT NULL REFERENCES member(id),
				kind TEXT NOT NULL,
				subject TEXT NOT NULL,
				body TEXT NOT NULL DEFAULT '',
				link TEXT NOT NULL DEFAULT '',
				read_at TEXT,
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_notification_recipient ON notification(recipient_id, created_at)`,
		},
	},
	{
		version: 3,
		name:    "equipment_reservations",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS equipment_item (
				id TEXT PRIMARY KEY,
				association_id TEXT NOT NULL REFERENCES association(id),
				club_id TEXT REFERENCES club(id),
				name TEXT NOT NULL,
				category TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				total_quantity INTEGER NOT NULL,
				status TEXT NOT NULL,
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_equipment_assoc ON equipment_item(association_id, status)`,
			`CREATE TABLE IF NOT EXISTS reservation_request (
				id TEXT PRIMARY KEY,
				association_id TEXT NOT NULL REFERENCES association(id),
				club_id TEXT REFERENCES club(id),
				requester_id TEXT NOT NULL REFERENCES member(id),
				requester_name TEXT NOT NULL DEFAULT '',
				purpose TEXT NOT NULL DEFAULT '',
				start_at TEXT NOT NULL,
				end_at TEXT NOT NULL,
				status TEXT NOT NULL,
				parent_id TEXT REFERENCES reservation_request(id),
				decided_by TEXT NOT NULL DEFAULT '',
				decided_at TEXT,
				decision_note TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_reservation_status ON reservation_request(association_id, status, start_at)`,
			`CREATE INDEX IF NOT EXISTS idx_reservation_requester ON reservation_request(requester_id)`,
			`CREATE TABLE IF NOT EXISTS reservation_line (
				request_id TEXT NOT NULL REFERENCES reservation_request(id),
				item_id TEXT NOT NULL REFERENCES equipment_item(id),
				line_no INTEGER NOT NULL,
				requested INTEGER NOT NULL,
				approved INTEGER NOT NULL DEFAULT 0,
				PRIMARY KEY (request_id, item_id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_reservation_line_item ON reservation_line(item_id)`,
		},
	},
	{
		version: 4,
		name:    "sponsors_audit_outbox_flags",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS sponsor (
				id TEXT PRIMARY KEY,
				association_id TEXT NOT NULL REFERENCES association(id),
				club_id TEXT REFERENCES club(id),
				name TEXT NOT NULL,
				tier TEXT NOT NULL,
				website_url TEXT NOT NULL DEFAULT '',
				logo_key TEXT NOT NULL DEFAULT '',
				contract_start TEXT,
				contract_end TEXT,
				created_at TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS audit_event (
				id TEXT PRIMARY KEY,
				association_id TEXT NOT NULL DEFAULT '',
				occurred_at TEXT NOT NULL,
				category TEXT NOT NULL,
				action TEXT NOT NULL,
				severity TEXT NOT NULL,
				actor_id TEXT NOT NULL DEFAULT '',
				actor_email TEXT NOT NULL DEFAULT '',
				actor_role TEXT NOT NULL DEFAULT '',
				resource_id TEXT NOT NULL DEFAULT '',
				resource_type TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				ip_address TEXT NOT NULL DEFAULT '',
				user_agent TEXT NOT NULL DEFAULT '',
				metadata TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE INDEX IF NOT EXISTS idx_audit_assoc ON audit_event(association_id, occurred_at)`,
			`CREATE TABLE IF NOT EXISTS outbox_entry (
				id TEXT PRIMARY KEY,
				association_id TEXT NOT NULL DEFAULT '',
				action_type TEXT NOT NULL,
				payload TEXT NOT NULL,
				status TEXT NOT NULL,
				attempts INTEGER NOT NULL DEFAULT 0,
				max_attempts INTEGER NOT NULL,
				last_attempted_at TEXT,
				next_attempt_at TEXT,
				created_at TEXT NOT NULL,
				external_id TEXT NOT NULL DEFAULT '',
				error_message TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE INDEX IF NOT EXISTS idx_outbox_due ON outbox_entry(status, next_attempt_at)`,
			`CREATE TABLE IF NOT EXISTS feature_flag (
				association_id TEXT NOT NULL,
				key TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				enabled INTEGER NOT NULL,
				staff_only INTEGER NOT NULL DEFAULT 0,
				PRIMARY KEY (association_id, key)
			)`,
		},
	},
}

// LatestSchemaVersion returns the version the schema has after all migrations.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the highest applied migration, or 0 for an empty database.
// PRE: db is a valid connection
// POST: Store state is not mutated
func SchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	if err := ensureVersionTable(ctx, db); err != nil {
		return 0, err
	}
	var v sql.NullInt64
	if err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return int(v.Int64), nil
}

// MigrateDB applies every pending migration. Each migration runs in its own
// transaction together with its schema_version row.
// PRE: db is a valid connection for dialect
// POST: SchemaVersion(db) == LatestSchemaVersion()
func MigrateDB(ctx context.Context, db *sql.DB, dialect Dialect) error {
	current, err := SchemaVersion(ctx, db)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := apply(ctx, db, dialect, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		slog.Info("schema_event", "event", "migration_applied", "version", m.version, "name", m.name)
	}
	return nil
}

func ensureVersionTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}
	return nil
}

func apply(ctx context.Context, db *sql.DB, dialect Dialect, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		dialect.Rebind(`INSERT INTO schema_version (version, applied_at) VALUES (?, ?)`),
		m.version, FormatTime(time.Now()),
	); err != nil {
		return err
	}
	return tx.Commit()
}
