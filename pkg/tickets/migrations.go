package tickets

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all ticket schema migrations
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create tickets table",
			SQL: `
				CREATE TABLE IF NOT EXISTS tickets (
					id BIGSERIAL PRIMARY KEY,
					reference UUID NOT NULL UNIQUE,
					subject_id VARCHAR(32) NOT NULL,
					topic TEXT NOT NULL,
					status VARCHAR(16) NOT NULL DEFAULT 'open',
					closed_by VARCHAR(32),
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_tickets_subject_id ON tickets(subject_id);
				CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status);
			`,
		},
		{
			Version:     2,
			Description: "Create warnings table",
			SQL: `
				CREATE TABLE IF NOT EXISTS warnings (
					id BIGSERIAL PRIMARY KEY,
					subject_id VARCHAR(32) NOT NULL,
					moderator_id VARCHAR(32) NOT NULL,
					reason TEXT NOT NULL,
					created_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_warnings_subject_id ON warnings(subject_id);
			`,
		},
	}
}

// ApplyMigrations runs pending migrations in order, tracking the applied
// version in ticket_schema_migrations
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ticket_schema_migrations (
			version INT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, migration := range GetMigrations() {
		var exists bool
		err := db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM ticket_schema_migrations WHERE version = $1)`,
			migration.Version,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check migration %d: %w", migration.Version, err)
		}
		if exists {
			continue
		}

		if _, err := db.ExecContext(ctx, migration.SQL); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", migration.Version, migration.Description, err)
		}
		if _, err := db.ExecContext(ctx,
			`INSERT INTO ticket_schema_migrations (version) VALUES ($1)`,
			migration.Version,
		); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
