package repository

import (
	"database/sql"
	"fmt"

	migrate "github.com/rubenv/sql-migrate"
)

var migrations = &migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id: "0001_feedback_submissions",
			Up: []string{
				`CREATE TABLE feedback_submissions (
					id TEXT PRIMARY KEY,
					subject_type TEXT NOT NULL,
					contract_house_id TEXT,
					client_company_id TEXT,
					country TEXT NOT NULL,
					role_category TEXT,
					work_mode TEXT,
					time_window TEXT,
					ratings_json TEXT NOT NULL,
					free_text TEXT,
					tags_json TEXT NOT NULL DEFAULT '[]',
					verification_level TEXT NOT NULL,
					verification_method TEXT,
					moderation_status TEXT NOT NULL,
					verified_at TEXT,
					verified_by TEXT,
					created_at TEXT NOT NULL
				)`,
				`CREATE INDEX idx_feedback_contract_house ON feedback_submissions (contract_house_id, moderation_status, verification_level)`,
				`CREATE INDEX idx_feedback_client_company ON feedback_submissions (client_company_id, moderation_status, verification_level)`,
			},
			Down: []string{`DROP TABLE feedback_submissions`},
		},
		{
			Id: "0002_review_identity_links",
			Up: []string{
				`CREATE TABLE review_identity_links (
					feedback_id TEXT PRIMARY KEY REFERENCES feedback_submissions(id) ON DELETE CASCADE,
					submitter_user_id TEXT NOT NULL,
					created_at TEXT NOT NULL
				)`,
				`CREATE INDEX idx_identity_submitter ON review_identity_links (submitter_user_id)`,
			},
			Down: []string{`DROP TABLE review_identity_links`},
		},
		{
			Id: "0003_evidence_items",
			Up: []string{
				`CREATE TABLE evidence_items (
					id TEXT PRIMARY KEY,
					feedback_id TEXT NOT NULL REFERENCES feedback_submissions(id) ON DELETE CASCADE,
					type TEXT NOT NULL,
					file_ref TEXT NOT NULL,
					access_policy TEXT
				)`,
			},
			Down: []string{`DROP TABLE evidence_items`},
		},
	},
}

// Migrate applies pending schema migrations and returns how many ran.
func Migrate(db *sql.DB, dialect string) (int, error) {
	n, err := migrate.Exec(db, dialect, migrations, migrate.Up)
	if err != nil {
		return n, fmt.Errorf("apply migrations: %w", err)
	}
	return n, nil
}
