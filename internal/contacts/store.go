// Package contacts keeps a small local database of addresses the user has
// written to, used for recipient suggestions in the composer. It is a
// convenience cache, not mail storage; the server stays authoritative for
// everything else.
package contacts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Contact is one remembered recipient address.
type Contact struct {
	ID         string    `db:"id"`
	Email      string    `db:"email"`
	LastUsedAt time.Time `db:"last_used_at"`
	UseCount   int       `db:"use_count"`
}

// Store implements the recipient-suggestion database on local SQLite.
type Store struct {
	db *sqlx.DB
}

// NewStore opens (or creates) the contacts database at dbPath, enables WAL
// mode, and runs any pending schema migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening contacts db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *Store) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
		if _, err := s.db.Exec(
			"INSERT INTO schema_version (version) VALUES (?)", m.version,
		); err != nil {
			return fmt.Errorf("recording migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Record remembers the recipients of a successfully sent mail. Addresses
// are comma-separated as typed into the composer; blanks are skipped.
func (s *Store) Record(ctx context.Context, addressLists ...string) error {
	now := time.Now().UTC()

	for _, list := range addressLists {
		for _, addr := range strings.Split(list, ",") {
			email := strings.ToLower(strings.TrimSpace(addr))
			if email == "" || !strings.Contains(email, "@") {
				continue
			}

			_, err := s.db.ExecContext(ctx, `
INSERT INTO contacts (id, email, last_used_at, use_count)
VALUES (?, ?, ?, 1)
ON CONFLICT(email) DO UPDATE SET
	last_used_at = excluded.last_used_at,
	use_count = use_count + 1`,
				uuid.New().String(), email, now,
			)
			if err != nil {
				return fmt.Errorf("recording contact %s: %w", email, err)
			}
		}
	}

	return nil
}

// Suggest returns up to limit addresses starting with prefix, most recently
// and most frequently used first. An empty prefix returns the most recent
// contacts.
func (s *Store) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5
	}

	prefix = strings.ToLower(strings.TrimSpace(prefix))

	var emails []string
	err := s.db.SelectContext(ctx, &emails, `
SELECT email FROM contacts
WHERE email LIKE ? ESCAPE '\'
ORDER BY use_count DESC, last_used_at DESC
LIMIT ?`,
		escapeLike(prefix)+"%", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying contacts: %w", err)
	}
	return emails, nil
}

// escapeLike escapes LIKE wildcards in user input.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
