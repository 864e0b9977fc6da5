package killswitch

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresStore persists kill switch state in the single-row
// kill_switch_state table (see migrations/0001_init.up.sql).
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an existing *sql.DB.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Load(ctx context.Context) (bool, string, string, error) {
	var enabled bool
	var reason, actor string
	err := s.db.QueryRowContext(ctx, `
SELECT enabled, coalesce(reason, ''), coalesce(actor, '') FROM kill_switch_state WHERE id = 1
`).Scan(&enabled, &reason, &actor)
	if err != nil {
		return false, "", "", fmt.Errorf("killswitch: load state: %w", err)
	}
	return enabled, reason, actor, nil
}

func (s *PostgresStore) Save(ctx context.Context, enabled bool, reason, actor string) error {
	_, err := s.db.ExecContext(ctx, `
UPDATE kill_switch_state SET enabled = $1, reason = $2, actor = $3, updated_at = $4 WHERE id = 1
`, enabled, reason, actor, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("killswitch: save state: %w", err)
	}
	return nil
}
