package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tradegate/internal/contracts"
)

// PostgresStore persists events to an append-only "events" table. It
// only ever executes INSERT: the append-only invariant is enforced
// twice, once by this store never emitting an UPDATE/DELETE statement,
// and once by the database trigger in migrations/0001_init.up.sql that
// rejects them outright.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an existing *sql.DB.
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, errors.New("audit: postgres store: db is nil")
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Append(ctx context.Context, event contracts.AuditEvent) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("audit: marshal event data: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO events (id, event_type, correlation_id, timestamp, data)
VALUES ($1, $2, $3, $4, $5)
`, event.ID, string(event.EventType), event.CorrelationID, event.Timestamp.UTC(), data)
	if err != nil {
		return fmt.Errorf("audit: append event: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (contracts.AuditEvent, error) {
	var e contracts.AuditEvent
	var eventType string
	var data []byte
	var ts time.Time

	err := s.db.QueryRowContext(ctx, `
SELECT id, event_type, correlation_id, timestamp, data FROM events WHERE id = $1
`, id).Scan(&e.ID, &eventType, &e.CorrelationID, &ts, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return contracts.AuditEvent{}, ErrNotFound
	}
	if err != nil {
		return contracts.AuditEvent{}, fmt.Errorf("audit: get event: %w", err)
	}
	e.EventType = contracts.EventType(eventType)
	e.Timestamp = ts
	if len(data) > 0 {
		if err := json.Unmarshal(data, &e.Data); err != nil {
			return contracts.AuditEvent{}, fmt.Errorf("audit: decode event data: %w", err)
		}
	}
	return e, nil
}

func (s *PostgresStore) Query(ctx context.Context, filter Filter) ([]contracts.AuditEvent, error) {
	query := `SELECT id, event_type, correlation_id, timestamp, data FROM events WHERE 1=1`
	var args []any
	argn := 1

	if filter.CorrelationID != "" {
		query += fmt.Sprintf(" AND correlation_id = $%d", argn)
		args = append(args, filter.CorrelationID)
		argn++
	}
	if len(filter.EventTypes) > 0 {
		placeholders := ""
		for i, t := range filter.EventTypes {
			if i > 0 {
				placeholders += ","
			}
			placeholders += fmt.Sprintf("$%d", argn)
			args = append(args, string(t))
			argn++
		}
		query += fmt.Sprintf(" AND event_type IN (%s)", placeholders)
	}
	if !filter.From.IsZero() {
		query += fmt.Sprintf(" AND timestamp >= $%d", argn)
		args = append(args, filter.From.UTC())
		argn++
	}
	if !filter.To.IsZero() {
		query += fmt.Sprintf(" AND timestamp <= $%d", argn)
		args = append(args, filter.To.UTC())
		argn++
	}
	query += " ORDER BY timestamp ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: query events: %w", err)
	}
	defer rows.Close()

	var out []contracts.AuditEvent
	for rows.Next() {
		var e contracts.AuditEvent
		var eventType string
		var data []byte
		var ts time.Time
		if err := rows.Scan(&e.ID, &eventType, &e.CorrelationID, &ts, &data); err != nil {
			return nil, fmt.Errorf("audit: scan event: %w", err)
		}
		e.EventType = contracts.EventType(eventType)
		e.Timestamp = ts
		if len(data) > 0 {
			if err := json.Unmarshal(data, &e.Data); err != nil {
				return nil, fmt.Errorf("audit: decode event data: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Stats(ctx context.Context) (map[contracts.EventType]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT event_type, count(*) FROM events GROUP BY event_type`)
	if err != nil {
		return nil, fmt.Errorf("audit: stats: %w", err)
	}
	defer rows.Close()

	out := make(map[contracts.EventType]int)
	for rows.Next() {
		var eventType string
		var count int
		if err := rows.Scan(&eventType, &count); err != nil {
			return nil, fmt.Errorf("audit: scan stats row: %w", err)
		}
		out[contracts.EventType(eventType)] = count
	}
	return out, rows.Err()
}
