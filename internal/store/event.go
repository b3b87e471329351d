package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Event is a persisted scene trigger.
type Event struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Kind       string    `json:"kind"`
	Tick       uint64    `json:"tick"`
	ThemeIndex int       `json:"theme_index"`
	CreatedAt  time.Time `json:"created_at"`
}

// EventRepository is the append-only scene event log.
type EventRepository struct {
	db *sql.DB
}

// Events returns the event repository for this store.
func (s *Store) Events() *EventRepository {
	return &EventRepository{db: s.db}
}

// Record appends an event. CreatedAt defaults to now.
func (r *EventRepository) Record(ev *Event) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO events (id, session_id, kind, tick, theme_index, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.SessionID, ev.Kind, int64(ev.Tick), ev.ThemeIndex, ev.CreatedAt,
	)
	return err
}

// ListBySession returns up to limit events of a session in tick order.
// A limit of zero or less returns all of them.
func (r *EventRepository) ListBySession(sessionID string, limit int) ([]*Event, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.Query(
		`SELECT id, session_id, kind, tick, theme_index, created_at
		 FROM events WHERE session_id = ? ORDER BY tick, created_at LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		ev := &Event{}
		var tick int64
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.Kind, &tick, &ev.ThemeIndex, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.Tick = uint64(tick)
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

// CountByKind tallies a session's events per kind.
func (r *EventRepository) CountByKind(sessionID string) (map[string]int, error) {
	rows, err := r.db.Query(
		`SELECT kind, COUNT(*) FROM events WHERE session_id = ? GROUP BY kind`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}
