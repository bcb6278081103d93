package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/punchamoorthee/rageshop/internal/domain"
)

// DefaultEvents is the giveaway list a fresh deployment starts with.
func DefaultEvents() []domain.Event {
	return []domain.Event{{
		ID:          "truffade",
		Title:       "Giveaway Truffade Nero Profile",
		Image:       "/assets/billspack.jpg",
		When:        "04.09.2025, 11:01",
		Description: "Win an exclusive supercar. Play 20 hours over the next 2 weeks.",
	}}
}

// ListEvents returns all events with participant counts; Joined is set for login.
func (s *Store) ListEvents(ctx context.Context, login string) ([]domain.Event, error) {
	rows, err := s.db.Query(ctx, `
		SELECT e.id, e.title, e.image, e.when_label, e.description,
		       COUNT(p.login),
		       COALESCE(BOOL_OR(p.login = $1), false)
		FROM events e
		LEFT JOIN event_participants p ON p.event_id = e.id
		GROUP BY e.id
		ORDER BY e.created_at, e.id`, login)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Image, &e.When, &e.Description, &e.Count, &e.Joined); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// JoinEvent adds login to the event and returns the new participant count.
func (s *Store) JoinEvent(ctx context.Context, eventID, login string) (int, error) {
	return s.changeParticipation(ctx, eventID,
		"INSERT INTO event_participants (event_id, login) VALUES ($1, $2) ON CONFLICT DO NOTHING", login)
}

// LeaveEvent removes login from the event and returns the new participant count.
func (s *Store) LeaveEvent(ctx context.Context, eventID, login string) (int, error) {
	return s.changeParticipation(ctx, eventID,
		"DELETE FROM event_participants WHERE event_id = $1 AND login = $2", login)
}

func (s *Store) changeParticipation(ctx context.Context, eventID, stmt, login string) (int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM events WHERE id = $1)", eventID).Scan(&exists); err != nil {
		return 0, err
	}
	if !exists {
		return 0, domain.ErrNotFound
	}
	if _, err := tx.Exec(ctx, stmt, eventID, login); err != nil {
		return 0, err
	}

	var count int
	err = tx.QueryRow(ctx, "SELECT COUNT(*) FROM event_participants WHERE event_id = $1", eventID).Scan(&count)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}
	return count, tx.Commit(ctx)
}

// PutEvent inserts an event unless one with the same id exists.
func (s *Store) PutEvent(ctx context.Context, e domain.Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO events (id, title, image, when_label, description)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`,
		e.ID, e.Title, e.Image, e.When, e.Description)
	return err
}
