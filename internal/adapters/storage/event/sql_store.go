package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"league/internal/adapters/storage"
	domain "league/internal/domain/event"
)

const selectColumns = `SELECT id, association_id, club_id, title, type, description, location,
	start_at, end_at, visibility, created_by, created_at FROM event`

// SQLStore implements Store over storage.SQLDB.
type SQLStore struct {
	db storage.SQLDB
}

// NewSQLStore creates a new SQLStore.
// PRE: db is a valid, open database connection with migrations applied
// POST: store is ready for use
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db}
}

// Save inserts or updates an event.
// PRE: e is a valid Event (Validate() returns nil)
// POST: event is persisted
func (s *SQLStore) Save(ctx context.Context, e domain.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO event (id, association_id, club_id, title, type, description, location, start_at, end_at, visibility, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   club_id=excluded.club_id, title=excluded.title, type=excluded.type, description=excluded.description,
		   location=excluded.location, start_at=excluded.start_at, end_at=excluded.end_at,
		   visibility=excluded.visibility`,
		e.ID, e.AssociationID, storage.NullableString(e.ClubID), e.Title, e.Type, e.Description, e.Location,
		storage.FormatTime(e.StartAt), storage.FormatTime(e.EndAt), e.Visibility, e.CreatedBy,
		storage.FormatTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("save event: %w", err)
	}
	return nil
}

// GetByID retrieves an event by ID.
// PRE: id is non-empty
// POST: returns the event or an error wrapping sql.ErrNoRows
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Event, error) {
	return scanEvent(s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id).Scan)
}

// ListInRange returns events overlapping the filter window ordered by start.
// PRE: filter.AssociationID is non-empty
// POST: every returned event satisfies start_at < To and end_at > From
func (s *SQLStore) ListInRange(ctx context.Context, filter RangeFilter) ([]domain.Event, error) {
	query := selectColumns + " WHERE association_id = ?"
	args := []any{filter.AssociationID}

	if !filter.From.IsZero() {
		query += " AND end_at > ?"
		args = append(args, storage.FormatTime(filter.From))
	}
	if !filter.To.IsZero() {
		query += " AND start_at < ?"
		args = append(args, storage.FormatTime(filter.To))
	}
	if filter.ClubID != "" {
		query += " AND (club_id = ? OR club_id IS NULL)"
		args = append(args, filter.ClubID)
	}
	if filter.PublicOnly {
		query += " AND visibility = ?"
		args = append(args, domain.VisibilityPublic)
	}
	query += " ORDER BY start_at, id"

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Delete removes an event by ID.
// PRE: id is non-empty
// POST: event is removed
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM event WHERE id = ?`, id)
	return err
}

func scanEvent(scan func(dest ...any) error) (domain.Event, error) {
	var e domain.Event
	var clubID sql.NullString
	var startAt, endAt, createdAt string
	err := scan(&e.ID, &e.AssociationID, &clubID, &e.Title, &e.Type, &e.Description, &e.Location,
		&startAt, &endAt, &e.Visibility, &e.CreatedBy, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Event{}, fmt.Errorf("event not found: %w", err)
	}
	if err != nil {
		return domain.Event{}, err
	}
	e.ClubID = clubID.String
	if e.StartAt, err = storage.ParseTime(startAt); err != nil {
		return domain.Event{}, err
	}
	if e.EndAt, err = storage.ParseTime(endAt); err != nil {
		return domain.Event{}, err
	}
	e.CreatedAt, err = storage.ParseTime(createdAt)
	return e, err
}
