package reservation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"league/internal/adapters/storage"
	"league/internal/domain/availability"
	domain "league/internal/domain/reservation"
)

const requestColumns = `r.id, r.association_id, r.club_id, r.requester_id, r.requester_name, r.purpose,
	r.start_at, r.end_at, r.status, r.parent_id, r.decided_by, r.decided_at, r.decision_note,
	r.created_at, r.updated_at`

// SQLStore implements Store over storage.SQLDB.
type SQLStore struct {
	db storage.SQLDB
}

// NewSQLStore creates a new reservation store.
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db}
}

// GetByID retrieves a request and its lines.
// PRE: id is non-empty
// POST: Returns the request or an error wrapping sql.ErrNoRows
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Request, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM reservation_request r WHERE r.id = ?`, id)
	r, err := scanRequest(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Request{}, fmt.Errorf("reservation request not found: %w", err)
	}
	if err != nil {
		return domain.Request{}, err
	}
	lines, err := s.loadLines(ctx, []string{r.ID})
	if err != nil {
		return domain.Request{}, err
	}
	r.Lines = lines[r.ID]
	return r, nil
}

// Save upserts the request row and replaces its lines in one transaction.
// Inside an outer unit of work the statements join it.
// PRE: r has been validated
// POST: Request and lines are persisted, line order is preserved
func (s *SQLStore) Save(ctx context.Context, r domain.Request) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save reservation: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reservation_request (id, association_id, club_id, requester_id, requester_name, purpose,
			start_at, end_at, status, parent_id, decided_by, decided_at, decision_note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			purpose=excluded.purpose,
			start_at=excluded.start_at,
			end_at=excluded.end_at,
			status=excluded.status,
			decided_by=excluded.decided_by,
			decided_at=excluded.decided_at,
			decision_note=excluded.decision_note,
			updated_at=excluded.updated_at
	`,
		r.ID, r.AssociationID, storage.NullableString(r.ClubID), r.RequesterID, r.RequesterName, r.Purpose,
		storage.FormatTime(r.StartAt), storage.FormatTime(r.EndAt), r.Status, storage.NullableString(r.ParentID),
		r.DecidedBy, storage.NullableTime(r.DecidedAt), r.DecisionNote,
		storage.FormatTime(r.CreatedAt), storage.FormatTime(r.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save reservation request: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM reservation_line WHERE request_id = ?`, r.ID); err != nil {
		return fmt.Errorf("clear reservation lines: %w", err)
	}
	for i, l := range r.Lines {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO reservation_line (request_id, item_id, line_no, requested, approved) VALUES (?, ?, ?, ?, ?)`,
			r.ID, l.ItemID, i, l.Requested, l.Approved)
		if err != nil {
			return fmt.Errorf("save reservation line %s: %w", l.ItemID, err)
		}
	}
	return tx.Commit()
}

// listWhereClause builds the WHERE clause and args for List/Count queries.
func listWhereClause(filter ListFilter) (string, []any) {
	where := " WHERE r.association_id = ?"
	args := []any{filter.AssociationID}

	if filter.ClubID != "" {
		where += " AND r.club_id = ?"
		args = append(args, filter.ClubID)
	}
	if filter.RequesterID != "" {
		where += " AND r.requester_id = ?"
		args = append(args, filter.RequesterID)
	}
	if filter.ItemID != "" {
		where += " AND EXISTS (SELECT 1 FROM reservation_line l WHERE l.request_id = r.id AND l.item_id = ?)"
		args = append(args, filter.ItemID)
	}
	if len(filter.Statuses) > 0 {
		where += " AND r.status IN (" + placeholders(len(filter.Statuses)) + ")"
		for _, st := range filter.Statuses {
			args = append(args, st)
		}
	}
	if !filter.From.IsZero() {
		where += " AND r.end_at > ?"
		args = append(args, storage.FormatTime(filter.From))
	}
	if !filter.To.IsZero() {
		where += " AND r.start_at < ?"
		args = append(args, storage.FormatTime(filter.To))
	}
	return where, args
}

// Count returns the number of requests matching the filter.
func (s *SQLStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := listWhereClause(filter)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reservation_request r"+where, args...).Scan(&n)
	return n, err
}

// List retrieves requests of one association ordered by window start, with lines.
// PRE: filter.AssociationID is non-empty
func (s *SQLStore) List(ctx context.Context, filter ListFilter) ([]domain.Request, error) {
	where, args := listWhereClause(filter)
	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	args = append(args, limit, filter.Offset)
	return s.queryRequests(ctx,
		"SELECT "+requestColumns+" FROM reservation_request r"+where+" ORDER BY r.start_at, r.created_at, r.id LIMIT ? OFFSET ?",
		args...)
}

// ListExpirable finds undecided requests that lapsed, matching Request.ExpiresAt.
// PRE: limit > 0
// POST: Requests are ordered by start, oldest first
func (s *SQLStore) ListExpirable(ctx context.Context, cutoff time.Time, limit int) ([]domain.Request, error) {
	at := storage.FormatTime(cutoff)
	return s.queryRequests(ctx,
		`SELECT `+requestColumns+` FROM reservation_request r
		WHERE r.status = ?
		AND ((r.parent_id IS NULL AND r.start_at <= ?) OR (r.parent_id IS NOT NULL AND r.end_at <= ?))
		ORDER BY r.start_at, r.id LIMIT ?`,
		domain.StatusPending, at, at, limit)
}

// CommittedBookings loads the stock already promised to decided requests.
// INVARIANT: Store state is not mutated
func (s *SQLStore) CommittedBookings(ctx context.Context, itemIDs []string, w availability.Window) (map[string][]availability.Booking, error) {
	out := make(map[string][]availability.Booking, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}

	query := `SELECT l.item_id, r.id, r.start_at, r.end_at, l.approved
		FROM reservation_line l JOIN reservation_request r ON r.id = l.request_id
		WHERE l.item_id IN (` + placeholders(len(itemIDs)) + `)
		AND r.status IN (?, ?) AND l.approved > 0 AND r.end_at > ?`
	args := make([]any, 0, len(itemIDs)+4)
	for _, id := range itemIDs {
		args = append(args, id)
	}
	args = append(args, domain.StatusApproved, domain.StatusPartiallyApproved, storage.FormatTime(w.Start))
	if !w.End.IsZero() {
		query += ` AND r.start_at < ?`
		args = append(args, storage.FormatTime(w.End))
	}
	query += ` ORDER BY r.start_at, r.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var itemID, startAt, endAt string
		var b availability.Booking
		if err := rows.Scan(&itemID, &b.RequestID, &startAt, &endAt, &b.Quantity); err != nil {
			return nil, err
		}
		if b.Window.Start, err = storage.ParseTime(startAt); err != nil {
			return nil, err
		}
		if b.Window.End, err = storage.ParseTime(endAt); err != nil {
			return nil, err
		}
		out[itemID] = append(out[itemID], b)
	}
	return out, rows.Err()
}

// queryRequests reads request rows fully before loading their lines, so the
// single connection of a transaction is never used by two result sets at once.
func (s *SQLStore) queryRequests(ctx context.Context, query string, args ...any) ([]domain.Request, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var list []domain.Request
	for rows.Next() {
		r, err := scanRequest(rows.Scan)
		if err != nil {
			rows.Close()
			return nil, err
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(list) == 0 {
		return list, nil
	}
	ids := make([]string, len(list))
	for i, r := range list {
		ids[i] = r.ID
	}
	lines, err := s.loadLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Lines = lines[list[i].ID]
	}
	return list, nil
}

func (s *SQLStore) loadLines(ctx context.Context, requestIDs []string) (map[string][]domain.Line, error) {
	args := make([]any, len(requestIDs))
	for i, id := range requestIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT request_id, item_id, requested, approved FROM reservation_line
		 WHERE request_id IN (`+placeholders(len(requestIDs))+`) ORDER BY request_id, line_no`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.Line, len(requestIDs))
	for rows.Next() {
		var requestID string
		var l domain.Line
		if err := rows.Scan(&requestID, &l.ItemID, &l.Requested, &l.Approved); err != nil {
			return nil, err
		}
		out[requestID] = append(out[requestID], l)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func scanRequest(scan func(dest ...any) error) (domain.Request, error) {
	var r domain.Request
	var clubID, parentID, decidedAt sql.NullString
	var startAt, endAt, createdAt, updatedAt string
	err := scan(&r.ID, &r.AssociationID, &clubID, &r.RequesterID, &r.RequesterName, &r.Purpose,
		&startAt, &endAt, &r.Status, &parentID, &r.DecidedBy, &decidedAt, &r.DecisionNote,
		&createdAt, &updatedAt)
	if err != nil {
		return domain.Request{}, err
	}
	r.ClubID = clubID.String
	r.ParentID = parentID.String
	for _, f := range []struct {
		dst *time.Time
		raw string
	}{{&r.StartAt, startAt}, {&r.EndAt, endAt}, {&r.CreatedAt, createdAt}, {&r.UpdatedAt, updatedAt}} {
		if *f.dst, err = storage.ParseTime(f.raw); err != nil {
			return domain.Request{}, err
		}
	}
	r.DecidedAt, err = storage.ParseNullTime(decidedAt)
	return r, err
}
