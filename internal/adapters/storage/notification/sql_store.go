package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"league/internal/adapters/storage"
	domain "league/internal/domain/notification"
)

// SQLStore implements Store over storage.SQLDB.
type SQLStore struct {
	db storage.SQLDB
}

// NewSQLStore creates a new SQLStore.
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db}
}

// GetByID retrieves a Notification by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Notification, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, association_id, recipient_id, kind, subject, body, link, read_at, created_at
		 FROM notification WHERE id = ?`, id)
	n, err := scanNotification(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Notification{}, fmt.Errorf("notification not found: %w", err)
	}
	return n, err
}

// Save persists a Notification to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLStore) Save(ctx context.Context, n domain.Notification) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notification (id, association_id, recipient_id, kind, subject, body, link, read_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET read_at=excluded.read_at`,
		n.ID, n.AssociationID, n.RecipientID, n.Kind, n.Subject, n.Body, n.Link,
		storage.NullableTime(n.ReadAt), storage.FormatTime(n.CreatedAt))
	if err != nil {
		return fmt.Errorf("save notification: %w", err)
	}
	return nil
}

// SaveAll persists a fan-out batch. Callers run it inside a transaction.
// PRE: every entity has been validated
// POST: All entities are persisted, or the first error is returned
func (s *SQLStore) SaveAll(ctx context.Context, values []domain.Notification) error {
	for _, n := range values {
		if err := s.Save(ctx, n); err != nil {
			return fmt.Errorf("notification %s: %w", n.ID, err)
		}
	}
	return nil
}

// ListByRecipient retrieves the inbox of one member, newest first.
// PRE: recipientID is non-empty
// POST: Returns at most limit notifications (default 100)
func (s *SQLStore) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	query := `SELECT id, association_id, recipient_id, kind, subject, body, link, read_at, created_at
		 FROM notification WHERE recipient_id = ?`
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	if limit <= 0 {
		limit = 100
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, recipientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows.Scan)
		if err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

// CountUnread returns the number of unread notifications for a member.
// PRE: recipientID is non-empty
// POST: Returns count of notifications where read_at IS NULL
func (s *SQLStore) CountUnread(ctx context.Context, recipientID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notification WHERE recipient_id = ? AND read_at IS NULL`,
		recipientID).Scan(&count)
	return count, err
}

func scanNotification(scan func(dest ...any) error) (domain.Notification, error) {
	var n domain.Notification
	var readAt sql.NullString
	var createdAt string
	err := scan(&n.ID, &n.AssociationID, &n.RecipientID, &n.Kind, &n.Subject, &n.Body, &n.Link, &readAt, &createdAt)
	if err != nil {
		return domain.Notification{}, err
	}
	if n.ReadAt, err = storage.ParseNullTime(readAt); err != nil {
		return domain.Notification{}, err
	}
	n.CreatedAt, err = storage.ParseTime(createdAt)
	return n, err
}
