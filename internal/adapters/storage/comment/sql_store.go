package comment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"league/internal/adapters/storage"
	domain "league/internal/domain/comment"
)

const selectColumns = `SELECT id, association_id, target_type, target_id, author_id, author_name, body,
	created_at, edited_at, deleted_at FROM comment`

// SQLStore implements Store over storage.SQLDB.
type SQLStore struct {
	db storage.SQLDB
}

// NewSQLStore creates a new comment store.
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db}
}

// GetByID retrieves a comment, deleted ones included.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Comment, error) {
	return scanComment(s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id).Scan)
}

// Save inserts or updates a comment.
// PRE: entity has been validated
// POST: Entity is persisted; target and author never change
func (s *SQLStore) Save(ctx context.Context, c domain.Comment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comment (id, association_id, target_type, target_id, author_id, author_name, body, created_at, edited_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			body=excluded.body,
			edited_at=excluded.edited_at,
			deleted_at=excluded.deleted_at
	`,
		c.ID, c.AssociationID, c.TargetType, c.TargetID, c.AuthorID, c.AuthorName, c.Body,
		storage.FormatTime(c.CreatedAt), storage.NullableTime(c.EditedAt), storage.NullableTime(c.DeletedAt),
	)
	if err != nil {
		return fmt.Errorf("save comment: %w", err)
	}
	return nil
}

// ListByTarget returns all comments on a target, oldest first.
// Deleted comments are returned as well; callers hide their body with Visible.
func (s *SQLStore) ListByTarget(ctx context.Context, targetType, targetID string) ([]domain.Comment, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+" WHERE target_type = ? AND target_id = ? ORDER BY created_at, id",
		targetType, targetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Comment
	for rows.Next() {
		c, err := scanComment(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ToggleLike flips the like of one account on one target.
// PRE: like has a valid target and a non-empty AccountID
// POST: At most one like row exists per (target, account)
func (s *SQLStore) ToggleLike(ctx context.Context, like domain.Like) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM target_like WHERE target_type = ? AND target_id = ? AND account_id = ?`,
		like.TargetType, like.TargetID, like.AccountID)
	if err != nil {
		return false, fmt.Errorf("unlike: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return false, err
	} else if n > 0 {
		return false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO target_like (target_type, target_id, account_id, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(target_type, target_id, account_id) DO NOTHING`,
		like.TargetType, like.TargetID, like.AccountID, storage.FormatTime(like.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("like: %w", err)
	}
	return true, nil
}

// LikeSummary counts likes on a target and reports whether viewerID is among them.
// INVARIANT: Store state is not mutated
func (s *SQLStore) LikeSummary(ctx context.Context, targetType, targetID, viewerID string) (domain.Summary, error) {
	var sum domain.Summary
	var liked int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN account_id = ? THEN 1 ELSE 0 END), 0)
		FROM target_like WHERE target_type = ? AND target_id = ?
	`, viewerID, targetType, targetID).Scan(&sum.Count, &liked)
	if err != nil {
		return domain.Summary{}, err
	}
	sum.LikedByViewer = liked > 0
	return sum, nil
}

func scanComment(scan func(dest ...any) error) (domain.Comment, error) {
	var c domain.Comment
	var createdAt string
	var editedAt, deletedAt sql.NullString
	err := scan(&c.ID, &c.AssociationID, &c.TargetType, &c.TargetID, &c.AuthorID, &c.AuthorName, &c.Body,
		&createdAt, &editedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Comment{}, fmt.Errorf("comment not found: %w", err)
	}
	if err != nil {
		return domain.Comment{}, err
	}
	if c.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Comment{}, err
	}
	if c.EditedAt, err = storage.ParseNullTime(editedAt); err != nil {
		return domain.Comment{}, err
	}
	c.DeletedAt, err = storage.ParseNullTime(deletedAt)
	return c, err
}
