package announcement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"league/internal/adapters/storage"
	domain "league/internal/domain/announcement"
)

// SQLStore implements Store over storage.SQLDB.
type SQLStore struct {
	db storage.SQLDB
}

// NewSQLStore creates a new SQLStore.
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db}
}

const announcementColumns = `id, association_id, club_id, title, content, status, created_by, published_by,
		pinned, pinned_at, visible_from, visible_until, created_at, updated_at, published_at`

// GetByID retrieves an announcement by ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Announcement, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+announcementColumns+` FROM announcement WHERE id = ?`, id)
	a, err := scanAnnouncement(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Announcement{}, fmt.Errorf("announcement not found: %w", err)
	}
	return a, err
}

// Save inserts or updates an announcement.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLStore) Save(ctx context.Context, a domain.Announcement) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO announcement (id, association_id, club_id, title, content, status, created_by, published_by,
		   pinned, pinned_at, visible_from, visible_until, created_at, updated_at, published_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   club_id=excluded.club_id, title=excluded.title, content=excluded.content, status=excluded.status,
		   published_by=excluded.published_by, pinned=excluded.pinned, pinned_at=excluded.pinned_at,
		   visible_from=excluded.visible_from, visible_until=excluded.visible_until,
		   updated_at=excluded.updated_at, published_at=excluded.published_at`,
		a.ID, a.AssociationID, storage.NullableString(a.ClubID), a.Title, a.Content, a.Status,
		a.CreatedBy, a.PublishedBy, storage.BoolToInt(a.Pinned),
		storage.NullableTime(a.PinnedAt), storage.NullableTime(a.VisibleFrom), storage.NullableTime(a.VisibleUntil),
		storage.FormatTime(a.CreatedAt), storage.FormatTime(a.UpdatedAt), storage.NullableTime(a.PublishedAt))
	if err != nil {
		return fmt.Errorf("save announcement: %w", err)
	}
	return nil
}

// Delete removes an announcement by ID.
// PRE: id is non-empty
// POST: Entity with given id is removed
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM announcement WHERE id = ?`, id)
	return err
}

// List returns announcements matching the filter, drafts included.
// PRE: filter.AssociationID is non-empty
// POST: Returns matching announcements ordered by pinned first (most recently pinned), then by created_at DESC
func (s *SQLStore) List(ctx context.Context, filter ListFilter) ([]domain.Announcement, error) {
	query := `SELECT ` + announcementColumns + ` FROM announcement WHERE association_id = ?`
	args := []any{filter.AssociationID}

	if filter.ClubID != "" {
		query += ` AND club_id = ?`
		args = append(args, filter.ClubID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY pinned DESC, pinned_at DESC, created_at DESC, id`

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAnnouncements(rows)
}

// ListVisible returns published announcements inside their visibility window.
// A non-empty clubID adds that club's announcements to the association-wide ones.
// PRE: associationID is non-empty, now is the current time
// POST: Returns visible announcements ordered by pinned first then published_at DESC
func (s *SQLStore) ListVisible(ctx context.Context, associationID, clubID string, now time.Time) ([]domain.Announcement, error) {
	nowStr := storage.FormatTime(now)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+announcementColumns+`
		 FROM announcement WHERE association_id = ? AND status = ?
		 AND (club_id IS NULL OR club_id = ?)
		 AND (visible_from IS NULL OR visible_from <= ?)
		 AND (visible_until IS NULL OR visible_until > ?)
		 ORDER BY pinned DESC, pinned_at DESC, published_at DESC, id`,
		associationID, domain.StatusPublished, clubID, nowStr, nowStr)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAnnouncements(rows)
}

// scannedRow holds the raw scanned values from an announcement row before conversion.
type scannedRow struct {
	clubID       sql.NullString
	pinned       int
	pinnedAt     sql.NullString
	visibleFrom  sql.NullString
	visibleUntil sql.NullString
	createdAt    string
	updatedAt    string
	publishedAt  sql.NullString
}

func scanAnnouncement(scan func(dest ...any) error) (domain.Announcement, error) {
	var a domain.Announcement
	var s scannedRow
	err := scan(&a.ID, &a.AssociationID, &s.clubID, &a.Title, &a.Content, &a.Status,
		&a.CreatedBy, &a.PublishedBy, &s.pinned,
		&s.pinnedAt, &s.visibleFrom, &s.visibleUntil,
		&s.createdAt, &s.updatedAt, &s.publishedAt)
	if err != nil {
		return domain.Announcement{}, err
	}
	applyScanned(&a, &s)
	return a, nil
}

func scanAnnouncements(rows *storage.Rows) ([]domain.Announcement, error) {
	var list []domain.Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows.Scan)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// applyScanned converts raw scanned values into the Announcement domain fields.
func applyScanned(a *domain.Announcement, s *scannedRow) {
	a.ClubID = s.clubID.String
	a.Pinned = s.pinned != 0
	a.CreatedAt = parseTime(sql.NullString{String: s.createdAt, Valid: true}, "created_at", a.ID)
	a.UpdatedAt = parseTime(sql.NullString{String: s.updatedAt, Valid: true}, "updated_at", a.ID)
	a.PinnedAt = parseTime(s.pinnedAt, "pinned_at", a.ID)
	a.VisibleFrom = parseTime(s.visibleFrom, "visible_from", a.ID)
	a.VisibleUntil = parseTime(s.visibleUntil, "visible_until", a.ID)
	a.PublishedAt = parseTime(s.publishedAt, "published_at", a.ID)
}

// parseTime parses a nullable timestamp, logging a warning on failure.
func parseTime(raw sql.NullString, field, announcementID string) time.Time {
	t, err := storage.ParseNullTime(raw)
	if err != nil {
		slog.Warn("announcement: failed to parse time", "field", field, "announcement_id", announcementID, "raw", raw.String, "error", err)
	}
	return t
}
