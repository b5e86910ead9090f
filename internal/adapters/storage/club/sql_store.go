package club

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"league/internal/adapters/storage"
	domain "league/internal/domain/club"
)

const selectColumns = "SELECT id, association_id, name, slug, city, contact_email, status, created_at FROM club"

// SQLStore implements Store over storage.SQLDB.
type SQLStore struct {
	db storage.SQLDB
}

// NewSQLStore creates a new club store.
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db}
}

// GetByID retrieves a Club by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Club, error) {
	return scanClub(s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id).Scan)
}

// GetBySlug retrieves a Club by slug within an association.
// PRE: associationID and slug are non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows
func (s *SQLStore) GetBySlug(ctx context.Context, associationID, slug string) (domain.Club, error) {
	return scanClub(s.db.QueryRowContext(ctx, selectColumns+" WHERE association_id = ? AND slug = ?", associationID, slug).Scan)
}

// Save upserts a Club.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update); association_id never changes
func (s *SQLStore) Save(ctx context.Context, entity domain.Club) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO club (id, association_id, name, slug, city, contact_email, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			slug=excluded.slug,
			city=excluded.city,
			contact_email=excluded.contact_email,
			status=excluded.status
	`,
		entity.ID, entity.AssociationID, entity.Name, entity.Slug, entity.City,
		entity.ContactEmail, entity.Status, storage.FormatTime(entity.CreatedAt),
	)
	if storage.IsUniqueViolation(err) {
		return domain.ErrDuplicateSlug
	}
	if err != nil {
		return fmt.Errorf("save club: %w", err)
	}
	return nil
}

// listWhereClause builds the WHERE clause and args for List/Count queries.
func listWhereClause(filter ListFilter) (string, []any) {
	where := " WHERE association_id = ?"
	args := []any{filter.AssociationID}

	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		where += " AND (LOWER(name) LIKE ? OR LOWER(city) LIKE ?)"
		term := storage.LikePattern(filter.Search)
		args = append(args, term, term)
	}
	return where, args
}

// sortClause returns a safe ORDER BY clause. Only allowed columns are accepted.
func sortClause(filter ListFilter) string {
	allowed := map[string]string{"name": "name", "city": "city", "created": "created_at"}
	col, ok := allowed[filter.Sort]
	if !ok {
		return " ORDER BY name ASC"
	}
	dir := "ASC"
	if filter.Dir == "desc" {
		dir = "DESC"
	}
	return " ORDER BY " + col + " " + dir
}

// Count returns the number of clubs matching the filter.
func (s *SQLStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := listWhereClause(filter)
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM club"+where, args...).Scan(&count)
	return count, err
}

// List retrieves the clubs of one association.
// PRE: filter.AssociationID is non-empty
// POST: Returns matching entities in sort order
func (s *SQLStore) List(ctx context.Context, filter ListFilter) ([]domain.Club, error) {
	where, args := listWhereClause(filter)
	query := selectColumns + where + sortClause(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Club
	for rows.Next() {
		c, err := scanClub(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

func scanClub(scan func(dest ...any) error) (domain.Club, error) {
	var c domain.Club
	var createdAt string
	if err := scan(&c.ID, &c.AssociationID, &c.Name, &c.Slug, &c.City, &c.ContactEmail, &c.Status, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Club{}, fmt.Errorf("club not found: %w", err)
		}
		return domain.Club{}, err
	}
	var err error
	c.CreatedAt, err = storage.ParseTime(createdAt)
	return c, err
}
