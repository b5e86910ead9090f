package association

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"league/internal/adapters/storage"
	domain "league/internal/domain/association"
)

const selectColumns = "SELECT id, name, slug, contact_email, created_at FROM association"

// SQLStore implements Store over storage.SQLDB.
type SQLStore struct {
	db storage.SQLDB
}

// NewSQLStore creates a new association store.
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db}
}

// GetByID retrieves an Association by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Association, error) {
	return scanAssociation(s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id).Scan)
}

// GetBySlug retrieves an Association by its unique slug.
// PRE: slug is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows
func (s *SQLStore) GetBySlug(ctx context.Context, slug string) (domain.Association, error) {
	return scanAssociation(s.db.QueryRowContext(ctx, selectColumns+" WHERE slug = ?", slug).Scan)
}

// Save upserts an Association.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLStore) Save(ctx context.Context, entity domain.Association) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO association (id, name, slug, contact_email, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			slug=excluded.slug,
			contact_email=excluded.contact_email
	`, entity.ID, entity.Name, entity.Slug, entity.ContactEmail, storage.FormatTime(entity.CreatedAt))
	if storage.IsUniqueViolation(err) {
		return domain.ErrDuplicateSlug
	}
	if err != nil {
		return fmt.Errorf("save association: %w", err)
	}
	return nil
}

// List returns all associations ordered by name.
// INVARIANT: Store state is not mutated
func (s *SQLStore) List(ctx context.Context) ([]domain.Association, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+" ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Association{}
	for rows.Next() {
		a, err := scanAssociation(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAssociation(scan func(dest ...any) error) (domain.Association, error) {
	var a domain.Association
	var createdAt string
	if err := scan(&a.ID, &a.Name, &a.Slug, &a.ContactEmail, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Association{}, fmt.Errorf("association not found: %w", err)
		}
		return domain.Association{}, err
	}
	var err error
	a.CreatedAt, err = storage.ParseTime(createdAt)
	return a, err
}
