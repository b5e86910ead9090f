package equipment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"league/internal/adapters/storage"
	domain "league/internal/domain/equipment"
)

const selectColumns = `SELECT id, association_id, club_id, name, category, description, total_quantity,
	status, created_at FROM equipment_item`

// SQLStore implements Store over storage.SQLDB.
type SQLStore struct {
	db storage.SQLDB
}

// NewSQLStore creates a new equipment store.
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db}
}

// GetByID retrieves an Item by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Item, error) {
	return scanItem(s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id).Scan)
}

// GetMany loads several items in one query.
// POST: Result holds one entry per existing ID
func (s *SQLStore) GetMany(ctx context.Context, ids []string) (map[string]domain.Item, error) {
	out := make(map[string]domain.Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, selectColumns+" WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		out[item.ID] = item
	}
	return out, rows.Err()
}

// Save upserts an Item.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLStore) Save(ctx context.Context, item domain.Item) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO equipment_item (id, association_id, club_id, name, category, description, total_quantity, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			club_id=excluded.club_id,
			name=excluded.name,
			category=excluded.category,
			description=excluded.description,
			total_quantity=excluded.total_quantity,
			status=excluded.status
	`,
		item.ID, item.AssociationID, storage.NullableString(item.ClubID), item.Name, item.Category,
		item.Description, item.TotalQuantity, item.Status, storage.FormatTime(item.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("save equipment item: %w", err)
	}
	return nil
}

// List retrieves the items of one association ordered by category and name.
// PRE: filter.AssociationID is non-empty
func (s *SQLStore) List(ctx context.Context, filter ListFilter) ([]domain.Item, error) {
	query := selectColumns + " WHERE association_id = ?"
	args := []any{filter.AssociationID}

	if filter.ClubID != "" {
		query += " AND club_id = ?"
		args = append(args, filter.ClubID)
	}
	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		query += " AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)"
		term := storage.LikePattern(filter.Search)
		args = append(args, term, term)
	}
	query += " ORDER BY category, LOWER(name), id"

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

	var items []domain.Item
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanItem(scan func(dest ...any) error) (domain.Item, error) {
	var item domain.Item
	var clubID sql.NullString
	var createdAt string
	err := scan(&item.ID, &item.AssociationID, &clubID, &item.Name, &item.Category, &item.Description,
		&item.TotalQuantity, &item.Status, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Item{}, fmt.Errorf("equipment item not found: %w", err)
	}
	if err != nil {
		return domain.Item{}, err
	}
	item.ClubID = clubID.String
	item.CreatedAt, err = storage.ParseTime(createdAt)
	return item, err
}
