package featureflag

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"league/internal/adapters/storage"
	domain "league/internal/domain/featureflag"
)

// SQLStore implements Store over storage.SQLDB.
type SQLStore struct {
	db storage.SQLDB
}

// NewSQLStore creates a new FeatureFlag store.
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db}
}

// GetByKey retrieves the saved flag of one association by its stable key.
// PRE: associationID and key are non-empty
// POST: Returns the persisted feature flag or an error wrapping sql.ErrNoRows
// INVARIANT: Store state is not mutated
func (s *SQLStore) GetByKey(ctx context.Context, associationID, key string) (domain.FeatureFlag, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT association_id, key, description, enabled, staff_only
		FROM feature_flag
		WHERE association_id = ? AND key = ?
	`, associationID, key)
	return scanFlag(row.Scan)
}

// List returns the saved flags of one association.
// PRE: associationID is non-empty
// POST: Returns persisted flags sorted by key, never nil
// INVARIANT: Store state is not mutated
func (s *SQLStore) List(ctx context.Context, associationID string) ([]domain.FeatureFlag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT association_id, key, description, enabled, staff_only
		FROM feature_flag
		WHERE association_id = ?
		ORDER BY key
	`, associationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.FeatureFlag{}
	for rows.Next() {
		ff, err := scanFlag(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, ff)
	}
	return out, rows.Err()
}

// Save upserts a feature flag.
// PRE: value passes Validate
// POST: Feature flag is persisted (insert or update)
// INVARIANT: No other feature flags are modified
func (s *SQLStore) Save(ctx context.Context, value domain.FeatureFlag) error {
	if err := value.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feature_flag (association_id, key, description, enabled, staff_only)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(association_id, key) DO UPDATE SET
			description=excluded.description,
			enabled=excluded.enabled,
			staff_only=excluded.staff_only
	`,
		value.AssociationID,
		value.Key,
		value.Description,
		storage.BoolToInt(value.Enabled),
		storage.BoolToInt(value.StaffOnly),
	)
	if err != nil {
		return fmt.Errorf("save feature_flag: %w", err)
	}
	return nil
}

func scanFlag(scan func(dest ...any) error) (domain.FeatureFlag, error) {
	var ff domain.FeatureFlag
	var enabled, staffOnly int
	if err := scan(&ff.AssociationID, &ff.Key, &ff.Description, &enabled, &staffOnly); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.FeatureFlag{}, fmt.Errorf("feature flag not found: %w", err)
		}
		return domain.FeatureFlag{}, err
	}
	ff.Enabled = enabled != 0
	ff.StaffOnly = staffOnly != 0
	return ff, nil
}
