package sponsor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"league/internal/adapters/storage"
	domain "league/internal/domain/sponsor"
)

const selectColumns = `SELECT id, association_id, club_id, name, tier, website_url, logo_key,
	contract_start, contract_end, created_at FROM sponsor`

// SQLStore implements Store over storage.SQLDB.
type SQLStore struct {
	db storage.SQLDB
}

// NewSQLStore creates a new sponsor store.
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db}
}

// GetByID retrieves a Sponsor by its ID.
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Sponsor, error) {
	return scanSponsor(s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id).Scan)
}

// Save upserts a Sponsor.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLStore) Save(ctx context.Context, sp domain.Sponsor) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sponsor (id, association_id, club_id, name, tier, website_url, logo_key, contract_start, contract_end, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			club_id=excluded.club_id,
			name=excluded.name,
			tier=excluded.tier,
			website_url=excluded.website_url,
			logo_key=excluded.logo_key,
			contract_start=excluded.contract_start,
			contract_end=excluded.contract_end
	`,
		sp.ID, sp.AssociationID, storage.NullableString(sp.ClubID), sp.Name, sp.Tier, sp.WebsiteURL, sp.LogoKey,
		storage.NullableTime(sp.ContractStart), storage.NullableTime(sp.ContractEnd), storage.FormatTime(sp.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("save sponsor: %w", err)
	}
	return nil
}

// Delete removes a Sponsor by ID.
func (s *SQLStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sponsor WHERE id = ?`, id)
	return err
}

// ListByAssociation returns the sponsors of an association. A non-empty clubID
// narrows the result to that club. Display order is left to domain.SortForDisplay.
func (s *SQLStore) ListByAssociation(ctx context.Context, associationID, clubID string) ([]domain.Sponsor, error) {
	query := selectColumns + " WHERE association_id = ?"
	args := []any{associationID}
	if clubID != "" {
		query += " AND club_id = ?"
		args = append(args, clubID)
	}
	rows, err := s.db.QueryContext(ctx, query+" ORDER BY name, id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Sponsor
	for rows.Next() {
		sp, err := scanSponsor(rows.Scan)
		if err != nil {
			return nil, err
		}
		list = append(list, sp)
	}
	return list, rows.Err()
}

func scanSponsor(scan func(dest ...any) error) (domain.Sponsor, error) {
	var sp domain.Sponsor
	var clubID, contractStart, contractEnd sql.NullString
	var createdAt string
	err := scan(&sp.ID, &sp.AssociationID, &clubID, &sp.Name, &sp.Tier, &sp.WebsiteURL, &sp.LogoKey,
		&contractStart, &contractEnd, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Sponsor{}, fmt.Errorf("sponsor not found: %w", err)
	}
	if err != nil {
		return domain.Sponsor{}, err
	}
	sp.ClubID = clubID.String
	if sp.ContractStart, err = storage.ParseNullTime(contractStart); err != nil {
		return domain.Sponsor{}, err
	}
	if sp.ContractEnd, err = storage.ParseNullTime(contractEnd); err != nil {
		return domain.Sponsor{}, err
	}
	sp.CreatedAt, err = storage.ParseTime(createdAt)
	return sp, err
}
