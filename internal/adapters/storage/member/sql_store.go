package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"league/internal/adapters/storage"
	domain "league/internal/domain/member"
)

const selectColumns = "SELECT id, association_id, club_id, account_id, name, email, role, status, joined_at FROM member"

// SQLStore implements Store over storage.SQLDB.
type SQLStore struct {
	db storage.SQLDB
}

// NewSQLStore creates a new member store.
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db}
}

// GetByID retrieves a Member by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows
func (s *SQLStore) GetByID(ctx context.Context, id string) (domain.Member, error) {
	return scanMember(s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id).Scan)
}

// GetByEmail retrieves a Member by normalized email within an association.
// PRE: associationID and email are non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows
func (s *SQLStore) GetByEmail(ctx context.Context, associationID, email string) (domain.Member, error) {
	return scanMember(s.db.QueryRowContext(ctx,
		selectColumns+" WHERE association_id = ? AND email = ?",
		associationID, domain.NormalizeEmail(email),
	).Scan)
}

// GetByAccount resolves the member record of an authenticated account.
// PRE: associationID and accountID are non-empty
// POST: Returns the entity or an error wrapping sql.ErrNoRows
func (s *SQLStore) GetByAccount(ctx context.Context, associationID, accountID string) (domain.Member, error) {
	return scanMember(s.db.QueryRowContext(ctx,
		selectColumns+" WHERE association_id = ? AND account_id = ?",
		associationID, accountID,
	).Scan)
}

// Save upserts a Member. The email is stored normalized.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLStore) Save(ctx context.Context, entity domain.Member) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO member (id, association_id, club_id, account_id, name, email, role, status, joined_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			club_id=excluded.club_id,
			account_id=excluded.account_id,
			name=excluded.name,
			email=excluded.email,
			role=excluded.role,
			status=excluded.status
	`,
		entity.ID, entity.AssociationID, storage.NullableString(entity.ClubID), entity.AccountID,
		entity.Name, domain.NormalizeEmail(entity.Email), entity.Role, entity.Status,
		storage.FormatTime(entity.JoinedAt),
	)
	if storage.IsUniqueViolation(err) {
		return domain.ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("save member: %w", err)
	}
	return nil
}

// listWhereClause builds the WHERE clause and args for List/Count queries.
func listWhereClause(filter ListFilter) (string, []any) {
	where := " WHERE association_id = ?"
	args := []any{filter.AssociationID}

	if filter.ClubID != "" {
		where += " AND club_id = ?"
		args = append(args, filter.ClubID)
	}
	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.Role != "" {
		where += " AND role = ?"
		args = append(args, filter.Role)
	}
	if filter.Search != "" {
		where += " AND (LOWER(name) LIKE ? OR email LIKE ?)"
		term := storage.LikePattern(filter.Search)
		args = append(args, term, term)
	}
	return where, args
}

// sortClause returns a safe ORDER BY clause. Only allowed columns are accepted.
func sortClause(filter ListFilter) string {
	allowed := map[string]string{
		"name":   "LOWER(name)",
		"email":  "email",
		"joined": "joined_at",
		"status": "status",
	}
	col, ok := allowed[filter.Sort]
	if !ok {
		return " ORDER BY LOWER(name) ASC, id ASC"
	}
	dir := "ASC"
	if filter.Dir == "desc" {
		dir = "DESC"
	}
	return " ORDER BY " + col + " " + dir + ", id ASC"
}

// Count returns the total number of members matching the filter.
func (s *SQLStore) Count(ctx context.Context, filter ListFilter) (int, error) {
	where, args := listWhereClause(filter)
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM member"+where, args...).Scan(&count)
	return count, err
}

// List retrieves members of one association with pagination, filtering and sorting.
// PRE: filter.AssociationID is non-empty
// POST: Returns matching entities in sort order
func (s *SQLStore) List(ctx context.Context, filter ListFilter) ([]domain.Member, error) {
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

	var results []domain.Member
	for rows.Next() {
		m, err := scanMember(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

func scanMember(scan func(dest ...any) error) (domain.Member, error) {
	var m domain.Member
	var clubID sql.NullString
	var joinedAt string
	err := scan(&m.ID, &m.AssociationID, &clubID, &m.AccountID, &m.Name, &m.Email, &m.Role, &m.Status, &joinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Member{}, fmt.Errorf("member not found: %w", err)
	}
	if err != nil {
		return domain.Member{}, err
	}
	m.ClubID = clubID.String
	m.JoinedAt, err = storage.ParseTime(joinedAt)
	return m, err
}
