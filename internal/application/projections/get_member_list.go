package projections

import (
	"context"

	"league/internal/adapters/storage/member"
	"league/internal/application/listutil"
	"league/internal/domain/account"
)

// MemberSortColumns are the sort keys accepted by QueryGetMemberList.
var MemberSortColumns = []string{"name", "email", "joined", "status"}

// MemberFilterKeys are the exact-match filters accepted by QueryGetMemberList.
var MemberFilterKeys = []string{"club", "status", "role"}

// GetMemberListQuery carries query parameters.
type GetMemberListQuery struct {
	Actor  account.Account
	Params listutil.ListParams
}

// MemberRow is one line of the member list.
type MemberRow struct {
	ID       string
	ClubID   string
	Name     string
	Email    string
	Role     string
	Status   string
	JoinedAt string
}

// GetMemberListResult carries the query result.
type GetMemberListResult struct {
	Members []MemberRow
	Page    listutil.PageInfo
}

// GetMemberListDeps holds dependencies for GetMemberList.
type GetMemberListDeps struct {
	MemberStore MemberStore
}

// QueryGetMemberList retrieves one page of the association's members.
// Managers only see their own club.
// PRE: Actor is staff of the association
// POST: Returns at most PerPage members plus paging metadata
func QueryGetMemberList(ctx context.Context, query GetMemberListQuery, deps GetMemberListDeps) (GetMemberListResult, error) {
	actor := query.Actor
	if !actor.IsStaff() && !actor.PlatformAdmin {
		return GetMemberListResult{}, account.ErrForbidden
	}
	p := query.Params

	filter := member.ListFilter{
		AssociationID: actor.AssociationID,
		ClubID:        p.Filters["club"],
		Status:        p.Filters["status"],
		Role:          p.Filters["role"],
		Search:        p.Search,
		Sort:          p.Sort,
		Dir:           p.Dir,
	}
	if actor.Role == account.RoleManager {
		filter.ClubID = actor.ClubID
	}

	total, err := deps.MemberStore.Count(ctx, filter)
	if err != nil {
		return GetMemberListResult{}, err
	}
	page := listutil.NewPageInfo(p.Page, p.PerPage, total)
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()

	members, err := deps.MemberStore.List(ctx, filter)
	if err != nil {
		return GetMemberListResult{}, err
	}

	rows := make([]MemberRow, 0, len(members))
	for _, m := range members {
		rows = append(rows, MemberRow{
			ID:       m.ID,
			ClubID:   m.ClubID,
			Name:     m.Name,
			Email:    m.Email,
			Role:     m.Role,
			Status:   m.Status,
			JoinedAt: m.JoinedAt.Format("2006-01-02"),
		})
	}
	return GetMemberListResult{Members: rows, Page: page}, nil
}
