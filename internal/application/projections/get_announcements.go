package projections

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"league/internal/adapters/markdown"
	"league/internal/adapters/storage/announcement"
	"league/internal/domain/account"
	domainAnnouncement "league/internal/domain/announcement"
	domainComment "league/internal/domain/comment"
	"league/internal/domain/featureflag"
)

// Statuses accepted by GetAnnouncementsQuery.Status besides the domain ones.
const (
	AnnouncementsVisible = ""    // published and inside the visibility window
	AnnouncementsAll     = "all" // staff only, drafts included
)

// AnnouncementView is an announcement with rendered content and reactions.
type AnnouncementView struct {
	domainAnnouncement.Announcement
	ContentHTML string
	Likes       *domainComment.Summary // nil when likes are switched off
}

// GetAnnouncementsQuery carries query parameters.
type GetAnnouncementsQuery struct {
	Actor  account.Account
	Status string
	Limit  int
	Offset int
	Now    time.Time
}

// GetAnnouncementsDeps holds dependencies for GetAnnouncements.
type GetAnnouncementsDeps struct {
	AnnouncementStore AnnouncementStore
	CommentStore      CommentStore
	FlagStore         FlagLookup
}

// QueryGetAnnouncements lists announcements for the caller.
// Members get the visible feed of the association plus their club, pinned first.
// Staff may ask for drafts; managers only see their club's drafts.
// PRE: Actor belongs to the association
// POST: Every view carries ContentHTML rendered from Markdown
func QueryGetAnnouncements(ctx context.Context, query GetAnnouncementsQuery, deps GetAnnouncementsDeps) ([]AnnouncementView, error) {
	actor := query.Actor
	if actor.AssociationID == "" {
		return nil, account.ErrMissingTenant
	}

	var list []domainAnnouncement.Announcement
	var err error
	if query.Status == AnnouncementsVisible {
		list, err = deps.AnnouncementStore.ListVisible(ctx, actor.AssociationID, actor.ClubID, query.Now)
	} else {
		if !actor.IsStaff() && !actor.PlatformAdmin {
			return nil, account.ErrForbidden
		}
		filter := announcement.ListFilter{
			AssociationID: actor.AssociationID,
			Limit:         query.Limit,
			Offset:        query.Offset,
		}
		if query.Status != AnnouncementsAll {
			filter.Status = query.Status
		}
		if actor.Role == account.RoleManager {
			filter.ClubID = actor.ClubID
		}
		list, err = deps.AnnouncementStore.List(ctx, filter)
	}
	if err != nil {
		return nil, err
	}

	likesOn, err := featureOn(ctx, deps.FlagStore, actor, featureflag.KeyLikes)
	if err != nil {
		return nil, err
	}
	views := make([]AnnouncementView, 0, len(list))
	for _, a := range list {
		v, err := announcementView(ctx, deps.CommentStore, actor, a, likesOn)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// GetAnnouncementQuery carries query parameters.
type GetAnnouncementQuery struct {
	Actor          account.Account
	AnnouncementID string
	Now            time.Time
}

// QueryGetAnnouncement retrieves one announcement. Announcements the caller
// may not see are reported as not found.
// PRE: AnnouncementID is non-empty
// POST: Drafts are only returned to staff who can manage them
func QueryGetAnnouncement(ctx context.Context, query GetAnnouncementQuery, deps GetAnnouncementsDeps) (AnnouncementView, error) {
	actor := query.Actor
	a, err := deps.AnnouncementStore.GetByID(ctx, query.AnnouncementID)
	if err != nil {
		return AnnouncementView{}, err
	}
	if !actor.InAssociation(a.AssociationID) {
		return AnnouncementView{}, account.ErrWrongAssociation
	}
	if !actor.CanManage(a.AssociationID, a.ClubID) {
		if !a.IsVisible(query.Now) || (a.IsClubScoped() && a.ClubID != actor.ClubID) {
			return AnnouncementView{}, fmt.Errorf("announcement %s: %w", a.ID, sql.ErrNoRows)
		}
	}
	likesOn, err := featureOn(ctx, deps.FlagStore, actor, featureflag.KeyLikes)
	if err != nil {
		return AnnouncementView{}, err
	}
	return announcementView(ctx, deps.CommentStore, actor, a, likesOn)
}

func announcementView(ctx context.Context, comments CommentStore, actor account.Account, a domainAnnouncement.Announcement, likesOn bool) (AnnouncementView, error) {
	v := AnnouncementView{Announcement: a, ContentHTML: markdown.RenderOrEscape(a.Content)}
	if !likesOn || !a.IsPublished() || comments == nil {
		return v, nil
	}
	s, err := comments.LikeSummary(ctx, domainComment.TargetAnnouncement, a.ID, actor.ID)
	if err != nil {
		return AnnouncementView{}, err
	}
	v.Likes = &s
	return v, nil
}
