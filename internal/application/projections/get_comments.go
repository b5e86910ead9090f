package projections

import (
	"context"
	"errors"

	"league/internal/domain/account"
	domainComment "league/internal/domain/comment"
	"league/internal/domain/featureflag"
)

// ErrCommentsDisabled is returned when the association switched comments off.
var ErrCommentsDisabled = errors.New("comments are disabled for this association")

// GetCommentsQuery carries query parameters.
type GetCommentsQuery struct {
	Actor      account.Account
	TargetType string
	TargetID   string
}

// GetCommentsResult carries the query result.
type GetCommentsResult struct {
	Comments []domainComment.Comment
	Likes    *domainComment.Summary // nil when likes are switched off
}

// GetCommentsDeps holds dependencies for GetComments.
type GetCommentsDeps struct {
	CommentStore      CommentStore
	AnnouncementStore AnnouncementStore
	EventStore        EventStore
	FlagStore         FlagLookup
}

// QueryGetComments lists the comments under an announcement or event with its like summary.
// PRE: the target exists in the caller's association
// POST: Deleted comments keep their place in the thread with an empty body
func QueryGetComments(ctx context.Context, query GetCommentsQuery, deps GetCommentsDeps) (GetCommentsResult, error) {
	actor := query.Actor
	if err := domainComment.ValidateTarget(query.TargetType, query.TargetID); err != nil {
		return GetCommentsResult{}, err
	}
	if err := checkTarget(ctx, deps, actor, query.TargetType, query.TargetID); err != nil {
		return GetCommentsResult{}, err
	}
	on, err := featureOn(ctx, deps.FlagStore, actor, featureflag.KeyComments)
	if err != nil {
		return GetCommentsResult{}, err
	}
	if !on {
		return GetCommentsResult{}, ErrCommentsDisabled
	}

	list, err := deps.CommentStore.ListByTarget(ctx, query.TargetType, query.TargetID)
	if err != nil {
		return GetCommentsResult{}, err
	}
	result := GetCommentsResult{Comments: make([]domainComment.Comment, 0, len(list))}
	for _, c := range list {
		result.Comments = append(result.Comments, c.Visible())
	}

	likesOn, err := featureOn(ctx, deps.FlagStore, actor, featureflag.KeyLikes)
	if err != nil {
		return GetCommentsResult{}, err
	}
	if likesOn {
		s, err := deps.CommentStore.LikeSummary(ctx, query.TargetType, query.TargetID, actor.ID)
		if err != nil {
			return GetCommentsResult{}, err
		}
		result.Likes = &s
	}
	return result, nil
}

func checkTarget(ctx context.Context, deps GetCommentsDeps, actor account.Account, targetType, targetID string) error {
	var associationID string
	switch targetType {
	case domainComment.TargetAnnouncement:
		a, err := deps.AnnouncementStore.GetByID(ctx, targetID)
		if err != nil {
			return err
		}
		associationID = a.AssociationID
	case domainComment.TargetEvent:
		e, err := deps.EventStore.GetByID(ctx, targetID)
		if err != nil {
			return err
		}
		associationID = e.AssociationID
	}
	if !actor.InAssociation(associationID) {
		return account.ErrWrongAssociation
	}
	return nil
}
