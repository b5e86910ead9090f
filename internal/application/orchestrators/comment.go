package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"league/internal/domain/account"
	"league/internal/domain/announcement"
	"league/internal/domain/comment"
	"league/internal/domain/event"
	"league/internal/domain/featureflag"
)

// CommentStoreForOrchestrator defines the store interface needed by comment orchestrators.
type CommentStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (comment.Comment, error)
	Save(ctx context.Context, c comment.Comment) error
	ToggleLike(ctx context.Context, like comment.Like) (bool, error)
	LikeSummary(ctx context.Context, targetType, targetID, viewerID string) (comment.Summary, error)
}

// AnnouncementLookup loads announcements by ID.
type AnnouncementLookup interface {
	GetByID(ctx context.Context, id string) (announcement.Announcement, error)
}

// EventLookup loads events by ID.
type EventLookup interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
}

// ErrTargetNotOpen is returned when comments or likes point at an unpublished announcement.
var ErrTargetNotOpen = errors.New("announcement is not published")

// TargetResolver checks that a comment target exists in the actor's association.
type TargetResolver struct {
	Announcements AnnouncementLookup
	Events        EventLookup
}

// Resolve returns nil when the actor may react to the target.
// PRE: targetType and targetID pass comment.ValidateTarget
// POST: errors wrap sql.ErrNoRows for unknown targets
func (t TargetResolver) Resolve(ctx context.Context, actor account.Account, targetType, targetID string) error {
	if err := comment.ValidateTarget(targetType, targetID); err != nil {
		return err
	}
	switch targetType {
	case comment.TargetAnnouncement:
		a, err := t.Announcements.GetByID(ctx, targetID)
		if err != nil {
			return err
		}
		if !actor.InAssociation(a.AssociationID) {
			return account.ErrWrongAssociation
		}
		if !a.IsPublished() {
			return ErrTargetNotOpen
		}
	case comment.TargetEvent:
		e, err := t.Events.GetByID(ctx, targetID)
		if err != nil {
			return err
		}
		if !actor.InAssociation(e.AssociationID) {
			return account.ErrWrongAssociation
		}
	}
	return nil
}

// --- Add Comment ---

// AddCommentInput carries input for the add comment orchestrator.
type AddCommentInput struct {
	Actor      account.Account
	TargetType string
	TargetID   string
	Body       string
}

// AddCommentDeps holds dependencies for AddComment.
type AddCommentDeps struct {
	Comments   CommentStoreForOrchestrator
	Targets    TargetResolver
	Members    MemberLookup
	Flags      FlagLookup
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteAddComment posts a comment under an announcement or event.
// The author name is the actor's member name, or the account email when no member is linked.
// PRE: comments are enabled; the target exists in the actor's association
// POST: Comment saved with trimmed body
func ExecuteAddComment(ctx context.Context, input AddCommentInput, deps AddCommentDeps) (comment.Comment, error) {
	actor := input.Actor
	if err := requireFeature(ctx, deps.Flags, actor.AssociationID, featureflag.KeyComments, actor.Role); err != nil {
		return comment.Comment{}, err
	}
	if err := comment.ValidateBody(input.Body); err != nil {
		return comment.Comment{}, err
	}
	if err := deps.Targets.Resolve(ctx, actor, input.TargetType, input.TargetID); err != nil {
		return comment.Comment{}, err
	}

	name := actor.Email
	if deps.Members != nil {
		if m, err := deps.Members.GetByAccount(ctx, actor.AssociationID, actor.ID); err == nil {
			name = m.Name
		}
	}

	c := comment.Comment{
		ID:            deps.GenerateID(),
		AssociationID: actor.AssociationID,
		TargetType:    input.TargetType,
		TargetID:      input.TargetID,
		AuthorID:      actor.ID,
		AuthorName:    name,
		Body:          strings.TrimSpace(input.Body),
		CreatedAt:     deps.Now(),
	}
	if err := c.Validate(); err != nil {
		return comment.Comment{}, err
	}
	if err := deps.Comments.Save(ctx, c); err != nil {
		return comment.Comment{}, err
	}

	slog.Info("comment_event", "event", "comment_added", "comment_id", c.ID, "target_type", c.TargetType, "target_id", c.TargetID)
	return c, nil
}

// loadComment fetches a comment of the actor's association.
func loadComment(ctx context.Context, store CommentStoreForOrchestrator, actor account.Account, id string) (comment.Comment, error) {
	if id == "" {
		return comment.Comment{}, errors.New("comment ID is required")
	}
	c, err := store.GetByID(ctx, id)
	if err != nil {
		return comment.Comment{}, err
	}
	if !actor.InAssociation(c.AssociationID) {
		return comment.Comment{}, account.ErrWrongAssociation
	}
	return c, nil
}

// --- Edit Comment ---

// EditCommentInput carries input for the edit comment orchestrator.
type EditCommentInput struct {
	Actor     account.Account
	CommentID string
	Body      string
}

// EditCommentDeps holds dependencies for EditComment.
type EditCommentDeps struct {
	Comments CommentStoreForOrchestrator
	Now      func() time.Time
}

// ExecuteEditComment replaces the body of the actor's own comment.
// PRE: Actor is the author; comment is not deleted
// POST: Body replaced, EditedAt set
func ExecuteEditComment(ctx context.Context, input EditCommentInput, deps EditCommentDeps) (comment.Comment, error) {
	c, err := loadComment(ctx, deps.Comments, input.Actor, input.CommentID)
	if err != nil {
		return comment.Comment{}, err
	}
	if err := c.Edit(input.Actor.ID, input.Body, deps.Now()); err != nil {
		return comment.Comment{}, err
	}
	if err := deps.Comments.Save(ctx, c); err != nil {
		return comment.Comment{}, err
	}
	slog.Info("comment_event", "event", "comment_edited", "comment_id", c.ID)
	return c, nil
}

// --- Delete Comment ---

// DeleteCommentInput carries input for the delete comment orchestrator.
type DeleteCommentInput struct {
	Actor     account.Account
	CommentID string
}

// DeleteCommentDeps holds dependencies for DeleteComment.
type DeleteCommentDeps struct {
	Comments CommentStoreForOrchestrator
	Now      func() time.Time
}

// ExecuteDeleteComment soft deletes a comment.
// PRE: Actor is the author or an association admin
// POST: DeletedAt set; listings hide the body
func ExecuteDeleteComment(ctx context.Context, input DeleteCommentInput, deps DeleteCommentDeps) error {
	c, err := loadComment(ctx, deps.Comments, input.Actor, input.CommentID)
	if err != nil {
		return err
	}
	isAdmin := input.Actor.CanManage(c.AssociationID, "")
	if err := c.Delete(input.Actor.ID, isAdmin, deps.Now()); err != nil {
		return err
	}
	if err := deps.Comments.Save(ctx, c); err != nil {
		return err
	}
	slog.Info("comment_event", "event", "comment_deleted", "comment_id", c.ID, "by_admin", input.Actor.ID != c.AuthorID)
	return nil
}

// --- Toggle Like ---

// ToggleLikeInput carries input for the like toggle.
type ToggleLikeInput struct {
	Actor      account.Account
	TargetType string
	TargetID   string
}

// ToggleLikeDeps holds dependencies for ToggleLike.
type ToggleLikeDeps struct {
	Comments CommentStoreForOrchestrator
	Targets  TargetResolver
	Flags    FlagLookup
	Now      func() time.Time
}

// ExecuteToggleLike likes the target, or removes the actor's like when present.
// PRE: likes are enabled; the target exists in the actor's association
// POST: at most one like per (target, account); returns the summary after the toggle
func ExecuteToggleLike(ctx context.Context, input ToggleLikeInput, deps ToggleLikeDeps) (comment.Summary, error) {
	actor := input.Actor
	if err := requireFeature(ctx, deps.Flags, actor.AssociationID, featureflag.KeyLikes, actor.Role); err != nil {
		return comment.Summary{}, err
	}
	if err := deps.Targets.Resolve(ctx, actor, input.TargetType, input.TargetID); err != nil {
		return comment.Summary{}, err
	}
	liked, err := deps.Comments.ToggleLike(ctx, comment.Like{
		TargetType: input.TargetType,
		TargetID:   input.TargetID,
		AccountID:  actor.ID,
		CreatedAt:  deps.Now(),
	})
	if err != nil {
		return comment.Summary{}, fmt.Errorf("toggle like: %w", err)
	}
	summary, err := deps.Comments.LikeSummary(ctx, input.TargetType, input.TargetID, actor.ID)
	if err != nil {
		return comment.Summary{}, err
	}
	slog.Debug("comment_event", "event", "like_toggled", "target_type", input.TargetType, "target_id", input.TargetID, "liked", liked)
	return summary, nil
}
