package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"league/internal/domain/account"
	"league/internal/domain/announcement"
	"league/internal/domain/comment"
	"league/internal/domain/event"
	"league/internal/domain/featureflag"
	"league/internal/domain/member"
)

type commentFixture struct {
	comments *mockCommentStore
	targets  TargetResolver
	members  *mockMemberStore
}

func newCommentFixture() *commentFixture {
	published := draft("ann-pub", "")
	published.Status = announcement.StatusPublished
	foreign := draft("ann-foreign", "")
	foreign.AssociationID = "a2"
	foreign.Status = announcement.StatusPublished

	return &commentFixture{
		comments: newMockCommentStore(),
		targets: TargetResolver{
			Announcements: newMockAnnouncementStore(published, foreign, draft("ann-draft", "")),
			Events: newMockEventStore(event.Event{
				ID: "ev-1", AssociationID: "a1", Title: "Training", Type: event.TypeTraining,
				StartAt: fixedTime, EndAt: fixedTime.Add(time.Hour), Visibility: event.VisibilityMembers,
			}),
		},
		members: newMockMemberStore(member.Member{
			ID: "m-jana", AssociationID: "a1", AccountID: memberActor.ID, Name: "Jana Novak",
			Email: "jana@example.com", Role: member.RoleMember, Status: member.StatusActive,
		}),
	}
}

func (f *commentFixture) add(t *testing.T, actor account.Account, targetType, targetID, body string) comment.Comment {
	t.Helper()
	c, err := ExecuteAddComment(context.Background(), AddCommentInput{
		Actor: actor, TargetType: targetType, TargetID: targetID, Body: body,
	}, AddCommentDeps{Comments: f.comments, Targets: f.targets, Members: f.members, GenerateID: sequentialIDs("cm"), Now: fixedNow})
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}
	return c
}

func TestExecuteAddComment(t *testing.T) {
	tests := []struct {
		name       string
		targetType string
		targetID   string
		body       string
		flags      FlagLookup
		wantErr    error
	}{
		{"announcement", comment.TargetAnnouncement, "ann-pub", "  Great news  ", nil, nil},
		{"event", comment.TargetEvent, "ev-1", "See you there", nil, nil},
		{"draft announcement", comment.TargetAnnouncement, "ann-draft", "Early", nil, ErrTargetNotOpen},
		{"foreign announcement", comment.TargetAnnouncement, "ann-foreign", "Hi", nil, account.ErrWrongAssociation},
		{"bad target type", "sponsor", "s1", "Hi", nil, comment.ErrInvalidTarget},
		{"empty body", comment.TargetEvent, "ev-1", "   ", nil, comment.ErrEmptyBody},
		{"comments off", comment.TargetEvent, "ev-1", "Hi", disabledFlags(featureflag.KeyComments), ErrFeatureDisabled},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newCommentFixture()
			c, err := ExecuteAddComment(context.Background(), AddCommentInput{
				Actor: memberActor, TargetType: tc.targetType, TargetID: tc.targetID, Body: tc.body,
			}, AddCommentDeps{Comments: f.comments, Targets: f.targets, Members: f.members, Flags: tc.flags, GenerateID: sequentialIDs("cm"), Now: fixedNow})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
			if tc.wantErr != nil {
				return
			}
			if c.AuthorName != "Jana Novak" || c.Body != strings.TrimSpace(tc.body) {
				t.Fatalf("unexpected comment %+v", c)
			}
		})
	}
}

func TestExecuteAddComment_UnknownTarget(t *testing.T) {
	f := newCommentFixture()
	_, err := ExecuteAddComment(context.Background(), AddCommentInput{
		Actor: memberActor, TargetType: comment.TargetEvent, TargetID: "ev-missing", Body: "Hi",
	}, AddCommentDeps{Comments: f.comments, Targets: f.targets, GenerateID: sequentialIDs("cm"), Now: fixedNow})
	if err == nil {
		t.Fatal("expected not found error")
	}
}

func TestExecuteAddComment_AuthorFallsBackToEmail(t *testing.T) {
	f := newCommentFixture()
	c := f.add(t, adminActor, comment.TargetEvent, "ev-1", "Bring your own oars")
	if c.AuthorName != adminActor.Email {
		t.Fatalf("author name = %q, want account email", c.AuthorName)
	}
}

func TestExecuteEditComment(t *testing.T) {
	f := newCommentFixture()
	c := f.add(t, memberActor, comment.TargetEvent, "ev-1", "Typo")
	deps := EditCommentDeps{Comments: f.comments, Now: fixedNow}

	edited, err := ExecuteEditComment(context.Background(), EditCommentInput{Actor: memberActor, CommentID: c.ID, Body: "Fixed"}, deps)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.Body != "Fixed" || edited.EditedAt.IsZero() {
		t.Fatalf("unexpected comment %+v", edited)
	}
	// Only the author may edit, admins included.
	if _, err := ExecuteEditComment(context.Background(), EditCommentInput{Actor: adminActor, CommentID: c.ID, Body: "Changed"}, deps); !errors.Is(err, comment.ErrNotAuthor) {
		t.Fatalf("admin edit: got %v", err)
	}
}

func TestExecuteDeleteComment(t *testing.T) {
	tests := []struct {
		name    string
		actor   account.Account
		wantErr error
	}{
		{"author", memberActor, nil},
		{"association admin", adminActor, nil},
		{"club manager", managerActor, comment.ErrNotPermitted},
		{"other member", otherActor, comment.ErrNotPermitted},
		{"other association", account.Account{ID: "x", Role: account.RoleAdmin, AssociationID: "a2"}, account.ErrWrongAssociation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newCommentFixture()
			c := f.add(t, memberActor, comment.TargetEvent, "ev-1", "Hello")
			err := ExecuteDeleteComment(context.Background(), DeleteCommentInput{Actor: tc.actor, CommentID: c.ID}, DeleteCommentDeps{Comments: f.comments, Now: fixedNow})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
			stored := f.comments.comments[c.ID]
			if stored.IsDeleted() != (tc.wantErr == nil) {
				t.Fatalf("deleted = %v", stored.IsDeleted())
			}
			if tc.wantErr == nil && stored.Visible().Body != "" {
				t.Fatal("deleted comment body still visible")
			}
		})
	}
}

func TestExecuteToggleLike(t *testing.T) {
	f := newCommentFixture()
	deps := ToggleLikeDeps{Comments: f.comments, Targets: f.targets, Now: fixedNow}
	in := ToggleLikeInput{Actor: memberActor, TargetType: comment.TargetAnnouncement, TargetID: "ann-pub"}

	s, err := ExecuteToggleLike(context.Background(), in, deps)
	if err != nil || s.Count != 1 || !s.LikedByViewer {
		t.Fatalf("first like: %v %+v", err, s)
	}
	s, err = ExecuteToggleLike(context.Background(), ToggleLikeInput{Actor: otherActor, TargetType: comment.TargetAnnouncement, TargetID: "ann-pub"}, deps)
	if err != nil || s.Count != 2 {
		t.Fatalf("second account: %v %+v", err, s)
	}
	s, err = ExecuteToggleLike(context.Background(), in, deps)
	if err != nil || s.Count != 1 || s.LikedByViewer {
		t.Fatalf("unlike: %v %+v", err, s)
	}

	deps.Flags = disabledFlags(featureflag.KeyLikes)
	if _, err := ExecuteToggleLike(context.Background(), in, deps); !errors.Is(err, ErrFeatureDisabled) {
		t.Fatalf("likes off: got %v", err)
	}
}
