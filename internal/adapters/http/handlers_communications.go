package web

import (
	"net/http"
	"strings"
	"time"

	"league/internal/application/orchestrators"
	"league/internal/application/projections"
	"league/internal/domain/account"
)

const defaultAnnouncementLimit = 50

type announcementRequest struct {
	ClubID       string
	Title        string
	Content      string
	VisibleFrom  time.Time
	VisibleUntil time.Time
}

func (s *server) announcementReadDeps() projections.GetAnnouncementsDeps {
	return projections.GetAnnouncementsDeps{
		AnnouncementStore: s.Stores.Announcements,
		CommentStore:      s.Stores.Comments,
		FlagStore:         s.Stores.FeatureFlags,
	}
}

func (s *server) handleAnnouncements(w http.ResponseWriter, r *http.Request, acct account.Account) {
	switch r.Method {
	case http.MethodGet:
		list, err := projections.QueryGetAnnouncements(r.Context(), projections.GetAnnouncementsQuery{
			Actor:  acct,
			Status: r.URL.Query().Get("status"),
			Limit:  intParam(r, "limit", defaultAnnouncementLimit),
			Offset: intParam(r, "offset", 0),
			Now:    s.Now(),
		}, s.announcementReadDeps())
		if err != nil {
			queryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		var req announcementRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		a, err := orchestrators.ExecuteCreateAnnouncement(r.Context(), orchestrators.CreateAnnouncementInput{
			Actor:        acct,
			ClubID:       req.ClubID,
			Title:        req.Title,
			Content:      req.Content,
			VisibleFrom:  req.VisibleFrom,
			VisibleUntil: req.VisibleUntil,
		}, orchestrators.CreateAnnouncementDeps{
			Announcements: s.Stores.Announcements,
			Audit:         s.Stores.Audit,
			GenerateID:    s.GenerateID,
			Now:           s.Now,
		})
		if err != nil {
			commandError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *server) handleAnnouncement(w http.ResponseWriter, r *http.Request, acct account.Account) {
	id := r.PathValue("id")
	switch r.Method {
	case http.MethodGet:
		a, err := projections.QueryGetAnnouncement(r.Context(), projections.GetAnnouncementQuery{
			Actor:          acct,
			AnnouncementID: id,
			Now:            s.Now(),
		}, s.announcementReadDeps())
		if err != nil {
			queryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	case http.MethodPut:
		var req announcementRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		a, err := orchestrators.ExecuteEditAnnouncement(r.Context(), orchestrators.EditAnnouncementInput{
			Actor:          acct,
			AnnouncementID: id,
			Title:          req.Title,
			Content:        req.Content,
			VisibleFrom:    req.VisibleFrom,
			VisibleUntil:   req.VisibleUntil,
		}, orchestrators.EditAnnouncementDeps{Announcements: s.Stores.Announcements, Now: s.Now})
		if err != nil {
			commandError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	case http.MethodDelete:
		err := orchestrators.ExecuteDeleteAnnouncement(r.Context(), orchestrators.DeleteAnnouncementInput{
			Actor:          acct,
			AnnouncementID: id,
		}, orchestrators.DeleteAnnouncementDeps{
			Announcements: s.Stores.Announcements,
			Audit:         s.Stores.Audit,
			Now:           s.Now,
		})
		if err != nil {
			commandError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

// handlePublishAnnouncement publishes a draft and fans out inbox entries.
func (s *server) handlePublishAnnouncement(w http.ResponseWriter, r *http.Request, acct account.Account) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	res, err := orchestrators.ExecutePublishAnnouncement(r.Context(), orchestrators.PublishAnnouncementInput{
		Actor:          acct,
		AnnouncementID: r.PathValue("id"),
	}, orchestrators.PublishAnnouncementDeps{
		Announcements: s.Stores.Announcements,
		Members:       s.Stores.Members,
		Notifier:      s.notifier(),
		Audit:         s.Stores.Audit,
		RunInTx:       s.RunInTx,
		Now:           s.Now,
	})
	if err != nil {
		commandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handlePinAnnouncement serves both /pin and /unpin.
func (s *server) handlePinAnnouncement(w http.ResponseWriter, r *http.Request, acct account.Account) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	a, err := orchestrators.ExecutePinAnnouncement(r.Context(), orchestrators.PinAnnouncementInput{
		Actor:          acct,
		AnnouncementID: r.PathValue("id"),
		Pinned:         strings.HasSuffix(r.URL.Path, "/pin"),
	}, orchestrators.PinAnnouncementDeps{Announcements: s.Stores.Announcements, Now: s.Now})
	if err != nil {
		commandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *server) targets() orchestrators.TargetResolver {
	return orchestrators.TargetResolver{Announcements: s.Stores.Announcements, Events: s.Stores.Events}
}

type targetRequest struct {
	TargetType string
	TargetID   string
	Body       string
}

// readTarget accepts JSON or a form post with target_type, target_id and body.
func readTarget(w http.ResponseWriter, r *http.Request) (targetRequest, bool) {
	if !isForm(r) {
		var req targetRequest
		return req, decodeJSON(w, r, &req)
	}
	if !parseForm(w, r) {
		return targetRequest{}, false
	}
	return targetRequest{
		TargetType: r.FormValue("target_type"),
		TargetID:   r.FormValue("target_id"),
		Body:       r.FormValue("body"),
	}, true
}

// handleComments lists the thread under ?target_type=&target_id= or adds to it.
func (s *server) handleComments(w http.ResponseWriter, r *http.Request, acct account.Account) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		res, err := projections.QueryGetComments(r.Context(), projections.GetCommentsQuery{
			Actor:      acct,
			TargetType: q.Get("target_type"),
			TargetID:   q.Get("target_id"),
		}, projections.GetCommentsDeps{
			CommentStore:      s.Stores.Comments,
			AnnouncementStore: s.Stores.Announcements,
			EventStore:        s.Stores.Events,
			FlagStore:         s.Stores.FeatureFlags,
		})
		if err != nil {
			queryError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	case http.MethodPost:
		req, ok := readTarget(w, r)
		if !ok {
			return
		}
		c, err := orchestrators.ExecuteAddComment(r.Context(), orchestrators.AddCommentInput{
			Actor:      acct,
			TargetType: req.TargetType,
			TargetID:   req.TargetID,
			Body:       req.Body,
		}, orchestrators.AddCommentDeps{
			Comments:   s.Stores.Comments,
			Targets:    s.targets(),
			Members:    s.Stores.Members,
			Flags:      s.Stores.FeatureFlags,
			GenerateID: s.GenerateID,
			Now:        s.Now,
		})
		if err != nil {
			commandError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *server) handleComment(w http.ResponseWriter, r *http.Request, acct account.Account) {
	id := r.PathValue("id")
	switch r.Method {
	case http.MethodPut:
		var req struct{ Body string }
		if !decodeJSON(w, r, &req) {
			return
		}
		c, err := orchestrators.ExecuteEditComment(r.Context(), orchestrators.EditCommentInput{
			Actor:     acct,
			CommentID: id,
			Body:      req.Body,
		}, orchestrators.EditCommentDeps{Comments: s.Stores.Comments, Now: s.Now})
		if err != nil {
			commandError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	case http.MethodDelete:
		err := orchestrators.ExecuteDeleteComment(r.Context(), orchestrators.DeleteCommentInput{Actor: acct, CommentID: id},
			orchestrators.DeleteCommentDeps{Comments: s.Stores.Comments, Now: s.Now})
		if err != nil {
			commandError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, http.MethodPut, http.MethodDelete)
	}
}

// handleLikes toggles the caller's like on a target and returns the new summary.
func (s *server) handleLikes(w http.ResponseWriter, r *http.Request, acct account.Account) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	req, ok := readTarget(w, r)
	if !ok {
		return
	}
	sum, err := orchestrators.ExecuteToggleLike(r.Context(), orchestrators.ToggleLikeInput{
		Actor:      acct,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
	}, orchestrators.ToggleLikeDeps{
		Comments: s.Stores.Comments,
		Targets:  s.targets(),
		Flags:    s.Stores.FeatureFlags,
		Now:      s.Now,
	})
	if err != nil {
		commandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *server) handleInbox(w http.ResponseWriter, r *http.Request, acct account.Account) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	res, err := projections.QueryGetInbox(r.Context(), projections.GetInboxQuery{
		Actor:      acct,
		UnreadOnly: boolParam(r, "unread"),
		Limit:      intParam(r, "limit", projections.DefaultInboxLimit),
	}, projections.GetInboxDeps{
		MemberStore:       s.Stores.Members,
		NotificationStore: s.Stores.Notifications,
	})
	if err != nil {
		queryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleMarkRead(w http.ResponseWriter, r *http.Request, acct account.Account) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	n, err := orchestrators.ExecuteMarkRead(r.Context(), orchestrators.MarkReadInput{
		Actor:          acct,
		NotificationID: r.PathValue("id"),
	}, orchestrators.MarkReadDeps{
		Notifications: s.Stores.Notifications,
		Members:       s.Stores.Members,
		Now:           s.Now,
	})
	if err != nil {
		commandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}
