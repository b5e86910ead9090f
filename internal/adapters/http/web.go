package web

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"league/internal/adapters/http/metrics"
	"league/internal/adapters/http/middleware"
	"league/internal/adapters/lock"
	announcementStore "league/internal/adapters/storage/announcement"
	associationStore "league/internal/adapters/storage/association"
	auditStore "league/internal/adapters/storage/audit"
	clubStore "league/internal/adapters/storage/club"
	commentStore "league/internal/adapters/storage/comment"
	equipmentStore "league/internal/adapters/storage/equipment"
	eventStore "league/internal/adapters/storage/event"
	featureFlagStore "league/internal/adapters/storage/featureflag"
	memberStore "league/internal/adapters/storage/member"
	notificationStore "league/internal/adapters/storage/notification"
	outboxStore "league/internal/adapters/storage/outbox"
	reservationStore "league/internal/adapters/storage/reservation"
	sponsorStore "league/internal/adapters/storage/sponsor"
	"league/internal/application/jobs"
	"league/internal/application/orchestrators"
	"league/internal/domain/account"
	"league/internal/domain/availability"
	"league/internal/domain/outbox"
)

// Stores holds all storage dependencies.
type Stores struct {
	Associations  associationStore.Store
	Clubs         clubStore.Store
	Members       memberStore.Store
	Events        eventStore.Store
	Announcements announcementStore.Store
	Comments      commentStore.Store
	Notifications notificationStore.Store
	Items         equipmentStore.Store
	Reservations  reservationStore.Store
	Sponsors      sponsorStore.Store
	Audit         auditStore.Store
	Outbox        outboxStore.Store
	FeatureFlags  featureFlagStore.Store
}

// OutboxAdmin is the operator view of the outbox processor.
type OutboxAdmin interface {
	ProcessSingle(ctx context.Context, entryID string) (outbox.Entry, error)
	AbandonEntry(ctx context.Context, entryID string) error
}

// JobRunner lists and triggers scheduled jobs.
type JobRunner interface {
	List() []jobs.JobInfo
	Run(ctx context.Context, name string) error
}

// Deps holds everything the HTTP layer is wired with.
type Deps struct {
	Stores  Stores
	RunInTx orchestrators.TxRunner
	Locker  lock.Locker
	Engine  availability.Engine
	Outbox  OutboxAdmin // nil disables the outbox admin endpoints
	Jobs    JobRunner   // nil disables the job admin endpoints
	Metrics *metrics.Metrics

	Verifier    *middleware.Verifier
	Limiter     *middleware.RateLimiter // nil disables rate limiting
	CSRFKey     []byte
	CSRF        middleware.CSRFOptions
	SlowRequest time.Duration

	// BaseURL is the public origin used in email links and calendar feeds.
	BaseURL string
	// Ping reports database health for /healthz.
	Ping func(ctx context.Context) error

	Now        func() time.Time
	GenerateID func() string
}

// server carries the wired dependencies into the handlers.
type server struct {
	Deps
}

// NewMux wires HTTP handlers for the app.
// PRE: deps.Verifier is set; stores are non-nil
// POST: returns the handler with the full middleware chain applied
func NewMux(deps Deps) http.Handler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.GenerateID == nil {
		deps.GenerateID = func() string { return uuid.New().String() }
	}
	if deps.Locker == nil {
		deps.Locker = lock.NewMemory()
	}
	if deps.RunInTx == nil {
		deps.RunInTx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	s := &server{Deps: deps}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	chain := []func(http.Handler) http.Handler{
		middleware.SecurityHeaders,
		middleware.CSRF(deps.CSRFKey, deps.CSRF),
		middleware.Auth(deps.Verifier),
	}
	if deps.Limiter != nil {
		chain = append(chain, middleware.RateLimit(deps.Limiter))
	}
	chain = append(chain, middleware.Timing(deps.Metrics, deps.SlowRequest))

	// Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux, chain...)
}

func (s *server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.Metrics != nil {
		mux.Handle("/metrics", s.Metrics.Handler())
	}
	mux.HandleFunc("/calendar/{slug}", s.handleCalendarFeed)

	mux.Handle("/api/session", s.authed(s.handleSession))

	// tenant
	mux.Handle("/api/associations", s.authed(s.handleAssociations))
	mux.Handle("/api/association", s.authed(s.handleAssociation))
	mux.Handle("/api/clubs", s.authed(s.handleClubs))
	mux.Handle("/api/clubs/{id}", s.authed(s.handleClub))
	mux.Handle("/api/clubs/{id}/archive", s.authed(s.handleClubStatus))
	mux.Handle("/api/clubs/{id}/restore", s.authed(s.handleClubStatus))

	// members
	mux.Handle("/api/members", s.authed(s.handleMembers))
	mux.Handle("/api/members/import", s.authed(s.handleImportMembers))
	mux.Handle("/api/members/{id}", s.authed(s.handleMember))
	mux.Handle("/api/members/{id}/archive", s.authed(s.handleMemberStatus))
	mux.Handle("/api/members/{id}/restore", s.authed(s.handleMemberStatus))
	mux.Handle("/api/me", s.authed(s.handleMe))

	// calendar
	mux.Handle("/api/events", s.authed(s.handleEvents))
	mux.Handle("/api/events/{id}", s.authed(s.handleEvent))

	// communications
	mux.Handle("/api/announcements", s.authed(s.handleAnnouncements))
	mux.Handle("/api/announcements/{id}", s.authed(s.handleAnnouncement))
	mux.Handle("/api/announcements/{id}/publish", s.authed(s.handlePublishAnnouncement))
	mux.Handle("/api/announcements/{id}/pin", s.authed(s.handlePinAnnouncement))
	mux.Handle("/api/announcements/{id}/unpin", s.authed(s.handlePinAnnouncement))
	mux.Handle("/api/comments", s.authed(s.handleComments))
	mux.Handle("/api/comments/{id}", s.authed(s.handleComment))
	mux.Handle("/api/likes", s.authed(s.handleLikes))
	mux.Handle("/api/inbox", s.authed(s.handleInbox))
	mux.Handle("/api/inbox/{id}/read", s.authed(s.handleMarkRead))

	// equipment
	mux.Handle("/api/items", s.authed(s.handleItems))
	mux.Handle("/api/items/{id}", s.authed(s.handleItem))
	mux.Handle("/api/items/{id}/retire", s.authed(s.handleRetireItem))
	mux.Handle("/api/items/{id}/usage", s.authed(s.handleItemUsage))

	// reservations
	mux.Handle("/api/reservations", s.authed(s.handleReservations))
	mux.Handle("/api/reservations/check", s.authed(s.handleCheckAvailability))
	mux.Handle("/api/reservations/{id}", s.authed(s.handleReservation))
	mux.Handle("/api/reservations/{id}/decision", s.authed(s.handleDecideReservation))
	mux.Handle("/api/reservations/{id}/cancel", s.authed(s.handleCancelReservation))

	// sponsors
	mux.Handle("/api/sponsors", s.authed(s.handleSponsors))
	mux.Handle("/api/sponsors/{id}", s.authed(s.handleSponsor))

	// admin
	admin := middleware.RequireRole(account.RoleAdmin)
	mux.Handle("/api/admin/audit", admin(s.authed(s.handleAdminAudit)))
	mux.Handle("/api/admin/outbox", admin(s.authed(s.handleAdminOutbox)))
	mux.Handle("/api/admin/outbox/{id}/{action}", admin(s.authed(s.handleAdminOutboxEntry)))
	mux.Handle("/api/admin/features", admin(s.authed(s.handleAdminFeatures)))
	mux.Handle("/api/admin/jobs", middleware.RequirePlatformAdmin(s.authed(s.handleAdminJobs)))
	mux.Handle("/api/admin/jobs/{name}/run", middleware.RequirePlatformAdmin(s.authed(s.handleAdminRunJob)))
}

// notifier builds the fan-out used by every write that informs members.
func (s *server) notifier() orchestrators.Notifier {
	return orchestrators.Notifier{
		Notifications: s.Stores.Notifications,
		Outbox:        s.Stores.Outbox,
		Flags:         s.Stores.FeatureFlags,
		GenerateID:    s.GenerateID,
		Now:           s.Now,
		BaseURL:       s.BaseURL,
	}
}

// transitions returns the reservation metrics, or nil when metrics are off.
func (s *server) transitions() orchestrators.TransitionRecorder {
	if s.Metrics == nil {
		return nil
	}
	return s.Metrics
}
