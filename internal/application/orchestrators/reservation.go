package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"league/internal/adapters/lock"
	"league/internal/domain/account"
	"league/internal/domain/audit"
	"league/internal/domain/availability"
	"league/internal/domain/email"
	"league/internal/domain/equipment"
	"league/internal/domain/featureflag"
	"league/internal/domain/member"
	"league/internal/domain/notification"
	"league/internal/domain/reservation"
)

// ReservationStoreForOrchestrator defines the store interface needed by reservation orchestrators.
type ReservationStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (reservation.Request, error)
	Save(ctx context.Context, r reservation.Request) error
	CommittedBookings(ctx context.Context, itemIDs []string, w availability.Window) (map[string][]availability.Booking, error)
	ListExpirable(ctx context.Context, cutoff time.Time, limit int) ([]reservation.Request, error)
}

// ItemLookup loads equipment items by ID.
type ItemLookup interface {
	GetMany(ctx context.Context, ids []string) (map[string]equipment.Item, error)
}

// MemberLookup resolves members by ID and by linked account.
type MemberLookup interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
	GetByAccount(ctx context.Context, associationID, accountID string) (member.Member, error)
}

// TransitionRecorder counts reservation status changes.
type TransitionRecorder interface {
	RecordTransition(status string)
}

// LineInput is one requested item.
type LineInput struct {
	ItemID   string
	Quantity int
}

func toLines(in []LineInput) []reservation.Line {
	lines := make([]reservation.Line, len(in))
	for i, l := range in {
		lines[i] = reservation.Line{ItemID: strings.TrimSpace(l.ItemID), Requested: l.Quantity}
	}
	return lines
}

// loadReservableItems returns the items of lines after checking they can be
// reserved by associationID and that no line asks for more than the stock.
func loadReservableItems(ctx context.Context, items ItemLookup, associationID string, lines []reservation.Line) (map[string]equipment.Item, error) {
	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.ItemID
	}
	found, err := items.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	for _, l := range lines {
		item, ok := found[l.ItemID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", equipment.ErrNotFound, l.ItemID)
		}
		if err := item.CheckReservable(associationID); err != nil {
			return nil, fmt.Errorf("%w: %s", err, l.ItemID)
		}
		if l.Requested > item.TotalQuantity {
			return nil, fmt.Errorf("%w: %s has %d", reservation.ErrExceedsStock, item.Name, item.TotalQuantity)
		}
	}
	return found, nil
}

// evaluateLines runs the availability engine for demands over w.
func evaluateLines(ctx context.Context, store ReservationStoreForOrchestrator, engine availability.Engine, items map[string]equipment.Item, w availability.Window, demands []availability.Demand, excludeRequestID string) ([]availability.LineCheck, error) {
	ids := make([]string, len(demands))
	for i, d := range demands {
		ids[i] = d.ItemID
	}
	bookings, err := store.CommittedBookings(ctx, ids, w)
	if err != nil {
		return nil, fmt.Errorf("load committed bookings: %w", err)
	}
	stock := make(map[string]availability.Stock, len(items))
	for id, item := range items {
		stock[id] = availability.Stock{Total: item.TotalQuantity, Bookings: bookings[id]}
	}
	return engine.Check(w, demands, stock, excludeRequestID), nil
}

// --- Check Availability ---

// CheckAvailabilityInput carries input for the availability check.
type CheckAvailabilityInput struct {
	Actor            account.Account
	StartAt          time.Time
	EndAt            time.Time
	Lines            []LineInput
	ExcludeRequestID string // re-evaluating an existing request ignores its own bookings
}

// CheckAvailabilityDeps holds dependencies for CheckAvailability.
type CheckAvailabilityDeps struct {
	Reservations ReservationStoreForOrchestrator
	Items        ItemLookup
	Engine       availability.Engine
}

// CheckAvailabilityResult is the per-line verdict plus a partial suggestion.
type CheckAvailabilityResult struct {
	Lines         []availability.LineCheck
	AllSufficient bool
	Suggested     map[string]int
}

// ExecuteCheckAvailability evaluates requested quantities without persisting anything.
// PRE: Actor belongs to an association; window is valid; lines pass reservation.ValidateLines
// POST: One LineCheck per line in input order
func ExecuteCheckAvailability(ctx context.Context, input CheckAvailabilityInput, deps CheckAvailabilityDeps) (CheckAvailabilityResult, error) {
	if input.Actor.AssociationID == "" {
		return CheckAvailabilityResult{}, account.ErrMissingTenant
	}
	w := availability.Window{Start: input.StartAt, End: input.EndAt}
	if err := w.Validate(); err != nil {
		return CheckAvailabilityResult{}, err
	}
	lines := toLines(input.Lines)
	if err := reservation.ValidateLines(lines); err != nil {
		return CheckAvailabilityResult{}, err
	}
	items, err := loadReservableItems(ctx, deps.Items, input.Actor.AssociationID, lines)
	if err != nil {
		return CheckAvailabilityResult{}, err
	}
	r := reservation.Request{Lines: lines}
	checks, err := evaluateLines(ctx, deps.Reservations, deps.Engine, items, w, r.Demands(), input.ExcludeRequestID)
	if err != nil {
		return CheckAvailabilityResult{}, err
	}
	return CheckAvailabilityResult{
		Lines:         checks,
		AllSufficient: availability.AllSufficient(checks),
		Suggested:     availability.SuggestPartial(checks),
	}, nil
}

// --- Submit Request ---

// SubmitRequestInput carries input for submitting a reservation request.
type SubmitRequestInput struct {
	Actor   account.Account
	Purpose string
	StartAt time.Time
	EndAt   time.Time
	Lines   []LineInput
}

// SubmitRequestDeps holds dependencies for SubmitRequest.
type SubmitRequestDeps struct {
	Reservations ReservationStoreForOrchestrator
	Items        ItemLookup
	Members      MemberLookup
	Flags        FlagLookup
	Audit        AuditWriter
	Metrics      TransitionRecorder
	RunInTx      TxRunner
	GenerateID   func() string
	Now          func() time.Time
}

// ExecuteSubmitRequest creates a pending reservation request for the actor's member record.
// PRE: Actor is linked to an active member; window starts in the future; every item is
// active, owned by the actor's association and has at least the requested stock
// POST: Request saved with status pending; no stock is committed
func ExecuteSubmitRequest(ctx context.Context, input SubmitRequestInput, deps SubmitRequestDeps) (reservation.Request, error) {
	actor := input.Actor
	if err := requireFeature(ctx, deps.Flags, actor.AssociationID, featureflag.KeyReservations, actor.Role); err != nil {
		return reservation.Request{}, err
	}
	requester, err := deps.Members.GetByAccount(ctx, actor.AssociationID, actor.ID)
	if err != nil {
		return reservation.Request{}, fmt.Errorf("resolve requester: %w", err)
	}
	if !requester.IsActive() {
		return reservation.Request{}, member.ErrNotActive
	}

	now := deps.Now()
	r := reservation.Request{
		ID:            deps.GenerateID(),
		AssociationID: actor.AssociationID,
		ClubID:        requester.ClubID,
		RequesterID:   requester.ID,
		RequesterName: requester.Name,
		Purpose:       strings.TrimSpace(input.Purpose),
		StartAt:       input.StartAt,
		EndAt:         input.EndAt,
		Status:        reservation.StatusPending,
		Lines:         toLines(input.Lines),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := r.Validate(); err != nil {
		return reservation.Request{}, err
	}
	if !r.StartAt.After(now) {
		return reservation.Request{}, reservation.ErrWindowStarted
	}
	if _, err := loadReservableItems(ctx, deps.Items, r.AssociationID, r.Lines); err != nil {
		return reservation.Request{}, err
	}

	err = runInTx(ctx, deps.RunInTx, func(ctx context.Context) error {
		if err := deps.Reservations.Save(ctx, r); err != nil {
			return err
		}
		return recordAudit(ctx, deps.Audit, actor, r.AssociationID, audit.CategoryReservation, audit.ActionSubmit,
			"reservation", r.ID, fmt.Sprintf("%d line(s) from %s to %s", len(r.Lines), r.StartAt.Format(time.RFC3339), r.EndAt.Format(time.RFC3339)), now)
	})
	if err != nil {
		return reservation.Request{}, err
	}

	recordTransition(deps.Metrics, r.Status)
	slog.Info("reservation_event", "event", "request_submitted", "request_id", r.ID, "association_id", r.AssociationID, "requester_id", r.RequesterID, "lines", len(r.Lines))
	return r, nil
}

// --- Decide Request (approve / partially approve / reject) ---

// Decisions
const (
	DecisionApprove = "approve"
	DecisionPartial = "partial"
	DecisionReject  = "reject"
)

// DecideRequestInput carries input for a decision on a pending request.
type DecideRequestInput struct {
	Actor     account.Account
	RequestID string
	Decision  string
	Note      string
	// Approved holds the granted quantity per item for a partial approval.
	// A nil map asks for the engine's suggestion (min of requested and available).
	Approved map[string]int
	// SpawnRemainder creates a pending follow-up request for the ungranted units.
	SpawnRemainder bool
}

// DecideRequestDeps holds dependencies for DecideRequest.
type DecideRequestDeps struct {
	Reservations ReservationStoreForOrchestrator
	Items        ItemLookup
	Members      MemberLookup
	Flags        FlagLookup
	Audit        AuditWriter
	Notifier     Notifier
	Locker       lock.Locker
	RunInTx      TxRunner
	Engine       availability.Engine
	Metrics      TransitionRecorder
	GenerateID   func() string
	Now          func() time.Time
}

// DecideRequestResult is the decided request and the remainder request, if one was spawned.
type DecideRequestResult struct {
	Request   reservation.Request
	Remainder *reservation.Request
	Checks    []availability.LineCheck
}

// ErrUnknownDecision is returned for decisions other than approve, partial and reject.
var ErrUnknownDecision = errors.New("decision must be 'approve', 'partial' or 'reject'")

// canApprove reports whether actor may decide on a request for items.
// Admins decide anything in their association. Managers decide only when
// every item is owned by their club.
func canApprove(actor account.Account, r reservation.Request, items map[string]equipment.Item) bool {
	if !actor.InAssociation(r.AssociationID) {
		return false
	}
	if actor.PlatformAdmin || actor.IsAdmin() {
		return true
	}
	if actor.Role != account.RoleManager || actor.ClubID == "" {
		return false
	}
	for _, l := range r.Lines {
		if items[l.ItemID].ClubID != actor.ClubID {
			return false
		}
	}
	return true
}

// ExecuteDecideRequest approves, partially approves or rejects a pending request.
// Stock-committing decisions hold the association's approval lock and run the
// availability check and the status write in one unit of work.
// PRE: Actor may approve for every item; request is pending and its window has not ended
// POST: Request decided; requester notified; audit event written. For approvals no
// item is committed beyond its total stock at any instant.
func ExecuteDecideRequest(ctx context.Context, input DecideRequestInput, deps DecideRequestDeps) (DecideRequestResult, error) {
	if input.RequestID == "" {
		return DecideRequestResult{}, errors.New("request ID is required")
	}
	switch input.Decision {
	case DecisionApprove, DecisionPartial, DecisionReject:
	default:
		return DecideRequestResult{}, ErrUnknownDecision
	}
	note := strings.TrimSpace(input.Note)
	if len(note) > reservation.MaxNoteLength {
		return DecideRequestResult{}, reservation.ErrNoteTooLong
	}

	current, err := deps.Reservations.GetByID(ctx, input.RequestID)
	if err != nil {
		return DecideRequestResult{}, err
	}
	if !input.Actor.InAssociation(current.AssociationID) {
		return DecideRequestResult{}, account.ErrWrongAssociation
	}
	items, err := deps.Items.GetMany(ctx, current.ItemIDs())
	if err != nil {
		return DecideRequestResult{}, fmt.Errorf("load items: %w", err)
	}
	if !canApprove(input.Actor, current, items) {
		return DecideRequestResult{}, account.ErrForbidden
	}
	if input.SpawnRemainder && input.Decision == DecisionPartial {
		if err := requireFeature(ctx, deps.Flags, current.AssociationID, featureflag.KeyRemainderRequests, input.Actor.Role); err != nil {
			return DecideRequestResult{}, err
		}
	}

	if input.Decision != DecisionReject && deps.Locker != nil {
		ctxLock, cancel := context.WithTimeout(ctx, 15*time.Second)
		release, err := deps.Locker.Acquire(ctxLock, lock.ApprovalKey(current.AssociationID))
		cancel()
		if err != nil {
			return DecideRequestResult{}, fmt.Errorf("acquire approval lock: %w", err)
		}
		defer release()
	}

	var result DecideRequestResult
	err = runInTx(ctx, deps.RunInTx, func(ctx context.Context) error {
		// Re-read inside the unit of work; a concurrent decision may have won.
		r, err := deps.Reservations.GetByID(ctx, input.RequestID)
		if err != nil {
			return err
		}
		now := deps.Now()

		var checks []availability.LineCheck
		if input.Decision != DecisionReject {
			items, err := deps.Items.GetMany(ctx, r.ItemIDs())
			if err != nil {
				return fmt.Errorf("load items: %w", err)
			}
			checks, err = evaluateLines(ctx, deps.Reservations, deps.Engine, items, r.Window(), r.Demands(), r.ID)
			if err != nil {
				return err
			}
			for _, l := range r.Lines {
				item := items[l.ItemID]
				if err := item.CheckReservable(r.AssociationID); err != nil {
					return fmt.Errorf("%w: %s", err, l.ItemID)
				}
			}
		}

		var action audit.Action
		switch input.Decision {
		case DecisionApprove:
			err = r.Approve(input.Actor.ID, note, checks, now)
			action = audit.ActionApprove
		case DecisionPartial:
			approved := input.Approved
			if approved == nil {
				approved = availability.SuggestPartial(checks)
			}
			err = r.PartiallyApprove(input.Actor.ID, note, approved, checks, now)
			action = audit.ActionPartial
		case DecisionReject:
			err = r.Reject(input.Actor.ID, note, now)
			action = audit.ActionReject
		}
		if err != nil {
			return err
		}
		if err := deps.Reservations.Save(ctx, r); err != nil {
			return err
		}
		result = DecideRequestResult{Request: r, Checks: checks}

		if input.SpawnRemainder && r.Status == reservation.StatusPartiallyApproved {
			rem, err := r.Remainder(deps.GenerateID(), now)
			if err != nil {
				return err
			}
			if err := deps.Reservations.Save(ctx, rem); err != nil {
				return err
			}
			result.Remainder = &rem
		}

		if err := recordAudit(ctx, deps.Audit, input.Actor, r.AssociationID, audit.CategoryReservation, action,
			"reservation", r.ID, decisionSummary(r), now); err != nil {
			return err
		}
		return notifyRequester(ctx, deps.Members, deps.Notifier, r, decisionNotice(r, result.Remainder))
	})
	if err != nil {
		return DecideRequestResult{}, err
	}

	recordTransition(deps.Metrics, result.Request.Status)
	if result.Remainder != nil {
		recordTransition(deps.Metrics, result.Remainder.Status)
	}
	slog.Info("reservation_event", "event", "request_decided", "request_id", result.Request.ID,
		"status", result.Request.Status, "decided_by", input.Actor.ID, "remainder", result.Remainder != nil)
	return result, nil
}

func decisionSummary(r reservation.Request) string {
	parts := make([]string, len(r.Lines))
	for i, l := range r.Lines {
		parts[i] = fmt.Sprintf("%s %d/%d", l.ItemID, l.Approved, l.Requested)
	}
	return r.Status + ": " + strings.Join(parts, ", ")
}

func decisionNotice(r reservation.Request, remainder *reservation.Request) Notice {
	n := Notice{
		Kind:      notification.KindReservation,
		EmailKind: email.KindReservation,
		Link:      "/api/reservations/" + r.ID,
	}
	window := fmt.Sprintf("%s to %s", r.StartAt.Format("2006-01-02 15:04"), r.EndAt.Format("2006-01-02 15:04"))
	switch r.Status {
	case reservation.StatusApproved:
		n.Subject = "Reservation approved"
		n.Body = fmt.Sprintf("Your reservation for %s was approved.", window)
	case reservation.StatusPartiallyApproved:
		n.Subject = "Reservation partially approved"
		var b strings.Builder
		fmt.Fprintf(&b, "Your reservation for %s was partially approved:\n\n", window)
		for _, l := range r.Lines {
			fmt.Fprintf(&b, "- %s: %d of %d\n", l.ItemID, l.Approved, l.Requested)
		}
		if remainder != nil {
			b.WriteString("\nThe remaining units stay requested and may be approved later.")
		}
		n.Body = b.String()
	case reservation.StatusRejected:
		n.Subject = "Reservation rejected"
		n.Body = fmt.Sprintf("Your reservation for %s was rejected.", window)
	case reservation.StatusCancelled:
		n.Subject = "Reservation cancelled"
		n.Body = fmt.Sprintf("Your reservation for %s was cancelled by an administrator.", window)
	case reservation.StatusExpired:
		n.Subject = "Reservation expired"
		n.Body = fmt.Sprintf("Your reservation for %s expired without a decision.", window)
	}
	if r.DecisionNote != "" {
		n.Body += "\n\n> " + r.DecisionNote
	}
	return n
}

func notifyRequester(ctx context.Context, members MemberLookup, notifier Notifier, r reservation.Request, n Notice) error {
	if members == nil {
		return nil
	}
	requester, err := members.GetByID(ctx, r.RequesterID)
	if err != nil {
		return fmt.Errorf("load requester: %w", err)
	}
	return notifier.Notify(ctx, r.AssociationID, []member.Member{requester}, n)
}

func recordTransition(m TransitionRecorder, status string) {
	if m != nil {
		m.RecordTransition(status)
	}
}

// --- Cancel Request ---

// CancelRequestInput carries input for cancelling a request.
type CancelRequestInput struct {
	Actor     account.Account
	RequestID string
}

// CancelRequestDeps holds dependencies for CancelRequest.
type CancelRequestDeps struct {
	Reservations ReservationStoreForOrchestrator
	Members      MemberLookup
	Audit        AuditWriter
	Notifier     Notifier
	RunInTx      TxRunner
	Metrics      TransitionRecorder
	Now          func() time.Time
}

// ExecuteCancelRequest withdraws a pending or decided request and releases its stock.
// PRE: Actor is the requester, or may manage the request's club; window has not ended
// POST: Status cancelled; requester notified when someone else cancelled
func ExecuteCancelRequest(ctx context.Context, input CancelRequestInput, deps CancelRequestDeps) (reservation.Request, error) {
	if input.RequestID == "" {
		return reservation.Request{}, errors.New("request ID is required")
	}
	var out reservation.Request
	var byOther bool
	err := runInTx(ctx, deps.RunInTx, func(ctx context.Context) error {
		r, err := deps.Reservations.GetByID(ctx, input.RequestID)
		if err != nil {
			return err
		}
		if !input.Actor.InAssociation(r.AssociationID) {
			return account.ErrWrongAssociation
		}
		actorMemberID, err := memberIDForAccount(ctx, deps.Members, r.AssociationID, input.Actor.ID)
		if err != nil {
			return err
		}
		isAdmin := input.Actor.CanManage(r.AssociationID, r.ClubID)
		now := deps.Now()
		if err := r.Cancel(actorMemberID, isAdmin, now); err != nil {
			return err
		}
		if err := deps.Reservations.Save(ctx, r); err != nil {
			return err
		}
		if err := recordAudit(ctx, deps.Audit, input.Actor, r.AssociationID, audit.CategoryReservation, audit.ActionCancel,
			"reservation", r.ID, "cancelled", now); err != nil {
			return err
		}
		out = r
		byOther = actorMemberID != r.RequesterID
		if byOther {
			return notifyRequester(ctx, deps.Members, deps.Notifier, r, decisionNotice(r, nil))
		}
		return nil
	})
	if err != nil {
		return reservation.Request{}, err
	}
	recordTransition(deps.Metrics, out.Status)
	slog.Info("reservation_event", "event", "request_cancelled", "request_id", out.ID, "by_other", byOther)
	return out, nil
}

// --- Expire Stale Requests ---

// ExpireStaleRequestsInput carries input for the expiry job.
type ExpireStaleRequestsInput struct {
	BatchSize int
}

// ExpireStaleRequestsDeps holds dependencies for ExpireStaleRequests.
type ExpireStaleRequestsDeps struct {
	Reservations ReservationStoreForOrchestrator
	Members      MemberLookup
	Audit        AuditWriter
	Notifier     Notifier
	RunInTx      TxRunner
	Metrics      TransitionRecorder
	Now          func() time.Time
}

// ExecuteExpireStaleRequests marks lapsed pending requests as expired (see Request.ExpiresAt).
// Each request is expired in its own unit of work so one failure does not block the rest.
// PRE: none
// POST: Returns the number of requests expired; each requester is notified
func ExecuteExpireStaleRequests(ctx context.Context, input ExpireStaleRequestsInput, deps ExpireStaleRequestsDeps) (int, error) {
	batch := input.BatchSize
	if batch <= 0 {
		batch = 100
	}
	now := deps.Now()
	stale, err := deps.Reservations.ListExpirable(ctx, now, batch)
	if err != nil {
		return 0, fmt.Errorf("list stale requests: %w", err)
	}

	expired := 0
	var errs []error
	for _, candidate := range stale {
		changed := false
		err := runInTx(ctx, deps.RunInTx, func(ctx context.Context) error {
			r, err := deps.Reservations.GetByID(ctx, candidate.ID)
			if err != nil {
				return err
			}
			if !r.IsPending() {
				return nil
			}
			changed = true
			if err := r.Expire(now); err != nil {
				return err
			}
			if err := deps.Reservations.Save(ctx, r); err != nil {
				return err
			}
			if err := recordAudit(ctx, deps.Audit, account.Account{}, r.AssociationID, audit.CategoryReservation, audit.ActionExpire,
				"reservation", r.ID, "lapsed without a decision", now); err != nil {
				return err
			}
			return notifyRequester(ctx, deps.Members, deps.Notifier, r, decisionNotice(r, nil))
		})
		if err != nil {
			slog.Error("reservation_event", "event", "expire_failed", "request_id", candidate.ID, "error", err)
			errs = append(errs, err)
			continue
		}
		if changed {
			expired++
			recordTransition(deps.Metrics, reservation.StatusExpired)
		}
	}
	if expired > 0 {
		slog.Info("reservation_event", "event", "requests_expired", "count", expired)
	}
	return expired, errors.Join(errs...)
}
