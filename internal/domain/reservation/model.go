package reservation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"league/internal/domain/availability"
)

// Request statuses
const (
	StatusPending           = "pending"
	StatusApproved          = "approved"
	StatusPartiallyApproved = "partially_approved"
	StatusRejected          = "rejected"
	StatusCancelled         = "cancelled"
	StatusExpired           = "expired"
)

// Limits
const (
	MaxLines         = 50
	MaxPurposeLength = 500
	MaxNoteLength    = 1000
	MaxRequesterName = 100
)

// Domain errors
var (
	ErrMissingTenant     = errors.New("reservation must belong to an association")
	ErrMissingRequester  = errors.New("reservation requester is required")
	ErrRequesterTooLong  = errors.New("requester name cannot exceed 100 characters")
	ErrPurposeTooLong    = errors.New("reservation purpose cannot exceed 500 characters")
	ErrNoteTooLong       = errors.New("decision note cannot exceed 1000 characters")
	ErrNoLines           = errors.New("reservation must request at least one item")
	ErrTooManyLines      = errors.New("reservation cannot request more than 50 items")
	ErrDuplicateItem     = errors.New("each item may appear only once per reservation")
	ErrMissingItem       = errors.New("reservation line item ID is required")
	ErrInvalidQuantity   = errors.New("requested quantity must be at least 1")
	ErrExceedsStock      = errors.New("requested quantity exceeds the item's total stock")
	ErrInvalidStatus     = errors.New("invalid reservation status")
	ErrInvalidTransition = errors.New("reservation cannot change from its current status")
	ErrInsufficientStock = errors.New("not enough units available in the requested window")
	ErrApprovedTooHigh   = errors.New("approved quantity cannot exceed requested quantity")
	ErrApprovedNegative  = errors.New("approved quantity cannot be negative")
	ErrNotPartial        = errors.New("a partial approval must grant at least one unit and leave at least one line short")
	ErrUnknownLine       = errors.New("approval references an item that is not part of the reservation")
	ErrWindowEnded       = errors.New("reservation window has already ended")
	ErrWindowStarted     = errors.New("reservation window has already started")
	ErrNotCancellable    = errors.New("only the requester or an admin can cancel this reservation")
	ErrNoRemainder       = errors.New("reservation has no remaining quantity")
)

// Line is the quantity requested and granted for one item.
type Line struct {
	ItemID    string
	Requested int
	Approved  int
}

// Remaining returns the units not granted.
func (l Line) Remaining() int {
	return l.Requested - l.Approved
}

// Request is a member's request to borrow equipment over a window [StartAt, EndAt).
// INVARIANT: approved and partially_approved requests commit Line.Approved units
// of each item for the whole window.
type Request struct {
	ID            string
	AssociationID string
	ClubID        string
	RequesterID   string // member ID
	RequesterName string
	Purpose       string
	StartAt       time.Time
	EndAt         time.Time
	Status        string
	Lines         []Line
	ParentID      string // set on remainder requests
	DecidedBy     string // account ID
	DecidedAt     time.Time
	DecisionNote  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Window returns the reservation window.
func (r *Request) Window() availability.Window {
	return availability.Window{Start: r.StartAt, End: r.EndAt}
}

// Validate checks if the Request has valid data.
// PRE: Request struct is populated
// POST: Returns nil if valid, error describing the first violation otherwise
func (r *Request) Validate() error {
	if r.AssociationID == "" {
		return ErrMissingTenant
	}
	if r.RequesterID == "" {
		return ErrMissingRequester
	}
	if len(r.RequesterName) > MaxRequesterName {
		return ErrRequesterTooLong
	}
	if len(r.Purpose) > MaxPurposeLength {
		return ErrPurposeTooLong
	}
	if len(r.DecisionNote) > MaxNoteLength {
		return ErrNoteTooLong
	}
	if err := r.Window().Validate(); err != nil {
		return err
	}
	if !isValidStatus(r.Status) {
		return ErrInvalidStatus
	}
	return ValidateLines(r.Lines)
}

// ValidateLines checks line count, item uniqueness and quantities.
func ValidateLines(lines []Line) error {
	if len(lines) == 0 {
		return ErrNoLines
	}
	if len(lines) > MaxLines {
		return ErrTooManyLines
	}
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l.ItemID) == "" {
			return ErrMissingItem
		}
		if seen[l.ItemID] {
			return ErrDuplicateItem
		}
		seen[l.ItemID] = true
		if l.Requested < 1 {
			return ErrInvalidQuantity
		}
		if l.Approved < 0 {
			return ErrApprovedNegative
		}
		if l.Approved > l.Requested {
			return ErrApprovedTooHigh
		}
	}
	return nil
}

// Demands converts the lines to availability demands.
func (r *Request) Demands() []availability.Demand {
	out := make([]availability.Demand, len(r.Lines))
	for i, l := range r.Lines {
		out[i] = availability.Demand{ItemID: l.ItemID, Requested: l.Requested}
	}
	return out
}

// ItemIDs returns the item IDs in line order.
func (r *Request) ItemIDs() []string {
	out := make([]string, len(r.Lines))
	for i, l := range r.Lines {
		out[i] = l.ItemID
	}
	return out
}

// IsPending returns true while the request awaits a decision.
func (r *Request) IsPending() bool {
	return r.Status == StatusPending
}

// IsCommitted returns true if the request holds stock.
func (r *Request) IsCommitted() bool {
	return IsCommittedStatus(r.Status)
}

// IsTerminal returns true for rejected, cancelled and expired requests.
func (r *Request) IsTerminal() bool {
	return r.Status == StatusRejected || r.Status == StatusCancelled || r.Status == StatusExpired
}

// IsCommittedStatus reports whether requests in status s hold stock.
func IsCommittedStatus(s string) bool {
	return s == StatusApproved || s == StatusPartiallyApproved
}

// Bookings returns the committed bookings of this request for one item.
// Uncommitted requests and lines with nothing approved yield no bookings.
func (r *Request) Bookings(itemID string) []availability.Booking {
	if !r.IsCommitted() {
		return nil
	}
	var out []availability.Booking
	for _, l := range r.Lines {
		if l.ItemID == itemID && l.Approved > 0 {
			out = append(out, availability.Booking{RequestID: r.ID, Window: r.Window(), Quantity: l.Approved})
		}
	}
	return out
}

// Approve grants every line in full.
// PRE: Request is pending, checks has a sufficient verdict for every line
// POST: Status is approved, Approved = Requested on every line
func (r *Request) Approve(deciderID, note string, checks []availability.LineCheck, now time.Time) error {
	if !r.IsPending() {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, r.Status)
	}
	if !r.EndAt.After(now) {
		return ErrWindowEnded
	}
	if !availability.AllSufficient(checks) || len(checks) != len(r.Lines) {
		return ErrInsufficientStock
	}
	for i := range r.Lines {
		r.Lines[i].Approved = r.Lines[i].Requested
	}
	r.decide(StatusApproved, deciderID, note, now)
	return nil
}

// PartiallyApprove grants the given quantities per item. Items absent from
// approved get zero.
// PRE: Request is pending; each approved quantity <= requested and <= available
// POST: Status is partially_approved; at least one line has Approved >= 1 and at
// least one line has Approved < Requested
func (r *Request) PartiallyApprove(deciderID, note string, approved map[string]int, checks []availability.LineCheck, now time.Time) error {
	if !r.IsPending() {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, r.Status)
	}
	if !r.EndAt.After(now) {
		return ErrWindowEnded
	}
	available := make(map[string]int, len(checks))
	for _, c := range checks {
		available[c.ItemID] = c.Available
	}
	lineIndex := make(map[string]int, len(r.Lines))
	for i, l := range r.Lines {
		lineIndex[l.ItemID] = i
	}
	for itemID := range approved {
		if _, ok := lineIndex[itemID]; !ok {
			return ErrUnknownLine
		}
	}

	granted, short := 0, 0
	for _, l := range r.Lines {
		q := approved[l.ItemID]
		if q < 0 {
			return ErrApprovedNegative
		}
		if q > l.Requested {
			return ErrApprovedTooHigh
		}
		if q > available[l.ItemID] {
			return fmt.Errorf("%w: item %s", ErrInsufficientStock, l.ItemID)
		}
		if q > 0 {
			granted++
		}
		if q < l.Requested {
			short++
		}
	}
	if granted == 0 || short == 0 {
		return ErrNotPartial
	}
	for i := range r.Lines {
		r.Lines[i].Approved = approved[r.Lines[i].ItemID]
	}
	r.decide(StatusPartiallyApproved, deciderID, note, now)
	return nil
}

// Reject declines the request.
// PRE: Request is pending
// POST: Status is rejected, no line holds stock
func (r *Request) Reject(deciderID, note string, now time.Time) error {
	if !r.IsPending() {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, r.Status)
	}
	for i := range r.Lines {
		r.Lines[i].Approved = 0
	}
	r.decide(StatusRejected, deciderID, note, now)
	return nil
}

// Cancel withdraws the request and releases any committed stock.
// PRE: Request is pending or decided, window has not ended, actor is the
// requester or isAdmin
// POST: Status is cancelled
func (r *Request) Cancel(actorMemberID string, isAdmin bool, now time.Time) error {
	if r.Status != StatusPending && !r.IsCommitted() {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, r.Status)
	}
	if actorMemberID != r.RequesterID && !isAdmin {
		return ErrNotCancellable
	}
	if !r.EndAt.After(now) {
		return ErrWindowEnded
	}
	r.Status = StatusCancelled
	r.UpdatedAt = now
	return nil
}

// ExpiresAt is when an undecided request lapses. Requests lapse once their
// window starts; remainder requests stay open until the window ends, since
// they are usually spawned by a decision taken inside the window.
func (r *Request) ExpiresAt() time.Time {
	if r.ParentID != "" {
		return r.EndAt
	}
	return r.StartAt
}

// Expire marks a pending request that reached ExpiresAt without a decision.
// PRE: Request is pending and ExpiresAt <= now
// POST: Status is expired
func (r *Request) Expire(now time.Time) error {
	if !r.IsPending() {
		return fmt.Errorf("%w: %s", ErrInvalidTransition, r.Status)
	}
	if now.Before(r.ExpiresAt()) {
		return errors.New("reservation has not lapsed yet")
	}
	r.Status = StatusExpired
	r.UpdatedAt = now
	return nil
}

// Remainder builds a new pending request for the units a partial approval did not grant.
// PRE: Request is partially approved
// POST: returned request has ParentID = r.ID, same window and purpose, and one
// line per item with Requested = Remaining of the original line
func (r *Request) Remainder(id string, now time.Time) (Request, error) {
	if r.Status != StatusPartiallyApproved {
		return Request{}, fmt.Errorf("%w: %s", ErrInvalidTransition, r.Status)
	}
	var lines []Line
	for _, l := range r.Lines {
		if rem := l.Remaining(); rem > 0 {
			lines = append(lines, Line{ItemID: l.ItemID, Requested: rem})
		}
	}
	if len(lines) == 0 {
		return Request{}, ErrNoRemainder
	}
	return Request{
		ID:            id,
		AssociationID: r.AssociationID,
		ClubID:        r.ClubID,
		RequesterID:   r.RequesterID,
		RequesterName: r.RequesterName,
		Purpose:       r.Purpose,
		StartAt:       r.StartAt,
		EndAt:         r.EndAt,
		Status:        StatusPending,
		Lines:         lines,
		ParentID:      r.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (r *Request) decide(status, deciderID, note string, now time.Time) {
	r.Status = status
	r.DecidedBy = deciderID
	r.DecidedAt = now
	r.DecisionNote = note
	r.UpdatedAt = now
}

func isValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusPartiallyApproved, StatusRejected, StatusCancelled, StatusExpired:
		return true
	}
	return false
}
