package audit

import (
	"time"

	"github.com/google/uuid"
)

// Category represents the area an audit event belongs to.
type Category string

const (
	CategoryAssociation    Category = "association"
	CategoryClub           Category = "club"
	CategoryMember         Category = "member"
	CategoryEquipment      Category = "equipment"
	CategoryReservation    Category = "reservation"
	CategoryCommunications Category = "communications"
	CategorySponsor        Category = "sponsor"
	CategorySecurity       Category = "security"
	CategorySystem         Category = "system"
)

// Action represents the action that occurred.
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionArchive Action = "archive"
	ActionRestore Action = "restore"
	ActionPublish Action = "publish"
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionPartial Action = "partially_approve"
	ActionReject  Action = "reject"
	ActionCancel  Action = "cancel"
	ActionExpire  Action = "expire"
)

// Severity represents the severity level of an audit event.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// SystemActor is the actor ID recorded for scheduled jobs.
const SystemActor = "system"

// Event represents a single audit log entry.
type Event struct {
	ID            string    `json:"id"`
	AssociationID string    `json:"association_id"`
	Timestamp     time.Time `json:"timestamp"`
	Category      Category  `json:"category"`
	Action        Action    `json:"action"`
	Severity      Severity  `json:"severity"`
	ActorID       string    `json:"actor_id"`
	ActorEmail    string    `json:"actor_email"`
	ActorRole     string    `json:"actor_role"`
	ResourceID    string    `json:"resource_id"`
	ResourceType  string    `json:"resource_type"`
	Description   string    `json:"description"`
	IPAddress     string    `json:"ip_address"`
	UserAgent     string    `json:"user_agent"`
	Metadata      string    `json:"metadata"`
}

// NewEvent creates a new audit event stamped with now.
// PRE: actorID and action are non-empty
// POST: Returns an Event with a fresh ID and the provided fields
func NewEvent(associationID, actorID, actorEmail, actorRole string, category Category, action Action, now time.Time) Event {
	return Event{
		ID:            uuid.NewString(),
		AssociationID: associationID,
		Timestamp:     now,
		Category:      category,
		Action:        action,
		Severity:      SeverityInfo,
		ActorID:       actorID,
		ActorEmail:    actorEmail,
		ActorRole:     actorRole,
	}
}

// WithSeverity sets the severity level.
// PRE: s is valid severity
// POST: Event severity is updated
func (e Event) WithSeverity(s Severity) Event {
	e.Severity = s
	return e
}

// WithResource sets resource information.
// PRE: resourceType and resourceID are non-empty
// POST: Event resource fields are populated
func (e Event) WithResource(resourceType, resourceID string) Event {
	e.ResourceType = resourceType
	e.ResourceID = resourceID
	return e
}

// WithDescription sets the event description.
func (e Event) WithDescription(desc string) Event {
	e.Description = desc
	return e
}

// WithRequest sets IP address and user agent from the HTTP request.
func (e Event) WithRequest(ipAddress, userAgent string) Event {
	e.IPAddress = ipAddress
	e.UserAgent = userAgent
	return e
}

// WithMetadata sets optional JSON metadata.
// PRE: metadata is valid JSON or empty
// POST: Event metadata is set
func (e Event) WithMetadata(metadata string) Event {
	e.Metadata = metadata
	return e
}
