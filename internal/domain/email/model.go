package email

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kinds of outbound email.
const (
	KindAnnouncement = "announcement"
	KindReservation  = "reservation"
)

// Domain errors
var (
	ErrEmptySubject = errors.New("email subject is required")
	ErrEmptyBody    = errors.New("email body is required")
	ErrNoRecipients = errors.New("at least one recipient is required")
	ErrBadRecipient = errors.New("recipient address must contain '@'")
	ErrInvalidKind  = errors.New("email kind must be 'announcement' or 'reservation'")
)

// Message is an email waiting in the outbox. It is stored as the JSON payload
// of an outbox entry and rendered to HTML when delivered.
type Message struct {
	AssociationID string   `json:"association_id"`
	Kind          string   `json:"kind"`
	To            []string `json:"to"`
	RecipientID   string   `json:"recipient_id,omitempty"` // Member ID, for tracing
	Subject       string   `json:"subject"`
	Markdown      string   `json:"markdown"`
	Link          string   `json:"link,omitempty"`
}

// Validate checks that the Message can be delivered.
// PRE: Message struct is populated
// POST: Returns nil if valid, error otherwise
func (m *Message) Validate() error {
	if m.Kind != KindAnnouncement && m.Kind != KindReservation {
		return ErrInvalidKind
	}
	if len(m.To) == 0 {
		return ErrNoRecipients
	}
	for _, to := range m.To {
		if !strings.Contains(to, "@") {
			return ErrBadRecipient
		}
	}
	if strings.TrimSpace(m.Subject) == "" {
		return ErrEmptySubject
	}
	if strings.TrimSpace(m.Markdown) == "" {
		return ErrEmptyBody
	}
	return nil
}

// Encode validates the message and returns its outbox payload.
func (m Message) Encode() (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode email payload: %w", err)
	}
	return string(b), nil
}

// Decode parses an outbox payload back into a Message.
func Decode(payload string) (Message, error) {
	var m Message
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		return Message{}, fmt.Errorf("decode email payload: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}
