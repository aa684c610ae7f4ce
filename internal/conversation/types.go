package conversation

import "time"

// UnknownName is the display fallback when identity resolution fails.
const UnknownName = "Unknown"

// Message is the canonical shape of a portal message. Everything past the
// Read flag is derived by the aggregation pipeline and never persisted.
type Message struct {
	ID           string
	SenderID     string
	ReceiverID   string
	JobListingID string
	Content      string
	SentAt       time.Time
	Read         bool

	// Sent is the direction relative to the viewing participant.
	Sent         bool
	SenderName   string
	ReceiverName string
}

// CounterpartyID returns the non-viewer participant id of the message.
func (m Message) CounterpartyID() string {
	if m.Sent {
		return m.ReceiverID
	}
	return m.SenderID
}

// CounterpartyName returns the resolved display name of the non-viewer
// participant, falling back to UnknownName.
func (m Message) CounterpartyName() string {
	name := m.SenderName
	if m.Sent {
		name = m.ReceiverName
	}
	if name == "" {
		return UnknownName
	}
	return name
}

// Conversation is a derived aggregate of all messages exchanged with one
// counterparty. It is recomputed on every aggregation run.
type Conversation struct {
	CounterpartyID     string
	CounterpartyName   string
	CounterpartyFirm   string
	CounterpartyAvatar string

	// Messages is ordered ascending by SentAt, ties kept in fetch order.
	Messages    []Message
	UnreadCount int

	// JobPosition is the title of the first job reference in the thread,
	// when one resolves.
	JobPosition string
}

// LastMessage returns the most recent message of the thread.
func (c *Conversation) LastMessage() Message {
	return c.Messages[len(c.Messages)-1]
}

// Clone returns a copy that shares nothing with the receiver, so a
// handed-out conversation stays valid while the original keeps mutating.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	dup := *c
	dup.Messages = append([]Message(nil), c.Messages...)
	return &dup
}
