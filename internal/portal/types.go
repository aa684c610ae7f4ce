package portal

import (
	"time"

	"github.com/talenthub-app/hubtalk/internal/conversation"
)

// Employer is the canonical shape of an employer directory entry.
type Employer struct {
	ID             string
	FirmName       string
	FirstName      string
	LastName       string
	ProfilePicture string
}

// Candidate is the canonical shape of a candidate directory entry.
type Candidate struct {
	ID             string
	FirstName      string
	LastName       string
	ProfilePicture string
}

// JobListing is the canonical shape of a job posting.
type JobListing struct {
	ID       string
	Position string
}

// SendRequest carries one outbound message.
type SendRequest struct {
	ClientMessageID string `json:"clientMessageId"`
	SenderID        string `json:"senderId"`
	ReceiverID      string `json:"receiverId"`
	JobListingID    string `json:"jobListingId,omitempty"`
	Content         string `json:"content"`
}

// The portal services disagree on key casing across endpoints (id/_id,
// sentAt/sent_at, ...). The raw* types decode every variant; normalization
// picks one and nothing past this file ever sees the union.

type rawMessage struct {
	ID           string `json:"id"`
	AltID        string `json:"_id"`
	SenderID     string `json:"senderId"`
	SenderIDAlt  string `json:"sender_id"`
	ReceiverID   string `json:"receiverId"`
	ReceiverAlt  string `json:"receiver_id"`
	JobListingID string `json:"jobListingId"`
	JobListAlt   string `json:"job_listing_id"`
	Content      string `json:"content"`
	Body         string `json:"body"`
	SentAt       string `json:"sentAt"`
	SentAtAlt    string `json:"sent_at"`
	Read         bool   `json:"read"`
}

type rawEmployer struct {
	ID        string `json:"id"`
	AltID     string `json:"_id"`
	FirmName  string `json:"firmName"`
	FirmAlt   string `json:"firm_name"`
	FirstName string `json:"firstName"`
	FirstAlt  string `json:"first_name"`
	LastName  string `json:"lastName"`
	LastAlt   string `json:"last_name"`
	Picture   string `json:"profilePicture"`
	PicAlt    string `json:"profile_picture"`
}

type rawCandidate struct {
	ID        string `json:"id"`
	AltID     string `json:"_id"`
	FirstName string `json:"firstName"`
	FirstAlt  string `json:"first_name"`
	LastName  string `json:"lastName"`
	LastAlt   string `json:"last_name"`
	Picture   string `json:"profilePicture"`
	PicAlt    string `json:"profile_picture"`
}

type rawJobListing struct {
	ID          string `json:"id"`
	AltID       string `json:"_id"`
	Position    string `json:"position"`
	PositionAlt string `json:"title"`
}

func normalizeMessage(r rawMessage) conversation.Message {
	return conversation.Message{
		ID:           first(r.ID, r.AltID),
		SenderID:     first(r.SenderID, r.SenderIDAlt),
		ReceiverID:   first(r.ReceiverID, r.ReceiverAlt),
		JobListingID: first(r.JobListingID, r.JobListAlt),
		Content:      first(r.Content, r.Body),
		SentAt:       parseTime(first(r.SentAt, r.SentAtAlt)),
		Read:         r.Read,
	}
}

func normalizeMessages(raw []rawMessage) []conversation.Message {
	msgs := make([]conversation.Message, 0, len(raw))
	for _, r := range raw {
		msgs = append(msgs, normalizeMessage(r))
	}
	return msgs
}

func normalizeEmployer(r rawEmployer) Employer {
	return Employer{
		ID:             first(r.ID, r.AltID),
		FirmName:       first(r.FirmName, r.FirmAlt),
		FirstName:      first(r.FirstName, r.FirstAlt),
		LastName:       first(r.LastName, r.LastAlt),
		ProfilePicture: first(r.Picture, r.PicAlt),
	}
}

func normalizeCandidate(r rawCandidate) Candidate {
	return Candidate{
		ID:             first(r.ID, r.AltID),
		FirstName:      first(r.FirstName, r.FirstAlt),
		LastName:       first(r.LastName, r.LastAlt),
		ProfilePicture: first(r.Picture, r.PicAlt),
	}
}

func normalizeJobListing(r rawJobListing) JobListing {
	return JobListing{
		ID:       first(r.ID, r.AltID),
		Position: first(r.Position, r.PositionAlt),
	}
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// parseTime accepts the timestamp formats seen across the portal services.
// An unparseable timestamp yields the zero time, which sorts oldest.
func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
