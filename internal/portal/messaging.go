package portal

import (
	"context"
	"fmt"

	"github.com/talenthub-app/hubtalk/internal/conversation"
)

// Inbox returns all messages received by the participant.
func (c *Client) Inbox(ctx context.Context, participantID string) ([]conversation.Message, error) {
	var raw []rawMessage
	if err := c.get(ctx, "/messages/inbox/"+participantID, &raw); err != nil {
		return nil, fmt.Errorf("fetch inbox: %w", err)
	}
	return normalizeMessages(raw), nil
}

// Sent returns all messages sent by the participant.
func (c *Client) Sent(ctx context.Context, participantID string) ([]conversation.Message, error) {
	var raw []rawMessage
	if err := c.get(ctx, "/messages/sent/"+participantID, &raw); err != nil {
		return nil, fmt.Errorf("fetch sent: %w", err)
	}
	return normalizeMessages(raw), nil
}

// Send delivers one message and returns the stored copy.
func (c *Client) Send(ctx context.Context, req SendRequest) (conversation.Message, error) {
	var raw rawMessage
	if err := c.do(ctx, "POST", "/messages", req, &raw); err != nil {
		return conversation.Message{}, fmt.Errorf("send message: %w", err)
	}
	return normalizeMessage(raw), nil
}

// MarkRead flags every message from counterpartyID to viewerID as read.
func (c *Client) MarkRead(ctx context.Context, counterpartyID, viewerID string) error {
	path := fmt.Sprintf("/messages/read/%s/%s", counterpartyID, viewerID)
	if err := c.do(ctx, "PUT", path, nil, nil); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}
