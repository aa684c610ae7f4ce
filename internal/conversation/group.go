package conversation

import "sort"

// Group buckets a flat message sequence into per-counterparty
// conversations. Every message lands in exactly one bucket, keyed by the
// non-viewer participant id; an id that never resolves still forms its own
// bucket rather than dropping messages. Buckets are sorted ascending by
// SentAt with ties kept in fetch order, and the returned list is ordered
// by last-message recency, newest first.
func Group(msgs []Message) []*Conversation {
	buckets := make(map[string]*Conversation)
	var order []string

	for _, m := range msgs {
		key := m.CounterpartyID()
		c, ok := buckets[key]
		if !ok {
			c = &Conversation{CounterpartyID: key}
			buckets[key] = c
			order = append(order, key)
		}
		c.Messages = append(c.Messages, m)
	}

	convs := make([]*Conversation, 0, len(order))
	for _, key := range order {
		c := buckets[key]
		sort.SliceStable(c.Messages, func(i, j int) bool {
			return c.Messages[i].SentAt.Before(c.Messages[j].SentAt)
		})
		for _, m := range c.Messages {
			if !m.Sent && !m.Read {
				c.UnreadCount++
			}
		}
		c.CounterpartyName = c.LastMessage().CounterpartyName()
		convs = append(convs, c)
	}

	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].LastMessage().SentAt.After(convs[j].LastMessage().SentAt)
	})
	return convs
}

// MarkRead optimistically flips every received message to read and resets
// the unread count. The caller owns the backend side effect.
func (c *Conversation) MarkRead() {
	for i := range c.Messages {
		if !c.Messages[i].Sent {
			c.Messages[i].Read = true
		}
	}
	c.UnreadCount = 0
}

// StickySelection keeps the previously selected counterparty if it still
// exists in the new list; otherwise it falls back to the most recent
// conversation, or empty when the list is empty.
func StickySelection(prev string, convs []*Conversation) string {
	for _, c := range convs {
		if c.CounterpartyID == prev {
			return prev
		}
	}
	if len(convs) > 0 {
		return convs[0].CounterpartyID
	}
	return ""
}
