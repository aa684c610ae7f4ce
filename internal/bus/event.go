package bus

import "time"

// Event kinds published on the bus, grouped by namespace prefix.
const (
	// push.* — inbound portal push channel activity.
	KindPushMessage      = "push.message"
	KindPushConnected    = "push.connected"
	KindPushDisconnected = "push.disconnected"

	// conversations.* — aggregation pipeline results.
	KindConversationsUpdated = "conversations.updated"

	// message.* — outbound send lifecycle.
	KindSendAck    = "message.send_ack"
	KindSendFailed = "message.send_failed"

	// session.* — client runtime state.
	KindStatusChanged = "session.status_changed"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
