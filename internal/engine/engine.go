package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/talenthub-app/hubtalk/internal/bus"
	"github.com/talenthub-app/hubtalk/internal/conversation"
	"github.com/talenthub-app/hubtalk/internal/identity"
	"github.com/talenthub-app/hubtalk/internal/portal"
	"github.com/talenthub-app/hubtalk/internal/status"
	"go.uber.org/zap"
)

// Messaging is the portal messaging surface the aggregator consumes.
type Messaging interface {
	Inbox(ctx context.Context, participantID string) ([]conversation.Message, error)
	Sent(ctx context.Context, participantID string) ([]conversation.Message, error)
	Send(ctx context.Context, req portal.SendRequest) (conversation.Message, error)
	MarkRead(ctx context.Context, counterpartyID, viewerID string) error
}

// Aggregator runs the fetch → resolve → group pipeline and holds the
// resulting conversation list for UI consumers. Pipeline runs are
// stateless and may overlap; the state is swapped wholesale, so the last
// run to finish wins.
type Aggregator struct {
	viewerID  string
	messaging Messaging
	directory identity.Directory
	bus       *bus.Bus
	machine   *status.Machine
	logger    *zap.Logger

	mu            sync.RWMutex
	conversations []*conversation.Conversation
	selected      string

	cancel context.CancelFunc
}

// New creates an aggregator for one viewing participant. machine may be
// nil for headless one-shot use.
func New(viewerID string, messaging Messaging, directory identity.Directory, b *bus.Bus, machine *status.Machine, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		viewerID:  viewerID,
		messaging: messaging,
		directory: directory,
		bus:       b,
		machine:   machine,
		logger:    logger,
	}
}

// Start subscribes to inbound push events. Every event is only a trigger:
// the whole pipeline re-runs from scratch, nothing in the payload is
// trusted for direct state mutation.
func (a *Aggregator) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	ch, unsub := a.bus.Subscribe(bus.KindPushMessage, 64)

	go func() {
		defer unsub()
		for {
			select {
			case <-ch:
				if err := a.Refresh(ctx); err != nil {
					a.logger.Error("push-triggered refresh failed", zap.Error(err))
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the push subscription.
func (a *Aggregator) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
}

// Refresh runs one full aggregation pass and replaces the displayed
// state. On total fetch failure the previous state is left untouched and
// the error propagates to the caller.
func (a *Aggregator) Refresh(ctx context.Context) error {
	msgs, degraded, err := a.fetchMessages(ctx)
	if err != nil {
		a.transition(status.Degraded)
		return err
	}

	// The resolver is scoped to this run; overlapping runs never share it.
	resolver := identity.NewResolver(a.directory, a.logger)
	for i := range msgs {
		msgs[i].SenderName = resolver.Resolve(ctx, msgs[i].SenderID).Name
		msgs[i].ReceiverName = resolver.Resolve(ctx, msgs[i].ReceiverID).Name
	}

	convs := conversation.Group(msgs)
	for _, c := range convs {
		ident := resolver.Resolve(ctx, c.CounterpartyID)
		c.CounterpartyFirm = ident.FirmName
		c.CounterpartyAvatar = ident.ProfilePicture
		for _, m := range c.Messages {
			if pos, ok := resolver.JobPosition(ctx, m.JobListingID); ok {
				c.JobPosition = pos
				break
			}
		}
	}

	a.mu.Lock()
	a.conversations = convs
	a.selected = conversation.StickySelection(a.selected, convs)
	a.mu.Unlock()

	if degraded {
		a.transition(status.Degraded)
	} else {
		a.transition(status.Ready)
	}

	a.bus.Publish(bus.Event{
		Kind:      bus.KindConversationsUpdated,
		Timestamp: time.Now(),
		Payload:   len(convs),
	})
	return nil
}

// Conversations returns a snapshot of the current conversation list. The
// snapshot is a deep copy: later Select or Refresh calls never touch it,
// so callers may read it without holding any lock.
func (a *Aggregator) Conversations() []*conversation.Conversation {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*conversation.Conversation, len(a.conversations))
	for i, c := range a.conversations {
		out[i] = c.Clone()
	}
	return out
}

// Selected returns the currently selected counterparty id.
func (a *Aggregator) Selected() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.selected
}

// Conversation returns a deep copy of the conversation for a
// counterparty, or nil.
func (a *Aggregator) Conversation(counterpartyID string) *conversation.Conversation {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.find(counterpartyID).Clone()
}

// TotalUnread returns the unread count summed over all conversations.
func (a *Aggregator) TotalUnread() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	total := 0
	for _, c := range a.conversations {
		total += c.UnreadCount
	}
	return total
}

// Select makes the conversation current and, when it has unread messages,
// issues a mark-as-read for the (counterparty, viewer) pair. The local
// read state is flipped optimistically and Select returns without waiting
// for the backend; a backend failure is logged and not rolled back, the
// next refresh reconciles.
func (a *Aggregator) Select(ctx context.Context, counterpartyID string) {
	a.mu.Lock()
	a.selected = counterpartyID
	c := a.find(counterpartyID)
	needsMark := c != nil && c.UnreadCount > 0
	if needsMark {
		c.MarkRead()
	}
	a.mu.Unlock()

	if !needsMark {
		return
	}

	a.bus.Publish(bus.Event{
		Kind:      bus.KindConversationsUpdated,
		Timestamp: time.Now(),
	})

	go func() {
		if err := a.messaging.MarkRead(ctx, counterpartyID, a.viewerID); err != nil {
			a.logger.Warn("mark read failed",
				zap.String("counterparty", counterpartyID),
				zap.Error(err))
		}
	}()
}

// Send delivers one message to a counterparty and re-runs the pipeline on
// success. There is no optimistic insert: the message shows up only after
// a successful re-fetch.
func (a *Aggregator) Send(ctx context.Context, counterpartyID, content, jobListingID string) error {
	req := portal.SendRequest{
		ClientMessageID: uuid.New().String(),
		SenderID:        a.viewerID,
		ReceiverID:      counterpartyID,
		JobListingID:    jobListingID,
		Content:         content,
	}

	msg, err := a.messaging.Send(ctx, req)
	if err != nil {
		a.bus.Publish(bus.Event{
			Kind:      bus.KindSendFailed,
			Timestamp: time.Now(),
			Payload:   map[string]string{"receiver": counterpartyID, "error": err.Error()},
		})
		return err
	}

	a.bus.Publish(bus.Event{
		Kind:      bus.KindSendAck,
		Timestamp: time.Now(),
		Payload:   map[string]string{"receiver": counterpartyID, "msg_id": msg.ID},
	})

	if err := a.Refresh(ctx); err != nil {
		a.logger.Error("post-send refresh failed", zap.Error(err))
	}
	return nil
}

// find expects a.mu held.
func (a *Aggregator) find(counterpartyID string) *conversation.Conversation {
	for _, c := range a.conversations {
		if c.CounterpartyID == counterpartyID {
			return c
		}
	}
	return nil
}

func (a *Aggregator) transition(to status.State) {
	if a.machine == nil {
		return
	}
	_ = a.machine.Transition(to)
}
