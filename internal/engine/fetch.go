package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/talenthub-app/hubtalk/internal/conversation"
	"go.uber.org/zap"
)

// fetchMessages retrieves inbox and sent concurrently and tags each
// message with its direction. A failed side degrades to empty so partial
// availability beats strict correctness; only both sides failing is a
// total fetch error. Ordering is the grouper's job, the result is plain
// inbox ++ sent.
func (a *Aggregator) fetchMessages(ctx context.Context) ([]conversation.Message, bool, error) {
	var wg sync.WaitGroup
	var inbox, sent []conversation.Message
	var inboxErr, sentErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		inbox, inboxErr = a.messaging.Inbox(ctx, a.viewerID)
	}()
	go func() {
		defer wg.Done()
		sent, sentErr = a.messaging.Sent(ctx, a.viewerID)
	}()
	wg.Wait()

	if inboxErr != nil && sentErr != nil {
		return nil, false, fmt.Errorf("fetch messages: inbox: %v; sent: %v", inboxErr, sentErr)
	}

	degraded := false
	if inboxErr != nil {
		a.logger.Warn("inbox unavailable, continuing with sent only", zap.Error(inboxErr))
		degraded = true
	}
	if sentErr != nil {
		a.logger.Warn("sent unavailable, continuing with inbox only", zap.Error(sentErr))
		degraded = true
	}

	msgs := make([]conversation.Message, 0, len(inbox)+len(sent))
	for _, m := range inbox {
		m.Sent = false
		msgs = append(msgs, m)
	}
	for _, m := range sent {
		m.Sent = true
		msgs = append(msgs, m)
	}
	return msgs, degraded, nil
}
