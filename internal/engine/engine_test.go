package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/talenthub-app/hubtalk/internal/bus"
	"github.com/talenthub-app/hubtalk/internal/conversation"
	"github.com/talenthub-app/hubtalk/internal/portal"
	"go.uber.org/zap"
)

const (
	viewerID   = "eeeeeeeeeeeeeeeeeeeeeeee"
	employerA  = "aaaaaaaaaaaaaaaaaaaaaaaa"
	candidateB = "bbbbbbbbbbbbbbbbbbbbbbbb"
	listingJ   = "dddddddddddddddddddddddd"
)

var base = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func at(minute int) time.Time {
	return base.Add(time.Duration(minute) * time.Minute)
}

// mockMessaging serves message fixtures and records calls. Inbox and Sent
// are hit concurrently by the fetcher, so access is locked.
type mockMessaging struct {
	mu sync.Mutex

	inbox []conversation.Message
	sent  []conversation.Message

	inboxErr    error
	sentErr     error
	sendErr     error
	markReadErr error

	inboxCalls    int
	markReadCalls [][2]string
	sendCalls     []portal.SendRequest
}

func (m *mockMessaging) Inbox(context.Context, string) ([]conversation.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inboxCalls++
	if m.inboxErr != nil {
		return nil, m.inboxErr
	}
	return append([]conversation.Message(nil), m.inbox...), nil
}

func (m *mockMessaging) Sent(context.Context, string) ([]conversation.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sentErr != nil {
		return nil, m.sentErr
	}
	return append([]conversation.Message(nil), m.sent...), nil
}

func (m *mockMessaging) Send(_ context.Context, req portal.SendRequest) (conversation.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendCalls = append(m.sendCalls, req)
	if m.sendErr != nil {
		return conversation.Message{}, m.sendErr
	}
	msg := conversation.Message{
		ID:         "srv-1",
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
		SentAt:     at(99),
	}
	m.sent = append(m.sent, msg)
	return msg, nil
}

func (m *mockMessaging) MarkRead(_ context.Context, counterpartyID, viewerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markReadCalls = append(m.markReadCalls, [2]string{counterpartyID, viewerID})
	return m.markReadErr
}

func (m *mockMessaging) markReads() [][2]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][2]string(nil), m.markReadCalls...)
}

// waitFor polls until cond holds, for assertions on work Select hands off
// to a goroutine.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

// mockDirectory serves a fixed directory with no failure modes; the
// resolver's own fallback behavior is covered in the identity package.
type mockDirectory struct{}

func (mockDirectory) Employers(context.Context) ([]portal.Employer, error) {
	return []portal.Employer{{ID: employerA, FirmName: "Acme", ProfilePicture: "acme.png"}}, nil
}

func (mockDirectory) Candidates(context.Context) ([]portal.Candidate, error) {
	return []portal.Candidate{
		{ID: viewerID, FirstName: "Grace", LastName: "Hopper"},
		{ID: candidateB, FirstName: "Ada", LastName: "Lovelace"},
	}, nil
}

func (mockDirectory) EmployerByID(_ context.Context, id string) (portal.Employer, error) {
	return portal.Employer{}, portal.ErrNotFound
}

func (mockDirectory) JobListingByID(_ context.Context, id string) (portal.JobListing, error) {
	if id == listingJ {
		return portal.JobListing{ID: id, Position: "Backend Engineer"}, nil
	}
	return portal.JobListing{}, portal.ErrNotFound
}

func newTestAggregator(mm *mockMessaging) (*Aggregator, *bus.Bus) {
	b := bus.New()
	logger, _ := zap.NewDevelopment()
	return New(viewerID, mm, mockDirectory{}, b, nil, logger), b
}

func receivedFrom(id, sender string, minute int, read bool) conversation.Message {
	return conversation.Message{ID: id, SenderID: sender, ReceiverID: viewerID, Content: "hi", SentAt: at(minute), Read: read}
}

func sentTo(id, receiver string, minute int) conversation.Message {
	return conversation.Message{ID: id, SenderID: viewerID, ReceiverID: receiver, Content: "yo", SentAt: at(minute)}
}

func TestRefreshAggregates(t *testing.T) {
	mm := &mockMessaging{
		inbox: []conversation.Message{
			func() conversation.Message {
				m := receivedFrom("m1", employerA, 0, false)
				m.JobListingID = listingJ
				return m
			}(),
		},
		sent: []conversation.Message{sentTo("m2", employerA, 5)},
	}
	agg, _ := newTestAggregator(mm)

	if err := agg.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	convs := agg.Conversations()
	if len(convs) != 1 {
		t.Fatalf("got %d conversations, want 1", len(convs))
	}
	c := convs[0]
	if c.CounterpartyID != employerA {
		t.Errorf("CounterpartyID = %q", c.CounterpartyID)
	}
	if c.CounterpartyName != "Acme" || c.CounterpartyFirm != "Acme" || c.CounterpartyAvatar != "acme.png" {
		t.Errorf("identity = %q/%q/%q", c.CounterpartyName, c.CounterpartyFirm, c.CounterpartyAvatar)
	}
	if c.JobPosition != "Backend Engineer" {
		t.Errorf("JobPosition = %q", c.JobPosition)
	}
	if c.UnreadCount != 1 {
		t.Errorf("UnreadCount = %d, want 1", c.UnreadCount)
	}
	if got := ids(c.Messages); got[0] != "m1" || got[1] != "m2" {
		t.Errorf("order = %v, want [m1 m2]", got)
	}
	if c.Messages[0].Sent || !c.Messages[1].Sent {
		t.Errorf("direction tags wrong: %v %v", c.Messages[0].Sent, c.Messages[1].Sent)
	}
	if agg.Selected() != employerA {
		t.Errorf("Selected = %q, want default to most recent", agg.Selected())
	}
}

func TestRefreshPartialFailureKeepsOtherSide(t *testing.T) {
	mm := &mockMessaging{
		inboxErr: errors.New("inbox down"),
		sent:     []conversation.Message{sentTo("m1", candidateB, 0)},
	}
	agg, _ := newTestAggregator(mm)

	if err := agg.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v, want degraded success", err)
	}

	convs := agg.Conversations()
	if len(convs) != 1 || convs[0].CounterpartyID != candidateB {
		t.Fatalf("convs = %+v", convs)
	}
	if convs[0].CounterpartyName != "Ada Lovelace" {
		t.Errorf("CounterpartyName = %q", convs[0].CounterpartyName)
	}
}

func TestRefreshTotalFailureKeepsPreviousState(t *testing.T) {
	mm := &mockMessaging{
		inbox: []conversation.Message{receivedFrom("m1", employerA, 0, false)},
	}
	agg, _ := newTestAggregator(mm)
	if err := agg.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	mm.mu.Lock()
	mm.inboxErr = errors.New("down")
	mm.sentErr = errors.New("down")
	mm.mu.Unlock()

	if err := agg.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh() expected total fetch error")
	}
	if len(agg.Conversations()) != 1 {
		t.Errorf("previous state lost on total failure")
	}
}

func TestSelectMarksReadOptimistically(t *testing.T) {
	mm := &mockMessaging{
		inbox: []conversation.Message{
			receivedFrom("m1", employerA, 0, false),
			receivedFrom("m2", employerA, 1, false),
		},
	}
	agg, _ := newTestAggregator(mm)
	if err := agg.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	agg.Select(context.Background(), employerA)

	c := agg.Conversation(employerA)
	if c.UnreadCount != 0 {
		t.Errorf("UnreadCount = %d, want 0", c.UnreadCount)
	}
	for _, m := range c.Messages {
		if !m.Read {
			t.Errorf("message %s still unread", m.ID)
		}
	}
	waitFor(t, func() bool { return len(mm.markReads()) == 1 }, "backend mark-read never issued")
	if calls := mm.markReads(); calls[0] != [2]string{employerA, viewerID} {
		t.Errorf("markReadCalls = %v", calls)
	}
}

func TestSelectBackendFailureIsBestEffort(t *testing.T) {
	mm := &mockMessaging{
		inbox:       []conversation.Message{receivedFrom("m1", employerA, 0, false)},
		markReadErr: errors.New("backend down"),
	}
	agg, _ := newTestAggregator(mm)
	if err := agg.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	agg.Select(context.Background(), employerA)
	waitFor(t, func() bool { return len(mm.markReads()) == 1 }, "backend mark-read never issued")

	// Optimistic flip is not rolled back.
	if got := agg.Conversation(employerA).UnreadCount; got != 0 {
		t.Errorf("UnreadCount = %d, want 0 despite backend failure", got)
	}
}

func TestSelectWithoutUnreadSkipsBackend(t *testing.T) {
	mm := &mockMessaging{
		inbox: []conversation.Message{receivedFrom("m1", employerA, 0, true)},
	}
	agg, _ := newTestAggregator(mm)
	if err := agg.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	agg.Select(context.Background(), employerA)

	time.Sleep(50 * time.Millisecond)
	if calls := mm.markReads(); len(calls) != 0 {
		t.Errorf("markReadCalls = %v, want none", calls)
	}
}

func TestSnapshotsSurviveConcurrentSelect(t *testing.T) {
	mm := &mockMessaging{
		inbox: []conversation.Message{
			receivedFrom("m1", employerA, 0, false),
			receivedFrom("m2", candidateB, 1, false),
		},
	}
	agg, _ := newTestAggregator(mm)
	if err := agg.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	snap := agg.Conversations()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			for _, c := range snap {
				_ = c.UnreadCount
				for _, m := range c.Messages {
					_ = m.Read
				}
			}
		}
	}()
	agg.Select(context.Background(), employerA)
	<-done

	// The snapshot predates Select and must not see the flip.
	for _, c := range snap {
		if c.UnreadCount != 1 || c.Messages[0].Read {
			t.Errorf("snapshot mutated: %s unread=%d read=%v",
				c.CounterpartyID, c.UnreadCount, c.Messages[0].Read)
		}
	}
	if got := agg.Conversation(employerA).UnreadCount; got != 0 {
		t.Errorf("live UnreadCount = %d, want 0", got)
	}
}

func TestSendFailureDoesNotRefresh(t *testing.T) {
	mm := &mockMessaging{sendErr: errors.New("rejected")}
	agg, b := newTestAggregator(mm)

	ch, unsub := b.Subscribe(bus.KindSendFailed, 10)
	defer unsub()

	if err := agg.Send(context.Background(), employerA, "hello", ""); err == nil {
		t.Fatal("Send() expected error")
	}
	if mm.inboxCalls != 0 {
		t.Errorf("inboxCalls = %d, want 0 (no refresh after failed send)", mm.inboxCalls)
	}

	select {
	case evt := <-ch:
		if evt.Kind != bus.KindSendFailed {
			t.Errorf("kind = %q", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for send_failed event")
	}
}

func TestSendSuccessTriggersRefresh(t *testing.T) {
	mm := &mockMessaging{}
	agg, b := newTestAggregator(mm)

	ch, unsub := b.Subscribe(bus.KindSendAck, 10)
	defer unsub()

	if err := agg.Send(context.Background(), candidateB, "hello", ""); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if len(mm.sendCalls) != 1 {
		t.Fatalf("sendCalls = %d, want 1", len(mm.sendCalls))
	}
	req := mm.sendCalls[0]
	if req.SenderID != viewerID || req.ReceiverID != candidateB || req.Content != "hello" {
		t.Errorf("send request = %+v", req)
	}
	if req.ClientMessageID == "" {
		t.Error("ClientMessageID not set")
	}
	if mm.inboxCalls != 1 {
		t.Errorf("inboxCalls = %d, want 1 (re-aggregate after send)", mm.inboxCalls)
	}
	// The sent message shows up via re-fetch, not an optimistic insert.
	if c := agg.Conversation(candidateB); c == nil || c.LastMessage().ID != "srv-1" {
		t.Errorf("conversation after send = %+v", c)
	}

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for send_ack event")
	}
}

func TestPushEventTriggersReaggregation(t *testing.T) {
	mm := &mockMessaging{
		inbox: []conversation.Message{receivedFrom("m1", employerA, 0, false)},
	}
	agg, b := newTestAggregator(mm)

	updated, unsub := b.Subscribe(bus.KindConversationsUpdated, 10)
	defer unsub()

	agg.Start(context.Background())
	defer agg.Stop()

	// The payload is only a trigger; nothing in it is consumed.
	b.Publish(bus.Event{Kind: bus.KindPushMessage, Timestamp: time.Now(), Payload: "opaque"})

	select {
	case <-updated:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for push-triggered aggregation")
	}
	if len(agg.Conversations()) != 1 {
		t.Errorf("conversations not aggregated after push event")
	}
}

func TestSelectionSticksAcrossRefresh(t *testing.T) {
	mm := &mockMessaging{
		inbox: []conversation.Message{receivedFrom("m1", employerA, 0, true)},
	}
	agg, _ := newTestAggregator(mm)
	if err := agg.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	agg.Select(context.Background(), employerA)

	// A newer conversation appears; selection must not jump.
	mm.mu.Lock()
	mm.inbox = append(mm.inbox, receivedFrom("m2", candidateB, 10, false))
	mm.mu.Unlock()
	if err := agg.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if agg.Selected() != employerA {
		t.Errorf("Selected = %q, want %q", agg.Selected(), employerA)
	}

	// The selected counterparty disappears; fall back to most recent.
	mm.mu.Lock()
	mm.inbox = []conversation.Message{receivedFrom("m2", candidateB, 10, false)}
	mm.mu.Unlock()
	if err := agg.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if agg.Selected() != candidateB {
		t.Errorf("Selected = %q, want %q", agg.Selected(), candidateB)
	}
}

func ids(msgs []conversation.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}
