package push

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/talenthub-app/hubtalk/internal/bus"
	"github.com/talenthub-app/hubtalk/internal/status"
	"go.uber.org/zap"
)

const (
	writeWait    = 10 * time.Second
	minBackoff   = time.Second
	maxBackoff   = 30 * time.Second
	handshakeTTL = 10 * time.Second
)

// The client pings on its own schedule and treats any pong, ping or data
// frame as liveness, so an idle but healthy connection is never torn
// down. Pings go out at 90% of the read deadline. Vars so tests can
// shorten them.
var (
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
)

// Listener maintains the portal's per-participant websocket channel and
// publishes a push.message event for every inbound frame. The frame
// payload is never trusted for state mutation; subscribers treat it as a
// re-fetch trigger only.
type Listener struct {
	url           string
	token         string
	participantID string
	bus           *bus.Bus
	machine       *status.Machine
	logger        *zap.Logger
	cancel        context.CancelFunc
}

// NewListener creates a push listener for one participant.
func NewListener(url, token, participantID string, b *bus.Bus, machine *status.Machine, logger *zap.Logger) *Listener {
	return &Listener{
		url:           url,
		token:         token,
		participantID: participantID,
		bus:           b,
		machine:       machine,
		logger:        logger,
	}
}

// Start begins the connect/read/reconnect loop.
func (l *Listener) Start(ctx context.Context) {
	ctx, l.cancel = context.WithCancel(ctx)
	go l.run(ctx)
}

// Stop tears the connection down.
func (l *Listener) Stop() {
	if l.cancel != nil {
		l.cancel()
	}
}

func (l *Listener) run(ctx context.Context) {
	backoff := minBackoff
	for {
		if ctx.Err() != nil {
			return
		}
		_ = l.machine.Transition(status.Connecting)

		conn, err := l.dial(ctx)
		if err != nil {
			l.logger.Warn("push channel dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			_ = l.machine.Transition(status.Reconnecting)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}

		backoff = minBackoff
		_ = l.machine.Transition(status.Ready)
		l.bus.Publish(bus.Event{Kind: bus.KindPushConnected, Timestamp: time.Now()})
		l.logger.Info("push channel connected", zap.String("participant", l.participantID))

		l.readLoop(ctx, conn)

		l.bus.Publish(bus.Event{Kind: bus.KindPushDisconnected, Timestamp: time.Now()})
		if ctx.Err() != nil {
			return
		}
		l.logger.Warn("push channel lost, reconnecting")
		_ = l.machine.Transition(status.Reconnecting)
	}
}

func (l *Listener) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTTL}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+l.token)

	dialCtx, cancel := context.WithTimeout(ctx, handshakeTTL)
	defer cancel()

	conn, resp, err := dialer.DialContext(dialCtx, l.url+"?participant="+l.participantID, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

// readLoop publishes one push.message per inbound frame until the
// connection drops or ctx is cancelled.
func (l *Listener) readLoop(ctx context.Context, conn *websocket.Conn) {
	defer func() { _ = conn.Close() }()

	// Companion goroutine: keepalive pings, and unblocking ReadMessage
	// when the listener is stopped.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			case <-ctx.Done():
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeWait))
				_ = conn.Close()
				return
			case <-stop:
				return
			}
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
	})
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		l.bus.Publish(bus.Event{
			Kind:      bus.KindPushMessage,
			Timestamp: time.Now(),
			Payload:   data,
		})
	}
}
