package push

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/nhle/notify-center/internal/model"
)

// ConnectionState describes the push channel lifecycle. There is no
// terminal state: while the adapter is running it always returns to
// Connecting after Disconnected.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
)

// String returns a short label for status rendering.
func (s ConnectionState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "live"
	default:
		return "offline"
	}
}

// ConnectedMsg is emitted after a successful websocket handshake.
type ConnectedMsg struct{}

// DisconnectedMsg is emitted when the connection drops. It is
// informational; reconnection is already scheduled when it is observed.
type DisconnectedMsg struct {
	Err error
}

// CreatedMsg carries a push-delivered notification creation event.
// Delivery is at-least-once from the transport's perspective; consumers
// must dedup by notification id.
type CreatedMsg struct {
	Notification model.Notification
}

// dialTimeout bounds a single websocket handshake attempt.
const dialTimeout = 15 * time.Second

// Adapter owns a single live subscription to the notification event
// stream. It reconnects with capped exponential backoff and emits typed
// events on a channel bridged into the UI event loop.
type Adapter struct {
	url     string
	token   string
	ceiling time.Duration
	logger  *zap.Logger

	events chan tea.Msg
	stopCh chan struct{}

	mu      sync.Mutex
	state   ConnectionState
	conn    *websocket.Conn
	running bool
	stopped bool
}

// New creates an adapter for the given websocket URL, authenticating with
// the bearer token. The ceiling caps the reconnect backoff interval.
func New(wsURL, token string, ceiling time.Duration, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ceiling <= 0 {
		ceiling = 30 * time.Second
	}
	return &Adapter{
		url:     wsURL,
		token:   token,
		ceiling: ceiling,
		logger:  logger,
		events:  make(chan tea.Msg, 64),
		stopCh:  make(chan struct{}),
		state:   Disconnected,
	}
}

// Start launches the connect/read loop. Calling Start more than once is a
// no-op; the adapter never holds more than one live connection.
func (a *Adapter) Start() {
	a.mu.Lock()
	if a.running || a.stopped {
		a.mu.Unlock()
		return
	}
	a.running = true
	a.mu.Unlock()

	go a.run()
}

// Close tears down the connection and stops the loop. It is idempotent.
func (a *Adapter) Close() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	conn := a.conn
	a.conn = nil
	a.state = Disconnected
	close(a.stopCh)
	a.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// State returns the current connection state.
func (a *Adapter) State() ConnectionState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// WaitForEvent returns a tea.Cmd that blocks until the next adapter
// event. The caller re-issues it after handling each message to keep
// listening, the same way a poller subscription works.
func (a *Adapter) WaitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-a.events:
			return msg
		case <-a.stopCh:
			return nil
		}
	}
}

// run is the connect/read/reconnect loop.
func (a *Adapter) run() {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = a.ceiling
	bo.MaxElapsedTime = 0

	for {
		select {
		case <-a.stopCh:
			return
		default:
		}

		a.setState(Connecting)

		conn, err := a.dial()
		if err != nil {
			// Loss of the push channel degrades to fetch-only mode;
			// it is logged, never surfaced as a user-visible error.
			a.logger.Warn("push channel dial failed", zap.Error(err))
			if !a.sleep(bo.NextBackOff()) {
				return
			}
			continue
		}

		a.mu.Lock()
		if a.stopped {
			a.mu.Unlock()
			conn.Close()
			return
		}
		a.conn = conn
		a.state = Connected
		a.mu.Unlock()

		bo.Reset()
		a.emit(ConnectedMsg{})
		a.logger.Info("push channel connected")

		readErr := a.readLoop(conn)

		a.mu.Lock()
		a.conn = nil
		stopped := a.stopped
		a.state = Disconnected
		a.mu.Unlock()

		if stopped {
			return
		}

		a.logger.Warn("push channel disconnected", zap.Error(readErr))
		a.emit(DisconnectedMsg{Err: readErr})

		if !a.sleep(bo.NextBackOff()) {
			return
		}
	}
}

// dial performs a single websocket handshake attempt.
func (a *Adapter) dial() (*websocket.Conn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+a.token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, a.url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

// readLoop decodes envelopes off the socket until it fails.
func (a *Adapter) readLoop(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var env model.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			a.logger.Warn("dropping unreadable push frame", zap.Error(err))
			continue
		}

		switch env.Type {
		case model.EventNotificationCreated:
			a.emit(CreatedMsg{Notification: env.Payload})
		default:
			a.logger.Debug("ignoring push frame",
				zap.String("type", env.Type))
		}
	}
}

// emit delivers an event without losing creation messages; it only gives
// up when the adapter is closed.
func (a *Adapter) emit(msg tea.Msg) {
	select {
	case a.events <- msg:
	case <-a.stopCh:
	}
}

// sleep waits d or until Close, reporting whether the loop should go on.
func (a *Adapter) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-a.stopCh:
		return false
	case <-t.C:
		return true
	}
}

// setState updates the connection state.
func (a *Adapter) setState(s ConnectionState) {
	a.mu.Lock()
	if !a.stopped {
		a.state = s
	}
	a.mu.Unlock()
}
