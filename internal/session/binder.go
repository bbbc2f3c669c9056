package session

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/nhle/notify-center/internal/credential"
)

// Identity is the resolved user identity required to open a push
// subscription and authenticate fetches.
type Identity struct {
	// Token is the bearer token presented to the backend.
	Token string
}

// Key returns the registry key for this identity.
func (id Identity) Key() string {
	return id.Token
}

// Conn is a live push subscription owned by the binder. Close must be
// idempotent.
type Conn interface {
	Close()
}

// ConnectFunc opens a push subscription for an identity.
type ConnectFunc func(id Identity) Conn

// Resolve looks up the current identity: the named environment variable
// first, then the system keyring. Resolution failure means "no identity"
// (fail closed); the caller must clear all notification state.
func Resolve(tokenEnv string) (Identity, bool) {
	if tokenEnv == "" {
		tokenEnv = "NOTIFY_TOKEN"
	}
	if token := os.Getenv(tokenEnv); token != "" {
		return Identity{Token: token}, true
	}
	token, err := credential.Token()
	if err != nil || token == "" {
		return Identity{}, false
	}
	return Identity{Token: token}, true
}

// Binder owns the lifecycle of the push connection. It keeps an explicit
// connection registry keyed by identity so that at most one subscription
// is ever live, and an identity change tears the old one down exactly
// once before the new one is established.
type Binder struct {
	connect ConnectFunc
	logger  *zap.Logger

	mu      sync.Mutex
	current *Identity
	conns   map[string]Conn
}

// NewBinder creates a binder that opens subscriptions with connect.
func NewBinder(connect ConnectFunc, logger *zap.Logger) *Binder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Binder{
		connect: connect,
		logger:  logger,
		conns:   make(map[string]Conn),
	}
}

// Bind makes id the bound identity and returns its live connection.
// Rebinding the same identity reuses the existing connection; a different
// identity first tears down the previous subscription, so two are never
// live simultaneously.
func (b *Binder) Bind(id Identity) Conn {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current != nil {
		if b.current.Key() == id.Key() {
			if conn, ok := b.conns[id.Key()]; ok {
				return conn
			}
		} else {
			b.teardownLocked(*b.current)
		}
	}

	conn := b.connect(id)
	b.current = &id
	b.conns[id.Key()] = conn
	b.logger.Info("identity bound")
	return conn
}

// Unbind tears down the current subscription, if any. Used on logout and
// on identity resolution failure; no error is surfaced because the
// unauthenticated state is expected.
func (b *Binder) Unbind() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current == nil {
		return
	}
	b.teardownLocked(*b.current)
	b.current = nil
	b.logger.Info("identity unbound")
}

// Current returns the bound identity, if any.
func (b *Binder) Current() (Identity, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return Identity{}, false
	}
	return *b.current, true
}

// Bound reports whether an identity is currently bound.
func (b *Binder) Bound() bool {
	_, ok := b.Current()
	return ok
}

// teardownLocked closes and unregisters the connection for id. The mutex
// must be held.
func (b *Binder) teardownLocked(id Identity) {
	conn, ok := b.conns[id.Key()]
	if !ok {
		return
	}
	delete(b.conns, id.Key())
	conn.Close()
}

// String implements fmt.Stringer without leaking the token.
func (id Identity) String() string {
	if len(id.Token) <= 4 {
		return "identity(****)"
	}
	return fmt.Sprintf("identity(…%s)", id.Token[len(id.Token)-4:])
}
