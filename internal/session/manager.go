package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jmehdipour/rfm-dashboard/internal/gateway"
	"github.com/jmehdipour/rfm-dashboard/internal/logger"
	"github.com/jmehdipour/rfm-dashboard/internal/metrics"
	"github.com/jmehdipour/rfm-dashboard/internal/model"
	"github.com/jmehdipour/rfm-dashboard/internal/store"
	"go.uber.org/zap"
)

// ErrSuperseded is returned by a resolution whose result was discarded because
// a newer credential change (login, logout) started while it was in flight.
var ErrSuperseded = errors.New("session: superseded by a newer credential change")

// Gateway is the part of the analytics client the session needs.
type Gateway interface {
	SetAuthToken(token string)
	OnUnauthorized(fn func(token string))
	Authenticate(ctx context.Context, username, password string) (string, error)
	Register(ctx context.Context, reg model.Registration) (model.RegistrationResult, error)
	Identity(ctx context.Context) (*model.Identity, error)
	Logout(ctx context.Context, path, token string) error
}

type Options struct {
	// RemoteLogoutPath, when set, is POSTed fire-and-forget on Logout.
	RemoteLogoutPath string
}

// Manager owns the credential and the identity derived from it. It is the
// only writer of the gateway's authorization header and of the credential store.
type Manager struct {
	gw    Gateway
	store store.CredentialStore
	opts  Options

	mu         sync.RWMutex
	state      State
	credential string
	identity   *model.Identity
	gen        uint64 // bumped on every credential change
	listeners  []func(State)
	pending    []State // committed transitions not yet delivered
	notifying  bool

	ready     chan struct{}
	readyOnce sync.Once
}

// New loads the persisted credential and returns an Uninitialized manager.
// A store that cannot be read is treated as empty.
func New(ctx context.Context, gw Gateway, st store.CredentialStore, opts Options) *Manager {
	token, err := st.Load(ctx)
	if err != nil {
		logger.Log.Warn("session: load persisted credential", zap.Error(err))
		token = ""
	}

	m := &Manager{
		gw:         gw,
		store:      st,
		opts:       opts,
		state:      Uninitialized,
		credential: token,
		ready:      make(chan struct{}),
	}
	gw.OnUnauthorized(m.handleUnauthorized)
	return m
}

// Init runs the first resolution. Ready() is closed when it returns, whatever
// the outcome; an invalid persisted credential is not an error.
func (m *Manager) Init(ctx context.Context) error {
	m.mu.Lock()
	if m.state != Uninitialized {
		// a login or logout got there first; it settles the session
		m.mu.Unlock()
		select {
		case <-m.ready:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	err := m.resolveLocked(ctx, m.credential)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrSuperseded), ctx.Err() != nil:
		return err
	default:
		logger.Log.Info("session: persisted credential rejected", zap.Error(err))
		return nil
	}
}

// SetCredential replaces the credential and resolves it.
func (m *Manager) SetCredential(ctx context.Context, token string) error {
	return m.resolve(ctx, strings.TrimSpace(token))
}

// Login authenticates and resolves the returned credential. The identity is
// available through Identity() as soon as Login returns nil.
func (m *Manager) Login(ctx context.Context, username, password string) (*model.Identity, error) {
	token, err := m.gw.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, &gateway.Error{Kind: gateway.ErrProtocol, Op: "authenticate", Message: "login succeeded but no token was returned"}
	}

	if err := m.resolve(ctx, token); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	id := m.Identity()
	if id == nil {
		return nil, fmt.Errorf("login: %w", ErrSuperseded)
	}
	logger.Log.Info("session: logged in", zap.String("username", id.Username))
	return id, nil
}

// Register creates an account. It never authenticates the session, even when
// the service returns a token.
func (m *Manager) Register(ctx context.Context, username, email, password, confirmation string) (model.RegistrationResult, error) {
	if password != confirmation {
		return model.RegistrationResult{}, gateway.Validation("register", "password2", "Passwords do not match.")
	}
	return m.gw.Register(ctx, model.Registration{
		Username:  username,
		Email:     email,
		Password:  password,
		Password2: confirmation,
	})
}

// Logout clears the credential synchronously. In-flight resolutions are discarded.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	old := m.credential
	m.gen++
	m.clearLocked(ctx)
	m.commitLocked(Anonymous)
	m.mu.Unlock()

	m.markReady()
	m.deliver()

	if old != "" && m.opts.RemoteLogoutPath != "" {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := m.gw.Logout(ctx, m.opts.RemoteLogoutPath, old); err != nil {
				logger.Log.Debug("session: remote logout", zap.Error(err))
			}
		}()
	}
}

// Subscribe registers fn to be called after every committed transition.
func (m *Manager) Subscribe(fn func(State)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Identity returns a copy of the resolved identity, nil unless Authenticated.
func (m *Manager) Identity() *model.Identity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.identity == nil {
		return nil
	}
	id := *m.identity
	return &id
}

func (m *Manager) Credential() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.credential
}

func (m *Manager) Authenticated() bool { return m.State() == Authenticated }

// Ready is closed once the first resolution has completed.
func (m *Manager) Ready() <-chan struct{} { return m.ready }

func (m *Manager) Initialized() bool {
	select {
	case <-m.ready:
		return true
	default:
		return false
	}
}

// resolve attaches token, persists it and derives the identity. Any failure
// clears the credential before returning.
func (m *Manager) resolve(ctx context.Context, token string) error {
	m.mu.Lock()
	return m.resolveLocked(ctx, token)
}

// resolveLocked is entered with m.mu held and releases it.
func (m *Manager) resolveLocked(ctx context.Context, token string) error {
	m.gen++
	gen := m.gen
	m.identity = nil
	if token == "" {
		m.clearLocked(ctx)
		m.commitLocked(Anonymous)
		m.mu.Unlock()
		m.markReady()
		m.deliver()
		return nil
	}

	m.credential = token
	m.gw.SetAuthToken(token)
	if err := m.store.Save(ctx, token); err != nil {
		m.clearLocked(ctx)
		m.commitLocked(Anonymous)
		m.mu.Unlock()
		m.markReady()
		m.deliver()
		return fmt.Errorf("persist credential: %w", err)
	}
	m.commitLocked(Resolving)
	m.mu.Unlock()
	m.deliver()

	id, err := m.gw.Identity(ctx)

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		m.clearLocked(ctx)
		m.commitLocked(Anonymous)
		m.mu.Unlock()
		m.markReady()
		m.deliver()
		return fmt.Errorf("resolve identity: %w", err)
	}
	m.identity = id
	m.commitLocked(Authenticated)
	m.mu.Unlock()

	m.markReady()
	m.deliver()
	return nil
}

// clearLocked drops the credential everywhere it lives. Callers hold m.mu.
func (m *Manager) clearLocked(ctx context.Context) {
	m.credential = ""
	m.identity = nil
	m.gw.SetAuthToken("")
	if err := m.store.Clear(context.WithoutCancel(ctx)); err != nil {
		logger.Log.Warn("session: erase persisted credential", zap.Error(err))
	}
}

// handleUnauthorized turns a 401 on an authenticated call into a logout, as
// long as the rejected token is still the current one.
func (m *Manager) handleUnauthorized(token string) {
	m.mu.RLock()
	current := m.state == Authenticated && m.credential == token
	m.mu.RUnlock()
	if !current {
		return
	}
	logger.Log.Info("session: credential rejected by service, logging out")
	m.Logout(context.Background())
}

func (m *Manager) markReady() {
	m.readyOnce.Do(func() { close(m.ready) })
}

// commitLocked sets the state and queues it for the listeners. Callers hold m.mu.
func (m *Manager) commitLocked(s State) {
	m.state = s
	m.pending = append(m.pending, s)
	metrics.SessionTransitionsTotal.WithLabelValues(s.String()).Inc()
}

// deliver hands queued transitions to the listeners in commit order. One
// goroutine delivers at a time; transitions committed meanwhile, including
// ones made from inside a listener, are picked up by that goroutine, so a
// listener never sees an older state after a newer one.
func (m *Manager) deliver() {
	m.mu.Lock()
	if m.notifying {
		m.mu.Unlock()
		return
	}
	m.notifying = true
	for len(m.pending) > 0 {
		s := m.pending[0]
		m.pending = m.pending[1:]
		ls := slices.Clone(m.listeners)
		m.mu.Unlock()
		for _, fn := range ls {
			fn(s)
		}
		m.mu.Lock()
	}
	m.notifying = false
	m.mu.Unlock()
}
