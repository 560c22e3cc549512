// Package session implements the authentication gate: the persisted bearer
// token and user, their validation on start-up, and route access checks.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/stockmgmt/dashboard/internal/domain/shared"
	"github.com/stockmgmt/dashboard/internal/domain/stock"
	"github.com/stockmgmt/dashboard/internal/infrastructure/auth"
	"github.com/stockmgmt/dashboard/internal/infrastructure/logger"
	store "github.com/stockmgmt/dashboard/internal/infrastructure/session"
	"go.uber.org/zap"
)

// State is a gate state
type State string

const (
	StateUninitialized   State = "uninitialized"
	StateChecking        State = "checking"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
)

// Transition is delivered to listeners on every state change
type Transition struct {
	From State
	To   State
	User *stock.User
	At   time.Time
}

// Listener receives transitions in the order they happen. It must not call
// Gate methods that change state or subscribe.
type Listener func(Transition)

// Gate is the authentication state machine. Authenticated means a token and
// a user are both held; Logout is the single terminal transition back to
// unauthenticated.
type Gate struct {
	auth   stock.AuthGateway
	store  store.Store
	logger *zap.Logger
	now    func() time.Time

	mu    sync.RWMutex
	state State
	token string
	user  *stock.User

	// notify serializes listener delivery so transitions arrive in order
	notify    sync.Mutex
	listeners map[int]Listener
	nextID    int
}

// GateOption configures a Gate
type GateOption func(*Gate)

// WithClock overrides the time source used for token expiry checks
func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) { g.now = now }
}

// NewGate creates a gate in the uninitialized state
func NewGate(authGateway stock.AuthGateway, st store.Store, log *zap.Logger, opts ...GateOption) *Gate {
	g := &Gate{
		auth:      authGateway,
		store:     st,
		logger:    logger.OrNop(log).Named("session_gate"),
		now:       time.Now,
		state:     StateUninitialized,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Token returns the bearer token for outgoing requests; it makes Gate an apiclient.TokenSource
func (g *Gate) Token(context.Context) string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token
}

// State returns the current state
func (g *Gate) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// User returns a copy of the current user, or nil
func (g *Gate) User() *stock.User {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return copyUser(g.user)
}

// IsAuthenticated reports token present AND user present
func (g *Gate) IsAuthenticated() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state == StateAuthenticated && g.token != "" && g.user != nil
}

// AccessState returns the inputs of CanAccess
func (g *Gate) AccessState() AccessState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s := AccessState{IsAuthenticated: g.state == StateAuthenticated && g.token != "" && g.user != nil}
	if g.user != nil {
		s.Role = g.user.Role
		s.Permissions = append([]string(nil), g.user.EffectivePermissions()...)
	}
	return s
}

// Subscribe registers l and returns a function that removes it
func (g *Gate) Subscribe(l Listener) (unsubscribe func()) {
	g.notify.Lock()
	defer g.notify.Unlock()
	id := g.nextID
	g.nextID++
	g.listeners[id] = l
	return func() {
		g.notify.Lock()
		defer g.notify.Unlock()
		delete(g.listeners, id)
	}
}

// Initialize restores the persisted session. When both token and user are
// present the token is validated against the backend; any failure clears the
// store and leaves the gate unauthenticated. A token whose exp has passed is
// cleared without a round trip.
func (g *Gate) Initialize(ctx context.Context) error {
	if s := g.State(); s != StateUninitialized {
		return fmt.Errorf("%w: gate already initialized (%s)", shared.ErrInvalidState, s)
	}

	data, err := g.store.Load(ctx)
	if err != nil {
		g.logger.Warn("Stored session unreadable, discarding", zap.Error(err))
		return g.clear(ctx)
	}
	if !data.Complete() {
		if data.Token != "" || data.User != nil {
			g.logger.Info("Incomplete stored session, discarding")
		}
		return g.clear(ctx)
	}

	g.transition(StateChecking, data.Token, data.User)

	if auth.IsExpired(data.Token, g.now()) {
		g.logger.Info("Stored token expired", zap.String("username", data.User.Username))
		return g.clear(ctx)
	}

	user, err := g.auth.Validate(ctx)
	if err != nil {
		g.logger.Warn("Stored session rejected", zap.String("username", data.User.Username), zap.Error(err))
		return g.clear(ctx)
	}
	if user == nil {
		user = data.User
	}
	if err := g.store.Save(ctx, store.Data{Token: data.Token, User: user}); err != nil {
		g.logger.Warn("Failed to persist validated user", zap.Error(err))
	}
	g.transition(StateAuthenticated, data.Token, user)
	return nil
}

// Login authenticates with the backend and persists the session
func (g *Gate) Login(ctx context.Context, username, password string) (*stock.User, error) {
	creds := stock.Credentials{Username: strings.TrimSpace(username), Password: password}
	if res := stock.ValidateCredentials(&creds); !res.IsValid {
		return nil, fmt.Errorf("%w: %s", shared.ErrInvalidInput, strings.Join(res.Errors, "; "))
	}

	token, err := g.auth.Login(ctx, creds)
	if err != nil {
		g.logger.Warn("Login failed", zap.String("username", creds.Username), zap.Error(err))
		return nil, err
	}
	if token == nil || token.AccessToken == "" {
		return nil, fmt.Errorf("%w: login response carried no token", shared.ErrUnauthorized)
	}

	user := token.User
	if user == nil {
		// Older backends omit the user; ask for it with the new token
		g.mu.Lock()
		g.token = token.AccessToken
		g.mu.Unlock()
		user, err = g.auth.Validate(ctx)
		if err != nil {
			g.mu.Lock()
			g.token = ""
			g.mu.Unlock()
			return nil, err
		}
	}

	if err := g.store.Save(ctx, store.Data{Token: token.AccessToken, User: user}); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	g.transition(StateAuthenticated, token.AccessToken, user)
	g.logger.Info("User logged in", zap.String("username", user.Username), zap.String("role", string(user.Role)))
	return copyUser(user), nil
}

// Logout tells the backend on a best-effort basis, then always clears the
// stored session and moves to unauthenticated
func (g *Gate) Logout(ctx context.Context) error {
	if g.Token(ctx) != "" {
		if err := g.auth.Logout(ctx); err != nil {
			g.logger.Warn("Backend logout failed, clearing session anyway", zap.Error(err))
		}
	}
	return g.clear(ctx)
}

// Refresh exchanges the current token for a new one. A session error from
// the backend forces a logout.
func (g *Gate) Refresh(ctx context.Context) error {
	if !g.IsAuthenticated() {
		return shared.ErrSessionExpired
	}
	token, err := g.auth.Refresh(ctx)
	if err != nil {
		if isSessionError(err) {
			g.ForceLogout(ctx, err)
			return fmt.Errorf("%w: %v", shared.ErrSessionExpired, err)
		}
		return err
	}
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: refresh response carried no token", shared.ErrUnauthorized)
	}

	user := token.User
	if user == nil {
		user = g.User()
	}
	// the session was cleared while the refresh was in flight
	if user == nil {
		return shared.ErrSessionExpired
	}
	if err := g.store.Save(ctx, store.Data{Token: token.AccessToken, User: user}); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	g.mu.Lock()
	g.token = token.AccessToken
	g.user = copyUser(user)
	g.mu.Unlock()
	g.logger.Debug("Token refreshed", zap.String("username", user.Username))
	return nil
}

// ForceLogout clears the session after a session error seen elsewhere, e.g. a
// 401 from any backend call. It does not call the backend.
func (g *Gate) ForceLogout(ctx context.Context, cause error) {
	if g.State() == StateUnauthenticated {
		return
	}
	g.logger.Info("Session invalidated", zap.Error(cause))
	if err := g.clear(ctx); err != nil {
		g.logger.Warn("Failed to clear stored session", zap.Error(err))
	}
}

// HandleError forces a logout when err is a session error and returns err unchanged
func (g *Gate) HandleError(ctx context.Context, err error) error {
	if err != nil && isSessionError(err) {
		g.ForceLogout(ctx, err)
	}
	return err
}

func isSessionError(err error) bool {
	return errors.Is(err, shared.ErrUnauthorized) || errors.Is(err, shared.ErrSessionExpired)
}

// clear wipes storage and memory and moves to unauthenticated. The
// transition happens even when the store fails.
func (g *Gate) clear(ctx context.Context) error {
	err := g.store.Clear(ctx)
	g.transition(StateUnauthenticated, "", nil)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (g *Gate) transition(to State, token string, user *stock.User) {
	g.notify.Lock()
	defer g.notify.Unlock()

	g.mu.Lock()
	from := g.state
	g.state = to
	g.token = token
	g.user = copyUser(user)
	g.mu.Unlock()

	if from == to {
		return
	}
	t := Transition{From: from, To: to, User: copyUser(user), At: g.now()}
	g.logger.Debug("Session state changed", zap.String("from", string(from)), zap.String("to", string(to)))
	for _, l := range g.listenersInOrder() {
		l(t)
	}
}

// listenersInOrder returns listeners by subscription order; notify must be held
func (g *Gate) listenersInOrder() []Listener {
	out := make([]Listener, 0, len(g.listeners))
	for id := 0; id < g.nextID; id++ {
		if l, ok := g.listeners[id]; ok {
			out = append(out, l)
		}
	}
	return out
}

func copyUser(u *stock.User) *stock.User {
	if u == nil {
		return nil
	}
	c := *u
	c.Permissions = append([]string(nil), u.Permissions...)
	return &c
}
