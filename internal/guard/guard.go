// Package guard decides whether admin routes may render. It verifies the
// stored token once per check; the transport's 401 handling stays the
// authoritative enforcement.
package guard

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/kapu/society-cms-go/internal/constants"
	"github.com/kapu/society-cms-go/internal/navigation"
	"github.com/kapu/society-cms-go/internal/session"
)

type State string

const (
	StateChecking        State = "checking"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
)

type Outcome int

const (
	// Loading means show only a loading indicator: no content, no redirect.
	Loading Outcome = iota
	Render
	Redirect
)

type Decision struct {
	Outcome Outcome
	// Target is set for Redirect.
	Target string
}

// Authenticator is the admin auth API.
type Authenticator interface {
	Login(ctx context.Context, usernameOrEmail, password string) (string, error)
	Verify(ctx context.Context) error
	Logout(ctx context.Context) error
}

type Guard struct {
	session   *session.Session
	auth      Authenticator
	navigator navigation.Navigator
	logger    *zap.Logger
	now       func() time.Time

	mu    sync.Mutex
	state State
}

func New(sess *session.Session, auth Authenticator, navigator navigation.Navigator, logger *zap.Logger) *Guard {
	return &Guard{
		session:   sess,
		auth:      auth,
		navigator: navigator,
		logger:    logger,
		now:       time.Now,
		state:     StateChecking,
	}
}

func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Check resolves the session state. No token, or a token whose exp claim
// has passed, resolves without a network call. Any verification failure
// counts as unauthenticated.
func (g *Guard) Check(ctx context.Context) State {
	g.setState(StateChecking)

	token := g.session.Token()
	if token == "" {
		return g.setState(StateUnauthenticated)
	}

	if g.expired(token) {
		g.logger.Info("Stored token has expired")
		if err := g.session.Teardown(ctx); err != nil {
			g.logger.Warn("Failed to clear expired token", zap.Error(err))
		}
		return g.setState(StateUnauthenticated)
	}

	if err := g.auth.Verify(ctx); err != nil {
		g.logger.Info("Token verification failed", zap.Error(err))
		return g.setState(StateUnauthenticated)
	}
	return g.setState(StateAuthenticated)
}

// Decide maps a path onto what should be shown for the current state.
func (g *Guard) Decide(path string) Decision {
	route, _ := navigation.Match(path)
	state := g.State()

	switch route.Access {
	case navigation.Admin:
		switch state {
		case StateChecking:
			return Decision{Outcome: Loading}
		case StateAuthenticated:
			return Decision{Outcome: Render}
		default:
			return Decision{Outcome: Redirect, Target: constants.Routes.AdminLogin}
		}
	case navigation.LoginOnly:
		switch state {
		case StateChecking:
			return Decision{Outcome: Loading}
		case StateAuthenticated:
			return Decision{Outcome: Redirect, Target: constants.Routes.AdminDashboard}
		default:
			return Decision{Outcome: Render}
		}
	}
	return Decision{Outcome: Render}
}

// Enter decides for path and follows a redirect through the navigator.
func (g *Guard) Enter(path string) Decision {
	d := g.Decide(path)
	if d.Outcome == Redirect && g.navigator != nil {
		g.navigator.Navigate(d.Target)
	}
	return d
}

// Login stores the issued token and goes to the dashboard.
func (g *Guard) Login(ctx context.Context, usernameOrEmail, password string) error {
	token, err := g.auth.Login(ctx, usernameOrEmail, password)
	if err != nil {
		return err
	}
	if err := g.session.SetToken(ctx, token); err != nil {
		return err
	}
	g.setState(StateAuthenticated)
	if g.navigator != nil {
		g.navigator.Navigate(constants.Routes.AdminDashboard)
	}
	return nil
}

// Logout ends the session locally whatever the server says. The server call
// is made first so it still carries the token; its failure is only logged.
func (g *Guard) Logout(ctx context.Context) {
	if g.session.HasToken() {
		if err := g.auth.Logout(ctx); err != nil {
			g.logger.Warn("Server logout failed", zap.Error(err))
		}
	}
	if err := g.session.Teardown(ctx); err != nil {
		g.logger.Warn("Failed to clear token on logout", zap.Error(err))
	}
	g.setState(StateUnauthenticated)
	if g.navigator != nil {
		g.navigator.Navigate(constants.Routes.AdminLogin)
	}
}

// expired reads the exp claim without verifying the signature. Tokens that
// are not JWTs are left to the server.
func (g *Guard) expired(token string) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !g.now().Before(claims.ExpiresAt.Time)
}

func (g *Guard) setState(s State) State {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
	return s
}
