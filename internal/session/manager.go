// File: internal/session/manager.go
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tm-webstudio/service4me-sub000/internal/common"
	"github.com/tm-webstudio/service4me-sub000/internal/provider"
	"github.com/tm-webstudio/service4me-sub000/internal/shared"
)

// eventTimeout bounds the background work done while applying a pushed
// provider event.
const eventTimeout = 10 * time.Second

// SignUpDetails carries the optional registration fields collected alongside
// email and password. Stylist fields are only applied for stylist signups.
type SignUpDetails struct {
	DisplayName   string
	Phone         string
	BusinessName  string
	Location      string
	BusinessPhone string
	ContactEmail  string
}

// attempt records the last credentialed operation so Retry can replay it.
type attempt struct {
	signUp   bool
	email    string
	password string
	role     string
	details  *SignUpDetails
}

// Manager owns the auth lifecycle of a single browser session. All state
// transitions are serialized through its mutex; pushed provider events are
// consumed on a dedicated goroutine and dropped when they raced with a newer
// imperative transition.
type Manager struct {
	client   provider.Client
	profiles shared.ProfileService
	logger   *zap.Logger

	mu          sync.RWMutex
	state       State
	gen         uint64
	initStarted bool
	lastAttempt *attempt

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewManager builds a manager in the INITIALIZING state and starts consuming
// the client's event stream.
func NewManager(client provider.Client, profiles shared.ProfileService, logger *zap.Logger) *Manager {
	m := &Manager{
		client:   client,
		profiles: profiles,
		logger:   logger,
		state:    State{Status: StatusInitializing},
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go m.consumeEvents()
	return m
}

// Snapshot returns the current state atomically.
func (m *Manager) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Close stops the event loop and releases the provider client. It is safe to
// call more than once.
func (m *Manager) Close() {
	m.stopOnce.Do(func() {
		close(m.stop)
		<-m.done
		m.client.Close()
	})
}

// setState installs a new state and bumps the generation counter, which
// invalidates any provider events received before this point.
func (m *Manager) setState(st State) {
	m.mu.Lock()
	m.state = st
	m.gen++
	m.mu.Unlock()
}

func (m *Manager) failWith(op string, ae *AuthError) *AuthError {
	m.logger.Log(severityFor(ae.Code), "Auth operation failed",
		zap.String("operation", op),
		zap.String("code", string(ae.Code)),
		zap.String("details", ae.Details),
	)
	m.setState(State{Status: StatusError, Err: ae})
	return ae
}

// Initialize restores the session once. The first call runs the full
// sequence; later calls return the current snapshot without touching the
// provider again.
func (m *Manager) Initialize(ctx context.Context) State {
	m.mu.Lock()
	if m.initStarted {
		st := m.state
		m.mu.Unlock()
		return st
	}
	m.initStarted = true
	m.mu.Unlock()

	if !m.client.Configured() {
		m.failWith("initialize", NewAuthError(CodeConfigMissing, "auth provider credentials are not configured"))
		return m.Snapshot()
	}

	sess, err := m.client.GetSession(ctx)
	if err != nil {
		m.failWith("initialize", NewAuthError(CodeSessionError, err.Error()))
		return m.Snapshot()
	}
	if sess == nil {
		m.setState(State{Status: StatusUnauthenticated})
		return m.Snapshot()
	}

	prof, ae := m.resolveProfile(ctx, sess)
	if ae != nil {
		m.failWith("initialize", ae)
		return m.Snapshot()
	}
	m.setState(State{Status: StatusAuthenticated, User: prof, Session: sess})
	return m.Snapshot()
}

// SignIn authenticates with email and password. On failure the normalized
// error is both installed in state and returned.
func (m *Manager) SignIn(ctx context.Context, email, password string) *AuthError {
	m.rememberAttempt(&attempt{email: email, password: password})
	m.setState(State{Status: StatusLoading})

	sess, err := m.client.SignInWithPassword(ctx, email, password)
	if err != nil {
		return m.failWith("sign-in", Normalize(err))
	}

	prof, ae := m.resolveProfile(ctx, sess)
	if ae != nil {
		return m.failWith("sign-in", ae)
	}
	m.setState(State{Status: StatusAuthenticated, User: prof, Session: sess})
	m.logger.Info("User signed in", zap.String("user_id", prof.ID))
	return nil
}

// SignUp registers a new account. When the provider requires email
// confirmation the flow stops before any profile row is written and the
// session becomes UNAUTHENTICATED until the user confirms and signs in.
func (m *Manager) SignUp(ctx context.Context, email, password, role string, details *SignUpDetails) *AuthError {
	role = common.RoleOrDefault(role)
	m.rememberAttempt(&attempt{signUp: true, email: email, password: password, role: role, details: details})
	m.setState(State{Status: StatusLoading})

	sess, err := m.client.SignUp(ctx, email, password, signUpMetadata(role, details))
	if err != nil {
		return m.failWith("sign-up", Normalize(err))
	}
	if sess == nil || sess.ConfirmationPending() {
		m.setState(State{Status: StatusUnauthenticated})
		m.logger.Info("Sign-up pending email confirmation", zap.String("email", email))
		return nil
	}

	prof, err := m.profiles.CreateFromAuthMetadata(ctx, sess.UserID, sess.Email, role, seedFrom(details))
	if err != nil {
		return m.failWith("sign-up", NewAuthError(CodeProfileCreateFailed, err.Error()))
	}

	if role == common.RoleStylist && details != nil && details.BusinessName != "" {
		prof, err = m.profiles.UpdateStylistDetails(ctx, sess.UserID, shared.StylistDetails{
			BusinessName: details.BusinessName,
			Location:     details.Location,
			Phone:        details.BusinessPhone,
			ContactEmail: details.ContactEmail,
		})
		if err != nil {
			return m.failWith("sign-up", NewAuthError(CodeProfileCreateFailed, err.Error()))
		}
	}

	m.setState(State{Status: StatusAuthenticated, User: prof, Session: sess})
	m.logger.Info("User signed up", zap.String("user_id", prof.ID), zap.String("role", role))
	return nil
}

// SignOut clears the local session first, then revokes it at the provider.
// The final state is UNAUTHENTICATED even when the provider call fails.
func (m *Manager) SignOut(ctx context.Context) {
	m.setState(State{Status: StatusLoading})
	if err := m.client.SignOut(ctx); err != nil {
		m.logger.Warn("Provider sign-out failed, clearing local session anyway", zap.Error(err))
	}
	m.setState(State{Status: StatusUnauthenticated})
}

// RefreshProfile re-reads the profile row for the active session and swaps it
// into state. Failures never disturb the current state; the normalized error
// is returned to the caller instead.
func (m *Manager) RefreshProfile(ctx context.Context) *AuthError {
	st := m.Snapshot()
	if st.Session == nil {
		return nil
	}

	prof, err := m.profiles.FetchProfile(ctx, st.Session.UserID)
	if err != nil {
		ae := Normalize(err)
		m.logger.Log(severityFor(ae.Code), "Profile refresh failed",
			zap.String("user_id", st.Session.UserID),
			zap.String("code", string(ae.Code)),
		)
		return ae
	}
	if prof == nil {
		m.logger.Warn("Profile refresh found no row, keeping current snapshot",
			zap.String("user_id", st.Session.UserID))
		return NewAuthError(CodeProfileNotFound, "profile row missing for "+st.Session.UserID)
	}

	m.mu.Lock()
	if m.state.Status == StatusAuthenticated {
		m.state.User = prof
		m.gen++
	}
	m.mu.Unlock()
	return nil
}

// ClearError dismisses a recoverable error, restoring AUTHENTICATED when a
// user snapshot survived and UNAUTHENTICATED otherwise. Non-recoverable
// errors stay put so the UI keeps showing the remediation.
func (m *Manager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Err == nil {
		return
	}
	if !m.state.Err.Recoverable {
		return
	}
	if m.state.User != nil {
		m.state = State{Status: StatusAuthenticated, User: m.state.User, Session: m.state.Session}
	} else {
		m.state = State{Status: StatusUnauthenticated}
	}
	m.gen++
}

// Retry replays the last sign-in or sign-up attempt. Without a recorded
// attempt it is a no-op.
func (m *Manager) Retry(ctx context.Context) *AuthError {
	m.mu.RLock()
	at := m.lastAttempt
	m.mu.RUnlock()
	if at == nil {
		return nil
	}
	if at.signUp {
		return m.SignUp(ctx, at.email, at.password, at.role, at.details)
	}
	return m.SignIn(ctx, at.email, at.password)
}

func (m *Manager) rememberAttempt(at *attempt) {
	m.mu.Lock()
	m.lastAttempt = at
	m.mu.Unlock()
}

// resolveProfile loads the profile backing a provider session, creating one
// from the session's metadata when the row does not exist yet.
func (m *Manager) resolveProfile(ctx context.Context, sess *provider.Session) (*shared.Profile, *AuthError) {
	prof, err := m.profiles.FetchProfile(ctx, sess.UserID)
	if err != nil {
		return nil, Normalize(err)
	}
	if prof != nil {
		return prof, nil
	}

	m.logger.Info("No profile for authenticated user, creating from auth metadata",
		zap.String("user_id", sess.UserID))
	role := common.RoleOrDefault(sess.MetadataString("role"))
	seed := &shared.ProfileSeed{
		DisplayName: sess.MetadataString("display_name"),
		Phone:       sess.MetadataString("phone"),
	}
	prof, err = m.profiles.CreateFromAuthMetadata(ctx, sess.UserID, sess.Email, role, seed)
	if err != nil {
		return nil, NewAuthError(CodeProfileCreateFailed, err.Error())
	}
	return prof, nil
}

func (m *Manager) consumeEvents() {
	defer close(m.done)
	events := m.client.Events()
	for {
		select {
		case <-m.stop:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.handleEvent(ev)
		}
	}
}

// handleEvent applies a pushed provider event unless an imperative transition
// happened after the event was received, in which case the event is stale and
// dropped. SIGNED_IN is always ignored; the imperative sign-in path owns that
// transition.
func (m *Manager) handleEvent(ev provider.Event) {
	m.mu.RLock()
	genAtReceipt := m.gen
	m.mu.RUnlock()

	switch ev.Type {
	case provider.EventSignedIn:
		return

	case provider.EventSignedOut:
		m.mu.Lock()
		if m.gen == genAtReceipt && m.state.Status != StatusUnauthenticated {
			m.state = State{Status: StatusUnauthenticated}
			m.gen++
		}
		m.mu.Unlock()

	case provider.EventTokenRefreshed:
		if ev.Session == nil {
			return
		}
		m.mu.Lock()
		if m.gen == genAtReceipt && m.state.Session != nil {
			m.state.Session = ev.Session
			m.gen++
		}
		m.mu.Unlock()

	case provider.EventUserUpdated:
		if ev.Session == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		prof, err := m.profiles.FetchProfile(ctx, ev.Session.UserID)
		cancel()
		if err != nil || prof == nil {
			m.logger.Warn("Ignoring user-updated event, profile fetch failed",
				zap.String("user_id", ev.Session.UserID), zap.Error(err))
			return
		}
		m.mu.Lock()
		if m.gen == genAtReceipt && m.state.Status == StatusAuthenticated {
			m.state.User = prof
			m.state.Session = ev.Session
			m.gen++
		}
		m.mu.Unlock()

	default:
		// Unrecognized event types with a session update only the session
		// payload; anything else is ignored.
		if ev.Session == nil {
			return
		}
		m.mu.Lock()
		if m.gen == genAtReceipt && m.state.Session != nil {
			m.state.Session = ev.Session
			m.gen++
		}
		m.mu.Unlock()
	}
}

func signUpMetadata(role string, details *SignUpDetails) map[string]interface{} {
	md := map[string]interface{}{"role": role}
	if details == nil {
		return md
	}
	if details.DisplayName != "" {
		md["display_name"] = details.DisplayName
	}
	if details.Phone != "" {
		md["phone"] = details.Phone
	}
	if details.BusinessName != "" {
		md["business_name"] = details.BusinessName
	}
	return md
}

func seedFrom(details *SignUpDetails) *shared.ProfileSeed {
	if details == nil {
		return nil
	}
	return &shared.ProfileSeed{DisplayName: details.DisplayName, Phone: details.Phone}
}
