// File: internal/firebase/client.go
package firebase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tm-webstudio/service4me-sub000/internal/config"
	"github.com/tm-webstudio/service4me-sub000/internal/provider"
)

const eventBuffer = 8

// SessionClient implements provider.Client over the Identity Toolkit and
// Secure Token REST endpoints, with the Admin SDK (Service) for lookups and
// revocation. One SessionClient serves one browser session; it holds at most
// one token bundle at a time.
type SessionClient struct {
	cfg    *config.Config
	admin  *Service
	http   *http.Client
	logger *zap.Logger

	mu      sync.Mutex
	current *provider.Session

	// evMu guards the event channel lifecycle. It is separate from mu
	// because emit is called while mu is held.
	evMu   sync.Mutex
	events chan provider.Event
	closed bool
}

// NewSessionClient creates a provider client with no current session.
func NewSessionClient(cfg *config.Config, admin *Service, logger *zap.Logger) *SessionClient {
	return &SessionClient{
		cfg:    cfg,
		admin:  admin,
		http:   &http.Client{Timeout: 15 * time.Second},
		logger: logger.Named("provider"),
		events: make(chan provider.Event, eventBuffer),
	}
}

var _ provider.Client = (*SessionClient)(nil)

func (c *SessionClient) Configured() bool {
	return c.cfg.AuthProviderConfigured() && c.admin.Ready()
}

func (c *SessionClient) Events() <-chan provider.Event {
	return c.events
}

// Close releases the event stream. Safe to call more than once.
func (c *SessionClient) Close() {
	c.evMu.Lock()
	defer c.evMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.events)
	}
}

// emit pushes an event without blocking; a full buffer drops the event, which
// the session manager tolerates because every event is advisory.
func (c *SessionClient) emit(ev provider.Event) {
	// Close flips the flag and closes the channel under the same lock, so the
	// check and the send must stay inside it to avoid a send on a closed
	// channel.
	c.evMu.Lock()
	defer c.evMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.events <- ev:
	default:
		c.logger.Warn("Dropping provider event, buffer full", zap.String("event", string(ev.Type)))
	}
}

// GetSession returns the current session, refreshing the token bundle with
// the provider when the access token has expired. (nil, nil) means no session.
func (c *SessionClient) GetSession(ctx context.Context) (*provider.Session, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("auth provider is not configured")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return nil, nil
	}
	if time.Until(c.current.ExpiresAt) > 30*time.Second {
		copied := *c.current
		return &copied, nil
	}

	refreshed, err := c.refreshLocked(ctx)
	if err != nil {
		return nil, err
	}
	copied := *refreshed
	c.emit(provider.Event{Type: provider.EventTokenRefreshed, Session: &copied})
	return &copied, nil
}

// refreshLocked exchanges the refresh token for a new token bundle and
// replaces the current session in place. Caller holds c.mu.
func (c *SessionClient) refreshLocked(ctx context.Context) (*provider.Session, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", c.current.RefreshToken)

	endpoint := fmt.Sprintf("%s/token?key=%s", c.cfg.SecureTokenEndpoint, c.cfg.FirebaseWebAPIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, restError(resp.Body, resp.StatusCode)
	}

	var body struct {
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
		UserID       string `json:"user_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding token refresh response: %w", err)
	}

	c.current.AccessToken = body.IDToken
	c.current.RefreshToken = body.RefreshToken
	c.current.ExpiresAt = time.Now().Add(parseExpiresIn(body.ExpiresIn))
	return c.current, nil
}

// SignInWithPassword performs the password grant and hydrates the session
// with the provider-side user record (verification state, signup metadata).
func (c *SessionClient) SignInWithPassword(ctx context.Context, email, password string) (*provider.Session, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("auth provider is not configured")
	}

	grant, err := c.passwordGrant(ctx, "accounts:signInWithPassword", map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, err
	}

	sess, err := c.hydrate(ctx, grant)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.current = sess
	copied := *sess
	c.mu.Unlock()
	return &copied, nil
}

// SignUp registers a new account, attaches the signup metadata as custom
// claims and, when email confirmation is required, dispatches the
// verification email instead of storing the session.
func (c *SessionClient) SignUp(ctx context.Context, email, password string, metadata map[string]interface{}) (*provider.Session, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("auth provider is not configured")
	}

	grant, err := c.passwordGrant(ctx, "accounts:signUp", map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, err
	}

	if len(metadata) > 0 {
		if err := c.admin.SetCustomClaims(ctx, grant.LocalID, metadata); err != nil {
			return nil, err
		}
	}

	sess := &provider.Session{
		UserID:       grant.LocalID,
		Email:        grant.Email,
		AccessToken:  grant.IDToken,
		RefreshToken: grant.RefreshToken,
		ExpiresAt:    time.Now().Add(parseExpiresIn(grant.ExpiresIn)),
		Metadata:     metadata,
	}

	if c.cfg.EmailConfirmationNeeded {
		if err := c.sendVerificationEmail(ctx, grant.IDToken); err != nil {
			c.logger.Warn("Failed to send verification email", zap.Error(err), zap.String("uid", grant.LocalID))
		} else {
			now := time.Now()
			sess.ConfirmationSentAt = &now
		}
		// Unconfirmed accounts are not stored as the current session.
		return sess, nil
	}

	now := time.Now()
	sess.EmailConfirmedAt = &now

	c.mu.Lock()
	c.current = sess
	copied := *sess
	c.mu.Unlock()
	return &copied, nil
}

// SignOut revokes the refresh tokens with the provider and clears the current
// session. The SIGNED_OUT event carries no session.
func (c *SessionClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	sess := c.current
	c.current = nil
	c.mu.Unlock()

	c.emit(provider.Event{Type: provider.EventSignedOut})

	if sess == nil {
		return nil
	}
	return c.admin.RevokeRefreshTokens(ctx, sess.UserID)
}

// grantResponse is the shared shape of the Identity Toolkit password endpoints.
type grantResponse struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
}

func (c *SessionClient) passwordGrant(ctx context.Context, path string, payload map[string]interface{}) (*grantResponse, error) {
	endpoint := fmt.Sprintf("%s/%s?key=%s", c.cfg.IdentityToolkitEndpoint, path, c.cfg.FirebaseWebAPIKey)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, restError(resp.Body, resp.StatusCode)
	}

	var grant grantResponse
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		return nil, fmt.Errorf("decoding auth provider response: %w", err)
	}
	return &grant, nil
}

func (c *SessionClient) sendVerificationEmail(ctx context.Context, idToken string) error {
	_, err := c.passwordGrant(ctx, "accounts:sendOobCode", map[string]interface{}{
		"requestType": "VERIFY_EMAIL",
		"idToken":     idToken,
	})
	return err
}

// hydrate builds a full session from a grant, pulling verification state and
// custom claims from the provider-side user record.
func (c *SessionClient) hydrate(ctx context.Context, grant *grantResponse) (*provider.Session, error) {
	sess := &provider.Session{
		UserID:       grant.LocalID,
		Email:        grant.Email,
		AccessToken:  grant.IDToken,
		RefreshToken: grant.RefreshToken,
		ExpiresAt:    time.Now().Add(parseExpiresIn(grant.ExpiresIn)),
	}

	record, err := c.admin.GetUser(ctx, grant.LocalID)
	if err != nil {
		// The grant already proves the account; the record only enriches it.
		c.logger.Warn("Could not hydrate provider user record", zap.Error(err), zap.String("uid", grant.LocalID))
		return sess, nil
	}

	sess.Metadata = record.CustomClaims
	if record.EmailVerified {
		confirmed := time.Now()
		sess.EmailConfirmedAt = &confirmed
	}
	return sess, nil
}

// restError converts an Identity Toolkit error body into a Go error carrying
// the provider's machine-readable message (INVALID_PASSWORD, EMAIL_EXISTS,
// WEAK_PASSWORD, ...), which the session error normalizer keys on.
func restError(body io.Reader, status int) error {
	raw, _ := io.ReadAll(io.LimitReader(body, 16*1024))
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Message != "" {
		return fmt.Errorf("auth provider error: %s", parsed.Error.Message)
	}
	return fmt.Errorf("auth provider error: status %d", status)
}

func parseExpiresIn(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return time.Hour
	}
	return time.Duration(secs) * time.Second
}
