// File: internal/provider/provider.go
package provider

import (
	"context"
	"time"
)

// Session is the opaque token bundle issued by the external auth provider for
// one authenticated user. Token refreshes replace the bundle in place; the
// associated user never changes for the lifetime of a session.
type Session struct {
	UserID       string
	Email        string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time

	// EmailConfirmedAt is nil while the address is unverified.
	EmailConfirmedAt *time.Time
	// ConfirmationSentAt is set when a verification email has been dispatched.
	ConfirmationSentAt *time.Time

	// Metadata carries the signup metadata attached when the account was
	// created (role, display name, phone, stylist business details).
	Metadata map[string]interface{}
}

// ConfirmationPending reports whether the account exists but cannot yet be
// treated as signed in because email confirmation is outstanding.
func (s *Session) ConfirmationPending() bool {
	return s != nil && s.EmailConfirmedAt == nil && s.ConfirmationSentAt != nil
}

// MetadataString returns a string field from the signup metadata, or "".
func (s *Session) MetadataString(key string) string {
	if s == nil || s.Metadata == nil {
		return ""
	}
	if v, ok := s.Metadata[key].(string); ok {
		return v
	}
	return ""
}

// EventType identifies a provider-pushed auth event.
type EventType string

const (
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
	EventUserUpdated    EventType = "USER_UPDATED"
	EventInitialSession EventType = "INITIAL_SESSION"
)

// Event is a provider-pushed state change, delivered on the client's event
// channel independently of any imperative call.
type Event struct {
	Type    EventType
	Session *Session
}

// Client is one user agent's handle onto the external auth provider. A client
// instance holds at most one session at a time; the session manager owns
// exactly one client.
type Client interface {
	// Configured reports whether the provider credentials are present. When
	// false, every other call fails and the session manager surfaces
	// CONFIG_MISSING.
	Configured() bool

	// GetSession returns the client's current session, refreshing it with the
	// provider when the access token has expired. (nil, nil) means no session.
	GetSession(ctx context.Context) (*Session, error)

	// SignInWithPassword performs the password grant and stores the resulting
	// session on the client.
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)

	// SignUp registers a new account with signup metadata attached. When the
	// provider requires email confirmation the returned session reports
	// ConfirmationPending and is not stored as the current session.
	SignUp(ctx context.Context, email, password string, metadata map[string]interface{}) (*Session, error)

	// SignOut revokes the current session with the provider and clears it
	// from the client.
	SignOut(ctx context.Context) error

	// Events exposes the provider-pushed event stream for this client.
	Events() <-chan Event

	// Close releases the client and its event stream.
	Close()
}
