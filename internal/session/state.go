// File: internal/session/state.go
package session

import (
	"github.com/tm-webstudio/service4me-sub000/internal/provider"
	"github.com/tm-webstudio/service4me-sub000/internal/shared"
)

// Status is the lifecycle phase of a browser session's auth state.
type Status string

const (
	StatusInitializing    Status = "INITIALIZING"
	StatusAuthenticated   Status = "AUTHENTICATED"
	StatusUnauthenticated Status = "UNAUTHENTICATED"
	StatusLoading         Status = "LOADING"
	StatusError           Status = "ERROR"
)

// State is an atomic snapshot of a session's auth lifecycle. User is non-nil
// exactly when Status is AUTHENTICATED, and Err is non-nil exactly when
// Status is ERROR.
type State struct {
	Status  Status
	User    *shared.Profile
	Session *provider.Session
	Err     *AuthError
}

// Authenticated reports whether the snapshot carries a signed-in user.
func (s State) Authenticated() bool {
	return s.Status == StatusAuthenticated && s.User != nil
}
