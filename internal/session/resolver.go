// File: internal/session/resolver.go
package session

import (
	"github.com/gin-gonic/gin"

	"github.com/tm-webstudio/service4me-sub000/internal/config"
)

// StateResolver reads the auth state bound to a request's session cookie.
// Route guards use it without ever creating new sessions.
type StateResolver func(c *gin.Context) State

// NewStateResolver builds a resolver over the registry. Requests without a
// valid cookie or with an expired registry entry resolve to UNAUTHENTICATED.
func NewStateResolver(registry *Registry, tokens *TokenService, cfg *config.Config) StateResolver {
	return func(c *gin.Context) State {
		raw, err := c.Cookie(cfg.SessionCookieName)
		if err != nil || raw == "" {
			return State{Status: StatusUnauthenticated}
		}
		sid, err := tokens.Parse(raw)
		if err != nil {
			return State{Status: StatusUnauthenticated}
		}
		mgr, ok := registry.Get(sid)
		if !ok {
			return State{Status: StatusUnauthenticated}
		}
		return mgr.Snapshot()
	}
}
