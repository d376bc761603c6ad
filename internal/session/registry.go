// File: internal/session/registry.go
package session

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/tm-webstudio/service4me-sub000/internal/config"
	"github.com/tm-webstudio/service4me-sub000/internal/platform/crypto"
	"github.com/tm-webstudio/service4me-sub000/internal/provider"
	"github.com/tm-webstudio/service4me-sub000/internal/shared"
)

// ClientFactory builds a fresh provider client for a new browser session.
type ClientFactory func() provider.Client

// Registry holds one Manager per live browser session, keyed by the opaque
// session id carried in the signed cookie. Entries expire with the cookie
// TTL; eviction closes the manager and its provider client.
type Registry struct {
	cache    *gocache.Cache
	factory  ClientFactory
	profiles shared.ProfileService
	logger   *zap.Logger
	ttl      time.Duration
}

func NewRegistry(cfg *config.Config, factory ClientFactory, profiles shared.ProfileService, logger *zap.Logger) *Registry {
	cleanup := cfg.SessionTTL / 4
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	c := gocache.New(cfg.SessionTTL, cleanup)
	c.OnEvicted(func(sid string, v interface{}) {
		if m, ok := v.(*Manager); ok {
			m.Close()
		}
	})
	return &Registry{
		cache:    c,
		factory:  factory,
		profiles: profiles,
		logger:   logger,
		ttl:      cfg.SessionTTL,
	}
}

// Create mints a new session id, builds its manager and runs initialization.
func (r *Registry) Create(ctx context.Context) (string, *Manager, error) {
	sid, err := crypto.GenerateSessionID()
	if err != nil {
		return "", nil, fmt.Errorf("generating session id: %w", err)
	}
	m := NewManager(r.factory(), r.profiles, r.logger)
	m.Initialize(ctx)
	r.cache.Set(sid, m, gocache.DefaultExpiration)
	r.logger.Debug("Created browser session", zap.String("session_id", sid))
	return sid, m, nil
}

// Get returns the manager for a session id, sliding its expiry forward.
func (r *Registry) Get(sid string) (*Manager, bool) {
	v, found := r.cache.Get(sid)
	if !found {
		return nil, false
	}
	m, ok := v.(*Manager)
	if !ok {
		return nil, false
	}
	r.cache.Set(sid, m, gocache.DefaultExpiration)
	return m, true
}

// GetOrCreate resolves an existing session or creates a fresh one when the
// id is empty or has expired. The returned id differs from the input when a
// new session was created.
func (r *Registry) GetOrCreate(ctx context.Context, sid string) (string, *Manager, error) {
	if sid != "" {
		if m, ok := r.Get(sid); ok {
			return sid, m, nil
		}
	}
	return r.Create(ctx)
}

// Delete removes a session, closing its manager through the eviction hook.
func (r *Registry) Delete(sid string) {
	r.cache.Delete(sid)
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	return r.cache.ItemCount()
}

// Close evicts every session, closing all managers. Flush would skip the
// eviction hook, so entries are deleted one by one.
func (r *Registry) Close() {
	for sid := range r.cache.Items() {
		r.cache.Delete(sid)
	}
}
