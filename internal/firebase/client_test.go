// File: internal/firebase/client_test.go
package firebase

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/tm-webstudio/service4me-sub000/internal/config"
	"github.com/tm-webstudio/service4me-sub000/internal/provider"
)

func newTestSessionClient() *SessionClient {
	return NewSessionClient(&config.Config{}, nil, zap.NewNop())
}

func TestSessionClient_CloseIsIdempotent(t *testing.T) {
	c := newTestSessionClient()
	c.Close()
	c.Close()

	_, open := <-c.Events()
	assert.False(t, open, "event channel should be closed")
}

func TestSessionClient_EmitAfterCloseIsNoOp(t *testing.T) {
	c := newTestSessionClient()
	c.Close()

	// Must not panic with a send on the closed channel.
	c.emit(provider.Event{Type: provider.EventSignedOut})
}

func TestSessionClient_EmitConcurrentWithClose(t *testing.T) {
	// The registry evicts sessions on the cache janitor goroutine, which
	// closes the client while request handlers may still be emitting.
	for i := 0; i < 50; i++ {
		c := newTestSessionClient()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				c.emit(provider.Event{Type: provider.EventTokenRefreshed})
			}
		}()
		go func() {
			defer wg.Done()
			c.Close()
		}()
		wg.Wait()
	}
}
