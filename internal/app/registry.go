package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campusplug/campusplug/internal/backend"
	"github.com/campusplug/campusplug/internal/notify"
	"github.com/campusplug/campusplug/internal/validation"
)

// anonymousTTL bounds how long a browser that is not signed in is kept.
// It covers the round trip to an OAuth provider.
const anonymousTTL = 15 * time.Minute

// Registry maps browser-session ids to browsers.
type Registry struct {
	connector backend.Connector
	notifier  notify.Notifier
	validate  *validation.Validator
	ttl       time.Duration
	anonTTL   time.Duration
	now       func() time.Time

	mu       sync.Mutex
	browsers map[string]*Browser
}

// NewRegistry returns a registry that connects new browsers through
// connector and evicts browsers idle for longer than ttl. Browsers without
// a signed-in user are evicted after at most anonymousTTL.
func NewRegistry(connector backend.Connector, notifier notify.Notifier, ttl time.Duration) *Registry {
	return &Registry{
		connector: connector,
		notifier:  notifier,
		validate:  validation.New(),
		ttl:       ttl,
		anonTTL:   min(ttl, anonymousTTL),
		now:       time.Now,
		browsers:  make(map[string]*Browser),
	}
}

// Open returns the started browser for id, creating it if needed. An empty
// or unknown id gets a new browser with a fresh id.
func (r *Registry) Open(ctx context.Context, id string) *Browser {
	r.mu.Lock()
	b, ok := r.browsers[id]
	if !ok {
		id = uuid.NewString()
		b = NewBrowser(id, r.connector.Connect(), r.notifier, r.validate)
		r.browsers[id] = b
		slog.Debug("browser session opened", "browser", id)
	}
	r.mu.Unlock()

	b.touch(r.now())
	b.Start(ctx)
	return b
}

// Get returns the browser for id without creating one.
func (r *Registry) Get(id string) (*Browser, bool) {
	r.mu.Lock()
	b, ok := r.browsers[id]
	r.mu.Unlock()
	if ok {
		b.touch(r.now())
	}
	return b, ok
}

// Remove closes and forgets the browser for id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	b, ok := r.browsers[id]
	delete(r.browsers, id)
	r.mu.Unlock()
	if ok {
		b.Close()
	}
}

// Len returns the number of open browsers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.browsers)
}

// Sweep closes browsers idle for longer than their ttl and returns how many
// were evicted.
func (r *Registry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	var idle []*Browser
	for id, b := range r.browsers {
		ttl := r.ttl
		if !b.Session().SignedIn() {
			ttl = r.anonTTL
		}
		if b.idleSince().Before(now.Add(-ttl)) {
			idle = append(idle, b)
			delete(r.browsers, id)
		}
	}
	r.mu.Unlock()

	for _, b := range idle {
		b.Close()
	}
	if len(idle) > 0 {
		slog.Info("evicted idle browser sessions", "count", len(idle))
	}
	return len(idle)
}

// Run sweeps every interval until ctx is done, then closes all browsers.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return
		case <-t.C:
			r.Sweep()
		}
	}
}

func (r *Registry) closeAll() {
	r.mu.Lock()
	all := r.browsers
	r.browsers = make(map[string]*Browser)
	r.mu.Unlock()

	for _, b := range all {
		b.Close()
	}
}
