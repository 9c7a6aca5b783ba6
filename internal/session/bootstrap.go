package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/campusplug/campusplug/internal/backend"
	"github.com/campusplug/campusplug/internal/errs"
	"github.com/campusplug/campusplug/internal/model"
)

// Bootstrap resolves the session and profile on start and follows auth
// changes until stopped.
type Bootstrap struct {
	client backend.Client
	held   Context

	// resolving collapses concurrent profile resolution for one user.
	resolving singleflight.Group

	mu          sync.Mutex
	unsubscribe func()
}

// New returns a bootstrap for client. Call Start before reading the context.
func New(client backend.Client) *Bootstrap {
	return &Bootstrap{client: client}
}

// Context returns the held user and profile.
func (b *Bootstrap) Context() *Context {
	return &b.held
}

// Start subscribes to auth changes, then loads the current session and
// resolves its profile. It returns once the session state is known.
// Starting twice is a no-op.
func (b *Bootstrap) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.unsubscribe != nil {
		b.mu.Unlock()
		return nil
	}
	b.unsubscribe = b.client.OnAuthStateChange(b.handleAuthChange)
	b.mu.Unlock()

	s, err := b.client.GetSession(ctx)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	if s == nil {
		b.held.clear()
		return nil
	}

	b.held.setUser(s.User)
	b.resolveProfile(ctx, s.User)
	return nil
}

// Stop ends the auth change subscription.
func (b *Bootstrap) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
}

func (b *Bootstrap) handleAuthChange(ctx context.Context, event backend.Event, s *backend.Session) {
	if event == backend.EventSignedOut || s == nil {
		slog.Debug("session cleared", "event", event)
		b.held.clear()
		return
	}

	b.held.setUser(s.User)
	b.resolveProfile(ctx, s.User)
}

// resolveProfile fetches the user's profile, creating it when missing.
// Failures are logged and leave the profile unset.
func (b *Bootstrap) resolveProfile(ctx context.Context, user model.User) {
	v, err, _ := b.resolving.Do(user.ID, func() (any, error) {
		p, err := b.client.GetProfile(ctx, user.ID)
		if errors.Is(err, errs.ErrNotFound) {
			slog.Info("creating profile", "user", user.ID)
			p, err = b.client.EnsureProfile(ctx, user)
		}
		return p, err
	})
	if err != nil {
		slog.Error("resolving profile", "user", user.ID, "error", err)
		return
	}

	if !b.held.setProfile(*v.(*model.Profile)) {
		slog.Debug("discarding profile for stale user", "user", user.ID)
	}
}

// Verify marks the held profile verified. Verifying an already verified
// profile succeeds. Without a profile it does nothing.
func (b *Bootstrap) Verify(ctx context.Context) error {
	p := b.held.Profile()
	if p == nil {
		return nil
	}
	if err := b.client.VerifyProfile(ctx, p.ID); err != nil {
		return fmt.Errorf("verifying profile: %w", err)
	}
	b.held.markVerified(p.ID)
	return nil
}
