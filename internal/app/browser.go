// Package app holds the per-browser state of the marketplace: the feed, the
// gear hub and the navigation shell over one backend connection.
package app

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/campusplug/campusplug/internal/backend"
	"github.com/campusplug/campusplug/internal/notify"
	"github.com/campusplug/campusplug/internal/session"
	"github.com/campusplug/campusplug/internal/validation"
)

// Browser is one browser session: its backend connection, held identity
// and views.
type Browser struct {
	ID     string
	Client backend.Client
	Boot   *session.Bootstrap
	Shell  *Shell
	Feed   *Feed
	Hub    *Hub
	Toasts *Toasts

	startOnce sync.Once
	lastSeen  atomic.Int64
}

// NewBrowser wires the views of one browser session over client.
func NewBrowser(id string, client backend.Client, notifier notify.Notifier, v *validation.Validator) *Browser {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	if v == nil {
		v = validation.New()
	}

	boot := session.New(client)
	toasts := &Toasts{}
	g := &guard{}

	b := &Browser{
		ID:     id,
		Client: client,
		Boot:   boot,
		Toasts: toasts,
		Shell:  &Shell{client: client, boot: boot, toasts: toasts, guard: g},
		Feed: &Feed{
			store:    client,
			session:  boot.Context(),
			toasts:   toasts,
			notifier: notifier,
			guard:    g,
		},
		Hub: &Hub{
			client:   client,
			session:  boot.Context(),
			toasts:   toasts,
			validate: v,
			guard:    g,
			draft:    newDraft(),
		},
	}
	b.touch(time.Now())
	return b
}

// Session returns the held user and profile.
func (b *Browser) Session() *session.Context {
	return b.Boot.Context()
}

// Start runs the session bootstrap once. Later calls return immediately
// after the first has finished. A failed bootstrap is logged and leaves
// the browser signed out.
func (b *Browser) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		if err := b.Boot.Start(ctx); err != nil {
			slog.Error("bootstrapping session", "browser", b.ID, "error", err)
		}
	})
}

// Close ends the browser's auth subscription.
func (b *Browser) Close() {
	b.Boot.Stop()
}

func (b *Browser) touch(now time.Time) {
	b.lastSeen.Store(now.UnixNano())
}

func (b *Browser) idleSince() time.Time {
	return time.Unix(0, b.lastSeen.Load())
}
