// Package backend defines the hosted-service surface the marketplace runs on:
// authentication and the profiles, items and requests tables.
package backend

import (
	"context"
	"time"

	"github.com/campusplug/campusplug/internal/model"
)

// Provider names an OAuth sign-in provider.
type Provider string

// Providers offered on the sign-in screen.
const (
	ProviderGoogle    Provider = "google"
	ProviderMicrosoft Provider = "microsoft"
)

// Session is an authenticated backend session.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         model.User
}

// Expired reports whether the access token expires within leeway of now.
func (s *Session) Expired(now time.Time, leeway time.Duration) bool {
	return !s.ExpiresAt.IsZero() && now.Add(leeway).After(s.ExpiresAt)
}

// Event is an auth state change.
type Event string

// Auth events.
const (
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
)

// AuthChangeFunc receives auth state changes. session is nil on sign-out.
type AuthChangeFunc func(ctx context.Context, event Event, session *Session)

// Auth is the authentication half of a client.
type Auth interface {
	// SignInWithOAuth starts an OAuth flow and returns the URL to send the browser to.
	SignInWithOAuth(provider Provider, redirectTo string) (string, error)
	// ExchangeCodeForSession completes an OAuth flow.
	ExchangeCodeForSession(ctx context.Context, code string) (*Session, error)
	// GetSession returns the current session, or nil when signed out.
	GetSession(ctx context.Context) (*Session, error)
	// SignOut ends the session. Local state is cleared even when it fails.
	SignOut(ctx context.Context) error
	// OnAuthStateChange registers fn and returns its unsubscribe func.
	OnAuthStateChange(fn AuthChangeFunc) (unsubscribe func())
}

// PasswordAuth is implemented by backends with username/password accounts.
type PasswordAuth interface {
	SignInWithPassword(ctx context.Context, username, password string) (*Session, error)
}

// Store is the table surface used by the views. Calls run as the signed-in user.
type Store interface {
	// GetProfile returns errs.ErrNotFound when no profile row exists.
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	// EnsureProfile creates an unverified profile if absent, atomically.
	EnsureProfile(ctx context.Context, user model.User) (*model.Profile, error)
	VerifyProfile(ctx context.Context, userID string) error

	ListAvailableItems(ctx context.Context) ([]model.Item, error)
	ListOwnedItems(ctx context.Context, ownerID string) ([]model.Item, error)
	CreateItem(ctx context.Context, item model.NewItem) (*model.Item, error)
	DelistItem(ctx context.Context, ownerID, itemID string) error

	CreateRequest(ctx context.Context, itemID, borrowerID string) (*model.Request, error)
}

// ImageStore is implemented by backends that host uploaded photos.
type ImageStore interface {
	// UploadImage stores a photo and returns a URL usable as an image reference.
	UploadImage(ctx context.Context, ownerID string, data []byte, mime string) (string, error)
}

// Client is one browser session's handle on the backend.
type Client interface {
	Auth
	Store
}

// Connector is the process-wide backend. Each browser session connects once.
type Connector interface {
	Connect() Client
}
