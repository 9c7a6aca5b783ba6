// Package local implements the backend on a local SQLite database, standing in
// for the hosted service during development and in tests.
package local

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/campusplug/campusplug/internal/auth"
	"github.com/campusplug/campusplug/internal/backend"
	"github.com/campusplug/campusplug/internal/errs"
	"github.com/campusplug/campusplug/internal/model"
	"github.com/campusplug/campusplug/internal/store"
)

// ImagePathPrefix is where uploaded photos are served.
const ImagePathPrefix = "/images/"

// Backend is the process-wide local backend.
type Backend struct {
	DB     *sql.DB
	secret string
}

// New returns a local backend over db, loading or creating its token secret.
func New(ctx context.Context, db *sql.DB) (*Backend, error) {
	secret, err := store.TokenSecret(ctx, db)
	if err != nil {
		return nil, err
	}
	if n, err := store.PurgeRevoked(ctx, db, time.Now()); err != nil {
		slog.Warn("failed to purge revoked sessions", "error", err)
	} else if n > 0 {
		slog.Info("purged revoked sessions", "count", n)
	}
	return &Backend{DB: db, secret: secret}, nil
}

// Connect returns a client for one browser session.
func (b *Backend) Connect() backend.Client {
	return &Client{b: b}
}

// CreateAccount registers a local account with a bcrypt-hashed password.
func (b *Backend) CreateAccount(ctx context.Context, username, password, fullName string) (*model.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	return store.CreateAccount(ctx, b.DB, username, string(hash), fullName)
}

// Image returns an uploaded photo.
func (b *Backend) Image(ctx context.Context, id string) ([]byte, string, error) {
	return store.GetImage(ctx, b.DB, id)
}

// Client is one browser session's view of the local backend.
type Client struct {
	b         *Backend
	listeners backend.Listeners

	mu      sync.Mutex
	session *backend.Session
	claims  *auth.Claims
}

// SignInWithOAuth reports that OAuth providers are unavailable locally.
func (c *Client) SignInWithOAuth(provider backend.Provider, _ string) (string, error) {
	return "", fmt.Errorf("%w: %s", errs.ErrProviderUnavailable, provider)
}

// ExchangeCodeForSession reports that OAuth providers are unavailable locally.
func (c *Client) ExchangeCodeForSession(context.Context, string) (*backend.Session, error) {
	return nil, errs.ErrProviderUnavailable
}

// SignInWithPassword checks a local account's password and starts a session.
func (c *Client) SignInWithPassword(ctx context.Context, username, password string) (*backend.Session, error) {
	acc, err := store.GetAccountByUsername(ctx, c.b.DB, username)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return nil, errs.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		slog.Warn("local sign-in failed", "username", username)
		return nil, errs.ErrUnauthorized
	}

	token, claims, err := auth.GenerateToken(c.b.secret, acc.ID, acc.Username, acc.FullName)
	if err != nil {
		return nil, err
	}

	s := &backend.Session{
		AccessToken: token,
		ExpiresAt:   claims.ExpiresAt.Time,
		User: model.User{
			ID:        acc.ID,
			Email:     acc.Username,
			FullName:  acc.FullName,
			CreatedAt: acc.CreatedAt,
		},
	}

	c.mu.Lock()
	c.session, c.claims = s, claims
	c.mu.Unlock()

	c.listeners.Emit(ctx, backend.EventSignedIn, s)
	return s, nil
}

// GetSession returns the current session after checking its token is still
// valid and not revoked. An invalid session is cleared and reported as signed out.
func (c *Client) GetSession(ctx context.Context) (*backend.Session, error) {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()
	if s == nil {
		return nil, nil
	}

	claims, err := auth.ValidateToken(c.b.secret, s.AccessToken)
	if err == nil {
		var revoked bool
		revoked, err = store.SessionRevoked(ctx, c.b.DB, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			err = errs.ErrUnauthorized
		}
	}
	if err != nil {
		slog.Info("local session ended", "user", s.User.ID, "reason", err)
		c.clear(ctx)
		return nil, nil
	}

	return s, nil
}

// SignOut revokes the session token and clears the session.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	claims := c.claims
	c.mu.Unlock()

	var err error
	if claims != nil {
		err = store.RevokeSession(ctx, c.b.DB, claims.ID, claims.ExpiresAt.Time)
	}
	c.clear(ctx)
	return err
}

// OnAuthStateChange registers fn for auth changes.
func (c *Client) OnAuthStateChange(fn backend.AuthChangeFunc) func() {
	return c.listeners.Add(fn)
}

func (c *Client) clear(ctx context.Context) {
	c.mu.Lock()
	had := c.session != nil
	c.session, c.claims = nil, nil
	c.mu.Unlock()

	if had {
		c.listeners.Emit(ctx, backend.EventSignedOut, nil)
	}
}

// actingAs fails unless the session belongs to userID. It stands in for
// the hosted service's row-level security.
func (c *Client) actingAs(userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || c.session.User.ID != userID {
		return errs.ErrUnauthorized
	}
	return nil
}

// GetProfile returns the user's profile or errs.ErrNotFound.
func (c *Client) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	return store.GetProfile(ctx, c.b.DB, userID)
}

// EnsureProfile creates the user's profile if absent.
func (c *Client) EnsureProfile(ctx context.Context, user model.User) (*model.Profile, error) {
	if err := c.actingAs(user.ID); err != nil {
		return nil, err
	}
	return store.EnsureProfile(ctx, c.b.DB, user.ID, user.FullName)
}

// VerifyProfile marks the user's profile verified.
func (c *Client) VerifyProfile(ctx context.Context, userID string) error {
	if err := c.actingAs(userID); err != nil {
		return err
	}
	return store.VerifyProfile(ctx, c.b.DB, userID)
}

// ListAvailableItems lists the feed.
func (c *Client) ListAvailableItems(ctx context.Context) ([]model.Item, error) {
	return store.ListAvailableItems(ctx, c.b.DB)
}

// ListOwnedItems lists an owner's non-delisted items.
func (c *Client) ListOwnedItems(ctx context.Context, ownerID string) ([]model.Item, error) {
	return store.ListOwnedItems(ctx, c.b.DB, ownerID)
}

// CreateItem publishes a listing owned by the signed-in user.
func (c *Client) CreateItem(ctx context.Context, item model.NewItem) (*model.Item, error) {
	if err := c.actingAs(item.OwnerID); err != nil {
		return nil, err
	}
	return store.CreateItem(ctx, c.b.DB, item)
}

// DelistItem soft-deletes one of the signed-in user's items.
func (c *Client) DelistItem(ctx context.Context, ownerID, itemID string) error {
	if err := c.actingAs(ownerID); err != nil {
		return err
	}
	return store.DelistItem(ctx, c.b.DB, ownerID, itemID)
}

// CreateRequest records a pending borrow request from the signed-in user.
func (c *Client) CreateRequest(ctx context.Context, itemID, borrowerID string) (*model.Request, error) {
	if err := c.actingAs(borrowerID); err != nil {
		return nil, err
	}
	item, err := store.GetItem(ctx, c.b.DB, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID == borrowerID {
		return nil, errs.ErrOwnItem
	}
	return store.CreateRequest(ctx, c.b.DB, itemID, borrowerID)
}

// UploadImage stores a processed photo and returns its local URL.
func (c *Client) UploadImage(ctx context.Context, ownerID string, data []byte, mime string) (string, error) {
	if err := c.actingAs(ownerID); err != nil {
		return "", err
	}
	id, err := store.SaveImage(ctx, c.b.DB, ownerID, data, mime)
	if err != nil {
		return "", err
	}
	return ImagePathPrefix + id, nil
}

var (
	_ backend.Client       = (*Client)(nil)
	_ backend.PasswordAuth = (*Client)(nil)
	_ backend.ImageStore   = (*Client)(nil)
	_ backend.Connector    = (*Backend)(nil)
)
