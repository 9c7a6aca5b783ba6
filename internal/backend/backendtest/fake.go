// Package backendtest provides an in-memory backend for tests.
package backendtest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campusplug/campusplug/internal/backend"
	"github.com/campusplug/campusplug/internal/errs"
	"github.com/campusplug/campusplug/internal/model"
)

// GoodCode is the only OAuth callback code the fake accepts.
const GoodCode = "good-code"

// Fake is an in-memory backend.Client. Every browser that connects shares it.
type Fake struct {
	// OAuthUser is signed in when GoodCode is exchanged.
	OAuthUser model.User

	// Before, if set, runs before every call with the method name.
	Before func(method string)

	listeners backend.Listeners

	mu       sync.Mutex
	session  *backend.Session
	profiles map[string]model.Profile
	items    []model.Item
	requests []model.Request
	images   map[string][]byte
	calls    map[string]int
	fail     map[string]error
}

// New returns an empty fake.
func New() *Fake {
	return &Fake{
		OAuthUser: model.User{ID: "oauth-user", Email: "oauth@uni.example", FullName: "Oauth User"},
		profiles:  map[string]model.Profile{},
		images:    map[string][]byte{},
		calls:     map[string]int{},
		fail:      map[string]error{},
	}
}

// Connect returns the fake itself.
func (f *Fake) Connect() backend.Client { return f }

// FailOn makes method return err until cleared with a nil err.
func (f *Fake) FailOn(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, method)
		return
	}
	f.fail[method] = err
}

// Calls returns how many times method was called.
func (f *Fake) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// SetSession starts a session for user without notifying subscribers.
func (f *Fake) SetSession(user model.User) *backend.Session {
	s := &backend.Session{
		AccessToken: "token-" + user.ID,
		ExpiresAt:   time.Now().Add(time.Hour),
		User:        user,
	}
	f.mu.Lock()
	f.session = s
	f.mu.Unlock()
	return s
}

// SignInAs starts a session for user and notifies subscribers.
func (f *Fake) SignInAs(ctx context.Context, user model.User) *backend.Session {
	s := f.SetSession(user)
	f.listeners.Emit(ctx, backend.EventSignedIn, s)
	return s
}

// AddProfile stores a profile row.
func (f *Fake) AddProfile(p model.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[p.ID] = p
}

// Profile returns a stored profile row.
func (f *Fake) Profile(id string) (model.Profile, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	return p, ok
}

// AddItem stores an item row, filling in id, status and time if unset.
func (f *Fake) AddItem(it model.Item) model.Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if it.Status == "" {
		it.Status = model.ItemStatusAvailable
	}
	if it.CreatedAt.IsZero() {
		it.CreatedAt = time.Now()
	}
	f.items = append(f.items, it)
	return it
}

// Items returns every stored item row.
func (f *Fake) Items() []model.Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.items)
}

// Requests returns every stored request row.
func (f *Fake) Requests() []model.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.requests)
}

// call counts a call and returns its injected failure. Before runs first,
// outside the lock.
func (f *Fake) call(method string) error {
	if f.Before != nil {
		f.Before(method)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	return f.fail[method]
}

// actingAs must be called with f.mu held.
func (f *Fake) actingAs(userID string) error {
	if f.session == nil || f.session.User.ID != userID {
		return errs.ErrUnauthorized
	}
	return nil
}

func (f *Fake) SignInWithOAuth(provider backend.Provider, redirectTo string) (string, error) {
	if err := f.call("SignInWithOAuth"); err != nil {
		return "", err
	}
	q := url.Values{"provider": {string(provider)}, "redirect_to": {redirectTo}}
	return "https://auth.example/authorize?" + q.Encode(), nil
}

func (f *Fake) ExchangeCodeForSession(ctx context.Context, code string) (*backend.Session, error) {
	if err := f.call("ExchangeCodeForSession"); err != nil {
		return nil, err
	}
	if code != GoodCode {
		return nil, errors.New("invalid code")
	}
	return f.SignInAs(ctx, f.OAuthUser), nil
}

// SignInWithPassword accepts any username with the password "password".
func (f *Fake) SignInWithPassword(ctx context.Context, username, password string) (*backend.Session, error) {
	if err := f.call("SignInWithPassword"); err != nil {
		return nil, err
	}
	if password != "password" {
		return nil, errs.ErrUnauthorized
	}
	return f.SignInAs(ctx, model.User{ID: "user-" + username, Email: username, FullName: username}), nil
}

func (f *Fake) GetSession(context.Context) (*backend.Session, error) {
	if err := f.call("GetSession"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session, nil
}

func (f *Fake) SignOut(ctx context.Context) error {
	err := f.call("SignOut")
	f.mu.Lock()
	had := f.session != nil
	f.session = nil
	f.mu.Unlock()
	if had {
		f.listeners.Emit(ctx, backend.EventSignedOut, nil)
	}
	return err
}

func (f *Fake) OnAuthStateChange(fn backend.AuthChangeFunc) func() {
	return f.listeners.Add(fn)
}

// Subscribers returns the number of auth change subscribers.
func (f *Fake) Subscribers() int {
	return f.listeners.Len()
}

func (f *Fake) GetProfile(_ context.Context, userID string) (*model.Profile, error) {
	if err := f.call("GetProfile"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &p, nil
}

func (f *Fake) EnsureProfile(_ context.Context, user model.User) (*model.Profile, error) {
	if err := f.call("EnsureProfile"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.actingAs(user.ID); err != nil {
		return nil, err
	}
	p, ok := f.profiles[user.ID]
	if !ok {
		p = model.Profile{ID: user.ID, FullName: user.FullName, AvatarURL: user.AvatarURL, CreatedAt: time.Now()}
		f.profiles[user.ID] = p
	}
	return &p, nil
}

func (f *Fake) VerifyProfile(_ context.Context, userID string) error {
	if err := f.call("VerifyProfile"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.actingAs(userID); err != nil {
		return err
	}
	p, ok := f.profiles[userID]
	if !ok {
		return errs.ErrNotFound
	}
	p.IsVerified = true
	f.profiles[userID] = p
	return nil
}

func (f *Fake) ListAvailableItems(context.Context) ([]model.Item, error) {
	if err := f.call("ListAvailableItems"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Item
	for _, it := range slices.Backward(f.items) {
		if it.Status != model.ItemStatusAvailable {
			continue
		}
		if p, ok := f.profiles[it.OwnerID]; ok {
			it.Lender = &model.Lender{FullName: p.FullName, Department: p.Department}
		}
		out = append(out, it)
	}
	return out, nil
}

func (f *Fake) ListOwnedItems(_ context.Context, ownerID string) ([]model.Item, error) {
	if err := f.call("ListOwnedItems"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Item
	for _, it := range slices.Backward(f.items) {
		if it.OwnerID == ownerID && it.Status != model.ItemStatusDelisted {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *Fake) CreateItem(_ context.Context, in model.NewItem) (*model.Item, error) {
	if err := f.call("CreateItem"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.actingAs(in.OwnerID); err != nil {
		return nil, err
	}
	it := model.Item{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		ImageURL:    in.ImageURL,
		Status:      in.Status,
		OwnerID:     in.OwnerID,
		Views:       in.Views,
		CreatedAt:   time.Now(),
	}
	f.items = append(f.items, it)
	return &it, nil
}

func (f *Fake) DelistItem(_ context.Context, ownerID, itemID string) error {
	if err := f.call("DelistItem"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.actingAs(ownerID); err != nil {
		return err
	}
	for i, it := range f.items {
		if it.ID == itemID && it.OwnerID == ownerID {
			f.items[i].Status = model.ItemStatusDelisted
			return nil
		}
	}
	return errs.ErrNotOwner
}

func (f *Fake) CreateRequest(_ context.Context, itemID, borrowerID string) (*model.Request, error) {
	if err := f.call("CreateRequest"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.actingAs(borrowerID); err != nil {
		return nil, err
	}
	r := model.Request{
		ID:         uuid.NewString(),
		ItemID:     itemID,
		BorrowerID: borrowerID,
		Status:     model.RequestStatusPending,
		CreatedAt:  time.Now(),
	}
	f.requests = append(f.requests, r)
	return &r, nil
}

func (f *Fake) UploadImage(_ context.Context, ownerID string, data []byte, mime string) (string, error) {
	if err := f.call("UploadImage"); err != nil {
		return "", err
	}
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("unexpected content type %q", mime)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.actingAs(ownerID); err != nil {
		return "", err
	}
	id := uuid.NewString()
	f.images[id] = data
	return "https://storage.example/" + ownerID + "/" + id + ".jpg", nil
}

var (
	_ backend.Client       = (*Fake)(nil)
	_ backend.PasswordAuth = (*Fake)(nil)
	_ backend.ImageStore   = (*Fake)(nil)
	_ backend.Connector    = (*Fake)(nil)
)
