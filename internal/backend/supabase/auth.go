package supabase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/campusplug/campusplug/internal/auth"
	"github.com/campusplug/campusplug/internal/backend"
	"github.com/campusplug/campusplug/internal/errs"
	"github.com/campusplug/campusplug/internal/model"
)

// refreshLeeway is how long before expiry the access token is refreshed.
const refreshLeeway = 30 * time.Second

// providerNames maps sign-in providers to the service's provider ids.
var providerNames = map[backend.Provider]string{
	backend.ProviderGoogle:    "google",
	backend.ProviderMicrosoft: "azure",
}

// Conn is one browser session's connection to the hosted service.
type Conn struct {
	c         *Client
	listeners backend.Listeners
	refresh   singleflight.Group

	mu       sync.Mutex
	session  *backend.Session
	lifetime time.Duration
	verifier string
}

// SignInWithOAuth starts a PKCE flow and returns the authorize URL.
func (c *Conn) SignInWithOAuth(provider backend.Provider, redirectTo string) (string, error) {
	name, ok := providerNames[provider]
	if !ok {
		return "", fmt.Errorf("%w: %s", errs.ErrProviderUnavailable, provider)
	}

	verifier, err := auth.NewCodeVerifier()
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.verifier = verifier
	c.mu.Unlock()

	q := url.Values{}
	q.Set("provider", name)
	q.Set("redirect_to", redirectTo)
	q.Set("code_challenge", auth.CodeChallenge(verifier))
	q.Set("code_challenge_method", "s256")
	if name == "azure" {
		q.Set("scopes", "email")
	}
	return c.c.baseURL + "/auth/v1/authorize?" + q.Encode(), nil
}

// ExchangeCodeForSession trades the callback code for a session.
func (c *Conn) ExchangeCodeForSession(ctx context.Context, code string) (*backend.Session, error) {
	c.mu.Lock()
	verifier := c.verifier
	c.verifier = ""
	c.mu.Unlock()
	if verifier == "" {
		return nil, errors.New("no sign-in in progress")
	}

	var tr tokenResponse
	err := c.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"pkce"}},
		body:   map[string]string{"auth_code": code, "code_verifier": verifier},
	}, &tr)
	if err != nil {
		return nil, err
	}

	s, err := c.c.sessionFrom(&tr)
	if err != nil {
		return nil, err
	}
	c.set(s)
	c.listeners.Emit(ctx, backend.EventSignedIn, s)
	return s, nil
}

// GetSession returns the current session, refreshing it when the access
// token is about to expire. A rejected refresh ends the session.
func (c *Conn) GetSession(ctx context.Context) (*backend.Session, error) {
	c.mu.Lock()
	s, leeway := c.session, c.leeway()
	c.mu.Unlock()
	if s == nil || !s.Expired(c.c.now(), leeway) {
		return s, nil
	}

	// Listeners run after Do returns; they may call back into GetSession.
	var refreshed bool
	v, err, _ := c.refresh.Do("refresh", func() (any, error) {
		next, fresh, err := c.refreshSession(ctx, s)
		refreshed = fresh
		return next, err
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			slog.Info("session refresh rejected", "user", s.User.ID, "error", err)
			c.clear(ctx)
			return nil, nil
		}
		return nil, err
	}
	s, _ = v.(*backend.Session)
	if refreshed && s != nil {
		c.listeners.Emit(ctx, backend.EventTokenRefreshed, s)
	}
	return s, nil
}

// leeway is refreshLeeway, shortened to half the token lifetime for
// short-lived tokens so a fresh token is never due at once. c.mu must be held.
func (c *Conn) leeway() time.Duration {
	if c.lifetime > 0 {
		return min(refreshLeeway, c.lifetime/2)
	}
	return refreshLeeway
}

func (c *Conn) refreshSession(ctx context.Context, old *backend.Session) (*backend.Session, bool, error) {
	// Another caller may have refreshed already.
	c.mu.Lock()
	cur := c.session
	c.mu.Unlock()
	if cur != old {
		return cur, false, nil
	}
	if old.RefreshToken == "" {
		return nil, false, &APIError{Status: http.StatusUnauthorized, Message: "session expired"}
	}

	var tr tokenResponse
	err := c.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": old.RefreshToken},
	}, &tr)
	if err != nil {
		return nil, false, err
	}

	s, err := c.c.sessionFrom(&tr)
	if err != nil {
		return nil, false, err
	}
	c.set(s)
	return s, true, nil
}

// SignOut revokes the session with the service and clears it locally.
func (c *Conn) SignOut(ctx context.Context) error {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()

	var err error
	if s != nil {
		err = c.c.do(ctx, request{
			method: http.MethodPost,
			path:   "/auth/v1/logout",
			token:  s.AccessToken,
		}, nil)
	}
	c.clear(ctx)
	return err
}

// OnAuthStateChange registers fn for auth changes.
func (c *Conn) OnAuthStateChange(fn backend.AuthChangeFunc) func() {
	return c.listeners.Add(fn)
}

// accessToken returns the bearer for table calls: the user's access token
// when signed in, the API key otherwise.
func (c *Conn) accessToken(ctx context.Context) (string, error) {
	s, err := c.GetSession(ctx)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", nil
	}
	return s.AccessToken, nil
}

func (c *Conn) set(s *backend.Session) {
	c.mu.Lock()
	c.session = s
	c.lifetime = 0
	if !s.ExpiresAt.IsZero() {
		c.lifetime = s.ExpiresAt.Sub(c.c.now())
	}
	c.mu.Unlock()
}

func (c *Conn) clear(ctx context.Context) {
	c.mu.Lock()
	had := c.session != nil
	c.session = nil
	c.mu.Unlock()

	if had {
		c.listeners.Emit(ctx, backend.EventSignedOut, nil)
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID           string    `json:"id"`
		Email        string    `json:"email"`
		CreatedAt    time.Time `json:"created_at"`
		UserMetadata struct {
			FullName  string `json:"full_name"`
			Name      string `json:"name"`
			AvatarURL string `json:"avatar_url"`
			Picture   string `json:"picture"`
		} `json:"user_metadata"`
	} `json:"user"`
}

// sessionFrom builds a session from a token response. The access token is
// verified when a signing secret is configured.
func (c *Client) sessionFrom(tr *tokenResponse) (*backend.Session, error) {
	if tr.AccessToken == "" {
		return nil, errors.New("token response has no access token")
	}
	claims, err := auth.ParseAccessToken(c.jwtSecret, tr.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}

	md := tr.User.UserMetadata
	user := model.User{
		ID:        tr.User.ID,
		Email:     tr.User.Email,
		FullName:  firstNonEmpty(md.FullName, md.Name, claims.UserMetadata.FullName),
		AvatarURL: firstNonEmpty(md.AvatarURL, md.Picture, claims.UserMetadata.AvatarURL),
		CreatedAt: tr.User.CreatedAt,
	}
	if user.ID == "" {
		user.ID = claims.Subject
	}
	if user.Email == "" {
		user.Email = claims.Email
	}
	if user.ID == "" {
		return nil, errors.New("token response has no user")
	}

	s := &backend.Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		User:         user,
	}
	// expires_in is relative, so it is immune to clock skew.
	switch {
	case tr.ExpiresIn > 0:
		s.ExpiresAt = c.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	case tr.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(tr.ExpiresAt, 0)
	case claims.ExpiresAt != nil:
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
