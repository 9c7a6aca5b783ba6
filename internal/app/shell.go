package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/campusplug/campusplug/internal/backend"
	"github.com/campusplug/campusplug/internal/errs"
	"github.com/campusplug/campusplug/internal/model"
	"github.com/campusplug/campusplug/internal/session"
)

// Identity placeholders for profiles without a name or department.
const (
	fallbackName       = "Aura User"
	fallbackDepartment = "Unverified Department"
	fallbackInitials   = "U"
)

// Shell is the navigation frame: the current view, the signed-in identity
// and the verification banner.
type Shell struct {
	client backend.Client
	boot   *session.Bootstrap
	toasts *Toasts
	guard  *guard

	mu   sync.RWMutex
	view model.View
}

// View returns the current view.
func (s *Shell) View() model.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.view == "" {
		return model.ViewBrowse
	}
	return s.view
}

// SetView switches the current view.
func (s *Shell) SetView(v model.View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = v
}

// ShowVerifyBanner reports whether a resolved profile is unverified.
func (s *Shell) ShowVerifyBanner() bool {
	p := s.boot.Context().Profile()
	return p != nil && !p.IsVerified
}

// Verify marks the profile verified.
func (s *Shell) Verify(ctx context.Context) error {
	if s.boot.Context().Profile() == nil {
		return nil
	}
	return s.guard.do("verify", func() error {
		if err := s.boot.Verify(ctx); err != nil {
			slog.Error("verifying profile", "user", s.boot.Context().UserID(), "error", err)
			s.toasts.Error("Verification failed")
			return err
		}
		s.toasts.Success("Student ID Verified!")
		return nil
	})
}

// SignIn starts an OAuth sign-in and returns the URL to redirect to.
func (s *Shell) SignIn(provider backend.Provider, redirectTo string) (string, error) {
	u, err := s.client.SignInWithOAuth(provider, redirectTo)
	if err != nil {
		s.loginFailed(err)
		return "", err
	}
	return u, nil
}

// CompleteSignIn finishes an OAuth sign-in with the callback code.
func (s *Shell) CompleteSignIn(ctx context.Context, code string) error {
	if _, err := s.client.ExchangeCodeForSession(ctx, code); err != nil {
		s.loginFailed(err)
		return err
	}
	return nil
}

// SignInWithPassword signs in to a backend with local accounts.
func (s *Shell) SignInWithPassword(ctx context.Context, username, password string) error {
	pa, ok := s.client.(backend.PasswordAuth)
	if !ok {
		s.loginFailed(errs.ErrProviderUnavailable)
		return errs.ErrProviderUnavailable
	}
	if _, err := pa.SignInWithPassword(ctx, username, password); err != nil {
		s.loginFailed(err)
		return err
	}
	return nil
}

// PasswordSignIn reports whether the backend has local accounts.
func (s *Shell) PasswordSignIn() bool {
	_, ok := s.client.(backend.PasswordAuth)
	return ok
}

func (s *Shell) loginFailed(err error) {
	slog.Warn("sign-in failed", "error", err)
	msg := err.Error()
	if errors.Is(err, errs.ErrUnauthorized) {
		msg = "invalid credentials"
	}
	s.toasts.Error("Login failed: " + msg)
}

// SignOut ends the session and returns to the browse view. The held user
// is cleared even when the backend call fails.
func (s *Shell) SignOut(ctx context.Context) error {
	err := s.client.SignOut(ctx)
	if err != nil {
		slog.Warn("sign-out failed", "error", err)
	}
	s.SetView(model.ViewBrowse)
	return err
}

// DisplayName returns the profile name or a placeholder.
func (s *Shell) DisplayName() string {
	if p := s.boot.Context().Profile(); p != nil && p.FullName != "" {
		return p.FullName
	}
	return fallbackName
}

// Department returns the profile department or a placeholder.
func (s *Shell) Department() string {
	if p := s.boot.Context().Profile(); p != nil && p.Department != "" {
		return p.Department
	}
	return fallbackDepartment
}

// Initials returns the first two letters of the profile name, upper-cased.
func (s *Shell) Initials() string {
	p := s.boot.Context().Profile()
	if p == nil || p.FullName == "" {
		return fallbackInitials
	}
	r := []rune(p.FullName)
	return strings.ToUpper(string(r[:min(2, len(r))]))
}

// AvatarURL returns the profile avatar, or "".
func (s *Shell) AvatarURL() string {
	if p := s.boot.Context().Profile(); p != nil {
		return p.AvatarURL
	}
	return ""
}

// MemberSince returns when the signed-in account was created.
func (s *Shell) MemberSince() time.Time {
	if u := s.boot.Context().User(); u != nil {
		return u.CreatedAt
	}
	return time.Time{}
}
