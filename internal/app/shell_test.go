package app

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusplug/campusplug/internal/backend"
	"github.com/campusplug/campusplug/internal/backend/backendtest"
	"github.com/campusplug/campusplug/internal/model"
)

func TestShellDefaultsToBrowse(t *testing.T) {
	b, _, _ := newBrowser(t, &ana)
	assert.Equal(t, model.ViewBrowse, b.Shell.View())

	b.Shell.SetView(model.ViewProfile)
	assert.Equal(t, model.ViewProfile, b.Shell.View())
}

func TestVerifyBanner(t *testing.T) {
	b, f, _ := newBrowser(t, &ana)
	assert.True(t, b.Shell.ShowVerifyBanner())

	require.NoError(t, b.Shell.Verify(context.Background()))
	require.NoError(t, b.Shell.Verify(context.Background()))
	assert.False(t, b.Shell.ShowVerifyBanner())

	p, _ := f.Profile(ana.ID)
	assert.True(t, p.IsVerified)
	assert.Equal(t, []Toast{
		{Kind: ToastSuccess, Message: "Student ID Verified!"},
		{Kind: ToastSuccess, Message: "Student ID Verified!"},
	}, b.Toasts.Drain())
}

func TestVerifyFailure(t *testing.T) {
	b, f, _ := newBrowser(t, &ana)
	f.FailOn("VerifyProfile", errors.New("denied"))

	assert.Error(t, b.Shell.Verify(context.Background()))
	assert.True(t, b.Shell.ShowVerifyBanner())
	assert.Equal(t, []Toast{{Kind: ToastError, Message: "Verification failed"}}, b.Toasts.Drain())
}

func TestNoBannerWhenSignedOut(t *testing.T) {
	b, f, _ := newBrowser(t, nil)
	assert.False(t, b.Shell.ShowVerifyBanner())
	assert.NoError(t, b.Shell.Verify(context.Background()))
	assert.Zero(t, f.Calls("VerifyProfile"))
}

func TestSignInFlow(t *testing.T) {
	b, f, _ := newBrowser(t, nil)
	ctx := context.Background()

	raw, err := b.Shell.SignIn(backend.ProviderGoogle, "http://localhost/auth/callback")
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "google", u.Query().Get("provider"))

	require.Error(t, b.Shell.CompleteSignIn(ctx, "bad"))
	toasts := b.Toasts.Drain()
	require.Len(t, toasts, 1)
	assert.Equal(t, "Login failed: invalid code", toasts[0].Message)

	require.NoError(t, b.Shell.CompleteSignIn(ctx, backendtest.GoodCode))
	assert.Equal(t, f.OAuthUser.ID, b.Session().UserID())
	require.NotNil(t, b.Session().Profile(), "profile is created on sign-in")
}

func TestSignInProviderError(t *testing.T) {
	b, f, _ := newBrowser(t, nil)
	f.FailOn("SignInWithOAuth", errors.New("provider is not enabled"))

	_, err := b.Shell.SignIn(backend.ProviderMicrosoft, "http://localhost")
	assert.Error(t, err)
	assert.Equal(t, []Toast{{Kind: ToastError, Message: "Login failed: provider is not enabled"}}, b.Toasts.Drain())
}

func TestPasswordSignIn(t *testing.T) {
	b, _, _ := newBrowser(t, nil)
	require.True(t, b.Shell.PasswordSignIn())

	assert.Error(t, b.Shell.SignInWithPassword(context.Background(), "ana", "nope"))
	assert.Equal(t, []Toast{{Kind: ToastError, Message: "Login failed: invalid credentials"}}, b.Toasts.Drain())

	require.NoError(t, b.Shell.SignInWithPassword(context.Background(), "ana", "password"))
	assert.True(t, b.Session().SignedIn())
}

func TestSignOutClearsIdentity(t *testing.T) {
	b, _, _ := newBrowser(t, &ana)
	b.Shell.SetView(model.ViewDashboard)

	require.NoError(t, b.Shell.SignOut(context.Background()))
	assert.False(t, b.Session().SignedIn())
	assert.Nil(t, b.Session().Profile())
	assert.Equal(t, model.ViewBrowse, b.Shell.View())
}

func TestIdentityHelpers(t *testing.T) {
	b, f, _ := newBrowser(t, nil)
	assert.Equal(t, "Aura User", b.Shell.DisplayName())
	assert.Equal(t, "Unverified Department", b.Shell.Department())
	assert.Equal(t, "U", b.Shell.Initials())

	created := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	f.AddProfile(model.Profile{ID: "zo", FullName: "Žana Kos", Department: "Physics", AvatarURL: "https://a/z.png"})
	f.SignInAs(context.Background(), model.User{ID: "zo", CreatedAt: created})

	assert.Equal(t, "Žana Kos", b.Shell.DisplayName())
	assert.Equal(t, "Physics", b.Shell.Department())
	assert.Equal(t, "ŽA", b.Shell.Initials())
	assert.Equal(t, "https://a/z.png", b.Shell.AvatarURL())
	assert.Equal(t, created, b.Shell.MemberSince())
}
