package app

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campusplug/campusplug/internal/backend/backendtest"
	"github.com/campusplug/campusplug/internal/model"
)

var (
	ana = model.User{ID: "ana", Email: "ana@uni.example", FullName: "Ana Novak"}
	bo  = model.User{ID: "bo", Email: "bo@uni.example", FullName: "Bo Lee"}
)

type sentEmail struct{ owner, item string }

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentEmail
}

func (n *recordingNotifier) SendBorrowEmail(_ context.Context, owner, item string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentEmail{owner, item})
	return nil
}

func (n *recordingNotifier) Sent() []sentEmail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentEmail(nil), n.sent...)
}

// newBrowser returns a started browser over a fake backend, signed in as
// user unless user is nil.
func newBrowser(t *testing.T, user *model.User) (*Browser, *backendtest.Fake, *recordingNotifier) {
	t.Helper()
	f := backendtest.New()
	f.AddProfile(model.Profile{ID: bo.ID, FullName: bo.FullName, Department: "Chemistry"})
	if user != nil {
		f.SetSession(*user)
	}

	n := &recordingNotifier{}
	b := NewBrowser("test", f, n, nil)
	b.Start(context.Background())
	t.Cleanup(b.Close)
	if user != nil {
		require.True(t, b.Session().SignedIn())
	}
	return b, f, n
}
