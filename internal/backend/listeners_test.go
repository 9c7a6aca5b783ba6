package backend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestListenersEmitInOrder(t *testing.T) {
	var l Listeners
	var got []string

	l.Add(func(_ context.Context, e Event, _ *Session) { got = append(got, "a:"+string(e)) })
	unsub := l.Add(func(_ context.Context, e Event, _ *Session) { got = append(got, "b:"+string(e)) })
	l.Add(func(_ context.Context, e Event, _ *Session) { got = append(got, "c:"+string(e)) })

	l.Emit(context.Background(), EventSignedIn, &Session{})
	assert.Equal(t, []string{"a:SIGNED_IN", "b:SIGNED_IN", "c:SIGNED_IN"}, got)

	unsub()
	unsub()
	got = nil
	l.Emit(context.Background(), EventSignedOut, nil)
	assert.Equal(t, []string{"a:SIGNED_OUT", "c:SIGNED_OUT"}, got)
	assert.Equal(t, 2, l.Len())
}

func TestListenersCallbackMayUnsubscribe(t *testing.T) {
	var l Listeners
	var unsub func()
	calls := 0
	unsub = l.Add(func(context.Context, Event, *Session) {
		calls++
		unsub()
	})

	l.Emit(context.Background(), EventSignedIn, nil)
	l.Emit(context.Background(), EventSignedIn, nil)
	assert.Equal(t, 1, calls)
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	s := &Session{ExpiresAt: now.Add(20 * time.Second)}

	assert.False(t, s.Expired(now, 0))
	assert.True(t, s.Expired(now, 30*time.Second))
	assert.False(t, (&Session{}).Expired(now, time.Hour), "zero expiry never expires")
}
