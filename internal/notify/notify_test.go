package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu    sync.Mutex
	sent  []string
	block chan struct{}
	err   error
}

func (r *recorder) SendBorrowEmail(_ context.Context, owner, item string) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, owner+"/"+item)
	return r.err
}

func (r *recorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent...)
}

func TestDispatcherDeliversOnClose(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(rec, 0, 1, 8)

	assert.NoError(t, d.SendBorrowEmail(context.Background(), "Ana", "Drill"))
	assert.NoError(t, d.SendBorrowEmail(context.Background(), "Bor", "Easel"))
	d.Close()

	assert.Equal(t, []string{"Ana/Drill", "Bor/Easel"}, rec.messages())
}

func TestDispatcherSwallowsFailures(t *testing.T) {
	rec := &recorder{err: errors.New("smtp down")}
	d := NewDispatcher(rec, 0, 1, 8)

	assert.NoError(t, d.SendBorrowEmail(context.Background(), "Ana", "Drill"))
	d.Close()

	assert.Len(t, rec.messages(), 1)
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	rec := &recorder{block: make(chan struct{})}
	d := NewDispatcher(rec, 0, 1, 1)

	// The worker takes the first message and blocks; the second fills the
	// queue; the rest are dropped without blocking the caller.
	for i := 0; i < 5; i++ {
		assert.NoError(t, d.SendBorrowEmail(context.Background(), "Ana", "Drill"))
	}
	close(rec.block)
	d.Close()

	got := len(rec.messages())
	assert.GreaterOrEqual(t, got, 1)
	assert.LessOrEqual(t, got, 2)
}

func TestDispatcherCloseIdempotent(t *testing.T) {
	d := NewDispatcher(LogNotifier{}, 1, 1, 1)
	d.Close()
	d.Close()
	assert.NoError(t, d.SendBorrowEmail(context.Background(), "Ana", "Drill"))
}
