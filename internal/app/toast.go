package app

import "sync"

// ToastKind is the style of a toast.
type ToastKind string

// Toast kinds.
const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

// Toast is a transient notice shown on the next render.
type Toast struct {
	Kind    ToastKind `json:"kind"`
	Message string    `json:"message"`
}

// Toasts is a browser's queue of pending notices.
type Toasts struct {
	mu    sync.Mutex
	queue []Toast
}

// Success queues a success notice.
func (t *Toasts) Success(msg string) {
	t.push(Toast{Kind: ToastSuccess, Message: msg})
}

// Error queues an error notice.
func (t *Toasts) Error(msg string) {
	t.push(Toast{Kind: ToastError, Message: msg})
}

func (t *Toasts) push(toast Toast) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queue = append(t.queue, toast)
}

// Drain returns and removes all queued notices.
func (t *Toasts) Drain() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.queue
	t.queue = nil
	return out
}
