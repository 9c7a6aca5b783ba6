package app

import "context"

type browserKey struct{}

// WithBrowser returns a context carrying b.
func WithBrowser(ctx context.Context, b *Browser) context.Context {
	return context.WithValue(ctx, browserKey{}, b)
}

// BrowserFrom returns the browser carried by ctx, or nil.
func BrowserFrom(ctx context.Context) *Browser {
	b, _ := ctx.Value(browserKey{}).(*Browser)
	return b
}
