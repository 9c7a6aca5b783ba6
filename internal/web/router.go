package web

import (
	"net/http"

	"github.com/campusplug/campusplug/internal/app"
	webembed "github.com/campusplug/campusplug/web"
)

// Options configures the page router.
type Options struct {
	Registry *app.Registry
	// BaseURL is the public origin OAuth providers redirect back to.
	BaseURL string
	// Images serves locally stored photos. Nil for backends with their
	// own public storage.
	Images ImageSource
	// Secure marks cookies Secure.
	Secure bool
}

// NewRouter creates the web page router with all page routes registered.
func NewRouter(opts Options) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		Registry:  opts.Registry,
		Templates: templates,
		BaseURL:   opts.BaseURL,
		Images:    opts.Images,
		Secure:    opts.Secure,
	}

	static, err := webembed.Static()
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	withBrowser := BrowserMiddleware(opts.Registry, opts.Secure)

	// Routes without a browser session.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	mux.HandleFunc("GET /healthz", Health)
	if s.Images != nil {
		mux.HandleFunc("GET /images/{id}", s.ImageGet)
	}

	// Shell.
	mux.Handle("GET /{$}", withBrowser(http.HandlerFunc(s.Index)))
	mux.Handle("POST /view", withBrowser(http.HandlerFunc(s.SetView)))
	mux.Handle("POST /verify", withBrowser(http.HandlerFunc(s.Verify)))

	// Sign-in.
	mux.Handle("GET /auth/signin/{provider}", withBrowser(http.HandlerFunc(s.SignIn)))
	mux.Handle("GET /auth/callback", withBrowser(http.HandlerFunc(s.Callback)))
	mux.Handle("POST /auth/local", withBrowser(http.HandlerFunc(s.LocalSignIn)))
	mux.Handle("POST /logout", withBrowser(http.HandlerFunc(s.Logout)))

	// Feed and gear hub.
	mux.Handle("POST /items/{id}/borrow", withBrowser(http.HandlerFunc(s.Borrow)))
	mux.Handle("POST /compose", withBrowser(http.HandlerFunc(s.OpenCompose)))
	mux.Handle("POST /compose/cancel", withBrowser(http.HandlerFunc(s.CancelCompose)))
	mux.Handle("POST /items", withBrowser(http.HandlerFunc(s.Publish)))
	mux.Handle("POST /items/{id}/delist", withBrowser(http.HandlerFunc(s.Delist)))

	return mux, nil
}

// Health handles GET /healthz.
func Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}
