package app

import (
	"log/slog"

	"golang.org/x/sync/singleflight"
)

// guard runs at most one call per action key at a time. A duplicate call
// made while one is outstanding waits for it and shares its result.
type guard struct {
	g singleflight.Group
}

func (g *guard) do(key string, fn func() error) error {
	_, err, shared := g.g.Do(key, func() (any, error) {
		return nil, fn()
	})
	if shared {
		slog.Debug("collapsed duplicate action", "action", key)
	}
	return err
}
