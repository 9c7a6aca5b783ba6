// Package session holds the signed-in user and profile for one browser and
// keeps them in step with the backend's auth notifications.
package session

import (
	"sync"

	"github.com/campusplug/campusplug/internal/model"
)

// Context is the read-only view of the held user and profile. Accessors
// return copies. Only the Bootstrap writes to it.
type Context struct {
	mu      sync.RWMutex
	user    *model.User
	profile *model.Profile
}

// User returns the signed-in user, or nil.
func (c *Context) User() *model.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// Profile returns the resolved profile, or nil.
func (c *Context) Profile() *model.Profile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.profile == nil {
		return nil
	}
	p := *c.profile
	return &p
}

// UserID returns the signed-in user's id, or "".
func (c *Context) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return ""
	}
	return c.user.ID
}

// SignedIn reports whether a user is held.
func (c *Context) SignedIn() bool {
	return c.UserID() != ""
}

// setUser replaces the held user. The profile is dropped when the user changes.
func (c *Context) setUser(u model.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil || c.user.ID != u.ID {
		c.profile = nil
	}
	c.user = &u
}

// setProfile stores p if it belongs to the held user.
func (c *Context) setProfile(p model.Profile) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil || c.user.ID != p.ID {
		return false
	}
	c.profile = &p
	return true
}

func (c *Context) markVerified(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.profile != nil && c.profile.ID == userID {
		c.profile.IsVerified = true
	}
}

func (c *Context) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user, c.profile = nil, nil
}
