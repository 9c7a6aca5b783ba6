// Package errs contains sentinel errors shared by the backend clients and the views.
package errs

import "errors"

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates a missing, expired or rejected session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation indicates a form failed client-side validation.
	ErrValidation = errors.New("validation failed")

	// ErrNotSignedIn indicates an action that needs a signed-in user.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrOwnItem indicates a borrow request for an item the user owns.
	ErrOwnItem = errors.New("cannot borrow own item")

	// ErrNotOwner indicates a manage action on an item the user does not own.
	ErrNotOwner = errors.New("not the item owner")

	// ErrProviderUnavailable indicates the sign-in provider is not offered by the backend.
	ErrProviderUnavailable = errors.New("sign-in provider unavailable")
)
