// Package auth resolves the caller's identity. Every sync and
// lifecycle operation takes the session explicitly; nothing reads
// identity from ambient state.
package auth

import (
	"github.com/VehanRajintha/ChatX/internal/apperr"
)

// Session is an authenticated caller.
type Session struct {
	UserID string
}

// Valid reports whether the session carries an identity.
func (s Session) Valid() bool { return s.UserID != "" }

// Require returns the session or apperr.ErrUnauthenticated.
func (s Session) Require() (Session, error) {
	if !s.Valid() {
		return Session{}, apperr.ErrUnauthenticated
	}
	return s, nil
}
