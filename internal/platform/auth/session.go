package auth

import "github.com/google/uuid"

// Session is the authenticated identity of a single request. It is built by
// the auth middleware from a verified token and handed to whoever needs it.
type Session struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

// SessionFromClaims converts verified token claims into a Session.
func SessionFromClaims(c *Claims) Session {
	return Session{UserID: c.UserID, Email: c.Email, Role: c.Role}
}

// IsAdmin reports whether the session belongs to an administrator.
func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }
