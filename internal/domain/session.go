package domain

import "time"

// Session is an authenticated admin session. It is issued at login and
// stops being valid when it expires or is revoked by logout.
type Session struct {
	ID        string    `json:"session_id"`
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at instant now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// LoginRequest is the body of POST /v1/admin/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token of the new session.
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	ExpiresIn    int          `json:"expires_in"`
	Session      *Session     `json:"session"`
	Notification Notification `json:"notification"`
}
