package sessions

import "time"

// Session is one signed-in device of an identity. At most one exists per
// (IdentityID, DeviceID); the raw refresh token is never stored, only its digest.
type Session struct {
	ID               string    `json:"id"`
	IdentityID       string    `json:"identity_id"`
	DeviceID         string    `json:"device_id"`
	RefreshTokenHash string    `json:"-"`
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Clone returns a copy safe to hand out of a repository
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// Expired reports whether the session is past its expiry at now
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
