// Package credentials owns password hashes and the password-reset slot of
// each identity. Plaintext passwords and one-time codes are never stored.
package credentials

import (
	"time"

	"github.com/jrsteele09/go-auth-sessions/users"
)

// Credential is the secret side of an identity, one per identity
type Credential struct {
	ID             string
	IdentityID     string
	PasswordHash   string
	ResetToken     *string // SHA-256 digest of the outstanding one-time code
	ResetExpiresAt *time.Time
	ResetAttempts  int
}

// Clone returns a deep copy safe to hand out of a repository
func (c *Credential) Clone() *Credential {
	if c == nil {
		return nil
	}
	cp := *c
	if c.ResetToken != nil {
		t := *c.ResetToken
		cp.ResetToken = &t
	}
	if c.ResetExpiresAt != nil {
		e := *c.ResetExpiresAt
		cp.ResetExpiresAt = &e
	}
	return &cp
}

// HasLiveReset reports whether a reset code is outstanding and unexpired at now
func (c *Credential) HasLiveReset(now time.Time) bool {
	return c.ResetToken != nil && c.ResetExpiresAt != nil && now.Before(*c.ResetExpiresAt)
}

// Account joins an identity with its credential
type Account struct {
	Identity   *users.Identity
	Credential *Credential
}
