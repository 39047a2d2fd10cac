package auth

import (
	"github.com/jrsteele09/go-auth-sessions/token"
	"github.com/jrsteele09/go-auth-sessions/users"
)

// LoginResult is returned by a successful Login
type LoginResult struct {
	Tokens   *token.Pair     `json:"tokens"`
	Identity *users.Identity `json:"identity"`
	DeviceID string          `json:"device_id"`
}
