package auth

import "errors"

var (
	ConflictErr         = errors.New("email already registered")
	AuthenticationErr   = errors.New("invalid email or password")
	TokenInvalidErr     = errors.New("token invalid or expired")
	SessionNotFoundErr  = errors.New("session not found")
	InvalidTokenErr     = errors.New("reset code invalid or expired")
	TooManyAttemptsErr  = errors.New("too many reset attempts")
	EmailDeliveryErr    = errors.New("email could not be delivered")
	IdentityNotFoundErr = errors.New("identity not found")
)
