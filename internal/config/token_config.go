package config

import "time"

type TokenConfig interface {
	GetAccessTokenSecret() string
	GetRefreshTokenSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetTokenIssuer() string
}

type Token struct{}

var _ TokenConfig = Token{}

func (Token) GetAccessTokenSecret() string {
	return GetEnv("JWT_ACCESS_SECRET", "dev-access-secret")
}

func (Token) GetRefreshTokenSecret() string {
	return GetEnv("JWT_REFRESH_SECRET", "dev-refresh-secret")
}

func (Token) GetAccessTokenExpiry() time.Duration {
	return GetEnvDuration("JWT_ACCESS_EXPIRE_IN", 15*time.Minute)
}

func (Token) GetRefreshTokenExpiry() time.Duration {
	return GetEnvDuration("JWT_REFRESH_EXPIRE_IN", 7*24*time.Hour) // 7 days
}

func (Token) GetTokenIssuer() string {
	return GetEnv("JWT_ISSUER", "go-auth-sessions")
}
