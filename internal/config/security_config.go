package config

import (
	"runtime"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type SecurityConfig interface {
	GetBcryptCost() int
	GetHashWorkers() int
	GetResetTokenExpiry() time.Duration
	GetMaxResetAttempts() int
	GetSessionSweepInterval() time.Duration
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetBcryptCost() int {
	cost := GetEnvInt("BCRYPT_COST", bcrypt.DefaultCost)
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return cost
}

// GetHashWorkers bounds concurrent bcrypt operations
func (Security) GetHashWorkers() int {
	workers := GetEnvInt("HASH_WORKERS", runtime.NumCPU())
	if workers < 1 {
		return 1
	}
	return workers
}

func (Security) GetResetTokenExpiry() time.Duration {
	return GetEnvDuration("RESET_OTP_TTL", 10*time.Minute)
}

func (Security) GetMaxResetAttempts() int {
	attempts := GetEnvInt("RESET_MAX_ATTEMPTS", 5)
	if attempts < 1 {
		return 5
	}
	return attempts
}

func (Security) GetSessionSweepInterval() time.Duration {
	return GetEnvDuration("SESSION_SWEEP_INTERVAL", time.Hour)
}
