package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jrsteele09/go-auth-sessions/auth"
	credentialrepopg "github.com/jrsteele09/go-auth-sessions/credentials/repopg"
	fakecredentialrepo "github.com/jrsteele09/go-auth-sessions/credentials/repofake"
	"github.com/jrsteele09/go-auth-sessions/email"
	"github.com/jrsteele09/go-auth-sessions/internal/config"
	"github.com/jrsteele09/go-auth-sessions/internal/db"
	"github.com/jrsteele09/go-auth-sessions/internal/errors"
	fakesessionrepo "github.com/jrsteele09/go-auth-sessions/sessions/repofake"
	sessionrepopg "github.com/jrsteele09/go-auth-sessions/sessions/repopg"
	sessionredis "github.com/jrsteele09/go-auth-sessions/sessions/reporedis"
	fakeuserrepo "github.com/jrsteele09/go-auth-sessions/users/repofake"
	userrepopg "github.com/jrsteele09/go-auth-sessions/users/repopg"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// openBackends builds the repositories selected by STORE_BACKEND and SESSION_BACKEND.
// The returned func closes every connection that was opened.
func openBackends(ctx context.Context, c config.Config, logger zerolog.Logger) (auth.Repos, func(), error) {
	var (
		repos   auth.Repos
		closers []func()
		conn    *sql.DB
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	postgres := func() (*sql.DB, error) {
		if conn != nil {
			return conn, nil
		}
		opened, err := db.Open(ctx, c.GetDatabaseDSN())
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx, opened); err != nil {
			_ = opened.Close()
			return nil, err
		}
		closers = append(closers, func() { _ = opened.Close() })
		conn = opened
		return conn, nil
	}

	switch backend := c.GetStoreBackend(); backend {
	case config.BackendMemory:
		userRepo := fakeuserrepo.NewFakeUserRepo()
		repos.Users = userRepo
		repos.Credentials = fakecredentialrepo.NewFakeCredentialRepo(userRepo)
	case config.BackendPostgres:
		pg, err := postgres()
		if err != nil {
			closeAll()
			return repos, nil, err
		}
		repos.Users = userrepopg.NewPostgresRepository(pg)
		repos.Credentials = credentialrepopg.NewPostgresRepository(pg)
	default:
		return repos, nil, errors.Wrapf(errors.ErrUnsupported, "store backend %q", backend)
	}

	switch backend := c.GetSessionBackend(); backend {
	case config.BackendMemory:
		repos.Sessions = fakesessionrepo.NewFakeSessionRepo()
	case config.BackendPostgres:
		// sessions reference identities by foreign key
		if c.GetStoreBackend() != config.BackendPostgres {
			closeAll()
			return repos, nil, fmt.Errorf("SESSION_BACKEND=postgres requires STORE_BACKEND=postgres")
		}
		pg, err := postgres()
		if err != nil {
			closeAll()
			return repos, nil, err
		}
		repos.Sessions = sessionrepopg.NewPostgresRepository(pg)
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     c.GetRedisAddr(),
			Password: c.GetRedisPassword(),
			DB:       c.GetRedisDB(),
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			closeAll()
			return repos, nil, fmt.Errorf("redis ping: %w", err)
		}
		closers = append(closers, func() { _ = client.Close() })
		repos.Sessions = sessionredis.NewRedisRepository(client)
	default:
		closeAll()
		return repos, nil, errors.Wrapf(errors.ErrUnsupported, "session backend %q", backend)
	}

	if c.GetStoreBackend() == config.BackendMemory && c.GetSessionBackend() == config.BackendRedis {
		logger.Warn().Msg("identities are in memory while sessions are in redis; sessions will outlive their identities on restart")
	}
	logger.Info().
		Str("store", c.GetStoreBackend()).
		Str("sessions", c.GetSessionBackend()).
		Msg("backends ready")
	return repos, closeAll, nil
}

// newEmailSender uses SMTP when SMTP_HOST is set and otherwise logs messages
func newEmailSender(c config.Config, logger zerolog.Logger) email.Sender {
	if c.GetSmtpHost() == "" {
		logger.Warn().Msg("SMTP_HOST not set; emails are logged, not delivered")
		return email.NewLogSender(logger.With().Str("component", "email").Logger())
	}
	return email.NewSMTPSender(c)
}
