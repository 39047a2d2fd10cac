package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-auth-sessions/auth"
	"github.com/jrsteele09/go-auth-sessions/credentials"
	"github.com/jrsteele09/go-auth-sessions/internal/config"
	"github.com/jrsteele09/go-auth-sessions/internal/sweeper"
	"github.com/jrsteele09/go-auth-sessions/server"
	"github.com/jrsteele09/go-auth-sessions/token"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func main() {
	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
			if errors.Is(err, errFatal) {
				os.Exit(1)
			}
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

// errFatal marks configuration errors that a restart cannot fix
var errFatal = errors.New("fatal")

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("panic", fmt.Sprint(r)).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	logger := newLogger(c)
	displayAppname(c.GetAppName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.GetAccessTokenSecret() == c.GetRefreshTokenSecret() {
		return fmt.Errorf("%w: access and refresh tokens need different secrets", errFatal)
	}

	repos, closeBackends, err := openBackends(ctx, c, logger)
	if err != nil {
		return fmt.Errorf("%w: %w", errFatal, err)
	}
	defer closeBackends()

	issuer, err := token.NewIssuer(
		token.NewHMACSigner(c.GetAccessTokenSecret()),
		token.NewHMACSigner(c.GetRefreshTokenSecret()),
		token.WithTokenExpiry(c.GetAccessTokenExpiry(), c.GetRefreshTokenExpiry()),
		token.WithIssuer(c.GetTokenIssuer()),
	)
	if err != nil {
		return fmt.Errorf("token issuer: %w", err)
	}

	authService, err := auth.NewAuthService(repos, issuer, newEmailSender(c, logger),
		auth.WithLogger(logger.With().Str("component", "auth").Logger()),
		auth.WithHasher(credentials.NewBcryptHasher(c.GetBcryptCost(), c.GetHashWorkers())),
		auth.WithResetPolicy(c.GetResetTokenExpiry(), c.GetMaxResetAttempts()),
	)
	if err != nil {
		return fmt.Errorf("auth service: %w", err)
	}

	handler, err := server.New(ctx, c, authService, server.WithLogger(logger.With().Str("component", "http").Logger()))
	if err != nil {
		return fmt.Errorf("%w: %w", errFatal, err)
	}
	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	sessionSweeper := sweeper.New(c.GetSessionSweepInterval(), authService.DeleteExpiredSessions,
		sweeper.WithLogger(logger.With().Str("component", "sweeper").Logger()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return listenAndServe(httpServer, logger)
	})
	g.Go(func() error {
		return sessionSweeper.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		return shutdown(httpServer)
	})
	return g.Wait()
}

func newLogger(c config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	log.Logger = log.With().Str("app", c.GetAppName()).Logger()
	return log.Logger
}

func listenAndServe(server *http.Server, logger zerolog.Logger) error {
	logger.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
