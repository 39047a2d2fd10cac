package auth

import (
	"context"
	"crypto/rand"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-sessions/credentials"
	"github.com/jrsteele09/go-auth-sessions/email"
	"github.com/jrsteele09/go-auth-sessions/internal/errors"
	"github.com/jrsteele09/go-auth-sessions/sessions"
	"github.com/jrsteele09/go-auth-sessions/token"
	"github.com/jrsteele09/go-auth-sessions/users"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultResetTokenExpiry = 10 * time.Minute
	defaultMaxResetAttempts = 5
)

// Repos holds all repository dependencies for the AuthService
type Repos struct {
	Users       users.Repo       // Identity directory
	Credentials credentials.Repo // Password hashes and reset slots
	Sessions    sessions.Repo    // One session per (identity, device)
}

// AuthService composes credentials, tokens, sessions and password resets
// into the public authentication operations.
type AuthService struct {
	repos            Repos
	issuer           *token.Issuer
	sender           email.Sender
	store            *credentials.Store
	sessions         *sessions.Manager
	hasher           credentials.Hasher
	logger           zerolog.Logger
	random           io.Reader
	resetTokenExpiry time.Duration
	maxResetAttempts int
	nowTime          func() time.Time
}

// AuthServiceOption defines a function type to modify the AuthService instance.
type AuthServiceOption func(*AuthService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) AuthServiceOption {
	return func(s *AuthService) {
		s.nowTime = nowFunc
	}
}

// WithLogger sets the logger used for operational events
func WithLogger(logger zerolog.Logger) AuthServiceOption {
	return func(s *AuthService) {
		s.logger = logger
	}
}

// WithRandomSource replaces the reader reset codes are drawn from
func WithRandomSource(r io.Reader) AuthServiceOption {
	return func(s *AuthService) {
		s.random = r
	}
}

// WithHasher replaces the default bcrypt hasher
func WithHasher(h credentials.Hasher) AuthServiceOption {
	return func(s *AuthService) {
		s.hasher = h
	}
}

// WithResetPolicy sets how long a reset code lives and how many wrong guesses it survives
func WithResetPolicy(expiry time.Duration, maxAttempts int) AuthServiceOption {
	return func(s *AuthService) {
		if expiry > 0 {
			s.resetTokenExpiry = expiry
		}
		if maxAttempts > 0 {
			s.maxResetAttempts = maxAttempts
		}
	}
}

// NewAuthService initializes a new AuthService with required dependencies.
func NewAuthService(repos Repos, issuer *token.Issuer, sender email.Sender, options ...AuthServiceOption) (*AuthService, error) {
	if repos.Users == nil || repos.Credentials == nil || repos.Sessions == nil {
		return nil, pkgerrors.New("[NewAuthService] users, credentials and sessions repos are required")
	}
	if issuer == nil {
		return nil, pkgerrors.New("[NewAuthService] token issuer is required")
	}
	if sender == nil {
		return nil, pkgerrors.New("[NewAuthService] email sender is required")
	}

	s := &AuthService{
		repos:            repos,
		issuer:           issuer,
		sender:           sender,
		logger:           zerolog.Nop(),
		random:           rand.Reader,
		resetTokenExpiry: defaultResetTokenExpiry,
		maxResetAttempts: defaultMaxResetAttempts,
		nowTime:          time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.hasher == nil {
		s.hasher = credentials.NewBcryptHasher(bcrypt.DefaultCost, 0)
	}

	store, err := credentials.NewStore(repos.Credentials, s.hasher)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[NewAuthService]")
	}
	s.store = store

	manager, err := sessions.NewManager(repos.Sessions, sessions.WithNowTime(s.nowTime))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[NewAuthService]")
	}
	s.sessions = manager

	return s, nil
}

// Register creates a new active identity. No session is created.
func (s *AuthService) Register(ctx context.Context, name, emailAddr, password string) (*users.Identity, error) {
	identity, err := s.store.Register(ctx, name, emailAddr, password)
	if err != nil {
		if errors.Is(err, credentials.ErrEmailTaken) {
			return nil, ConflictErr
		}
		if errors.Is(err, credentials.ErrPasswordTooLong) {
			return nil, passwordTooLong("password")
		}
		return nil, pkgerrors.Wrap(err, "[AuthService.Register]")
	}
	s.logger.Info().Str("identity_id", identity.ID).Msg("identity registered")
	return identity, nil
}

// Login validates the credentials and opens (or replaces) the session for deviceID.
// An empty deviceID gets a generated one, returned in the result.
func (s *AuthService) Login(ctx context.Context, emailAddr, password, deviceID string) (*LoginResult, error) {
	account, err := s.store.ValidateCredentials(ctx, emailAddr, password)
	if err != nil {
		if errors.Is(err, credentials.ErrInvalidCredentials) {
			s.logger.Debug().Msg("login rejected")
			return nil, AuthenticationErr
		}
		return nil, pkgerrors.Wrap(err, "[AuthService.Login]")
	}
	identity := account.Identity

	if deviceID == "" {
		deviceID = uuid.NewString()
	}

	pair, err := s.issuer.IssuePair(payloadFor(identity), deviceID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[AuthService.Login]")
	}
	if _, err := s.sessions.Upsert(ctx, identity.ID, deviceID, pair.RefreshToken, pair.RefreshExpiresAt); err != nil {
		return nil, pkgerrors.Wrap(err, "[AuthService.Login]")
	}

	// A reset or deactivation that landed after the password check may already
	// have swept this identity's sessions, so the one just written goes as well.
	unchanged, err := s.store.Unchanged(ctx, account)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[AuthService.Login]")
	}
	if !unchanged {
		if err := s.sessions.Revoke(ctx, identity.ID, deviceID, pair.RefreshToken); err != nil && !sessions.IsGone(err) {
			s.logger.Error().Err(err).Str("identity_id", identity.ID).Msg("failed to drop session of changed credential")
		}
		s.logger.Warn().Str("identity_id", identity.ID).Msg("credential changed during login")
		return nil, AuthenticationErr
	}

	s.logger.Info().Str("identity_id", identity.ID).Str("device_id", deviceID).Msg("session opened")
	return &LoginResult{Tokens: pair, Identity: identity, DeviceID: deviceID}, nil
}

// Refresh exchanges a refresh token for a new pair, rotating the stored session.
// A token that was already rotated fails with SessionNotFoundErr.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*token.Pair, error) {
	claims, err := s.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, TokenInvalidErr
	}
	identityID, deviceID := claims.Subject, claims.DeviceID
	if deviceID == "" {
		return nil, SessionNotFoundErr
	}

	if err := s.presentedSession(ctx, identityID, deviceID, refreshToken); err != nil {
		return nil, err
	}

	identity, err := s.repos.Users.GetByID(ctx, identityID)
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		return nil, pkgerrors.Wrap(err, "[AuthService.Refresh]")
	}
	if identity == nil || !identity.IsActive {
		if err := s.sessions.DeleteAll(ctx, identityID); err != nil {
			s.logger.Error().Err(err).Str("identity_id", identityID).Msg("failed to drop sessions of unavailable identity")
		}
		return nil, SessionNotFoundErr
	}

	pair, err := s.issuer.IssuePair(payloadFor(identity), deviceID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[AuthService.Refresh]")
	}
	if err := s.sessions.Rotate(ctx, identityID, deviceID, refreshToken, pair.RefreshToken, pair.RefreshExpiresAt); err != nil {
		if sessions.IsGone(err) {
			s.logger.Warn().Str("identity_id", identityID).Str("device_id", deviceID).Msg("refresh lost rotation race")
			return nil, SessionNotFoundErr
		}
		return nil, pkgerrors.Wrap(err, "[AuthService.Refresh]")
	}
	return pair, nil
}

// Logout ends the session the refresh token belongs to. Other devices are untouched.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return TokenInvalidErr
	}
	identityID, deviceID := claims.Subject, claims.DeviceID
	if deviceID == "" {
		return SessionNotFoundErr
	}

	if err := s.presentedSession(ctx, identityID, deviceID, refreshToken); err != nil {
		return err
	}
	if err := s.sessions.Revoke(ctx, identityID, deviceID, refreshToken); err != nil {
		if sessions.IsGone(err) {
			return SessionNotFoundErr
		}
		return pkgerrors.Wrap(err, "[AuthService.Logout]")
	}

	s.logger.Info().Str("identity_id", identityID).Str("device_id", deviceID).Msg("session closed")
	return nil
}

// Authenticate verifies an access token and returns its claims.
func (s *AuthService) Authenticate(_ context.Context, accessToken string) (*token.Claims, error) {
	claims, err := s.issuer.VerifyAccess(accessToken)
	if err != nil {
		return nil, TokenInvalidErr
	}
	return claims, nil
}

// presentedSession checks that refreshToken is the one currently stored for the device.
func (s *AuthService) presentedSession(ctx context.Context, identityID, deviceID, refreshToken string) error {
	session, err := s.sessions.Get(ctx, identityID, deviceID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return SessionNotFoundErr
		}
		return pkgerrors.Wrap(err, "[AuthService.presentedSession]")
	}
	if !s.sessions.Matches(session, refreshToken) {
		return SessionNotFoundErr
	}
	return nil
}

// revokeAccessTokens makes access tokens issued up to now fail Authenticate.
func (s *AuthService) revokeAccessTokens(identityID string) {
	now := s.nowTime()
	s.issuer.Revocations().RevokeIssuedBefore(identityID, now, now.Add(s.issuer.AccessTokenExpiry()))
}

func payloadFor(identity *users.Identity) token.Payload {
	return token.Payload{ID: identity.ID, Email: identity.Email, IsAdmin: identity.IsAdmin}
}
