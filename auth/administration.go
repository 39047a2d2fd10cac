package auth

import (
	"context"

	"github.com/jrsteele09/go-auth-sessions/internal/errors"
	"github.com/jrsteele09/go-auth-sessions/sessions"
	"github.com/jrsteele09/go-auth-sessions/users"
	pkgerrors "github.com/pkg/errors"
)

// Sessions lists the open sessions of an identity
func (s *AuthService) Sessions(ctx context.Context, identityID string) ([]*sessions.Session, error) {
	list, err := s.sessions.List(ctx, identityID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[AuthService.Sessions]")
	}
	return list, nil
}

// EndSessions signs the given devices out. Unknown devices are ignored.
func (s *AuthService) EndSessions(ctx context.Context, identityID string, deviceIDs ...string) error {
	if err := s.sessions.Delete(ctx, identityID, deviceIDs...); err != nil {
		return pkgerrors.Wrap(err, "[AuthService.EndSessions]")
	}
	return nil
}

// DeactivateIdentity blocks login and refresh for an identity and signs out every device.
func (s *AuthService) DeactivateIdentity(ctx context.Context, identityID string) error {
	if err := s.repos.Users.SetActive(ctx, identityID, false); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return IdentityNotFoundErr
		}
		return pkgerrors.Wrap(err, "[AuthService.DeactivateIdentity]")
	}
	if err := s.sessions.DeleteAll(ctx, identityID); err != nil {
		return pkgerrors.Wrap(err, "[AuthService.DeactivateIdentity]")
	}
	s.revokeAccessTokens(identityID)
	s.logger.Info().Str("identity_id", identityID).Msg("identity deactivated")
	return nil
}

// ActivateIdentity lifts a deactivation. Earlier tokens stay revoked.
func (s *AuthService) ActivateIdentity(ctx context.Context, identityID string) error {
	if err := s.repos.Users.SetActive(ctx, identityID, true); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return IdentityNotFoundErr
		}
		return pkgerrors.Wrap(err, "[AuthService.ActivateIdentity]")
	}
	s.logger.Info().Str("identity_id", identityID).Msg("identity activated")
	return nil
}

// DeleteIdentity removes an identity together with its credential and sessions.
func (s *AuthService) DeleteIdentity(ctx context.Context, identityID string) error {
	if err := s.sessions.DeleteAll(ctx, identityID); err != nil {
		return pkgerrors.Wrap(err, "[AuthService.DeleteIdentity]")
	}
	if err := s.repos.Users.Delete(ctx, identityID); err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return IdentityNotFoundErr
		}
		return pkgerrors.Wrap(err, "[AuthService.DeleteIdentity]")
	}
	s.revokeAccessTokens(identityID)
	s.logger.Info().Str("identity_id", identityID).Msg("identity deleted")
	return nil
}

// DeleteExpiredSessions sweeps sessions past their expiry and drops lapsed revocations.
func (s *AuthService) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	removed, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "[AuthService.DeleteExpiredSessions]")
	}
	revocations := s.issuer.Revocations().Cleanup()
	s.logger.Debug().Int64("sessions", removed).Int("revocations", revocations).Msg("expired entries swept")
	return removed, nil
}

// BootstrapAdmin makes sure an admin identity exists for email, registering it when absent.
// An existing identity is promoted and its password is left alone.
func (s *AuthService) BootstrapAdmin(ctx context.Context, name, emailAddr, password string) (*users.Identity, error) {
	identity, err := s.Register(ctx, name, emailAddr, password)
	if err != nil && !errors.Is(err, ConflictErr) {
		return nil, pkgerrors.Wrap(err, "[AuthService.BootstrapAdmin]")
	}
	if identity == nil {
		if identity, err = s.repos.Users.GetByEmail(ctx, users.NormaliseEmail(emailAddr)); err != nil {
			return nil, pkgerrors.Wrap(err, "[AuthService.BootstrapAdmin]")
		}
	}
	if !identity.IsAdmin {
		if err := s.repos.Users.SetAdmin(ctx, identity.ID, true); err != nil {
			return nil, pkgerrors.Wrap(err, "[AuthService.BootstrapAdmin]")
		}
		identity.IsAdmin = true
		s.logger.Info().Str("identity_id", identity.ID).Msg("admin identity bootstrapped")
	}
	return identity, nil
}
