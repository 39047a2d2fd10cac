package auth

import (
	"context"

	"github.com/jrsteele09/go-auth-sessions/credentials"
	"github.com/jrsteele09/go-auth-sessions/internal/errors"
	"github.com/jrsteele09/go-auth-sessions/token"
	"github.com/jrsteele09/go-auth-sessions/users"
	pkgerrors "github.com/pkg/errors"
)

// ForgotPassword mails a one-time reset code to an active identity. Unknown,
// inactive and failing lookups all return nil so the response never reveals
// whether the email is registered. Only a failed send is reported.
func (s *AuthService) ForgotPassword(ctx context.Context, emailAddr string) error {
	account, err := s.repos.Credentials.GetByEmail(ctx, users.NormaliseEmail(emailAddr))
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			s.logger.Error().Err(err).Msg("reset lookup failed")
		}
		return nil
	}
	if !account.Identity.IsActive {
		return nil
	}

	otp, err := generateOTP(s.random)
	if err != nil {
		s.logger.Error().Err(err).Msg("reset code generation failed")
		return nil
	}
	expiresAt := s.nowTime().Add(s.resetTokenExpiry).UTC()
	if err := s.repos.Credentials.SetResetToken(ctx, account.Identity.ID, token.Hash(otp), expiresAt); err != nil {
		s.logger.Error().Err(err).Str("identity_id", account.Identity.ID).Msg("failed to store reset code")
		return nil
	}

	if err := s.sender.Send(ctx, resetCodeMessage(account.Identity, otp, s.resetTokenExpiry)); err != nil {
		s.logger.Error().Err(err).Str("identity_id", account.Identity.ID).Msg("reset code not delivered")
		return EmailDeliveryErr
	}
	s.logger.Info().Str("identity_id", account.Identity.ID).Msg("reset code issued")
	return nil
}

// ResetPassword consumes a reset code and replaces the password. Every session
// of the identity is ended and its outstanding access tokens are revoked.
//
// Each wrong code counts against the slot. Once the ceiling is reached the slot
// is burned and even the right code fails until a new one is requested.
func (s *AuthService) ResetPassword(ctx context.Context, emailAddr, otp, newPassword string) error {
	now := s.nowTime()
	account, err := s.repos.Credentials.GetByEmail(ctx, users.NormaliseEmail(emailAddr))
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return InvalidTokenErr
		}
		return pkgerrors.Wrap(err, "[AuthService.ResetPassword]")
	}

	identity, credential := account.Identity, account.Credential
	if !identity.IsActive || !credential.HasLiveReset(now) {
		return InvalidTokenErr
	}
	digest := *credential.ResetToken

	if credential.ResetAttempts >= s.maxResetAttempts {
		s.burnResetCode(ctx, identity.ID, digest)
		return TooManyAttemptsErr
	}

	if !token.MatchesHash(otp, digest) {
		attempts, err := s.repos.Credentials.IncrementResetAttempts(ctx, identity.ID, digest, s.maxResetAttempts)
		if err != nil {
			if errors.Is(err, errors.ErrStale) {
				s.burnResetCode(ctx, identity.ID, digest)
				return TooManyAttemptsErr
			}
			return pkgerrors.Wrap(err, "[AuthService.ResetPassword]")
		}
		s.logger.Warn().Str("identity_id", identity.ID).Int("attempts", attempts).Msg("wrong reset code")
		return InvalidTokenErr
	}

	passwordHash, err := s.store.HashPassword(ctx, newPassword)
	if err != nil {
		if errors.Is(err, credentials.ErrPasswordTooLong) {
			return passwordTooLong("new_password")
		}
		return pkgerrors.Wrap(err, "[AuthService.ResetPassword]")
	}
	if err := s.repos.Credentials.CompleteReset(ctx, identity.ID, digest, passwordHash, s.maxResetAttempts, now.UTC()); err != nil {
		if errors.Is(err, errors.ErrStale) {
			return InvalidTokenErr
		}
		return pkgerrors.Wrap(err, "[AuthService.ResetPassword]")
	}

	if err := s.sessions.DeleteAll(ctx, identity.ID); err != nil {
		return pkgerrors.Wrap(err, "[AuthService.ResetPassword] end sessions")
	}
	s.revokeAccessTokens(identity.ID)
	s.logger.Info().Str("identity_id", identity.ID).Msg("password reset")

	if err := s.sender.Send(ctx, passwordChangedMessage(identity)); err != nil {
		s.logger.Error().Err(err).Str("identity_id", identity.ID).Msg("password change notice not delivered")
	}
	return nil
}

func (s *AuthService) burnResetCode(ctx context.Context, identityID, digest string) {
	if err := s.repos.Credentials.ClearResetToken(ctx, identityID, digest); err != nil && !errors.Is(err, errors.ErrStale) {
		s.logger.Error().Err(err).Str("identity_id", identityID).Msg("failed to burn reset code")
		return
	}
	s.logger.Warn().Str("identity_id", identityID).Msg("reset code burned after too many attempts")
}
