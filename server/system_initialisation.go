package server

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-auth-sessions/auth"
)

const defaultAdminName = "Administrator"

// InitialiseSystem makes sure the admin identity named by ADMIN_EMAIL exists.
// Nothing happens unless both ADMIN_EMAIL and ADMIN_PASSWORD are set.
func (s *Server) InitialiseSystem(ctx context.Context) error {
	adminEmail, adminPassword := s.config.GetAdminEmail(), s.config.GetAdminPassword()
	if adminEmail == "" || adminPassword == "" {
		s.logger.Debug().Msg("bootstrap: no admin configured")
		return nil
	}

	input := auth.RegisterInput{Name: defaultAdminName, Email: adminEmail, Password: adminPassword}
	if err := s.validator.Validate(input); err != nil {
		return fmt.Errorf("admin credentials rejected: %w", err)
	}

	admin, err := s.auth.BootstrapAdmin(ctx, defaultAdminName, adminEmail, adminPassword)
	if err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}
	s.logger.Info().Str("identity_id", admin.ID).Msg("bootstrap: admin identity ready")
	return nil
}
