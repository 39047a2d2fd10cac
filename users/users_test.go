package users_test

import (
	"strings"
	"testing"

	"github.com/jrsteele09/go-auth-sessions/users"
	"github.com/stretchr/testify/require"
)

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Secret123", false},
		{"too short", "Sec12", true},
		{"no upper", "secret123", true},
		{"no lower", "SECRET123", true},
		{"no digit", "SecretPass", true},
		{"72 bytes", "Aa1" + strings.Repeat("x", 69), false},
		{"73 bytes", "Aa1" + strings.Repeat("x", 70), true},
		{"72 runes but 141 bytes", "Aa1" + strings.Repeat("é", 69), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := users.ValidatePasswordStrength(tt.password)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNormaliseAndValidateEmail(t *testing.T) {
	require.Equal(t, "alice@example.com", users.NormaliseEmail("  Alice@Example.COM "))
	require.NoError(t, users.ValidateEmail("alice@example.com"))
	require.Error(t, users.ValidateEmail("Alice <alice@example.com>"))
	require.Error(t, users.ValidateEmail("not-an-email"))
}
