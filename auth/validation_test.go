package auth_test

import (
	"strings"
	"testing"

	"github.com/jrsteele09/go-auth-sessions/auth"
	"github.com/stretchr/testify/require"
)

func TestValidateRegisterInput(t *testing.T) {
	v := auth.NewValidator()

	require.NoError(t, v.Validate(auth.RegisterInput{Name: "Alice", Email: "alice@example.com", Password: "Passw0rd1"}))

	err := v.Validate(auth.RegisterInput{Name: "Al", Email: "not-an-email", Password: "password"})
	var verr *auth.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "must be at least 3 long", verr.Fields["name"])
	require.Equal(t, "must be a valid email address", verr.Fields["email"])
	require.Contains(t, verr.Fields["password"], "uppercase")
	require.Contains(t, err.Error(), "email: ")
}

func TestValidatePasswordCountsBytes(t *testing.T) {
	v := auth.NewValidator()
	multiByte := "Aa1" + strings.Repeat("é", 69)

	var verr *auth.ValidationError
	require.ErrorAs(t, v.Validate(auth.RegisterInput{Name: "Alice", Email: "alice@example.com", Password: multiByte}), &verr)
	require.Equal(t, "password must be at most 72 bytes long", verr.Fields["password"])

	require.ErrorAs(t, v.Validate(auth.ResetPasswordInput{Email: "alice@example.com", OTP: "012345", NewPassword: multiByte}), &verr)
	require.Contains(t, verr.Fields, "new_password")
}

func TestValidateResetPasswordInput(t *testing.T) {
	v := auth.NewValidator()

	tests := []struct {
		name    string
		otp     string
		wantErr string
	}{
		{name: "six digits", otp: "012345"},
		{name: "too short", otp: "12345", wantErr: "must be exactly 6 characters"},
		{name: "letters", otp: "12a456", wantErr: "must contain digits only"},
		{name: "missing", otp: "", wantErr: "is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(auth.ResetPasswordInput{Email: "alice@example.com", OTP: tt.otp, NewPassword: "NewPassw0rd"})
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			var verr *auth.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tt.wantErr, verr.Fields["otp"])
		})
	}
}

func TestValidateEndSessionsInput(t *testing.T) {
	v := auth.NewValidator()

	require.NoError(t, v.Validate(auth.EndSessionsInput{DeviceIDs: []string{"phone"}}))

	var verr *auth.ValidationError
	require.ErrorAs(t, v.Validate(auth.EndSessionsInput{}), &verr)
	require.Equal(t, "is required", verr.Fields["device_ids"])

	require.ErrorAs(t, v.Validate(auth.EndSessionsInput{DeviceIDs: []string{"phone", ""}}), &verr)
	require.Equal(t, "is required", verr.Fields["device_ids[1]"])
}

func TestValidateLoginInputAllowsMissingDevice(t *testing.T) {
	v := auth.NewValidator()
	require.NoError(t, v.Validate(auth.LoginInput{Email: "alice@example.com", Password: "x"}))
}
