package auth

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateOTP(t *testing.T) {
	seen := make(map[string]struct{})
	for range 50 {
		otp, err := generateOTP(rand.Reader)
		require.NoError(t, err)
		require.Regexp(t, `^\d{6}$`, otp)
		seen[otp] = struct{}{}
	}
	require.Greater(t, len(seen), 1)
}

func TestGenerateOTP_PadsAndFails(t *testing.T) {
	otp, err := generateOTP(bytes.NewReader(make([]byte, 64)))
	require.NoError(t, err)
	require.Equal(t, "000000", otp)

	_, err = generateOTP(bytes.NewReader(nil))
	require.Error(t, err)
}
