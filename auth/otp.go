package auth

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/pkg/errors"
)

const otpDigits = 6

var otpSpace = big.NewInt(1_000_000)

// generateOTP draws a uniformly distributed zero-padded six digit code from r
func generateOTP(r io.Reader) (string, error) {
	n, err := rand.Int(r, otpSpace)
	if err != nil {
		return "", errors.Wrap(err, "[generateOTP]")
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}
