package auth

import (
	"fmt"
	"time"

	"github.com/jrsteele09/go-auth-sessions/email"
	"github.com/jrsteele09/go-auth-sessions/users"
)

func resetCodeMessage(identity *users.Identity, otp string, ttl time.Duration) email.Message {
	return email.Message{
		To:      identity.Email,
		Subject: "Your password reset code",
		Body: fmt.Sprintf(
			"Hi %s,\n\nUse this code to reset your password: %s\n\nIt expires in %d minutes. If you did not ask for a reset you can ignore this message.\n",
			identity.Name, otp, int(ttl.Minutes())),
	}
}

func passwordChangedMessage(identity *users.Identity) email.Message {
	return email.Message{
		To:      identity.Email,
		Subject: "Your password was changed",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour password was just changed and every device has been signed out. If this was not you, reset your password immediately.\n",
			identity.Name),
	}
}
