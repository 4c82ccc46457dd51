package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/genesisio/genesisio/internal/client/session"
	"github.com/genesisio/genesisio/internal/common"
)

// Forgot drives the password reset flow: request a code (throttled
// client-side), then redeem it with a new password.
func (a *App) Forgot(ctx context.Context) {

	email, err := GetSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}

	user, err := a.controller.RequestVerificationCode(ctx, email)
	if err != nil {
		var throttle *session.ThrottleError
		switch {
		case errors.As(err, &throttle):
			fmt.Printf("A code was requested recently, wait %s\n", throttle.Remaining.Round(time.Second))
		case errors.Is(err, common.ErrorNotFound):
			fmt.Println("No account for this email")
		case errors.Is(err, common.ErrPasswordChangeRestricted):
			fmt.Println("Password was changed recently, resets are temporarily restricted")
		default:
			fmt.Printf("Code request failed: %v\n", err)
		}
		return
	}

	fmt.Println("A verification code was sent to your email.")

	code, err := GetSimpleText(a.reader, "Enter verification code", os.Stdout)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}

	password, err := GetPassword(os.Stdout)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	defer common.WipeByteArray(password)

	if err := a.controller.ResetPassword(ctx, user.ID, email, code, string(password)); err != nil {
		fmt.Printf("Password reset failed: %v\n", err)
		return
	}

	fmt.Println("Password updated. Log in with the new password.")
}
