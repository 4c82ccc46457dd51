package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/genesisio/genesisio/internal/common"
)

func (a *App) ShowProfile(ctx context.Context) {

	user, err := a.controller.Profile(ctx)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrTokenExpired):
			fmt.Println("Session expired, log in again")
		case errors.Is(err, common.ErrorUnauthorized):
			fmt.Println("Not logged in")
		default:
			fmt.Printf("Profile fetch failed: %v\n", err)
		}
		return
	}

	fmt.Printf("Email:     %s\n", user.Email)
	fmt.Printf("Full name: %s\n", user.FullName)
	fmt.Printf("Verified:  %v\n", user.Verified)
	fmt.Printf("Joined:    %s\n", user.CreatedAt.Format("2006-01-02"))
}
