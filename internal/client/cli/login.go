package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/genesisio/genesisio/internal/client/api"
	"github.com/genesisio/genesisio/internal/common"
)

func (a *App) Login(ctx context.Context) {

	email, err := GetSimpleText(a.reader, "Enter email", os.Stdout)
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

	err = a.controller.Login(ctx, email, string(password))
	if err != nil {
		switch {
		case errors.Is(err, api.ErrUnavailable):
			fmt.Println("Server unavailable, try again later")
		case errors.Is(err, common.ErrorUnauthorized):
			fmt.Println("Invalid email or password")
		default:
			fmt.Printf("Login failed: %v\n", err)
		}
		return
	}

	user := a.controller.User()
	fmt.Printf("Logged in as %s\n", user.Email)
}

func (a *App) Logout(ctx context.Context) {
	a.controller.Logout(ctx)
	fmt.Println("Logged out")
}
