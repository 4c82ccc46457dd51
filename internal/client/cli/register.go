package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/genesisio/genesisio/internal/common"
)

func (a *App) Register(ctx context.Context) {

	email, err := GetSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}

	fullName, err := GetSimpleText(a.reader, "Enter full name", os.Stdout)
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

	if err := a.controller.Register(ctx, email, fullName, string(password)); err != nil {
		fmt.Printf("Registration failed: %v\n", err)
		return
	}

	fmt.Println("Account created. Check your email for the verification link, then log in.")
}
