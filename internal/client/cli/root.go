package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	user := a.controller.User()
	if user == nil {
		return ""
	}
	return fmt.Sprintf("(%s)", user.Email)
}

// Root runs the interactive loop. It reads one line per iteration, parses
// the first token as the command, and dispatches. The loop exits on EOF or
// "exit"/"quit".
func (a *App) Root(ctx context.Context) {

	fmt.Println("Welcome to Genesisio CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("genesisio %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Println("Available commands: profile, logout, exit")
			} else {
				fmt.Println("Available commands: register, login, forgot, exit")
			}

		case "register":
			a.Register(ctx)
		case "login":
			a.Login(ctx)
		case "forgot":
			a.Forgot(ctx)
		case "profile":
			a.ShowProfile(ctx)
		case "logout":
			a.Logout(ctx)
		case "exit", "quit":
			if a.isLoggedIn() {
				a.controller.Logout(ctx)
			}
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}
}
