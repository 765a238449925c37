package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context, args []string) error
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context) error
	Code(ctx context.Context, args []string) error
	Verify(ctx context.Context, args []string) error
	Sessions(ctx context.Context) error
	Session(ctx context.Context, args []string) error
	Profile(ctx context.Context, args []string) error
}

// runREPL reads commands line by line from reader and dispatches them to a.
// Arguments after the command word are passed through; handlers prompt for
// whatever is missing using the same reader. The loop exits on EOF, on
// "exit"/"quit", or when ctx is done.
//
// Errors returned by handlers are ignored here; handlers report their own
// errors to the user.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}

		printlnFn(fmt.Sprintf("totp %s> ", statusFn()))
		line, readErr := reader.ReadString('\n')

		parts := strings.Fields(line)
		if len(parts) == 0 {
			if readErr != nil {
				return
			}
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: code [user], verify <user> [code], sessions, session <user>, profile <user>, logout, exit")
			} else {
				printlnFn("Available commands: register [user] [display name], login [user], code <user>, exit")
			}

		case "register":
			_ = a.Register(ctx, args)

		case "login":
			_ = a.Login(ctx, args)

		case "logout":
			_ = a.Logout(ctx)

		case "code":
			_ = a.Code(ctx, args)

		case "verify":
			_ = a.Verify(ctx, args)

		case "sessions", "ls":
			_ = a.Sessions(ctx)

		case "session":
			_ = a.Session(ctx, args)

		case "profile":
			_ = a.Profile(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if readErr != nil {
			return
		}
	}
}
