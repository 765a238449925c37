package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/totpgate/internal/client/client"
	"github.com/dmitrijs2005/totpgate/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errNotLoggedIn = errors.New("not logged in")

// fail reports err to the user and returns it.
func (a *App) fail(err error) error {
	fmt.Fprintln(a.out, "Error:", describeError(err))
	return err
}

func describeError(err error) string {
	switch {
	case errors.Is(err, errNotLoggedIn):
		return "please login first"
	case errors.Is(err, client.ErrUnavailable):
		return "server is unavailable, try again later"
	case errors.Is(err, client.ErrUnauthorized):
		return "wrong username or password, or your login has expired"
	case errors.Is(err, client.ErrPermissionDenied):
		return "no live verification session, verify this user's code first"
	default:
		return err.Error()
	}
}

func (a *App) requireLogin() error {
	if !a.isLoggedIn() {
		return a.fail(errNotLoggedIn)
	}
	return nil
}

// Register reads "register [user] [display name...]", prompting for what is
// missing, then asks for a password and creates the account.
func (a *App) Register(ctx context.Context, args []string) error {
	userName, err := argOrPrompt(args, 0, a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	var displayName string
	if len(args) > 1 {
		displayName = strings.Join(args[1:], " ")
	} else if displayName, err = getSimpleText(a.reader, "Enter display name (optional)", a.out); err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	if err := a.authService.Register(ctx, userName, displayName, password); err != nil {
		return a.fail(err)
	}

	fmt.Fprintln(a.out, "Success! You can login now.")
	return nil
}

// Login authenticates and remembers the username for the prompt.
func (a *App) Login(ctx context.Context, args []string) error {
	userName, err := argOrPrompt(args, 0, a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	if err := a.authService.Login(ctx, userName, password); err != nil {
		return a.fail(err)
	}

	a.userName = strings.TrimSpace(userName)
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

// Logout drops the tokens held by the client.
func (a *App) Logout(ctx context.Context) error {
	a.authService.Logout()
	a.userName = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
