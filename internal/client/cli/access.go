package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/totpgate/internal/api"
)

const timeLayout = "15:04:05 MST"

// Code shows the current code of the named user, or of the logged in user
// when no name is given.
func (a *App) Code(ctx context.Context, args []string) error {
	target := a.userName
	if len(args) > 0 {
		target = args[0]
	}
	if target == "" {
		var err error
		if target, err = getSimpleText(a.reader, "Enter username", a.out); err != nil {
			return err
		}
	}

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	resp, err := a.accessService.Code(ctx, target)
	if err != nil {
		return a.fail(err)
	}

	fmt.Fprintf(a.out, "Code for %s: %s (changes in %ds)\n", target, resp.Code, resp.RemainingSeconds)
	return nil
}

// Verify reads "verify <user> [code]" and opens a verification session with
// user when the code is accepted.
func (a *App) Verify(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	target, err := argOrPrompt(args, 0, a.reader, "Whose code are you verifying?", a.out)
	if err != nil {
		return err
	}
	code, err := argOrPrompt(args, 1, a.reader, "Enter the code "+target+" shows you", a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	resp, err := a.accessService.Verify(ctx, target, code)
	if err != nil {
		return a.fail(err)
	}

	if !resp.Valid {
		fmt.Fprintln(a.out, "Verification failed:", resp.Message)
		return nil
	}

	msg := fmt.Sprintf("Verified %s. Access granted for %d min", target, resp.ValiditySeconds/60)
	if resp.ExpiresAt != nil {
		msg += fmt.Sprintf(" (until %s)", resp.ExpiresAt.Local().Format(timeLayout))
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

// Sessions lists every live session the logged in user holds.
func (a *App) Sessions(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	list, err := a.accessService.Sessions(ctx)
	if err != nil {
		return a.fail(err)
	}

	if len(list) == 0 {
		fmt.Fprintln(a.out, "No live sessions.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "USER\tNAME\tVERIFIED\tEXPIRES\tLEFT")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			s.TargetUsername,
			s.TargetDisplayName,
			s.VerifiedAt.Local().Format(timeLayout),
			s.ExpiresAt.Local().Format(timeLayout),
			remaining(s),
		)
	}
	return tw.Flush()
}

// Session shows the live session with one user, if any.
func (a *App) Session(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	target, err := argOrPrompt(args, 0, a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	s, err := a.accessService.Session(ctx, target)
	if err != nil {
		return a.fail(err)
	}
	if s == nil {
		fmt.Fprintf(a.out, "No live session with %s.\n", target)
		return nil
	}

	fmt.Fprintf(a.out, "Session with %s: verified %s, expires %s (%s left)\n",
		s.TargetUsername,
		s.VerifiedAt.Local().Format(timeLayout),
		s.ExpiresAt.Local().Format(timeLayout),
		remaining(s),
	)
	return nil
}

// Profile prints the protected profile of a user, which requires a live
// session with them.
func (a *App) Profile(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	target, err := argOrPrompt(args, 0, a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.callCtx(ctx)
	defer cancel()

	p, err := a.accessService.Profile(ctx, target)
	if err != nil {
		return a.fail(err)
	}

	fmt.Fprintf(a.out, "Username:     %s\n", p.Username)
	fmt.Fprintf(a.out, "Display name: %s\n", p.DisplayName)
	if p.Username != a.userName {
		fmt.Fprintf(a.out, "Access ends in %d min\n", p.RemainingMinutes)
	}
	return nil
}

func remaining(s *api.Session) string {
	return (time.Duration(s.RemainingSeconds) * time.Second).String()
}
