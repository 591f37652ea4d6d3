// Package console holds the interactive prompts of the CLI.
package console

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"

	"mailtriage/internal/service"
)

// ErrExit is returned when the operator chooses not to start a batch.
var ErrExit = errors.New("exit requested")

// PromptRunOptions asks for the batch settings, starting from defaults.
func PromptRunOptions(ctx context.Context, defaults service.RunOptions) (service.RunOptions, error) {
	opts := defaults
	proceed := true
	limit := strconv.Itoa(max(defaults.Limit, 1))

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Start processing emails?").
				Affirmative("Continue").
				Negative("Exit").
				Value(&proceed),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Use simulated emails?").
				Description("Reads the sample fixture instead of the IMAP inbox").
				Value(&opts.Simulate),
			huh.NewInput().
				Title("How many emails to process (max)?").
				Value(&limit).
				Validate(validateLimit),
			huh.NewConfirm().
				Title("Send all responses as drafts (dry run)?").
				Value(&opts.DryRun),
		).WithHideFunc(func() bool { return !proceed }),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Mark fetched emails as seen on the server?").
				Value(&opts.MarkSeen),
		).WithHideFunc(func() bool { return !proceed || opts.Simulate }),
	)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return opts, ErrExit
		}
		return opts, fmt.Errorf("run options form: %w", err)
	}
	if !proceed {
		return opts, ErrExit
	}

	opts.Limit, _ = strconv.Atoi(limit)
	if opts.Simulate {
		opts.MarkSeen = false
	}
	return opts, nil
}

func validateLimit(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return errors.New("enter a whole number of at least 1")
	}
	return nil
}
