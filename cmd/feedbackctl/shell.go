package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/sharada257/Feedback-Management/internal/domain/entities"
	"github.com/sharada257/Feedback-Management/internal/domain/providers"
)

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session sharing one login and one loaded board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runShell(cmd.Context())
		},
	}
}

func (a *app) runShell(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          a.prompt(ctx),
		HistoryFile:     filepath.Join(filepath.Dir(a.cfg.Session.FilePath), "history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()
	a.rl = rl
	defer func() { a.rl = nil }()

	a.interactive = true
	defer func() { a.interactive = false }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	// Moves sent with --wait=false settle before the shell returns.
	defer a.inflight.Wait()

	updates, err := a.bus.Subscribe(ctx, providers.EventChannelFeedbackUpdates)
	if err != nil {
		return err
	}
	go printEvents(rl.Stdout(), updates)

	fmt.Fprintln(a.out, "Type `help` for commands, `exit` to leave.")
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		args := parseArgs(strings.TrimSpace(line))
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "exit", "quit":
			return nil
		case "shell":
			fmt.Fprintln(a.out, "Already in the shell.")
			continue
		}

		sub := newRootCmd(a)
		sub.SetArgs(args)
		if err := sub.ExecuteContext(ctx); err != nil {
			if msg := describeError(err); msg != "" {
				fmt.Fprintln(a.out, msg)
			}
		}
		rl.SetPrompt(a.prompt(ctx))
	}
}

func (a *app) prompt(ctx context.Context) string {
	if session, ok := a.session.Current(ctx); ok {
		return fmt.Sprintf("feedbackctl(%s)> ", session.Username)
	}
	return "feedbackctl> "
}

// printEvents reports background outcomes the user did not wait for
func printEvents(out io.Writer, updates <-chan *entities.CollectionEvent) {
	for event := range updates {
		switch event.Type {
		case entities.EventMoveConfirmed:
			fmt.Fprintf(out, "* #%d saved as %s\n", event.FeedbackID, event.Status)
		case entities.EventMoveFailed:
			fmt.Fprintf(out, "* move of #%d failed (%s); now %s\n", event.FeedbackID, event.Error, event.Status)
		case entities.EventSessionEnded:
			fmt.Fprintln(out, "* session ended")
		}
	}
}

// parseArgs splits a shell line on spaces, keeping double-quoted text together
func parseArgs(input string) []string {
	var args []string
	var current strings.Builder
	inQuotes := false
	quoted := false

	for _, r := range input {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			quoted = true
		case r == ' ' && !inQuotes:
			if current.Len() > 0 || quoted {
				args = append(args, current.String())
				current.Reset()
			}
			quoted = false
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 || quoted {
		args = append(args, current.String())
	}
	return args
}
