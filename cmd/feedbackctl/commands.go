package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/sharada257/Feedback-Management/internal/application/services"
	"github.com/sharada257/Feedback-Management/internal/domain/entities"
	"github.com/sharada257/Feedback-Management/internal/infrastructure/observability"
)

// Roles allowed on the moderation surfaces (Kanban board, users table).
var moderationRoles = []entities.Role{entities.RoleAdmin, entities.RoleModerator}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "feedbackctl",
		Short:         "Work with feedback boards from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context())
		},
	}
	root.SetOut(a.out)

	root.AddCommand(
		newRegisterCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newStatsCmd(a),
		newBoardsCmd(a),
		newBoardCmd(a),
		newFeedbackCmd(a),
		newCommentCmd(a),
		newKanbanCmd(a),
		newMoveCmd(a),
		newUsersCmd(a),
		newShellCmd(a),
	)
	return root
}

// guard enforces a route allow-list; an empty list only requires a login
func (a *app) guard(ctx context.Context, roles ...entities.Role) error {
	if a.session.Guard(ctx, roles...) != services.GuardAllow {
		return errRedirected
	}
	return nil
}

// viewer resolves the logged-in user for permission hints. A failure only
// hides the hints.
func (a *app) viewer(ctx context.Context) *entities.CurrentUser {
	user, err := a.session.CurrentUser(ctx)
	if err != nil {
		observability.LoggerFromContext(ctx).Debug().Err(err).Msg("could not resolve current user")
		return nil
	}
	return user
}

func (a *app) readPassword(prompt string) (string, error) {
	rl := a.rl
	if rl == nil {
		var err error
		if rl, err = readline.NewEx(&readline.Config{Stdout: a.out}); err != nil {
			return "", err
		}
		defer rl.Close()
	}

	password, err := rl.ReadPassword(prompt)
	if err != nil {
		return "", err
	}
	return string(password), nil
}

func newRegisterCmd(a *app) *cobra.Command {
	var email, role, password string
	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = a.readPassword("Password: "); err != nil {
					return err
				}
			}
			resp, err := a.auth.Register(cmd.Context(), entities.RegisterInput{
				Username: args[0],
				Password: password,
				Email:    email,
				Role:     entities.Role(role),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Registered %s as %s.\n", resp.Username, resp.Role)
			a.nav.ToLogin()
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&role, "role", string(entities.RoleContributor), "admin, moderator or contributor")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in and remember the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = a.readPassword("Password: "); err != nil {
					return err
				}
			}
			session, err := a.auth.Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Logged in as %s (%s).\n", session.Username, session.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out.")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.guard(ctx); err != nil {
				return err
			}
			user, err := a.session.CurrentUser(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s (#%s) <%s> role: %s\n", user.Username, user.ID, user.Email, user.Role)
			return nil
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	var boardID int64
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the dashboard for the first board, or for --board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.guard(ctx); err != nil {
				return err
			}

			if boardID != 0 {
				stats, err := a.dashboard.Select(ctx, boardID)
				if err != nil {
					return err
				}
				renderStats(a.out, stats)
				return nil
			}

			view, err := a.dashboard.Open(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Welcome, %s.\n\n", view.User.Username)
			renderBoards(a.out, view.Boards, view.SelectedBoard)
			if view.Stats != nil {
				fmt.Fprintln(a.out)
				renderStats(a.out, view.Stats)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&boardID, "board", 0, "board id")
	return cmd
}

func newUsersCmd(a *app) *cobra.Command {
	var q services.UserQuery
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List accounts (admins and moderators)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.guard(ctx, moderationRoles...); err != nil {
				return err
			}
			all, err := a.users.List(ctx, services.UserQuery{})
			if err != nil {
				return err
			}
			q.Role = strings.ToLower(q.Role)
			users, err := services.FilterUsers(all, q)
			if err != nil {
				return err
			}
			renderUsers(a.out, users, services.UniqueRoles(all))
			return nil
		},
	}
	cmd.Flags().StringVar(&q.Search, "search", "", "match name, email or username")
	cmd.Flags().StringVar(&q.Role, "role", "", "only this role")
	cmd.Flags().StringVar(&q.SortField, "sort", "name", "name, username, email or role")
	cmd.Flags().BoolVar(&q.Descending, "desc", false, "sort descending")
	return cmd
}
