package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sharada257/Feedback-Management/internal/domain/entities"
)

func parseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(raw, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, raw)
	}
	return id, nil
}

func newBoardsCmd(a *app) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "boards",
		Short: "List boards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.guard(ctx); err != nil {
				return err
			}
			boards, err := a.boards.List(ctx, refresh)
			if err != nil {
				return err
			}
			renderBoards(a.out, boards, a.collection.BoardID())
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "refetch instead of using the cached list")
	return cmd
}

func newBoardCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show, create, rename or delete a board",
	}

	cmd.AddCommand(&cobra.Command{
		Use:  "show <id>",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.guard(ctx); err != nil {
				return err
			}
			id, err := parseID(args[0], "board")
			if err != nil {
				return err
			}
			board, err := a.boards.Get(ctx, id)
			if err != nil {
				return err
			}
			renderBoards(a.out, []entities.Board{*board}, 0)
			return nil
		},
	})

	var private bool
	create := &cobra.Command{
		Use:  "create <name>",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.guard(ctx); err != nil {
				return err
			}
			board, err := a.boards.Create(ctx, entities.BoardInput{Name: strings.Join(args, " "), IsPublic: !private})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Created board #%d %s.\n", board.ID, board.Name)
			return nil
		},
	}
	create.Flags().BoolVar(&private, "private", false, "only admins and moderators can see it")
	cmd.AddCommand(create)

	var renamePrivate bool
	rename := &cobra.Command{
		Use:  "rename <id> <name>",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.guard(ctx); err != nil {
				return err
			}
			id, err := parseID(args[0], "board")
			if err != nil {
				return err
			}
			board, err := a.boards.Update(ctx, id, entities.BoardInput{Name: strings.Join(args[1:], " "), IsPublic: !renamePrivate})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Board #%d is now %s.\n", board.ID, board.Name)
			return nil
		},
	}
	rename.Flags().BoolVar(&renamePrivate, "private", false, "only admins and moderators can see it")
	cmd.AddCommand(rename)

	cmd.AddCommand(&cobra.Command{
		Use:  "delete <id>",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.guard(ctx); err != nil {
				return err
			}
			id, err := parseID(args[0], "board")
			if err != nil {
				return err
			}
			if err := a.boards.Delete(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted board #%d.\n", id)
			return nil
		},
	})
	return cmd
}
