package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sharada257/Feedback-Management/internal/application/services"
	"github.com/sharada257/Feedback-Management/internal/domain/entities"
	"github.com/sharada257/Feedback-Management/internal/domain/permissions"
	apperrors "github.com/sharada257/Feedback-Management/pkg/errors"
)

func parseStatus(raw string) (entities.FeedbackStatus, error) {
	status, err := entities.ParseStatus(raw)
	if err != nil {
		return "", apperrors.NewValidationError(err.Error() + "; use open, in-progress or completed")
	}
	return status, nil
}

// loadedItem loads the board and returns one of its items
func (a *app) loadedItem(ctx context.Context, boardID, id int64) (entities.Feedback, error) {
	if _, err := a.collection.Load(ctx, boardID); err != nil {
		return entities.Feedback{}, err
	}
	f, ok := a.collection.Get(id)
	if !ok {
		return entities.Feedback{}, apperrors.NewNotFoundError(fmt.Sprintf("feedback #%d not found", id))
	}
	return f, nil
}

func newFeedbackCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "feedback",
		Aliases: []string{"fb"},
		Short:   "List, show, create, edit, delete or upvote feedback",
	}
	cmd.AddCommand(
		newFeedbackListCmd(a),
		newFeedbackShowCmd(a),
		newFeedbackCreateCmd(a),
		newFeedbackEditCmd(a),
		newFeedbackDeleteCmd(a),
		newFeedbackUpvoteCmd(a),
	)
	return cmd
}

func newFeedbackListCmd(a *app) *cobra.Command {
	var boardID int64
	var status string
	var filter services.FeedbackFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List feedback, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.guard(ctx); err != nil {
				return err
			}
			if status != "" {
				parsed, err := parseStatus(status)
				if err != nil {
					return err
				}
				filter.Status = parsed
			}
			items, err := a.collection.Load(ctx, boardID)
			if err != nil {
				return err
			}
			items, err = filter.Apply(items, time.Now())
			if err != nil {
				return err
			}
			renderFeedbackTable(a.out, items, a.viewer(ctx))
			return nil
		},
	}
	cmd.Flags().Int64Var(&boardID, "board", 0, "board id (all boards when 0)")
	cmd.Flags().StringVar(&status, "status", "", "open, in-progress or completed")
	cmd.Flags().StringVar(&filter.Date, "date", "", "created on this day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&filter.Preset, "preset", "", "one of "+strings.Join(services.Presets, ", "))
	cmd.Flags().StringVar(&filter.From, "from", "", "created on or after (YYYY-MM-DD)")
	cmd.Flags().StringVar(&filter.To, "to", "", "created on or before (YYYY-MM-DD)")
	return cmd
}

func newFeedbackShowCmd(a *app) *cobra.Command {
	var boardID int64
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one feedback item with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.guard(ctx); err != nil {
				return err
			}
			id, err := parseID(args[0], "feedback")
			if err != nil {
				return err
			}
			f, err := a.loadedItem(ctx, boardID, id)
			if err != nil {
				return err
			}
			// Prefetch failures leave comments empty; retry once on demand.
			if f.CommentCount > 0 && len(f.Comments) == 0 {
				if _, err := a.collection.LoadComments(ctx, id); err != nil {
					return err
				}
				f, _ = a.collection.Get(id)
			}
			renderFeedback(a.out, &f, a.viewer(ctx))
			return nil
		},
	}
	cmd.Flags().Int64Var(&boardID, "board", 0, "board id (all boards when 0)")
	return cmd
}

func newFeedbackCreateCmd(a *app) *cobra.Command {
	var input entities.FeedbackInput
	var status string
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Submit new feedback",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.guard(ctx); err != nil {
				return err
			}
			if status != "" {
				parsed, err := parseStatus(status)
				if err != nil {
					return err
				}
				input.Status = parsed
			}
			input.Title = strings.Join(args, " ")
			created, err := a.collection.Create(ctx, input)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Created #%d %q on board %d (%s).\n", created.ID, created.Title, created.Board, created.Status)
			return nil
		},
	}
	cmd.Flags().Int64Var(&input.Board, "board", 0, "board id (defaults to the loaded board)")
	cmd.Flags().StringVar(&input.Description, "description", "", "longer description")
	cmd.Flags().StringVar(&status, "status", "", "initial status (default open)")
	return cmd
}

func newFeedbackEditCmd(a *app) *cobra.Command {
	var boardID int64
	var title, description, status string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit your own feedback",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.guard(ctx); err != nil {
				return err
			}
			id, err := parseID(args[0], "feedback")
			if err != nil {
				return err
			}
			f, err := a.loadedItem(ctx, boardID, id)
			if err != nil {
				return err
			}
			if !permissions.CanEdit(a.viewer(ctx), f.User.ID) {
				return apperrors.NewValidationError("only the author can edit this feedback")
			}

			input := entities.FeedbackInput{Title: f.Title, Description: f.Description}
			if cmd.Flags().Changed("title") {
				input.Title = title
			}
			if cmd.Flags().Changed("description") {
				input.Description = description
			}
			if status != "" {
				if input.Status, err = parseStatus(status); err != nil {
					return err
				}
			}
			updated, err := a.collection.Update(ctx, id, input)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Updated #%d %q.\n", updated.ID, updated.Title)
			return nil
		},
	}
	cmd.Flags().Int64Var(&boardID, "board", 0, "board id (all boards when 0)")
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&status, "status", "", "new status")
	return cmd
}

func newFeedbackDeleteCmd(a *app) *cobra.Command {
	var boardID int64
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete feedback (author, admin or moderator)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.guard(ctx); err != nil {
				return err
			}
			id, err := parseID(args[0], "feedback")
			if err != nil {
				return err
			}
			f, err := a.loadedItem(ctx, boardID, id)
			if err != nil {
				return err
			}
			if !permissions.CanDelete(a.viewer(ctx), f.User.ID) {
				return apperrors.NewValidationError("you cannot delete this feedback")
			}
			if err := a.collection.Remove(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted #%d.\n", id)
			return nil
		},
	}
	cmd.Flags().Int64Var(&boardID, "board", 0, "board id (all boards when 0)")
	return cmd
}

func newFeedbackUpvoteCmd(a *app) *cobra.Command {
	var boardID int64
	cmd := &cobra.Command{
		Use:   "upvote <id>",
		Short: "Toggle your upvote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.guard(ctx); err != nil {
				return err
			}
			id, err := parseID(args[0], "feedback")
			if err != nil {
				return err
			}
			if _, err := a.loadedItem(ctx, boardID, id); err != nil {
				return err
			}
			result, err := a.collection.ToggleUpvote(ctx, id)
			if err != nil {
				return err
			}
			verb := "Removed upvote from"
			if user := a.viewer(ctx); user != nil && result.UpvotedBy.Contains(user.ID) {
				verb = "Upvoted"
			}
			fmt.Fprintf(a.out, "%s #%d (%d upvotes).\n", verb, id, result.UpvoteCount)
			return nil
		},
	}
	cmd.Flags().Int64Var(&boardID, "board", 0, "board id (all boards when 0)")
	return cmd
}

func findComment(items []entities.Feedback, id int64) (*entities.Comment, bool) {
	for i := range items {
		for j := range items[i].Comments {
			if items[i].Comments[j].ID == id {
				return &items[i].Comments[j], true
			}
		}
	}
	return nil, false
}

func newCommentCmd(a *app) *cobra.Command {
	var boardID int64
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "List, add, edit or delete comments",
	}
	cmd.PersistentFlags().Int64Var(&boardID, "board", 0, "board id (all boards when 0)")

	cmd.AddCommand(&cobra.Command{
		Use:  "list <feedback-id>",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.guard(ctx); err != nil {
				return err
			}
			id, err := parseID(args[0], "feedback")
			if err != nil {
				return err
			}
			comments, err := a.collection.LoadComments(ctx, id)
			if err != nil {
				return err
			}
			if len(comments) == 0 {
				fmt.Fprintln(a.out, "No comments.")
				return nil
			}
			user := a.viewer(ctx)
			for i := range comments {
				c := &comments[i]
				fmt.Fprintf(a.out, "[%d] %s, %s (%s): %s\n", c.ID, ownerName(c.User), ago(c.CreatedAt), permissions.ForComment(user, c), c.Text)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:  "add <feedback-id> <text>",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.guard(ctx); err != nil {
				return err
			}
			id, err := parseID(args[0], "feedback")
			if err != nil {
				return err
			}
			if _, err := a.loadedItem(ctx, boardID, id); err != nil {
				return err
			}
			comment, err := a.collection.AddComment(ctx, id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			f, _ := a.collection.Get(id)
			fmt.Fprintf(a.out, "Added comment %d to #%d (%d comments).\n", comment.ID, id, f.CommentCount)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:  "edit <comment-id> <text>",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.guard(ctx); err != nil {
				return err
			}
			id, err := parseID(args[0], "comment")
			if err != nil {
				return err
			}
			items, err := a.collection.Load(ctx, boardID)
			if err != nil {
				return err
			}
			comment, ok := findComment(items, id)
			if !ok {
				return apperrors.NewNotFoundError(fmt.Sprintf("comment %d not found", id))
			}
			if !permissions.CanEdit(a.viewer(ctx), comment.User.ID) {
				return apperrors.NewValidationError("only the author can edit this comment")
			}
			if _, err := a.collection.UpdateComment(ctx, id, strings.Join(args[1:], " ")); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Updated comment %d.\n", id)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:  "delete <comment-id>",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.guard(ctx); err != nil {
				return err
			}
			id, err := parseID(args[0], "comment")
			if err != nil {
				return err
			}
			items, err := a.collection.Load(ctx, boardID)
			if err != nil {
				return err
			}
			comment, ok := findComment(items, id)
			if !ok {
				return apperrors.NewNotFoundError(fmt.Sprintf("comment %d not found", id))
			}
			if !permissions.CanDelete(a.viewer(ctx), comment.User.ID) {
				return apperrors.NewValidationError("you cannot delete this comment")
			}
			if err := a.collection.DeleteComment(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted comment %d.\n", id)
			return nil
		},
	})
	return cmd
}

func newKanbanCmd(a *app) *cobra.Command {
	var boardID int64
	cmd := &cobra.Command{
		Use:   "kanban",
		Short: "Show feedback grouped by status (admins and moderators)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.guard(ctx, moderationRoles...); err != nil {
				return err
			}
			items, err := a.collection.Load(ctx, boardID)
			if err != nil {
				return err
			}
			renderKanban(a.out, services.GroupByStatus(items))
			return nil
		},
	}
	cmd.Flags().Int64Var(&boardID, "board", 0, "board id (all boards when 0)")
	return cmd
}

func newMoveCmd(a *app) *cobra.Command {
	var boardID int64
	var wait bool
	cmd := &cobra.Command{
		Use:   "move <id> <status>",
		Short: "Move feedback to another Kanban column (admins and moderators)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.guard(ctx, moderationRoles...); err != nil {
				return err
			}
			id, err := parseID(args[0], "feedback")
			if err != nil {
				return err
			}
			status, err := parseStatus(args[1])
			if err != nil {
				return err
			}
			if !wait && !a.interactive {
				return apperrors.NewValidationError("--wait=false is only available inside `feedbackctl shell`")
			}
			// Only reload when the item is not already held, so an earlier
			// pending move in the shell stays visible.
			if _, ok := a.collection.Get(id); !ok {
				if _, err := a.loadedItem(ctx, boardID, id); err != nil {
					return err
				}
			}

			results, err := a.collection.MoveFeedback(ctx, id, status)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "#%d -> %s\n", id, status)
			if !wait {
				// The shell reports the outcome from the event bus.
				a.inflight.Add(1)
				go func() {
					defer a.inflight.Done()
					<-results
				}()
				return nil
			}

			select {
			case res := <-results:
				if res.Err != nil {
					if res.RolledBack {
						fmt.Fprintf(a.out, "Move failed; #%d is back in %s.\n", id, res.Status)
					}
					return res.Err
				}
				fmt.Fprintf(a.out, "Saved: #%d is %s.\n", id, res.Status)
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}
	cmd.Flags().Int64Var(&boardID, "board", 0, "board id (all boards when 0)")
	cmd.Flags().BoolVar(&wait, "wait", true, "wait for the server to confirm (--wait=false only in the shell)")
	return cmd
}
