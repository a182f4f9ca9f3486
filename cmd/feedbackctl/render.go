package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sharada257/Feedback-Management/internal/application/services"
	"github.com/sharada257/Feedback-Management/internal/domain/entities"
	"github.com/sharada257/Feedback-Management/internal/domain/permissions"
	apperrors "github.com/sharada257/Feedback-Management/pkg/errors"
)

// errRedirected means a guard already told the user what to do
var errRedirected = errors.New("redirected")

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

func ago(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func ownerName(o entities.OwnerRef) string {
	if o.Username != "" {
		return o.Username
	}
	if o.ID != "" {
		return "#" + o.ID
	}
	return "-"
}

func renderFeedbackTable(out io.Writer, items []entities.Feedback, user *entities.CurrentUser) {
	if len(items) == 0 {
		fmt.Fprintln(out, "No feedback.")
		return
	}
	w := newTable(out)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tBOARD\tBY\tUPVOTES\tCOMMENTS\tCREATED\tYOU CAN")
	for i := range items {
		f := &items[i]
		upvotes := humanize.Comma(int64(f.UpvoteCount))
		if user != nil && f.UpvotedBy.Contains(user.ID) {
			upvotes += "*"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\t%d\t%s\t%s\n",
			f.ID, truncate(f.Title, 40), f.Status, f.Board, ownerName(f.User),
			upvotes, f.CommentCount, ago(f.CreatedAt), permissions.ForFeedback(user, f))
	}
	_ = w.Flush()
}

func renderFeedback(out io.Writer, f *entities.Feedback, user *entities.CurrentUser) {
	fmt.Fprintf(out, "#%d %s\n", f.ID, f.Title)
	fmt.Fprintf(out, "  status: %s   board: %d   by: %s   %s\n", f.Status, f.Board, ownerName(f.User), ago(f.CreatedAt))
	fmt.Fprintf(out, "  upvotes: %d   comments: %d   you can: %s\n", f.UpvoteCount, f.CommentCount, permissions.ForFeedback(user, f))
	if f.Description != "" {
		fmt.Fprintf(out, "\n  %s\n", strings.ReplaceAll(f.Description, "\n", "\n  "))
	}
	if len(f.Comments) == 0 {
		return
	}
	fmt.Fprintln(out)
	for i := range f.Comments {
		c := &f.Comments[i]
		fmt.Fprintf(out, "  [%d] %s, %s (%s): %s\n", c.ID, ownerName(c.User), ago(c.CreatedAt), permissions.ForComment(user, c), c.Text)
	}
}

func renderKanban(out io.Writer, columns []services.KanbanColumn) {
	for _, column := range columns {
		fmt.Fprintf(out, "== %s (%d)\n", column.Status, len(column.Items))
		for _, f := range column.Items {
			fmt.Fprintf(out, "   #%-5d %s  [%d upvotes]\n", f.ID, truncate(f.Title, 50), f.UpvoteCount)
		}
	}
}

func renderBoards(out io.Writer, boards []entities.Board, selected int64) {
	if len(boards) == 0 {
		fmt.Fprintln(out, "No boards.")
		return
	}
	w := newTable(out)
	fmt.Fprintln(w, "\tID\tNAME\tVISIBILITY")
	for _, b := range boards {
		marker := ""
		if b.ID == selected {
			marker = ">"
		}
		visibility := "public"
		if !b.IsPublic {
			visibility = "private"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", marker, b.ID, b.Name, visibility)
	}
	_ = w.Flush()
}

func renderStats(out io.Writer, stats *entities.BoardStats) {
	fmt.Fprintf(out, "Active: %s   Total: %s\n", humanize.Comma(int64(stats.ActiveFeedbacks)), humanize.Comma(int64(stats.TotalFeedbacks)))
	for _, status := range entities.Statuses {
		fmt.Fprintf(out, "  %-12s %d\n", status, stats.FeedbacksByStatus[status])
	}
	if len(stats.TrendingFeedbacks) == 0 {
		return
	}
	fmt.Fprintln(out, "Trending:")
	for i, f := range stats.TrendingFeedbacks {
		fmt.Fprintf(out, "  %d. #%d %s (%d upvotes)\n", i+1, f.ID, truncate(f.Title, 50), f.UpvoteCount)
	}
}

func renderUsers(out io.Writer, users []entities.User, roles []string) {
	if len(users) == 0 {
		fmt.Fprintln(out, "No users.")
		return
	}
	w := newTable(out)
	fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tEMAIL\tROLE\tJOINED")
	for _, u := range users {
		joined := "-"
		if u.DateJoined != nil {
			joined = ago(*u.DateJoined)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", u.ID.ID, u.Username, u.Name, u.Email, u.Role, joined)
	}
	_ = w.Flush()
	fmt.Fprintf(out, "Roles: %s\n", strings.Join(roles, ", "))
}

// describeError turns an error into the message shown to the user
func describeError(err error) string {
	switch {
	case errors.Is(err, errRedirected):
		return ""
	case errors.Is(err, services.ErrSuperseded):
		return ""
	case apperrors.IsUnauthorized(err):
		if payload := apperrors.Payload(err); payload["error"] != nil {
			return fmt.Sprint(payload["error"])
		}
		return "Your session has expired. Please log in again."
	case apperrors.IsClientError(err):
		if details := payloadDetails(apperrors.Payload(err)); details != "" {
			return details
		}
		return message(err)
	case apperrors.IsRetryable(err):
		return message(err) + " (try again)"
	default:
		return message(err)
	}
}

// message drops the error type prefix and keeps the server's detail
func message(err error) string {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return err.Error()
	}
	var httpErr *apperrors.HTTPError
	if errors.As(err, &httpErr) && httpErr.Detail() != "" {
		return appErr.Message + ": " + httpErr.Detail()
	}
	return appErr.Message
}

// payloadDetails flattens a field-error body into "field: message" lines
func payloadDetails(payload map[string]interface{}) string {
	if len(payload) == 0 {
		return ""
	}
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		var msg string
		switch v := payload[k].(type) {
		case []interface{}:
			parts := make([]string, 0, len(v))
			for _, p := range v {
				parts = append(parts, fmt.Sprint(p))
			}
			msg = strings.Join(parts, " ")
		default:
			msg = fmt.Sprint(v)
		}
		if k == "detail" || k == "error" || k == "non_field_errors" {
			lines = append(lines, msg)
		} else {
			lines = append(lines, k+": "+msg)
		}
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
