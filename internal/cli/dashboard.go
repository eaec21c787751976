package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/me/campusfix/internal/route"
	"github.com/me/campusfix/pkg/model"
)

func newDashboardCmd(a *app) *cobra.Command {
	var recent int
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show your issue summary and recent activity",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.admit(route.HomeUser); err != nil {
				return err
			}
			ctx := cmd.Context()
			stats, err := check(a.api.Dashboard.Stats(ctx))
			if err != nil {
				return err
			}
			issues, err := check(a.api.Dashboard.RecentIssues(ctx, recent))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			snap := a.session.Snapshot()
			fmt.Fprintf(out, "Welcome back, %s.\n\n", snap.User.FullName())
			fmt.Fprintf(out, "  Total:        %d\n", stats.TotalIssues)
			fmt.Fprintf(out, "  Open:         %d\n", stats.OpenIssues)
			fmt.Fprintf(out, "  In progress:  %d\n", stats.InProgressIssues)
			fmt.Fprintf(out, "  Resolved:     %d\n", stats.ResolvedIssues)
			fmt.Fprintf(out, "  Closed:       %d\n", stats.ClosedIssues)
			fmt.Fprintf(out, "  Resolution:   %s\n", percent(stats.ResolutionRate))
			if stats.AvgResponseTimeHours > 0 {
				fmt.Fprintf(out, "  Avg response: %.1fh\n", stats.AvgResponseTimeHours)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Recent issues:")
			printIssues(out, issues)

			// The unread badge is best effort; a failure leaves it out.
			if n, ok := a.api.Notifications.UnreadCount(ctx).Value(); ok && n.Count > 0 {
				fmt.Fprintf(out, "\nYou have %d unread notification(s).\n", n.Count)
			}
			return nil
		}),
	}
	cmd.Flags().IntVar(&recent, "recent", 5, "Number of recent issues to show")
	return cmd
}

func newNotificationsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif"},
		Short:   "Read your notifications",
		Args:    cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.requireSignIn(); err != nil {
				return err
			}
			list, err := check(a.api.Notifications.List(cmd.Context()))
			if err != nil {
				return err
			}
			printNotifications(cmd.OutOrStdout(), list)
			return nil
		}),
	}

	read := &cobra.Command{
		Use:   "read <id>",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.requireSignIn(); err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid notification id %q", args[0])
			}
			res, err := check(a.api.Notifications.MarkRead(cmd.Context(), id))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		}),
	}

	readAll := &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification as read",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.requireSignIn(); err != nil {
				return err
			}
			res, err := check(a.api.Notifications.MarkAllRead(cmd.Context()))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		}),
	}

	unread := &cobra.Command{
		Use:   "unread",
		Short: "Show the number of unread notifications",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.requireSignIn(); err != nil {
				return err
			}
			n, err := check(a.api.Notifications.UnreadCount(cmd.Context()))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n.Count)
			return nil
		}),
	}

	cmd.AddCommand(read, readAll, unread)
	return cmd
}

func newAdminCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Campus-wide issue management (administrators only)",
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show campus-wide issue statistics",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.admit(route.HomeAdmin); err != nil {
				return err
			}
			st, err := check(a.api.Dashboard.AdminStats(cmd.Context()))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Campus issues: %d total, %d open, %d in progress, %d resolved, %d closed\n",
				st.TotalIssues, st.OpenIssues, st.InProgressIssues, st.ResolvedIssues, st.ClosedIssues)
			fmt.Fprintf(out, "Resolution rate: %s\n", percent(st.ResolutionRate))
			if len(st.CategoryStats) > 0 {
				fmt.Fprintln(out, "\nBy category:")
				for _, c := range st.CategoryStats {
					fmt.Fprintf(out, "  %-18s %d\n", c.Category, c.Count)
				}
			}
			if len(st.PriorityStats) > 0 {
				fmt.Fprintln(out, "\nBy priority:")
				for _, p := range st.PriorityStats {
					fmt.Fprintf(out, "  %-18s %d\n", p.Priority, p.Count)
				}
			}
			return nil
		}),
	}

	var f model.IssueFilter
	issues := &cobra.Command{
		Use:   "issues",
		Short: "List every reported issue",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.admit(route.HomeAdmin); err != nil {
				return err
			}
			list, err := check(a.api.Issues.List(cmd.Context(), f))
			if err != nil {
				return err
			}
			printIssues(cmd.OutOrStdout(), list)
			return nil
		}),
	}
	filterFlags(issues, &f)

	var p patchFlags
	var comment string
	respond := &cobra.Command{
		Use:   "respond <id>",
		Short: "Update an issue's status or priority and reply to the reporter",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.admit(fmt.Sprintf("/admin/issues/%d/responses", id)); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			hasComment := strings.TrimSpace(comment) != ""
			patch, perr := p.patch(cmd)
			switch {
			case errors.Is(perr, errNothingToChange) && hasComment:
			case perr != nil:
				return perr
			default:
				is, err := check(a.api.Issues.Update(cmd.Context(), id, patch))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Issue #%d is now %s (%s priority).\n", is.ID, is.Status, is.Priority)
			}
			if hasComment {
				return addComment(cmd, a, id, comment)
			}
			return nil
		}),
	}
	p.bind(respond, true)
	respond.Flags().StringVar(&comment, "comment", "", "Reply posted as a comment")

	cmd.AddCommand(stats, issues, respond)
	return cmd
}
