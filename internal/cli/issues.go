package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/me/campusfix/internal/forms"
	"github.com/me/campusfix/pkg/model"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid issue id %q", s)
	}
	return id, nil
}

// filterFlags binds the listing filter flags to f.
func filterFlags(cmd *cobra.Command, f *model.IssueFilter) {
	cmd.Flags().StringVar((*string)(&f.Status), "status", "", "Only issues with this status")
	cmd.Flags().StringVar((*string)(&f.Priority), "priority", "", "Only issues with this priority")
	cmd.Flags().StringVar((*string)(&f.Category), "category", "", "Only issues in this category")
	cmd.Flags().StringVar(&f.Search, "search", "", "Search titles and descriptions")
	cmd.Flags().StringVar(&f.Ordering, "ordering", "", "Sort key, e.g. -created_at")
}

func newIssuesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "issues",
		Aliases: []string{"issue"},
		Short:   "Browse and follow reported issues",
	}
	cmd.AddCommand(
		newIssueListCmd(a, "list", "List issues visible to you", "/issues", false),
		newIssueListCmd(a, "mine", "List issues you reported", "/issues", true),
		newIssueListCmd(a, "public", "List public campus issues", "/public-issues", false),
		newIssueShowCmd(a),
		newIssueEditCmd(a),
		newIssueDeleteCmd(a),
		newIssueUpvoteCmd(a),
		newIssueCommentsCmd(a),
		newIssueCommentCmd(a),
	)
	return cmd
}

func newIssueListCmd(a *app, use, short, screen string, mine bool) *cobra.Command {
	var f model.IssueFilter
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.admit(screen); err != nil {
				return err
			}
			f.Mine = mine
			issues, err := check(a.api.Issues.List(cmd.Context(), f))
			if err != nil {
				return err
			}
			printIssues(cmd.OutOrStdout(), issues)
			return nil
		}),
	}
	filterFlags(cmd, &f)
	return cmd
}

func newIssueShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an issue with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.admit(fmt.Sprintf("/issues/%d", id)); err != nil {
				return err
			}
			is, err := check(a.api.Issues.Get(cmd.Context(), id))
			if err != nil {
				return err
			}
			printIssue(cmd.OutOrStdout(), is)
			return nil
		}),
	}
}

var errNothingToChange = errors.New("nothing to change")

// patchFlags binds issue edit flags; only flags the user set end up in the patch.
type patchFlags struct {
	title, description, category, priority, location, visibility, status string
}

func (p *patchFlags) bind(cmd *cobra.Command, withStatus bool) {
	f := cmd.Flags()
	f.StringVar(&p.title, "title", "", "New title")
	f.StringVar(&p.description, "description", "", "New description")
	f.StringVar(&p.category, "category", "", "New category")
	f.StringVar(&p.priority, "priority", "", "New priority")
	f.StringVar(&p.location, "location", "", "New location")
	f.StringVar(&p.visibility, "visibility", "", "public or private")
	if withStatus {
		f.StringVar(&p.status, "status", "", "New status")
	}
}

func (p *patchFlags) patch(cmd *cobra.Command) (model.IssuePatch, error) {
	var out model.IssuePatch
	changed := cmd.Flags().Changed
	if changed("title") {
		out.Title = &p.title
	}
	if changed("description") {
		out.Description = &p.description
	}
	if changed("location") {
		out.Location = &p.location
	}
	if changed("visibility") {
		if p.visibility != "public" && p.visibility != "private" {
			return out, errors.New("Visibility must be one of: public, private.")
		}
		out.Visibility = &p.visibility
	}
	if changed("category") {
		c := model.IssueCategory(p.category)
		if !c.Valid() {
			return out, fmt.Errorf("Unknown category %q.", p.category)
		}
		out.Category = &c
	}
	if changed("priority") {
		pr := model.IssuePriority(p.priority)
		if !pr.Valid() {
			return out, fmt.Errorf("Unknown priority %q.", p.priority)
		}
		out.Priority = &pr
	}
	if changed("status") {
		s := model.IssueStatus(p.status)
		if !s.Valid() {
			return out, fmt.Errorf("Unknown status %q.", p.status)
		}
		out.Status = &s
	}
	if out == (model.IssuePatch{}) {
		return out, errNothingToChange
	}
	return out, nil
}

func newIssueEditCmd(a *app) *cobra.Command {
	var p patchFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an issue you reported",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.admit(fmt.Sprintf("/issues/%d/edit", id)); err != nil {
				return err
			}
			patch, err := p.patch(cmd)
			if err != nil {
				return err
			}
			is, err := check(a.api.Issues.Update(cmd.Context(), id, patch))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Issue #%d updated.\n", is.ID)
			return nil
		}),
	}
	p.bind(cmd, false)
	return cmd
}

func newIssueDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an issue you reported",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.admit(fmt.Sprintf("/issues/%d", id)); err != nil {
				return err
			}
			if _, err := check(a.api.Issues.Delete(cmd.Context(), id)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Issue #%d deleted.\n", id)
			return nil
		}),
	}
}

func newIssueUpvoteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upvote <id>",
		Short: "Toggle your upvote on an issue",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.admit(fmt.Sprintf("/issues/%d", id)); err != nil {
				return err
			}
			res, err := check(a.api.Issues.Upvote(cmd.Context(), id))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d upvotes).\n", res.Message, res.UpvoteCount)
			return nil
		}),
	}
}

func newIssueCommentsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "comments <id>",
		Short: "List the comments on an issue",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.admit(fmt.Sprintf("/issues/%d", id)); err != nil {
				return err
			}
			comments, err := check(a.api.Issues.Comments(cmd.Context(), id))
			if err != nil {
				return err
			}
			printComments(cmd.OutOrStdout(), comments)
			return nil
		}),
	}
}

func newIssueCommentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <id> <text>...",
		Short: "Comment on an issue",
		Args:  cobra.MinimumNArgs(2),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.admit(fmt.Sprintf("/issues/%d", id)); err != nil {
				return err
			}
			return addComment(cmd, a, id, strings.Join(args[1:], " "))
		}),
	}
}

func addComment(cmd *cobra.Command, a *app, id int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New(model.MsgRequiredFields)
	}
	c, err := check(a.api.Issues.AddComment(cmd.Context(), id, text))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Comment #%d added to issue #%d.\n", c.ID, id)
	return nil
}

func newReportCmd(a *app) *cobra.Command {
	var in model.NewIssue
	var category, priority string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report a new facility issue",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if err := a.admit("/report"); err != nil {
				return err
			}
			in.Category = model.IssueCategory(category)
			in.Priority = model.IssuePriority(priority)
			if msg := forms.Issue(in); msg != "" {
				return errors.New(msg)
			}
			is, err := check(a.api.Issues.Create(cmd.Context(), in))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reported issue #%d: %s\n", is.ID, is.Title)
			return nil
		}),
	}

	f := cmd.Flags()
	f.StringVar(&in.Title, "title", "", "Short summary")
	f.StringVar(&in.Description, "description", "", "What is wrong")
	f.StringVar(&category, "category", "", "One of: facilities, it-infrastructure, plumbing, electrical, equipment, safety, maintenance, other")
	f.StringVar(&priority, "priority", "", "low, medium, high or critical (default medium)")
	f.StringVar(&in.Location, "location", "", "Building and room")
	f.StringVar(&in.Visibility, "visibility", "", "public or private (default public)")
	return cmd
}
