package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	dto "github.com/prometheus/client_model/go"

	"github.com/me/campusfix/internal/metrics"
	"github.com/me/campusfix/pkg/model"
)

const issueRow = "%-6s  %-12s  %-9s  %-18s  %-36s  %s\n"

// printIssues writes a table of issues, newest activity in the last column.
func printIssues(w io.Writer, issues []model.Issue) {
	if len(issues) == 0 {
		fmt.Fprintln(w, "No issues found.")
		return
	}
	fmt.Fprintf(w, issueRow, "ID", "STATUS", "PRIORITY", "CATEGORY", "TITLE", "UPDATED")
	fmt.Fprintf(w, issueRow, "--", "------", "--------", "--------", "-----", "-------")
	for _, is := range issues {
		fmt.Fprintf(w, issueRow,
			fmt.Sprint(is.ID), is.Status, is.Priority, is.Category,
			truncate(is.Title, 36), ago(is.UpdatedAt))
	}
}

// printIssue writes the full detail of one issue.
func printIssue(w io.Writer, is model.IssueDetail) {
	fmt.Fprintf(w, "Issue #%d: %s\n", is.ID, is.Title)
	fmt.Fprintf(w, "  Status:    %s\n", is.Status)
	fmt.Fprintf(w, "  Priority:  %s\n", is.Priority)
	fmt.Fprintf(w, "  Category:  %s\n", is.Category)
	fmt.Fprintf(w, "  Location:  %s\n", is.Location)
	if is.Reporter != nil {
		fmt.Fprintf(w, "  Reporter:  %s\n", is.Reporter.FullName())
	}
	if is.AssignedTo != nil {
		fmt.Fprintf(w, "  Assigned:  %s\n", is.AssignedTo.FullName())
	}
	upvoted := ""
	if is.UpvotedByUser {
		upvoted = " (you upvoted)"
	}
	fmt.Fprintf(w, "  Upvotes:   %d%s\n", is.UpvoteCount, upvoted)
	fmt.Fprintf(w, "  Created:   %s\n", ago(is.CreatedAt))
	if is.ResolvedAt != nil {
		fmt.Fprintf(w, "  Resolved:  %s\n", ago(*is.ResolvedAt))
	}
	if is.Description != "" {
		fmt.Fprintf(w, "\n%s\n", is.Description)
	}
	if len(is.Comments) > 0 {
		fmt.Fprintln(w)
		printComments(w, is.Comments)
	}
}

func printComments(w io.Writer, comments []model.Comment) {
	if len(comments) == 0 {
		fmt.Fprintln(w, "No comments yet.")
		return
	}
	fmt.Fprintf(w, "Comments (%d):\n", len(comments))
	for _, c := range comments {
		author := "unknown"
		if c.User != nil {
			author = c.User.FullName()
		}
		fmt.Fprintf(w, "  - %s, %s: %s\n", author, ago(c.CreatedAt), c.Content)
	}
}

func printNotifications(w io.Writer, list []model.Notification) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No notifications.")
		return
	}
	for _, n := range list {
		mark := " "
		if !n.IsRead {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %-5d %-14s  %s: %s (%s)\n", mark, n.ID, n.Type, n.Title, n.Message, ago(n.CreatedAt))
	}
}

func ago(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func percent(v float64) string {
	return humanize.FormatFloat("#,###.#", v) + "%"
}

// writeMetrics prints every gathered sample in a compact name{labels} value form.
func writeMetrics(w io.Writer, m *metrics.Client) {
	families, err := m.Gatherer().Gather()
	if err != nil {
		fmt.Fprintf(w, "gather metrics: %v\n", err)
		return
	}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			name := mf.GetName() + labels(metric.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				fmt.Fprintf(w, "%s %g\n", name, metric.GetCounter().GetValue())
			case dto.MetricType_GAUGE:
				fmt.Fprintf(w, "%s %g\n", name, metric.GetGauge().GetValue())
			case dto.MetricType_HISTOGRAM:
				h := metric.GetHistogram()
				fmt.Fprintf(w, "%s count=%d sum=%.3fs\n", name, h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
}

func labels(pairs []*dto.LabelPair) string {
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, fmt.Sprintf("%s=%q", p.GetName(), p.GetValue()))
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ",") + "}"
}
