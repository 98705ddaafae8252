package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/sallandpioneers/code-agent/internal/orchestrator"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	warnStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	labelStyle   = lipgloss.NewStyle().Bold(true)
)

func printHeader(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf(format, args...)))
}

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", successStyle.Render("✓"), fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", warnStyle.Render("⚠"), fmt.Sprintf(format, args...))
}

func printFailure(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", errorStyle.Render("✗ Failed:"), message)
}

// printIssueOutcome reports the result of process-issue
func printIssueOutcome(w io.Writer, out *orchestrator.Outcome) {
	if !out.Success {
		printFailure(w, out.Error)
		return
	}

	if out.Demo != nil {
		printWarning(w, "DEMO MODE: no pull request was opened (%s failed)", out.Demo.FailureStage)
		printSuccess(w, "Branch: %s", out.Branch)
		printSuccess(w, "Files modified: %d", len(out.FilesModified))
		printSuccess(w, "Diff: %s", out.Demo.DiffPath)
		printSuccess(w, "Run record: %s", out.Demo.RunPath)
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("PR:"), out.PRURL)
		return
	}

	printSuccess(w, "Pull request created: #%d", out.PRNumber)
	printSuccess(w, "URL: %s", out.PRURL)
	printSuccess(w, "Branch: %s", out.Branch)
	printSuccess(w, "Files modified: %d", len(out.FilesModified))
}

// printFixOutcome reports the result of fix-pr
func printFixOutcome(w io.Writer, out *orchestrator.Outcome) {
	if !out.Success {
		printFailure(w, out.Error)
		return
	}
	printSuccess(w, "PR #%d updated (iteration %d)", out.PRNumber, out.Iteration)
	printSuccess(w, "Files modified: %d", len(out.FilesModified))
	for _, f := range out.FilesModified {
		fmt.Fprintf(w, "  - %s\n", f)
	}
}

// printReviewOutcome reports the verdict of review-pr
func printReviewOutcome(w io.Writer, out *orchestrator.ReviewOutcome) {
	if !out.Success {
		printFailure(w, out.Error)
		return
	}

	if out.Review.Approved {
		printSuccess(w, "PR Approved!")
	} else {
		printWarning(w, "Changes Requested")
	}

	fmt.Fprintf(w, "\n%s\n", labelStyle.Render("Feedback:"))
	feedback := out.Review.Feedback
	if feedback == "" {
		feedback = "No feedback provided"
	}
	fmt.Fprintln(w, feedback)

	if len(out.Review.Issues) > 0 {
		fmt.Fprintf(w, "\n%s\n", labelStyle.Render("Issues:"))
		for i, issue := range out.Review.Issues {
			fmt.Fprintf(w, "  %d. %s\n", i+1, issue)
		}
	}

	if out.DemoPath != "" {
		fmt.Fprintln(w)
		printWarning(w, "DEMO MODE: review could not be posted, saved to %s", out.DemoPath)
	}
}
