package workflow

import (
	"fmt"
	"strings"

	"github.com/sallandpioneers/code-agent/internal/host"
	"github.com/sallandpioneers/code-agent/internal/llm"
)

var diffRule = strings.Repeat("=", 80)

// FormatPRDiff renders the changed files of a PR as one text block: a header
// per file followed by its patch, when the host supplied one.
func FormatPRDiff(files []*host.ChangedFile) string {
	var sb strings.Builder
	for _, f := range files {
		fmt.Fprintf(&sb, "\n%s\n", diffRule)
		fmt.Fprintf(&sb, "File: %s\n", f.Filename)
		fmt.Fprintf(&sb, "Status: %s\n", f.Status)
		fmt.Fprintf(&sb, "Changes: +%d -%d\n", f.Additions, f.Deletions)
		fmt.Fprintf(&sb, "%s\n", diffRule)
		if f.Patch != "" {
			sb.WriteString(f.Patch)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// RenderReview formats a verdict as markdown. ci may be nil when CI analysis
// is disabled or the checks could not be fetched.
func RenderReview(prNumber int, review *llm.Review, ci *CIResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Code Agent Review for PR #%d\n\n", prNumber)

	if review.Approved {
		sb.WriteString("**Verdict:** ✅ Approved\n\n")
	} else {
		sb.WriteString("**Verdict:** ⚠️ Changes requested\n\n")
	}

	sb.WriteString("### Feedback\n\n")
	feedback := strings.TrimSpace(review.Feedback)
	if feedback == "" {
		feedback = "No feedback provided"
	}
	sb.WriteString(feedback)
	sb.WriteString("\n")

	if len(review.Issues) > 0 {
		sb.WriteString("\n### Issues\n\n")
		for i, issue := range review.Issues {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, issue)
		}
	}

	if ci != nil {
		fmt.Fprintf(&sb, "\n### CI Checks (%s)\n\n", ci.Status)
		sb.WriteString(ci.FormatTable())
	}

	sb.WriteString("\n---\n*Generated by Code Agent.*\n")
	return sb.String()
}
