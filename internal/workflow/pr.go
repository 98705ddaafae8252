package workflow

import (
	"fmt"
	"strings"

	"github.com/sallandpioneers/code-agent/internal/host"
)

// BranchName is the working branch used for an issue
func BranchName(prefix string, issueNumber int) string {
	return fmt.Sprintf("%sissue-%d", prefix, issueNumber)
}

// PRTitle is used both as the PR title and as the commit message
func PRTitle(issue *host.Issue) string {
	return fmt.Sprintf("Fix #%d: %s", issue.Number, issue.Title)
}

// PRBody links the PR to its issue so the host closes it on merge
func PRBody(issue *host.Issue) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Fixes #%d\n\n", issue.Number)
	sb.WriteString(issue.Body)
	sb.WriteString("\n\n---\n")
	sb.WriteString("*This PR was automatically created by Code Agent.*")
	return sb.String()
}

// FixCommitMessage is the commit message for one review iteration on a PR
func FixCommitMessage(prNumber, iteration int) string {
	return fmt.Sprintf("Fix PR #%d based on review (iteration %d)", prNumber, iteration)
}
