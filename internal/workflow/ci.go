package workflow

import (
	"fmt"
	"strings"

	"github.com/sallandpioneers/code-agent/internal/host"
)

// CIStatus is the aggregated state of all checks on a PR head
type CIStatus string

const (
	CIStatusSuccess CIStatus = "success"
	CIStatusFailure CIStatus = "failure"
	CIStatusPending CIStatus = "pending"
	CIStatusUnknown CIStatus = "unknown"
)

// failing conclusions as reported by GitHub check runs and Gitea statuses
var failingConclusions = map[string]bool{
	"failure":         true,
	"error":           true,
	"timed_out":       true,
	"cancelled":       true,
	"action_required": true,
}

// CIResult summarizes a set of check runs
type CIResult struct {
	Status       CIStatus
	Passed       int
	Pending      int
	FailedChecks []*host.CheckRun
	Checks       []*host.CheckRun
}

// SummarizeChecks aggregates check runs. Failures win over pending checks,
// and no checks at all means CI is not configured.
func SummarizeChecks(checks []*host.CheckRun) *CIResult {
	result := &CIResult{Status: CIStatusUnknown, Checks: checks}
	if len(checks) == 0 {
		return result
	}

	for _, check := range checks {
		switch {
		case check.Status != "completed":
			result.Pending++
		case failingConclusions[check.Conclusion]:
			result.FailedChecks = append(result.FailedChecks, check)
		default:
			result.Passed++
		}
	}

	switch {
	case len(result.FailedChecks) > 0:
		result.Status = CIStatusFailure
	case result.Pending > 0:
		result.Status = CIStatusPending
	default:
		result.Status = CIStatusSuccess
	}
	return result
}

// FormatForModel renders the check runs as plain text for the review prompt.
// Returns "" when there are no checks.
func (r *CIResult) FormatForModel() string {
	if len(r.Checks) == 0 {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Overall: %s (%d passed, %d failed, %d pending)\n",
		r.Status, r.Passed, len(r.FailedChecks), r.Pending)
	for _, check := range r.Checks {
		state := check.Conclusion
		if state == "" {
			state = check.Status
		}
		fmt.Fprintf(&sb, "- %s: %s\n", check.Name, state)
		if check.Summary != "" && failingConclusions[check.Conclusion] {
			for _, line := range strings.Split(strings.TrimSpace(check.Summary), "\n") {
				fmt.Fprintf(&sb, "    %s\n", line)
			}
		}
	}
	return sb.String()
}

// FormatTable renders the check runs as a markdown table
func (r *CIResult) FormatTable() string {
	if len(r.Checks) == 0 {
		return "_No CI checks reported._\n"
	}

	var sb strings.Builder
	sb.WriteString("| Check | Status | Conclusion |\n")
	sb.WriteString("|---|---|---|\n")
	for _, check := range r.Checks {
		conclusion := check.Conclusion
		if conclusion == "" {
			conclusion = "-"
		}
		fmt.Fprintf(&sb, "| %s | %s | %s |\n", escapeCell(check.Name), check.Status, conclusion)
	}
	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
