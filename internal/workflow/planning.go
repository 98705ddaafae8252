package workflow

import "github.com/sallandpioneers/code-agent/internal/heuristics"

// CandidateFiles picks the files to rewrite for an issue: paths named in the
// model's analysis, or when it names none, paths guessed from the issue text.
func CandidateFiles(analysis, issueText string) []string {
	if paths := heuristics.ExtractFromText(analysis); len(paths) > 0 {
		return paths
	}
	return heuristics.InferFromIssue(issueText)
}
