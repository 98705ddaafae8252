// Package heuristics guesses which repository files an issue or a model
// analysis is talking about, and cleans up model output before it is written.
package heuristics

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// SourceSuffix is the file suffix recognized as an editable source file.
const SourceSuffix = ".py"

var pathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:file|path):\s*([^\s]+\.py)`),
	regexp.MustCompile("(?i)`([^`]+\\.py)`"),
	regexp.MustCompile(`(?i)([a-zA-Z_][a-zA-Z0-9_/]*\.py)`),
}

// inferRules map a lowercase keyword in the issue text to a path. Matches are
// reported in table order.
var inferRules = []struct {
	keyword string
	path    string
}{
	{"naivebayes.py", "NaiveBayes.py"},
	{"cli", "cli.py"},
	{"test", "test_cli.py"},
	{"main.py", "main.py"},
}

var issueRefPattern = regexp.MustCompile(`#(\d+)`)

// ExtractFromText returns the distinct source file paths mentioned in text,
// sorted. Matches are trimmed of whitespace, quotes and trailing punctuation.
func ExtractFromText(text string) []string {
	seen := make(map[string]struct{})
	for _, re := range pathPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if p, ok := cleanPath(m[1]); ok {
				seen[p] = struct{}{}
			}
		}
	}
	return sortedKeys(seen)
}

// InferFromIssue maps well-known keywords in the issue text to file paths, in
// rule order. It is the fallback when ExtractFromText finds nothing.
func InferFromIssue(text string) []string {
	lower := strings.ToLower(text)
	paths := make([]string, 0, len(inferRules))
	seen := make(map[string]bool)
	for _, r := range inferRules {
		if strings.Contains(lower, r.keyword) && !seen[r.path] {
			seen[r.path] = true
			paths = append(paths, r.path)
		}
	}
	return paths
}

// StripCodeFence returns the body of the first fenced block in response,
// without a python language tag. Text without a complete fence is only
// trimmed.
func StripCodeFence(response string) string {
	if !strings.Contains(response, "```") {
		return strings.TrimSpace(response)
	}
	parts := strings.Split(response, "```")
	if len(parts) < 3 {
		return strings.TrimSpace(response)
	}
	code := parts[1]
	switch {
	case strings.HasPrefix(code, "python\n"):
		code = strings.TrimPrefix(code, "python\n")
	case strings.HasPrefix(code, "py\n"):
		code = strings.TrimPrefix(code, "py\n")
	}
	return strings.TrimSpace(code)
}

// IssueReference returns the first #<digits> reference in text.
func IssueReference(text string) (int, bool) {
	m := issueRefPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func cleanPath(raw string) (string, bool) {
	p := strings.TrimSpace(raw)
	p = strings.Trim(p, "`'\"")
	p = strings.Trim(p, ",:);.")
	if p == "" || len(p) <= len(SourceSuffix) {
		return "", false
	}
	if !strings.EqualFold(p[len(p)-len(SourceSuffix):], SourceSuffix) {
		return "", false
	}
	return p, true
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
