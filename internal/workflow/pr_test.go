package workflow

import (
	"testing"

	"github.com/sallandpioneers/code-agent/internal/host"
)

func TestBranchName(t *testing.T) {
	tests := []struct {
		prefix string
		number int
		want   string
	}{
		{"agent/", 42, "agent/issue-42"},
		{"", 7, "issue-7"},
		{"bot-", 1, "bot-issue-1"},
	}
	for _, tt := range tests {
		if got := BranchName(tt.prefix, tt.number); got != tt.want {
			t.Errorf("BranchName(%q, %d) = %q, want %q", tt.prefix, tt.number, got, tt.want)
		}
	}
}

func TestPRTemplates(t *testing.T) {
	issue := &host.Issue{Number: 42, Title: "CLI crashes on empty input", Body: "Run `cli.py` with no args."}

	if got := PRTitle(issue); got != "Fix #42: CLI crashes on empty input" {
		t.Errorf("unexpected title %q", got)
	}

	want := "Fixes #42\n\nRun `cli.py` with no args.\n\n---\n*This PR was automatically created by Code Agent.*"
	if got := PRBody(issue); got != want {
		t.Errorf("unexpected body:\n%q\nwant:\n%q", got, want)
	}

	if got := FixCommitMessage(12, 3); got != "Fix PR #12 based on review (iteration 3)" {
		t.Errorf("unexpected commit message %q", got)
	}
}
