package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/sallandpioneers/code-agent/internal/host"
	"github.com/sallandpioneers/code-agent/internal/workflow"
)

const sampleDiff = `diff --git a/cli.py b/cli.py
index 83db48f..bf269f4 100644
--- a/cli.py
+++ b/cli.py
@@ -1,2 +1,2 @@
 import sys
-print("hi")
+print("hello")
`

func addIssue(h *host.MockHost) *host.Issue {
	issue := &host.Issue{Number: 7, Title: "Add X", Body: "The CLI should print X. See `cli.py`."}
	h.AddIssue(issue)
	return issue
}

func TestResolveIssue_Success(t *testing.T) {
	h := host.NewMockHost()
	addIssue(h)
	repo := newFakeRepo(t)
	repo.files["cli.py"] = "print('old')"
	model := &fakeModel{reply: byTask("Modify `cli.py` to print X.", "```python\nprint('X')\n```", nil)}

	out := newTestOrchestrator(testConfig(), h, repo, model).ResolveIssue(context.Background(), 7)

	if !out.Success {
		t.Fatalf("expected success, got %q", out.Error)
	}
	if out.PRNumber != 101 || out.PRURL != "https://example.com/pull/101" {
		t.Errorf("unexpected PR %d %s", out.PRNumber, out.PRURL)
	}
	if out.Branch != "agent/issue-7" || out.RunID != "run-1" || out.Demo != nil {
		t.Errorf("unexpected outcome: %+v", out)
	}
	if diff := cmp.Diff([]string{"cli.py"}, out.FilesModified); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
	if repo.files["cli.py"] != "print('X')" {
		t.Errorf("expected rewritten file, got %q", repo.files["cli.py"])
	}

	wantCalls := []string{
		"structure 3",
		"branch agent/issue-7 main",
		"read cli.py",
		"write cli.py",
		"commit",
		"push agent/issue-7",
	}
	if diff := cmp.Diff(wantCalls, repo.calls); diff != "" {
		t.Errorf("repository calls mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, repo.commits, 1)
	if repo.commits[0].message != "Fix #7: Add X" {
		t.Errorf("unexpected commit message %q", repo.commits[0].message)
	}

	require.Len(t, h.CreatedPRs, 1)
	want := host.PRCreate{
		Title: "Fix #7: Add X",
		Body:  "Fixes #7\n\nThe CLI should print X. See `cli.py`.\n\n---\n*This PR was automatically created by Code Agent.*",
		Head:  "agent/issue-7",
		Base:  "main",
	}
	if diff := cmp.Diff(want, h.CreatedPRs[0]); diff != "" {
		t.Errorf("PR request mismatch (-want +got):\n%s", diff)
	}

	if len(model.requests) != 2 {
		t.Fatalf("expected 2 model calls, got %d", len(model.requests))
	}
	if model.requests[0].Temperature != 0.5 || model.requests[1].Temperature != 0.3 {
		t.Errorf("unexpected temperatures %v, %v", model.requests[0].Temperature, model.requests[1].Temperature)
	}
}

func TestResolveIssue_FallsBackToIssueKeywords(t *testing.T) {
	h := host.NewMockHost()
	h.AddIssue(&host.Issue{Number: 3, Title: "CLI crash", Body: "It crashes on start."})
	repo := newFakeRepo(t)
	model := &fakeModel{reply: byTask("Look at the argument parser.", "fixed", nil)}

	out := newTestOrchestrator(testConfig(), h, repo, model).ResolveIssue(context.Background(), 3)

	require.True(t, out.Success, out.Error)
	if diff := cmp.Diff([]string{"cli.py"}, out.FilesModified); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveIssue_PerFileFailureDoesNotAbort(t *testing.T) {
	h := host.NewMockHost()
	addIssue(h)
	repo := newFakeRepo(t)
	failB := func(user string) error {
		if strings.Contains(user, "File: b.py") {
			return errors.New("rate limited")
		}
		return nil
	}
	model := &fakeModel{reply: byTask("Change a.py, b.py and c.py", "new", failB)}

	out := newTestOrchestrator(testConfig(), h, repo, model).ResolveIssue(context.Background(), 7)

	require.True(t, out.Success, out.Error)
	if diff := cmp.Diff([]string{"a.py", "c.py"}, out.FilesModified); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, repo.commits, 1)
	if diff := cmp.Diff([]string{"a.py", "c.py"}, repo.commits[0].paths); diff != "" {
		t.Errorf("committed paths mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveIssue_NoChanges(t *testing.T) {
	h := host.NewMockHost()
	h.AddIssue(&host.Issue{Number: 9, Title: "Improve docs", Body: "The README is outdated."})
	repo := newFakeRepo(t)
	model := &fakeModel{reply: byTask("Update the documentation.", "x", nil)}

	out := newTestOrchestrator(testConfig(), h, repo, model).ResolveIssue(context.Background(), 9)

	if out.Success {
		t.Fatal("expected failure")
	}
	if out.Error != "No changes were made" || !errors.Is(out.Err, ErrNoChanges) {
		t.Errorf("unexpected failure %q (%v)", out.Error, out.Err)
	}
	if len(repo.commits) != 0 || len(h.CreatedPRs) != 0 {
		t.Error("nothing should be committed or opened")
	}
}

func TestResolveIssue_Failures(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(h *host.MockHost, repo *fakeRepo)
		issue     int
		wantError string
		wantCalls int
	}{
		{
			name:      "issue not found",
			issue:     404,
			wantError: "failed to fetch issue #404",
		},
		{
			name:  "branch creation",
			issue: 7,
			setup: func(h *host.MockHost, repo *fakeRepo) {
				repo.createBranchErr = errors.New("base missing")
			},
			wantError: "failed to create branch agent/issue-7 from main: base missing",
		},
		{
			name:  "commit",
			issue: 7,
			setup: func(h *host.MockHost, repo *fakeRepo) {
				repo.commitErr = errors.New("nothing staged")
			},
			wantError: "failed to commit: nothing staged",
		},
		{
			name:  "push",
			issue: 7,
			setup: func(h *host.MockHost, repo *fakeRepo) {
				repo.pushErr = errors.New("403")
			},
			wantError: "failed to push agent/issue-7: 403",
		},
		{
			name:  "create PR",
			issue: 7,
			setup: func(h *host.MockHost, repo *fakeRepo) {
				h.CreatePRError = errors.New("forbidden")
			},
			wantError: "failed to create pull request: forbidden",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := host.NewMockHost()
			addIssue(h)
			repo := newFakeRepo(t)
			if tt.setup != nil {
				tt.setup(h, repo)
			}
			model := &fakeModel{reply: byTask("Modify cli.py", "new", nil)}

			out := newTestOrchestrator(testConfig(), h, repo, model).ResolveIssue(context.Background(), tt.issue)

			if out.Success {
				t.Fatal("expected failure")
			}
			if !strings.Contains(out.Error, tt.wantError) {
				t.Errorf("expected error containing %q, got %q", tt.wantError, out.Error)
			}
			if out.Err == nil {
				t.Error("expected the cause to be kept")
			}
			if _, err := os.Stat(filepath.Join(repo.root, DemoDir)); !os.IsNotExist(err) {
				t.Error("no demo artifacts expected outside demo mode")
			}
		})
	}
}

func readLastRun(t *testing.T, root string) LastRun {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, DemoDir, "last_run.json"))
	require.NoError(t, err)
	var run LastRun
	require.NoError(t, json.Unmarshal(data, &run))
	return run
}

func TestResolveIssue_DemoBranchAndPushFailure(t *testing.T) {
	h := host.NewMockHost()
	addIssue(h)
	repo := newFakeRepo(t)
	repo.createBranchErr = errors.New("cannot pull main")
	repo.pushErr = errors.New("permission denied")
	repo.diff = sampleDiff

	cfg := testConfig()
	cfg.Agent.DemoMode = true
	model := &fakeModel{reply: byTask("Modify `cli.py`", "print('hello')", nil)}

	out := newTestOrchestrator(cfg, h, repo, model).ResolveIssue(context.Background(), 7)

	if !out.Success {
		t.Fatalf("expected success in demo mode, got %q", out.Error)
	}
	if out.PRNumber != 0 || out.PRURL != DemoPushURL {
		t.Errorf("unexpected PR %d %q", out.PRNumber, out.PRURL)
	}
	require.NotNil(t, out.Demo)
	if out.Demo.FailureStage != StagePush {
		t.Errorf("expected push stage, got %s", out.Demo.FailureStage)
	}
	if len(h.CreatedPRs) != 0 {
		t.Error("no PR should be attempted after a failed push")
	}

	diff, err := os.ReadFile(filepath.Join(repo.root, DemoDir, "issue-7.diff"))
	require.NoError(t, err)
	if string(diff) != sampleDiff {
		t.Errorf("unexpected diff artifact:\n%s", diff)
	}

	run := readLastRun(t, repo.root)
	want := LastRun{
		DemoMode:      true,
		RunID:         "run-1",
		Timestamp:     "2026-03-14T09:26:53Z",
		RepoPath:      repo.root,
		IssueNumber:   7,
		Branch:        "agent/issue-7",
		BaseBranch:    "main",
		PRTitle:       "Fix #7: Add X",
		PRBody:        "Fixes #7\n\nThe CLI should print X. See `cli.py`.\n\n---\n*This PR was automatically created by Code Agent.*",
		FilesModified: out.FilesModified,
		DiffPath:      ".code_agent_demo/issue-7.diff",
		DiffStats:     []workflow.FileStat{{Path: "cli.py", Added: 1, Removed: 1}},
		FailureStage:  "push",
		FailureReason: "permission denied",
	}
	if diff := cmp.Diff(want, run); diff != "" {
		t.Errorf("last_run.json mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"cli.py"}, run.FilesModified); diff != "" {
		t.Errorf("files_modified mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveIssue_DemoCreatePRFailure(t *testing.T) {
	h := host.NewMockHost()
	addIssue(h)
	h.CreatePRError = errors.New("Resource not accessible by integration")
	repo := newFakeRepo(t)
	repo.commitErr = errors.New("author unknown")
	repo.diffErr = errors.New("unknown revision main")

	cfg := testConfig()
	cfg.Agent.DemoMode = true
	model := &fakeModel{reply: byTask("Modify `cli.py`", "print('hello')", nil)}

	out := newTestOrchestrator(cfg, h, repo, model).ResolveIssue(context.Background(), 7)

	require.True(t, out.Success, out.Error)
	if out.PRNumber != 0 || out.PRURL != DemoCreatePRURL {
		t.Errorf("unexpected PR %d %q", out.PRNumber, out.PRURL)
	}

	diff, err := os.ReadFile(filepath.Join(repo.root, DemoDir, "issue-7.diff"))
	require.NoError(t, err)
	if !strings.HasPrefix(string(diff), "# Failed to compute git diff: unknown revision main") {
		t.Errorf("expected placeholder diff, got %q", diff)
	}

	run := readLastRun(t, repo.root)
	if run.FailureStage != "create_pr" || run.FailureReason != "Resource not accessible by integration" {
		t.Errorf("unexpected failure fields: %s %q", run.FailureStage, run.FailureReason)
	}
	if run.DiffStats != nil {
		t.Errorf("expected no diff stats, got %v", run.DiffStats)
	}
}
