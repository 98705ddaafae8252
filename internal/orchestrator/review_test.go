package orchestrator

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sallandpioneers/code-agent/internal/host"
	"github.com/sallandpioneers/code-agent/internal/llm"
)

func reviewHost() *host.MockHost {
	h := host.NewMockHost()
	h.AddIssue(&host.Issue{Number: 3, Title: "Exit code", Body: "cli.py should exit 1 on error"})
	h.AddPR(&host.PR{Number: 5, Title: "Fix #3: Exit code", Body: "Fixes #3", HeadRef: "agent/issue-3"},
		&host.ChangedFile{Filename: "cli.py", Status: "modified", Additions: 1, Deletions: 1, Patch: "-exit(0)\n+exit(1)"},
	)
	h.Checks[5] = []*host.CheckRun{
		{Name: "pytest", Status: "completed", Conclusion: "failure", Summary: "1 failed"},
	}
	return h
}

func reviewModel(answer string) *fakeModel {
	return &fakeModel{reply: func(req llm.CompletionRequest) (string, error) {
		if req.Messages[0].Content != llm.Prompts.ReviewSystem {
			return "", errors.New("unexpected prompt")
		}
		return answer, nil
	}}
}

func TestReviewPR_PostsComment(t *testing.T) {
	h := reviewHost()
	model := reviewModel(`{"approved": false, "feedback": "Tests fail.", "issues": ["pytest is red"]}`)

	out := newTestOrchestrator(testConfig(), h, newFakeRepo(t), model).ReviewPR(context.Background(), 5)

	require.True(t, out.Success, out.Error)
	if !out.Posted || out.Review.Approved {
		t.Errorf("unexpected outcome: %+v", out)
	}
	require.Len(t, h.Reviews, 1)
	posted := h.Reviews[0]
	if posted.PRNumber != 5 || posted.Review.Event != host.ReviewComment {
		t.Errorf("unexpected review: %+v", posted)
	}
	for _, want := range []string{"Changes requested", "Tests fail.", "1. pytest is red", "| pytest | completed | failure |"} {
		if !strings.Contains(posted.Review.Body, want) {
			t.Errorf("expected %q in review body:\n%s", want, posted.Review.Body)
		}
	}

	require.Len(t, model.requests, 1)
	user := model.requests[0].Messages[1].Content
	for _, want := range []string{"cli.py should exit 1", "File: cli.py", "+exit(1)", "CI/CD Results", "- pytest: failure"} {
		if !strings.Contains(user, want) {
			t.Errorf("expected %q in review prompt:\n%s", want, user)
		}
	}
}

func TestReviewPR_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Review.Enabled = false

	out := newTestOrchestrator(cfg, explodingHost{t}, newFakeRepo(t), &fakeModel{}).ReviewPR(context.Background(), 5)

	if out.Success || !errors.Is(out.Err, ErrReviewDisabled) {
		t.Errorf("expected disabled failure, got %+v", out)
	}
}

func TestReviewPR_ChecksUnavailable(t *testing.T) {
	h := reviewHost()
	h.ChecksError = errors.New("checks API disabled")
	model := reviewModel("Approved. Clean change.")

	out := newTestOrchestrator(testConfig(), h, newFakeRepo(t), model).ReviewPR(context.Background(), 5)

	require.True(t, out.Success, out.Error)
	if out.CI != nil {
		t.Errorf("expected no CI result, got %+v", out.CI)
	}
	if !out.Review.Approved {
		t.Error("expected heuristic approval")
	}
	if strings.Contains(model.requests[0].Messages[1].Content, "CI/CD Results") {
		t.Error("CI section should be omitted")
	}
}

func TestReviewPR_DemoStoresReviewLocally(t *testing.T) {
	h := reviewHost()
	h.ReviewError = errors.New("forbidden")
	repo := newFakeRepo(t)
	cfg := testConfig()
	cfg.Agent.DemoMode = true

	out := newTestOrchestrator(cfg, h, repo, reviewModel("Looks approved")).ReviewPR(context.Background(), 5)

	require.True(t, out.Success, out.Error)
	if out.Posted {
		t.Error("review was not posted")
	}
	data, err := os.ReadFile(out.DemoPath)
	require.NoError(t, err)
	if string(data) != out.Summary {
		t.Errorf("stored review does not match summary:\n%s", data)
	}
}

func TestReviewPR_PostFailure(t *testing.T) {
	h := reviewHost()
	h.ReviewError = errors.New("forbidden")

	out := newTestOrchestrator(testConfig(), h, newFakeRepo(t), reviewModel("ok")).ReviewPR(context.Background(), 5)

	if out.Success || !strings.Contains(out.Error, "failed to post review on PR #5") {
		t.Errorf("unexpected outcome: %+v", out)
	}
}

func TestSummary_DoesNotPost(t *testing.T) {
	h := reviewHost()
	h.PRs[5].Body = "No linked issue here"

	summary, err := newTestOrchestrator(testConfig(), h, newFakeRepo(t), reviewModel("Approved")).Summary(context.Background(), 5)

	require.NoError(t, err)
	if !strings.Contains(summary, "PR #5") || !strings.Contains(summary, "Approved") {
		t.Errorf("unexpected summary:\n%s", summary)
	}
	if len(h.Reviews) != 0 {
		t.Error("summary must not post a review")
	}
}

func TestSummary_ModelFailure(t *testing.T) {
	model := &fakeModel{reply: func(llm.CompletionRequest) (string, error) { return "", errors.New("quota") }}

	_, err := newTestOrchestrator(testConfig(), reviewHost(), newFakeRepo(t), model).Summary(context.Background(), 5)
	if err == nil || !strings.Contains(err.Error(), "quota") {
		t.Errorf("expected model error, got %v", err)
	}
}
