package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/sallandpioneers/code-agent/internal/config"
	"github.com/sallandpioneers/code-agent/internal/host"
	"github.com/sallandpioneers/code-agent/internal/llm"
)

// fakeRepo is an in-memory working copy that records every call
type fakeRepo struct {
	root  string
	files map[string]string
	calls []string

	createBranchErr error
	checkoutErr     error
	commitErr       error
	pushErr         error
	diff            string
	diffErr         error

	commits []fakeCommit
}

type fakeCommit struct {
	message string
	paths   []string
}

func newFakeRepo(t *testing.T) *fakeRepo {
	return &fakeRepo{root: t.TempDir(), files: map[string]string{}}
}

func (r *fakeRepo) record(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *fakeRepo) Root() string { return r.root }

func (r *fakeRepo) CheckoutAndSync(ctx context.Context, branch string) error {
	r.record("checkout %s", branch)
	return r.checkoutErr
}

func (r *fakeRepo) CreateBranch(ctx context.Context, name, base string) error {
	r.record("branch %s %s", name, base)
	return r.createBranchErr
}

func (r *fakeRepo) GetFileContent(path string) (string, error) {
	r.record("read %s", path)
	return r.files[path], nil
}

func (r *fakeRepo) WriteFile(path, content string) error {
	r.record("write %s", path)
	r.files[path] = content
	return nil
}

func (r *fakeRepo) Commit(ctx context.Context, message string, paths []string) error {
	r.record("commit")
	if r.commitErr != nil {
		return r.commitErr
	}
	r.commits = append(r.commits, fakeCommit{message: message, paths: paths})
	return nil
}

func (r *fakeRepo) Push(ctx context.Context, branch string) error {
	r.record("push %s", branch)
	return r.pushErr
}

func (r *fakeRepo) ListStructure(maxDepth int) (string, error) {
	r.record("structure %d", maxDepth)
	names := make([]string, 0, len(r.files))
	for name := range r.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "\n"), nil
}

func (r *fakeRepo) Diff(ctx context.Context, base string) (string, error) {
	r.record("diff %s", base)
	return r.diff, r.diffErr
}

// fakeModel answers each request through reply and keeps the requests
type fakeModel struct {
	reply    func(req llm.CompletionRequest) (string, error)
	requests []llm.CompletionRequest
}

func (m *fakeModel) Name() string { return "fake" }

func (m *fakeModel) Generate(ctx context.Context, req llm.CompletionRequest) (string, error) {
	m.requests = append(m.requests, req)
	if m.reply == nil {
		return "", fmt.Errorf("unexpected model call")
	}
	return m.reply(req)
}

// byTask routes a request by its system prompt
func byTask(analysis, code string, codeErr func(user string) error) func(llm.CompletionRequest) (string, error) {
	return func(req llm.CompletionRequest) (string, error) {
		switch req.Messages[0].Content {
		case llm.Prompts.AnalyzeSystem:
			return analysis, nil
		case llm.Prompts.GenerateSystem, llm.Prompts.FixSystem:
			if codeErr != nil {
				if err := codeErr(req.Messages[1].Content); err != nil {
					return "", err
				}
			}
			return code, nil
		}
		return "", fmt.Errorf("unexpected prompt %q", req.Messages[0].Content)
	}
}

// explodingHost fails the test on any call
type explodingHost struct{ t *testing.T }

func (h explodingHost) Name() string { return "exploding" }

func (h explodingHost) GetIssue(ctx context.Context, number int) (*host.Issue, error) {
	h.t.Errorf("unexpected GetIssue(%d)", number)
	return nil, fmt.Errorf("unexpected call")
}

func (h explodingHost) CreatePR(ctx context.Context, pr host.PRCreate) (*host.PR, error) {
	h.t.Errorf("unexpected CreatePR")
	return nil, fmt.Errorf("unexpected call")
}

func (h explodingHost) GetPR(ctx context.Context, number int) (*host.PR, error) {
	h.t.Errorf("unexpected GetPR(%d)", number)
	return nil, fmt.Errorf("unexpected call")
}

func (h explodingHost) GetPRFiles(ctx context.Context, number int) ([]*host.ChangedFile, error) {
	h.t.Errorf("unexpected GetPRFiles(%d)", number)
	return nil, fmt.Errorf("unexpected call")
}

func (h explodingHost) GetPRChecks(ctx context.Context, number int) ([]*host.CheckRun, error) {
	h.t.Errorf("unexpected GetPRChecks(%d)", number)
	return nil, fmt.Errorf("unexpected call")
}

func (h explodingHost) CreateReview(ctx context.Context, number int, review host.ReviewCreate) error {
	h.t.Errorf("unexpected CreateReview(%d)", number)
	return fmt.Errorf("unexpected call")
}

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Agent.MaxIterations = 3
	cfg.Agent.BranchPrefix = "agent/"
	cfg.Agent.BaseBranch = "main"
	return cfg
}

func newTestOrchestrator(cfg *config.Config, h host.Host, repo Repository, model llm.Provider) *Orchestrator {
	o := New(cfg, h, repo, llm.NewService(model, 0))
	o.now = func() time.Time { return fixedNow }
	o.newID = func() string { return "run-1" }
	return o
}
