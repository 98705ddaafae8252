package host

import (
	"context"
	"fmt"
	"sync"
)

// MockHost is an in-memory Host for tests
type MockHost struct {
	mu sync.RWMutex

	Issues map[int]*Issue
	PRs    map[int]*PR
	Files  map[int][]*ChangedFile
	Checks map[int][]*CheckRun

	// Tracking calls for assertions
	CreatedPRs []PRCreate
	Reviews    []MockReview

	// Configurable behavior
	CreatePRError error
	ReviewError   error
	ChecksError   error
}

// MockReview tracks submitted reviews
type MockReview struct {
	PRNumber int
	Review   ReviewCreate
}

// NewMockHost creates an empty mock host
func NewMockHost() *MockHost {
	return &MockHost{
		Issues: make(map[int]*Issue),
		PRs:    make(map[int]*PR),
		Files:  make(map[int][]*ChangedFile),
		Checks: make(map[int][]*CheckRun),
	}
}

// AddIssue adds an issue to the mock
func (m *MockHost) AddIssue(issue *Issue) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Issues[issue.Number] = issue
}

// AddPR adds a PR and its changed files to the mock
func (m *MockHost) AddPR(pr *PR, files ...*ChangedFile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PRs[pr.Number] = pr
	m.Files[pr.Number] = files
}

func (m *MockHost) Name() string {
	return "mock"
}

// GetIssue implements Host
func (m *MockHost) GetIssue(ctx context.Context, number int) (*Issue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if issue, ok := m.Issues[number]; ok {
		return issue, nil
	}
	return nil, &APIError{Host: "mock", StatusCode: 404, Err: fmt.Errorf("issue not found: #%d", number)}
}

// CreatePR implements Host
func (m *MockHost) CreatePR(ctx context.Context, pr PRCreate) (*PR, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreatedPRs = append(m.CreatedPRs, pr)
	if m.CreatePRError != nil {
		return nil, m.CreatePRError
	}

	number := 100 + len(m.PRs) + 1
	created := &PR{
		Number:  number,
		Title:   pr.Title,
		Body:    pr.Body,
		State:   "open",
		HTMLURL: fmt.Sprintf("https://example.com/pull/%d", number),
		HeadRef: pr.Head,
		BaseRef: pr.Base,
	}
	m.PRs[number] = created
	return created, nil
}

// GetPR implements Host
func (m *MockHost) GetPR(ctx context.Context, number int) (*PR, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if pr, ok := m.PRs[number]; ok {
		return pr, nil
	}
	return nil, &APIError{Host: "mock", StatusCode: 404, Err: fmt.Errorf("PR not found: #%d", number)}
}

// GetPRFiles implements Host
func (m *MockHost) GetPRFiles(ctx context.Context, number int) ([]*ChangedFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.PRs[number]; !ok {
		return nil, &APIError{Host: "mock", StatusCode: 404, Err: fmt.Errorf("PR not found: #%d", number)}
	}
	return m.Files[number], nil
}

// GetPRChecks implements Host
func (m *MockHost) GetPRChecks(ctx context.Context, number int) ([]*CheckRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ChecksError != nil {
		return nil, m.ChecksError
	}
	return m.Checks[number], nil
}

// CreateReview implements Host
func (m *MockHost) CreateReview(ctx context.Context, number int, review ReviewCreate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ReviewError != nil {
		return m.ReviewError
	}
	m.Reviews = append(m.Reviews, MockReview{PRNumber: number, Review: review})
	return nil
}
