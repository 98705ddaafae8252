package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sallandpioneers/code-agent/internal/heuristics"
)

// Temperatures used per task
const (
	AnalyzeTemperature  float32 = 0.5
	GenerateTemperature float32 = 0.3
	FixTemperature      float32 = 0.3
	ReviewTemperature   float32 = 0.3
)

// Service builds task prompts and sends them to a Provider
type Service struct {
	provider  Provider
	maxTokens int
}

// NewService creates a Service. maxTokens of 0 leaves the limit to the backend.
func NewService(provider Provider, maxTokens int) *Service {
	return &Service{provider: provider, maxTokens: maxTokens}
}

// Provider returns the underlying backend
func (s *Service) Provider() Provider { return s.provider }

// Analysis is the model's free-text plan for an issue. FilesToModify is
// reserved for structured answers and is currently always empty.
type Analysis struct {
	Text          string
	FilesToModify []string
}

// Review is the model's verdict on a set of changes
type Review struct {
	Approved bool     `json:"approved"`
	Feedback string   `json:"feedback"`
	Issues   []string `json:"issues"`
}

// AnalyzeIssue asks which files need to change for the issue
func (s *Service) AnalyzeIssue(ctx context.Context, issueText, structure string) (*Analysis, error) {
	out, err := s.provider.Generate(ctx, CompletionRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: Prompts.AnalyzeSystem},
			{Role: RoleUser, Content: fmt.Sprintf(Prompts.AnalyzeUser, issueText, structure)},
		},
		Temperature: AnalyzeTemperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to analyze issue: %w", err)
	}
	return &Analysis{Text: out}, nil
}

// GenerateCodeChanges asks for the complete new content of one file
func (s *Service) GenerateCodeChanges(ctx context.Context, issueText, currentCode, path string) (string, error) {
	out, err := s.provider.Generate(ctx, CompletionRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: Prompts.GenerateSystem},
			{Role: RoleUser, Content: fmt.Sprintf(Prompts.GenerateUser, issueText, path, currentCode)},
		},
		Temperature: GenerateTemperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate changes for %s: %w", path, err)
	}
	return out, nil
}

// FixRequest builds the request that rewrites one file from review feedback
func (s *Service) FixRequest(issueText, path, currentCode, feedback string) CompletionRequest {
	return CompletionRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: Prompts.FixSystem},
			{Role: RoleUser, Content: fmt.Sprintf(Prompts.FixUser, issueText, path, currentCode, feedback)},
		},
		Temperature: FixTemperature,
		MaxTokens:   s.maxTokens,
	}
}

// ReviewChanges asks for a verdict on diff. ciResults may be empty.
func (s *Service) ReviewChanges(ctx context.Context, diff, issueText, ciResults string) (*Review, error) {
	ci := ""
	if ciResults != "" {
		ci = fmt.Sprintf(Prompts.ReviewCI, ciResults)
	}
	out, err := s.provider.Generate(ctx, CompletionRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: Prompts.ReviewSystem},
			{Role: RoleUser, Content: fmt.Sprintf(Prompts.ReviewUser, issueText, diff, ci)},
		},
		Temperature: ReviewTemperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to review changes: %w", err)
	}
	return ParseReview(out), nil
}

// ParseReview reads a JSON verdict, fenced or bare. Anything else is kept as
// feedback and approved only if it says "approved" and not "not approved".
func ParseReview(response string) *Review {
	candidate := heuristics.StripCodeFence(response)
	if i := strings.Index(candidate, "{"); i >= 0 {
		if j := strings.LastIndex(candidate, "}"); j > i {
			var r Review
			if err := json.Unmarshal([]byte(candidate[i:j+1]), &r); err == nil && r.Feedback != "" {
				return &r
			}
		}
	}

	lower := strings.ToLower(response)
	return &Review{
		Approved: strings.Contains(lower, "approved") && !strings.Contains(lower, "not approved"),
		Feedback: response,
		Issues:   []string{},
	}
}
