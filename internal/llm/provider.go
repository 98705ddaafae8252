// Package llm wraps the chat-completion backends the agent can use and the
// prompts it sends to them.
package llm

import (
	"context"
	"fmt"
)

// Role is the author of a chat message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a chat message
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest contains parameters for a completion request. A zero
// MaxTokens means the backend default.
type CompletionRequest struct {
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// Provider generates a completion for a list of messages
type Provider interface {
	Generate(ctx context.Context, req CompletionRequest) (string, error)
	Name() string
}

// UpstreamError is returned when a backend call fails: transport errors,
// non-success responses and empty or malformed answers.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// HTTPStatus returns the backend's status code, or 0 if there was none
func (e *UpstreamError) HTTPStatus() int { return e.StatusCode }

// splitSystem separates system messages, which some backends take as a
// dedicated parameter, from the conversation
func splitSystem(messages []Message) (string, []Message) {
	var system string
	rest := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
