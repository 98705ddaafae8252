package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sallandpioneers/code-agent/internal/retry"
)

type flakyProvider struct {
	failures int
	calls    int
}

func (f *flakyProvider) Name() string { return "flaky" }

func (f *flakyProvider) Generate(ctx context.Context, req CompletionRequest) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", &UpstreamError{Provider: "flaky", StatusCode: 503, Err: errors.New("unavailable")}
	}
	return "ok", nil
}

func TestWithRetry_RetriesTransientFailures(t *testing.T) {
	fp := &flakyProvider{failures: 2}
	p := WithRetry(fp, retry.Options{MaxAttempts: 3, BackoffBase: time.Millisecond})

	out, err := p.Generate(context.Background(), CompletionRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "ok" || fp.calls != 3 {
		t.Errorf("expected ok after 3 calls, got %q after %d", out, fp.calls)
	}
	if p.Name() != "flaky" {
		t.Errorf("expected name passthrough, got %s", p.Name())
	}
}

func TestWithRetry_StopsOnPermanent(t *testing.T) {
	fp := &fakeProvider{err: &UpstreamError{Provider: "fake", StatusCode: 401, Err: errors.New("bad key")}}
	p := WithRetry(fp, retry.Options{MaxAttempts: 3, BackoffBase: time.Millisecond})

	if _, err := p.Generate(context.Background(), CompletionRequest{}); err == nil {
		t.Fatal("expected error")
	}
	if len(fp.requests) != 1 {
		t.Errorf("expected a single attempt, got %d", len(fp.requests))
	}
}

func TestWithObserver(t *testing.T) {
	var seen []error
	p := WithObserver(&flakyProvider{failures: 1}, func(provider string, err error) {
		if provider != "flaky" {
			t.Errorf("unexpected provider %s", provider)
		}
		seen = append(seen, err)
	})

	p.Generate(context.Background(), CompletionRequest{})
	p.Generate(context.Background(), CompletionRequest{})

	if len(seen) != 2 || seen[0] == nil || seen[1] != nil {
		t.Errorf("expected one failure then one success, got %v", seen)
	}
}
