package llm

import (
	"context"

	"github.com/sallandpioneers/code-agent/internal/retry"
)

type retrying struct {
	Provider
	opts retry.Options
}

// WithRetry retries transient backend failures according to opts
func WithRetry(p Provider, opts retry.Options) Provider {
	if opts.Classifier == nil {
		opts.Classifier = retry.ClassifyModel
	}
	return &retrying{Provider: p, opts: opts}
}

func (r *retrying) Generate(ctx context.Context, req CompletionRequest) (string, error) {
	return retry.DoWithResult(ctx, r.opts, func() (string, error) {
		return r.Provider.Generate(ctx, req)
	})
}

// Observer is told about every backend call and its outcome
type Observer func(provider string, err error)

type observed struct {
	Provider
	observe Observer
}

// WithObserver reports each Generate call to observe
func WithObserver(p Provider, observe Observer) Provider {
	return &observed{Provider: p, observe: observe}
}

func (o *observed) Generate(ctx context.Context, req CompletionRequest) (string, error) {
	out, err := o.Provider.Generate(ctx, req)
	o.observe(o.Provider.Name(), err)
	return out, err
}
