// Package llm is the text completion boundary. Failures are reported as one
// of two kinds, ErrQuotaExceeded or ErrService, so callers branch with
// errors.Is instead of inspecting messages.
package llm

import "context"

// Completer returns generated text for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts ...Option) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt string, opts ...Option) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string, opts ...Option) (string, error) {
	return f(ctx, prompt, opts...)
}

// Options are per-call generation settings.
type Options struct {
	Temperature *float32
	// Kind labels the call in metrics and logs, e.g. "filter".
	Kind string
}

type Option func(*Options)

func WithTemperature(t float32) Option {
	return func(o *Options) { o.Temperature = &t }
}

func WithKind(kind string) Option {
	return func(o *Options) { o.Kind = kind }
}

// Apply folds opts into an Options value.
func Apply(opts ...Option) Options {
	o := Options{Kind: "completion"}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
