package almond

import "time"

// Options contains configuration for a generation request.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature *float64
	TopP        *float64

	// Timeout bounds a single attempt. Zero means no per-attempt limit.
	Timeout time.Duration

	// JSONMode asks backends that support it to constrain output to a JSON object.
	JSONMode bool
}

// Option is a functional option for configuring generation requests.
type Option func(*Options)

// WithModel sets the model to use for the request.
func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// WithTemperature sets the sampling temperature (0.0 to 2.0).
func WithTemperature(t float64) Option {
	return func(o *Options) {
		o.Temperature = &t
	}
}

// WithTopP sets nucleus sampling probability mass.
func WithTopP(p float64) Option {
	return func(o *Options) {
		o.TopP = &p
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithJSONMode enables backend-level JSON output where supported.
func WithJSONMode() Option {
	return func(o *Options) {
		o.JSONMode = true
	}
}

// ApplyOptions applies functional options to an Options struct.
// Later options override earlier ones.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}
