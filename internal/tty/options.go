package tty

import "github.com/Jacky12315/Weenix/internal/tty/ratelimit"

// options holds configuration for NewDevice, using the same
// functional-options shape as sched.Option: an unexported struct, an
// interface with an unexported apply method, and a resolver that skips
// nils and applies in order.
type options struct {
	limiter *ratelimit.Limiter
}

// Option configures a Device at construction time.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) { f(o) }

// WithRateLimiter installs an input rate limiter at construction time.
// Equivalent to calling Device.WithRateLimiter afterward; provided so
// callers that build devices from a shared kernel.Config can supply it
// alongside the other options in one place.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return optionFunc(func(o *options) { o.limiter = l })
}

func resolveOptions(opts []Option) *options {
	cfg := &options{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(cfg)
	}
	return cfg
}
