package sched

// options holds configuration for New, using the same functional-options
// shape the teacher's event loop uses for LoopOption: an unexported struct,
// an interface with an unexported apply method, and a resolver that skips
// nils and applies in order.
type options struct {
	idleName string
}

// Option configures a Scheduler at construction time.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) { f(o) }

// WithIdleName sets the diagnostic name of the bootstrap idle thread
// (default "idle").
func WithIdleName(name string) Option {
	return optionFunc(func(o *options) { o.idleName = name })
}

func resolveOptions(opts []Option) *options {
	cfg := &options{idleName: "idle"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(cfg)
	}
	return cfg
}
