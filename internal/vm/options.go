package vm

// options holds per-process configuration for NewProcess, using the same
// functional-options shape as sched.Option: an unexported struct, an
// interface with an unexported apply method, and a resolver that skips
// nils and applies in order.
type options struct {
	userMemHigh uint64
}

// Option configures a Process at construction time.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) { f(o) }

// WithUserMemHigh overrides the default UserMemHigh bound Brk enforces
// for this process. Only meaningful for tests and demos that need a
// smaller address space than the default 3GB/1GB split; real processes
// should leave this at the default.
func WithUserMemHigh(addr uint64) Option {
	return optionFunc(func(o *options) { o.userMemHigh = addr })
}

func resolveOptions(opts []Option) *options {
	cfg := &options{userMemHigh: UserMemHigh}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(cfg)
	}
	return cfg
}
