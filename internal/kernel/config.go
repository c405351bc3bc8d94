package kernel

import "time"

// Config is the bootstrap-time configuration shared across the kernel
// subsystems that wire to kernel.Config per SPEC_FULL.md 2.3: run-queue
// pre-allocation sizing, default tty input rate-limit windows, the
// top-of-user-address-space bound, and the simulated page size. Config
// holds plain values rather than sched.Option/vm.Option/tty.Option
// directly — kernel is imported by those packages for Errno/Assertf, so
// it cannot import them back without a cycle. Callers translate Config's
// fields into each subsystem's own options at the point where a
// Scheduler/Process/Device is actually constructed (see
// cmd/weenixctl/internal/clicmd for an example).
type Config struct {
	RunQueueHint  int
	TTYInputRates map[time.Duration]int
	UserMemHigh   uint64
	PageSize      uint64
}

// DefaultUserMemHigh and DefaultPageSize mirror vm.UserMemHigh and
// vm.PageSize. They are duplicated here, rather than imported, for the
// same reason Config holds plain values instead of vm.Option: kernel
// must not import vm.
const (
	DefaultUserMemHigh = 0xc0000000
	DefaultPageSize    = 4096
)

// Option configures a Config at construction time, using the same
// functional-options shape as sched.Option/vm.Option/tty.Option: an
// unexported apply method, and a resolver that skips nils and applies
// in order.
type Option interface {
	apply(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) apply(c *Config) { f(c) }

// WithRunQueueHint sets the run-queue pre-allocation size hint.
func WithRunQueueHint(n int) Option {
	return optionFunc(func(c *Config) { c.RunQueueHint = n })
}

// WithTTYInputRates sets the default sliding-window rate limits new tty
// devices should be built with (see internal/tty/ratelimit).
func WithTTYInputRates(rates map[time.Duration]int) Option {
	return optionFunc(func(c *Config) { c.TTYInputRates = rates })
}

// WithUserMemHigh overrides the default top-of-user-address-space bound
// new processes should be built with (see vm.WithUserMemHigh).
func WithUserMemHigh(addr uint64) Option {
	return optionFunc(func(c *Config) { c.UserMemHigh = addr })
}

// WithPageSize overrides the default simulated page size recorded in
// Config. The vm package's own PageSize constant is unaffected; this
// exists so a Config can document a non-default page size a demo or
// test was built against.
func WithPageSize(size uint64) Option {
	return optionFunc(func(c *Config) { c.PageSize = size })
}

// NewConfig resolves opts against the defaults (no run-queue hint, no
// rate limits, the standard UserMemHigh/PageSize) and returns the
// resulting Config.
func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		UserMemHigh: DefaultUserMemHigh,
		PageSize:    DefaultPageSize,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(cfg)
	}
	return cfg
}
