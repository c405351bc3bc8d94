// Package ratelimit implements a per-category sliding-window rate
// limiter, the same shape as the pack's catrate limiter: a set of
// durations each with its own maximum event count, validated for
// monotonicity, with independent state per category key.
//
// It exists to protect the tty input path from a runaway or malicious
// driver callback flooding receive_char faster than any real keyboard
// could, without pulling in a module that cannot be resolved outside its
// author's own proxy.
package ratelimit

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// parseRates validates rates and returns the retention window: the
// largest duration with a configured rate. Rates must all be positive,
// and shorter windows must allow no fewer events than longer ones (a
// tighter effective rate) — matching catrate's monotonicity requirement.
func parseRates(rates map[time.Duration]int) (time.Duration, bool) {
	if len(rates) == 0 {
		return 0, false
	}

	durations := make([]time.Duration, 0, len(rates))
	for d := range rates {
		durations = append(durations, d)
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	for i, d := range durations {
		count := rates[d]
		if count <= 0 || d <= 0 {
			return 0, false
		}
		if i < len(durations)-1 && count >= rates[durations[i+1]] {
			return 0, false
		}
		if i > 0 {
			prevD, prevCount := durations[i-1], rates[durations[i-1]]
			if float64(count)/float64(d) >= float64(prevCount)/float64(prevD) {
				return 0, false
			}
		}
	}

	return durations[len(durations)-1], true
}

// Limiter enforces independent sliding-window rates per category.
type Limiter struct {
	rates     map[time.Duration]int
	retention time.Duration

	mu         sync.Mutex
	categories map[any]*categoryState
	now        func() time.Time // overridable for tests
}

type categoryState struct {
	mu     sync.Mutex
	events []time.Time // ascending, oldest first
}

// NewLimiter builds a Limiter from rates. It panics if rates is empty or
// not monotonic, matching the pack limiter's validate-at-construction
// behavior — a misconfigured rate table is a programming error, not a
// runtime condition.
func NewLimiter(rates map[time.Duration]int) *Limiter {
	retention, ok := parseRates(rates)
	if !ok {
		panic(fmt.Sprintf("ratelimit: invalid rates: %v", rates))
	}
	return &Limiter{
		rates:      rates,
		retention:  retention,
		categories: make(map[any]*categoryState),
		now:        time.Now,
	}
}

// Allow reports whether an event for category may be registered now
// without exceeding any configured rate; if so, it is registered.
func (l *Limiter) Allow(category any) bool {
	now := l.now()

	l.mu.Lock()
	cs, ok := l.categories[category]
	if !ok {
		cs = &categoryState{}
		l.categories[category] = cs
	}
	l.mu.Unlock()

	cs.mu.Lock()
	defer cs.mu.Unlock()

	cutoff := now.Add(-l.retention)
	cs.events = pruneBefore(cs.events, cutoff)

	for d, limit := range l.rates {
		windowStart := now.Add(-d)
		count := countSince(cs.events, windowStart)
		if count >= limit {
			return false
		}
	}

	cs.events = append(cs.events, now)
	return true
}

func pruneBefore(events []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(events) && events[i].Before(cutoff) {
		i++
	}
	return events[i:]
}

func countSince(events []time.Time, since time.Time) int {
	n := 0
	for _, e := range events {
		if !e.Before(since) {
			n++
		}
	}
	return n
}
