// Package sched implements the kernel thread scheduler: the run queue, the
// wait-queue primitive used everywhere else in the core, context
// switching, interrupt-priority discipline, and cancellable sleep
// (spec.md section 4.1).
//
// This is the dependency-free leaf of the core's three subsystems — it
// relies only on Go's scheduler-adjacent primitives (goroutines, channels,
// sync.Cond) standing in for the hardware context-switch and
// interrupt-wait primitives spec.md treats as external collaborators.
package sched

import (
	"sync"

	"github.com/Jacky12315/Weenix/internal/kernel"
	"github.com/Jacky12315/Weenix/internal/kernlog"
)

// Scheduler owns the global run queue and is the sole entry point for
// every wait-queue operation in the core. A process is expected to build
// exactly one Scheduler (Design Notes section 9: "a single scheduler
// handle threaded through the kernel rather than true globals").
type Scheduler struct {
	// mu plus cond stand in for the IPL raise/save/restore idiom: holding
	// mu is "IPL HIGH", and cond.Wait's atomic unlock-block-relock is
	// exactly the "lower IPL; interrupt-wait; re-raise IPL" sequence
	// switch() needs, since Go gives us no separate way to "halt until an
	// interrupt fires" (Design Notes section 9's critical-section
	// abstraction).
	mu   sync.Mutex
	cond *sync.Cond

	runQueue *WaitQueue
	current  *Thread
	idle     *Thread
}

// New constructs a Scheduler and starts its idle thread. The idle thread
// is never placed on the run queue; it exists only to give switch() an
// "outgoing" context for the very first real context switch. Once any
// thread has run and itself found the run queue empty, that thread's own
// goroutine performs the empty-queue wait loop from then on — idle is
// bootstrap scaffolding, not a perpetually-rescheduled process.
func New(opts ...Option) *Scheduler {
	cfg := resolveOptions(opts)

	s := &Scheduler{
		runQueue: NewWaitQueue(),
	}
	s.cond = sync.NewCond(&s.mu)
	s.idle = NewThread(cfg.idleName, nil)
	s.idle.state = StateRunnable
	s.current = s.idle

	go func() {
		for {
			s.Switch()
		}
	}()

	return s
}

// NewWaitQueue returns a new, empty wait queue usable with this scheduler
// (spec.md's queue_init). Wait queues carry no reference back to their
// scheduler; any Scheduler's Sleep/Wakeup/Cancel methods can operate on
// any WaitQueue, matching the spec's treatment of wait channels as plain
// data.
func (s *Scheduler) NewWaitQueue() *WaitQueue { return NewWaitQueue() }

// Current returns the thread currently holding the CPU.
func (s *Scheduler) Current() *Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// CurrentProcess returns the Process field of the current thread.
func (s *Scheduler) CurrentProcess() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Process
}

// State returns t's current scheduling state.
func (s *Scheduler) State(t *Thread) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.state
}

// Cancelled reports whether cancel(t) has ever been called. The flag is
// sticky: once set it is never cleared.
func (s *Scheduler) Cancelled(t *Thread) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.cancelled
}

// RunQueueLen returns the number of runnable threads waiting for the CPU.
func (s *Scheduler) RunQueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runQueue.Len()
}

// Spawn allocates a thread and starts its backing goroutine, parked until
// the scheduler first switches to it. The thread is not runnable until a
// separate call to MakeRunnable, matching spec.md's split between thread
// creation and scheduling.
func (s *Scheduler) Spawn(name string, process any, fn func()) *Thread {
	t := NewThread(name, process)
	go func() {
		<-t.resume
		fn()
		s.exit(t)
	}()
	return t
}

// MakeRunnable sets t's state to runnable and enqueues it on the run
// queue. Safe to call from interrupt-handler goroutines as well as thread
// context — the critical section makes both safe.
func (s *Scheduler) MakeRunnable(t *Thread) {
	s.mu.Lock()
	kernel.Assertf(t.state != StateExited, "make_runnable on exited thread %d (%s)", t.id, t.Name)
	kernel.Assertf(t.waitChannel == nil, "make_runnable on thread %d (%s) still linked on a wait queue", t.id, t.Name)
	t.state = StateRunnable
	s.runQueue.enqueueHead(t)
	s.cond.Broadcast()
	s.mu.Unlock()

	kernlog.Debug("sched", "make_runnable", map[string]any{"thread": t.id, "name": t.Name})
}

// SleepOn blocks the current thread on q until something wakes it via
// WakeupOn, BroadcastOn, or Cancel. Precondition: the caller is the
// current thread and is not already linked on any queue.
func (s *Scheduler) SleepOn(q *WaitQueue) {
	s.mu.Lock()
	cur := s.current
	kernel.Assertf(cur.waitChannel == nil, "sleep_on: thread %d (%s) already on a wait queue", cur.id, cur.Name)
	cur.state = StateSleeping
	q.enqueueHead(cur)
	s.switchLocked()
}

// SleepOnLocked is SleepOn for callers that guard their own wakeup
// condition with an external lock. It links the current thread onto q
// while still holding the scheduler's own critical section, and only
// then calls unlock (typically the caller's mutex Unlock method) before
// blocking. Because the thread is already linked on q by the time unlock
// runs, a concurrent WakeupOn/BroadcastOn on q that becomes possible the
// instant the external lock is released can never find the queue empty
// and silently miss this thread — the classic check-then-unlock-then-
// sleep lost-wakeup window is closed. unlock may be nil.
func (s *Scheduler) SleepOnLocked(q *WaitQueue, unlock func()) {
	s.mu.Lock()
	cur := s.current
	kernel.Assertf(cur.waitChannel == nil, "sleep_on_locked: thread %d (%s) already on a wait queue", cur.id, cur.Name)
	cur.state = StateSleeping
	q.enqueueHead(cur)
	if unlock != nil {
		unlock()
	}
	s.switchLocked()
}

// CancellableSleepOn is like SleepOn, but the sleep can be interrupted by
// Cancel. If the thread's cancelled flag is already set on entry, it
// returns kernel.EINTR immediately without enqueuing or switching.
//
// Open Question resolution (spec.md Design Notes): when woken by
// cancellation rather than by WakeupOn/BroadcastOn, this still returns nil
// (success) — the cancel path has already made the thread runnable by the
// time it resumes here. Callers that care about the distinction must
// check Scheduler.Cancelled(t) themselves after this returns.
func (s *Scheduler) CancellableSleepOn(q *WaitQueue) error {
	s.mu.Lock()
	cur := s.current
	if cur.cancelled {
		s.mu.Unlock()
		return kernel.EINTR
	}
	kernel.Assertf(cur.waitChannel == nil, "cancellable_sleep_on: thread %d (%s) already on a wait queue", cur.id, cur.Name)
	cur.state = StateSleepingCancellable
	q.enqueueHead(cur)
	s.switchLocked()
	return nil
}

// WakeupOn dequeues and re-runnables one thread from q (FIFO: the thread
// that has waited longest), returning it. It is a no-op returning nil if
// q is empty.
func (s *Scheduler) WakeupOn(q *WaitQueue) *Thread {
	s.mu.Lock()
	t := q.dequeueTail()
	if t == nil {
		s.mu.Unlock()
		return nil
	}
	t.state = StateRunnable
	s.runQueue.enqueueHead(t)
	s.cond.Broadcast()
	s.mu.Unlock()

	kernlog.Debug("sched", "wakeup_on", map[string]any{"thread": t.id, "name": t.Name})
	return t
}

// BroadcastOn wakes every thread currently on q, in FIFO order.
func (s *Scheduler) BroadcastOn(q *WaitQueue) {
	s.mu.Lock()
	var woke []uint64
	for {
		t := q.dequeueTail()
		if t == nil {
			break
		}
		t.state = StateRunnable
		s.runQueue.enqueueHead(t)
		woke = append(woke, t.id)
	}
	if len(woke) > 0 {
		s.cond.Broadcast()
	}
	s.mu.Unlock()

	if len(woke) > 0 {
		kernlog.Debug("sched", "broadcast_on", map[string]any{"threads": woke})
	}
}

// Cancel sets t's cancelled flag. It is idempotent. If t is currently in a
// cancellable sleep, it is additionally removed from its wait channel and
// made runnable; otherwise only the flag is set, to be observed the next
// time t calls CancellableSleepOn.
//
// Open Question resolution: the spec's source has what looks like a typo
// in this dequeue (a reference to the wait channel passed where a queue
// pointer belongs); the corrected behavior, implemented here, is to remove
// t from its own waitChannel and then make it runnable.
func (s *Scheduler) Cancel(t *Thread) {
	s.mu.Lock()
	t.cancelled = true
	if t.state == StateSleepingCancellable {
		q := t.waitChannel
		kernel.Assertf(q != nil, "cancel: thread %d (%s) sleeping-cancellable but not linked on any queue", t.id, t.Name)
		q.remove(t)
		t.state = StateRunnable
		s.runQueue.enqueueHead(t)
		s.cond.Broadcast()
	}
	s.mu.Unlock()

	kernlog.Debug("sched", "cancel", map[string]any{"thread": t.id, "name": t.Name})
}

// Switch is the scheduling core (spec.md section 4.1). It must be called
// on the current thread's own goroutine: it blocks that goroutine until
// some other thread (or this same call, after an empty-queue wait) hands
// the CPU back.
func (s *Scheduler) Switch() {
	s.mu.Lock()
	s.switchLocked()
}

// switchLocked implements the switch() algorithm. Called with s.mu held;
// returns with s.mu released, after control has been handed to the
// incoming thread and later handed back to the caller.
func (s *Scheduler) switchLocked() {
	for s.runQueue.Empty() {
		// cond.Wait atomically releases s.mu and blocks, reacquiring it
		// before returning — exactly the "lower IPL; interrupt-wait;
		// re-raise IPL" sequence spec.md's switch() algorithm describes.
		s.cond.Wait()
	}

	next := s.runQueue.dequeueTail()
	outgoing := s.current
	s.current = next
	s.mu.Unlock()

	contextSwitch(outgoing, next, true)
}

// exit runs the internal equivalent of the external "exit" collaborator
// spec.md defers to process lifecycle code: it marks the thread exited and
// transfers the CPU away without expecting to be resumed.
func (s *Scheduler) exit(t *Thread) {
	s.mu.Lock()
	t.state = StateExited

	for s.runQueue.Empty() {
		s.cond.Wait()
	}
	next := s.runQueue.dequeueTail()
	s.current = next
	s.mu.Unlock()

	kernlog.Debug("sched", "exit", map[string]any{"thread": t.id, "name": t.Name})
	contextSwitch(t, next, false)
}

// contextSwitch is the opaque machine-context primitive (Design Notes
// "Context switch as control-flow hazard"), realized with per-thread
// resume channels instead of saved register state: signalling incoming's
// channel is "load context", and blocking on outgoing's channel is "save
// context and wait to be resumed". When blockOutgoing is false (the exit
// path), the outgoing goroutine is about to return and must not be
// resumed again.
func contextSwitch(outgoing, incoming *Thread, blockOutgoing bool) {
	incoming.resume <- struct{}{}
	if blockOutgoing && outgoing != nil {
		<-outgoing.resume
	}
}
