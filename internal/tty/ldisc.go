// Package tty implements the terminal device layer: a byte-device
// read/write pair mediated by a line discipline, driven by a
// driver-provided keystroke callback and an opaque I/O-blocking
// primitive.
package tty

import (
	"strings"
	"sync"

	"github.com/Jacky12315/Weenix/internal/sched"
)

const (
	charBackspace1 = 0x08
	charBackspace2 = 0x7f
	charKillLine   = 0x15 // ^U
)

// LineDiscipline is the stateful per-tty input buffer and cursor state
// (spec.md section 3). It buffers keystrokes into a pending line, moves
// completed lines into a readable buffer on newline, and wakes any
// reader blocked in Read.
type LineDiscipline struct {
	mu sync.Mutex

	tty *Device

	pending []byte // current in-progress line, not yet visible to Read
	raw     []byte // completed, not-yet-consumed bytes, including '\n'
	lines   int    // number of '\n' currently present in raw

	readQueue *sched.WaitQueue
}

// NewLineDiscipline returns an unattached line discipline.
func NewLineDiscipline() *LineDiscipline {
	return &LineDiscipline{
		readQueue: sched.NewWaitQueue(),
	}
}

// Attach binds the discipline to the tty device it serves. Matches
// spec.md's attach(ld, tty) operation; the back-reference is used only
// for diagnostics, since all reading/writing flows through the methods
// here rather than back through the device.
func (ld *LineDiscipline) Attach(t *Device) {
	ld.mu.Lock()
	ld.tty = t
	ld.mu.Unlock()
}

// ReceiveChar processes one input keystroke and returns the echo string
// to send back to the terminal: the character itself for ordinary input,
// "\b \b" for backspace, a run of the same for kill-line, and "\r\n" at
// end of line.
func (ld *LineDiscipline) ReceiveChar(c byte) string {
	ld.mu.Lock()
	defer ld.mu.Unlock()

	switch c {
	case charBackspace1, charBackspace2:
		if len(ld.pending) == 0 {
			return ""
		}
		ld.pending = ld.pending[:len(ld.pending)-1]
		return "\b \b"

	case charKillLine:
		n := len(ld.pending)
		if n == 0 {
			return ""
		}
		ld.pending = ld.pending[:0]
		return strings.Repeat("\b \b", n)

	case '\r', '\n':
		ld.pending = append(ld.pending, '\n')
		ld.raw = append(ld.raw, ld.pending...)
		ld.pending = ld.pending[:0]
		ld.lines++
		return "\r\n"

	default:
		ld.pending = append(ld.pending, c)
		return string(c)
	}
}

// ProcessChar transforms one output byte for the write path, expanding
// "\n" to "\r\n" the way a real terminal driver's output processing
// does; every other byte passes through unchanged.
func (ld *LineDiscipline) ProcessChar(c byte) string {
	if c == '\n' {
		return "\r\n"
	}
	return string(c)
}

// Read copies up to count bytes of completed input into buf, blocking on
// the scheduler s if no line is ready yet. It returns the number of
// bytes copied, which may be fewer than count or fewer than a full line
// if the caller's buffer is smaller than what is available.
func (ld *LineDiscipline) Read(s *sched.Scheduler, buf []byte, count int) int {
	ld.mu.Lock()
	for ld.lines == 0 {
		// SleepOnLocked links this thread onto readQueue before it
		// unlocks ld.mu (passed as the release callback), so a
		// wakeReaders that races in right after can never find the
		// queue empty and miss us.
		s.SleepOnLocked(ld.readQueue, ld.mu.Unlock)
		ld.mu.Lock()
	}

	n := count
	if n > len(ld.raw) {
		n = len(ld.raw)
	}
	if n > len(buf) {
		n = len(buf)
	}
	copy(buf, ld.raw[:n])

	consumed := ld.raw[:n]
	for _, b := range consumed {
		if b == '\n' {
			ld.lines--
		}
	}
	ld.raw = ld.raw[n:]
	ld.mu.Unlock()

	return n
}

// wakeReaders is called after ReceiveChar completes a line to hand the
// CPU to a blocked reader. Device.Callback calls this once per input
// character, after the lock guarding the buffer mutation above has been
// released, so the scheduler's own critical section never nests inside
// ld.mu. The ld.lines recheck here is just an optimization to skip an
// idle WaitQueue walk; it is not what makes this race-free. A reader
// only ever enqueues on readQueue via Scheduler.SleepOnLocked, which
// links it before ld.mu is released, so WakeupOn always observes any
// reader that was waiting at the moment this line completed.
func (ld *LineDiscipline) wakeReaders(s *sched.Scheduler) {
	ld.mu.Lock()
	ready := ld.lines > 0
	ld.mu.Unlock()
	if ready {
		s.WakeupOn(ld.readQueue)
	}
}
