package tty

import (
	"github.com/Jacky12315/Weenix/internal/kernlog"
	"github.com/Jacky12315/Weenix/internal/sched"
	"github.com/Jacky12315/Weenix/internal/tty/ratelimit"
)

// TTYMajor is the fixed device-major number every tty registers under;
// Minor distinguishes individual terminals.
const TTYMajor = 4

// Device is a tty device: a driver handle, a line-discipline handle
// installed after creation, and the (major, minor) byte-device identity
// spec.md's data model describes.
type Device struct {
	Major, Minor int

	driver Driver
	ldisc  *LineDiscipline
	sched  *sched.Scheduler

	// limiter guards against a driver callback delivering keystrokes
	// faster than any physical keyboard could; callbacks beyond the
	// configured rate are silently dropped rather than queued, the same
	// way a real UART drops characters under sustained overrun.
	limiter *ratelimit.Limiter
}

// NewDevice allocates a tty device bound to driver and scheduler s, with
// minor id. The line discipline is installed separately via Attach,
// matching the creation/attach split in spec.md section 4.4. Pass
// WithRateLimiter to install overrun protection at construction time
// instead of via the WithRateLimiter method below.
func NewDevice(id int, driver Driver, s *sched.Scheduler, opts ...Option) *Device {
	cfg := resolveOptions(opts)
	return &Device{
		Major:   TTYMajor,
		Minor:   id,
		driver:  driver,
		sched:   s,
		limiter: cfg.limiter,
	}
}

// WithRateLimiter installs an input rate limiter on the device. Not part
// of the minimal creation contract; callers that want overrun protection
// opt in explicitly.
func (d *Device) WithRateLimiter(l *ratelimit.Limiter) *Device {
	d.limiter = l
	return d
}

// Attach installs ld as this device's line discipline.
func (d *Device) Attach(ld *LineDiscipline) {
	d.ldisc = ld
	ld.Attach(d)
}

// Callback is invoked by the driver on every keypress. It forwards the
// character to the line discipline and echoes the result back to the
// driver one byte at a time.
func (d *Device) Callback(c byte) {
	if d.limiter != nil && !d.limiter.Allow(d.Minor) {
		kernlog.Warn("tty", "input rate limit exceeded, dropping keystroke", map[string]any{"minor": d.Minor})
		return
	}

	echo := d.ldisc.ReceiveChar(c)
	d.echo(echo)
	d.ldisc.wakeReaders(d.sched)
}

func (d *Device) echo(s string) {
	for i := 0; i < len(s); i++ {
		d.driver.ProvideChar(s[i])
	}
}

// Read implements the tty_read byte-device operation: it blocks driver
// I/O for the duration of the call, delegates to the line discipline
// (which may itself suspend the caller's thread until a line is ready),
// and restores the driver's masking state before returning.
func (d *Device) Read(buf []byte, count int) int {
	token := d.driver.BlockIO()
	defer d.driver.UnblockIO(token)
	return d.ldisc.Read(d.sched, buf, count)
}

// Write implements the tty_write byte-device operation. It processes
// exactly count bytes of buf, including any embedded NUL — the
// binary-safe behavior spec.md's rewrite recommendation over the
// stop-at-NUL original.
func (d *Device) Write(buf []byte, count int) int {
	token := d.driver.BlockIO()
	defer d.driver.UnblockIO(token)

	n := count
	if n > len(buf) {
		n = len(buf)
	}
	for i := 0; i < n; i++ {
		out := d.ldisc.ProcessChar(buf[i])
		d.echo(out)
	}
	return n
}
