//go:build !windows

package ttydrv

import (
	"os"
	"sync"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
)

// Unix is a tty.Driver backed by a real terminal file descriptor, put
// into raw mode for the duration of use. The original termios state is
// cached the first time it is read and restored on Close, the same
// save-once/restore-many shape as a line editor's raw-mode toggle.
type Unix struct {
	fd int
	f  *os.File

	once       sync.Once
	origErr    error
	origTermio unix.Termios

	mu      sync.Mutex
	blocked int
}

// NewUnix wraps f (typically os.Stdin) as a tty.Driver and immediately
// switches it to raw mode.
func NewUnix(f *os.File) (*Unix, error) {
	u := &Unix{f: f, fd: int(f.Fd())}
	if err := u.setRaw(); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *Unix) original() (*unix.Termios, error) {
	u.once.Do(func() {
		v, err := termios.Tcgetattr(uintptr(u.fd))
		if err != nil {
			u.origErr = err
			return
		}
		u.origTermio = *v
	})
	if u.origErr != nil {
		return nil, u.origErr
	}
	cp := u.origTermio
	return &cp, nil
}

func (u *Unix) setRaw() error {
	orig, err := u.original()
	if err != nil {
		return err
	}
	raw := *orig
	termios.Cfmakeraw(&raw)
	return termios.Tcsetattr(uintptr(u.fd), termios.TCSANOW, &raw)
}

// Restore puts the terminal's original mode back.
func (u *Unix) Restore() error {
	orig, err := u.original()
	if err != nil {
		return err
	}
	return termios.Tcsetattr(uintptr(u.fd), termios.TCSANOW, orig)
}

// ProvideChar writes a single echoed byte to the terminal.
func (u *Unix) ProvideChar(c byte) {
	_, _ = u.f.Write([]byte{c})
}

// BlockIO and UnblockIO track nesting depth; there is no real interrupt
// source to mask on a plain file descriptor, so these exist only to
// satisfy tty.Driver's contract for callers that assume every driver
// honors it symmetrically.
func (u *Unix) BlockIO() any {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.blocked++
	return u.blocked
}

func (u *Unix) UnblockIO(token any) {
	u.mu.Lock()
	u.blocked--
	u.mu.Unlock()
}
