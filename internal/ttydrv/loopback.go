// Package ttydrv provides concrete tty.Driver implementations: an
// in-memory loopback driver for tests and the CLI demo, and a real
// terminal driver backed by termios raw mode.
package ttydrv

import "sync"

// Loopback is a tty.Driver that keeps everything in memory: ProvideChar
// appends to an internal buffer instead of writing to a real terminal,
// and BlockIO/UnblockIO just track nesting depth. Useful for tests and
// for the CLI's scripted demos where there is no real terminal attached.
type Loopback struct {
	mu      sync.Mutex
	out     []byte
	blocked int
}

// NewLoopback returns an empty loopback driver.
func NewLoopback() *Loopback {
	return &Loopback{}
}

func (l *Loopback) ProvideChar(c byte) {
	l.mu.Lock()
	l.out = append(l.out, c)
	l.mu.Unlock()
}

func (l *Loopback) BlockIO() any {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.blocked++
	return l.blocked
}

func (l *Loopback) UnblockIO(token any) {
	l.mu.Lock()
	l.blocked--
	l.mu.Unlock()
}

// Output returns everything echoed to the driver so far.
func (l *Loopback) Output() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return string(l.out)
}
