//go:build windows

package clicmd

import (
	"fmt"

	"github.com/Jacky12315/Weenix/internal/tty"
)

// newRealTTYDriver has no ttydrv.Unix equivalent on windows: raw-mode
// termios is a POSIX concept. --real-tty reports this rather than
// silently falling back to the loopback driver.
func newRealTTYDriver() (tty.Driver, func() error, error) {
	return nil, nil, fmt.Errorf("--real-tty is not supported on windows")
}
