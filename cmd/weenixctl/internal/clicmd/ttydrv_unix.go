//go:build !windows

package clicmd

import (
	"os"

	"github.com/Jacky12315/Weenix/internal/tty"
	"github.com/Jacky12315/Weenix/internal/ttydrv"
)

// newRealTTYDriver puts os.Stdin into raw mode via ttydrv.Unix and
// returns it as a tty.Driver, along with a cleanup func that restores
// the terminal's original mode.
func newRealTTYDriver() (tty.Driver, func() error, error) {
	drv, err := ttydrv.NewUnix(os.Stdin)
	if err != nil {
		return nil, nil, err
	}
	return drv, drv.Restore, nil
}
