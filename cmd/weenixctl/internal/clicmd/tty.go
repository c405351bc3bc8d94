package clicmd

import (
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/Jacky12315/Weenix/internal/sched"
	"github.com/Jacky12315/Weenix/internal/tty"
	"github.com/Jacky12315/Weenix/internal/ttydrv"
)

var ttyCmd = &cobra.Command{
	Use:   "tty",
	Short: "Exercise the terminal line discipline and byte-device path",
}

var ttyDemoRealTTY bool

var ttyDemoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Type a line through a loopback driver and read it back",
	RunE:  runTTYDemo,
}

func init() {
	ttyDemoCmd.Flags().BoolVar(&ttyDemoRealTTY, "real-tty", false,
		"drive a real terminal in raw mode (ttydrv.Unix) instead of the loopback driver; POSIX only")
	ttyCmd.AddCommand(ttyDemoCmd)
}

func runTTYDemo(cmd *cobra.Command, args []string) error {
	if ttyDemoRealTTY {
		return runTTYDemoReal(cmd)
	}

	s := sched.New()
	driver := ttydrv.NewLoopback()
	dev := tty.NewDevice(0, driver, s)
	dev.Attach(tty.NewLineDiscipline())

	result := make(chan int, 1)
	buf := make([]byte, 64)
	reader := s.Spawn("weenixctl-reader", nil, func() {
		result <- dev.Read(buf, len(buf))
	})
	s.MakeRunnable(reader)

	for _, c := range []byte("hello\n") {
		dev.Callback(c)
	}

	n := <-result
	fmt.Println(spew.Sdump(map[string]any{
		"echoed": driver.Output(),
		"read":   string(buf[:n]),
	}))
	return nil
}

// runTTYDemoReal wires ttydrv.Unix instead of the loopback driver,
// putting the controlling terminal into raw mode for the duration of
// the call and restoring it before returning.
func runTTYDemoReal(cmd *cobra.Command) error {
	driver, restore, err := newRealTTYDriver()
	if err != nil {
		return fmt.Errorf("tty demo --real-tty: %w", err)
	}
	defer func() {
		if err := restore(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "tty demo --real-tty: restore failed: %v\n", err)
		}
	}()

	s := sched.New()
	dev := tty.NewDevice(0, driver, s)
	dev.Attach(tty.NewLineDiscipline())

	result := make(chan int, 1)
	buf := make([]byte, 64)
	reader := s.Spawn("weenixctl-reader", nil, func() {
		result <- dev.Read(buf, len(buf))
	})
	s.MakeRunnable(reader)

	stdin := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(stdin)
		if n > 0 {
			dev.Callback(stdin[0])
		}
		if stdin[0] == '\n' || stdin[0] == '\r' {
			break
		}
		if err != nil {
			return fmt.Errorf("tty demo --real-tty: reading stdin: %w", err)
		}
	}

	n := <-result
	fmt.Println(spew.Sdump(map[string]any{"read": string(buf[:n])}))
	return nil
}
