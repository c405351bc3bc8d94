// Command weenixctl drives small scripted demonstrations of the kernel
// core: the scheduler, the page-fault/brk path, and the tty layer. It
// exists for manual exploration and for the kind of state dump the CLI
// entry point in a systems project usually carries alongside its tests.
package main

import (
	"fmt"
	"os"

	"github.com/Jacky12315/Weenix/cmd/weenixctl/internal/clicmd"
)

func main() {
	root := clicmd.SetupCLI()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
