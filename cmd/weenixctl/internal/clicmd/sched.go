package clicmd

import (
	"fmt"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/Jacky12315/Weenix/internal/sched"
)

var schedCmd = &cobra.Command{
	Use:   "sched",
	Short: "Exercise the kernel thread scheduler",
}

var schedDemoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run three threads through the FIFO scheduler and dump the run queue state",
	RunE:  runSchedDemo,
}

func init() {
	schedCmd.AddCommand(schedDemoCmd)
}

func runSchedDemo(cmd *cobra.Command, args []string) error {
	s := sched.New()
	done := make(chan string, 3)

	names := []string{"alpha", "bravo", "charlie"}
	threads := make([]*sched.Thread, 0, len(names))
	for _, name := range names {
		name := name
		t := s.Spawn(name, nil, func() {
			done <- name
		})
		threads = append(threads, t)
	}
	for _, t := range threads {
		s.MakeRunnable(t)
	}

	order := make([]string, 0, len(names))
	for i := 0; i < len(names); i++ {
		select {
		case name := <-done:
			order = append(order, name)
		case <-time.After(2 * time.Second):
			return fmt.Errorf("sched demo: timed out waiting for threads")
		}
	}

	fmt.Println("run order:", order)
	fmt.Println(spew.Sdump(map[string]any{
		"run_queue_len": s.RunQueueLen(),
	}))
	return nil
}
