package clicmd

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/Jacky12315/Weenix/internal/kernel"
	"github.com/Jacky12315/Weenix/internal/vm"
)

var vmCmd = &cobra.Command{
	Use:   "vm",
	Short: "Exercise the page-fault handler and heap-break manager",
}

var vmDemoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Fault in a page, grow the heap via brk, and dump process state",
	RunE:  runVMDemo,
}

func init() {
	vmCmd.AddCommand(vmDemoCmd)
}

func runVMDemo(cmd *cobra.Command, args []string) error {
	cfg := kernel.NewConfig()
	proc := vm.NewProcess(0x1000, vm.WithUserMemHigh(cfg.UserMemHigh))
	heap := &vm.Area{Start: 1, End: 2, Prot: vm.ProtRead | vm.ProtWrite, Obj: vm.NewAnonObject()}
	proc.Map.Insert(heap)

	text := &vm.Area{Start: 10, End: 12, Prot: vm.ProtRead | vm.ProtExec, Obj: vm.NewAnonObject()}
	proc.Map.Insert(text)

	var killed error
	vm.HandlePageFault(proc, uint64(10*vm.PageSize), vm.CauseUser, func(status error) {
		killed = status
	})
	if killed != nil {
		return fmt.Errorf("vm demo: unexpected fault termination: %w", killed)
	}

	newBrk, err := vm.Brk(proc, addrPtr(0x3500))
	if err != nil {
		return fmt.Errorf("vm demo: brk failed: %w", err)
	}

	fmt.Println(spew.Sdump(map[string]any{
		"brk":  newBrk,
		"rss":  proc.RSS(),
		"heap": *heap,
	}))
	return nil
}

func addrPtr(v uint64) *uint64 { return &v }
