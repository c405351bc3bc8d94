// Package clicmd builds the weenixctl cobra command tree. Kept separate
// from main so the command wiring is testable without an os.Exit in the
// way.
package clicmd

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "weenixctl",
	Short: "Inspect and exercise the kernel core's scheduler, vm, and tty subsystems",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			_ = cmd.Help()
		}
	},
}

// SetupCLI wires every subcommand onto the root and returns it.
func SetupCLI() *cobra.Command {
	rootCmd.AddCommand(schedCmd)
	rootCmd.AddCommand(vmCmd)
	rootCmd.AddCommand(ttyCmd)
	return rootCmd
}
