package main

import (
	"fmt"
	"os"

	"github.com/aretw0/stepwise/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [dir]",
	Short: "Run the flow interactively",
	Long:  `Starts the flow in the terminal. Type "back" to return one step and "exit" to leave.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := runOptions(cmd, args)
		opts.Headless, _ = cmd.Flags().GetBool("headless")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		opts.Watch, _ = cmd.Flags().GetBool("watch")
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.Fresh, _ = cmd.Flags().GetBool("fresh")

		if err := cli.Execute(opts); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("headless", false, "Run without banner or prompts decoration (JSON-Lines IO)")
	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON input/output)")
	runCmd.Flags().BoolP("watch", "w", false, "Run in development mode with hot-reload")
	runCmd.Flags().StringP("session", "s", "", "Persist progress under this session ID and resume it")
	runCmd.Flags().Bool("fresh", false, "Discard the stored session before starting")

	// Bare `stepwise [dir]` behaves like `stepwise run [dir]`.
	rootCmd.Run = runCmd.Run
	rootCmd.Args = cobra.MaximumNArgs(1)
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}
