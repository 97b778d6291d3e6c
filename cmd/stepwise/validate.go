package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/stepwise/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check every description for consistency",
	Long:  `Builds each description on its own and reports broken references, bad fields and eager cycles.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd, args); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Flow is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	opts := runOptions(cmd, args)
	engine, err := cli.CreateEngine(opts, cli.CreateLogger(opts.Debug, opts.NoColor))
	if err != nil {
		return fmt.Errorf("failed to init engine: %w", err)
	}
	return engine.Validate(context.Background())
}
