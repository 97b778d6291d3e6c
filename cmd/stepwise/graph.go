package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/stepwise"
	"github.com/aretw0/stepwise/internal/cli"
	"github.com/aretw0/stepwise/internal/presentation/graph"
	"github.com/aretw0/stepwise/pkg/session"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [dir]",
	Short: "Export the flow graph visualization",
	Long: `Builds the flow from its entry and prints a Mermaid diagram (graph TD).
Lazy references are drawn as dashed edges and left unresolved.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := runOptions(cmd, args)
		engine, err := cli.CreateEngine(opts, cli.CreateLogger(opts.Debug, opts.NoColor))
		if err != nil {
			fmt.Printf("Error initializing engine: %v\n", err)
			os.Exit(1)
		}

		ctx := context.Background()
		sessionID, _ := cmd.Flags().GetString("session")
		if sessionID == "" {
			root, err := engine.Tree(ctx, engine.Entry())
			if err != nil {
				fmt.Printf("Error building graph: %v\n", err)
				os.Exit(1)
			}
			fmt.Print(graph.GenerateMermaid(root, nil))
			return
		}

		s, err := restore(ctx, engine, opts, sessionID)
		if err != nil {
			fmt.Printf("Error restoring session '%s': %v\n", sessionID, err)
			os.Exit(1)
		}
		defer s.Close()
		fmt.Print(graph.GenerateMermaid(s.Root(), &graph.GraphOverlay{Current: s.Current()}))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("session", "s", "", "Highlight the current node of a stored session")
}

// restore rebuilds a stored session so its materialized tree can be drawn.
func restore(ctx context.Context, engine *stepwise.Engine, opts cli.RunOptions, sessionID string) (*session.Session, error) {
	store, err := cli.OpenStore(opts.RedisURL, opts.SessionDir, true)
	if err != nil {
		return nil, err
	}
	if store, err = cli.SealStore(store, opts.SessionKeys); err != nil {
		return nil, err
	}
	snap, err := store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session.Restore(ctx, engine.Factory(), snap)
}
