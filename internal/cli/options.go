package cli

import (
	"fmt"
)

// Source backends accepted by RunOptions.Source.
const (
	SourceLoam = "loam"
	SourceFile = "file"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	RepoPath   string
	Entry      string
	Source     string
	Headless   bool
	Watch      bool
	JSON       bool
	Debug      bool
	NoColor    bool
	SessionID  string
	SessionDir string
	RedisURL   string
	Fresh      bool
	// SessionKeys are base64 AES-256 keys. The first seals new snapshots,
	// the rest only open older ones.
	SessionKeys []string
}

// Execute handles the run command, dispatching to session or watch mode.
func Execute(opts RunOptions) error {
	if opts.Watch {
		if opts.Headless || opts.JSON {
			return fmt.Errorf("--watch cannot be combined with --headless or --json")
		}
		return RunWatch(opts)
	}
	return RunSession(opts)
}
