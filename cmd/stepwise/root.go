package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aretw0/stepwise/internal/cli"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Environment variables read when the matching flag is not set.
const (
	EnvDir        = "STEPWISE_DIR"
	EnvEntry      = "STEPWISE_ENTRY"
	EnvSource     = "STEPWISE_SOURCE"
	EnvSessionDir = "STEPWISE_SESSION_DIR"
	EnvRedisURL   = "STEPWISE_REDIS_URL"
	EnvDebug      = "STEPWISE_DEBUG"

	// EnvSessionKeys is a comma separated list of base64 AES-256 keys,
	// active key first, used to encrypt stored sessions.
	EnvSessionKeys = "STEPWISE_SESSION_KEYS"
)

var rootCmd = &cobra.Command{
	Use:   "stepwise",
	Short: "Stepwise runs menu and form wizards described in YAML, JSON or Markdown",
	Long: `Stepwise walks users through nested menus and forms, one question at a time,
and hands back everything they answered once the flow is submitted.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is fine; the environment still applies.
		_ = godotenv.Load()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("dir", ".", "Directory containing the flow descriptions")
	flags.String("entry", "", "Entry description path (default: start, main, index or the directory name)")
	flags.String("source", cli.SourceLoam, "Description backend: loam or file")
	flags.String("session-dir", "", "Directory for persisted sessions (default: <dir>/.stepwise/sessions)")
	flags.String("redis-url", "", "Store sessions in Redis instead of files")
	flags.Bool("debug", false, "Log engine events to stderr")
	flags.Bool("no-color", false, "Disable colored logs")
}

// setting returns the flag value when it was set explicitly, then the
// environment variable, then the flag default.
func setting(cmd *cobra.Command, flag, env string) string {
	f := cmd.Flags().Lookup(flag)
	if f != nil && f.Changed {
		return f.Value.String()
	}
	if v, ok := os.LookupEnv(env); ok && v != "" {
		return v
	}
	if f != nil {
		return f.Value.String()
	}
	return ""
}

func boolSetting(cmd *cobra.Command, flag, env string) bool {
	v, _ := strconv.ParseBool(setting(cmd, flag, env))
	return v
}

// runOptions collects the persistent settings shared by every command.
func runOptions(cmd *cobra.Command, args []string) cli.RunOptions {
	dir := setting(cmd, "dir", EnvDir)
	if !cmd.Flags().Changed("dir") && len(args) > 0 {
		dir = args[0]
	}
	sessionDir := setting(cmd, "session-dir", EnvSessionDir)
	if sessionDir == "" {
		sessionDir = filepath.Join(dir, ".stepwise", "sessions")
	}
	noColor, _ := cmd.Flags().GetBool("no-color")
	return cli.RunOptions{
		RepoPath:    dir,
		Entry:       setting(cmd, "entry", EnvEntry),
		Source:      setting(cmd, "source", EnvSource),
		SessionDir:  sessionDir,
		RedisURL:    setting(cmd, "redis-url", EnvRedisURL),
		Debug:       boolSetting(cmd, "debug", EnvDebug),
		NoColor:     noColor,
		SessionKeys: sessionKeys(),
	}
}

func sessionKeys() []string {
	var keys []string
	for _, k := range strings.Split(os.Getenv(EnvSessionKeys), ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
