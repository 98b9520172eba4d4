package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/gitwork/internal/config"
	"github.com/fakeyudi/gitwork/internal/logging"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

var (
	verbose bool
	logJSON bool
)

var rootCmd = &cobra.Command{
	Use:   "gitwork",
	Short: "Reconstruct work sessions and parallel work from git history",
	Long: `gitwork reads commits and reflog events from local git repositories,
groups them into work sessions and reports the periods where several
repositories were worked on at the same time.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.New(cmd.ErrOrStderr(), logging.Options{Verbose: verbose, JSON: logJSON})
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		cmd.SetContext(logging.WithLogger(ctx, logger))

		// Load and merge config files.
		global, err := config.LoadGlobal()
		if err != nil {
			return fmt.Errorf("loading global config: %w", err)
		}
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		project, err := config.LoadProject(cwd)
		if err != nil {
			return fmt.Errorf("loading project config: %w", err)
		}
		cfg = config.Merge(global, project)
		logger.Debug("config loaded", "repos", len(cfg.Repos), "format", cfg.DefaultFormat)

		return nil
	},
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the merged configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging on stderr")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit logs as JSON")
}
