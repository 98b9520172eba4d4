package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/gitwork/internal/collector"
	"github.com/fakeyudi/gitwork/internal/logging"
	"github.com/fakeyudi/gitwork/internal/worklog"
)

var (
	watchOpts     analyzeFlags
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [repo...]",
	Short: "Rewrite the report whenever a repository's HEAD reflog changes",
	Long: `Write the report once, then watch each repository's HEAD reflog and
rewrite the report after every commit, pull, merge or rebase. Stops on
Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := logging.FromContext(ctx)

		run, err := watchOpts.request(cmd, args)
		if err != nil {
			return err
		}

		gitDirs := make([]string, 0, len(run.req.RepoPaths))
		for _, p := range run.req.RepoPaths {
			dir, err := collector.ResolveGitDir(ctx, gitRunner, p)
			if err != nil {
				return err
			}
			gitDirs = append(gitDirs, dir)
		}

		refresh := func() {
			// Relative windows follow the clock across midnight.
			if window, err := collector.ParseWindow(watchOpts.since, watchOpts.until, watchOpts.days, now()); err == nil {
				run.req.Window = window
			}
			r, err := worklog.Run(ctx, run.req)
			if err != nil {
				log.Error("analysis failed", "error", err)
				return
			}
			data, err := run.renderer.Render(r)
			if err != nil {
				log.Error("render failed", "error", err)
				return
			}
			path, err := writeReport(run.outputDir, run.req.Window, run.ext, data)
			if err != nil {
				log.Error("write failed", "error", err)
				return
			}
			printSummary(cmd.OutOrStdout(), r, path)
		}

		refresh()
		cmd.Printf("Watching %d repositories (Ctrl-C to stop)\n", len(gitDirs))
		err = collector.Watch(ctx, gitDirs, watchDebounce, refresh)
		if ctx.Err() != nil {
			return nil
		}
		return err
	},
}

func init() {
	registerAnalyzeFlags(watchCmd, &watchOpts)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 2*time.Second, "quiet period before rewriting the report")
	rootCmd.AddCommand(watchCmd)
}
