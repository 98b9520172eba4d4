package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/gitwork/internal/collector"
	"github.com/fakeyudi/gitwork/internal/config"
	"github.com/fakeyudi/gitwork/internal/logging"
	"github.com/fakeyudi/gitwork/internal/report"
	"github.com/fakeyudi/gitwork/internal/timeline"
	"github.com/fakeyudi/gitwork/internal/worklog"
)

// analyzeFlags holds the flags shared by analyze and watch.
type analyzeFlags struct {
	since    string
	until    string
	days     int
	author   string
	title    string
	gap      int
	lookback int
	mergeGap int
	format   string
	output   string
}

var (
	analyzeOpts   analyzeFlags
	analyzeStdout bool
	analyzePlain  bool
	analyzeCopy   bool
)

// gitRunner is replaced in tests.
var gitRunner collector.GitRunner = collector.DefaultGitRunner

// now is replaced in tests.
var now = time.Now

var analyzeCmd = &cobra.Command{
	Use:   "analyze [repo...]",
	Short: "Build a work-session report for one or more repositories",
	Long: `Collect commits and reflog events, group them into work sessions and
detect parallel work across repositories.

Repositories default to the "repos" list of the config, then the current
directory. The report is written to <output_dir>/gitwork-<date>.<ext>.`,
	Example: `  gitwork analyze                          # today, configured repos
  gitwork analyze ~/src/api ~/src/web       # explicit repos
  gitwork analyze --days 7 --format json    # last week as JSON
  gitwork analyze --since 2024-03-01 --stdout`,
	RunE: func(cmd *cobra.Command, args []string) error {
		run, err := analyzeOpts.request(cmd, args)
		if err != nil {
			return err
		}

		r, err := worklog.Run(cmd.Context(), run.req)
		if err != nil {
			return err
		}

		data, err := run.renderer.Render(r)
		if err != nil {
			return fmt.Errorf("render report: %w", err)
		}

		if analyzeStdout {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}

		outputPath, err := writeReport(run.outputDir, run.req.Window, run.ext, data)
		if err != nil {
			return err
		}

		if analyzeCopy {
			if err := clipboard.WriteAll(string(data)); err != nil {
				logging.FromContext(cmd.Context()).Warn("copy to clipboard failed", "error", err)
			} else {
				cmd.Println("Report copied to clipboard.")
			}
		}

		if analyzePlain {
			fmt.Fprintf(cmd.OutOrStdout(), "Report written: %s\n\n", outputPath)
			printReport(cmd.OutOrStdout(), r)
			return nil
		}
		printSummary(cmd.OutOrStdout(), r, outputPath)
		return nil
	},
}

// analyzeRun is a resolved analysis: what to run and where the output goes.
type analyzeRun struct {
	req       worklog.Request
	renderer  report.Renderer
	ext       string
	outputDir string
}

// request resolves flags over the merged config. Flags only override config
// values when they were set explicitly.
func (f *analyzeFlags) request(cmd *cobra.Command, args []string) (analyzeRun, error) {
	c := GetConfig()
	flags := cmd.Flags()

	if flags.Changed("author") {
		c.Author = f.author
	}
	if flags.Changed("format") {
		c.DefaultFormat = f.format
	}
	if flags.Changed("output") {
		c.OutputDir = f.output
	}
	opts := overrideOptions(cmd, c, f)
	if err := opts.Validate(); err != nil {
		return analyzeRun{}, err
	}

	renderer, ext, err := report.RendererFor(c.DefaultFormat)
	if err != nil {
		return analyzeRun{}, err
	}

	window, err := collector.ParseWindow(f.since, f.until, f.days, now())
	if err != nil {
		return analyzeRun{}, err
	}

	repos, err := resolveRepos(args, c)
	if err != nil {
		return analyzeRun{}, err
	}

	return analyzeRun{
		req: worklog.Request{
			RepoPaths: repos,
			Window:    window,
			Author:    c.Author,
			Title:     f.title,
			Options:   opts,
			Runner:    gitRunner,
		},
		renderer:  renderer,
		ext:       ext,
		outputDir: c.OutputDir,
	}, nil
}

func overrideOptions(cmd *cobra.Command, c config.Config, f *analyzeFlags) timeline.Options {
	opts := c.Options()
	flags := cmd.Flags()
	if flags.Changed("gap") {
		opts.GapThresholdMinutes = f.gap
	}
	if flags.Changed("lookback") {
		opts.AnchorLookbackMinutes = f.lookback
	}
	if flags.Changed("merge-gap") {
		opts.MergeGapMinutes = f.mergeGap
	}
	return opts
}

// resolveRepos picks repositories from args, then config, then the working
// directory.
func resolveRepos(args []string, c config.Config) ([]string, error) {
	repos := args
	if len(repos) == 0 {
		repos = c.Repos
	}
	if len(repos) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		repos = []string{cwd}
	}
	out := make([]string, len(repos))
	for i, r := range repos {
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", r, err)
		}
		out[i] = abs
	}
	return out, nil
}

// reportFilename names the output file after the window's dates.
func reportFilename(w collector.Window, ext string) string {
	start := w.Since.Format("2006-01-02")
	end := w.Until.Format("2006-01-02")
	if start == end {
		return "gitwork-" + start + "." + ext
	}
	return "gitwork-" + start + "_" + end + "." + ext
}

func writeReport(outputDir string, w collector.Window, ext string, data []byte) (string, error) {
	if outputDir == "" {
		outputDir = "."
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	outputPath := filepath.Join(outputDir, reportFilename(w, ext))
	if err := report.WriteFile(outputPath, data); err != nil {
		return "", err
	}
	return outputPath, nil
}

// registerAnalyzeFlags binds the flags shared by analyze and watch.
func registerAnalyzeFlags(cmd *cobra.Command, f *analyzeFlags) {
	cmd.Flags().StringVar(&f.since, "since", "", "window start (YYYY-MM-DD or RFC3339, default today)")
	cmd.Flags().StringVar(&f.until, "until", "", "window end (YYYY-MM-DD or RFC3339, default today)")
	cmd.Flags().IntVarP(&f.days, "days", "d", 0, "last N days ending today (overrides --since/--until)")
	cmd.Flags().StringVarP(&f.author, "author", "a", "", "only commits whose author name or email contains this")
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "report title")
	cmd.Flags().IntVar(&f.gap, "gap", timeline.DefaultGapThresholdMinutes, "max minutes between commits of one session")
	cmd.Flags().IntVar(&f.lookback, "lookback", timeline.DefaultAnchorLookbackMinutes, "max minutes a reflog anchor may precede a session")
	cmd.Flags().IntVar(&f.mergeGap, "merge-gap", timeline.DefaultMergeGapMinutes, "max minutes between parallel periods to merge them")
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "output format: markdown or json (overrides config)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output directory (overrides config)")
}

func init() {
	registerAnalyzeFlags(analyzeCmd, &analyzeOpts)
	analyzeCmd.Flags().BoolVar(&analyzeStdout, "stdout", false, "print the rendered report instead of writing a file")
	analyzeCmd.Flags().BoolVar(&analyzePlain, "plain", false, "print the full report as plain text after writing it")
	analyzeCmd.Flags().BoolVar(&analyzeCopy, "copy", false, "copy the rendered report to the clipboard")
	rootCmd.AddCommand(analyzeCmd)
}
