package collector

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fakeyudi/gitwork/internal/logging"
)

// ResolveGitDir returns the git directory of a repository path.
func ResolveGitDir(ctx context.Context, runner GitRunner, repoPath string) (string, error) {
	if runner == nil {
		runner = DefaultGitRunner
	}
	out, err := runner(ctx, repoPath, "rev-parse", "--absolute-git-dir")
	if err != nil {
		return "", fmt.Errorf("resolve git dir of %s: %w", repoPath, err)
	}
	return strings.TrimSpace(out), nil
}

// Watch watches the logs directory of every git dir in gitDirs and calls
// onChange once writes to a HEAD reflog have been quiet for debounce. It
// blocks until ctx is cancelled. This is called from `gitwork watch`.
func Watch(ctx context.Context, gitDirs []string, debounce time.Duration, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	log := logging.FromContext(ctx)
	for _, dir := range gitDirs {
		logs := filepath.Join(dir, "logs")
		if err := watcher.Add(logs); err != nil {
			return fmt.Errorf("watch %s: %w", logs, err)
		}
		log.Debug("watching reflog", "dir", logs)
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != "HEAD" {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				timer.Reset(debounce)
			}

		case <-timer.C:
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// Watcher errors are non-fatal; continue watching.
			log.Warn("watch error", "error", err)
		}
	}
}
