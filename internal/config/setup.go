package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Save writes cfg to the global config path, creating the directory if needed.
func Save(cfg Config) (string, error) {
	path, err := GlobalPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := Encode(f, cfg); err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return path, nil
}

// RunSetup runs the interactive setup wizard reading answers from in and
// writing prompts to out. existing supplies the default for each prompt.
func RunSetup(in io.Reader, out io.Writer, existing Config) (Config, error) {
	r := bufio.NewReader(in)

	ask := func(prompt, defaultVal string) (string, error) {
		if defaultVal != "" {
			fmt.Fprintf(out, "%s [%s]: ", prompt, defaultVal)
		} else {
			fmt.Fprintf(out, "%s: ", prompt)
		}
		line, err := r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return defaultVal, nil
		}
		return line, nil
	}

	askInt := func(prompt string, current *int, fallback int) (*int, error) {
		def := fallback
		if current != nil {
			def = *current
		}
		ans, err := ask(prompt, strconv.Itoa(def))
		if err != nil {
			return nil, err
		}
		v, err := strconv.Atoi(ans)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a number", strings.TrimSpace(prompt), ans)
		}
		return &v, nil
	}

	cfg := existing
	defaults := Defaults()

	fmt.Fprintln(out)
	fmt.Fprintln(out, "  ┌─────────────────────────────────┐")
	fmt.Fprintln(out, "  │   gitwork setup                 │")
	fmt.Fprintln(out, "  └─────────────────────────────────┘")
	fmt.Fprintln(out)

	var err error

	cfg.Author, err = ask("  Author filter (name or email, empty for all)", cfg.Author)
	if err != nil {
		return Config{}, err
	}

	repos, err := ask("  Repositories (comma separated)", strings.Join(cfg.Repos, ","))
	if err != nil {
		return Config{}, err
	}
	cfg.Repos = splitList(repos)

	format, err := ask("  Default output format (markdown/json)", cfg.DefaultFormat)
	if err != nil {
		return Config{}, err
	}
	if format == "json" {
		cfg.DefaultFormat = "json"
	} else {
		cfg.DefaultFormat = "markdown"
	}

	cfg.OutputDir, err = ask("  Default output directory", cfg.OutputDir)
	if err != nil {
		return Config{}, err
	}

	if cfg.Sessions.GapMinutes, err = askInt("  Session gap (minutes)", cfg.Sessions.GapMinutes, *defaults.Sessions.GapMinutes); err != nil {
		return Config{}, err
	}
	if cfg.Sessions.AnchorLookbackMinutes, err = askInt("  Anchor lookback (minutes)", cfg.Sessions.AnchorLookbackMinutes, *defaults.Sessions.AnchorLookbackMinutes); err != nil {
		return Config{}, err
	}
	if cfg.Sessions.MergeGapMinutes, err = askInt("  Parallel merge gap (minutes)", cfg.Sessions.MergeGapMinutes, *defaults.Sessions.MergeGapMinutes); err != nil {
		return Config{}, err
	}

	fmt.Fprintln(out)
	return cfg, cfg.Validate()
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
