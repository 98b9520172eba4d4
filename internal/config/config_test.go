package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/fakeyudi/gitwork/internal/timeline"
)

// Feature: gitwork, Property 7: Config merge precedence
func TestConfigMergePrecedence(t *testing.T) {
	nonEmptyString := rapid.StringMatching(`[a-zA-Z0-9/_.-]{1,20}`)
	optionalInt := func(t *rapid.T, label string) *int {
		if !rapid.Bool().Draw(t, "has"+label) {
			return nil
		}
		v := rapid.IntRange(0, 240).Draw(t, label)
		return &v
	}

	configGen := rapid.Custom(func(t *rapid.T) *Config {
		cfg := &Config{}
		if rapid.Bool().Draw(t, "hasAuthor") {
			cfg.Author = nonEmptyString.Draw(t, "author")
		}
		if rapid.Bool().Draw(t, "hasDefaultFormat") {
			cfg.DefaultFormat = nonEmptyString.Draw(t, "defaultFormat")
		}
		if rapid.Bool().Draw(t, "hasOutputDir") {
			cfg.OutputDir = nonEmptyString.Draw(t, "outputDir")
		}
		cfg.Sessions.GapMinutes = optionalInt(t, "gap")
		cfg.Sessions.MergeGapMinutes = optionalInt(t, "mergeGap")
		return cfg
	})

	rapid.Check(t, func(t *rapid.T) {
		global := configGen.Draw(t, "global")
		project := configGen.Draw(t, "project")

		merged := Merge(global, project)
		defaults := Defaults()

		checkStringField(t, "Author", global.Author, project.Author, defaults.Author, merged.Author)
		checkStringField(t, "DefaultFormat", global.DefaultFormat, project.DefaultFormat, defaults.DefaultFormat, merged.DefaultFormat)
		checkStringField(t, "OutputDir", global.OutputDir, project.OutputDir, defaults.OutputDir, merged.OutputDir)
		checkIntField(t, "GapMinutes", global.Sessions.GapMinutes, project.Sessions.GapMinutes, defaults.Sessions.GapMinutes, merged.Sessions.GapMinutes)
		checkIntField(t, "MergeGapMinutes", global.Sessions.MergeGapMinutes, project.Sessions.MergeGapMinutes, defaults.Sessions.MergeGapMinutes, merged.Sessions.MergeGapMinutes)
	})
}

// checkStringField asserts the merge precedence rule for a single string field:
//   - project non-empty  → merged == project
//   - project empty, global non-empty → merged == global
//   - both empty → merged == defaultVal
func checkStringField(t *rapid.T, name, globalVal, projectVal, defaultVal, mergedVal string) {
	t.Helper()
	switch {
	case projectVal != "":
		if mergedVal != projectVal {
			t.Fatalf("%s: both set, expected project value %q, got %q", name, projectVal, mergedVal)
		}
	case globalVal != "":
		if mergedVal != globalVal {
			t.Fatalf("%s: only global set, expected global value %q, got %q", name, globalVal, mergedVal)
		}
	default:
		if mergedVal != defaultVal {
			t.Fatalf("%s: neither set, expected default %q, got %q", name, defaultVal, mergedVal)
		}
	}
}

// checkIntField is checkStringField for optional ints, where zero is a real
// value and only nil counts as unset.
func checkIntField(t *rapid.T, name string, globalVal, projectVal, defaultVal, mergedVal *int) {
	t.Helper()
	want := defaultVal
	if globalVal != nil {
		want = globalVal
	}
	if projectVal != nil {
		want = projectVal
	}
	if mergedVal == nil || *mergedVal != *want {
		t.Fatalf("%s: expected %d, got %v", name, *want, mergedVal)
	}
}

func TestDefaultsValues(t *testing.T) {
	d := Defaults()
	if d.DefaultFormat != "markdown" {
		t.Errorf("DefaultFormat: want %q, got %q", "markdown", d.DefaultFormat)
	}
	if d.OutputDir != "." {
		t.Errorf("OutputDir: want %q, got %q", ".", d.OutputDir)
	}
	if d.Repos == nil || len(d.Repos) != 0 {
		t.Errorf("Repos: want empty slice, got %v", d.Repos)
	}
	if got := d.Options(); got != timeline.DefaultOptions() {
		t.Errorf("Options: want %+v, got %+v", timeline.DefaultOptions(), got)
	}
}

func TestLoadGlobalMissingFileReturnsDefaults(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", tmp)

	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg == nil {
		t.Fatal("expected non-nil config, got nil")
	}
	defaults := Defaults()
	if cfg.DefaultFormat != defaults.DefaultFormat {
		t.Errorf("DefaultFormat: want %q, got %q", defaults.DefaultFormat, cfg.DefaultFormat)
	}
	if cfg.OutputDir != defaults.OutputDir {
		t.Errorf("OutputDir: want %q, got %q", defaults.OutputDir, cfg.OutputDir)
	}
}

func TestLoadGlobalFromXDG(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Setenv("HOME", t.TempDir())

	dir := filepath.Join(tmp, "gitwork")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	body := `
repos = ["~/src/api", "/srv/web"]
author = "ada@example.com"
default_format = "json"

[sessions]
gap_minutes = 45
merge_gap_minutes = 0
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("LoadGlobal: %v", err)
	}
	home, _ := os.UserHomeDir()
	if len(cfg.Repos) != 2 || cfg.Repos[0] != filepath.Join(home, "src/api") || cfg.Repos[1] != "/srv/web" {
		t.Errorf("Repos: got %v", cfg.Repos)
	}
	if cfg.Author != "ada@example.com" || cfg.DefaultFormat != "json" {
		t.Errorf("unexpected values: %+v", cfg)
	}

	merged := Merge(cfg, nil)
	opts := merged.Options()
	if opts.GapThresholdMinutes != 45 {
		t.Errorf("GapThresholdMinutes: want 45, got %d", opts.GapThresholdMinutes)
	}
	if opts.MergeGapMinutes != 0 {
		t.Errorf("explicit zero merge gap should override the default, got %d", opts.MergeGapMinutes)
	}
	if opts.AnchorLookbackMinutes != timeline.DefaultAnchorLookbackMinutes {
		t.Errorf("AnchorLookbackMinutes: want default, got %d", opts.AnchorLookbackMinutes)
	}
}

func TestLoadProjectMissingFileReturnsNil(t *testing.T) {
	cfg, err := LoadProject(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != nil {
		t.Errorf("expected nil config, got %+v", cfg)
	}
}

func TestLoadProjectParseError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ProjectFile), []byte("repos = [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadProject(dir)
	if err == nil {
		t.Fatal("expected an error for invalid TOML, got nil")
	}
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), ProjectFile) {
		t.Errorf("error should name the file, got %q", err.Error())
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	cfg.DefaultFormat = "yaml"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown format")
	}

	cfg = Defaults()
	zero := 0
	cfg.Sessions.GapMinutes = &zero
	err := cfg.Validate()
	if !errors.Is(err, timeline.ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := Defaults()
	cfg.Author = "ada"
	cfg.Repos = []string{"/srv/api"}

	var buf bytes.Buffer
	if err := Encode(&buf, cfg); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(buf.String(), "[sessions]") {
		t.Errorf("expected a sessions table, got:\n%s", buf.String())
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ProjectFile), buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadProject(dir)
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}
	if loaded.Author != "ada" || loaded.Options() != cfg.Options() {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}
