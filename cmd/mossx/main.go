// mossx is a terminal client for AI coding-agent sessions. It detects
// which agents have sessions for the current project, reconciles their
// timelines into a consistent view, and follows live updates.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/zhukunpenglinyutong/mossx-sub008/internal/app"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/backend"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/backend/claudecode"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/backend/codex"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/backend/geminicli"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/backend/opencode"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/config"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/prefs"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/styles"
)

// Version is set at build time via ldflags.
var Version = ""

var (
	configPath  = flag.String("config", "", "path to config file")
	projectRoot = flag.String("project", ".", "project root directory")
	debugFlag   = flag.Bool("debug", false, "enable debug logging")
	versionFlag = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Printf("mossx version %s\n", effectiveVersion(Version))
		os.Exit(0)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "mossx requires an interactive terminal")
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if *debugFlag {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	styles.Apply(cfg.UI.Theme)

	workDir, err := filepath.Abs(*projectRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to resolve project root: %v\n", err)
		os.Exit(1)
	}

	// Preferences are optional; run without them if the store fails.
	store, err := prefs.Open(prefs.DefaultPath())
	if err != nil {
		logger.Warn("preference store unavailable", "error", err)
		store = nil
	} else {
		defer store.Close()
	}

	backends, err := backend.Detect(workDir, backendSettings(cfg))
	if err != nil {
		logger.Warn("backend detection failed", "error", err)
	}
	if len(backends) == 0 {
		fmt.Fprintln(os.Stderr, "No agent sessions found for this project.")
		fmt.Fprintln(os.Stderr, "Looked for Codex, Claude Code, Gemini CLI, and OpenCode data.")
		os.Exit(1)
	}
	logger.Info("backends detected", "count", len(backends))

	model := app.New(cfg, backends, workDir, store, logger)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running application: %v\n", err)
		os.Exit(1)
	}
}

// backendSettings maps the config file's backend sections onto
// construction settings, expanding ~ in data directories.
func backendSettings(cfg *config.Config) map[string]backend.Settings {
	return map[string]backend.Settings{
		codex.ID: {
			Enabled: cfg.Backends.Codex.Enabled,
			DataDir: config.ExpandHome(cfg.Backends.Codex.DataDir),
		},
		claudecode.ID: {
			Enabled: cfg.Backends.ClaudeCode.Enabled,
			DataDir: config.ExpandHome(cfg.Backends.ClaudeCode.DataDir),
		},
		geminicli.ID: {
			Enabled: cfg.Backends.GeminiCLI.Enabled,
			DataDir: config.ExpandHome(cfg.Backends.GeminiCLI.DataDir),
		},
		opencode.ID: {
			Enabled: cfg.Backends.OpenCode.Enabled,
			BaseURL: cfg.Backends.OpenCode.BaseURL,
		},
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// effectiveVersion returns the version string, falling back to build
// info when not set via ldflags.
func effectiveVersion(v string) string {
	if v != "" {
		return v
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			rev := setting.Value
			if len(rev) > 12 {
				rev = rev[:12]
			}
			return "devel+" + rev
		}
	}
	return "devel"
}
