// Package config loads and saves the JSON configuration file at
// ~/.config/mossx/config.json. Missing fields are filled with defaults
// on load, so a partial file is always valid.
package config

import (
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/thread"
)

// Config is the root configuration structure.
type Config struct {
	Backends BackendsConfig `json:"backends"`
	UI       UIConfig       `json:"ui"`
	Keymap   KeymapConfig   `json:"keymap"`
	Tuning   TuningConfig   `json:"tuning"`
}

// BackendsConfig configures backend detection and endpoints.
type BackendsConfig struct {
	Codex      FileBackendConfig `json:"codex"`
	ClaudeCode FileBackendConfig `json:"claude-code"`
	GeminiCLI  FileBackendConfig `json:"gemini-cli"`
	OpenCode   HTTPBackendConfig `json:"opencode"`
}

// FileBackendConfig configures a file-based backend.
type FileBackendConfig struct {
	Enabled bool   `json:"enabled"`
	DataDir string `json:"dataDir,omitempty"` // supports ~ expansion
}

// HTTPBackendConfig configures a server-backed backend.
type HTTPBackendConfig struct {
	Enabled bool   `json:"enabled"`
	BaseURL string `json:"baseUrl,omitempty"`
}

// UIConfig configures appearance.
type UIConfig struct {
	Theme          string `json:"theme"`
	ShowTimestamps bool   `json:"showTimestamps"`
	ShowThinking   bool   `json:"showThinking"`
}

// KeymapConfig holds key binding overrides.
type KeymapConfig struct {
	Overrides map[string]string `json:"overrides"`
}

// TuningConfig overrides the text-normalization thresholds. Zero values
// mean "use the default".
type TuningConfig struct {
	FragmentRunMin   int     `json:"fragmentRunMin,omitempty"`
	FragmentMaxLen   int     `json:"fragmentMaxLen,omitempty"`
	FragmentMinChars int     `json:"fragmentMinChars,omitempty"`
	LineRunMin       int     `json:"lineRunMin,omitempty"`
	LineMaxLen       int     `json:"lineMaxLen,omitempty"`
	CJKRatio         float64 `json:"cjkRatio,omitempty"`
	CJKMinChars      int     `json:"cjkMinChars,omitempty"`
	DedupeMinLen     int     `json:"dedupeMinLen,omitempty"`
	AffinityRatio    float64 `json:"affinityRatio,omitempty"`
	CombinedRatio    float64 `json:"combinedRatio,omitempty"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Backends: BackendsConfig{
			Codex:      FileBackendConfig{Enabled: true},
			ClaudeCode: FileBackendConfig{Enabled: true},
			GeminiCLI:  FileBackendConfig{Enabled: true},
			OpenCode:   HTTPBackendConfig{Enabled: true, BaseURL: "http://localhost:4096"},
		},
		UI: UIConfig{
			Theme:          "default",
			ShowTimestamps: false,
			ShowThinking:   true,
		},
		Keymap: KeymapConfig{
			Overrides: make(map[string]string),
		},
	}
}

// Validate normalizes out-of-range values instead of rejecting them.
func (c *Config) Validate() error {
	if c.UI.Theme == "" {
		c.UI.Theme = "default"
	}
	if c.Backends.OpenCode.BaseURL == "" {
		c.Backends.OpenCode.BaseURL = "http://localhost:4096"
	}
	if c.Tuning.CJKRatio < 0 || c.Tuning.CJKRatio > 1 {
		c.Tuning.CJKRatio = 0
	}
	if c.Tuning.AffinityRatio < 0 || c.Tuning.AffinityRatio > 1 {
		c.Tuning.AffinityRatio = 0
	}
	if c.Tuning.CombinedRatio < 0 || c.Tuning.CombinedRatio > 1 {
		c.Tuning.CombinedRatio = 0
	}
	return nil
}

// ThreadTuning converts the overrides into the core's tuning struct.
// Unset fields stay zero and pick up the core defaults there.
func (c *Config) ThreadTuning() thread.Tuning {
	return thread.Tuning{
		FragmentRunMin:   c.Tuning.FragmentRunMin,
		FragmentMaxLen:   c.Tuning.FragmentMaxLen,
		FragmentMinChars: c.Tuning.FragmentMinChars,
		LineRunMin:       c.Tuning.LineRunMin,
		LineMaxLen:       c.Tuning.LineMaxLen,
		CJKRatio:         c.Tuning.CJKRatio,
		CJKMinChars:      c.Tuning.CJKMinChars,
		DedupeMinLen:     c.Tuning.DedupeMinLen,
		AffinityRatio:    c.Tuning.AffinityRatio,
		CombinedRatio:    c.Tuning.CombinedRatio,
	}
}
