// Package ui holds the small passive view components shared by the app
// views: spinner, divider, scrollbar, and display-width truncation.
package ui

import (
	"strings"

	"github.com/zhukunpenglinyutong/mossx-sub008/internal/styles"
)

// Spinner renders an animated braille wave while a backend is active.
// It is passive: it does not generate ticks, the app's tick handler
// calls Tick to advance the frame.
type Spinner struct {
	frame  int
	active bool
}

var spinnerFrames = []string{
	"⠋ ⠙ ⠹ ⠸",
	"⠙ ⠹ ⠸ ⠼",
	"⠹ ⠸ ⠼ ⠴",
	"⠸ ⠼ ⠴ ⠦",
	"⠼ ⠴ ⠦ ⠧",
	"⠴ ⠦ ⠧ ⠇",
	"⠦ ⠧ ⠇ ⠏",
	"⠧ ⠇ ⠏ ⠋",
	"⠇ ⠏ ⠋ ⠙",
	"⠏ ⠋ ⠙ ⠹",
}

// NewSpinner creates an inactive spinner.
func NewSpinner() Spinner {
	return Spinner{}
}

// Start marks the spinner active and resets the animation.
func (s *Spinner) Start() {
	s.active = true
	s.frame = 0
}

// Stop halts the animation.
func (s *Spinner) Stop() {
	s.active = false
}

// IsActive reports whether the spinner is running.
func (s Spinner) IsActive() bool {
	return s.active
}

// Tick advances the animation frame.
func (s *Spinner) Tick() {
	if s.active {
		s.frame++
	}
}

// View renders the current frame, or "" when stopped.
func (s Spinner) View() string {
	if !s.active {
		return ""
	}
	return styles.MutedStyle.Render(spinnerFrames[s.frame%len(spinnerFrames)])
}

// ViewWithLabel renders the spinner with a trailing label.
func (s Spinner) ViewWithLabel(label string) string {
	if !s.active {
		return ""
	}
	frame := spinnerFrames[s.frame%len(spinnerFrames)]
	var sb strings.Builder
	sb.WriteString(styles.MutedStyle.Render(frame))
	if label != "" {
		sb.WriteString(" ")
		sb.WriteString(styles.MutedStyle.Render(label))
	}
	return sb.String()
}
