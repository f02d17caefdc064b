package ui

import (
	"strings"
	"testing"
)

func TestSpinnerLifecycle(t *testing.T) {
	s := NewSpinner()
	if s.IsActive() {
		t.Error("new spinner should be inactive")
	}
	if s.View() != "" {
		t.Error("inactive spinner should render nothing")
	}

	s.Start()
	if !s.IsActive() {
		t.Error("spinner should be active after Start")
	}
	first := s.View()
	s.Tick()
	second := s.View()
	if first == second {
		t.Error("tick should advance the frame")
	}

	s.Stop()
	if s.View() != "" {
		t.Error("stopped spinner should render nothing")
	}
}

func TestRenderDividerHeight(t *testing.T) {
	out := RenderDivider(5)
	if !strings.Contains(out, "│") {
		t.Errorf("divider missing bar: %q", out)
	}
}

func TestRenderScrollbarAllVisible(t *testing.T) {
	out := RenderScrollbar(ScrollbarParams{TotalItems: 3, VisibleItems: 10, TrackHeight: 4})
	lines := strings.Split(out, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if line != " " {
			t.Errorf("expected spacer column, got %q", line)
		}
	}
}

func TestRenderScrollbarThumbMoves(t *testing.T) {
	top := RenderScrollbar(ScrollbarParams{TotalItems: 100, VisibleItems: 10, ScrollOffset: 0, TrackHeight: 10})
	bottom := RenderScrollbar(ScrollbarParams{TotalItems: 100, VisibleItems: 10, ScrollOffset: 90, TrackHeight: 10})
	if top == bottom {
		t.Error("thumb should move with scroll offset")
	}
	if len(strings.Split(top, "\n")) != 10 {
		t.Errorf("track height wrong: %q", top)
	}
}

func TestTruncateLine(t *testing.T) {
	if got := TruncateLine("hello world", 5, "…"); DisplayWidth(got) > 5 {
		t.Errorf("truncated line too wide: %q", got)
	}
	if got := TruncateLine("short", 10, "…"); got != "short" {
		t.Errorf("short line changed: %q", got)
	}
	if got := TruncateLine("anything", 0, "…"); got != "" {
		t.Errorf("zero width should yield empty, got %q", got)
	}
}

func TestTruncateLinePreservesStyle(t *testing.T) {
	styled := "\x1b[31mred text here\x1b[0m"
	got := TruncateLine(styled, 4, "")
	if DisplayWidth(got) > 4 {
		t.Errorf("styled truncation too wide: %d", DisplayWidth(got))
	}
	if !strings.Contains(got, "\x1b[") {
		t.Errorf("escape sequences stripped: %q", got)
	}
}

func TestPadRight(t *testing.T) {
	if got := PadRight("ab", 5); got != "ab   " {
		t.Errorf("PadRight = %q", got)
	}
	if got := PadRight("toolong", 3); got != "toolong" {
		t.Errorf("PadRight should not cut: %q", got)
	}
	// CJK runes take two cells.
	if got := PadRight("你", 4); got != "你  " {
		t.Errorf("PadRight CJK = %q", got)
	}
}
