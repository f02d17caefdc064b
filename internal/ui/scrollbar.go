package ui

import (
	"strings"

	"github.com/zhukunpenglinyutong/mossx-sub008/internal/styles"
)

// ScrollbarParams configures a vertical scrollbar rendering.
type ScrollbarParams struct {
	TotalItems   int
	ScrollOffset int
	VisibleItems int
	TrackHeight  int
}

// RenderScrollbar returns a single-column newline-separated scrollbar
// track of exactly TrackHeight lines. When everything fits it returns a
// spacer column so the layout does not jitter.
func RenderScrollbar(params ScrollbarParams) string {
	if params.TrackHeight < 1 {
		return ""
	}
	if params.TotalItems <= params.VisibleItems {
		lines := make([]string, params.TrackHeight)
		for i := range lines {
			lines[i] = " "
		}
		return strings.Join(lines, "\n")
	}

	thumbSize := (params.VisibleItems * params.TrackHeight) / params.TotalItems
	if thumbSize < 1 {
		thumbSize = 1
	}
	if thumbSize > params.TrackHeight {
		thumbSize = params.TrackHeight
	}

	maxOffset := params.TotalItems - params.VisibleItems
	if maxOffset < 1 {
		maxOffset = 1
	}
	thumbPos := (params.ScrollOffset * (params.TrackHeight - thumbSize)) / maxOffset
	if thumbPos < 0 {
		thumbPos = 0
	}
	if thumbPos > params.TrackHeight-thumbSize {
		thumbPos = params.TrackHeight - thumbSize
	}

	trackChar := styles.MutedStyle.Render("│")
	thumbChar := styles.TitleStyle.Render("┃")

	lines := make([]string, params.TrackHeight)
	for i := range lines {
		if i >= thumbPos && i < thumbPos+thumbSize {
			lines[i] = thumbChar
		} else {
			lines[i] = trackChar
		}
	}
	return strings.Join(lines, "\n")
}
