package ui

import (
	"strings"

	"github.com/zhukunpenglinyutong/mossx-sub008/internal/styles"
)

// RenderDivider renders a vertical divider separating the thread list
// from the timeline. Height is the full pane height; the divider draws
// height-2 lines so it sits between the top and bottom borders.
func RenderDivider(height int) string {
	var sb strings.Builder
	for i := 0; i < height-2; i++ {
		sb.WriteString("│")
		if i < height-3 {
			sb.WriteString("\n")
		}
	}
	return styles.MutedStyle.MarginTop(1).Render(sb.String())
}
