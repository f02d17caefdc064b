package app

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	chromastyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/zhukunpenglinyutong/mossx-sub008/internal/styles"
)

// highlightDiff colors a unified diff per line: add/remove lines get
// the theme's diff colors, everything else goes through the chroma diff
// lexer with the theme's syntax style.
func highlightDiff(diff string) string {
	if diff == "" {
		return ""
	}
	lexer := lexers.Get("diff")
	style := chromastyles.Get(styles.SyntaxTheme())
	if style == nil {
		style = chromastyles.Fallback
	}

	lines := strings.Split(strings.TrimRight(diff, "\n"), "\n")
	out := make([]string, len(lines))
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			out[i] = styles.DiffAddStyle.Render(line)
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			out[i] = styles.DiffRemoveStyle.Render(line)
		case strings.HasPrefix(line, "@@"):
			out[i] = styles.TitleStyle.Render(line)
		default:
			out[i] = highlightLine(lexer, style, line)
		}
	}
	return strings.Join(out, "\n")
}

// highlightLine tokenizes one line and applies foreground colors from
// the chroma style. Tokenize errors fall back to the plain line.
func highlightLine(lexer chroma.Lexer, style *chroma.Style, line string) string {
	if lexer == nil {
		return styles.MutedStyle.Render(line)
	}
	iterator, err := lexer.Tokenise(nil, line)
	if err != nil {
		return styles.MutedStyle.Render(line)
	}
	var sb strings.Builder
	for _, token := range iterator.Tokens() {
		text := strings.TrimSuffix(token.Value, "\n")
		if text == "" {
			continue
		}
		entry := style.Get(token.Type)
		if entry.Colour.IsSet() {
			sb.WriteString(lipgloss.NewStyle().
				Foreground(lipgloss.Color(entry.Colour.String())).
				Render(text))
		} else {
			sb.WriteString(text)
		}
	}
	return sb.String()
}
