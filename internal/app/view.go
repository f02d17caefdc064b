package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/zhukunpenglinyutong/mossx-sub008/internal/backend"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/styles"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/thread"
	"github.com/zhukunpenglinyutong/mossx-sub008/internal/ui"
)

// View renders the full frame.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	list := m.renderThreadList()
	divider := ui.RenderDivider(m.height)
	scrollbar := ui.RenderScrollbar(ui.ScrollbarParams{
		TotalItems:   m.timeline.TotalLineCount(),
		VisibleItems: m.timeline.Height,
		ScrollOffset: m.timeline.YOffset,
		TrackHeight:  m.timeline.Height,
	})
	right := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, m.timeline.View(), scrollbar),
		m.renderComposer(),
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top, list, divider, right)
	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderFooter())
}

func (m Model) renderThreadList() string {
	width := m.listWidth()
	var sb strings.Builder

	header := m.repoName
	if header == "" {
		header = m.workDir
	}
	if m.gitStatus.Branch != "" {
		header += " · " + m.gitStatus.Branch
	}
	sb.WriteString(ui.TruncateLine(styles.TitleStyle.Render(header), width, "…"))
	sb.WriteString("\n")
	if !m.gitStatus.Clean() {
		summary := m.gitStatus.Summary()
		if m.gitAdded > 0 || m.gitRemoved > 0 {
			summary += fmt.Sprintf(" +%d −%d", m.gitAdded, m.gitRemoved)
		}
		sb.WriteString(ui.TruncateLine(styles.MutedStyle.Render(summary), width, "…"))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if len(m.threads) == 0 {
		sb.WriteString(styles.MutedStyle.Render("no sessions found"))
		return lipgloss.NewStyle().Width(width).Render(sb.String())
	}

	for i, t := range m.threads {
		line := m.renderThreadLine(t, i == m.selected, width)
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return lipgloss.NewStyle().Width(width).Render(sb.String())
}

func (m Model) renderThreadLine(t backend.Thread, selected bool, width int) string {
	marker := "  "
	if t.IsActive {
		marker = "● "
	}
	title := t.Title
	if title == "" {
		title = t.ID
	}
	line := fmt.Sprintf("%s%s %s", marker, t.BackendIcon, title)
	if m.cfg.UI.ShowTimestamps && !t.UpdatedAt.IsZero() {
		line += " " + relativeAge(time.Since(t.UpdatedAt))
	}
	line = ui.TruncateLine(line, width, "…")
	if selected {
		return styles.SelectionStyle.Render(ui.PadRight(line, width))
	}
	return line
}

// relativeAge compacts a duration to one unit: 45s, 12m, 3h, 2d.
func relativeAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// refreshTimeline re-renders the reconciled items into the viewport,
// or the git diff overlay when one is up.
func (m *Model) refreshTimeline() {
	width := m.timeline.Width
	if width <= 0 {
		return
	}
	if m.gitDiff != "" {
		header := styles.TitleStyle.Render("working tree diff") + " " +
			styles.MutedStyle.Render("(esc to close)")
		m.timeline.SetContent(header + "\n\n" + highlightDiff(m.gitDiff))
		return
	}
	var sb strings.Builder
	for i, it := range m.items {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(m.renderItem(it, width))
		sb.WriteString("\n")
	}
	if m.loading {
		sb.WriteString(m.spinner.ViewWithLabel("loading thread"))
	}
	m.timeline.SetContent(sb.String())
}

func (m Model) renderItem(it thread.Item, width int) string {
	switch it.Kind {
	case thread.KindMessage:
		return m.renderMessage(it, width)
	case thread.KindReasoning:
		return m.renderReasoning(it, width)
	case thread.KindTool:
		return m.renderTool(it, width)
	case thread.KindDiff:
		return m.renderDiff(it, width)
	case thread.KindReview:
		return m.renderReview(it)
	case thread.KindExplore:
		return m.renderExplore(it)
	}
	return ""
}

func (m Model) renderMessage(it thread.Item, width int) string {
	label := styles.AssistantLabelStyle.Render("assistant")
	if it.Role == thread.RoleUser {
		label = styles.UserLabelStyle.Render("you")
	}
	body := strings.Join(m.renderer.Render(it.Text, width), "\n")
	return label + "\n" + body
}

func (m Model) renderReasoning(it thread.Item, width int) string {
	if !m.cfg.UI.ShowThinking {
		return styles.ThinkingStyle.Render("· thinking ·")
	}
	text := it.Content
	if text == "" {
		text = it.Summary
	}
	lines := m.renderer.Render(text, width)
	for i := range lines {
		lines[i] = styles.ThinkingStyle.Render(lines[i])
	}
	return styles.ThinkingStyle.Render("thinking") + "\n" + strings.Join(lines, "\n")
}

func (m Model) renderTool(it thread.Item, width int) string {
	var sb strings.Builder
	sb.WriteString(styles.ToolLabelStyle.Render("⚒ " + toolHeading(it)))
	if it.Status != "" {
		sb.WriteString(" ")
		sb.WriteString(statusStyle(it.Status).Render("[" + it.Status + "]"))
	}
	if it.Detail != "" && it.Detail != it.Title {
		sb.WriteString("\n")
		sb.WriteString(styles.MutedStyle.Render(ui.TruncateLine(it.Detail, width, "…")))
	}
	if it.Output != "" {
		sb.WriteString("\n")
		sb.WriteString(indentBlock(it.Output))
	}
	for _, change := range it.Changes {
		sb.WriteString("\n")
		sb.WriteString(styles.MutedStyle.Render("  " + change.Kind + " " + change.Path))
		if change.Diff != "" {
			sb.WriteString("\n")
			sb.WriteString(highlightDiff(change.Diff))
		}
	}
	return sb.String()
}

func toolHeading(it thread.Item) string {
	if it.Title != "" {
		return it.Title
	}
	if it.ToolType != "" {
		return it.ToolType
	}
	return "tool"
}

func statusStyle(status string) lipgloss.Style {
	lower := strings.ToLower(status)
	switch {
	case strings.Contains(lower, "fail") || strings.Contains(lower, "error"):
		return styles.StatusFailedStyle
	case strings.Contains(lower, "complete") || strings.Contains(lower, "done") || strings.Contains(lower, "success"):
		return styles.StatusDoneStyle
	default:
		return styles.StatusRunningStyle
	}
}

func (m Model) renderDiff(it thread.Item, width int) string {
	header := styles.TitleStyle.Render(it.Title)
	if it.Title == "" {
		header = styles.TitleStyle.Render("diff")
	}
	return header + "\n" + highlightDiff(it.Diff)
}

func (m Model) renderReview(it thread.Item) string {
	label := "review started"
	if it.ReviewState == thread.ReviewCompleted {
		label = "review completed"
	}
	out := styles.MutedStyle.Render("── " + label + " ──")
	if it.Text != "" {
		out += "\n" + it.Text
	}
	return out
}

func (m Model) renderExplore(it thread.Item) string {
	label := "explored"
	if it.ExploreStatus == thread.StatusExploring {
		label = "exploring"
	}
	var sb strings.Builder
	sb.WriteString(styles.MutedStyle.Render("⌕ " + label))
	for _, entry := range it.Entries {
		sb.WriteString("\n  ")
		sb.WriteString(string(entry.Kind))
		sb.WriteString(" ")
		sb.WriteString(entry.Label)
		if entry.Detail != "" {
			sb.WriteString(styles.MutedStyle.Render(" (" + entry.Detail + ")"))
		}
	}
	return sb.String()
}

func (m Model) renderComposer() string {
	style := styles.BorderNormalStyle
	if m.focus == paneComposer {
		style = styles.BorderActiveStyle
	}
	return style.Render(m.composer.View())
}

func (m Model) renderFooter() string {
	if m.statusMsg != "" {
		if m.statusIsErr {
			return styles.ErrorStyle.Render(m.statusMsg)
		}
		return styles.MutedStyle.Render(m.statusMsg)
	}
	if m.spinner.IsActive() {
		return m.spinner.ViewWithLabel("working")
	}
	return styles.MutedStyle.Render("tab: switch pane · enter: send · y: copy thread · g: git diff · ctrl+c: quit")
}

// exportThread renders the reconciled timeline as plain markdown for
// the clipboard.
func (m Model) exportThread() string {
	var sb strings.Builder
	current := m.currentThread()
	if current != nil {
		sb.WriteString("# ")
		title := current.Title
		if title == "" {
			title = current.ID
		}
		sb.WriteString(title)
		sb.WriteString("\n\n")
	}
	for _, it := range m.items {
		switch it.Kind {
		case thread.KindMessage:
			role := "Assistant"
			if it.Role == thread.RoleUser {
				role = "User"
			}
			fmt.Fprintf(&sb, "**%s:**\n\n%s\n\n", role, it.Text)
		case thread.KindTool:
			fmt.Fprintf(&sb, "> %s", toolHeading(it))
			if it.Status != "" {
				fmt.Fprintf(&sb, " [%s]", it.Status)
			}
			sb.WriteString("\n")
			if it.Output != "" {
				fmt.Fprintf(&sb, "```\n%s\n```\n", it.Output)
			}
			sb.WriteString("\n")
		case thread.KindDiff:
			fmt.Fprintf(&sb, "```diff\n%s\n```\n\n", it.Diff)
		}
	}
	return sb.String()
}

func indentBlock(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i := range lines {
		lines[i] = "  " + lines[i]
	}
	return styles.MutedStyle.Render(strings.Join(lines, "\n"))
}
