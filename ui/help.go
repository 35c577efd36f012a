package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) renderHelp() string {
	title := titleStyle.Render("HELP")
	helpView := m.help.View(m.keys)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		paneStyle.Render(fmt.Sprintf("%s\n\n%s", title, helpView)),
	)
}

func (m Model) renderFooter() string {
	var parts []string
	if m.lastLog != "" {
		parts = append(parts, m.lastLog)
	}
	parts = append(parts, m.help.View(m.keys))
	return statusStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, joinWith("  ", parts)...))
}

func joinWith(sep string, parts []string) []string {
	out := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, p)
	}
	return out
}
