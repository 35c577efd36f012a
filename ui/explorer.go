package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jesspatton/lazyspec/engine"
	"github.com/jesspatton/lazyspec/filesystem"
)

func (m Model) renderSpecs(paneWidth, paneHeight int) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("SPECS") + "\n")
	b.WriteString(m.renderSummary() + "\n\n")

	listHeight := paneHeight - 3
	if len(m.specs) == 0 {
		if m.running {
			b.WriteString("Discovering...")
		} else {
			b.WriteString("No specs selected.")
		}
	} else {
		start, end := visibleRange(m.cursor, len(m.specs), listHeight)
		for i := start; i < end; i++ {
			spec := m.specs[i]
			cursor := " "
			if m.cursor == i {
				cursor = ">"
			}

			icon := statusIcon(m.status[spec])
			if m.status[spec] == engine.StatusRunning {
				icon = m.spinner.View()
			}

			line := fmt.Sprintf("%s %s %s", cursor, icon, filesystem.RelativeTo(m.workDir, spec))
			if m.cursor == i {
				b.WriteString(selectedStyle.Render(line) + "\n")
			} else {
				b.WriteString(line + "\n")
			}
		}
	}

	style := paneStyle
	if m.activePane == PaneSpecs {
		style = activePaneStyle
	}
	return style.
		Width(paneWidth).
		Height(paneHeight).
		Render(b.String())
}

func (m Model) renderSummary() string {
	if m.running {
		return statusStyle.Render(fmt.Sprintf("%s run #%d", m.spinner.View(), m.runs))
	}
	if m.lastErr != nil {
		return failStyle.Render(fmt.Sprintf("run #%d: %v", m.runs, m.lastErr))
	}
	if m.lastStats == nil {
		return statusStyle.Render("waiting")
	}

	passed := passStyle.Render(fmt.Sprintf("%d passed", m.lastStats.Passes))
	failed := fmt.Sprintf("%d failed", m.lastStats.Failures)
	if m.lastStats.Failures > 0 {
		failed = failStyle.Render(failed)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, statusStyle.Render(fmt.Sprintf("run #%d", m.runs)), passed, ", ", failed)
}
