package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ragworks/finchat/internal/domain"
)

var (
	// Styles
	answerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	stageDoneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	stageWarnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	stageFailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	stageIdleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	infoStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("62"))

	contextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			PaddingLeft(2)
)

func stageLine(stage domain.Stage, status domain.StageStatus) string {
	label := fmt.Sprintf("%s %s", statusGlyph(status), stage)
	switch status {
	case domain.StatusCompleted, domain.StatusOptional:
		return stageDoneStyle.Render(label)
	case domain.StatusWarning:
		return stageWarnStyle.Render(label)
	case domain.StatusFailed:
		return stageFailStyle.Render(label)
	default:
		return stageIdleStyle.Render(label)
	}
}

func statusGlyph(status domain.StageStatus) string {
	switch status {
	case domain.StatusCompleted:
		return "✓"
	case domain.StatusWarning:
		return "!"
	case domain.StatusOptional:
		return "*"
	case domain.StatusFailed:
		return "✗"
	case domain.StatusWorking:
		return "…"
	default:
		return "·"
	}
}

func renderTracker(t domain.Tracker) string {
	var sb strings.Builder
	for i, status := range t.Steps {
		sb.WriteString(stageLine(domain.Stage(i), status))
		sb.WriteByte('\n')
	}
	if t.Info != "" {
		sb.WriteByte('\n')
		sb.WriteString(infoStyle.Render(t.Info))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func renderAnswer(msg domain.Message) string {
	var sb strings.Builder
	if msg.Validation != nil {
		sb.WriteString(renderTracker(*msg.Validation))
		sb.WriteByte('\n')
	}
	sb.WriteString(answerStyle.Render("Answer:"))
	sb.WriteByte('\n')
	sb.WriteString(msg.Content)
	sb.WriteByte('\n')
	return sb.String()
}

func renderContext(msg domain.Message) string {
	if msg.Context == "" {
		return ""
	}
	return "\nContext:\n" + contextStyle.Render(msg.Context) + "\n"
}

func renderChart(c *domain.Chart) string {
	if c == nil || len(c.Series) < 2 {
		return ""
	}
	values, growth := c.Series[0].Y, c.Series[1].Y

	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(answerStyle.Render(c.Title))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%-6s %15s %9s\n", "Year", "Value", "Growth"))
	for i, year := range c.X {
		if i >= len(values) || i >= len(growth) {
			break
		}
		sb.WriteString(fmt.Sprintf("%-6s %15.0f %8.2f%%\n", year, values[i], growth[i]))
	}
	return sb.String()
}
