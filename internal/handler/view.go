package handler

import (
	"fmt"
	"strings"

	"github.com/ragworks/finchat/internal/domain"
)

var statusGlyphs = map[domain.StageStatus]string{
	domain.StatusWaiting:   "▫️",
	domain.StatusWorking:   "⏳",
	domain.StatusCompleted: "✅",
	domain.StatusWarning:   "⚠️",
	domain.StatusOptional:  "✴️",
	domain.StatusFailed:    "❌",
}

// renderTracker draws the five validation stages with their status glyphs
// plus the latest diagnostic line.
func renderTracker(t domain.Tracker) string {
	var sb strings.Builder
	for i, status := range t.Steps {
		sb.WriteString(statusGlyphs[status])
		sb.WriteByte(' ')
		sb.WriteString(domain.Stage(i).String())
		sb.WriteByte('\n')
	}
	if t.Info != "" {
		sb.WriteByte('\n')
		sb.WriteString(t.Info)
	}
	return sb.String()
}

// renderWaiting is the in-flight placeholder body.
func renderWaiting(msg domain.Message) string {
	text := "⏳ " + msg.Content
	if msg.Validation != nil {
		text += "\n\n" + renderTracker(*msg.Validation)
	}
	return text
}

// renderFinal is the finished-turn body: answer, validation summary and the
// chart as a text table (Telegram has no plotting surface).
func renderFinal(msg domain.Message) string {
	var sb strings.Builder
	sb.WriteString(msg.Content)
	if msg.Validation != nil {
		sb.WriteString("\n\n")
		sb.WriteString(renderTracker(*msg.Validation))
	}
	if msg.Chart != nil {
		sb.WriteString("\n\n")
		sb.WriteString(renderChartTable(msg.Chart))
	}
	return sb.String()
}

// renderChartTable lays the two chart series out per year in a fenced block.
func renderChartTable(c *domain.Chart) string {
	if len(c.Series) < 2 {
		return ""
	}
	values, growth := c.Series[0].Y, c.Series[1].Y

	var sb strings.Builder
	sb.WriteString("📊 ")
	sb.WriteString(c.Title)
	sb.WriteString("\n```\n")
	sb.WriteString(fmt.Sprintf("%-6s %15s %9s\n", "Year", "Value", "Growth"))
	for i, year := range c.X {
		if i >= len(values) || i >= len(growth) {
			break
		}
		sb.WriteString(fmt.Sprintf("%-6s %15s %8.2f%%\n", year, humanValue(values[i]), growth[i]))
	}
	sb.WriteString("```")
	return sb.String()
}

// humanValue shortens large normalized values back to a readable unit.
func humanValue(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("$%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.2fM", v/1e6)
	default:
		return fmt.Sprintf("$%.2f", v)
	}
}
