package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mrz1836/taskflow/internal/domain"
	"github.com/mrz1836/taskflow/internal/view"
)

// MinColumnWidth is the narrowest board column, borders included.
const MinColumnWidth = 22

// BoardRenderer draws a view.Board as bordered columns side by side.
// Columns that do not fit the width wrap onto further rows.
type BoardRenderer struct {
	width int
	today domain.Date
}

// NewBoardRenderer returns a renderer for a terminal of width cells.
// Tasks due before today are marked overdue.
func NewBoardRenderer(width int, today domain.Date) *BoardRenderer {
	if width <= 0 {
		width = DefaultTerminalWidth
	}
	return &BoardRenderer{width: width, today: today}
}

// Render writes the board to w.
func (r *BoardRenderer) Render(w io.Writer, board view.Board) {
	if len(board.Columns) == 0 {
		return
	}

	perRow := max(1, min(len(board.Columns), r.width/MinColumnWidth))
	colWidth := max(MinColumnWidth, r.width/perRow)

	for start := 0; start < len(board.Columns); start += perRow {
		end := min(start+perRow, len(board.Columns))
		rendered := make([]string, 0, end-start)
		for _, col := range board.Columns[start:end] {
			rendered = append(rendered, r.column(col, colWidth))
		}
		_, _ = fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	}
}

// column renders one bordered bucket. width includes the border.
func (r *BoardRenderer) column(col view.Column, width int) string {
	// border (2) + padding (2)
	inner := width - 4

	headerColor := ColorPrimary
	if col.List.IsBuiltIn() {
		headerColor = StatusColor(domain.Status(col.List.ID))
	}
	header := lipgloss.NewStyle().Bold(true).Foreground(headerColor).
		Render(Truncate(fmt.Sprintf("%s (%d)", col.List.Title, len(col.Tasks)), inner))

	lines := []string{header}
	if len(col.Tasks) == 0 {
		lines = append(lines, StyleDim.Render("empty"))
	}
	for _, t := range col.Tasks {
		lines = append(lines, r.card(t, inner)...)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorMuted).
		Padding(0, 1).
		Width(width - 2).
		Render(strings.Join(lines, "\n"))
}

// card renders a task as a title line and a detail line.
func (r *BoardRenderer) card(t domain.Task, inner int) []string {
	title := lipgloss.NewStyle().Foreground(PriorityColor(t.Priority)).Render("▪ ") +
		Truncate(t.Title, inner-2)

	details := []string{string(t.Priority)}
	if t.DueDate != nil {
		due := "due " + t.DueDate.String()
		if t.Status != domain.StatusDone && t.DueDate.Before(r.today) {
			due = lipgloss.NewStyle().Foreground(ColorError).Render(due + " overdue")
		}
		details = append(details, due)
	}
	if n := len(t.Subtasks); n > 0 {
		done := 0
		for _, st := range t.Subtasks {
			if st.Completed {
				done++
			}
		}
		details = append(details, fmt.Sprintf("%d/%d", done, n))
	}
	// Long detail lines wrap inside the column.
	return []string{title, StyleDim.Render("  " + strings.Join(details, " · "))}
}
