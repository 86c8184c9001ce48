package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mrz1836/taskflow/internal/clock"
	"github.com/mrz1836/taskflow/internal/domain"
	"github.com/mrz1836/taskflow/internal/view"
)

// TaskHeaders are the columns of TaskRows.
func TaskHeaders() []string {
	return []string{"ID", "TITLE", "STATUS", "PRIORITY", "DUE", "UPDATED"}
}

// maxTitleWidth bounds the title column of task tables.
const maxTitleWidth = 48

// TaskRows formats tasks as table rows. Due dates before today are marked
// overdue unless the task is done.
func TaskRows(tasks []domain.Task, today domain.Date, c clock.Clock) [][]string {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		due := ""
		if t.DueDate != nil {
			due = t.DueDate.String()
			if t.Status != domain.StatusDone && t.DueDate.Before(today) {
				due = lipgloss.NewStyle().Foreground(ColorError).Render(due + "!")
			}
		}
		rows = append(rows, []string{
			t.ID,
			Truncate(t.Title, maxTitleWidth),
			FormatStatus(t.Status),
			FormatPriority(t.Priority),
			due,
			RelativeTime(t.UpdatedAt, c),
		})
	}
	return rows
}

// TaskDetail renders every field of one task as labeled lines.
func TaskDetail(t domain.Task) string {
	var b strings.Builder
	line := func(label, value string) {
		if value == "" {
			return
		}
		_, _ = fmt.Fprintf(&b, "%s %s\n", StyleBold.Render(PadRight(label+":", 12)), value)
	}

	line("ID", t.ID)
	line("Title", t.Title)
	line("Status", FormatStatus(t.Status))
	line("Priority", FormatPriority(t.Priority))
	line("List", t.ListID)
	line("Workspace", t.WorkspaceID)
	line("Labels", strings.Join(t.Labels, ", "))
	line("Assignee", t.Assignee)
	if t.StartDate != nil {
		line("Start", t.StartDate.String())
	}
	if t.DueDate != nil {
		line("Due", t.DueDate.String())
	}
	line("Description", t.Description)
	for _, st := range t.Subtasks {
		box := "[ ]"
		if st.Completed {
			box = "[x]"
		}
		line("Subtask", box+" "+st.Text)
	}
	for _, cm := range t.Comments {
		line("Comment", fmt.Sprintf("%s (%s)", cm.Text, cm.Author))
	}
	return b.String()
}

// SummaryLines renders dashboard counts.
func SummaryLines(s view.Summary) []string {
	lines := []string{
		fmt.Sprintf("Total:       %d", s.Total),
		fmt.Sprintf("Completed:   %d (%d%%)", s.Completed, s.CompletionRate),
		fmt.Sprintf("In progress: %d", s.InProgress),
		fmt.Sprintf("Overdue:     %d", s.Overdue),
	}
	if s.SubtasksTotal > 0 {
		lines = append(lines, fmt.Sprintf("Subtasks:    %d/%d", s.SubtasksCompleted, s.SubtasksTotal))
	}
	for _, st := range domain.AllStatuses() {
		lines = append(lines, fmt.Sprintf("  %s %d", PadRight(FormatStatus(st), 16), s.ByStatus[st]))
	}
	return lines
}
