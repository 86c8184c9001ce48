package tui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/taskflow/internal/domain"
	"github.com/mrz1836/taskflow/internal/testutil"
	"github.com/mrz1836/taskflow/internal/view"
)

//nolint:gochecknoglobals // Fixed test time
var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func TestRelativeTime(t *testing.T) {
	clk := testutil.NewClock(testNow)

	tests := []struct {
		ago  time.Duration
		want string
	}{
		{30 * time.Second, "just now"},
		{time.Minute, "1 minute ago"},
		{5 * time.Minute, "5 minutes ago"},
		{time.Hour, "1 hour ago"},
		{2 * time.Hour, "2 hours ago"},
		{24 * time.Hour, "1 day ago"},
		{3 * 24 * time.Hour, "3 days ago"},
		{7 * 24 * time.Hour, "1 week ago"},
		{21 * 24 * time.Hour, "3 weeks ago"},
	}
	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, RelativeTime(testNow.Add(-tc.ago), clk))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 5))
	cut := Truncate("hello", 4)
	assert.True(t, strings.HasSuffix(cut, "…"))
	assert.LessOrEqual(t, lipgloss.Width(cut), 4)
	assert.Empty(t, Truncate("hello", 0))
	assert.LessOrEqual(t, lipgloss.Width(Truncate("日本語のタスク", 6)), 6, "wide runes count double")
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab   ", PadRight("ab", 5))
	assert.Equal(t, "abcdef", PadRight("abcdef", 3))
	styled := lipgloss.NewStyle().Bold(true).Render("ab")
	assert.Equal(t, 5, lipgloss.Width(PadRight(styled, 5)))
}

func TestStatusAndPriorityStyles(t *testing.T) {
	for _, s := range domain.AllStatuses() {
		assert.NotEqual(t, "?", StatusIcon(s), s)
		assert.Contains(t, FormatStatus(s), string(s))
	}
	assert.Equal(t, "?", StatusIcon("archived"))
	assert.Equal(t, ColorError, PriorityColor(domain.PriorityUrgent))
	assert.Equal(t, ColorSuccess, StatusColor(domain.StatusDone))
	assert.Contains(t, FormatPriority(domain.PriorityHigh), "high")
}

func sampleTasks() []domain.Task {
	overdue := domain.NewDate(2026, time.March, 1)
	later := domain.NewDate(2026, time.April, 1)
	return []domain.Task{
		{
			ID: "t1", Title: "Fix login", Priority: domain.PriorityUrgent, Status: domain.StatusInProgress,
			DueDate: &overdue, UpdatedAt: testNow.Add(-2 * time.Hour),
			Subtasks: []domain.Subtask{{ID: "s1", Text: "repro", Completed: true}, {ID: "s2", Text: "patch"}},
		},
		{
			ID: "t2", Title: "Write docs", Priority: domain.PriorityLow, Status: domain.StatusDone,
			DueDate: &overdue, UpdatedAt: testNow,
		},
		{
			ID: "t3", Title: "Plan sprint", Priority: domain.PriorityMedium, Status: domain.StatusBacklog,
			DueDate: &later, UpdatedAt: testNow,
		},
	}
}

func TestTaskRows(t *testing.T) {
	rows := TaskRows(sampleTasks(), domain.DateOf(testNow), testutil.NewClock(testNow))
	require.Len(t, rows, 3)
	assert.Len(t, rows[0], len(TaskHeaders()))

	assert.Equal(t, "t1", rows[0][0])
	assert.Contains(t, rows[0][4], "2026-03-01!", "open task past due is flagged")
	assert.Equal(t, "2 hours ago", rows[0][5])
	assert.Equal(t, "2026-03-01", rows[1][4], "done task is never overdue")
	assert.Equal(t, "2026-04-01", rows[2][4])
}

func TestTaskDetail(t *testing.T) {
	task := sampleTasks()[0]
	task.Labels = []string{"auth", "bug"}
	task.Comments = []domain.Comment{{ID: "c1", Text: "seen in prod", Author: "sam"}}

	out := TaskDetail(task)
	assert.Contains(t, out, "Fix login")
	assert.Contains(t, out, "auth, bug")
	assert.Contains(t, out, "[x] repro")
	assert.Contains(t, out, "[ ] patch")
	assert.Contains(t, out, "seen in prod (sam)")
	assert.NotContains(t, out, "Assignee", "empty fields are omitted")
}

func TestSummaryLines(t *testing.T) {
	lines := SummaryLines(view.Summarize(sampleTasks(), domain.DateOf(testNow)))
	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "Total:       3")
	assert.Contains(t, joined, "Overdue:     1")
	assert.Contains(t, joined, "Subtasks:    1/2")
}

func TestBoardRenderer(t *testing.T) {
	board := view.Board{
		WorkspaceID: domain.WorkspaceProfessional,
		Columns: []view.Column{
			{List: domain.List{ID: "in-progress", Title: "In Progress"}, Tasks: sampleTasks()[:1]},
			{List: domain.List{ID: "done", Title: "Done"}, Tasks: sampleTasks()[1:2]},
			{List: domain.List{ID: "l-1", Title: "Ideas"}},
		},
	}

	t.Run("columns side by side", func(t *testing.T) {
		var buf bytes.Buffer
		NewBoardRenderer(120, domain.DateOf(testNow)).Render(&buf, board)
		out := buf.String()

		assert.Contains(t, out, "In Progress (1)")
		assert.Contains(t, out, "Done (1)")
		assert.Contains(t, out, "Ideas (0)")
		assert.Contains(t, out, "Fix login")
		assert.Contains(t, out, "overdue")
		assert.Contains(t, out, "1/2")
		assert.Contains(t, out, "empty")

		first := strings.SplitN(out, "\n", 2)[0]
		assert.LessOrEqual(t, lipgloss.Width(first), 120)
	})

	t.Run("narrow terminal wraps columns", func(t *testing.T) {
		var wide, narrow bytes.Buffer
		NewBoardRenderer(120, domain.DateOf(testNow)).Render(&wide, board)
		NewBoardRenderer(MinColumnWidth, domain.DateOf(testNow)).Render(&narrow, board)
		assert.Greater(t, strings.Count(narrow.String(), "\n"), strings.Count(wide.String(), "\n"))
	})

	t.Run("empty board", func(t *testing.T) {
		var buf bytes.Buffer
		NewBoardRenderer(0, domain.DateOf(testNow)).Render(&buf, view.Board{})
		assert.Empty(t, buf.String())
	})
}
