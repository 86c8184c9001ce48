package parser

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/mrz1836/taskflow/internal/domain"
)

// defaultTitle is used when nothing of the input survives cleanup.
const defaultTitle = "New Task"

// minTitleLength is the shortest cleaned title kept before falling back to word extraction.
const minTitleLength = 3

//nolint:gochecknoglobals // Compiled once, read-only
var (
	// noisePattern matches command phrases, list mentions, priority words and
	// day-month dates that do not belong in a title.
	noisePattern = regexp.MustCompile(`(?i)create task|add task|task in|in backlog|backlog list|in progress|progress list|in review|review list|in done|done list|high priority|low priority|urgent|important|deadline|tomorrow|\d{1,2}\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)`)

	// leadingCommand matches a request prefix such as "Create a " or "please add an ".
	leadingCommand = regexp.MustCompile(`(?i)^(please\s+)?(create|add|make)\s+(a|an)\s+`)

	whitespace = regexp.MustCompile(`\s+`)

	// listTitlePatterns caches the whole-word pattern of each list title.
	listTitlePatterns sync.Map

	datePattern = regexp.MustCompile(`(\d{1,2})\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)`)

	monthAbbrevs = []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

	stopWords = map[string]struct{}{
		"create": {}, "task": {}, "add": {}, "in": {}, "with": {}, "high": {},
		"low": {}, "priority": {}, "deadline": {}, "tomorrow": {}, "backlog": {},
	}

	// labelRules is evaluated in order; each label is added at most once.
	labelRules = []labelRule{
		{label: "bug", keywords: []string{"bug", "fix"}},
		{label: "feature", keywords: []string{"feature", "new"}},
		{label: "ui", keywords: []string{"ui", "design"}},
		{label: "backend", keywords: []string{"backend", "api"}},
		{label: "homework", keywords: []string{"homework", "math"}},
	}
)

type labelRule struct {
	label    string
	keywords []string
}

// Heuristic turns text into a draft without any remote help. It never fails:
// empty or nonsense input still yields a creatable draft titled "New Task".
//
// now supplies the current year for "12 mar" style dates and the base day
// for "tomorrow".
func Heuristic(text string, lists []domain.List, now time.Time) domain.TaskDraft {
	lower := strings.ToLower(text)

	listID := matchList(lower, lists)
	status := domain.StatusBacklog
	if domain.IsBuiltInListID(listID) {
		status = domain.Status(listID)
	}

	return domain.TaskDraft{
		Title:       extractTitle(text, lists),
		Description: "",
		Priority:    inferPriority(lower),
		Status:      status,
		Labels:      inferLabels(lower),
		DueDate:     inferDueDate(lower, now),
		ListID:      listID,
		Subtasks:    []domain.Subtask{},
		Comments:    []domain.Comment{},
		Attachments: []string{},
	}
}

// extractTitle strips noise and list names from text, keeping the original casing.
func extractTitle(text string, lists []domain.List) string {
	title := noisePattern.ReplaceAllString(text, "")
	for _, l := range lists {
		if strings.TrimSpace(l.Title) == "" {
			continue
		}
		title = listTitlePattern(l.Title).ReplaceAllString(title, "")
	}
	title = strings.TrimSpace(whitespace.ReplaceAllString(title, " "))
	title = leadingCommand.ReplaceAllString(title, "")

	if utf8.RuneCountInString(title) < minTitleLength {
		title = meaningfulWords(text)
	}

	return capitalize(title)
}

// listTitlePattern matches listTitle as a whole word, ignoring case.
func listTitlePattern(listTitle string) *regexp.Regexp {
	if re, ok := listTitlePatterns.Load(listTitle); ok {
		return re.(*regexp.Regexp)
	}
	re, _ := listTitlePatterns.LoadOrStore(listTitle,
		regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(listTitle)+`\b`))
	return re.(*regexp.Regexp)
}

// meaningfulWords keeps the words of text longer than two characters that are
// not command or priority words.
func meaningfulWords(text string) string {
	var kept []string
	for _, w := range strings.Fields(text) {
		if utf8.RuneCountInString(w) <= 2 {
			continue
		}
		if _, stop := stopWords[strings.ToLower(w)]; stop {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return defaultTitle
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func inferPriority(lower string) domain.Priority {
	switch {
	case containsAny(lower, "urgent", "asap"):
		return domain.PriorityUrgent
	case containsAny(lower, "high", "important"):
		return domain.PriorityHigh
	case containsAny(lower, "low", "minor"):
		return domain.PriorityLow
	default:
		return domain.PriorityMedium
	}
}

// matchList returns the id of the first list mentioned in lower, or backlog.
// Lists are checked in the order given; the first hit wins even when a later
// list would match more specifically.
func matchList(lower string, lists []domain.List) string {
	hasAdd := strings.Contains(lower, "add")
	for _, l := range lists {
		title := strings.ToLower(strings.TrimSpace(l.Title))
		if title == "" {
			continue
		}
		if strings.Contains(lower, "in "+title) ||
			strings.Contains(lower, title+" list") ||
			strings.Contains(lower, "task in "+title) ||
			(hasAdd && strings.Contains(lower, title)) {
			return l.ID
		}
	}
	return string(domain.StatusBacklog)
}

func inferLabels(lower string) []string {
	labels := make([]string, 0, len(labelRules))
	for _, rule := range labelRules {
		if containsAny(lower, rule.keywords...) {
			labels = append(labels, rule.label)
		}
	}
	return labels
}

// inferDueDate reads a "<day> <mon>" date in the current year, or "tomorrow".
func inferDueDate(lower string, now time.Time) *domain.Date {
	if m := datePattern.FindStringSubmatch(lower); m != nil {
		day, err := strconv.Atoi(m[1])
		if err == nil {
			for i, abbrev := range monthAbbrevs {
				if abbrev == m[2] {
					d := domain.NewDate(now.Year(), time.Month(i+1), day)
					return &d
				}
			}
		}
	}
	if strings.Contains(lower, "tomorrow") {
		d := domain.DateOf(now).AddDays(1)
		return &d
	}
	return nil
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
