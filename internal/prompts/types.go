package prompts

// PromptID identifies a specific prompt template.
type PromptID string

// Prompt identifiers for all AI prompts in taskflow.
const (
	// TaskParse turns free text into the parser's JSON task shape.
	TaskParse PromptID = "task/parse"
)

// ListRef is a list offered to the model as a placement target.
type ListRef struct {
	ID    string
	Title string
}

// TaskParseData contains input data for the TaskParse prompt.
type TaskParseData struct {
	// Text is the user's request, verbatim.
	Text string
	// Lists are the lists the task may be placed in.
	Lists []ListRef
	// Today is the current date as YYYY-MM-DD, for relative dates.
	Today string
}
