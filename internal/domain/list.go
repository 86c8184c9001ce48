package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// List is a board column. Built-in lists are synthesized per workspace and
// share their id with a Status; custom lists are stored.
type List struct {
	// ID is the list identifier. Built-in lists use the status value.
	ID string `json:"id" yaml:"id" validate:"required"`

	// Title is the display name.
	Title string `json:"title" yaml:"title" validate:"notblank"`

	// WorkspaceID is the owning workspace, or empty for a global list.
	WorkspaceID string `json:"workspaceId,omitempty" yaml:"workspaceId,omitempty"`

	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// IsBuiltInListID reports whether id names one of the fixed status columns.
func IsBuiltInListID(id string) bool {
	return IsValidStatus(Status(id))
}

// BuiltInTitle returns the display title of a built-in list id,
// e.g. "in-progress" becomes "In Progress".
func BuiltInTitle(id string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(id, "-", " "))
}

// BuiltInLists synthesizes the fixed status columns stamped with workspaceID.
// A fresh slice is returned on every call.
func BuiltInLists(workspaceID string) []List {
	statuses := AllStatuses()
	lists := make([]List, 0, len(statuses))
	for _, s := range statuses {
		lists = append(lists, List{
			ID:          string(s),
			Title:       BuiltInTitle(string(s)),
			WorkspaceID: workspaceID,
		})
	}
	return lists
}

// IsBuiltIn reports whether l is a built-in column.
func (l List) IsBuiltIn() bool {
	return IsBuiltInListID(l.ID)
}
