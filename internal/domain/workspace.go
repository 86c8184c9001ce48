package domain

import "time"

// Default workspace ids.
const (
	WorkspaceProfessional = "professional"
	WorkspacePersonal     = "personal"
)

// DefaultWorkspaceColor is used when a workspace is created without a color.
const DefaultWorkspaceColor = "purple"

// Workspace is a named partition of tasks and lists (a "sheet").
type Workspace struct {
	ID    string `json:"id" yaml:"id" validate:"required"`
	Name  string `json:"name" yaml:"name" validate:"notblank"`
	Color string `json:"color" yaml:"color"`
	Icon  string `json:"icon,omitempty" yaml:"icon,omitempty"`

	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// DefaultWorkspaces returns the workspaces every new session starts with.
func DefaultWorkspaces(now time.Time) []Workspace {
	return []Workspace{
		{ID: WorkspaceProfessional, Name: "Professional", Color: "blue", CreatedAt: now, UpdatedAt: now},
		{ID: WorkspacePersonal, Name: "Personal", Color: "green", CreatedAt: now, UpdatedAt: now},
	}
}

// WorkspacePatch holds optional workspace changes. Nil fields are left as is.
type WorkspacePatch struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
	Icon  *string `json:"icon,omitempty"`
}

// Apply copies the set fields of p onto w.
func (p WorkspacePatch) Apply(w *Workspace) {
	if p.Name != nil {
		w.Name = *p.Name
	}
	if p.Color != nil {
		w.Color = *p.Color
	}
	if p.Icon != nil {
		w.Icon = *p.Icon
	}
}
