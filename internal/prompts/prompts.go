// Package prompts holds the text/template prompts sent to the text generator.
// Templates are embedded at compile time and parsed once at startup.
package prompts

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrTemplateNotFound is returned for an unregistered prompt id.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrTemplateExecution is returned when data does not fit the template.
	ErrTemplateExecution = errors.New("template execution failed")
)

// Render fills the prompt id with data.
func Render(id PromptID, data any) (string, error) {
	tmpl, err := globalRegistry.get(id)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.Join(ErrTemplateExecution, fmt.Errorf("prompt %s: %w", id, err))
	}
	return buf.String(), nil
}

// Exists reports whether id names a registered prompt. Partials under
// common/ are not prompts.
func Exists(id PromptID) bool {
	_, err := globalRegistry.get(id)
	return err == nil
}

// IDs returns the registered prompt ids in sorted order.
func IDs() []PromptID {
	ids := globalRegistry.list()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
