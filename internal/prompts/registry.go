package prompts

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"
	"sync"
	"text/template"
)

//go:embed templates/common/*.tmpl templates/task/*.tmpl
var templateFS embed.FS

// registry holds parsed templates and provides thread-safe access.
type registry struct {
	mu        sync.RWMutex
	templates map[PromptID]*template.Template
}

// globalRegistry is the singleton registry instance.
//
//nolint:gochecknoglobals // singleton pattern for template registry
var globalRegistry = &registry{
	templates: make(map[PromptID]*template.Template),
}

// funcMap returns the functions available to every template.
func funcMap() template.FuncMap {
	return template.FuncMap{
		"join":  strings.Join,
		"lower": strings.ToLower,
		// quote renders s as a double-quoted string with escapes, so user
		// text cannot break out of the request line.
		"quote": strconv.Quote,
	}
}

// init loads all templates at startup.
//
//nolint:gochecknoinits // required to preload embedded templates at package initialization
func init() {
	if err := globalRegistry.load(templateFS); err != nil {
		panic(fmt.Sprintf("failed to load embedded templates: %v", err))
	}
}

// load parses every template under templates/. Templates in common/ are
// partials: they are added to every other template and not registered on
// their own.
func (r *registry) load(fsys fs.FS) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	common := template.New("common").Funcs(funcMap())
	partials, err := fs.Glob(fsys, "templates/common/*.tmpl")
	if err != nil {
		return err
	}
	for _, p := range partials {
		content, readErr := fs.ReadFile(fsys, p)
		if readErr != nil {
			return fmt.Errorf("reading common template %s: %w", p, readErr)
		}
		name := "common/" + strings.TrimSuffix(path.Base(p), ".tmpl")
		if _, parseErr := common.New(name).Parse(string(content)); parseErr != nil {
			return fmt.Errorf("parsing common template %s: %w", p, parseErr)
		}
	}

	return fs.WalkDir(fsys, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".tmpl") || strings.HasPrefix(p, "templates/common/") {
			return nil
		}

		content, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("reading template %s: %w", p, err)
		}

		// templates/task/parse.tmpl -> task/parse
		id := PromptID(strings.TrimSuffix(strings.TrimPrefix(p, "templates/"), ".tmpl"))

		base, err := common.Clone()
		if err != nil {
			return fmt.Errorf("cloning common templates: %w", err)
		}
		tmpl, err := base.New(string(id)).Parse(string(content))
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", p, err)
		}

		r.templates[id] = tmpl
		return nil
	})
}

// get retrieves a template by ID.
func (r *registry) get(id PromptID) (*template.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tmpl, ok := r.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return tmpl, nil
}

// list returns all registered prompt IDs.
func (r *registry) list() []PromptID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]PromptID, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	return ids
}
