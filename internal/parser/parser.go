// Package parser turns free-form text into a task draft.
//
// Parse asks a remote text generator first and falls back to Heuristic on any
// failure. Both paths return the same shape, so callers never need to know
// which one ran.
package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/taskflow/internal/clock"
	"github.com/mrz1836/taskflow/internal/contracts"
	"github.com/mrz1836/taskflow/internal/domain"
	tferrors "github.com/mrz1836/taskflow/internal/errors"
	"github.com/mrz1836/taskflow/internal/logging"
	"github.com/mrz1836/taskflow/internal/prompts"
)

// Path names reported to Metrics.
const (
	PathAI        = "ai"
	PathHeuristic = "heuristic"
)

// Metrics records which path produced a draft.
type Metrics interface {
	ParsePath(path string)
}

// NoopMetrics discards parser metrics.
type NoopMetrics struct{}

// ParsePath implements Metrics.
func (NoopMetrics) ParsePath(string) {}

// aiFields are the keys the generator must return, all of them.
//
//nolint:gochecknoglobals // Read-only lookup
var aiFields = []string{"title", "priority", "listId", "dueDate", "labels"}

// Parser produces task drafts from text.
type Parser struct {
	generator contracts.TextGenerator
	clock     clock.Clock
	logger    zerolog.Logger
	metrics   Metrics
}

// Option configures a Parser.
type Option func(*Parser)

// WithClock sets the clock used for relative dates.
func WithClock(c clock.Clock) Option {
	return func(p *Parser) { p.clock = clock.Or(c) }
}

// WithLogger sets the parser's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Parser) { p.logger = logging.WithComponent(l, logging.ComponentParser) }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(p *Parser) {
		if m != nil {
			p.metrics = m
		}
	}
}

// New creates a Parser. A nil generator means every parse uses the heuristic.
func New(generator contracts.TextGenerator, opts ...Option) *Parser {
	p := &Parser{
		generator: generator,
		clock:     clock.RealClock{},
		logger:    zerolog.Nop(),
		metrics:   NoopMetrics{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse returns a draft for text placed against lists. It never fails.
func (p *Parser) Parse(ctx context.Context, text string, lists []domain.List) domain.TaskDraft {
	now := p.clock.Now()

	if p.generator == nil {
		return p.fallback(text, lists, now)
	}

	prompt, err := p.buildPrompt(text, lists, now)
	if err != nil {
		p.logger.Debug().Err(err).Msg("prompt render failed, using heuristic")
		return p.fallback(text, lists, now)
	}

	output, err := p.generator.Generate(ctx, prompt)
	if err != nil {
		p.logger.Debug().Err(err).Msg("text generation failed, using heuristic")
		return p.fallback(text, lists, now)
	}

	draft, err := parseResponse(output, lists)
	if err != nil {
		p.logger.Debug().Err(err).Msg("generator reply rejected, using heuristic")
		return p.fallback(text, lists, now)
	}

	p.metrics.ParsePath(PathAI)
	return draft
}

func (p *Parser) fallback(text string, lists []domain.List, now time.Time) domain.TaskDraft {
	p.metrics.ParsePath(PathHeuristic)
	return Heuristic(text, lists, now)
}

func (p *Parser) buildPrompt(text string, lists []domain.List, now time.Time) (string, error) {
	refs := make([]prompts.ListRef, 0, len(lists))
	for _, l := range lists {
		refs = append(refs, prompts.ListRef{ID: l.ID, Title: l.Title})
	}
	return prompts.Render(prompts.TaskParse, prompts.TaskParseData{
		Text:  text,
		Lists: refs,
		Today: domain.DateOf(now).String(),
	})
}

// aiTask is the generator's reply shape.
type aiTask struct {
	Title    string   `json:"title"`
	Priority string   `json:"priority"`
	ListID   string   `json:"listId"`
	DueDate  *string  `json:"dueDate"`
	Labels   []string `json:"labels"`
}

// parseResponse decodes and checks a generator reply. Every field must be
// present; dueDate may be null.
func parseResponse(output string, lists []domain.List) (domain.TaskDraft, error) {
	output = stripFences(output)
	if output == "" {
		return domain.TaskDraft{}, tferrors.ErrAIEmptyResponse
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(output), &raw); err != nil {
		return domain.TaskDraft{}, tferrors.Wrap(tferrors.ErrAIInvalidFormat, err.Error())
	}
	for _, key := range aiFields {
		if _, ok := raw[key]; !ok {
			return domain.TaskDraft{}, tferrors.Wrapf(tferrors.ErrAIInvalidFormat, "missing %q", key)
		}
	}

	var reply aiTask
	if err := json.Unmarshal([]byte(output), &reply); err != nil {
		return domain.TaskDraft{}, tferrors.Wrap(tferrors.ErrAIInvalidFormat, err.Error())
	}

	return toDraft(reply, lists)
}

func toDraft(reply aiTask, lists []domain.List) (domain.TaskDraft, error) {
	priority := domain.Priority(strings.ToLower(strings.TrimSpace(reply.Priority)))
	if !domain.IsValidPriority(priority) {
		return domain.TaskDraft{}, tferrors.Wrapf(tferrors.ErrInvalidPriority, "%q", reply.Priority)
	}

	listID := strings.TrimSpace(reply.ListID)
	if !knownList(listID, lists) {
		return domain.TaskDraft{}, tferrors.Wrapf(tferrors.ErrListNotFound, "%q", reply.ListID)
	}

	status := domain.StatusBacklog
	if domain.IsBuiltInListID(listID) {
		status = domain.Status(listID)
	}

	var due *domain.Date
	if reply.DueDate != nil && *reply.DueDate != "" {
		d, err := domain.ParseDate(*reply.DueDate)
		if err != nil {
			return domain.TaskDraft{}, err
		}
		due = &d
	}

	draft := domain.TaskDraft{
		Title:       strings.TrimSpace(reply.Title),
		Description: "",
		Priority:    priority,
		Status:      status,
		Labels:      domain.NormalizeLabels(reply.Labels),
		DueDate:     due,
		ListID:      listID,
		Subtasks:    []domain.Subtask{},
		Comments:    []domain.Comment{},
		Attachments: []string{},
	}
	if err := domain.Validate(draft); err != nil {
		return domain.TaskDraft{}, fmt.Errorf("generator draft: %w", err)
	}
	return draft, nil
}

func knownList(id string, lists []domain.List) bool {
	if id == "" {
		return false
	}
	if domain.IsBuiltInListID(id) {
		return true
	}
	return slices.ContainsFunc(lists, func(l domain.List) bool { return l.ID == id })
}

// stripFences removes a surrounding markdown code block, if any.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
