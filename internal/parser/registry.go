package parser

import (
	"fmt"
	"slices"
	"sync"

	"github.com/iksnae/chat-convert/internal"
)

// Registry is an ordered, read-only list of parsers. Order is priority:
// the first parser whose CanHandle accepts an input wins, so dialect
// specific parsers must come before the generic fallbacks that would
// otherwise shadow them.
type Registry struct {
	parsers []Parser
}

// NewRegistry creates a registry with parsers in priority order. The slice
// is copied; the registry never changes after construction and is safe to
// share between goroutines.
func NewRegistry(parsers ...Parser) *Registry {
	return &Registry{parsers: slices.Clone(parsers)}
}

// DefaultParsers returns every built-in parser, most specific first
func DefaultParsers() []Parser {
	return []Parser{
		&CanonicalParser{},
		&NativeExportParser{},
		&ChatGPTOfficialParser{},
		&ClaudePlatformParser{},
		&ClaudeExporterParser{},
		&ChatGPTExporterParser{},
		&GenericJSONParser{},
		&MarkdownPromptResponseParser{},
		&MarkdownHeadingsParser{},
		&MarkdownBoldParser{},
		&HTMLClassParser{},
		&HTMLTextParser{},
	}
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	return NewRegistry(DefaultParsers()...)
})

// DefaultRegistry returns the shared registry of built-in parsers
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

// Parsers returns the registered parsers in priority order
func (r *Registry) Parsers() []Parser {
	return slices.Clone(r.parsers)
}

// Resolve returns the first parser that supports the input's format and
// accepts its content
func (r *Registry) Resolve(in *Input) (Parser, error) {
	for _, p := range r.parsers {
		if !slices.Contains(p.Formats(), in.Format) {
			continue
		}
		if canHandle(p, in) {
			internal.LogDebug("parser %s accepted %s", p.Name(), in.Path)
			return p, nil
		}
	}
	return nil, &internal.NoParserAvailableError{Format: in.Format, Dialect: in.Dialect}
}

// Candidate is one parser's verdict on an input
type Candidate struct {
	Name string `json:"name"`
	// FormatMatch is false when the parser does not read the input's format
	FormatMatch bool `json:"format_match"`
	Accepts     bool `json:"accepts"`
}

// Candidates asks every parser, in priority order, whether it would accept
// the input. Resolve picks the first candidate that accepts.
func (r *Registry) Candidates(in *Input) []Candidate {
	out := make([]Candidate, 0, len(r.parsers))
	for _, p := range r.parsers {
		c := Candidate{Name: p.Name(), FormatMatch: slices.Contains(p.Formats(), in.Format)}
		if c.FormatMatch {
			c.Accepts = canHandle(p, in)
		}
		out = append(out, c)
	}
	return out
}

// canHandle shields the registry from a parser predicate that panics
func canHandle(p Parser, in *Input) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			internal.LogWarn("parser %s panicked in CanHandle for %s: %v", p.Name(), in.Path, r)
			ok = false
		}
	}()
	return p.CanHandle(in)
}

// Fallback is implemented by parsers that accept loosely structured input
// and so must follow every specific parser of the same format
type Fallback interface {
	Fallback() bool
}

func isFallback(p Parser) bool {
	f, ok := p.(Fallback)
	return ok && f.Fallback()
}

// Problems reports ordering and naming mistakes: duplicate names, parsers
// without formats, and specific parsers shadowed by an earlier fallback
func (r *Registry) Problems() []string {
	var problems []string
	seen := make(map[string]bool)
	for i, p := range r.parsers {
		if seen[p.Name()] {
			problems = append(problems, fmt.Sprintf("parser %s is registered twice", p.Name()))
		}
		seen[p.Name()] = true

		if len(p.Formats()) == 0 {
			problems = append(problems, fmt.Sprintf("parser %s declares no input formats", p.Name()))
		}
		if !isFallback(p) {
			continue
		}
		for _, later := range r.parsers[i+1:] {
			if isFallback(later) {
				continue
			}
			for _, f := range later.Formats() {
				if slices.Contains(p.Formats(), f) {
					problems = append(problems, fmt.Sprintf("parser %s is shadowed by fallback %s for %s", later.Name(), p.Name(), f))
					break
				}
			}
		}
	}
	return problems
}
