// Package pipeline turns chat export files into canonical documents:
// sniff the format, resolve a parser, parse, validate and optionally chunk.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/iksnae/chat-convert/internal"
	"github.com/iksnae/chat-convert/internal/parser"
	"golang.org/x/sync/errgroup"
)

// Pipeline converts files with a fixed registry and settings. It holds no
// per-conversion state and is safe for concurrent use.
type Pipeline struct {
	registry  *parser.Registry
	clock     internal.Clock
	fs        internal.FileSystem
	validator *internal.Validator
	chunker   *internal.Chunker
	cache     *internal.CacheManager
	workers   int
	dedupe    bool
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithRegistry replaces the default parser registry
func WithRegistry(r *parser.Registry) Option {
	return func(p *Pipeline) { p.registry = r }
}

// WithClock sets the clock used for timestamp fallbacks
func WithClock(c internal.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// WithFileSystem sets where source files are read from
func WithFileSystem(fs internal.FileSystem) Option {
	return func(p *Pipeline) { p.fs = fs }
}

// WithValidator sets the validator. nil turns validation off.
func WithValidator(v *internal.Validator) Option {
	return func(p *Pipeline) { p.validator = v }
}

// WithChunker enables chunking of every converted document
func WithChunker(c *internal.Chunker) Option {
	return func(p *Pipeline) { p.chunker = c }
}

// WithCache enables the conversion cache
func WithCache(c *internal.CacheManager) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithWorkers bounds how many files ConvertBatch converts at once
func WithWorkers(n int) Option {
	return func(p *Pipeline) { p.workers = n }
}

// WithDedupe drops batch results whose conversation repeats an earlier one
func WithDedupe(on bool) Option {
	return func(p *Pipeline) { p.dedupe = on }
}

// New creates a pipeline with the default registry, the OS file system and
// the embedded schema validator
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		registry:  parser.DefaultRegistry(),
		clock:     internal.SystemClock{},
		fs:        internal.OSFileSystem{},
		validator: internal.NewValidator(""),
		workers:   runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.workers < 1 {
		p.workers = 1
	}
	return p
}

// Result is one converted file
type Result struct {
	Path     string
	Doc      *internal.CanonicalDoc
	Format   internal.Format
	Dialect  string
	Parser   string
	Cached   bool
	Warnings []string
}

// Failure is a file that could not be converted
type Failure struct {
	Path  string
	Error error
}

// BatchResult holds the outcome of ConvertBatch in input order
type BatchResult struct {
	Successful []*Result
	Failed     []Failure
	// Duplicates lists the paths dropped because an earlier file held the
	// same conversation
	Duplicates []string
}

// Convert reads path and converts it
func (p *Pipeline) Convert(path string) (*Result, error) {
	variant := p.cacheVariant()
	if p.cache != nil {
		if doc, ok := p.cache.Lookup(path, variant); ok {
			return &Result{Path: path, Doc: doc, Cached: true}, nil
		}
	}

	content, err := p.fs.ReadFile(path)
	if err != nil {
		return nil, err
	}
	res, err := p.ConvertContent(path, content)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if err := p.cache.Store(path, variant, res.Doc); err != nil {
			internal.LogDebug("cache store for %s failed: %v", path, err)
		}
	}
	return res, nil
}

// ConvertContent converts content that was read from path. The path is only
// used for its extension and in messages.
func (p *Pipeline) ConvertContent(path string, content []byte) (*Result, error) {
	format := internal.DetectFormat(path, content)
	if format == internal.FormatUnknown {
		return nil, &internal.FormatUndetectableError{Path: path}
	}

	in := parser.NewInput(path, content, format, p.clock)
	in.Dialect = internal.DetectSource(content, format)
	internal.LogDebugw("sniffed input", "path", path, "format", format, "dialect", in.Dialect)

	prs, err := p.registry.Resolve(in)
	if err != nil {
		return nil, err
	}

	doc, err := prs.Parse(in)
	if err != nil {
		var malformed *internal.MalformedSourceError
		if !errors.As(err, &malformed) {
			err = &internal.MalformedSourceError{Parser: prs.Name(), Path: path, Err: err}
		}
		return nil, err
	}

	res := &Result{
		Path:     path,
		Doc:      doc,
		Format:   format,
		Dialect:  in.Dialect,
		Parser:   prs.Name(),
		Warnings: in.Warnings,
	}

	if p.validator != nil {
		report := p.validator.Validate(doc)
		for _, w := range report.Warnings {
			internal.LogWarn("%s: %s", path, w)
		}
		res.Warnings = append(res.Warnings, report.Warnings...)
	}

	if p.chunker != nil {
		if err := p.chunker.Apply(doc); err != nil {
			return nil, err
		}
	}

	internal.LogInfo("converted %s with %s (%d messages)", path, prs.Name(), len(doc.Messages))
	return res, nil
}

// cacheVariant separates cached conversions made with different chunking
func (p *Pipeline) cacheVariant() string {
	if p.chunker == nil {
		return "plain"
	}
	return fmt.Sprintf("chunked:%d:%g", p.chunker.TargetSize(), p.chunker.ThresholdRatio())
}

// ConvertBatch converts paths with at most the configured number of workers.
// A failing file never stops the others. onDone, when set, is called once per
// file from the worker that converted it.
func (p *Pipeline) ConvertBatch(ctx context.Context, paths []string, onDone func(path string, err error)) *BatchResult {
	results := make([]*Result, len(paths))
	errs := make([]error, len(paths))

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
			} else {
				results[i], errs[i] = p.Convert(path)
			}
			if onDone != nil {
				onDone(path, errs[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	batch := &BatchResult{}
	for i, path := range paths {
		if errs[i] != nil {
			batch.Failed = append(batch.Failed, Failure{Path: path, Error: errs[i]})
			continue
		}
		batch.Successful = append(batch.Successful, results[i])
	}

	if p.dedupe && len(batch.Successful) > 1 {
		docs := make([]*internal.CanonicalDoc, len(batch.Successful))
		for i, r := range batch.Successful {
			docs[i] = r.Doc
		}
		dups := make(map[int]bool)
		for _, i := range internal.NewDeduplicator().Duplicates(docs) {
			dups[i] = true
		}
		kept := batch.Successful[:0]
		for i, r := range batch.Successful {
			if dups[i] {
				batch.Duplicates = append(batch.Duplicates, r.Path)
				internal.LogInfo("skipping %s: same conversation as an earlier file", r.Path)
				continue
			}
			kept = append(kept, r)
		}
		batch.Successful = kept
	}
	return batch
}
