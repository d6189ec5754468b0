package internal

import "fmt"

// FormatUndetectableError is returned when sniffing cannot classify an input
type FormatUndetectableError struct {
	Path string
}

func (e *FormatUndetectableError) Error() string {
	return fmt.Sprintf("format undetectable: %s", e.Path)
}

// NoParserAvailableError is returned when no registered parser accepts an input
type NoParserAvailableError struct {
	Format  Format
	Dialect string // advisory only
}

func (e *NoParserAvailableError) Error() string {
	return fmt.Sprintf("no parser available for format %s (detected dialect: %s)", e.Format, e.Dialect)
}

// MalformedSourceError represents a source whose deeper structure violates
// what the selected parser expects
type MalformedSourceError struct {
	Parser string
	Path   string
	Err    error
}

func (e *MalformedSourceError) Error() string {
	return fmt.Sprintf("malformed source [%s] %s: %v", e.Parser, e.Path, e.Err)
}

func (e *MalformedSourceError) Unwrap() error {
	return e.Err
}

// ChunkerConfigError represents invalid chunker settings or input
type ChunkerConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ChunkerConfigError) Error() string {
	return fmt.Sprintf("chunker config error: %s=%v: %s", e.Field, e.Value, e.Reason)
}

// StorageError represents errors reading or writing local files, the cache
// or the archive
type StorageError struct {
	Path string
	Op   string // "read", "write", "open", "query"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during rendering
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
