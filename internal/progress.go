package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

// ShowProgress runs fn behind a spinner when w is a terminal, or logs
// message at debug level otherwise
func ShowProgress(ctx context.Context, w io.Writer, message string, fn func() error) error {
	if !isTerminal(w) {
		LogDebug("%s", message)
		return fn()
	}
	return showProgressSimple(ctx, w, message, fn)
}

// showProgressSimple uses a simple text-based spinner
func showProgressSimple(ctx context.Context, w io.Writer, message string, fn func() error) error {
	spinnerChars := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	done := make(chan error, 1)
	stop := make(chan struct{})
	spinnerDone := make(chan struct{})

	go func() {
		defer close(spinnerDone)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		i := 0
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				char := spinnerChars[i%len(spinnerChars)]
				fmt.Fprintf(w, "\r%s %s", progressStyle.Render(char), message)
				i++
			}
		}
	}()

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		close(stop)
		<-spinnerDone
		if err != nil {
			fmt.Fprintf(w, "\r%s %s\n", errorStyle.Render("✗"), message)
			return err
		}
		fmt.Fprintf(w, "\r%s %s\n", successStyle.Render("✓"), message)
		return nil
	case <-ctx.Done():
		close(stop)
		<-spinnerDone
		return ctx.Err()
	}
}

// BatchProgress reports per-file completion of a batch. Done may be called
// from several workers at once.
type BatchProgress struct {
	w      io.Writer
	total  int
	styled bool
	mu     sync.Mutex
	done   int
	failed int
}

// NewBatchProgress creates a reporter for total files writing to w
func NewBatchProgress(w io.Writer, total int) *BatchProgress {
	return &BatchProgress{w: w, total: total, styled: isTerminal(w)}
}

// Done records the outcome of one file
func (p *BatchProgress) Done(path string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done++
	counter := fmt.Sprintf("[%d/%d]", p.done, p.total)
	if err != nil {
		p.failed++
		if p.styled {
			fmt.Fprintf(p.w, "%s %s %s: %v\n", errorStyle.Render("✗"), counter, path, err)
		} else {
			fmt.Fprintf(p.w, "%s FAILED %s: %v\n", counter, path, err)
		}
		return
	}
	if p.styled {
		fmt.Fprintf(p.w, "%s %s %s\n", successStyle.Render("✓"), counter, path)
	} else {
		fmt.Fprintf(p.w, "%s %s\n", counter, path)
	}
}

// isTerminal checks if the writer is a terminal
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil {
			return false
		}
		return (stat.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	if isTerminal(os.Stdout) {
		fmt.Printf("%s %s\n", successStyle.Render("✓"), message)
	} else {
		fmt.Println(message)
	}
}
