package internal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestShowProgress(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		message string
		fn      func() error
		wantErr bool
	}{
		{
			name:    "successful function",
			message: "Testing",
			fn:      func() error { return nil },
		},
		{
			name:    "function with error",
			message: "Testing error",
			fn:      func() error { return errors.New("test error") },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			ran := false
			err := ShowProgress(ctx, &buf, tt.message, func() error {
				ran = true
				return tt.fn()
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("ShowProgress() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !ran {
				t.Error("fn was not called")
			}
			if buf.Len() != 0 {
				t.Errorf("non-terminal writer should get no spinner, got %q", buf.String())
			}
		})
	}
}

func TestShowProgressSimple(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	var buf bytes.Buffer
	if err := showProgressSimple(ctx, &buf, "Converting", func() error { return nil }); err != nil {
		t.Fatalf("showProgressSimple() error = %v", err)
	}
	if !strings.HasSuffix(buf.String(), "✓ Converting\n") {
		t.Errorf("missing success line: %q", buf.String())
	}

	buf.Reset()
	wantErr := errors.New("boom")
	if err := showProgressSimple(ctx, &buf, "Converting", func() error { return wantErr }); !errors.Is(err, wantErr) {
		t.Errorf("showProgressSimple() error = %v, want %v", err, wantErr)
	}
	if !strings.HasSuffix(buf.String(), "✗ Converting\n") {
		t.Errorf("missing failure line: %q", buf.String())
	}
}

func TestShowProgressSimple_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	release := make(chan struct{})
	defer close(release)

	var buf bytes.Buffer
	err := showProgressSimple(ctx, &buf, "Testing", func() error {
		<-release
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("showProgressSimple() error = %v, want deadline exceeded", err)
	}
}

func TestBatchProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewBatchProgress(&buf, 2)

	p.Done("a.json", nil)
	p.Done("b.json", errors.New("bad input"))

	want := "[1/2] a.json\n[2/2] FAILED b.json: bad input\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestBatchProgress_Concurrent(t *testing.T) {
	var buf bytes.Buffer
	const total = 20
	p := NewBatchProgress(&buf, total)

	var wg sync.WaitGroup
	for i := 0; i < total; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p.Done(fmt.Sprintf("file%d.json", i), nil)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != total {
		t.Fatalf("got %d lines, want %d", len(lines), total)
	}
	if !strings.HasPrefix(lines[total-1], fmt.Sprintf("[%d/%d]", total, total)) {
		t.Errorf("last line = %q, want counter at total", lines[total-1])
	}
}
