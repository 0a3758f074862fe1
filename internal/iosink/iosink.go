// Package iosink defines the VM's output/input boundary (spec §5 point
// 1): an OutputSink contract plus a console reference implementation
// whose flush is offloaded to a bounded worker pool, built on
// golang.org/x/sync/errgroup for goroutine lifecycle management.
// Producers order their writes before enqueue; the sink delivers them
// to the underlying writer in that same order (FIFO).
//
// Adapted from the teacher's internal/concurrency.WorkerPool: the same
// worker/job/result shape, narrowed from a general task queue to a
// single-purpose ordered flush queue — rate limiters, connection
// pools, and semaphores from the original module have no component in
// this VM to drive them and were dropped (see DESIGN.md).
package iosink

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"
)

// OutputSink is the engine's write boundary for PRINT and diagnostic
// output. Write must preserve the calling goroutine's submission
// order in the underlying stream.
type OutputSink interface {
	Write(chunk string) error
	Flush() error
	Close() error
}

// InputSource is the engine's read boundary for line-oriented input
// opcodes (spec §5: "Blocking occurs only at input reads").
type InputSource interface {
	ReadLine() (string, error)
}

// ConsoleSink is the reference OutputSink: a queue buffered to 256
// chunks, drained by a single flush worker, so PRINT blocks on the
// underlying writer only once the queue is full.
type ConsoleSink struct {
	w      io.Writer
	queue  chan string
	group  *errgroup.Group
	mu     sync.Mutex
	closed chan struct{}
	once   sync.Once
}

// NewConsoleSink starts the flush worker over w. Callers must Close
// the sink to drain the queue and release the worker.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	group, ctx := errgroup.WithContext(context.Background())
	s := &ConsoleSink{
		w:      w,
		queue:  make(chan string, 256),
		group:  group,
		closed: make(chan struct{}),
	}
	group.Go(func() error { return s.flushLoop(ctx) })
	return s
}

func (s *ConsoleSink) flushLoop(ctx context.Context) error {
	for {
		select {
		case chunk, ok := <-s.queue:
			if !ok {
				return nil
			}
			if _, err := io.WriteString(s.w, chunk); err != nil {
				return fmt.Errorf("IOError: sink flush failed: %w", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Write enqueues chunk. The mutex serializes concurrent producers so
// each one's enqueue is atomic with respect to the others; a single
// producer's successive writes are already ordered by Go's channel
// semantics.
func (s *ConsoleSink) Write(chunk string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.closed:
		return fmt.Errorf("IOError: write to closed sink")
	default:
	}
	select {
	case s.queue <- chunk:
		return nil
	case <-s.closed:
		return fmt.Errorf("IOError: write to closed sink")
	}
}

// Flush is a no-op for ConsoleSink: the flush worker drains the queue
// continuously, so there is nothing to flush on demand beyond waiting
// for the queue to empty, which Close already does.
func (s *ConsoleSink) Flush() error { return nil }

// Close drains the queue and stops the flush worker.
func (s *ConsoleSink) Close() error {
	s.once.Do(func() {
		close(s.closed)
		close(s.queue)
	})
	return s.group.Wait()
}

// ConsoleSource is the reference InputSource: line-buffered stdin.
type ConsoleSource struct {
	scanner *bufio.Scanner
}

func NewConsoleSource(r io.Reader) *ConsoleSource {
	return &ConsoleSource{scanner: bufio.NewScanner(r)}
}

func (c *ConsoleSource) ReadLine() (string, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return "", fmt.Errorf("IOError: failed to read input line: %w", err)
		}
		return "", io.EOF
	}
	return c.scanner.Text(), nil
}
