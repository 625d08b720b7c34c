// Package parallel provides the bounded worker pool used by large copies and
// matrix multiplication.
package parallel

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled    bool // Whether parallel execution is enabled.
	NumWorkers int  // Number of worker goroutines to use (0 = runtime.NumCPU()).
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:    n > 1,
		NumWorkers: n,
	}
}

// Sequential returns a configuration that runs everything on the caller.
func Sequential() Config {
	return Config{Enabled: false, NumWorkers: 1}
}

// Workers returns the effective number of workers.
func (c Config) Workers() int {
	switch {
	case !c.Enabled:
		return 1
	case c.NumWorkers > 0:
		return c.NumWorkers
	default:
		return runtime.NumCPU()
	}
}

// Range is the half-open interval [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns the number of items in the range.
func (r Range) Len() int { return r.End - r.Start }

// Partition splits [0, n) into at most parts contiguous, disjoint ranges that
// cover every index exactly once. Sizes differ by at most one.
func Partition(n, parts int) []Range {
	if n <= 0 {
		return nil
	}
	parts = max(1, min(parts, n))
	out := make([]Range, parts)
	base, rem := n/parts, n%parts
	start := 0
	for i := range out {
		size := base
		if i < rem {
			size++
		}
		out[i] = Range{Start: start, End: start + size}
		start += size
	}
	return out
}

// PanicError carries a panic recovered inside a task to the join point.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("parallel task panicked: %v", e.Value)
}

// Run executes every task on at most cfg.Workers() goroutines and waits for all
// of them. The first error (or recovered panic) is returned once every task has
// stopped; remaining tasks observe ctx cancellation.
func Run(ctx context.Context, cfg Config, tasks []func(ctx context.Context) error) error {
	workers := cfg.Workers()
	if workers < 2 || len(tasks) < 2 {
		for _, task := range tasks {
			if err := protect(ctx, task); err != nil {
				return err
			}
		}
		return nil
	}
	klog.V(4).Infof("parallel: running %d tasks on %d workers", len(tasks), workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, task := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return protect(gctx, task)
		})
	}
	return g.Wait()
}

// Do runs tasks like Run and re-raises a task panic on the caller's goroutine,
// so that a failing worker fails the whole operation.
func Do(cfg Config, tasks []func()) {
	wrapped := make([]func(context.Context) error, len(tasks))
	for i, task := range tasks {
		wrapped[i] = func(context.Context) error {
			task()
			return nil
		}
	}
	err := Run(context.Background(), cfg, wrapped)
	var pe *PanicError
	if errors.As(err, &pe) {
		panic(pe.Value)
	}
	if err != nil {
		panic(err)
	}
}

func protect(ctx context.Context, task func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return task(ctx)
}
