/*
Package workflow runs a graph of dependent jobs. Each job is a goroutine that
resolves a Promise; jobs that consume the result of another job wait on that
job's Promise, so the shape of the graph is whatever the caller builds with
Spawn, Then and Join. The first job to fail cancels the rest of the graph.
*/
package workflow

import (
	"context"
	"fmt"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Graph is a set of jobs sharing one context and one failure
type Graph struct {
	ctx   context.Context
	group *errgroup.Group
	slots *semaphore.Weighted
	log   *log.Entry
	jobs  int64
}

// New returns an empty Graph. At most maxJobs job bodies execute at the same
// time; maxJobs < 1 means no limit.
func New(ctx context.Context, maxJobs int, logger *log.Entry) *Graph {
	group, gctx := errgroup.WithContext(ctx)
	g := &Graph{ctx: gctx, group: group, log: logger}
	if maxJobs > 0 {
		g.slots = semaphore.NewWeighted(int64(maxJobs))
	}
	if g.log == nil {
		g.log = log.NewEntry(log.StandardLogger())
	}
	return g
}

// Context is cancelled as soon as any job fails
func (g *Graph) Context() context.Context {
	return g.ctx
}

// Jobs is the number of jobs added to the graph so far
func (g *Graph) Jobs() int {
	return int(atomic.LoadInt64(&g.jobs))
}

// Wait blocks until every job has finished and returns the first error
func (g *Graph) Wait() error {
	return g.group.Wait()
}

// Promise is the future result of one job
type Promise[T any] struct {
	name  string
	done  chan struct{}
	value T
	err   error
}

// Name is the name of the job resolving the promise
func (p *Promise[T]) Name() string {
	return p.name
}

// Get waits for the job to finish and returns its result. It returns early
// with the context's error if ctx is done first.
func (p *Promise[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed once the promise is resolved
func (p *Promise[T]) Done() <-chan struct{} {
	return p.done
}

// Resolved returns a promise that already holds v
func Resolved[T any](name string, v T) *Promise[T] {
	p := &Promise[T]{name: name, done: make(chan struct{}), value: v}
	close(p.done)
	return p
}

// run executes body in its own goroutine once wait has returned, holding a
// job slot only while body runs.
func run[T any](g *Graph, name string, wait func(ctx context.Context) error, body func(ctx context.Context) (T, error)) *Promise[T] {
	p := &Promise[T]{name: name, done: make(chan struct{})}
	atomic.AddInt64(&g.jobs, 1)
	entry := g.log.WithField("job", name)

	g.group.Go(func() (err error) {
		defer close(p.done)
		defer func() { p.err = err }()

		if wait != nil {
			if err = wait(g.ctx); err != nil {
				return err
			}
		}

		if g.slots != nil {
			if err = g.slots.Acquire(g.ctx, 1); err != nil {
				return err
			}
			defer g.slots.Release(1)
		}

		entry.Debug("job started")
		p.value, err = body(g.ctx)
		if err != nil {
			entry.WithError(err).Debug("job failed")
			return fmt.Errorf("%s: %w", name, err)
		}
		entry.Debug("job finished")
		return nil
	})

	return p
}

// Spawn adds a job with no dependencies
func Spawn[T any](g *Graph, name string, fn func(ctx context.Context) (T, error)) *Promise[T] {
	return run(g, name, nil, fn)
}

// Then adds a job that runs fn on the result of dep once it is available
func Then[A, B any](g *Graph, name string, dep *Promise[A], fn func(ctx context.Context, a A) (B, error)) *Promise[B] {
	var a A
	wait := func(ctx context.Context) (err error) {
		a, err = dep.Get(ctx)
		return err
	}
	return run(g, name, wait, func(ctx context.Context) (B, error) {
		return fn(ctx, a)
	})
}

// Then2 adds a job that runs fn on the results of two promises
func Then2[A, B, C any](g *Graph, name string, depA *Promise[A], depB *Promise[B], fn func(ctx context.Context, a A, b B) (C, error)) *Promise[C] {
	var (
		a A
		b B
	)
	wait := func(ctx context.Context) (err error) {
		if a, err = depA.Get(ctx); err != nil {
			return err
		}
		b, err = depB.Get(ctx)
		return err
	}
	return run(g, name, wait, func(ctx context.Context) (C, error) {
		return fn(ctx, a, b)
	})
}

// Join adds a job that waits for all deps and passes their results to fn in
// the order of deps, regardless of the order in which they finished.
func Join[A, B any](g *Graph, name string, deps []*Promise[A], fn func(ctx context.Context, as []A) (B, error)) *Promise[B] {
	as := make([]A, len(deps))
	wait := func(ctx context.Context) (err error) {
		for i, dep := range deps {
			if as[i], err = dep.Get(ctx); err != nil {
				return err
			}
		}
		return nil
	}
	return run(g, name, wait, func(ctx context.Context) (B, error) {
		return fn(ctx, as)
	})
}

// Map adds a job that extracts a value from the result of dep
func Map[A, B any](g *Graph, name string, dep *Promise[A], fn func(a A) B) *Promise[B] {
	return Then(g, name, dep, func(_ context.Context, a A) (B, error) {
		return fn(a), nil
	})
}
