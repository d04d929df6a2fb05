// Package agent provides a cancellable, single-current-task asynchronous
// container. Every pipeline stage owns one agent; submitting new work
// supersedes and cancels whatever the agent was doing before, so only the
// most recently submitted task can ever update the agent's value.
package agent

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrCancelled signals that a task aborted itself after detecting
// inconsistent upstream state. It is suppressed exactly like an external
// cancellation: no value update, no rejection event.
var ErrCancelled = errors.New("agent: task cancelled")

// Task is a deferred unit of work. The context is the task's cancellation
// token; a task must check it between units of work and give up once it is
// done. A task whose context was cancelled may still return a result -
// that result is discarded silently.
type Task[T any] func(ctx context.Context) (T, error)

// RejectSink receives task failures that are not cancellations.
type RejectSink func(agentName string, err error)

var (
	sinkMu sync.RWMutex
	sink   RejectSink = func(name string, err error) {
		slog.Error("task rejected", "agent", name, "error", err)
	}
)

// SetRejectSink replaces the global reporting sink for task failures.
func SetRejectSink(s RejectSink) {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	sink = s
}

func reportReject(name string, err error) {
	sinkMu.RLock()
	s := sink
	sinkMu.RUnlock()
	if s != nil {
		s(name, err)
	}
}

// Agent holds the last accepted result of a chain of superseding tasks.
// At most one task is current at any time: Submit cancels the previous
// task's context before scheduling the next, whether or not the previous
// task has settled. Stale completions are dropped by a generation check,
// so out-of-order updates cannot happen.
type Agent[T any] struct {
	name     string
	debounce time.Duration

	mu       sync.Mutex
	value    T
	hasValue bool
	gen      uint64
	cancel   context.CancelFunc
	timer    *time.Timer
	updateFn []func(T)
	rejectFn []func(error)
}

// Option configures an agent at construction time.
type Option[T any] func(*Agent[T])

// WithInitial seeds the agent with a starting value.
func WithInitial[T any](v T) Option[T] {
	return func(a *Agent[T]) {
		a.value = v
		a.hasValue = true
	}
}

// WithDebounce coalesces rapid resubmissions: a task superseded within the
// window never starts at all. Zero disables coalescing.
func WithDebounce[T any](d time.Duration) Option[T] {
	return func(a *Agent[T]) {
		a.debounce = d
	}
}

// New creates an agent. The name appears in logs and rejection reports.
func New[T any](name string, opts ...Option[T]) *Agent[T] {
	a := &Agent[T]{name: name}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the agent's name.
func (a *Agent[T]) Name() string { return a.name }

// Value returns the last accepted result, if any.
func (a *Agent[T]) Value() (T, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.value, a.hasValue
}

// OnUpdate registers a handler called with each newly accepted value.
// Handlers run on the completing task's goroutine, after the value is set.
func (a *Agent[T]) OnUpdate(fn func(T)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.updateFn = append(a.updateFn, fn)
}

// OnReject registers a handler called when a task fails. Cancellations are
// not rejections and never reach these handlers.
func (a *Agent[T]) OnReject(fn func(error)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rejectFn = append(a.rejectFn, fn)
}

// Submit cancels the agent's current task and schedules a new one. The
// previous task's context is cancelled immediately, even if that task has
// already settled; its late result, if any, fires into the void.
func (a *Agent[T]) Submit(task Task[T]) {
	a.mu.Lock()
	a.supersedeLocked()
	a.gen++
	gen := a.gen
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	id := uuid.NewString()[:8]
	if a.debounce > 0 {
		a.timer = time.AfterFunc(a.debounce, func() {
			a.run(ctx, gen, id, task)
		})
	} else {
		go a.run(ctx, gen, id, task)
	}
	a.mu.Unlock()
}

// Cancel cancels the current task, if any. Idempotent; returns the agent.
func (a *Agent[T]) Cancel() *Agent[T] {
	a.mu.Lock()
	a.supersedeLocked()
	a.gen++
	a.mu.Unlock()
	return a
}

// supersedeLocked invalidates the in-flight task. Caller holds a.mu.
func (a *Agent[T]) supersedeLocked() {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

func (a *Agent[T]) run(ctx context.Context, gen uint64, id string, task Task[T]) {
	// Superseded while waiting in the debounce window.
	if ctx.Err() != nil {
		return
	}
	slog.Debug("task started", "agent", a.name, "task", id)

	v, err := task(ctx)

	a.mu.Lock()
	if gen != a.gen || ctx.Err() != nil {
		// A newer task owns the agent now; this result is discarded
		// even though it resolved. Intentional, not a bug.
		a.mu.Unlock()
		slog.Debug("task discarded", "agent", a.name, "task", id)
		return
	}
	if err != nil {
		if errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) {
			a.mu.Unlock()
			return
		}
		handlers := make([]func(error), len(a.rejectFn))
		copy(handlers, a.rejectFn)
		a.mu.Unlock()
		slog.Debug("task rejected", "agent", a.name, "task", id, "error", err)
		reportReject(a.name, err)
		for _, fn := range handlers {
			fn(err)
		}
		return
	}
	a.value = v
	a.hasValue = true
	handlers := make([]func(T), len(a.updateFn))
	copy(handlers, a.updateFn)
	a.mu.Unlock()
	slog.Debug("task accepted", "agent", a.name, "task", id)
	for _, fn := range handlers {
		fn(v)
	}
}
