package controller

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// TaskState is the lifecycle of one generate request
type TaskState int

const (
	TaskPending TaskState = iota
	TaskResolved
	TaskRejected
	TaskCancelled
)

func (s TaskState) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskResolved:
		return "resolved"
	case TaskRejected:
		return "rejected"
	case TaskCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Task tracks a single click from validation to render
type Task struct {
	ID string

	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	state TaskState
	err   error
}

func newTask(cancel context.CancelFunc) *Task {
	if cancel == nil {
		cancel = func() {}
	}
	return &Task{
		ID:     uuid.New().String(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// rejectedTask is a task that failed before anything was dispatched
func rejectedTask(err error) *Task {
	t := newTask(nil)
	t.finish(TaskRejected, err)
	return t
}

// Done is closed once the task settles
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task settles or ctx ends
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel aborts the in-flight request. Settled tasks are unaffected.
func (t *Task) Cancel() {
	t.cancel()
}

// State returns the current state
func (t *Task) State() TaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Err returns why the task was rejected or cancelled
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *Task) finish(state TaskState, err error) {
	t.mu.Lock()
	if t.state != TaskPending {
		t.mu.Unlock()
		return
	}
	t.state = state
	t.err = err
	t.mu.Unlock()

	t.cancel()
	close(t.done)
}
