// Package controller implements the generate interaction: read the form,
// validate, request a projection, render it, and report progress and errors.
//
// All view and renderer mutations happen under one lock, so the plot
// existence flag and the banner are only ever touched by a single goroutine
// at a time. Requests themselves run concurrently; overlapping clicks are
// allowed and the response that arrives last is the one left on screen.
package controller

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/kartoza/embedding-theatre/internal/embedding"
	"github.com/kartoza/embedding-theatre/internal/plot"
	"github.com/kartoza/embedding-theatre/internal/status"
)

// View is the page the controller reads from and reports to
type View interface {
	InputText() string
	SelectedModel() string
	status.Surface
}

// Dispatcher requests a projection from the embedding service
type Dispatcher interface {
	Project(ctx context.Context, req embedding.Request) (*embedding.Response, error)
}

// Recorder receives every successfully rendered generation
type Recorder interface {
	Record(ctx context.Context, text, model string, points [][3]float64, labels []string) error
}

// Controller wires the view, the dispatcher and the visualizer together
type Controller struct {
	view       View
	dispatcher Dispatcher
	visualizer *plot.Visualizer
	reporter   *status.Reporter
	recorder   Recorder

	cancelSuperseded bool

	mu       sync.Mutex
	inflight *Task
	pending  int
}

// Option configures a Controller
type Option func(*options)

type options struct {
	clock            clock.Clock
	errorTimeout     time.Duration
	recorder         Recorder
	cancelSuperseded bool
}

// WithClock sets the clock used for the error banner timer
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithErrorTimeout sets how long the error banner stays visible
func WithErrorTimeout(d time.Duration) Option {
	return func(o *options) { o.errorTimeout = d }
}

// WithRecorder stores successful generations
func WithRecorder(r Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithCancelSuperseded makes a new click cancel the request still in flight
func WithCancelSuperseded(enabled bool) Option {
	return func(o *options) { o.cancelSuperseded = enabled }
}

// New creates a Controller. renderer receives the plot figures.
func New(view View, renderer plot.Renderer, dispatcher Dispatcher, opts ...Option) *Controller {
	o := options{errorTimeout: status.DefaultErrorTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	reporterOpts := []status.Option{status.WithErrorTimeout(o.errorTimeout)}
	if o.clock != nil {
		reporterOpts = append(reporterOpts, status.WithClock(o.clock))
	}

	return &Controller{
		view:             view,
		dispatcher:       dispatcher,
		visualizer:       plot.NewVisualizer(renderer),
		reporter:         status.NewReporter(view, reporterOpts...),
		recorder:         o.recorder,
		cancelSuperseded: o.cancelSuperseded,
	}
}

// Click runs one generate interaction. Validation happens synchronously;
// when it passes the request is dispatched in the background and the
// returned task settles once the result has been rendered or reported.
// ctx bounds the request, so it should outlive the caller's handler.
func (c *Controller) Click(ctx context.Context) *Task {
	c.mu.Lock()

	text := c.view.InputText()
	model := c.view.SelectedModel()

	if _, err := Validate(text); err != nil {
		c.reporter.ShowError(UserMessage(err))
		c.mu.Unlock()
		return rejectedTask(err)
	}

	if c.cancelSuperseded && c.inflight != nil {
		c.inflight.Cancel()
	}

	taskCtx, cancel := context.WithCancel(ctx)
	task := newTask(cancel)
	c.inflight = task
	c.pending++
	c.reporter.ShowLoading(true)
	c.mu.Unlock()

	go c.run(taskCtx, task, embedding.Request{Text: text, Model: model})
	return task
}

// Pending returns the number of requests still in flight
func (c *Controller) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// PlotCreated reports whether a plot has been rendered
func (c *Controller) PlotCreated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visualizer.Created()
}

// ResetCamera puts the camera back at the default eye position
func (c *Controller) ResetCamera() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.visualizer.ResetCamera(); err != nil {
		log.Printf("Warning: %v", err)
		c.reporter.ShowError(UserMessage(err))
		return err
	}
	return nil
}

// Replay renders an earlier projection without contacting the service
func (c *Controller) Replay(points [][3]float64, labels []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.visualizer.Show(points, labels); err != nil {
		log.Printf("Warning: replay failed: %v", err)
		c.reporter.ShowError(UserMessage(err))
		return err
	}
	return nil
}

func (c *Controller) run(ctx context.Context, task *Task, req embedding.Request) {
	resp, err := c.dispatcher.Project(ctx, req)
	state, err := c.complete(ctx, task, resp, err)

	if state == TaskResolved && c.recorder != nil {
		if recErr := c.recorder.Record(context.Background(), req.Text, req.Model, resp.Points(), resp.Labels); recErr != nil {
			log.Printf("Warning: could not record generation: %v", recErr)
		}
	}

	task.finish(state, err)
}

// complete applies a finished request to the view. Loading is cleared on
// every path.
func (c *Controller) complete(ctx context.Context, task *Task, resp *embedding.Response, err error) (TaskState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.reporter.ShowLoading(false)

	c.pending--
	if c.inflight == task {
		c.inflight = nil
	}

	if err == nil {
		err = resp.Validate()
	}
	if err == nil {
		err = c.visualizer.Show(resp.Points(), resp.Labels)
	}

	switch {
	case err == nil:
		return TaskResolved, nil
	case ctx.Err() != nil && errors.Is(err, context.Canceled):
		log.Printf("Request %s cancelled", task.ID)
		return TaskCancelled, err
	default:
		log.Printf("Warning: request %s failed: %v", task.ID, err)
		c.reporter.ShowError(UserMessage(err))
		return TaskRejected, err
	}
}
