// Package bridge lets the controller drive a remote surface. Page implements
// both controller.View and plot.Renderer: form values are pushed in by the
// front-end, and every visible change goes out as a Command on a Sink.
package bridge

import (
	"sync"

	"github.com/kartoza/embedding-theatre/internal/plot"
)

// Op names a page operation
type Op string

const (
	OpSetLoading         Op = "setLoading"
	OpSetGenerateEnabled Op = "setGenerateEnabled"
	OpShowError          Op = "showError"
	OpHideError          Op = "hideError"
	OpNewPlot            Op = "newPlot"
	OpReact              Op = "react"
	OpRelayout           Op = "relayout"
)

// Command is one change to apply on the front-end
type Command struct {
	Op      Op            `json:"op"`
	Value   bool          `json:"value,omitempty"`
	Message string        `json:"message,omitempty"`
	Figure  *plot.Figure  `json:"figure,omitempty"`
	Update  plot.Relayout `json:"update,omitempty"`
}

// Sink receives commands in order. Publish must not block for long: it is
// called with the page lock held.
type Sink interface {
	Publish(cmd Command)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(cmd Command)

// Publish calls f(cmd)
func (f SinkFunc) Publish(cmd Command) {
	f(cmd)
}

// Page mirrors the state of the front-end so late subscribers can catch up
type Page struct {
	mu   sync.Mutex
	sink Sink

	text  string
	model string

	loading       bool
	enabled       bool
	bannerVisible bool
	bannerMessage string
	figure        *plot.Figure
}

// NewPage creates a Page publishing to sink with model preselected
func NewPage(sink Sink, model string) *Page {
	return &Page{
		sink:    sink,
		model:   model,
		enabled: true,
	}
}

// SetForm stores the current text input and model selector values
func (p *Page) SetForm(text, model string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.text = text
	if model != "" {
		p.model = model
	}
}

// InputText returns the text input value
func (p *Page) InputText() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.text
}

// SelectedModel returns the model selector value
func (p *Page) SelectedModel() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.model
}

// SetGenerateEnabled enables or disables the generate button
func (p *Page) SetGenerateEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
	p.sink.Publish(Command{Op: OpSetGenerateEnabled, Value: enabled})
}

// SetLoadingVisible shows or hides the loading indicator
func (p *Page) SetLoadingVisible(visible bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = visible
	p.sink.Publish(Command{Op: OpSetLoading, Value: visible})
}

// ShowErrorBanner reveals the error banner with message
func (p *Page) ShowErrorBanner(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bannerVisible = true
	p.bannerMessage = message
	p.sink.Publish(Command{Op: OpShowError, Message: message})
}

// HideErrorBanner hides the error banner
func (p *Page) HideErrorBanner() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bannerVisible = false
	p.sink.Publish(Command{Op: OpHideError})
}

// NewPlot creates the plot
func (p *Page) NewPlot(fig plot.Figure) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.figure = &fig
	p.sink.Publish(Command{Op: OpNewPlot, Figure: &fig})
	return nil
}

// React updates the existing plot in place
func (p *Page) React(fig plot.Figure) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.figure != nil {
		// The front-end keeps its camera across react; mirror that here.
		fig.Layout.Scene.Camera = p.figure.Layout.Scene.Camera
	}
	p.figure = &fig
	p.sink.Publish(Command{Op: OpReact, Figure: &fig})
	return nil
}

// Relayout applies a partial layout update
func (p *Page) Relayout(update plot.Relayout) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if camera, ok := update["scene.camera"].(plot.Camera); ok && p.figure != nil {
		p.figure.Layout.Scene.Camera = camera
	}
	p.sink.Publish(Command{Op: OpRelayout, Update: update})
	return nil
}

// Snapshot returns the commands that bring a fresh front-end up to date
func (p *Page) Snapshot() []Command {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Attach runs fn with the current snapshot while holding the page lock, so
// no command is published between the snapshot and whatever fn registers.
func (p *Page) Attach(fn func(snapshot []Command)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p.snapshotLocked())
}

func (p *Page) snapshotLocked() []Command {
	cmds := []Command{
		{Op: OpSetLoading, Value: p.loading},
		{Op: OpSetGenerateEnabled, Value: p.enabled},
	}
	if p.bannerVisible {
		cmds = append(cmds, Command{Op: OpShowError, Message: p.bannerMessage})
	} else {
		cmds = append(cmds, Command{Op: OpHideError})
	}
	if p.figure != nil {
		fig := *p.figure
		cmds = append(cmds, Command{Op: OpNewPlot, Figure: &fig})
	}
	return cmds
}
