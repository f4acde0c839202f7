package plot

import "fmt"

// Renderer is the create-or-update plotting primitive plus camera relayout
type Renderer interface {
	NewPlot(fig Figure) error
	React(fig Figure) error
	Relayout(update Relayout) error
}

// Visualizer hands figures to a Renderer, creating the plot on first use
// and updating it in place afterwards so the camera and zoom survive.
//
// Visualizer is not safe for concurrent use; the controller serialises calls.
type Visualizer struct {
	renderer Renderer
	created  bool
}

// NewVisualizer creates a Visualizer for the given renderer
func NewVisualizer(renderer Renderer) *Visualizer {
	return &Visualizer{renderer: renderer}
}

// Created reports whether a plot exists
func (v *Visualizer) Created() bool {
	return v.created
}

// Show renders points with their labels
func (v *Visualizer) Show(points [][3]float64, labels []string) error {
	if len(points) != len(labels) {
		return fmt.Errorf("got %d points and %d labels", len(points), len(labels))
	}

	fig := Build(points, labels)
	if v.created {
		if err := v.renderer.React(fig); err != nil {
			return fmt.Errorf("failed to update plot: %w", err)
		}
		return nil
	}

	if err := v.renderer.NewPlot(fig); err != nil {
		return fmt.Errorf("failed to create plot: %w", err)
	}
	v.created = true
	return nil
}

// ResetCamera moves the camera back to DefaultEye. It is a no-op before the
// first plot exists.
func (v *Visualizer) ResetCamera() error {
	if !v.created {
		return nil
	}
	if err := v.renderer.Relayout(CameraReset()); err != nil {
		return fmt.Errorf("failed to reset camera: %w", err)
	}
	return nil
}
