package plot

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// recordingRenderer records every call made by a Visualizer
type recordingRenderer struct {
	calls    []string
	figures  []Figure
	relayout []Relayout
	err      error
}

func (r *recordingRenderer) NewPlot(fig Figure) error {
	r.calls = append(r.calls, "newPlot")
	r.figures = append(r.figures, fig)
	return r.err
}

func (r *recordingRenderer) React(fig Figure) error {
	r.calls = append(r.calls, "react")
	r.figures = append(r.figures, fig)
	return r.err
}

func (r *recordingRenderer) Relayout(update Relayout) error {
	r.calls = append(r.calls, "relayout")
	r.relayout = append(r.relayout, update)
	return r.err
}

func TestBuildThreePoints(t *testing.T) {
	fig := Build([][3]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}, []string{"a", "b", "c"})

	if len(fig.Data) != 1 {
		t.Fatalf("Expected one trace, got %d", len(fig.Data))
	}
	trace := fig.Data[0]
	if trace.Type != "scatter3d" || trace.Mode != "markers+text" {
		t.Errorf("Unexpected trace type/mode: %s %s", trace.Type, trace.Mode)
	}
	if len(trace.X) != 3 || trace.X[1] != 4 || trace.Y[1] != 5 || trace.Z[1] != 6 {
		t.Errorf("Unexpected coordinates: %v %v %v", trace.X, trace.Y, trace.Z)
	}
	if strings.Join(trace.Text, ",") != "a,b,c" {
		t.Errorf("Unexpected labels: %v", trace.Text)
	}
	for i, color := range trace.Marker.Color {
		if color != Palette[i] {
			t.Errorf("Point %d: expected color %s, got %s", i, Palette[i], color)
		}
	}
	if trace.TextPosition != "top center" {
		t.Errorf("Expected labels above markers, got %q", trace.TextPosition)
	}
	if !strings.Contains(trace.HoverTemplate, "%{x:.4f}") {
		t.Errorf("Hover template should show 4 decimals: %q", trace.HoverTemplate)
	}
	if fig.Layout.Scene.Camera.Eye != DefaultEye {
		t.Errorf("Expected default eye, got %+v", fig.Layout.Scene.Camera.Eye)
	}
}

func TestBuildPaletteCycles(t *testing.T) {
	points := make([][3]float64, 12)
	labels := make([]string, 12)
	fig := Build(points, labels)

	colors := fig.Data[0].Marker.Color
	if colors[10] != Palette[0] || colors[11] != Palette[1] {
		t.Errorf("Expected palette to wrap after 10 entries, got %s %s", colors[10], colors[11])
	}
}

func TestFigureJSONShape(t *testing.T) {
	fig := Build([][3]float64{{1, 2, 3}}, []string{"a"})
	data, err := json.Marshal(fig)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	layout := decoded["layout"].(map[string]interface{})
	scene := layout["scene"].(map[string]interface{})
	eye := scene["camera"].(map[string]interface{})["eye"].(map[string]interface{})
	if eye["x"] != 1.5 || eye["y"] != 1.5 || eye["z"] != 1.5 {
		t.Errorf("Unexpected eye in JSON: %v", eye)
	}
	config := decoded["config"].(map[string]interface{})
	buttons := config["modeBarButtonsToAdd"].([]interface{})
	button := buttons[0].(map[string]interface{})
	if button["name"] != "Reset Camera" || button["action"] != ResetCameraAction {
		t.Errorf("Unexpected mode bar button: %v", button)
	}
}

func TestVisualizerCreatesThenUpdates(t *testing.T) {
	renderer := &recordingRenderer{}
	v := NewVisualizer(renderer)

	points := [][3]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}
	labels := []string{"a", "b", "c"}

	if err := v.Show(points, labels); err != nil {
		t.Fatalf("First Show failed: %v", err)
	}
	if err := v.Show(points, labels); err != nil {
		t.Fatalf("Second Show failed: %v", err)
	}

	if strings.Join(renderer.calls, ",") != "newPlot,react" {
		t.Errorf("Expected newPlot then react, got %v", renderer.calls)
	}
	if !v.Created() {
		t.Error("Expected plot to be created")
	}
}

func TestVisualizerRendererFailureKeepsState(t *testing.T) {
	renderer := &recordingRenderer{err: errors.New("boom")}
	v := NewVisualizer(renderer)

	if err := v.Show([][3]float64{{0, 0, 0}}, []string{"a"}); err == nil {
		t.Fatal("Expected renderer error")
	}
	if v.Created() {
		t.Error("Failed NewPlot must not mark the plot as created")
	}
}

func TestVisualizerRejectsMismatchedInput(t *testing.T) {
	renderer := &recordingRenderer{}
	v := NewVisualizer(renderer)

	if err := v.Show([][3]float64{{0, 0, 0}}, []string{"a", "b"}); err == nil {
		t.Fatal("Expected length mismatch error")
	}
	if len(renderer.calls) != 0 {
		t.Errorf("Renderer should not be called, got %v", renderer.calls)
	}
}

func TestResetCamera(t *testing.T) {
	renderer := &recordingRenderer{}
	v := NewVisualizer(renderer)

	if err := v.ResetCamera(); err != nil {
		t.Fatalf("ResetCamera before plot failed: %v", err)
	}
	if len(renderer.calls) != 0 {
		t.Errorf("Expected no relayout before a plot exists, got %v", renderer.calls)
	}

	v.Show([][3]float64{{1, 1, 1}}, []string{"a"})
	if err := v.ResetCamera(); err != nil {
		t.Fatalf("ResetCamera failed: %v", err)
	}
	if len(renderer.relayout) != 1 {
		t.Fatalf("Expected one relayout, got %d", len(renderer.relayout))
	}
	camera, ok := renderer.relayout[0]["scene.camera"].(Camera)
	if !ok || camera.Eye != DefaultEye {
		t.Errorf("Unexpected relayout: %v", renderer.relayout[0])
	}
}
