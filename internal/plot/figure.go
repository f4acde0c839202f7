// Package plot builds the 3D scatter figure for projected embeddings and
// tracks whether the figure has already been created on the page.
//
// The figure types mirror the subset of the Plotly.js schema the page
// consumes: a trace list, a layout and a config object.
package plot

// Palette is cycled over points by index
var Palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// DefaultEye is where the camera starts and where Reset Camera returns to
var DefaultEye = Vec3{X: 1.5, Y: 1.5, Z: 1.5}

// HoverTemplate shows the label and the coordinates to four decimals
const HoverTemplate = "Word: %{text}<br>" +
	"X: %{x:.4f}<br>" +
	"Y: %{y:.4f}<br>" +
	"Z: %{z:.4f}<br>" +
	"<extra></extra>"

// ResetCameraAction is the mode bar action the page maps to a reset request
const ResetCameraAction = "resetCamera"

// Figure is everything the renderer needs for one plot
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
	Config Config  `json:"config"`
}

// Trace is a single plotted series
type Trace struct {
	Type          string    `json:"type"`
	Mode          string    `json:"mode"`
	X             []float64 `json:"x"`
	Y             []float64 `json:"y"`
	Z             []float64 `json:"z"`
	Text          []string  `json:"text"`
	TextPosition  string    `json:"textposition"`
	Marker        Marker    `json:"marker"`
	HoverTemplate string    `json:"hovertemplate"`
}

// Marker styles the points of a trace
type Marker struct {
	Size    int      `json:"size"`
	Color   []string `json:"color"`
	Opacity float64  `json:"opacity"`
}

// Layout holds titles, the 3D scene and margins
type Layout struct {
	Title      string `json:"title"`
	Scene      Scene  `json:"scene"`
	Margin     Margin `json:"margin"`
	ShowLegend bool   `json:"showlegend"`
	// UIRevision keeps user camera moves across react calls
	UIRevision string `json:"uirevision,omitempty"`
}

// Scene describes the 3D axes and the camera
type Scene struct {
	XAxis  Axis   `json:"xaxis"`
	YAxis  Axis   `json:"yaxis"`
	ZAxis  Axis   `json:"zaxis"`
	Camera Camera `json:"camera"`
}

// Axis is a titled scene axis
type Axis struct {
	Title     string `json:"title"`
	TitleFont Font   `json:"titlefont"`
}

// Font sets a text size
type Font struct {
	Size int `json:"size"`
}

// Camera positions the viewer's eye relative to the scene centre
type Camera struct {
	Eye Vec3 `json:"eye"`
}

// Vec3 is a point in scene space
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Margin is in pixels
type Margin struct {
	L int `json:"l"`
	R int `json:"r"`
	B int `json:"b"`
	T int `json:"t"`
}

// Config controls the renderer's chrome
type Config struct {
	Responsive          bool            `json:"responsive"`
	DisplayModeBar      bool            `json:"displayModeBar"`
	ModeBarButtonsToAdd []ModeBarButton `json:"modeBarButtonsToAdd"`
}

// ModeBarButton is a custom toolbar button. Action names what the page
// should do on click since functions cannot cross the wire.
type ModeBarButton struct {
	Name   string `json:"name"`
	Icon   string `json:"icon"`
	Action string `json:"action"`
}

// Relayout is a partial layout update keyed by attribute path
type Relayout map[string]interface{}

// CameraReset returns the relayout that puts the camera back at DefaultEye
func CameraReset() Relayout {
	return Relayout{"scene.camera": Camera{Eye: DefaultEye}}
}

// Build maps parallel points and labels to a figure. Callers must make
// sure len(points) == len(labels).
func Build(points [][3]float64, labels []string) Figure {
	n := len(points)
	trace := Trace{
		Type:         "scatter3d",
		Mode:         "markers+text",
		X:            make([]float64, n),
		Y:            make([]float64, n),
		Z:            make([]float64, n),
		Text:         append([]string(nil), labels...),
		TextPosition: "top center",
		Marker: Marker{
			Size:    8,
			Color:   make([]string, n),
			Opacity: 0.8,
		},
		HoverTemplate: HoverTemplate,
	}
	for i, p := range points {
		trace.X[i], trace.Y[i], trace.Z[i] = p[0], p[1], p[2]
		trace.Marker.Color[i] = Palette[i%len(Palette)]
	}

	axis := func(title string) Axis {
		return Axis{Title: title, TitleFont: Font{Size: 12}}
	}

	return Figure{
		Data: []Trace{trace},
		Layout: Layout{
			Title: "3D Word Embedding Space",
			Scene: Scene{
				XAxis:  axis("X Axis"),
				YAxis:  axis("Y Axis"),
				ZAxis:  axis("Z Axis"),
				Camera: Camera{Eye: DefaultEye},
			},
			Margin:     Margin{L: 0, R: 0, B: 0, T: 30},
			ShowLegend: false,
			UIRevision: "embedding",
		},
		Config: Config{
			Responsive:     true,
			DisplayModeBar: true,
			ModeBarButtonsToAdd: []ModeBarButton{
				{Name: "Reset Camera", Icon: "home", Action: ResetCameraAction},
			},
		},
	}
}
