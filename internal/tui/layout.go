package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/kartoza/embedding-theatre/internal/plot"
	"github.com/muesli/reflow/truncate"
)

const (
	minCanvasWidth  = 40
	minCanvasHeight = 8
	borderSize      = 2
	headerHeight    = 1
	inputHeight     = 3
	controlsHeight  = 1
	statusBarHeight = 1
	maxLabelWidth   = 16
	bannerMaxWidth  = 60
)

type focusArea int

const (
	focusInput focusArea = iota
	focusModel
	focusButton
	focusPlot
	focusCount
)

type layoutDimensions struct {
	totalWidth   int
	canvasWidth  int
	canvasHeight int
}

func (m Model) calculateLayout() layoutDimensions {
	totalWidth := m.width - 2
	if totalWidth < minCanvasWidth+borderSize {
		totalWidth = minCanvasWidth + borderSize
	}

	canvasHeight := m.height - headerHeight - inputHeight - controlsHeight - statusBarHeight - borderSize
	if canvasHeight < minCanvasHeight {
		canvasHeight = minCanvasHeight
	}

	return layoutDimensions{
		totalWidth:   totalWidth,
		canvasWidth:  totalWidth - borderSize,
		canvasHeight: canvasHeight,
	}
}

type styles struct {
	title        lipgloss.Style
	input        lipgloss.Style
	inputFocused lipgloss.Style
	canvas       lipgloss.Style
	canvasFocus  lipgloss.Style
	selector     lipgloss.Style
	selectorOn   lipgloss.Style
	button       lipgloss.Style
	buttonOn     lipgloss.Style
	buttonOff    lipgloss.Style
	loading      lipgloss.Style
	banner       lipgloss.Style
	statusBar    lipgloss.Style
	placeholder  lipgloss.Style
}

func newStyles() styles {
	accentColor := lipgloss.Color("#1F77B4")
	borderColor := lipgloss.Color("#5F5FAF")
	dimColor := lipgloss.Color("#6C6C6C")
	okColor := lipgloss.Color("#2CA02C")
	errColor := lipgloss.Color("#D62728")

	return styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor),

		input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1),

		inputFocused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1),

		canvas: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor),

		canvasFocus: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor),

		selector: lipgloss.NewStyle().
			Foreground(dimColor).
			Padding(0, 1),

		selectorOn: lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			Padding(0, 1),

		button: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(okColor).
			Padding(0, 1),

		buttonOn: lipgloss.NewStyle().
			Bold(true).
			Underline(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(okColor).
			Padding(0, 1),

		buttonOff: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#BBBBBB")).
			Background(dimColor).
			Padding(0, 1),

		loading: lipgloss.NewStyle().
			Italic(true).
			Foreground(dimColor),

		banner: lipgloss.NewStyle().
			Foreground(errColor).
			Background(lipgloss.Color("#FDECEA")).
			Padding(0, 1),

		statusBar: lipgloss.NewStyle().
			Foreground(dimColor),

		placeholder: lipgloss.NewStyle().
			Foreground(dimColor),
	}
}

func (m Model) renderHeader(s styles, width int) string {
	title := s.title.Render("Embedding Theatre")
	version := s.statusBar.Render(m.version)
	gap := width - lipgloss.Width(title) - lipgloss.Width(version)
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + version
}

func (m Model) renderInput(s styles, width int) string {
	style := s.input
	if m.focus == focusInput {
		style = s.inputFocused
	}
	innerWidth := width - borderSize - 2

	var text string
	switch {
	case m.input == "" && m.focus != focusInput:
		text = s.placeholder.Render("Enter words separated by commas, e.g. king, queen, man, woman")
	case m.focus == focusInput:
		runes := []rune(m.input)
		text = string(runes[:m.cursorPos]) + "█" + string(runes[m.cursorPos:])
	default:
		text = m.input
	}
	// Keep the tail visible while typing.
	if w := ansi.StringWidth(text); w > innerWidth {
		text = ansi.TruncateLeft(text, w-innerWidth, "")
	}
	return style.Width(width - borderSize).Render(text)
}

func (m Model) renderControls(s styles) string {
	model := "(no models)"
	if len(m.models) > 0 {
		model = "◀ " + m.models[m.modelIndex] + " ▶"
	}
	selectorStyle := s.selector
	if m.focus == focusModel {
		selectorStyle = s.selectorOn
	}

	buttonStyle := s.button
	switch {
	case !m.enabled:
		buttonStyle = s.buttonOff
	case m.focus == focusButton:
		buttonStyle = s.buttonOn
	}

	parts := []string{
		selectorStyle.Render("Model: " + model),
		buttonStyle.Render("Generate"),
	}
	if m.loading {
		parts = append(parts, s.loading.Render("Generating embeddings..."))
	}
	return strings.Join(parts, "  ")
}

func (m Model) renderCanvasBox(s styles, layout layoutDimensions) string {
	content := m.renderCanvas(layout.canvasWidth, layout.canvasHeight)
	style := s.canvas
	if m.focus == focusPlot {
		style = s.canvasFocus
	}
	box := style.
		Width(layout.canvasWidth).
		Height(layout.canvasHeight).
		Render(content)

	if m.bannerVisible {
		message := truncate.StringWithTail(m.bannerMessage, bannerMaxWidth, "…")
		banner := s.banner.Render(message)
		x := (layout.canvasWidth + borderSize - lipgloss.Width(banner)) / 2
		box = overlayAt(box, banner, x, 1)
	}
	return box
}

func (m Model) renderStatusBar(s styles, width int) string {
	var help string
	switch m.focus {
	case focusInput:
		help = "type words │ Enter: generate │ Tab: next"
	case focusModel:
		help = "←→: model │ Enter: generate │ Tab: next"
	case focusButton:
		help = "Enter: generate │ Tab: next"
	case focusPlot:
		help = "←→↑↓: orbit │ +/-: zoom │ r: reset camera │ Tab: next"
	}
	help += " │ Esc: quit"

	camera := ""
	if m.figure != nil {
		camera = fmt.Sprintf("eye %.2f %.2f %.2f", m.eye.X, m.eye.Y, m.eye.Z)
	}
	padding := width - lipgloss.Width(help) - lipgloss.Width(camera)
	if padding < 1 {
		padding = 1
	}
	return s.statusBar.Render(help + strings.Repeat(" ", padding) + camera)
}

type canvasCell struct {
	char  rune
	style lipgloss.Style
}

// renderCanvas draws the current figure as seen from the terminal camera
func (m Model) renderCanvas(width, height int) string {
	grid := make([][]canvasCell, height)
	for row := range grid {
		grid[row] = make([]canvasCell, width)
		for col := range grid[row] {
			grid[row][col] = canvasCell{char: ' ', style: lipgloss.NewStyle()}
		}
	}

	if m.figure == nil || len(m.figure.Data) == 0 {
		writeText(grid, height/2, (width-len(emptyCanvasMessage))/2, emptyCanvasMessage, lipgloss.NewStyle())
		return gridToString(grid)
	}

	trace := m.figure.Data[0]
	writeText(grid, 0, (width-len(m.figure.Layout.Title))/2, m.figure.Layout.Title, lipgloss.NewStyle().Bold(true))

	points := tracePoints(trace)
	for _, p := range project(points, m.eye, width, height) {
		color := plot.Palette[p.index%len(plot.Palette)]
		if p.index < len(trace.Marker.Color) {
			color = trace.Marker.Color[p.index]
		}
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
		grid[p.row][p.col] = canvasCell{char: '●', style: style}

		if p.index < len(trace.Text) {
			label := truncate.StringWithTail(trace.Text[p.index], maxLabelWidth, "…")
			// Labels sit above the marker, centred like "top center".
			start := p.col - ansi.StringWidth(label)/2
			if p.row > 0 {
				writeText(grid, p.row-1, start, label, style)
			}
		}
	}
	return gridToString(grid)
}

const emptyCanvasMessage = "No plot yet: enter at least 3 words and press Enter"

func tracePoints(trace plot.Trace) [][3]float64 {
	n := len(trace.X)
	if len(trace.Y) < n {
		n = len(trace.Y)
	}
	if len(trace.Z) < n {
		n = len(trace.Z)
	}
	points := make([][3]float64, n)
	for i := range points {
		points[i] = [3]float64{trace.X[i], trace.Y[i], trace.Z[i]}
	}
	return points
}

func writeText(grid [][]canvasCell, row, col int, text string, style lipgloss.Style) {
	if row < 0 || row >= len(grid) {
		return
	}
	for _, r := range text {
		if col >= len(grid[row]) {
			return
		}
		if col >= 0 {
			grid[row][col] = canvasCell{char: r, style: style}
		}
		col++
	}
}

func gridToString(grid [][]canvasCell) string {
	var b strings.Builder
	for i, row := range grid {
		for _, cell := range row {
			b.WriteString(cell.style.Render(string(cell.char)))
		}
		if i < len(grid)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// overlayAt draws overlay on top of base with its top-left corner at x, y
func overlayAt(base, overlay string, x, y int) string {
	bgLines, bgWidth := getLines(base)
	fgLines, fgWidth := getLines(overlay)
	bgHeight := len(bgLines)
	fgHeight := len(fgLines)

	if fgWidth >= bgWidth && fgHeight >= bgHeight {
		return overlay
	}

	if x > bgWidth-fgWidth {
		x = bgWidth - fgWidth
	}
	if y > bgHeight-fgHeight {
		y = bgHeight - fgHeight
	}
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}

	var b strings.Builder
	for i, bgLine := range bgLines {
		if i > 0 {
			b.WriteByte('\n')
		}
		if i < y || i >= y+fgHeight {
			b.WriteString(bgLine)
			continue
		}

		pos := 0
		if x > 0 {
			left := truncate.String(bgLine, uint(x))
			pos = ansi.StringWidth(left)
			b.WriteString(left)
			if pos < x {
				b.WriteString(strings.Repeat(" ", x-pos))
				pos = x
			}
		}

		fgLine := fgLines[i-y]
		b.WriteString(fgLine)
		pos += ansi.StringWidth(fgLine)

		right := ansi.TruncateLeft(bgLine, pos, "")
		lineWidth := ansi.StringWidth(bgLine)
		rightWidth := ansi.StringWidth(right)
		if rightWidth <= lineWidth-pos {
			b.WriteString(strings.Repeat(" ", lineWidth-rightWidth-pos))
		}
		b.WriteString(right)
	}

	return b.String()
}

func getLines(s string) ([]string, int) {
	lines := strings.Split(s, "\n")
	widest := 0
	for _, l := range lines {
		if w := ansi.StringWidth(l); w > widest {
			widest = w
		}
	}
	return lines, widest
}
