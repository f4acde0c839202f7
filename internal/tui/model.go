// Package tui is the terminal front-end. It renders the page state it
// receives as bridge commands and draws the 3D scatter with a projected
// camera that can be orbited from the keyboard.
package tui

import (
	"context"
	"log"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kartoza/embedding-theatre/internal/bridge"
	"github.com/kartoza/embedding-theatre/internal/controller"
	"github.com/kartoza/embedding-theatre/internal/plot"
)

const (
	orbitStep  = 10 * math.Pi / 180
	zoomFactor = 0.85
)

// Generator is the controller surface the terminal drives
type Generator interface {
	Click(ctx context.Context) *controller.Task
	ResetCamera() error
}

// Form receives the text input and model selector values
type Form interface {
	SetForm(text, model string)
}

// Model is the bubbletea model for the terminal front-end
type Model struct {
	ctx       context.Context
	generator Generator
	form      Form
	version   string

	width, height int
	focus         focusArea

	input      string
	cursorPos  int
	models     []string
	modelIndex int

	loading       bool
	enabled       bool
	bannerVisible bool
	bannerMessage string

	figure *plot.Figure
	eye    plot.Vec3
}

// NewModel creates the terminal model. ctx bounds the generate requests it
// starts.
func NewModel(ctx context.Context, generator Generator, form Form, models []string, defaultModel, version string) Model {
	m := Model{
		ctx:       ctx,
		generator: generator,
		form:      form,
		version:   version,
		width:     80,
		height:    24,
		models:    models,
		enabled:   true,
		eye:       plot.DefaultEye,
	}
	for i, model := range models {
		if model == defaultModel {
			m.modelIndex = i
		}
	}
	return m
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch message := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(message)

	case tea.WindowSizeMsg:
		m.width = message.Width
		m.height = message.Height

	case bridge.Command:
		m.apply(message)
	}

	return m, nil
}

// apply mirrors one page command into the model
func (m *Model) apply(cmd bridge.Command) {
	switch cmd.Op {
	case bridge.OpSetLoading:
		m.loading = cmd.Value
	case bridge.OpSetGenerateEnabled:
		m.enabled = cmd.Value
	case bridge.OpShowError:
		m.bannerVisible = true
		m.bannerMessage = cmd.Message
	case bridge.OpHideError:
		m.bannerVisible = false
	case bridge.OpNewPlot:
		m.figure = cmd.Figure
		if cmd.Figure != nil {
			m.eye = cmd.Figure.Layout.Scene.Camera.Eye
		}
	case bridge.OpReact:
		// React keeps whatever camera the user has orbited to.
		m.figure = cmd.Figure
	case bridge.OpRelayout:
		if camera, ok := cmd.Update["scene.camera"].(plot.Camera); ok {
			m.eye = camera.Eye
		}
	default:
		log.Printf("Warning: ignoring unknown page command %q", cmd.Op)
	}
}

func (m Model) handleKeyPress(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "tab":
		m.focus = (m.focus + 1) % focusCount
		return m, nil

	case "shift+tab":
		m.focus = (m.focus + focusCount - 1) % focusCount
		return m, nil

	case "enter":
		if m.focus == focusPlot {
			return m, nil
		}
		return m, m.generate()
	}

	switch m.focus {
	case focusInput:
		m.editInput(key)
	case focusModel:
		m.selectModel(key)
	case focusPlot:
		return m, m.moveCamera(key)
	}
	return m, nil
}

// generate presses the generate button. A disabled button ignores presses.
func (m Model) generate() tea.Cmd {
	if !m.enabled {
		return nil
	}
	m.form.SetForm(m.input, m.selectedModel())

	ctx, generator := m.ctx, m.generator
	return func() tea.Msg {
		generator.Click(ctx)
		return nil
	}
}

func (m Model) selectedModel() string {
	if len(m.models) == 0 {
		return ""
	}
	return m.models[m.modelIndex]
}

func (m *Model) editInput(key tea.KeyMsg) {
	runes := []rune(m.input)
	switch key.Type {
	case tea.KeyBackspace:
		if m.cursorPos > 0 {
			runes = append(runes[:m.cursorPos-1], runes[m.cursorPos:]...)
			m.cursorPos--
		}
	case tea.KeyDelete:
		if m.cursorPos < len(runes) {
			runes = append(runes[:m.cursorPos], runes[m.cursorPos+1:]...)
		}
	case tea.KeyLeft:
		if m.cursorPos > 0 {
			m.cursorPos--
		}
	case tea.KeyRight:
		if m.cursorPos < len(runes) {
			m.cursorPos++
		}
	case tea.KeyHome, tea.KeyCtrlA:
		m.cursorPos = 0
	case tea.KeyEnd, tea.KeyCtrlE:
		m.cursorPos = len(runes)
	case tea.KeySpace:
		runes = insertRunes(runes, m.cursorPos, []rune{' '})
		m.cursorPos++
	case tea.KeyRunes:
		runes = insertRunes(runes, m.cursorPos, key.Runes)
		m.cursorPos += len(key.Runes)
	}
	m.input = string(runes)
}

func insertRunes(runes []rune, at int, insert []rune) []rune {
	out := make([]rune, 0, len(runes)+len(insert))
	out = append(out, runes[:at]...)
	out = append(out, insert...)
	return append(out, runes[at:]...)
}

func (m *Model) selectModel(key tea.KeyMsg) {
	if len(m.models) == 0 {
		return
	}
	switch key.String() {
	case "left", "up", "h", "k":
		m.modelIndex = (m.modelIndex + len(m.models) - 1) % len(m.models)
	case "right", "down", "l", "j":
		m.modelIndex = (m.modelIndex + 1) % len(m.models)
	}
}

func (m *Model) moveCamera(key tea.KeyMsg) tea.Cmd {
	if m.figure == nil {
		return nil
	}
	switch key.String() {
	case "left", "h":
		m.eye = orbit(m.eye, -orbitStep, 0)
	case "right", "l":
		m.eye = orbit(m.eye, orbitStep, 0)
	case "up", "k":
		m.eye = orbit(m.eye, 0, orbitStep)
	case "down", "j":
		m.eye = orbit(m.eye, 0, -orbitStep)
	case "+", "=":
		m.eye = zoom(m.eye, zoomFactor)
	case "-", "_":
		m.eye = zoom(m.eye, 1/zoomFactor)
	case "r":
		generator := m.generator
		return func() tea.Msg {
			if err := generator.ResetCamera(); err != nil {
				log.Printf("Warning: camera reset failed: %v", err)
			}
			return nil
		}
	}
	return nil
}

// View implements tea.Model
func (m Model) View() string {
	s := newStyles()
	layout := m.calculateLayout()

	var b strings.Builder
	b.WriteString(m.renderHeader(s, layout.totalWidth))
	b.WriteString("\n")
	b.WriteString(m.renderInput(s, layout.totalWidth))
	b.WriteString("\n")
	b.WriteString(m.renderControls(s))
	b.WriteString("\n")
	b.WriteString(m.renderCanvasBox(s, layout))
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar(s, layout.totalWidth))

	return lipgloss.NewStyle().Margin(0, 1).Render(b.String())
}
