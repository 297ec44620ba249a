package screen

import "sync"

// Display is the presentation surface fit results are applied to
type Display interface {
	SetText(text string)
	SetFontSize(size int)
	SetPlaceholder(placeholder bool)
	SetControlsVisible(visible bool)
	Focus()
}

// State is what a Display currently shows
type State struct {
	Text            string `json:"text"`
	FontSize        int    `json:"fontSize"`
	Placeholder     bool   `json:"placeholder"`
	ControlsVisible bool   `json:"controlsVisible"`
	Focused         bool   `json:"focused"`
}

// Model is a Display held in memory. Remote pages mirror its State.
type Model struct {
	mu    sync.Mutex
	state State
}

// NewModel creates a model with the controls shown
func NewModel() *Model {
	return &Model{state: State{ControlsVisible: true}}
}

// SetText sets the displayed text
func (m *Model) SetText(text string) {
	m.mu.Lock()
	m.state.Text = text
	m.mu.Unlock()
}

// SetFontSize sets the font size style
func (m *Model) SetFontSize(size int) {
	m.mu.Lock()
	m.state.FontSize = size
	m.mu.Unlock()
}

// SetPlaceholder switches between the placeholder and text styles
func (m *Model) SetPlaceholder(placeholder bool) {
	m.mu.Lock()
	m.state.Placeholder = placeholder
	m.mu.Unlock()
}

// SetControlsVisible shows or hides the page buttons
func (m *Model) SetControlsVisible(visible bool) {
	m.mu.Lock()
	m.state.ControlsVisible = visible
	m.mu.Unlock()
}

// Focus marks the text input as focused
func (m *Model) Focus() {
	m.mu.Lock()
	m.state.Focused = true
	m.mu.Unlock()
}

// State returns a copy of the current state
func (m *Model) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}
