package components

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/casedesk/internal/tui/styles"
)

const inputModalWidth = 60

// InputModal is a single-line text input modal with an inline error line
type InputModal struct {
	visible bool
	title   string
	input   textinput.Model
	err     error
}

// NewInputModal creates a new input modal
func NewInputModal() InputModal {
	ti := textinput.New()
	ti.Placeholder = "Write a comment..."
	ti.CharLimit = 2000
	ti.Width = inputModalWidth - 2
	ti.Prompt = ""
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	return InputModal{
		input: ti,
	}
}

// Show displays the modal with a title and initial text
func (m *InputModal) Show(title, value string) {
	m.visible = true
	m.title = title
	m.err = nil
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

// Hide dismisses the modal
func (m *InputModal) Hide() {
	m.visible = false
	m.err = nil
	m.input.Blur()
}

// SetError shows err under the input; nil clears it
func (m *InputModal) SetError(err error) {
	m.err = err
}

// IsVisible returns whether the modal is shown
func (m InputModal) IsVisible() bool {
	return m.visible
}

// Value returns the current input value
func (m InputModal) Value() string {
	return m.input.Value()
}

// Update handles input events, returns (modal, cmd, submitted)
func (m InputModal) Update(msg tea.Msg) (InputModal, tea.Cmd, bool) {
	if !m.visible {
		return m, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			return m, nil, true
		case "esc":
			m.Hide()
			return m, nil, false
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd, false
}

// View renders the input modal
func (m InputModal) View() string {
	if !m.visible {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Foreground(styles.White).
		Bold(true).
		Width(inputModalWidth).
		Background(styles.SlateDark)

	lineStyle := lipgloss.NewStyle().
		Width(inputModalWidth).
		Background(styles.SlateDark)

	status := styles.DimStyle.Render("enter save • esc cancel")
	if m.err != nil {
		status = styles.ErrorStyle.Render(m.err.Error())
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(m.title),
		lineStyle.Render(""),
		lineStyle.Render(m.input.View()),
		lineStyle.Render(""),
		lineStyle.Render(status),
	)

	return styles.ModalStyle.Render(content)
}
