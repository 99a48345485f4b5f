package components

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/casedesk/internal/tui/styles"
)

// ConfirmModal asks a yes/no question before a destructive action
type ConfirmModal struct {
	visible bool
	title   string
	body    string
}

// NewConfirmModal creates a new confirm modal
func NewConfirmModal() ConfirmModal {
	return ConfirmModal{}
}

// Show displays the question
func (m *ConfirmModal) Show(title, body string) {
	m.visible = true
	m.title = title
	m.body = body
}

// Hide dismisses the modal
func (m *ConfirmModal) Hide() {
	m.visible = false
}

// IsVisible returns whether the modal is shown
func (m ConfirmModal) IsVisible() bool {
	return m.visible
}

// HandleKeyMsg returns (handled, confirmed). The modal closes on either answer.
func (m *ConfirmModal) HandleKeyMsg(msg tea.KeyMsg) (handled bool, confirmed bool) {
	if !m.visible {
		return false, false
	}
	switch {
	case key.Matches(msg, ConfirmKeys.Yes):
		m.visible = false
		return true, true
	case key.Matches(msg, ConfirmKeys.No):
		m.visible = false
	}
	return true, false
}

// View renders the confirm modal
func (m ConfirmModal) View() string {
	if !m.visible {
		return ""
	}

	body := lipgloss.NewStyle().Foreground(styles.LightGray).Width(44).Render(m.body)

	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.ModalTitleStyle.Render(m.title),
		body,
		"",
		styles.HelpKeyStyle.Render("y")+styles.HelpDescStyle.Render(" confirm   ")+
			styles.HelpKeyStyle.Render("n")+styles.HelpDescStyle.Render(" cancel"),
	)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Red).
		Background(styles.SlateDark).
		Padding(1, 2).
		Render(content)
}
