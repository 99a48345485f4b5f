package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/casedesk/internal/tui/styles"
)

// PickerItem is one choice in a PickerModal
type PickerItem struct {
	ID     string
	Label  string
	Detail string
}

// PickerModal lets the user choose one item from a short list, such as a
// case definition to start or a recently visited case
type PickerModal struct {
	visible bool
	title   string
	empty   string
	items   []PickerItem
	cursor  int
	width   int
}

// NewPickerModal creates a new picker modal
func NewPickerModal() PickerModal {
	return PickerModal{}
}

// Show displays the modal with the given items
func (m *PickerModal) Show(title, empty string, items []PickerItem) {
	m.visible = true
	m.title = title
	m.empty = empty
	m.items = items
	m.cursor = 0
}

// Hide dismisses the modal
func (m *PickerModal) Hide() {
	m.visible = false
}

// IsVisible returns whether the modal is shown
func (m *PickerModal) IsVisible() bool {
	return m.visible
}

// SetSize sets the screen width the modal is centered in
func (m *PickerModal) SetSize(width, _ int) {
	m.width = width
}

// HandleKeyMsg processes a key message, returns (handled, chosen).
// A non-nil chosen item closes the modal.
func (m *PickerModal) HandleKeyMsg(msg tea.KeyMsg) (handled bool, chosen *PickerItem) {
	if !m.visible {
		return false, nil
	}

	switch {
	case key.Matches(msg, PickerKeys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case key.Matches(msg, PickerKeys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, PickerKeys.Enter):
		if len(m.items) == 0 {
			return true, nil
		}
		item := m.items[m.cursor]
		m.visible = false
		return true, &item
	case key.Matches(msg, PickerKeys.Escape):
		m.visible = false
	}

	return true, nil // consume all keys when visible
}

// View renders the picker modal
func (m *PickerModal) View() string {
	if !m.visible {
		return ""
	}

	modalWidth := 50
	if m.width > 0 && m.width < 70 {
		modalWidth = max(m.width-10, 20)
	}
	rowWidth := modalWidth - 4

	lines := []string{styles.ModalTitleStyle.Render(m.title)}

	if len(m.items) == 0 {
		lines = append(lines, styles.DimStyle.Render(m.empty))
	}

	for i, item := range m.items {
		text := item.Label
		if item.Detail != "" {
			text += "  " + item.Detail
		}
		text = styles.Pad(text, rowWidth)

		if i == m.cursor {
			lines = append(lines, lipgloss.NewStyle().
				Foreground(styles.White).
				Background(styles.SlateLight).
				Render(text))
		} else {
			lines = append(lines, lipgloss.NewStyle().
				Foreground(styles.LightGray).
				Render(text))
		}
	}

	lines = append(lines, "", styles.DimStyle.Render("Enter: Select  Esc: Cancel"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Accent).
		Background(styles.SlateDark).
		Padding(1, 2).
		Width(modalWidth).
		Render(strings.Join(lines, "\n"))
}
