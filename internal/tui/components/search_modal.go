package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/casedesk/internal/domain"
	"github.com/mmcdole/casedesk/internal/tui/styles"
)

var searchStatuses = []domain.CaseStatus{
	domain.CaseStatusOpen,
	domain.CaseStatusClosed,
	domain.CaseStatusCancelled,
}

// SearchModal edits the case search request: a status and a text filter
type SearchModal struct {
	visible bool
	status  int // index into searchStatuses
	input   textinput.Model
	req     domain.CaseSearchRequest
}

// NewSearchModal creates a new search modal
func NewSearchModal() SearchModal {
	ti := textinput.New()
	ti.Placeholder = "case id or description..."
	ti.CharLimit = 100
	ti.Width = 40
	ti.Prompt = "> "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	return SearchModal{input: ti}
}

// Show displays the modal prefilled from the current request
func (m *SearchModal) Show(req domain.CaseSearchRequest) {
	m.visible = true
	m.req = req
	m.status = 0
	for i, s := range searchStatuses {
		if s == req.Status {
			m.status = i
		}
	}
	m.input.SetValue(req.Filter)
	m.input.CursorEnd()
	m.input.Focus()
}

// Hide dismisses the modal
func (m *SearchModal) Hide() {
	m.visible = false
	m.input.Blur()
}

// IsVisible returns whether the modal is shown
func (m SearchModal) IsVisible() bool {
	return m.visible
}

// Update handles input events. A non-nil request means the user submitted.
func (m SearchModal) Update(msg tea.Msg) (SearchModal, tea.Cmd, *domain.CaseSearchRequest) {
	if !m.visible {
		return m, nil, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			req := m.req
			req.Status = searchStatuses[m.status]
			req.Filter = strings.TrimSpace(m.input.Value())
			m.Hide()
			return m, nil, &req
		case "esc":
			m.Hide()
			return m, nil, nil
		case "tab", "right":
			if keyMsg.String() == "tab" || m.input.Value() == "" {
				m.status = (m.status + 1) % len(searchStatuses)
				return m, nil, nil
			}
		case "shift+tab", "left":
			if keyMsg.String() == "shift+tab" || m.input.Value() == "" {
				m.status = (m.status + len(searchStatuses) - 1) % len(searchStatuses)
				return m, nil, nil
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd, nil
}

// View renders the search modal
func (m SearchModal) View() string {
	if !m.visible {
		return ""
	}

	tabs := make([]string, len(searchStatuses))
	for i, s := range searchStatuses {
		if i == m.status {
			tabs[i] = styles.BadgeStyle.Render(s.String())
		} else {
			tabs[i] = styles.DimBadgeStyle.Render(s.String())
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.ModalTitleStyle.Render("Search cases"),
		strings.Join(tabs, " "),
		"",
		m.input.View(),
		"",
		styles.DimStyle.Render("Tab: Status  Enter: Search  Esc: Cancel"),
	)

	return styles.ModalStyle.Render(content)
}
