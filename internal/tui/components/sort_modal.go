package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/casedesk/internal/tui/styles"
)

// SortDirection represents sort direction over the comment timestamp
type SortDirection int

const (
	SortNewest SortDirection = iota
	SortOldest
)

// String returns the display name for the direction
func (d SortDirection) String() string {
	switch d {
	case SortNewest:
		return "Newest first"
	case SortOldest:
		return "Oldest first"
	default:
		return "Unknown"
	}
}

// Ascending reports whether the direction orders oldest first
func (d SortDirection) Ascending() bool {
	return d == SortOldest
}

// DirectionFor maps an ascending flag to a direction
func DirectionFor(ascending bool) SortDirection {
	if ascending {
		return SortOldest
	}
	return SortNewest
}

var sortOptions = []SortDirection{SortNewest, SortOldest}

// SortModal is a small popup for choosing comment order
type SortModal struct {
	visible bool
	cursor  int
	active  SortDirection
}

// NewSortModal creates a new sort modal
func NewSortModal() SortModal {
	return SortModal{}
}

// Show displays the modal with the cursor on the active direction
func (m *SortModal) Show(active SortDirection) {
	m.visible = true
	m.active = active
	m.cursor = 0
	for i, opt := range sortOptions {
		if opt == active {
			m.cursor = i
			break
		}
	}
}

// Hide dismisses the modal
func (m *SortModal) Hide() {
	m.visible = false
}

// IsVisible returns whether the modal is shown
func (m SortModal) IsVisible() bool {
	return m.visible
}

// HandleKey processes a key press, returns (handled, selection).
// If selection is non-nil, the user confirmed a choice.
func (m *SortModal) HandleKey(key string) (handled bool, selection *SortDirection) {
	if !m.visible {
		return false, nil
	}

	switch key {
	case "j", "down":
		if m.cursor < len(sortOptions)-1 {
			m.cursor++
		}
		return true, nil
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return true, nil
	case "enter":
		chosen := sortOptions[m.cursor]
		m.visible = false
		return true, &chosen
	case "s":
		// Toggle straight away
		chosen := SortOldest
		if m.active == SortOldest {
			chosen = SortNewest
		}
		m.visible = false
		return true, &chosen
	case "esc", "q":
		m.visible = false
		return true, nil
	}

	return true, nil // consume all keys when visible
}

// View renders the sort modal
func (m SortModal) View() string {
	if !m.visible {
		return ""
	}

	lines := make([]string, 0, len(sortOptions))
	for i, opt := range sortOptions {
		selected := i == m.cursor
		isActive := opt == m.active

		prefix := "  "
		if isActive {
			prefix = "✓ "
		}
		text := styles.Pad(prefix+opt.String(), 20)

		style := lipgloss.NewStyle().Foreground(styles.LightGray)
		switch {
		case selected:
			style = lipgloss.NewStyle().Foreground(styles.White).Background(styles.SlateLight)
		case isActive:
			style = lipgloss.NewStyle().Foreground(styles.Accent)
		}
		lines = append(lines, style.Render(text))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Accent).
		Background(styles.SlateDark).
		Padding(0, 1).
		Render(styles.ModalTitleStyle.Render("Sort comments") + "\n" + strings.Join(lines, "\n"))
}
