package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/casedesk/internal/domain"
	"github.com/mmcdole/casedesk/internal/tui/components"
	"github.com/mmcdole/casedesk/internal/tui/styles"
)

// Row identity and filter text

func caseRowKey(ci domain.CaseInstance) string { return ci.Ref().String() }

func caseRowText(ci domain.CaseInstance) string { return ci.ID + " " + ci.Description }

func commentRowKey(c domain.CaseComment) string { return c.ID }

func commentRowText(c domain.CaseComment) string { return c.Author + " " + c.Text }

// renderCaseRow renders one case: status indicator, id and description
func renderCaseRow(ci domain.CaseInstance, selected bool, width int) string {
	indicatorFg := styles.StatusColor(ci.Status)
	idFg := styles.Accent

	id := ci.ID
	// width - indicator(1) - spaces(2) - margins(2)
	available := max(width-5-lipgloss.Width(id), 5)
	desc := styles.Truncate(firstLine(ci.Description), available)

	parts := []styles.RowPart{
		{Text: styles.StatusChar(ci.Status), Foreground: &indicatorFg},
		{Text: " " + id, Foreground: &idFg},
		{Text: " " + desc},
	}
	return styles.RenderListRow(parts, selected, width)
}

// renderCommentRow renders one comment: author, age and the first line of text
func renderCommentRow(c domain.CaseComment, selected bool, width int) string {
	authorFg := styles.Accent
	ageFg := styles.DimGray

	author := styles.Truncate(c.Author, 16)
	age := ""
	if !c.AddedAt.IsZero() {
		age = " " + components.RelativeTime(c.AddedAt, time.Now())
	}

	available := max(width-4-lipgloss.Width(author)-lipgloss.Width(age), 5)
	text := styles.Truncate(firstLine(c.Text), available)

	parts := []styles.RowPart{
		{Text: author, Foreground: &authorFg},
		{Text: age, Foreground: &ageFg},
		{Text: "  " + text},
	}
	return styles.RenderListRow(parts, selected, width)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}

// renderFooter renders a single-line minimal footer
func (m Model) renderFooter() string {
	// Left side: spinner while loading, otherwise the status message
	var left string
	switch {
	case m.StatusMsg != "" && m.StatusIsErr:
		left = styles.ErrorStyle.Render(m.StatusMsg)
	case m.cases.Loading() || m.comments.Loading():
		left = RenderSpinner(m.SpinnerFrame) + " " + styles.DimStyle.Render("Loading...")
	case m.StatusMsg != "":
		left = styles.DimStyle.Render(m.StatusMsg)
	}

	// Center section: pane specific hints
	var center string
	hint := func(k, desc string) string {
		return styles.AccentStyle.Render(k) + styles.DimStyle.Render(" "+desc)
	}
	if m.Focus == PaneCases {
		center = strings.Join([]string{hint("enter", "Open"), hint("n", "New"), hint("f", "Search")}, "  ")
	} else {
		center = strings.Join([]string{hint("a", "Add"), hint("e", "Edit"), hint("s", "Sort")}, "  ")
	}

	// Right side: "? help" hint
	right := styles.AccentStyle.Render("?") + styles.DimStyle.Render(" help")

	leftWidth := lipgloss.Width(left)
	centerWidth := lipgloss.Width(center)
	rightWidth := lipgloss.Width(right)

	if leftWidth+centerWidth+rightWidth >= m.Width {
		gap := max(m.Width-leftWidth-rightWidth, 0)
		return left + strings.Repeat(" ", gap) + right
	}

	available := m.Width - leftWidth - rightWidth
	leftPad := (available - centerWidth) / 2
	rightPad := available - centerWidth - leftPad

	return left + strings.Repeat(" ", leftPad) + center + strings.Repeat(" ", rightPad) + right
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	content := styles.ModalTitleStyle.Render("Keys") + "\n" +
		m.Help.View(Keys) + "\n\n" +
		styles.DimStyle.Render("Press ? or esc to return")

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(content))
}

// RenderSpinner renders a loading spinner
func RenderSpinner(frame int) string {
	return styles.SpinnerStyle.Render(styles.SpinnerFrames[frame%len(styles.SpinnerFrames)])
}
