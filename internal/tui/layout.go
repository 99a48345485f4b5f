package tui

// Layout proportions
const (
	CasesColumnPercent = 40
	OverviewPercent    = 40 // share of the right pane height

	MinColumnWidth     = 20
	MinOverviewHeight  = 8
	MinCommentsHeight  = 8

	// Vertical layout: single footer line
	ChromeHeight = 1
)

// paneLayout holds calculated pane sizes for the View
type paneLayout struct {
	casesWidth     int
	rightWidth     int
	overviewHeight int // 0 if not shown
	commentsHeight int
}

// calculateLayout computes pane sizes from the window size
func (m Model) calculateLayout() paneLayout {
	contentHeight := m.Height - ChromeHeight

	l := paneLayout{}
	l.casesWidth = max(m.Width*CasesColumnPercent/100, MinColumnWidth)
	l.rightWidth = max(m.Width-l.casesWidth, MinColumnWidth)

	l.commentsHeight = contentHeight
	if m.ShowOverview {
		l.overviewHeight = max(contentHeight*OverviewPercent/100, MinOverviewHeight)
		l.commentsHeight = max(contentHeight-l.overviewHeight, MinCommentsHeight)
	}
	return l
}

// updateLayout updates component sizes based on window size
func (m *Model) updateLayout() {
	if m.Width == 0 || m.Height == 0 {
		return
	}

	l := m.calculateLayout()
	m.CaseList.SetSize(l.casesWidth, m.Height-ChromeHeight)
	m.CommentList.SetSize(l.rightWidth, l.commentsHeight)
	if m.ShowOverview {
		m.Overview.SetSize(l.rightWidth, l.overviewHeight)
	}
	m.PickerModal.SetSize(m.Width, m.Height)
	m.Help.Width = m.Width - 8
}
