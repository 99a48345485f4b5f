package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/casedesk/internal/domain"
	"github.com/mmcdole/casedesk/internal/tui/styles"
)

// Layout constants for the overview
const (
	OverviewBorderHeight     = 2
	OverviewScrollIndicators = 2
)

// overviewContent holds the two-zone layout content
type overviewContent struct {
	header string // fixed top
	body   string // scrollable
}

// Overview displays the details of the open case
type Overview struct {
	item       *domain.CaseInstance
	draft      bool
	width      int
	height     int
	offset     int // scroll offset
	maxVisible int // max visible lines
	now        func() time.Time
}

// NewOverview creates a new overview component
func NewOverview() Overview {
	return Overview{now: time.Now}
}

// SetCase sets the case to display
func (o *Overview) SetCase(ci *domain.CaseInstance) {
	if ci == nil || o.item == nil || ci.Ref() != o.item.Ref() {
		o.offset = 0
	}
	o.item = ci
}

// Case returns the displayed case
func (o Overview) Case() *domain.CaseInstance {
	return o.item
}

// SetDraft marks that the case has an unsent comment
func (o *Overview) SetDraft(has bool) {
	o.draft = has
}

// SetSize updates the component dimensions
func (o *Overview) SetSize(width, height int) {
	o.width = width
	o.height = height
	// Reserve border, scroll indicators, title and blank line
	o.maxVisible = max(height-OverviewBorderHeight-OverviewScrollIndicators-2, 1)
}

// HasCase returns true if there is a case to display
func (o Overview) HasCase() bool {
	return o.item != nil
}

// ScrollDown scrolls the description by one line
func (o *Overview) ScrollDown() { o.offset++ }

// ScrollUp scrolls the description back by one line
func (o *Overview) ScrollUp() {
	if o.offset > 0 {
		o.offset--
	}
}

// View renders the component
func (o Overview) View() string {
	style := styles.InactiveBorder

	// Border takes 2 chars, leave 1 char safety margin
	contentWidth := max(o.width-3, 10)
	content := o.render(contentWidth)

	titleLine := styles.AccentStyle.Render(styles.Truncate("Case", contentWidth))

	headerLines := splitLines(content.header)
	bodyLines := splitLines(content.body)

	availableForBody := max(o.maxVisible-len(headerLines), 1)

	maxOffset := max(len(bodyLines)-availableForBody, 0)
	offset := min(o.offset, maxOffset)

	end := min(offset+availableForBody, len(bodyLines))
	visibleBody := bodyLines[offset:end]

	up := " "
	if offset > 0 {
		up = styles.DimStyle.Render("↑ more")
	}
	down := " "
	if end < len(bodyLines) {
		down = styles.DimStyle.Render("↓ more")
	}

	parts := []string{titleLine, ""}
	if content.header != "" {
		parts = append(parts, headerLines...)
	}
	parts = append(parts, up)
	parts = append(parts, visibleBody...)
	for range availableForBody - len(visibleBody) {
		parts = append(parts, "")
	}
	parts = append(parts, down)

	frameW, frameH := style.GetFrameSize()

	return style.
		Width(o.width - frameW).
		Height(o.height - frameH).
		Render(strings.Join(parts, "\n"))
}

func (o Overview) render(width int) overviewContent {
	if o.item == nil {
		return overviewContent{body: styles.DimStyle.Render("No case selected. Press enter on a case to open it.")}
	}
	ci := *o.item

	var header strings.Builder

	header.WriteString(styles.TitleStyle.Render(styles.Truncate(ci.ID, width-lenStatus(ci.Status)-1)))
	header.WriteString(" ")
	header.WriteString(styles.RenderStatusBadge(ci.Status))
	header.WriteString("\n")

	var meta []string
	if ci.DefinitionID != "" {
		meta = append(meta, ci.DefinitionID)
	}
	if ci.ContainerID != "" {
		meta = append(meta, ci.ContainerID)
	}
	header.WriteString(styles.DimStyle.Render(styles.Truncate(strings.Join(meta, " · "), width)))
	header.WriteString("\n")

	if ci.Owner != "" {
		header.WriteString(styles.DimStyle.Render("Owner: " + ci.Owner))
		header.WriteString("\n")
	}
	if !ci.StartedAt.IsZero() {
		header.WriteString(styles.DimStyle.Render(fmt.Sprintf("Started: %s (%s)", ci.StartedAt.Format("2006-01-02 15:04"), RelativeTime(ci.StartedAt, o.now()))))
		header.WriteString("\n")
	}
	if !ci.CompletedAt.IsZero() {
		header.WriteString(styles.DimStyle.Render("Completed: " + ci.CompletedAt.Format("2006-01-02 15:04")))
		header.WriteString("\n")
	}
	if o.draft {
		header.WriteString(styles.AccentStyle.Render("Unsent comment draft (a to continue)"))
		header.WriteString("\n")
	}

	bodyWidth := min(width-2, 80)
	var body []string
	if ci.Description != "" {
		body = append(body, styles.SubtitleStyle.Render(wordWrap(ci.Description, bodyWidth)))
	}
	if ci.CompletionMessage != "" {
		body = append(body, "", styles.DimStyle.Render(wordWrap(ci.CompletionMessage, bodyWidth)))
	}

	return overviewContent{
		header: strings.TrimRight(header.String(), "\n"),
		body:   strings.Join(body, "\n"),
	}
}

func lenStatus(s domain.CaseStatus) int {
	return len(s.String()) + 2
}

// RelativeTime formats t relative to now, e.g. "5m ago"
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}

// splitLines splits a string into lines, returning empty slice for empty string
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// wordWrap wraps text to the specified width
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	for p, para := range strings.Split(text, "\n") {
		if p > 0 {
			result.WriteString("\n")
		}
		lineLen := 0
		for _, word := range strings.Fields(para) {
			wordLen := len([]rune(word))
			if lineLen+wordLen+1 > width && lineLen > 0 {
				result.WriteString("\n")
				lineLen = 0
			}
			if lineLen > 0 {
				result.WriteString(" ")
				lineLen++
			}
			result.WriteString(word)
			lineLen += wordLen
		}
	}

	return result.String()
}
