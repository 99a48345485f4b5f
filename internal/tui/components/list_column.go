package components

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/casedesk/internal/tui/styles"
	sfuzzy "github.com/sahilm/fuzzy"
)

// Layout constants for list columns
const (
	// Border adds 1 char on each side (left+right for width, top+bottom for height)
	BorderWidth  = 2
	BorderHeight = 2

	// Scroll indicators ("↑ more" and "↓ more") each take 1 line
	ScrollIndicatorLines = 2
)

// RowRenderer renders one row of a list column
type RowRenderer[T any] func(item T, selected bool, width int) string

// Matcher returns the indices of texts matching query, best match first
type Matcher func(query string, texts []string) []int

// FuzzyMatcher matches characters in order, case-insensitively
func FuzzyMatcher(query string, texts []string) []int {
	lower := make([]string, len(texts))
	for i, t := range texts {
		lower[i] = strings.ToLower(t)
	}
	matches := sfuzzy.Find(strings.ToLower(query), lower)
	idx := make([]int, len(matches))
	for i, m := range matches {
		idx[i] = m.Index
	}
	return idx
}

// RankedMatcher ranks texts by edit distance to query. It suits longer free
// text such as comment bodies.
func RankedMatcher(query string, texts []string) []int {
	ranks := fuzzy.RankFindFold(query, texts)
	sort.Sort(ranks)
	idx := make([]int, len(ranks))
	for i, r := range ranks {
		idx[i] = r.OriginalIndex
	}
	return idx
}

// ListColumn is a scrollable, filterable list of items with an optional
// "load more" row below the last item.
type ListColumn[T any] struct {
	items  []T
	key    func(T) string
	text   func(T) string
	render RowRenderer[T]
	match  Matcher

	// Selection
	cursor     int
	offset     int
	maxVisible int

	// Dimensions
	width   int
	height  int
	focused bool

	title    string
	subtitle string
	empty    string

	loading      bool
	spinnerFrame int
	loadMore     bool

	// Filter state
	filterActive bool
	filterInput  textinput.Model
	filterQuery  string
	filteredIdx  []int // indices into items
}

// NewListColumn creates a list column. key identifies items across SetItems
// calls so the cursor stays on the same item; text is what the filter sees.
func NewListColumn[T any](title string, key, text func(T) string, render RowRenderer[T], match Matcher) *ListColumn[T] {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	if match == nil {
		match = FuzzyMatcher
	}

	return &ListColumn[T]{
		key:         key,
		text:        text,
		render:      render,
		match:       match,
		title:       title,
		empty:       "No items",
		filterInput: ti,
	}
}

// Update handles navigation and filter typing. It returns true when the
// selected item changed.
func (c *ListColumn[T]) Update(msg tea.Msg) (tea.Cmd, bool) {
	if !c.focused {
		return nil, false
	}
	before := c.selectedKey()

	// Filter typing mode
	if c.filterActive && c.filterInput.Focused() {
		if msg, ok := msg.(tea.KeyMsg); ok {
			switch msg.String() {
			case "esc":
				c.clearFilter()
				return nil, c.selectedKey() != before
			case "enter":
				c.filterInput.Blur()
				return nil, false
			case "backspace":
				if c.filterInput.Value() == "" {
					c.clearFilter()
					return nil, c.selectedKey() != before
				}
			}
		}

		var cmd tea.Cmd
		c.filterInput, cmd = c.filterInput.Update(msg)
		c.applyFilter()
		return cmd, c.selectedKey() != before
	}

	// Filter applied but blurred
	if c.filterActive {
		if msg, ok := msg.(tea.KeyMsg); ok {
			switch msg.String() {
			case "esc":
				c.clearFilter()
				return nil, c.selectedKey() != before
			case "/":
				c.filterInput.Focus()
				return nil, false
			}
		}
	}

	count := c.ItemCount()
	if count == 0 {
		return nil, false
	}

	msg2, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil, false
	}
	switch {
	case key.Matches(msg2, ListColumnKeys.Down):
		if c.cursor < count-1 {
			c.cursor++
		}
	case key.Matches(msg2, ListColumnKeys.Up):
		if c.cursor > 0 {
			c.cursor--
		}
	case key.Matches(msg2, ListColumnKeys.Home):
		c.cursor = 0
	case key.Matches(msg2, ListColumnKeys.End):
		c.cursor = count - 1
	case key.Matches(msg2, ListColumnKeys.HalfDown):
		c.cursor = min(c.cursor+c.maxVisible/2, count-1)
	case key.Matches(msg2, ListColumnKeys.HalfUp):
		c.cursor = max(c.cursor-c.maxVisible/2, 0)
	}
	c.ensureVisible()
	return nil, c.selectedKey() != before
}

// View renders the column inside its border
func (c *ListColumn[T]) View() string {
	style := styles.InactiveBorder
	if c.focused {
		style = styles.ActiveBorder
	}

	// Subtract frame size so the rendered size equals width x height
	frameW, frameH := style.GetFrameSize()

	return style.
		Width(c.width - frameW).
		Height(c.height - frameH).
		Render(c.renderContent())
}

// SetSize sets the outer size of the column
func (c *ListColumn[T]) SetSize(width, height int) {
	c.width = width
	c.height = height
	c.recalcMaxVisible()
	c.ensureVisible()
}

func (c *ListColumn[T]) SetFocused(focused bool) { c.focused = focused }

func (c *ListColumn[T]) IsFocused() bool { return c.focused }

func (c *ListColumn[T]) Title() string { return c.title }

func (c *ListColumn[T]) SetTitle(title string) { c.title = title }

// SetSubtitle sets the dim text shown after the title
func (c *ListColumn[T]) SetSubtitle(s string) { c.subtitle = s }

// SetEmptyText sets the text shown when there are no items
func (c *ListColumn[T]) SetEmptyText(s string) { c.empty = s }

func (c *ListColumn[T]) SetLoading(loading bool) { c.loading = loading }

func (c *ListColumn[T]) IsLoading() bool { return c.loading }

// SetLoadMore shows or hides the "load more" row
func (c *ListColumn[T]) SetLoadMore(visible bool) {
	c.loadMore = visible
	c.recalcMaxVisible()
}

func (c *ListColumn[T]) LoadMoreVisible() bool { return c.loadMore }

// SetSpinnerFrame updates the spinner animation frame
func (c *ListColumn[T]) SetSpinnerFrame(frame int) { c.spinnerFrame = frame }

// SetItems replaces the items. The cursor follows the previously selected
// item when it is still present, and an active filter is re-applied.
func (c *ListColumn[T]) SetItems(items []T) {
	selected := c.selectedKey()
	c.items = items

	if c.filterActive && c.filterQuery != "" {
		c.filteredIdx = c.match(c.filterQuery, c.texts())
		if c.filteredIdx == nil {
			c.filteredIdx = []int{}
		}
	} else {
		c.filteredIdx = nil
	}

	c.cursor = 0
	if selected != "" {
		for i := range c.ItemCount() {
			if c.key(c.items[c.mapIndex(i)]) == selected {
				c.cursor = i
				break
			}
		}
	}
	c.ensureVisible()
}

// Items returns all items, ignoring the filter
func (c *ListColumn[T]) Items() []T { return c.items }

// Selected returns the item under the cursor
func (c *ListColumn[T]) Selected() (T, bool) {
	var zero T
	count := c.ItemCount()
	if count == 0 || c.cursor >= count {
		return zero, false
	}
	return c.items[c.mapIndex(c.cursor)], true
}

func (c *ListColumn[T]) SelectedIndex() int { return c.cursor }

// SetSelectedIndex moves the cursor, clamped to the item range
func (c *ListColumn[T]) SetSelectedIndex(idx int) {
	last := c.ItemCount() - 1
	if last < 0 {
		c.cursor = 0
		return
	}
	c.cursor = max(0, min(idx, last))
	c.ensureVisible()
}

// ItemCount returns the number of items passing the filter
func (c *ListColumn[T]) ItemCount() int {
	if c.filteredIdx != nil {
		return len(c.filteredIdx)
	}
	return len(c.items)
}

func (c *ListColumn[T]) IsEmpty() bool { return c.ItemCount() == 0 }

// ToggleFilter activates the filter input
func (c *ListColumn[T]) ToggleFilter() {
	c.filterActive = true
	c.filterInput.Focus()
	c.recalcMaxVisible()
}

// IsFiltering returns true if filter mode is active
func (c *ListColumn[T]) IsFiltering() bool { return c.filterActive }

// IsFilterTyping returns true if filter is active AND input is focused
func (c *ListColumn[T]) IsFilterTyping() bool {
	return c.filterActive && c.filterInput.Focused()
}

// ClearFilter deactivates the filter and shows all items
func (c *ListColumn[T]) ClearFilter() { c.clearFilter() }

// SetFilter applies query as an active filter without focusing the input.
// An empty query clears the filter.
func (c *ListColumn[T]) SetFilter(query string) {
	if query == "" {
		c.clearFilter()
		return
	}
	c.filterActive = true
	c.filterInput.SetValue(query)
	c.filterInput.Blur()
	c.recalcMaxVisible()
	c.applyFilter()
	c.ensureVisible()
}

// Internal methods

func (c *ListColumn[T]) selectedKey() string {
	item, ok := c.Selected()
	if !ok {
		return ""
	}
	return c.key(item)
}

func (c *ListColumn[T]) texts() []string {
	out := make([]string, len(c.items))
	for i, item := range c.items {
		out[i] = c.text(item)
	}
	return out
}

func (c *ListColumn[T]) recalcMaxVisible() {
	// Interior height minus title line and scroll indicators
	c.maxVisible = c.height - BorderHeight - ScrollIndicatorLines - 1
	if c.filterActive {
		c.maxVisible--
	}
	if c.loadMore {
		c.maxVisible--
	}
	if c.maxVisible < 1 {
		c.maxVisible = 1
	}
}

func (c *ListColumn[T]) ensureVisible() {
	if c.maxVisible <= 0 {
		return
	}
	if c.cursor < c.offset {
		c.offset = c.cursor
	}
	if c.cursor >= c.offset+c.maxVisible {
		c.offset = c.cursor - c.maxVisible + 1
	}
	if c.offset > 0 && c.offset+c.maxVisible > c.ItemCount() {
		c.offset = max(0, c.ItemCount()-c.maxVisible)
	}
}

func (c *ListColumn[T]) clearFilter() {
	selected := c.selectedKey()
	c.filterActive = false
	c.filterQuery = ""
	c.filteredIdx = nil
	c.filterInput.SetValue("")
	c.filterInput.Blur()
	c.recalcMaxVisible()

	for i, item := range c.items {
		if c.key(item) == selected {
			c.cursor = i
			break
		}
	}
	c.ensureVisible()
}

func (c *ListColumn[T]) applyFilter() {
	query := c.filterInput.Value()
	c.filterQuery = query

	if query == "" {
		c.filteredIdx = nil
		return
	}

	c.filteredIdx = c.match(query, c.texts())
	if c.filteredIdx == nil {
		c.filteredIdx = []int{}
	}

	c.cursor = 0
	c.offset = 0
}

func (c *ListColumn[T]) mapIndex(i int) int {
	if c.filteredIdx != nil && i < len(c.filteredIdx) {
		return c.filteredIdx[i]
	}
	return i
}

// Rendering

func (c *ListColumn[T]) renderContent() string {
	itemWidth := max(c.width-BorderWidth, 10)

	titleLine := styles.AccentStyle.Render(styles.Truncate(c.title, itemWidth))
	if c.subtitle != "" {
		titleLine += styles.DimStyle.Render(styles.Truncate(" "+c.subtitle, itemWidth-len(c.title)))
	}

	count := c.ItemCount()
	if c.loading && count == 0 {
		spinner := styles.SpinnerFrames[c.spinnerFrame%len(styles.SpinnerFrames)]
		loadingLine := styles.DimStyle.Render(spinner + " Loading...")
		return titleLine + "\n" + " " + "\n" + loadingLine + "\n" + " "
	}

	if count == 0 {
		emptyMsg := styles.DimStyle.Render(c.empty)
		if c.filterActive && c.filterQuery != "" {
			emptyMsg = styles.DimStyle.Render("No matches")
		}
		content := titleLine + "\n" + " " + "\n" + emptyMsg + "\n" + " "
		if c.loadMore {
			content += "\n" + c.renderLoadMore()
		}
		if c.filterActive {
			content += "\n" + c.renderFilterBar()
		}
		return content
	}

	end := min(c.offset+c.maxVisible, count)
	lines := make([]string, 0, end-c.offset)
	for i := c.offset; i < end; i++ {
		lines = append(lines, c.render(c.items[c.mapIndex(i)], i == c.cursor && c.focused, itemWidth))
	}

	// Always reserve the indicator lines to prevent layout shifts
	header := " "
	if c.offset > 0 {
		header = styles.DimStyle.Render("↑ more")
	}
	footer := " "
	if end < count {
		footer = styles.DimStyle.Render("↓ more")
	}

	content := titleLine + "\n" + header + "\n" + strings.Join(lines, "\n") + "\n" + footer

	if c.loadMore {
		content += "\n" + c.renderLoadMore()
	}

	if c.filterActive {
		content += "\n" + c.renderFilterBar()
	}

	return content
}

func (c *ListColumn[T]) renderLoadMore() string {
	label := "m  load more"
	if c.loading {
		label = styles.SpinnerFrames[c.spinnerFrame%len(styles.SpinnerFrames)] + " loading..."
	}
	return styles.AccentStyle.Render(" " + label)
}

func (c *ListColumn[T]) renderFilterBar() string {
	input := c.filterInput.View()

	countStr := ""
	if c.filterQuery != "" {
		countStr = styles.DimStyle.Render(fmt.Sprintf(" [%d/%d]", c.ItemCount(), len(c.items)))
	}

	return input + countStr
}
