package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/casedesk/internal/casemgmt"
	"github.com/mmcdole/casedesk/internal/domain"
	"github.com/mmcdole/casedesk/internal/listing"
	"github.com/mmcdole/casedesk/internal/tui/components"
	"github.com/mmcdole/casedesk/internal/tui/styles"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateHelp
)

// Pane identifies the focused pane
type Pane int

const (
	PaneCases Pane = iota
	PaneComments
)

// confirmAction is the destructive action a confirm modal is asking about
type confirmAction int

const (
	confirmNone confirmAction = iota
	confirmCancelCase
	confirmDestroyCase
	confirmDeleteComment
)

// pickerKind is what the picker modal is choosing
type pickerKind int

const (
	pickDefinition pickerKind = iota
	pickRecent
)

// Opener opens a URL outside the terminal
type Opener interface {
	Open(url string) error
}

// Options configures the application model
type Options struct {
	CaseFetchSize int
	Comments      listing.Paging
	Search        domain.CaseSearchRequest
	ShowOverview  bool
	Opener        Opener
	CaseURL       func(domain.CaseRef) string
	Logger        *slog.Logger
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State ApplicationState
	Ready bool

	Svc    *casemgmt.Service
	opts   Options
	logger *slog.Logger

	// List state
	cases       *listing.Controller[domain.CaseInstance]
	comments    *listing.Controller[domain.CaseComment]
	search      domain.CaseSearchRequest
	current     domain.CaseRef // open case
	pendingOpen domain.CaseRef // case to open once it is loaded

	// UI Components
	CaseList     *components.ListColumn[domain.CaseInstance]
	CommentList  *components.ListColumn[domain.CaseComment]
	Overview     components.Overview
	SortModal    components.SortModal
	InputModal   components.InputModal
	ConfirmModal components.ConfirmModal
	PickerModal  components.PickerModal
	SearchModal  components.SearchModal
	Help         help.Model

	// Modal context
	editing        *domain.CaseComment // nil while adding
	confirm        confirmAction
	confirmCase    domain.CaseInstance
	confirmComment domain.CaseComment
	picker         pickerKind
	definitions    []domain.CaseDefinition

	// Dimensions
	Width  int
	Height int

	// UI state
	Focus        Pane
	ShowOverview bool
	StatusMsg    string
	StatusIsErr  bool
	SpinnerFrame int
}

// NewModel creates a new application model
func NewModel(svc *casemgmt.Service, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Comments.DisplaySize <= 0 {
		opts.Comments.DisplaySize = 4
	}
	if opts.Search.Status == 0 {
		opts.Search = domain.DefaultCaseSearchRequest()
	}

	caseList := components.NewListColumn("Cases", caseRowKey, caseRowText, renderCaseRow, components.FuzzyMatcher)
	caseList.SetEmptyText("No cases")
	caseList.SetFocused(true)

	commentList := components.NewListColumn("Comments", commentRowKey, commentRowText, renderCommentRow, components.RankedMatcher)
	commentList.SetEmptyText("No comments")

	h := help.New()
	h.ShowAll = true
	h.Styles.FullKey = styles.HelpKeyStyle
	h.Styles.FullDesc = styles.HelpDescStyle

	return Model{
		State:        StateBrowsing,
		Svc:          svc,
		opts:         opts,
		logger:       opts.Logger,
		cases:        casemgmt.NewCaseList(opts.CaseFetchSize),
		comments:     casemgmt.NewCommentList(opts.Comments.FetchSize),
		search:       opts.Search,
		CaseList:     caseList,
		CommentList:  commentList,
		Overview:     components.NewOverview(),
		SortModal:    components.NewSortModal(),
		InputModal:   components.NewInputModal(),
		ConfirmModal: components.NewConfirmModal(),
		PickerModal:  components.NewPickerModal(),
		SearchModal:  components.NewSearchModal(),
		Help:         h,
		ShowOverview: opts.ShowOverview,
	}
}

// Init loads the first page of cases
func (m Model) Init() tea.Cmd {
	reqs := m.cases.Refresh()
	m.syncCaseList()
	return tea.Batch(
		FetchCasesCmd(m.Svc, m.search, reqs),
		TickCmd(100*time.Millisecond),
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case TickMsg:
		m.SpinnerFrame++
		m.CaseList.SetSpinnerFrame(m.SpinnerFrame)
		m.CommentList.SetSpinnerFrame(m.SpinnerFrame)
		return m, TickCmd(100 * time.Millisecond)

	case CasesPageMsg:
		change, err := m.cases.Apply(msg.Result)
		if change.Stale {
			m.logger.Debug("dropped stale case result", "kind", msg.Result.Request.Kind, "generation", msg.Result.Request.Generation)
			return m, nil
		}
		m.syncCaseList()
		if err != nil {
			return m.setError(ErrMsg{Err: err, Context: "loading cases"})
		}
		m.refreshOverviewFromList()
		return m, nil

	case CommentsPageMsg:
		if msg.Ref != m.current {
			return m, nil
		}
		change, err := m.comments.Apply(msg.Result)
		if change.Stale {
			m.logger.Debug("dropped stale comment result", "case", msg.Ref.String(), "kind", msg.Result.Request.Kind)
			return m, nil
		}
		m.syncCommentList()
		if err != nil {
			return m.setError(ErrMsg{Err: err, Context: "loading comments"})
		}
		return m, nil

	case CaseLoadedMsg:
		ref := msg.Case.Ref()
		if ref == m.pendingOpen {
			m.pendingOpen = domain.CaseRef{}
			return m.openCase(*msg.Case)
		}
		if ref == m.current {
			m.Overview.SetCase(msg.Case)
		}
		return m, nil

	case DefinitionsLoadedMsg:
		m.definitions = msg.Definitions
		items := make([]components.PickerItem, len(msg.Definitions))
		for i, def := range msg.Definitions {
			items[i] = components.PickerItem{ID: def.ID, Label: def.DisplayName(), Detail: def.ContainerID}
		}
		m.picker = pickDefinition
		m.PickerModal.SetSize(m.Width, m.Height)
		m.PickerModal.Show("Start case", "No case definitions deployed", items)
		return m, nil

	case CaseCreatedMsg:
		reqs, err := m.cases.Complete(msg.Mutation, msg.Err)
		if err != nil {
			return m.setError(ErrMsg{Err: err, Context: "starting case"})
		}
		m.syncCaseList()
		m.pendingOpen = msg.Ref
		m.StatusMsg = "Started case " + msg.Ref.CaseID
		m.StatusIsErr = false
		return m, tea.Batch(
			FetchCasesCmd(m.Svc, m.search, reqs),
			LoadCaseCmd(m.Svc, msg.Ref),
			ClearStatusCmd(3*time.Second),
		)

	case CaseMutatedMsg:
		return m.handleCaseMutated(msg)

	case CommentMutatedMsg:
		return m.handleCommentMutated(msg)

	case CaseOpenedMsg:
		m.StatusMsg = "Opened " + msg.Ref.CaseID + " in browser"
		m.StatusIsErr = false
		return m, ClearStatusCmd(3 * time.Second)

	case ErrMsg:
		return m.setError(msg)

	case StatusMsg:
		m.StatusMsg = msg.Message
		m.StatusIsErr = msg.IsError
		return m, ClearStatusCmd(3 * time.Second)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}

	// Forward everything else (cursor blink) to the open text input
	var cmd tea.Cmd
	switch {
	case m.InputModal.IsVisible():
		m.InputModal, cmd, _ = m.InputModal.Update(msg)
	case m.SearchModal.IsVisible():
		m.SearchModal, cmd, _ = m.SearchModal.Update(msg)
	}
	return m, cmd
}

func (m Model) setError(msg ErrMsg) (tea.Model, tea.Cmd) {
	m.logger.Error("operation failed", "context", msg.Context, "error", msg.Err)
	m.StatusMsg = msg.Error()
	if errors.Is(msg.Err, domain.ErrServerOffline) {
		m.StatusMsg += " (r to retry)"
	}
	m.StatusIsErr = true
	return m, ClearStatusCmd(5 * time.Second)
}

// openCase makes ci the open case and starts a new comment generation
func (m Model) openCase(ci domain.CaseInstance) (tea.Model, tea.Cmd) {
	m.current = ci.Ref()
	m.Overview.SetCase(&ci)
	_, hasDraft := m.Svc.Draft(m.current)
	m.Overview.SetDraft(hasDraft)
	m.Svc.Visit(ci)

	m.CommentList.ClearFilter()
	reqs := m.comments.Reset()
	m.syncCommentList()
	m.CommentList.SetSelectedIndex(0)

	return m, FetchCommentsCmd(m.Svc, m.current, reqs)
}

// closeCase clears the open case, e.g. after it was destroyed
func (m *Model) closeCase() {
	m.current = domain.CaseRef{}
	m.Overview.SetCase(nil)
	m.Overview.SetDraft(false)
	m.comments = casemgmt.NewCommentList(m.opts.Comments.FetchSize)
	m.syncCommentList()
	if m.Focus == PaneComments {
		m.setFocus(PaneCases)
	}
}

func (m Model) handleCaseMutated(msg CaseMutatedMsg) (tea.Model, tea.Cmd) {
	reqs, err := m.cases.Complete(msg.Mutation, msg.Err)
	ref := msg.Mutation.Item.Ref()
	if err != nil {
		return m.setError(ErrMsg{Err: err, Context: "updating case " + ref.CaseID})
	}
	m.syncCaseList()

	cmds := []tea.Cmd{ClearStatusCmd(3 * time.Second)}
	if len(reqs) > 0 {
		cmds = append(cmds, FetchCasesCmd(m.Svc, m.search, reqs))
	}

	m.StatusIsErr = false
	if msg.Destroyed {
		m.StatusMsg = "Destroyed case " + ref.CaseID
	} else {
		m.StatusMsg = "Cancelled case " + ref.CaseID
	}

	if ref == m.current {
		if msg.Destroyed {
			m.closeCase()
		} else {
			cmds = append(cmds, LoadCaseCmd(m.Svc, ref))
		}
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleCommentMutated(msg CommentMutatedMsg) (tea.Model, tea.Cmd) {
	if msg.Ref != m.current {
		return m, nil
	}
	reqs, err := m.comments.Complete(msg.Mutation, msg.Err)
	if err != nil {
		if msg.Mutation.Action == listing.ActionAdd {
			m.Overview.SetDraft(true)
		}
		return m.setError(ErrMsg{Err: err, Context: msg.Mutation.Action.String() + " comment"})
	}

	switch msg.Mutation.Action {
	case listing.ActionAdd:
		m.comments.SetSortAscending(false)
		m.Overview.SetDraft(false)
		m.StatusMsg = "Comment added"
	case listing.ActionUpdate:
		m.StatusMsg = "Comment updated"
	case listing.ActionDelete:
		m.StatusMsg = "Comment deleted"
	}
	m.StatusIsErr = false
	m.syncCommentList()

	return m, tea.Batch(
		FetchCommentsCmd(m.Svc, m.current, reqs),
		ClearStatusCmd(3*time.Second),
	)
}

// syncCaseList pushes the controller's list into the case column
func (m *Model) syncCaseList() {
	items := m.cases.Items()
	m.CaseList.SetItems(items)
	m.CaseList.SetLoadMore(m.cases.LoadMoreVisible())
	m.CaseList.SetLoading(m.cases.Loading())
	m.CaseList.SetSubtitle(fmt.Sprintf("%s · %d", m.search.Status, len(items)))
}

// syncCommentList pushes the display window of the comment list into the
// comment column. The window page is the controller's page counter.
func (m *Model) syncCommentList() {
	items := m.comments.Items()
	p := m.opts.Comments.DisplaySize
	visible := listing.Visible(items, p, m.comments.Page())

	m.CommentList.SetItems(visible)
	m.CommentList.SetLoadMore(m.commentsHaveMore())
	m.CommentList.SetLoading(m.comments.Loading())

	order := components.DirectionFor(m.comments.Ascending()).String()
	if m.current.IsZero() {
		m.CommentList.SetSubtitle("")
		m.CommentList.SetEmptyText("Open a case to see its comments")
	} else {
		m.CommentList.SetSubtitle(fmt.Sprintf("%d of %d · %s", len(visible), len(items), order))
		m.CommentList.SetEmptyText("No comments")
	}
}

// commentsHaveMore reports whether load more can show anything: either the
// window hides accumulated comments or the probe found another page
func (m Model) commentsHaveMore() bool {
	if m.current.IsZero() {
		return false
	}
	hidden := listing.HasHiddenItems(m.comments.Len(), m.opts.Comments.DisplaySize, m.comments.Page())
	return hidden || m.comments.LoadMoreVisible()
}

// loadMoreComments advances the comment page, which widens the display
// window and fetches the next page
func (m *Model) loadMoreComments() tea.Cmd {
	if !m.commentsHaveMore() {
		return nil
	}
	reqs := m.comments.LoadMore()
	m.syncCommentList()
	return FetchCommentsCmd(m.Svc, m.current, reqs)
}

// refreshOverviewFromList keeps the overview in step with a refreshed list row
func (m *Model) refreshOverviewFromList() {
	if m.current.IsZero() {
		return
	}
	if ci, ok := m.cases.Get(m.current.String()); ok {
		m.Overview.SetCase(&ci)
	}
}

func (m *Model) setFocus(p Pane) {
	m.Focus = p
	m.CaseList.SetFocused(p == PaneCases)
	m.CommentList.SetFocused(p == PaneComments)
}

func (m *Model) focusedList() interface {
	ToggleFilter()
	IsFiltering() bool
	IsFilterTyping() bool
	ClearFilter()
	Update(tea.Msg) (tea.Cmd, bool)
} {
	if m.Focus == PaneComments {
		return m.CommentList
	}
	return m.CaseList
}

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	if m.State == StateHelp {
		return m.renderHelp()
	}

	right := m.CommentList.View()
	if m.ShowOverview {
		right = lipgloss.JoinVertical(lipgloss.Left, m.Overview.View(), right)
	}

	content := lipgloss.JoinHorizontal(lipgloss.Top, m.CaseList.View(), right)
	view := lipgloss.JoinVertical(lipgloss.Left, content, m.renderFooter())

	for _, modal := range []struct {
		visible bool
		view    func() string
	}{
		{m.SearchModal.IsVisible(), m.SearchModal.View},
		{m.SortModal.IsVisible(), m.SortModal.View},
		{m.PickerModal.IsVisible(), m.PickerModal.View},
		{m.ConfirmModal.IsVisible(), m.ConfirmModal.View},
		{m.InputModal.IsVisible(), m.InputModal.View},
	} {
		if modal.visible {
			view = lipgloss.Place(m.Width, m.Height,
				lipgloss.Center, lipgloss.Center,
				modal.view())
		}
	}

	return view
}
