package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/casedesk/internal/casemgmt"
	"github.com/mmcdole/casedesk/internal/domain"
	"github.com/mmcdole/casedesk/internal/listing"
	"github.com/mmcdole/casedesk/internal/tui/components"
)

// handleKeyMsg handles keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.State == StateHelp {
		if key.Matches(msg, Keys.Escape, Keys.Help, Keys.Quit) {
			m.State = StateBrowsing
		}
		return m, nil
	}

	// Route to active modal if any
	if handled, newModel, cmd := m.routeToModal(msg); handled {
		return newModel, cmd
	}

	list := m.focusedList()

	// Filter typing owns the keyboard
	if list.IsFilterTyping() {
		cmd, _ := list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.State = StateHelp
		return m, nil

	case key.Matches(msg, Keys.Escape):
		if list.IsFiltering() {
			list.ClearFilter()
		}
		return m, nil

	case key.Matches(msg, Keys.Filter):
		list.ToggleFilter()
		return m, nil

	case key.Matches(msg, Keys.SwitchPane):
		if m.Focus == PaneCases && !m.current.IsZero() {
			m.setFocus(PaneComments)
		} else {
			m.setFocus(PaneCases)
		}
		return m, nil

	case key.Matches(msg, Keys.ScrollDown):
		m.Overview.ScrollDown()
		return m, nil

	case key.Matches(msg, Keys.ScrollUp):
		m.Overview.ScrollUp()
		return m, nil

	case key.Matches(msg, Keys.Search):
		m.SearchModal.Show(m.search)
		return m, nil

	case key.Matches(msg, Keys.NewCase):
		m.StatusMsg = "Loading case definitions..."
		m.StatusIsErr = false
		return m, LoadDefinitionsCmd(m.Svc)

	case key.Matches(msg, Keys.Recent):
		return m.showRecent()

	case key.Matches(msg, Keys.OpenBrowser):
		return m.openInBrowser()

	case key.Matches(msg, Keys.Refresh):
		return m.refreshFocused()

	case key.Matches(msg, Keys.LoadMore):
		return m.loadMoreFocused()
	}

	if m.Focus == PaneCases {
		return m.handleCasesKey(msg, list)
	}
	return m.handleCommentsKey(msg, list)
}

func (m Model) handleCasesKey(msg tea.KeyMsg, list interface {
	Update(tea.Msg) (tea.Cmd, bool)
}) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Enter):
		ci, ok := m.CaseList.Selected()
		if !ok {
			return m, nil
		}
		return m.openCase(ci)

	case key.Matches(msg, Keys.CancelCase):
		ci, ok := m.CaseList.Selected()
		if !ok || !ci.IsActive() {
			return m, nil
		}
		m.confirm = confirmCancelCase
		m.confirmCase = ci
		m.ConfirmModal.Show("Cancel case?", "Case "+ci.ID+" will be cancelled. Its data is kept on the server.")
		return m, nil

	case key.Matches(msg, Keys.DestroyCase):
		ci, ok := m.CaseList.Selected()
		if !ok {
			return m, nil
		}
		m.confirm = confirmDestroyCase
		m.confirmCase = ci
		m.ConfirmModal.Show("Destroy case?", "Case "+ci.ID+" and all of its data will be permanently removed.")
		return m, nil
	}

	cmd, _ := list.Update(msg)
	return m, cmd
}

func (m Model) handleCommentsKey(msg tea.KeyMsg, list interface {
	Update(tea.Msg) (tea.Cmd, bool)
}) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.AddComment):
		if m.current.IsZero() {
			return m.setError(ErrMsg{Err: domain.ErrNoCaseSelected})
		}
		draft, _ := m.Svc.Draft(m.current)
		m.editing = nil
		m.InputModal.Show("Add comment to "+m.current.CaseID, draft)
		return m, nil

	case key.Matches(msg, Keys.EditComment):
		c, ok := m.CommentList.Selected()
		if !ok {
			return m, nil
		}
		m.editing = &c
		m.InputModal.Show("Edit comment", c.Text)
		return m, nil

	case key.Matches(msg, Keys.DeleteComment):
		c, ok := m.CommentList.Selected()
		if !ok {
			return m, nil
		}
		m.confirm = confirmDeleteComment
		m.confirmComment = c
		m.ConfirmModal.Show("Delete comment?", "The comment by "+c.Author+" will be removed.")
		return m, nil

	case key.Matches(msg, Keys.Sort):
		m.SortModal.Show(components.DirectionFor(m.comments.Ascending()))
		return m, nil
	}

	cmd, _ := list.Update(msg)
	return m, cmd
}

// routeToModal sends the key to the visible modal, if any
func (m Model) routeToModal(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	switch {
	case m.InputModal.IsVisible():
		var cmd tea.Cmd
		var submitted bool
		m.InputModal, cmd, submitted = m.InputModal.Update(msg)
		if submitted {
			newModel, submitCmd := m.submitComment(m.InputModal.Value())
			return true, newModel, submitCmd
		}
		if !m.InputModal.IsVisible() && m.editing == nil {
			// Cancelled while adding: keep what was typed
			if err := m.Svc.SaveDraft(m.current, m.InputModal.Value()); err != nil {
				m.logger.Error("failed to save draft", "error", err)
			}
			_, hasDraft := m.Svc.Draft(m.current)
			m.Overview.SetDraft(hasDraft)
		} else if !m.InputModal.IsVisible() {
			m.editing = nil
		}
		return true, m, cmd

	case m.SearchModal.IsVisible():
		var cmd tea.Cmd
		var req *domain.CaseSearchRequest
		m.SearchModal, cmd, req = m.SearchModal.Update(msg)
		if req != nil {
			m.search = *req
			reqs := m.cases.Reset()
			m.CaseList.SetFilter(m.search.Filter)
			m.syncCaseList()
			return true, m, tea.Batch(cmd, FetchCasesCmd(m.Svc, m.search, reqs))
		}
		return true, m, cmd

	case m.SortModal.IsVisible():
		_, sel := m.SortModal.HandleKey(msg.String())
		if sel != nil {
			m.comments.SetSortAscending(sel.Ascending())
			m.syncCommentList()
		}
		return true, m, nil

	case m.PickerModal.IsVisible():
		_, chosen := m.PickerModal.HandleKeyMsg(msg)
		if chosen == nil {
			return true, m, nil
		}
		newModel, cmd := m.pick(*chosen)
		return true, newModel, cmd

	case m.ConfirmModal.IsVisible():
		_, confirmed := m.ConfirmModal.HandleKeyMsg(msg)
		if m.ConfirmModal.IsVisible() {
			return true, m, nil
		}
		action := m.confirm
		m.confirm = confirmNone
		if !confirmed {
			return true, m, nil
		}
		newModel, cmd := m.runConfirmed(action)
		return true, newModel, cmd
	}

	return false, m, nil
}

// submitComment validates the input and issues the add or update mutation.
// Blank text keeps the modal open with an inline error.
func (m Model) submitComment(text string) (tea.Model, tea.Cmd) {
	if err := casemgmt.ValidateComment(text); err != nil {
		m.InputModal.SetError(err)
		return m, nil
	}
	m.InputModal.Hide()

	if m.editing == nil {
		mut := m.comments.Begin(listing.ActionAdd, domain.CaseComment{Text: text})
		return m, AddCommentCmd(m.Svc, m.current, mut)
	}

	updated := *m.editing
	updated.Text = text
	m.editing = nil
	mut := m.comments.Begin(listing.ActionUpdate, updated)
	return m, UpdateCommentCmd(m.Svc, m.current, mut)
}

func (m Model) runConfirmed(action confirmAction) (tea.Model, tea.Cmd) {
	switch action {
	case confirmCancelCase:
		mut := m.cases.Begin(listing.ActionClose, m.confirmCase)
		return m, CancelCaseCmd(m.Svc, mut)
	case confirmDestroyCase:
		mut := m.cases.Begin(listing.ActionClose, m.confirmCase)
		return m, DestroyCaseCmd(m.Svc, mut)
	case confirmDeleteComment:
		mut := m.comments.Begin(listing.ActionDelete, m.confirmComment)
		return m, RemoveCommentCmd(m.Svc, m.current, mut)
	}
	return m, nil
}

func (m Model) pick(item components.PickerItem) (tea.Model, tea.Cmd) {
	switch m.picker {
	case pickDefinition:
		for _, def := range m.definitions {
			if def.ID != item.ID {
				continue
			}
			mut := m.cases.Begin(listing.ActionAdd, domain.CaseInstance{ContainerID: def.ContainerID, DefinitionID: def.ID})
			m.StatusMsg = "Starting " + def.DisplayName() + "..."
			m.StatusIsErr = false
			return m, StartCaseCmd(m.Svc, def, mut)
		}
	case pickRecent:
		for _, r := range m.Svc.Recent() {
			if r.Ref.String() == item.ID {
				m.pendingOpen = r.Ref
				return m, LoadCaseCmd(m.Svc, r.Ref)
			}
		}
	}
	return m, nil
}

func (m Model) showRecent() (tea.Model, tea.Cmd) {
	now := time.Now()
	recent := m.Svc.Recent()
	items := make([]components.PickerItem, len(recent))
	for i, r := range recent {
		items[i] = components.PickerItem{
			ID:     r.Ref.String(),
			Label:  r.Title,
			Detail: components.RelativeTime(r.VisitedAt, now),
		}
	}
	m.picker = pickRecent
	m.PickerModal.SetSize(m.Width, m.Height)
	m.PickerModal.Show("Recent cases", "No recently opened cases", items)
	return m, nil
}

func (m Model) openInBrowser() (tea.Model, tea.Cmd) {
	if m.opts.Opener == nil || m.opts.CaseURL == nil {
		return m, nil
	}
	ref := m.current
	if m.Focus == PaneCases {
		if ci, ok := m.CaseList.Selected(); ok {
			ref = ci.Ref()
		}
	}
	if ref.IsZero() {
		return m.setError(ErrMsg{Err: domain.ErrNoCaseSelected})
	}
	return m, OpenCaseCmd(m.opts.Opener, m.opts.CaseURL(ref), ref)
}

func (m Model) refreshFocused() (tea.Model, tea.Cmd) {
	if m.Focus == PaneComments && !m.current.IsZero() {
		reqs := m.comments.Refresh()
		m.syncCommentList()
		return m, tea.Batch(FetchCommentsCmd(m.Svc, m.current, reqs), LoadCaseCmd(m.Svc, m.current))
	}
	reqs := m.cases.Refresh()
	m.syncCaseList()
	return m, FetchCasesCmd(m.Svc, m.search, reqs)
}

func (m Model) loadMoreFocused() (tea.Model, tea.Cmd) {
	if m.Focus == PaneComments {
		return m, m.loadMoreComments()
	}
	if !m.cases.LoadMoreVisible() {
		return m, nil
	}
	reqs := m.cases.LoadMore()
	m.syncCaseList()
	return m, FetchCasesCmd(m.Svc, m.search, reqs)
}
