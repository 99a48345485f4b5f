package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/casedesk/internal/casemgmt"
	"github.com/mmcdole/casedesk/internal/domain"
	"github.com/mmcdole/casedesk/internal/listing"
)

const requestTimeout = 30 * time.Second

// Command factories for async operations

// FetchCasesCmd issues the case list requests returned by the controller.
// Each completion is delivered as its own CasesPageMsg.
func FetchCasesCmd(svc *casemgmt.Service, search domain.CaseSearchRequest, reqs []listing.Request) tea.Cmd {
	cmds := make([]tea.Cmd, len(reqs))
	for i, req := range reqs {
		cmds[i] = func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()

			items, err := svc.FetchCases(ctx, search, req.Page, req.PageSize)
			return CasesPageMsg{Result: listing.Result[domain.CaseInstance]{Request: req, Items: items, Err: err}}
		}
	}
	return tea.Batch(cmds...)
}

// FetchCommentsCmd issues the comment list requests for a case
func FetchCommentsCmd(svc *casemgmt.Service, ref domain.CaseRef, reqs []listing.Request) tea.Cmd {
	cmds := make([]tea.Cmd, len(reqs))
	for i, req := range reqs {
		cmds[i] = func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()

			items, err := svc.FetchComments(ctx, ref, req.Page, req.PageSize)
			return CommentsPageMsg{Ref: ref, Result: listing.Result[domain.CaseComment]{Request: req, Items: items, Err: err}}
		}
	}
	return tea.Batch(cmds...)
}

// LoadCaseCmd fetches the latest state of one case
func LoadCaseCmd(svc *casemgmt.Service, ref domain.CaseRef) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		ci, err := svc.FetchCase(ctx, ref)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading case"}
		}
		return CaseLoadedMsg{Case: ci}
	}
}

// LoadDefinitionsCmd loads the case definitions that can be started
func LoadDefinitionsCmd(svc *casemgmt.Service) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		defs, err := svc.FetchDefinitions(ctx)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading case definitions"}
		}
		return DefinitionsLoadedMsg{Definitions: defs}
	}
}

// StartCaseCmd starts a new case from a definition as an add mutation
func StartCaseCmd(svc *casemgmt.Service, def domain.CaseDefinition, mut listing.Mutation[domain.CaseInstance]) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		ref, err := svc.StartCase(ctx, def)
		return CaseCreatedMsg{Mutation: mut, Ref: ref, Err: err}
	}
}

// CancelCaseCmd cancels the case behind a close mutation
func CancelCaseCmd(svc *casemgmt.Service, mut listing.Mutation[domain.CaseInstance]) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		err := svc.CancelCase(ctx, mut.Item.Ref())
		return CaseMutatedMsg{Mutation: mut, Err: err}
	}
}

// DestroyCaseCmd destroys the case behind a close mutation
func DestroyCaseCmd(svc *casemgmt.Service, mut listing.Mutation[domain.CaseInstance]) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		err := svc.DestroyCase(ctx, mut.Item.Ref())
		return CaseMutatedMsg{Mutation: mut, Destroyed: true, Err: err}
	}
}

// AddCommentCmd adds the comment behind an add mutation
func AddCommentCmd(svc *casemgmt.Service, ref domain.CaseRef, mut listing.Mutation[domain.CaseComment]) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		c, err := svc.AddComment(ctx, ref, mut.Item.Text)
		if err == nil {
			mut.Item = c
		}
		return CommentMutatedMsg{Ref: ref, Mutation: mut, Err: err}
	}
}

// UpdateCommentCmd saves the comment behind an update mutation
func UpdateCommentCmd(svc *casemgmt.Service, ref domain.CaseRef, mut listing.Mutation[domain.CaseComment]) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		c, err := svc.UpdateComment(ctx, ref, mut.Item)
		if err == nil {
			mut.Item = c
		}
		return CommentMutatedMsg{Ref: ref, Mutation: mut, Err: err}
	}
}

// RemoveCommentCmd removes the comment behind a delete mutation
func RemoveCommentCmd(svc *casemgmt.Service, ref domain.CaseRef, mut listing.Mutation[domain.CaseComment]) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		err := svc.RemoveComment(ctx, ref, mut.ID)
		return CommentMutatedMsg{Ref: ref, Mutation: mut, Err: err}
	}
}

// OpenCaseCmd opens a case in the web console
func OpenCaseCmd(opener Opener, url string, ref domain.CaseRef) tea.Cmd {
	return func() tea.Msg {
		if err := opener.Open(url); err != nil {
			return ErrMsg{Err: err, Context: "opening browser"}
		}
		return CaseOpenedMsg{Ref: ref}
	}
}

// TickCmd returns a command that sends a tick after a delay
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
