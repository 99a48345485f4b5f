package tui

import (
	"github.com/mmcdole/casedesk/internal/domain"
	"github.com/mmcdole/casedesk/internal/listing"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// CasesPageMsg carries the completion of a case list request
type CasesPageMsg struct {
	Result listing.Result[domain.CaseInstance]
}

// CommentsPageMsg carries the completion of a comment list request for a case
type CommentsPageMsg struct {
	Ref    domain.CaseRef
	Result listing.Result[domain.CaseComment]
}

// CaseMutatedMsg signals that a case mutation finished
type CaseMutatedMsg struct {
	Mutation  listing.Mutation[domain.CaseInstance]
	Destroyed bool
	Err       error
}

// CommentMutatedMsg signals that a comment mutation finished
type CommentMutatedMsg struct {
	Ref      domain.CaseRef
	Mutation listing.Mutation[domain.CaseComment]
	Err      error
}

// CaseCreatedMsg signals that a new case was started
type CaseCreatedMsg struct {
	Mutation listing.Mutation[domain.CaseInstance]
	Ref      domain.CaseRef
	Err      error
}

// CaseLoadedMsg carries a freshly fetched case for the overview
type CaseLoadedMsg struct {
	Case *domain.CaseInstance
}

// DefinitionsLoadedMsg carries the startable case definitions
type DefinitionsLoadedMsg struct {
	Definitions []domain.CaseDefinition
}

// CaseOpenedMsg signals the case URL was handed to the browser
type CaseOpenedMsg struct {
	Ref domain.CaseRef
}

// TickMsg is a general tick message for animations
type TickMsg struct{}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}
