package domain

import (
	"context"
)

// CaseRepository provides access to case instances and definitions
type CaseRepository interface {
	// GetCaseInstances returns one page of cases matching req
	GetCaseInstances(ctx context.Context, req CaseSearchRequest, page, pageSize int) ([]CaseInstance, error)

	// GetCaseInstance returns a single case
	GetCaseInstance(ctx context.Context, ref CaseRef) (*CaseInstance, error)

	// GetCaseDefinitions returns the case types that can be started
	GetCaseDefinitions(ctx context.Context) ([]CaseDefinition, error)

	// StartCase starts a case from a definition and returns the new case id
	StartCase(ctx context.Context, def CaseDefinition, owner string) (string, error)

	// CancelCase cancels an open case, keeping its history
	CancelCase(ctx context.Context, ref CaseRef) error

	// DestroyCase cancels a case and removes its data
	DestroyCase(ctx context.Context, ref CaseRef) error
}

// CommentRepository provides access to case comments
type CommentRepository interface {
	// GetComments returns one page of comments of a case
	GetComments(ctx context.Context, ref CaseRef, page, pageSize int) ([]CaseComment, error)

	// AddComment adds a comment and returns its id
	AddComment(ctx context.Context, ref CaseRef, author, text string) (string, error)

	// UpdateComment replaces the text of a comment
	UpdateComment(ctx context.Context, ref CaseRef, commentID, author, text string) error

	// RemoveComment deletes a comment
	RemoveComment(ctx context.Context, ref CaseRef, commentID string) error
}

// CaseSource combines the repositories an execution server backend implements
type CaseSource interface {
	CaseRepository
	CommentRepository
}

// Identity supplies the current user for attributing changes
type Identity interface {
	UserID() string
}

// StaticIdentity is an Identity with a fixed user id
type StaticIdentity string

// UserID returns the user id
func (s StaticIdentity) UserID() string { return string(s) }
