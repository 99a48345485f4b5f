package casemgmt

import (
	"context"
	"time"

	"github.com/mmcdole/casedesk/internal/domain"
	"github.com/mmcdole/casedesk/internal/listing"
)

// NewCaseList builds the controller behind the case list. Cases are kept in
// server order; the search request decides sorting.
func NewCaseList(fetchSize int) *listing.Controller[domain.CaseInstance] {
	return listing.NewController(listing.Config[domain.CaseInstance]{
		Name:     "cases",
		PageSize: fetchSize,
		Key:      caseKey,
	})
}

// NewCommentList builds the controller behind a case's comments, newest
// first. Its page counter starts at 1 and doubles as the display page of the
// comment window.
func NewCommentList(fetchSize int) *listing.Controller[domain.CaseComment] {
	return listing.NewController(listing.Config[domain.CaseComment]{
		Name:        "comments",
		PageSize:    fetchSize,
		InitialPage: 1,
		Key:         func(c domain.CaseComment) string { return c.ID },
		Timestamp:   func(c domain.CaseComment) time.Time { return c.AddedAt },
	})
}

// caseKey identifies a case across containers
func caseKey(c domain.CaseInstance) string {
	return c.Ref().String()
}

// CaseFetcher adapts FetchCases to a list fetcher. search is read on every
// fetch so a changed request applies to the next page.
func (s *Service) CaseFetcher(search func() domain.CaseSearchRequest) listing.FetchFunc[domain.CaseInstance] {
	return func(ctx context.Context, page, size int) ([]domain.CaseInstance, error) {
		return s.FetchCases(ctx, search(), page, size)
	}
}

// CommentFetcher adapts FetchComments for one case to a list fetcher
func (s *Service) CommentFetcher(ref domain.CaseRef) listing.FetchFunc[domain.CaseComment] {
	return func(ctx context.Context, page, size int) ([]domain.CaseComment, error) {
		return s.FetchComments(ctx, ref, page, size)
	}
}
