package casemgmt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/casedesk/internal/domain"
)

// maxRecent is how many visited cases are remembered
const maxRecent = 10

// Service provides the network operations behind the case and comment lists.
// Comment text that fails to send is kept as a draft in the store.
type Service struct {
	source   domain.CaseSource
	store    domain.Store
	identity domain.Identity
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new case management service.
func NewService(source domain.CaseSource, store domain.Store, identity domain.Identity, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source:   source,
		store:    store,
		identity: identity,
		logger:   logger,
		now:      time.Now,
	}
}

// User returns the id changes are attributed to
func (s *Service) User() string {
	return s.identity.UserID()
}

// === Cases ===

func (s *Service) FetchCases(ctx context.Context, req domain.CaseSearchRequest, page, size int) ([]domain.CaseInstance, error) {
	cases, err := s.source.GetCaseInstances(ctx, req, page, size)
	if err != nil {
		s.logger.Error("failed to fetch cases", "error", err, "page", page)
		return nil, err
	}
	s.logger.Debug("fetched cases", "page", page, "count", len(cases))
	return cases, nil
}

func (s *Service) FetchCase(ctx context.Context, ref domain.CaseRef) (*domain.CaseInstance, error) {
	ci, err := s.source.GetCaseInstance(ctx, ref)
	if err != nil {
		s.logger.Error("failed to fetch case", "error", err, "case", ref.String())
		return nil, err
	}
	return ci, nil
}

func (s *Service) FetchDefinitions(ctx context.Context) ([]domain.CaseDefinition, error) {
	defs, err := s.source.GetCaseDefinitions(ctx)
	if err != nil {
		s.logger.Error("failed to fetch case definitions", "error", err)
		return nil, err
	}
	return defs, nil
}

// StartCase starts a case owned by the current user
func (s *Service) StartCase(ctx context.Context, def domain.CaseDefinition) (domain.CaseRef, error) {
	caseID, err := s.source.StartCase(ctx, def, s.User())
	if err != nil {
		s.logger.Error("failed to start case", "error", err, "definition", def.ID)
		return domain.CaseRef{}, err
	}
	s.logger.Info("started case", "case", caseID, "definition", def.ID)
	return domain.CaseRef{ContainerID: def.ContainerID, CaseID: caseID}, nil
}

func (s *Service) CancelCase(ctx context.Context, ref domain.CaseRef) error {
	if err := s.source.CancelCase(ctx, ref); err != nil {
		s.logger.Error("failed to cancel case", "error", err, "case", ref.String())
		return err
	}
	s.logger.Info("cancelled case", "case", ref.String())
	return nil
}

// DestroyCase removes the case on the server and forgets it locally
func (s *Service) DestroyCase(ctx context.Context, ref domain.CaseRef) error {
	if err := s.source.DestroyCase(ctx, ref); err != nil {
		s.logger.Error("failed to destroy case", "error", err, "case", ref.String())
		return err
	}
	s.store.DeleteDraft(ref)
	s.forget(ref)
	s.logger.Info("destroyed case", "case", ref.String())
	return nil
}

// === Comments ===

func (s *Service) FetchComments(ctx context.Context, ref domain.CaseRef, page, size int) ([]domain.CaseComment, error) {
	if ref.IsZero() {
		return nil, domain.ErrNoCaseSelected
	}
	comments, err := s.source.GetComments(ctx, ref, page, size)
	if err != nil {
		s.logger.Error("failed to fetch comments", "error", err, "case", ref.String(), "page", page)
		return nil, err
	}
	s.logger.Debug("fetched comments", "case", ref.String(), "page", page, "count", len(comments))
	return comments, nil
}

// ValidateComment rejects blank comment text before any request is made
func ValidateComment(text string) error {
	if strings.TrimSpace(text) == "" {
		return domain.ErrEmptyComment
	}
	return nil
}

// AddComment adds a comment as the current user. On failure the text is kept
// as the case's draft; on success any draft is cleared.
func (s *Service) AddComment(ctx context.Context, ref domain.CaseRef, text string) (domain.CaseComment, error) {
	if ref.IsZero() {
		return domain.CaseComment{}, domain.ErrNoCaseSelected
	}
	if err := ValidateComment(text); err != nil {
		return domain.CaseComment{}, err
	}

	author := s.User()
	id, err := s.source.AddComment(ctx, ref, author, text)
	if err != nil {
		s.logger.Error("failed to add comment", "error", err, "case", ref.String())
		if serr := s.store.SaveDraft(ref, text); serr != nil {
			s.logger.Error("failed to save draft", "error", serr, "case", ref.String())
		}
		return domain.CaseComment{}, err
	}

	s.store.DeleteDraft(ref)
	s.logger.Info("added comment", "case", ref.String(), "comment", id)
	return domain.CaseComment{ID: id, Author: author, Text: text, AddedAt: s.now()}, nil
}

func (s *Service) UpdateComment(ctx context.Context, ref domain.CaseRef, comment domain.CaseComment) (domain.CaseComment, error) {
	if ref.IsZero() {
		return domain.CaseComment{}, domain.ErrNoCaseSelected
	}
	if err := ValidateComment(comment.Text); err != nil {
		return domain.CaseComment{}, err
	}

	comment.Author = s.User()
	if err := s.source.UpdateComment(ctx, ref, comment.ID, comment.Author, comment.Text); err != nil {
		s.logger.Error("failed to update comment", "error", err, "case", ref.String(), "comment", comment.ID)
		return domain.CaseComment{}, err
	}
	s.logger.Info("updated comment", "case", ref.String(), "comment", comment.ID)
	return comment, nil
}

func (s *Service) RemoveComment(ctx context.Context, ref domain.CaseRef, commentID string) error {
	if ref.IsZero() {
		return domain.ErrNoCaseSelected
	}
	if err := s.source.RemoveComment(ctx, ref, commentID); err != nil {
		s.logger.Error("failed to remove comment", "error", err, "case", ref.String(), "comment", commentID)
		return fmt.Errorf("remove comment: %w", err)
	}
	s.logger.Info("removed comment", "case", ref.String(), "comment", commentID)
	return nil
}

// === Local state ===

// Draft returns unsent comment text for a case
func (s *Service) Draft(ref domain.CaseRef) (string, bool) {
	return s.store.GetDraft(ref)
}

// SaveDraft keeps unsent comment text for a case; blank text clears it
func (s *Service) SaveDraft(ref domain.CaseRef, text string) error {
	if strings.TrimSpace(text) == "" {
		s.store.DeleteDraft(ref)
		return nil
	}
	return s.store.SaveDraft(ref, text)
}

// Visit records navigation to a case, most recent first
func (s *Service) Visit(ci domain.CaseInstance) {
	ref := ci.Ref()
	recent, _ := s.store.GetRecent()

	updated := make([]domain.RecentCase, 0, maxRecent)
	updated = append(updated, domain.RecentCase{Ref: ref, Title: ci.Title(), VisitedAt: s.now()})
	for _, r := range recent {
		if r.Ref == ref {
			continue
		}
		if len(updated) == maxRecent {
			break
		}
		updated = append(updated, r)
	}

	if err := s.store.SaveRecent(updated); err != nil {
		s.logger.Error("failed to save recent cases", "error", err)
	}
}

// Recent returns recently visited cases, most recent first
func (s *Service) Recent() []domain.RecentCase {
	recent, _ := s.store.GetRecent()
	return recent
}

func (s *Service) forget(ref domain.CaseRef) {
	recent, ok := s.store.GetRecent()
	if !ok {
		return
	}
	kept := recent[:0]
	for _, r := range recent {
		if r.Ref != ref {
			kept = append(kept, r)
		}
	}
	if err := s.store.SaveRecent(kept); err != nil {
		s.logger.Error("failed to save recent cases", "error", err)
	}
}
