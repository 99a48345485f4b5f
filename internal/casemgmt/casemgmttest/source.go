// Package casemgmttest provides an in-memory case source for tests.
package casemgmttest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mmcdole/casedesk/internal/domain"
)

// Source is an in-memory domain.CaseSource. Cases and comments are served in
// insertion order; Fail makes every call return the given error.
type Source struct {
	mu          sync.Mutex
	cases       []domain.CaseInstance
	comments    map[domain.CaseRef][]domain.CaseComment
	definitions []domain.CaseDefinition
	nextID      int
	fail        error
	calls       []string
}

var _ domain.CaseSource = (*Source)(nil)

// NewSource returns an empty source
func NewSource() *Source {
	return &Source{comments: make(map[domain.CaseRef][]domain.CaseComment)}
}

// AddCases appends cases
func (s *Source) AddCases(cases ...domain.CaseInstance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases = append(s.cases, cases...)
}

// AddComments appends comments to a case
func (s *Source) AddComments(ref domain.CaseRef, comments ...domain.CaseComment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[ref] = append(s.comments[ref], comments...)
}

// AddDefinitions appends startable definitions
func (s *Source) AddDefinitions(defs ...domain.CaseDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.definitions = append(s.definitions, defs...)
}

// Fail makes subsequent calls return err; nil restores normal behavior
func (s *Source) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

// Calls returns the names of the calls made so far
func (s *Source) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// Comments returns the stored comments of a case
func (s *Source) Comments(ref domain.CaseRef) []domain.CaseComment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CaseComment(nil), s.comments[ref]...)
}

func (s *Source) record(format string, args ...any) error {
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
	return s.fail
}

func page[T any](items []T, page, size int) []T {
	start := page * size
	if start >= len(items) || size <= 0 {
		return nil
	}
	end := min(start+size, len(items))
	return append([]T(nil), items[start:end]...)
}

func (s *Source) GetCaseInstances(ctx context.Context, req domain.CaseSearchRequest, p, size int) ([]domain.CaseInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("GetCaseInstances %d", p); err != nil {
		return nil, err
	}
	var matched []domain.CaseInstance
	for _, c := range s.cases {
		if req.Status != 0 && c.Status != req.Status {
			continue
		}
		matched = append(matched, c)
	}
	return page(matched, p, size), nil
}

func (s *Source) GetCaseInstance(ctx context.Context, ref domain.CaseRef) (*domain.CaseInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("GetCaseInstance %s", ref); err != nil {
		return nil, err
	}
	for _, c := range s.cases {
		if c.Ref() == ref {
			out := c
			return &out, nil
		}
	}
	return nil, domain.ErrCaseNotFound
}

func (s *Source) GetCaseDefinitions(ctx context.Context) ([]domain.CaseDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("GetCaseDefinitions"); err != nil {
		return nil, err
	}
	return append([]domain.CaseDefinition(nil), s.definitions...), nil
}

func (s *Source) StartCase(ctx context.Context, def domain.CaseDefinition, owner string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("StartCase %s", def.ID); err != nil {
		return "", err
	}
	s.nextID++
	id := fmt.Sprintf("NEW-%d", s.nextID)
	s.cases = append(s.cases, domain.CaseInstance{
		ID:           id,
		ContainerID:  def.ContainerID,
		DefinitionID: def.ID,
		Owner:        owner,
		Status:       domain.CaseStatusOpen,
		StartedAt:    time.Now(),
	})
	return id, nil
}

func (s *Source) setStatus(ref domain.CaseRef, status domain.CaseStatus, remove bool) error {
	for i, c := range s.cases {
		if c.Ref() != ref {
			continue
		}
		if remove {
			s.cases = append(s.cases[:i:i], s.cases[i+1:]...)
			delete(s.comments, ref)
		} else {
			s.cases[i].Status = status
		}
		return nil
	}
	return domain.ErrCaseNotFound
}

func (s *Source) CancelCase(ctx context.Context, ref domain.CaseRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("CancelCase %s", ref); err != nil {
		return err
	}
	return s.setStatus(ref, domain.CaseStatusCancelled, false)
}

func (s *Source) DestroyCase(ctx context.Context, ref domain.CaseRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("DestroyCase %s", ref); err != nil {
		return err
	}
	return s.setStatus(ref, domain.CaseStatusCancelled, true)
}

func (s *Source) GetComments(ctx context.Context, ref domain.CaseRef, p, size int) ([]domain.CaseComment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("GetComments %s %d", ref, p); err != nil {
		return nil, err
	}
	return page(s.comments[ref], p, size), nil
}

func (s *Source) AddComment(ctx context.Context, ref domain.CaseRef, author, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("AddComment %s", ref); err != nil {
		return "", err
	}
	s.nextID++
	id := fmt.Sprintf("c%d", s.nextID)
	s.comments[ref] = append(s.comments[ref], domain.CaseComment{ID: id, Author: author, Text: text, AddedAt: time.Now()})
	return id, nil
}

func (s *Source) UpdateComment(ctx context.Context, ref domain.CaseRef, commentID, author, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("UpdateComment %s %s", ref, commentID); err != nil {
		return err
	}
	for i, c := range s.comments[ref] {
		if c.ID == commentID {
			s.comments[ref][i].Author = author
			s.comments[ref][i].Text = text
			return nil
		}
	}
	return domain.ErrCaseNotFound
}

func (s *Source) RemoveComment(ctx context.Context, ref domain.CaseRef, commentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record("RemoveComment %s %s", ref, commentID); err != nil {
		return err
	}
	comments := s.comments[ref]
	for i, c := range comments {
		if c.ID == commentID {
			s.comments[ref] = append(comments[:i:i], comments[i+1:]...)
			return nil
		}
	}
	return domain.ErrCaseNotFound
}
