package domain

import (
	"fmt"
	"strings"
	"time"
)

// CaseStatus is the lifecycle state of a case instance
type CaseStatus int

const (
	CaseStatusOpen CaseStatus = iota + 1
	CaseStatusClosed
	CaseStatusCancelled
)

// String returns a human-readable representation of the status
func (s CaseStatus) String() string {
	switch s {
	case CaseStatusOpen:
		return "Open"
	case CaseStatusClosed:
		return "Closed"
	case CaseStatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// ParseCaseStatus converts a status name ("open", "closed", "cancelled") to a CaseStatus
func ParseCaseStatus(s string) (CaseStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open":
		return CaseStatusOpen, nil
	case "closed":
		return CaseStatusClosed, nil
	case "cancelled", "canceled":
		return CaseStatusCancelled, nil
	default:
		return 0, fmt.Errorf("unknown case status %q", s)
	}
}

// CaseInstance is a running or finished case
type CaseInstance struct {
	ID                string     // Case identifier, e.g. "IT-0000000001"
	ContainerID       string     // Deployment unit the case belongs to
	DefinitionID      string     // Case definition the case was started from
	Description       string     // Free text description
	Owner             string     // User that owns the case
	Status            CaseStatus // Open, closed or cancelled
	StartedAt         time.Time  // When the case was started
	CompletedAt       time.Time  // Zero while the case is open
	CompletionMessage string     // Set when the case is closed
}

// Ref returns the navigation key of the case
func (c CaseInstance) Ref() CaseRef {
	return CaseRef{ContainerID: c.ContainerID, CaseID: c.ID}
}

// IsActive returns true while the case can still be cancelled
func (c CaseInstance) IsActive() bool {
	return c.Status == CaseStatusOpen
}

// Title returns the description, falling back to the case id
func (c CaseInstance) Title() string {
	if c.Description != "" {
		return c.Description
	}
	return c.ID
}

// CaseComment is a note attached to a case
type CaseComment struct {
	ID      string    // Comment identifier, unique within the case
	Author  string    // User that added or last edited the comment
	Text    string    // Comment body
	AddedAt time.Time // When the comment was added
}

// CaseDefinition describes a case type that can be started
type CaseDefinition struct {
	ID          string
	Name        string
	ContainerID string
	Version     string
}

// DisplayName returns the definition name, falling back to its id
func (d CaseDefinition) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

// CaseRef identifies a case across containers
type CaseRef struct {
	ContainerID string `json:"container_id"`
	CaseID      string `json:"case_id"`
}

// IsZero returns true if no case is referenced
func (r CaseRef) IsZero() bool {
	return r.ContainerID == "" && r.CaseID == ""
}

// String returns "container/case"
func (r CaseRef) String() string {
	return r.ContainerID + "/" + r.CaseID
}

// CaseSearchRequest is the search the case list sends with every fetch.
// Filter is never part of a paged request: it is matched over the
// accumulated list, so pages and lookahead probes see the unfiltered result.
type CaseSearchRequest struct {
	Status    CaseStatus // Zero means any status
	Filter    string     // Free text matched against case id and description
	SortBy    string     // Server sort column, empty for server default
	Ascending bool
}

// Matches reports whether ci passes the free text filter
func (r CaseSearchRequest) Matches(ci CaseInstance) bool {
	if r.Filter == "" {
		return true
	}
	filter := strings.ToLower(r.Filter)
	return strings.Contains(strings.ToLower(ci.ID), filter) ||
		strings.Contains(strings.ToLower(ci.Description), filter)
}

// DefaultCaseSearchRequest lists open cases, newest first
func DefaultCaseSearchRequest() CaseSearchRequest {
	return CaseSearchRequest{Status: CaseStatusOpen, SortBy: "CorrelationKey"}
}

// RecentCase is a case the user navigated to
type RecentCase struct {
	Ref       CaseRef   `json:"ref"`
	Title     string    `json:"title"`
	VisitedAt time.Time `json:"visited_at"`
}
