package kieserver

import (
	"github.com/mmcdole/casedesk/internal/domain"
)

// Server status codes
const (
	statusOpen      = 1
	statusClosed    = 2
	statusCancelled = 3
)

// MapCaseInstances converts server case instances to domain cases
func MapCaseInstances(items []CaseInstance) []domain.CaseInstance {
	cases := make([]domain.CaseInstance, 0, len(items))
	for _, item := range items {
		cases = append(cases, mapCaseInstance(item))
	}
	return cases
}

func mapCaseInstance(item CaseInstance) domain.CaseInstance {
	return domain.CaseInstance{
		ID:                item.CaseID,
		ContainerID:       item.ContainerID,
		DefinitionID:      item.DefinitionID,
		Description:       item.Description,
		Owner:             item.Owner,
		Status:            mapStatus(item.Status),
		StartedAt:         item.StartedAt.Time,
		CompletedAt:       item.CompletedAt.Time,
		CompletionMessage: item.CompletionMessage,
	}
}

func mapStatus(status int) domain.CaseStatus {
	switch status {
	case statusOpen:
		return domain.CaseStatusOpen
	case statusClosed:
		return domain.CaseStatusClosed
	case statusCancelled:
		return domain.CaseStatusCancelled
	default:
		return 0
	}
}

// statusParam converts a domain status to the query parameter the server expects
func statusParam(status domain.CaseStatus) string {
	switch status {
	case domain.CaseStatusOpen:
		return "open"
	case domain.CaseStatusClosed:
		return "closed"
	case domain.CaseStatusCancelled:
		return "cancelled"
	default:
		return ""
	}
}

// MapComments converts server comments to domain comments
func MapComments(items []CaseComment) []domain.CaseComment {
	comments := make([]domain.CaseComment, 0, len(items))
	for _, item := range items {
		comments = append(comments, domain.CaseComment{
			ID:      item.ID,
			Author:  item.Author,
			Text:    item.Text,
			AddedAt: item.AddedAt.Time,
		})
	}
	return comments
}

// MapDefinitions converts server case definitions to domain definitions
func MapDefinitions(items []CaseDefinition) []domain.CaseDefinition {
	defs := make([]domain.CaseDefinition, 0, len(items))
	for _, item := range items {
		defs = append(defs, domain.CaseDefinition{
			ID:          item.ID,
			Name:        item.Name,
			ContainerID: item.ContainerID,
			Version:     item.Version,
		})
	}
	return defs
}
