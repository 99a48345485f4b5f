package kieserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// CaseInstancesResponse is the payload of the case instance queries
type CaseInstancesResponse struct {
	Instances []CaseInstance `json:"instances"`
}

// CaseInstance is a case instance as returned by the server
type CaseInstance struct {
	CaseID            string  `json:"case-id"`
	Description       string  `json:"case-description"`
	Owner             string  `json:"case-owner"`
	Status            int     `json:"case-status"` // 1 open, 2 closed, 3 cancelled
	DefinitionID      string  `json:"case-definition-id"`
	ContainerID       string  `json:"container-id"`
	StartedAt         kieTime `json:"case-started-at"`
	CompletedAt       kieTime `json:"case-completed-at"`
	CompletionMessage string  `json:"case-completion-msg,omitempty"`
}

// CaseDefinitionsResponse is the payload of the case definition query
type CaseDefinitionsResponse struct {
	Definitions []CaseDefinition `json:"definitions"`
}

// CaseDefinition is a deployable case type
type CaseDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	ContainerID string `json:"container-id"`
}

// CaseCommentsResponse is the payload of the comment query
type CaseCommentsResponse struct {
	Comments []CaseComment `json:"comments"`
}

// CaseComment is a comment as returned by the server
type CaseComment struct {
	ID      string  `json:"id"`
	Author  string  `json:"author"`
	Text    string  `json:"text"`
	AddedAt kieTime `json:"added-at"`
}

// StartCaseRequest is the body of a case start
type StartCaseRequest struct {
	Data             map[string]any    `json:"case-data"`
	UserAssignments  map[string]string `json:"case-user-assignments"`
	GroupAssignments map[string]string `json:"case-group-assignments"`
}

// ServerInfoResponse is the envelope of the server info endpoint
type ServerInfoResponse struct {
	Type   string `json:"type"`
	Msg    string `json:"msg"`
	Result struct {
		Info ServerInfo `json:"kie-server-info"`
	} `json:"result"`
}

// ServerInfo describes the execution server
type ServerInfo struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Capabilities []string `json:"capabilities"`
}

// kieTime decodes the server's date shapes: {"java.util.Date": ms},
// a bare millisecond number, or null
type kieTime struct {
	time.Time
}

func (t *kieTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	var ms int64
	if data[0] == '{' {
		var wrapped map[string]int64
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return fmt.Errorf("decode date: %w", err)
		}
		v, ok := wrapped["java.util.Date"]
		if !ok {
			return fmt.Errorf("decode date: unexpected shape %s", data)
		}
		ms = v
	} else if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("decode date: %w", err)
	}

	t.Time = time.UnixMilli(ms)
	return nil
}

func (t kieTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(map[string]int64{"java.util.Date": t.UnixMilli()})
}
