package api

import (
	"encoding/json"
	"time"
)

// ProjectSummary is the list-view shape of a project.
type ProjectSummary struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Status        string    `json:"status"`
	RevisionState string    `json:"revisionState,omitempty"`
	ErrorMessage  string    `json:"errorMessage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ProjectDetail adds counts and the raw document to a summary.
type ProjectDetail struct {
	ProjectSummary
	Characters int             `json:"characters"`
	Locations  int             `json:"locations"`
	Items      int             `json:"items"`
	Scenes     int             `json:"scenes"`
	Shots      int             `json:"shots"`
	Questions  []QuestionView  `json:"questions,omitempty"`
	Document   json.RawMessage `json:"document,omitempty"`
}

// QuestionView is one pending clarification question.
type QuestionView struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// ProjectListResponse wraps the project list endpoint payload.
type ProjectListResponse struct {
	Projects []ProjectSummary `json:"projects"`
}

// ProjectResponse wraps a single project payload.
type ProjectResponse struct {
	Project ProjectDetail `json:"project"`
}

// StatusResponse reports aggregate store health.
type StatusResponse struct {
	DBPath     string `json:"dbPath"`
	Total      int    `json:"total"`
	Draft      int    `json:"draft"`
	Generating int    `json:"generating"`
	Ready      int    `json:"ready"`
	Stale      int    `json:"stale"`
	Failed     int    `json:"failed"`
}

// RegenerateResponse reports where a regeneration trigger landed.
type RegenerateResponse struct {
	State     string         `json:"state"`
	Questions []QuestionView `json:"questions,omitempty"`
}

// AnswersRequest carries clarification answers keyed by question id.
type AnswersRequest struct {
	Answers map[string]string `json:"answers"`
}

// ProgressEvent is one stage lifecycle event streamed over the websocket.
type ProgressEvent struct {
	Type      string    `json:"type"`
	Stage     string    `json:"stage"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
