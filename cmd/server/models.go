package main

import (
	"encoding/json"
	"time"

	"github.com/liamcoop/spinecheck/assessment"
	"github.com/liamcoop/spinecheck/report"
	"github.com/liamcoop/spinecheck/scoring"
)

// API request and response models

// AssessResponse is the result of scoring a response.
// Breakdown is only filled when ?explain=true is passed.
type AssessResponse struct {
	report.Report
	Breakdown []scoring.Breakdown `json:"breakdown,omitempty"`
}

// StepRequest is the body of a stage submission. Stages 1-3 use Tags;
// stage 4 uses Duration, PainLevel and Additional.
type StepRequest struct {
	Tags       []string            `json:"tags"`
	Duration   assessment.Duration `json:"duration"`
	PainLevel  *int                `json:"painLevel,omitempty"`
	Additional []string            `json:"additional"`
}

// SessionResponse represents a questionnaire session in API responses
type SessionResponse struct {
	ID        string              `json:"id"`
	Step      assessment.Step     `json:"step"`
	Stage     string              `json:"stage"`
	Progress  int                 `json:"progress"`
	Complete  bool                `json:"complete"`
	Response  assessment.Response `json:"response"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

func newSessionResponse(s *assessment.Session) SessionResponse {
	return SessionResponse{
		ID:        s.ID,
		Step:      s.Step,
		Stage:     s.Step.String(),
		Progress:  s.Progress(),
		Complete:  s.Complete(),
		Response:  s.Response,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// CreateAppointmentRequest is the booking form. SessionID or Assessment
// attaches the questionnaire answers; SessionID wins when both are set.
// Assessment is decoded over the reset answers, so an omitted pain level is 5.
type CreateAppointmentRequest struct {
	Name       string          `json:"name"`
	Phone      string          `json:"phone"`
	Date       string          `json:"date"`
	Time       string          `json:"time,omitempty"`
	Symptoms   string          `json:"symptoms,omitempty"`
	SessionID  string          `json:"sessionId,omitempty"`
	Assessment json.RawMessage `json:"assessment,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string `json:"status"`
	Storage    string `json:"storage"`
	Conditions int    `json:"conditions"`
	Sessions   int    `json:"sessions"`
	Error      string `json:"error,omitempty"`
}
