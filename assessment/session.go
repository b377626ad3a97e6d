package assessment

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Step is a stage of the four-stage questionnaire
type Step int

const (
	StepLocations Step = iota + 1
	StepSymptoms
	StepTriggers
	StepDetails
	StepComplete // all four stages submitted, ready to score
)

// TotalSteps is the number of input stages
const TotalSteps = 4

// ErrStepOrder is returned when a stage is submitted out of turn
var ErrStepOrder = errors.New("stage submitted out of order")

// ErrIncomplete is returned when a session is scored before its last stage
var ErrIncomplete = errors.New("assessment is not complete")

// String names the stage for logs and API responses
func (s Step) String() string {
	switch s {
	case StepLocations:
		return "locations"
	case StepSymptoms:
		return "symptoms"
	case StepTriggers:
		return "triggers"
	case StepDetails:
		return "details"
	case StepComplete:
		return "complete"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// ParseStep maps a stage name or number ("1".."4") to a Step
func ParseStep(s string) (Step, error) {
	switch s {
	case "1", "locations":
		return StepLocations, nil
	case "2", "symptoms":
		return StepSymptoms, nil
	case "3", "triggers":
		return StepTriggers, nil
	case "4", "details":
		return StepDetails, nil
	}
	return 0, fmt.Errorf("unknown stage %q", s)
}

// Session holds one user's progress through the questionnaire.
// A Session is not safe for concurrent use; SessionStore hands out copies.
type Session struct {
	ID        string    `json:"id"`
	Step      Step      `json:"step"`
	Response  Response  `json:"response"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewSession starts a questionnaire at the first stage
func NewSession() *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New().String(),
		Step:      StepLocations,
		Response:  NewResponse(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Complete reports whether every stage has been submitted
func (s *Session) Complete() bool {
	return s.Step == StepComplete
}

// Progress returns how far along the questionnaire is, in percent
func (s *Session) Progress() int {
	step := s.Step
	if step > TotalSteps {
		step = TotalSteps
	}
	return int(step) * 100 / TotalSteps
}

func (s *Session) expect(step Step) error {
	if s.Step != step {
		return fmt.Errorf("%w: expected %s, got %s", ErrStepOrder, s.Step, step)
	}
	return nil
}

func (s *Session) advance() {
	s.Step++
	s.UpdatedAt = time.Now()
}

// SubmitLocations records the first stage. At least one location is required;
// on failure the selection is kept so the form can redisplay it.
func (s *Session) SubmitLocations(tags []string) error {
	if err := s.expect(StepLocations); err != nil {
		return err
	}
	s.Response.Locations = dedupe(tags)
	if len(s.Response.Locations) == 0 {
		return ErrNoLocations
	}
	s.advance()
	return nil
}

// SubmitSymptoms records the second stage. At least one symptom is required.
func (s *Session) SubmitSymptoms(tags []string) error {
	if err := s.expect(StepSymptoms); err != nil {
		return err
	}
	s.Response.Symptoms = dedupe(tags)
	if len(s.Response.Symptoms) == 0 {
		return ErrNoSymptoms
	}
	s.advance()
	return nil
}

// SubmitTriggers records the third stage. Triggers are optional.
func (s *Session) SubmitTriggers(tags []string) error {
	if err := s.expect(StepTriggers); err != nil {
		return err
	}
	s.Response.Triggers = dedupe(tags)
	s.advance()
	return nil
}

// SubmitDetails records the last stage: duration, pain level and additional flags
func (s *Session) SubmitDetails(d Duration, painLevel int, additional []string) error {
	if err := s.expect(StepDetails); err != nil {
		return err
	}
	s.Response.Duration = d
	s.Response.PainLevel = painLevel
	s.Response.Additional = dedupe(additional)

	if !d.Valid() {
		return ErrNoDuration
	}
	if err := validatePain(painLevel); err != nil {
		return err
	}
	s.advance()
	return nil
}

// Back returns to the previous stage, keeping the answers given so far
func (s *Session) Back() {
	if s.Step > StepLocations {
		s.Step--
		s.UpdatedAt = time.Now()
	}
}

// Reset discards every answer and returns to the first stage
func (s *Session) Reset() {
	s.Step = StepLocations
	s.Response = NewResponse()
	s.UpdatedAt = time.Now()
}

// Snapshot returns a copy of the answers for scoring.
// It fails until every stage has been submitted.
func (s *Session) Snapshot() (Response, error) {
	if !s.Complete() {
		return Response{}, fmt.Errorf("%w: at stage %s", ErrIncomplete, s.Step)
	}
	return s.Response.Clone(), nil
}

// Clone returns a deep copy of the session
func (s *Session) Clone() *Session {
	cp := *s
	cp.Response = s.Response.Clone()
	return &cp
}
