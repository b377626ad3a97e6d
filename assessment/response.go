package assessment

import (
	"errors"
	"fmt"
)

// Duration is how long the symptoms have lasted
type Duration string

const (
	DurationUnset        Duration = ""
	DurationAcute        Duration = "acute"         // within a week
	DurationSubacute     Duration = "subacute"      // one week to a month
	DurationChronicShort Duration = "chronic_short" // one to three months
	DurationChronicLong  Duration = "chronic_long"  // over three months
)

// Valid reports whether d is one of the selectable durations
func (d Duration) Valid() bool {
	switch d {
	case DurationAcute, DurationSubacute, DurationChronicShort, DurationChronicLong:
		return true
	}
	return false
}

// Additional flags
const (
	FlagSuddenOnset  = "sudden_onset"
	FlagBladderIssue = "bladder_issue" // red flag: bladder or bowel dysfunction
)

const (
	MinPainLevel     = 0
	MaxPainLevel     = 10
	DefaultPainLevel = 5
)

var (
	ErrNoLocations = errors.New("at least one pain location must be selected")
	ErrNoSymptoms  = errors.New("at least one symptom must be selected")
	ErrNoDuration  = errors.New("symptom duration must be selected")
	ErrPainLevel   = fmt.Errorf("pain level must be between %d and %d", MinPainLevel, MaxPainLevel)
)

// Response is one user's structured answers to the self-assessment
type Response struct {
	Locations  []string `json:"locations"`
	Symptoms   []string `json:"symptoms"`
	Triggers   []string `json:"triggers"`
	Duration   Duration `json:"duration"`
	PainLevel  int      `json:"painLevel"`
	Additional []string `json:"additional"`
}

// NewResponse returns the reset state: nothing selected, pain level 5
func NewResponse() Response {
	return Response{
		Locations:  []string{},
		Symptoms:   []string{},
		Triggers:   []string{},
		PainLevel:  DefaultPainLevel,
		Additional: []string{},
	}
}

// Validate checks the preconditions for scoring
func (r *Response) Validate() error {
	if len(r.Locations) == 0 {
		return fmt.Errorf("invalid response: %w", ErrNoLocations)
	}
	if len(r.Symptoms) == 0 {
		return fmt.Errorf("invalid response: %w", ErrNoSymptoms)
	}
	if !r.Duration.Valid() {
		if r.Duration == DurationUnset {
			return fmt.Errorf("invalid response: %w", ErrNoDuration)
		}
		return fmt.Errorf("invalid response: unknown duration %q: %w", r.Duration, ErrNoDuration)
	}
	if err := validatePain(r.PainLevel); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}

// ValidateValues checks the closed fields of a response that may be incomplete:
// a duration, when set, must be known, and the pain level must be in range.
func (r *Response) ValidateValues() error {
	if r.Duration != DurationUnset && !r.Duration.Valid() {
		return fmt.Errorf("invalid response: unknown duration %q: %w", r.Duration, ErrNoDuration)
	}
	if err := validatePain(r.PainLevel); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}

func validatePain(level int) error {
	if level < MinPainLevel || level > MaxPainLevel {
		return fmt.Errorf("got %d: %w", level, ErrPainLevel)
	}
	return nil
}

// HasFlag reports whether flag was ticked in the additional section
func (r *Response) HasFlag(flag string) bool {
	for _, f := range r.Additional {
		if f == flag {
			return true
		}
	}
	return false
}

// HasRedFlag reports whether the answers call for urgent care,
// regardless of how the conditions scored
func (r *Response) HasRedFlag() bool {
	return r.HasFlag(FlagBladderIssue)
}

// Clone returns a deep copy
func (r Response) Clone() Response {
	return Response{
		Locations:  cloneTags(r.Locations),
		Symptoms:   cloneTags(r.Symptoms),
		Triggers:   cloneTags(r.Triggers),
		Duration:   r.Duration,
		PainLevel:  r.PainLevel,
		Additional: cloneTags(r.Additional),
	}
}

// dedupe keeps the first occurrence of each tag, so a tag is counted once
func dedupe(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func cloneTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return append([]string{}, tags...)
}

// Normalize removes empty and repeated tags from every set
func (r *Response) Normalize() {
	r.Locations = dedupe(r.Locations)
	r.Symptoms = dedupe(r.Symptoms)
	r.Triggers = dedupe(r.Triggers)
	r.Additional = dedupe(r.Additional)
}
