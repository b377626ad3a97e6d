// Package report turns scored candidates into the result shown to the user
package report

import (
	"strings"

	"github.com/liamcoop/spinecheck/assessment"
	"github.com/liamcoop/spinecheck/scoring"
)

const (
	// Advisory is shown in place of results when nothing scored with confidence
	Advisory = "The information provided is not enough to point to a specific condition. " +
		"Please consult a spine specialist for an accurate diagnosis."

	// Headline introduces a non-empty result list
	Headline = "Based on your answers, the following conditions are possible. " +
		"Please consult a spine specialist for an accurate diagnosis."

	// UrgentCareNotice accompanies a red-flag answer, whatever the scores
	UrgentCareNotice = "Bladder or bowel dysfunction can indicate serious nerve compression. " +
		"Seek emergency care immediately."
)

// Result is one ranked condition as displayed
type Result struct {
	Position    int                `json:"position"`
	ConditionID string             `json:"conditionId"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Treatments  []string           `json:"treatments"`
	Severity    string             `json:"severity"`
	Score       float64            `json:"score"`
	Matches     int                `json:"matches"`
	Probability int                `json:"probability"`
	Likelihood  scoring.Likelihood `json:"likelihood"`
}

// Summary echoes the user's answers with display labels
type Summary struct {
	Locations string `json:"locations"`
	Symptoms  string `json:"symptoms"`
	Triggers  string `json:"triggers"`
	Duration  string `json:"duration"`
	PainLevel string `json:"painLevel"`
}

// Report is everything the result page needs
type Report struct {
	UrgentCare bool     `json:"urgentCare"`
	Notice     string   `json:"notice,omitempty"`
	Headline   string   `json:"headline,omitempty"`
	Advisory   string   `json:"advisory,omitempty"`
	Results    []Result `json:"results"`
	Summary    Summary  `json:"summary"`
}

// Build assembles a report. The urgent-care flag depends only on the answers,
// so it is set even when ranked is empty.
func Build(r assessment.Response, ranked []scoring.Ranked) Report {
	rep := Report{
		UrgentCare: r.HasRedFlag(),
		Results:    make([]Result, 0, len(ranked)),
		Summary:    Summarize(r),
	}
	if rep.UrgentCare {
		rep.Notice = UrgentCareNotice
	}

	if len(ranked) == 0 {
		rep.Advisory = Advisory
		return rep
	}

	rep.Headline = Headline
	for i, c := range ranked {
		rep.Results = append(rep.Results, Result{
			Position:    i + 1,
			ConditionID: c.Condition.ID,
			Name:        c.Condition.Name,
			Description: c.Condition.Description,
			Treatments:  append([]string{}, c.Condition.Treatments...),
			Severity:    string(c.Condition.Severity),
			Score:       c.Score,
			Matches:     c.Matches,
			Probability: c.Probability,
			Likelihood:  c.Likelihood,
		})
	}
	return rep
}

// Summarize labels every answer
func Summarize(r assessment.Response) Summary {
	return Summary{
		Locations: assessment.LocationNames(r.Locations),
		Symptoms:  assessment.SymptomNames(r.Symptoms),
		Triggers:  assessment.TriggerNames(r.Triggers),
		Duration:  assessment.DurationText(r.Duration),
		PainLevel: assessment.PainText(r.PainLevel),
	}
}

// SymptomNote is the text a booking's symptom field is pre-filled with.
// Returns "" when no location was selected.
func SymptomNote(r assessment.Response) string {
	if len(r.Locations) == 0 {
		return ""
	}
	return strings.Join([]string{
		"Pain location: " + assessment.LocationNames(r.Locations),
		"Symptoms: " + assessment.SymptomNames(r.Symptoms),
		"Pain level: " + assessment.PainText(r.PainLevel),
		"Duration: " + assessment.DurationText(r.Duration),
	}, "\n")
}
