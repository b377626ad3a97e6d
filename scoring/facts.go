package scoring

import (
	"github.com/google/cel-go/cel"
	"github.com/liamcoop/spinecheck/assessment"
	"github.com/liamcoop/spinecheck/catalog"
)

// Facts is the input visible to adjustment expressions.
// Per-response fields are shared; Condition and Severity change per catalog entry.
type Facts struct {
	Condition  string
	Severity   string
	Duration   string
	PainLevel  int64
	Locations  []string
	Symptoms   []string
	Triggers   []string
	Additional []string
}

// Variable names available to adjustment expressions
const (
	VarCondition  = "condition"
	VarSeverity   = "severity"
	VarDuration   = "duration"
	VarPainLevel  = "pain_level"
	VarLocations  = "locations"
	VarSymptoms   = "symptoms"
	VarTriggers   = "triggers"
	VarAdditional = "additional"
)

// NewEnv creates the CEL environment adjustments are compiled against
func NewEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable(VarCondition, cel.StringType),
		cel.Variable(VarSeverity, cel.StringType),
		cel.Variable(VarDuration, cel.StringType),
		cel.Variable(VarPainLevel, cel.IntType),
		cel.Variable(VarLocations, cel.ListType(cel.StringType)),
		cel.Variable(VarSymptoms, cel.ListType(cel.StringType)),
		cel.Variable(VarTriggers, cel.ListType(cel.StringType)),
		cel.Variable(VarAdditional, cel.ListType(cel.StringType)),
	)
}

func factsFor(r *assessment.Response) Facts {
	return Facts{
		Duration:   string(r.Duration),
		PainLevel:  int64(r.PainLevel),
		Locations:  uniqueTags(r.Locations),
		Symptoms:   uniqueTags(r.Symptoms),
		Triggers:   uniqueTags(r.Triggers),
		Additional: uniqueTags(r.Additional),
	}
}

// withCondition returns a copy of f bound to one catalog entry
func (f Facts) withCondition(c *catalog.Condition) Facts {
	f.Condition = c.ID
	f.Severity = string(c.Severity)
	return f
}

func (f Facts) activation() map[string]any {
	return map[string]any{
		VarCondition:  f.Condition,
		VarSeverity:   f.Severity,
		VarDuration:   f.Duration,
		VarPainLevel:  f.PainLevel,
		VarLocations:  f.Locations,
		VarSymptoms:   f.Symptoms,
		VarTriggers:   f.Triggers,
		VarAdditional: f.Additional,
	}
}

// uniqueTags treats the input as a set: each tag counts once
func uniqueTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
