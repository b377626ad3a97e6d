package scoring

import "github.com/liamcoop/spinecheck/catalog"

// Adjustment is a score bonus applied to a condition when its CEL expression holds.
// Adjustments add to the score but never to the match count.
type Adjustment struct {
	ID         string  `json:"id" yaml:"id" mapstructure:"id"`
	Name       string  `json:"name" yaml:"name" mapstructure:"name"`
	Expression string  `json:"expression" yaml:"expression" mapstructure:"expression"`
	Bonus      float64 `json:"bonus" yaml:"bonus" mapstructure:"bonus"`
	Active     bool    `json:"active" yaml:"active" mapstructure:"active"`
}

// Candidate is a condition that passed the minimum-match filter
type Candidate struct {
	Condition *catalog.Condition `json:"condition"`
	Score     float64            `json:"score"`
	Matches   int                `json:"matches"`
}

// Breakdown explains how one condition was scored
type Breakdown struct {
	ConditionID      string   `json:"conditionId"`
	Score            float64  `json:"score"`
	Matches          int      `json:"matches"`
	MatchedLocations []string `json:"matchedLocations"`
	MatchedSymptoms  []string `json:"matchedSymptoms"`
	MatchedTriggers  []string `json:"matchedTriggers"`
	Applied          []string `json:"applied"` // adjustment ids
	Retained         bool     `json:"retained"`
}

// Options holds the tag weights and result shaping
type Options struct {
	LocationWeight float64 `mapstructure:"location_weight" yaml:"location_weight" json:"location_weight"`
	SymptomWeight  float64 `mapstructure:"symptom_weight" yaml:"symptom_weight" json:"symptom_weight"`
	TriggerWeight  float64 `mapstructure:"trigger_weight" yaml:"trigger_weight" json:"trigger_weight"`

	// MinMatches is the number of tag overlaps a condition needs to be reported
	MinMatches int `mapstructure:"min_matches" yaml:"min_matches" json:"min_matches"`

	// Limit caps the number of candidates returned
	Limit int `mapstructure:"limit" yaml:"limit" json:"limit"`
}

// DefaultOptions returns the weights used by the self-assessment form
func DefaultOptions() Options {
	return Options{
		LocationWeight: 2.0,
		SymptomWeight:  1.5,
		TriggerWeight:  1.0,
		MinMatches:     2,
		Limit:          3,
	}
}
