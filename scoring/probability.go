package scoring

import "math"

// MaxProbability caps the reported likelihood; a questionnaire is never certain
const MaxProbability = 95

// Likelihood is the coarse label shown next to a candidate
type Likelihood string

const (
	LikelihoodHigh   Likelihood = "high"
	LikelihoodMedium Likelihood = "medium"
	LikelihoodLow    Likelihood = "low"
)

// Ranked is a candidate with its display probability
type Ranked struct {
	Candidate
	Probability int        `json:"probability"`
	Likelihood  Likelihood `json:"likelihood"`
}

// Probability scales score against the top score: min(round(score/top*100), 95).
// Halves round up.
func Probability(score, top float64) int {
	if top <= 0 {
		return 0
	}
	p := int(math.Floor(score/top*100 + 0.5))
	if p > MaxProbability {
		p = MaxProbability
	}
	if p < 0 {
		p = 0
	}
	return p
}

// LikelihoodFor labels a probability: high from 70, medium from 40, low below
func LikelihoodFor(probability int) Likelihood {
	switch {
	case probability >= 70:
		return LikelihoodHigh
	case probability >= 40:
		return LikelihoodMedium
	default:
		return LikelihoodLow
	}
}

// Rank attaches probabilities to an ordered candidate list.
// The first candidate's score is the reference maximum.
func Rank(candidates []Candidate) []Ranked {
	out := make([]Ranked, 0, len(candidates))
	if len(candidates) == 0 {
		return out
	}

	top := candidates[0].Score
	for _, c := range candidates {
		p := Probability(c.Score, top)
		out = append(out, Ranked{
			Candidate:   c,
			Probability: p,
			Likelihood:  LikelihoodFor(p),
		})
	}
	return out
}
