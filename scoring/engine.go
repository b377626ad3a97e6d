package scoring

import (
	"fmt"
	"sort"

	"github.com/google/cel-go/cel"
	"github.com/liamcoop/spinecheck/assessment"
	"github.com/liamcoop/spinecheck/catalog"
	"github.com/liamcoop/spinecheck/internal/logger"
)

// costLimit bounds a single adjustment evaluation
const costLimit = 1000000

// Engine scores user responses against a condition catalog.
// An Engine is immutable after NewEngine and safe for concurrent use.
type Engine struct {
	catalog     *catalog.Catalog
	opts        Options
	env         *cel.Env
	adjustments []Adjustment            // active adjustments, in declaration order
	programs    map[string]cel.Program // adjustment ID -> compiled program
}

// NewEngine compiles every active adjustment against the catalog.
// With no adjustments given, DefaultAdjustments are used.
func NewEngine(cat *catalog.Catalog, opts Options, adjustments ...Adjustment) (*Engine, error) {
	if cat == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring options: %w", err)
	}
	if len(adjustments) == 0 {
		adjustments = DefaultAdjustments()
	}

	env, err := NewEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	en := &Engine{
		catalog:  cat,
		opts:     opts,
		env:      env,
		programs: make(map[string]cel.Program),
	}

	for _, adj := range adjustments {
		if !adj.Active {
			continue
		}
		if _, dup := en.programs[adj.ID]; dup {
			return nil, fmt.Errorf("adjustment with ID %s already exists", adj.ID)
		}
		prog, err := en.compile(adj)
		if err != nil {
			return nil, fmt.Errorf("failed to compile adjustment %s: %w", adj.ID, err)
		}
		en.programs[adj.ID] = prog
		en.adjustments = append(en.adjustments, adj)
	}

	return en, nil
}

// compile type-checks an adjustment expression and builds a cost-limited program
func (en *Engine) compile(adj Adjustment) (cel.Program, error) {
	if adj.ID == "" {
		return nil, fmt.Errorf("adjustment ID is required")
	}
	if adj.Bonus < 0 {
		return nil, fmt.Errorf("bonus must not be negative, got %v", adj.Bonus)
	}

	ast, issues := en.env.Compile(adj.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("expression must evaluate to bool, got %s", ast.OutputType())
	}

	prog, err := en.env.Program(ast, cel.CostLimit(costLimit))
	if err != nil {
		return nil, fmt.Errorf("program creation error: %w", err)
	}
	return prog, nil
}

func (o Options) validate() error {
	if o.LocationWeight <= 0 || o.SymptomWeight <= 0 || o.TriggerWeight <= 0 {
		return fmt.Errorf("tag weights must be positive")
	}
	if o.MinMatches < 1 {
		return fmt.Errorf("minimum matches must be at least 1, got %d", o.MinMatches)
	}
	if o.Limit < 1 {
		return fmt.Errorf("limit must be at least 1, got %d", o.Limit)
	}
	return nil
}

// Catalog returns the catalog the engine scores against
func (en *Engine) Catalog() *catalog.Catalog {
	return en.catalog
}

// Options returns the engine's weights and limits
func (en *Engine) Options() Options {
	return en.opts
}

// Adjustments returns the active adjustments in evaluation order
func (en *Engine) Adjustments() []Adjustment {
	return append([]Adjustment(nil), en.adjustments...)
}

// Score ranks the catalog against a response.
// It returns at most Limit candidates with at least MinMatches tag overlaps,
// highest score first; equal scores keep catalog order. An empty result means
// no condition matched with confidence and is not an error.
func (en *Engine) Score(r assessment.Response) []Candidate {
	facts := factsFor(&r)

	var kept []Candidate
	for _, c := range en.catalog.Entries() {
		b := en.evaluate(c, facts)
		if !b.Retained {
			continue
		}
		kept = append(kept, Candidate{
			Condition: c,
			Score:     b.Score,
			Matches:   b.Matches,
		})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})

	if len(kept) > en.opts.Limit {
		kept = kept[:en.opts.Limit]
	}
	return kept
}

// Explain returns the scoring breakdown of every catalog entry, in catalog order,
// including the ones the minimum-match filter drops
func (en *Engine) Explain(r assessment.Response) []Breakdown {
	facts := factsFor(&r)

	out := make([]Breakdown, 0, en.catalog.Len())
	for _, c := range en.catalog.Entries() {
		out = append(out, en.evaluate(c, facts))
	}
	return out
}

// evaluate scores one catalog entry
func (en *Engine) evaluate(c *catalog.Condition, facts Facts) Breakdown {
	b := Breakdown{
		ConditionID:      c.ID,
		MatchedLocations: []string{},
		MatchedSymptoms:  []string{},
		MatchedTriggers:  []string{},
		Applied:          []string{},
	}

	// Locations and symptoms are both looked up in the symptom set
	for _, tag := range facts.Locations {
		if c.HasSymptom(tag) {
			b.Score += en.opts.LocationWeight
			b.Matches++
			b.MatchedLocations = append(b.MatchedLocations, tag)
		}
	}
	for _, tag := range facts.Symptoms {
		if c.HasSymptom(tag) {
			b.Score += en.opts.SymptomWeight
			b.Matches++
			b.MatchedSymptoms = append(b.MatchedSymptoms, tag)
		}
	}
	for _, tag := range facts.Triggers {
		if c.HasTrigger(tag) {
			b.Score += en.opts.TriggerWeight
			b.Matches++
			b.MatchedTriggers = append(b.MatchedTriggers, tag)
		}
	}

	vars := facts.withCondition(c).activation()
	for _, adj := range en.adjustments {
		if en.applies(adj, c.ID, vars) {
			b.Score += adj.Bonus
			b.Applied = append(b.Applied, adj.ID)
		}
	}

	b.Retained = b.Matches >= en.opts.MinMatches
	return b
}

// applies evaluates one adjustment. Errors and non-boolean results count as
// not applied; scoring itself never fails.
func (en *Engine) applies(adj Adjustment, conditionID string, vars map[string]any) bool {
	out, _, err := en.programs[adj.ID].Eval(vars)
	if err != nil {
		logger.Debug("adjustment evaluation failed",
			"adjustment", adj.ID,
			"condition", conditionID,
			"error", err,
		)
		return false
	}

	matched, ok := out.Value().(bool)
	return ok && matched
}
