package catalog

import "fmt"

// Severity is the coarse severity tier of a condition
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
)

// Valid reports whether s is a known severity tier
func (s Severity) Valid() bool {
	return s == SeverityMild || s == SeverityModerate
}

// UnmarshalText rejects unknown tiers so a bad catalog fails at load time
func (s *Severity) UnmarshalText(text []byte) error {
	v := Severity(text)
	if !v.Valid() {
		return fmt.Errorf("unknown severity %q (must be one of: mild, moderate)", string(text))
	}
	*s = v
	return nil
}

// Condition is one catalog entry describing a spine condition
type Condition struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Symptoms    []string `yaml:"symptoms" json:"symptoms"`
	Triggers    []string `yaml:"triggers" json:"triggers"`
	Treatments  []string `yaml:"treatments" json:"treatments"`
	Severity    Severity `yaml:"severity" json:"severity"`
}

// HasSymptom reports whether tag is in the condition's symptom set.
// Location tags live in the same set.
func (c *Condition) HasSymptom(tag string) bool {
	return contains(c.Symptoms, tag)
}

// HasTrigger reports whether tag is in the condition's trigger set
func (c *Condition) HasTrigger(tag string) bool {
	return contains(c.Triggers, tag)
}

func contains(set []string, tag string) bool {
	for _, s := range set {
		if s == tag {
			return true
		}
	}
	return false
}

// clone returns a deep copy so callers cannot reach the catalog's slices
func (c *Condition) clone() *Condition {
	cp := *c
	cp.Symptoms = append([]string(nil), c.Symptoms...)
	cp.Triggers = append([]string(nil), c.Triggers...)
	cp.Treatments = append([]string(nil), c.Treatments...)
	return &cp
}
