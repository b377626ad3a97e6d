package catalog

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	maxConditions = 100
	maxIDLength   = 100
)

var validIdentifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Validate checks a list of catalog entries.
// Returns an error describing the first problem found, nil if the entries are valid.
func Validate(entries []*Condition) error {
	if len(entries) == 0 {
		return fmt.Errorf("catalog cannot be empty, must contain at least one condition")
	}
	if len(entries) > maxConditions {
		return fmt.Errorf("catalog contains %d conditions, maximum allowed is %d", len(entries), maxConditions)
	}

	seen := make(map[string]bool, len(entries))
	for i, c := range entries {
		if c == nil {
			return fmt.Errorf("condition at position %d is empty", i)
		}
		if err := validateIdentifier(c.ID); err != nil {
			return fmt.Errorf("invalid condition id %q: %w", c.ID, err)
		}
		if seen[c.ID] {
			return fmt.Errorf("duplicate condition id %q", c.ID)
		}
		seen[c.ID] = true

		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("condition %q has empty name", c.ID)
		}
		if !c.Severity.Valid() {
			return fmt.Errorf("condition %q has invalid severity %q (must be one of: mild, moderate)", c.ID, c.Severity)
		}
		if len(c.Symptoms) == 0 {
			return fmt.Errorf("condition %q must list at least one symptom", c.ID)
		}

		// Location tags share the symptom set
		for _, tag := range c.Symptoms {
			if !IsLocation(tag) && !IsSymptom(tag) {
				return fmt.Errorf("condition %q has unknown symptom tag %q", c.ID, tag)
			}
		}
		if err := checkDuplicates(c.Symptoms); err != nil {
			return fmt.Errorf("condition %q symptoms: %w", c.ID, err)
		}

		for _, tag := range c.Triggers {
			if !IsTrigger(tag) {
				return fmt.Errorf("condition %q has unknown trigger tag %q", c.ID, tag)
			}
		}
		if err := checkDuplicates(c.Triggers); err != nil {
			return fmt.Errorf("condition %q triggers: %w", c.ID, err)
		}
	}

	return nil
}

// validateIdentifier checks a condition id: lower-case snake case, 1-100 characters
func validateIdentifier(id string) error {
	if len(id) == 0 {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(id) > maxIDLength {
		return fmt.Errorf("identifier length %d exceeds maximum of %d characters", len(id), maxIDLength)
	}
	if !validIdentifier.MatchString(id) {
		return fmt.Errorf("must match pattern %s", validIdentifier.String())
	}
	return nil
}

func checkDuplicates(tags []string) error {
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		if seen[t] {
			return fmt.Errorf("tag %q listed twice", t)
		}
		seen[t] = true
	}
	return nil
}
