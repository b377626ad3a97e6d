package catalog

import (
	"strings"
	"testing"
)

func validEntry(id string) *Condition {
	return &Condition{
		ID:       id,
		Name:     "Test condition",
		Symptoms: []string{"lower_back", "pain"},
		Triggers: []string{"lifting"},
		Severity: SeverityMild,
	}
}

func TestValidate_Empty(t *testing.T) {
	err := Validate(nil)
	if err == nil {
		t.Fatal("Expected error for empty catalog, got nil")
	}
	if !strings.Contains(err.Error(), "empty") {
		t.Errorf("Expected error message about empty catalog, got: %v", err)
	}
}

func TestValidate_TooManyConditions(t *testing.T) {
	entries := make([]*Condition, 0, maxConditions+1)
	for i := 0; i <= maxConditions; i++ {
		entries = append(entries, validEntry("c_"+strings.Repeat("a", i+1)))
	}

	err := Validate(entries)
	if err == nil {
		t.Fatal("Expected error for too many conditions, got nil")
	}
	if !strings.Contains(err.Error(), "100") {
		t.Errorf("Expected error message about max 100 conditions, got: %v", err)
	}
}

func TestValidate_Entries(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(c *Condition)
		wantErr string
	}{
		{"valid", func(c *Condition) {}, ""},
		{"empty id", func(c *Condition) { c.ID = "" }, "empty"},
		{"upper-case id", func(c *Condition) { c.ID = "LumbarDisc" }, "pattern"},
		{"id with dash", func(c *Condition) { c.ID = "lumbar-disc" }, "pattern"},
		{"id too long", func(c *Condition) { c.ID = strings.Repeat("a", 101) }, "maximum"},
		{"blank name", func(c *Condition) { c.Name = "  " }, "empty name"},
		{"bad severity", func(c *Condition) { c.Severity = "critical" }, "severity"},
		{"no symptoms", func(c *Condition) { c.Symptoms = nil }, "at least one symptom"},
		{"unknown symptom", func(c *Condition) { c.Symptoms = append(c.Symptoms, "fever") }, "fever"},
		{"unknown trigger", func(c *Condition) { c.Triggers = []string{"running"} }, "running"},
		{"duplicate symptom", func(c *Condition) { c.Symptoms = []string{"pain", "pain"} }, "twice"},
		{"duplicate trigger", func(c *Condition) { c.Triggers = []string{"sitting", "sitting"} }, "twice"},
		{"trigger in symptom set", func(c *Condition) { c.Symptoms = []string{"lifting"} }, "lifting"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			entry := validEntry("test_condition")
			tc.mutate(entry)

			err := Validate([]*Condition{entry})
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() returned unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() should fail with %q", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Validate() error = %v, want it to contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestValidate_DuplicateIDs(t *testing.T) {
	err := Validate([]*Condition{validEntry("same"), validEntry("same")})
	if err == nil {
		t.Fatal("Expected error for duplicate ids, got nil")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("Expected duplicate error, got: %v", err)
	}
}

func TestValidate_NilEntry(t *testing.T) {
	if err := Validate([]*Condition{validEntry("ok"), nil}); err == nil {
		t.Fatal("Expected error for nil entry, got nil")
	}
}

func TestValidate_DefaultCatalogVocabulary(t *testing.T) {
	// every tag in the shipped catalog must come from the shared vocabulary
	if err := Validate(MustDefault().Entries()); err != nil {
		t.Fatalf("embedded catalog failed validation: %v", err)
	}
}
