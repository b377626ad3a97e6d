package scoring

// DefaultAdjustments returns the bonuses of the self-assessment form:
// sudden onset and acute duration favour a strain, long-standing symptoms favour
// degenerative conditions, and severe pain favours moderate conditions.
func DefaultAdjustments() []Adjustment {
	return []Adjustment{
		{
			ID:         "sudden_onset",
			Name:       "Sudden onset suggests a strain",
			Expression: `"sudden_onset" in additional && condition == "acute_strain"`,
			Bonus:      3.0,
			Active:     true,
		},
		{
			ID:         "chronic_degenerative",
			Name:       "Symptoms over three months suggest degeneration",
			Expression: `duration == "chronic_long" && condition in ["spinal_stenosis", "degenerative_spine"]`,
			Bonus:      2.0,
			Active:     true,
		},
		{
			ID:         "acute_strain",
			Name:       "Symptoms within a week suggest a strain",
			Expression: `duration == "acute" && condition == "acute_strain"`,
			Bonus:      2.0,
			Active:     true,
		},
		{
			ID:         "severe_pain",
			Name:       "Severe pain favours moderate conditions",
			Expression: `pain_level >= 7 && severity == "moderate"`,
			Bonus:      1.0,
			Active:     true,
		},
	}
}
