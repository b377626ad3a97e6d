package assessment

import (
	"fmt"
	"strings"

	"github.com/liamcoop/spinecheck/catalog"
)

var locationLabels = map[string]string{
	catalog.LocationNeck:      "Neck",
	catalog.LocationShoulder:  "Shoulder/arm",
	catalog.LocationUpperBack: "Upper back",
	catalog.LocationLowerBack: "Lower back",
	catalog.LocationLeg:       "Hip/leg",
}

var symptomLabels = map[string]string{
	catalog.SymptomPain:              "Pain",
	catalog.SymptomNumbness:          "Numbness",
	catalog.SymptomWeakness:          "Muscle weakness",
	catalog.SymptomStiffness:         "Stiffness",
	catalog.SymptomRadiating:         "Radiating pain",
	catalog.SymptomWalkingDifficulty: "Difficulty walking",
}

var triggerLabels = map[string]string{
	catalog.TriggerSitting:  "Sitting for long periods",
	catalog.TriggerStanding: "Standing for long periods",
	catalog.TriggerWalking:  "Walking",
	catalog.TriggerBending:  "Bending forward",
	catalog.TriggerMorning:  "In the morning",
	catalog.TriggerNight:    "At night",
	catalog.TriggerLifting:  "Lifting heavy objects",
	catalog.TriggerCoughing: "Coughing",
}

var durationLabels = map[Duration]string{
	DurationAcute:        "Within a week (acute)",
	DurationSubacute:     "One week to a month",
	DurationChronicShort: "One to three months",
	DurationChronicLong:  "Over three months (chronic)",
}

const (
	noneLabel       = "None"
	noTriggersLabel = "Nothing in particular"
	noDurationLabel = "Not selected"
)

// LocationNames renders location tags for display
func LocationNames(tags []string) string {
	return joinLabels(tags, locationLabels, noneLabel)
}

// SymptomNames renders symptom tags for display
func SymptomNames(tags []string) string {
	return joinLabels(tags, symptomLabels, noneLabel)
}

// TriggerNames renders trigger tags for display
func TriggerNames(tags []string) string {
	return joinLabels(tags, triggerLabels, noTriggersLabel)
}

// DurationText renders a duration for display
func DurationText(d Duration) string {
	if s, ok := durationLabels[d]; ok {
		return s
	}
	return noDurationLabel
}

// PainText renders the pain level on its ten-point scale
func PainText(level int) string {
	return fmt.Sprintf("%d/10", level)
}

// unknown tags fall through unchanged
func joinLabels(tags []string, labels map[string]string, empty string) string {
	if len(tags) == 0 {
		return empty
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		if s, ok := labels[t]; ok {
			names[i] = s
		} else {
			names[i] = t
		}
	}
	return strings.Join(names, ", ")
}
