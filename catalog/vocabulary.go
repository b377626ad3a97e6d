package catalog

// Closed tag vocabulary shared by the catalog and user responses.

// Body-region tags
const (
	LocationNeck      = "neck"
	LocationShoulder  = "shoulder"
	LocationUpperBack = "upper_back"
	LocationLowerBack = "lower_back"
	LocationLeg       = "leg"
)

// Symptom tags
const (
	SymptomPain              = "pain"
	SymptomNumbness          = "numbness"
	SymptomWeakness          = "weakness"
	SymptomStiffness         = "stiffness"
	SymptomRadiating         = "radiating"
	SymptomWalkingDifficulty = "walking_difficulty"
)

// Trigger tags (aggravating factors)
const (
	TriggerSitting     = "sitting"
	TriggerStanding    = "standing"
	TriggerWalking     = "walking"
	TriggerBending     = "bending"
	TriggerMorning     = "morning"
	TriggerNight       = "night"
	TriggerLifting     = "lifting"
	TriggerCoughing    = "coughing"
	TriggerStress      = "stress"
	TriggerSuddenOnset = "sudden_onset"
)

var (
	locations = []string{LocationNeck, LocationShoulder, LocationUpperBack, LocationLowerBack, LocationLeg}
	symptoms  = []string{SymptomPain, SymptomNumbness, SymptomWeakness, SymptomStiffness, SymptomRadiating, SymptomWalkingDifficulty}
	triggers  = []string{
		TriggerSitting, TriggerStanding, TriggerWalking, TriggerBending, TriggerMorning,
		TriggerNight, TriggerLifting, TriggerCoughing, TriggerStress, TriggerSuddenOnset,
	}
)

// Locations returns the location vocabulary in form order
func Locations() []string { return append([]string(nil), locations...) }

// Symptoms returns the symptom vocabulary in form order
func Symptoms() []string { return append([]string(nil), symptoms...) }

// Triggers returns the trigger vocabulary in form order
func Triggers() []string { return append([]string(nil), triggers...) }

// IsLocation reports whether tag names a body region
func IsLocation(tag string) bool { return contains(locations, tag) }

// IsSymptom reports whether tag names a symptom
func IsSymptom(tag string) bool { return contains(symptoms, tag) }

// IsTrigger reports whether tag names an aggravating factor
func IsTrigger(tag string) bool { return contains(triggers, tag) }
