package dosage

// Tier decides whether a fired rule rejects the dose or only advises.
type Tier int

const (
	TierAdvisory Tier = iota
	TierHardFail
)

func (t Tier) String() string {
	if t == TierHardFail {
		return "hard_fail"
	}
	return "advisory"
}

// Condition lists the thresholds a rule checks. Zero values are unset and
// every set field must hold for the rule to fire.
type Condition struct {
	// UnitMismatch fires when dose and strength both carry units that differ.
	UnitMismatch bool
	// RequireMg demands "mg" on the dose or the strength side.
	RequireMg bool

	AgeBelow int
	AgeAbove int

	// DoseAbove is an absolute ceiling in the dose's own unit.
	DoseAbove float64

	// MaxDailyPerKg divided by DosesPerDay gives the per-dose ceiling for
	// the patient's weight.
	MaxDailyPerKg float64
	DosesPerDay   float64

	// StrengthMultiple fires when the dose exceeds this many times the
	// labeled strength in the same unit.
	StrengthMultiple float64
}

func (c Condition) needsWeight() bool {
	return c.MaxDailyPerKg > 0
}

func (c Condition) needsAge() bool {
	return c.AgeBelow > 0 || c.AgeAbove > 0
}

// Rule is one row of the dosage table. Patterns are matched as
// case-insensitive substrings of the medication name or generic name; an
// empty list applies the rule to every medication.
//
// Warning and Recommendation may use the placeholders {weight}, {age},
// {dose}, {dose_unit}, {strength}, {strength_unit} and {max_dose}.
type Rule struct {
	Name      string
	Patterns  []string
	Tier      Tier
	Condition Condition

	Warning        string
	Recommendation string
	// RecommendPerKg feeds {max_dose} as weight times this value, in mg.
	RecommendPerKg float64
}

// DefaultRules is the shipped rule table. Order is the order warnings are
// reported in.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:      "unit_mismatch",
			Tier:      TierAdvisory,
			Condition: Condition{UnitMismatch: true},
			Warning:   "Dosage unit ({dose_unit}) doesn't match medication strength unit ({strength_unit})",
		},
		{
			Name:           "ibuprofen_weight_ceiling",
			Patterns:       []string{"ibuprofen"},
			Tier:           TierHardFail,
			Condition:      Condition{RequireMg: true, MaxDailyPerKg: 40, DosesPerDay: 4},
			Warning:        "Dosage exceeds maximum recommended dose for weight ({weight} kg)",
			Recommendation: "Maximum recommended dose: {max_dose} mg per dose",
			RecommendPerKg: 10,
		},
		{
			Name:           "acetaminophen_weight_ceiling",
			Patterns:       []string{"acetaminophen", "paracetamol"},
			Tier:           TierHardFail,
			Condition:      Condition{RequireMg: true, MaxDailyPerKg: 75, DosesPerDay: 5},
			Warning:        "Dosage exceeds maximum recommended dose for weight ({weight} kg)",
			Recommendation: "Maximum recommended dose: {max_dose} mg per dose",
			RecommendPerKg: 15,
		},
		{
			Name:      "salicylate_pediatric",
			Patterns:  []string{"aspirin", "salicyl"},
			Tier:      TierHardFail,
			Condition: Condition{AgeBelow: 12},
			Warning:   "Aspirin is not recommended for children under 12 due to risk of Reye's syndrome",
		},
		{
			Name:      "ibuprofen_young_child",
			Patterns:  []string{"ibuprofen"},
			Tier:      TierHardFail,
			Condition: Condition{AgeBelow: 6, RequireMg: true, DoseAbove: 100},
			Warning:   "Dosage may be too high for a {age}-year-old child",
		},
		{
			Name:           "warfarin_elderly",
			Patterns:       []string{"warfarin"},
			Tier:           TierAdvisory,
			Condition:      Condition{AgeAbove: 65, RequireMg: true, DoseAbove: 5},
			Warning:        "Elderly patients may require lower warfarin doses",
			Recommendation: "Consider starting with a lower dose and monitoring closely",
		},
		{
			Name:      "strength_multiple",
			Tier:      TierHardFail,
			Condition: Condition{StrengthMultiple: 4},
			Warning:   "Dosage ({dose}) is more than 4x the standard strength ({strength})",
		},
	}
}
