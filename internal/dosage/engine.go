package dosage

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/rxguard-backend/pkg/textmatch"
)

const unparseableWarning = "Unable to parse dosage value"

// Medication is the slice of catalog data the rules read.
type Medication struct {
	Name        string
	GenericName string
	Strength    string
}

// Patient carries the optional facts weight and age rules need. A nil or
// non-positive weight is treated as unknown.
type Patient struct {
	WeightKg *float64
	AgeYears *int
}

// Result is the outcome of one verification. IsAppropriate is false when any
// hard-fail rule fired; advisory rules only add warnings.
type Result struct {
	IsAppropriate   bool     `json:"is_appropriate"`
	Warnings        []string `json:"warnings"`
	Recommendations []string `json:"recommendations"`
	RulesFired      []string `json:"rules_fired,omitempty"`
}

// Engine evaluates a rule table. The zero value is not usable; use NewEngine.
type Engine struct {
	rules []Rule
}

// NewEngine builds an engine over rules, falling back to DefaultRules when
// rules is empty.
func NewEngine(rules []Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	copied := make([]Rule, len(rules))
	copy(copied, rules)
	return &Engine{rules: copied}
}

// Rules returns a copy of the engine's table.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

type evaluation struct {
	dose        Quantity
	strength    Quantity
	hasStrength bool
	weight      decimal.Decimal
	hasWeight   bool
	age         int
	hasAge      bool
}

// Verify checks dosageText for med against every rule in table order.
func (e *Engine) Verify(med Medication, dosageText string, patient Patient) Result {
	result := Result{
		IsAppropriate:   true,
		Warnings:        []string{},
		Recommendations: []string{},
	}

	dose, ok := ParseDosage(dosageText)
	if !ok || dose.Value <= 0 {
		result.IsAppropriate = false
		result.Warnings = append(result.Warnings, unparseableWarning)
		return result
	}

	ev := evaluation{dose: dose}
	if strength, ok := ParseDosage(med.Strength); ok && strength.Value > 0 {
		ev.strength = strength
		ev.hasStrength = true
	}
	if patient.WeightKg != nil && *patient.WeightKg > 0 {
		ev.weight = decimal.NewFromFloat(*patient.WeightKg)
		ev.hasWeight = true
	}
	if patient.AgeYears != nil {
		ev.age = *patient.AgeYears
		ev.hasAge = true
	}

	for _, rule := range e.rules {
		if !rule.matches(med) || !rule.Condition.holds(ev) {
			continue
		}
		result.RulesFired = append(result.RulesFired, rule.Name)
		if rule.Tier == TierHardFail {
			result.IsAppropriate = false
		}
		if rule.Warning != "" {
			result.Warnings = append(result.Warnings, rule.render(rule.Warning, ev))
		}
		if rule.Recommendation != "" {
			result.Recommendations = append(result.Recommendations, rule.render(rule.Recommendation, ev))
		}
	}
	return result
}

func (r Rule) matches(med Medication) bool {
	if len(r.Patterns) == 0 {
		return true
	}
	for _, pattern := range r.Patterns {
		if textmatch.AnyContainsFold(pattern, med.Name, med.GenericName) {
			return true
		}
	}
	return false
}

func (c Condition) holds(ev evaluation) bool {
	if c.needsWeight() && !ev.hasWeight {
		return false
	}
	if c.needsAge() && !ev.hasAge {
		return false
	}

	dose := decimal.NewFromFloat(ev.dose.Value)

	if c.UnitMismatch {
		if !ev.dose.HasUnit() || !ev.hasStrength || !ev.strength.HasUnit() || ev.dose.Unit == ev.strength.Unit {
			return false
		}
	}
	if c.RequireMg && ev.dose.Unit != "mg" && !(ev.hasStrength && ev.strength.Unit == "mg") {
		return false
	}
	if c.AgeBelow > 0 && ev.age >= c.AgeBelow {
		return false
	}
	if c.AgeAbove > 0 && ev.age <= c.AgeAbove {
		return false
	}
	if c.DoseAbove > 0 && !dose.GreaterThan(decimal.NewFromFloat(c.DoseAbove)) {
		return false
	}
	if c.MaxDailyPerKg > 0 && !dose.GreaterThan(c.perDoseCeiling(ev.weight)) {
		return false
	}
	if c.StrengthMultiple > 0 {
		if !ev.hasStrength || ev.strength.Unit != ev.dose.Unit {
			return false
		}
		limit := decimal.NewFromFloat(ev.strength.Value).Mul(decimal.NewFromFloat(c.StrengthMultiple))
		if !dose.GreaterThan(limit) {
			return false
		}
	}
	return true
}

func (c Condition) perDoseCeiling(weight decimal.Decimal) decimal.Decimal {
	doses := c.DosesPerDay
	if doses <= 0 {
		doses = 1
	}
	return weight.Mul(decimal.NewFromFloat(c.MaxDailyPerKg)).Div(decimal.NewFromFloat(doses))
}

func (r Rule) render(template string, ev evaluation) string {
	maxDose := ""
	if ev.hasWeight && r.RecommendPerKg > 0 {
		maxDose = ev.weight.Mul(decimal.NewFromFloat(r.RecommendPerKg)).String()
	}
	age := ""
	if ev.hasAge {
		age = strconv.Itoa(ev.age)
	}
	weight := ""
	if ev.hasWeight {
		weight = ev.weight.String()
	}
	replacer := strings.NewReplacer(
		"{weight}", weight,
		"{age}", age,
		"{dose}", ev.dose.String(),
		"{dose_unit}", ev.dose.Unit,
		"{strength}", ev.strength.String(),
		"{strength_unit}", ev.strength.Unit,
		"{max_dose}", maxDose,
	)
	return replacer.Replace(template)
}

var defaultEngine = NewEngine(nil)

// Verify runs the default rule table.
func Verify(med Medication, dosageText string, patient Patient) Result {
	return defaultEngine.Verify(med, dosageText, patient)
}
