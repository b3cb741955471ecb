package dosage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

var (
	ibuprofen     = Medication{Name: "Ibuprofen", GenericName: "Ibuprofen", Strength: "200mg"}
	acetaminophen = Medication{Name: "Acetaminophen", GenericName: "Paracetamol", Strength: "500mg"}
	aspirin       = Medication{Name: "Aspirin", GenericName: "Acetylsalicylic acid", Strength: "325mg"}
	warfarin      = Medication{Name: "Warfarin", GenericName: "Warfarin", Strength: "5mg"}
	lisinopril    = Medication{Name: "Lisinopril", GenericName: "Lisinopril", Strength: "10mg"}
)

func TestVerifyUnparseableDosage(t *testing.T) {
	for _, text := range []string{"invalid", "0mg", ""} {
		res := Verify(ibuprofen, text, Patient{})
		assert.False(t, res.IsAppropriate, text)
		assert.Equal(t, []string{unparseableWarning}, res.Warnings, text)
	}
}

func TestVerifyWithinLimits(t *testing.T) {
	res := Verify(ibuprofen, "200mg", Patient{WeightKg: floatPtr(70), AgeYears: intPtr(30)})
	assert.True(t, res.IsAppropriate)
	assert.Empty(t, res.Warnings)
	assert.Empty(t, res.Recommendations)
}

func TestVerifyWeightCeiling(t *testing.T) {
	// 20 kg * 40 mg/kg/day / 4 doses = 200 mg per dose.
	res := Verify(ibuprofen, "400mg", Patient{WeightKg: floatPtr(20)})
	require.False(t, res.IsAppropriate)
	assert.Contains(t, res.Warnings, "Dosage exceeds maximum recommended dose for weight (20 kg)")
	assert.Contains(t, res.Recommendations, "Maximum recommended dose: 200 mg per dose")

	atCeiling := Verify(ibuprofen, "200mg", Patient{WeightKg: floatPtr(20)})
	assert.True(t, atCeiling.IsAppropriate)
}

func TestVerifyAcetaminophenMatchesGenericName(t *testing.T) {
	generic := Medication{Name: "Tylenol", GenericName: "Paracetamol", Strength: "500mg"}
	// 10 kg * 75 / 5 = 150 mg per dose.
	res := Verify(generic, "160mg", Patient{WeightKg: floatPtr(10)})
	require.False(t, res.IsAppropriate)
	assert.Contains(t, res.Recommendations, "Maximum recommended dose: 150 mg per dose")

	ok := Verify(acetaminophen, "150mg", Patient{WeightKg: floatPtr(10)})
	assert.True(t, ok.IsAppropriate)
}

func TestVerifySalicylateChildAlwaysRejected(t *testing.T) {
	for _, text := range []string{"1mg", "81mg", "325mg"} {
		res := Verify(aspirin, text, Patient{AgeYears: intPtr(8)})
		assert.False(t, res.IsAppropriate, text)
		assert.Contains(t, res.Warnings, "Aspirin is not recommended for children under 12 due to risk of Reye's syndrome")
	}

	adult := Verify(aspirin, "325mg", Patient{AgeYears: intPtr(40)})
	assert.True(t, adult.IsAppropriate)
}

func TestVerifyYoungChildIbuprofen(t *testing.T) {
	res := Verify(ibuprofen, "150mg", Patient{AgeYears: intPtr(4)})
	require.False(t, res.IsAppropriate)
	assert.Contains(t, res.Warnings, "Dosage may be too high for a 4-year-old child")

	low := Verify(ibuprofen, "100mg", Patient{AgeYears: intPtr(4)})
	assert.True(t, low.IsAppropriate)

	older := Verify(ibuprofen, "150mg", Patient{AgeYears: intPtr(8)})
	assert.True(t, older.IsAppropriate)
}

func TestVerifyElderlyWarfarinIsAdvisory(t *testing.T) {
	res := Verify(warfarin, "7.5mg", Patient{AgeYears: intPtr(72)})
	assert.True(t, res.IsAppropriate)
	assert.Contains(t, res.Warnings, "Elderly patients may require lower warfarin doses")
	assert.Contains(t, res.Recommendations, "Consider starting with a lower dose and monitoring closely")

	standard := Verify(warfarin, "5mg", Patient{AgeYears: intPtr(72)})
	assert.Empty(t, standard.Warnings)
}

func TestVerifyStrengthMultiple(t *testing.T) {
	res := Verify(lisinopril, "50mg", Patient{})
	require.False(t, res.IsAppropriate)
	assert.Equal(t, []string{"Dosage (50 mg) is more than 4x the standard strength (10 mg)"}, res.Warnings)

	edge := Verify(lisinopril, "40mg", Patient{})
	assert.True(t, edge.IsAppropriate)
}

func TestVerifyUnitMismatchIsAdvisory(t *testing.T) {
	res := Verify(lisinopril, "5ml", Patient{})
	assert.True(t, res.IsAppropriate)
	assert.Equal(t, []string{"Dosage unit (ml) doesn't match medication strength unit (mg)"}, res.Warnings)
}

func TestVerifyChecksAreAdditive(t *testing.T) {
	// 4-year-old, 10 kg: weight ceiling 100 mg, child ceiling 100 mg, 4x strength 800 mg.
	res := Verify(ibuprofen, "900mg", Patient{WeightKg: floatPtr(10), AgeYears: intPtr(4)})
	require.False(t, res.IsAppropriate)
	assert.Len(t, res.Warnings, 3)
	assert.True(t, strings.HasPrefix(res.Warnings[0], "Dosage exceeds maximum recommended dose"))
	assert.Equal(t, "Dosage may be too high for a 4-year-old child", res.Warnings[1])
	assert.True(t, strings.HasPrefix(res.Warnings[2], "Dosage (900 mg)"))
	assert.Equal(t, []string{"ibuprofen_weight_ceiling", "ibuprofen_young_child", "strength_multiple"}, res.RulesFired)
}

func TestEngineAcceptsCustomRules(t *testing.T) {
	engine := NewEngine([]Rule{{
		Name:      "lisinopril_ceiling",
		Patterns:  []string{"lisinopril"},
		Tier:      TierHardFail,
		Condition: Condition{RequireMg: true, DoseAbove: 20},
		Warning:   "Dose {dose} above 20 mg",
	}})

	res := engine.Verify(lisinopril, "30mg", Patient{})
	require.False(t, res.IsAppropriate)
	assert.Equal(t, []string{"Dose 30 mg above 20 mg"}, res.Warnings)

	other := engine.Verify(ibuprofen, "30mg", Patient{})
	assert.True(t, other.IsAppropriate)
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "hard_fail", TierHardFail.String())
	assert.Equal(t, "advisory", TierAdvisory.String())
}
