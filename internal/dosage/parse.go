package dosage

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	quantityWithUnitRe = regexp.MustCompile(`^(\d+\.?\d*)\s*([a-z]+)`)
	bareQuantityRe     = regexp.MustCompile(`^(\d+\.?\d*)`)
)

// Quantity is a parsed dosage or strength expression. Unit is empty when the
// text carried only a number.
type Quantity struct {
	Value float64
	Unit  string
}

// HasUnit reports whether a unit token was present.
func (q Quantity) HasUnit() bool {
	return q.Unit != ""
}

// String renders the quantity without float noise, e.g. "12.5 mg".
func (q Quantity) String() string {
	value := decimal.NewFromFloat(q.Value).String()
	if q.Unit == "" {
		return value
	}
	return value + " " + q.Unit
}

// ParseDosage extracts a leading number and optional alphabetic unit from
// free text: "10mg" gives (10, "mg"), "2 tablets" gives (2, "tablets") and
// "500" gives (500, ""). Text without a numeric prefix reports false.
func ParseDosage(text string) (Quantity, bool) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return Quantity{}, false
	}

	if m := quantityWithUnitRe.FindStringSubmatch(normalized); m != nil {
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Quantity{}, false
		}
		return Quantity{Value: value, Unit: m[2]}, true
	}

	if m := bareQuantityRe.FindStringSubmatch(normalized); m != nil {
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Quantity{}, false
		}
		return Quantity{Value: value}, true
	}

	return Quantity{}, false
}

// CalculateAge returns whole years between birth and ref, counting the
// current year only once the birthday has been reached. A birth date after
// ref yields an unknown age.
func CalculateAge(birth *time.Time, ref time.Time) (int, bool) {
	if birth == nil || birth.IsZero() || birth.After(ref) {
		return 0, false
	}
	age := ref.Year() - birth.Year()
	if ref.Month() < birth.Month() || (ref.Month() == birth.Month() && ref.Day() < birth.Day()) {
		age--
	}
	return age, true
}
