package normalization

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var nullTokens = map[string]struct{}{
	"-": {}, "--": {}, "n/a": {}, "na": {}, "none": {}, "null": {}, "nil": {},
}

var unitSuffixes = []string{"years", "year", "yrs", "yr", "y"}

func isNullToken(s string) bool {
	_, ok := nullTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// ParseDecimal coerces a free-form numeric cell such as "3.5 yrs", "2+" or
// "1,5" into a decimal. Blank and n/a-like values are null. Negative values
// are rejected.
func ParseDecimal(raw string) (decimal.NullDecimal, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" || isNullToken(s) {
		return decimal.NullDecimal{}, nil
	}
	for _, suffix := range unitSuffixes {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
			break
		}
	}
	s = strings.ReplaceAll(s, "+", "")
	s = strings.Join(strings.Fields(s), "")
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") || strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	}
	if s == "" {
		return decimal.NullDecimal{}, fmt.Errorf("not a number: %q", raw)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("not a number: %q", raw)
	}
	if d.IsNegative() {
		return decimal.NullDecimal{}, fmt.Errorf("negative value not allowed: %q", raw)
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

// ParseInt accepts whole numbers only, including "3.0".
func ParseInt(raw string) (*int, error) {
	d, err := ParseDecimal(raw)
	if err != nil || !d.Valid {
		return nil, err
	}
	if !d.Decimal.Equal(d.Decimal.Truncate(0)) {
		return nil, fmt.Errorf("not a whole number: %q", raw)
	}
	n := int(d.Decimal.IntPart())
	return &n, nil
}

// ParseBool accepts yes/no style spellings. Blank is ok=false.
func ParseBool(raw string) (value bool, ok bool, err error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return false, false, nil
	case "y", "yes", "true", "t", "1", "x":
		return true, true, nil
	case "n", "no", "false", "f", "0":
		return false, true, nil
	default:
		return false, false, fmt.Errorf("not a boolean: %q", raw)
	}
}

var proficiencyLevels = map[string]int{
	"beginner":     1,
	"novice":       1,
	"basic":        1,
	"intermediate": 2,
	"working":      2,
	"advanced":     3,
	"proficient":   3,
	"expert":       4,
	"master":       4,
}

// ProficiencyLevel maps a proficiency label onto the 1-4 scale. Whole
// numbers 0-5, "4.0" included, pass through unchanged.
func ProficiencyLevel(label string) (int, bool) {
	s := NormalizeName(label)
	if s == "" {
		return 0, false
	}
	if n, err := ParseInt(s); err == nil && n != nil {
		if *n <= 5 {
			return *n, true
		}
		return 0, false
	}
	if lvl, ok := proficiencyLevels[s]; ok {
		return lvl, true
	}
	for _, word := range strings.Fields(s) {
		if lvl, ok := proficiencyLevels[word]; ok {
			return lvl, true
		}
	}
	return 0, false
}
