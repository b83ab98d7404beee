package cleaning

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"carsclean/internal/table"
)

// TitleCase upper-cases every cased letter that follows an uncased
// character and lower-cases every other cased letter. A word starting with
// ß starts with "Ss".
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevCased := false
	for _, r := range s {
		switch {
		case prevCased:
			r = unicode.ToLower(r)
		case r == 'ß':
			// Full title case mapping; unicode.ToTitle keeps ß as is.
			b.WriteString("Ss")
			prevCased = true
			continue
		default:
			r = unicode.ToTitle(r)
		}
		b.WriteRune(r)
		prevCased = isCased(r)
	}
	return b.String()
}

func isCased(r rune) bool {
	return unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r) ||
		unicode.In(r, unicode.Other_Lowercase, unicode.Other_Uppercase)
}

// NormalizeText coerces v to text, title-cases it and strips surrounding
// whitespace. Missing cells come out as "Nan".
func NormalizeText(v table.Value) table.Value {
	s := v.String()
	if v.IsMissing() {
		s = "nan"
	}
	return table.TextValue(strip(TitleCase(s)))
}

// ExtractNumber drops commas and reads the first run of digits as a float.
func ExtractNumber(v table.Value) table.Value {
	if v.Kind != table.Text {
		return table.MissingValue()
	}
	m := reDigits.FindString(strings.ReplaceAll(v.Str, ",", ""))
	if m == "" {
		return table.MissingValue()
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return table.MissingValue()
	}
	return table.NumberValue(f)
}

// ResolveRange reads s as a single number or as an inclusive "A-B" range,
// which resolves to its midpoint. Anything else reports false.
func ResolveRange(s string) (float64, bool) {
	s = RangeResidueRules.Apply(DashRules.Apply(s))

	var nums []float64
	for _, p := range strings.Split(s, "-") {
		p = strip(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, false
		}
		nums = append(nums, f)
	}
	switch len(nums) {
	case 1:
		return nums[0], true
	case 2:
		return (nums[0] + nums[1]) / 2, true
	default:
		return 0, false
	}
}

func resolveRangeValue(v table.Value) table.Value {
	if v.Kind != table.Text {
		return table.MissingValue()
	}
	f, ok := ResolveRange(v.Str)
	if !ok {
		return table.MissingValue()
	}
	return table.NumberValue(f)
}

func applyRules(rs RuleSet) func(table.Value) table.Value {
	return func(v table.Value) table.Value {
		if v.Kind != table.Text {
			return v
		}
		return table.TextValue(rs.Apply(v.Str))
	}
}

// Median returns the median of the numeric cells, ignoring everything else.
func Median(vals []table.Value) (float64, bool) {
	nums := make([]float64, 0, len(vals))
	for _, v := range vals {
		if f, ok := v.Float(); ok {
			nums = append(nums, f)
		}
	}
	if len(nums) == 0 {
		return 0, false
	}
	sort.Float64s(nums)
	return median(nums), true
}

func median(xs []float64) float64 {
	n := len(xs)
	if n%2 == 1 {
		return xs[n/2]
	}
	return (xs[n/2-1] + xs[n/2]) / 2
}
