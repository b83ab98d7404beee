package cleaning

import (
	"regexp"
	"strings"
	"unicode"
)

// Rule rewrites every match of a pattern. Literal rules match the pattern
// text exactly; the others compile it as a regular expression.
type Rule struct {
	Pattern string
	Replace string
	re      *regexp.Regexp
}

func Literal(pattern, replace string) Rule {
	return Rule{Pattern: pattern, Replace: replace}
}

func Regex(pattern, replace string) Rule {
	return Rule{Pattern: pattern, Replace: replace, re: regexp.MustCompile(pattern)}
}

func (r Rule) IsRegex() bool { return r.re != nil }

func (r Rule) Apply(s string) string {
	if r.re != nil {
		return r.re.ReplaceAllLiteralString(s, r.Replace)
	}
	return strings.ReplaceAll(s, r.Pattern, r.Replace)
}

// RuleSet is an ordered list of rules, optionally followed by stripping
// surrounding whitespace.
type RuleSet struct {
	Name  string
	Rules []Rule
	Trim  bool
}

func (rs RuleSet) Apply(s string) string {
	for _, r := range rs.Rules {
		s = r.Apply(s)
	}
	if rs.Trim {
		s = strip(s)
	}
	return s
}

var (
	PriceRules = RuleSet{
		Name: "price",
		Rules: []Rule{
			Literal("$", ""),
			Literal(",", ""),
		},
		Trim: true,
	}

	// HorsePowerRules also drops periods, so "201.5 hp" reads as 2015.
	HorsePowerRules = RuleSet{
		Name: "horsepower",
		Rules: []Rule{
			Literal("hp", ""),
			Literal("HP", ""),
			Literal(",", ""),
			Literal("~", ""),
			Literal(".", ""),
		},
		Trim: true,
	}

	TorqueRules = RuleSet{
		Name: "torque",
		Rules: []Rule{
			Literal("Nm", ""),
			Literal(",", ""),
			Literal("+", ""),
			Regex(`[A-Za-z]`, ""),
			Regex(`[()]`, ""),
		},
		Trim: true,
	}

	// DashRules folds the separators seen between range bounds into "-".
	// U+0096 and U+0080 are cp1252 dash bytes read as Latin-1.
	DashRules = RuleSet{
		Name: "dash",
		Rules: []Rule{
			Literal("\u0096", "-"),
			Literal("/", "-"),
			Literal("\u2013", "-"),
			Literal("\u2014", "-"),
			Literal("\u0080", "-"),
		},
	}

	RangeResidueRules = RuleSet{
		Name: "range residue",
		Rules: []Rule{
			Regex(`[()]`, ""),
			Literal("~", ""),
			Regex(`[A-Za-z]`, ""),
		},
		Trim: true,
	}
)

var reDigits = regexp.MustCompile(`\d+`)

// strip trims whitespace the way Python's str.strip does, which also covers
// the ASCII file/group/record/unit separators.
func strip(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
	})
}
