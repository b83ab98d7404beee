package cleaning

import (
	"fmt"
	"strconv"
	"strings"

	"carsclean/internal/table"
)

const (
	ColCompany     = "Company Names"
	ColModel       = "Cars Names"
	ColEngine      = "Engines"
	ColSpeed       = "Total Speed"
	ColPerformance = "Performance(0 - 100 )KM/H"
	ColCapacity    = "CC/Battery Capacity"
	ColPrice       = "Cars Prices"
	ColHorsePower  = "HorsePower"
	ColTorque      = "Torque"
)

// Unknown replaces missing capacity cells. Capacity is engine displacement
// for combustion cars and battery size for electric ones, so no median over
// the column is meaningful.
const Unknown = "Unknown"

var (
	RequiredColumns = []string{
		ColCompany, ColModel, ColEngine, ColSpeed, ColPerformance,
		ColCapacity, ColPrice, ColHorsePower, ColTorque,
	}
	TextColumns    = []string{ColCompany, ColModel, ColEngine}
	NumericColumns = []string{ColSpeed, ColPerformance, ColCapacity}
	RangeColumns   = []string{ColTorque, ColPrice, ColHorsePower}
	MedianColumns  = []string{ColPrice, ColTorque, ColPerformance}
)

// Imputation records how missing cells of one column were filled.
type Imputation struct {
	Column string
	Count  int
	Value  table.Value
}

// Report summarizes a Clean run.
type Report struct {
	RowsIn            int
	RowsOut           int
	DuplicatesDropped int
	// Unparsed counts, per column, the non-missing cells that numeric
	// parsing turned into missing values.
	Unparsed map[string]int
	Imputed  []Imputation
}

// Step is one stage of the cleaning pipeline. It returns a new table and
// never modifies its input.
type Step struct {
	Name string
	Run  func(*table.Table, *Report) (*table.Table, error)
}

func Steps() []Step {
	return []Step{
		{Name: "normalize text", Run: normalizeTextColumns},
		{Name: "extract numbers", Run: extractNumberColumns},
		{Name: "clean prices", Run: cleanText(ColPrice, PriceRules)},
		{Name: "clean horsepower", Run: cleanText(ColHorsePower, HorsePowerRules)},
		{Name: "clean torque", Run: cleanText(ColTorque, TorqueRules)},
		{Name: "resolve ranges", Run: resolveRanges},
		{Name: "impute missing", Run: imputeMissing},
		{Name: "drop duplicates", Run: dropDuplicates},
	}
}

// Clean runs every step over src and returns the cleaned table. src is not
// modified. A required column absent from src fails before any step runs.
func Clean(src *table.Table) (*table.Table, Report, error) {
	if err := src.Require(RequiredColumns...); err != nil {
		return nil, Report{}, err
	}
	rep := Report{RowsIn: src.Len(), Unparsed: map[string]int{}}
	t := src
	for _, s := range Steps() {
		next, err := s.Run(t, &rep)
		if err != nil {
			return nil, Report{}, fmt.Errorf("%s: %w", s.Name, err)
		}
		t = next
	}
	rep.RowsOut = t.Len()
	return t, rep, nil
}

func mapColumns(t *table.Table, cols []string, fn func(col string) func(table.Value) table.Value) (*table.Table, error) {
	for _, col := range cols {
		next, err := t.MapColumn(col, fn(col))
		if err != nil {
			return nil, err
		}
		t = next
	}
	return t, nil
}

func normalizeTextColumns(t *table.Table, _ *Report) (*table.Table, error) {
	return mapColumns(t, TextColumns, func(string) func(table.Value) table.Value {
		return NormalizeText
	})
}

// countUnparsed wraps fn so that cells turned from present to missing are
// tallied against col.
func countUnparsed(rep *Report, col string, fn func(table.Value) table.Value) func(table.Value) table.Value {
	return func(v table.Value) table.Value {
		out := fn(v)
		if !v.IsMissing() && out.IsMissing() {
			rep.Unparsed[col]++
		}
		return out
	}
}

func extractNumberColumns(t *table.Table, rep *Report) (*table.Table, error) {
	return mapColumns(t, NumericColumns, func(col string) func(table.Value) table.Value {
		return countUnparsed(rep, col, ExtractNumber)
	})
}

func cleanText(col string, rs RuleSet) func(*table.Table, *Report) (*table.Table, error) {
	return func(t *table.Table, _ *Report) (*table.Table, error) {
		return t.MapColumn(col, applyRules(rs))
	}
}

func resolveRanges(t *table.Table, rep *Report) (*table.Table, error) {
	return mapColumns(t, RangeColumns, func(col string) func(table.Value) table.Value {
		return countUnparsed(rep, col, resolveRangeValue)
	})
}

func imputeMissing(t *table.Table, rep *Report) (*table.Table, error) {
	for _, col := range MedianColumns {
		vals, err := t.Column(col)
		if err != nil {
			return nil, err
		}
		m, ok := Median(vals)
		if !ok {
			continue
		}
		next, err := fillMissing(t, rep, col, table.NumberValue(m))
		if err != nil {
			return nil, err
		}
		t = next
	}
	return fillMissing(t, rep, ColCapacity, table.TextValue(Unknown))
}

func fillMissing(t *table.Table, rep *Report, col string, fill table.Value) (*table.Table, error) {
	n := 0
	out, err := t.MapColumn(col, func(v table.Value) table.Value {
		if v.IsMissing() {
			n++
			return fill
		}
		return v
	})
	if err != nil {
		return nil, err
	}
	rep.Imputed = append(rep.Imputed, Imputation{Column: col, Count: n, Value: fill})
	return out, nil
}

// dropDuplicates keeps the first of every group of fully identical rows.
func dropDuplicates(t *table.Table, rep *Report) (*table.Table, error) {
	out := table.New(t.Columns)
	seen := make(map[string]struct{}, t.Len())
	for _, r := range t.Rows {
		key := rowKey(r)
		if _, ok := seen[key]; ok {
			rep.DuplicatesDropped++
			continue
		}
		seen[key] = struct{}{}
		out.Append(r)
	}
	return out, nil
}

// rowKey length-prefixes every cell key so that no cell content can shift
// a boundary between cells.
func rowKey(r []table.Value) string {
	var b strings.Builder
	for _, v := range r {
		k := v.Key()
		b.WriteString(strconv.Itoa(len(k)))
		b.WriteByte(':')
		b.WriteString(k)
	}
	return b.String()
}
