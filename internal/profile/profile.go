package profile

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-gota/gota/dataframe"

	"carsclean/internal/cleaning"
	"carsclean/internal/logger"
	"carsclean/internal/table"
)

type ColumnCount struct {
	Column string
	Count  int
}

// Summary is the set of diagnostics taken from a table.
type Summary struct {
	Rows     int
	Cols     int
	Columns  []string
	Missing  []ColumnCount
	Head     [][]string
	Describe string
}

func Build(t *table.Table, headRows int) Summary {
	s := Summary{
		Rows:    t.Len(),
		Cols:    len(t.Columns),
		Columns: append([]string(nil), t.Columns...),
	}
	for i, c := range t.Columns {
		n := 0
		for _, r := range t.Rows {
			if r[i].IsMissing() {
				n++
			}
		}
		s.Missing = append(s.Missing, ColumnCount{Column: c, Count: n})
	}
	recs := t.Records()
	for i := 1; i < len(recs) && i <= headRows; i++ {
		s.Head = append(s.Head, recs[i])
	}
	if d, err := Describe(t); err == nil {
		s.Describe = d
	} else {
		s.Describe = err.Error()
	}
	return s
}

// Describe renders per-column statistics (mean, median, stddev, min,
// quartiles, max) of t.
func Describe(t *table.Table) (string, error) {
	if t.Len() == 0 {
		return "", fmt.Errorf("describe: no rows")
	}
	recs := t.Records()
	for i, r := range t.Rows {
		for j, v := range r {
			if v.IsMissing() {
				recs[i+1][j] = "NaN"
			}
		}
	}
	df := dataframe.LoadRecords(recs,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues([]string{"NaN"}),
	)
	if df.Err != nil {
		return "", fmt.Errorf("describe: %w", df.Err)
	}
	desc := df.Describe()
	if desc.Err != nil {
		return "", fmt.Errorf("describe: %w", desc.Err)
	}
	return desc.String(), nil
}

// Log writes the diagnostics of s at info level.
func Log(l logger.Logger, s Summary) {
	l.Info("dataset shape", "rows", s.Rows, "columns", s.Cols)
	l.Info("descriptive statistics", "describe", s.Describe)
	for i, r := range s.Head {
		l.Info("head", "row", i, "values", strings.Join(r, " | "))
	}
	kv := make([]any, 0, 2*len(s.Missing))
	for _, m := range s.Missing {
		kv = append(kv, m.Column, m.Count)
	}
	l.Info("missing values per column", kv...)
	l.Info("columns", "names", strings.Join(s.Columns, ", "))
}

// LogReport writes the outcome of a cleaning run at info level.
func LogReport(l logger.Logger, rep cleaning.Report) {
	l.Info("cleaned dataset",
		"rows_in", rep.RowsIn,
		"rows_out", rep.RowsOut,
		"duplicates_dropped", rep.DuplicatesDropped,
	)
	for _, col := range sortedKeys(rep.Unparsed) {
		l.Info("unparsed numeric cells", "column", col, "count", rep.Unparsed[col])
	}
	for _, imp := range rep.Imputed {
		l.Info("imputed missing values", "column", imp.Column, "count", imp.Count, "value", imp.Value.String())
	}
}

// Markdown renders a profiling and cleaning report for the raw and cleaned
// tables.
func Markdown(source string, raw Summary, rep cleaning.Report, cleaned *table.Table) string {
	lines := []string{
		"# Cars dataset profiling + cleaning report",
		"",
		fmt.Sprintf("Source: `%s`", source),
		"",
		"## Dataset shape",
		fmt.Sprintf("- Source rows read: %s", fmtInt(raw.Rows)),
		fmt.Sprintf("- Columns: %s", fmtInt(raw.Cols)),
		fmt.Sprintf("- Clean rows written: %s", fmtInt(rep.RowsOut)),
		fmt.Sprintf("- Duplicate rows dropped: %s", fmtInt(rep.DuplicatesDropped)),
		"",
		"## Columns",
	}
	for _, c := range raw.Columns {
		lines = append(lines, fmt.Sprintf("- `%s`", c))
	}
	lines = append(lines, "")

	lines = append(lines, "## Missingness before cleaning")
	misses := append([]ColumnCount(nil), raw.Missing...)
	sort.SliceStable(misses, func(i, j int) bool { return misses[i].Count > misses[j].Count })
	for _, m := range misses {
		lines = append(lines, fmt.Sprintf("- `%s`: %s (%.1f%%)", m.Column, fmtInt(m.Count), safeDiv(float64(m.Count)*100, float64(raw.Rows))))
	}
	lines = append(lines, "")

	if raw.Describe != "" {
		lines = append(lines, "## Descriptive statistics (raw)", "", "```", raw.Describe, "```", "")
	}

	lines = append(lines, "## Numeric parsing")
	if len(rep.Unparsed) == 0 {
		lines = append(lines, "- All non-empty numeric cells parsed")
	}
	for _, col := range sortedKeys(rep.Unparsed) {
		lines = append(lines, fmt.Sprintf("- `%s`: %s cells unparsed", col, fmtInt(rep.Unparsed[col])))
	}
	lines = append(lines, "")

	lines = append(lines, "## Imputation")
	for _, imp := range rep.Imputed {
		lines = append(lines, fmt.Sprintf("- `%s`: %s cells filled with %s", imp.Column, fmtInt(imp.Count), imp.Value.String()))
	}
	lines = append(lines, "")

	lines = append(lines, "## Numeric summaries (cleaned)")
	for _, col := range append(append([]string(nil), cleaning.NumericColumns...), cleaning.RangeColumns...) {
		vals, err := cleaned.Column(col)
		if err != nil {
			continue
		}
		nums := gatherNums(vals)
		if len(nums) == 0 {
			continue
		}
		sort.Float64s(nums)
		med, _ := cleaning.Median(vals)
		lines = append(lines, fmt.Sprintf("- `%s`: count=%s, min=%s, median=%s, mean=%s, max=%s",
			col, fmtInt(len(nums)), fmt4g(nums[0]), fmt4g(med), fmt4g(mean(nums)), fmt4g(nums[len(nums)-1]),
		))
	}
	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func gatherNums(vals []table.Value) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if f, ok := v.Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

func sortedKeys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func fmtInt(v int) string { return humanize.Comma(int64(v)) }

func fmt4g(v float64) string { return strconv.FormatFloat(v, 'g', 4, 64) }

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
