package table

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMissingColumn is returned when a column is looked up by a name the
// table does not carry.
var ErrMissingColumn = errors.New("missing column")

type Kind uint8

const (
	Missing Kind = iota
	Text
	Number
)

// Value is a single cell. The zero Value is missing.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
}

func MissingValue() Value { return Value{} }

func TextValue(s string) Value { return Value{Kind: Text, Str: s} }

// NumberValue returns a numeric cell; NaN and infinities are stored as missing.
func NumberValue(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{Kind: Number, Num: f}
}

func (v Value) IsMissing() bool { return v.Kind == Missing }

func (v Value) Float() (float64, bool) {
	if v.Kind != Number {
		return 0, false
	}
	return v.Num, true
}

// String renders the cell the way it is written to CSV.
func (v Value) String() string {
	switch v.Kind {
	case Text:
		return v.Str
	case Number:
		return pythonLikeFloatString(v.Num)
	default:
		return ""
	}
}

// Key identifies the cell for equality checks across rows.
func (v Value) Key() string {
	switch v.Kind {
	case Text:
		return "s" + v.Str
	case Number:
		return "f" + strconv.FormatFloat(v.Num, 'g', -1, 64)
	default:
		return "-"
	}
}

// Table is an ordered set of named columns over ordered rows. Every row has
// exactly len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]Value
}

func New(columns []string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

func (t *Table) Len() int { return len(t.Rows) }

func (t *Table) Index(name string) (int, error) {
	for i, c := range t.Columns {
		if c == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrMissingColumn, name)
}

// Require fails on the first name that is not a column of t.
func (t *Table) Require(names ...string) error {
	for _, n := range names {
		if _, err := t.Index(n); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) Append(row []Value) {
	rec := make([]Value, len(t.Columns))
	copy(rec, row)
	t.Rows = append(t.Rows, rec)
}

func (t *Table) Clone() *Table {
	out := New(t.Columns)
	out.Rows = make([][]Value, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = append([]Value(nil), r...)
	}
	return out
}

// Column returns a copy of the named column's cells.
func (t *Table) Column(name string) ([]Value, error) {
	idx, err := t.Index(name)
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[idx]
	}
	return out, nil
}

// MapColumn returns a copy of t with fn applied to every cell of the named
// column. t itself is left untouched.
func (t *Table) MapColumn(name string, fn func(Value) Value) (*Table, error) {
	idx, err := t.Index(name)
	if err != nil {
		return nil, err
	}
	out := t.Clone()
	for _, r := range out.Rows {
		r[idx] = fn(r[idx])
	}
	return out, nil
}

// Records renders the header and every row as strings.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, append([]string(nil), t.Columns...))
	for _, r := range t.Rows {
		rec := make([]string, len(r))
		for i, v := range r {
			rec[i] = v.String()
		}
		out = append(out, rec)
	}
	return out
}

func pythonLikeFloatString(f float64) string {
	switch {
	case math.IsNaN(f):
		return ""
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	// Python's repr(float) switches to exponent notation outside [1e-4, 1e16).
	if abs := math.Abs(f); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
