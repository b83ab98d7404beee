package table

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Latin1AndMissingTokens(t *testing.T) {
	// 0x96 is an en dash in cp1252 and decodes to U+0096 under Latin-1; 0xE9 is é.
	src := []byte("Company Names,Cars Prices,Notes\r\nCitro\xe9n,\"$12,000\x96$15,000\",NA\r\n,N/A,ok\r\n")

	tbl, err := Decode(bytes.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, []string{"Company Names", "Cars Prices", "Notes"}, tbl.Columns)
	require.Equal(t, 2, tbl.Len())

	assert.Equal(t, TextValue("Citroén"), tbl.Rows[0][0])
	assert.Equal(t, TextValue("$12,000\u0096$15,000"), tbl.Rows[0][1])
	assert.True(t, tbl.Rows[0][2].IsMissing())
	assert.True(t, tbl.Rows[1][0].IsMissing())
	assert.True(t, tbl.Rows[1][1].IsMissing())
	assert.Equal(t, TextValue("ok"), tbl.Rows[1][2])
}

func TestDecode_PadsShortRowsAndStripsBOM(t *testing.T) {
	src := []byte("\xef\xbb\xbfa,b,c\n1,2\n")
	tbl, err := Decode(bytes.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, tbl.Columns)
	require.Len(t, tbl.Rows, 1)
	assert.True(t, tbl.Rows[0][2].IsMissing())
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode(strings.NewReader("a,b\n1,2,3\n"))
	require.Error(t, err)

	_, err = Decode(strings.NewReader(""))
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_Fixture(t *testing.T) {
	tbl, err := Load(filepath.Join("..", "..", "testdata", "cars_sample.csv"))
	require.NoError(t, err)
	assert.Len(t, tbl.Columns, 11)
	assert.Equal(t, 9, tbl.Len())
}

func TestRequire(t *testing.T) {
	tbl := New([]string{"a", "b"})
	require.NoError(t, tbl.Require("a", "b"))

	err := tbl.Require("a", "Torque")
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), `"Torque"`)
}

func TestMapColumn_LeavesSourceUntouched(t *testing.T) {
	tbl := New([]string{"a", "b"})
	tbl.Append([]Value{TextValue("x"), TextValue("y")})

	out, err := tbl.MapColumn("b", func(v Value) Value { return TextValue(v.Str + "!") })
	require.NoError(t, err)
	assert.Equal(t, "y!", out.Rows[0][1].Str)
	assert.Equal(t, "y", tbl.Rows[0][1].Str)

	_, err = tbl.MapColumn("c", func(v Value) Value { return v })
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestValueString_PythonFloatRepr(t *testing.T) {
	cases := map[float64]string{
		45000:    "45000.0",
		1300:     "1300.0",
		2.5:      "2.5",
		1000000:  "1000000.0",
		1e16:     "1e+16",
		0.0001:   "0.0001",
		0.00001:  "1e-05",
		-12.75:   "-12.75",
		0:        "0.0",
		123456.5: "123456.5",
	}
	for in, want := range cases {
		assert.Equal(t, want, NumberValue(in).String(), "value %v", in)
	}
}

func TestNumberValue_NonFiniteIsMissing(t *testing.T) {
	var zero float64
	assert.True(t, NumberValue(zero/zero).IsMissing())
	assert.True(t, NumberValue(1/zero).IsMissing())
}

func TestEncode_QuotingAndMissing(t *testing.T) {
	tbl := New([]string{"name", "price", "note"})
	tbl.Append([]Value{TextValue("Mercedes, Benz"), NumberValue(45000), MissingValue()})
	tbl.Append([]Value{TextValue(`5"`), MissingValue(), TextValue("Unknown")})

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, tbl))
	want := "name,price,note\n" +
		"\"Mercedes, Benz\",45000.0,\n" +
		"\"5\"\"\",,Unknown\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "cleaned.csv")

	tbl := New([]string{"a", "b"})
	tbl.Append([]Value{TextValue("Ferrari"), NumberValue(650)})
	require.NoError(t, WriteCSV(path, tbl))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\nFerrari,650.0\n", string(b))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file left behind")
}
