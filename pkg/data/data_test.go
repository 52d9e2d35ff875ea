package data

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInfersKinds(t *testing.T) {
	in := "Id,LotArea,Street,Alley\n1,8450,Pave,NA\n2,,Grvl,\n3,11250,Pave,Grvl\n"
	f, err := Parse(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, 3, f.Rows())
	assert.Equal(t, []string{"Id", "LotArea", "Street", "Alley"}, f.Columns())

	lot, ok := f.Column("LotArea")
	require.True(t, ok)
	assert.Equal(t, Numeric, lot.Kind)
	assert.True(t, math.IsNaN(lot.Num[1]))
	assert.Equal(t, 11250.0, lot.Num[2])

	street, _ := f.Column("Street")
	assert.Equal(t, Categorical, street.Kind)

	// A column holding only missing tokens and one label stays categorical.
	alley, _ := f.Column("Alley")
	assert.Equal(t, Categorical, alley.Kind)
	assert.Equal(t, []bool{true, true, false}, alley.Missing)
}

func TestParseColumnKinds(t *testing.T) {
	in := "Flag,Empty,Price,,Note\ntrue,,1.5,7,a\nfalse,NA,,8,\n"
	f, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"Flag", "Empty", "Price", "", "Note"}, f.Columns())

	flag, _ := f.Column("Flag")
	assert.Equal(t, Numeric, flag.Kind)
	assert.Equal(t, []float64{1, 0}, flag.Num)

	empty, _ := f.Column("Empty")
	assert.Equal(t, Numeric, empty.Kind)
	assert.True(t, math.IsNaN(empty.Num[0]) && math.IsNaN(empty.Num[1]))

	price, _ := f.Column("Price")
	assert.Equal(t, 1.5, price.Num[0])
	assert.True(t, math.IsNaN(price.Num[1]))

	blank, _ := f.Column("")
	assert.Equal(t, []float64{7, 8}, blank.Num)

	note, _ := f.Column("Note")
	assert.Equal(t, Categorical, note.Kind)
	assert.Equal(t, []bool{false, true}, note.Missing)
}

func TestParseHeaderOnly(t *testing.T) {
	f, err := Parse(strings.NewReader("Id,LotArea\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, f.Rows())
	assert.Equal(t, []string{"Id", "LotArea"}, f.Columns())
	X, err := f.Matrix("LotArea")
	require.NoError(t, err)
	assert.Empty(t, X)
}

func TestFrameFreeName(t *testing.T) {
	f, err := Parse(strings.NewReader("a,a.1\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, "b", f.FreeName("b"))
	assert.Equal(t, "a.2", f.FreeName("a"))
}

func TestParseRejectsRaggedRows(t *testing.T) {
	_, err := Parse(strings.NewReader("a,b\n1,2\n3\n"))
	require.Error(t, err)
}

func TestParseEmptyInput(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	require.ErrorIs(t, err, ErrEmptyHeader)
}

func TestParseDuplicateHeaders(t *testing.T) {
	f, err := Parse(strings.NewReader("a,a,a\n1,2,3\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a.1", "a.2"}, f.Columns())
}

func TestReadCSVMissingFile(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, IsNotExist(err))
}

func TestFrameDropAndSelect(t *testing.T) {
	f, err := Parse(strings.NewReader("Id,SalePrice,LotArea\n1,200000,8000\n2,250000,9600\n"))
	require.NoError(t, err)

	assert.True(t, f.DropIfPresent("Id"))
	assert.False(t, f.DropIfPresent("Id"))
	assert.Equal(t, []string{"SalePrice", "LotArea"}, f.Columns())

	sel, err := f.Select("LotArea")
	require.NoError(t, err)
	X, err := sel.Matrix("LotArea")
	require.NoError(t, err)
	if diff := cmp.Diff([][]float64{{8000}, {9600}}, X); diff != "" {
		t.Errorf("Matrix mismatch (-want +got):\n%s", diff)
	}

	// Select copies, the source is untouched.
	sel.ColumnAt(0).Num[0] = 1
	lot, _ := f.Floats("LotArea")
	assert.Equal(t, 8000.0, lot[0])

	_, err = f.Select("GrLivArea")
	require.ErrorIs(t, err, ErrNoColumn)
	require.ErrorIs(t, f.Drop("GrLivArea"), ErrNoColumn)
}

func TestFrameHead(t *testing.T) {
	f, err := Parse(strings.NewReader("x,y\n1,a\n2,b\n3,c\n"))
	require.NoError(t, err)
	h := f.Head(2)
	assert.Equal(t, 2, h.Rows())
	assert.Equal(t, "b", h.Cell(1, "y"))
	assert.Equal(t, "2.0", h.Cell(1, "x"))
	assert.Equal(t, 3, f.Head(10).Rows())
}

func TestWritePredictions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale\n1\n2\n3\n"), 0o644))

	require.NoError(t, WritePredictions(path, "Predicted Sale Price", []float64{231250, 180000.5}))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Predicted Sale Price\n231250.0\n180000.5\n", string(got))
}

func TestWritePredictionsNonFinite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.csv")
	require.NoError(t, WritePredictions(path, "Price, USD", []float64{1, math.NaN(), math.Inf(1), math.Inf(-1)}))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\"Price, USD\"\n1.0\n\"\"\ninf\n-inf\n", string(got))

	// Every value keeps its row when read back.
	back, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 4, back.Rows())
}
