package regression

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ferntree/core/model"
)

func TestArchetypeDatasetShape(t *testing.T) {
	ds, err := ArchetypeDataset()
	require.NoError(t, err)
	assert.Equal(t, 27, ds.Len())
	for i := range ds.X {
		assert.Len(t, ds.X[i], DefaultFeatures)
		assert.Len(t, ds.Y[i], DefaultOutputs)
	}
}

func TestReadDatasetColumnMismatch(t *testing.T) {
	data := "yoc,area,renov,a\n1950,120,1,2.0\n"
	_, err := ReadDataset(strings.NewReader(data), 3, 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrConfig))
}

func TestReadDatasetBadNumber(t *testing.T) {
	data := "a,b\n1,x\n"
	_, err := ReadDataset(strings.NewReader(data), 1, 1)
	assert.ErrorIs(t, err, model.ErrConfig)
}

func TestReadDatasetHeaderOnly(t *testing.T) {
	_, err := ReadDataset(strings.NewReader("a,b\n"), 1, 1)
	assert.ErrorIs(t, err, model.ErrConfig)
}

func TestExpandDeterministic(t *testing.T) {
	ds, err := ArchetypeDataset()
	require.NoError(t, err)
	ex, err := Expand(ds)
	require.NoError(t, err)
	// 1850..2001 inclusive, three renovation variants per year.
	assert.Equal(t, 152*3, ex.Len())

	again, err := Expand(ds)
	require.NoError(t, err)
	assert.Equal(t, ex, again)

	cases := []struct {
		row  int
		year float64
		src  int
	}{
		{0, 1850, 0},
		{2, 1850, 2},
		{(1859 - 1850) * 3, 1859, 0},
		{(1860 - 1850) * 3, 1860, 3},
		{(1919-1850)*3 + 1, 1919, 7},
		{(2001-1850)*3 + 2, 2001, 26},
	}
	for _, c := range cases {
		assert.Equal(t, c.year, ex.X[c.row][0], "row %d year", c.row)
		assert.Equal(t, ds.X[c.src][1:], ex.X[c.row][1:], "row %d features", c.row)
		assert.Equal(t, ds.Y[c.src], ex.Y[c.row], "row %d outputs", c.row)
	}
}

func TestExpandRejectsWrongShape(t *testing.T) {
	ds := Dataset{X: [][]float64{{1, 2, 3}}, Y: [][]float64{{1}}}
	_, err := Expand(ds)
	assert.ErrorIs(t, err, ErrDatasetShape)
}
