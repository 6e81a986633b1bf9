package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinspace(t *testing.T) {
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, Linspace(0., 1., 5))
	assert.Equal(t, []float64{3}, Linspace(3., 7., 1))
	assert.Nil(t, Linspace(0., 1., 0))
}

func TestSearchSorted(t *testing.T) {
	edges := []float64{0, 1, 2, 3}
	cases := map[float64]int{
		-1:  0,
		0:   0,
		0.5: 0,
		1:   1,
		2.9: 2,
		3:   2,
		10:  2,
	}
	for x, want := range cases {
		assert.Equal(t, want, SearchSorted(edges, x), "x = %v", x)
	}
}

func TestMeanAndVariance(t *testing.T) {
	mean, variance := MeanAndVariance([]int{1, 2, 3, 4}, true)
	assert.InDelta(t, 2.5, mean, 1e-15)
	assert.InDelta(t, 5./3., variance, 1e-15)

	mean, variance = MeanAndVariance([]float64{7}, true)
	assert.Equal(t, 7., mean)
	assert.Zero(t, variance)
}

func TestReadFloatPairs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.txt")
	require.NoError(t, os.WriteFile(path, []byte("# keV MeV cm2/g\n10 19.0\n\n12.5 16.63\n"), 0600))

	pairs, err := ReadFloatPairs(path)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{10, 19.0}, {12.5, 16.63}}, pairs)

	require.NoError(t, os.WriteFile(path, []byte("1 2 3\n"), 0600))
	_, err = ReadFloatPairs(path)
	assert.Error(t, err)
}

func TestWriteAsCSVNaturalOrder(t *testing.T) {
	dir := OutputPath(t.TempDir())
	data := CSV{{"model10", "b"}, {"model2", "a"}, {"model1", "c"}}
	require.NoError(t, WriteAsCSV(data, false, dir, "summary", "runs", []string{"model", "value"}))

	content, err := os.ReadFile(dir + "runs_summary.csv")
	require.NoError(t, err)
	assert.Equal(t, "model,value\nmodel1,c\nmodel2,a\nmodel10,b\n", string(content))
}

func TestFilePath(t *testing.T) {
	dir := OutputPath(t.TempDir())

	flat, err := FilePath(false, dir, "flux", "air", "csv")
	require.NoError(t, err)
	assert.Equal(t, dir+"air_flux.csv", flat)
	assert.NoDirExists(t, dir+"flux")

	nested, err := FilePath(true, dir, "flux", "air", "csv")
	require.NoError(t, err)
	assert.Equal(t, dir+"flux/air.csv", nested)
	assert.DirExists(t, dir+"flux")
}
