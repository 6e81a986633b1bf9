package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildstyl3r/remc/internal/constants"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "model")
	require.NoError(t, os.WriteFile(name+".toml", []byte(content), 0o600))
	return name
}

func TestCheckAndUnify(t *testing.T) {
	name := writeConfig(t, `
InputUnits = ["keV", "cm", "kV", "ns"]
OutputUnits = ["MeV"]
Seeds = 20
Horizon = 500
EField = [0, 0, -4]

[Models.dense]
InitialEnergy = 500
Pressure = 101325
Temperature = 273.15

[Models.default]
Seeds = 5
`)
	config, meta, err := LoadConfig(name)
	require.NoError(t, err)
	assert.Equal(t, []string{"keV", "cm", "kV", "ns", "T", "Pa"}, config.InputUnits)

	dense := config.Models["dense"]
	require.NoError(t, dense.CheckAndUnify("dense", &config, &meta))
	assert.Equal(t, 20, dense.Seeds)
	assert.InDelta(t, 5e5, dense.InitialEnergy, 1e-9)
	assert.InDelta(t, 5e-7, dense.Horizon, 1e-20)
	assert.InDeltaSlice(t, []float64{0, 0, -4e5}, dense.EField, 1e-9)
	assert.InDelta(t, 101325/(constants.KBolzmann*273.15), dense.GasDensity, 1e15)
	assert.Equal(t, []float64{0, 0, 1}, dense.InitialDirection)
	assert.Equal(t, 1000, dense.FluxBins)
	assert.True(t, dense.Moller)
	assert.Contains(t, dense.OutputUnits(), "MeV")

	fallback := config.Models["default"]
	require.NoError(t, fallback.CheckAndUnify("default", &config, &meta))
	assert.Equal(t, 5, fallback.Seeds)
	assert.Equal(t, 1e6, fallback.InitialEnergy)
	assert.Equal(t, constants.AirMolecularDensity, fallback.GasDensity)

	// defaults are not shared between models
	fallback.InitialDirection[0] = 7
	assert.Equal(t, 0., dense.InitialDirection[0])
}

func TestCheckAndUnifyRejects(t *testing.T) {
	cases := map[string]string{
		"ambiguity": `
[Models.m]
Pressure = 100
GasDensity = 1e25
`,
		"missing dependency": `
[Models.m]
CrossSectionKinds = ["IONIZATION"]
`,
		"vector length": `
[Models.m]
EField = [1, 2]
`,
		"removal above initial energy": `
[Models.m]
InitialEnergy = 1000
RemovalEnergy = 5000
`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			config, meta, err := LoadConfig(writeConfig(t, content))
			require.NoError(t, err)
			parameters := config.Models["m"]
			assert.ErrorIs(t, parameters.CheckAndUnify("m", &config, &meta), ErrConfig)
		})
	}
}

func TestExampleConfig(t *testing.T) {
	config, meta, err := LoadConfig(filepath.Join("..", "..", "air"))
	require.NoError(t, err)
	require.Len(t, config.Models, 3)
	for name, parameters := range config.Models {
		require.NoError(t, parameters.CheckAndUnify(name, &config, &meta), name)
		if parameters.EField[2] != 0 {
			// avalanche models need a bounded run
			assert.Positive(t, parameters.MaxIterations, name)
			assert.LessOrEqual(t, parameters.Horizon, 1e-7, name)
		}
	}
}

func TestLoadConfigErrors(t *testing.T) {
	_, _, err := LoadConfig(writeConfig(t, `OutputDir = "out"`))
	assert.ErrorIs(t, err, ErrConfig)

	_, _, err = LoadConfig(writeConfig(t, `
InputUnits = ["cm", "m"]
[Models.m]
`))
	assert.ErrorIs(t, err, ErrConfig)

	_, _, err = LoadConfig(writeConfig(t, `
InputUnits = ["furlong"]
[Models.m]
`))
	assert.ErrorIs(t, err, ErrConfig)

	_, _, err = LoadConfig(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestFieldScan(t *testing.T) {
	dir := t.TempDir()
	scan := filepath.Join(dir, "scan.txt")
	require.NoError(t, os.WriteFile(scan, []byte("# E B\n3e5 0\n4e5 1e-5\n"), 0o600))
	config, meta, err := LoadConfig(writeConfig(t, `FieldScan = "`+scan+`"`))
	require.NoError(t, err)
	require.Len(t, config.Models, 2)

	second := config.Models["scan_l2"]
	require.NoError(t, second.CheckAndUnify("scan_l2", &config, &meta))
	assert.Equal(t, []float64{0, 0, -4e5}, second.EField)
	assert.Equal(t, []float64{1e-5, 0, 0}, second.BField)
}

func TestUnits(t *testing.T) {
	units, conflicts := checkUnits([]string{"keV", "cm"})
	assert.Empty(t, conflicts)
	electricField := []UnitElement{{Class: Potential, Power: 1}, {Class: Length, Power: -1}}
	assert.InDelta(t, 1e2, SI(1, electricField, units, true), 1e-12)
	assert.InDelta(t, 1, SI(SI(1, electricField, units, true), electricField, units, false), 1e-12)
	assert.Equal(t, "V cm^-1", UnitName(electricField, units))
	assert.Equal(t, "keV", UnitName(ValueUnits("InitialEnergy"), units))
	assert.Empty(t, ValueUnits("Seeds"))

	_, conflicts = checkUnits([]string{"G", "T"})
	assert.Equal(t, []string{"T"}, conflicts)
}
