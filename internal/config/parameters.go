package config

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/wildstyl3r/lxgata"

	"github.com/wildstyl3r/remc/internal/constants"
	"github.com/wildstyl3r/remc/internal/utils"
)

var ErrConfig = errors.New("invalid configuration")

type Config struct {
	OutputDir string
	Models    map[string]ModelParameters
	ModelParameters
	FieldScan    string
	isDefinedMap map[string]struct{}

	InputUnits  []string
	OutputUnits []string
}

func (c *Config) isDefined(path []string, meta *toml.MetaData) bool {
	if _, sureDefined := c.isDefinedMap[strings.Join(path, "#")]; sureDefined {
		return true
	} else {
		return meta.IsDefined(path...)
	}
}

func LoadConfig(configFileName string) (Config, toml.MetaData, error) {
	var config Config
	config.isDefinedMap = map[string]struct{}{}
	meta, err := toml.DecodeFile(configFileName+".toml", &config)
	if err != nil {
		return config, meta, err
	}

	var unitsConflict []string
	config.InputUnits, unitsConflict = checkUnits(config.InputUnits)
	if len(unitsConflict) > 0 {
		return config, meta, fmt.Errorf("%w: input unit conflict %v", ErrConfig, unitsConflict)
	}
	if len(config.OutputUnits) == 0 {
		config.OutputUnits = config.InputUnits
	}
	config.OutputUnits, unitsConflict = checkUnits(config.OutputUnits)
	if len(unitsConflict) > 0 {
		return config, meta, fmt.Errorf("%w: output unit conflict %v", ErrConfig, unitsConflict)
	}

	if len(config.FieldScan) > 0 {
		if len(config.Models) > 0 {
			return config, meta, fmt.Errorf("%w: simultaneous field scan listing and direct model specification not supported", ErrConfig)
		}
		scan, err := utils.ReadFloatPairs(config.FieldScan)
		if err != nil {
			return config, meta, fmt.Errorf("field scan file reading error: %w", err)
		}
		filename := utils.GetFilename(config.FieldScan)
		config.Models = make(map[string]ModelParameters, len(scan))
		for line := range scan {
			modelName := filename + "_l" + strconv.Itoa(line+1)
			// electric field against z, magnetic field along x
			config.Models[modelName] = ModelParameters{
				EField: []float64{0, 0, -scan[line][0]},
				BField: []float64{scan[line][1], 0, 0},
			}
			config.isDefinedMap[strings.Join([]string{"Models", modelName, "EField"}, "#")] = struct{}{}
			config.isDefinedMap[strings.Join([]string{"Models", modelName, "BField"}, "#")] = struct{}{}
		}
	} else if len(config.Models) == 0 {
		return config, meta, fmt.Errorf("%w: no models provided", ErrConfig)
	}

	return config, meta, nil
}

type ModelParameters struct {
	Runs  int
	Seeds int
	Seed  uint64

	InitialEnergy    float64   // [eV]
	InitialDirection []float64 // normalized on use
	InitialPosition  []float64 // [m]

	EField         []float64 // [V m^-1]
	BField         []float64 // [T]
	FieldRegionMin []float64 // [m]
	FieldRegionMax []float64 // [m]

	Horizon         float64 // [s]
	InitialTimestep float64 // [s]
	RemovalEnergy   float64 // [eV]
	MaxDistance     float64 // [m], 0 for unbounded

	RelativeTolerance float64
	Safety            float64
	MaxRetries        int
	MaxGrowth         float64

	LowerBound      float64
	UpperBound      float64
	NegligibleCount float64
	MaxHalvings     int
	MaxIterations   int

	Moller             bool
	Elastic            bool
	ElasticMaxTimestep float64 // [s]
	AtomicNumber       float64

	Friction      bool
	FrictionTable string
	FrictionScale float64

	CrossSections     string
	CrossSectionKinds []string
	Scattering        string
	GasDensity        float64 // [m^-3]
	Pressure          float64 // [Pa]
	Temperature       float64 // [K]

	FluxBins int
	History  bool
	Tracks   bool
	MakeDir  bool

	_crossSections lxgata.Collisions
	_outputUnits   []string
	_verbose       bool
	_threads       int
}

func (p *ModelParameters) CrossSectionsData() lxgata.Collisions {
	return p._crossSections
}

func (p *ModelParameters) SetCrossSectionsData(cd lxgata.Collisions) {
	p._crossSections = cd
}

func (p *ModelParameters) OutputUnits() []string {
	return p._outputUnits
}

func (p *ModelParameters) SetOutputUnits(u []string) {
	p._outputUnits = u
}

func (p *ModelParameters) Verbose() bool {
	return p._verbose
}

func (p *ModelParameters) SetVerbosity(verbose bool) {
	p._verbose = verbose
}

func (p *ModelParameters) Threads() int {
	return p._threads
}

func (p *ModelParameters) SetThreads(threads int) {
	p._threads = threads
}

var defaultValues = map[string]any{ // in SI, energies in eV
	"Runs":               4,
	"Seeds":              100,
	"Seed":               uint64(1),
	"InitialEnergy":      1e6,
	"InitialDirection":   []float64{0, 0, 1},
	"InitialPosition":    []float64{0, 0, 0},
	"EField":             []float64{0, 0, 0},
	"BField":             []float64{0, 0, 0},
	"Horizon":            1e-6,
	"InitialTimestep":    1e-11,
	"RemovalEnergy":      2e3,
	"MaxDistance":        0.,
	"RelativeTolerance":  1e-3,
	"Safety":             0.9,
	"MaxRetries":         100,
	"MaxGrowth":          5.,
	"LowerBound":         0.1,
	"UpperBound":         0.2,
	"NegligibleCount":    1e-3,
	"MaxHalvings":        60,
	"MaxIterations":      0,
	"Moller":             true,
	"Elastic":            false,
	"ElasticMaxTimestep": 1e-9,
	"AtomicNumber":       constants.AverageAirAtomicNumber,
	"Friction":           true,
	"FrictionScale":      1.,
	"Scattering":         "born-dipole",
	"GasDensity":         constants.AirMolecularDensity,
	"Temperature":        300.,
	"FluxBins":           1000,
	"History":            false,
	"Tracks":             false,
	"MakeDir":            false,
}

var fieldsXor = map[string][]string{
	"GasDensity": {"Pressure"},
	"Pressure":   {"GasDensity"},
}

var fieldsAnd = map[string][]string{
	"CrossSectionKinds": {"CrossSections"},
	"FieldRegionMin":    {"FieldRegionMax"},
	"FieldRegionMax":    {"FieldRegionMin"},
}

var fieldsDerivable map[string][]string = map[string][]string{
	"Pressure": {"GasDensity"},
}

var vectorFields = []string{"InitialDirection", "InitialPosition", "EField", "BField", "FieldRegionMin", "FieldRegionMax"}

var valueUnits = map[string][]UnitElement{
	"InitialEnergy": {
		{Class: Energy, Power: 1},
	},
	"RemovalEnergy": {
		{Class: Energy, Power: 1},
	},
	"InitialPosition": {
		{Class: Length, Power: 1},
	},
	"FieldRegionMin": {
		{Class: Length, Power: 1},
	},
	"FieldRegionMax": {
		{Class: Length, Power: 1},
	},
	"MaxDistance": {
		{Class: Length, Power: 1},
	},
	"EField": {
		{Class: Potential, Power: 1},
		{Class: Length, Power: -1},
	},
	"BField": {
		{Class: MagneticField, Power: 1},
	},
	"Horizon": {
		{Class: Time, Power: 1},
	},
	"InitialTimestep": {
		{Class: Time, Power: 1},
	},
	"ElasticMaxTimestep": {
		{Class: Time, Power: 1},
	},
	"GasDensity": {
		{Class: Length, Power: -3},
	},
	"Pressure": {
		{Class: Pressure, Power: 1},
	},
}

// ValueUnits returns the unit classes of a parameter, or nil for dimensionless ones.
func ValueUnits(name string) []UnitElement {
	return valueUnits[name]
}

var calculableFields = map[string]func(
	*ModelParameters,
	[]string,
) []string{
	"Pressure": func(mp *ModelParameters, definedFields []string) []string {
		if slices.Contains(definedFields, "Temperature") {
			mp.GasDensity = mp.Pressure / (constants.KBolzmann * mp.Temperature)
			return []string{"GasDensity"}
		}
		fmt.Printf("field 'Temperature' not found: required by GasDensity calculation from Pressure\n")
		return nil
	},
}

func (modelConfig *ModelParameters) toSI(parameterNames, units []string) {
	modelConfigReflect := reflect.ValueOf(modelConfig).Elem()
	for name := range parameterNames {
		field := modelConfigReflect.FieldByName(parameterNames[name])
		switch {
		case field.CanFloat():
			field.SetFloat(SI(field.Float(), valueUnits[parameterNames[name]], units, true))
		case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.Float64:
			converted := make([]float64, field.Len())
			for i := range converted {
				converted[i] = SI(field.Index(i).Float(), valueUnits[parameterNames[name]], units, true)
			}
			field.Set(reflect.ValueOf(converted))
		}
	}
}

func (modelConfig *ModelParameters) checkFieldProblems(path []string, meta *toml.MetaData, globalConfig *Config) (ambiguities [][]string, missingDeps []string) {
	modelConfigReflect := reflect.ValueOf(modelConfig).Elem()
	for field := range fieldsXor {
		if globalConfig.isDefined(append(path, field), meta) {
			if modelConfigReflect.FieldByName(field).Kind() == reflect.Bool && !modelConfigReflect.FieldByName(field).Bool() {
				continue
			}
			var foundAlternatives []string
			for alternative := range fieldsXor[field] {
				if globalConfig.isDefined(append(path, fieldsXor[field][alternative]), meta) {
					foundAlternatives = append(foundAlternatives, fieldsXor[field][alternative])
				}
			}

			if len(foundAlternatives) > 0 {
				ambiguities = append(ambiguities, append([]string{field}, foundAlternatives...))
			}
		}
	}

	for field := range fieldsAnd {
		if globalConfig.isDefined(append(path, field), meta) {
			for requirement := range fieldsAnd[field] {
				if !globalConfig.isDefined(append(path, fieldsAnd[field][requirement]), meta) {
					missingDeps = append(missingDeps, fieldsAnd[field][requirement])
				}
			}
		}
	}
	return
}

/*
field value priority:
1. model
2. model-calculable
3. global
4. global-calculable
5. default
*/

// CheckAndUnify fills the model parameters from the model table, the global
// table and the defaults, converts them to base units and validates them.
func (modelConfig *ModelParameters) CheckAndUnify(modelName string, config *Config, meta *toml.MetaData) error {
	globalAmbiguities, globalMissingDeps := config.checkFieldProblems([]string{}, meta, config)
	localAmbiguities, localMissingDeps := modelConfig.checkFieldProblems([]string{"Models", modelName}, meta, config)
	if len(globalAmbiguities) > 0 {
		return fmt.Errorf("%w: found global ambiguities %v", ErrConfig, globalAmbiguities)
	}
	if len(localAmbiguities) > 0 {
		return fmt.Errorf("%w: found model ambiguities %v", ErrConfig, localAmbiguities)
	}
	var missingIntersection []string
	for i := range globalMissingDeps {
		for j := range localMissingDeps {
			if globalMissingDeps[i] == localMissingDeps[j] {
				missingIntersection = append(missingIntersection, globalMissingDeps[i])
			}
		}
	}
	if len(missingIntersection) > 0 {
		return fmt.Errorf("%w: required dependent fields not found %v", ErrConfig, missingIntersection)
	}

	var discoveredParameters []string

	var excludeFromLoadingDefaultOrOuter map[string]struct{} = make(map[string]struct{})
	modelConfigReflect := reflect.ValueOf(&modelConfig).Elem()
	modelConfigType := modelConfigReflect.Elem().Type()
	for i := range modelConfigReflect.Elem().NumField() {
		fieldName := modelConfigType.Field(i).Name
		if config.isDefined([]string{"Models", modelName, fieldName}, meta) {
			discoveredParameters = append(discoveredParameters, fieldName)
			if xlist, some := fieldsXor[fieldName]; some {
				for x := range xlist {
					excludeFromLoadingDefaultOrOuter[xlist[x]] = struct{}{}
				}
			}
			if xlist, some := fieldsDerivable[fieldName]; some {
				for x := range xlist {
					excludeFromLoadingDefaultOrOuter[xlist[x]] = struct{}{}
				}
			}
		}
	}

	globalConfigReflect := reflect.ValueOf(&config).Elem()
	globalConfigType := globalConfigReflect.Elem().Type()
	for i := range globalConfigReflect.Elem().NumField() { // dive into embedded ModelParameters
		if globalConfigType.Field(i).Anonymous && globalConfigType.Field(i).Type.Kind() == reflect.Struct {
			globalConfigType = globalConfigReflect.Elem().Field(i).Type()
			globalConfigReflect = globalConfigReflect.Elem().Field(i)
			break
		}
	}

	for i := range globalConfigReflect.NumField() {
		fieldName := globalConfigType.Field(i).Name
		if _, some := excludeFromLoadingDefaultOrOuter[fieldName]; !some && !config.isDefined([]string{"Models", modelName, fieldName}, meta) && meta.IsDefined(fieldName) {
			modelConfigReflect.Elem().FieldByName(fieldName).Set(globalConfigReflect.Field(i))
			discoveredParameters = append(discoveredParameters, fieldName)
			excludeFromLoadingDefaultOrOuter[fieldName] = struct{}{}
			for xAlternative := range fieldsXor[fieldName] {
				excludeFromLoadingDefaultOrOuter[fieldsXor[fieldName][xAlternative]] = struct{}{}
			}
			for xDerived := range fieldsDerivable[fieldName] {
				excludeFromLoadingDefaultOrOuter[fieldsDerivable[fieldName][xDerived]] = struct{}{}
			}
		}
	}

	modelConfig.toSI(discoveredParameters, config.InputUnits)

	for fieldName := range defaultValues {
		if _, x := excludeFromLoadingDefaultOrOuter[fieldName]; !x && !slices.Contains(discoveredParameters, fieldName) {
			value := reflect.ValueOf(defaultValues[fieldName])
			if vector, ok := defaultValues[fieldName].([]float64); ok {
				value = reflect.ValueOf(slices.Clone(vector))
			}
			modelConfigReflect.Elem().FieldByName(fieldName).Set(value)
			discoveredParameters = append(discoveredParameters, fieldName)
		}
	}

	var enabledParameters []string
	for fieldName := range discoveredParameters {
		field := modelConfigReflect.Elem().FieldByName(discoveredParameters[fieldName])
		if field.Kind() != reflect.Bool || field.Bool() {
			enabledParameters = append(enabledParameters, discoveredParameters[fieldName])
		}
	}

	calculatedAnything := true
	for calculatedAnything {
		calculatedAnything = false
		for initialFieldName := range calculableFields {
			if slices.Contains(enabledParameters, initialFieldName) {
				calculated := calculableFields[initialFieldName](modelConfig, enabledParameters)
				if len(calculated) != 0 {
					calculatedAnything = true
					enabledParameters = append(enabledParameters, calculated...)
					enabledParameters = slices.DeleteFunc(enabledParameters, func(elem string) bool {
						return elem == initialFieldName
					})
				}
			}
		}
	}
	for initialFieldName := range calculableFields {
		if slices.Contains(enabledParameters, initialFieldName) {
			return fmt.Errorf("%w: unable to derive parameters from %s", ErrConfig, initialFieldName)
		}
	}

	var problems []error
	for i := range enabledParameters {
		for requirement := range fieldsAnd[enabledParameters[i]] {
			if !slices.Contains(enabledParameters, fieldsAnd[enabledParameters[i]][requirement]) {
				problems = append(problems, fmt.Errorf("for parameter %s requirement %s not found", enabledParameters[i], fieldsAnd[enabledParameters[i]][requirement]))
			}
		}
		for conflict := range fieldsXor[enabledParameters[i]] {
			if slices.Contains(enabledParameters, fieldsXor[enabledParameters[i]][conflict]) {
				problems = append(problems, fmt.Errorf("for parameter %s found conflicting parameter: %s", enabledParameters[i], fieldsXor[enabledParameters[i]][conflict]))
			}
		}
	}
	problems = append(problems, modelConfig.validate(enabledParameters)...)
	if len(problems) > 0 {
		return fmt.Errorf("%w: model %s: %w", ErrConfig, modelName, errors.Join(problems...))
	}

	var conflict []string
	units, conflict := checkUnits(config.OutputUnits)
	if len(conflict) > 0 {
		fmt.Printf("found output unit conflict: %v\n Data will be saved in input units", conflict)
		modelConfig._outputUnits = config.InputUnits
	} else {
		modelConfig._outputUnits = units
	}
	return nil
}

func (modelConfig *ModelParameters) validate(enabledParameters []string) (problems []error) {
	modelConfigReflect := reflect.ValueOf(modelConfig).Elem()
	for _, name := range vectorFields {
		if !slices.Contains(enabledParameters, name) {
			continue
		}
		if n := modelConfigReflect.FieldByName(name).Len(); n != 3 {
			problems = append(problems, fmt.Errorf("%s has %d components, expected 3", name, n))
		}
	}
	positive := map[string]float64{
		"InitialEnergy":     modelConfig.InitialEnergy,
		"Horizon":           modelConfig.Horizon,
		"InitialTimestep":   modelConfig.InitialTimestep,
		"RelativeTolerance": modelConfig.RelativeTolerance,
		"GasDensity":        modelConfig.GasDensity,
	}
	for name, value := range positive {
		if !(value > 0) || !utils.IsFinite(value) {
			problems = append(problems, fmt.Errorf("%s must be a positive number, got %g", name, value))
		}
	}
	if modelConfig.Runs < 1 || modelConfig.Seeds < 1 || modelConfig.FluxBins < 2 {
		problems = append(problems, fmt.Errorf("Runs and Seeds must be at least 1 and FluxBins at least 2"))
	}
	if modelConfig.RemovalEnergy < 0 || modelConfig.RemovalEnergy >= modelConfig.InitialEnergy {
		problems = append(problems, fmt.Errorf("RemovalEnergy must be in [0, InitialEnergy)"))
	}
	if modelConfig.LowerBound > modelConfig.UpperBound {
		problems = append(problems, fmt.Errorf("LowerBound exceeds UpperBound"))
	}
	if len(modelConfig.InitialDirection) == 3 && modelConfig.InitialDirection[0] == 0 && modelConfig.InitialDirection[1] == 0 && modelConfig.InitialDirection[2] == 0 {
		problems = append(problems, fmt.Errorf("InitialDirection is a zero vector"))
	}
	return
}
