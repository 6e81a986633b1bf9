package config

import (
	"fmt"

	"github.com/wildstyl3r/remc/internal/utils"
)

// unitToSI converts into the base unit of each class. Energies are kept in eV.
var unitToSI = map[string]float64{
	"eV":   1,              // [eV]
	"keV":  1e3,            // [eV]
	"MeV":  1e6,            // [eV]
	"s":    1,              // [s]
	"ms":   1e-3,           // [s]
	"us":   1e-6,           // [s]
	"ns":   1e-9,           // [s]
	"m":    1,              // [m]
	"cm":   1e-2,           // [m]
	"mm":   1e-3,           // [m]
	"km":   1e3,            // [m]
	"V":    1,              // [V]
	"kV":   1e3,            // [V]
	"MV":   1e6,            // [V]
	"T":    1,              // [T]
	"mT":   1e-3,           // [T]
	"uT":   1e-6,           // [T]
	"G":    1e-4,           // [T]
	"Pa":   1,              // [Pa]
	"bar":  1e5,            // [Pa]
	"mbar": 1e2,            // [Pa]
	"Torr": 101325. / 760., // [Pa]
}

type UnitClass int

const (
	Length UnitClass = iota
	Energy
	Time
	Potential
	MagneticField
	Pressure
)

var unitsInClass = map[UnitClass][]string{
	Length:        {"mm", "cm", "m", "km"},
	Energy:        {"eV", "keV", "MeV"},
	Time:          {"ns", "us", "ms", "s"},
	Potential:     {"V", "kV", "MV"},
	MagneticField: {"uT", "mT", "T", "G"},
	Pressure:      {"Torr", "mbar", "bar", "Pa"},
}

var classesOfUnits = func() map[string]UnitClass {
	classes := map[string]UnitClass{}
	for class, units := range unitsInClass {
		for _, unit := range units {
			classes[unit] = class
		}
	}
	return classes
}()

var defaultUnits = []string{"m", "eV", "s", "V", "T", "Pa"}

type UnitElement = struct {
	Class UnitClass
	Power int
}

// checkUnits completes units with the default of every class left out.
// Unknown units and second units of a class are reported as conflicts.
func checkUnits(units []string) (extended, conflicts []string) {
	classes := map[UnitClass]struct{}{}
	for _, unit := range units {
		class, known := classesOfUnits[unit]
		if _, some := classes[class]; some || !known {
			conflicts = append(conflicts, unit)
		} else {
			classes[class] = struct{}{}
		}
	}
	extended = append([]string{}, units...)
	for _, unit := range defaultUnits {
		if _, some := classes[classesOfUnits[unit]]; !some {
			extended = append(extended, unit)
		}
	}
	return
}

// SI converts v from units into base units when direct is set, and back otherwise.
func SI(v float64, classes []UnitElement, units []string, direct bool) float64 {
	for i := range classes {
		uc := classes[i]
		unit := utils.Intersect(unitsInClass[uc.Class], units)
		if unit == nil {
			panic(fmt.Sprintf("no unit of class %d in %v", uc.Class, units))
		}
		absPower := utils.IntAbs(uc.Power)
		if direct == (uc.Power > 0) {
			for range absPower {
				v *= unitToSI[*unit]
			}
		} else {
			for range absPower {
				v /= unitToSI[*unit]
			}
		}
	}
	return v
}

// UnitName returns the unit of units used for a quantity of the given classes, like "V m^-1".
func UnitName(classes []UnitElement, units []string) string {
	name := ""
	for i, uc := range classes {
		unit := utils.Intersect(unitsInClass[uc.Class], units)
		if unit == nil {
			continue
		}
		if i > 0 {
			name += " "
		}
		name += *unit
		if uc.Power != 1 {
			name += fmt.Sprintf("^%d", uc.Power)
		}
	}
	return name
}
