package grib2

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ParameterTable translates (discipline, category, number) triples from
// §4's product definition template into short parameter names (e.g.
// "UGRD", "TMP"). GRIB2 Code Table 4.2 is a data lookup, not an
// algorithm, so it lives behind an interface rather than the core
// decoder: DefaultTables ships a small built-in table covering common
// surface-weather products, and production callers are expected to
// inject a fuller one (e.g. generated from the full WMO Code Table 4.2).
type ParameterTable interface {
	ShortName(discipline, category, number uint8) (string, bool)
}

// LevelTable translates a product definition's fixed-surface type, scale
// factor, and scaled value into a human-readable level description
// ("2 m above ground", "500 mb", "surface").
type LevelTable interface {
	Describe(levelType uint8, scale int8, value int32) (string, bool)
}

// ForecastTimeUnitTable translates §4's unit-of-time-range code and raw
// value into a description ("6 hour", "1 day").
type ForecastTimeUnitTable interface {
	Describe(unitCode uint8, value uint32) string
}

// Tables bundles the three lookup interfaces Inventory and Query consult.
type Tables struct {
	Parameters    ParameterTable
	Levels        LevelTable
	ForecastUnits ForecastTimeUnitTable
}

// DefaultTables returns a Tables value backed by a small built-in set of
// WMO Code Table 4.1/4.2/4.5/4.4 entries sufficient for common
// surface-weather products (HRRR/GFS style). Unknown codes fall back to
// the PARAM_{cat}_{num} / generic level spellings shortNameOrFallback
// and levelOrFallback produce below.
func DefaultTables() Tables {
	return Tables{
		Parameters:    defaultParameterTable{},
		Levels:        defaultLevelTable{},
		ForecastUnits: defaultForecastUnitTable{},
	}
}

type paramKey struct {
	discipline, category, number uint8
}

type defaultParameterTable struct{}

var defaultParameters = map[paramKey]string{
	{0, 0, 0}:  "TMP",
	{0, 0, 6}:  "DPT",
	{0, 1, 1}:  "RH",
	{0, 1, 8}:  "APCP",
	{0, 2, 2}:  "UGRD",
	{0, 2, 3}:  "VGRD",
	{0, 2, 8}:  "VVEL",
	{0, 3, 0}:  "PRES",
	{0, 3, 1}:  "PRMSL",
	{0, 3, 5}:  "HGT",
	{0, 6, 1}:  "TCDC",
	{2, 0, 0}:  "LAND",
}

func (defaultParameterTable) ShortName(discipline, category, number uint8) (string, bool) {
	name, ok := defaultParameters[paramKey{discipline, category, number}]
	return name, ok
}

type defaultLevelTable struct{}

func (defaultLevelTable) Describe(levelType uint8, scale int8, value int32) (string, bool) {
	scaledValue := scaledDecimal(scale, value)
	switch levelType {
	case 1:
		return "surface", true
	case 2:
		return "cloud base", true
	case 3:
		return "cloud top", true
	case 100:
		// value is encoded in Pa at 10^-scale; mb = Pa / 100.
		return scaledDecimal(scale+2, value).String() + " mb", true
	case 101:
		return "mean sea level", true
	case 103:
		return scaledValue.String() + " m above ground", true
	case 104:
		return scaledValue.String() + " sigma level", true
	case 106:
		return scaledValue.String() + " m below land surface", true
	case 200:
		return "entire atmosphere", true
	default:
		return "", false
	}
}

// scaledDecimal applies GRIB2's value × 10^-scale convention using
// shopspring/decimal so that the formatted level value strips trailing
// zeros exactly the way spec §4.6 requires, without float rounding noise.
func scaledDecimal(scale int8, value int32) decimal.Decimal {
	return decimal.NewFromInt32(value).Shift(int32(-scale))
}

type defaultForecastUnitTable struct{}

func (defaultForecastUnitTable) Describe(unitCode uint8, value uint32) string {
	unit := "unknown"
	switch unitCode {
	case 0:
		unit = "minute"
	case 1:
		unit = "hour"
	case 2:
		unit = "day"
	case 3:
		unit = "month"
	case 4:
		unit = "year"
	case 10:
		unit = "3 hours"
	case 11:
		unit = "6 hours"
	case 12:
		unit = "12 hours"
	case 13:
		unit = "second"
	}
	return fmt.Sprintf("%d %s", value, unit)
}

// shortNameOrFallback produces a short parameter name, falling back to
// the PARAM_{cat}_{num} spelling spec §4.6 mandates for unknown codes.
func shortNameOrFallback(t ParameterTable, discipline, category, number uint8) string {
	if t != nil {
		if name, ok := t.ShortName(discipline, category, number); ok {
			return name
		}
	}
	return fmt.Sprintf("PARAM_%d_%d", category, number)
}

// levelOrFallback produces a level description, falling back to a
// generic "level type {t}" spelling for unknown codes.
func levelOrFallback(t LevelTable, levelType uint8, scale int8, value int32) string {
	if t != nil {
		if s, ok := t.Describe(levelType, scale, value); ok {
			return s
		}
	}
	return fmt.Sprintf("level type %d", levelType)
}
