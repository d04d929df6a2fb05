package product

import "math"

// Unit is one rung of a product's unit-conversion ladder: a display label,
// a conversion from the stored value, and the decimal precision suited to
// the converted range.
type Unit struct {
	Label     string
	Convert   func(float64) float64
	Precision int
}

func identity(x float64) float64 { return x }

// WindUnits is the conversion ladder for wind speed stored in m/s.
func WindUnits() []Unit {
	return []Unit{
		{Label: "m/s", Convert: identity, Precision: 1},
		{Label: "km/h", Convert: func(x float64) float64 { return x * 3.6 }, Precision: 0},
		{Label: "kn", Convert: func(x float64) float64 { return x * 1.943844 }, Precision: 0},
		{Label: "mph", Convert: func(x float64) float64 { return x * 2.236936 }, Precision: 0},
	}
}

// TemperatureUnits is the fixed Kelvin/Celsius/Fahrenheit ladder for
// temperature stored in Kelvin.
func TemperatureUnits() []Unit {
	return []Unit{
		{Label: "°C", Convert: func(x float64) float64 { return x - 273.15 }, Precision: 1},
		{Label: "°F", Convert: func(x float64) float64 { return x*9/5 - 459.67 }, Precision: 1},
		{Label: "K", Convert: identity, Precision: 1},
	}
}

// DerivedUnits builds a ladder for a generic scalar from its declared unit
// string and observed bounds: identity conversion, precision chosen from
// the spread of the values.
func DerivedUnits(label string, lo, hi float64) []Unit {
	spread := math.Abs(hi - lo)
	precision := 0
	switch {
	case spread < 1:
		precision = 3
	case spread < 10:
		precision = 2
	case spread < 100:
		precision = 1
	}
	return []Unit{{Label: label, Convert: identity, Precision: precision}}
}
