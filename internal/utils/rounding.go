package utils

import "math"

// RoundTo rounds x to the given number of decimal places, half away from
// zero. Used for gram quantities (5 places) and prices (2 places).
//
// Example:
//
//	g := utils.RoundTo(0.0995012, 5) // returns 0.09950
//	p := utils.RoundTo(8037.686, 2)  // returns 8037.69
func RoundTo(x float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(x*pow) / pow
}
