// format.go - Menschenlesbare Zahlen fuer CLI-Ausgaben
// Enthaelt: HumanNumber
package format

import (
	"fmt"
	"math"
	"strconv"
)

const (
	Thousand = 1000
	Million  = Thousand * 1000
	Billion  = Million * 1000
)

// HumanNumber formatiert b mit K-, M- oder B-Suffix.
func HumanNumber(b uint64) string {
	switch {
	case b >= Billion:
		return suffixed(float64(b)/Billion, "B")
	case b >= Million:
		return suffixed(float64(b)/Million, "M")
	case b >= Thousand:
		return suffixed(float64(b)/Thousand, "K")
	default:
		return strconv.FormatUint(b, 10)
	}
}

func suffixed(v float64, unit string) string {
	// ganze Werte ohne Nachkommastellen, sonst eine Stelle bzw. keine ab 100
	switch {
	case v == math.Floor(v):
		return fmt.Sprintf("%.0f%s", v, unit)
	case v >= 100:
		return fmt.Sprintf("%.0f%s", v, unit)
	default:
		return fmt.Sprintf("%.1f%s", v, unit)
	}
}
