// schedule.go - Aufloesungsleiter und Filterplan
// Reine Funktionen ohne Zustand: Anzahl der Bloecke, Aufloesungen und
// Kanalzahl pro Aufloesung.
package stylegan

import (
	"fmt"
	"math"
	"math/bits"
)

// NumBlocks gibt log2(res) - 1 zurueck, also die Anzahl der Stufen inklusive
// der 4×4 Basis.
func NumBlocks(res int) (int, error) {
	if res < 4 || res&(res-1) != 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidResolution, res)
	}
	return bits.TrailingZeros(uint(res)) - 1, nil
}

// Resolutions gibt 4, 8, ..., res zurueck.
func Resolutions(res int) ([]int, error) {
	n, err := NumBlocks(res)
	if err != nil {
		return nil, err
	}

	out := make([]int, n)
	for i := range out {
		out[i] = 4 << i
	}
	return out, nil
}

// NumFilters berechnet min(int(base·(2/res)^decay), max).
func NumFilters(res, base int, decay float64, maxFilters int) int {
	return min(int(float64(base)*math.Pow(2/float64(res), decay)), maxFilters)
}

// NumFilters wendet den Filterplan der Options auf res an.
func (o Options) NumFilters(res int) int {
	return NumFilters(res, o.FmapBase, o.FmapDecay, o.FmapMax)
}

// NumBlocks gibt die Stufenzahl fuer die konfigurierte Aufloesung zurueck.
func (o Options) NumBlocks() int {
	n, _ := NumBlocks(o.Resolution)
	return n
}

// NumLayers gibt die Laenge des Latent-Stapels zurueck (2 pro Stufe).
func (o Options) NumLayers() int {
	return 2 * o.NumBlocks()
}
