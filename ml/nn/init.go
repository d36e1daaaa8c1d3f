// init.go - Gewichtsinitialisierung
// Dieses Modul bildet die Verteilungsnamen auf Zufallsgeneratoren ab.
// Mit Equalized Learning Rate werden Gewichte mit Einheitsvarianz gezogen
// und zur Laufzeit skaliert, ohne wird die Varianz direkt ueber fan-in
// skaliert.
package nn

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/agnivade/levenshtein"
)

// ErrUnknownDistribution wird bei unbekannten Verteilungsnamen geliefert.
var ErrUnknownDistribution = errors.New("nn: unknown initializer distribution")

// Distribution ist eine Gewichtsverteilung.
type Distribution int

const (
	TruncatedNormal Distribution = iota
	Normal
	UntruncatedNormal
	Uniform
)

// stddev einer auf ±2σ abgeschnittenen Standardnormalverteilung
const truncatedStddev = 0.87962566103423978

var distributionNames = []string{
	TruncatedNormal:   "truncated_normal",
	Normal:            "normal",
	UntruncatedNormal: "untruncated_normal",
	Uniform:           "uniform",
}

func (d Distribution) String() string {
	if int(d) < len(distributionNames) {
		return distributionNames[d]
	}
	return fmt.Sprintf("Distribution(%d)", int(d))
}

// ParseDistribution wandelt einen Namen in eine Distribution um. Bei
// unbekannten Namen enthaelt der Fehler den aehnlichsten gueltigen Namen.
func ParseDistribution(name string) (Distribution, error) {
	for i, n := range distributionNames {
		if n == name {
			return Distribution(i), nil
		}
	}
	return 0, fmt.Errorf("%w %q%s", ErrUnknownDistribution, name, Suggest(name, distributionNames))
}

// Suggest formatiert einen "did you mean" Hinweis auf den naechsten Kandidaten.
func Suggest(name string, candidates []string) string {
	best, score := "", math.MaxInt
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(name, c); d < score {
			best, score = c, d
		}
	}
	if best == "" || score > len(best)/2+1 {
		return ""
	}
	return fmt.Sprintf(" (did you mean %q?)", best)
}

// Fill zieht Werte mit Standardabweichung std in data.
func (d Distribution) Fill(rng *rand.Rand, data []float32, std float64) {
	switch d {
	case TruncatedNormal, Normal:
		std /= truncatedStddev
		for i := range data {
			z := rng.NormFloat64()
			for math.Abs(z) > 2 {
				z = rng.NormFloat64()
			}
			data[i] = float32(z * std)
		}
	case UntruncatedNormal:
		for i := range data {
			data[i] = float32(rng.NormFloat64() * std)
		}
	default:
		limit := math.Sqrt(3) * std
		for i := range data {
			data[i] = float32((2*rng.Float64() - 1) * limit)
		}
	}
}

// ActGain ist der He-Verstaerkungsfaktor sqrt(2/(1+α²)) fuer Leaky-ReLU.
func ActGain(alpha float64) float64 {
	return math.Sqrt(2 / (1 + alpha*alpha))
}
