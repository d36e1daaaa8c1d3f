// lod.go - LOD-Ueberblendung
//
// Enthaelt:
// - InterpolateClip: a + clip(r)·(b-a) mit Verhaeltnis pro Batch-Zeile
// - plan: Entscheidung pro Stufe, welche Pfade fuer ein LOD berechnet werden
// - LOD: liest den LOD-Wert aus der ersten Batch-Zeile
// - checkLOD: nur endliche LOD-Werte sind gueltig
package stylegan

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/7blacky7/stylegan/ml"
)

// InterpolateClip blendet a und b mit ratio, das vorher auf [0,1] begrenzt
// wird. ratio hat Laenge 1 (global) oder eine Laenge pro Batch-Element.
// Bei r=0 wird a und bei r=1 wird b bitgenau zurueckgegeben.
func InterpolateClip(a, b *ml.Tensor, ratio ...float32) (out *ml.Tensor, err error) {
	defer ml.Recover(&err)
	return interpolateClip(a, b, ratio...), nil
}

func interpolateClip(a, b *ml.Tensor, ratio ...float32) *ml.Tensor {
	clipped := make([]float32, len(ratio))
	for i, r := range ratio {
		clipped[i] = ml.Clip(r, 0, 1)
	}
	return ml.Lerp(a, b, clipped)
}

// checkLOD lehnt NaN und unendliche LOD-Werte ab.
func checkLOD(lod float32) error {
	if math32.IsNaN(lod) || math32.IsInf(lod, 0) {
		return fmt.Errorf("%w: lod %v is not finite", ErrInput, lod)
	}
	return nil
}

// LOD liest den LOD-Wert aus der ersten Batch-Zeile eines LOD-Tensors.
func LOD(t *ml.Tensor) (float32, error) {
	if t == nil || t.Len() == 0 {
		return 0, fmt.Errorf("%w: empty lod tensor", ErrInput)
	}
	return t.Floats()[0], nil
}

// plan beschreibt, welche Pfade einer Stufe fuer ein LOD benoetigt werden.
// "neu" ist der hoeher aufgeloeste Pfad der Stufe (StyleBlock bzw.
// Diskriminator-Block), "alt" der durchgereichte Pfad (Upsampling bzw. FromRGB).
type plan struct {
	computeNew bool
	useOld     bool
	ratio      float32 // Anteil des alten Pfads
}

// planFor bestimmt den Plan fuer Stufe level bei lod.
func (m Mode) planFor(level int, lod float32) plan {
	r := float32(level) - lod
	if m == Static {
		return plan{computeNew: true, useOld: true, ratio: r}
	}

	switch {
	case r >= 1:
		return plan{useOld: true, ratio: 1}
	case r <= 0:
		return plan{computeNew: true, ratio: 0}
	default:
		return plan{computeNew: true, useOld: true, ratio: r}
	}
}
