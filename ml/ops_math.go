// ops_math.go - Elementweise Arithmetik
//
// Enthaelt:
// - Add, Sub, Mul, Scale
// - AddBias, MulChannels (Broadcast ueber die letzte Dimension)
// - Lerp (Broadcast eines Verhaeltnisses pro Batch-Zeile)
// - LeakyReLU
package ml

import (
	"github.com/chewxy/math32"
)

// Add gibt a + b zurueck.
func Add(a, b *Tensor) *Tensor {
	mustSameShape("add", a, b)
	out := New(a.shape...)
	for i, v := range a.data {
		out.data[i] = v + b.data[i]
	}
	return out
}

// Sub gibt a - b zurueck.
func Sub(a, b *Tensor) *Tensor {
	mustSameShape("sub", a, b)
	out := New(a.shape...)
	for i, v := range a.data {
		out.data[i] = v - b.data[i]
	}
	return out
}

// Mul gibt das elementweise Produkt a * b zurueck.
func Mul(a, b *Tensor) *Tensor {
	mustSameShape("mul", a, b)
	out := New(a.shape...)
	for i, v := range a.data {
		out.data[i] = v * b.data[i]
	}
	return out
}

// Scale multipliziert alle Elemente mit s.
func Scale(a *Tensor, s float32) *Tensor {
	out := New(a.shape...)
	for i, v := range a.data {
		out.data[i] = v * s
	}
	return out
}

// AddBias addiert bias[c]*mul auf jedes Element der letzten Dimension c.
func AddBias(x *Tensor, bias []float32, mul float32) *Tensor {
	c := x.Dim(-1)
	if len(bias) != c {
		panic(shapeErrorf("add_bias", "bias of length %d for last dimension %d", len(bias), c))
	}

	out := New(x.shape...)
	for i, v := range x.data {
		out.data[i] = v + bias[i%c]*mul
	}
	return out
}

// MulChannels multipliziert jedes Element der letzten Dimension c mit s[c].
func MulChannels(x *Tensor, s []float32) *Tensor {
	c := x.Dim(-1)
	if len(s) != c {
		panic(shapeErrorf("mul_channels", "scale of length %d for last dimension %d", len(s), c))
	}

	out := New(x.shape...)
	for i, v := range x.data {
		out.data[i] = v * s[i%c]
	}
	return out
}

// Clip begrenzt v auf [lo, hi].
func Clip(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}

// Lerp berechnet a + r*(b-a) mit einem Verhaeltnis pro Batch-Zeile.
// ratio hat entweder Laenge 1 (global) oder Laenge N (fuehrende Dimension).
// Verhaeltnisse von exakt 0 bzw. 1 liefern a bzw. b bitgenau.
func Lerp(a, b *Tensor, ratio []float32) *Tensor {
	mustSameShape("lerp", a, b)
	if a.Rank() == 0 {
		panic(shapeErrorf("lerp", "scalar tensors have no batch dimension"))
	}

	n := a.shape[0]
	if len(ratio) != 1 && len(ratio) != n {
		panic(shapeErrorf("lerp", "ratio of length %d for batch %d", len(ratio), n))
	}

	out := New(a.shape...)
	if n == 0 {
		return out
	}

	row := len(a.data) / n
	for i := range n {
		r := ratio[0]
		if len(ratio) > 1 {
			r = ratio[i]
		}

		lo, hi := i*row, (i+1)*row
		switch r {
		case 0:
			copy(out.data[lo:hi], a.data[lo:hi])
		case 1:
			copy(out.data[lo:hi], b.data[lo:hi])
		default:
			for j := lo; j < hi; j++ {
				out.data[j] = a.data[j] + r*(b.data[j]-a.data[j])
			}
		}
	}
	return out
}

// LeakyReLU wendet max(x, alpha*x) an.
func LeakyReLU(x *Tensor, alpha float32) *Tensor {
	out := New(x.shape...)
	for i, v := range x.data {
		if v < 0 {
			v *= alpha
		}
		out.data[i] = v
	}
	return out
}
