// layers.go - Kleine parametrisierte Bausteine
// Enthaelt: Bias, NoiseScale, Const, AdaIN
package nn

import (
	"github.com/7blacky7/stylegan/ml"
)

// Bias addiert einen lernbaren Vektor auf die letzte Dimension.
type Bias struct {
	Value *ml.Tensor
	mul   float32
}

// NewBias legt "bias" der Laenge n unter s an (mit Nullen initialisiert).
func NewBias(s Scope, n int, cfg Config) *Bias {
	return &Bias{Value: s.Param("bias", n), mul: float32(cfg.lrMul())}
}

func (b *Bias) Forward(x *ml.Tensor) *ml.Tensor {
	return ml.AddBias(x, b.Value.Floats(), b.mul)
}

// NoiseScale skaliert eine einkanalige Rauschkarte pro Feature-Kanal.
type NoiseScale struct {
	Weight *ml.Tensor
}

// NewNoiseScale legt "noise_scale" mit c Kanaelen an (mit Nullen initialisiert).
func NewNoiseScale(s Scope, c int) *NoiseScale {
	return &NoiseScale{Weight: s.Param("noise_scale", c)}
}

// Forward addiert noise [N,H,W,1] skaliert auf x [N,H,W,C].
func (n *NoiseScale) Forward(x, noise *ml.Tensor) *ml.Tensor {
	return ml.AddNoise(x, noise, n.Weight.Floats())
}

// Const ist ein lernbarer Eingabetensor [1,H,W,C], mit Einsen initialisiert.
type Const struct {
	Value *ml.Tensor
}

func NewConst(s Scope, h, w, c int) *Const {
	v := s.Param("const", 1, h, w, c)
	for i := range v.Floats() {
		v.Floats()[i] = 1
	}
	return &Const{Value: v}
}

// Forward wiederholt die Konstante fuer einen Batch der Groesse n.
func (c *Const) Forward(n int) *ml.Tensor {
	shape := c.Value.Shape()
	row := c.Value.Len()
	out := ml.New(n, shape[1], shape[2], shape[3])
	for b := range n {
		copy(out.Floats()[b*row:(b+1)*row], c.Value.Floats())
	}
	return out
}

// AdaIN moduliert instanz-normierte Features mit einem Stilvektor.
// Eine Dense-Schicht bildet w [N,D] auf (scale, bias) [N,2C] ab.
type AdaIN struct {
	Style    *Dense
	channels int
}

// NewAdaIN legt die Stil-Projektion unter s an. Die Projektion ist linear
// (Gain 1) und besitzt einen Bias.
func NewAdaIN(s Scope, latent, channels int, cfg Config) *AdaIN {
	return &AdaIN{
		Style:    NewScaledDense(s, latent, 2*channels, cfg.WithGain(1).WithBias(true)),
		channels: channels,
	}
}

// Forward berechnet InstanceNorm(x)·(1+scale)+bias.
func (a *AdaIN) Forward(x, w *ml.Tensor) *ml.Tensor {
	style := a.Style.Forward(w)
	n, c := style.Dim(0), a.channels

	scale, bias := ml.New(n, c), ml.New(n, c)
	for b := range n {
		row := style.Floats()[b*2*c : (b+1)*2*c]
		copy(scale.Floats()[b*c:(b+1)*c], row[:c])
		copy(bias.Floats()[b*c:(b+1)*c], row[c:])
	}
	return ml.Modulate(ml.InstanceNorm(x), scale, bias)
}
