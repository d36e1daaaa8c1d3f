// MODUL: linear
// ZWECK: Skalierte und spektral normierte Dense- und Conv-Schichten
// INPUT: Scope fuer Parameternamen, Ein-/Ausgabebreiten, Config
// OUTPUT: Schichten mit Forward(x) fuer [N,D] bzw. [N,H,W,C]
// NEBENEFFEKTE: Spektralnormierung aktualisiert ihren Vektor u bei jedem Forward
// ABHAENGIGKEITEN: ml, gonum blas32, chewxy/math32
// HINWEISE: Equalized Learning Rate verschiebt die He-Skalierung in den Forward-Pass

package nn

import (
	"math"
	"sync"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/7blacky7/stylegan/ml"
)

// Config beschreibt Initialisierung und Laufzeitskalierung einer Schicht.
type Config struct {
	// WScale aktiviert Equalized Learning Rate
	WScale bool
	// LRMul ist der Lernraten-Multiplikator
	LRMul float64
	// Dist ist die Verteilung der Gewichtsinitialisierung
	Dist Distribution
	// Gain ist der He-Faktor, 1 fuer lineare Projektionen
	Gain float64
	// Bias legt einen Bias-Vektor an
	Bias bool
}

// WithGain gibt eine Kopie mit anderem Gain zurueck.
func (c Config) WithGain(g float64) Config {
	c.Gain = g
	return c
}

// WithBias gibt eine Kopie mit anderem Bias-Schalter zurueck.
func (c Config) WithBias(b bool) Config {
	c.Bias = b
	return c
}

func (c Config) lrMul() float64 {
	if c.LRMul == 0 {
		return 1
	}
	return c.LRMul
}

// scales liefert (Init-Standardabweichung, Laufzeitkoeffizient) fuer fanIn.
func (c Config) scales(fanIn int) (float64, float32) {
	he := c.Gain / math.Sqrt(float64(max(fanIn, 1)))
	if c.WScale {
		return 1 / c.lrMul(), float32(he * c.lrMul())
	}
	return he, float32(c.lrMul())
}

// Layer ist eine Schicht mit einem Eingang.
type Layer interface {
	Forward(x *ml.Tensor) *ml.Tensor
}

// ============================================================================
// Dense
// ============================================================================

// Dense ist eine voll verbundene Schicht mit Gewicht [In, Out].
type Dense struct {
	Weight *ml.Tensor
	Bias   *Bias

	coef float32
	sn   *spectral
}

// NewScaledDense legt kernel (und bias) unter s an.
func NewScaledDense(s Scope, in, out int, cfg Config) *Dense {
	std, coef := cfg.scales(in)
	d := &Dense{Weight: s.Param("kernel", in, out), coef: coef}
	cfg.Dist.Fill(s.rand(), d.Weight.Floats(), std)
	if cfg.Bias {
		d.Bias = NewBias(s, out, cfg)
	}
	return d
}

// NewSNDense ist NewScaledDense mit Spektralnormierung des Gewichts.
func NewSNDense(s Scope, in, out int, cfg Config) *Dense {
	d := NewScaledDense(s, in, out, cfg)
	d.sn = newSpectral(s, in, out)
	return d
}

// Forward berechnet x·W·coef + b fuer x [N, In].
func (d *Dense) Forward(x *ml.Tensor) *ml.Tensor {
	y := ml.MatMul(x, d.Weight, d.coef/d.sn.sigma(d.Weight))
	if d.Bias != nil {
		y = d.Bias.Forward(y)
	}
	return y
}

// ============================================================================
// Conv2D
// ============================================================================

// Conv2D ist eine Faltung mit Kernel [K, K, Cin, Cout] und "same" Padding.
type Conv2D struct {
	Kernel *ml.Tensor
	Bias   *Bias

	coef float32
	sn   *spectral
}

// NewScaledConv2D legt kernel (und bias) fuer eine k×k Faltung unter s an.
func NewScaledConv2D(s Scope, k, in, out int, cfg Config) *Conv2D {
	std, coef := cfg.scales(k * k * in)
	c := &Conv2D{Kernel: s.Param("kernel", k, k, in, out), coef: coef}
	cfg.Dist.Fill(s.rand(), c.Kernel.Floats(), std)
	if cfg.Bias {
		c.Bias = NewBias(s, out, cfg)
	}
	return c
}

// NewSNConv2D ist NewScaledConv2D mit Spektralnormierung des Kernels.
func NewSNConv2D(s Scope, k, in, out int, cfg Config) *Conv2D {
	c := NewScaledConv2D(s, k, in, out, cfg)
	c.sn = newSpectral(s, k*k*in, out)
	return c
}

// Forward faltet x [N,H,W,Cin].
func (c *Conv2D) Forward(x *ml.Tensor) *ml.Tensor {
	y := ml.Conv2D(x, c.Kernel, c.coef/c.sn.sigma(c.Kernel))
	if c.Bias != nil {
		y = c.Bias.Forward(y)
	}
	return y
}

// ============================================================================
// Spektralnormierung
// ============================================================================

// spectral schaetzt den groessten Singulaerwert von W [rows, cols] per
// Potenziteration. u bleibt zwischen Aufrufen erhalten.
type spectral struct {
	mu         sync.Mutex
	u          []float32
	v          []float32
	rows, cols int
}

func newSpectral(s Scope, rows, cols int) *spectral {
	sp := &spectral{u: make([]float32, cols), v: make([]float32, rows), rows: rows, cols: cols}
	UntruncatedNormal.Fill(s.rand(), sp.u, 1)
	normalize(sp.u)
	return sp
}

// sigma fuehrt eine Potenziteration aus und gibt die Schaetzung zurueck.
// Ein nil-Empfaenger steht fuer "keine Normierung" und liefert 1.
func (sp *spectral) sigma(w *ml.Tensor) float32 {
	if sp == nil {
		return 1
	}

	sp.mu.Lock()
	defer sp.mu.Unlock()

	m := blas32.General{Rows: sp.rows, Cols: sp.cols, Stride: sp.cols, Data: w.Floats()}
	u := blas32.Vector{N: sp.cols, Inc: 1, Data: sp.u}
	v := blas32.Vector{N: sp.rows, Inc: 1, Data: sp.v}

	// v = normalize(W·u), u = normalize(Wᵀ·v)
	blas32.Gemv(blas.NoTrans, 1, m, u, 0, v)
	normalize(sp.v)
	blas32.Gemv(blas.Trans, 1, m, v, 0, u)

	// σ = vᵀ·W·u mit normiertem u entspricht |Wᵀ·v|
	sigma := normalize(sp.u)
	if sigma == 0 {
		return 1
	}
	return sigma
}

// normalize skaliert x auf Laenge 1 und gibt die urspruengliche Laenge zurueck.
func normalize(x []float32) float32 {
	var ss float32
	for _, v := range x {
		ss += v * v
	}
	n := math32.Sqrt(ss)
	if n > 0 {
		inv := 1 / (n + ml.Epsilon)
		for i := range x {
			x[i] *= inv
		}
	}
	return n
}
