// tensor.go - Tensor-Typ fuer NHWC float32 Daten
// Dieses Modul definiert den zentralen Tensor und seine Form-Operationen.
// Alle Bild-Tensoren liegen im Layout [N, H, W, C] vor, Latents als [N, D]
// bzw. [N, L, D]. Die fuehrende Dimension ist immer die Batch-Dimension.
package ml

import (
	"slices"
)

// Tensor is a dense row-major float32 array.
type Tensor struct {
	shape []int
	data  []float32
}

func mul[T number](s ...T) T {
	p := T(1)
	for _, v := range s {
		p *= v
	}

	return p
}

// New erzeugt einen mit Nullen gefuellten Tensor.
func New(shape ...int) *Tensor {
	for _, d := range shape {
		if d < 0 {
			panic(shapeErrorf("new", "negative dimension in %v", shape))
		}
	}
	return &Tensor{shape: slices.Clone(shape), data: make([]float32, mul(shape...))}
}

// FromFloats erzeugt einen Tensor ueber einem bestehenden Slice (ohne Kopie).
func FromFloats(data []float32, shape ...int) *Tensor {
	if len(data) != mul(shape...) {
		panic(shapeErrorf("from_floats", "%d values do not fit shape %v", len(data), shape))
	}
	return &Tensor{shape: slices.Clone(shape), data: data}
}

// Full erzeugt einen Tensor mit konstantem Wert.
func Full(v float32, shape ...int) *Tensor {
	t := New(shape...)
	for i := range t.data {
		t.data[i] = v
	}
	return t
}

// Shape gibt eine Kopie der Form zurueck.
func (t *Tensor) Shape() []int {
	return slices.Clone(t.shape)
}

// Dim gibt die Groesse von Dimension n zurueck. Negative Indizes zaehlen von hinten.
func (t *Tensor) Dim(n int) int {
	if n < 0 {
		n += len(t.shape)
	}
	return t.shape[n]
}

// Rank gibt die Anzahl der Dimensionen zurueck.
func (t *Tensor) Rank() int {
	return len(t.shape)
}

// Len gibt die Anzahl der Elemente zurueck.
func (t *Tensor) Len() int {
	return len(t.data)
}

// Floats gibt die Rohdaten zurueck. Aenderungen wirken auf den Tensor.
func (t *Tensor) Floats() []float32 {
	return t.data
}

// Clone erzeugt eine tiefe Kopie.
func (t *Tensor) Clone() *Tensor {
	return &Tensor{shape: slices.Clone(t.shape), data: slices.Clone(t.data)}
}

// Reshape gibt eine neue Sicht mit anderer Form auf dieselben Daten zurueck.
// Eine Dimension darf -1 sein und wird dann berechnet.
func (t *Tensor) Reshape(shape ...int) *Tensor {
	shape = slices.Clone(shape)
	infer := -1
	known := 1
	for i, d := range shape {
		if d == -1 {
			if infer >= 0 {
				panic(shapeErrorf("reshape", "more than one inferred dimension in %v", shape))
			}
			infer = i
			continue
		}
		known *= d
	}

	if infer >= 0 {
		if known == 0 || len(t.data)%known != 0 {
			panic(shapeErrorf("reshape", "cannot infer dimension of %v from %v", shape, t.shape))
		}
		shape[infer] = len(t.data) / known
	}

	if mul(shape...) != len(t.data) {
		panic(shapeErrorf("reshape", "cannot reshape %v to %v", t.shape, shape))
	}
	return &Tensor{shape: shape, data: t.data}
}

// SameShape prueft ob zwei Tensoren dieselbe Form haben.
func SameShape(a, b *Tensor) bool {
	return slices.Equal(a.shape, b.shape)
}

// Equal prueft bitgenaue Gleichheit von Form und Werten.
func Equal(a, b *Tensor) bool {
	return SameShape(a, b) && slices.Equal(a.data, b.data)
}

// String implementiert fmt.Stringer ueber Dump.
func (t *Tensor) String() string {
	return Dump(t)
}

// mustRank stellt sicher dass t genau rank Dimensionen hat.
func mustRank(op string, t *Tensor, rank int) {
	if len(t.shape) != rank {
		panic(shapeErrorf(op, "expected rank %d, got shape %v", rank, t.shape))
	}
}

// mustSameShape stellt sicher dass a und b dieselbe Form haben.
func mustSameShape(op string, a, b *Tensor) {
	if !SameShape(a, b) {
		panic(shapeErrorf(op, "shape mismatch %v vs %v", a.shape, b.shape))
	}
}

// nhwc zerlegt einen Rang-4 Tensor in seine Dimensionen.
func nhwc(op string, t *Tensor) (n, h, w, c int) {
	mustRank(op, t, 4)
	return t.shape[0], t.shape[1], t.shape[2], t.shape[3]
}
