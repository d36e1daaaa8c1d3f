// ops_shape.go - Form- und Resampling-Operationen
//
// Enthaelt:
// - Tile, Upsample2x (Nearest-Neighbor Vergroesserung)
// - BlockMean, AvgPool2x (Block-Mittelwert Verkleinerung)
// - Concat (letzte Dimension), Channel
// - Repeat, Slice1, Row1 (Latent-Stapel [N, L, D])
// - MeanRows, Flatten
package ml

// Tile vergroessert [N,H,W,C] um Faktor f durch Wiederholen jedes Pixels.
func Tile(x *Tensor, f int) *Tensor {
	n, h, w, c := nhwc("tile", x)
	if f < 1 {
		panic(shapeErrorf("tile", "factor %d < 1", f))
	}
	if f == 1 {
		return x.Clone()
	}

	oh, ow := h*f, w*f
	out := New(n, oh, ow, c)
	for b := range n {
		for y := range oh {
			src := ((b*h + y/f) * w) * c
			dst := ((b*oh + y) * ow) * c
			for xx := range ow {
				copy(out.data[dst+xx*c:dst+(xx+1)*c], x.data[src+(xx/f)*c:src+(xx/f+1)*c])
			}
		}
	}
	return out
}

// Upsample2x vergroessert um Faktor 2 (Nearest-Neighbor).
func Upsample2x(x *Tensor) *Tensor {
	return Tile(x, 2)
}

// BlockMean mittelt nicht-ueberlappende f×f Bloecke von [N,H,W,C].
func BlockMean(x *Tensor, f int) *Tensor {
	n, h, w, c := nhwc("block_mean", x)
	if f < 1 || h%f != 0 || w%f != 0 {
		panic(shapeErrorf("block_mean", "factor %d does not divide %dx%d", f, h, w))
	}
	if f == 1 {
		return x.Clone()
	}

	oh, ow := h/f, w/f
	out := New(n, oh, ow, c)
	inv := 1 / float32(f*f)
	for b := range n {
		for y := range h {
			for xx := range w {
				src := ((b*h+y)*w + xx) * c
				dst := ((b*oh+y/f)*ow + xx/f) * c
				for ch := range c {
					out.data[dst+ch] += x.data[src+ch]
				}
			}
		}
	}
	for i := range out.data {
		out.data[i] *= inv
	}
	return out
}

// AvgPool2x ist ein 2×2 Average-Pooling mit Schrittweite 2.
func AvgPool2x(x *Tensor) *Tensor {
	return BlockMean(x, 2)
}

// Concat haengt b an a entlang der letzten Dimension an.
func Concat(a, b *Tensor) *Tensor {
	if a.Rank() != b.Rank() {
		panic(shapeErrorf("concat", "rank mismatch %v vs %v", a.shape, b.shape))
	}
	for i := 0; i < a.Rank()-1; i++ {
		if a.shape[i] != b.shape[i] {
			panic(shapeErrorf("concat", "leading dimensions differ %v vs %v", a.shape, b.shape))
		}
	}

	ca, cb := a.Dim(-1), b.Dim(-1)
	shape := a.Shape()
	shape[len(shape)-1] = ca + cb
	out := New(shape...)

	rows := len(a.data) / max(ca, 1)
	if ca == 0 {
		rows = len(b.data) / max(cb, 1)
	}
	for r := range rows {
		dst := r * (ca + cb)
		copy(out.data[dst:dst+ca], a.data[r*ca:(r+1)*ca])
		copy(out.data[dst+ca:dst+ca+cb], b.data[r*cb:(r+1)*cb])
	}
	return out
}

// Channel extrahiert Kanal ch aus [N,H,W,C] als [N,H,W,1].
func Channel(x *Tensor, ch int) *Tensor {
	n, h, w, c := nhwc("channel", x)
	if ch < 0 || ch >= c {
		panic(shapeErrorf("channel", "channel %d out of range for %v", ch, x.shape))
	}

	out := New(n, h, w, 1)
	for i := range out.data {
		out.data[i] = x.data[i*c+ch]
	}
	return out
}

// Repeat wiederholt [N,D] l-mal entlang einer neuen Achse 1: [N,l,D].
func Repeat(x *Tensor, l int) *Tensor {
	mustRank("repeat", x, 2)
	n, d := x.shape[0], x.shape[1]
	out := New(n, l, d)
	for b := range n {
		for j := range l {
			copy(out.data[(b*l+j)*d:(b*l+j+1)*d], x.data[b*d:(b+1)*d])
		}
	}
	return out
}

// Slice1 schneidet [N,L,D] entlang Achse 1 auf [lo, hi).
func Slice1(x *Tensor, lo, hi int) *Tensor {
	mustRank("slice", x, 3)
	n, l, d := x.shape[0], x.shape[1], x.shape[2]
	if lo < 0 || hi > l || lo > hi {
		panic(shapeErrorf("slice", "range [%d,%d) out of bounds for %v", lo, hi, x.shape))
	}

	out := New(n, hi-lo, d)
	for b := range n {
		copy(out.data[b*(hi-lo)*d:(b+1)*(hi-lo)*d], x.data[(b*l+lo)*d:(b*l+hi)*d])
	}
	return out
}

// Row1 extrahiert Position j aus [N,L,D] als [N,D].
func Row1(x *Tensor, j int) *Tensor {
	return Slice1(x, j, j+1).Reshape(x.Dim(0), x.Dim(2))
}

// MeanRows mittelt [N,D] ueber die Batch-Dimension zu [D].
func MeanRows(x *Tensor) *Tensor {
	mustRank("mean_rows", x, 2)
	n, d := x.shape[0], x.shape[1]
	out := New(d)
	if n == 0 {
		return out
	}
	for b := range n {
		for j := range d {
			out.data[j] += x.data[b*d+j]
		}
	}
	for j := range out.data {
		out.data[j] /= float32(n)
	}
	return out
}

// Flatten formt [N, ...] zu [N, prod(...)] um.
func Flatten(x *Tensor) *Tensor {
	return x.Reshape(x.Dim(0), -1)
}
