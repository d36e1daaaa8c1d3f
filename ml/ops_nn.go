// ops_nn.go - Normalisierung und Filter fuer Bildnetze
//
// Enthaelt:
// - PixelNorm, InstanceNorm, Modulate (AdaIN Affintransformation)
// - Blur (separabler [1,2,1] Tiefpass)
// - AddNoise (Rauschkarte mit Kanal-Skalierung)
// - BatchStddev (Minibatch-Standardabweichung als Zusatzkanal)
package ml

import (
	"github.com/chewxy/math32"
)

// Epsilon ist der Stabilisierungsterm aller Normalisierungen.
const Epsilon = 1e-8

// PixelNorm normiert jeden Vektor der letzten Dimension auf mittleres
// Quadrat 1: x / sqrt(mean(x²) + eps).
func PixelNorm(x *Tensor) *Tensor {
	c := x.Dim(-1)
	out := New(x.shape...)
	if c == 0 {
		return out
	}
	for off := 0; off < len(x.data); off += c {
		var ss float32
		for _, v := range x.data[off : off+c] {
			ss += v * v
		}
		inv := 1 / math32.Sqrt(ss/float32(c)+Epsilon)
		for j := range c {
			out.data[off+j] = x.data[off+j] * inv
		}
	}
	return out
}

// InstanceNorm normiert [N,H,W,C] je Sample und Kanal ueber H und W auf
// Mittelwert 0 und Varianz 1.
func InstanceNorm(x *Tensor) *Tensor {
	n, h, w, c := nhwc("instance_norm", x)
	out := New(x.shape...)
	hw := h * w
	if hw == 0 {
		return out
	}

	mean := make([]float32, c)
	vars := make([]float32, c)
	for b := range n {
		img := x.data[b*hw*c : (b+1)*hw*c]
		clear(mean)
		clear(vars)
		for p := range hw {
			for ch := range c {
				mean[ch] += img[p*c+ch]
			}
		}
		for ch := range c {
			mean[ch] /= float32(hw)
		}
		for p := range hw {
			for ch := range c {
				d := img[p*c+ch] - mean[ch]
				vars[ch] += d * d
			}
		}
		for ch := range c {
			vars[ch] = 1 / math32.Sqrt(vars[ch]/float32(hw)+Epsilon)
		}

		dst := out.data[b*hw*c : (b+1)*hw*c]
		for p := range hw {
			for ch := range c {
				dst[p*c+ch] = (img[p*c+ch] - mean[ch]) * vars[ch]
			}
		}
	}
	return out
}

// Modulate wendet x·(1+scale)+bias mit Werten pro Sample und Kanal an.
// scale und bias haben die Form [N,C].
func Modulate(x, scale, bias *Tensor) *Tensor {
	n, h, w, c := nhwc("modulate", x)
	mustRank("modulate", scale, 2)
	mustSameShape("modulate", scale, bias)
	if scale.shape[0] != n || scale.shape[1] != c {
		panic(shapeErrorf("modulate", "style %v does not match features %v", scale.shape, x.shape))
	}

	out := New(x.shape...)
	hw := h * w
	for b := range n {
		s := scale.data[b*c : (b+1)*c]
		o := bias.data[b*c : (b+1)*c]
		for p := range hw {
			off := (b*hw + p) * c
			for ch := range c {
				out.data[off+ch] = x.data[off+ch]*(1+s[ch]) + o[ch]
			}
		}
	}
	return out
}

var blurTaps = [3]float32{1, 2, 1}

// Blur filtert [N,H,W,C] kanalweise mit dem normierten Kern
// [1,2,1]ᵀ·[1,2,1]/16 bei Null-Padding.
func Blur(x *Tensor) *Tensor {
	n, h, w, c := nhwc("blur", x)
	tmp := New(x.shape...)
	out := New(x.shape...)

	// horizontal
	for b := range n {
		for y := range h {
			for xx := range w {
				dst := ((b*h+y)*w + xx) * c
				for k, tap := range blurTaps {
					sx := xx + k - 1
					if sx < 0 || sx >= w {
						continue
					}
					src := ((b*h+y)*w + sx) * c
					for ch := range c {
						tmp.data[dst+ch] += tap * x.data[src+ch]
					}
				}
			}
		}
	}

	// vertikal
	for b := range n {
		for y := range h {
			for k, tap := range blurTaps {
				sy := y + k - 1
				if sy < 0 || sy >= h {
					continue
				}
				dst := ((b*h + y) * w) * c
				src := ((b*h + sy) * w) * c
				for j := range w * c {
					out.data[dst+j] += tap * tmp.data[src+j]
				}
			}
		}
	}

	for i := range out.data {
		out.data[i] /= 16
	}
	return out
}

// AddNoise addiert noise [N,H,W,1] skaliert mit scale[c] auf jeden Kanal c
// von x [N,H,W,C].
func AddNoise(x, noise *Tensor, scale []float32) *Tensor {
	n, h, w, c := nhwc("add_noise", x)
	nn, nh, nw, nc := nhwc("add_noise", noise)
	if nn != n || nh != h || nw != w || nc != 1 {
		panic(shapeErrorf("add_noise", "noise %v does not match features %v", noise.shape, x.shape))
	}
	if len(scale) != c {
		panic(shapeErrorf("add_noise", "scale of length %d for %d channels", len(scale), c))
	}

	out := New(x.shape...)
	for p, v := range noise.data {
		for ch := range c {
			out.data[p*c+ch] = x.data[p*c+ch] + v*scale[ch]
		}
	}
	return out
}

// BatchStddev haengt die Minibatch-Standardabweichung als features
// zusaetzliche Kanaele an x [N,H,W,C] an.
//
// Der Batch wird in Gruppen der Groesse group aufgeteilt; Sample n gehoert
// zur Untergruppe m = n mod (N/group). Ist N kein Vielfaches von group,
// wird die groesste Gruppengroesse <= group verwendet, die N teilt. Die
// Kanaele werden in features gleich grosse Teile zerlegt.
func BatchStddev(x *Tensor, group, features int) *Tensor {
	n, h, w, c := nhwc("batch_stddev", x)
	if group < 1 || features < 1 {
		panic(shapeErrorf("batch_stddev", "group %d and features %d must be positive", group, features))
	}
	if c%features != 0 {
		panic(shapeErrorf("batch_stddev", "%d channels not divisible into %d features", c, features))
	}

	g := GroupSize(n, group)
	m := n
	if g > 0 {
		m = n / g
	}
	cf := c / features
	hw := h * w

	// stats[mi*features+f] = mittlere Standardabweichung der Untergruppe mi
	stats := make([]float32, m*features)
	for mi := range m {
		for p := range hw {
			for ch := range c {
				var mean float32
				for gi := range g {
					mean += x.data[((gi*m+mi)*hw+p)*c+ch]
				}
				mean /= float32(g)

				var v float32
				for gi := range g {
					d := x.data[((gi*m+mi)*hw+p)*c+ch] - mean
					v += d * d
				}
				v /= float32(g)
				stats[mi*features+ch/cf] += math32.Sqrt(v + Epsilon)
			}
		}
	}
	for i := range stats {
		stats[i] /= float32(hw * cf)
	}

	out := New(n, h, w, c+features)
	for b := range n {
		mi := b % m
		for p := range hw {
			src := (b*hw + p) * c
			dst := (b*hw + p) * (c + features)
			copy(out.data[dst:dst+c], x.data[src:src+c])
			copy(out.data[dst+c:dst+c+features], stats[mi*features:(mi+1)*features])
		}
	}
	return out
}

// GroupSize gibt die groesste Gruppengroesse <= group zurueck, die n teilt.
func GroupSize(n, group int) int {
	if n <= 0 {
		return 0
	}
	g := min(group, n)
	for n%g != 0 {
		g--
	}
	return g
}
