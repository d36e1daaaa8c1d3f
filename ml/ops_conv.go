// ops_conv.go - Faltung und Matrixmultiplikation
//
// Enthaelt:
// - Conv2D (HWIO Kernel, "same" Padding, im2col + GEMM)
// - MatMul (Dense-Schicht [N,D] x [D,O])
// - SetNumThreads (Parallelitaet ueber die Batch-Dimension)
package ml

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

var numThreads atomic.Int64

func init() {
	numThreads.Store(int64(runtime.NumCPU()))
}

// SetNumThreads begrenzt die Anzahl paralleler Batch-Zeilen in Conv2D.
// Werte <= 0 setzen auf runtime.NumCPU() zurueck.
func SetNumThreads(n int) {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	numThreads.Store(int64(n))
}

// NumThreads gibt die aktuelle Begrenzung zurueck.
func NumThreads() int {
	return int(numThreads.Load())
}

// Conv2D faltet x [N,H,W,Ci] mit kernel [KH,KW,Ci,Co] bei Schrittweite 1 und
// "same" Padding. Das Ergebnis wird mit alpha skaliert.
func Conv2D(x, kernel *Tensor, alpha float32) *Tensor {
	n, h, w, ci := nhwc("conv2d", x)
	mustRank("conv2d", kernel, 4)
	kh, kw, kci, co := kernel.shape[0], kernel.shape[1], kernel.shape[2], kernel.shape[3]
	if kci != ci {
		panic(shapeErrorf("conv2d", "kernel %v expects %d input channels, got %d", kernel.shape, kci, ci))
	}
	if kh%2 == 0 || kw%2 == 0 {
		panic(shapeErrorf("conv2d", "even kernel size %dx%d", kh, kw))
	}

	out := New(n, h, w, co)
	b := blas32.General{Rows: kh * kw * ci, Cols: co, Stride: co, Data: kernel.data}

	var g errgroup.Group
	g.SetLimit(NumThreads())
	for i := range n {
		g.Go(func() error {
			src := x.data[i*h*w*ci : (i+1)*h*w*ci]
			a := blas32.General{Rows: h * w, Cols: ci, Stride: ci, Data: src}
			if kh != 1 || kw != 1 {
				a = im2col(src, h, w, ci, kh, kw)
			}
			c := blas32.General{Rows: h * w, Cols: co, Stride: co, Data: out.data[i*h*w*co : (i+1)*h*w*co]}
			blas32.Gemm(blas.NoTrans, blas.NoTrans, alpha, a, b, 0, c)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// im2col entfaltet ein einzelnes [H,W,C] Bild zu [H*W, KH*KW*C] mit
// Null-Padding an den Raendern.
func im2col(src []float32, h, w, c, kh, kw int) blas32.General {
	cols := kh * kw * c
	data := make([]float32, h*w*cols)
	ph, pw := kh/2, kw/2
	for y := range h {
		for x := range w {
			row := data[(y*w+x)*cols : (y*w+x+1)*cols]
			for dy := range kh {
				sy := y + dy - ph
				if sy < 0 || sy >= h {
					continue
				}
				for dx := range kw {
					sx := x + dx - pw
					if sx < 0 || sx >= w {
						continue
					}
					off := (dy*kw + dx) * c
					copy(row[off:off+c], src[(sy*w+sx)*c:(sy*w+sx+1)*c])
				}
			}
		}
	}
	return blas32.General{Rows: h * w, Cols: cols, Stride: cols, Data: data}
}

// MatMul berechnet alpha * x [N,D] · w [D,O].
func MatMul(x, w *Tensor, alpha float32) *Tensor {
	mustRank("matmul", x, 2)
	mustRank("matmul", w, 2)
	if x.shape[1] != w.shape[0] {
		panic(shapeErrorf("matmul", "cannot multiply %v by %v", x.shape, w.shape))
	}

	n, d, o := x.shape[0], x.shape[1], w.shape[1]
	out := New(n, o)
	if n == 0 || d == 0 || o == 0 {
		return out
	}

	blas32.Gemm(blas.NoTrans, blas.NoTrans, alpha,
		blas32.General{Rows: n, Cols: d, Stride: d, Data: x.data},
		blas32.General{Rows: d, Cols: o, Stride: o, Data: w.data},
		0,
		blas32.General{Rows: n, Cols: o, Stride: o, Data: out.data})
	return out
}
