// layout.go - Umrechnung fremder Tensor-Layouts
// Gewichte aus PyTorch-Exporten liegen als OIHW (Faltungen), [Out, In]
// (Dense) und NCHW (Konstanten) vor. Intern wird HWIO, [In, Out] und NHWC
// verwendet.
package safetensors

import (
	"fmt"
	"strings"

	"github.com/pdevine/tensor"
)

// Layout beschreibt die Achsenreihenfolge der Tensoren einer Datei.
type Layout int

const (
	// LayoutNative entspricht dem internen Layout (HWIO, [In, Out], NHWC).
	LayoutNative Layout = iota
	// LayoutTorch ist das PyTorch-Layout (OIHW, [Out, In], NCHW).
	LayoutTorch
)

func (l Layout) String() string {
	if l == LayoutTorch {
		return "torch"
	}
	return "native"
}

// ParseLayout wandelt "native" oder "torch" in ein Layout um.
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "", "native":
		return LayoutNative, nil
	case "torch":
		return LayoutTorch, nil
	}
	return LayoutNative, fmt.Errorf("safetensors: unknown layout %q", s)
}

// fromTorch permutiert einen Tensor aus dem PyTorch-Layout ins interne Layout.
func fromTorch(name string, src Tensor) ([]float32, []int, error) {
	var perm []int
	switch {
	case isKernel(name) && len(src.Shape) == 4:
		perm = []int{2, 3, 1, 0} // OIHW -> HWIO
	case isKernel(name) && len(src.Shape) == 2:
		perm = []int{1, 0}
	case strings.HasSuffix(name, "/const") && len(src.Shape) == 4:
		perm = []int{0, 2, 3, 1} // NCHW -> NHWC
	default:
		return src.Data, src.Shape, nil
	}

	data := append([]float32(nil), src.Data...)
	t := tensor.New(tensor.WithShape(src.Shape...), tensor.WithBacking(data))
	if err := t.T(perm...); err != nil {
		return nil, nil, fmt.Errorf("safetensors: %q: %w", name, err)
	}
	if err := t.Transpose(); err != nil {
		return nil, nil, fmt.Errorf("safetensors: %q: %w", name, err)
	}

	shape := make([]int, len(perm))
	for i, p := range perm {
		shape[i] = src.Shape[p]
	}
	return t.Data().([]float32), shape, nil
}
