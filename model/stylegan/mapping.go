// mapping.go - Mapping-Netz
// Dieses Modul bildet einen Eingabe-Latent [N, Latent] ueber PixelNorm und
// MappingLayers Dense+LeakyReLU Schichten auf den Latent-Stapel
// [N, 2·numBlocks, Latent] ab.
package stylegan

import (
	"fmt"

	"github.com/7blacky7/stylegan/ml"
	"github.com/7blacky7/stylegan/ml/nn"
)

// MappingNetwork erzeugt den per-Schicht Latent-Stapel.
type MappingNetwork struct {
	Layers []*nn.Dense

	numLatent int
	numRepeat int
}

// NewMappingNetwork legt die Schichten unter "generator_mapping" an.
func NewMappingNetwork(reg *nn.Registry, opts Options) *MappingNetwork {
	cfg := opts.layerConfig()
	cfg.LRMul = opts.MappingLRMul
	cfg.Bias = true

	s := reg.Scope("generator_mapping")
	m := &MappingNetwork{numLatent: opts.Latent, numRepeat: opts.NumLayers()}

	in := opts.Latent
	for i := range opts.MappingLayers {
		out := opts.MappingWidth
		if i == opts.MappingLayers-1 {
			out = opts.Latent
		}
		m.Layers = append(m.Layers, nn.NewScaledDense(s.Subf("scaled_dense_%d", i), in, out, cfg))
		in = out
	}
	return m
}

// Forward bildet z [N, Latent] auf [N, 2·numBlocks, Latent] ab.
func (m *MappingNetwork) Forward(z *ml.Tensor) (out *ml.Tensor, err error) {
	if z == nil || z.Rank() != 2 || z.Dim(1) != m.numLatent {
		return nil, fmt.Errorf("%w: input latent must be [N %d]", ErrInput, m.numLatent)
	}
	defer ml.Recover(&err)

	h := ml.PixelNorm(z)
	for _, layer := range m.Layers {
		h = ml.LeakyReLU(layer.Forward(h), lreluAlpha)
	}
	return ml.Repeat(h, m.numRepeat), nil
}
