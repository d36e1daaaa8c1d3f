// MODUL: synthesis
// ZWECK: Syntheseteil des Generators (Konstante 4×4 Basis, StyleBlocks, ToRGB, LOD-Stufen)
// INPUT: LOD, Latent-Stapel [N, 2·numBlocks, Latent], Rauschkarten pro Stufe [N, r, r, 2]
// OUTPUT: Bild [N, R, R, Channels] im natuerlichen Wertebereich der Faltung
// NEBENEFFEKTE: Keine (Parameter werden nur gelesen)
// ABHAENGIGKEITEN: ml, ml/nn, logutil
// HINWEISE: Stufen liegen als geordnete Liste vor; die Ueberblendung folgt dem Mode

package stylegan

import (
	"fmt"
	"log/slog"

	"github.com/7blacky7/stylegan/logutil"
	"github.com/7blacky7/stylegan/ml"
	"github.com/7blacky7/stylegan/ml/nn"
)

const lreluAlpha = 0.2

// ============================================================================
// Bausteine
// ============================================================================

// styleLayer ist ein Teilschritt noise → bias → lrelu → AdaIN.
type styleLayer struct {
	noise *nn.NoiseScale
	bias  *nn.Bias
	adain *nn.AdaIN
}

func newStyleLayer(s nn.Scope, res, filters, latent, idx int, cfg nn.Config) styleLayer {
	return styleLayer{
		noise: nn.NewNoiseScale(s.Subf("scale_add_%dx%d_%d", res, res, idx), filters),
		bias:  nn.NewBias(s.Subf("add_bias2d_%dx%d_%d", res, res, idx), filters, cfg),
		adain: nn.NewAdaIN(s.Subf("AdaIN_block_%dx%d_%d", res, res, idx).Subf("scaled_dense_%dx%d", res, res), latent, filters, cfg),
	}
}

func (l styleLayer) forward(x, noise, w *ml.Tensor) *ml.Tensor {
	h := l.noise.Forward(x, noise)
	h = l.bias.Forward(h)
	h = ml.LeakyReLU(h, lreluAlpha)
	return l.adain.Forward(h, w)
}

// ConstBlock ist die 4×4 Basis: lernbare Konstante statt Upsampling.
type ConstBlock struct {
	konst  *nn.Const
	layer0 styleLayer
	conv   *nn.Conv2D
	layer1 styleLayer
}

// NewConstBlock legt die Basisstufe mit filters Kanaelen unter s an.
func NewConstBlock(s nn.Scope, filters, latent int, cfg nn.Config) *ConstBlock {
	return &ConstBlock{
		konst:  nn.NewConst(s.Sub("scaleadd_to_const"), 4, 4, filters),
		layer0: newStyleLayer(s, 4, filters, latent, 0, cfg),
		conv:   nn.NewScaledConv2D(s.Sub("scaled_conv2d_4x4"), 3, filters, filters, cfg),
		layer1: newStyleLayer(s, 4, filters, latent, 1, cfg),
	}
}

// Forward erwartet w [N,2,Latent] und noise [N,4,4,2].
func (b *ConstBlock) Forward(w, noise *ml.Tensor) *ml.Tensor {
	h := b.layer0.forward(b.konst.Forward(w.Dim(0)), ml.Channel(noise, 0), ml.Row1(w, 0))
	h = b.conv.Forward(h)
	return b.layer1.forward(h, ml.Channel(noise, 1), ml.Row1(w, 1))
}

// StyleBlock verdoppelt die Aufloesung und wendet zwei stilmodulierte
// Faltungen mit Rauschen an.
type StyleBlock struct {
	conv0  *nn.Conv2D
	layer0 styleLayer
	conv1  *nn.Conv2D
	layer1 styleLayer
}

// NewStyleBlock legt einen Block fuer Aufloesung res an (Eingang inFilters
// bei res/2, Ausgang filters bei res).
func NewStyleBlock(s nn.Scope, res, inFilters, filters, latent int, cfg nn.Config) *StyleBlock {
	noBias := cfg.WithBias(false)
	return &StyleBlock{
		conv0:  nn.NewScaledConv2D(s.Subf("scaled_conv2d_%dx%d_0", res, res), 3, inFilters, filters, noBias),
		layer0: newStyleLayer(s, res, filters, latent, 0, cfg),
		conv1:  nn.NewScaledConv2D(s.Subf("scaled_conv2d_%dx%d_1", res, res), 3, filters, filters, noBias),
		layer1: newStyleLayer(s, res, filters, latent, 1, cfg),
	}
}

// Forward erwartet x [N,res/2,res/2,inFilters], w [N,2,Latent], noise [N,res,res,2].
func (b *StyleBlock) Forward(x, w, noise *ml.Tensor) *ml.Tensor {
	h := b.conv0.Forward(ml.Upsample2x(x))
	h = ml.Blur(h)
	h = b.layer0.forward(h, ml.Channel(noise, 0), ml.Row1(w, 0))
	h = b.conv1.Forward(h)
	return b.layer1.forward(h, ml.Channel(noise, 1), ml.Row1(w, 1))
}

// ToRGB projiziert Features per 1×1 Faltung in den Bildraum.
type ToRGB struct {
	conv *nn.Conv2D
}

func NewToRGB(s nn.Scope, res, filters, channels int, cfg nn.Config) *ToRGB {
	return &ToRGB{
		conv: nn.NewScaledConv2D(s.Subf("scaled_conv2d_%dx%d_toRGB", res, res), 1, filters, channels, cfg.WithGain(1).WithBias(true)),
	}
}

func (t *ToRGB) Forward(x *ml.Tensor) *ml.Tensor {
	return t.conv.Forward(x)
}

// ============================================================================
// SynthesisStage - eine Aufloesungsstufe mit Ueberblendung
// ============================================================================

// SynthesisStage ist Stufe Level (1-basiert) bei Aufloesung 4·2^Level.
type SynthesisStage struct {
	Level      int
	Resolution int
	Filters    int

	block *StyleBlock
	toRGB *ToRGB
	mode  Mode
}

// Forward fuehrt die Stufe aus und gibt (Features, Bild) zurueck.
func (s *SynthesisStage) Forward(x, image, w, noise *ml.Tensor, lod float32) (*ml.Tensor, *ml.Tensor) {
	p := s.mode.planFor(s.Level, lod)
	if !p.computeNew {
		return ml.Upsample2x(x), ml.Upsample2x(image)
	}

	x = s.block.Forward(x, w, noise)
	y := s.toRGB.Forward(x)
	if !p.useOld {
		return x, y
	}
	return x, interpolateClip(y, ml.Upsample2x(image), p.ratio)
}

// ============================================================================
// GeneratorSynthesis
// ============================================================================

// GeneratorSynthesis ist die Kette Basis → Stufe 1 … Stufe numBlocks-1.
type GeneratorSynthesis struct {
	Base    *ConstBlock
	BaseRGB *ToRGB
	Stages  []*SynthesisStage

	opts Options
}

// NewGeneratorSynthesis legt alle Stufen unter "generator_synthesis" an.
func NewGeneratorSynthesis(reg *nn.Registry, opts Options) *GeneratorSynthesis {
	cfg := opts.layerConfig()
	s := reg.Scope("generator_synthesis")

	nf := opts.NumFilters(4)
	g := &GeneratorSynthesis{
		Base:    NewConstBlock(s.Sub("const_block"), nf, opts.Latent, cfg),
		BaseRGB: NewToRGB(s.Sub("toRGB_4x4"), 4, nf, opts.Channels, cfg),
		opts:    opts,
	}

	res := 4
	for i := 1; i < opts.NumBlocks(); i++ {
		res *= 2
		bs := s.Subf("block%d", i)
		stage := &SynthesisStage{
			Level:      i,
			Resolution: res,
			Filters:    opts.NumFilters(res),
			block:      NewStyleBlock(bs.Subf("generator_block_%dx%d", res, res), res, opts.NumFilters(res/2), opts.NumFilters(res), opts.Latent, cfg),
			toRGB:      NewToRGB(bs.Subf("toRGB_%dx%d", res, res), res, opts.NumFilters(res), opts.Channels, cfg),
			mode:       opts.mode(),
		}
		g.Stages = append(g.Stages, stage)
		slog.Debug("synthesis stage", "level", i, "resolution", res, "filters", stage.Filters, "mode", stage.mode)
	}
	return g
}

// Forward erzeugt das Bild fuer lod aus w [N, 2·numBlocks, Latent] und den
// Rauschkarten noise[i] [N, 4·2^i, 4·2^i, 2].
func (g *GeneratorSynthesis) Forward(lod float32, w *ml.Tensor, noise []*ml.Tensor) (out *ml.Tensor, err error) {
	if err := checkLOD(lod); err != nil {
		return nil, err
	}
	if err := g.validate(w, noise); err != nil {
		return nil, err
	}
	defer ml.Recover(&err)

	logutil.Trace("synthesis forward", "lod", lod, "batch", w.Dim(0))

	x := g.Base.Forward(ml.Slice1(w, 0, 2), noise[0])
	image := g.BaseRGB.Forward(x)
	for _, stage := range g.Stages {
		i := stage.Level
		x, image = stage.Forward(x, image, ml.Slice1(w, 2*i, 2*i+2), noise[i], lod)
	}
	return image, nil
}

func (g *GeneratorSynthesis) validate(w *ml.Tensor, noise []*ml.Tensor) error {
	nb := g.opts.NumBlocks()
	if w == nil || w.Rank() != 3 || w.Dim(1) != 2*nb || w.Dim(2) != g.opts.Latent {
		var shape []int
		if w != nil {
			shape = w.Shape()
		}
		return fmt.Errorf("%w: latent stack %v, expected [N %d %d]", ErrInput, shape, 2*nb, g.opts.Latent)
	}
	if len(noise) != nb {
		return fmt.Errorf("%w: %d noise maps, expected %d", ErrInput, len(noise), nb)
	}

	n := w.Dim(0)
	for i, t := range noise {
		r := 4 << i
		if t == nil || t.Rank() != 4 || t.Dim(0) != n || t.Dim(1) != r || t.Dim(2) != r || t.Dim(3) != 2 {
			var shape []int
			if t != nil {
				shape = t.Shape()
			}
			return fmt.Errorf("%w: noise %d of shape %v, expected [%d %d %d 2]", ErrInput, i, shape, n, r, r)
		}
	}
	return nil
}
