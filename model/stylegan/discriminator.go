// MODUL: discriminator
// ZWECK: Diskriminator als Spiegel der Synthese (FromRGB, Bloecke, LOD-Stufen, Ausgabekopf)
// INPUT: LOD, Bild [N, R, R, Channels]
// OUTPUT: Score [N, 1]
// NEBENEFFEKTE: Spektralnormierung aktualisiert ihre Potenziterations-Vektoren
// ABHAENGIGKEITEN: ml, ml/nn, logutil
// HINWEISE: Stufe k (ab Eingang) hat Level numBlocks-k und arbeitet bei R/2^k

package stylegan

import (
	"fmt"
	"log/slog"

	"github.com/7blacky7/stylegan/logutil"
	"github.com/7blacky7/stylegan/ml"
	"github.com/7blacky7/stylegan/ml/nn"
)

// ============================================================================
// Bausteine
// ============================================================================

func newConv(s nn.Scope, k, in, out int, cfg nn.Config, sn bool) *nn.Conv2D {
	if sn {
		return nn.NewSNConv2D(s, k, in, out, cfg)
	}
	return nn.NewScaledConv2D(s, k, in, out, cfg)
}

func newDense(s nn.Scope, in, out int, cfg nn.Config, sn bool) *nn.Dense {
	if sn {
		return nn.NewSNDense(s, in, out, cfg)
	}
	return nn.NewScaledDense(s, in, out, cfg)
}

// layerPrefix liefert "sn" oder "scaled" fuer Parameternamen.
func layerPrefix(sn bool) string {
	if sn {
		return "sn"
	}
	return "scaled"
}

// FromRGB projiziert ein Bild per 1×1 Faltung + Bias + LeakyReLU in den Feature-Raum.
type FromRGB struct {
	conv *nn.Conv2D
}

func NewFromRGB(s nn.Scope, res, channels, filters int, cfg nn.Config, sn bool) *FromRGB {
	name := fmt.Sprintf("%s_conv2d_%dx%d_fromRGB", layerPrefix(sn), res, res)
	return &FromRGB{conv: newConv(s.Sub(name), 1, channels, filters, cfg.WithBias(true), sn)}
}

func (f *FromRGB) Forward(image *ml.Tensor) *ml.Tensor {
	return ml.LeakyReLU(f.conv.Forward(image), lreluAlpha)
}

// DiscriminatorBlock halbiert die Aufloesung:
// conv3×3+bias → lrelu → blur → conv3×3 → avgpool → bias → lrelu.
type DiscriminatorBlock struct {
	conv0 *nn.Conv2D
	conv1 *nn.Conv2D
	bias  *nn.Bias
}

// NewDiscriminatorBlock legt einen Block fuer Eingangsaufloesung res an.
func NewDiscriminatorBlock(s nn.Scope, res, in, out int, cfg nn.Config, sn bool) *DiscriminatorBlock {
	p := layerPrefix(sn)
	return &DiscriminatorBlock{
		conv0: newConv(s.Subf("%s_conv2d_%dx%d_0", p, res, res), 3, in, in, cfg.WithBias(true), sn),
		conv1: newConv(s.Subf("%s_conv2d_%dx%d_1", p, res, res), 3, in, out, cfg.WithBias(false), sn),
		bias:  nn.NewBias(s.Subf("add_bias2d_%dx%d", res, res), out, cfg),
	}
}

func (b *DiscriminatorBlock) Forward(x *ml.Tensor) *ml.Tensor {
	h := ml.LeakyReLU(b.conv0.Forward(x), lreluAlpha)
	h = ml.Blur(h)
	h = ml.AvgPool2x(b.conv1.Forward(h))
	return ml.LeakyReLU(b.bias.Forward(h), lreluAlpha)
}

// OutputBlock ist der Kopf bei 4×4:
// batch stddev → conv3×3+bias → lrelu → flatten → dense → lrelu → dense(1).
type OutputBlock struct {
	conv   *nn.Conv2D
	dense0 *nn.Dense
	dense1 *nn.Dense

	group, features int
}

func NewOutputBlock(s nn.Scope, filters, hidden int, opts Options) *OutputBlock {
	cfg, sn := opts.layerConfig().WithBias(true), opts.SpectralNorm
	p := layerPrefix(sn)
	in := filters + opts.StddevFeatures
	return &OutputBlock{
		conv:     newConv(s.Subf("%s_conv2d_4x4", p), 3, in, filters, cfg, sn),
		dense0:   newDense(s.Subf("%s_dense_4x4_0", p), 16*filters, hidden, cfg, sn),
		dense1:   newDense(s.Subf("%s_dense_4x4_1", p), hidden, 1, cfg.WithGain(1), sn),
		group:    opts.StddevGroup,
		features: opts.StddevFeatures,
	}
}

func (b *OutputBlock) Forward(x *ml.Tensor) *ml.Tensor {
	h := ml.BatchStddev(x, b.group, b.features)
	h = ml.LeakyReLU(b.conv.Forward(h), lreluAlpha)
	h = ml.LeakyReLU(b.dense0.Forward(ml.Flatten(h)), lreluAlpha)
	return b.dense1.Forward(h)
}

// ============================================================================
// AnalysisStage - eine Aufloesungsstufe mit Ueberblendung
// ============================================================================

// AnalysisStage ist Stufe Index (1-basiert ab Eingang) mit Level
// numBlocks-Index bei Aufloesung R/2^Index.
type AnalysisStage struct {
	Index      int
	Level      int
	Resolution int
	Filters    int

	block   *DiscriminatorBlock
	fromRGB *FromRGB
	mode    Mode
}

// Forward halbiert das mitgefuehrte Bild und gibt (Features, Bild) zurueck.
func (s *AnalysisStage) Forward(x, image *ml.Tensor, lod float32) (*ml.Tensor, *ml.Tensor) {
	image = ml.AvgPool2x(image)

	p := s.mode.planFor(s.Level, lod)
	switch {
	case !p.computeNew:
		return s.fromRGB.Forward(image), image
	case !p.useOld:
		return s.block.Forward(x), image
	default:
		return interpolateClip(s.block.Forward(x), s.fromRGB.Forward(image), p.ratio), image
	}
}

// ============================================================================
// Discriminator
// ============================================================================

// Discriminator bildet ein Bild ueber alle Stufen auf einen Score ab.
type Discriminator struct {
	Input  *FromRGB
	Stages []*AnalysisStage
	Output *OutputBlock

	opts Options
}

// NewDiscriminator legt alle Stufen unter "discriminator" an.
func NewDiscriminator(reg *nn.Registry, opts Options) *Discriminator {
	cfg := opts.layerConfig()
	sn := opts.SpectralNorm
	s := reg.Scope("discriminator")

	res := opts.Resolution
	d := &Discriminator{
		Input: NewFromRGB(s.Subf("fromRGB_%dx%d", res, res), res, opts.Channels, opts.NumFilters(res), cfg, sn),
		opts:  opts,
	}

	nb := opts.NumBlocks()
	for k := 1; k < nb; k++ {
		res /= 2
		bs := s.Subf("block%d", k)
		stage := &AnalysisStage{
			Index:      k,
			Level:      nb - k,
			Resolution: res,
			Filters:    opts.NumFilters(res),
			block: NewDiscriminatorBlock(bs.Subf("discriminator_block_%dx%d", 2*res, 2*res),
				2*res, opts.NumFilters(2*res), opts.NumFilters(res), cfg, sn),
			fromRGB: NewFromRGB(bs.Subf("fromRGB_%dx%d", res, res), res, opts.Channels, opts.NumFilters(res), cfg, sn),
			mode:    opts.mode(),
		}
		d.Stages = append(d.Stages, stage)
		slog.Debug("discriminator stage", "index", k, "level", stage.Level, "resolution", res, "filters", stage.Filters, "mode", stage.mode)
	}

	d.Output = NewOutputBlock(s.Sub("discriminator_block_output"), opts.NumFilters(4), opts.NumFilters(2), opts)
	return d
}

// Forward bewertet image [N, R, R, Channels] bei lod und gibt [N, 1] zurueck.
func (d *Discriminator) Forward(lod float32, image *ml.Tensor) (out *ml.Tensor, err error) {
	if err := checkLOD(lod); err != nil {
		return nil, err
	}
	r, c := d.opts.Resolution, d.opts.Channels
	if image == nil || image.Rank() != 4 || image.Dim(1) != r || image.Dim(2) != r || image.Dim(3) != c {
		return nil, fmt.Errorf("%w: image must be [N %d %d %d]", ErrInput, r, r, c)
	}
	defer ml.Recover(&err)

	logutil.Trace("discriminator forward", "lod", lod, "batch", image.Dim(0))

	x := d.Input.Forward(image)
	for _, stage := range d.Stages {
		x, image = stage.Forward(x, image, lod)
	}
	return d.Output.Forward(x), nil
}
