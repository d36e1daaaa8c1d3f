// MODUL: generator
// ZWECK: Zusammensetzung Mapping → StyleMixer → Synthese sowie das Netzpaar aus Generator und Diskriminator
// INPUT: Functional Options, Eingabe-Latents, LOD, Rauschkarten
// OUTPUT: Bilder [N, R, R, Channels], Scores [N, 1], Topologie-Beschreibung
// NEBENEFFEKTE: Konstruktion loggt die Topologie auf DEBUG
// ABHAENGIGKEITEN: ml, ml/nn, math/rand/v2, log/slog
// HINWEISE: Generator und Diskriminator haben getrennte Registries (Seed bzw. Seed+1)

package stylegan

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/7blacky7/stylegan/ml"
	"github.com/7blacky7/stylegan/ml/nn"
)

// ============================================================================
// Generator
// ============================================================================

// Generator verbindet Mapping-Netz, StyleMixer und Synthese.
type Generator struct {
	Mapping   *MappingNetwork
	Mixer     *StyleMixer
	Synthesis *GeneratorSynthesis
	Params    *nn.Registry

	opts Options
}

// NewGenerator validiert opts und legt alle Generator-Parameter an.
func NewGenerator(opts ...Option) (*Generator, error) {
	o, err := NewOptions(opts...)
	if err != nil {
		return nil, err
	}
	return newGenerator(o), nil
}

func newGenerator(o Options) *Generator {
	reg := nn.NewRegistry(o.Seed)
	g := &Generator{
		Synthesis: NewGeneratorSynthesis(reg, o),
		Mapping:   NewMappingNetwork(reg, o),
		Mixer:     NewStyleMixer(reg, o),
		Params:    reg,
		opts:      o,
	}
	slog.Debug("generator created", "resolution", o.Resolution, "stages", len(g.Synthesis.Stages), "tensors", reg.Count(), "params", reg.NumParams())
	return g
}

// Options gibt die Konstruktionsparameter zurueck.
func (g *Generator) Options() Options {
	return g.opts
}

// Forward erzeugt Bilder aus z1 (und z2 fuer Style Mixing) [N, Latent].
// Ist z2 nil, wird z1 fuer beide Stapel verwendet. Ist noise nil, wird
// Rauschen aus einem vom Seed abgeleiteten RNG gezogen.
func (g *Generator) Forward(lod float32, z1, z2 *ml.Tensor, noise []*ml.Tensor, training bool) (*ml.Tensor, error) {
	w1, err := g.Mapping.Forward(z1)
	if err != nil {
		return nil, fmt.Errorf("mapping: %w", err)
	}

	w2 := w1
	if z2 != nil {
		if w2, err = g.Mapping.Forward(z2); err != nil {
			return nil, fmt.Errorf("mapping: %w", err)
		}
	}

	w, err := g.Mixer.Forward(lod, w1, w2, training)
	if err != nil {
		return nil, fmt.Errorf("mixer: %w", err)
	}

	return g.synthesize(lod, w, noise)
}

// SampleOptions steuert Sample.
type SampleOptions struct {
	Mix      *ml.Tensor   // zweite Latents [N, Latent] fuer Style Mixing, optional
	MixLayer int          // erste Schicht, die aus Mix stammt
	Psi      *float32     // ueberschreibt TruncationPsi, nur mit TruncateInInference
	Noise    []*ml.Tensor // Rauschkarten, nil = aus dem Seed gezogen
}

// Sample erzeugt Bilder in der Inferenz. Mit s.Mix werden die Schichten ab
// s.MixLayer aus den zweiten Latents genommen, danach wird Truncation
// angewendet. Der gleitende Mittelwert wird nicht veraendert. Ein gesetztes
// s.Psi bei abgeschalteter Inferenz-Truncation ist ein ErrInput.
func (g *Generator) Sample(lod float32, z *ml.Tensor, s SampleOptions) (*ml.Tensor, error) {
	if s.Psi != nil && !g.opts.TruncateInInference {
		return nil, fmt.Errorf("%w: psi %v given but truncation is disabled for inference", ErrInput, *s.Psi)
	}

	w, err := g.Mapping.Forward(z)
	if err != nil {
		return nil, fmt.Errorf("mapping: %w", err)
	}

	if s.Mix != nil {
		w2, err := g.Mapping.Forward(s.Mix)
		if err != nil {
			return nil, fmt.Errorf("mapping: %w", err)
		}
		if w, err = g.Mixer.Crossover(w, w2, s.MixLayer); err != nil {
			return nil, fmt.Errorf("mixer: %w", err)
		}
	}

	psi := float32(g.opts.TruncationPsi)
	if s.Psi != nil {
		psi = *s.Psi
	}
	if w, err = g.Mixer.ForwardPsi(lod, w, w, false, psi); err != nil {
		return nil, fmt.Errorf("mixer: %w", err)
	}
	return g.synthesize(lod, w, s.Noise)
}

func (g *Generator) synthesize(lod float32, w *ml.Tensor, noise []*ml.Tensor) (*ml.Tensor, error) {
	if noise == nil {
		n := w.Dim(0)
		noise = g.Noise(rand.New(rand.NewPCG(g.opts.Seed, uint64(n))), n)
	}

	img, err := g.Synthesis.Forward(lod, w, noise)
	if err != nil {
		return nil, fmt.Errorf("synthesis: %w", err)
	}
	return img, nil
}

// Noise zieht standardnormalverteilte Rauschkarten [n, r, r, 2] fuer jede Stufe.
func (g *Generator) Noise(rng *rand.Rand, n int) []*ml.Tensor {
	res, _ := Resolutions(g.opts.Resolution)
	out := make([]*ml.Tensor, len(res))
	for i, r := range res {
		t := ml.New(n, r, r, 2)
		nn.UntruncatedNormal.Fill(rng, t.Floats(), 1)
		out[i] = t
	}
	return out
}

// Latents zieht standardnormalverteilte Eingabe-Latents [n, Latent].
func (g *Generator) Latents(rng *rand.Rand, n int) *ml.Tensor {
	t := ml.New(n, g.opts.Latent)
	nn.UntruncatedNormal.Fill(rng, t.Floats(), 1)
	return t
}

// SeededLatents zieht Zeile i der Latents [n, Latent] aus einem eigenen RNG mit
// Seed seed+i. Ein Bild haengt damit nur von seinem Seed ab, nicht von der Batchgroesse.
func (g *Generator) SeededLatents(seed uint64, n int) *ml.Tensor {
	d := g.opts.Latent
	t := ml.New(n, d)
	for i := range n {
		s := seed + uint64(i)
		nn.UntruncatedNormal.Fill(rand.New(rand.NewPCG(s, s)), t.Floats()[i*d:(i+1)*d], 1)
	}
	return t
}

// SeededNoise wie Noise, aber Zeile i jeder Rauschkarte stammt aus einem RNG
// mit Seed seed+i.
func (g *Generator) SeededNoise(seed uint64, n int) []*ml.Tensor {
	res, _ := Resolutions(g.opts.Resolution)
	out := make([]*ml.Tensor, len(res))
	for i, r := range res {
		out[i] = ml.New(n, r, r, 2)
	}
	for b := range n {
		s := seed + uint64(b)
		rng := rand.New(rand.NewPCG(s, ^s))
		for i, r := range res {
			size := r * r * 2
			nn.UntruncatedNormal.Fill(rng, out[i].Floats()[b*size:(b+1)*size], 1)
		}
	}
	return out
}

// ============================================================================
// Model - Generator und Diskriminator
// ============================================================================

// Model haelt ein Netzpaar mit gemeinsamer Konfiguration.
type Model struct {
	Generator     *Generator
	Discriminator *Discriminator
	DParams       *nn.Registry

	opts Options
}

// New validiert opts und erzeugt Generator und Diskriminator.
func New(opts ...Option) (*Model, error) {
	o, err := NewOptions(opts...)
	if err != nil {
		return nil, err
	}

	dreg := nn.NewRegistry(o.Seed + 1)
	m := &Model{
		Generator:     newGenerator(o),
		Discriminator: NewDiscriminator(dreg, o),
		DParams:       dreg,
		opts:          o,
	}
	slog.Debug("discriminator created", "resolution", o.Resolution, "stages", len(m.Discriminator.Stages), "tensors", dreg.Count(), "params", dreg.NumParams())
	return m, nil
}

// Options gibt die Konstruktionsparameter zurueck.
func (m *Model) Options() Options {
	return m.opts
}

// Score bewertet Bilder voller Aufloesung. Die Bilder werden zuvor per
// ResizeImage auf die Detailstufe lod gebracht.
func (m *Model) Score(lod float32, images *ml.Tensor) (*ml.Tensor, error) {
	resized, err := ResizeImage(images, lod, m.opts.NumBlocks(), m.opts.mode())
	if err != nil {
		return nil, err
	}
	return m.Discriminator.Forward(lod, resized)
}

// StageInfo beschreibt eine Stufe fuer Diagnoseausgaben.
type StageInfo struct {
	Network    string `json:"network"`
	Name       string `json:"name"`
	Level      int    `json:"level"`
	Resolution int    `json:"resolution"`
	Filters    int    `json:"filters"`
}

// Topology listet alle Stufen beider Netze in Ausfuehrungsreihenfolge.
func (m *Model) Topology() []StageInfo {
	nf4 := m.opts.NumFilters(4)
	out := []StageInfo{{Network: "generator", Name: "const_block", Level: 0, Resolution: 4, Filters: nf4}}
	for _, s := range m.Generator.Synthesis.Stages {
		out = append(out, StageInfo{Network: "generator", Name: fmt.Sprintf("block%d", s.Level), Level: s.Level, Resolution: s.Resolution, Filters: s.Filters})
	}

	r := m.opts.Resolution
	out = append(out, StageInfo{Network: "discriminator", Name: fmt.Sprintf("fromRGB_%dx%d", r, r), Level: m.opts.NumBlocks() - 1, Resolution: r, Filters: m.opts.NumFilters(r)})
	for _, s := range m.Discriminator.Stages {
		out = append(out, StageInfo{Network: "discriminator", Name: fmt.Sprintf("block%d", s.Index), Level: s.Level, Resolution: s.Resolution, Filters: s.Filters})
	}
	out = append(out, StageInfo{Network: "discriminator", Name: "discriminator_block_output", Level: 0, Resolution: 4, Filters: nf4})
	return out
}
