// MODUL: stylegan_test
// ZWECK: Tests fuer LOD-Ueberblendung, Resizer, Filterplan, Stufen, Mixer und Netze
// INPUT: Kleine Netze (16/32 px, wenige Filter) mit festem Seed
// OUTPUT: Testresultate
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: testing, errors, math/rand/v2, go-cmp
// HINWEISE: Static und Dynamic werden mit identischen Gewichten verglichen

package stylegan

import (
	"errors"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/7blacky7/stylegan/ml"
	"github.com/7blacky7/stylegan/ml/nn"
)

var approx = cmpopts.EquateApprox(0, 1e-5)

func smallOptions(mode string, extra ...Option) []Option {
	return append([]Option{
		WithResolution(32),
		WithLatent(8),
		WithFmap(32, 1.0, 16),
		WithMapping(2, 8, 0.01),
		WithMode(mode),
		WithSeed(42),
	}, extra...)
}

func randomTensor(seed uint64, shape ...int) *ml.Tensor {
	t := ml.New(shape...)
	nn.UntruncatedNormal.Fill(rand.New(rand.NewPCG(seed, seed)), t.Floats(), 1)
	return t
}

// ============================================================================
// InterpolateClip
// ============================================================================

func TestInterpolateClipEndpoints(t *testing.T) {
	a := randomTensor(1, 2, 4, 4, 3)
	b := randomTensor(2, 2, 4, 4, 3)

	got, err := InterpolateClip(a, b, 0)
	if err != nil {
		t.Fatalf("InterpolateClip() error = %v", err)
	}
	if !ml.Equal(got, a) {
		t.Error("r=0 sollte a exakt liefern")
	}

	got, _ = InterpolateClip(a, b, 1)
	if !ml.Equal(got, b) {
		t.Error("r=1 sollte b exakt liefern")
	}
}

func TestInterpolateClipClamps(t *testing.T) {
	a := randomTensor(1, 2, 3)
	b := randomTensor(2, 2, 3)

	cases := []struct {
		name           string
		ratio, clamped []float32
	}{
		{"unter null", []float32{-0.5}, []float32{0}},
		{"ueber eins", []float32{1.7}, []float32{1}},
		{"pro zeile", []float32{-3, 4}, []float32{0, 1}},
		{"im bereich", []float32{0.25, 0.75}, []float32{0.25, 0.75}},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InterpolateClip(a, b, tt.ratio...)
			if err != nil {
				t.Fatalf("InterpolateClip() error = %v", err)
			}
			want, _ := InterpolateClip(a, b, tt.clamped...)
			if diff := cmp.Diff(want.Floats(), got.Floats()); diff != "" {
				t.Errorf("Clamping falsch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestInterpolateClipErrors(t *testing.T) {
	if _, err := InterpolateClip(ml.New(2, 3), ml.New(3, 2), 0.5); !errors.Is(err, ml.ErrShape) {
		t.Errorf("erwartet ErrShape bei Formfehler, got %v", err)
	}
	if _, err := InterpolateClip(ml.New(3, 2), ml.New(3, 2), 0.1, 0.2); !errors.Is(err, ml.ErrShape) {
		t.Errorf("erwartet ErrShape bei falscher Ratio-Laenge, got %v", err)
	}
}

// ============================================================================
// Resizer
// ============================================================================

func TestResizeStaticMatchesDynamic(t *testing.T) {
	image := randomTensor(3, 2, 32, 32, 3)

	for _, lod := range []float32{0, 1, 2, 3, 0.3, 1.7, 2.5, -1, 5} {
		static, err := ResizeImage(image, lod, 4, Static)
		if err != nil {
			t.Fatalf("ResizeImage(static, %v) error = %v", lod, err)
		}
		dynamic, err := ResizeImage(image, lod, 4, Dynamic)
		if err != nil {
			t.Fatalf("ResizeImage(dynamic, %v) error = %v", lod, err)
		}
		if diff := cmp.Diff(static.Floats(), dynamic.Floats(), approx); diff != "" {
			t.Errorf("lod %v: static != dynamic (-static +dynamic):\n%s", lod, diff)
		}
	}
}

func TestResizeFullDetailIsIdentity(t *testing.T) {
	image := randomTensor(4, 1, 16, 16, 3)
	got, err := ResizeImage(image, 2, 3, Dynamic)
	if err != nil {
		t.Fatalf("ResizeImage() error = %v", err)
	}
	if !ml.Equal(got, image) {
		t.Error("bei lod = numBlocks-1 sollte das Bild unveraendert bleiben")
	}
}

func TestResizeRejectsWrongResolution(t *testing.T) {
	_, err := ResizeImage(ml.New(1, 16, 16, 3), 1, 4, Dynamic)
	if !errors.Is(err, ErrInput) {
		t.Errorf("erwartet ErrInput, got %v", err)
	}
}

func TestResizeRejectsNonFiniteLOD(t *testing.T) {
	nan := math32.NaN()
	for _, lod := range []float32{nan, math32.Inf(1), math32.Inf(-1)} {
		for _, mode := range []Mode{Static, Dynamic} {
			_, err := ResizeImage(ml.New(1, 16, 16, 3), lod, 3, mode)
			if !errors.Is(err, ErrInput) {
				t.Errorf("lod %v, %v: erwartet ErrInput, got %v", lod, mode, err)
			}
		}
	}
}

// ============================================================================
// Filterplan
// ============================================================================

func TestNumFiltersMonotone(t *testing.T) {
	o := DefaultOptions()
	prev := o.NumFilters(4)
	for res := 4; res <= 1024; res *= 2 {
		nf := o.NumFilters(res)
		if nf > o.FmapMax {
			t.Errorf("NumFilters(%d) = %d ueberschreitet Maximum %d", res, nf, o.FmapMax)
		}
		if nf > prev {
			t.Errorf("NumFilters(%d) = %d steigt gegenueber %d", res, nf, prev)
		}
		prev = nf
	}

	if got := o.NumFilters(1024); got != 16 {
		t.Errorf("NumFilters(1024) = %d, erwartet 16", got)
	}
}

func TestNumBlocks(t *testing.T) {
	cases := []struct {
		res, want int
		err       bool
	}{
		{4, 1, false},
		{32, 4, false},
		{1024, 9, false},
		{2, 0, true},
		{24, 0, true},
		{0, 0, true},
	}
	for _, tt := range cases {
		got, err := NumBlocks(tt.res)
		if tt.err {
			if !errors.Is(err, ErrInvalidResolution) {
				t.Errorf("NumBlocks(%d) erwartet ErrInvalidResolution, got %v", tt.res, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("NumBlocks(%d) = %d, %v, erwartet %d", tt.res, got, err, tt.want)
		}
	}

	res, _ := Resolutions(32)
	if diff := cmp.Diff([]int{4, 8, 16, 32}, res); diff != "" {
		t.Errorf("Resolutions falsch (-want +got):\n%s", diff)
	}
}

// ============================================================================
// Konfiguration
// ============================================================================

func TestOptionsValidation(t *testing.T) {
	cases := []struct {
		name string
		opt  Option
		want error
	}{
		{"modus", WithMode("statc"), ErrUnknownMode},
		{"verteilung", WithDistribution("gauss"), nn.ErrUnknownDistribution},
		{"aufloesung", WithResolution(48), ErrInvalidResolution},
		{"mixing", WithMixing(1.5, 0.99), ErrInvalidOption},
		{"stddev", WithBatchStddev(4, 3), ErrInvalidOption},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGenerator(tt.opt)
			if !errors.Is(err, tt.want) {
				t.Errorf("erwartet %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParseModeSuggestion(t *testing.T) {
	_, err := ParseMode("dynamc")
	if err == nil || !strings.Contains(err.Error(), `"dynamic"`) {
		t.Errorf("erwartet Vorschlag fuer dynamic, got %v", err)
	}

	if m, err := ParseMode(""); err != nil || m != Dynamic {
		t.Errorf("leerer Modus = %v, %v, erwartet dynamic", m, err)
	}
}

// ============================================================================
// Stufen
// ============================================================================

func TestSynthesisStageBoundary(t *testing.T) {
	for _, mode := range []string{"static", "dynamic"} {
		t.Run(mode, func(t *testing.T) {
			o, err := NewOptions(smallOptions(mode)...)
			if err != nil {
				t.Fatal(err)
			}
			syn := NewGeneratorSynthesis(nn.NewRegistry(1), o)
			stage := syn.Stages[1]
			if stage.Level != 2 || stage.Resolution != 16 {
				t.Fatalf("Stufe = level %d res %d, erwartet 2/16", stage.Level, stage.Resolution)
			}

			x := randomTensor(5, 2, 8, 8, o.NumFilters(8))
			img := randomTensor(6, 2, 8, 8, 3)
			w := randomTensor(7, 2, 2, 8)
			noise := randomTensor(8, 2, 16, 16, 2)

			gotX, gotImg := stage.Forward(x, img, w, noise, 2)

			wantX := stage.block.Forward(x, w, noise)
			wantImg := stage.toRGB.Forward(wantX)
			if !ml.Equal(gotX, wantX) || !ml.Equal(gotImg, wantImg) {
				t.Error("bei lod = level sollte die Stufe exakt den neuen Pfad liefern")
			}

			// eine Stufe darunter ist nur das hochskalierte Bild aktiv
			_, prevImg := stage.Forward(x, img, w, noise, 1)
			if !ml.Equal(prevImg, ml.Upsample2x(img)) {
				t.Error("bei lod = level-1 sollte das hochskalierte Bild durchgereicht werden")
			}
		})
	}
}

func TestAnalysisStageBoundary(t *testing.T) {
	for _, mode := range []string{"static", "dynamic"} {
		t.Run(mode, func(t *testing.T) {
			o, err := NewOptions(smallOptions(mode)...)
			if err != nil {
				t.Fatal(err)
			}
			d := NewDiscriminator(nn.NewRegistry(1), o)
			stage := d.Stages[0]
			if stage.Level != 3 || stage.Resolution != 16 {
				t.Fatalf("Stufe = level %d res %d, erwartet 3/16", stage.Level, stage.Resolution)
			}

			x := randomTensor(5, 2, 32, 32, o.NumFilters(32))
			img := randomTensor(6, 2, 32, 32, 3)
			pooled := ml.AvgPool2x(img)
			block := stage.block.Forward(x)
			fromRGB := stage.fromRGB.Forward(pooled)

			tests := []struct {
				lod  float32
				want *ml.Tensor
			}{
				{3, block},   // lod = level: nur der Block
				{2, fromRGB}, // lod = level-1: nur fromRGB des halbierten Bildes
				{1, fromRGB},
				{2.25, interpolateClip(block, fromRGB, 0.75)},
			}

			for _, tt := range tests {
				gotX, gotImg := stage.Forward(x, img, tt.lod)
				if diff := cmp.Diff(tt.want.Floats(), gotX.Floats(), approx); diff != "" {
					t.Errorf("lod %v: Features falsch (-want +got):\n%s", tt.lod, diff)
				}
				if !ml.Equal(gotImg, pooled) {
					t.Errorf("lod %v: das Bild muss halbiert weitergereicht werden", tt.lod)
				}
			}
		})
	}
}

func TestSynthesisRejectsBadNoise(t *testing.T) {
	g, err := NewGenerator(smallOptions("dynamic")...)
	if err != nil {
		t.Fatal(err)
	}

	w := randomTensor(1, 2, 8, 8)
	noise := g.Noise(rand.New(rand.NewPCG(1, 1)), 2)
	noise[2] = ml.New(2, 8, 8, 2)

	if _, err := g.Synthesis.Forward(3, w, noise); !errors.Is(err, ErrInput) {
		t.Errorf("erwartet ErrInput, got %v", err)
	}
	if _, err := g.Synthesis.Forward(3, w, noise[:2]); !errors.Is(err, ErrInput) {
		t.Errorf("erwartet ErrInput bei fehlenden Rauschkarten, got %v", err)
	}
}

// ============================================================================
// StyleMixer
// ============================================================================

func newMixer(t *testing.T, extra ...Option) *StyleMixer {
	t.Helper()
	o, err := NewOptions(smallOptions("dynamic", extra...)...)
	if err != nil {
		t.Fatal(err)
	}
	return NewStyleMixer(nn.NewRegistry(1), o)
}

func TestMixerAlwaysMixes(t *testing.T) {
	m := newMixer(t, WithMixing(1, 0.995))
	l1 := randomTensor(1, 3, 8, 8)
	l2 := randomTensor(2, 3, 8, 8)

	for _, lod := range []float32{0, 1.5, 3} {
		got, err := m.Forward(lod, l1, l2, true)
		if err != nil {
			t.Fatalf("Forward() error = %v", err)
		}
		if ml.Equal(got, l1) {
			t.Errorf("lod %v: bei Mixing-Wahrscheinlichkeit 1 muss sich mindestens eine Schicht unterscheiden", lod)
		}

		// Schicht 0 stammt immer aus latent1
		if !ml.Equal(ml.Row1(got, 0), ml.Row1(l1, 0)) {
			t.Errorf("lod %v: Schicht 0 darf nicht gemischt werden", lod)
		}
	}
}

func TestMixerNeverMixes(t *testing.T) {
	m := newMixer(t, WithMixing(0, 0.995))
	l1 := randomTensor(1, 3, 8, 8)
	l2 := randomTensor(2, 3, 8, 8)

	got, err := m.Forward(2, l1, l2, true)
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if !ml.Equal(got, l1) {
		t.Error("bei Mixing-Wahrscheinlichkeit 0 muss latent1 unveraendert bleiben")
	}
}

func TestMixerAverageAndTruncation(t *testing.T) {
	const beta, psi, cutoff = 0.5, 0.7, 3
	m := newMixer(t, WithMixing(0, beta), WithTruncation(psi, cutoff))

	l1 := randomTensor(1, 2, 8, 8)
	if _, err := m.Forward(3, l1, l1, true); err != nil {
		t.Fatalf("Forward(training) error = %v", err)
	}

	// avg = mean + beta·(0 - mean)
	mean := ml.MeanRows(ml.Row1(l1, 0)).Floats()
	avg := m.Average()
	for k := range mean {
		if diff := cmp.Diff((1-beta)*mean[k], avg[k], approx); diff != "" {
			t.Fatalf("avg[%d] falsch (-want +got):\n%s", k, diff)
		}
	}

	x := randomTensor(2, 2, 8, 8)
	got, err := m.Forward(3, x, x, false)
	if err != nil {
		t.Fatalf("Forward(inference) error = %v", err)
	}

	for j := range 8 {
		in, out := ml.Row1(x, j).Floats(), ml.Row1(got, j).Floats()
		if j >= cutoff {
			if diff := cmp.Diff(in, out); diff != "" {
				t.Errorf("Schicht %d >= cutoff darf nicht veraendert werden (-want +got):\n%s", j, diff)
			}
			continue
		}
		want := make([]float32, len(in))
		for k, v := range in {
			want[k] = avg[k%8] + psi*(v-avg[k%8])
		}
		if diff := cmp.Diff(want, out, approx); diff != "" {
			t.Errorf("Schicht %d falsch abgeschwaecht (-want +got):\n%s", j, diff)
		}
	}
}

func TestMixerTruncationToggles(t *testing.T) {
	m := newMixer(t, WithMixing(0, 0.995), WithTruncationToggles(false, false))
	x := randomTensor(2, 2, 8, 8)

	// Mittelwert ungleich null, damit Truncation sichtbar waere
	if _, err := m.Forward(3, x, x, true); err != nil {
		t.Fatal(err)
	}
	got, err := m.Forward(3, x, x, false)
	if err != nil {
		t.Fatal(err)
	}
	if !ml.Equal(got, x) {
		t.Error("ohne Truncation in der Inferenz muss der Stapel unveraendert bleiben")
	}
}

func TestMixerCrossoverDeterministic(t *testing.T) {
	l1 := randomTensor(1, 2, 8, 8)
	l2 := randomTensor(2, 2, 8, 8)

	a, _ := newMixer(t, WithMixing(1, 0.995)).Forward(3, l1, l2, true)
	b, _ := newMixer(t, WithMixing(1, 0.995)).Forward(3, l1, l2, true)
	if !ml.Equal(a, b) {
		t.Error("gleicher Seed muss denselben Crossover liefern")
	}
}

func TestMixerCrossover(t *testing.T) {
	m := newMixer(t)
	l1 := randomTensor(1, 2, 8, 8)
	l2 := randomTensor(2, 2, 8, 8)

	got, err := m.Crossover(l1, l2, 5)
	if err != nil {
		t.Fatalf("Crossover() error = %v", err)
	}
	for j := range 8 {
		want := l1
		if j >= 5 {
			want = l2
		}
		if !ml.Equal(ml.Row1(got, j), ml.Row1(want, j)) {
			t.Errorf("Schicht %d stammt aus dem falschen Stapel", j)
		}
	}

	if _, err := m.Crossover(l1, l2, 9); !errors.Is(err, ErrInput) {
		t.Errorf("erwartet ErrInput, got %v", err)
	}
}

func TestMixerForwardPsi(t *testing.T) {
	m := newMixer(t, WithTruncation(0.7, 8))
	x := randomTensor(3, 2, 8, 8)

	// Mittelwert ist null, psi = 0 ergibt durchgehend null
	got, err := m.ForwardPsi(0, x, x, false, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !ml.Equal(got, ml.New(2, 8, 8)) {
		t.Error("psi 0 muss alle Schichten auf den Mittelwert ziehen")
	}

	same, err := m.ForwardPsi(0, x, x, false, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !ml.Equal(same, x) {
		t.Error("psi 1 darf den Stapel nicht veraendern")
	}
}

// ============================================================================
// Netze
// ============================================================================

func TestEndToEndTopology(t *testing.T) {
	m, err := New(smallOptions("dynamic")...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got := len(m.Generator.Synthesis.Stages); got != 3 {
		t.Errorf("Generator-Stufen = %d, erwartet 3", got)
	}
	var res []int
	for _, s := range m.Generator.Synthesis.Stages {
		res = append(res, s.Resolution)
	}
	if diff := cmp.Diff([]int{8, 16, 32}, res); diff != "" {
		t.Errorf("Generator-Aufloesungen falsch (-want +got):\n%s", diff)
	}

	res = res[:0]
	for _, s := range m.Discriminator.Stages {
		res = append(res, s.Resolution)
	}
	if diff := cmp.Diff([]int{16, 8, 4}, res); diff != "" {
		t.Errorf("Diskriminator-Aufloesungen falsch (-want +got):\n%s", diff)
	}

	z := randomTensor(9, 3, 8)
	img, err := m.Generator.Forward(3, z, nil, nil, false)
	if err != nil {
		t.Fatalf("Generator.Forward() error = %v", err)
	}
	if diff := cmp.Diff([]int{3, 32, 32, 3}, img.Shape()); diff != "" {
		t.Errorf("Bildform falsch (-want +got):\n%s", diff)
	}

	scores, err := m.Score(3, img)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if diff := cmp.Diff([]int{3, 1}, scores.Shape()); diff != "" {
		t.Errorf("Score-Form falsch (-want +got):\n%s", diff)
	}

	if got := len(m.Topology()); got != 3+1+3+2 {
		t.Errorf("Topology hat %d Eintraege, erwartet 9", got)
	}
}

func TestStaticMatchesDynamicNetworks(t *testing.T) {
	static, err := New(smallOptions("static")...)
	if err != nil {
		t.Fatal(err)
	}
	dynamic, err := New(smallOptions("dynamic")...)
	if err != nil {
		t.Fatal(err)
	}

	z := randomTensor(10, 2, 8)
	noise := static.Generator.Noise(rand.New(rand.NewPCG(3, 3)), 2)
	image := randomTensor(11, 2, 32, 32, 3)

	for _, lod := range []float32{0, 0.5, 1, 1.25, 2, 2.9, 3} {
		a, err := static.Generator.Forward(lod, z, nil, noise, false)
		if err != nil {
			t.Fatalf("static Forward(%v) error = %v", lod, err)
		}
		b, err := dynamic.Generator.Forward(lod, z, nil, noise, false)
		if err != nil {
			t.Fatalf("dynamic Forward(%v) error = %v", lod, err)
		}
		if diff := cmp.Diff(a.Floats(), b.Floats(), approx); diff != "" {
			t.Errorf("lod %v: Generator static != dynamic (-static +dynamic):\n%s", lod, diff)
		}

		sa, err := static.Discriminator.Forward(lod, image)
		if err != nil {
			t.Fatalf("static Discriminator(%v) error = %v", lod, err)
		}
		sb, err := dynamic.Discriminator.Forward(lod, image)
		if err != nil {
			t.Fatalf("dynamic Discriminator(%v) error = %v", lod, err)
		}
		if diff := cmp.Diff(sa.Floats(), sb.Floats(), approx); diff != "" {
			t.Errorf("lod %v: Diskriminator static != dynamic (-static +dynamic):\n%s", lod, diff)
		}
	}
}

func TestSpectralNormDiscriminator(t *testing.T) {
	m, err := New(smallOptions("dynamic", WithSpectralNorm(true), WithResolution(16))...)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := m.DParams.Lookup("discriminator/discriminator_block_output/sn_dense_4x4_1/kernel"); !ok {
		t.Errorf("SN-Parameter fehlt, vorhanden: %v", m.DParams.Names())
	}

	scores, err := m.Discriminator.Forward(2, randomTensor(1, 4, 16, 16, 3))
	if err != nil {
		t.Fatalf("Forward() error = %v", err)
	}
	if diff := cmp.Diff([]int{4, 1}, scores.Shape()); diff != "" {
		t.Errorf("Score-Form falsch (-want +got):\n%s", diff)
	}
}

func TestDiscriminatorRejectsWrongImage(t *testing.T) {
	m, err := New(smallOptions("dynamic")...)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Discriminator.Forward(3, ml.New(1, 16, 16, 3)); !errors.Is(err, ErrInput) {
		t.Errorf("erwartet ErrInput, got %v", err)
	}
}

func TestSampleTruncatedToAverage(t *testing.T) {
	m, err := New(smallOptions("dynamic")...)
	if err != nil {
		t.Fatal(err)
	}

	noise := m.Generator.Noise(rand.New(rand.NewPCG(4, 4)), 1)
	psi := float32(0)
	a, err := m.Generator.Sample(3, randomTensor(5, 1, 8), SampleOptions{Psi: &psi, Noise: noise})
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	b, err := m.Generator.Sample(3, randomTensor(6, 1, 8), SampleOptions{Psi: &psi, Noise: noise})
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if diff := cmp.Diff(a.Floats(), b.Floats(), approx); diff != "" {
		t.Errorf("psi 0 muss latent-unabhaengige Bilder liefern (-a +b):\n%s", diff)
	}

	mixed, err := m.Generator.Sample(3, randomTensor(5, 1, 8), SampleOptions{Mix: randomTensor(6, 1, 8), MixLayer: 2, Noise: noise})
	if err != nil {
		t.Fatalf("Sample(mix) error = %v", err)
	}
	if diff := cmp.Diff([]int{1, 32, 32, 3}, mixed.Shape()); diff != "" {
		t.Errorf("Bildform falsch (-want +got):\n%s", diff)
	}
	if got := m.Generator.Mixer.Average(); !slices.Equal(got, make([]float32, 8)) {
		t.Errorf("Sample darf den Mittelwert nicht veraendern, got %v", got)
	}
}

func TestForwardRejectsNonFiniteLOD(t *testing.T) {
	m, err := New(smallOptions("dynamic")...)
	if err != nil {
		t.Fatal(err)
	}
	g := m.Generator
	noise := g.Noise(rand.New(rand.NewPCG(1, 1)), 2)

	tests := []struct {
		name string
		run  func(lod float32) error
	}{
		{"synthesis", func(lod float32) error {
			_, err := g.Synthesis.Forward(lod, randomTensor(1, 2, 8, 8), noise)
			return err
		}},
		{"discriminator", func(lod float32) error {
			_, err := m.Discriminator.Forward(lod, randomTensor(2, 2, 32, 32, 3))
			return err
		}},
		{"mixer", func(lod float32) error {
			_, err := g.Mixer.Forward(lod, randomTensor(3, 2, 8, 8), randomTensor(4, 2, 8, 8), false)
			return err
		}},
		{"score", func(lod float32) error {
			_, err := m.Score(lod, ml.New(2, 32, 32, 3))
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, lod := range []float32{math32.NaN(), math32.Inf(1)} {
				if err := tt.run(lod); !errors.Is(err, ErrInput) {
					t.Errorf("lod %v: erwartet ErrInput, got %v", lod, err)
				}
			}
		})
	}
}

func TestSamplePsiWithoutTruncation(t *testing.T) {
	m, err := New(smallOptions("dynamic", WithTruncationToggles(false, false))...)
	if err != nil {
		t.Fatal(err)
	}

	psi := float32(0.5)
	if _, err := m.Generator.Sample(3, randomTensor(5, 1, 8), SampleOptions{Psi: &psi}); !errors.Is(err, ErrInput) {
		t.Errorf("erwartet ErrInput, got %v", err)
	}
	if _, err := m.Generator.Sample(3, randomTensor(5, 1, 8), SampleOptions{}); err != nil {
		t.Errorf("ohne psi erwartet kein Fehler, got %v", err)
	}
}
