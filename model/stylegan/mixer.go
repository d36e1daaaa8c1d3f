// MODUL: mixer
// ZWECK: Style Mixing und Truncation Trick fuer den Latent-Stapel
// INPUT: LOD, zwei Latent-Stapel [N, L, D], Trainingsmodus
// OUTPUT: Gemischter und ggf. abgeschwaechter Latent-Stapel [N, L, D]
// NEBENEFFEKTE: Im Training wird der gleitende Mittelwert aktualisiert; der RNG schreitet fort
// ABHAENGIGKEITEN: ml, ml/nn, math/rand/v2, sync
// HINWEISE: Mittelwert und RNG sind durch einen Mutex geschuetzt; Forward-Aufrufe serialisieren

package stylegan

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/chewxy/math32"

	"github.com/7blacky7/stylegan/ml"
	"github.com/7blacky7/stylegan/ml/nn"
)

// StyleMixer mischt zwei Latent-Stapel und wendet Truncation an.
type StyleMixer struct {
	mu  sync.Mutex
	avg *ml.Tensor // [D], als Parameter registriert
	rng *rand.Rand

	numLayers int
	numLatent int

	mixingProb float32
	beta       float32
	psi        float32
	cutoff     int

	truncateTraining  bool
	truncateInference bool
}

// NewStyleMixer legt den Mittelwertpuffer unter "generator_mix_style" an.
func NewStyleMixer(reg *nn.Registry, opts Options) *StyleMixer {
	s := reg.Scope("generator_mix_style").Sub("mix_style")
	return &StyleMixer{
		avg:               s.Param("latent_avg", opts.Latent),
		rng:               rand.New(rand.NewPCG(opts.Seed, opts.Seed+1)),
		numLayers:         opts.NumLayers(),
		numLatent:         opts.Latent,
		mixingProb:        float32(opts.MixingProb),
		beta:              float32(opts.LatentAvgBeta),
		psi:               float32(opts.TruncationPsi),
		cutoff:            opts.TruncationCutoff,
		truncateTraining:  opts.TruncateInTraining,
		truncateInference: opts.TruncateInInference,
	}
}

// Average gibt eine Kopie des gleitenden Mittelwerts zurueck.
func (m *StyleMixer) Average() []float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float32(nil), m.avg.Floats()...)
}

// Forward mischt latent1 und latent2 [N, L, D].
//
// Im Training wird zuerst der Mittelwert aus latent1[:,0] aktualisiert und
// mit Wahrscheinlichkeit MixingProb ab einer zufaelligen Schicht c latent2
// verwendet. Danach werden Schichten < cutoff Richtung Mittelwert gezogen,
// sofern Truncation fuer den Modus aktiviert ist.
func (m *StyleMixer) Forward(lod float32, latent1, latent2 *ml.Tensor, training bool) (*ml.Tensor, error) {
	return m.forward(lod, latent1, latent2, training, m.psi)
}

// ForwardPsi wie Forward, aber mit Truncation-Staerke psi statt TruncationPsi.
func (m *StyleMixer) ForwardPsi(lod float32, latent1, latent2 *ml.Tensor, training bool, psi float32) (*ml.Tensor, error) {
	return m.forward(lod, latent1, latent2, training, psi)
}

func (m *StyleMixer) forward(lod float32, latent1, latent2 *ml.Tensor, training bool, psi float32) (*ml.Tensor, error) {
	if err := checkLOD(lod); err != nil {
		return nil, err
	}
	if err := m.validate(latent1, latent2); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := latent1.Clone()
	n, l, d := out.Dim(0), m.numLayers, m.numLatent
	data := out.Floats()

	if training {
		m.updateAverage(ml.Row1(latent1, 0))

		if c, ok := m.crossover(lod); ok {
			copyFrom(data, latent2.Floats(), n, l, d, c)
		}
	}

	if (training && m.truncateTraining) || (!training && m.truncateInference) {
		avg := m.avg.Floats()
		for b := range n {
			for j := range min(m.cutoff, l) {
				row := data[(b*l+j)*d : (b*l+j+1)*d]
				for k, v := range row {
					row[k] = avg[k] + psi*(v-avg[k])
				}
			}
		}
	}
	return out, nil
}

// Crossover uebernimmt die Schichten >= layer aus latent2, die uebrigen aus latent1.
// Der gleitende Mittelwert bleibt unveraendert.
func (m *StyleMixer) Crossover(latent1, latent2 *ml.Tensor, layer int) (*ml.Tensor, error) {
	if err := m.validate(latent1, latent2); err != nil {
		return nil, err
	}
	if layer < 0 || layer > m.numLayers {
		return nil, fmt.Errorf("%w: crossover layer %d outside [0, %d]", ErrInput, layer, m.numLayers)
	}

	out := latent1.Clone()
	copyFrom(out.Floats(), latent2.Floats(), out.Dim(0), m.numLayers, m.numLatent, layer)
	return out, nil
}

func copyFrom(dst, src []float32, n, l, d, c int) {
	for b := range n {
		lo, hi := (b*l+c)*d, (b+1)*l*d
		copy(dst[lo:hi], src[lo:hi])
	}
}

// updateAverage setzt avg = mean + beta·(avg - mean).
func (m *StyleMixer) updateAverage(first *ml.Tensor) {
	mean := ml.MeanRows(first).Floats()
	avg := m.avg.Floats()
	for k, v := range mean {
		avg[k] = v + m.beta*(avg[k]-v)
	}
}

// crossover zieht mit Wahrscheinlichkeit mixingProb eine Schicht
// c ∈ [1, aktiv), ab der latent2 verwendet wird. aktiv ist die Anzahl der
// Schichten, die bei lod bereits wirken.
func (m *StyleMixer) crossover(lod float32) (int, bool) {
	if m.mixingProb <= 0 || m.rng.Float32() >= m.mixingProb {
		return 0, false
	}

	active := min(2*(int(math32.Ceil(max(lod, 0)))+1), m.numLayers)
	if active < 2 {
		return 0, false
	}
	return 1 + m.rng.IntN(active-1), true
}

func (m *StyleMixer) validate(latent1, latent2 *ml.Tensor) error {
	for i, t := range []*ml.Tensor{latent1, latent2} {
		if t == nil || t.Rank() != 3 || t.Dim(1) != m.numLayers || t.Dim(2) != m.numLatent {
			return fmt.Errorf("%w: latent stack %d must be [N %d %d]", ErrInput, i+1, m.numLayers, m.numLatent)
		}
	}
	if latent1.Dim(0) != latent2.Dim(0) {
		return fmt.Errorf("%w: latent batches %d and %d differ", ErrInput, latent1.Dim(0), latent2.Dim(0))
	}
	return nil
}
