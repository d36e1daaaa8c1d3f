// MODUL: options
// ZWECK: Functional Options fuer Generator und Diskriminator
// INPUT: Optionale Konfigurationsparameter (Aufloesung, Filterplan, Modus, Mixing, Truncation)
// OUTPUT: Options Struct mit validierter Konfiguration
// NEBENEFFEKTE: Keine
// ABHAENGIGKEITEN: ml/nn (Verteilungen, Namensvorschlaege)
// HINWEISE: Unbekannte Modus- und Verteilungsnamen werden bei der Konstruktion abgelehnt

package stylegan

import (
	"errors"
	"fmt"

	"github.com/7blacky7/stylegan/ml/nn"
)

// ============================================================================
// Fehler-Definitionen
// ============================================================================

var (
	ErrInvalidResolution = errors.New("stylegan: resolution must be a power of two >= 4")
	ErrUnknownMode       = errors.New("stylegan: unknown mode")
	ErrInvalidOption     = errors.New("stylegan: invalid option")
	ErrInput             = errors.New("stylegan: invalid input")
)

// ============================================================================
// Mode - Ausfuehrungsstrategie der LOD-Ueberblendung
// ============================================================================

// Mode waehlt zwischen Verzweigung an den Stufengrenzen und staendigem Blending.
type Mode int

const (
	// Dynamic berechnet pro Aufruf nur die benoetigten Pfade.
	Dynamic Mode = iota
	// Static berechnet immer beide Pfade und blendet mit geclipptem Verhaeltnis.
	Static
)

var modeNames = []string{Dynamic: "dynamic", Static: "static"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode wandelt "static" oder "dynamic" in einen Mode um. Ein leerer
// Name ergibt Dynamic.
func ParseMode(name string) (Mode, error) {
	if name == "" {
		return Dynamic, nil
	}
	for i, n := range modeNames {
		if n == name {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("%w %q%s", ErrUnknownMode, name, nn.Suggest(name, modeNames))
}

// ============================================================================
// Options - Zentrale Konfigurationsstruktur
// ============================================================================

// Options enthaelt die Konstruktionsparameter beider Netze.
type Options struct {
	Resolution int `json:"resolution"` // Ausgabeaufloesung (Zweierpotenz >= 4)
	Channels   int `json:"channels"`   // Bildkanaele
	Latent     int `json:"latent"`     // Breite der Latent-Vektoren pro Schicht

	FmapBase  int     `json:"fmap_base"`
	FmapDecay float64 `json:"fmap_decay"`
	FmapMax   int     `json:"fmap_max"`

	Mode         string  `json:"mode"`   // "static" oder "dynamic"
	WScale       bool    `json:"wscale"` // Equalized Learning Rate
	LRMul        float64 `json:"lr_mul"`
	Distribution string  `json:"distribution"` // Name der Initialisierungsverteilung

	SpectralNorm   bool `json:"spectral_norm"`   // nur Diskriminator
	StddevGroup    int  `json:"stddev_group"`    // Minibatch-Stddev Gruppengroesse
	StddevFeatures int  `json:"stddev_features"` // Minibatch-Stddev Zusatzkanaele

	MappingLayers int     `json:"mapping_layers"`
	MappingWidth  int     `json:"mapping_width"`
	MappingLRMul  float64 `json:"mapping_lr_mul"`

	MixingProb          float64 `json:"mixing_prob"`
	LatentAvgBeta       float64 `json:"latent_avg_beta"`
	TruncationPsi       float64 `json:"truncation_psi"`
	TruncationCutoff    int     `json:"truncation_cutoff"`
	TruncateInTraining  bool    `json:"truncate_in_training"`
	TruncateInInference bool    `json:"truncate_in_inference"`

	Seed uint64 `json:"seed"`
}

// Option ist eine funktionale Option fuer Options.
type Option func(*Options)

// DefaultOptions gibt die Standard-Konfiguration zurueck (32×32 RGB, 512er Latents).
func DefaultOptions() Options {
	return Options{
		Resolution:          32,
		Channels:            3,
		Latent:              512,
		FmapBase:            8192,
		FmapDecay:           1.0,
		FmapMax:             512,
		Mode:                "dynamic",
		WScale:              true,
		LRMul:               1.0,
		Distribution:        "untruncated_normal",
		StddevGroup:         4,
		StddevFeatures:      1,
		MappingLayers:       8,
		MappingWidth:        512,
		MappingLRMul:        1.0,
		MixingProb:          0.9,
		LatentAvgBeta:       0.995,
		TruncationPsi:       0.7,
		TruncationCutoff:    8,
		TruncateInInference: true,
	}
}

// ============================================================================
// Functional Options - Builder-Funktionen
// ============================================================================

// WithResolution setzt die Ausgabeaufloesung.
func WithResolution(res int) Option {
	return func(o *Options) { o.Resolution = res }
}

// WithChannels setzt die Anzahl der Bildkanaele.
func WithChannels(c int) Option {
	return func(o *Options) { o.Channels = c }
}

// WithLatent setzt die Breite der Latent-Vektoren.
func WithLatent(n int) Option {
	return func(o *Options) { o.Latent = n }
}

// WithFmap setzt die Parameter des Filterplans.
func WithFmap(base int, decay float64, maxFilters int) Option {
	return func(o *Options) {
		o.FmapBase, o.FmapDecay, o.FmapMax = base, decay, maxFilters
	}
}

// WithMode setzt die Ausfuehrungsstrategie ("static" oder "dynamic").
func WithMode(mode string) Option {
	return func(o *Options) { o.Mode = mode }
}

// WithWScale aktiviert/deaktiviert Equalized Learning Rate.
func WithWScale(enabled bool) Option {
	return func(o *Options) { o.WScale = enabled }
}

// WithLRMul setzt den Lernraten-Multiplikator fuer Synthese und Diskriminator.
func WithLRMul(mul float64) Option {
	return func(o *Options) { o.LRMul = mul }
}

// WithDistribution setzt die Initialisierungsverteilung.
func WithDistribution(name string) Option {
	return func(o *Options) { o.Distribution = name }
}

// WithSpectralNorm aktiviert Spektralnormierung im Diskriminator.
func WithSpectralNorm(enabled bool) Option {
	return func(o *Options) { o.SpectralNorm = enabled }
}

// WithBatchStddev setzt Gruppengroesse und Kanalanzahl der Minibatch-Stddev.
func WithBatchStddev(group, features int) Option {
	return func(o *Options) { o.StddevGroup, o.StddevFeatures = group, features }
}

// WithMapping setzt Tiefe, Breite und Lernraten-Multiplikator des Mapping-Netzes.
func WithMapping(layers, width int, lrMul float64) Option {
	return func(o *Options) {
		o.MappingLayers, o.MappingWidth, o.MappingLRMul = layers, width, lrMul
	}
}

// WithMixing setzt Mixing-Wahrscheinlichkeit und EMA-Zerfall.
func WithMixing(prob, beta float64) Option {
	return func(o *Options) { o.MixingProb, o.LatentAvgBeta = prob, beta }
}

// WithTruncation setzt Staerke psi und Grenzschicht cutoff.
func WithTruncation(psi float64, cutoff int) Option {
	return func(o *Options) { o.TruncationPsi, o.TruncationCutoff = psi, cutoff }
}

// WithTruncationToggles schaltet Truncation im Training und in der Inferenz.
func WithTruncationToggles(training, inference bool) Option {
	return func(o *Options) {
		o.TruncateInTraining, o.TruncateInInference = training, inference
	}
}

// WithSeed setzt den Seed fuer Initialisierung und Crossover-Ziehung.
func WithSeed(seed uint64) Option {
	return func(o *Options) { o.Seed = seed }
}

// Apply wendet alle Options an.
func (o *Options) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(o)
	}
}

// ============================================================================
// Validation
// ============================================================================

// Validate prueft die Konfiguration.
func (o *Options) Validate() error {
	if _, err := NumBlocks(o.Resolution); err != nil {
		return err
	}
	if _, err := ParseMode(o.Mode); err != nil {
		return err
	}
	if _, err := nn.ParseDistribution(o.Distribution); err != nil {
		return err
	}

	switch {
	case o.Channels <= 0:
		return fmt.Errorf("%w: channels %d", ErrInvalidOption, o.Channels)
	case o.Latent <= 0:
		return fmt.Errorf("%w: latent width %d", ErrInvalidOption, o.Latent)
	case o.FmapBase <= 0 || o.FmapMax <= 0:
		return fmt.Errorf("%w: fmap base %d max %d", ErrInvalidOption, o.FmapBase, o.FmapMax)
	case o.FmapDecay < 0:
		return fmt.Errorf("%w: fmap decay %v", ErrInvalidOption, o.FmapDecay)
	case o.LRMul <= 0 || o.MappingLRMul <= 0:
		return fmt.Errorf("%w: lr multiplier must be positive", ErrInvalidOption)
	case o.StddevGroup < 1 || o.StddevFeatures < 1:
		return fmt.Errorf("%w: batch stddev group %d features %d", ErrInvalidOption, o.StddevGroup, o.StddevFeatures)
	case o.MappingLayers < 1 || o.MappingWidth < 1:
		return fmt.Errorf("%w: mapping layers %d width %d", ErrInvalidOption, o.MappingLayers, o.MappingWidth)
	case o.MixingProb < 0 || o.MixingProb > 1:
		return fmt.Errorf("%w: mixing probability %v", ErrInvalidOption, o.MixingProb)
	case o.LatentAvgBeta < 0 || o.LatentAvgBeta > 1:
		return fmt.Errorf("%w: latent average beta %v", ErrInvalidOption, o.LatentAvgBeta)
	case o.TruncationCutoff < 0:
		return fmt.Errorf("%w: truncation cutoff %d", ErrInvalidOption, o.TruncationCutoff)
	}

	if nf := o.NumFilters(o.Resolution); nf < 1 {
		return fmt.Errorf("%w: filter schedule yields %d filters at %dx%d", ErrInvalidOption, nf, o.Resolution, o.Resolution)
	}

	// Der Diskriminator-Kopf teilt die Kanaele in StddevFeatures Gruppen.
	if nf := o.NumFilters(4); nf%o.StddevFeatures != 0 {
		return fmt.Errorf("%w: %d filters at 4x4 not divisible by %d stddev features", ErrInvalidOption, nf, o.StddevFeatures)
	}
	return nil
}

// NewOptions wendet opts auf DefaultOptions an und validiert das Ergebnis.
func NewOptions(opts ...Option) (Options, error) {
	o := DefaultOptions()
	o.Apply(opts...)
	if err := o.Validate(); err != nil {
		return Options{}, err
	}
	return o, nil
}

// layerConfig liefert die Schichtkonfiguration fuer Synthese/Diskriminator.
func (o Options) layerConfig() nn.Config {
	dist, _ := nn.ParseDistribution(o.Distribution)
	return nn.Config{WScale: o.WScale, LRMul: o.LRMul, Dist: dist, Gain: nn.ActGain(0.2)}
}

func (o Options) mode() Mode {
	m, _ := ParseMode(o.Mode)
	return m
}

// ExecutionMode gibt den geparsten Mode zurueck.
func (o Options) ExecutionMode() Mode {
	return o.mode()
}
