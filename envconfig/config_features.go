// config_features.go - Netz- und Parallelitaets-Konfiguration
//
// Dieses Modul enthaelt:
// - Netz-Defaults (Modus, Aufloesung, Seed, Snapshot-Datei)
// - Parallelitaets-Einstellungen (Requests, Threads)
package envconfig

import "path/filepath"

// =============================================================================
// Netz-Defaults
// =============================================================================

var (
	// Mode ist die Ausfuehrungsstrategie der LOD-Ueberblendung ("static" oder "dynamic")
	Mode = String("STYLEGAN_MODE")

	// Resolution ist die Ausgabeaufloesung der Netze
	// Konfigurierbar via STYLEGAN_RESOLUTION
	Resolution = Uint("STYLEGAN_RESOLUTION", 32)

	// Seed initialisiert Gewichte, Rauschen und Crossover-Ziehung
	Seed = Uint64("STYLEGAN_SEED", 0)

	// SpectralNorm aktiviert Spektralnormierung im Diskriminator frisch initialisierter Netze
	SpectralNorm = Bool("STYLEGAN_SPECTRAL_NORM")

	// Layout ist das Tensor-Layout der Snapshot-Datei ("native" oder "torch")
	Layout = String("STYLEGAN_LAYOUT")
)

// Snapshot gibt den Pfad der Gewichtsdatei zurueck
// Konfigurierbar via STYLEGAN_SNAPSHOT
// Default: $STYLEGAN_MODELS/model.safetensors
func Snapshot() string {
	if s := Var("STYLEGAN_SNAPSHOT"); s != "" {
		return s
	}
	return filepath.Join(Models(), "model.safetensors")
}

// =============================================================================
// Parallelitaets-Einstellungen
// =============================================================================

var (
	// NumParallel setzt die Anzahl gleichzeitiger Forward-Passes
	// Konfigurierbar via STYLEGAN_NUM_PARALLEL
	NumParallel = Uint("STYLEGAN_NUM_PARALLEL", 1)

	// NumThreads begrenzt die Threads pro Faltung, 0 = alle CPUs
	// Konfigurierbar via STYLEGAN_NUM_THREADS
	NumThreads = Uint("STYLEGAN_NUM_THREADS", 0)

	// MaxBatch begrenzt die Bilder pro Request
	// Konfigurierbar via STYLEGAN_MAX_BATCH
	MaxBatch = Uint("STYLEGAN_MAX_BATCH", 16)
)
