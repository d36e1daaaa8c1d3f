// config_utils.go - Utility-Funktionen und Export fuer Konfiguration
//
// Dieses Modul enthaelt:
// - BoolWithDefault/Bool: Boolean-Getter mit Default-Wert
// - String: String-Getter
// - Uint/Uint64: Integer-Getter mit Default-Wert
// - EnvVar: Struktur fuer Environment-Variablen-Info
// - AsMap: Gibt alle Konfigurationen als Map zurueck
// - Values: Gibt alle Konfigurationswerte als String-Map zurueck
package envconfig

import (
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
)

// =============================================================================
// Boolean-Getter
// =============================================================================

// BoolWithDefault gibt eine Funktion zurueck, die einen Bool mit Default-Wert liest
func BoolWithDefault(k string) func(defaultValue bool) bool {
	return func(defaultValue bool) bool {
		if s := Var(k); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return defaultValue
	}
}

// Bool gibt eine Funktion zurueck, die einen Bool liest (Default: false)
func Bool(k string) func() bool {
	withDefault := BoolWithDefault(k)
	return func() bool {
		return withDefault(false)
	}
}

// =============================================================================
// String-Getter
// =============================================================================

// String gibt eine Funktion zurueck, die einen String liest
func String(s string) func() string {
	return func() string {
		return Var(s)
	}
}

// =============================================================================
// Integer-Getter
// =============================================================================

// Uint gibt eine Funktion zurueck, die einen uint mit Default-Wert liest
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

// Uint64 gibt eine Funktion zurueck, die einen uint64 mit Default-Wert liest
func Uint64(key string, defaultValue uint64) func() uint64 {
	return func() uint64 {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return n
			}
		}
		return defaultValue
	}
}

// =============================================================================
// Export-Strukturen und -Funktionen
// =============================================================================

// EnvVar repraesentiert eine Environment-Variable mit Metadaten
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap gibt alle Konfigurationen als Map zurueck
// Enthaelt Namen, aktuelle Werte und Beschreibungen
func AsMap() map[string]EnvVar {
	ret := map[string]EnvVar{
		"STYLEGAN_DEBUG":         {"STYLEGAN_DEBUG", LogLevel(), "Show additional debug information (e.g. STYLEGAN_DEBUG=1)"},
		"STYLEGAN_HOST":          {"STYLEGAN_HOST", Host(), "IP Address for the stylegan server (default 127.0.0.1:11535)"},
		"STYLEGAN_LAYOUT":        {"STYLEGAN_LAYOUT", Layout(), "Tensor layout of the snapshot file: native or torch (default native)"},
		"STYLEGAN_MAX_BATCH":     {"STYLEGAN_MAX_BATCH", MaxBatch(), "Maximum number of images per request (default 16)"},
		"STYLEGAN_MODE":          {"STYLEGAN_MODE", Mode(), "LOD execution mode: static or dynamic (default dynamic)"},
		"STYLEGAN_MODELS":        {"STYLEGAN_MODELS", Models(), "The path to the snapshot directory"},
		"STYLEGAN_NUM_PARALLEL":  {"STYLEGAN_NUM_PARALLEL", NumParallel(), "Maximum number of parallel forward passes"},
		"STYLEGAN_NUM_THREADS":   {"STYLEGAN_NUM_THREADS", NumThreads(), "Threads per convolution (default: all CPUs)"},
		"STYLEGAN_ORIGINS":       {"STYLEGAN_ORIGINS", AllowedOrigins(), "A comma separated list of allowed origins"},
		"STYLEGAN_RESOLUTION":    {"STYLEGAN_RESOLUTION", Resolution(), "Output resolution of freshly initialised networks (default 32)"},
		"STYLEGAN_SEED":          {"STYLEGAN_SEED", Seed(), "Seed for weight initialisation and noise (default 0)"},
		"STYLEGAN_SPECTRAL_NORM": {"STYLEGAN_SPECTRAL_NORM", SpectralNorm(), "Use spectral normalisation in freshly initialised discriminators"},
		"STYLEGAN_SNAPSHOT":      {"STYLEGAN_SNAPSHOT", Snapshot(), "Weight snapshot loaded at startup if present"},

		// Proxy-Einstellungen
		"HTTP_PROXY":  {"HTTP_PROXY", String("HTTP_PROXY")(), "HTTP proxy"},
		"HTTPS_PROXY": {"HTTPS_PROXY", String("HTTPS_PROXY")(), "HTTPS proxy"},
		"NO_PROXY":    {"NO_PROXY", String("NO_PROXY")(), "No proxy"},
	}

	// Nicht-Windows: Case-sensitive Proxy-Variablen
	if runtime.GOOS != "windows" {
		ret["http_proxy"] = EnvVar{"http_proxy", String("http_proxy")(), "HTTP proxy"}
		ret["https_proxy"] = EnvVar{"https_proxy", String("https_proxy")(), "HTTPS proxy"}
		ret["no_proxy"] = EnvVar{"no_proxy", String("no_proxy")(), "No proxy"}
	}

	return ret
}

// Values gibt alle Konfigurationswerte als String-Map zurueck
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
