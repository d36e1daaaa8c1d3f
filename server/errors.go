// MODUL: errors
// ZWECK: Fehler-Definitionen und Error-Handler fuer die REST API
// INPUT: Fehler, gin.Context
// OUTPUT: JSON-formatierte Fehler-Responses {code, error}
// NEBENEFFEKTE: HTTP-Responses schreiben
// ABHAENGIGKEITEN: gin, model/stylegan, vision
// HINWEISE: Unbekannte Fehler werden als INTERNAL_ERROR mit Status 500 gemeldet
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/7blacky7/stylegan/model/stylegan"
	"github.com/7blacky7/stylegan/vision"
)

// ============================================================================
// Fehler-Definitionen
// ============================================================================

var (
	// ErrBadRequest wird geworfen wenn der Request-Body nicht dekodiert werden kann
	ErrBadRequest = errors.New("invalid request body")

	// ErrInvalidImage wird geworfen bei ungueltigen Bild-Daten
	ErrInvalidImage = errors.New("invalid image data")

	// ErrBatchTooLarge wird geworfen wenn die Batch-Groesse das Limit ueberschreitet
	ErrBatchTooLarge = errors.New("batch size exceeds limit")

	// ErrLODRange wird geworfen wenn die Detailstufe ausserhalb des Modells liegt
	ErrLODRange = errors.New("lod out of range")
)

// ============================================================================
// Fehler-Code Mapping
// ============================================================================

type errorCode struct {
	err    error
	status int
	code   string
}

// errorCodes wird in Reihenfolge durchsucht, der erste Treffer gewinnt.
var errorCodes = []errorCode{
	{ErrBadRequest, http.StatusBadRequest, "INVALID_REQUEST"},
	{ErrInvalidImage, http.StatusBadRequest, "INVALID_IMAGE"},
	{vision.ErrUnknownFormat, http.StatusBadRequest, "UNSUPPORTED_FORMAT"},
	{ErrBatchTooLarge, http.StatusBadRequest, "BATCH_TOO_LARGE"},
	{ErrLODRange, http.StatusBadRequest, "INVALID_LOD"},
	{stylegan.ErrInput, http.StatusBadRequest, "INVALID_INPUT"},
	{stylegan.ErrInvalidOption, http.StatusBadRequest, "INVALID_OPTION"},
	{context.Canceled, 499, "CANCELED"},
	{context.DeadlineExceeded, http.StatusServiceUnavailable, "TIMEOUT"},
}

// lookupError gibt Status und API-Code fuer einen Fehler zurueck.
func lookupError(err error) (int, string) {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.status, e.code
		}
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// writeError schreibt einen Fehler als JSON Response und bricht die Handler-Kette ab.
func writeError(c *gin.Context, err error) {
	status, code := lookupError(err)
	c.AbortWithStatusJSON(status, gin.H{"code": code, "error": err.Error()})
}
