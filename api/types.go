// Package api - Request- und Response-Typen der StyleGAN REST API.
// Enthaelt: StatusError, ImageData, GenerateRequest/Response, ScoreRequest/Response,
// ShowResponse, Stage, VersionResponse
package api

import (
	"fmt"
	"time"
)

// StatusError is an error with an HTTP status code and message.
type StatusError struct {
	StatusCode   int
	Status       string
	Code         string `json:"code"`
	ErrorMessage string `json:"error"`
}

func (e StatusError) Error() string {
	switch {
	case e.Status != "" && e.ErrorMessage != "":
		return fmt.Sprintf("%s: %s", e.Status, e.ErrorMessage)
	case e.Status != "":
		return e.Status
	case e.ErrorMessage != "":
		return e.ErrorMessage
	default:
		// this should not happen
		return "something went wrong, please see the stylegan server logs for details"
	}
}

// ImageData represents the raw binary data of an image file. It is encoded
// as base64 in JSON.
type ImageData []byte

// GenerateRequest describes a request sent by [Client.Generate].
type GenerateRequest struct {
	// Seed selects the input latents. Image i of the batch uses the latents
	// drawn from Seed+i.
	Seed uint64 `json:"seed"`

	// Count is the number of images to generate, defaults to 1.
	Count int `json:"count,omitempty"`

	// LOD is the level of detail, defaults to full detail.
	LOD *float32 `json:"lod,omitempty"`

	// Psi overrides the truncation strength of the model.
	Psi *float32 `json:"psi,omitempty"`

	// MixSeed selects second latents for style mixing. Layers from MixLayer
	// on are taken from the second latents.
	MixSeed  *uint64 `json:"mix_seed,omitempty"`
	MixLayer int     `json:"mix_layer,omitempty"`

	// Grid returns a single PNG with all images arranged in a grid.
	Grid bool `json:"grid,omitempty"`
}

// GenerateResponse is the response of [Client.Generate].
type GenerateResponse struct {
	Images        []ImageData   `json:"images"`
	LOD           float32       `json:"lod"`
	Resolution    int           `json:"resolution"`
	TotalDuration time.Duration `json:"total_duration,omitempty"`
}

// ScoreRequest describes a request sent by [Client.Score]. Images are
// center-cropped and resized to the model resolution.
type ScoreRequest struct {
	Images []ImageData `json:"images"`
	LOD    *float32    `json:"lod,omitempty"`
}

// ScoreResponse is the response of [Client.Score].
type ScoreResponse struct {
	Scores        []float32     `json:"scores"`
	LOD           float32       `json:"lod"`
	TotalDuration time.Duration `json:"total_duration,omitempty"`
}

// Stage describes one resolution stage of the generator or discriminator.
type Stage struct {
	Network    string `json:"network"`
	Name       string `json:"name"`
	Level      int    `json:"level"`
	Resolution int    `json:"resolution"`
	Filters    int    `json:"filters"`
}

// ShowResponse is the response of [Client.Show].
type ShowResponse struct {
	Options    map[string]any `json:"options"`
	Stages     []Stage        `json:"stages"`
	Parameters int            `json:"parameters"`
	Snapshot   string         `json:"snapshot,omitempty"`
}

// VersionResponse is the response of [Client.Version].
type VersionResponse struct {
	Version string `json:"version"`
}
