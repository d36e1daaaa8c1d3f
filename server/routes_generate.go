// routes_generate.go - Handler fuer Bildgenerierung und Bewertung
// Enthaelt: GenerateHandler(), ScoreHandler(), resolveLOD(), encodeImages()

package server

import (
	"bytes"
	"cmp"
	"fmt"
	"image"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/7blacky7/stylegan/api"
	"github.com/7blacky7/stylegan/model/stylegan"
	"github.com/7blacky7/stylegan/vision"
)

// GenerateHandler erzeugt Bilder aus seed-basierten Latents
func (s *Server) GenerateHandler(c *gin.Context) {
	start := time.Now()

	var req api.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}

	count := cmp.Or(req.Count, 1)
	if count < 1 || count > s.maxBatch {
		writeError(c, fmt.Errorf("%w: %d images requested, limit %d", ErrBatchTooLarge, count, s.maxBatch))
		return
	}

	lod, err := s.resolveLOD(req.LOD)
	if err != nil {
		writeError(c, err)
		return
	}

	g := s.model.Generator
	opts := stylegan.SampleOptions{
		Psi:   req.Psi,
		Noise: g.SeededNoise(req.Seed, count),
	}
	if req.MixSeed != nil {
		opts.Mix = g.SeededLatents(*req.MixSeed, count)
		opts.MixLayer = req.MixLayer
	}

	if err := s.sem.Acquire(c.Request.Context(), 1); err != nil {
		writeError(c, err)
		return
	}
	out, err := g.Sample(lod, g.SeededLatents(req.Seed, count), opts)
	s.sem.Release(1)
	if err != nil {
		writeError(c, err)
		return
	}

	images, err := vision.FromTensor(out)
	if err != nil {
		writeError(c, err)
		return
	}

	if req.Grid {
		grid, err := vision.Grid(images, int(math.Ceil(math.Sqrt(float64(len(images))))))
		if err != nil {
			writeError(c, err)
			return
		}
		images = []*image.RGBA{grid}
	}

	encoded, err := encodeImages(images)
	if err != nil {
		writeError(c, err)
		return
	}

	slog.Debug("generate", "request", requestID(c), "seed", req.Seed, "count", count, "lod", lod, "duration", time.Since(start))
	c.JSON(http.StatusOK, api.GenerateResponse{
		Images:        encoded,
		LOD:           lod,
		Resolution:    s.model.Options().Resolution,
		TotalDuration: time.Since(start),
	})
}

// ScoreHandler bewertet Bilder mit dem Diskriminator
func (s *Server) ScoreHandler(c *gin.Context) {
	start := time.Now()

	var req api.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}

	if len(req.Images) == 0 {
		writeError(c, fmt.Errorf("%w: no images", ErrInvalidImage))
		return
	}
	if len(req.Images) > s.maxBatch {
		writeError(c, fmt.Errorf("%w: %d images, limit %d", ErrBatchTooLarge, len(req.Images), s.maxBatch))
		return
	}

	lod, err := s.resolveLOD(req.LOD)
	if err != nil {
		writeError(c, err)
		return
	}

	o := s.model.Options()
	images := make([]*image.RGBA, len(req.Images))
	for i, data := range req.Images {
		img, err := vision.DecodeBytes(data)
		if err != nil {
			writeError(c, fmt.Errorf("image %d: %w", i, err))
			return
		}
		if images[i], err = vision.Square(img, o.Resolution); err != nil {
			writeError(c, fmt.Errorf("%w: image %d: %v", ErrInvalidImage, i, err))
			return
		}
	}

	x, err := vision.ToTensor(images, o.Channels)
	if err != nil {
		writeError(c, fmt.Errorf("%w: %v", ErrInvalidImage, err))
		return
	}

	if err := s.sem.Acquire(c.Request.Context(), 1); err != nil {
		writeError(c, err)
		return
	}
	scores, err := s.model.Score(lod, x)
	s.sem.Release(1)
	if err != nil {
		writeError(c, err)
		return
	}

	slog.Debug("score", "request", requestID(c), "images", len(images), "lod", lod, "duration", time.Since(start))
	c.JSON(http.StatusOK, api.ScoreResponse{
		Scores:        scores.Floats(),
		LOD:           lod,
		TotalDuration: time.Since(start),
	})
}

// resolveLOD prueft die angefragte Detailstufe; nil bedeutet volle Aufloesung.
func (s *Server) resolveLOD(lod *float32) (float32, error) {
	top := float32(s.model.Options().NumBlocks() - 1)
	if lod == nil {
		return top, nil
	}

	v := *lod
	if math.IsNaN(float64(v)) || v < 0 || v > top {
		return 0, fmt.Errorf("%w: %v not in [0, %v]", ErrLODRange, v, top)
	}
	return v, nil
}

func encodeImages(images []*image.RGBA) ([]api.ImageData, error) {
	out := make([]api.ImageData, len(images))
	for i, img := range images {
		var buf bytes.Buffer
		if err := vision.EncodePNG(&buf, img); err != nil {
			return nil, err
		}
		out[i] = buf.Bytes()
	}
	return out, nil
}
