// routes.go - Server-Struktur und Router-Konfiguration
// Enthaelt: Server, NewServer(), GenerateRoutes(), ShowHandler(), VersionHandler()

package server

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	"github.com/7blacky7/stylegan/api"
	"github.com/7blacky7/stylegan/envconfig"
	"github.com/7blacky7/stylegan/model/stylegan"
	"github.com/7blacky7/stylegan/version"
)

// Server haelt das geladene Netzpaar und begrenzt parallele Forward-Passes.
type Server struct {
	addr     net.Addr
	model    *stylegan.Model
	snapshot string

	sem      *semaphore.Weighted
	maxBatch int
}

// NewServer erzeugt einen Server fuer m. parallel begrenzt gleichzeitige
// Forward-Passes, maxBatch die Bilder pro Request.
func NewServer(addr net.Addr, m *stylegan.Model, snapshot string, parallel, maxBatch int) *Server {
	return &Server{
		addr:     addr,
		model:    m,
		snapshot: snapshot,
		sem:      semaphore.NewWeighted(int64(max(parallel, 1))),
		maxBatch: max(maxBatch, 1),
	}
}

// GenerateRoutes erstellt und konfiguriert den HTTP-Router
func (s *Server) GenerateRoutes() http.Handler {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowWildcard = true
	corsConfig.AllowBrowserExtensions = true
	corsConfig.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"User-Agent",
		"Accept",
		"X-Requested-With",
		"X-Request-ID",
	}
	corsConfig.AllowOrigins = envconfig.AllowedOrigins()

	r := gin.Default()
	r.HandleMethodNotAllowed = true
	r.Use(
		cors.New(corsConfig),
		allowedHostsMiddleware(s.addr),
		requestIDMiddleware(),
	)

	r.HEAD("/", func(c *gin.Context) { c.String(http.StatusOK, "StyleGAN is running") })
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "StyleGAN is running") })
	r.HEAD("/api/version", s.VersionHandler)
	r.GET("/api/version", s.VersionHandler)

	r.GET("/api/show", s.ShowHandler)
	r.POST("/api/generate", s.GenerateHandler)
	r.POST("/api/score", s.ScoreHandler)

	return r
}

// VersionHandler liefert die Server-Version
func (s *Server) VersionHandler(c *gin.Context) {
	c.JSON(http.StatusOK, api.VersionResponse{Version: version.Version})
}

// ShowHandler liefert Konfiguration und Stufen beider Netze
func (s *Server) ShowHandler(c *gin.Context) {
	bts, err := json.Marshal(s.model.Options())
	if err != nil {
		writeError(c, err)
		return
	}

	var opts map[string]any
	if err := json.Unmarshal(bts, &opts); err != nil {
		writeError(c, err)
		return
	}

	resp := api.ShowResponse{
		Options:    opts,
		Parameters: s.model.NumParams(),
		Snapshot:   s.snapshot,
	}
	for _, st := range s.model.Topology() {
		resp.Stages = append(resp.Stages, api.Stage(st))
	}
	c.JSON(http.StatusOK, resp)
}
