// routes_serve.go - Server-Start und Lifecycle-Management
// Enthaelt: Serve() - Hauptfunktion zum Starten des HTTP-Servers,
// LoadModel() - Netzpaar aus Snapshot oder frisch initialisiert

package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/7blacky7/stylegan/envconfig"
	"github.com/7blacky7/stylegan/fs/safetensors"
	"github.com/7blacky7/stylegan/logutil"
	"github.com/7blacky7/stylegan/ml"
	"github.com/7blacky7/stylegan/model/stylegan"
	"github.com/7blacky7/stylegan/version"
)

// Serve startet den HTTP-Server
func Serve(ln net.Listener) error {
	slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))
	slog.Info("server config", "env", envconfig.Values())

	ml.SetNumThreads(int(envconfig.NumThreads()))

	m, snapshot, err := LoadModel()
	if err != nil {
		return err
	}

	s := NewServer(ln.Addr(), m, snapshot, int(envconfig.NumParallel()), int(envconfig.MaxBatch()))

	slog.Info(fmt.Sprintf("Listening on %s (version %s)", ln.Addr(), version.Version))
	srvr := &http.Server{Handler: s.GenerateRoutes()}

	ctx, done := context.WithCancel(context.Background())

	// listen for a ctrl+c
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		srvr.Close()
		done()
	}()

	err = srvr.Serve(ln)
	// If server is closed from the signal handler, wait for the ctx to be done
	// otherwise error out quickly
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-ctx.Done()
	return nil
}

// LoadModel laedt den Snapshot aus STYLEGAN_SNAPSHOT, falls vorhanden.
// Andernfalls wird ein Netzpaar aus den STYLEGAN_* Defaults initialisiert.
// Der zweite Rueckgabewert ist der Pfad des geladenen Snapshots oder "".
func LoadModel() (*stylegan.Model, string, error) {
	opts := []stylegan.Option{}
	if mode := envconfig.Mode(); mode != "" {
		opts = append(opts, stylegan.WithMode(mode))
	}

	path := envconfig.Snapshot()
	if _, err := os.Stat(path); err == nil {
		layout, err := safetensors.ParseLayout(envconfig.Layout())
		if err != nil {
			return nil, "", err
		}

		m, err := stylegan.Load(path, layout, opts...)
		if err != nil {
			return nil, "", fmt.Errorf("load snapshot %s: %w", path, err)
		}
		slog.Info("snapshot loaded", "path", path, "resolution", m.Options().Resolution, "params", m.NumParams())
		return m, path, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, "", err
	}

	opts = append(opts,
		stylegan.WithResolution(int(envconfig.Resolution())),
		stylegan.WithSeed(envconfig.Seed()),
		stylegan.WithSpectralNorm(envconfig.SpectralNorm()),
	)
	m, err := stylegan.New(opts...)
	if err != nil {
		return nil, "", err
	}
	slog.Info("no snapshot found, using freshly initialised networks", "path", path, "resolution", m.Options().Resolution, "params", m.NumParams())
	return m, "", nil
}
