package stylegan

import (
	"errors"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/7blacky7/stylegan/fs/safetensors"
	"github.com/7blacky7/stylegan/ml"
)

func TestSnapshotRoundTrip(t *testing.T) {
	src, err := New(smallOptions("dynamic", WithResolution(16), WithSeed(7))...)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "model.safetensors")
	if err := src.Save(path, ml.DTypeF32); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Architektur kommt aus den Metadaten, nur der Modus wird ueberschrieben
	dst, err := Load(path, safetensors.LayoutNative, WithMode("static"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := dst.Options(); got.Resolution != 16 || got.Seed != 7 || got.Mode != "static" {
		t.Errorf("Options = %+v, erwartet 16px, Seed 7, static", got)
	}
	if src.NumParams() != dst.NumParams() {
		t.Errorf("NumParams = %d, erwartet %d", dst.NumParams(), src.NumParams())
	}

	z := randomTensor(1, 2, 8)
	noise := src.Generator.Noise(rand.New(rand.NewPCG(2, 2)), 2)
	a, err := src.Generator.Forward(1.5, z, nil, noise, false)
	if err != nil {
		t.Fatal(err)
	}
	b, err := dst.Generator.Forward(1.5, z, nil, noise, false)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a.Floats(), b.Floats(), approx); diff != "" {
		t.Errorf("Bilder nach Load verschieden (-want +got):\n%s", diff)
	}

	sa, err := src.Score(1.5, a)
	if err != nil {
		t.Fatal(err)
	}
	sb, err := dst.Score(1.5, a)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(sa.Floats(), sb.Floats(), approx); diff != "" {
		t.Errorf("Scores nach Load verschieden (-want +got):\n%s", diff)
	}
}

func TestSnapshotArchitectureMismatch(t *testing.T) {
	src, err := New(smallOptions("dynamic", WithResolution(16))...)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "model.safetensors")
	if err := src.Save(path, ml.DTypeF16); err != nil {
		t.Fatal(err)
	}

	_, err = Load(path, safetensors.LayoutNative, WithResolution(32))
	if !errors.Is(err, safetensors.ErrMissingTensor) {
		t.Errorf("erwartet ErrMissingTensor, got %v", err)
	}
}
