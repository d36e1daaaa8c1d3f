package cmd

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7blacky7/stylegan/api"
	"github.com/7blacky7/stylegan/fs/safetensors"
	"github.com/7blacky7/stylegan/model/stylegan"
)

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		name   string
		output string
		n      int
		want   []string
	}{
		{"single", "out.png", 1, []string{"out.png"}},
		{"indexed", "out.png", 3, []string{"out-0.png", "out-1.png", "out-2.png"}},
		{"no extension", "dir/img", 2, []string{"dir/img-0.png", "dir/img-1.png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, outputPaths(tt.output, tt.n)); diff != "" {
				t.Errorf("outputPaths (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteOutput(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		var buf bytes.Buffer
		paths, err := writeOutput(&buf, "", [][]byte{[]byte("png")})
		require.NoError(t, err)
		assert.Empty(t, paths)
		assert.Equal(t, "png", buf.String())
	})

	t.Run("stdout with several images", func(t *testing.T) {
		_, err := writeOutput(&bytes.Buffer{}, "", [][]byte{{1}, {2}})
		assert.ErrorContains(t, err, "--grid")
	})

	t.Run("files", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "img.png")
		paths, err := writeOutput(&bytes.Buffer{}, out, [][]byte{{1}, {2}})
		require.NoError(t, err)
		require.Len(t, paths, 2)

		data, err := os.ReadFile(paths[1])
		require.NoError(t, err)
		assert.Equal(t, []byte{2}, data)
	})
}

func TestGenerateRequest(t *testing.T) {
	cmd := newGenerateCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--seed", "5", "-n", "3", "--lod", "1.5", "--mix-seed", "9", "--mix-layer", "2", "--grid"}))

	req, err := generateRequest(cmd)
	require.NoError(t, err)

	lod := float32(1.5)
	mix := uint64(9)
	want := &api.GenerateRequest{Seed: 5, Count: 3, LOD: &lod, MixSeed: &mix, MixLayer: 2, Grid: true}
	if diff := cmp.Diff(want, req); diff != "" {
		t.Errorf("generateRequest (-want +got):\n%s", diff)
	}

	// ungesetzte Flags bleiben nil, der Server waehlt dann die Defaults
	cmd = newGenerateCmd()
	require.NoError(t, cmd.ParseFlags(nil))
	req, err = generateRequest(cmd)
	require.NoError(t, err)
	assert.Nil(t, req.LOD)
	assert.Nil(t, req.Psi)
	assert.Nil(t, req.MixSeed)
}

func TestScoreTable(t *testing.T) {
	var buf bytes.Buffer
	resp := &api.ScoreResponse{Scores: []float32{0.5, -1.25}, LOD: 2}
	require.NoError(t, scoreTable(&buf, []string{"/tmp/a.png", "b.jpg"}, resp))

	out := buf.String()
	for _, s := range []string{"IMAGE", "a.png", "0.5000", "b.jpg", "-1.2500", "lod 2"} {
		assert.Contains(t, out, s)
	}

	err := scoreTable(&buf, []string{"a.png"}, resp)
	assert.Error(t, err)
}

func TestShowInfo(t *testing.T) {
	resp := &api.ShowResponse{
		Options:    map[string]any{"resolution": float64(32), "mode": "static", "wscale": true},
		Stages:     []api.Stage{{Network: "generator", Name: "4x4", Level: 0, Resolution: 4, Filters: 512}},
		Parameters: 1_500_000,
		Snapshot:   "model.safetensors",
	}

	var buf bytes.Buffer
	require.NoError(t, showInfo(resp, false, &buf))
	out := buf.String()
	for _, s := range []string{"1.5M", "model.safetensors", "resolution", "static", "generator", "4x4", "512"} {
		assert.Contains(t, out, s)
	}
	assert.NotContains(t, out, "wscale")

	buf.Reset()
	require.NoError(t, showInfo(resp, true, &buf))
	assert.Contains(t, buf.String(), "wscale")
}

func TestResizePreview(t *testing.T) {
	// linke Haelfte schwarz, rechte weiss
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := range 8 {
		for x := range 8 {
			c := color.RGBA{0, 0, 0, 255}
			if x >= 4 {
				c = color.RGBA{255, 255, 255, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}

	full, err := resizePreview(img, 8, 3, 1, stylegan.Dynamic)
	require.NoError(t, err)
	assert.Equal(t, img.Pix, full.Pix)

	// LOD 0 ist 4x4, jeder 2x2 Block bleibt einfarbig
	coarse, err := resizePreview(img, 8, 1, 0, stylegan.Static)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, coarse.RGBAAt(3, 0))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, coarse.RGBAAt(4, 7))

	_, err = resizePreview(img, 6, 3, 0, stylegan.Dynamic)
	assert.ErrorIs(t, err, stylegan.ErrInvalidResolution)
}

func TestExportHandler(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.safetensors")

	cmd := newExportCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--resolution", "8", "--latent", "8", "--dtype", "f16", "--seed", "3"}))
	require.NoError(t, ExportHandler(cmd, []string{path}))

	m, err := stylegan.Load(path, safetensors.LayoutNative)
	require.NoError(t, err)
	assert.Equal(t, 8, m.Options().Resolution)
	assert.Equal(t, uint64(3), m.Options().Seed)

	cmd = newExportCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--dtype", "q4"}))
	err = ExportHandler(cmd, []string{path})
	assert.ErrorContains(t, err, "dtype")
}

func TestEncodedPreviewIsPNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	out, err := resizePreview(img, 4, 3, 0, stylegan.Dynamic)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, out))
	_, err = png.Decode(&buf)
	assert.NoError(t, err)
}
