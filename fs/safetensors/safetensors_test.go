// MODUL: safetensors_test
// ZWECK: Tests fuer Schreiben, Lesen und Anwenden von Gewichts-Snapshots
// INPUT: Kleine Registries mit bekannten Werten
// OUTPUT: Testresultate
// NEBENEFFEKTE: Schreibt temporaere Dateien (t.TempDir)
// ABHAENGIGKEITEN: testing, bytes, go-cmp
// HINWEISE: F16/BF16 werden mit Toleranz verglichen

package safetensors

import (
	"bytes"
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/7blacky7/stylegan/ml"
	"github.com/7blacky7/stylegan/ml/nn"
)

func testRegistry(seed uint64) *nn.Registry {
	reg := nn.NewRegistry(seed)
	s := reg.Scope("net")
	w := s.Sub("dense").Param("kernel", 3, 2)
	b := s.Sub("dense").Param("bias", 2)
	copy(w.Floats(), []float32{0.5, -1.25, 2, 3.5, -0.125, 8})
	copy(b.Floats(), []float32{1, -1})
	return reg
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		dtype ml.DType
		tol   float64
	}{
		{ml.DTypeF32, 0},
		{ml.DTypeF16, 1e-3},
		{ml.DTypeBF16, 1e-2},
	}
	for _, tt := range cases {
		t.Run(tt.dtype.String(), func(t *testing.T) {
			src := testRegistry(1)

			var buf bytes.Buffer
			if err := Write(&buf, src, tt.dtype, map[string]string{"resolution": "32"}); err != nil {
				t.Fatalf("Write() error = %v", err)
			}

			f, err := Read(&buf)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if f.Metadata["resolution"] != "32" {
				t.Errorf("Metadata = %v, erwartet resolution=32", f.Metadata)
			}
			if diff := cmp.Diff(src.Names(), f.Names()); diff != "" {
				t.Errorf("Namen falsch (-want +got):\n%s", diff)
			}

			dst := nn.NewRegistry(2)
			dst.Scope("net").Sub("dense").Param("kernel", 3, 2)
			dst.Scope("net").Sub("dense").Param("bias", 2)
			if err := Apply(dst, f, LayoutNative); err != nil {
				t.Fatalf("Apply() error = %v", err)
			}

			for _, name := range src.Names() {
				want, _ := src.Lookup(name)
				got, _ := dst.Lookup(name)
				if diff := cmp.Diff(want.Floats(), got.Floats(), cmpopts.EquateApprox(tt.tol, 0)); diff != "" {
					t.Errorf("%s falsch (-want +got):\n%s", name, diff)
				}
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weights.safetensors")
	if err := Save(path, testRegistry(1), ml.DTypeF32, nil); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	got, ok := f.Tensor("net/dense/bias")
	if !ok {
		t.Fatal("net/dense/bias fehlt")
	}
	if diff := cmp.Diff([]float32{1, -1}, got.Data); diff != "" {
		t.Errorf("bias falsch (-want +got):\n%s", diff)
	}
}

func TestApplyErrors(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, testRegistry(1), ml.DTypeF32, nil); err != nil {
		t.Fatal(err)
	}
	f, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}

	missing := nn.NewRegistry(1)
	missing.Scope("net").Sub("other").Param("kernel", 3, 2)
	if err := Apply(missing, f, LayoutNative); !errors.Is(err, ErrMissingTensor) {
		t.Errorf("erwartet ErrMissingTensor, got %v", err)
	}

	wrong := nn.NewRegistry(1)
	wrong.Scope("net").Sub("dense").Param("kernel", 2, 3)
	if err := Apply(wrong, f, LayoutNative); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("erwartet ErrShapeMismatch, got %v", err)
	}
}

func TestApplyTorchLayout(t *testing.T) {
	// OIHW [3, 2, 1, 1] mit Wert 10*o + i
	src := nn.NewRegistry(1)
	k := src.Scope("conv").Param("kernel", 3, 2, 1, 1)
	for o := range 3 {
		for i := range 2 {
			k.Floats()[o*2+i] = float32(10*o + i)
		}
	}

	var buf bytes.Buffer
	if err := Write(&buf, src, ml.DTypeF32, nil); err != nil {
		t.Fatal(err)
	}
	f, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}

	dst := nn.NewRegistry(1)
	hwio := dst.Scope("conv").Param("kernel", 1, 1, 2, 3)
	if err := Apply(dst, f, LayoutTorch); err != nil {
		t.Fatalf("Apply(torch) error = %v", err)
	}

	want := []float32{0, 10, 20, 1, 11, 21}
	if diff := cmp.Diff(want, hwio.Floats()); diff != "" {
		t.Errorf("HWIO falsch (-want +got):\n%s", diff)
	}
}

func TestReadInvalidHeader(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte{1, 0, 0, 0, 0, 0, 0, 0, '['}))
	if !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("erwartet ErrInvalidHeader, got %v", err)
	}
}

// withHeader baut eine Datei aus JSON-Header und size Datenbytes.
func withHeader(header string, size int) []byte {
	buf := binary.LittleEndian.AppendUint64(nil, uint64(len(header)))
	buf = append(buf, header...)
	return append(buf, make([]byte, size)...)
}

func TestReadRejectsBadOffsets(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"negative dim with reversed offsets", `{"w":{"dtype":"F32","shape":[-1],"data_offsets":[8,4]}}`},
		{"reversed offsets", `{"w":{"dtype":"F32","shape":[0],"data_offsets":[8,8]},"v":{"dtype":"F32","shape":[1],"data_offsets":[12,8]}}`},
		{"past end", `{"w":{"dtype":"F32","shape":[4],"data_offsets":[0,16]}}`},
		{"negative begin", `{"w":{"dtype":"F32","shape":[1],"data_offsets":[-4,0]}}`},
		{"size mismatch", `{"w":{"dtype":"F32","shape":[2],"data_offsets":[0,4]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(bytes.NewReader(withHeader(tt.header, 12)))
			if !errors.Is(err, ErrInvalidHeader) {
				t.Errorf("erwartet ErrInvalidHeader, got %v", err)
			}
		})
	}
}
