// MODUL: safetensors
// ZWECK: Gewichts-Snapshots im safetensors-Format lesen und schreiben
// INPUT: Params, z.B. nn.Registry (Schreiben), safetensors-Datei oder Reader (Lesen)
// OUTPUT: Datei mit Header + Rohdaten, bzw. File mit dekodierten float32 Tensoren
// NEBENEFFEKTE: Save/Load greifen auf das Dateisystem zu; Apply ueberschreibt Registry-Werte
// ABHAENGIGKEITEN: x448/float16, d4l3k/go-bfloat16, pdevine/tensor, ml
// HINWEISE: Layout: 8 Byte Header-Laenge (little endian), JSON-Header, dann Daten

package safetensors

import (
	"bufio"
	"bytes"
	"cmp"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strings"

	bfloat16 "github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"

	"github.com/7blacky7/stylegan/ml"
)

// ============================================================================
// Fehler-Definitionen
// ============================================================================

var (
	ErrInvalidHeader = errors.New("safetensors: invalid header")
	ErrMissingTensor = errors.New("safetensors: missing tensor")
	ErrShapeMismatch = errors.New("safetensors: shape mismatch")
)

// Params ist eine geordnete Menge benannter Parameter, z.B. eine nn.Registry.
type Params interface {
	Range(fn func(name string, t *ml.Tensor) bool)
}

// maxHeaderSize begrenzt den JSON-Header beim Lesen.
const maxHeaderSize = 100 << 20

const metadataKey = "__metadata__"

type entry struct {
	DType   string   `json:"dtype"`
	Shape   []int    `json:"shape"`
	Offsets [2]int64 `json:"data_offsets"`
}

// Tensor ist ein dekodierter Tensor einer Datei.
type Tensor struct {
	DType ml.DType
	Shape []int
	Data  []float32
}

// File ist eine vollstaendig gelesene safetensors-Datei.
type File struct {
	Metadata map[string]string

	names   []string
	tensors map[string]Tensor
}

// Names gibt die Tensornamen in Dateireihenfolge zurueck.
func (f *File) Names() []string {
	return slices.Clone(f.names)
}

// Tensor sucht einen Tensor ueber seinen Namen.
func (f *File) Tensor(name string) (Tensor, bool) {
	t, ok := f.tensors[name]
	return t, ok
}

// ============================================================================
// Schreiben
// ============================================================================

// Write schreibt alle Parameter von reg in Registry-Reihenfolge nach w.
func Write(w io.Writer, reg Params, dtype ml.DType, metadata map[string]string) error {
	if dtype.Size() == 0 {
		return fmt.Errorf("safetensors: cannot write dtype %s", dtype)
	}

	var (
		header = bytes.NewBufferString("{")
		blobs  [][]byte
		offset int64
	)

	if len(metadata) > 0 {
		bts, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		fmt.Fprintf(header, "%q:%s", metadataKey, bts)
	}

	var err error
	reg.Range(func(name string, t *ml.Tensor) bool {
		blob := encode(t.Floats(), dtype)
		var bts []byte
		bts, err = json.Marshal(entry{DType: dtype.String(), Shape: t.Shape(), Offsets: [2]int64{offset, offset + int64(len(blob))}})
		if err != nil {
			return false
		}
		if header.Len() > 1 {
			header.WriteByte(',')
		}
		var key []byte
		if key, err = json.Marshal(name); err != nil {
			return false
		}
		header.Write(key)
		header.WriteByte(':')
		header.Write(bts)

		blobs = append(blobs, blob)
		offset += int64(len(blob))
		return true
	})
	if err != nil {
		return err
	}
	header.WriteByte('}')

	// Header auf 8 Byte ausrichten
	for header.Len()%8 != 0 {
		header.WriteByte(' ')
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, uint64(header.Len())); err != nil {
		return err
	}
	if _, err := bw.Write(header.Bytes()); err != nil {
		return err
	}
	for _, blob := range blobs {
		if _, err := bw.Write(blob); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Save schreibt reg nach path.
func Save(path string, reg Params, dtype ml.DType, metadata map[string]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := Write(f, reg, dtype, metadata); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encode(data []float32, dtype ml.DType) []byte {
	switch dtype {
	case ml.DTypeF16:
		out := make([]byte, 2*len(data))
		for i, v := range data {
			binary.LittleEndian.PutUint16(out[2*i:], float16.Fromfloat32(v).Bits())
		}
		return out
	case ml.DTypeBF16:
		return bfloat16.EncodeFloat32(data)
	default:
		out := make([]byte, 4*len(data))
		for i, v := range data {
			binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
		}
		return out
	}
}

// ============================================================================
// Lesen
// ============================================================================

// Read liest eine vollstaendige Datei aus r und dekodiert alle Tensoren nach float32.
func Read(r io.Reader) (*File, error) {
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	if n == 0 || n > maxHeaderSize {
		return nil, fmt.Errorf("%w: header size %d", ErrInvalidHeader, n)
	}

	hdr := make([]byte, n)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(hdr, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}

	f := &File{tensors: make(map[string]Tensor)}
	entries := make(map[string]entry, len(raw))
	for name, msg := range raw {
		if name == metadataKey {
			if err := json.Unmarshal(msg, &f.Metadata); err != nil {
				return nil, fmt.Errorf("%w: metadata: %v", ErrInvalidHeader, err)
			}
			continue
		}

		var e entry
		if err := json.Unmarshal(msg, &e); err != nil {
			return nil, fmt.Errorf("%w: tensor %q: %v", ErrInvalidHeader, name, err)
		}
		entries[name] = e
		f.names = append(f.names, name)
	}

	// Dateireihenfolge entspricht aufsteigenden Offsets
	slices.SortFunc(f.names, func(a, b string) int {
		return cmp.Compare(entries[a].Offsets[0], entries[b].Offsets[0])
	})

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	for _, name := range f.names {
		e := entries[name]
		dtype, err := ml.ParseDType(e.DType)
		if err != nil {
			return nil, fmt.Errorf("safetensors: tensor %q: %w", name, err)
		}

		begin, end := e.Offsets[0], e.Offsets[1]
		elems := int64(1)
		for _, d := range e.Shape {
			if d < 0 {
				return nil, fmt.Errorf("%w: tensor %q has negative shape %v", ErrInvalidHeader, name, e.Shape)
			}
			elems *= int64(d)
		}
		if begin < 0 || begin > end || end > int64(len(data)) || end-begin != elems*int64(dtype.Size()) {
			return nil, fmt.Errorf("%w: tensor %q has offsets [%d, %d) for %d elements", ErrInvalidHeader, name, begin, end, elems)
		}

		f.tensors[name] = Tensor{DType: dtype, Shape: e.Shape, Data: decode(data[begin:end], dtype)}
	}
	return f, nil
}

// Load liest die Datei path.
func Load(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	return Read(bufio.NewReader(fh))
}

func decode(b []byte, dtype ml.DType) []float32 {
	switch dtype {
	case ml.DTypeF16:
		out := make([]float32, len(b)/2)
		for i := range out {
			out[i] = float16.Frombits(binary.LittleEndian.Uint16(b[2*i:])).Float32()
		}
		return out
	case ml.DTypeBF16:
		return bfloat16.DecodeFloat32(b)
	default:
		out := make([]float32, len(b)/4)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
		}
		return out
	}
}

// ============================================================================
// Anwenden
// ============================================================================

// Apply kopiert alle Tensoren aus f in die gleichnamigen Parameter von reg.
// Jeder Parameter muss in f vorhanden sein.
func Apply(reg Params, f *File, layout Layout) error {
	var err error
	reg.Range(func(name string, dst *ml.Tensor) bool {
		src, ok := f.Tensor(name)
		if !ok {
			err = fmt.Errorf("%w: %q", ErrMissingTensor, name)
			return false
		}

		data, shape := src.Data, src.Shape
		if layout == LayoutTorch {
			if data, shape, err = fromTorch(name, src); err != nil {
				return false
			}
		}

		if !slices.Equal(shape, dst.Shape()) {
			err = fmt.Errorf("%w: %q is %v in file, expected %v", ErrShapeMismatch, name, shape, dst.Shape())
			return false
		}
		copy(dst.Floats(), data)
		return true
	})
	return err
}

func isKernel(name string) bool {
	return strings.HasSuffix(name, "/kernel")
}
