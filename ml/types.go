// types.go - Datentypen und Konstanten fuer ML-Operationen
// Dieses Modul definiert den Element-Datentyp fuer Gewichtsdateien.
package ml

import "fmt"

// DType represents the data type of tensor elements.
type DType int

const (
	DTypeOther DType = iota
	DTypeF32
	DTypeF16
	DTypeBF16
)

// String liefert den safetensors-Namen des Typs.
func (d DType) String() string {
	switch d {
	case DTypeF32:
		return "F32"
	case DTypeF16:
		return "F16"
	case DTypeBF16:
		return "BF16"
	default:
		return "OTHER"
	}
}

// Size gibt die Anzahl Bytes pro Element zurueck.
func (d DType) Size() int {
	switch d {
	case DTypeF32:
		return 4
	case DTypeF16, DTypeBF16:
		return 2
	default:
		return 0
	}
}

// ParseDType liest einen DType aus seinem Namen ("f32", "F16", "bf16" ...).
func ParseDType(s string) (DType, error) {
	switch s {
	case "F32", "f32", "float32":
		return DTypeF32, nil
	case "F16", "f16", "float16":
		return DTypeF16, nil
	case "BF16", "bf16", "bfloat16":
		return DTypeBF16, nil
	}
	return DTypeOther, fmt.Errorf("ml: unsupported dtype %q", s)
}
