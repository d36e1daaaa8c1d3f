// errors.go - Fehlertypen fuer Tensor-Operationen
// Form-Fehler sind Programmierfehler in der Topologie und werden als Panic
// gemeldet. Recover wandelt sie an API-Grenzen in normale Fehler um.
package ml

import (
	"errors"
	"fmt"
)

// ErrShape is matched by every ShapeError via errors.Is.
var ErrShape = errors.New("ml: shape mismatch")

// ShapeError beschreibt eine verletzte Form-Bedingung einer Operation.
type ShapeError struct {
	Op  string
	Msg string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("ml: %s: %s", e.Op, e.Msg)
}

// Is erlaubt errors.Is(err, ErrShape).
func (e *ShapeError) Is(target error) bool {
	return target == ErrShape
}

func shapeErrorf(op, format string, args ...any) *ShapeError {
	return &ShapeError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Recover faengt eine ShapeError-Panic und speichert sie in *err.
// Andere Panics werden weitergereicht.
//
//	func (m *Model) Forward(...) (out *ml.Tensor, err error) {
//		defer ml.Recover(&err)
//		...
//	}
func Recover(err *error) {
	r := recover()
	if r == nil {
		return
	}

	var se *ShapeError
	if e, ok := r.(error); ok && errors.As(e, &se) {
		*err = se
		return
	}

	panic(r)
}
