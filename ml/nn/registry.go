// MODUL: registry
// ZWECK: Benannte Parameterverwaltung fuer alle Schichten eines Netzes
// INPUT: Hierarchische Namen (z.B. "generator_synthesis/block1/.../kernel"), Formen
// OUTPUT: Registry mit Parametern in Einfuegereihenfolge
// NEBENEFFEKTE: Zufallsinitialisierung verbraucht den Registry-RNG
// ABHAENGIGKEITEN: github.com/wk8/go-ordered-map/v2, math/rand/v2, ml
// HINWEISE: Namen dienen nur Diagnose und Persistenz, nicht dem Zugriff im Forward-Pass

package nn

import (
	"fmt"
	"math/rand/v2"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/7blacky7/stylegan/ml"
)

// Registry haelt alle Parameter eines Netzes in Einfuegereihenfolge.
type Registry struct {
	params *orderedmap.OrderedMap[string, *ml.Tensor]
	rng    *rand.Rand
}

// NewRegistry erzeugt eine leere Registry. seed bestimmt die Initialisierung.
func NewRegistry(seed uint64) *Registry {
	return &Registry{
		params: orderedmap.New[string, *ml.Tensor](),
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Scope gibt einen Namensraum unterhalb von name zurueck.
func (r *Registry) Scope(name string) Scope {
	return Scope{reg: r, path: name}
}

// Lookup sucht einen Parameter ueber seinen vollen Namen.
func (r *Registry) Lookup(name string) (*ml.Tensor, bool) {
	return r.params.Get(name)
}

// Range ruft fn fuer jeden Parameter in Einfuegereihenfolge auf, bis fn false liefert.
func (r *Registry) Range(fn func(name string, t *ml.Tensor) bool) {
	for pair := r.params.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Count gibt die Anzahl der Parameter-Tensoren zurueck.
func (r *Registry) Count() int {
	return r.params.Len()
}

// NumParams gibt die Gesamtzahl skalarer Parameter zurueck.
func (r *Registry) NumParams() int {
	var n int
	r.Range(func(_ string, t *ml.Tensor) bool {
		n += t.Len()
		return true
	})
	return n
}

// Names gibt alle Parameternamen in Einfuegereihenfolge zurueck.
func (r *Registry) Names() []string {
	names := make([]string, 0, r.params.Len())
	r.Range(func(name string, _ *ml.Tensor) bool {
		names = append(names, name)
		return true
	})
	return names
}

func (r *Registry) add(name string, t *ml.Tensor) {
	if _, present := r.params.Set(name, t); present {
		panic(fmt.Sprintf("nn: duplicate parameter %q", name))
	}
}

// Scope ist ein hierarchischer Namensraum in einer Registry.
type Scope struct {
	reg  *Registry
	path string
}

// Sub gibt den Unter-Namensraum name zurueck.
func (s Scope) Sub(name string) Scope {
	return Scope{reg: s.reg, path: s.join(name)}
}

// Subf ist Sub mit fmt.Sprintf Formatierung.
func (s Scope) Subf(format string, args ...any) Scope {
	return s.Sub(fmt.Sprintf(format, args...))
}

// Name gibt den vollen Pfad des Namensraums zurueck.
func (s Scope) Name() string {
	return s.path
}

// Registry gibt die zugrunde liegende Registry zurueck.
func (s Scope) Registry() *Registry {
	return s.reg
}

// Param legt einen mit Nullen gefuellten Parameter an und registriert ihn.
func (s Scope) Param(name string, shape ...int) *ml.Tensor {
	t := ml.New(shape...)
	s.reg.add(s.join(name), t)
	return t
}

func (s Scope) rand() *rand.Rand {
	return s.reg.rng
}

func (s Scope) join(name string) string {
	if s.path == "" {
		return name
	}
	return strings.Join([]string{s.path, name}, "/")
}
