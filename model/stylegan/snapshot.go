// MODUL: snapshot
// ZWECK: Gewichts-Snapshots eines Netzpaars speichern und wiederherstellen
// INPUT: Model bzw. Pfad einer safetensors-Datei
// OUTPUT: safetensors-Datei mit Options als Metadaten, wiederhergestelltes Model
// NEBENEFFEKTE: Dateisystem-Zugriff
// ABHAENGIGKEITEN: fs/safetensors, ml
// HINWEISE: Die Architektur wird aus den Metadaten rekonstruiert, extra Options ueberschreiben sie

package stylegan

import (
	"encoding/json"
	"fmt"

	"github.com/7blacky7/stylegan/fs/safetensors"
	"github.com/7blacky7/stylegan/ml"
)

const optionsKey = "stylegan.options"

// Range iteriert ueber alle Parameter beider Netze, Generator zuerst.
func (m *Model) Range(fn func(name string, t *ml.Tensor) bool) {
	more := true
	m.Generator.Params.Range(func(name string, t *ml.Tensor) bool {
		more = fn(name, t)
		return more
	})
	if more {
		m.DParams.Range(fn)
	}
}

// NumParams gibt die Anzahl skalarer Parameter beider Netze zurueck.
func (m *Model) NumParams() int {
	return m.Generator.Params.NumParams() + m.DParams.NumParams()
}

// Metadata gibt die Snapshot-Metadaten (serialisierte Options) zurueck.
func (m *Model) Metadata() (map[string]string, error) {
	bts, err := json.Marshal(m.opts)
	if err != nil {
		return nil, err
	}
	return map[string]string{optionsKey: string(bts)}, nil
}

// Save schreibt alle Parameter beider Netze nach path.
func (m *Model) Save(path string, dtype ml.DType) error {
	md, err := m.Metadata()
	if err != nil {
		return err
	}
	return safetensors.Save(path, m, dtype, md)
}

// Load erzeugt ein Model mit der Architektur aus den Metadaten von path und
// uebernimmt dessen Gewichte. opts werden nach den gespeicherten Options angewendet.
func Load(path string, layout safetensors.Layout, opts ...Option) (*Model, error) {
	f, err := safetensors.Load(path)
	if err != nil {
		return nil, err
	}
	return FromFile(f, layout, opts...)
}

// FromFile wie Load, aber fuer eine bereits gelesene Datei.
func FromFile(f *safetensors.File, layout safetensors.Layout, opts ...Option) (*Model, error) {
	saved := DefaultOptions()
	if raw, ok := f.Metadata[optionsKey]; ok {
		if err := json.Unmarshal([]byte(raw), &saved); err != nil {
			return nil, fmt.Errorf("stylegan: snapshot options: %w", err)
		}
	}

	base := func(o *Options) { *o = saved }
	m, err := New(append([]Option{base}, opts...)...)
	if err != nil {
		return nil, err
	}

	if err := safetensors.Apply(m, f, layout); err != nil {
		return nil, err
	}
	return m, nil
}
