package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/sandsim/internal/sand"
	"github.com/san-kum/sandsim/internal/sim"
)

type ExportData struct {
	Run       RunMetadata      `json:"run"`
	Steps     int              `json:"steps"`
	Frames    []sim.Frame      `json:"frames"`
	Particles []ExportParticle `json:"particles"`
}

type ExportParticle struct {
	ID   uint64  `json:"id"`
	Kind string  `json:"kind"`
	X    float32 `json:"x"`
	Y    float32 `json:"y"`
}

// ExportJSON writes a stored run as a single indented JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	frames, err := s.LoadFrames(runID)
	if err != nil {
		return err
	}
	final, err := s.LoadFinal(runID)
	if err != nil {
		return err
	}
	return WriteJSON(w, *meta, frames, final)
}

func WriteJSON(w io.Writer, meta RunMetadata, frames []sim.Frame, final []sand.Particle) error {
	data := ExportData{
		Run:       meta,
		Steps:     len(frames),
		Frames:    frames,
		Particles: make([]ExportParticle, len(final)),
	}
	if data.Frames == nil {
		data.Frames = []sim.Frame{}
	}
	for i, p := range final {
		data.Particles[i] = ExportParticle{ID: uint64(p.ID), Kind: p.Kind.String(), X: p.Pos.X, Y: p.Pos.Y}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
