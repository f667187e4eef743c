package viewer

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/turtacn/molscope/internal/domain/molecule"
	"github.com/turtacn/molscope/internal/domain/scene"
)

// Scene is the document served to clients: the parsed molecule, its shapes
// and bounds, and a camera fitted to them.
type Scene struct {
	Digest      string                      `json:"digest"`
	Name        string                      `json:"name,omitempty"`
	Composition molecule.CompositionSummary `json:"composition"`
	Molecule    *molecule.Snapshot          `json:"molecule"`
	scene.Geometry
	Camera  scene.CameraPose `json:"camera"`
	BuiltAt time.Time        `json:"built_at"`
}

// cacheEntry is what the scene cache stores per digest. The record is kept
// for export.
type cacheEntry struct {
	Scene  *Scene `json:"scene"`
	Record string `json:"record"`
}

// Digest identifies a record by content: hex SHA-256 of the text with
// carriage returns removed, so CRLF and LF copies share cache entries.
func Digest(record string) string {
	sum := sha256.Sum256([]byte(molecule.StripCR(record)))
	return hex.EncodeToString(sum[:])
}

// Reframed returns a shallow copy with the camera refitted for fov.
func (s *Scene) Reframed(f *scene.Framer, fov float64) *Scene {
	cp := *s
	cp.Camera = f.Frame(s.Bounds, fov)
	return &cp
}

// shallowCopy shares shapes with s; releasing s only drops s's own slice header.
func (s *Scene) shallowCopy() *Scene {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

// Release drops the scene's geometry.
func (s *Scene) Release() {
	if s == nil {
		return
	}
	s.Geometry.Release()
}

//Personal.AI order the ending
