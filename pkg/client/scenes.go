package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/turtacn/molscope/pkg/errors"
	"github.com/turtacn/molscope/pkg/types/geometry"
)

// BuildRequest is the JSON form of a build. Exactly one of MolBlock or SMILES
// is needed; FOV 0 uses the server default.
type BuildRequest struct {
	MolBlock string  `json:"mol_block,omitempty"`
	SMILES   string  `json:"smiles,omitempty"`
	FOV      float64 `json:"fov,omitempty"`
}

func (r *BuildRequest) validate() error {
	if r == nil || (r.MolBlock == "" && r.SMILES == "") {
		return errors.New(errors.ErrCodeValidation, "mol_block or smiles is required")
	}
	return nil
}

// Atom is one parsed atom.
type Atom struct {
	Position geometry.Vec3 `json:"position"`
	Element  string        `json:"element"`
}

// Bond joins two atoms by 0-based index.
type Bond struct {
	A     int `json:"a"`
	B     int `json:"b"`
	Order int `json:"order"`
}

// Molecule is the parsed record.
type Molecule struct {
	Name  string `json:"name,omitempty"`
	Atoms []Atom `json:"atoms"`
	Bonds []Bond `json:"bonds"`
}

// Composition is the properties-panel summary.
type Composition struct {
	Formula        string         `json:"formula"`
	AtomCount      int            `json:"atom_count"`
	BondCount      int            `json:"bond_count"`
	HeavyAtomCount int            `json:"heavy_atom_count"`
	Elements       map[string]int `json:"elements"`
	BondOrders     map[int]int    `json:"bond_orders"`
}

// Sphere is an atom primitive. Colours are "#rrggbb".
type Sphere struct {
	Center    geometry.Vec3 `json:"center"`
	Radius    float64       `json:"radius"`
	Color     string        `json:"color"`
	Element   string        `json:"element"`
	AtomIndex int           `json:"atom_index"`
}

// Cylinder is one bond stroke.
type Cylinder struct {
	Center    geometry.Vec3       `json:"center"`
	Axis      geometry.Vec3       `json:"axis"`
	Rotation  geometry.Quaternion `json:"rotation"`
	Length    float64             `json:"length"`
	Radius    float64             `json:"radius"`
	Color     string              `json:"color"`
	BondIndex int                 `json:"bond_index"`
	Offset    float64             `json:"offset"`
}

// Shape carries one of Sphere or Cylinder, per Kind.
type Shape struct {
	Kind     string    `json:"kind"`
	Sphere   *Sphere   `json:"sphere,omitempty"`
	Cylinder *Cylinder `json:"cylinder,omitempty"`
}

// Camera is the fitted camera pose.
type Camera struct {
	Position geometry.Vec3 `json:"position"`
	Target   geometry.Vec3 `json:"target"`
	Up       geometry.Vec3 `json:"up"`
	Distance float64       `json:"distance"`
	FOV      float64       `json:"fov"`
}

// Scene is a built scene document.
type Scene struct {
	Digest      string       `json:"digest"`
	Name        string       `json:"name,omitempty"`
	Composition Composition  `json:"composition"`
	Molecule    *Molecule    `json:"molecule"`
	Shapes      []Shape      `json:"shapes"`
	Bounds      geometry.Box `json:"bounds"`
	Camera      Camera       `json:"camera"`
	BuiltAt     time.Time    `json:"built_at"`
}

// Spheres returns the sphere shapes in order.
func (s *Scene) Spheres() []Sphere {
	var out []Sphere
	for _, sh := range s.Shapes {
		if sh.Sphere != nil {
			out = append(out, *sh.Sphere)
		}
	}
	return out
}

// Cylinders returns the cylinder shapes in order.
func (s *Scene) Cylinders() []Cylinder {
	var out []Cylinder
	for _, sh := range s.Shapes {
		if sh.Cylinder != nil {
			out = append(out, *sh.Cylinder)
		}
	}
	return out
}

// Archive is the result of exporting a scene to object storage.
type Archive struct {
	Bucket    string    `json:"bucket"`
	SceneKey  string    `json:"scene_key"`
	RecordKey string    `json:"record_key"`
	ETag      string    `json:"etag,omitempty"`
	Size      int64     `json:"size"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ScenesClient covers the stateless /scenes endpoints.
type ScenesClient struct {
	client *Client
}

// Build builds a scene from a record or SMILES string.
func (s *ScenesClient) Build(ctx context.Context, req *BuildRequest) (*Scene, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	var sc Scene
	if err := s.client.do(ctx, http.MethodPost, apiPrefix+"/scenes", req, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Export archives a scene the server still has cached.
func (s *ScenesClient) Export(ctx context.Context, digest string) (*Archive, error) {
	if digest == "" {
		return nil, errors.New(errors.ErrCodeValidation, "digest is required")
	}
	var a Archive
	path := apiPrefix + "/scenes/" + url.PathEscape(digest) + "/export"
	if err := s.client.do(ctx, http.MethodPost, path, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

//Personal.AI order the ending
