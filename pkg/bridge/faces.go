package bridge

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/loft/pkg/mesh"
)

// degenerateArea is the threshold below which a generated face is
// dropped with a warning instead of created.
const degenerateArea = 1e-9

// fillFace is a face computed but not yet written to the host.
type fillFace struct {
	verts []mesh.VertexID
	pos   []v3.Vec
}

// planFaces turns a correspondence into the list of quads and fan
// triangles spanning the two loops. Pure: no host writes.
func planFaces(c *Correspondence) ([]fillFace, error) {
	dense, sparse := c.Dense, c.Sparse
	m, n := dense.Len(), sparse.Len()

	segments := m - 1
	if dense.Closed {
		segments = m
	}

	var faces []fillFace
	for i := 0; i < segments; i++ {
		i2 := (i + 1) % m
		j := c.Match[i]
		j2 := c.Match[i2]
		if i2 == 0 {
			// Closing segment of a closed dense loop: the anchor seen
			// from the far side of the sparse loop.
			j2 = n
		}
		switch j2 - j {
		case 0:
			faces = append(faces, fillFace{
				verts: []mesh.VertexID{dense.Verts[i], dense.Verts[i2], sparse.Verts[j%n]},
				pos:   []v3.Vec{dense.Pos[i], dense.Pos[i2], sparse.Pos[j%n]},
			})
		case 1:
			faces = append(faces, fillFace{
				verts: []mesh.VertexID{dense.Verts[i], dense.Verts[i2], sparse.Verts[j2%n], sparse.Verts[j%n]},
				pos:   []v3.Vec{dense.Pos[i], dense.Pos[i2], sparse.Pos[j2%n], sparse.Pos[j%n]},
			})
		default:
			return nil, fmt.Errorf("correspondence jumps %d sparse vertices at dense vertex %d", j2-j, i)
		}
	}
	return faces, nil
}

// writeFaces creates the planned faces on the host, skipping
// degenerate ones with a warning.
func writeFaces(h mesh.Host, faces []fillFace) ([]mesh.FaceID, []string, error) {
	var created []mesh.FaceID
	var warnings []string
	for _, f := range faces {
		if faceArea(f.pos) < degenerateArea {
			w := fmt.Sprintf("skipped degenerate face %v", f.verts)
			warnings = append(warnings, w)
			h.Warn(w)
			continue
		}
		id, err := h.CreateFace(f.verts)
		if err != nil {
			return created, warnings, HostOperationError{Op: "createFace", Err: err}
		}
		created = append(created, id)
	}
	return created, warnings, nil
}

// faceArea returns the area of a planar polygon given its vertex
// positions, half the magnitude of the Newell vector.
func faceArea(pos []v3.Vec) float64 {
	var sum v3.Vec
	for i := range pos {
		sum = sum.Add(pos[i].Cross(pos[(i+1)%len(pos)]))
	}
	return sum.Length() / 2
}
