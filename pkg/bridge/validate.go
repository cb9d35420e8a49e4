package bridge

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/loft/pkg/mesh"
)

// Generated fill faces traverse the dense loop forward and the sparse
// loop backward, so a quad (d_i, d_i+1, s_j+1, s_j) shares its winding
// with the existing shells only when the dense loop runs opposite to
// its adjacent faces and the sparse loop runs with its adjacent faces.
// orientLoops reorders both loops to satisfy that, or reports a
// conflict.
func orientLoops(h mesh.Host, dense, sparse *Loop) error {
	df, err := shellForward(h, dense)
	if err != nil {
		return err
	}
	sf, err := shellForward(h, sparse)
	if err != nil {
		return err
	}

	switch {
	case df == 0 && sf == 0:
		// No adjacent shell on either loop. Fall back to aligning the
		// plane normals so the fill at least comes out single-sided.
		dn, sn := dense.Normal(), sparse.Normal()
		if dn.Dot(sn) < 0 {
			sparse.Reverse()
		}
		return nil
	case df > 0:
		dense.Reverse()
	}
	if sf < 0 {
		sparse.Reverse()
	}
	return nil
}

// shellForward reports whether the loop's traversal order agrees with
// its adjacent faces: +1 when every sampled face walks the loop's edges
// in the same direction as the loop, -1 when every one opposes it, 0
// when the loop has no adjacent faces. Mixed votes mean the shell
// itself is inconsistently wound.
func shellForward(h mesh.Host, l *Loop) (int, error) {
	if l.Edges == nil {
		return 0, nil
	}
	forward, backward := 0, 0
	for i, e := range l.Edges {
		u := l.Verts[i]
		v := l.Verts[(i+1)%len(l.Verts)]
		faces, err := h.EdgeFaces(e)
		if err != nil {
			return 0, HostOperationError{Op: "edgeFaces", Err: err}
		}
		for _, f := range faces {
			fv, err := h.FaceVerts(f)
			if err != nil {
				return 0, HostOperationError{Op: "faceVerts", Err: err}
			}
			if faceTraversesForward(fv, u, v) {
				forward++
			} else {
				backward++
			}
		}
	}
	switch {
	case forward > 0 && backward > 0:
		return 0, OrientationConflictError{Reason: "adjacent faces disagree about the border's winding"}
	case forward > 0:
		return 1, nil
	case backward > 0:
		return -1, nil
	}
	return 0, nil
}

// faceTraversesForward reports whether the face's vertex cycle contains
// the directed edge u -> v.
func faceTraversesForward(fv []mesh.VertexID, u, v mesh.VertexID) bool {
	n := len(fv)
	for i := 0; i < n; i++ {
		if fv[i] == u && fv[(i+1)%n] == v {
			return true
		}
	}
	return false
}

// checkContainment verifies that the smaller loop sits inside the
// region enclosed by the larger one, projected onto the larger loop's
// best-fit plane. Only meaningful for closed loops; open chains skip
// the check.
func checkContainment(dense, sparse *Loop) error {
	if !dense.Closed || !sparse.Closed {
		return nil
	}

	outer, inner := dense, sparse
	if boxVolume(sparse) > boxVolume(dense) {
		outer, inner = sparse, dense
	}

	normal := outer.Normal()
	if normal.Length() < 1e-12 {
		return ContainmentError{Reason: "outer border is degenerate, no reference plane"}
	}
	u, w := planeBasis(normal)

	poly := make([]vec2, len(outer.Pos))
	for i, p := range outer.Pos {
		poly[i] = vec2{x: p.Dot(u), y: p.Dot(w)}
	}
	c := inner.Centroid()
	pt := vec2{x: c.Dot(u), y: c.Dot(w)}

	if !pointInPolygon(pt, poly) {
		return ContainmentError{Reason: "inner border lies outside the outer border"}
	}
	return nil
}

func boxVolume(l *Loop) float64 {
	s := l.Bounds().Size()
	return s.X*s.Y + s.Y*s.Z + s.Z*s.X
}

// planeBasis returns two orthonormal vectors spanning the plane with
// the given normal.
func planeBasis(normal v3.Vec) (u, w v3.Vec) {
	ref := v3.Vec{X: 1, Y: 0, Z: 0}
	if math.Abs(normal.X) > 0.9 {
		ref = v3.Vec{X: 0, Y: 1, Z: 0}
	}
	u = ref.Cross(normal).Normalize()
	w = normal.Cross(u)
	return u, w
}

// vec2 is a point in a projection plane.
type vec2 struct {
	x, y float64
}

// pointInPolygon tests pt against poly by ray-crossing parity.
func pointInPolygon(pt vec2, poly []vec2) bool {
	inside := false
	n := len(poly)
	for i := 0; i < n; i++ {
		a := poly[i]
		b := poly[(i+1)%n]
		if (a.y > pt.y) != (b.y > pt.y) {
			x := a.x + (pt.y-a.y)/(b.y-a.y)*(b.x-a.x)
			if pt.x < x {
				inside = !inside
			}
		}
	}
	return inside
}
