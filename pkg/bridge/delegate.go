package bridge

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/loft/pkg/mesh"
)

// DelegateStrategy splices the two loops into a single keyhole polygon
// at their closest edge pair, emits one quad bridging that pair, and
// hands the keyhole to the host's quadrangulation. It needs two closed
// coplanar loops; the splice has no meaning for open chains and is not
// a simple polygon when the loops lie in different planes.
type DelegateStrategy struct{}

// coplanar reports whether both loops lie in the dense loop's plane,
// within a tolerance scaled by their extent.
func coplanar(dense, sparse *Loop) bool {
	n := dense.Normal()
	if n.Length() == 0 {
		return false
	}
	c := dense.Centroid()
	tol := 1e-9 + 1e-6*(dense.Bounds().Size().Length()+sparse.Bounds().Size().Length())
	for _, pos := range [][]v3.Vec{dense.Pos, sparse.Pos} {
		for _, p := range pos {
			if math.Abs(p.Sub(c).Dot(n)) > tol {
				return false
			}
		}
	}
	return true
}

func (DelegateStrategy) Fill(h mesh.Host, dense, sparse *Loop) ([]mesh.FaceID, []string, error) {
	di, sj := closestEdgePair(dense, sparse)
	m, n := dense.Len(), sparse.Len()
	di2 := (di + 1) % m
	sj2 := (sj + 1) % n

	// Two ways to connect the edge pair's endpoints; take the shorter
	// total connector length.
	straight := dense.Pos[di].Sub(sparse.Pos[sj]).Length() +
		dense.Pos[di2].Sub(sparse.Pos[sj2]).Length()
	crossed := dense.Pos[di].Sub(sparse.Pos[sj2]).Length() +
		dense.Pos[di2].Sub(sparse.Pos[sj]).Length()

	var bridge fillFace
	boundary := make([]mesh.VertexID, 0, m+n)

	// Dense portion: from the far end of the removed dense edge all
	// the way around to its near end.
	for k := 0; k < m; k++ {
		boundary = append(boundary, dense.Verts[(di2+k)%m])
	}

	if straight <= crossed {
		// Connectors d_i - s_j and d_i2 - s_j2: walk the sparse loop
		// backward from s_j around to s_j2.
		bridge = fillFace{
			verts: []mesh.VertexID{dense.Verts[di], dense.Verts[di2], sparse.Verts[sj2], sparse.Verts[sj]},
			pos:   []v3.Vec{dense.Pos[di], dense.Pos[di2], sparse.Pos[sj2], sparse.Pos[sj]},
		}
		for k := 0; k < n; k++ {
			boundary = append(boundary, sparse.Verts[((sj-k)%n+n)%n])
		}
	} else {
		// Connectors d_i - s_j2 and d_i2 - s_j: walk the sparse loop
		// forward from s_j2 around to s_j.
		bridge = fillFace{
			verts: []mesh.VertexID{dense.Verts[di], dense.Verts[di2], sparse.Verts[sj], sparse.Verts[sj2]},
			pos:   []v3.Vec{dense.Pos[di], dense.Pos[di2], sparse.Pos[sj], sparse.Pos[sj2]},
		}
		for k := 0; k < n; k++ {
			boundary = append(boundary, sparse.Verts[(sj2+k)%n])
		}
	}

	created, warnings, err := writeFaces(h, []fillFace{bridge})
	if err != nil {
		return created, warnings, err
	}

	quads, err := h.Quadrangulate(boundary)
	if err != nil {
		return created, warnings, HostOperationError{Op: "quadrangulate", Err: err}
	}
	return append(created, quads...), warnings, nil
}

// ConnectClosestEdges writes a single quad joining the closest edge
// pair of two loops, the minimal tack weld the window tool uses to
// chain duplicated shells together. It returns the created face and
// the edge pair it consumed; those edges stop being boundary edges.
func ConnectClosestEdges(h mesh.Host, a, b *Loop) (mesh.FaceID, [2]mesh.EdgeID, error) {
	if err := orientLoops(h, a, b); err != nil {
		return 0, [2]mesh.EdgeID{}, err
	}
	ai, bj := closestEdgePair(a, b)
	ai2 := (ai + 1) % a.Len()
	bj2 := (bj + 1) % b.Len()

	straight := a.Pos[ai].Sub(b.Pos[bj]).Length() + a.Pos[ai2].Sub(b.Pos[bj2]).Length()
	crossed := a.Pos[ai].Sub(b.Pos[bj2]).Length() + a.Pos[ai2].Sub(b.Pos[bj]).Length()

	quad := []mesh.VertexID{a.Verts[ai], a.Verts[ai2], b.Verts[bj2], b.Verts[bj]}
	if crossed < straight {
		quad = []mesh.VertexID{a.Verts[ai], a.Verts[ai2], b.Verts[bj], b.Verts[bj2]}
	}
	f, err := h.CreateFace(quad)
	if err != nil {
		return 0, [2]mesh.EdgeID{}, HostOperationError{Op: "createFace", Err: err}
	}

	var consumed [2]mesh.EdgeID
	if a.Edges != nil {
		consumed[0] = a.Edges[ai]
	}
	if b.Edges != nil {
		consumed[1] = b.Edges[bj]
	}
	return f, consumed, nil
}

// closestEdgePair returns the index pair of the dense and sparse edges
// whose endpoints lie nearest each other, scoring each pair by the
// average of the per-endpoint minimum distances.
func closestEdgePair(dense, sparse *Loop) (int, int) {
	m, n := dense.Len(), sparse.Len()
	bi, bj, bd := 0, 0, math.Inf(1)
	for i := 0; i < m; i++ {
		a, b := dense.Pos[i], dense.Pos[(i+1)%m]
		for j := 0; j < n; j++ {
			c, d := sparse.Pos[j], sparse.Pos[(j+1)%n]
			score := (math.Min(a.Sub(c).Length(), a.Sub(d).Length()) +
				math.Min(b.Sub(c).Length(), b.Sub(d).Length())) / 2
			if score < bd {
				bi, bj, bd = i, j, score
			}
		}
	}
	return bi, bj
}
