package memory

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/loft/pkg/mesh"
)

// vec2 is a point in the polygon's projection plane.
type vec2 struct {
	x, y float64
}

// Quadrangulate fills a simple polygon boundary with faces: ear-clip
// triangulation in the polygon's best-fit plane followed by a greedy
// pass that merges triangle pairs into convex quads.
func (m *Mesh) Quadrangulate(boundary []mesh.VertexID) ([]mesh.FaceID, error) {
	n := len(boundary)
	if n < 3 {
		return nil, fmt.Errorf("quadrangulate: boundary has %d vertices, need at least 3", n)
	}

	pts := make([]v3.Vec, n)
	for i, v := range boundary {
		p, ok := m.verts[v]
		if !ok {
			return nil, fmt.Errorf("quadrangulate: unknown vertex %d", v)
		}
		pts[i] = p
	}

	proj := projectPlane(pts)

	tris, err := earClip(proj)
	if err != nil {
		return nil, fmt.Errorf("quadrangulate: %w", err)
	}

	polys := mergeQuads(tris, proj)

	var created []mesh.FaceID
	for _, poly := range polys {
		verts := make([]mesh.VertexID, len(poly))
		for i, idx := range poly {
			verts[i] = boundary[idx]
		}
		f, err := m.AddFace(verts)
		if err != nil {
			return nil, err
		}
		created = append(created, f)
	}
	return created, nil
}

// projectPlane maps the polygon onto its best-fit plane using the
// Newell normal, returning 2D coordinates per input point.
func projectPlane(pts []v3.Vec) []vec2 {
	var normal v3.Vec
	for i := range pts {
		a := pts[i]
		b := pts[(i+1)%len(pts)]
		normal.X += (a.Y - b.Y) * (a.Z + b.Z)
		normal.Y += (a.Z - b.Z) * (a.X + b.X)
		normal.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	if normal.Length() < 1e-12 {
		normal = v3.Vec{X: 0, Y: 0, Z: 1}
	}
	normal = normal.Normalize()

	// Basis: any direction not parallel to the normal.
	ref := v3.Vec{X: 1, Y: 0, Z: 0}
	if math.Abs(normal.X) > 0.9 {
		ref = v3.Vec{X: 0, Y: 1, Z: 0}
	}
	u := ref.Cross(normal).Normalize()
	w := normal.Cross(u)

	out := make([]vec2, len(pts))
	for i, p := range pts {
		out[i] = vec2{x: p.Dot(u), y: p.Dot(w)}
	}
	return out
}

// signedArea2 returns twice the signed area of the polygon.
func signedArea2(pts []vec2) float64 {
	var area float64
	for i := range pts {
		a := pts[i]
		b := pts[(i+1)%len(pts)]
		area += a.x*b.y - b.x*a.y
	}
	return area
}

// cross2 returns the z component of (b-a) x (c-a).
func cross2(a, b, c vec2) float64 {
	return (b.x-a.x)*(c.y-a.y) - (c.x-a.x)*(b.y-a.y)
}

// earClip triangulates a simple polygon by repeatedly removing ears.
// Output triangles are index triples into pts, wound in the polygon's
// input order.
func earClip(pts []vec2) ([][3]int, error) {
	n := len(pts)
	if n == 3 {
		return [][3]int{{0, 1, 2}}, nil
	}

	// Work in CCW orientation; emitted triangles are flipped back if
	// the input winding was CW.
	flip := signedArea2(pts) < 0

	remaining := make([]int, n)
	for i := range remaining {
		remaining[i] = i
	}
	at := func(i int) vec2 { return pts[remaining[i]] }
	ccwAt := func(i int) vec2 {
		p := at(i)
		if flip {
			p.y = -p.y
		}
		return p
	}

	isEar := func(i int) bool {
		prev := (i - 1 + len(remaining)) % len(remaining)
		next := (i + 1) % len(remaining)
		a, b, c := ccwAt(prev), ccwAt(i), ccwAt(next)
		if cross2(a, b, c) <= 0 {
			return false // reflex or collinear corner
		}
		// No other remaining vertex may sit inside the candidate ear.
		for j := range remaining {
			if j == prev || j == i || j == next {
				continue
			}
			p := ccwAt(j)
			if cross2(a, b, p) > 0 && cross2(b, c, p) > 0 && cross2(c, a, p) > 0 {
				return false
			}
		}
		return true
	}

	var tris [][3]int
	guard := 0
	for len(remaining) > 3 {
		clipped := false
		for i := range remaining {
			if !isEar(i) {
				continue
			}
			prev := (i - 1 + len(remaining)) % len(remaining)
			next := (i + 1) % len(remaining)
			tris = append(tris, [3]int{remaining[prev], remaining[i], remaining[next]})
			remaining = append(remaining[:i], remaining[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			return nil, fmt.Errorf("no ear found, polygon is degenerate or self-intersecting")
		}
		guard++
		if guard > n {
			return nil, fmt.Errorf("ear clipping did not terminate")
		}
	}
	// Triangles are emitted in the remaining-index order, so they
	// already follow the input boundary's winding.
	tris = append(tris, [3]int{remaining[0], remaining[1], remaining[2]})
	return tris, nil
}

// mergeQuads greedily merges triangle pairs sharing an edge into quads
// when the union is convex, mimicking a triangulate-then-quadrangulate
// pass. Unmerged triangles pass through unchanged.
func mergeQuads(tris [][3]int, pts []vec2) [][]int {
	type diag struct {
		a, b int // shared edge, ordered
	}
	key := func(a, b int) diag {
		if a > b {
			a, b = b, a
		}
		return diag{a: a, b: b}
	}

	byEdge := make(map[diag][]int) // edge -> triangle indices
	for ti, t := range tris {
		for i := 0; i < 3; i++ {
			k := key(t[i], t[(i+1)%3])
			byEdge[k] = append(byEdge[k], ti)
		}
	}

	used := make([]bool, len(tris))
	var out [][]int

	// quadFrom builds the merged cycle of two triangles sharing edge
	// (a,b): walk t1 from the vertex opposite the shared edge.
	quadFrom := func(t1, t2 [3]int, shared diag) []int {
		opp1, opp2 := -1, -1
		for _, v := range t1 {
			if v != shared.a && v != shared.b {
				opp1 = v
			}
		}
		for _, v := range t2 {
			if v != shared.a && v != shared.b {
				opp2 = v
			}
		}
		// Order: opp1, then the shared edge as traversed by t1, with
		// opp2 spliced between the shared endpoints.
		var first, second int
		for i := 0; i < 3; i++ {
			if t1[i] == opp1 {
				first = t1[(i+1)%3]
				second = t1[(i+2)%3]
			}
		}
		return []int{opp1, first, opp2, second}
	}

	convex := func(q []int) bool {
		sign := 0.0
		for i := range q {
			a := pts[q[i]]
			b := pts[q[(i+1)%4]]
			c := pts[q[(i+2)%4]]
			cr := cross2(a, b, c)
			if cr == 0 {
				return false
			}
			if sign == 0 {
				sign = cr
			} else if sign*cr < 0 {
				return false
			}
		}
		return true
	}

	for ti, t := range tris {
		if used[ti] {
			continue
		}
		merged := false
		for i := 0; i < 3 && !merged; i++ {
			k := key(t[i], t[(i+1)%3])
			for _, other := range byEdge[k] {
				if other == ti || used[other] {
					continue
				}
				q := quadFrom(t, tris[other], k)
				if convex(q) {
					used[ti] = true
					used[other] = true
					out = append(out, q)
					merged = true
					break
				}
			}
		}
		if !merged {
			used[ti] = true
			out = append(out, []int{t[0], t[1], t[2]})
		}
	}
	return out
}
