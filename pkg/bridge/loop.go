// Package bridge fills the space between two boundary loops of a mesh
// with a consistent set of triangle and quad faces. The public entry
// point is Bridge; the pipeline below it is loop extraction, topology
// validation, correspondence solving and face generation.
package bridge

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/loft/pkg/mesh"
)

// Loop is an ordered vertex cycle (Closed) or open chain extracted
// from a boundary-edge selection. Positions are cached per invocation;
// the host mesh owns the vertices.
//
// Invariants: at least 3 vertices when closed, 2 when open; no
// repeated consecutive vertex handles.
type Loop struct {
	Verts  []mesh.VertexID
	Pos    []v3.Vec
	Edges  []mesh.EdgeID // edge i joins vertex i to i+1; len = Len() when closed, Len()-1 when open; nil for synthetic loops
	Closed bool
}

// Len returns the number of vertices in the loop.
func (l *Loop) Len() int {
	return len(l.Verts)
}

// ArcLength returns the total length of the loop's edges, including
// the closing edge for closed loops.
func (l *Loop) ArcLength() float64 {
	var total float64
	n := len(l.Pos)
	last := n - 1
	if l.Closed {
		last = n
	}
	for i := 0; i < last; i++ {
		total += l.Pos[(i+1)%n].Sub(l.Pos[i]).Length()
	}
	return total
}

// Params returns the normalized cumulative arc-length parameter of
// each vertex in [0,1). Vertex 0 is always parameter 0; for closed
// loops the parameter wraps at 1.0. Falls back to uniform spacing if
// the loop has zero length.
func (l *Loop) Params() []float64 {
	n := len(l.Pos)
	params := make([]float64, n)
	total := l.ArcLength()
	if total <= 0 {
		for i := range params {
			params[i] = float64(i) / float64(n)
		}
		return params
	}
	var acc float64
	for i := 1; i < n; i++ {
		acc += l.Pos[i].Sub(l.Pos[i-1]).Length()
		params[i] = acc / total
	}
	return params
}

// Normal returns the loop's plane normal by Newell's method. The
// direction follows the traversal order by the right-hand rule.
func (l *Loop) Normal() v3.Vec {
	var n v3.Vec
	for i := range l.Pos {
		a := l.Pos[i]
		b := l.Pos[(i+1)%len(l.Pos)]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	if n.Length() < 1e-12 {
		return v3.Vec{}
	}
	return n.Normalize()
}

// Centroid returns the average vertex position.
func (l *Loop) Centroid() v3.Vec {
	var c v3.Vec
	for _, p := range l.Pos {
		c = c.Add(p)
	}
	return c.DivScalar(float64(len(l.Pos)))
}

// Bounds returns the axis-aligned bounding box of the loop.
func (l *Loop) Bounds() sdf.Box3 {
	box := sdf.Box3{Min: l.Pos[0], Max: l.Pos[0]}
	for _, p := range l.Pos[1:] {
		box = box.Include(p)
	}
	return box
}

// Reverse flips the traversal order in place. For closed loops vertex
// 0 stays first so an established anchor survives the flip; open
// chains swap ends.
func (l *Loop) Reverse() {
	lo := 0
	if l.Closed {
		lo = 1
	}
	for i, j := lo, len(l.Verts)-1; i < j; i, j = i+1, j-1 {
		l.Verts[i], l.Verts[j] = l.Verts[j], l.Verts[i]
		l.Pos[i], l.Pos[j] = l.Pos[j], l.Pos[i]
	}
	// Reversing the vertex order maps edge i to edge len-1-i in both
	// the closed (anchor-preserving) and open cases.
	if l.Edges != nil {
		for i, j := 0, len(l.Edges)-1; i < j; i, j = i+1, j-1 {
			l.Edges[i], l.Edges[j] = l.Edges[j], l.Edges[i]
		}
	}
}

// RotateTo re-anchors a closed loop so that vertex k becomes vertex 0.
func (l *Loop) RotateTo(k int) {
	if !l.Closed || k == 0 {
		return
	}
	n := len(l.Verts)
	k %= n
	l.Verts = append(l.Verts[k:], l.Verts[:k]...)
	l.Pos = append(l.Pos[k:], l.Pos[:k]...)
	if l.Edges != nil {
		l.Edges = append(l.Edges[k:], l.Edges[:k]...)
	}
}

// circDist returns the circular distance between two parameters in
// [0,1), accounting for wrap-around at 1.0.
func circDist(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > 0.5 {
		d = 1.0 - d
	}
	return d
}
