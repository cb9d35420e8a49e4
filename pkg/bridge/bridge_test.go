package bridge

import (
	"errors"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/loft/pkg/mesh"
	"github.com/chazu/loft/pkg/mesh/memory"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// addPolygon adds a face from positions and returns its handle plus the
// created vertex handles in order.
func addPolygon(t *testing.T, m *memory.Mesh, pts []v3.Vec) (mesh.FaceID, []mesh.VertexID) {
	t.Helper()
	verts := make([]mesh.VertexID, len(pts))
	for i, p := range pts {
		verts[i] = m.AddVertex(p)
	}
	f, err := m.AddFace(verts)
	if err != nil {
		t.Fatalf("AddFace: %v", err)
	}
	return f, verts
}

// square returns the corner positions of an axis-aligned square in the
// XZ plane, wound so its Newell normal points toward -Y.
func square(cx, y, cz, half float64) []v3.Vec {
	return []v3.Vec{
		{X: cx - half, Y: y, Z: cz - half},
		{X: cx + half, Y: y, Z: cz - half},
		{X: cx + half, Y: y, Z: cz + half},
		{X: cx - half, Y: y, Z: cz + half},
	}
}

// reversed returns pts in opposite winding.
func reversed(pts []v3.Vec) []v3.Vec {
	out := make([]v3.Vec, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

// selectBorders replaces the edge selection with the border edges of
// the given faces.
func selectBorders(t *testing.T, m *memory.Mesh, faces ...mesh.FaceID) {
	t.Helper()
	border, err := m.BorderEdges(faces)
	if err != nil {
		t.Fatalf("BorderEdges: %v", err)
	}
	m.SelectEdges(border)
}

// faceSizes counts triangles and quads among the given faces.
func faceSizes(t *testing.T, m *memory.Mesh, faces []mesh.FaceID) (tris, quads int) {
	t.Helper()
	for _, f := range faces {
		verts, err := m.FaceVerts(f)
		if err != nil {
			t.Fatalf("FaceVerts: %v", err)
		}
		switch len(verts) {
		case 3:
			tris++
		case 4:
			quads++
		default:
			t.Errorf("face %d has %d vertices", f, len(verts))
		}
	}
	return tris, quads
}

// ---------------------------------------------------------------------------
// Loop extraction
// ---------------------------------------------------------------------------

func TestExtractLoops_ClosedBorder(t *testing.T) {
	m := memory.New()
	f, verts := addPolygon(t, m, square(0, 0, 0, 1))
	border, err := m.BorderEdges([]mesh.FaceID{f})
	if err != nil {
		t.Fatalf("BorderEdges: %v", err)
	}

	loops, err := ExtractLoops(m, border)
	if err != nil {
		t.Fatalf("ExtractLoops: %v", err)
	}
	if len(loops) != 1 {
		t.Fatalf("got %d loops, want 1", len(loops))
	}
	l := loops[0]
	if !l.Closed || l.Len() != 4 {
		t.Errorf("loop closed=%v len=%d, want closed len 4", l.Closed, l.Len())
	}
	if len(l.Edges) != 4 {
		t.Errorf("loop carries %d edges, want 4", len(l.Edges))
	}
	seen := make(map[mesh.VertexID]bool)
	for _, v := range l.Verts {
		seen[v] = true
	}
	for _, v := range verts {
		if !seen[v] {
			t.Errorf("vertex %d missing from loop", v)
		}
	}
}

func TestExtractLoops_OpenChain(t *testing.T) {
	m := memory.New()
	_, verts := addPolygon(t, m, square(0, 0, 0, 1))
	// Leave out one side of the square.
	var chain []mesh.EdgeID
	for i := 0; i < 3; i++ {
		e, ok := m.Edge(verts[i], verts[i+1])
		if !ok {
			t.Fatalf("edge %d-%d not found", verts[i], verts[i+1])
		}
		chain = append(chain, e)
	}

	loops, err := ExtractLoops(m, chain)
	if err != nil {
		t.Fatalf("ExtractLoops: %v", err)
	}
	if len(loops) != 1 {
		t.Fatalf("got %d loops, want 1", len(loops))
	}
	l := loops[0]
	if l.Closed {
		t.Error("chain reported as closed")
	}
	if l.Len() != 4 || len(l.Edges) != 3 {
		t.Errorf("chain len=%d edges=%d, want 4 and 3", l.Len(), len(l.Edges))
	}
}

func TestExtractLoops_BranchingFails(t *testing.T) {
	m := memory.New()
	center := m.AddVertex(v3.Vec{})
	var rim []mesh.VertexID
	for _, p := range []v3.Vec{{X: 1}, {Z: 1}, {X: -1}} {
		rim = append(rim, m.AddVertex(p))
	}
	for i := range rim {
		if _, err := m.AddFace([]mesh.VertexID{center, rim[i], rim[(i+1)%3]}); err != nil {
			t.Fatalf("AddFace: %v", err)
		}
	}
	var spokes []mesh.EdgeID
	for _, v := range rim {
		e, ok := m.Edge(center, v)
		if !ok {
			t.Fatalf("spoke edge to %d not found", v)
		}
		spokes = append(spokes, e)
	}

	_, err := ExtractLoops(m, spokes)
	var malformed MalformedSelectionError
	if !errors.As(err, &malformed) {
		t.Fatalf("got %v, want MalformedSelectionError", err)
	}
}

func TestExtractPair_DenseFirst(t *testing.T) {
	m := memory.New()
	fSquare, _ := addPolygon(t, m, square(0, 0, 0, 1))
	fHex, _ := addPolygon(t, m, []v3.Vec{
		{X: 1, Y: 2}, {X: 0.5, Y: 2, Z: 0.87}, {X: -0.5, Y: 2, Z: 0.87},
		{X: -1, Y: 2}, {X: -0.5, Y: 2, Z: -0.87}, {X: 0.5, Y: 2, Z: -0.87},
	})
	selectBorders(t, m, fSquare, fHex)

	dense, sparse, err := ExtractPair(m)
	if err != nil {
		t.Fatalf("ExtractPair: %v", err)
	}
	if dense.Len() != 6 || sparse.Len() != 4 {
		t.Errorf("dense=%d sparse=%d, want 6 and 4", dense.Len(), sparse.Len())
	}
}

func TestExtractPair_SingleBorderFails(t *testing.T) {
	m := memory.New()
	f, _ := addPolygon(t, m, square(0, 0, 0, 1))
	selectBorders(t, m, f)

	_, _, err := ExtractPair(m)
	var lc LoopCountError
	if !errors.As(err, &lc) {
		t.Fatalf("got %v, want LoopCountError", err)
	}
	if lc.Count != 1 {
		t.Errorf("count = %d, want 1", lc.Count)
	}
}

// ---------------------------------------------------------------------------
// Bridging
// ---------------------------------------------------------------------------

func TestBridge_TubeBetweenSquares(t *testing.T) {
	m := memory.New()
	// End caps of a tube, wound outward.
	fBottom, _ := addPolygon(t, m, square(0, 0, 0, 1))
	fTop, _ := addPolygon(t, m, reversed(square(0, 1, 0, 1)))
	selectBorders(t, m, fBottom, fTop)

	res, err := Bridge(m, Options{})
	if err != nil {
		t.Fatalf("Bridge: %v", err)
	}
	if len(res.Faces) != 4 {
		t.Fatalf("created %d faces, want 4", len(res.Faces))
	}
	tris, quads := faceSizes(t, m, res.Faces)
	if tris != 0 || quads != 4 {
		t.Errorf("got %d tris %d quads, want 0 and 4", tris, quads)
	}
	if m.FaceCount() != 6 {
		t.Errorf("face count = %d, want 6", m.FaceCount())
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestBridge_HexToSquare(t *testing.T) {
	m := memory.New()
	fBottom, _ := addPolygon(t, m, square(0, 0, 0, 1))
	hex := make([]v3.Vec, 0, 6)
	for _, p := range []struct{ x, z float64 }{
		{1, 0}, {0.5, 0.87}, {-0.5, 0.87}, {-1, 0}, {-0.5, -0.87}, {0.5, -0.87},
	} {
		hex = append(hex, v3.Vec{X: p.x, Y: 1, Z: p.z})
	}
	fTop, _ := addPolygon(t, m, hex)
	selectBorders(t, m, fBottom, fTop)

	res, err := Bridge(m, Options{})
	if err != nil {
		t.Fatalf("Bridge: %v", err)
	}
	tris, quads := faceSizes(t, m, res.Faces)
	if tris != 2 || quads != 4 {
		t.Errorf("got %d tris %d quads, want 2 and 4", tris, quads)
	}
}

func TestBridge_DelegateKeyhole(t *testing.T) {
	m := memory.New()
	// A coplanar pane-in-frame pair: the panes stand in for the shells
	// a host mesh would have around each border. Opposite windings
	// mirror how a pierced wall traverses its outer and inner borders.
	fOuter, _ := addPolygon(t, m, square(0, 0, 0, 2))
	fInner, _ := addPolygon(t, m, reversed(square(0, 0, 0, 0.5)))
	selectBorders(t, m, fOuter, fInner)

	res, err := Bridge(m, Options{Optimize: true})
	if err != nil {
		t.Fatalf("Bridge: %v", err)
	}
	if len(res.Faces) < 4 {
		t.Fatalf("created %d faces, want at least 4", len(res.Faces))
	}
	faceSizes(t, m, res.Faces) // every face must be a tri or quad
	if m.FaceCount() != 2+len(res.Faces) {
		t.Errorf("face count = %d, want %d", m.FaceCount(), 2+len(res.Faces))
	}
}

func TestBridge_OptimizedTubeFallsBackToNearest(t *testing.T) {
	m := memory.New()
	// The keyhole splice has no simple-polygon form between parallel
	// planes, so the optimized path must hand tube fills to the
	// nearest-counterpart strategy.
	fBottom, _ := addPolygon(t, m, square(0, 0, 0, 1))
	fTop, _ := addPolygon(t, m, reversed(square(0, 1, 0, 1)))
	selectBorders(t, m, fBottom, fTop)

	res, err := Bridge(m, Options{Optimize: true})
	if err != nil {
		t.Fatalf("Bridge: %v", err)
	}
	tris, quads := faceSizes(t, m, res.Faces)
	if tris != 0 || quads != 4 {
		t.Errorf("got %d tris %d quads, want 0 and 4", tris, quads)
	}
	if m.FaceCount() != 6 {
		t.Errorf("face count = %d, want 6", m.FaceCount())
	}
}

// failingQuadHost rejects every delegated quadrangulation, standing in
// for a host whose fill operator cannot handle a boundary.
type failingQuadHost struct {
	*memory.Mesh
}

func (failingQuadHost) Quadrangulate([]mesh.VertexID) ([]mesh.FaceID, error) {
	return nil, errors.New("unsupported boundary")
}

func TestBridge_FailedFillRollsBack(t *testing.T) {
	m := memory.New()
	fOuter, _ := addPolygon(t, m, square(0, 0, 0, 2))
	fInner, _ := addPolygon(t, m, reversed(square(0, 0, 0, 0.5)))
	selectBorders(t, m, fOuter, fInner)

	// The delegate strategy writes its bridging quad before the host
	// fill runs; a fill failure must leave no trace of it.
	_, err := Bridge(failingQuadHost{m}, Options{Optimize: true})
	var hostErr HostOperationError
	if !errors.As(err, &hostErr) {
		t.Fatalf("got %v, want HostOperationError", err)
	}
	if m.FaceCount() != 2 {
		t.Errorf("face count = %d after failed bridge, want 2", m.FaceCount())
	}
	if _, ok := m.Undo(); ok {
		t.Error("failed bridge left an undo chunk behind")
	}
}

func TestBridge_DegenerateFaceSkipped(t *testing.T) {
	m := memory.New()
	// The top cap repeats one corner position under a second handle,
	// producing a zero-length border edge.
	top := []v3.Vec{
		{X: -1, Y: 1, Z: -1},
		{X: 1, Y: 1, Z: -1},
		{X: 1, Y: 1, Z: 1},
		{X: 1, Y: 1, Z: 1},
		{X: -1, Y: 1, Z: 1},
	}
	fTop, _ := addPolygon(t, m, top)
	fBottom, _ := addPolygon(t, m, square(0, 0, 0, 1))
	selectBorders(t, m, fTop, fBottom)

	res, err := Bridge(m, Options{})
	if err != nil {
		t.Fatalf("Bridge: %v", err)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("got %d warnings, want 1: %v", len(res.Warnings), res.Warnings)
	}
	if len(res.Faces) != 4 {
		t.Errorf("created %d faces, want 4", len(res.Faces))
	}
	if len(m.Warnings()) != 1 {
		t.Errorf("host did not record the warning")
	}
}

func TestBridge_DisjointBordersFail(t *testing.T) {
	m := memory.New()
	fA, _ := addPolygon(t, m, square(0, 0, 0, 1))
	fB, _ := addPolygon(t, m, square(5, 0, 0, 1))
	selectBorders(t, m, fA, fB)

	_, err := Bridge(m, Options{})
	var c ContainmentError
	if !errors.As(err, &c) {
		t.Fatalf("got %v, want ContainmentError", err)
	}
	if m.FaceCount() != 2 {
		t.Errorf("face count changed to %d", m.FaceCount())
	}
	if _, ok := m.Undo(); ok {
		t.Error("an undo chunk was opened before validation finished")
	}
}

func TestBridge_InconsistentShellWindingFails(t *testing.T) {
	m := memory.New()
	// Cover a square with two triangles of opposing winding so the
	// border's adjacent faces disagree about traversal direction.
	pts := square(0, 1, 0, 1)
	var verts []mesh.VertexID
	for _, p := range pts {
		verts = append(verts, m.AddVertex(p))
	}
	if _, err := m.AddFace([]mesh.VertexID{verts[0], verts[1], verts[2]}); err != nil {
		t.Fatalf("AddFace: %v", err)
	}
	if _, err := m.AddFace([]mesh.VertexID{verts[0], verts[3], verts[2]}); err != nil {
		t.Fatalf("AddFace: %v", err)
	}
	fBottom, _ := addPolygon(t, m, square(0, 0, 0, 1))

	var border []mesh.EdgeID
	for i := range verts {
		e, ok := m.Edge(verts[i], verts[(i+1)%4])
		if !ok {
			t.Fatalf("border edge %d not found", i)
		}
		border = append(border, e)
	}
	lower, err := m.BorderEdges([]mesh.FaceID{fBottom})
	if err != nil {
		t.Fatalf("BorderEdges: %v", err)
	}
	m.SelectEdges(append(border, lower...))

	_, err = Bridge(m, Options{})
	var oc OrientationConflictError
	if !errors.As(err, &oc) {
		t.Fatalf("got %v, want OrientationConflictError", err)
	}
	if m.FaceCount() != 3 {
		t.Errorf("face count changed to %d", m.FaceCount())
	}
}

func TestBridge_UndoRestoresMesh(t *testing.T) {
	m := memory.New()
	fBottom, _ := addPolygon(t, m, square(0, 0, 0, 1))
	fTop, _ := addPolygon(t, m, reversed(square(0, 1, 0, 1)))
	selectBorders(t, m, fBottom, fTop)

	if _, err := Bridge(m, Options{}); err != nil {
		t.Fatalf("Bridge: %v", err)
	}
	label, ok := m.Undo()
	if !ok {
		t.Fatal("no undo chunk recorded")
	}
	if label != "bridge borders" {
		t.Errorf("undo label = %q", label)
	}
	if m.FaceCount() != 2 {
		t.Errorf("face count after undo = %d, want 2", m.FaceCount())
	}
}

func TestBridge_EmptySelectionFails(t *testing.T) {
	m := memory.New()
	_, err := Bridge(m, Options{})
	var malformed MalformedSelectionError
	if !errors.As(err, &malformed) {
		t.Fatalf("got %v, want MalformedSelectionError", err)
	}
}
