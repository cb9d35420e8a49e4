// Package memory implements the mesh.Editor interface with a plain
// in-memory mesh. It is the backend used by the Wails app and by the
// test suites; a DCC-host backend would sit behind the same interface.
package memory

import (
	"fmt"
	"sort"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/loft/pkg/mesh"
)

// Compile-time interface check.
var _ mesh.Editor = (*Mesh)(nil)

// edgeKey is an unordered vertex pair.
type edgeKey struct {
	lo, hi mesh.VertexID
}

func makeEdgeKey(a, b mesh.VertexID) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{lo: a, hi: b}
}

// Mesh is an editable in-memory polygon mesh. It is not safe for
// concurrent use; the app serializes tool invocations.
type Mesh struct {
	verts     map[mesh.VertexID]v3.Vec
	faces     map[mesh.FaceID][]mesh.VertexID
	edges     map[edgeKey]mesh.EdgeID
	edgeEnds  map[mesh.EdgeID][2]mesh.VertexID
	edgeFaces map[mesh.EdgeID][]mesh.FaceID

	selEdges []mesh.EdgeID
	selVerts []mesh.VertexID

	nextVert mesh.VertexID
	nextEdge mesh.EdgeID
	nextFace mesh.FaceID

	warnings []string
	undo     []snapshot
	depth    int
}

// snapshot captures the full mesh state at the start of an undo chunk.
type snapshot struct {
	label     string
	verts     map[mesh.VertexID]v3.Vec
	faces     map[mesh.FaceID][]mesh.VertexID
	edges     map[edgeKey]mesh.EdgeID
	edgeEnds  map[mesh.EdgeID][2]mesh.VertexID
	edgeFaces map[mesh.EdgeID][]mesh.FaceID
	nextVert  mesh.VertexID
	nextEdge  mesh.EdgeID
	nextFace  mesh.FaceID
}

// New returns an empty mesh.
func New() *Mesh {
	return &Mesh{
		verts:     make(map[mesh.VertexID]v3.Vec),
		faces:     make(map[mesh.FaceID][]mesh.VertexID),
		edges:     make(map[edgeKey]mesh.EdgeID),
		edgeEnds:  make(map[mesh.EdgeID][2]mesh.VertexID),
		edgeFaces: make(map[mesh.EdgeID][]mesh.FaceID),
	}
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

// AddVertex creates a vertex at pos and returns its handle.
func (m *Mesh) AddVertex(pos v3.Vec) mesh.VertexID {
	id := m.nextVert
	m.nextVert++
	m.verts[id] = pos
	return id
}

// AddFace creates a face from ordered vertex handles, registering any
// edges that do not exist yet.
func (m *Mesh) AddFace(verts []mesh.VertexID) (mesh.FaceID, error) {
	if len(verts) < 3 {
		return 0, fmt.Errorf("face needs at least 3 vertices, got %d", len(verts))
	}
	for _, v := range verts {
		if _, ok := m.verts[v]; !ok {
			return 0, fmt.Errorf("face references unknown vertex %d", v)
		}
	}

	id := m.nextFace
	m.nextFace++
	m.faces[id] = append([]mesh.VertexID(nil), verts...)

	for i := range verts {
		a := verts[i]
		b := verts[(i+1)%len(verts)]
		e := m.ensureEdge(a, b)
		m.edgeFaces[e] = append(m.edgeFaces[e], id)
	}
	return id, nil
}

func (m *Mesh) ensureEdge(a, b mesh.VertexID) mesh.EdgeID {
	key := makeEdgeKey(a, b)
	if e, ok := m.edges[key]; ok {
		return e
	}
	e := m.nextEdge
	m.nextEdge++
	m.edges[key] = e
	m.edgeEnds[e] = [2]mesh.VertexID{a, b}
	return e
}

// Edge returns the edge handle between two vertices, if present.
func (m *Mesh) Edge(a, b mesh.VertexID) (mesh.EdgeID, bool) {
	e, ok := m.edges[makeEdgeKey(a, b)]
	return e, ok
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.verts) }

// FaceCount returns the number of faces.
func (m *Mesh) FaceCount() int { return len(m.faces) }

// Faces returns all face handles in ascending order.
func (m *Mesh) Faces() []mesh.FaceID {
	ids := make([]mesh.FaceID, 0, len(m.faces))
	for id := range m.faces {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Warnings returns the messages reported through Warn since the last
// ClearWarnings call.
func (m *Mesh) Warnings() []string { return m.warnings }

// ClearWarnings discards collected warnings.
func (m *Mesh) ClearWarnings() { m.warnings = nil }

// ---------------------------------------------------------------------------
// mesh.Host
// ---------------------------------------------------------------------------

// SelectedEdges returns the current edge selection.
func (m *Mesh) SelectedEdges() []mesh.EdgeID {
	return append([]mesh.EdgeID(nil), m.selEdges...)
}

// EdgeVerts returns the endpoints of an edge.
func (m *Mesh) EdgeVerts(e mesh.EdgeID) (mesh.VertexID, mesh.VertexID, error) {
	ends, ok := m.edgeEnds[e]
	if !ok {
		return 0, 0, fmt.Errorf("unknown edge %d", e)
	}
	return ends[0], ends[1], nil
}

// VertexPosition returns the position of a vertex.
func (m *Mesh) VertexPosition(v mesh.VertexID) (v3.Vec, error) {
	pos, ok := m.verts[v]
	if !ok {
		return v3.Vec{}, fmt.Errorf("unknown vertex %d", v)
	}
	return pos, nil
}

// EdgeFaces returns the faces incident to an edge.
func (m *Mesh) EdgeFaces(e mesh.EdgeID) ([]mesh.FaceID, error) {
	if _, ok := m.edgeEnds[e]; !ok {
		return nil, fmt.Errorf("unknown edge %d", e)
	}
	return append([]mesh.FaceID(nil), m.edgeFaces[e]...), nil
}

// FaceVerts returns a face's vertices in winding order.
func (m *Mesh) FaceVerts(f mesh.FaceID) ([]mesh.VertexID, error) {
	verts, ok := m.faces[f]
	if !ok {
		return nil, fmt.Errorf("unknown face %d", f)
	}
	return append([]mesh.VertexID(nil), verts...), nil
}

// CreateFace creates a face from ordered vertex handles.
func (m *Mesh) CreateFace(verts []mesh.VertexID) (mesh.FaceID, error) {
	return m.AddFace(verts)
}

// BeginChange opens an undo chunk, snapshotting the current state.
// Nested calls join the outermost chunk: only the outermost Begin
// snapshots, so a tool that invokes another tool still undoes as one.
func (m *Mesh) BeginChange(label string) {
	if m.depth == 0 {
		m.undo = append(m.undo, m.capture(label))
	}
	m.depth++
}

// EndChange closes the current undo chunk.
func (m *Mesh) EndChange() {
	if m.depth > 0 {
		m.depth--
	}
}

// AbortChange rolls the mesh back to the snapshot of the current
// chunk's outermost BeginChange and discards the chunk. No-op outside
// a chunk, so an outer tool aborting after an inner one already did
// cannot pop an older chunk.
func (m *Mesh) AbortChange() {
	if m.depth == 0 || len(m.undo) == 0 {
		return
	}
	s := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.restore(s)
	m.depth = 0
}

// Undo reverts the most recent chunk and returns its label.
func (m *Mesh) Undo() (string, bool) {
	if len(m.undo) == 0 {
		return "", false
	}
	s := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.restore(s)
	return s.label, true
}

// Warn records a non-fatal message.
func (m *Mesh) Warn(msg string) {
	m.warnings = append(m.warnings, msg)
}

func (m *Mesh) capture(label string) snapshot {
	s := snapshot{
		label:     label,
		verts:     make(map[mesh.VertexID]v3.Vec, len(m.verts)),
		faces:     make(map[mesh.FaceID][]mesh.VertexID, len(m.faces)),
		edges:     make(map[edgeKey]mesh.EdgeID, len(m.edges)),
		edgeEnds:  make(map[mesh.EdgeID][2]mesh.VertexID, len(m.edgeEnds)),
		edgeFaces: make(map[mesh.EdgeID][]mesh.FaceID, len(m.edgeFaces)),
		nextVert:  m.nextVert,
		nextEdge:  m.nextEdge,
		nextFace:  m.nextFace,
	}
	for k, v := range m.verts {
		s.verts[k] = v
	}
	for k, v := range m.faces {
		s.faces[k] = append([]mesh.VertexID(nil), v...)
	}
	for k, v := range m.edges {
		s.edges[k] = v
	}
	for k, v := range m.edgeEnds {
		s.edgeEnds[k] = v
	}
	for k, v := range m.edgeFaces {
		s.edgeFaces[k] = append([]mesh.FaceID(nil), v...)
	}
	return s
}

func (m *Mesh) restore(s snapshot) {
	m.verts = s.verts
	m.faces = s.faces
	m.edges = s.edges
	m.edgeEnds = s.edgeEnds
	m.edgeFaces = s.edgeFaces
	m.nextVert = s.nextVert
	m.nextEdge = s.nextEdge
	m.nextFace = s.nextFace
}

// ---------------------------------------------------------------------------
// mesh.Editor
// ---------------------------------------------------------------------------

// SelectedVertices returns the current vertex selection.
func (m *Mesh) SelectedVertices() []mesh.VertexID {
	return append([]mesh.VertexID(nil), m.selVerts...)
}

// SelectEdges replaces the edge selection.
func (m *Mesh) SelectEdges(edges []mesh.EdgeID) {
	m.selEdges = append([]mesh.EdgeID(nil), edges...)
}

// SelectVertices replaces the vertex selection.
func (m *Mesh) SelectVertices(verts []mesh.VertexID) {
	m.selVerts = append([]mesh.VertexID(nil), verts...)
}

// VertexFaces returns the faces containing v, in ascending order.
func (m *Mesh) VertexFaces(v mesh.VertexID) ([]mesh.FaceID, error) {
	if _, ok := m.verts[v]; !ok {
		return nil, fmt.Errorf("unknown vertex %d", v)
	}
	var out []mesh.FaceID
	for id, verts := range m.faces {
		for _, fv := range verts {
			if fv == v {
				out = append(out, id)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// ShellFaces returns every face reachable from seed through shared edges.
func (m *Mesh) ShellFaces(seed mesh.FaceID) ([]mesh.FaceID, error) {
	if _, ok := m.faces[seed]; !ok {
		return nil, fmt.Errorf("unknown face %d", seed)
	}
	visited := map[mesh.FaceID]bool{seed: true}
	queue := []mesh.FaceID{seed}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		verts := m.faces[f]
		for i := range verts {
			e := m.edges[makeEdgeKey(verts[i], verts[(i+1)%len(verts)])]
			for _, nb := range m.edgeFaces[e] {
				if !visited[nb] {
					visited[nb] = true
					queue = append(queue, nb)
				}
			}
		}
	}
	shell := make([]mesh.FaceID, 0, len(visited))
	for f := range visited {
		shell = append(shell, f)
	}
	sort.Slice(shell, func(i, j int) bool { return shell[i] < shell[j] })
	return shell, nil
}

// BorderEdges returns the boundary edges of a face set: edges incident
// to exactly one face overall, that face belonging to the set.
func (m *Mesh) BorderEdges(faces []mesh.FaceID) ([]mesh.EdgeID, error) {
	inSet := make(map[mesh.FaceID]bool, len(faces))
	for _, f := range faces {
		if _, ok := m.faces[f]; !ok {
			return nil, fmt.Errorf("unknown face %d", f)
		}
		inSet[f] = true
	}
	var border []mesh.EdgeID
	seen := make(map[mesh.EdgeID]bool)
	for _, f := range faces {
		verts := m.faces[f]
		for i := range verts {
			e := m.edges[makeEdgeKey(verts[i], verts[(i+1)%len(verts)])]
			if seen[e] {
				continue
			}
			seen[e] = true
			if len(m.edgeFaces[e]) == 1 && inSet[m.edgeFaces[e][0]] {
				border = append(border, e)
			}
		}
	}
	sort.Slice(border, func(i, j int) bool { return border[i] < border[j] })
	return border, nil
}

// BorderLoop walks the boundary-edge border containing e. The border
// is the connected run of boundary edges sharing endpoints with e.
func (m *Mesh) BorderLoop(e mesh.EdgeID) ([]mesh.EdgeID, error) {
	if _, ok := m.edgeEnds[e]; !ok {
		return nil, fmt.Errorf("unknown edge %d", e)
	}
	if len(m.edgeFaces[e]) != 1 {
		return nil, fmt.Errorf("edge %d is not a boundary edge", e)
	}

	// Boundary edges per vertex.
	byVert := make(map[mesh.VertexID][]mesh.EdgeID)
	for id, faces := range m.edgeFaces {
		if len(faces) != 1 {
			continue
		}
		ends := m.edgeEnds[id]
		byVert[ends[0]] = append(byVert[ends[0]], id)
		byVert[ends[1]] = append(byVert[ends[1]], id)
	}

	visited := map[mesh.EdgeID]bool{e: true}
	loop := []mesh.EdgeID{e}
	queue := []mesh.EdgeID{e}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		ends := m.edgeEnds[cur]
		for _, v := range ends {
			for _, nb := range byVert[v] {
				if !visited[nb] {
					visited[nb] = true
					loop = append(loop, nb)
					queue = append(queue, nb)
				}
			}
		}
	}
	sort.Slice(loop, func(i, j int) bool { return loop[i] < loop[j] })
	return loop, nil
}

// DuplicateFaces copies faces with fresh vertices, applying m44 to
// each copied vertex. Winding is preserved.
func (m *Mesh) DuplicateFaces(faces []mesh.FaceID, m44 sdf.M44) ([]mesh.FaceID, error) {
	remap := make(map[mesh.VertexID]mesh.VertexID)
	var created []mesh.FaceID
	for _, f := range faces {
		verts, ok := m.faces[f]
		if !ok {
			return nil, fmt.Errorf("unknown face %d", f)
		}
		copied := make([]mesh.VertexID, len(verts))
		for i, v := range verts {
			nv, ok := remap[v]
			if !ok {
				nv = m.AddVertex(m44.MulPosition(m.verts[v]))
				remap[v] = nv
			}
			copied[i] = nv
		}
		nf, err := m.AddFace(copied)
		if err != nil {
			return nil, err
		}
		created = append(created, nf)
	}
	return created, nil
}

// TransformFaces applies m44 to the vertices of faces in place.
func (m *Mesh) TransformFaces(faces []mesh.FaceID, m44 sdf.M44) error {
	moved := make(map[mesh.VertexID]bool)
	for _, f := range faces {
		verts, ok := m.faces[f]
		if !ok {
			return fmt.Errorf("unknown face %d", f)
		}
		for _, v := range verts {
			if !moved[v] {
				moved[v] = true
				m.verts[v] = m44.MulPosition(m.verts[v])
			}
		}
	}
	return nil
}

// MergeVertices welds vertices closer than tol into one, rewriting
// faces and rebuilding edge incidence. Returns the number of welds.
func (m *Mesh) MergeVertices(tol float64) (int, error) {
	ids := make([]mesh.VertexID, 0, len(m.verts))
	for id := range m.verts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	// Map each vertex to the lowest-id vertex within tol.
	rep := make(map[mesh.VertexID]mesh.VertexID, len(ids))
	for _, id := range ids {
		rep[id] = id
	}
	welds := 0
	for i := 0; i < len(ids); i++ {
		a := ids[i]
		if rep[a] != a {
			continue
		}
		for j := i + 1; j < len(ids); j++ {
			b := ids[j]
			if rep[b] != b {
				continue
			}
			if m.verts[a].Sub(m.verts[b]).Length() <= tol {
				rep[b] = a
				welds++
			}
		}
	}
	if welds == 0 {
		return 0, nil
	}

	// Rewrite faces, dropping repeated consecutive vertices.
	oldFaces := m.faces
	m.faces = make(map[mesh.FaceID][]mesh.VertexID, len(oldFaces))
	m.edges = make(map[edgeKey]mesh.EdgeID)
	m.edgeEnds = make(map[mesh.EdgeID][2]mesh.VertexID)
	m.edgeFaces = make(map[mesh.EdgeID][]mesh.FaceID)
	for id, verts := range oldFaces {
		rewritten := make([]mesh.VertexID, 0, len(verts))
		for _, v := range verts {
			r := rep[v]
			if len(rewritten) > 0 && rewritten[len(rewritten)-1] == r {
				continue
			}
			rewritten = append(rewritten, r)
		}
		if len(rewritten) > 1 && rewritten[0] == rewritten[len(rewritten)-1] {
			rewritten = rewritten[:len(rewritten)-1]
		}
		if len(rewritten) < 3 {
			continue // face collapsed by the weld
		}
		m.faces[id] = rewritten
		for i := range rewritten {
			e := m.ensureEdge(rewritten[i], rewritten[(i+1)%len(rewritten)])
			m.edgeFaces[e] = append(m.edgeFaces[e], id)
		}
	}

	// Drop orphaned vertices.
	for id, r := range rep {
		if id != r {
			delete(m.verts, id)
		}
	}
	m.selEdges = nil
	m.selVerts = nil
	return welds, nil
}

// Bounds returns the axis-aligned bounding box of a face set.
func (m *Mesh) Bounds(faces []mesh.FaceID) (sdf.Box3, error) {
	if len(faces) == 0 {
		return sdf.Box3{}, fmt.Errorf("empty face set")
	}
	first := true
	var box sdf.Box3
	for _, f := range faces {
		verts, ok := m.faces[f]
		if !ok {
			return sdf.Box3{}, fmt.Errorf("unknown face %d", f)
		}
		for _, v := range verts {
			p := m.verts[v]
			if first {
				box = sdf.Box3{Min: p, Max: p}
				first = false
			} else {
				box = box.Include(p)
			}
		}
	}
	return box, nil
}
