package mesh

import (
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Host is the minimal mesh-access capability the bridging engine needs.
// Implementations (memory, a DCC bridge) provide selection queries,
// position lookups, face creation and undo chunking behind this
// interface.
//
// All mutating calls between BeginChange and EndChange belong to one
// undoable chunk; a single host undo reverts the whole chunk.
type Host interface {
	// SelectedEdges returns the current edge selection in host order.
	// The order is not guaranteed stable between invocations.
	SelectedEdges() []EdgeID

	// EdgeVerts returns the two endpoint vertices of an edge.
	EdgeVerts(e EdgeID) (VertexID, VertexID, error)

	// VertexPosition returns the world-space position of a vertex.
	VertexPosition(v VertexID) (v3.Vec, error)

	// EdgeFaces returns the faces incident to an edge. A boundary
	// edge has exactly one incident face.
	EdgeFaces(e EdgeID) ([]FaceID, error)

	// FaceVerts returns a face's vertices in winding order.
	FaceVerts(f FaceID) ([]VertexID, error)

	// CreateFace creates a face from ordered vertex handles.
	CreateFace(verts []VertexID) (FaceID, error)

	// Quadrangulate fills a simple polygon boundary with quad and
	// triangle faces using the host's own tessellation operator.
	Quadrangulate(boundary []VertexID) ([]FaceID, error)

	// BeginChange opens an undoable chunk with a user-visible label.
	// Nested chunks join the outermost one.
	BeginChange(label string)

	// EndChange closes the current undoable chunk.
	EndChange()

	// AbortChange rolls the mesh back to the state at the current
	// chunk's outermost BeginChange and discards the chunk, so a
	// failed tool leaves no partial mutation behind.
	AbortChange()

	// Warn reports a non-fatal condition on the host's user-facing
	// warning channel.
	Warn(msg string)
}

// Editor extends Host with the primitives the tool layer uses:
// shell traversal, duplication, transforms and selection rewriting.
type Editor interface {
	Host

	// SelectedVertices returns the current vertex selection.
	SelectedVertices() []VertexID

	// VertexFaces returns the faces a vertex belongs to.
	VertexFaces(v VertexID) ([]FaceID, error)

	// ShellFaces returns every face connected to seed through shared
	// edges (the face shell).
	ShellFaces(seed FaceID) ([]FaceID, error)

	// BorderEdges returns the boundary edges of a set of faces: edges
	// incident to exactly one face of the set and to no face outside it.
	BorderEdges(faces []FaceID) ([]EdgeID, error)

	// BorderLoop walks the full edge border containing e.
	BorderLoop(e EdgeID) ([]EdgeID, error)

	// DuplicateFaces copies faces (with fresh vertices) and applies
	// the transform to the copies. Returns the new faces.
	DuplicateFaces(faces []FaceID, m sdf.M44) ([]FaceID, error)

	// TransformFaces applies the transform to the vertices of faces
	// in place.
	TransformFaces(faces []FaceID, m sdf.M44) error

	// MergeVertices welds vertices closer than tol, returning the
	// number of welds performed.
	MergeVertices(tol float64) (int, error)

	// SelectEdges replaces the current edge selection.
	SelectEdges(edges []EdgeID)

	// Bounds returns the axis-aligned bounding box of a set of faces.
	Bounds(faces []FaceID) (sdf.Box3, error)
}
