// Package mesh defines the abstract host-mesh interface.
// The bridging engine and the tool layer never talk to a concrete mesh
// directly; they operate through the Host and Editor capabilities so
// the same code runs against the in-memory backend (memory) and can be
// tested without a host application.
package mesh

// VertexID is a stable handle to a vertex owned by the host mesh.
type VertexID int

// EdgeID is a stable handle to an edge owned by the host mesh.
type EdgeID int

// FaceID is a stable handle to a face owned by the host mesh.
type FaceID int
