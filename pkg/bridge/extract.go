package bridge

import (
	"sort"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/loft/pkg/mesh"
)

// ExtractLoops turns a set of selected boundary edges into ordered
// loops. Every selected vertex must have selected-edge degree 2 (cycle
// member) or 1 (chain endpoint); anything else is a malformed
// selection.
func ExtractLoops(h mesh.Host, edges []mesh.EdgeID) ([]*Loop, error) {
	if len(edges) == 0 {
		return nil, MalformedSelectionError{Reason: "no edges selected"}
	}

	type edgeEnds struct {
		a, b mesh.VertexID
	}
	ends := make(map[mesh.EdgeID]edgeEnds, len(edges))
	byVert := make(map[mesh.VertexID][]mesh.EdgeID)
	for _, e := range edges {
		a, b, err := h.EdgeVerts(e)
		if err != nil {
			return nil, err
		}
		if a == b {
			return nil, MalformedSelectionError{Reason: "selection contains a self-looping edge"}
		}
		if _, dup := ends[e]; dup {
			continue
		}
		ends[e] = edgeEnds{a: a, b: b}
		byVert[a] = append(byVert[a], e)
		byVert[b] = append(byVert[b], e)
	}

	for _, incident := range byVert {
		if len(incident) > 2 {
			return nil, MalformedSelectionError{Reason: "selection branches: a vertex touches more than two selected edges"}
		}
	}

	// Deterministic walk order regardless of host selection order.
	ordered := make([]mesh.EdgeID, 0, len(ends))
	for e := range ends {
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	visited := make(map[mesh.EdgeID]bool, len(ends))
	var loops []*Loop

	// walk follows the border starting from edge e leaving vertex
	// start, consuming edges until the border closes or dead-ends.
	walk := func(start mesh.VertexID, e mesh.EdgeID) *Loop {
		loop := &Loop{}
		cur := start
		curEdge := e
		for {
			visited[curEdge] = true
			loop.Verts = append(loop.Verts, cur)
			loop.Edges = append(loop.Edges, curEdge)
			ee := ends[curEdge]
			next := ee.a
			if next == cur {
				next = ee.b
			}
			// Find the unvisited selected edge continuing from next.
			var cont mesh.EdgeID
			found := false
			for _, cand := range byVert[next] {
				if cand != curEdge && !visited[cand] {
					cont = cand
					found = true
					break
				}
			}
			if !found {
				if next == start {
					loop.Closed = true
				} else {
					// Open chain: the final vertex carries no edge.
					loop.Verts = append(loop.Verts, next)
				}
				return loop
			}
			cur = next
			curEdge = cont
		}
	}

	// Chains first, starting from degree-1 endpoints.
	endpoints := make([]mesh.VertexID, 0)
	for v, incident := range byVert {
		if len(incident) == 1 {
			endpoints = append(endpoints, v)
		}
	}
	sort.Slice(endpoints, func(i, j int) bool { return endpoints[i] < endpoints[j] })
	for _, v := range endpoints {
		e := byVert[v][0]
		if !visited[e] {
			loops = append(loops, walk(v, e))
		}
	}

	// Remaining components are cycles.
	for _, e := range ordered {
		if !visited[e] {
			loops = append(loops, walk(ends[e].a, e))
		}
	}

	for _, l := range loops {
		if l.Closed && l.Len() < 3 {
			return nil, MalformedSelectionError{Reason: "closed border has fewer than 3 vertices"}
		}
		if !l.Closed && l.Len() < 2 {
			return nil, MalformedSelectionError{Reason: "open border has fewer than 2 vertices"}
		}
	}

	// Cache positions.
	for _, l := range loops {
		l.Pos = make([]v3.Vec, 0, len(l.Verts))
		for _, v := range l.Verts {
			p, err := h.VertexPosition(v)
			if err != nil {
				return nil, err
			}
			l.Pos = append(l.Pos, p)
		}
	}

	return loops, nil
}

// ExtractPair extracts exactly two loops from the current selection
// and returns them dense-first (more vertices first; ties keep the
// walk order).
func ExtractPair(h mesh.Host) (dense, sparse *Loop, err error) {
	loops, err := ExtractLoops(h, h.SelectedEdges())
	if err != nil {
		return nil, nil, err
	}
	if len(loops) != 2 {
		return nil, nil, LoopCountError{Count: len(loops)}
	}
	dense, sparse = loops[0], loops[1]
	if sparse.Len() > dense.Len() {
		dense, sparse = sparse, dense
	}
	return dense, sparse, nil
}
