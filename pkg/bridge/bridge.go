package bridge

import "github.com/chazu/loft/pkg/mesh"

// Options controls how the gap between the two borders is filled.
type Options struct {
	// Optimize delegates the bulk of the fill to the host's
	// quadrangulation after splicing the loops into one polygon.
	// The splice only yields a simple polygon for coplanar closed
	// pairs; other pairs fall back to nearest-counterpart matching,
	// which is also used when Optimize is false.
	Optimize bool
}

// Result reports the faces a bridge created and any non-fatal
// warnings raised along the way.
type Result struct {
	Faces    []mesh.FaceID
	Warnings []string
}

// Strategy fills the region between two oriented loops.
type Strategy interface {
	Fill(h mesh.Host, dense, sparse *Loop) ([]mesh.FaceID, []string, error)
}

// NearestStrategy computes an explicit dense-to-sparse correspondence
// and emits one quad or fan triangle per dense segment.
type NearestStrategy struct {
	Solver Solver
}

func (s NearestStrategy) Fill(h mesh.Host, dense, sparse *Loop) ([]mesh.FaceID, []string, error) {
	solver := s.Solver
	if solver == nil {
		solver = NearestSolver{}
	}
	c, err := solver.Solve(dense, sparse)
	if err != nil {
		return nil, nil, err
	}
	faces, err := planFaces(c)
	if err != nil {
		return nil, nil, err
	}
	return writeFaces(h, faces)
}

// Bridge fills the gap between the two edge borders in the host's
// current selection. All validation happens before the first write;
// the writes land in a single undo chunk.
func Bridge(h mesh.Host, opts Options) (*Result, error) {
	dense, sparse, err := ExtractPair(h)
	if err != nil {
		return nil, err
	}
	if err := checkContainment(dense, sparse); err != nil {
		return nil, err
	}
	if err := orientLoops(h, dense, sparse); err != nil {
		return nil, err
	}

	var strat Strategy = NearestStrategy{}
	if opts.Optimize && dense.Closed && sparse.Closed && coplanar(dense, sparse) {
		strat = DelegateStrategy{}
	}

	h.BeginChange("bridge borders")
	faces, warnings, err := strat.Fill(h, dense, sparse)
	if err != nil {
		h.AbortChange()
		return nil, err
	}
	h.EndChange()
	return &Result{Faces: faces, Warnings: warnings}, nil
}
