package bridge

import (
	"fmt"
	"math"
)

// NearestSolver assigns each dense vertex to its nearest sparse
// counterpart along normalized arc length, anchored at the mutually
// closest vertex pair, then repairs the raw assignment until it is
// monotone and covers every sparse vertex.
type NearestSolver struct{}

func (NearestSolver) Solve(dense, sparse *Loop) (*Correspondence, error) {
	m, n := dense.Len(), sparse.Len()
	if m < n {
		return nil, fmt.Errorf("dense border has %d vertices, fewer than the sparse border's %d", m, n)
	}

	if dense.Closed && sparse.Closed {
		di, sj := closestPair(dense, sparse)
		dense.RotateTo(di)
		sparse.RotateTo(sj)
	}

	pd := dense.Params()
	ps := sparse.Params()

	// Unwrapped sparse index space: index n is vertex 0 reached by
	// going all the way around, parameter 1.0. Open chains never wrap.
	maxIdx := n - 1
	if sparse.Closed && dense.Closed {
		maxIdx = n
	}
	sparam := func(j int) float64 {
		if j == n {
			return 1.0
		}
		return ps[j]
	}

	match := make([]int, m)
	for i := 0; i < m; i++ {
		best, bestD := 0, math.Inf(1)
		for j := 0; j <= maxIdx; j++ {
			d := math.Abs(pd[i] - sparam(j))
			if d < bestD {
				best, bestD = j, d
			}
		}
		match[i] = best
	}

	// The anchor pair is authoritative.
	match[0] = 0
	for i := 1; i < m; i++ {
		if match[i] < match[i-1] {
			match[i] = match[i-1]
		}
	}

	c := &Correspondence{Dense: dense, Sparse: sparse, Match: match}

	// Parameter distance wraps at 1.0 when both borders are cycles.
	dist := func(a, b float64) float64 { return math.Abs(a - b) }
	if dense.Closed && sparse.Closed {
		dist = circDist
	}

	// A sparse vertex the raw match skipped steals its closest dense
	// vertex; the sweep restores monotonicity around the theft. The
	// loop is bounded because each pass fixes at least one vertex.
	for pass := 0; pass < n && !c.Surjective(); pass++ {
		r := starvedVertex(match, n)
		best, bestD := -1, math.Inf(1)
		for i := 1; i < m; i++ {
			d := dist(pd[i], ps[r])
			if d < bestD {
				best, bestD = i, d
			}
		}
		match[best] = r
		for k := best + 1; k < m; k++ {
			if match[k] < match[k-1] {
				match[k] = match[k-1]
			}
		}
		for k := best - 1; k >= 1; k-- {
			if match[k] > match[k+1] {
				match[k] = match[k+1]
			}
		}
	}
	if !c.Surjective() {
		return nil, fmt.Errorf("could not distribute %d dense vertices across %d sparse vertices", m, n)
	}
	return c, nil
}

// closestPair returns the index pair (dense, sparse) of the mutually
// closest vertices between the two loops.
func closestPair(dense, sparse *Loop) (int, int) {
	bi, bj, bd := 0, 0, math.Inf(1)
	for i, dp := range dense.Pos {
		for j, sp := range sparse.Pos {
			d := dp.Sub(sp).Length2()
			if d < bd {
				bi, bj, bd = i, j, d
			}
		}
	}
	return bi, bj
}

// starvedVertex returns the lowest sparse vertex index that no dense
// vertex maps to. Match values are unwrapped, so index n counts as 0.
func starvedVertex(match []int, n int) int {
	hit := make([]bool, n)
	for _, j := range match {
		hit[j%n] = true
	}
	for r, ok := range hit {
		if !ok {
			return r
		}
	}
	return -1
}
