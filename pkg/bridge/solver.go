package bridge

// Correspondence maps every dense vertex to a sparse vertex. Match[i]
// is an unwrapped sparse index in [0, sparse.Len()]: the value
// sparse.Len() means sparse vertex 0 reached by wrapping, so Match is
// non-decreasing even across the seam of closed loops.
type Correspondence struct {
	Dense  *Loop
	Sparse *Loop
	Match  []int
}

// Solver computes the dense-to-sparse vertex assignment for a loop
// pair that has already been anchored and oriented.
type Solver interface {
	Solve(dense, sparse *Loop) (*Correspondence, error)
}

// Monotone reports whether the assignment never runs backwards and
// never skips a sparse vertex between consecutive dense vertices.
func (c *Correspondence) Monotone() bool {
	for i := 1; i < len(c.Match); i++ {
		d := c.Match[i] - c.Match[i-1]
		if d < 0 || d > 1 {
			return false
		}
	}
	return true
}

// Surjective reports whether every sparse vertex receives at least one
// dense vertex.
func (c *Correspondence) Surjective() bool {
	n := c.Sparse.Len()
	hit := make([]bool, n)
	for _, j := range c.Match {
		hit[j%n] = true
	}
	for _, ok := range hit {
		if !ok {
			return false
		}
	}
	return true
}
