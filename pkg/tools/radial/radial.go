// Package radial duplicates a mesh shell around a pivot point so the
// copies form a closed ring, like fence segments around a post.
package radial

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/loft/pkg/mesh"
)

// MergeTolerance is the weld distance applied when Params.Merge is set.
const MergeTolerance = 0.01

// Axis names a world axis.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
	AxisZ Axis = "z"
)

// Params configures a radial duplication. Axis is the rotation axis,
// CentreDir the signed axis the pivot moves along ("+x", "-z", ...),
// Amount the total number of copies including the original.
type Params struct {
	Amount    int
	Axis      Axis
	CentreDir string
	Merge     bool
}

// Result reports what the tool created.
type Result struct {
	Shells [][]mesh.FaceID // the original shell first, then each copy
	Welds  int
}

func (p Params) validate() error {
	if p.Amount < 3 {
		return fmt.Errorf("amount must be 3 or larger, got %d", p.Amount)
	}
	switch p.Axis {
	case AxisX, AxisY, AxisZ:
	default:
		return fmt.Errorf("unknown axis %q", p.Axis)
	}
	if len(p.CentreDir) != 2 ||
		(p.CentreDir[0] != '+' && p.CentreDir[0] != '-') ||
		(p.CentreDir[1] != 'x' && p.CentreDir[1] != 'y' && p.CentreDir[1] != 'z') {
		return fmt.Errorf("centre direction must be +/- followed by an axis, got %q", p.CentreDir)
	}
	return nil
}

// Duplicate rings the shell under the two selected vertices around a
// computed pivot. The vertices must sit on opposite ends of the shell
// along the axis that is neither the rotation axis nor the centre
// direction; their distance sets the ring's segment length.
func Duplicate(ed mesh.Editor, p Params) (*Result, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	sel := ed.SelectedVertices()
	if len(sel) != 2 {
		return nil, fmt.Errorf("two vertices must be selected, got %d", len(sel))
	}
	p1, err := ed.VertexPosition(sel[0])
	if err != nil {
		return nil, err
	}
	p2, err := ed.VertexPosition(sel[1])
	if err != nil {
		return nil, err
	}

	shell, err := sharedShell(ed, sel[0], sel[1])
	if err != nil {
		return nil, err
	}

	length := axisComponent(lengthAxis(p), p2.Sub(p1))
	pivot := pivotPoint(p, p1, p2, math.Abs(length))

	rot := 2 * math.Pi / float64(p.Amount)
	about := func(angle float64) sdf.M44 {
		var r sdf.M44
		switch p.Axis {
		case AxisX:
			r = sdf.RotateX(angle)
		case AxisY:
			r = sdf.RotateY(angle)
		default:
			r = sdf.RotateZ(angle)
		}
		return sdf.Translate3d(pivot).Mul(r).Mul(sdf.Translate3d(pivot.Neg()))
	}

	ed.BeginChange("duplicate around point")

	res := &Result{Shells: [][]mesh.FaceID{shell}}
	for k := 1; k < p.Amount; k++ {
		dup, err := ed.DuplicateFaces(shell, about(float64(k)*rot))
		if err != nil {
			ed.AbortChange()
			return nil, err
		}
		res.Shells = append(res.Shells, dup)
	}

	if p.Merge {
		res.Welds, err = ed.MergeVertices(MergeTolerance)
		if err != nil {
			ed.AbortChange()
			return nil, err
		}
	}
	ed.EndChange()
	return res, nil
}

// sharedShell returns the face shell both vertices belong to.
func sharedShell(ed mesh.Editor, a, b mesh.VertexID) ([]mesh.FaceID, error) {
	fa, err := ed.VertexFaces(a)
	if err != nil {
		return nil, err
	}
	if len(fa) == 0 {
		return nil, fmt.Errorf("vertex %d belongs to no face", a)
	}
	shell, err := ed.ShellFaces(fa[0])
	if err != nil {
		return nil, err
	}
	fb, err := ed.VertexFaces(b)
	if err != nil {
		return nil, err
	}
	inShell := make(map[mesh.FaceID]bool, len(shell))
	for _, f := range shell {
		inShell[f] = true
	}
	for _, f := range fb {
		if inShell[f] {
			return shell, nil
		}
	}
	return nil, fmt.Errorf("selected vertices lie on different shells")
}

// lengthAxis returns the axis that measures the shell's length: the
// first axis used neither for rotation nor as centre direction.
func lengthAxis(p Params) Axis {
	for _, a := range []Axis{AxisX, AxisY, AxisZ} {
		if a != p.Axis && byte(a[0]) != p.CentreDir[1] {
			return a
		}
	}
	return AxisX
}

// pivotPoint centres the pivot between the two vertices along the
// length axis, then backs it off along the centre direction far enough
// that Amount copies just touch. The offset comes from the interior
// angle of a regular Amount-gon.
func pivotPoint(p Params, p1, p2 v3.Vec, length float64) v3.Vec {
	pivot := v3.Vec{
		X: math.Min(p1.X, p2.X),
		Y: math.Min(p1.Y, p2.Y),
		Z: math.Min(p1.Z, p2.Z),
	}
	mid := p1.Add(p2).DivScalar(2)
	switch lengthAxis(p) {
	case AxisX:
		pivot.X = mid.X
	case AxisY:
		pivot.Y = mid.Y
	case AxisZ:
		pivot.Z = mid.Z
	}

	interior := (float64(p.Amount-2) * math.Pi / float64(p.Amount)) / 2
	dist := math.Tan(interior) * (length / 2)
	if p.CentreDir[0] == '-' {
		dist = -dist
	}
	switch p.CentreDir[1] {
	case 'x':
		pivot.X += dist
	case 'y':
		pivot.Y += dist
	default:
		pivot.Z += dist
	}
	return pivot
}

// axisComponent extracts one component of a vector.
func axisComponent(a Axis, v v3.Vec) float64 {
	switch a {
	case AxisX:
		return v.X
	case AxisY:
		return v.Y
	default:
		return v.Z
	}
}
