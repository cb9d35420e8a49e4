// Package windows duplicates a window shell across an evenly spaced
// grid inside a wall, optionally welding the copies together and
// bridging the result into the wall's border.
package windows

import (
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/loft/pkg/bridge"
	"github.com/chazu/loft/pkg/mesh"
)

// Params configures a window grid. Rows count windows along Y, Cols
// along the wall's horizontal extent.
type Params struct {
	Rows    int
	Cols    int
	Connect bool
}

// Result reports what the tool created.
type Result struct {
	Shells   [][]mesh.FaceID // one face list per placed window, the original first
	Bridged  []mesh.FaceID   // faces created by connecting and bridging
	Warnings []string
}

// FitError reports that the requested grid cannot fit inside the wall.
type FitError struct {
	Rows, Cols int
}

func (e FitError) Error() string {
	return fmt.Sprintf("a %dx%d window grid does not fit inside the wall", e.Rows, e.Cols)
}

// Create builds the window grid from the current selection: two edge
// borders on one mesh, the smaller one around a window shell sitting
// inside the wall.
func Create(ed mesh.Editor, p Params) (res *Result, err error) {
	if p.Rows < 1 || p.Cols < 1 {
		return nil, fmt.Errorf("grid needs at least 1 row and 1 column, got %dx%d", p.Rows, p.Cols)
	}

	loops, err := bridge.ExtractLoops(ed, ed.SelectedEdges())
	if err != nil {
		return nil, err
	}
	if len(loops) != 2 {
		return nil, bridge.LoopCountError{Count: len(loops)}
	}
	window, wall := loops[0], loops[1]
	if boxMeasure(wall.Bounds()) < boxMeasure(window.Bounds()) {
		window, wall = wall, window
	}

	wallBox := wall.Bounds()
	winBox := window.Bounds()
	if err := checkFit(p, winBox, wallBox); err != nil {
		return nil, err
	}

	shell, err := shellOfLoop(ed, window)
	if err != nil {
		return nil, err
	}
	wallEdges := append([]mesh.EdgeID(nil), wall.Edges...)

	cell := v3.Vec{
		X: wallBox.Size().X / float64(p.Cols),
		Y: wallBox.Size().Y / float64(p.Rows),
		Z: wallBox.Size().Z / float64(p.Cols),
	}

	ed.BeginChange("create windows")
	defer func() {
		if err != nil {
			ed.AbortChange()
		} else {
			ed.EndChange()
		}
	}()

	// Park the window in the first grid cell: wall corner plus half a
	// cell, measured from the window's bbox centre.
	pivot := winBox.Center()
	start := wallBox.Min.Sub(pivot).Add(cell.DivScalar(2))
	if err := ed.TransformFaces(shell, sdf.Translate3d(start)); err != nil {
		return nil, err
	}

	res = &Result{Shells: [][]mesh.FaceID{shell}}
	mainBorder := append([]mesh.EdgeID(nil), window.Edges...)

	for row := 0; row < p.Rows; row++ {
		for col := 0; col < p.Cols; col++ {
			if row == 0 && col == 0 {
				continue
			}
			shift := v3.Vec{
				X: float64(col) * cell.X,
				Y: float64(row) * cell.Y,
				Z: float64(col) * cell.Z,
			}
			dup, err := ed.DuplicateFaces(shell, sdf.Translate3d(shift))
			if err != nil {
				return nil, err
			}
			res.Shells = append(res.Shells, dup)

			if p.Connect {
				mainBorder, err = connect(ed, res, mainBorder, dup)
				if err != nil {
					return nil, err
				}
			}
		}
	}

	if p.Connect {
		ed.SelectEdges(append(wallEdges, mainBorder...))
		br, err := bridge.Bridge(ed, bridge.Options{Optimize: true})
		if err != nil {
			return nil, err
		}
		res.Bridged = append(res.Bridged, br.Faces...)
		res.Warnings = append(res.Warnings, br.Warnings...)
	}
	return res, nil
}

// connect tacks a duplicated shell onto the growing window border with
// one quad and returns the merged border.
func connect(ed mesh.Editor, res *Result, mainBorder []mesh.EdgeID, dup []mesh.FaceID) ([]mesh.EdgeID, error) {
	dupBorder, err := ed.BorderEdges(dup)
	if err != nil {
		return nil, err
	}

	mainLoops, err := bridge.ExtractLoops(ed, mainBorder)
	if err != nil {
		return nil, err
	}
	dupLoops, err := bridge.ExtractLoops(ed, dupBorder)
	if err != nil {
		return nil, err
	}
	if len(mainLoops) != 1 || len(dupLoops) != 1 {
		return nil, fmt.Errorf("window borders fragmented while connecting")
	}

	weld, consumed, err := bridge.ConnectClosestEdges(ed, mainLoops[0], dupLoops[0])
	if err != nil {
		return nil, err
	}
	res.Bridged = append(res.Bridged, weld)

	// Any surviving border edge reaches the whole merged border.
	for _, e := range dupBorder {
		if e != consumed[0] && e != consumed[1] {
			return ed.BorderLoop(e)
		}
	}
	return nil, fmt.Errorf("no border edge survived the weld")
}

// checkFit verifies rows*cols copies of the window bbox fit in the
// wall bbox. Columns span both horizontal axes so walls may stand in
// any vertical plane.
func checkFit(p Params, win, wall sdf.Box3) error {
	need := v3.Vec{
		X: win.Size().X * float64(p.Cols),
		Y: win.Size().Y * float64(p.Rows),
		Z: win.Size().Z * float64(p.Cols),
	}
	have := wall.Size()
	if need.X > have.X || need.Y > have.Y || need.Z > have.Z {
		return FitError{Rows: p.Rows, Cols: p.Cols}
	}
	return nil
}

// shellOfLoop returns the connected faces behind a border loop.
func shellOfLoop(ed mesh.Editor, l *bridge.Loop) ([]mesh.FaceID, error) {
	if len(l.Edges) == 0 {
		return nil, fmt.Errorf("border loop carries no edges")
	}
	faces, err := ed.EdgeFaces(l.Edges[0])
	if err != nil {
		return nil, err
	}
	if len(faces) == 0 {
		return nil, fmt.Errorf("border edge %d has no adjacent face", l.Edges[0])
	}
	return ed.ShellFaces(faces[0])
}

// boxMeasure is a surface-area proxy used to tell the window border
// from the wall border.
func boxMeasure(b sdf.Box3) float64 {
	s := b.Size()
	return s.X*s.Y + s.Y*s.Z + s.Z*s.X
}
