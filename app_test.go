package main

import (
	"os"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/loft/pkg/mesh"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// addCap adds a square face to the app workspace, centred on the Y axis
// at the given height. flip reverses the winding so two caps can face
// away from each other like the ends of a tube.
func addCap(t *testing.T, app *App, y float64, flip bool) mesh.FaceID {
	t.Helper()
	pts := []v3.Vec{
		{X: -1, Y: y, Z: -1},
		{X: 1, Y: y, Z: -1},
		{X: 1, Y: y, Z: 1},
		{X: -1, Y: y, Z: 1},
	}
	if flip {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	verts := make([]mesh.VertexID, len(pts))
	for i, p := range pts {
		verts[i] = app.workspace.AddVertex(p)
	}
	f, err := app.workspace.AddFace(verts)
	if err != nil {
		t.Fatalf("AddFace: %v", err)
	}
	return f
}

// selectTubeCaps builds two opposite-facing caps and selects both their
// borders, the standard fixture for bridging.
func selectTubeCaps(t *testing.T, app *App) {
	t.Helper()
	bottom := addCap(t, app, 0, false)
	top := addCap(t, app, 2, true)
	border, err := app.workspace.BorderEdges([]mesh.FaceID{bottom, top})
	if err != nil {
		t.Fatalf("BorderEdges: %v", err)
	}
	app.workspace.SelectEdges(border)
}

// ---------------------------------------------------------------------------
// End-to-end tests: the same paths the Wails bindings take, without the
// Wails runtime.
// ---------------------------------------------------------------------------

func TestE2EBridgeScriptFile(t *testing.T) {
	app := NewApp()
	selectTubeCaps(t, app)

	source, err := os.ReadFile("examples/tube.loft")
	if err != nil {
		t.Fatalf("failed to read tube.loft: %v", err)
	}

	result := app.Evaluate(string(source))
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}
	if result.Created != 4 {
		t.Errorf("created = %d faces, want 4", result.Created)
	}
	// Two caps plus four walls.
	if len(result.Mesh.Faces) != 6 {
		t.Errorf("mesh has %d faces, want 6", len(result.Mesh.Faces))
	}
	if len(result.Mesh.Vertices) == 0 {
		t.Error("mesh snapshot has no vertices")
	}
}

func TestE2EEmptySource(t *testing.T) {
	app := NewApp()
	result := app.Evaluate("")

	if len(result.Errors) != 0 {
		t.Errorf("expected 0 errors for empty source, got %d", len(result.Errors))
	}
	if result.Created != 0 {
		t.Errorf("expected 0 created faces, got %d", result.Created)
	}
	// JSON must serialize empty collections as [] not null.
	if result.Errors == nil {
		t.Error("Errors should be a non-nil empty slice")
	}
	if result.Warnings == nil {
		t.Error("Warnings should be a non-nil empty slice")
	}
	if result.Mesh.Faces == nil || result.Mesh.Vertices == nil {
		t.Error("mesh snapshot slices should be non-nil")
	}
}

func TestE2ESyntaxError(t *testing.T) {
	app := NewApp()
	result := app.Evaluate("(bridge :optimize")

	if len(result.Errors) == 0 {
		t.Fatal("expected eval errors for unmatched parens")
	}
	if result.Errors[0].Message == "" {
		t.Error("syntax error should carry a message")
	}
	if result.Created != 0 {
		t.Errorf("expected 0 created faces on error, got %d", result.Created)
	}
}

func TestE2EToolErrorIsNonFatal(t *testing.T) {
	app := NewApp()

	// No selection, so the tool itself fails; this must surface as an
	// eval error, not a panic or empty result.
	result := app.Evaluate("(bridge)")
	if len(result.Errors) == 0 {
		t.Fatal("expected an eval error for bridging with no selection")
	}
}

func TestE2ERapidEvaluation(t *testing.T) {
	// Simulates editor debounce: rapid sequential evaluations mixing
	// valid, broken and empty sources. The engine must recover cleanly
	// between error and success states without panicking.
	app := NewApp()
	selectTubeCaps(t, app)

	sources := []string{
		`(+ 1 2)`,
		`(bridge :optimize`,
		``,
		`(unknown-tool 1 2)`,
		`;; just a comment`,
		`(bridge)`,
	}
	for i, source := range sources {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("iteration %d panicked on %q: %v", i, source, r)
				}
			}()
			_ = app.Evaluate(source)
		}()
	}
}

// ---------------------------------------------------------------------------
// Direct tool bindings
// ---------------------------------------------------------------------------

func TestBridgeBinding(t *testing.T) {
	app := NewApp()
	selectTubeCaps(t, app)

	result := app.Bridge(false)
	if len(result.Errors) != 0 {
		t.Fatalf("bridge errors: %v", result.Errors)
	}
	if result.Created != 4 {
		t.Errorf("created = %d, want 4", result.Created)
	}
	if len(result.Mesh.Faces) != 6 {
		t.Errorf("mesh has %d faces, want 6", len(result.Mesh.Faces))
	}
}

func TestUndoBinding(t *testing.T) {
	app := NewApp()
	selectTubeCaps(t, app)

	if result := app.Bridge(false); len(result.Errors) != 0 {
		t.Fatalf("bridge errors: %v", result.Errors)
	}
	if label := app.Undo(); label != "bridge borders" {
		t.Errorf("undo label = %q, want %q", label, "bridge borders")
	}
	if faces := len(app.Mesh().Faces); faces != 2 {
		t.Errorf("mesh has %d faces after undo, want 2", faces)
	}
	if label := app.Undo(); label != "" {
		t.Errorf("second undo returned %q, want empty", label)
	}
}

func TestSelectEdgesBinding(t *testing.T) {
	app := NewApp()
	addCap(t, app, 0, false)

	border, err := app.workspace.BorderEdges(app.workspace.Faces())
	if err != nil {
		t.Fatalf("BorderEdges: %v", err)
	}
	ids := make([]int, len(border))
	for i, e := range border {
		ids[i] = int(e)
	}
	app.SelectEdges(ids)
	if got := len(app.workspace.SelectedEdges()); got != len(border) {
		t.Errorf("selected %d edges, want %d", got, len(border))
	}
}

func TestResetBinding(t *testing.T) {
	app := NewApp()
	selectTubeCaps(t, app)

	app.Reset()
	if faces := len(app.Mesh().Faces); faces != 0 {
		t.Errorf("mesh has %d faces after reset, want 0", faces)
	}
	result := app.Evaluate("(+ 1 2)")
	if len(result.Errors) != 0 {
		t.Errorf("engine broken after reset: %v", result.Errors)
	}
}
