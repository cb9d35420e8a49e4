package main

import (
	"context"
	"log"

	"github.com/chazu/loft/pkg/bridge"
	"github.com/chazu/loft/pkg/engine"
	"github.com/chazu/loft/pkg/mesh"
	"github.com/chazu/loft/pkg/mesh/memory"
	"github.com/chazu/loft/pkg/tools/radial"
	"github.com/chazu/loft/pkg/tools/windows"
)

// App is the Wails backend. It owns the workspace mesh and exposes the
// tools and the scripting engine to the frontend via bindings.
type App struct {
	ctx       context.Context
	workspace *memory.Mesh
	engine    *engine.Engine
}

// MeshData is the JSON-serializable mesh snapshot sent to the frontend:
// flat xyz triples plus per-face index lists into the vertex array.
type MeshData struct {
	Vertices []float64 `json:"vertices"`
	Faces    [][]int   `json:"faces"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// ToolResult is the full result of a tool or script invocation.
type ToolResult struct {
	Mesh     MeshData        `json:"mesh"`
	Created  int             `json:"created"`
	Welds    int             `json:"welds"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []string        `json:"warnings"`
}

// NewApp creates a new App over a fresh workspace.
func NewApp() *App {
	ws := memory.New()
	return &App{
		workspace: ws,
		engine:    engine.NewEngine(ws),
	}
}

// startup is called by Wails on app startup. The context is saved so
// runtime methods can be called later.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// Evaluate runs Lisp source against the workspace and returns the
// updated mesh plus errors. This is the primary binding called by the
// script editor.
func (a *App) Evaluate(source string) ToolResult {
	result := ToolResult{
		Errors:   []EvalErrorData{},
		Warnings: []string{},
	}

	res, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		result.Mesh = a.snapshot()
		return result
	}
	for _, e := range evalErrs {
		result.Errors = append(result.Errors, EvalErrorData{
			Line:    e.Line,
			Col:     e.Col,
			Message: e.Message,
		})
	}
	if res != nil {
		result.Created = len(res.Faces)
		result.Welds = res.Welds
		result.Warnings = append(result.Warnings, res.Warnings...)
	}
	result.Mesh = a.snapshot()
	return result
}

// Bridge fills the gap between the two selected edge borders.
func (a *App) Bridge(optimize bool) ToolResult {
	res, err := bridge.Bridge(a.workspace, bridge.Options{Optimize: optimize})
	return a.toolResult(len(facesOf(res)), warningsOf(res), 0, err)
}

// Windows duplicates the selected window border across a grid in the
// selected wall border.
func (a *App) Windows(rows, cols int, connect bool) ToolResult {
	res, err := windows.Create(a.workspace, windows.Params{Rows: rows, Cols: cols, Connect: connect})
	created, warnings := 0, []string(nil)
	if res != nil {
		for _, s := range res.Shells {
			created += len(s)
		}
		created += len(res.Bridged)
		warnings = res.Warnings
	}
	return a.toolResult(created, warnings, 0, err)
}

// DuplicateAround rings the shell under the two selected vertices
// around a computed pivot.
func (a *App) DuplicateAround(amount int, axis, centre string, merge bool) ToolResult {
	res, err := radial.Duplicate(a.workspace, radial.Params{
		Amount:    amount,
		Axis:      radial.Axis(axis),
		CentreDir: centre,
		Merge:     merge,
	})
	created, welds := 0, 0
	if res != nil {
		for _, s := range res.Shells {
			created += len(s)
		}
		welds = res.Welds
	}
	return a.toolResult(created, nil, welds, err)
}

// SelectEdges replaces the workspace edge selection.
func (a *App) SelectEdges(ids []int) {
	edges := make([]mesh.EdgeID, len(ids))
	for i, id := range ids {
		edges[i] = mesh.EdgeID(id)
	}
	a.workspace.SelectEdges(edges)
}

// SelectVertices replaces the workspace vertex selection.
func (a *App) SelectVertices(ids []int) {
	verts := make([]mesh.VertexID, len(ids))
	for i, id := range ids {
		verts[i] = mesh.VertexID(id)
	}
	a.workspace.SelectVertices(verts)
}

// Undo reverts the most recent tool invocation and returns its label.
func (a *App) Undo() string {
	label, ok := a.workspace.Undo()
	if !ok {
		return ""
	}
	return label
}

// Mesh returns the current workspace snapshot.
func (a *App) Mesh() MeshData {
	return a.snapshot()
}

// Reset discards the workspace.
func (a *App) Reset() {
	a.workspace = memory.New()
	a.engine = engine.NewEngine(a.workspace)
}

func (a *App) toolResult(created int, warnings []string, welds int, err error) ToolResult {
	result := ToolResult{
		Created:  created,
		Welds:    welds,
		Errors:   []EvalErrorData{},
		Warnings: append([]string{}, warnings...),
	}
	if err != nil {
		log.Printf("tool error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
	}
	result.Mesh = a.snapshot()
	return result
}

// snapshot flattens the workspace into the frontend mesh format.
func (a *App) snapshot() MeshData {
	data := MeshData{Vertices: []float64{}, Faces: [][]int{}}
	index := make(map[mesh.VertexID]int)

	for _, f := range a.workspace.Faces() {
		verts, err := a.workspace.FaceVerts(f)
		if err != nil {
			continue
		}
		face := make([]int, len(verts))
		for i, v := range verts {
			idx, ok := index[v]
			if !ok {
				pos, err := a.workspace.VertexPosition(v)
				if err != nil {
					continue
				}
				idx = len(index)
				index[v] = idx
				data.Vertices = append(data.Vertices, pos.X, pos.Y, pos.Z)
			}
			face[i] = idx
		}
		data.Faces = append(data.Faces, face)
	}
	return data
}

func facesOf(res *bridge.Result) []mesh.FaceID {
	if res == nil {
		return nil
	}
	return res.Faces
}

func warningsOf(res *bridge.Result) []string {
	if res == nil {
		return nil
	}
	return res.Warnings
}
