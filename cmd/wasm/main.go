//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/interlock/interlock/backend-go/internal/game"
	"github.com/interlock/interlock/backend-go/internal/geom"
	"github.com/interlock/interlock/backend-go/internal/state"
	"github.com/interlock/interlock/backend-go/internal/table"
)

var (
	eng  *game.Engine
	meta state.Puzzle
)

func main() {
	eng = game.NewEngine()

	// Create the engine API object
	interlockEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	interlockEngine.Set("newPuzzle", js.FuncOf(newPuzzle))
	interlockEngine.Set("loadSnapshot", js.FuncOf(loadSnapshot))
	interlockEngine.Set("loadSampleSnapshot", js.FuncOf(loadSampleSnapshot))
	interlockEngine.Set("dragMove", js.FuncOf(dragMove))
	interlockEngine.Set("dragEnd", js.FuncOf(dragEnd))
	interlockEngine.Set("setPiecePosition", js.FuncOf(setPiecePosition))
	interlockEngine.Set("setPieceRotation", js.FuncOf(setPieceRotation))
	interlockEngine.Set("setPieceScale", js.FuncOf(setPieceScale))
	interlockEngine.Set("placePieceCenter", js.FuncOf(placePieceCenter))
	interlockEngine.Set("bringToFront", js.FuncOf(bringToFront))
	interlockEngine.Set("detach", js.FuncOf(detach))
	interlockEngine.Set("subscribe", js.FuncOf(subscribe))

	// --- Queries (frontend ← engine) ---
	interlockEngine.Set("saveSnapshot", js.FuncOf(saveSnapshot))
	interlockEngine.Set("getPieces", js.FuncOf(getPieces))
	interlockEngine.Set("getTransform", js.FuncOf(getTransform))
	interlockEngine.Set("getWorldData", js.FuncOf(getWorldData))
	interlockEngine.Set("getGroups", js.FuncOf(getGroups))
	interlockEngine.Set("getZOrder", js.FuncOf(getZOrder))
	interlockEngine.Set("getPieceCount", js.FuncOf(getPieceCount))
	interlockEngine.Set("isSolved", js.FuncOf(isSolved))

	// Register on global scope
	js.Global().Set("interlockEngine", interlockEngine)

	// Signal that WASM is ready
	js.Global().Set("interlockWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// --- Command Handlers ---

func newPuzzle(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return js.ValueOf(map[string]interface{}{"error": "expected width, height, target, seed"})
	}

	width := args[0].Float()
	height := args[1].Float()
	target := args[2].Int()
	// Seeds arrive as a decimal string since JS numbers lose 64-bit
	// precision.
	var seed uint64
	if err := json.Unmarshal([]byte(args[3].String()), &seed); err != nil {
		return js.ValueOf(map[string]interface{}{"error": "invalid seed"})
	}

	gen := eng.NewPuzzle(width, height, target, seed)
	meta = state.Puzzle{Width: width, Height: height, Target: target, Seed: seed}

	out, err := json.Marshal(gen)
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(string(out))
}

func loadSnapshot(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing snapshot JSON"})
	}

	doc, err := state.Unmarshal([]byte(args[0].String()))
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	if err := state.Restore(eng, doc); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	meta = doc.Puzzle

	return js.ValueOf(map[string]interface{}{"ok": true})
}

func loadSampleSnapshot(this js.Value, args []js.Value) interface{} {
	puzzleID := "pz_sample"
	if len(args) > 0 && args[0].Type() == js.TypeString {
		puzzleID = args[0].String()
	}

	doc := state.NewSampleDocument(puzzleID)
	if err := state.Restore(eng, doc); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	meta = doc.Puzzle

	return js.ValueOf(map[string]interface{}{"ok": true})
}

func dragMove(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	eng.DragMove(args[0].String(), geom.Pt(args[1].Float(), args[2].Float()))
	return nil
}

func dragEnd(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	eng.DragEnd(args[0].String(), geom.Pt(args[1].Float(), args[2].Float()))
	return nil
}

func setPiecePosition(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	eng.Table().SetPiecePosition(args[0].String(), geom.Pt(args[1].Float(), args[2].Float()))
	return nil
}

func setPieceRotation(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.Table().SetPieceRotation(args[0].String(), args[1].Float())
	return nil
}

func setPieceScale(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.Table().SetPieceScale(args[0].String(), args[1].Float())
	return nil
}

func placePieceCenter(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}

	var elem *table.ElemSize
	if len(args) >= 5 {
		elem = &table.ElemSize{Width: args[3].Float(), Height: args[4].Float()}
	}
	eng.Table().PlacePieceCenter(args[0].String(), geom.Pt(args[1].Float(), args[2].Float()), elem)
	return nil
}

func bringToFront(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.Table().BringToFront(args[0].String())
	return nil
}

func detach(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.Detach(args[0].String())
	return nil
}

func subscribe(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeFunction {
		return js.ValueOf(map[string]interface{}{"error": "expected callback"})
	}

	cb := args[0]
	eng.Subscribe(func(ev game.Event) {
		data, err := json.Marshal(ev)
		if err != nil {
			return
		}
		cb.Invoke(string(data))
	})
	return js.ValueOf(map[string]interface{}{"ok": true})
}

// --- Query Handlers ---

func saveSnapshot(this js.Value, args []js.Value) interface{} {
	doc := state.Capture(eng, meta)
	out, err := state.Marshal(doc)
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(string(out))
}

func getPieces(this js.Value, args []js.Value) interface{} {
	ids := eng.Table().PieceIDs()
	out, _ := json.Marshal(ids)
	return js.ValueOf(string(out))
}

func getTransform(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("{}")
	}
	tf, ok := eng.Table().Transform(args[0].String())
	if !ok {
		return js.ValueOf("{}")
	}
	out, _ := json.Marshal(tf)
	return js.ValueOf(string(out))
}

func getWorldData(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("{}")
	}
	wd := eng.Table().WorldData(eng.Table().Piece(args[0].String()))
	out, _ := json.Marshal(wd)
	return js.ValueOf(string(out))
}

func getGroups(this js.Value, args []js.Value) interface{} {
	out, _ := json.Marshal(eng.Groups().Groups())
	return js.ValueOf(string(out))
}

func getZOrder(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(0.0)
	}
	return js.ValueOf(eng.Table().ZOrder(args[0].String()))
}

func getPieceCount(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.PieceCount())
}

func isSolved(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Solved())
}
