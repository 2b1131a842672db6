//go:build js && wasm

package main

import (
	"encoding/json"
	"log/slog"
	"syscall/js"

	"github.com/invitio/invitio/backend-go/internal/document"
	"github.com/invitio/invitio/backend-go/internal/editor"
	"github.com/invitio/invitio/backend-go/internal/interact"
	"github.com/invitio/invitio/backend-go/internal/share"
	"github.com/invitio/invitio/backend-go/internal/viewer"
)

var defaultWork = document.Size{Width: 1000, Height: 1000}

var (
	ctx *editor.Context
	vw  *viewer.Viewer

	imageDrag  *interact.ImageDrag
	handleDrag *interact.HandleDrag
	textDrag   *interact.TextDrag
	textIndex  int
)

func main() {
	ctx = editor.New(defaultWork, slog.Default())
	vw = viewer.New(slog.Default())

	api := js.Global().Get("Object").New()

	// --- Project lifecycle ---
	api.Set("loadProject", js.FuncOf(loadProject))
	api.Set("loadSampleProject", js.FuncOf(loadSampleProject))
	api.Set("getProject", js.FuncOf(getProject))
	api.Set("render", js.FuncOf(render))
	api.Set("resize", js.FuncOf(resize))

	// --- Slides ---
	api.Set("setActiveSlide", js.FuncOf(setActiveSlide))
	api.Set("addSlide", js.FuncOf(addSlide))
	api.Set("duplicateSlide", js.FuncOf(duplicateSlide))
	api.Set("deleteSlide", js.FuncOf(deleteSlide))
	api.Set("setSlideDuration", js.FuncOf(setSlideDuration))

	// --- Image ---
	api.Set("uploadImage", js.FuncOf(uploadImage))
	api.Set("attachBackendImage", js.FuncOf(attachBackendImage))
	api.Set("removeImage", js.FuncOf(removeImage))
	api.Set("setImageTimings", js.FuncOf(setImageTimings))
	api.Set("setImageFilter", js.FuncOf(setImageFilter))
	api.Set("applyFilterPreset", js.FuncOf(applyFilterPreset))

	// --- Text layers ---
	api.Set("addTextLayer", js.FuncOf(addTextLayer))
	api.Set("updateTextLayer", js.FuncOf(updateTextLayer))
	api.Set("removeTextLayer", js.FuncOf(removeTextLayer))

	// --- Gestures ---
	api.Set("beginImageDrag", js.FuncOf(beginImageDrag))
	api.Set("beginHandleDrag", js.FuncOf(beginHandleDrag))
	api.Set("beginTextDrag", js.FuncOf(beginTextDrag))
	api.Set("moveDrag", js.FuncOf(moveDrag))
	api.Set("endDrag", js.FuncOf(endDrag))

	// --- History / persistence ---
	api.Set("flushPending", js.FuncOf(flushPending))
	api.Set("undo", js.FuncOf(undo))
	api.Set("redo", js.FuncOf(redo))
	api.Set("canUndo", js.FuncOf(canUndo))
	api.Set("canRedo", js.FuncOf(canRedo))

	// --- Playback ---
	api.Set("togglePlay", js.FuncOf(togglePlay))
	api.Set("isPlaying", js.FuncOf(isPlaying))
	api.Set("tick", js.FuncOf(tick))

	// --- Invitation details ---
	api.Set("setRSVP", js.FuncOf(setRSVP))
	api.Set("setMapQuery", js.FuncOf(setMapQuery))

	// --- Share / viewer ---
	api.Set("getShareState", js.FuncOf(getShareState))
	api.Set("buildViewerUrl", js.FuncOf(buildViewerURL))
	api.Set("viewerPayloadFromUrl", js.FuncOf(viewerPayloadFromURL))
	api.Set("viewerLoad", js.FuncOf(viewerLoad))
	api.Set("viewerRender", js.FuncOf(viewerRender))
	api.Set("viewerResize", js.FuncOf(viewerResize))

	js.Global().Set("invitioEngine", api)
	js.Global().Set("invitioWasmReady", js.ValueOf(true))

	select {}
}

func ok() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func fail(msg string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": msg})
}

func toJSON(v interface{}) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return fail(err.Error())
	}
	return js.ValueOf(string(data))
}

// --- Project lifecycle ---

func loadProject(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing project JSON")
	}
	var p document.Project
	if err := json.Unmarshal([]byte(args[0].String()), &p); err != nil {
		return fail(err.Error())
	}
	ctx.LoadInitial(&p)
	return ok()
}

func loadSampleProject(this js.Value, args []js.Value) interface{} {
	ctx.LoadInitial(document.NewSampleProject(defaultWork))
	return ok()
}

func getProject(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(string(ctx.Snapshot()))
}

func render(this js.Value, args []js.Value) interface{} {
	return toJSON(ctx.Render())
}

func resize(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	ctx.Resize(document.Size{Width: args[0].Float(), Height: args[1].Float()})
	return toJSON(ctx.Render())
}

// --- Slides ---

func setActiveSlide(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	ctx.SetActiveIndex(args[0].Int())
	return toJSON(ctx.Render())
}

func addSlide(this js.Value, args []js.Value) interface{} {
	ctx.AddSlide()
	return toJSON(ctx.Render())
}

func duplicateSlide(this js.Value, args []js.Value) interface{} {
	ctx.DuplicateSlide()
	return toJSON(ctx.Render())
}

func deleteSlide(this js.Value, args []js.Value) interface{} {
	if err := ctx.DeleteSlide(); err != nil {
		return fail(err.Error())
	}
	return toJSON(ctx.Render())
}

func setSlideDuration(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	ctx.SetSlideDuration(args[0].Int())
	return nil
}

// --- Image ---

func uploadImage(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return fail("uploadImage(src, thumb, natW, natH)")
	}
	token := ctx.UploadImage(args[0].String(), args[1].String(), args[2].Int(), args[3].Int())
	return js.ValueOf(map[string]interface{}{"token": token})
}

func attachBackendImage(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return fail("attachBackendImage(token, id, url, thumbUrl)")
	}
	applied := ctx.AttachBackendImage(uint64(args[0].Float()), args[1].String(), args[2].String(), args[3].String())
	return js.ValueOf(map[string]interface{}{"applied": applied})
}

func removeImage(this js.Value, args []js.Value) interface{} {
	ctx.RemoveImage()
	return toJSON(ctx.Render())
}

func setImageTimings(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return nil
	}
	ctx.SetImageTimings(args[0].Int(), args[1].Int(), args[2].Int(), args[3].Int())
	return nil
}

func setImageFilter(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	var f document.FilterValues
	if err := json.Unmarshal([]byte(args[0].String()), &f); err != nil {
		return fail(err.Error())
	}
	ctx.SetImageFilter(f)
	return toJSON(ctx.Render())
}

func applyFilterPreset(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	if err := ctx.Engine().ApplyPreset(args[0].String()); err != nil {
		return fail(err.Error())
	}
	return toJSON(ctx.CommitInteraction())
}

// --- Text layers ---

func addTextLayer(this js.Value, args []js.Value) interface{} {
	text := ""
	if len(args) > 0 {
		text = args[0].String()
	}
	index := ctx.AddTextLayer(text)
	return js.ValueOf(map[string]interface{}{"index": index})
}

func updateTextLayer(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return fail("updateTextLayer(index, layerJSON)")
	}
	var layer document.TextLayer
	if err := json.Unmarshal([]byte(args[1].String()), &layer); err != nil {
		return fail(err.Error())
	}
	if !ctx.UpdateTextLayer(args[0].Int(), layer) {
		return fail("layer index out of range")
	}
	return toJSON(ctx.Render())
}

func removeTextLayer(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	if !ctx.RemoveTextLayer(args[0].Int()) {
		return fail("layer index out of range")
	}
	return toJSON(ctx.Render())
}

// --- Gestures ---

func beginImageDrag(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	clearDrags()
	imageDrag = interact.BeginImageDrag(ctx.Engine(), args[0].Float(), args[1].Float())
	return nil
}

func beginHandleDrag(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	clearDrags()
	role := interact.HandleRole(args[0].String())
	handleDrag = interact.BeginHandleDrag(ctx.Engine(), role, args[1].Float(), args[2].Float())
	return nil
}

func beginTextDrag(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	index := args[0].Int()
	p := ctx.BuildProject()
	slide := p.Slides[p.ActiveIndex]
	if index < 0 || index >= len(slide.Layers) {
		return fail("layer index out of range")
	}
	clearDrags()
	textIndex = index
	work := slide.WorkSize
	textDrag = interact.BeginTextDrag(work, slide.Layers[index], args[1].Float(), args[2].Float())
	return nil
}

func moveDrag(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	x, y := args[0].Float(), args[1].Float()
	shift := len(args) > 2 && args[2].Truthy()

	switch {
	case imageDrag != nil:
		imageDrag.Move(x, y)
		return toJSON(ctx.Render())
	case handleDrag != nil:
		handleDrag.Move(x, y, shift)
		return toJSON(ctx.Render())
	case textDrag != nil:
		left, top, guides := textDrag.Move(x, y)
		return js.ValueOf(map[string]interface{}{
			"left": left, "top": top,
			"snapX": guides.CenterX, "snapY": guides.CenterY,
		})
	}
	return nil
}

func endDrag(this js.Value, args []js.Value) interface{} {
	if textDrag != nil && len(args) >= 2 {
		left, top, _ := textDrag.Move(args[0].Float(), args[1].Float())
		p := ctx.BuildProject()
		layer := p.Slides[p.ActiveIndex].Layers[textIndex]
		layer.Left, layer.Top = left, top
		ctx.UpdateTextLayer(textIndex, layer)
		clearDrags()
		return toJSON(ctx.Render())
	}
	clearDrags()
	return toJSON(ctx.CommitInteraction())
}

func clearDrags() {
	imageDrag = nil
	handleDrag = nil
	textDrag = nil
}

// --- History / persistence ---

// flushPending forces debounced history and save work to land now; the page
// calls it from beforeunload so the last edits survive a close.
func flushPending(this js.Value, args []js.Value) interface{} {
	ctx.FlushPending()
	return ok()
}

func undo(this js.Value, args []js.Value) interface{} {
	if !ctx.Undo() {
		return js.ValueOf(false)
	}
	return toJSON(ctx.Render())
}

func redo(this js.Value, args []js.Value) interface{} {
	if !ctx.Redo() {
		return js.ValueOf(false)
	}
	return toJSON(ctx.Render())
}

func canUndo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(ctx.History().CanUndo())
}

func canRedo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(ctx.History().CanRedo())
}

// --- Playback ---

func togglePlay(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(ctx.TogglePlay())
}

func isPlaying(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(ctx.Player().Playing())
}

func tick(this js.Value, args []js.Value) interface{} {
	frame, playing := ctx.TickPlayback()
	if !playing {
		return js.ValueOf(false)
	}
	return toJSON(frame)
}

// --- Invitation details ---

func setRSVP(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	ctx.SetRSVP(document.RSVPChoice(args[0].String()))
	return nil
}

func setMapQuery(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	ctx.SetMapQuery(args[0].String())
	return nil
}

// --- Share / viewer ---

func getShareState(this js.Value, args []js.Value) interface{} {
	payload, err := share.EncodeState(ctx.BuildProject())
	if err != nil {
		return fail(err.Error())
	}
	return js.ValueOf(payload)
}

func buildViewerURL(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return fail("missing origin")
	}
	u, err := share.BuildViewerURL(args[0].String(), ctx.BuildProject(), slog.Default())
	if err != nil {
		return fail(err.Error())
	}
	return js.ValueOf(u)
}

func viewerPayloadFromURL(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.Null()
	}
	payload, ok := share.ViewerPayloadFromURL(args[0].String())
	if !ok {
		return js.Null()
	}
	return js.ValueOf(payload)
}

func viewerLoad(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return fail("viewerLoad(payload, availW, availH)")
	}
	if err := vw.LoadPayload(args[0].String(), args[1].Float(), args[2].Float()); err != nil {
		return fail(err.Error())
	}
	return toJSON(vw.RenderActive())
}

func viewerRender(this js.Value, args []js.Value) interface{} {
	return toJSON(vw.RenderActive())
}

func viewerResize(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	vw.Resize(args[0].Float(), args[1].Float())
	return toJSON(vw.RenderActive())
}
