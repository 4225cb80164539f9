package tasks

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	crunchizeerrors "github.com/hristovelev/crunchize/internal/errors"
	"github.com/hristovelev/crunchize/internal/pathinfer"
	"github.com/hristovelev/crunchize/internal/task"
	"github.com/hristovelev/crunchize/internal/template"
)

func init() {
	task.Register("inscribe", func() task.Task { return &InscribeTask{} })
}

// InscribeTask renders slate and burn-in overlay images from a declarative
// layout: a list of groups, each anchored to a corner/edge of the canvas
// and laid out vertically or horizontally, containing text and image
// items. Text sources are resolved through the same {{ expr | filter }}
// grammar the engine uses for task args, against a per-frame context
// (frame, filename, basename, index, total, first_frame, last_frame).
//
// Text is rendered with a fixed bitmap face (golang.org/x/image/font/basicfont)
// rather than scalable TrueType outlines — see DESIGN.md for why no
// TrueType-capable library is wired here.
type InscribeTask struct{}

var inscribeFrameExt = regexp.MustCompile(`([._])(\d+)\.[a-zA-Z0-9]+$`)
var inscribeStem = regexp.MustCompile(`^(.*?)[._]\d+\.[a-zA-Z0-9]+$`)
var inscribeSlateFrameRewrite = regexp.MustCompile(`([._])\d+(\.[a-zA-Z0-9]+)$`)

func (t *InscribeTask) Validate(args task.Args) error {
	kind := getString(args, "type")
	if kind == "" {
		kind = "burnin"
	}
	if kind != "slate" && kind != "burnin" {
		return crunchizeerrors.ErrInvalidEnumValue("type", kind, []string{"slate", "burnin"})
	}
	if getString(args, "output_path") == "" && args["item"] == nil && args["items"] == nil {
		return crunchizeerrors.ErrMissingArg("inscribe", "output_path")
	}
	if kind == "burnin" && getString(args, "input_path") == "" && args["item"] == nil && args["items"] == nil {
		return crunchizeerrors.ErrMissingArg("inscribe", "input_path")
	}
	if _, ok := args["groups"].([]any); !ok {
		return crunchizeerrors.ErrMissingArg("inscribe", "groups")
	}
	existing := existingValue(args)
	if existing != "skip" && existing != "replace" {
		return crunchizeerrors.ErrInvalidEnumValue("existing", existing, []string{"skip", "replace"})
	}
	return nil
}

func (t *InscribeTask) Run(ctx context.Context, args task.Args, dryRun bool) (any, error) {
	kind := getString(args, "type")
	if kind == "" {
		kind = "burnin"
	}

	outputPath := getString(args, "output_path")
	if outputPath == "" {
		source := args["item"]
		if source == nil {
			if items, ok := args["items"].([]any); ok && len(items) > 0 {
				source = items[0]
			}
		}
		outputPath = pathinfer.Resolve(source, pathinfer.Output)
		if kind == "slate" && outputPath != "" {
			outputPath = inscribeSlateFrameRewrite.ReplaceAllString(outputPath, "${1}0000${2}")
		}
	}
	if outputPath == "" {
		return nil, crunchizeerrors.ErrMissingArg("inscribe", "output_path")
	}

	format := getString(args, "format")
	if format == "" {
		format = "jpg"
	}
	outputPath = withExtension(outputPath, format)

	if shouldSkipExisting(args, outputPath) {
		slog.Default().Info("inscribe: skipping, output already exists", "path", outputPath)
		return outputPath, nil
	}

	if kind == "slate" {
		return t.handleSlate(args, outputPath, format, dryRun)
	}
	return t.handleBurnin(args, outputPath, format, dryRun)
}

func (t *InscribeTask) handleSlate(args task.Args, outputPath, format string, dryRun bool) (any, error) {
	width := 1920
	height := 1080
	if w, ok := getFloat(args, "width"); ok {
		width = int(w)
	}
	if h, ok := getFloat(args, "height"); ok {
		height = int(h)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	frameCtx := buildFrameContext(args, firstFrameSource(args))
	renderLayout(img, args, frameCtx)

	if err := ensureOutputDir(outputPath, dryRun); err != nil {
		return nil, crunchizeerrors.ErrFileOpFailed("mkdir", outputPath, err)
	}
	if !dryRun {
		if err := saveImage(img, outputPath, format); err != nil {
			return nil, crunchizeerrors.ErrFileOpFailed("save", outputPath, err)
		}
	}
	slog.Default().Info("inscribe: generated slate", "path", outputPath)

	inputFiles := getStringList(args, "input_files")
	if len(inputFiles) == 0 {
		if items, ok := args["items"].([]any); ok {
			for _, it := range items {
				if p := pathinfer.Resolve(it, pathinfer.Input); p != "" {
					inputFiles = append(inputFiles, p)
				}
			}
		}
	}
	if len(inputFiles) > 0 {
		out := make([]any, 0, len(inputFiles)+1)
		out = append(out, outputPath)
		for _, f := range inputFiles {
			out = append(out, f)
		}
		return out, nil
	}
	return outputPath, nil
}

func (t *InscribeTask) handleBurnin(args task.Args, outputPath, format string, dryRun bool) (any, error) {
	inputPath := getString(args, "input_path")
	if inputPath == "" {
		inputPath = pathinfer.Resolve(args["item"], pathinfer.Input)
	}
	if inputPath == "" {
		return nil, crunchizeerrors.ErrNoInput("inscribe")
	}

	if dryRun {
		slog.Default().Info("inscribe: dry-run would apply burn-in", "input", inputPath, "output", outputPath)
		return outputPath, nil
	}

	if _, err := os.Stat(inputPath); err != nil {
		return nil, crunchizeerrors.ErrFileOpFailed("open", inputPath, err)
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return nil, crunchizeerrors.ErrFileOpFailed("open", inputPath, err)
	}
	src, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return nil, crunchizeerrors.ErrFileOpFailed("decode", inputPath, err)
	}

	canvas := image.NewRGBA(src.Bounds())
	draw.Draw(canvas, canvas.Bounds(), src, src.Bounds().Min, draw.Src)

	frameCtx := buildFrameContext(args, inputPath)
	renderLayout(canvas, args, frameCtx)

	if err := ensureOutputDir(outputPath, dryRun); err != nil {
		return nil, crunchizeerrors.ErrFileOpFailed("mkdir", outputPath, err)
	}
	if err := saveImage(canvas, outputPath, format); err != nil {
		return nil, crunchizeerrors.ErrFileOpFailed("save", outputPath, err)
	}
	slog.Default().Info("inscribe: applied burn-in", "path", outputPath)
	return outputPath, nil
}

func firstFrameSource(args task.Args) string {
	if item := args["item"]; item != nil {
		return pathinfer.Resolve(item, pathinfer.Input)
	}
	if items, ok := args["items"].([]any); ok && len(items) > 0 {
		return pathinfer.Resolve(items[0], pathinfer.Input)
	}
	return ""
}

func frameNumberOf(path string) int {
	if m := inscribeFrameExt.FindStringSubmatch(path); m != nil {
		n, _ := strconv.Atoi(m[2])
		return n
	}
	return 0
}

// buildFrameContext assembles the sequence-aware variables ({{ frame }},
// {{ filename }}, {{ basename }}, {{ index }}, {{ total }}, {{ first_frame }},
// {{ last_frame }}) text items resolve against, merged with _variables and
// the current item's own fields by renderLayout.
func buildFrameContext(args task.Args, path string) map[string]any {
	filename := filepath.Base(path)
	base := filename
	if m := inscribeStem.FindStringSubmatch(filename); m != nil {
		base = m[1]
	} else {
		base = filename[:len(filename)-len(filepath.Ext(filename))]
	}

	ctx := map[string]any{
		"frame":    frameNumberOf(path),
		"filename": filename,
		"basename": base,
		"index":    0,
		"total":    1,
	}
	if v, ok := args["index"]; ok {
		ctx["index"] = v
	}
	if v, ok := args["total"]; ok {
		ctx["total"] = v
	}
	if first := args["first_item"]; first != nil {
		ctx["first_frame"] = frameNumberOf(pathinfer.Resolve(first, pathinfer.Input))
	}
	if last := args["last_item"]; last != nil {
		ctx["last_frame"] = frameNumberOf(pathinfer.Resolve(last, pathinfer.Input))
	}
	return ctx
}

type layoutGroup struct {
	Anchor    string
	Layout    string
	Padding   float64
	Alignment string
	Items     []layoutItemDef
}

type layoutItemDef struct {
	Type   string
	Source string
	Color  string
	Size   float64
}

func parseGroups(raw []any) []layoutGroup {
	groups := make([]layoutGroup, 0, len(raw))
	for _, g := range raw {
		m, ok := g.(map[string]any)
		if !ok {
			continue
		}
		group := layoutGroup{
			Anchor:    stringOr(m["anchor"], "top-left"),
			Layout:    stringOr(m["layout"], "vertical"),
			Padding:   floatOr(m["padding"], 0.02),
			Alignment: stringOr(m["alignment"], "start"),
		}
		if itemsRaw, ok := m["items"].([]any); ok {
			for _, it := range itemsRaw {
				im, ok := it.(map[string]any)
				if !ok {
					continue
				}
				group.Items = append(group.Items, layoutItemDef{
					Type:   stringOr(im["type"], "text"),
					Source: stringOr(im["source"], ""),
					Color:  stringOr(im["color"], "white"),
					Size:   floatOr(im["size"], 0.03),
				})
			}
		}
		groups = append(groups, group)
	}
	return groups
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return def
}

func floatOr(v any, def float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	return def
}

// renderLayout draws every group's text and image items onto img.
func renderLayout(img *image.RGBA, args task.Args, frameCtx map[string]any) {
	rawGroups, _ := args["groups"].([]any)
	groups := parseGroups(rawGroups)

	resolveCtx := map[string]any{}
	if vars, ok := args["_variables"].(map[string]any); ok {
		for k, v := range vars {
			resolveCtx[k] = v
		}
	}
	for k, v := range frameCtx {
		resolveCtx[k] = v
	}
	if m, ok := itemAsMap(args["item"]); ok {
		for k, v := range m {
			resolveCtx[k] = v
		}
	}

	resolver := template.New()
	bounds := img.Bounds()
	canvasW, canvasH := bounds.Dx(), bounds.Dy()

	for _, group := range groups {
		renderGroup(img, group, resolver, resolveCtx, canvasW, canvasH)
	}
}

type renderedItem struct {
	kind    string
	text    string
	col     color.Color
	w, h    int
	picture image.Image
}

func renderGroup(img *image.RGBA, group layoutGroup, resolver *template.Resolver, ctx map[string]any, canvasW, canvasH int) {
	padding := int(float64(canvasW) * group.Padding)

	var rendered []renderedItem
	for _, itemDef := range group.Items {
		resolved := resolver.Resolve(itemDef.Source, ctx)
		text := stringifyAny(resolved)

		switch itemDef.Type {
		case "image":
			if text == "" {
				continue
			}
			pic, err := loadImage(text)
			if err != nil {
				slog.Default().Warn("inscribe: failed to load layout image", "path", text, "error", err)
				continue
			}
			sizePx := int(float64(canvasW) * itemDef.Size)
			b := pic.Bounds()
			aspect := float64(b.Dx()) / float64(b.Dy())
			h := int(float64(sizePx) / aspect)
			rendered = append(rendered, renderedItem{kind: "image", picture: pic, w: sizePx, h: h})
		default:
			col := namedColor(itemDef.Color)
			w, h := measureText(text)
			rendered = append(rendered, renderedItem{kind: "text", text: text, col: col, w: w, h: h})
		}
	}

	if len(rendered) == 0 {
		return
	}

	var groupW, groupH int
	if group.Layout == "vertical" {
		for _, it := range rendered {
			if it.w > groupW {
				groupW = it.w
			}
			groupH += it.h
		}
		groupH += padding * (len(rendered) - 1)
	} else {
		for _, it := range rendered {
			if it.h > groupH {
				groupH = it.h
			}
			groupW += it.w
		}
		groupW += padding * (len(rendered) - 1)
	}

	gx, gy := anchorOrigin(group.Anchor, canvasW, canvasH, groupW, groupH, padding)

	cx, cy := gx, gy
	for _, it := range rendered {
		dx, dy := cx, cy
		if group.Layout == "vertical" {
			switch group.Alignment {
			case "center":
				dx = gx + (groupW-it.w)/2
			case "end":
				dx = gx + (groupW - it.w)
			}
		} else {
			switch group.Alignment {
			case "center":
				dy = gy + (groupH-it.h)/2
			case "end":
				dy = gy + (groupH - it.h)
			}
		}

		if it.kind == "image" {
			target := image.Rect(dx, dy, dx+it.w, dy+it.h)
			draw.Draw(img, target, it.picture, it.picture.Bounds().Min, draw.Over)
		} else {
			drawText(img, it.text, dx, dy, it.col)
		}

		if group.Layout == "vertical" {
			cy += it.h + padding
		} else {
			cx += it.w + padding
		}
	}
}

func anchorOrigin(anchor string, canvasW, canvasH, groupW, groupH, padding int) (int, int) {
	gx, gy := (canvasW-groupW)/2, (canvasH-groupH)/2
	switch {
	case containsWord(anchor, "left"):
		gx = padding
	case containsWord(anchor, "right"):
		gx = canvasW - groupW - padding
	}
	switch {
	case containsWord(anchor, "top"):
		gy = padding
	case containsWord(anchor, "bottom"):
		gy = canvasH - groupH - padding
	}
	return gx, gy
}

func containsWord(s, word string) bool {
	for i := 0; i+len(word) <= len(s); i++ {
		if s[i:i+len(word)] == word {
			return true
		}
	}
	return false
}

func stringifyAny(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

var textFace = basicfont.Face7x13

func measureText(text string) (int, int) {
	w := font.MeasureString(textFace, text).Ceil()
	return w, textFace.Metrics().Height.Ceil()
}

func drawText(img *image.RGBA, text string, x, y int, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: textFace,
		Dot:  fixed.P(x, y+textFace.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

func saveImage(img image.Image, path, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch format {
	case "png":
		return png.Encode(f, img)
	default:
		return jpeg.Encode(f, img, &jpeg.Options{Quality: 92})
	}
}

var namedColors = map[string]color.Color{
	"white":   color.White,
	"black":   color.Black,
	"red":     color.RGBA{255, 0, 0, 255},
	"green":   color.RGBA{0, 200, 0, 255},
	"blue":    color.RGBA{0, 0, 255, 255},
	"yellow":  color.RGBA{255, 255, 0, 255},
	"gray":    color.RGBA{128, 128, 128, 255},
	"grey":    color.RGBA{128, 128, 128, 255},
	"orange":  color.RGBA{255, 165, 0, 255},
}

func namedColor(name string) color.Color {
	if c, ok := namedColors[name]; ok {
		return c
	}
	return color.White
}
