package tasks

import (
	"context"
	"fmt"
	"log/slog"

	crunchizeerrors "github.com/hristovelev/crunchize/internal/errors"
	"github.com/hristovelev/crunchize/internal/task"
)

func init() {
	task.Register("thumbnail", func() task.Task { return &ThumbnailTask{} })
}

// ThumbnailTask picks one frame out of a sequence by relative position and
// resizes it with oiiotool, using the same `--resize Wx0 ... -o <out>` argv
// shape as the oiio task (assembled here, not through buildOIIOArgs).
type ThumbnailTask struct{}

func (t *ThumbnailTask) Validate(args task.Args) error {
	if getString(args, "output_path") == "" {
		return crunchizeerrors.ErrMissingArg("thumbnail", "output_path")
	}
	if len(thumbnailInputFiles(args)) == 0 {
		return crunchizeerrors.ErrMissingArg("thumbnail", "input_files or item")
	}
	existing := existingValue(args)
	if existing != "skip" && existing != "replace" {
		return crunchizeerrors.ErrInvalidEnumValue("existing", existing, []string{"skip", "replace"})
	}
	return nil
}

func (t *ThumbnailTask) Run(ctx context.Context, args task.Args, dryRun bool) (any, error) {
	files := thumbnailInputFiles(args)
	if len(files) == 0 {
		slog.Default().Warn("thumbnail: no file list to process")
		return nil, nil
	}

	loc := 0.5
	if v, ok := getFloat(args, "sourcelocation"); ok {
		loc = v
	}
	if loc < 0 {
		loc = 0
	}
	if loc > 1 {
		loc = 1
	}
	index := int(float64(len(files)) * loc)
	if index >= len(files) {
		index = len(files) - 1
	}
	sourceFrame := files[index]
	slog.Default().Info("thumbnail: picked source frame", "frame", sourceFrame, "index", index, "total", len(files))

	format := getString(args, "format")
	if format == "" {
		format = "jpg"
	}
	outputPath := withExtension(getString(args, "output_path"), format)

	if shouldSkipExisting(args, outputPath) {
		slog.Default().Info("thumbnail: skipping, output already exists", "path", outputPath)
		return outputPath, nil
	}

	if err := ensureOutputDir(outputPath, dryRun); err != nil {
		return nil, crunchizeerrors.ErrFileOpFailed("mkdir", outputPath, err)
	}

	cmd := []string{sourceFrame}
	if size := getString(args, "size"); size != "" {
		cmd = append(cmd, "--resize", size+"x0")
	} else if size, ok := getFloat(args, "size"); ok {
		cmd = append(cmd, "--resize", fmt.Sprintf("%dx0", int(size)))
	}
	cmd = append(cmd, "-o", outputPath)

	slog.Default().Info("executing oiiotool", "args", cmd)
	if dryRun {
		return outputPath, nil
	}

	stdout, _, err := runTool(ctx, "oiiotool", cmd...)
	if err != nil {
		return nil, crunchizeerrors.ErrToolFailed("oiiotool", err)
	}
	if stdout != "" {
		slog.Default().Debug("oiiotool output", "stdout", stdout)
	}
	return outputPath, nil
}

func thumbnailInputFiles(args task.Args) []string {
	if files := getStringList(args, "input_files"); len(files) > 0 {
		return files
	}
	if item, ok := args["item"].([]any); ok {
		out := make([]string, 0, len(item))
		for _, v := range item {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
