package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	crunchizeerrors "github.com/hristovelev/crunchize/internal/errors"
	"github.com/hristovelev/crunchize/internal/task"
)

func init() {
	task.Register("ffmpeg", func() task.Task { return &FFmpegTask{} })
}

// FFmpegTask encodes video from either a printf-style frame pattern
// (input_path) or an explicit ordered file list (input_files, via the
// concat demuxer).
type FFmpegTask struct{}

func (t *FFmpegTask) Validate(args task.Args) error {
	if getString(args, "output_path") == "" {
		return crunchizeerrors.ErrMissingArg("ffmpeg", "output_path")
	}
	if getString(args, "input_path") == "" && len(getStringList(args, "input_files")) == 0 {
		return crunchizeerrors.ErrMissingArg("ffmpeg", "input_path or input_files")
	}
	existing := existingValue(args)
	if existing != "skip" && existing != "replace" {
		return crunchizeerrors.ErrInvalidEnumValue("existing", existing, []string{"skip", "replace"})
	}
	return nil
}

func (t *FFmpegTask) Run(ctx context.Context, args task.Args, dryRun bool) (any, error) {
	inputPath := getString(args, "input_path")
	inputFiles := getStringList(args, "input_files")
	outputPath := getString(args, "output_path")

	framerate := 24.0
	if fps, ok := getFloat(args, "fps"); ok {
		framerate = fps
	} else if fps, ok := getFloat(args, "framerate"); ok {
		framerate = fps
	}

	if container := getString(args, "container"); container != "" {
		outputPath = withExtension(outputPath, container)
	}

	if shouldSkipExisting(args, outputPath) {
		slog.Default().Info("ffmpeg: skipping, output already exists", "path", outputPath)
		return outputPath, nil
	}

	if err := ensureOutputDir(outputPath, dryRun); err != nil {
		return nil, crunchizeerrors.ErrFileOpFailed("mkdir", outputPath, err)
	}

	existing := existingValue(args)
	cmd := []string{}
	if existing == "replace" {
		cmd = append(cmd, "-y")
	}

	listFilePath := outputPath + ".filelist.txt"
	usingConcat := len(inputFiles) > 0

	if usingConcat {
		if !dryRun {
			if err := writeConcatList(listFilePath, inputFiles); err != nil {
				return nil, crunchizeerrors.ErrFileOpFailed("write", listFilePath, err)
			}
		}
		cmd = append(cmd, "-f", "concat", "-safe", "0", "-r", fmt.Sprintf("%g", framerate), "-i", listFilePath)
	} else {
		if startFrame, ok := getFloat(args, "start_frame"); ok {
			cmd = append(cmd, "-start_number", fmt.Sprintf("%d", int(startFrame)))
		}
		cmd = append(cmd, "-framerate", fmt.Sprintf("%g", framerate), "-i", inputPath)
	}

	codec := getString(args, "codec")
	extraArgs := getStringList(args, "extra_args")
	if codec == "" && !containsFlag(extraArgs, "-c:v") && !containsFlag(extraArgs, "-vcodec") {
		codec = "libx264"
	}
	if codec != "" {
		cmd = append(cmd, "-c:v", codec)
		if codec == "libx264" && !containsFlag(extraArgs, "-pix_fmt") {
			cmd = append(cmd, "-pix_fmt", "yuv420p")
		}
	}

	// (expansion) pad mismatched/odd source dimensions to an even target
	// canvas so libx264 always receives a codec-valid frame size.
	width, hasWidth := getFloat(args, "width")
	height, hasHeight := getFloat(args, "height")
	if hasWidth && hasHeight {
		w, h := int(width), int(height)
		cmd = append(cmd, "-vf", fmt.Sprintf(
			"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2", w, h, w, h))
	}

	cmd = append(cmd, extraArgs...)
	cmd = append(cmd, outputPath)

	slog.Default().Info("executing ffmpeg", "args", cmd)

	if dryRun {
		return outputPath, nil
	}

	_, _, err := runTool(ctx, "ffmpeg", cmd...)
	if err != nil {
		return nil, err
	}

	if usingConcat {
		_ = os.Remove(listFilePath)
	}

	slog.Default().Info("ffmpeg encode complete", "path", outputPath)
	return outputPath, nil
}

func writeConcatList(path string, files []string) error {
	var b []byte
	for _, f := range files {
		b = append(b, []byte(fmt.Sprintf("file '%s'\n", f))...)
	}
	return os.WriteFile(path, b, 0644)
}

func containsFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}
