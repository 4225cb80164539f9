package tasks

import (
	"context"
	"log/slog"

	crunchizeerrors "github.com/hristovelev/crunchize/internal/errors"
	"github.com/hristovelev/crunchize/internal/task"
)

func init() {
	task.Register("convert", func() task.Task { return &ConvertTask{} })
}

// ConvertTask performs colorspace conversion via OpenColorIO's ocioconvert:
// `ocioconvert --iconfig <cfg> <in> <in_space> <out> <out_space>`.
type ConvertTask struct{}

var convertRequired = []string{"input_path", "output_path", "config_path", "input_space", "output_space"}

func (t *ConvertTask) Validate(args task.Args) error {
	for _, key := range convertRequired {
		if getString(args, key) == "" {
			return crunchizeerrors.ErrMissingArg("convert", key)
		}
	}
	existing := existingValue(args)
	if existing != "skip" && existing != "replace" {
		return crunchizeerrors.ErrInvalidEnumValue("existing", existing, []string{"skip", "replace"})
	}
	return nil
}

func (t *ConvertTask) Run(ctx context.Context, args task.Args, dryRun bool) (any, error) {
	inputPath := getString(args, "input_path")
	outputPath := getString(args, "output_path")
	configPath := getString(args, "config_path")
	inputSpace := getString(args, "input_space")
	outputSpace := getString(args, "output_space")

	if format := getString(args, "output_format"); format != "" {
		outputPath = withExtension(outputPath, format)
	}

	if shouldSkipExisting(args, outputPath) {
		slog.Default().Info("convert: skipping, output already exists", "path", outputPath)
		return outputPath, nil
	}

	if err := ensureOutputDir(outputPath, dryRun); err != nil {
		return nil, crunchizeerrors.ErrFileOpFailed("mkdir", outputPath, err)
	}

	cmd := []string{"--iconfig", configPath, inputPath, inputSpace, outputPath, outputSpace}
	slog.Default().Info("executing ocioconvert", "args", cmd)

	if dryRun {
		return outputPath, nil
	}

	stdout, _, err := runTool(ctx, "ocioconvert", cmd...)
	if err != nil {
		return nil, err
	}
	if stdout != "" {
		slog.Default().Debug("ocioconvert output", "stdout", stdout)
	}
	return outputPath, nil
}
