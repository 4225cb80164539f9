package tasks

import (
	"context"
	"fmt"
	"log/slog"

	crunchizeerrors "github.com/hristovelev/crunchize/internal/errors"
	"github.com/hristovelev/crunchize/internal/pathinfer"
	"github.com/hristovelev/crunchize/internal/task"
)

func init() {
	task.Register("oiio", func() task.Task { return &OIIOTask{} })
}

// OIIOTask processes a single image via OpenImageIO's oiiotool, currently
// focused on resizing/fitting but passing through arbitrary extra_args.
type OIIOTask struct{}

func (t *OIIOTask) Validate(args task.Args) error {
	if getString(args, "output_path") == "" && args["item"] == nil {
		return crunchizeerrors.ErrMissingArg("oiio", "output_path")
	}
	if getString(args, "input_path") == "" && args["item"] == nil {
		return crunchizeerrors.ErrMissingArg("oiio", "input_path")
	}
	existing := existingValue(args)
	if existing != "skip" && existing != "replace" {
		return crunchizeerrors.ErrInvalidEnumValue("existing", existing, []string{"skip", "replace"})
	}
	return nil
}

func (t *OIIOTask) Run(ctx context.Context, args task.Args, dryRun bool) (any, error) {
	item := args["item"]

	inputPath := getString(args, "input_path")
	if inputPath == "" {
		inputPath = pathinfer.Resolve(item, pathinfer.Input)
	}
	outputPath := getString(args, "output_path")
	if outputPath == "" {
		outputPath = pathinfer.Resolve(item, pathinfer.Output)
	}

	if inputPath == "" {
		return nil, crunchizeerrors.ErrNoInput("oiio")
	}
	if outputPath == "" {
		return nil, crunchizeerrors.ErrMissingArg("oiio", "output_path")
	}

	if shouldSkipExisting(args, outputPath) {
		slog.Default().Info("oiio: skipping, output already exists", "path", outputPath)
		return outputPath, nil
	}

	if err := ensureOutputDir(outputPath, dryRun); err != nil {
		return nil, crunchizeerrors.ErrFileOpFailed("mkdir", outputPath, err)
	}

	cmd := buildOIIOArgs(args, inputPath, outputPath)
	slog.Default().Info("executing oiiotool", "args", cmd)

	if dryRun {
		return outputPath, nil
	}

	stdout, _, err := runTool(ctx, "oiiotool", cmd...)
	if err != nil {
		return nil, err
	}
	if stdout != "" {
		slog.Default().Debug("oiiotool output", "stdout", stdout)
	}
	return outputPath, nil
}

// buildOIIOArgs composes the oiiotool invocation: resize/fit dimensions,
// then any extra_args, then -o.
func buildOIIOArgs(args task.Args, inputPath, outputPath string) []string {
	cmd := []string{inputPath}

	width, hasWidth := getFloat(args, "width")
	height, hasHeight := getFloat(args, "height")

	switch {
	case hasWidth && hasHeight:
		dims := fmt.Sprintf("%dx%d", int(width), int(height))
		cmd = append(cmd, "--fit", dims, "--canvas", dims)
	case hasWidth:
		cmd = append(cmd, "--resize", fmt.Sprintf("%dx0", int(width)))
	case hasHeight:
		cmd = append(cmd, "--resize", fmt.Sprintf("0x%d", int(height)))
	}

	if scale, ok := args["scale"]; ok {
		switch s := scale.(type) {
		case float64:
			cmd = append(cmd, "--resize", fmt.Sprintf("%g%%", s*100))
		default:
			cmd = append(cmd, "--resize", fmt.Sprintf("%v", s))
		}
	}

	cmd = append(cmd, getStringList(args, "extra_args")...)
	cmd = append(cmd, "-o", outputPath)
	return cmd
}
