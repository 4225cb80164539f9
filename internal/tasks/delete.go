package tasks

import (
	"context"
	"log/slog"
	"os"

	crunchizeerrors "github.com/hristovelev/crunchize/internal/errors"
	"github.com/hristovelev/crunchize/internal/task"
)

func init() {
	task.Register("delete", func() task.Task { return &DeleteTask{} })
}

// DeleteTask removes a single file, given explicitly via path or inferred
// from the implicit item.
type DeleteTask struct{}

func (t *DeleteTask) Validate(args task.Args) error {
	if getString(args, "path") == "" && args["item"] == nil {
		return crunchizeerrors.ErrMissingArg("delete", "path")
	}
	return nil
}

func (t *DeleteTask) Run(ctx context.Context, args task.Args, dryRun bool) (any, error) {
	target := getString(args, "path")
	if target == "" {
		target, _ = args["item"].(string)
	}
	if target == "" {
		slog.Default().Warn("delete: invalid path provided", "item", args["item"])
		return nil, nil
	}

	slog.Default().Info("deleting", "path", target)
	if dryRun {
		return target, nil
	}

	if _, err := os.Stat(target); err != nil {
		if os.IsNotExist(err) {
			slog.Default().Warn("delete: file not found", "path", target)
			return target, nil
		}
		return nil, crunchizeerrors.ErrFileOpFailed("delete", target, err)
	}
	if err := os.Remove(target); err != nil {
		return nil, crunchizeerrors.ErrFileOpFailed("delete", target, err)
	}
	return target, nil
}
