package tasks

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	crunchizeerrors "github.com/hristovelev/crunchize/internal/errors"
	"github.com/hristovelev/crunchize/internal/task"
)

func init() {
	task.Register("filein", func() task.Task { return &FileInTask{} })
}

// FileInTask discovers files by glob pattern. It is typically the entry
// point of a pipeline: pure and side-effect free, so it runs identically
// in dry-run mode.
type FileInTask struct{}

func (t *FileInTask) Validate(args task.Args) error {
	if getString(args, "pattern") == "" {
		return crunchizeerrors.ErrMissingArg("filein", "pattern")
	}
	return nil
}

func (t *FileInTask) Run(ctx context.Context, args task.Args, dryRun bool) (any, error) {
	pattern := getString(args, "pattern")
	recursive := getBool(args, "recursive", false)

	var matches []string
	var err error
	if recursive || strings.Contains(pattern, "**") {
		matches, err = doublestar.FilepathGlob(pattern)
	} else {
		matches, err = filepath.Glob(pattern)
	}
	if err != nil {
		return nil, crunchizeerrors.ErrFileOpFailed("glob", pattern, err)
	}
	sort.Strings(matches)

	out := make([]any, len(matches))
	for i, m := range matches {
		out[i] = m
	}

	slog.Default().Debug("file discovery complete", "pattern", pattern, "count", len(matches))
	return out, nil
}
