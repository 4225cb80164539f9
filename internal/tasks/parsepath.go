package tasks

import (
	"context"
	"log/slog"
	"regexp"

	crunchizeerrors "github.com/hristovelev/crunchize/internal/errors"
	"github.com/hristovelev/crunchize/internal/task"
)

func init() {
	task.Register("parsepath", func() task.Task { return &ParsePathTask{} })
}

// ParsePathTask extracts metadata from a path or string via a regular
// expression's named capture groups. Go's regexp has first-class named
// groups, so there's no need for the manual groupdict() walk the original
// Python implementation used.
type ParsePathTask struct{}

func (t *ParsePathTask) Validate(args task.Args) error {
	pattern := getString(args, "pattern")
	if pattern == "" {
		return crunchizeerrors.ErrMissingArg("parsepath", "pattern")
	}
	if _, err := regexp.Compile(pattern); err != nil {
		return crunchizeerrors.ErrInvalidRegex(pattern, err)
	}
	return nil
}

func (t *ParsePathTask) Run(ctx context.Context, args task.Args, dryRun bool) (any, error) {
	source := getString(args, "input_path")
	if source == "" {
		source = resolveParsepathSource(args["item"])
	}
	if source == "" {
		slog.Default().Warn("parsepath: no valid source string to parse")
		return map[string]any{}, nil
	}

	re := regexp.MustCompile(getString(args, "pattern"))
	match := re.FindStringSubmatch(source)
	if match == nil {
		slog.Default().Warn("parsepath: no match found", "pattern", getString(args, "pattern"), "source", source)
		return map[string]any{}, nil
	}

	out := make(map[string]any)
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		out[name] = match[i]
	}
	return out, nil
}

// resolveParsepathSource mirrors item.get("src") or item.get("dst") or
// item.get("item") or item.get("input_path") from the source it was
// distilled from: a string item passes through, a map item is searched in
// that exact priority.
func resolveParsepathSource(item any) string {
	if s, ok := item.(string); ok {
		return s
	}
	m, ok := itemAsMap(item)
	if !ok {
		return ""
	}
	for _, k := range []string{"src", "dst", "item", "input_path"} {
		if s, ok := m[k].(string); ok {
			return s
		}
	}
	return ""
}
