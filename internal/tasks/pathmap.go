package tasks

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	crunchizeerrors "github.com/hristovelev/crunchize/internal/errors"
	"github.com/hristovelev/crunchize/internal/task"
)

func init() {
	task.Register("pathmap", func() task.Task { return &PathMapTask{} })
}

// PathMapTask rewrites a path by string or regex substitution. In standard
// mode it returns a {src, dst} transition; in reduce mode (items present,
// reduce: true) it groups items into per-shot {files, base_path} records
// for downstream sequence-aware tasks like ffmpeg.
type PathMapTask struct{}

func (t *PathMapTask) Validate(args task.Args) error {
	if getString(args, "search") == "" {
		return crunchizeerrors.ErrMissingArg("pathmap", "search")
	}
	if _, ok := args["replace"]; !ok {
		return crunchizeerrors.ErrMissingArg("pathmap", "replace")
	}
	if getBool(args, "regex", false) {
		if _, err := regexp.Compile(getString(args, "search")); err != nil {
			return crunchizeerrors.ErrInvalidRegex(getString(args, "search"), err)
		}
	}
	return nil
}

func (t *PathMapTask) Run(ctx context.Context, args task.Args, dryRun bool) (any, error) {
	search := getString(args, "search")
	replace := getString(args, "replace")
	useRegex := getBool(args, "regex", false)

	if items, ok := args["items"].([]any); ok && getBool(args, "reduce", false) {
		return t.reducePaths(items, search, replace, useRegex, getString(args, "input_key")), nil
	}

	source := resolvePathmapSource(map[string]any(args), getString(args, "input_path"), getString(args, "input_key"))
	if source == "" {
		slog.Default().Warn("pathmap: no valid source string found for mapping")
		return nil, nil
	}

	mapped := substitute(source, search, replace, useRegex)
	return map[string]any{"src": source, "dst": mapped}, nil
}

func substitute(source, search, replace string, useRegex bool) string {
	if useRegex {
		re := regexp.MustCompile(search)
		return re.ReplaceAllString(source, replace)
	}
	if (strings.HasSuffix(search, "/") || strings.HasSuffix(search, `\`)) &&
		!(strings.HasSuffix(replace, "/") || strings.HasSuffix(replace, `\`)) {
		replace += search[len(search)-1:]
	}
	return strings.ReplaceAll(source, search, replace)
}

// resolvePathmapSource mirrors the priority input_path > item (string) >
// item[input_key] > item["dst"] > item["src"] > item["item"].
func resolvePathmapSource(args map[string]any, inputPath, inputKey string) string {
	if inputPath != "" {
		return inputPath
	}
	item, ok := args["item"]
	if !ok {
		return ""
	}
	return resolveFromItem(item, inputKey)
}

func resolveFromItem(item any, inputKey string) string {
	if s, ok := item.(string); ok {
		return s
	}
	m, ok := itemAsMap(item)
	if !ok {
		return ""
	}
	if inputKey != "" {
		s, _ := m[inputKey].(string)
		return s
	}
	for _, k := range []string{"dst", "src", "item"} {
		if s, ok := m[k].(string); ok {
			return s
		}
	}
	return ""
}

var frameGroupPattern = regexp.MustCompile(`^(.*?)[._](\d+)(\.[A-Za-z0-9]+)$`)

// reduceGroup accumulates the items mapping to one shot's (base, ext) key.
type reduceGroup struct {
	basePath string
	items    []any
	paths    []string
}

func (t *PathMapTask) reducePaths(items []any, search, replace string, useRegex bool, inputKey string) []any {
	order := make([]string, 0)
	groups := make(map[string]*reduceGroup)

	for _, item := range items {
		path := resolveFromItem(item, inputKey)
		if path == "" {
			continue
		}
		mapped := substitute(path, search, replace, useRegex)

		base := mapped
		ext := ""
		if m := frameGroupPattern.FindStringSubmatch(mapped); m != nil {
			base, ext = m[1], m[3]
		}
		key := base + "|" + ext

		g, ok := groups[key]
		if !ok {
			g = &reduceGroup{basePath: base}
			groups[key] = g
			order = append(order, key)
		}
		g.items = append(g.items, item)
		g.paths = append(g.paths, path)
	}

	results := make([]any, 0, len(order))
	for _, key := range order {
		g := groups[key]
		idx := make([]int, len(g.items))
		for i := range idx {
			idx[i] = i
		}
		sort.Slice(idx, func(a, b int) bool { return g.paths[idx[a]] < g.paths[idx[b]] })

		sortedItems := make([]any, len(g.items))
		for i, j := range idx {
			sortedItems[i] = g.items[j]
		}

		results = append(results, map[string]any{
			"files":     sortedItems,
			"base_path": g.basePath,
		})
	}

	slog.Default().Info("pathmap reduced items into sequences", "input_count", len(items), "group_count", len(results))
	return results
}
