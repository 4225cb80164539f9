// Package tasks implements crunchize's built-in task types, each a thin
// shell over an external tool (ocioconvert, oiiotool, ffmpeg) or a local
// computation (globbing, path substitution, regex parsing, file removal).
// Every task file in this package registers its type with internal/task
// from init(), so importing the package for its side effects is enough to
// make all built-in types available to the registry.
package tasks

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hristovelev/crunchize/internal/task"
)

func getString(args task.Args, key string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getBool(args task.Args, key string, def bool) bool {
	if v, ok := args[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

func getFloat(args task.Args, key string) (float64, bool) {
	v, ok := args[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func getStringList(args task.Args, key string) []string {
	v, ok := args[key]
	if !ok {
		return nil
	}
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return strings.Fields(vv)
	}
	return nil
}

// existingValue returns the args' "existing" value, defaulting to "replace".
func existingValue(args task.Args) string {
	if v := getString(args, "existing"); v != "" {
		return v
	}
	return "replace"
}

// shouldSkipExisting reports whether outputPath already exists and
// existing=="skip", in which case a task must not re-invoke its tool.
func shouldSkipExisting(args task.Args, outputPath string) bool {
	if existingValue(args) != "skip" {
		return false
	}
	_, err := os.Stat(outputPath)
	return err == nil
}

// ensureOutputDir makes sure outputPath's parent directory exists. In
// dry-run mode it creates nothing and returns nil.
func ensureOutputDir(outputPath string, dryRun bool) error {
	dir := filepath.Dir(outputPath)
	if dir == "" || dir == "." {
		return nil
	}
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	if dryRun {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

// withExtension rewrites path's extension to ext (without a leading dot),
// leaving path untouched when ext is empty.
func withExtension(path, ext string) string {
	if ext == "" {
		return path
	}
	ext = strings.TrimPrefix(ext, ".")
	base := strings.TrimSuffix(path, filepath.Ext(path))
	return base + "." + ext
}

// itemAsMap exposes an item's fields the way record.Item.AsMap does,
// without importing internal/record directly (avoids tasks depending on
// orchestrator's item-classification package for a one-method lookup).
func itemAsMap(item any) (map[string]any, bool) {
	if m, ok := item.(map[string]any); ok {
		return m, true
	}
	if asMapper, ok := item.(interface{ AsMap() (map[string]any, bool) }); ok {
		return asMapper.AsMap()
	}
	return nil, false
}
