// Package record defines the item records that flow between playbook tasks.
//
// A task's output is a list of records consumed by whatever task reads it as
// input next. Records are immutable: a task that needs to extend one builds
// a new record rather than mutating the one it received.
package record

import "fmt"

// Item is any of the four shapes an item flowing between tasks can take:
// a raw path string, a transition produced by path mapping, a sequence
// produced by path-mapping reduction, or an arbitrary domain map.
type Item interface {
	isItem()

	// AsMap returns the item's fields as a map for context merging, and
	// whether the item has map-like fields at all. PathString has none.
	AsMap() (map[string]any, bool)
}

// PathString is a bare path or other string value.
type PathString string

func (PathString) isItem() {}

// AsMap implements Item; PathString carries no keyed fields.
func (PathString) AsMap() (map[string]any, bool) { return nil, false }

// Transition is produced by path mapping: an input path paired with the
// path it maps to.
type Transition struct {
	Src string `yaml:"src" json:"src"`
	Dst string `yaml:"dst" json:"dst"`
}

func (Transition) isItem() {}

// AsMap implements Item.
func (t Transition) AsMap() (map[string]any, bool) {
	return map[string]any{"src": t.Src, "dst": t.Dst}, true
}

// Sequence represents a shot: a contiguous run of frame files sharing a
// path-mapped base path, produced by path-mapping reduction.
type Sequence struct {
	Files    []string `yaml:"files" json:"files"`
	BasePath string   `yaml:"base_path" json:"base_path"`
}

func (Sequence) isItem() {}

// AsMap implements Item.
func (s Sequence) AsMap() (map[string]any, bool) {
	return map[string]any{"files": s.Files, "base_path": s.BasePath}, true
}

// Generic is a domain-specific record with arbitrary keys, produced by
// tasks such as parsepath whose shape isn't one of the other three.
type Generic map[string]any

func (Generic) isItem() {}

// AsMap implements Item.
func (g Generic) AsMap() (map[string]any, bool) { return map[string]any(g), true }

// Classify inspects a value decoded from YAML (or produced by a task at
// runtime) and returns the Item shape it represents. Values that are
// already typed records pass through unchanged.
func Classify(v any) Item {
	switch t := v.(type) {
	case Item:
		return t
	case string:
		return PathString(t)
	case map[string]any:
		return classifyMap(t)
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = val
		}
		return classifyMap(m)
	default:
		return Generic(map[string]any{"item": v})
	}
}

func classifyMap(m map[string]any) Item {
	if src, hasSrc := m["src"]; hasSrc {
		if dst, hasDst := m["dst"]; hasDst {
			if len(m) == 2 {
				return Transition{Src: fmt.Sprint(src), Dst: fmt.Sprint(dst)}
			}
		}
	}
	if files, hasFiles := m["files"]; hasFiles {
		if basePath, hasBase := m["base_path"]; hasBase {
			list, _ := files.([]string)
			if list == nil {
				if raw, ok := files.([]any); ok {
					for _, f := range raw {
						list = append(list, fmt.Sprint(f))
					}
				}
			}
			return Sequence{Files: list, BasePath: fmt.Sprint(basePath)}
		}
	}
	return Generic(m)
}

// Value unwraps an Item back to a plain Go value (string or map) suitable
// for re-serialization or for passing into a task's own result list.
func Value(item Item) any {
	switch t := item.(type) {
	case PathString:
		return string(t)
	case Transition:
		return map[string]any{"src": t.Src, "dst": t.Dst}
	case Sequence:
		files := make([]any, len(t.Files))
		for i, f := range t.Files {
			files[i] = f
		}
		return map[string]any{"files": files, "base_path": t.BasePath}
	case Generic:
		return map[string]any(t)
	default:
		return nil
	}
}
