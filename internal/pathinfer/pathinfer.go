// Package pathinfer implements the heuristics tasks use to pull a single
// file path out of whatever item shape they were handed, so individual
// task implementations don't each reinvent key-priority lookup.
package pathinfer

import "strings"

// Direction selects which key priority list applies.
type Direction int

const (
	// Input favors src/path/item/source, then any _file-suffixed key.
	Input Direction = iota
	// Output favors dst/path/item, then any _path-suffixed key.
	Output
)

var inputKeys = []string{"src", "path", "item", "source"}
var outputKeys = []string{"dst", "path", "item"}

// Resolve extracts a path string from an item for the given direction.
//
//  1. A string item is returned directly.
//  2. A map item is searched in priority order (src/path/item/source for
//     Input, dst/path/item for Output), then by suffix (_file for Input,
//     _path for Output).
//  3. If exactly one value in the map is a string, that value is used.
//  4. Otherwise the empty string is returned.
func Resolve(item any, dir Direction) string {
	if s, ok := item.(string); ok {
		return s
	}

	m, ok := asStringMap(item)
	if !ok {
		return ""
	}

	keys := inputKeys
	suffix := "_file"
	if dir == Output {
		keys = outputKeys
		suffix = "_path"
	}

	for _, k := range keys {
		if v, ok := m[k].(string); ok {
			return v
		}
	}

	for k, v := range m {
		s, isString := v.(string)
		if !isString {
			continue
		}
		if strings.HasSuffix(k, suffix) {
			return s
		}
	}

	var stringVals []string
	for _, v := range m {
		if s, isString := v.(string); isString {
			stringVals = append(stringVals, s)
		}
	}
	if len(stringVals) == 1 {
		return stringVals[0]
	}

	return ""
}

func asStringMap(item any) (map[string]any, bool) {
	switch t := item.(type) {
	case map[string]any:
		return t, true
	case interface{ AsMap() (map[string]any, bool) }:
		return t.AsMap()
	default:
		return nil, false
	}
}
