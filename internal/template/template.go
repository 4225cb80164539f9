// Package template resolves {{ expression }} placeholders inside playbook
// values against a run's variables, task results, and per-item context.
package template

import (
	"fmt"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// maxDepth bounds recursive resolution of self-referential values, matching
// the original engine's recursion guard.
const maxDepth = 10

// dynamicRoots are expression roots that are expected to be absent outside
// an iterating context (e.g. a non-looped task referencing "item"); their
// absence is never warned about.
var dynamicRoots = map[string]bool{
	"item":        true,
	"items":       true,
	"task_results": true,
	"frame":        true,
	"first_frame":  true,
	"last_frame":   true,
	"filename":     true,
	"frame_index":  true,
}

// FilterFunc transforms a resolved value given its literal filter arguments.
// A filter that receives an operand of the wrong shape must return the
// value unchanged rather than erroring.
type FilterFunc func(value any, args []string) any

// Resolver walks playbook values and substitutes {{ expression }} occurrences.
type Resolver struct {
	Filters map[string]FilterFunc

	// Warn, when non-nil, is called for every root that fails to resolve
	// and is not in the dynamic set, and whenever recursive resolution
	// hits maxDepth without converging.
	Warn func(expr string)
}

// New returns a Resolver seeded with the fixed filter set.
func New() *Resolver {
	return &Resolver{Filters: defaultFilters()}
}

func defaultFilters() map[string]FilterFunc {
	return map[string]FilterFunc{
		"basename": filterBasename,
		"dirname":  filterDirname,
		"list":     filterList,
		"replace":  filterReplace,
		"map":      filterMap,
	}
}

var exprPattern = regexp.MustCompile(`\{\{\s*(.*?)\s*\}\}`)

// Resolve recursively substitutes expressions in value against context.
// Strings, slices, and maps are walked; all other types pass through.
func (r *Resolver) Resolve(value any, context map[string]any) any {
	return r.resolve(value, context, 0)
}

func (r *Resolver) resolve(value any, context map[string]any, depth int) any {
	if depth > maxDepth {
		if s, ok := value.(string); ok && r.Warn != nil {
			r.Warn(s)
		}
		return value
	}

	switch v := value.(type) {
	case string:
		return r.resolveString(v, context, depth)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = r.resolve(item, context, depth)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = r.resolve(item, context, depth)
		}
		return out
	default:
		return value
	}
}

func (r *Resolver) resolveString(s string, context map[string]any, depth int) any {
	matches := exprPattern.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return s
	}

	// Whole-string expression: preserve the resolved value's type.
	if len(matches) == 1 {
		m := matches[0]
		if m[0] == 0 && m[1] == len(s) {
			expr := s[m[2]:m[3]]
			resolved, ok := r.evaluate(expr, context)
			if !ok {
				return s
			}
			return r.resolve(resolved, context, depth+1)
		}
	}

	// String interpolation: substitute each occurrence with its string form,
	// leaving unresolved occurrences textually intact.
	var b strings.Builder
	last := 0
	changed := false
	for _, m := range matches {
		start, end := m[0], m[1]
		expr := s[m[2]:m[3]]
		b.WriteString(s[last:start])
		resolved, ok := r.evaluate(expr, context)
		if ok {
			b.WriteString(stringify(resolved))
			changed = true
		} else {
			b.WriteString(s[start:end])
		}
		last = end
	}
	b.WriteString(s[last:])
	out := b.String()
	if changed && out != s {
		return r.resolve(out, context, depth+1)
	}
	return out
}

// evaluate resolves a single "path | filter | filter" expression.
func (r *Resolver) evaluate(expr string, context map[string]any) (any, bool) {
	segments := splitFilterPipe(expr)
	if len(segments) == 0 {
		return nil, false
	}

	pathExpr := strings.TrimSpace(segments[0])
	value, root, ok := r.resolvePath(pathExpr, context)
	if !ok {
		if !dynamicRoots[root] && r.Warn != nil {
			r.Warn(expr)
		}
		return nil, false
	}

	for _, f := range segments[1:] {
		name, args := parseFilterCall(f)
		fn, known := r.Filters[name]
		if !known {
			continue
		}
		value = fn(value, args)
	}
	return value, true
}

// splitFilterPipe splits an expression on top-level '|' characters, ignoring
// pipes inside single or double quoted filter arguments.
func splitFilterPipe(expr string) []string {
	var parts []string
	var cur strings.Builder
	inSingle, inDouble := false, false
	for _, r := range expr {
		switch {
		case r == '\'' && !inDouble:
			inSingle = !inSingle
			cur.WriteRune(r)
		case r == '"' && !inSingle:
			inDouble = !inDouble
			cur.WriteRune(r)
		case r == '|' && !inSingle && !inDouble:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	parts = append(parts, cur.String())
	return parts
}

type pathSegment struct {
	key      string
	index    int
	isIndex  bool
}

var pathTokenPattern = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_]*)|(\.[a-zA-Z_][a-zA-Z0-9_]*)|(\[\d+\])|(\['[^']*'\])|(\["[^"]*"\])`)

// parsePath tokenizes an identifier path: ident(.ident | [int] | ['key'] | ["key"])*
func parsePath(pathExpr string) (root string, segments []pathSegment, ok bool) {
	rest := pathExpr
	first := true
	for len(rest) > 0 {
		loc := pathTokenPattern.FindStringIndex(rest)
		if loc == nil || loc[0] != 0 {
			return "", nil, false
		}
		tok := rest[loc[0]:loc[1]]
		rest = rest[loc[1]:]

		switch {
		case first:
			root = tok
			first = false
		case strings.HasPrefix(tok, "."):
			segments = append(segments, pathSegment{key: tok[1:]})
		case strings.HasPrefix(tok, "['") || strings.HasPrefix(tok, "[\""):
			segments = append(segments, pathSegment{key: tok[2 : len(tok)-2]})
		case strings.HasPrefix(tok, "["):
			n, _ := strconv.Atoi(tok[1 : len(tok)-1])
			segments = append(segments, pathSegment{index: n, isIndex: true})
		}
	}
	if first {
		return "", nil, false
	}
	return root, segments, true
}

// resolvePath resolves a dotted/bracketed path against context, returning
// the root name (for dynamic-root suppression) alongside the result.
func (r *Resolver) resolvePath(pathExpr string, context map[string]any) (any, string, bool) {
	root, segments, ok := parsePath(pathExpr)
	if !ok {
		return nil, "", false
	}

	current, ok := context[root]
	if !ok {
		return nil, root, false
	}

	for _, seg := range segments {
		var next any
		var found bool
		if seg.isIndex {
			next, found = indexInto(current, seg.index)
		} else {
			next, found = keyInto(current, seg.key)
		}
		if !found {
			return nil, root, false
		}
		current = next
	}
	return current, root, true
}

func keyInto(v any, key string) (any, bool) {
	switch t := v.(type) {
	case map[string]any:
		val, ok := t[key]
		return val, ok
	case map[any]any:
		val, ok := t[key]
		return val, ok
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Struct {
			field := rv.FieldByNameFunc(func(name string) bool {
				return strings.EqualFold(name, key)
			})
			if field.IsValid() {
				return field.Interface(), true
			}
		}
		return nil, false
	}
}

func indexInto(v any, idx int) (any, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if idx < 0 || idx >= rv.Len() {
		return nil, false
	}
	return rv.Index(idx).Interface(), true
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// parseFilterCall splits "name('a','b')" into its name and literal args.
func parseFilterCall(s string) (string, []string) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return s, nil
	}
	name := strings.TrimSpace(s[:open])
	inner := strings.TrimSuffix(s[open+1:], ")")
	var args []string
	for _, raw := range splitArgs(inner) {
		arg := strings.TrimSpace(raw)
		if eq := strings.IndexByte(arg, '='); eq >= 0 {
			arg = arg[eq+1:]
		}
		arg = strings.Trim(arg, `'"`)
		args = append(args, arg)
	}
	return name, args
}

func splitArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var parts []string
	var cur strings.Builder
	inSingle, inDouble := false, false
	for _, r := range s {
		switch {
		case r == '\'' && !inDouble:
			inSingle = !inSingle
			cur.WriteRune(r)
		case r == '"' && !inSingle:
			inDouble = !inDouble
			cur.WriteRune(r)
		case r == ',' && !inSingle && !inDouble:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	parts = append(parts, cur.String())
	return parts
}

// --- filters ---

func filterBasename(value any, _ []string) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	return filepath.Base(s)
}

func filterDirname(value any, _ []string) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	return filepath.Dir(s)
}

func filterList(value any, _ []string) any {
	if _, ok := value.([]any); ok {
		return value
	}
	return []any{value}
}

func filterReplace(value any, args []string) any {
	s, ok := value.(string)
	if !ok || len(args) < 2 {
		return value
	}
	return strings.ReplaceAll(s, args[0], args[1])
}

func filterMap(value any, args []string) any {
	list, ok := value.([]any)
	if !ok || len(args) < 1 {
		return value
	}
	attr := args[0]
	out := make([]any, 0, len(list))
	for _, item := range list {
		if v, found := keyInto(item, attr); found {
			out = append(out, v)
		}
	}
	return out
}
