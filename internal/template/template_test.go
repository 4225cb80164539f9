package template

import (
	"reflect"
	"testing"
)

func TestResolveWholeExpressionPreservesType(t *testing.T) {
	r := New()
	ctx := map[string]any{"frame_index": 7}

	got := r.Resolve("{{ frame_index }}", ctx)
	if got != 7 {
		t.Errorf("Resolve() = %#v (%T), want int 7", got, got)
	}
}

func TestResolveInterpolation(t *testing.T) {
	r := New()
	ctx := map[string]any{"shot": "010", "frame": 12}

	got := r.Resolve("{{ shot }}_v{{ frame }}.exr", ctx)
	if got != "010_v12.exr" {
		t.Errorf("Resolve() = %v", got)
	}
}

func TestResolveUnresolvedLeftIntact(t *testing.T) {
	r := New()
	got := r.Resolve("prefix_{{ missing }}_suffix", map[string]any{})
	if got != "prefix_{{ missing }}_suffix" {
		t.Errorf("Resolve() = %v", got)
	}
}

func TestResolvePathTraversal(t *testing.T) {
	r := New()
	ctx := map[string]any{
		"item": map[string]any{
			"src": "/plates/a.0001.exr",
			"tags": []any{"hero", "wide"},
		},
	}

	if got := r.Resolve("{{ item.src }}", ctx); got != "/plates/a.0001.exr" {
		t.Errorf("item.src = %v", got)
	}
	if got := r.Resolve("{{ item.tags[1] }}", ctx); got != "wide" {
		t.Errorf("item.tags[1] = %v", got)
	}
	if got := r.Resolve(`{{ item['src'] }}`, ctx); got != "/plates/a.0001.exr" {
		t.Errorf("item['src'] = %v", got)
	}
}

func TestFilterBasenameDirname(t *testing.T) {
	r := New()
	ctx := map[string]any{"path": "/plates/shot010/a.0001.exr"}

	if got := r.Resolve("{{ path | basename }}", ctx); got != "a.0001.exr" {
		t.Errorf("basename = %v", got)
	}
	if got := r.Resolve("{{ path | dirname }}", ctx); got != "/plates/shot010" {
		t.Errorf("dirname = %v", got)
	}
}

func TestFilterReplace(t *testing.T) {
	r := New()
	ctx := map[string]any{"path": "/plates/shot010/a.exr"}

	got := r.Resolve(`{{ path | replace('plates','renders') }}`, ctx)
	if got != "/renders/shot010/a.exr" {
		t.Errorf("replace = %v", got)
	}
}

func TestFilterMapAttribute(t *testing.T) {
	r := New()
	ctx := map[string]any{
		"items": []any{
			map[string]any{"src": "a.exr"},
			map[string]any{"src": "b.exr"},
		},
	}

	got := r.Resolve(`{{ items | map(attribute='src') }}`, ctx)
	want := []any{"a.exr", "b.exr"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("map = %#v, want %#v", got, want)
	}
}

func TestFilterListWrapsSingleValue(t *testing.T) {
	r := New()
	ctx := map[string]any{"path": "a.exr"}

	got := r.Resolve("{{ path | list }}", ctx)
	want := []any{"a.exr"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("list = %#v, want %#v", got, want)
	}
}

func TestFilterNoOpOnWrongShape(t *testing.T) {
	r := New()
	ctx := map[string]any{"n": 42}

	got := r.Resolve("{{ n | basename }}", ctx)
	if got != 42 {
		t.Errorf("basename on non-string should no-op, got %v", got)
	}
}

func TestResolveListAndMap(t *testing.T) {
	r := New()
	ctx := map[string]any{"shot": "010"}

	got := r.Resolve([]any{"{{ shot }}.exr", 5}, ctx)
	want := []any{"010.exr", 5}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("list resolve = %#v, want %#v", got, want)
	}

	gotMap := r.Resolve(map[string]any{"name": "{{ shot }}"}, ctx)
	wantMap := map[string]any{"name": "010"}
	if !reflect.DeepEqual(gotMap, wantMap) {
		t.Errorf("map resolve = %#v, want %#v", gotMap, wantMap)
	}
}

func TestDynamicRootsSuppressWarning(t *testing.T) {
	r := New()
	warned := false
	r.Warn = func(expr string) { warned = true }

	r.Resolve("{{ item.src }}", map[string]any{})
	if warned {
		t.Error("dynamic root 'item' should not warn when absent")
	}
}

func TestUnknownRootWarns(t *testing.T) {
	r := New()
	var warnedExpr string
	r.Warn = func(expr string) { warnedExpr = expr }

	r.Resolve("{{ nonexistent_var }}", map[string]any{})
	if warnedExpr != "nonexistent_var" {
		t.Errorf("expected warning for nonexistent_var, got %q", warnedExpr)
	}
}

func TestRecursionDepthBounded(t *testing.T) {
	r := New()
	ctx := map[string]any{"a": "{{ a }}"}

	var warned []string
	r.Warn = func(expr string) { warned = append(warned, expr) }

	// Self-referential variable must not infinite-loop; it returns
	// eventually rather than raising.
	got := r.Resolve("{{ a }}", ctx)
	if got != "{{ a }}" {
		t.Errorf("Resolve() = %v, want the literal unresolved text", got)
	}
	if len(warned) == 0 {
		t.Error("expected Warn to be called when recursion depth is exceeded")
	}
}
