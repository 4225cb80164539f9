package pathinfer

import "testing"

func TestResolveStringItem(t *testing.T) {
	if got := Resolve("/plates/a.exr", Input); got != "/plates/a.exr" {
		t.Errorf("Resolve(string) = %q", got)
	}
}

func TestResolveInputPriority(t *testing.T) {
	item := map[string]any{
		"src":  "/plates/a.exr",
		"path": "/other/a.exr",
	}
	if got := Resolve(item, Input); got != "/plates/a.exr" {
		t.Errorf("Resolve() = %q, want src to win", got)
	}
}

func TestResolveOutputPriority(t *testing.T) {
	item := map[string]any{
		"dst":  "/renders/a.exr",
		"path": "/other/a.exr",
	}
	if got := Resolve(item, Output); got != "/renders/a.exr" {
		t.Errorf("Resolve() = %q, want dst to win", got)
	}
}

func TestResolveLegacySourceKey(t *testing.T) {
	item := map[string]any{"source": "/legacy/a.exr"}
	if got := Resolve(item, Input); got != "/legacy/a.exr" {
		t.Errorf("Resolve() = %q, want legacy source key", got)
	}
}

func TestResolveSuffixFallback(t *testing.T) {
	item := map[string]any{"proxy_file": "/proxies/a.exr", "other": 5}
	if got := Resolve(item, Input); got != "/proxies/a.exr" {
		t.Errorf("Resolve() = %q, want suffix match", got)
	}

	out := map[string]any{"render_path": "/renders/a.exr"}
	if got := Resolve(out, Output); got != "/renders/a.exr" {
		t.Errorf("Resolve() = %q, want suffix match", got)
	}
}

func TestResolveSingleStringFallback(t *testing.T) {
	item := map[string]any{"count": 3, "label": "a.exr"}
	if got := Resolve(item, Input); got != "a.exr" {
		t.Errorf("Resolve() = %q, want sole string fallback", got)
	}
}

func TestResolveAmbiguousReturnsEmpty(t *testing.T) {
	item := map[string]any{"a": "x.exr", "b": "y.exr"}
	if got := Resolve(item, Input); got != "" {
		t.Errorf("Resolve() = %q, want empty for ambiguous map", got)
	}
}

func TestResolveNonMapNonString(t *testing.T) {
	if got := Resolve(42, Input); got != "" {
		t.Errorf("Resolve(int) = %q, want empty", got)
	}
}
