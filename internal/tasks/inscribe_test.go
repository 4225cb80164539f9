package tasks

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hristovelev/crunchize/internal/task"
)

func TestFrameNumberOfExtractsFrame(t *testing.T) {
	assert.Equal(t, 1001, frameNumberOf("/a/shot.1001.exr"))
	assert.Equal(t, 0, frameNumberOf("/a/no_frame_here"))
}

func TestBuildFrameContextDerivesBasename(t *testing.T) {
	ctx := buildFrameContext(task.Args{}, "/a/shot_1001.exr")
	assert.Equal(t, 1001, ctx["frame"])
	assert.Equal(t, "shot_1001.exr", ctx["filename"])
	assert.Equal(t, "shot", ctx["basename"])
}

func TestParseGroupsAppliesDefaults(t *testing.T) {
	groups := parseGroups([]any{
		map[string]any{
			"items": []any{
				map[string]any{"type": "text", "source": "{{ frame }}"},
			},
		},
	})
	require.Len(t, groups, 1)
	g := groups[0]
	assert.Equal(t, "top-left", g.Anchor)
	assert.Equal(t, "vertical", g.Layout)
	assert.Equal(t, "start", g.Alignment)
}

func TestInscribeSlateRendersAndSkipsExisting(t *testing.T) {
	it := &InscribeTask{}
	dir := t.TempDir()
	out := filepath.Join(dir, "slate.jpg")

	args := task.Args{
		"type":        "slate",
		"output_path": out,
		"width":       64.0,
		"height":      48.0,
		"groups": []any{
			map[string]any{
				"anchor": "top-left",
				"items": []any{
					map[string]any{"type": "text", "source": "{{ frame }}", "color": "white"},
				},
			},
		},
	}

	require.NoError(t, it.Validate(args))
	result, err := it.Run(context.Background(), args, false)
	require.NoError(t, err)
	assert.Equal(t, out, result)

	_, statErr := os.Stat(out)
	require.NoError(t, statErr, "expected slate file to be written")

	// Second run with existing: skip must not re-render.
	args["existing"] = "skip"
	result2, err := it.Run(context.Background(), args, false)
	require.NoError(t, err)
	assert.Equal(t, out, result2)
}

func TestInscribeValidateRejectsUnknownType(t *testing.T) {
	it := &InscribeTask{}
	err := it.Validate(task.Args{
		"type":        "bogus",
		"output_path": "/out.jpg",
		"groups":      []any{},
	})
	assert.Error(t, err)
}

func TestMeasureTextNonEmpty(t *testing.T) {
	w, h := measureText("hello")
	assert.Positive(t, w)
	assert.Positive(t, h)
}
