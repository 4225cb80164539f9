package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hristovelev/crunchize/internal/task"
)

func TestPathMapStandardSubstitution(t *testing.T) {
	pt := &PathMapTask{}
	result, err := pt.Run(context.Background(), task.Args{
		"search":     "/in",
		"replace":    "/out",
		"input_path": "/in/shot.1001.exr",
	}, false)
	require.NoError(t, err)

	m, ok := result.(map[string]any)
	require.True(t, ok, "result = %T, want map", result)
	assert.Equal(t, "/in/shot.1001.exr", m["src"])
	assert.Equal(t, "/out/shot.1001.exr", m["dst"])
}

func TestPathMapSeparatorHeuristic(t *testing.T) {
	pt := &PathMapTask{}
	result, err := pt.Run(context.Background(), task.Args{
		"search":     "/in/",
		"replace":    "/out",
		"input_path": "/in/shot.1001.exr",
	}, false)
	require.NoError(t, err)

	m := result.(map[string]any)
	assert.Equal(t, "/out/shot.1001.exr", m["dst"])
}

func TestPathMapReduceGroupsByShot(t *testing.T) {
	pt := &PathMapTask{}
	items := []any{
		"/in/shotA.1001.exr", "/in/shotA.1002.exr", "/in/shotB.1001.exr",
	}

	result, err := pt.Run(context.Background(), task.Args{
		"search":  "/in",
		"replace": "/out",
		"reduce":  true,
		"items":   items,
	}, false)
	require.NoError(t, err)

	groups, ok := result.([]any)
	require.True(t, ok, "result = %v, want []any", result)
	require.Len(t, groups, 2)

	first := groups[0].(map[string]any)
	assert.Equal(t, "/out/shotA", first["base_path"])
	files := first["files"].([]any)
	assert.Len(t, files, 2)
}

func TestPathMapInvalidRegexIsConfigError(t *testing.T) {
	pt := &PathMapTask{}
	err := pt.Validate(task.Args{"search": "(", "replace": "x", "regex": true})
	assert.Error(t, err)
}
