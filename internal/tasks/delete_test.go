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

func TestDeleteRemovesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.exr")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	dt := &DeleteTask{}
	result, err := dt.Run(context.Background(), task.Args{"path": path}, false)
	require.NoError(t, err)
	assert.Equal(t, path, result)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "expected file to be removed")
}

func TestDeleteMissingFileWarnsWithoutError(t *testing.T) {
	dt := &DeleteTask{}
	result, err := dt.Run(context.Background(), task.Args{"path": "/nonexistent/f.exr"}, false)
	require.NoError(t, err)
	assert.Equal(t, "/nonexistent/f.exr", result)
}

func TestDeleteUsesImplicitItem(t *testing.T) {
	dt := &DeleteTask{}
	assert.NoError(t, dt.Validate(task.Args{"item": "/a.exr"}))
}

func TestDeleteDryRunDoesNotTouchFilesystem(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.exr")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	dt := &DeleteTask{}
	_, err := dt.Run(context.Background(), task.Args{"path": path}, true)
	require.NoError(t, err)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "dry-run must not delete the file")
}
