package tasks

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hristovelev/crunchize/internal/task"
)

func TestThumbnailPicksMidFrame(t *testing.T) {
	tt := &ThumbnailTask{}
	dir := t.TempDir()
	files := []any{"/a/f1.exr", "/a/f2.exr", "/a/f3.exr", "/a/f4.exr"}
	out := filepath.Join(dir, "thumb")

	result, err := tt.Run(context.Background(), task.Args{
		"input_files":    files,
		"output_path":    out,
		"sourcelocation": 0.5,
	}, true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "thumb.jpg"), result)
}

func TestThumbnailResolvesFilesFromImplicitItem(t *testing.T) {
	files := []any{"/a/f1.exr", "/a/f2.exr"}
	got := thumbnailInputFiles(task.Args{"item": files})
	assert.Len(t, got, 2)
}

func TestThumbnailOutOfRangeLocationClampsToLastFrame(t *testing.T) {
	tt := &ThumbnailTask{}
	dir := t.TempDir()
	result, err := tt.Run(context.Background(), task.Args{
		"input_files":    []any{"/a/f1.exr", "/a/f2.exr"},
		"output_path":    filepath.Join(dir, "thumb"),
		"sourcelocation": 2.0,
	}, true)
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestThumbnailValidateRequiresFiles(t *testing.T) {
	tt := &ThumbnailTask{}
	assert.Error(t, tt.Validate(task.Args{"output_path": "/out.jpg"}))
}
