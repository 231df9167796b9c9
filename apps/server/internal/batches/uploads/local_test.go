package uploads_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilsley/hgraph/apps/server/internal/batches"
	"github.com/tilsley/hgraph/apps/server/internal/batches/uploads"
)

// Smallest valid PNG header plus padding.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 64)...)

func TestSaveImage(t *testing.T) {
	dir := t.TempDir()
	s := uploads.NewLocalStore(dir)

	path, err := s.SaveImage(context.Background(), batches.CategorySEM, "../../etc/sem 1.png", bytes.NewReader(pngBytes))
	require.NoError(t, err)

	rel, err := filepath.Rel(dir, filepath.FromSlash(path))
	require.NoError(t, err)
	assert.Equal(t, "sem_images", filepath.Dir(rel))
	assert.True(t, strings.HasSuffix(rel, "_sem 1.png"), rel)

	got, err := os.ReadFile(filepath.FromSlash(path))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, got)
}

func TestSaveImage_RejectsNonImages(t *testing.T) {
	dir := t.TempDir()
	s := uploads.NewLocalStore(dir)

	_, err := s.SaveImage(context.Background(), batches.CategoryTEM, "notes.png", strings.NewReader("just some text"))
	require.ErrorIs(t, err, batches.ErrUnsupportedMedia)

	_, statErr := os.Stat(filepath.Join(dir, batches.CategoryTEM))
	assert.True(t, os.IsNotExist(statErr), "nothing is written for rejected uploads")
}

func TestSaveImage_Empty(t *testing.T) {
	_, err := uploads.NewLocalStore(t.TempDir()).SaveImage(context.Background(), batches.CategorySEM, "a.png", strings.NewReader(""))
	assert.ErrorIs(t, err, batches.ErrUnsupportedMedia)
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	s := uploads.NewLocalStore(dir)
	ctx := context.Background()

	path, err := s.SaveImage(ctx, batches.CategorySEM, "sem.png", bytes.NewReader(pngBytes))
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, path))
	_, statErr := os.Stat(filepath.FromSlash(path))
	assert.True(t, os.IsNotExist(statErr))

	assert.NoError(t, s.Remove(ctx, path), "already gone")
	assert.Error(t, s.Remove(ctx, filepath.ToSlash(filepath.Join(dir, "..", "elsewhere.png"))))
}
