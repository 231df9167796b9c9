// Package uploads stores analysis attachments on the local filesystem.
package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/tilsley/hgraph/apps/server/internal/batches"
)

// sniffLen is how much of an upload is read to detect its type.
const sniffLen = 3072

// Compile-time check: *LocalStore implements batches.FileStore.
var _ batches.FileStore = (*LocalStore)(nil)

// LocalStore writes uploads below a root directory as
// <root>/<category>/<uuid>_<name>.
type LocalStore struct {
	root string
}

// NewLocalStore creates a LocalStore rooted at dir.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{root: dir}
}

// Root returns the directory uploads are written to.
func (s *LocalStore) Root() string { return s.root }

// SaveImage writes r to disk when its content is an image and returns the
// stored path in slash form.
func (s *LocalStore) SaveImage(ctx context.Context, category, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	if mime := detectMIME(head); !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("%s is %s: %w", filename, mime, batches.ErrUnsupportedMedia)
	}

	dir := filepath.Join(s.root, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	name := uuid.New().String() + "_" + cleanName(filename)
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := io.Copy(f, io.MultiReader(bytes.NewReader(head), r)); err != nil {
		f.Close()       //nolint:errcheck
		os.Remove(path) //nolint:errcheck
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return filepath.ToSlash(path), nil
}

// Remove deletes a stored upload. Paths outside the root are refused.
func (s *LocalStore) Remove(_ context.Context, path string) error {
	abs := filepath.Clean(filepath.FromSlash(path))
	rel, err := filepath.Rel(filepath.Clean(s.root), abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("%s is not below %s", path, s.root)
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// detectMIME prefers the stdlib sniffer and falls back to the broader
// mimetype signatures when it cannot tell.
func detectMIME(head []byte) string {
	if len(head) == 0 {
		return "application/octet-stream"
	}
	mt := http.DetectContentType(head)
	if mt != "application/octet-stream" {
		return mt
	}
	return mimetype.Detect(head).String()
}

func cleanName(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return name
}
