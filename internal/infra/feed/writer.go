package feed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"repo-digest/internal/domain/entity"
)

// Writer renders feeds and writes them under Dir.
type Writer struct {
	Dir string
}

// NewWriter returns a Writer rooted at dir. The directory is created on
// first write.
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir}
}

// WriteFeed renders feed and atomically replaces Dir/name with it. name is
// slash-separated and must stay inside Dir. It returns the bytes written.
func (w *Writer) WriteFeed(ctx context.Context, name string, feed entity.Feed) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	path, err := w.resolve(name)
	if err != nil {
		return 0, err
	}

	data, err := Render(feed)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("create output directory: %w", err)
	}
	if err := writeAtomic(path, data); err != nil {
		return 0, err
	}
	return len(data), nil
}

func (w *Writer) resolve(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("feed name %q escapes the output directory", name)
	}
	return filepath.Join(w.Dir, clean), nil
}

// writeAtomic writes data to a temporary file next to path, syncs it, and
// renames it over path, so readers see either the old or the new feed.
func writeAtomic(path string, data []byte) error {
	file, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary feed file: %w", err)
	}
	temporaryPath := file.Name()

	// Write, sync, close, in that order. On failure remove the temporary file.
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("write temporary feed file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("sync temporary feed file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("close temporary feed file: %w", err)
	}
	if err := os.Chmod(temporaryPath, 0o644); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("chmod temporary feed file: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("rename feed file into place: %w", err)
	}
	return nil
}
