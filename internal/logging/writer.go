package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// CappedWriter implements io.Writer with a size cap: when the file
// exceeds the cap it is truncated and writing starts over. Simpler
// than full rotation, sufficient for a library-side log.
type CappedWriter struct {
	path    string
	maxSize int64

	mu      sync.Mutex
	file    *os.File
	written int64
}

// NewCappedWriter creates a size-capped log writer.
// maxSizeMB is the maximum size in megabytes before truncation.
func NewCappedWriter(path string, maxSizeMB int) (*CappedWriter, error) {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	w := &CappedWriter{
		path:    path,
		maxSize: int64(maxSizeMB) * 1024 * 1024,
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	if err := w.openFile(); err != nil {
		return nil, err
	}
	return w, nil
}

// Write implements io.Writer with automatic truncation at the cap.
func (w *CappedWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.written+int64(len(p)) > w.maxSize {
		if err := w.reopen(); err != nil {
			// Keep writing to the current file if truncation fails.
			_, _ = fmt.Fprintf(os.Stderr, "log truncation failed: %v\n", err)
		}
	}

	n, err = w.file.Write(p)
	w.written += int64(n)
	return
}

// Sync flushes the file to disk.
func (w *CappedWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}

// Close closes the underlying file.
func (w *CappedWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *CappedWriter) openFile() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	w.file = f
	w.written = info.Size()
	return nil
}

func (w *CappedWriter) reopen() error {
	if w.file != nil {
		_ = w.file.Close()
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	w.file = f
	w.written = 0
	return nil
}
