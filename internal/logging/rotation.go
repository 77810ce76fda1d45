package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// RotationConfig bounds the size of a log file.
type RotationConfig struct {
	// MaxSizeMB triggers rotation once a write would exceed it. 0 disables
	// rotation.
	MaxSizeMB int
	// MaxBackups is how many rotated files to keep. With 0 the file is
	// truncated instead.
	MaxBackups int
}

// DefaultRotationConfig returns 10 MB files with three backups.
func DefaultRotationConfig() RotationConfig {
	return RotationConfig{MaxSizeMB: 10, MaxBackups: 3}
}

// RotatingWriter appends to a log file and renames it to path.1 when the
// next write would push it past the limit; older backups move up one slot.
type RotatingWriter struct {
	mu      sync.Mutex
	path    string
	limit   int64
	backups int

	f    *os.File
	size int64
}

// NewRotatingWriter opens path for appending, creating parent directories.
func NewRotatingWriter(path string, cfg RotationConfig) (*RotatingWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	w := &RotatingWriter{
		path:    path,
		limit:   int64(cfg.MaxSizeMB) << 20,
		backups: cfg.MaxBackups,
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *RotatingWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	w.f, w.size = f, info.Size()
	return nil
}

// Write implements io.Writer. A failed rotation is reported on stderr and
// the write goes to whichever file could be reopened.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.f == nil {
		return 0, os.ErrClosed
	}
	if w.limit > 0 && w.size > 0 && w.size+int64(len(p)) > w.limit {
		if err := w.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "taskwatch: log rotation failed: %v\n", err)
		}
		if w.f == nil {
			return 0, fmt.Errorf("log file unavailable after failed rotation")
		}
	}

	n, err := w.f.Write(p)
	w.size += int64(n)
	return n, err
}

// rotate must be called with mu held.
func (w *RotatingWriter) rotate() error {
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	w.f = nil

	var moveErr error
	if w.backups > 0 {
		_ = os.Remove(w.backup(w.backups))
		for i := w.backups - 1; i >= 1; i-- {
			// Missing slots are expected until the backups fill up.
			_ = os.Rename(w.backup(i), w.backup(i+1))
		}
		moveErr = os.Rename(w.path, w.backup(1))
	} else {
		moveErr = os.Remove(w.path)
	}

	if err := w.open(); err != nil {
		return fmt.Errorf("reopen after rotation: %w", err)
	}
	if moveErr != nil && !os.IsNotExist(moveErr) {
		return fmt.Errorf("move log file aside: %w", moveErr)
	}
	return nil
}

func (w *RotatingWriter) backup(n int) string {
	return fmt.Sprintf("%s.%d", w.path, n)
}

// Size returns the number of bytes in the current file.
func (w *RotatingWriter) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Close syncs and closes the file. Further calls are no-ops.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.f == nil {
		return nil
	}
	f := w.f
	w.f = nil
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to sync log file: %w", err)
	}
	return f.Close()
}
