package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Root is a handle to one storage directory.
// Every component that touches disk receives a Root explicitly, so tests can
// point each case at its own temporary directory.
type Root struct {
	dir string

	// writeMu serializes read-modify-write cycles against files under dir
	// for writers that share this Root.
	writeMu sync.Mutex
}

// NewRoot creates a handle for the given directory. The directory is not
// created until Ensure is called.
func NewRoot(dir string) *Root {
	return &Root{dir: filepath.Clean(dir)}
}

// Dir returns the root directory path.
func (r *Root) Dir() string {
	return r.dir
}

// Path joins elem onto the root directory.
func (r *Root) Path(elem ...string) string {
	return filepath.Join(append([]string{r.dir}, elem...)...)
}

// Ensure creates the root directory if it doesn't exist.
func (r *Root) Ensure() error {
	return EnsureDir(r.dir)
}

// WriteLock returns the mutex shared by all writers of this root.
func (r *Root) WriteLock() *sync.Mutex {
	return &r.writeMu
}

// EnsureDir creates dir and any missing parents. Idempotent.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// ReadJSON decodes the file at path into a T.
// A missing, unreadable or corrupt file yields fallback; it never fails.
func ReadJSON[T any](path string, fallback T) T {
	data, err := os.ReadFile(path)
	if err != nil {
		return fallback
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return fallback
	}
	return v
}

// WriteJSON encodes v and replaces path with it atomically: the bytes go to a
// temporary sibling first which is then renamed over the destination, so
// readers see either the old content or the new content, never a mix.
func WriteJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*"+TempSuffix)
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", filepath.Base(path), err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	// CreateTemp uses 0600; match what a plain write would produce.
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// TempSuffix marks the in-flight siblings created by WriteJSON.
const TempSuffix = ".tmp"
