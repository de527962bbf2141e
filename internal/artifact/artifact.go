package artifact

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// File is one destination and its content.
type File struct {
	Path string
	Data []byte
}

// WritePair writes both files or leaves both destinations as they were.
// Content goes to temp files next to each destination first. An existing
// first destination is moved aside before the temps are renamed into place
// and is restored if the second rename fails.
func WritePair(first, second File) error {
	if first.Path == "" || second.Path == "" {
		return errors.New("artifact paths are required")
	}
	if filepath.Clean(first.Path) == filepath.Clean(second.Path) {
		return fmt.Errorf("artifact paths must differ: %s", first.Path)
	}

	firstTmp, err := writeTemp(first)
	if err != nil {
		return err
	}
	secondTmp, err := writeTemp(second)
	if err != nil {
		_ = os.Remove(firstTmp)
		return err
	}

	backup, err := moveAside(first.Path)
	if err != nil {
		_ = os.Remove(firstTmp)
		_ = os.Remove(secondTmp)
		return fmt.Errorf("back up %s: %w", first.Path, err)
	}
	restore := func() {
		if backup == "" {
			_ = os.Remove(first.Path)
			return
		}
		_ = os.Rename(backup, first.Path)
	}

	if err := os.Rename(firstTmp, first.Path); err != nil {
		_ = os.Remove(firstTmp)
		_ = os.Remove(secondTmp)
		restore()
		return fmt.Errorf("install %s: %w", first.Path, err)
	}
	if err := os.Rename(secondTmp, second.Path); err != nil {
		_ = os.Remove(secondTmp)
		restore()
		return fmt.Errorf("install %s: %w", second.Path, err)
	}
	if backup != "" {
		_ = os.Remove(backup)
	}
	return nil
}

// moveAside renames an existing regular file at path to a backup next to it
// and returns the backup's name, or "" when there is nothing to keep.
func moveAside(path string) (string, error) {
	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s is not a regular file", path)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.bak")
	if err != nil {
		return "", err
	}
	backup := tmp.Name()
	if err := tmp.Close(); err != nil {
		_ = os.Remove(backup)
		return "", err
	}
	if err := os.Rename(path, backup); err != nil {
		_ = os.Remove(backup)
		return "", err
	}
	return backup, nil
}

func writeTemp(f File) (string, error) {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return "", err
	}
	name := tmp.Name()
	if _, err := tmp.Write(f.Data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return "", fmt.Errorf("write %s: %w", f.Path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("write %s: %w", f.Path, err)
	}
	if err := os.Chmod(name, 0o644); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}

// Unchanged reports whether path already holds data, so callers can skip a
// rewrite that would only bump modification times.
func Unchanged(f File) bool {
	current, err := os.ReadFile(f.Path)
	if err != nil {
		return false
	}
	return bytes.Equal(current, f.Data)
}
