package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/commute-alarm/internal/config"
)

// ErrNotFound is returned by Read when the file does not exist yet.
var ErrNotFound = errors.New("file not found")

// Read decodes the JSON file at path into v. An empty file leaves v untouched.
func Read(path string, v any) error {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}

		return fmt.Errorf("read %s: %w", path, err)
	}

	if len(contents) == 0 {
		return nil
	}

	if err = json.Unmarshal(contents, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	return nil
}

// Write encodes v and replaces the file at path through a temporary file and rename,
// so readers observe either the old or the new document.
func Write(path string, v any) error {
	path = filepath.Clean(path)

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("ensure directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpPath := tmp.Name()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)

		return fmt.Errorf("write temp file: %w", err)
	}

	if err = tmp.Chmod(config.DefaultFilePermissions); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)

		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("close temp file: %w", err)
	}

	if err = os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("replace %s: %w", path, err)
	}

	return nil
}
