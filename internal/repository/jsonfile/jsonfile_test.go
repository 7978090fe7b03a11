package jsonfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type document struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TestRead_NotFound verifies Read returns ErrNotFound for a missing file.
func TestRead_NotFound(t *testing.T) {
	t.Parallel()

	var doc document
	require.ErrorIs(t, Read(filepath.Join(t.TempDir(), "missing.json"), &doc), ErrNotFound)
}

// TestWriteRead_Roundtrip ensures Write followed by Read returns the same document.
func TestWriteRead_Roundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "doc.json")
	want := document{Name: "alarms", Count: 3}

	require.NoError(t, Write(path, want))

	var got document
	require.NoError(t, Read(path, &got))
	require.Equal(t, want, got)

	// No temporary files are left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

// TestRead_Corrupted reports a decode error.
func TestRead_Corrupted(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

	var doc document
	err := Read(path, &doc)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}

// TestRead_Empty leaves the target untouched.
func TestRead_Empty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	doc := document{Name: "keep"}
	require.NoError(t, Read(path, &doc))
	require.Equal(t, "keep", doc.Name)
}
