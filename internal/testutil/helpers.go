package testutil

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stackvity/tab2space/pkg/converter"
)

// CreateDummyFile creates a file with the given content at path, creating
// parent directories as needed.
func CreateDummyFile(t *testing.T, path string, content string) {
	t.Helper()
	fullPath := filepath.Clean(path)
	dir := filepath.Dir(fullPath)
	err := os.MkdirAll(dir, 0o755)
	require.NoError(t, err, "Failed to create directory %s for dummy file", dir)
	err = os.WriteFile(fullPath, []byte(content), 0o644)
	require.NoError(t, err, "Failed to write dummy file %s", fullPath)
}

// CreateDummyDir ensures a directory exists at the given path, creating parents if needed.
func CreateDummyDir(t *testing.T, path string) {
	t.Helper()
	err := os.MkdirAll(filepath.Clean(path), 0o755)
	require.NoError(t, err, "Failed to create dummy directory %s", path)
}

// ReadFileString returns the content of path, failing the test if it cannot be read.
func ReadFileString(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err, "Failed to read %s", path)
	return string(data)
}

// NewTestLogger returns a debug-level text handler writing into the returned buffer.
func NewTestLogger() (slog.Handler, *bytes.Buffer) {
	buf := new(bytes.Buffer)
	return slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}), buf
}

// MustConfig builds a converter.Config or fails the test.
func MustConfig(t *testing.T, tabWidth int, safeMode, eraseTrailingSpace bool, extensions ...string) converter.Config {
	t.Helper()
	cfg, err := converter.NewConfig(tabWidth, safeMode, eraseTrailingSpace, extensions)
	require.NoError(t, err)
	return cfg
}
