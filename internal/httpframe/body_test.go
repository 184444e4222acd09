package httpframe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadBodyFile_JoinsLinesWithNewline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "body.html")
	require.NoError(t, os.WriteFile(path, []byte("line one\nline two\nline three\n"), 0o644))

	body, err := ReadBodyFile(path)
	require.NoError(t, err)
	require.Equal(t, "line one\nline two\nline three", string(body))
}

func TestReadBodyFile_MissingFileErrors(t *testing.T) {
	_, err := ReadBodyFile(filepath.Join(t.TempDir(), "missing.html"))
	require.Error(t, err)
}
