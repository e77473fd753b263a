package atomicwrite

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteFile_CreatesDirsAndReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "settings.yaml")

	require.NoError(t, WriteFile(path, []byte("one"), 0o600))
	require.NoError(t, WriteFile(path, []byte("two"), 0o600))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "two", string(b))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp files left behind")
}

func TestWriteFrom_Limit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img.jpg")

	n, err := WriteFrom(path, strings.NewReader("12345"), 5, 0o644)
	require.NoError(t, err)
	require.EqualValues(t, 5, n)

	_, err = WriteFrom(path, strings.NewReader("123456"), 5, 0o644)
	require.ErrorIs(t, err, ErrTooLarge)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "12345", string(b), "previous content kept")
}
