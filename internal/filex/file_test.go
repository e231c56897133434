package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesNestedDirectory(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "data", "backups")

	got, err := EnsureDir(target)
	require.NoError(t, err)
	require.Equal(t, target, got)

	fi, err := os.Stat(target)
	require.NoError(t, err)
	require.True(t, fi.IsDir())

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), fi.Mode().Perm()&0o700)
	}
}

func TestEnsureDir_Idempotent(t *testing.T) {
	target := filepath.Join(t.TempDir(), "data")

	first, err := EnsureDir(target)
	require.NoError(t, err)
	second, err := EnsureDir(target)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestEnsureDir_FailsIfFileWithSameNameExists(t *testing.T) {
	target := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o660))

	_, err := EnsureDir(target)
	require.Error(t, err)
}

func TestWriteFileAtomic_ReplacesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")

	require.NoError(t, WriteFileAtomic(path, []byte(`{"v":1}`), 0o600))
	require.NoError(t, WriteFileAtomic(path, []byte(`{"v":2}`), 0o600))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, `{"v":2}`, string(b))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not linger")
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	err := WriteFileAtomic(filepath.Join(t.TempDir(), "nope", "x.json"), []byte("x"), 0o600)
	require.Error(t, err)
}
