package blob_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"chatmesh/pkg/blob"
)

func TestLocalSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	l, err := blob.NewLocal(dir, "/media/")
	require.NoError(t, err)

	stored, err := l.Save("photo.png", strings.NewReader("pngbytes"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(stored.URL, "/media/"))
	require.True(t, strings.HasSuffix(stored.PublicID, ".png"))

	data, err := os.ReadFile(filepath.Join(dir, stored.PublicID))
	require.NoError(t, err)
	require.Equal(t, "pngbytes", string(data))

	require.NoError(t, l.Delete(stored.PublicID))
	_, err = os.Stat(filepath.Join(dir, stored.PublicID))
	require.True(t, os.IsNotExist(err))

	// deleting a missing blob is fine
	require.NoError(t, l.Delete(stored.PublicID))
}

func TestLocalDeleteRejectsPathEscape(t *testing.T) {
	l, err := blob.NewLocal(t.TempDir(), "")
	require.NoError(t, err)
	require.Error(t, l.Delete("../escape"))
	require.Error(t, l.Delete(""))
}

func TestLocalPrefixNormalized(t *testing.T) {
	l, err := blob.NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)
	stored, err := l.Save("a.txt", strings.NewReader("x"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(stored.URL, "/uploads/"))
}
