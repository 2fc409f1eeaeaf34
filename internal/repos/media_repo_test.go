package repos_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmfresh/internal/repos"
)

func TestMedia_SaveAndRemove(t *testing.T) {
	dir := t.TempDir()
	m, err := repos.NewMediaRepo(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	require.NoError(t, m.Save("a.jpg", strings.NewReader("jpeg-bytes")))
	b, err := os.ReadFile(filepath.Join(dir, "uploads", "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(b))

	assert.Error(t, m.Save("a.jpg", strings.NewReader("again")), "existing files are not overwritten")

	require.NoError(t, m.Remove("a.jpg"))
	require.NoError(t, m.Remove("a.jpg"), "second remove is a no-op")
}

func TestMedia_PathStaysInDir(t *testing.T) {
	m := &repos.MediaRepo{Dir: "/srv/uploads"}
	assert.Equal(t, filepath.Join("/srv/uploads", "passwd"), m.Path("../../etc/passwd"))
	assert.Equal(t, filepath.Join("/srv/uploads", "x.png"), m.Path("/uploads/x.png"))
}
