package directory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoot(t *testing.T) (string, *Resolver) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Movies", "Heat (1995)"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Movies", "Heat (1995)", "Heat (1995).mp4"), []byte("x"), 0o644))
	resolver, err := NewResolver(root)
	require.NoError(t, err)
	return root, resolver
}

func TestNewResolverRejectsMissingRoot(t *testing.T) {
	_, err := NewResolver(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestResolveRelative(t *testing.T) {
	_, resolver := newRoot(t)

	path, err := resolver.Resolve("Movies/Heat (1995)")
	require.NoError(t, err)
	assert.Equal(t, RelativePath("Movies/Heat (1995)"), path.RelativePath())
	assert.Equal(t, "Heat (1995)", path.Name())
	assert.False(t, path.IsRoot())
}

func TestResolveAbsoluteInsideRoot(t *testing.T) {
	root, resolver := newRoot(t)

	path, err := resolver.Resolve(filepath.Join(root, "Movies"))
	require.NoError(t, err)
	assert.Equal(t, RelativePath("Movies"), path.RelativePath())
}

func TestResolveEmptyIsRoot(t *testing.T) {
	_, resolver := newRoot(t)

	path, err := resolver.Resolve("")
	require.NoError(t, err)
	assert.True(t, path.IsRoot())
}

func TestResolveRejectsEscapes(t *testing.T) {
	_, resolver := newRoot(t)

	_, err := resolver.Resolve("../outside")
	assert.Error(t, err)
}

func TestResolveMissingPath(t *testing.T) {
	_, resolver := newRoot(t)

	_, err := resolver.Resolve("Movies/Does Not Exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRelativePathHelpers(t *testing.T) {
	rel := RelativePath("Movies/Heat (1995)/Heat (1995).mp4")
	assert.Equal(t, 3, rel.Depth())
	assert.Equal(t, "Heat (1995).mp4", rel.Name())
	assert.Equal(t, RelativePath("Movies/Heat (1995)"), rel.Parent())
	assert.Equal(t, RelativePath(""), RelativePath("Movies").Parent())
}

func TestListSplitsFoldersAndFiles(t *testing.T) {
	_, resolver := newRoot(t)

	movies, err := resolver.Resolve("Movies")
	require.NoError(t, err)
	listing := List(movies)
	require.Len(t, listing.Folders, 1)
	assert.Equal(t, "Heat (1995)", listing.Folders[0].Name)
	assert.Empty(t, listing.Files)

	heat, err := resolver.Resolve("Movies/Heat (1995)")
	require.NoError(t, err)
	listing = List(heat)
	assert.Empty(t, listing.Folders)
	require.Len(t, listing.Files, 1)
	assert.Equal(t, RelativePath("Movies/Heat (1995)/Heat (1995).mp4"), listing.Files[0].Path.RelativePath())
}

func TestListDegradesToEmpty(t *testing.T) {
	_, resolver := newRoot(t)

	file, err := resolver.Resolve("Movies/Heat (1995)/Heat (1995).mp4")
	require.NoError(t, err)
	listing := List(file)
	assert.Empty(t, listing.Folders)
	assert.Empty(t, listing.Files)
}
