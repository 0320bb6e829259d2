package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oliveplex/oliveplex/internal/directory"
)

func TestFlatTree(t *testing.T) {
	cat, resolver := newTestCatalog(t, mediaTree(t))

	root := resolveTarget(t, resolver, "Movies")
	items, _, err := cat.FlatTree(context.Background(), root)
	require.NoError(t, err)

	byPath := map[directory.RelativePath]Item{}
	for _, item := range items {
		byPath[item.Base().RelativePath] = item
	}

	require.Contains(t, byPath, directory.RelativePath("Movies"))
	require.Contains(t, byPath, directory.RelativePath("Movies/Heat (1995)"))
	require.Contains(t, byPath, directory.RelativePath("Movies/Alien Collection"))
	require.Contains(t, byPath, directory.RelativePath("Movies/Alien Collection/Alien 3 (1992)"))
	require.Contains(t, byPath, directory.RelativePath("Movies/The Wire (2002)/Season 1"))

	assert.IsType(t, &Library{}, byPath["Movies"])
	assert.IsType(t, &Movie{}, byPath["Movies/Heat (1995)"])
	assert.IsType(t, &Collection{}, byPath["Movies/Alien Collection"])
	assert.IsType(t, &Folder{}, byPath["Movies/The Wire (2002)/Season 1"])
}

func TestFlatTreeIsOrderedAndShallow(t *testing.T) {
	cat, resolver := newTestCatalog(t, mediaTree(t))

	root := resolveTarget(t, resolver, "Movies")
	items, files, err := cat.FlatTree(context.Background(), root)
	require.NoError(t, err)

	for i := 1; i < len(items); i++ {
		assert.Less(t, items[i-1].Base().RelativePath, items[i].Base().RelativePath)
	}

	series, ok := byRelativePath(items, "Movies/The Wire (2002)").(*Series)
	require.True(t, ok)
	assert.Nil(t, series.Seasons)
	assert.Equal(t, 2, series.NumSeasons)

	for i := 1; i < len(files); i++ {
		assert.Less(t, files[i-1].RelativePath, files[i].RelativePath)
	}
}

func TestFlatTreeClassifiesLeafFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "Photos/Summer/IMG_20230614_153045.jpg")
	touch(t, root, "Photos/Summer/IMG_20230615_090000.jpg")
	touch(t, root, "Photos/Summer/index.db")
	cat, resolver := newTestCatalog(t, root)

	start := resolveTarget(t, resolver, "Photos")
	_, files, err := cat.FlatTree(context.Background(), start)
	require.NoError(t, err)

	require.Len(t, files, 2)
	assert.Equal(t, directory.RelativePath("Photos/Summer/IMG_20230614_153045.jpg"), files[0].RelativePath)
	assert.Equal(t, FilePhoto, files[0].FileType)
	assert.Equal(t, directory.RelativePath("Photos/Summer/IMG_20230615_090000.jpg"), files[1].RelativePath)

	// The walk fills the file cache, unrecognized extensions included.
	_, _, cachedFiles := cat.CacheSizes()
	assert.Equal(t, 3, cachedFiles)
}

func byRelativePath(items []Item, rel directory.RelativePath) Item {
	for _, item := range items {
		if item.Base().RelativePath == rel {
			return item
		}
	}
	return nil
}
