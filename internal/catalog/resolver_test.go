package catalog

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oliveplex/oliveplex/internal/directory"
)

// ──────────────────── Fixtures ────────────────────

type fakeProbe struct {
	mu    sync.Mutex
	data  map[string]*TrackData // keyed by file name
	calls int
}

func (f *fakeProbe) TrackData(ctx context.Context, path directory.ConfirmedPath) (*TrackData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if td, ok := f.data[path.Name()]; ok {
		return td, nil
	}
	return &TrackData{}, nil
}

type fakeProgress struct {
	records map[directory.RelativePath]*WatchProgress
}

func (f *fakeProgress) WatchProgress(path directory.ConfirmedPath) *WatchProgress {
	return f.records[path.RelativePath()]
}

type fakeSurprise struct {
	records map[directory.RelativePath]*SurpriseRecord
}

func (f *fakeSurprise) Surprise(path directory.ConfirmedPath) *SurpriseRecord {
	return f.records[path.RelativePath()]
}

func touch(t *testing.T, root string, rel string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte("x"), 0o644))
}

func mkdir(t *testing.T, root string, rel string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, filepath.FromSlash(rel)), 0o755))
}

// mediaTree builds the standard fixture used across the catalog tests.
func mediaTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	touch(t, root, "Movies/Heat (1995)/Heat (1995).mp4")
	touch(t, root, "Movies/Heat (1995)/Making Heat-behindthescenes.mp4")
	touch(t, root, "Movies/Heat (1995)/Teaser-trailer.mp4")
	touch(t, root, "Movies/Heat (1995)/notes.txt")

	touch(t, root, "Movies/Alien Collection/Alien (1979)/Alien (1979).mp4")
	touch(t, root, "Movies/Alien Collection/Alien 3 (1992)/Alien 3 (1992).mp4")

	touch(t, root, "Movies/The Wire (2002)/Season 1/The Wire s01e01.mp4")
	touch(t, root, "Movies/The Wire (2002)/Season 1/The Wire s01e02-e03.e03-1500000.mp4")
	touch(t, root, "Movies/The Wire (2002)/Season 1/The Wire s02e01.mp4")
	touch(t, root, "Movies/The Wire (2002)/Season 1/Recap-featurette.mp4")
	touch(t, root, "Movies/The Wire (2002)/Season 2/The Wire s02e02.mp4")

	touch(t, root, "Music/Greatest Hits/01 Song.mp3")
	touch(t, root, "Music/Greatest Hits/02 Tune.mp3")
	touch(t, root, "Music/A Memoir/A Memoir.m4b")

	touch(t, root, "Photos/Summer/IMG_20230614_153045.jpg")

	return root
}

func defaultProbe() *fakeProbe {
	return &fakeProbe{data: map[string]*TrackData{
		"01 Song.mp3": {
			Title: "Song", Artist: "The Band", Album: "Greatest Hits Vol 1",
			Genre: "Rock", TrackNumber: 1, TrackTotal: 2, Duration: 180,
		},
		"02 Tune.mp3": {
			Title: "Tune", Artist: "The Band", Album: "Greatest Hits Vol 1",
			Genre: "Rock", TrackNumber: 2, TrackTotal: 2, Duration: 240,
		},
		"A Memoir.m4b": {
			Title: "A Memoir", AlbumArtist: "An Author", Album: "A Memoir",
			Genre: "Audiobook", Year: "2011", Duration: 3600,
			Chapters: []ProbeChapter{
				{Title: "Chapter 1", StartTime: 0, Duration: 1200},
				{Title: "Chapter 2", StartTime: 1200, Duration: 2400},
			},
		},
	}}
}

func newTestCatalog(t *testing.T, root string) (*Catalog, *directory.Resolver) {
	t.Helper()
	resolver, err := directory.NewResolver(root)
	require.NoError(t, err)
	cat := New(resolver, defaultProbe(), nil,
		&fakeProgress{records: map[directory.RelativePath]*WatchProgress{}},
		&fakeSurprise{records: map[directory.RelativePath]*SurpriseRecord{}}, 4)
	return cat, resolver
}

func classify(t *testing.T, cat *Catalog, resolver *directory.Resolver, rel string, detailed bool) Item {
	t.Helper()
	path, err := resolver.Resolve(rel)
	require.NoError(t, err)
	item, err := cat.Classify(context.Background(), path, detailed, false)
	require.NoError(t, err)
	return item
}

// ──────────────────── Classification ────────────────────

func TestClassifyMovie(t *testing.T) {
	cat, resolver := newTestCatalog(t, mediaTree(t))

	item := classify(t, cat, resolver, "Movies/Heat (1995)", true)
	movie, ok := item.(*Movie)
	require.True(t, ok)

	assert.Equal(t, ItemCinema, movie.Type)
	assert.Equal(t, CinemaMovie, movie.CinemaType)
	assert.Equal(t, "Heat", movie.Name)
	assert.Equal(t, "1995", movie.Year)
	assert.Equal(t, "heat_1995", movie.SortKey)

	require.NotNil(t, movie.Main)
	assert.Equal(t, PlayMovie, movie.Main.Type)
	assert.Equal(t, "Heat (1995).mp4", movie.Main.FileName)
	assert.Equal(t, directory.RelativePath("Movies/Heat (1995)/Heat (1995).mp4"), movie.Main.RelativePath)

	require.Len(t, movie.Extras, 2)
	byName := map[string]*Extra{}
	for _, extra := range movie.Extras {
		byName[extra.Name] = extra
	}
	making := byName["Making Heat"]
	require.NotNil(t, making)
	require.NotNil(t, making.ExtraType)
	assert.Equal(t, ExtraBehindTheScenes, *making.ExtraType)
	assert.Equal(t, "/thumb/Movies/Heat (1995)/Making Heat-behindthescenes.mp4?width=300", making.StillThumb)

	teaser := byName["Teaser"]
	require.NotNil(t, teaser)
	require.NotNil(t, teaser.ExtraType)
	assert.Equal(t, ExtraTrailer, *teaser.ExtraType)
}

func TestClassifyCollection(t *testing.T) {
	cat, resolver := newTestCatalog(t, mediaTree(t))

	item := classify(t, cat, resolver, "Movies/Alien Collection", false)
	collection, ok := item.(*Collection)
	require.True(t, ok)
	assert.Equal(t, ItemCollection, collection.Type)
	assert.Equal(t, "Alien Collection", collection.Name)
	assert.Len(t, collection.Children, 2)
}

func TestClassifyFolderWithFeedOrder(t *testing.T) {
	root := mediaTree(t)
	mkdir(t, root, "Movies/Watchlist.feedorder-2/Unsorted")
	cat, resolver := newTestCatalog(t, root)

	item := classify(t, cat, resolver, "Movies/Watchlist.feedorder-2", false)
	folder, ok := item.(*Folder)
	require.True(t, ok)
	assert.Equal(t, ItemFolder, folder.Type)
	require.NotNil(t, folder.FeedOrder)
	assert.Equal(t, 2, *folder.FeedOrder)
}

func TestRootLibraries(t *testing.T) {
	cat, _ := newTestCatalog(t, mediaTree(t))

	libraries, err := cat.RootLibraries(context.Background())
	require.NoError(t, err)
	require.Len(t, libraries, 3)

	types := map[string]LibraryType{}
	for _, library := range libraries {
		types[library.FolderName] = library.LibraryType
	}
	assert.Equal(t, LibraryCinema, types["Movies"])
	assert.Equal(t, LibraryAudio, types["Music"])
	assert.Equal(t, LibraryPhotos, types["Photos"])
}

func TestClassifyAlbum(t *testing.T) {
	cat, resolver := newTestCatalog(t, mediaTree(t))

	item := classify(t, cat, resolver, "Music/Greatest Hits", true)
	album, ok := item.(*Album)
	require.True(t, ok)

	assert.Equal(t, ItemAlbum, album.Type)
	assert.Equal(t, "Greatest Hits Vol 1", album.Name)
	assert.Equal(t, "The Band", album.Artist)
	assert.Equal(t, "Rock", album.Genre)
	assert.Equal(t, "/thumb/Music/Greatest Hits/01 Song.mp3?width=500", album.Cover)
	assert.Equal(t, "/thumb/Music/Greatest Hits/01 Song.mp3?width=300", album.CoverThumb)

	require.Len(t, album.Tracks, 2)
	assert.Equal(t, "Song", album.Tracks[0].Title)
	assert.Equal(t, 0.0, album.Tracks[0].StartOffset)
	assert.Equal(t, "Tune", album.Tracks[1].Title)
	assert.Equal(t, 180.0, album.Tracks[1].StartOffset)
}

func TestClassifyAudiobook(t *testing.T) {
	cat, resolver := newTestCatalog(t, mediaTree(t))

	item := classify(t, cat, resolver, "Music/A Memoir", true)
	book, ok := item.(*Audiobook)
	require.True(t, ok)

	assert.Equal(t, ItemAudiobook, book.Type)
	assert.Equal(t, ChaptersEmbedded, book.ChapterStrategy)
	assert.Equal(t, "An Author", book.Author)
	assert.Equal(t, "2011", book.Year)
	assert.Equal(t, "memoir_2011", book.SortKey)

	require.Len(t, book.Chapters, 2)
	assert.Equal(t, "Chapter 1", book.Chapters[0].Title)
	assert.Equal(t, 0.0, book.Chapters[0].BookStartOffset)
	assert.Equal(t, "Chapter 2", book.Chapters[1].Title)
	assert.Equal(t, 1200.0, book.Chapters[1].BookStartOffset)
	assert.Equal(t, 1200.0, book.Chapters[1].TrackStartOffset)
	assert.Equal(t, 2400.0, book.Chapters[1].ChapterDuration)
}

// ──────────────────── Caching ────────────────────

func TestItemCacheSkipsVolatileTypes(t *testing.T) {
	cat, resolver := newTestCatalog(t, mediaTree(t))

	classify(t, cat, resolver, "Movies", false)
	classify(t, cat, resolver, "Movies/Alien Collection", false)
	items, _, _ := cat.CacheSizes()
	assert.Equal(t, 0, items)

	classify(t, cat, resolver, "Movies/Heat (1995)", false)
	items, _, _ = cat.CacheSizes()
	assert.Equal(t, 1, items)
}

func TestChildrenJoinedAfterCacheRead(t *testing.T) {
	root := mediaTree(t)
	cat, resolver := newTestCatalog(t, root)

	first := classify(t, cat, resolver, "Movies/The Wire (2002)", false)
	assert.Len(t, first.Base().Children, 2)

	mkdir(t, root, "Movies/The Wire (2002)/Season 3")
	second := classify(t, cat, resolver, "Movies/The Wire (2002)", false)
	assert.Len(t, second.Base().Children, 3)
}

func TestProgressJoinsStayPerRequest(t *testing.T) {
	root := mediaTree(t)
	resolver, err := directory.NewResolver(root)
	require.NoError(t, err)
	progress := &fakeProgress{records: map[directory.RelativePath]*WatchProgress{}}
	cat := New(resolver, defaultProbe(), nil, progress,
		&fakeSurprise{records: map[directory.RelativePath]*SurpriseRecord{}}, 4)

	first := classify(t, cat, resolver, "Movies/The Wire (2002)", true).(*Series)

	episodeRel := directory.RelativePath("Movies/The Wire (2002)/Season 1/The Wire s01e01.mp4")
	progress.records[episodeRel] = &WatchProgress{
		Time: 100, Duration: 200, Percentage: 50, RelativePath: episodeRel,
	}

	second := classify(t, cat, resolver, "Movies/The Wire (2002)", true).(*Series)

	// Each request owns its detail structures; joining progress onto one
	// result never leaks into another.
	assert.NotSame(t, first.Seasons[0].EpisodeFiles[0], second.Seasons[0].EpisodeFiles[0])
	assert.Nil(t, first.Seasons[0].EpisodeFiles[0].WatchProgress)
	require.NotNil(t, second.Seasons[0].EpisodeFiles[0].WatchProgress)
	assert.Equal(t, 50.0, second.Seasons[0].EpisodeFiles[0].WatchProgress.Percentage)

	movieOne := classify(t, cat, resolver, "Movies/Heat (1995)", true).(*Movie)
	movieTwo := classify(t, cat, resolver, "Movies/Heat (1995)", true).(*Movie)
	assert.NotSame(t, movieOne.Main, movieTwo.Main)
	require.Len(t, movieOne.Extras, 2)
	assert.NotSame(t, movieOne.Extras[0], movieTwo.Extras[0])
}

func TestDetailCachedUntilReload(t *testing.T) {
	root := mediaTree(t)
	cat, resolver := newTestCatalog(t, root)

	first := classify(t, cat, resolver, "Movies/Heat (1995)", true).(*Movie)
	require.Len(t, first.Extras, 2)

	touch(t, root, "Movies/Heat (1995)/Outtakes-deleted.mp4")

	stale := classify(t, cat, resolver, "Movies/Heat (1995)", true).(*Movie)
	assert.Len(t, stale.Extras, 2)

	path, err := resolver.Resolve("Movies/Heat (1995)")
	require.NoError(t, err)
	_, err = cat.Reload(context.Background(), path)
	require.NoError(t, err)

	fresh := classify(t, cat, resolver, "Movies/Heat (1995)", true).(*Movie)
	assert.Len(t, fresh.Extras, 3)
}

func TestClassifyFileCachesNegatives(t *testing.T) {
	cat, resolver := newTestCatalog(t, mediaTree(t))

	photo, err := resolver.Resolve("Photos/Summer/IMG_20230614_153045.jpg")
	require.NoError(t, err)
	file := cat.ClassifyFile(photo)
	require.NotNil(t, file)
	assert.Equal(t, FileItemType, file.Type)
	assert.Equal(t, FilePhoto, file.FileType)
	require.NotNil(t, file.TakenAt)

	notes, err := resolver.Resolve("Movies/Heat (1995)/notes.txt")
	require.NoError(t, err)
	assert.Nil(t, cat.ClassifyFile(notes))

	_, _, files := cat.CacheSizes()
	assert.Equal(t, 2, files)
}

func TestSurpriseJoined(t *testing.T) {
	root := mediaTree(t)
	resolver, err := directory.NewResolver(root)
	require.NoError(t, err)
	surprises := &fakeSurprise{records: map[directory.RelativePath]*SurpriseRecord{
		"Movies/Heat (1995)": {RelativePath: "Movies/Heat (1995)", Pin: "1234", Until: "2026-12-25T00:00:00Z"},
	}}
	cat := New(resolver, defaultProbe(), nil, nil, surprises, 4)

	item := classify(t, cat, resolver, "Movies/Heat (1995)", false)
	require.NotNil(t, item.Base().Surprise)
	assert.Equal(t, "1234", item.Base().Surprise.Pin)
}
