package catalog

import (
	"context"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/oliveplex/oliveplex/internal/directory"
)

// Extension sets, keyed without the leading dot.
var photoExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true,
}

var videoExtensions = map[string]bool{
	"mp4": true, "3gp": true, "3g2": true,
}

var audioExtensions = map[string]bool{
	"mp3": true, "m4a": true, "m4b": true, "aac": true,
}

// fileKindByExtension folds the three sets into one lookup table.
var fileKindByExtension = func() map[string]FileKind {
	kinds := make(map[string]FileKind)
	for ext := range photoExtensions {
		kinds[ext] = FilePhoto
	}
	for ext := range videoExtensions {
		kinds[ext] = FileVideo
	}
	for ext := range audioExtensions {
		kinds[ext] = FileAudio
	}
	return kinds
}()

// Catalog classifies media folders into typed catalog items and owns the
// three caches behind that work. One Catalog lives for the process; its
// caches are dropped only through Reload or EmptyCaches.
type Catalog struct {
	resolver *directory.Resolver
	probe    ProbeService
	metadata MetadataService
	progress WatchProgressService
	surprise SurpriseService

	mu      sync.RWMutex
	items   map[directory.RelativePath]Item
	details map[directory.RelativePath]*itemDetail
	files   map[directory.RelativePath]*LibraryFile

	// Per-key in-flight de-duplication: concurrent classification of the
	// same uncached path computes once.
	itemFlight   singleflight.Group
	detailFlight singleflight.Group

	// Bounds concurrent directory fan-out in the tree walker and season
	// extraction.
	fanout *semaphore.Weighted
}

// New builds a Catalog over the media root. Any collaborator may be nil;
// classification then degrades to name-only heuristics, and the joined
// fields stay empty.
func New(resolver *directory.Resolver, probe ProbeService, metadata MetadataService,
	progress WatchProgressService, surprise SurpriseService, scanConcurrency int,
) *Catalog {
	if scanConcurrency < 1 {
		scanConcurrency = 8
	}
	return &Catalog{
		resolver: resolver,
		probe:    probe,
		metadata: metadata,
		progress: progress,
		surprise: surprise,
		items:    make(map[directory.RelativePath]Item),
		details:  make(map[directory.RelativePath]*itemDetail),
		files:    make(map[directory.RelativePath]*LibraryFile),
		fanout:   semaphore.NewWeighted(int64(scanConcurrency)),
	}
}

// Classify turns a confirmed folder path into its catalog item. The base
// record is served from the item cache when possible; children and the
// surprise record are joined fresh on every call. With detailed=true the
// expensive expansion (seasons, tracks, chapters, extras) is joined from
// the detail cache; with withMetadata=true cinema items get remote
// metadata joined as well.
func (c *Catalog) Classify(ctx context.Context, path directory.ConfirmedPath, detailed, withMetadata bool) (Item, error) {
	base, err := c.baseItem(ctx, path)
	if err != nil {
		return nil, err
	}

	// Per-request joins happen on a copy, after the cache read.
	item := base.clone()
	listing := directory.List(path)
	children := make([]directory.RelativePath, 0, len(listing.Folders))
	for _, folder := range listing.Folders {
		children = append(children, folder.Path.RelativePath())
	}
	item.Base().Children = children
	if c.surprise != nil {
		item.Base().Surprise = c.surprise.Surprise(path)
	}

	if detailed {
		if err := c.applyDetails(ctx, path, item); err != nil {
			return nil, err
		}
	}
	if withMetadata {
		c.joinMetadata(ctx, path, item, false)
	}
	c.joinProgressDeep(item)
	return item, nil
}

// computeItem runs the ordered, first-match-wins classification rules.
// Re-running it on an unchanged tree yields a structurally identical item.
func (c *Catalog) computeItem(ctx context.Context, path directory.ConfirmedPath) (Item, error) {
	folderName := path.Name()
	pieces := ParseNamePieces(folderName)
	children := directory.List(path)

	// Rule 1 & 2: series and movies, both marked by a year on the folder.
	if pieces.Year != "" {
		seasonFolders := seasonFoldersOf(children)
		if len(seasonFolders) > 0 {
			return &Series{
				ItemBase:   c.baseFor(ItemCinema, path, folderName, pieces.Name, ""),
				CinemaType: CinemaSeries,
				Name:       pieces.Name,
				Year:       pieces.Year,
				NumSeasons: len(seasonFolders),
			}, nil
		}

		// A movie is a sibling .mp4 whose own name/year parse matches the
		// folder's.
		for _, file := range children.Files {
			if !strings.HasSuffix(file.Name, ".mp4") {
				continue
			}
			filePieces := ParseNamePieces(file.Name)
			if filePieces.Name != pieces.Name || filePieces.Year != pieces.Year {
				continue
			}
			return &Movie{
				ItemBase:   c.baseFor(ItemCinema, path, folderName, pieces.Name, ""),
				CinemaType: CinemaMovie,
				Name:       pieces.Name,
				Year:       pieces.Year,
				Main: &MoviePlayable{
					Type:         PlayMovie,
					Name:         pieces.Name,
					Year:         pieces.Year,
					Version:      filePieces.Version,
					FileName:     file.Name,
					RelativePath: file.Path.RelativePath(),
					path:         file.Path,
				},
			}, nil
		}
	}

	// Rule 3: every file is audio → album or audiobook, split by probing
	// the first file.
	if len(children.Files) > 0 && allAudioFiles(children.Files) {
		return c.audioItem(ctx, path, folderName, pieces, children), nil
	}

	// Rule 4: a root folder whose leaves identify a media kind is a
	// library.
	if path.RelativePath().Depth() == 1 {
		if libraryType := c.libraryTypeWithin(path); libraryType != "" {
			lib := &Library{
				ItemBase:    c.baseFor(ItemLibrary, path, folderName, pieces.Name, ""),
				LibraryType: libraryType,
				Name:        pieces.Name,
				path:        path,
			}
			return lib, nil
		}
	}

	feedOrder := FeedOrder(folderName)

	// Rule 5: every child folder carries a year → collection.
	if len(children.Folders) > 0 && allYearFolders(children.Folders) {
		return &Collection{
			ItemBase:  c.baseFor(ItemCollection, path, folderName, pieces.Name, ""),
			Name:      pieces.Name,
			FeedOrder: feedOrder,
		}, nil
	}

	// Rule 6: generic folder.
	return &Folder{
		ItemBase:  c.baseFor(ItemFolder, path, folderName, pieces.Name, ""),
		Name:      pieces.Name,
		FeedOrder: feedOrder,
	}, nil
}

// baseFor fills the shared fields of a new item.
func (c *Catalog) baseFor(itemType ItemType, path directory.ConfirmedPath, folderName, listName, sortYear string) ItemBase {
	pieces := ParseNamePieces(folderName)
	return ItemBase{
		Type:         itemType,
		FolderName:   folderName,
		RelativePath: path.RelativePath(),
		ListName:     listName,
		SortKey:      SortKey(folderName, sortYear),
		ImdbID:       pieces.ImdbID,
	}
}

// audioItem decides album vs audiobook from the first track's probe. A
// failed probe degrades to an album identified by folder name alone.
func (c *Catalog) audioItem(ctx context.Context, path directory.ConfirmedPath, folderName string, pieces NamePieces, children directory.Listing) Item {
	first := children.Files[0]
	track := c.probeTrack(ctx, first.Path)
	isM4b := strings.HasSuffix(strings.ToLower(first.Name), ".m4b")

	coverThumb := "/thumb/" + string(path.RelativePath()) + "/" + first.Name + "?width=300"
	cover := "/thumb/" + string(path.RelativePath()) + "/" + first.Name + "?width=500"

	if (track != nil && track.Genre == "Audiobook") || isM4b {
		strategy := ChaptersByTrack
		if isM4b {
			strategy = ChaptersEmbedded
		}
		book := &Audiobook{
			CoverThumb:      coverThumb,
			Cover:           cover,
			ChapterStrategy: strategy,
			Name:            pieces.Name,
			FileName:        path.AbsolutePath(),
			path:            path,
		}
		if track != nil {
			book.Title = track.Album
			book.Author = track.AlbumArtist
			if book.Author == "" {
				book.Author = track.Artist
			}
			book.Year = track.Year
			if track.Album != "" {
				book.Name = track.Album
			}
		}
		book.ItemBase = c.baseFor(ItemAudiobook, path, folderName, book.Name, book.Year)
		return book
	}

	album := &Album{
		CoverThumb: coverThumb,
		Cover:      cover,
		Name:       pieces.Name,
		FileName:   path.AbsolutePath(),
		path:       path,
	}
	if track != nil {
		album.Title = track.Album
		album.Artist = track.AlbumArtist
		if album.Artist == "" {
			album.Artist = track.Artist
		}
		album.Genre = track.Genre
		if track.Album != "" {
			album.Name = track.Album
		}
	}
	album.ItemBase = c.baseFor(ItemAlbum, path, folderName, album.Name, "")
	return album
}

// probeTrack shields classification from probe failures: errors log and
// degrade to nil.
func (c *Catalog) probeTrack(ctx context.Context, path directory.ConfirmedPath) *TrackData {
	if c.probe == nil {
		return nil
	}
	track, err := c.probe.TrackData(ctx, path)
	if err != nil {
		log.Printf("Catalog: probe failed for %s: %v", path.RelativePath(), err)
		return nil
	}
	return track
}

// libraryTypeWithin searches depth-first for the first leaf that gives the
// library away: an image means photos, an mp3 means audio, a year-tagged
// child folder means cinema.
func (c *Catalog) libraryTypeWithin(path directory.ConfirmedPath) LibraryType {
	children := directory.List(path)
	if len(children.Folders) == 0 && len(children.Files) == 0 {
		return ""
	}
	for _, file := range children.Files {
		lower := strings.ToLower(file.Name)
		if strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg") || strings.HasSuffix(lower, ".png") {
			return LibraryPhotos
		}
		if strings.HasSuffix(lower, ".mp3") {
			return LibraryAudio
		}
	}
	for _, folder := range children.Folders {
		if ParseNamePieces(folder.Name).Year != "" {
			return LibraryCinema
		}
	}
	for _, folder := range children.Folders {
		if libraryType := c.libraryTypeWithin(folder.Path); libraryType != "" {
			return libraryType
		}
	}
	return ""
}

// joinMetadata decorates cinema items with remote metadata. Failures and
// misses leave the field nil; the catalog never depends on the network.
func (c *Catalog) joinMetadata(ctx context.Context, path directory.ConfirmedPath, item Item, detailed bool) {
	if c.metadata == nil {
		return
	}
	var cinemaType CinemaType
	switch item.(type) {
	case *Movie:
		cinemaType = CinemaMovie
	case *Series:
		cinemaType = CinemaSeries
	default:
		return
	}
	meta, err := c.metadata.Metadata(ctx, cinemaType, path, detailed)
	if err != nil {
		log.Printf("Catalog: metadata lookup failed for %s: %v", path.RelativePath(), err)
		return
	}
	item.Base().Metadata = meta
}

// RootLibraries lists the media root and returns the children that
// classify as libraries, fully expanded.
func (c *Catalog) RootLibraries(ctx context.Context) ([]*Library, error) {
	listing := directory.List(c.resolver.Root())
	var libraries []*Library
	for _, folder := range listing.Folders {
		item, err := c.Classify(ctx, folder.Path, true, true)
		if err != nil {
			return nil, err
		}
		if library, ok := item.(*Library); ok {
			libraries = append(libraries, library)
		}
	}
	return libraries, nil
}

func seasonFoldersOf(children directory.Listing) []directory.Entry {
	var seasonFolders []directory.Entry
	for _, folder := range children.Folders {
		if strings.Contains(strings.ToLower(folder.Name), "season") {
			seasonFolders = append(seasonFolders, folder)
		}
	}
	return seasonFolders
}

func allAudioFiles(files []directory.Entry) bool {
	for _, file := range files {
		if !audioExtensions[extensionOf(file.Name)] {
			return false
		}
	}
	return true
}

func allYearFolders(folders []directory.Entry) bool {
	for _, folder := range folders {
		if ParseNamePieces(folder.Name).Year == "" {
			return false
		}
	}
	return true
}

// extensionOf returns the lowercased text after the last dot, without the
// dot itself.
func extensionOf(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}
