package catalog

import (
	"github.com/oliveplex/oliveplex/internal/directory"
)

// ItemType discriminates the closed set of catalog node kinds.
type ItemType string

const (
	ItemLibrary    ItemType = "library"
	ItemFolder     ItemType = "folder"
	ItemCollection ItemType = "collection"
	ItemCinema     ItemType = "cinema"
	ItemAlbum      ItemType = "album"
	ItemAudiobook  ItemType = "audiobook"
)

// CinemaType splits cinema items into movies and series.
type CinemaType string

const (
	CinemaMovie  CinemaType = "movie"
	CinemaSeries CinemaType = "series"
)

// LibraryType is the kind of media a root library holds, judged by its
// leaf files.
type LibraryType string

const (
	LibraryCinema LibraryType = "cinema"
	LibraryPhotos LibraryType = "photos"
	LibraryAudio  LibraryType = "audio"
)

// ChapterStrategy says where audiobook chapter boundaries come from:
// embedded container chapters (.m4b) or one chapter per track file.
type ChapterStrategy string

const (
	ChaptersEmbedded ChapterStrategy = "chapters"
	ChaptersByTrack  ChapterStrategy = "tracks"
)

// ItemBase carries the fields shared by every catalog node. The joined
// fields (children, surprise, metadata) are filled per request, after the
// cache read, and are never part of the cached record.
type ItemBase struct {
	Type         ItemType               `json:"type"`
	FolderName   string                 `json:"folderName"`
	RelativePath directory.RelativePath `json:"relativePath"`
	ListName     string                 `json:"listName"`
	SortKey      string                 `json:"sortKey"`
	ImdbID       string                 `json:"imdbId,omitempty"`

	Children []directory.RelativePath `json:"children,omitempty"`
	Surprise *SurpriseRecord          `json:"surprise,omitempty"`
	Metadata *Metadata                `json:"metadata,omitempty"`
}

// Item is the catalog node sum type, discriminated by Base().Type.
type Item interface {
	// Base returns the shared fields of the node.
	Base() *ItemBase
	// clone returns a shallow copy so per-request joins never touch the
	// cached record.
	clone() Item
}

// Library is a root-level entity containing all of one kind of media.
type Library struct {
	ItemBase
	LibraryType LibraryType `json:"libraryType"`
	Name        string      `json:"name"`

	path directory.ConfirmedPath
}

func (l *Library) Base() *ItemBase { return &l.ItemBase }
func (l *Library) clone() Item     { c := *l; return &c }

// Path returns the confirmed location the library was classified from.
func (l *Library) Path() directory.ConfirmedPath { return l.path }

// Folder is a generic node that could contain anything.
type Folder struct {
	ItemBase
	Name      string `json:"name"`
	FeedOrder *int   `json:"feedOrder"`
}

func (f *Folder) Base() *ItemBase { return &f.ItemBase }
func (f *Folder) clone() Item     { c := *f; return &c }

// Collection is a specific group of media, like a movie series.
type Collection struct {
	ItemBase
	Name      string `json:"name"`
	FeedOrder *int   `json:"feedOrder"`

	// detail
	Extras []*Extra `json:"extras,omitempty"`
}

func (c *Collection) Base() *ItemBase { return &c.ItemBase }
func (c *Collection) clone() Item     { cp := *c; return &cp }

// Movie is a cinema item backed by a single main video file.
type Movie struct {
	ItemBase
	CinemaType CinemaType     `json:"cinemaType"`
	Name       string         `json:"name"`
	Year       string         `json:"year"`
	Main       *MoviePlayable `json:"movie"`

	// detail
	Extras []*Extra `json:"extras,omitempty"`
}

func (m *Movie) Base() *ItemBase { return &m.ItemBase }

// The main playable is copied too: duration and watch progress are joined
// per request and must not land on the cached record.
func (m *Movie) clone() Item {
	c := *m
	if m.Main != nil {
		main := *m.Main
		c.Main = &main
	}
	return &c
}

// Series is a cinema item with season subfolders.
type Series struct {
	ItemBase
	CinemaType CinemaType `json:"cinemaType"`
	Name       string     `json:"name"`
	Year       string     `json:"year"`
	NumSeasons int        `json:"numSeasons"`

	// detail
	Seasons []*Season `json:"seasons,omitempty"`
	Extras  []*Extra  `json:"extras,omitempty"`
}

func (s *Series) Base() *ItemBase { return &s.ItemBase }
func (s *Series) clone() Item     { c := *s; return &c }

// Album is a folder of audio tracks. The album itself is playable.
type Album struct {
	ItemBase
	Name          string         `json:"name"`
	Title         string         `json:"title,omitempty"`
	Artist        string         `json:"artist,omitempty"`
	Genre         string         `json:"genre,omitempty"`
	Year          string         `json:"year,omitempty"`
	Cover         string         `json:"cover"`
	CoverThumb    string         `json:"cover_thumb"`
	FileName      string         `json:"fileName"`
	WatchProgress *WatchProgress `json:"watchProgress,omitempty"`

	// detail
	Tracks []*Track `json:"tracks,omitempty"`

	path directory.ConfirmedPath
}

func (a *Album) Base() *ItemBase { return &a.ItemBase }
func (a *Album) clone() Item     { c := *a; return &c }

func (a *Album) PlayableType() PlayableType         { return PlayAlbum }
func (a *Album) PlayableRef() directory.RelativePath { return a.RelativePath }

// Audiobook is a folder of audio identified by its probe genre or a
// chaptered container. The book itself is playable.
type Audiobook struct {
	ItemBase
	Name            string          `json:"name"`
	Title           string          `json:"title,omitempty"`
	Author          string          `json:"author,omitempty"`
	Year            string          `json:"year,omitempty"`
	Cover           string          `json:"cover"`
	CoverThumb      string          `json:"cover_thumb"`
	ChapterStrategy ChapterStrategy `json:"chapterStrategy"`
	FileName        string          `json:"fileName"`
	WatchProgress   *WatchProgress  `json:"watchProgress,omitempty"`

	// detail
	Chapters []*Chapter `json:"chapters,omitempty"`

	path directory.ConfirmedPath
}

func (a *Audiobook) Base() *ItemBase { return &a.ItemBase }
func (a *Audiobook) clone() Item     { c := *a; return &c }

func (a *Audiobook) PlayableType() PlayableType         { return PlayAudiobook }
func (a *Audiobook) PlayableRef() directory.RelativePath { return a.RelativePath }
