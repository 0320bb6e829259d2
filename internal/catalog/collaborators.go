package catalog

import (
	"context"

	"github.com/oliveplex/oliveplex/internal/directory"
)

// The catalog reads only folder and file names; everything that requires
// opening file contents or talking to the network comes in through these
// collaborator interfaces.

// TrackData is the tag/stream summary of a single audio or video file.
type TrackData struct {
	Title       string
	Artist      string
	AlbumArtist string
	Album       string
	Genre       string
	Year        string
	TrackNumber int
	TrackTotal  int
	Duration    float64
	Chapters    []ProbeChapter
}

// ProbeChapter is an embedded chapter marker inside a container such as .m4b.
type ProbeChapter struct {
	Title     string
	StartTime float64
	Duration  float64
}

// ProbeService extracts track/stream metadata from media files.
// A nil result with a nil error means the file could not be probed;
// classification falls back to name-only heuristics.
type ProbeService interface {
	TrackData(ctx context.Context, path directory.ConfirmedPath) (*TrackData, error)
}

// Metadata is remote metadata for a movie or series, keyed by name/year.
type Metadata struct {
	Name        string   `json:"name"`
	Year        string   `json:"year"`
	Overview    string   `json:"overview,omitempty"`
	PosterThumb string   `json:"poster_thumb,omitempty"`
	PosterFull  string   `json:"poster_full,omitempty"`
	Background  string   `json:"background,omitempty"`
	Runtime     string   `json:"runtime,omitempty"`
	Genres      []string `json:"genres,omitempty"`
	Rating      float64  `json:"rating,omitempty"`
}

// MetadataService looks up remote metadata for cinema items.
type MetadataService interface {
	Metadata(ctx context.Context, cinemaType CinemaType, path directory.ConfirmedPath, detailed bool) (*Metadata, error)
}

// WatchProgress records how far into a playable the viewer is.
type WatchProgress struct {
	Time         float64                `json:"time"`
	Duration     float64                `json:"duration"`
	Percentage   float64                `json:"percentage"`
	WatchedAt    int64                  `json:"watchedAt"`
	RelativePath directory.RelativePath `json:"relativePath"`
	Bookmarks    []Bookmark             `json:"bookmarks,omitempty"`
}

// Bookmark is a named extra timestamp saved on top of the overall progress.
type Bookmark struct {
	WatchProgress
	Name string `json:"name"`
}

// WatchProgressService joins saved progress onto playables. A nil result
// means the media has not been watched.
type WatchProgressService interface {
	WatchProgress(path directory.ConfirmedPath) *WatchProgress
}

// SurpriseRecord hides an item behind a surprise cover until a date,
// bypassable with a PIN.
type SurpriseRecord struct {
	RelativePath directory.RelativePath `json:"relativePath"`
	Pin          string                 `json:"pin"`
	Until        string                 `json:"until"`
}

// SurpriseService returns the surprise record for a path, if any.
type SurpriseService interface {
	Surprise(path directory.ConfirmedPath) *SurpriseRecord
}
