package catalog

import (
	"time"

	"github.com/oliveplex/oliveplex/internal/directory"
)

// PlayableType discriminates the closed set of playable leaf kinds.
type PlayableType string

const (
	PlayMovie       PlayableType = "movie"
	PlayEpisodeFile PlayableType = "episodeFile"
	PlayEpisode     PlayableType = "episode"
	PlayExtra       PlayableType = "extra"
	PlayAlbum       PlayableType = "album"
	PlayAudiobook   PlayableType = "audiobook"
)

// Playable is a leaf unit with a duration-bearing media file behind it.
type Playable interface {
	PlayableType() PlayableType
	// PlayableRef is the relative path clients use to start playback.
	PlayableRef() directory.RelativePath
}

// MoviePlayable is the main video file of a movie item.
type MoviePlayable struct {
	Type          PlayableType           `json:"type"`
	Name          string                 `json:"name"`
	Year          string                 `json:"year"`
	Version       string                 `json:"version,omitempty"`
	FileName      string                 `json:"fileName"`
	RelativePath  directory.RelativePath `json:"relativePath"`
	Duration      float64                `json:"duration,omitempty"`
	WatchProgress *WatchProgress         `json:"watchProgress,omitempty"`

	path directory.ConfirmedPath
}

func (m *MoviePlayable) PlayableType() PlayableType          { return PlayMovie }
func (m *MoviePlayable) PlayableRef() directory.RelativePath { return m.RelativePath }

// EpisodeFile is one physical video file carrying one or more episodes.
type EpisodeFile struct {
	Type                PlayableType           `json:"type"`
	Name                string                 `json:"name"`
	SeriesName          string                 `json:"seriesName"`
	Year                string                 `json:"year"`
	SeasonNumber        int                    `json:"seasonNumber"`
	FirstEpisodeNumber  int                    `json:"firstEpisodeNumber"`
	HasMultipleEpisodes bool                   `json:"hasMultipleEpisodes"`
	FileName            string                 `json:"fileName"`
	RelativePath        directory.RelativePath `json:"relativePath"`
	Duration            float64                `json:"duration,omitempty"`
	Episodes            []*Episode             `json:"episodes"`
	WatchProgress       *WatchProgress         `json:"watchProgress,omitempty"`

	path directory.ConfirmedPath
}

func (e *EpisodeFile) PlayableType() PlayableType          { return PlayEpisodeFile }
func (e *EpisodeFile) PlayableRef() directory.RelativePath { return e.RelativePath }

// Episode is one logical episode inside an EpisodeFile, offset by StartTime.
type Episode struct {
	Type          PlayableType           `json:"type"`
	Name          string                 `json:"name"`
	SeriesName    string                 `json:"seriesName"`
	Year          string                 `json:"year"`
	Version       string                 `json:"version,omitempty"`
	SeasonNumber  int                    `json:"seasonNumber"`
	EpisodeNumber int                    `json:"episodeNumber"`
	StartTime     int64                  `json:"startTime"`
	FileName      string                 `json:"fileName"`
	RelativePath  directory.RelativePath `json:"relativePath"`
	WatchProgress *WatchProgress         `json:"watchProgress,omitempty"`

	path directory.ConfirmedPath
}

func (e *Episode) PlayableType() PlayableType          { return PlayEpisode }
func (e *Episode) PlayableRef() directory.RelativePath { return e.RelativePath }

// Season groups the episode files found in (or claimed by) one season.
type Season struct {
	SeasonNumber int            `json:"seasonNumber"`
	EpisodeFiles []*EpisodeFile `json:"episodeFiles"`
	Extras       []*Extra       `json:"extras"`
}

// ExtraType is the fixed set of recognized bonus-content suffixes.
type ExtraType string

const (
	ExtraBehindTheScenes ExtraType = "behindthescenes"
	ExtraDeleted         ExtraType = "deleted"
	ExtraFeaturette      ExtraType = "featurette"
	ExtraTrailer         ExtraType = "trailer"
)

// ExtraTypes lists the suffixes in match order.
var ExtraTypes = []ExtraType{ExtraBehindTheScenes, ExtraDeleted, ExtraFeaturette, ExtraTrailer}

// Extra is bonus video content attached to a movie, series or collection.
// ExtraType is nil when no recognized suffix matched; the file is still
// listed as a generic extra.
type Extra struct {
	Type          PlayableType           `json:"type"`
	Name          string                 `json:"name"`
	ExtraType     *ExtraType             `json:"extraType"`
	FileName      string                 `json:"fileName"`
	RelativePath  directory.RelativePath `json:"relativePath"`
	StillThumb    string                 `json:"still_thumb"`
	WatchProgress *WatchProgress         `json:"watchProgress,omitempty"`

	path directory.ConfirmedPath
}

func (e *Extra) PlayableType() PlayableType          { return PlayExtra }
func (e *Extra) PlayableRef() directory.RelativePath { return e.RelativePath }

// Track is one audio file inside an album.
type Track struct {
	Title         string                 `json:"title,omitempty"`
	Artist        string                 `json:"artist,omitempty"`
	Album         string                 `json:"album,omitempty"`
	Year          string                 `json:"year,omitempty"`
	TrackNumber   int                    `json:"trackNumber,omitempty"`
	TrackTotal    int                    `json:"trackTotal,omitempty"`
	Duration      float64                `json:"duration"`
	StartOffset   float64                `json:"startOffset"`
	Name          string                 `json:"name"`
	FileName      string                 `json:"fileName"`
	RelativePath  directory.RelativePath `json:"relativePath"`
	SortKey       string                 `json:"sortKey"`
	ListName      string                 `json:"listName"`
	WatchProgress *WatchProgress         `json:"watchProgress,omitempty"`

	chapters []ProbeChapter
	path     directory.ConfirmedPath
}

// Chapter is one listening unit of an audiobook. With the "chapters"
// strategy several chapters share one track file; with "tracks" each track
// is exactly one chapter.
type Chapter struct {
	Title            string                 `json:"title,omitempty"`
	TrackDuration    float64                `json:"trackDuration"`
	ChapterDuration  float64                `json:"chapterDuration"`
	BookStartOffset  float64                `json:"bookStartOffset"`
	TrackStartOffset float64                `json:"trackStartOffset"`
	FileName         string                 `json:"fileName"`
	RelativePath     directory.RelativePath `json:"relativePath"`
	WatchProgress    *WatchProgress         `json:"watchProgress,omitempty"`

	path directory.ConfirmedPath
}

// FileKind is the coarse classification of a non-catalog leaf file.
type FileKind string

const (
	FilePhoto FileKind = "photo"
	FileVideo FileKind = "video"
	FileAudio FileKind = "audio"
)

// FileItemType marks leaf file records apart from folder-backed items.
const FileItemType = "file"

// LibraryFile is a classified leaf used by feed generation. It is not part
// of the catalog hierarchy and never becomes a Playable.
type LibraryFile struct {
	Type         string                 `json:"type"`
	FileType     FileKind               `json:"fileType"`
	FileName     string                 `json:"fileName"`
	RelativePath directory.RelativePath `json:"relativePath"`
	ListName     string                 `json:"listName"`
	SortKey      string                 `json:"sortKey"`
	TakenAt      *time.Time             `json:"takenAt,omitempty"`
}
