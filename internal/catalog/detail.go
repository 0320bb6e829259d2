package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/oliveplex/oliveplex/internal/directory"
)

// itemDetail is the expensive part of an item, cached separately from the
// base record so that shallow listings never pay for it.
type itemDetail struct {
	seasons      []*Season
	extras       []*Extra
	mainDuration float64
	tracks       []*Track
	chapters     []*Chapter
}

// applyDetails joins the cached expansion onto a cloned item. Only series,
// movies, albums, audiobooks and collections carry details; every other
// type passes through untouched. The cached detail is deep-copied so that
// later per-request joins (watch progress) never write through to records
// shared with concurrent requests.
func (c *Catalog) applyDetails(ctx context.Context, path directory.ConfirmedPath, item Item) error {
	switch target := item.(type) {
	case *Series:
		detail, err := c.detailFor(ctx, path, item)
		if err != nil {
			return err
		}
		target.Seasons = copySeasons(detail.seasons)
		target.Extras = copyExtras(detail.extras)
	case *Movie:
		detail, err := c.detailFor(ctx, path, item)
		if err != nil {
			return err
		}
		target.Extras = copyExtras(detail.extras)
		if target.Main != nil {
			target.Main.Duration = detail.mainDuration
		}
	case *Album:
		detail, err := c.detailFor(ctx, path, item)
		if err != nil {
			return err
		}
		target.Tracks = copyTracks(detail.tracks)
	case *Audiobook:
		detail, err := c.detailFor(ctx, path, item)
		if err != nil {
			return err
		}
		target.Chapters = copyChapters(detail.chapters)
	case *Collection:
		detail, err := c.detailFor(ctx, path, item)
		if err != nil {
			return err
		}
		target.Extras = copyExtras(detail.extras)
	}
	return nil
}

// The copy helpers shield the detail cache from per-request mutation. Each
// pointer struct is re-allocated; the probe chapter slices inside tracks
// are read-only and stay shared.

func copySeasons(seasons []*Season) []*Season {
	if seasons == nil {
		return nil
	}
	out := make([]*Season, len(seasons))
	for i, season := range seasons {
		copied := *season
		copied.EpisodeFiles = copyEpisodeFiles(season.EpisodeFiles)
		copied.Extras = copyExtras(season.Extras)
		out[i] = &copied
	}
	return out
}

func copyEpisodeFiles(files []*EpisodeFile) []*EpisodeFile {
	if files == nil {
		return nil
	}
	out := make([]*EpisodeFile, len(files))
	for i, file := range files {
		copied := *file
		copied.Episodes = make([]*Episode, len(file.Episodes))
		for j, episode := range file.Episodes {
			episodeCopy := *episode
			copied.Episodes[j] = &episodeCopy
		}
		out[i] = &copied
	}
	return out
}

func copyExtras(extras []*Extra) []*Extra {
	if extras == nil {
		return nil
	}
	out := make([]*Extra, len(extras))
	for i, extra := range extras {
		copied := *extra
		out[i] = &copied
	}
	return out
}

func copyTracks(tracks []*Track) []*Track {
	if tracks == nil {
		return nil
	}
	out := make([]*Track, len(tracks))
	for i, track := range tracks {
		copied := *track
		out[i] = &copied
	}
	return out
}

func copyChapters(chapters []*Chapter) []*Chapter {
	if chapters == nil {
		return nil
	}
	out := make([]*Chapter, len(chapters))
	for i, chapter := range chapters {
		copied := *chapter
		out[i] = &copied
	}
	return out
}

// detailFor reads the detail cache, computing and storing on miss. A
// singleflight group collapses concurrent misses for the same path.
func (c *Catalog) detailFor(ctx context.Context, path directory.ConfirmedPath, item Item) (*itemDetail, error) {
	rel := path.RelativePath()

	c.mu.RLock()
	cached, ok := c.details[rel]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	result, err, _ := c.detailFlight.Do(string(rel), func() (interface{}, error) {
		detail, err := c.computeDetail(ctx, path, item)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.details[rel] = detail
		c.mu.Unlock()
		return detail, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*itemDetail), nil
}

func (c *Catalog) computeDetail(ctx context.Context, path directory.ConfirmedPath, item Item) (*itemDetail, error) {
	listing := directory.List(path)
	detail := &itemDetail{}

	switch source := item.(type) {
	case *Series:
		seasons, err := c.extractSeasons(ctx, seasonFoldersOf(listing), source.Name, source.Year)
		if err != nil {
			return nil, err
		}
		detail.seasons = seasons
		detail.extras = prepareExtras(listing.Files, nil)
	case *Movie:
		exclude := make(map[directory.RelativePath]bool)
		if source.Main != nil {
			exclude[source.Main.RelativePath] = true
			if track := c.probeTrack(ctx, source.Main.path); track != nil {
				detail.mainDuration = track.Duration
			}
		}
		detail.extras = prepareExtras(listing.Files, exclude)
	case *Album:
		detail.tracks = c.buildTracks(ctx, listing)
	case *Audiobook:
		tracks := c.buildTracks(ctx, listing)
		detail.chapters = flattenChapters(tracks, source.ChapterStrategy)
	case *Collection:
		detail.extras = prepareExtras(listing.Files, nil)
	}
	return detail, nil
}

// buildTracks probes every audio file in the folder and orders the result
// by track number, falling back to file name. StartOffset accumulates so
// that each track knows where it begins in a gapless whole-album playback.
func (c *Catalog) buildTracks(ctx context.Context, listing directory.Listing) []*Track {
	var tracks []*Track
	for _, file := range listing.Files {
		if !audioExtensions[extensionOf(file.Name)] {
			continue
		}
		track := &Track{
			Title:        RemoveExtensions(file.Name),
			FileName:     file.Name,
			RelativePath: file.Path.RelativePath(),
			SortKey:      file.Name,
			path:         file.Path,
		}
		if data := c.probeTrack(ctx, file.Path); data != nil {
			if data.Title != "" {
				track.Title = data.Title
			}
			track.Artist = data.Artist
			track.Album = data.Album
			track.Year = data.Year
			track.TrackNumber = data.TrackNumber
			track.TrackTotal = data.TrackTotal
			track.Duration = data.Duration
			track.chapters = data.Chapters
			if data.TrackNumber > 0 {
				track.SortKey = fmt.Sprintf("%03d_%s", data.TrackNumber, file.Name)
			}
		}
		track.Name = track.Title
		track.ListName = track.Title
		tracks = append(tracks, track)
	}

	sort.Slice(tracks, func(i, j int) bool { return tracks[i].SortKey < tracks[j].SortKey })
	var offset float64
	for _, track := range tracks {
		track.StartOffset = offset
		offset += track.Duration
	}
	return tracks
}

// flattenChapters turns an ordered track list into the audiobook's chapter
// list. Files with embedded chapter markers contribute one chapter per
// marker; otherwise each file is a chapter of its own.
func flattenChapters(tracks []*Track, strategy ChapterStrategy) []*Chapter {
	var chapters []*Chapter
	for _, track := range tracks {
		if strategy == ChaptersEmbedded && len(track.chapters) > 0 {
			for _, embedded := range track.chapters {
				title := embedded.Title
				if title == "" {
					title = track.Title
				}
				chapters = append(chapters, &Chapter{
					Title:            title,
					TrackDuration:    track.Duration,
					ChapterDuration:  embedded.Duration,
					BookStartOffset:  track.StartOffset + embedded.StartTime,
					TrackStartOffset: embedded.StartTime,
					FileName:         track.FileName,
					RelativePath:     track.RelativePath,
					path:             track.path,
				})
			}
			continue
		}
		chapters = append(chapters, &Chapter{
			Title:            track.Title,
			TrackDuration:    track.Duration,
			ChapterDuration:  track.Duration,
			BookStartOffset:  track.StartOffset,
			TrackStartOffset: 0,
			FileName:         track.FileName,
			RelativePath:     track.RelativePath,
			path:             track.path,
		})
	}
	return chapters
}

// joinProgressDeep decorates an item and everything playable under it with
// the viewer's saved positions. It runs after applyDetails, so every struct
// it writes to belongs to this request alone.
func (c *Catalog) joinProgressDeep(item Item) {
	if c.progress == nil {
		return
	}
	switch target := item.(type) {
	case *Movie:
		if target.Main != nil {
			target.Main.WatchProgress = c.progress.WatchProgress(target.Main.path)
		}
		c.joinExtrasProgress(target.Extras)
	case *Series:
		for _, season := range target.Seasons {
			for _, episodeFile := range season.EpisodeFiles {
				episodeFile.WatchProgress = c.progress.WatchProgress(episodeFile.path)
				for _, episode := range episodeFile.Episodes {
					episode.WatchProgress = c.progress.WatchProgress(episode.path)
				}
			}
			c.joinExtrasProgress(season.Extras)
		}
		c.joinExtrasProgress(target.Extras)
	case *Album:
		target.WatchProgress = c.progress.WatchProgress(target.path)
		for _, track := range target.Tracks {
			track.WatchProgress = c.progress.WatchProgress(track.path)
		}
	case *Audiobook:
		target.WatchProgress = c.progress.WatchProgress(target.path)
		for _, chapter := range target.Chapters {
			chapter.WatchProgress = c.progress.WatchProgress(chapter.path)
		}
	case *Collection:
		c.joinExtrasProgress(target.Extras)
	}
}

func (c *Catalog) joinExtrasProgress(extras []*Extra) {
	for _, extra := range extras {
		extra.WatchProgress = c.progress.WatchProgress(extra.path)
	}
}
