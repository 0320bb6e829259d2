package catalog

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/oliveplex/oliveplex/internal/directory"
)

var (
	// Episode markers are matched against the lowercased file name.
	seasonEpisodeRx = regexp.MustCompile(`s(\d{1,3})e(\d{1,3})`)
	lastEpisodeRx   = regexp.MustCompile(`-e(\d{1,3})`)
	// Start-time offsets for episodes packed into one file, in
	// milliseconds: ".e02-600000" marks where episode 2 begins.
	episodeOffsetRx = regexp.MustCompile(`\.e(\d{1,3})-(\d+)`)
	seasonDigitsRx  = regexp.MustCompile(`\d{1,3}`)
)

// extractSeasons walks the season folders of a series and builds the
// season list. Episode files are grouped by the season parsed from their
// own name, not the folder they sit in, so a misfiled "s02e01" inside
// "Season 1" still lands in season two. Extras stay with the folder whose
// number they were filed under.
func (c *Catalog) extractSeasons(ctx context.Context, seasonFolders []directory.Entry, seriesName, seriesYear string) ([]*Season, error) {
	var mu sync.Mutex
	seasons := make(map[int]*Season)
	ensure := func(number int) *Season {
		season, ok := seasons[number]
		if !ok {
			season = &Season{SeasonNumber: number}
			seasons[number] = season
		}
		return season
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, folder := range seasonFolders {
		group.Go(func() error {
			if err := c.fanout.Acquire(groupCtx, 1); err != nil {
				return err
			}
			defer c.fanout.Release(1)

			folderNumber := 0
			if digits := seasonDigitsRx.FindString(folder.Name); digits != "" {
				folderNumber, _ = strconv.Atoi(digits)
			}
			listing := directory.List(folder.Path)

			claimed := make(map[directory.RelativePath]bool)
			var episodeFiles []*EpisodeFile
			for _, file := range listing.Files {
				// Sidecar files (subtitles, artwork) never become episodes.
				if !strings.HasSuffix(strings.ToLower(file.Name), ".mp4") {
					continue
				}
				episodeFile := c.parseEpisodeFile(groupCtx, file, seriesName, seriesYear)
				if episodeFile == nil {
					continue
				}
				claimed[file.Path.RelativePath()] = true
				episodeFiles = append(episodeFiles, episodeFile)
			}
			extras := prepareExtras(listing.Files, claimed)

			mu.Lock()
			defer mu.Unlock()
			folderSeason := ensure(folderNumber)
			folderSeason.Extras = extras
			for _, episodeFile := range episodeFiles {
				season := ensure(episodeFile.SeasonNumber)
				season.EpisodeFiles = append(season.EpisodeFiles, episodeFile)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	ordered := make([]*Season, 0, len(seasons))
	for _, season := range seasons {
		sort.Slice(season.EpisodeFiles, func(i, j int) bool {
			return season.EpisodeFiles[i].FirstEpisodeNumber < season.EpisodeFiles[j].FirstEpisodeNumber
		})
		ordered = append(ordered, season)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].SeasonNumber < ordered[j].SeasonNumber
	})
	return ordered, nil
}

// parseEpisodeFile reads the episode markers out of one file name, or
// returns nil when the file carries no sNNeNN marker and therefore is not
// an episode.
func (c *Catalog) parseEpisodeFile(ctx context.Context, file directory.Entry, seriesName, seriesYear string) *EpisodeFile {
	lower := strings.ToLower(file.Name)
	marker := seasonEpisodeRx.FindStringSubmatch(lower)
	if marker == nil {
		return nil
	}
	seasonNumber, _ := strconv.Atoi(marker[1])
	firstEpisode, _ := strconv.Atoi(marker[2])

	lastEpisode := firstEpisode
	multiEpisode := false
	if spans := lastEpisodeRx.FindAllStringSubmatch(lower, -1); len(spans) > 0 {
		multiEpisode = true
		lastEpisode, _ = strconv.Atoi(spans[len(spans)-1][1])
	}

	// The first episode starts at zero unless the name says otherwise.
	startTimes := map[int]int64{firstEpisode: 0}
	for _, offset := range episodeOffsetRx.FindAllStringSubmatch(lower, -1) {
		episodeNumber, _ := strconv.Atoi(offset[1])
		startMillis, _ := strconv.ParseInt(offset[2], 10, 64)
		startTimes[episodeNumber] = startMillis
	}

	pieces := ParseNamePieces(file.Name)
	name := fmt.Sprintf("S%d:E%d", seasonNumber, firstEpisode)
	if multiEpisode {
		name = fmt.Sprintf("Episodes %d - %d", firstEpisode, lastEpisode)
	}

	var duration float64
	if track := c.probeTrack(ctx, file.Path); track != nil {
		duration = track.Duration
	}

	episodeFile := &EpisodeFile{
		Type:                PlayEpisodeFile,
		Name:                name,
		SeriesName:          seriesName,
		Year:                seriesYear,
		SeasonNumber:        seasonNumber,
		FirstEpisodeNumber:  firstEpisode,
		HasMultipleEpisodes: multiEpisode,
		FileName:            file.Name,
		RelativePath:        file.Path.RelativePath(),
		Duration:            duration,
		path:                file.Path,
	}
	for episodeNumber, startTime := range startTimes {
		episodeFile.Episodes = append(episodeFile.Episodes, &Episode{
			Type:          PlayEpisode,
			Name:          fmt.Sprintf("S%d:E%d", seasonNumber, episodeNumber),
			SeriesName:    seriesName,
			Year:          seriesYear,
			Version:       pieces.Version,
			SeasonNumber:  seasonNumber,
			EpisodeNumber: episodeNumber,
			StartTime:     startTime,
			FileName:      file.Name,
			RelativePath:  file.Path.RelativePath(),
			path:          file.Path,
		})
	}
	sort.Slice(episodeFile.Episodes, func(i, j int) bool {
		return episodeFile.Episodes[i].EpisodeNumber < episodeFile.Episodes[j].EpisodeNumber
	})
	return episodeFile
}
