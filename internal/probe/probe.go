// Package probe shells out to ffprobe and turns container tags into the
// track data the catalog classifies with.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cast"

	"github.com/oliveplex/oliveplex/internal/catalog"
	"github.com/oliveplex/oliveplex/internal/directory"
)

// cacheLimit bounds the probe result cache; the oldest entry is evicted
// first.
const cacheLimit = 100

type ffprobeOutput struct {
	Format   ffprobeFormat    `json:"format"`
	Chapters []ffprobeChapter `json:"chapters"`
}

type ffprobeFormat struct {
	Duration string                 `json:"duration"`
	Tags     map[string]interface{} `json:"tags"`
}

type ffprobeChapter struct {
	StartTime string                 `json:"start_time"`
	EndTime   string                 `json:"end_time"`
	Tags      map[string]interface{} `json:"tags"`
}

// Service runs ffprobe and caches the decoded results.
type Service struct {
	ffprobePath string

	mu    sync.Mutex
	cache map[directory.RelativePath]*catalog.TrackData
	order []directory.RelativePath
}

func New(ffprobePath string) *Service {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Service{
		ffprobePath: ffprobePath,
		cache:       make(map[directory.RelativePath]*catalog.TrackData),
	}
}

// TrackData probes one file. Results are cached by relative path, hits
// return the cached pointer. Callers must not mutate the result.
func (s *Service) TrackData(ctx context.Context, path directory.ConfirmedPath) (*catalog.TrackData, error) {
	rel := path.RelativePath()

	s.mu.Lock()
	if cached, ok := s.cache[rel]; ok {
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	data, err := s.run(ctx, path.AbsolutePath())
	if err != nil {
		return nil, err
	}
	track := decodeTrack(data)

	s.mu.Lock()
	if len(s.order) >= cacheLimit {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.cache, oldest)
	}
	s.cache[rel] = track
	s.order = append(s.order, rel)
	s.mu.Unlock()
	return track, nil
}

func (s *Service) run(ctx context.Context, filePath string) (*ffprobeOutput, error) {
	cmd := exec.CommandContext(ctx, s.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_chapters",
		filePath)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe: %w", err)
	}

	var data ffprobeOutput
	if err := json.Unmarshal(out, &data); err != nil {
		return nil, fmt.Errorf("parse ffprobe: %w", err)
	}
	return &data, nil
}

func decodeTrack(data *ffprobeOutput) *catalog.TrackData {
	tags := lowerTags(data.Format.Tags)
	track := &catalog.TrackData{
		Title:       cast.ToString(tags["title"]),
		Artist:      cast.ToString(tags["artist"]),
		AlbumArtist: cast.ToString(tags["album_artist"]),
		Album:       cast.ToString(tags["album"]),
		Genre:       cast.ToString(tags["genre"]),
		Year:        yearOf(tags),
	}
	track.TrackNumber, track.TrackTotal = splitTrack(cast.ToString(tags["track"]))
	if data.Format.Duration != "" {
		track.Duration, _ = strconv.ParseFloat(data.Format.Duration, 64)
	}
	for _, chapter := range data.Chapters {
		start, _ := strconv.ParseFloat(chapter.StartTime, 64)
		end, _ := strconv.ParseFloat(chapter.EndTime, 64)
		chapterTags := lowerTags(chapter.Tags)
		track.Chapters = append(track.Chapters, catalog.ProbeChapter{
			Title:     cast.ToString(chapterTags["title"]),
			StartTime: start,
			Duration:  end - start,
		})
	}
	return track
}

// lowerTags folds tag keys to lowercase; containers disagree on casing.
func lowerTags(tags map[string]interface{}) map[string]interface{} {
	folded := make(map[string]interface{}, len(tags))
	for key, value := range tags {
		folded[strings.ToLower(key)] = value
	}
	return folded
}

// yearOf prefers the date tag, keeping only the leading year.
func yearOf(tags map[string]interface{}) string {
	for _, key := range []string{"date", "year"} {
		value := cast.ToString(tags[key])
		if len(value) >= 4 {
			return value[:4]
		}
		if value != "" {
			return value
		}
	}
	return ""
}

// splitTrack handles both "3" and "3/12" track tags.
func splitTrack(tag string) (number, total int) {
	if tag == "" {
		return 0, 0
	}
	parts := strings.SplitN(tag, "/", 2)
	number = cast.ToInt(strings.TrimSpace(parts[0]))
	if len(parts) == 2 {
		total = cast.ToInt(strings.TrimSpace(parts[1]))
	}
	return number, total
}
