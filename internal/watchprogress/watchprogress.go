// Package watchprogress tracks playback positions and named bookmarks per
// media path, persisted through the JSON store.
package watchprogress

import (
	"sort"
	"strings"
	"time"

	"github.com/oliveplex/oliveplex/internal/catalog"
	"github.com/oliveplex/oliveplex/internal/directory"
	"github.com/oliveplex/oliveplex/internal/store"
)

// StateVersion is the current on-disk payload version.
const StateVersion = 1

// Anything at or past this percentage counts as finished.
const finishedPercentage = 90

// Feed endpoints cap their result lists.
const feedLimit = 50

// State is the persisted shape.
type State struct {
	Watching  map[directory.RelativePath]*catalog.WatchProgress `json:"watching"`
	Bookmarks map[directory.RelativePath][]catalog.Bookmark     `json:"bookmarks"`
}

func NewState() State {
	return State{
		Watching:  make(map[directory.RelativePath]*catalog.WatchProgress),
		Bookmarks: make(map[directory.RelativePath][]catalog.Bookmark),
	}
}

type Service struct {
	store *store.Store[State]
}

func New(st *store.Store[State]) *Service {
	return &Service{store: st}
}

// WatchProgress returns the saved position for one path, with bookmarks
// joined, or nil when nothing was recorded.
func (s *Service) WatchProgress(path directory.ConfirmedPath) *catalog.WatchProgress {
	rel := path.RelativePath()
	var result *catalog.WatchProgress
	s.store.View(func(state *State) {
		record, ok := state.Watching[rel]
		if !ok {
			return
		}
		copied := *record
		copied.Bookmarks = append([]catalog.Bookmark(nil), state.Bookmarks[rel]...)
		result = &copied
	})
	return result
}

// Record saves the current position for a path, stamping it with now.
func (s *Service) Record(rel directory.RelativePath, position, duration float64) {
	percentage := 0.0
	if duration > 0 {
		percentage = position / duration * 100
	}
	s.store.Update(func(state *State) {
		state.Watching[rel] = &catalog.WatchProgress{
			Time:         position,
			Duration:     duration,
			Percentage:   percentage,
			WatchedAt:    time.Now().UnixMilli(),
			RelativePath: rel,
		}
	})
}

// Clear forgets a path's position, keeping its bookmarks.
func (s *Service) Clear(rel directory.RelativePath) {
	s.store.Update(func(state *State) {
		delete(state.Watching, rel)
	})
}

// AddBookmark appends a named bookmark at the given position.
func (s *Service) AddBookmark(rel directory.RelativePath, name string, position, duration float64) {
	percentage := 0.0
	if duration > 0 {
		percentage = position / duration * 100
	}
	s.store.Update(func(state *State) {
		state.Bookmarks[rel] = append(state.Bookmarks[rel], catalog.Bookmark{
			WatchProgress: catalog.WatchProgress{
				Time:         position,
				Duration:     duration,
				Percentage:   percentage,
				WatchedAt:    time.Now().UnixMilli(),
				RelativePath: rel,
			},
			Name: name,
		})
	})
}

// DeleteBookmark removes every bookmark with the given name on a path.
func (s *Service) DeleteBookmark(rel directory.RelativePath, name string) {
	s.store.Update(func(state *State) {
		kept := state.Bookmarks[rel][:0]
		for _, bookmark := range state.Bookmarks[rel] {
			if bookmark.Name != name {
				kept = append(kept, bookmark)
			}
		}
		if len(kept) == 0 {
			delete(state.Bookmarks, rel)
			return
		}
		state.Bookmarks[rel] = kept
	})
}

// ContinueWatching lists unfinished positions, most recent first. Episodes
// of the same series collapse to the most recently watched one, so a binge
// occupies a single feed slot.
func (s *Service) ContinueWatching() []*catalog.WatchProgress {
	unfinished := s.recent(func(record *catalog.WatchProgress) bool {
		return record.Percentage < finishedPercentage
	})
	seen := make(map[directory.RelativePath]bool)
	collapsed := unfinished[:0]
	for _, record := range unfinished {
		key := seriesKey(record.RelativePath)
		if seen[key] {
			continue
		}
		seen[key] = true
		collapsed = append(collapsed, record)
	}
	return collapsed
}

// seriesKey maps an episode path onto its series folder so sibling episodes
// share one feed entry. Anything not inside a season folder keys to itself.
func seriesKey(rel directory.RelativePath) directory.RelativePath {
	parent := rel.Parent()
	if strings.HasPrefix(strings.ToLower(parent.Name()), "season") {
		return parent.Parent()
	}
	return rel
}

// RecentlyWatched lists everything watched, most recent first.
func (s *Service) RecentlyWatched() []*catalog.WatchProgress {
	return s.recent(func(*catalog.WatchProgress) bool { return true })
}

// LastFinished returns the most recently finished position, or nil.
func (s *Service) LastFinished() *catalog.WatchProgress {
	finished := s.recent(func(record *catalog.WatchProgress) bool {
		return record.Percentage >= finishedPercentage
	})
	if len(finished) == 0 {
		return nil
	}
	return finished[0]
}

func (s *Service) recent(keep func(*catalog.WatchProgress) bool) []*catalog.WatchProgress {
	var records []*catalog.WatchProgress
	s.store.View(func(state *State) {
		for _, record := range state.Watching {
			if !keep(record) {
				continue
			}
			copied := *record
			records = append(records, &copied)
		}
	})
	sort.Slice(records, func(i, j int) bool {
		return records[i].WatchedAt > records[j].WatchedAt
	})
	if len(records) > feedLimit {
		records = records[:feedLimit]
	}
	return records
}
