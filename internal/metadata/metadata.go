// Package metadata looks up movie and series details on TMDB. Lookups are
// rate limited and cached for the life of the process; the catalog treats
// every failure here as "no metadata".
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/oliveplex/oliveplex/internal/catalog"
	"github.com/oliveplex/oliveplex/internal/directory"
)

const defaultBaseURL = "https://api.themoviedb.org/3"

const posterBase = "https://image.tmdb.org/t/p"

type tmdbSearchResult struct {
	Results []tmdbEntry `json:"results"`
}

type tmdbEntry struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
}

type tmdbDetail struct {
	Runtime        int   `json:"runtime"`
	EpisodeRunTime []int `json:"episode_run_time"`
	Genres         []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

type Service struct {
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter

	mu    sync.Mutex
	cache map[string]*catalog.Metadata
}

func New(apiKey string) *Service {
	return &Service{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		// TMDB allows bursts but sustained traffic should stay polite.
		limiter: rate.NewLimiter(rate.Every(50*time.Millisecond), 20),
		cache:   make(map[string]*catalog.Metadata),
	}
}

// NewWithBaseURL points the client at a different API host.
func NewWithBaseURL(apiKey, baseURL string) *Service {
	s := New(apiKey)
	s.baseURL = strings.TrimRight(baseURL, "/")
	return s
}

// Metadata resolves remote details for the folder's parsed name and year.
// Negative results are cached too, so a miss costs one request total.
func (s *Service) Metadata(ctx context.Context, cinemaType catalog.CinemaType, path directory.ConfirmedPath, detailed bool) (*catalog.Metadata, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("TMDB API key not configured")
	}
	pieces := catalog.ParseNamePieces(path.Name())
	key := string(cinemaType) + "|" + pieces.Name + "|" + pieces.Year + "|" + strconv.FormatBool(detailed)

	s.mu.Lock()
	cached, ok := s.cache[key]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	meta, err := s.lookup(ctx, cinemaType, pieces.Name, pieces.Year, detailed)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.cache[key] = meta
	s.mu.Unlock()
	return meta, nil
}

func (s *Service) lookup(ctx context.Context, cinemaType catalog.CinemaType, name, year string, detailed bool) (*catalog.Metadata, error) {
	searchType := "movie"
	if cinemaType == catalog.CinemaSeries {
		searchType = "tv"
	}

	entry, err := s.search(ctx, searchType, name, year)
	if err != nil {
		return nil, err
	}
	// Retry without the year; curators sometimes tag the re-release date.
	if entry == nil && year != "" {
		entry, err = s.search(ctx, searchType, name, "")
		if err != nil {
			return nil, err
		}
	}
	if entry == nil {
		return nil, nil
	}

	meta := &catalog.Metadata{
		Name:     entry.Title,
		Overview: entry.Overview,
		Rating:   entry.VoteAverage,
	}
	if meta.Name == "" {
		meta.Name = entry.Name
	}
	date := entry.ReleaseDate
	if date == "" {
		date = entry.FirstAirDate
	}
	if len(date) >= 4 {
		meta.Year = date[:4]
	}
	if entry.PosterPath != "" {
		meta.PosterThumb = posterBase + "/w342" + entry.PosterPath
		meta.PosterFull = posterBase + "/original" + entry.PosterPath
	}
	if entry.BackdropPath != "" {
		meta.Background = posterBase + "/original" + entry.BackdropPath
	}

	if detailed {
		if err := s.fillDetail(ctx, searchType, entry.ID, meta); err != nil {
			return nil, err
		}
	}
	return meta, nil
}

func (s *Service) search(ctx context.Context, searchType, name, year string) (*tmdbEntry, error) {
	reqURL := fmt.Sprintf("%s/search/%s?api_key=%s&query=%s",
		s.baseURL, searchType, s.apiKey, url.QueryEscape(name))
	if year != "" {
		if searchType == "tv" {
			reqURL += "&first_air_date_year=" + year
		} else {
			reqURL += "&year=" + year
		}
	}

	var result tmdbSearchResult
	if err := s.get(ctx, reqURL, &result); err != nil {
		return nil, err
	}
	if len(result.Results) == 0 {
		return nil, nil
	}
	return &result.Results[0], nil
}

func (s *Service) fillDetail(ctx context.Context, searchType string, id int, meta *catalog.Metadata) error {
	reqURL := fmt.Sprintf("%s/%s/%d?api_key=%s", s.baseURL, searchType, id, s.apiKey)
	var detail tmdbDetail
	if err := s.get(ctx, reqURL, &detail); err != nil {
		return err
	}
	runtime := detail.Runtime
	if runtime == 0 && len(detail.EpisodeRunTime) > 0 {
		runtime = detail.EpisodeRunTime[0]
	}
	if runtime > 0 {
		meta.Runtime = strconv.Itoa(runtime) + " min"
	}
	for _, genre := range detail.Genres {
		meta.Genres = append(meta.Genres, genre.Name)
	}
	return nil
}

func (s *Service) get(ctx context.Context, reqURL string, dst interface{}) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb: unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
