package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oliveplex/oliveplex/internal/catalog"
	"github.com/oliveplex/oliveplex/internal/config"
	"github.com/oliveplex/oliveplex/internal/directory"
	"github.com/oliveplex/oliveplex/internal/jobs"
	"github.com/oliveplex/oliveplex/internal/store"
	"github.com/oliveplex/oliveplex/internal/surprise"
	"github.com/oliveplex/oliveplex/internal/version"
	"github.com/oliveplex/oliveplex/internal/watchprogress"
)

func touch(t *testing.T, root, rel string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte("x"), 0o644))
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	root := t.TempDir()
	touch(t, root, "Movies/Heat (1995)/Heat (1995).mp4")
	touch(t, root, "Movies/Heat (1995)/Teaser-trailer.mp4")
	touch(t, root, "Movies/Heat (1995)/notes.txt")
	touch(t, root, "Movies/The Wire (2002)/Season 1/The Wire s01e01.mp4")
	touch(t, root, "Movies/The Wire (2002)/Season 1/The Wire s01e02.mp4")

	resolver, err := directory.NewResolver(root)
	require.NoError(t, err)

	dataDir := t.TempDir()
	progressStore, err := store.Open(filepath.Join(dataDir, "watch_progress.json"),
		watchprogress.StateVersion, watchprogress.NewState(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { progressStore.Close() })
	surpriseStore, err := store.Open(filepath.Join(dataDir, "surprises.json"),
		surprise.StateVersion, surprise.NewState(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { surpriseStore.Close() })

	progressSvc := watchprogress.New(progressStore)
	surpriseSvc := surprise.New(surpriseStore)
	cat := catalog.New(resolver, nil, nil, progressSvc, surpriseSvc, 4)
	dispatcher := jobs.NewInlineDispatcher(jobs.NewRunner(cat, resolver))

	return NewServer(config.Load(), resolver, cat, progressSvc, surpriseSvc, dispatcher, version.Info{Version: "test"})
}

func doJSON(t *testing.T, srv *Server, method, target, body string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	envelope := map[string]json.RawMessage{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return rec, envelope
}

func TestHandleItem(t *testing.T) {
	srv := newTestServer(t)

	rec, envelope := doJSON(t, srv, http.MethodGet, "/api/v1/items?path=Movies/Heat%20(1995)&detailed=true", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var item struct {
		Type  string `json:"type"`
		Name  string `json:"name"`
		Year  string `json:"year"`
		Movie struct {
			FileName string `json:"fileName"`
		} `json:"movie"`
		Extras []struct {
			Name string `json:"name"`
		} `json:"extras"`
	}
	require.NoError(t, json.Unmarshal(envelope["data"], &item))
	assert.Equal(t, "cinema", item.Type)
	assert.Equal(t, "Heat", item.Name)
	assert.Equal(t, "1995", item.Year)
	assert.Equal(t, "Heat (1995).mp4", item.Movie.FileName)
	require.Len(t, item.Extras, 1)
	assert.Equal(t, "Teaser", item.Extras[0].Name)
}

func TestHandleItemNotFound(t *testing.T) {
	srv := newTestServer(t)

	rec, envelope := doJSON(t, srv, http.MethodGet, "/api/v1/items?path=Nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, string(envelope["error"]), "not_found")
}

func TestHandleLibraries(t *testing.T) {
	srv := newTestServer(t)

	rec, envelope := doJSON(t, srv, http.MethodGet, "/api/v1/libraries", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var libraries []struct {
		Type        string `json:"type"`
		LibraryType string `json:"libraryType"`
	}
	require.NoError(t, json.Unmarshal(envelope["data"], &libraries))
	require.Len(t, libraries, 1)
	assert.Equal(t, "library", libraries[0].Type)
	assert.Equal(t, "cinema", libraries[0].LibraryType)
}

func TestHandlePlayable(t *testing.T) {
	srv := newTestServer(t)

	rec, envelope := doJSON(t, srv, http.MethodGet, "/api/v1/playable?path=Movies/Heat%20(1995)/Heat%20(1995).mp4", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		ParentLibrary struct {
			Type       string `json:"type"`
			CinemaType string `json:"cinemaType"`
		} `json:"parentLibrary"`
		Playable struct {
			Type string `json:"type"`
			Name string `json:"name"`
		} `json:"playable"`
	}
	require.NoError(t, json.Unmarshal(envelope["data"], &result))
	assert.Equal(t, "cinema", result.ParentLibrary.Type)
	assert.Equal(t, "movie", result.ParentLibrary.CinemaType)
	assert.Equal(t, "movie", result.Playable.Type)
	assert.Equal(t, "Heat", result.Playable.Name)
}

func TestHandlePlayableWithoutMatch(t *testing.T) {
	srv := newTestServer(t)

	rec, envelope := doJSON(t, srv, http.MethodGet, "/api/v1/playable?path=Movies/Heat%20(1995)/notes.txt", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		ParentLibrary *struct {
			Type string `json:"type"`
		} `json:"parentLibrary"`
		Playable json.RawMessage `json:"playable"`
	}
	require.NoError(t, json.Unmarshal(envelope["data"], &result))
	require.NotNil(t, result.ParentLibrary)
	assert.Equal(t, "cinema", result.ParentLibrary.Type)
	assert.Equal(t, "null", string(result.Playable))
}

func TestProgressRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	body := `{"path":"Movies/Heat (1995)/Heat (1995).mp4","time":600,"duration":1200}`
	rec, envelope := doJSON(t, srv, http.MethodPut, "/api/v1/progress", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var progress struct {
		Percentage float64 `json:"percentage"`
	}
	require.NoError(t, json.Unmarshal(envelope["data"], &progress))
	assert.Equal(t, 50.0, progress.Percentage)

	rec, envelope = doJSON(t, srv, http.MethodGet, "/api/v1/feeds/continue-watching", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var feed []json.RawMessage
	require.NoError(t, json.Unmarshal(envelope["data"], &feed))
	assert.Len(t, feed, 1)
}

func TestHandleFlatTree(t *testing.T) {
	srv := newTestServer(t)

	rec, envelope := doJSON(t, srv, http.MethodGet, "/api/v1/items/flat?path=Movies", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		Items []struct {
			RelativePath string `json:"relativePath"`
		} `json:"items"`
		Files []struct {
			RelativePath string `json:"relativePath"`
			FileType     string `json:"fileType"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(envelope["data"], &result))
	assert.NotEmpty(t, result.Items)

	require.NotEmpty(t, result.Files)
	paths := make(map[string]string)
	for _, file := range result.Files {
		paths[file.RelativePath] = file.FileType
	}
	assert.Equal(t, "video", paths["Movies/Heat (1995)/Heat (1995).mp4"])
	assert.NotContains(t, paths, "Movies/Heat (1995)/notes.txt")
}

func TestNextUpFeed(t *testing.T) {
	srv := newTestServer(t)

	rec, envelope := doJSON(t, srv, http.MethodGet, "/api/v1/feeds/next-up", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, envelope["data"])

	body := `{"path":"Movies/The Wire (2002)/Season 1/The Wire s01e01.mp4","time":95,"duration":100}`
	rec, _ = doJSON(t, srv, http.MethodPut, "/api/v1/progress", body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, envelope = doJSON(t, srv, http.MethodGet, "/api/v1/feeds/next-up", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var next struct {
		Name         string `json:"name"`
		SeasonNumber int    `json:"seasonNumber"`
	}
	require.NoError(t, json.Unmarshal(envelope["data"], &next))
	assert.Equal(t, "S1:E2", next.Name)
	assert.Equal(t, 1, next.SeasonNumber)
}

func TestSurpriseLifecycle(t *testing.T) {
	srv := newTestServer(t)

	body := `{"path":"Movies/Heat (1995)","pin":"1234","until":"2030-12-25T00:00:00Z"}`
	rec, _ := doJSON(t, srv, http.MethodPost, "/api/v1/surprise", body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, envelope := doJSON(t, srv, http.MethodGet, "/api/v1/items?path=Movies/Heat%20(1995)", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var item struct {
		Surprise *struct {
			Pin string `json:"pin"`
		} `json:"surprise"`
	}
	require.NoError(t, json.Unmarshal(envelope["data"], &item))
	require.NotNil(t, item.Surprise)
	assert.Equal(t, "1234", item.Surprise.Pin)

	rec, _ = doJSON(t, srv, http.MethodPost, "/api/v1/surprise/unwrap", `{"path":"Movies/Heat (1995)","pin":"9999"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = doJSON(t, srv, http.MethodPost, "/api/v1/surprise/unwrap", `{"path":"Movies/Heat (1995)","pin":"1234"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEmptyCaches(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodGet, "/api/v1/items?path=Movies/Heat%20(1995)", "")
	rec, _ := doJSON(t, srv, http.MethodPost, "/api/v1/caches/empty", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, envelope := doJSON(t, srv, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var status struct {
		Caches map[string]int `json:"caches"`
	}
	require.NoError(t, json.Unmarshal(envelope["data"], &status))
	assert.Equal(t, 0, status.Caches["items"])
}
