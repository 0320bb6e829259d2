package api

import (
	"errors"
	"net/http"

	"github.com/oliveplex/oliveplex/internal/directory"
	"github.com/oliveplex/oliveplex/internal/httputil"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "up"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	items, details, files := s.catalog.CacheSizes()
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"version": s.version,
		"caches": map[string]int{
			"items":   items,
			"details": details,
			"files":   files,
		},
	})
}

func (s *Server) handleLibraries(w http.ResponseWriter, r *http.Request) {
	libraries, err := s.catalog.RootLibraries(r.Context())
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "classify_failed", err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, libraries)
}

func (s *Server) handleItem(w http.ResponseWriter, r *http.Request) {
	path, ok := s.resolvePath(w, r)
	if !ok {
		return
	}
	detailed := httputil.QueryBool(r, "detailed")
	withMetadata := httputil.QueryBool(r, "metadata")
	item, err := s.catalog.Classify(r.Context(), path, detailed, withMetadata)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "classify_failed", err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, item)
}

func (s *Server) handleFlatTree(w http.ResponseWriter, r *http.Request) {
	path, ok := s.resolvePath(w, r)
	if !ok {
		return
	}
	items, files, err := s.catalog.FlatTree(r.Context(), path)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "walk_failed", err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"files": files,
	})
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	path, ok := s.resolvePath(w, r)
	if !ok {
		return
	}
	file := s.catalog.ClassifyFile(path)
	if file == nil {
		httputil.WriteError(w, http.StatusNotFound, "not_media", "file is not a recognized media kind")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, file)
}

func (s *Server) handlePlayable(w http.ResponseWriter, r *http.Request) {
	path, ok := s.resolvePath(w, r)
	if !ok {
		return
	}
	parent, playable, err := s.catalog.PlayableFor(r.Context(), path)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "resolve_failed", err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"parentLibrary": parent,
		"playable":      playable,
	})
}

func (s *Server) handleNextEpisode(w http.ResponseWriter, r *http.Request) {
	path, ok := s.resolvePath(w, r)
	if !ok {
		return
	}
	next, err := s.catalog.NextEpisode(r.Context(), path)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "no_next_episode", err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, next)
}

type pathRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if _, err := s.resolver.Resolve(req.Path); err != nil {
		httputil.WriteError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	id, err := s.dispatcher.Reload(req.Path)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "dispatch_failed", err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"jobId": id})
}

func (s *Server) handleWarm(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if _, err := s.resolver.Resolve(req.Path); err != nil {
		httputil.WriteError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	id, err := s.dispatcher.Warm(req.Path)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "dispatch_failed", err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"jobId": id})
}

func (s *Server) handleEmptyCaches(w http.ResponseWriter, r *http.Request) {
	s.catalog.EmptyCaches()
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "emptied"})
}

// resolvePath confirms the path query parameter against the media root and
// writes the error response itself on failure.
func (s *Server) resolvePath(w http.ResponseWriter, r *http.Request) (directory.ConfirmedPath, bool) {
	path, err := s.resolver.Resolve(r.URL.Query().Get("path"))
	if err != nil {
		status := http.StatusInternalServerError
		code := "resolve_failed"
		if errors.Is(err, directory.ErrNotFound) {
			status = http.StatusNotFound
			code = "not_found"
		}
		httputil.WriteError(w, status, code, err.Error())
		return directory.ConfirmedPath{}, false
	}
	return path, true
}
