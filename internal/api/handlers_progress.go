package api

import (
	"net/http"

	"github.com/oliveplex/oliveplex/internal/httputil"
)

type progressRequest struct {
	Path     string  `json:"path"`
	Time     float64 `json:"time"`
	Duration float64 `json:"duration"`
}

type bookmarkRequest struct {
	Path     string  `json:"path"`
	Name     string  `json:"name"`
	Time     float64 `json:"time"`
	Duration float64 `json:"duration"`
}

type surpriseRequest struct {
	Path  string `json:"path"`
	Pin   string `json:"pin"`
	Until string `json:"until"`
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	path, ok := s.resolvePath(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, s.progress.WatchProgress(path))
}

func (s *Server) handlePutProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	path, err := s.resolver.Resolve(req.Path)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	s.progress.Record(path.RelativePath(), req.Time, req.Duration)
	httputil.WriteJSON(w, http.StatusOK, s.progress.WatchProgress(path))
}

func (s *Server) handleDeleteProgress(w http.ResponseWriter, r *http.Request) {
	path, ok := s.resolvePath(w, r)
	if !ok {
		return
	}
	s.progress.Clear(path.RelativePath())
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleAddBookmark(w http.ResponseWriter, r *http.Request) {
	var req bookmarkRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	path, err := s.resolver.Resolve(req.Path)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	s.progress.AddBookmark(path.RelativePath(), req.Name, req.Time, req.Duration)
	httputil.WriteJSON(w, http.StatusOK, s.progress.WatchProgress(path))
}

func (s *Server) handleDeleteBookmark(w http.ResponseWriter, r *http.Request) {
	path, ok := s.resolvePath(w, r)
	if !ok {
		return
	}
	s.progress.DeleteBookmark(path.RelativePath(), r.URL.Query().Get("name"))
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleContinueWatching(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, s.progress.ContinueWatching())
}

func (s *Server) handleRecentlyWatched(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, s.progress.RecentlyWatched())
}

// handleNextUp resolves the episode following the last one the viewer
// finished. Anything that breaks the chain, nothing finished yet, the file
// gone from disk, or a finished item that is not an episode, yields null
// rather than an error.
func (s *Server) handleNextUp(w http.ResponseWriter, r *http.Request) {
	last := s.progress.LastFinished()
	if last == nil {
		httputil.WriteJSON(w, http.StatusOK, nil)
		return
	}
	path, err := s.resolver.Resolve(string(last.RelativePath))
	if err != nil {
		httputil.WriteJSON(w, http.StatusOK, nil)
		return
	}
	next, err := s.catalog.NextEpisode(r.Context(), path)
	if err != nil {
		httputil.WriteJSON(w, http.StatusOK, nil)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, next)
}

func (s *Server) handleSetSurprise(w http.ResponseWriter, r *http.Request) {
	var req surpriseRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	path, err := s.resolver.Resolve(req.Path)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	s.surprise.Set(path.RelativePath(), req.Pin, req.Until)
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "wrapped"})
}

func (s *Server) handleClearSurprise(w http.ResponseWriter, r *http.Request) {
	path, ok := s.resolvePath(w, r)
	if !ok {
		return
	}
	s.surprise.Clear(path.RelativePath())
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "unwrapped"})
}

func (s *Server) handleUnwrapSurprise(w http.ResponseWriter, r *http.Request) {
	var req surpriseRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	path, err := s.resolver.Resolve(req.Path)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	if !s.surprise.Unwrap(path.RelativePath(), req.Pin) {
		httputil.WriteError(w, http.StatusForbidden, "still_wrapped", "wrong PIN and the date has not passed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "unwrapped"})
}
