package api

import (
	"net/http"

	"github.com/oliveplex/oliveplex/internal/catalog"
	"github.com/oliveplex/oliveplex/internal/config"
	"github.com/oliveplex/oliveplex/internal/directory"
	"github.com/oliveplex/oliveplex/internal/jobs"
	"github.com/oliveplex/oliveplex/internal/surprise"
	"github.com/oliveplex/oliveplex/internal/version"
	"github.com/oliveplex/oliveplex/internal/watchprogress"
)

type Server struct {
	config     *config.Config
	resolver   *directory.Resolver
	catalog    *catalog.Catalog
	progress   *watchprogress.Service
	surprise   *surprise.Service
	dispatcher jobs.Dispatcher
	version    version.Info
	router     *http.ServeMux
}

func NewServer(cfg *config.Config, resolver *directory.Resolver, cat *catalog.Catalog,
	progress *watchprogress.Service, surpriseSvc *surprise.Service,
	dispatcher jobs.Dispatcher, ver version.Info,
) *Server {
	s := &Server{
		config:     cfg,
		resolver:   resolver,
		catalog:    cat,
		progress:   progress,
		surprise:   surpriseSvc,
		dispatcher: dispatcher,
		version:    ver,
		router:     http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /api/v1/status", s.handleStatus)

	// Catalog
	s.router.HandleFunc("GET /api/v1/libraries", s.handleLibraries)
	s.router.HandleFunc("GET /api/v1/items", s.handleItem)
	s.router.HandleFunc("GET /api/v1/items/flat", s.handleFlatTree)
	s.router.HandleFunc("GET /api/v1/files", s.handleFile)
	s.router.HandleFunc("GET /api/v1/playable", s.handlePlayable)
	s.router.HandleFunc("GET /api/v1/playable/next", s.handleNextEpisode)
	s.router.HandleFunc("POST /api/v1/reload", s.handleReload)
	s.router.HandleFunc("POST /api/v1/warm", s.handleWarm)
	s.router.HandleFunc("POST /api/v1/caches/empty", s.handleEmptyCaches)

	// Watch progress and feeds
	s.router.HandleFunc("GET /api/v1/progress", s.handleGetProgress)
	s.router.HandleFunc("PUT /api/v1/progress", s.handlePutProgress)
	s.router.HandleFunc("DELETE /api/v1/progress", s.handleDeleteProgress)
	s.router.HandleFunc("POST /api/v1/bookmarks", s.handleAddBookmark)
	s.router.HandleFunc("DELETE /api/v1/bookmarks", s.handleDeleteBookmark)
	s.router.HandleFunc("GET /api/v1/feeds/continue-watching", s.handleContinueWatching)
	s.router.HandleFunc("GET /api/v1/feeds/recent", s.handleRecentlyWatched)
	s.router.HandleFunc("GET /api/v1/feeds/next-up", s.handleNextUp)

	// Surprises
	s.router.HandleFunc("POST /api/v1/surprise", s.handleSetSurprise)
	s.router.HandleFunc("DELETE /api/v1/surprise", s.handleClearSurprise)
	s.router.HandleFunc("POST /api/v1/surprise/unwrap", s.handleUnwrapSurprise)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
