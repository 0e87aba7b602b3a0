// Package server exposes the aggregation engine as a JSON HTTP API.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/cake-wakame/choco-tube-BETA/internal/engine"
	"github.com/cake-wakame/choco-tube-BETA/internal/engine/sources"
)

// Server routes API requests to the composer service.
type Server struct {
	svc *sources.Service
}

func New(svc *sources.Service) *Server {
	return &Server{svc: svc}
}

// Handler builds the routed handler with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(loggingMiddleware)

	r.HandleFunc("/api/search", s.handleSearch).Methods("GET")
	r.HandleFunc("/api/trending", s.handleTrending).Methods("GET")
	r.HandleFunc("/api/video/{id}", s.handleVideo).Methods("GET")
	r.HandleFunc("/api/watch/{id}", s.handleWatch).Methods("GET")
	r.HandleFunc("/api/streams/{id}", s.handleStreams).Methods("GET")
	r.HandleFunc("/api/playlist/{id}", s.handlePlaylist).Methods("GET")
	r.HandleFunc("/api/channel/{id}", s.handleChannel).Methods("GET")
	r.HandleFunc("/api/channel/{id}/videos", s.handleChannelVideos).Methods("GET")
	r.HandleFunc("/api/comments/{id}", s.handleComments).Methods("GET")
	r.HandleFunc("/api/suggest", s.handleSuggest).Methods("GET")
	r.HandleFunc("/thumbnail", s.handleThumbnail).Methods("GET")
	r.HandleFunc("/metrics", s.handleMetrics).Methods("GET")
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}).Handler(r)
}

// Run serves the API until the listener fails.
func (s *Server) Run(port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	slog.Info("listening", slog.String("port", port))
	return srv.ListenAndServe()
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("took", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, engine.ErrAllMirrorsFailed) {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusOK, []engine.SearchResultItem{})
		return
	}
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	results, err := s.svc.Search(r.Context(), query, page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Trending(r.Context()))
}

func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	detail, err := s.svc.Video(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	page := s.svc.WatchPage(r.Context(), mux.Vars(r)["id"], r.URL.Query().Get("list"))
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleStreams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Streams(r.Context(), mux.Vars(r)["id"]))
}

func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	playlist, err := s.svc.Playlist(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

func (s *Server) handleChannel(w http.ResponseWriter, r *http.Request) {
	channel, err := s.svc.Channel(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, channel)
}

func (s *Server) handleChannelVideos(w http.ResponseWriter, r *http.Request) {
	page := s.svc.ChannelVideos(r.Context(), mux.Vars(r)["id"], r.URL.Query().Get("continuation"))
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleComments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Comments(r.Context(), mux.Vars(r)["id"]))
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Suggest(r.Context(), r.URL.Query().Get("keyword")))
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	videoID := r.URL.Query().Get("v")
	if videoID == "" {
		http.Error(w, "missing video id", http.StatusBadRequest)
		return
	}
	data, err := s.svc.Thumbnail(r.Context(), videoID)
	if err != nil {
		http.Error(w, "thumbnail unavailable", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Warn("thumbnail write failed", "error", err)
	}
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(engine.FormatMetrics())); err != nil {
		slog.Warn("metrics write failed", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
