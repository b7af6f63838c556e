package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Analysis
	mux.HandleFunc("/api/analysis", s.app.AnalysisHandler.ListHandler) // GET - list all records
	mux.HandleFunc("/api/analysis/", s.handleAnalysisRoutes)           // POST/GET/DELETE /{ticker}, GET /{ticker}/status

	// API routes - Watchlist
	mux.HandleFunc("/api/watchlist", s.handleWatchlistRoute) // GET (list), POST (add)
	mux.HandleFunc("/api/watchlist/", s.handleWatchlistRoutes)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleAnalysisRoutes routes /api/analysis/{ticker} and subpaths.
func (s *Server) handleAnalysisRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/analysis/")
	if path == "" {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}

	// GET /api/analysis/{ticker}/status
	if ticker, ok := strings.CutSuffix(path, "/status"); ok {
		s.app.AnalysisHandler.StatusHandler(w, r, ticker)
		return
	}

	if strings.Contains(path, "/") {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}

	switch r.Method {
	case http.MethodPost:
		s.app.AnalysisHandler.StartHandler(w, r, path)
	case http.MethodGet:
		s.app.AnalysisHandler.GetHandler(w, r, path)
	case http.MethodDelete:
		s.app.AnalysisHandler.CancelHandler(w, r, path)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleWatchlistRoute serves the watchlist collection endpoint.
func (s *Server) handleWatchlistRoute(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.app.WatchlistHandler.ListHandler(w, r)
	case http.MethodPost:
		s.app.WatchlistHandler.AddHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleWatchlistRoutes routes /api/watchlist/{ticker}.
func (s *Server) handleWatchlistRoutes(w http.ResponseWriter, r *http.Request) {
	ticker := strings.TrimPrefix(r.URL.Path, "/api/watchlist/")
	if ticker == "" || strings.Contains(ticker, "/") {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}

	s.app.WatchlistHandler.RemoveHandler(w, r, ticker)
}
