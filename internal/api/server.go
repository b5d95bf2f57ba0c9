// Package api is the HTTP transport in front of internal/core: one
// handler per spec.md §6 operation, wired into a single mux, following
// the teacher's Server/Router/Start shape.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"worksentry/internal/config"
	"worksentry/internal/core"
)

type Server struct {
	svc *core.Service
}

func NewServer(svc *core.Service) *Server {
	return &Server{svc: svc}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func (s *Server) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service":  "worksentry",
		"ok":       true,
		"time_utc": time.Now().UTC().Format(time.RFC3339),
		"endpoints": []string{
			"/search", "/related", "/folders", "/reindex", "/index_stats",
			"/browser_status", "/browser/bookmarks_enabled",
			"/browser/history_enabled", "/config",
		},
	})
}

type searchRequest struct {
	Query  string `json:"query"`
	Prefix bool   `json:"prefix"`
	Fuzzy  bool   `json:"fuzzy"`
}

func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	results, err := s.svc.Search(req.Query, req.Prefix, req.Fuzzy)
	if err != nil {
		log.Printf("[search] query=%q failed: %v", req.Query, err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

type relatedRequest struct {
	Path  string `json:"path"`
	Limit int    `json:"limit"`
}

func (s *Server) HandleRelated(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req relatedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}
	related, err := s.svc.FindRelated(req.Path, req.Limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"related": related})
}

type folderRequest struct {
	Path string `json:"path"`
}

func (s *Server) HandleFolders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"folders": s.svc.GetFolders()})
	case http.MethodPost:
		var req folderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.svc.AddFolder(req.Path); err != nil {
			log.Printf("[add_folder] path=%q failed: %v", req.Path, err)
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"folders": s.svc.GetFolders()})
	case http.MethodDelete:
		var req folderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.svc.RemoveFolder(req.Path); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"folders": s.svc.GetFolders()})
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type reindexRequest struct {
	Path string `json:"path,omitempty"`
}

func (s *Server) HandleReindex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req reindexRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	stats, err := s.svc.Reindex(ctx, req.Path)
	if err != nil {
		log.Printf("[reindex] path=%q failed: %v", req.Path, err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) HandleIndexStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	stats, err := s.svc.GetIndexStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) HandleBrowserStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"browsers": s.svc.GetBrowserStatus()})
}

type browserToggleRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) HandleBookmarksEnabled(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req browserToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.svc.SetBookmarksEnabled(req.Enabled); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.GetConfig())
}

func (s *Server) HandleHistoryEnabled(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req browserToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.svc.SetHistoryEnabled(req.Enabled); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.GetConfig())
}

func (s *Server) HandleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.svc.GetConfig())
	case http.MethodPost:
		var cfg config.Config
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.svc.SaveConfig(cfg); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, s.svc.GetConfig())
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.HandleRoot)
	mux.HandleFunc("/search", s.HandleSearch)
	mux.HandleFunc("/related", s.HandleRelated)
	mux.HandleFunc("/folders", s.HandleFolders)
	mux.HandleFunc("/reindex", s.HandleReindex)
	mux.HandleFunc("/index_stats", s.HandleIndexStats)
	mux.HandleFunc("/browser_status", s.HandleBrowserStatus)
	mux.HandleFunc("/browser/bookmarks_enabled", s.HandleBookmarksEnabled)
	mux.HandleFunc("/browser/history_enabled", s.HandleHistoryEnabled)
	mux.HandleFunc("/config", s.HandleConfig)
	return mux
}

func (s *Server) Start(addr string) error {
	log.Printf("worksentry API listening on %s", addr)
	return http.ListenAndServe(addr, s.Router())
}
