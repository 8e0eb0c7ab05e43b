package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/himanishpuri/VoiceVault/pkg/logger"
	"github.com/himanishpuri/VoiceVault/pkg/voicevault"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service voicevault.Service
	config  *ServerConfig
	log     voicevault.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	DBPath         string
	UploadDir      string
	TempDir        string
	Coeffs         int
	AllowedOrigins []string
}

// NewServer creates a new server instance
func NewServer(service voicevault.Service, config *ServerConfig) *Server {
	return &Server{
		service: service,
		config:  config,
		log:     logger.GetLogger(),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "VoiceVault API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":       "GET /health",
			"metrics":      "GET /api/health/metrics",
			"listVoices":   "GET /api/voices",
			"ingest":       "POST /api/voices",
			"clearCatalog": "DELETE /api/voices",
			"search":       "GET /api/voices/search?q=",
			"audio":        "GET /api/audio?path=",
			"match":        "POST /api/match",
			"sync":         "POST /api/sync",
			"deleteFiles":  "DELETE /api/files",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats()
	if err != nil {
		s.log.Errorf("Failed to gather stats: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}

	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:       "healthy",
		DatabasePath: s.config.DBPath,
		UploadDir:    s.config.UploadDir,
		CatalogRows:  stats.CatalogRows,
		AudioFiles:   stats.AudioFiles,
	})
}

// handleListVoices handles GET /api/voices
func (s *Server) handleListVoices(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.ListEntries()
	if err != nil {
		s.log.Errorf("Failed to list voices: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve voices")
		return
	}

	s.respondJSON(w, http.StatusOK, ListVoicesResponse{
		Voices: toVoiceDTOs(entries),
		Count:  len(entries),
	})
}

// handleIngest handles POST /api/voices (multipart upload of audio files or
// zip archives). A failing file is skipped; it never aborts the batch.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	// Parse multipart form (max 200MB)
	if err := r.ParseMultipartForm(200 << 20); err != nil {
		s.log.Errorf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	uploads := r.MultipartForm.File["files"]
	if len(uploads) == 0 {
		s.respondError(w, http.StatusBadRequest, "at least one file is required")
		return
	}

	var allPaths []string
	registered := 0
	for _, header := range uploads {
		file, err := header.Open()
		if err != nil {
			s.log.Warnf("Failed to open upload %s: %v", header.Filename, err)
			continue
		}

		paths, added, err := s.service.Ingest(r.Context(), header.Filename, file)
		file.Close()
		if err != nil {
			s.log.Warnf("Failed to ingest %s: %v", header.Filename, err)
			continue
		}
		allPaths = append(allPaths, paths...)
		registered += added
	}

	s.respondJSON(w, http.StatusCreated, IngestResponse{
		Message:    fmt.Sprintf("Saved %d files. Registered %d new files.", len(allPaths), registered),
		Saved:      len(allPaths),
		Registered: registered,
		Paths:      allPaths,
	})
}

// handleClearCatalog handles DELETE /api/voices
func (s *Server) handleClearCatalog(w http.ResponseWriter, r *http.Request) {
	if err := s.service.ClearCatalog(); err != nil {
		s.log.Errorf("Failed to clear catalog: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to clear catalog")
		return
	}
	s.respondJSON(w, http.StatusOK, ClearCatalogResponse{Message: "Catalog cleared"})
}

// handleSearch handles GET /api/voices/search?q=
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	entries, err := s.service.SearchByName(query)
	if err != nil {
		s.log.Errorf("Search failed: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Search failed")
		return
	}

	s.respondJSON(w, http.StatusOK, ListVoicesResponse{
		Voices: toVoiceDTOs(entries),
		Count:  len(entries),
	})
}

// handleAudio handles GET /api/audio?path= and streams the raw bytes of a
// managed audio file for playback. Only paths inside the upload dir are
// served.
func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	requested := r.URL.Query().Get("path")
	if requested == "" {
		s.respondError(w, http.StatusBadRequest, "query parameter path is required")
		return
	}

	abs, err := filepath.Abs(requested)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	uploadRoot, err := filepath.Abs(s.config.UploadDir)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "upload dir unavailable")
		return
	}
	if abs != uploadRoot && !strings.HasPrefix(abs, uploadRoot+string(filepath.Separator)) {
		s.respondError(w, http.StatusForbidden, "path outside managed directory")
		return
	}

	if _, err := os.Stat(abs); err != nil {
		s.respondError(w, http.StatusNotFound, "Could not open this file")
		return
	}

	http.ServeFile(w, r, abs)
}

// handleMatch handles POST /api/match (multipart query upload + match
// parameters). The query temp file is removed on every path.
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	// Parse multipart form (max 50MB)
	if err := r.ParseMultipartForm(50 << 20); err != nil {
		s.log.Errorf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	mode, err := voicevault.ParseMatchMode(r.FormValue("mode"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	topK := voicevault.DefaultTopK
	if v := r.FormValue("top_k"); v != "" {
		topK, err = strconv.Atoi(v)
		if err != nil || topK < 1 || topK > voicevault.MaxTopK {
			s.respondError(w, http.StatusBadRequest,
				fmt.Sprintf("top_k must be an integer in [1,%d]", voicevault.MaxTopK))
			return
		}
	}

	threshold := voicevault.DefaultThreshold
	if v := r.FormValue("threshold"); v != "" {
		threshold, err = strconv.ParseFloat(v, 64)
		if err != nil || threshold < 0 {
			s.respondError(w, http.StatusBadRequest, "threshold must be a non-negative number")
			return
		}
	}

	// Save the query to a scoped temp file
	tempFile := filepath.Join(s.config.TempDir, fmt.Sprintf("query_%d_%s", time.Now().UnixNano(), filepath.Base(header.Filename)))
	out, err := os.Create(tempFile)
	if err != nil {
		s.log.Errorf("Failed to create temp file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to process upload")
		return
	}
	defer os.Remove(tempFile)

	if _, err := out.ReadFrom(file); err != nil {
		out.Close()
		s.log.Errorf("Failed to save query file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return
	}
	out.Close()

	s.log.Infof("Matching uploaded query: %s", header.Filename)
	outcome, err := s.service.Match(r.Context(), tempFile, mode, topK, threshold)
	if err != nil {
		s.log.Errorf("Match failed: %v", err)
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("Match failed: %v", err))
		return
	}

	matches := make([]MatchResultDTO, len(outcome.Results))
	for i, res := range outcome.Results {
		matches[i] = MatchResultDTO{Name: res.Name, Path: res.Path, Distance: res.Distance}
	}

	s.respondJSON(w, http.StatusOK, MatchResponse{
		Matches:      matches,
		Count:        len(matches),
		MetThreshold: outcome.MetThreshold,
		Compared:     outcome.Compared,
	})
}

// handleSync handles POST /api/sync
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	added, err := s.service.Sync()
	if err != nil {
		s.log.Errorf("Sync failed: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Sync failed")
		return
	}
	s.respondJSON(w, http.StatusOK, SyncResponse{
		Message: fmt.Sprintf("Added %d new files to catalog", added),
		Added:   added,
	})
}

// handleDeleteFiles handles DELETE /api/files
func (s *Server) handleDeleteFiles(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.service.DeleteAllFiles()
	if err != nil {
		s.log.Errorf("Failed to delete files: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to delete files")
		return
	}
	s.respondJSON(w, http.StatusOK, DeleteFilesResponse{
		Message: fmt.Sprintf("Deleted %d files", deleted),
		Deleted: deleted,
	})
}

// handleVoices routes requests to /api/voices
func (s *Server) handleVoices(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListVoices(w, r)
	case http.MethodPost:
		s.handleIngest(w, r)
	case http.MethodDelete:
		s.handleClearCatalog(w, r)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleMatchRoute routes requests to /api/match
func (s *Server) handleMatchRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.handleMatch(w, r)
}

// handleSyncRoute routes requests to /api/sync
func (s *Server) handleSyncRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.handleSync(w, r)
}

// handleFilesRoute routes requests to /api/files
func (s *Server) handleFilesRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.handleDeleteFiles(w, r)
}

func toVoiceDTOs(entries []voicevault.VoiceEntry) []VoiceDTO {
	dtos := make([]VoiceDTO, len(entries))
	for i, e := range entries {
		dtos[i] = VoiceDTO{ID: e.ID, Name: e.Name, Path: e.Path}
	}
	return dtos
}
