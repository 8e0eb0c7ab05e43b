package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/himanishpuri/VoiceVault/pkg/logger"
)

// setupRoutes registers all HTTP routes and middleware
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Root endpoint
	mux.HandleFunc("/", s.handleRoot)

	// Health endpoints
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/health/metrics", s.handleMetrics)

	// Catalog endpoints
	mux.HandleFunc("/api/voices", s.handleVoices)
	mux.HandleFunc("/api/voices/search", s.handleSearch)
	mux.HandleFunc("/api/audio", s.handleAudio)

	// Match and management endpoints
	mux.HandleFunc("/api/match", s.handleMatchRoute)
	mux.HandleFunc("/api/sync", s.handleSyncRoute)
	mux.HandleFunc("/api/files", s.handleFilesRoute)

	// Wrap with logging and CORS middleware
	return corsMiddleware(s.config.AllowedOrigins)(loggingMiddleware(mux))
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				allowed = true
			} else {
				for _, allowedOrigin := range allowedOrigins {
					if allowedOrigin == origin {
						w.Header().Set("Access-Control-Allow-Origin", origin)
						allowed = true
						break
					}
				}
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
				w.Header().Set("Access-Control-Max-Age", "3600")
			}

			// Handle preflight requests
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware logs all HTTP requests with their response status
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		logger.Infof("%s %s from %s -> %d", r.Method, r.URL.Path, getClientIP(r), wrapped.statusCode)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// Start starts the HTTP server
func (s *Server) Start() error {
	handler := s.setupRoutes()

	addr := fmt.Sprintf(":%d", s.config.Port)
	s.log.Infof("VoiceVault server starting on %s", addr)
	s.log.Infof("   Database:   %s", s.config.DBPath)
	s.log.Infof("   Uploads:    %s", s.config.UploadDir)
	s.log.Infof("   Coeffs:     %d", s.config.Coeffs)
	s.log.Infof("   CORS:       %v", s.config.AllowedOrigins)
	s.log.Infof("Endpoints:")
	s.log.Infof("   GET    /health              - Health check")
	s.log.Infof("   GET    /api/health/metrics  - Catalog metrics")
	s.log.Infof("   GET    /api/voices          - List catalog entries")
	s.log.Infof("   POST   /api/voices          - Upload audio files or zip")
	s.log.Infof("   DELETE /api/voices          - Clear catalog")
	s.log.Infof("   GET    /api/voices/search   - Search entries by name")
	s.log.Infof("   GET    /api/audio           - Stream a managed audio file")
	s.log.Infof("   POST   /api/match           - Match a query recording")
	s.log.Infof("   POST   /api/sync            - Force uploads -> catalog sync")
	s.log.Infof("   DELETE /api/files           - Delete all managed files")

	return http.ListenAndServe(addr, handler)
}
