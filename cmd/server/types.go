package main

// VoiceDTO represents one catalog entry in API responses
type VoiceDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// ListVoicesResponse is the response for GET /api/voices
type ListVoicesResponse struct {
	Voices []VoiceDTO `json:"voices"`
	Count  int        `json:"count"`
}

// IngestResponse reports what an upload batch produced
type IngestResponse struct {
	Message    string   `json:"message"`
	Saved      int      `json:"saved"`
	Registered int      `json:"registered"`
	Paths      []string `json:"paths"`
}

// MatchResultDTO represents a single ranked comparison
type MatchResultDTO struct {
	Name     string  `json:"name"`
	Path     string  `json:"path"`
	Distance float64 `json:"distance"`
}

// MatchResponse is the response for POST /api/match. MetThreshold reports
// whether the results passed the distance threshold or are best-effort
// fallback; Compared is the number of successful comparisons.
type MatchResponse struct {
	Matches      []MatchResultDTO `json:"matches"`
	Count        int              `json:"count"`
	MetThreshold bool             `json:"met_threshold"`
	Compared     int              `json:"compared"`
}

// SyncResponse is the response for POST /api/sync
type SyncResponse struct {
	Message string `json:"message"`
	Added   int    `json:"added"`
}

// ClearCatalogResponse is the response for DELETE /api/voices
type ClearCatalogResponse struct {
	Message string `json:"message"`
}

// DeleteFilesResponse is the response for DELETE /api/files
type DeleteFilesResponse struct {
	Message string `json:"message"`
	Deleted int    `json:"deleted"`
}

// MetricsResponse provides server health and catalog metrics
type MetricsResponse struct {
	Status       string `json:"status"`
	DatabasePath string `json:"database_path"`
	UploadDir    string `json:"upload_dir"`
	CatalogRows  int64  `json:"catalog_rows"`
	AudioFiles   int    `json:"audio_files"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
