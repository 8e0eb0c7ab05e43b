package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/himanishpuri/VoiceVault/pkg/voicevault"
	"github.com/himanishpuri/VoiceVault/pkg/voicevault/fingerprint"
	"github.com/joho/godotenv"
)

var (
	port           int
	dbPath         string
	uploadDir      string
	tempDir        string
	coeffs         int
	allowedOrigins string
)

func init() {
	// .env values feed the env-backed flag defaults below
	godotenv.Load()

	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&dbPath, "db", getEnvOrDefault("VOICE_DB_PATH", "voicevault.sqlite3"), "Path to SQLite catalog")
	flag.StringVar(&uploadDir, "uploads", getEnvOrDefault("VOICE_UPLOAD_DIR", "uploads"), "Managed audio directory")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("VOICE_TEMP_DIR", "/tmp"), "Temporary directory")
	flag.IntVar(&coeffs, "coeffs", fingerprint.DefaultCoeffs, "Fingerprint coefficient count")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	flag.Parse()

	var origins []string
	if allowedOrigins == "*" {
		origins = []string{"*"}
	} else {
		origins = strings.Split(allowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}

	service, err := voicevault.NewService(
		voicevault.WithDBPath(dbPath),
		voicevault.WithUploadDir(uploadDir),
		voicevault.WithTempDir(tempDir),
		voicevault.WithCoeffs(coeffs),
	)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	config := &ServerConfig{
		Port:           port,
		DBPath:         dbPath,
		UploadDir:      uploadDir,
		TempDir:        tempDir,
		Coeffs:         coeffs,
		AllowedOrigins: origins,
	}

	server := NewServer(service, config)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
