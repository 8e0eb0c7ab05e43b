package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/himanishpuri/VoiceVault/pkg/logger"
	"github.com/himanishpuri/VoiceVault/pkg/voicevault"
	"github.com/himanishpuri/VoiceVault/pkg/voicevault/fingerprint"
)

// Global flags
var (
	dbPath    string
	uploadDir string
	tempDir   string
	coeffs    int
)

func init() {
	flag.StringVar(&dbPath, "db", getEnvOrDefault("VOICE_DB_PATH", "voicevault.sqlite3"), "Path to the SQLite catalog file")
	flag.StringVar(&uploadDir, "uploads", getEnvOrDefault("VOICE_UPLOAD_DIR", "uploads"), "Managed audio directory")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("VOICE_TEMP_DIR", "/tmp"), "Directory for temporary files")
	flag.IntVar(&coeffs, "coeffs", fingerprint.DefaultCoeffs, "Fingerprint coefficient count")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func createService() (voicevault.Service, error) {
	return voicevault.NewService(
		voicevault.WithDBPath(dbPath),
		voicevault.WithUploadDir(uploadDir),
		voicevault.WithTempDir(tempDir),
		voicevault.WithCoeffs(coeffs),
	)
}

func main() {
	log := logger.GetLogger()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	log.Debugf("Executing command: %s", command)

	switch command {
	case "ingest":
		handleIngest()
	case "match":
		handleMatch()
	case "search":
		handleSearch()
	case "list":
		handleList()
	case "sync":
		handleSync()
	case "clear":
		handleClear()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleIngest() {
	log := logger.GetLogger()

	files := os.Args[2:]
	if len(files) == 0 {
		fmt.Println("Usage: voicevault ingest <audio files or zip archives...>")
		os.Exit(1)
	}

	svc, err := createService()
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	savedTotal, registeredTotal := 0, 0
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			log.Warnf("Skipping %s: %v", path, err)
			continue
		}

		stored, registered, err := svc.Ingest(ctx, path, f)
		f.Close()
		if err != nil {
			log.Warnf("Skipping %s: %v", path, err)
			continue
		}
		savedTotal += len(stored)
		registeredTotal += registered
	}

	fmt.Printf("Saved %d files. Registered %d new files in catalog.\n", savedTotal, registeredTotal)
}

func handleMatch() {
	args := os.Args[2:]
	var queryPath string
	var flagArgs []string
	for i, arg := range args {
		if len(arg) > 0 && arg[0] != '-' && queryPath == "" {
			queryPath = arg
		} else {
			flagArgs = append(flagArgs, args[i:]...)
			break
		}
	}

	matchCmd := flag.NewFlagSet("match", flag.ExitOnError)
	modeStr := matchCmd.String("mode", "both", "Match against: catalog, folder or both")
	topK := matchCmd.Int("top", voicevault.DefaultTopK, "Show top K matches (1-10)")
	threshold := matchCmd.Float64("threshold", voicevault.DefaultThreshold, "Acceptance threshold (lower = stricter)")
	matchCmd.Parse(flagArgs)

	if queryPath == "" {
		fmt.Println("Usage: voicevault match <audio_file> [--mode both] [--top 3] [--threshold 100]")
		os.Exit(1)
	}

	mode, err := voicevault.ParseMatchMode(*modeStr)
	if err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}

	svc, err := createService()
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	outcome, err := svc.Match(ctx, queryPath, mode, *topK, *threshold)
	if err != nil {
		fmt.Printf("Match failed: %v\n", err)
		os.Exit(1)
	}

	if outcome.Compared == 0 {
		fmt.Println("No valid comparisons were possible.")
		return
	}
	if len(outcome.Results) == 0 {
		fmt.Println("No results.")
		return
	}

	if outcome.MetThreshold {
		fmt.Printf("Found %d match(es) within threshold %.2f:\n\n", len(outcome.Results), *threshold)
	} else {
		fmt.Printf("No match within threshold %.2f; best %d guesses:\n\n", *threshold, len(outcome.Results))
	}
	for i, res := range outcome.Results {
		fmt.Printf("#%d  %s\n", i+1, res.Name)
		fmt.Printf("    %s\n", res.Path)
		fmt.Printf("    Distance = %.2f\n\n", res.Distance)
	}
}

func handleSearch() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: voicevault search <name>")
		os.Exit(1)
	}
	query := os.Args[2]

	svc, err := createService()
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close()

	entries, err := svc.SearchByName(query)
	if err != nil {
		fmt.Printf("Search failed: %v\n", err)
		os.Exit(1)
	}

	if len(entries) == 0 {
		fmt.Println("No results found.")
		return
	}

	fmt.Printf("Found %d match(es):\n\n", len(entries))
	for _, e := range entries {
		fmt.Printf("%s  (%s)\n", e.Name, e.Path)
	}
}

func handleList() {
	svc, err := createService()
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close()

	entries, err := svc.ListEntries()
	if err != nil {
		fmt.Printf("Failed to list entries: %v\n", err)
		os.Exit(1)
	}

	if len(entries) == 0 {
		fmt.Println("Catalog is empty.")
		return
	}

	fmt.Printf("%d registered entries:\n\n", len(entries))
	for i, e := range entries {
		fmt.Printf("%d. %s\n   %s\n", i+1, e.Name, e.Path)
	}
}

func handleSync() {
	svc, err := createService()
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close()

	added, err := svc.Sync()
	if err != nil {
		fmt.Printf("Sync failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Added %d new files to catalog.\n", added)
}

func handleClear() {
	clearCmd := flag.NewFlagSet("clear", flag.ExitOnError)
	alsoFiles := clearCmd.Bool("files", false, "Also delete all managed audio files")
	clearCmd.Parse(os.Args[2:])

	svc, err := createService()
	if err != nil {
		fmt.Printf("Failed to create service: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close()

	if err := svc.ClearCatalog(); err != nil {
		fmt.Printf("Failed to clear catalog: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Catalog cleared.")

	if *alsoFiles {
		deleted, err := svc.DeleteAllFiles()
		if err != nil {
			fmt.Printf("Failed to delete files: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Deleted %d files.\n", deleted)
	}
}

func printUsage() {
	fmt.Println("VoiceVault - voice sample catalog and matcher")
	fmt.Println("\nGlobal Options:")
	fmt.Println("  --db <path>        SQLite catalog (env: VOICE_DB_PATH, default: voicevault.sqlite3)")
	fmt.Println("  --uploads <dir>    Managed audio directory (env: VOICE_UPLOAD_DIR, default: uploads)")
	fmt.Println("  --temp <dir>       Temporary directory (env: VOICE_TEMP_DIR, default: /tmp)")
	fmt.Println("  --coeffs <n>       Fingerprint coefficient count (default: 20)")
	fmt.Println("\nUsage:")
	fmt.Println("  voicevault ingest <files or zips...>")
	fmt.Println("  voicevault match <audio_file> [--mode catalog|folder|both] [--top K] [--threshold T]")
	fmt.Println("  voicevault search <name>")
	fmt.Println("  voicevault list")
	fmt.Println("  voicevault sync")
	fmt.Println("  voicevault clear [--files]")
}
