package voicevault

import (
	"archive/zip"
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Helper to build a service rooted in a temp directory.
func setupTestService(t *testing.T) (Service, string) {
	t.Helper()

	tmpDir := t.TempDir()
	uploadDir := filepath.Join(tmpDir, "uploads")

	svc, err := NewService(
		WithDBPath(filepath.Join(tmpDir, "test.sqlite3")),
		WithUploadDir(uploadDir),
		WithTempDir(tmpDir),
	)
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	t.Cleanup(func() {
		svc.Close()
	})

	return svc, uploadDir
}

// Helper to synthesize a mono 16-bit WAV tone in memory.
func toneWavBytes(t *testing.T, sampleRate int, freq float64, n int) []byte {
	t.Helper()

	samples := make([]int, n)
	for i := range samples {
		samples[i] = int(16000 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}

	var buf bytes.Buffer
	// wav.NewEncoder needs a WriteSeeker, so go through a temp file
	tmp, err := os.CreateTemp(t.TempDir(), "tone-*.wav")
	if err != nil {
		t.Fatalf("Failed to create temp tone file: %v", err)
	}
	defer tmp.Close()

	enc := wav.NewEncoder(tmp, sampleRate, 16, 1, 1)
	intBuf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(intBuf); err != nil {
		t.Fatalf("Failed to write tone: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Failed to finalize tone: %v", err)
	}

	if _, err := tmp.Seek(0, 0); err != nil {
		t.Fatalf("Failed to rewind tone file: %v", err)
	}
	if _, err := buf.ReadFrom(tmp); err != nil {
		t.Fatalf("Failed to read tone file: %v", err)
	}
	return buf.Bytes()
}

func writeToneFile(t *testing.T, path string, sampleRate int, freq float64, n int) {
	t.Helper()
	if err := os.WriteFile(path, toneWavBytes(t, sampleRate, freq, n), 0644); err != nil {
		t.Fatalf("Failed to write tone file %s: %v", path, err)
	}
}

func TestIngestSingleFile(t *testing.T) {
	svc, uploadDir := setupTestService(t)

	data := toneWavBytes(t, 22050, 440, 22050)
	stored, registered, err := svc.Ingest(context.Background(), "alice.wav", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if len(stored) != 1 {
		t.Fatalf("Expected 1 stored path, got %d", len(stored))
	}
	if registered != 1 {
		t.Errorf("Expected 1 registration, got %d", registered)
	}
	if filepath.Base(stored[0]) != "alice.wav" {
		t.Errorf("Expected stored base name alice.wav, got %s", filepath.Base(stored[0]))
	}
	if filepath.Dir(stored[0]) != mustAbs(t, uploadDir) {
		t.Errorf("Expected file in upload dir, got %s", stored[0])
	}

	entries, err := svc.ListEntries()
	if err != nil {
		t.Fatalf("ListEntries failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 catalog entry, got %d", len(entries))
	}
	if entries[0].Name != "alice" {
		t.Errorf("Expected display name 'alice', got '%s'", entries[0].Name)
	}
}

func TestIngestCollisionGetsSuffix(t *testing.T) {
	svc, _ := setupTestService(t)
	data := toneWavBytes(t, 22050, 440, 22050)

	first, _, err := svc.Ingest(context.Background(), "alice.wav", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	second, registered, err := svc.Ingest(context.Background(), "alice.wav", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}

	if filepath.Base(first[0]) != "alice.wav" || filepath.Base(second[0]) != "alice_1.wav" {
		t.Errorf("Expected alice.wav then alice_1.wav, got %s and %s",
			filepath.Base(first[0]), filepath.Base(second[0]))
	}
	if registered != 1 {
		t.Errorf("Expected the renamed copy to register its own row, got %d", registered)
	}

	entries, _ := svc.ListEntries()
	if len(entries) != 2 {
		t.Errorf("Expected 2 catalog entries, got %d", len(entries))
	}
}

func TestIngestZipArchive(t *testing.T) {
	svc, _ := setupTestService(t)

	var zipBuf bytes.Buffer
	zw := zip.NewWriter(&zipBuf)
	for _, name := range []string{"bob.wav", "carol.wav"} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(toneWavBytes(t, 22050, 440, 22050)); err != nil {
			t.Fatal(err)
		}
	}
	if w, err := zw.Create("notes.txt"); err == nil {
		w.Write([]byte("skip me"))
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	stored, registered, err := svc.Ingest(context.Background(), "batch.zip", bytes.NewReader(zipBuf.Bytes()))
	if err != nil {
		t.Fatalf("Zip ingest failed: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("Expected 2 extracted audio files, got %d", len(stored))
	}
	if registered != 2 {
		t.Errorf("Expected 2 registrations, got %d", registered)
	}
}

func TestIngestUnsupportedType(t *testing.T) {
	svc, _ := setupTestService(t)

	_, _, err := svc.Ingest(context.Background(), "document.pdf", strings.NewReader("%PDF"))
	if err == nil {
		t.Error("Expected error for unsupported upload type")
	}
}

func TestSyncIdempotent(t *testing.T) {
	svc, uploadDir := setupTestService(t)

	writeToneFile(t, filepath.Join(uploadDir, "dave.wav"), 22050, 440, 22050)

	added, err := svc.Sync()
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if added != 1 {
		t.Errorf("Expected 1 new registration, got %d", added)
	}

	added, err = svc.Sync()
	if err != nil {
		t.Fatalf("Second sync failed: %v", err)
	}
	if added != 0 {
		t.Errorf("Expected idempotent second sync, got %d new registrations", added)
	}
}

func TestSyncNeverRemovesStaleRows(t *testing.T) {
	svc, uploadDir := setupTestService(t)

	path := filepath.Join(uploadDir, "eve.wav")
	writeToneFile(t, path, 22050, 440, 22050)

	if _, err := svc.Sync(); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Sync(); err != nil {
		t.Fatal(err)
	}

	entries, _ := svc.ListEntries()
	if len(entries) != 1 {
		t.Errorf("Expected stale row to survive sync, got %d entries", len(entries))
	}
}

func TestMatchFindsClosestTone(t *testing.T) {
	svc, uploadDir := setupTestService(t)

	writeToneFile(t, filepath.Join(uploadDir, "low.wav"), 22050, 220, 22050)
	writeToneFile(t, filepath.Join(uploadDir, "high.wav"), 22050, 3000, 22050)

	queryPath := filepath.Join(t.TempDir(), "query.wav")
	writeToneFile(t, queryPath, 22050, 220, 22050)

	outcome, err := svc.Match(context.Background(), queryPath, ModeBoth, 3, 1e9)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}

	if outcome.Compared != 2 {
		t.Errorf("Expected 2 comparisons, got %d", outcome.Compared)
	}
	if len(outcome.Results) == 0 {
		t.Fatal("Expected results")
	}
	if outcome.Results[0].Name != "low" {
		t.Errorf("Expected closest match 'low', got '%s'", outcome.Results[0].Name)
	}
	if !outcome.MetThreshold {
		t.Error("Expected generous threshold to be met")
	}
}

func TestMatchFallbackBelowThreshold(t *testing.T) {
	svc, uploadDir := setupTestService(t)

	writeToneFile(t, filepath.Join(uploadDir, "low.wav"), 22050, 220, 22050)

	queryPath := filepath.Join(t.TempDir(), "query.wav")
	writeToneFile(t, queryPath, 22050, 3000, 22050)

	outcome, err := svc.Match(context.Background(), queryPath, ModeBoth, 3, 0)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}

	if outcome.MetThreshold {
		t.Error("Expected threshold 0 to never be met for distinct tones")
	}
	if len(outcome.Results) != 1 {
		t.Errorf("Expected best-effort fallback result, got %d", len(outcome.Results))
	}
}

func TestMatchSkipsStaleRows(t *testing.T) {
	svc, uploadDir := setupTestService(t)

	keep := filepath.Join(uploadDir, "keep.wav")
	gone := filepath.Join(uploadDir, "gone.wav")
	writeToneFile(t, keep, 22050, 220, 22050)
	writeToneFile(t, gone, 22050, 440, 22050)

	if _, err := svc.Sync(); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(gone); err != nil {
		t.Fatal(err)
	}

	queryPath := filepath.Join(t.TempDir(), "query.wav")
	writeToneFile(t, queryPath, 22050, 220, 22050)

	outcome, err := svc.Match(context.Background(), queryPath, ModeBoth, 3, 1e9)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}

	// The stale row stays in the catalog but cannot be compared
	if outcome.Compared != 1 {
		t.Errorf("Expected 1 comparison, got %d", outcome.Compared)
	}
	entries, _ := svc.ListEntries()
	if len(entries) != 2 {
		t.Errorf("Expected both rows to survive, got %d", len(entries))
	}
}

func TestMatchNegativeThreshold(t *testing.T) {
	svc, _ := setupTestService(t)

	_, err := svc.Match(context.Background(), "query.wav", ModeBoth, 3, -1)
	if err == nil {
		t.Error("Expected error for negative threshold")
	}
}

func TestMatchCatalogOnlyMode(t *testing.T) {
	svc, uploadDir := setupTestService(t)

	// Register one file, then drop a second into the folder without syncing;
	// svc.Match syncs first, so both become catalog rows. Instead verify the
	// mode plumbing with an empty catalog and a populated folder.
	writeToneFile(t, filepath.Join(uploadDir, "folder_only.wav"), 22050, 220, 22050)

	if err := svc.ClearCatalog(); err != nil {
		t.Fatal(err)
	}

	queryPath := filepath.Join(t.TempDir(), "query.wav")
	writeToneFile(t, queryPath, 22050, 220, 22050)

	outcome, err := svc.Match(context.Background(), queryPath, ModeFolder, 3, 1e9)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}
	if outcome.Compared != 1 {
		t.Errorf("Expected folder mode to see 1 candidate, got %d", outcome.Compared)
	}
}

func TestSearchByName(t *testing.T) {
	svc, uploadDir := setupTestService(t)

	writeToneFile(t, filepath.Join(uploadDir, "alice_morning.wav"), 22050, 220, 22050)
	writeToneFile(t, filepath.Join(uploadDir, "bob.wav"), 22050, 440, 22050)

	entries, err := svc.SearchByName("alice")
	if err != nil {
		t.Fatalf("SearchByName failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(entries))
	}
	if entries[0].Name != "alice_morning" {
		t.Errorf("Expected alice_morning, got %s", entries[0].Name)
	}
}

func TestClearCatalogKeepsFiles(t *testing.T) {
	svc, uploadDir := setupTestService(t)

	path := filepath.Join(uploadDir, "frank.wav")
	writeToneFile(t, path, 22050, 220, 22050)
	if _, err := svc.Sync(); err != nil {
		t.Fatal(err)
	}

	if err := svc.ClearCatalog(); err != nil {
		t.Fatalf("ClearCatalog failed: %v", err)
	}

	entries, _ := svc.ListEntries()
	if len(entries) != 0 {
		t.Errorf("Expected empty catalog, got %d entries", len(entries))
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("Expected file bytes to survive catalog clear")
	}

	// The next sync re-registers the surviving file
	added, err := svc.Sync()
	if err != nil {
		t.Fatal(err)
	}
	if added != 1 {
		t.Errorf("Expected re-registration after clear, got %d", added)
	}
}

func TestDeleteAllFilesKeepsRows(t *testing.T) {
	svc, uploadDir := setupTestService(t)

	writeToneFile(t, filepath.Join(uploadDir, "grace.wav"), 22050, 220, 22050)
	if _, err := svc.Sync(); err != nil {
		t.Fatal(err)
	}

	deleted, err := svc.DeleteAllFiles()
	if err != nil {
		t.Fatalf("DeleteAllFiles failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deleted file, got %d", deleted)
	}

	entries, _ := svc.ListEntries()
	if len(entries) != 1 {
		t.Errorf("Expected catalog row to survive file deletion, got %d", len(entries))
	}
}

func TestStats(t *testing.T) {
	svc, uploadDir := setupTestService(t)

	writeToneFile(t, filepath.Join(uploadDir, "henry.wav"), 22050, 220, 22050)
	if _, err := svc.Sync(); err != nil {
		t.Fatal(err)
	}

	stats, err := svc.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.CatalogRows != 1 {
		t.Errorf("Expected 1 catalog row, got %d", stats.CatalogRows)
	}
	if stats.AudioFiles != 1 {
		t.Errorf("Expected 1 audio file, got %d", stats.AudioFiles)
	}
}

func TestInitialSyncOnStartup(t *testing.T) {
	tmpDir := t.TempDir()
	uploadDir := filepath.Join(tmpDir, "uploads")
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeToneFile(t, filepath.Join(uploadDir, "preexisting.wav"), 22050, 220, 22050)

	svc, err := NewService(
		WithDBPath(filepath.Join(tmpDir, "startup.sqlite3")),
		WithUploadDir(uploadDir),
		WithTempDir(tmpDir),
	)
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	defer svc.Close()

	entries, err := svc.ListEntries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected startup sync to register pre-existing file, got %d entries", len(entries))
	}
}

func TestParseMatchMode(t *testing.T) {
	tests := []struct {
		input   string
		want    MatchMode
		wantErr bool
	}{
		{"catalog", ModeCatalog, false},
		{"folder", ModeFolder, false},
		{"both", ModeBoth, false},
		{"", ModeBoth, false},
		{"BOTH", ModeBoth, false},
		{"nonsense", ModeBoth, true},
	}

	for _, tt := range tests {
		got, err := ParseMatchMode(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMatchMode(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMatchMode(%q) errored: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMatchMode(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/audio/alice.wav", "alice"},
		{"/audio/alice_1.wav", "alice_1"},
		{"bob.mp3", "bob"},
		{"/audio/noext", "noext"},
	}
	for _, tt := range tests {
		if got := displayName(tt.path); got != tt.want {
			t.Errorf("displayName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func mustAbs(t *testing.T, path string) string {
	t.Helper()
	abs, err := filepath.Abs(path)
	if err != nil {
		t.Fatalf("Abs failed: %v", err)
	}
	return abs
}
