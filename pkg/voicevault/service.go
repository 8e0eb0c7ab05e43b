package voicevault

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/himanishpuri/VoiceVault/pkg/logger"
	"github.com/himanishpuri/VoiceVault/pkg/utils"
	"github.com/himanishpuri/VoiceVault/pkg/voicevault/fingerprint"
	"github.com/himanishpuri/VoiceVault/pkg/voicevault/ingest"
	"github.com/himanishpuri/VoiceVault/pkg/voicevault/match"
	"github.com/himanishpuri/VoiceVault/pkg/voicevault/storage"
)

// voiceService is the default implementation of the Service interface.
type voiceService struct {
	catalog   Catalog
	extractor *fingerprint.Extractor
	engine    *match.Engine
	log       Logger
	config    *Config
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	var cat Catalog
	var err error
	if cfg.Catalog != nil {
		cat = cfg.Catalog
	} else {
		cat, err = storage.NewCatalogWithPath(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create catalog: %w", err)
		}
	}

	if err := utils.MakeDir(cfg.UploadDir); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	extractor := fingerprint.NewExtractor(cfg.Coeffs, cfg.TempDir)

	s := &voiceService{
		catalog:   cat,
		extractor: extractor,
		engine:    match.NewEngine(extractor.Extract),
		log:       cfg.Logger,
		config:    cfg,
	}

	// Pick up files dropped into the upload dir while we were not running.
	if added, err := s.Sync(); err != nil {
		s.log.Warnf("Initial sync failed: %v", err)
	} else if added > 0 {
		s.log.Infof("Initial sync registered %d new files", added)
	}

	return s, nil
}

// Ingest stores one uploaded item and registers the resulting audio paths.
func (s *voiceService) Ingest(ctx context.Context, originalName string, r io.Reader) ([]string, int, error) {
	var stored []string

	switch {
	case ingest.IsArchive(originalName):
		zipPath, err := ingest.StoreFile(s.config.TempDir, originalName, r)
		if err != nil {
			return nil, 0, fmt.Errorf("saving archive: %w", err)
		}
		defer os.Remove(zipPath)

		stored, err = ingest.ExtractZip(zipPath, s.config.UploadDir)
		if err != nil {
			return nil, 0, err
		}
		s.log.Infof("Extracted %d audio files from %s", len(stored), originalName)

	case ingest.IsAudioFile(originalName):
		path, err := ingest.StoreFile(s.config.UploadDir, originalName, r)
		if err != nil {
			return nil, 0, fmt.Errorf("saving upload: %w", err)
		}
		stored = []string{path}

	default:
		return nil, 0, fmt.Errorf("unsupported upload type: %s", originalName)
	}

	registered := 0
	for _, path := range stored {
		inserted, err := s.catalog.RegisterVoice(displayName(path), path)
		if err != nil {
			s.log.Warnf("Failed to register %s: %v", path, err)
			continue
		}
		if inserted {
			registered++
		}
	}

	s.log.Infof("Ingested %s: saved %d, registered %d", originalName, len(stored), registered)
	return stored, registered, nil
}

// Match reconciles the catalog with the upload dir, assembles the candidate
// set for the mode and ranks it against the query file.
func (s *voiceService) Match(ctx context.Context, queryPath string, mode MatchMode, topK int, threshold float64) (match.Outcome, error) {
	if threshold < 0 {
		return match.Outcome{}, fmt.Errorf("threshold must be non-negative, got %v", threshold)
	}
	if topK < 1 {
		topK = 1
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}

	if _, err := s.Sync(); err != nil {
		s.log.Warnf("Sync before match failed: %v", err)
	}

	candidates, err := s.candidates(mode)
	if err != nil {
		return match.Outcome{}, err
	}
	s.log.Infof("Matching %s against %d candidates (mode=%s, topK=%d, threshold=%.2f)",
		queryPath, len(candidates), mode, topK, threshold)

	outcome := s.engine.Rank(ctx, queryPath, candidates, threshold, topK)
	s.log.Infof("Match complete: %d results from %d comparisons (metThreshold=%t)",
		len(outcome.Results), outcome.Compared, outcome.MetThreshold)
	return outcome, nil
}

// candidates assembles the deduplicated candidate set for mode. Catalog rows
// come first and define the iteration order of paths both sources know; the
// folder scan overwrites the display name in place for shared paths.
func (s *voiceService) candidates(mode MatchMode) ([]match.Candidate, error) {
	var cands []match.Candidate
	index := make(map[string]int)

	if mode == ModeCatalog || mode == ModeBoth {
		voices, err := s.catalog.ListVoices()
		if err != nil {
			return nil, fmt.Errorf("listing catalog candidates: %w", err)
		}
		for _, v := range voices {
			path := normalizePath(v.Path)
			if _, ok := index[path]; ok {
				continue
			}
			index[path] = len(cands)
			cands = append(cands, match.Candidate{Name: v.Name, Path: path})
		}
	}

	if mode == ModeFolder || mode == ModeBoth {
		files, err := ingest.ScanAudioFiles(s.config.UploadDir)
		if err != nil {
			return nil, fmt.Errorf("scanning folder candidates: %w", err)
		}
		for _, f := range files {
			path := normalizePath(f)
			if i, ok := index[path]; ok {
				cands[i].Name = displayName(path)
				continue
			}
			index[path] = len(cands)
			cands = append(cands, match.Candidate{Name: displayName(path), Path: path})
		}
	}

	return cands, nil
}

func (s *voiceService) SearchByName(substr string) ([]VoiceEntry, error) {
	if _, err := s.Sync(); err != nil {
		s.log.Warnf("Sync before search failed: %v", err)
	}

	voices, err := s.catalog.SearchByName(substr)
	if err != nil {
		return nil, err
	}
	return toEntries(voices), nil
}

func (s *voiceService) ListEntries() ([]VoiceEntry, error) {
	voices, err := s.catalog.ListVoices()
	if err != nil {
		return nil, err
	}
	return toEntries(voices), nil
}

// Sync registers every unregistered audio file under the upload dir. Rows
// whose files have disappeared are left alone.
func (s *voiceService) Sync() (int, error) {
	files, err := ingest.ScanAudioFiles(s.config.UploadDir)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, f := range files {
		path := normalizePath(f)
		inserted, err := s.catalog.RegisterVoice(displayName(path), path)
		if err != nil {
			s.log.Warnf("Failed to register %s during sync: %v", path, err)
			continue
		}
		if inserted {
			added++
		}
	}
	return added, nil
}

func (s *voiceService) ClearCatalog() error {
	s.log.Infof("Clearing catalog")
	return s.catalog.ClearVoices()
}

// DeleteAllFiles removes every managed audio file from disk. Catalog rows
// are untouched; they surface later as absent comparisons.
func (s *voiceService) DeleteAllFiles() (int, error) {
	files, err := ingest.ScanAudioFiles(s.config.UploadDir)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, f := range files {
		if err := os.Remove(f); err != nil {
			s.log.Warnf("Failed to delete %s: %v", f, err)
			continue
		}
		deleted++
	}
	s.log.Infof("Deleted %d files from %s", deleted, s.config.UploadDir)
	return deleted, nil
}

func (s *voiceService) Stats() (Stats, error) {
	rows, err := s.catalog.CountVoices()
	if err != nil {
		return Stats{}, err
	}
	files, err := ingest.ScanAudioFiles(s.config.UploadDir)
	if err != nil {
		return Stats{}, err
	}
	return Stats{CatalogRows: rows, AudioFiles: len(files)}, nil
}

func (s *voiceService) Close() error {
	return s.catalog.Close()
}

// displayName derives the default label for a stored file: base name without
// extension.
func displayName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func normalizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

func toEntries(voices []storage.Voice) []VoiceEntry {
	entries := make([]VoiceEntry, 0, len(voices))
	for _, v := range voices {
		entries = append(entries, VoiceEntry{ID: v.ID, Name: v.Name, Path: v.Path})
	}
	return entries
}
