package voicevault

import (
	"context"
	"io"

	"github.com/himanishpuri/VoiceVault/pkg/voicevault/match"
	"github.com/himanishpuri/VoiceVault/pkg/voicevault/storage"
)

type Service interface {
	// Ingest stores an uploaded file (or every audio entry of an uploaded
	// zip archive) in the managed directory and registers the stored paths.
	// Returns the stored paths and how many were newly registered.
	Ingest(ctx context.Context, originalName string, r io.Reader) ([]string, int, error)

	// Match ranks the candidate set of the given mode against the query
	// audio file at queryPath. The caller owns the query file's lifecycle.
	Match(ctx context.Context, queryPath string, mode MatchMode, topK int, threshold float64) (match.Outcome, error)

	SearchByName(substr string) ([]VoiceEntry, error)
	ListEntries() ([]VoiceEntry, error)

	// Sync registers every audio file present under the managed directory
	// that has no catalog row yet; returns the newly registered count.
	Sync() (int, error)

	ClearCatalog() error
	DeleteAllFiles() (int, error)
	Stats() (Stats, error)
	Close() error
}

// Catalog is the persistence collaborator behind the reconciler.
type Catalog interface {
	RegisterVoice(name, path string) (bool, error)
	IsRegistered(path string) (bool, error)
	ListVoices() ([]storage.Voice, error)
	SearchByName(substr string) ([]storage.Voice, error)
	CountVoices() (int64, error)
	ClearVoices() error
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
