package voicevault

import (
	"fmt"
	"strings"
)

// VoiceEntry is one registered audio sample as seen by callers. Path is the
// unique key; Name is display text only.
type VoiceEntry struct {
	ID   string
	Name string
	Path string
}

// MatchMode selects which sources feed the candidate set of a match query.
type MatchMode int

const (
	// ModeCatalog compares against catalog rows only.
	ModeCatalog MatchMode = iota
	// ModeFolder compares against a live scan of the upload directory only.
	ModeFolder
	// ModeBoth unions catalog and folder. When a path appears in both, the
	// folder-derived name wins.
	ModeBoth
)

func (m MatchMode) String() string {
	switch m {
	case ModeCatalog:
		return "catalog"
	case ModeFolder:
		return "folder"
	case ModeBoth:
		return "both"
	default:
		return "unknown"
	}
}

// ParseMatchMode maps the wire names "catalog", "folder" and "both" to a
// MatchMode, case-insensitively. An empty string defaults to ModeBoth.
func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(s) {
	case "catalog":
		return ModeCatalog, nil
	case "folder":
		return ModeFolder, nil
	case "both", "":
		return ModeBoth, nil
	default:
		return ModeBoth, fmt.Errorf("unknown match mode %q", s)
	}
}

// Stats summarizes catalog and filesystem state for health reporting.
type Stats struct {
	CatalogRows int64
	AudioFiles  int
}

// Query limits and defaults.
const (
	DefaultTopK      = 3
	MaxTopK          = 10
	DefaultThreshold = 100.0
)
