package ingest

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/himanishpuri/VoiceVault/pkg/utils"
)

// Supported audio container extensions, compared case-insensitively on the
// base name.
var audioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".ogg":  true,
	".flac": true,
	".m4a":  true,
}

// macOS metadata folder that zip archives created by Finder carry along.
const macOSMetaPrefix = "__MACOSX/"

// IsAudioFile reports whether name has a supported audio extension.
func IsAudioFile(name string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(filepath.Base(name)))]
}

// IsArchive reports whether name looks like a zip archive.
func IsArchive(name string) bool {
	return strings.EqualFold(filepath.Ext(filepath.Base(name)), ".zip")
}

// StoreFile writes the contents of r into destDir under the base name of
// originalName. An existing file of the same name is never overwritten; a
// numeric suffix is appended instead. Returns the absolute stored path.
func StoreFile(destDir, originalName string, r io.Reader) (string, error) {
	if err := utils.MakeDir(destDir); err != nil {
		return "", fmt.Errorf("creating destination dir: %w", err)
	}

	safeName := filepath.Base(originalName)
	if safeName == "" || safeName == "." || safeName == string(filepath.Separator) {
		return "", fmt.Errorf("invalid upload name %q", originalName)
	}

	destPath := utils.UniquePath(filepath.Join(destDir, safeName))
	out, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", destPath, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("writing %s: %w", destPath, err)
	}

	abs, err := filepath.Abs(destPath)
	if err != nil {
		return destPath, nil
	}
	return abs, nil
}

// ExtractZip pulls every audio entry out of the archive at zipPath into
// destDir with the same collision-safe naming as StoreFile. Directory
// entries, macOS metadata entries and non-audio entries are skipped
// silently, and a corrupt entry never aborts extraction of the rest.
// Returns the stored absolute paths.
func ExtractZip(zipPath, destDir string) ([]string, error) {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", zipPath, err)
	}
	defer reader.Close()

	var saved []string
	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() || strings.HasSuffix(entry.Name, "/") {
			continue
		}
		if strings.HasPrefix(entry.Name, macOSMetaPrefix) {
			continue
		}
		name := filepath.Base(filepath.FromSlash(entry.Name))
		if name == "" || name == "." || !IsAudioFile(name) {
			continue
		}

		rc, err := entry.Open()
		if err != nil {
			continue
		}
		stored, err := StoreFile(destDir, name, rc)
		rc.Close()
		if err != nil {
			continue
		}
		saved = append(saved, stored)
	}

	return saved, nil
}

// ScanAudioFiles walks root recursively and returns the normalized absolute
// paths of every supported audio file, sorted and deduplicated.
func ScanAudioFiles(root string) ([]string, error) {
	seen := make(map[string]bool)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsAudioFile(path) {
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil
		}
		seen[abs] = true
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}
