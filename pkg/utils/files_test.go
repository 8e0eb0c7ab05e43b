package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
}

func TestUniquePathNoCollision(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "alice.wav")

	got := UniquePath(target)
	if got != target {
		t.Errorf("Expected untouched path %s, got %s", target, got)
	}
}

func TestUniquePathSingleCollision(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "alice.wav")
	touch(t, target)

	got := UniquePath(target)
	want := filepath.Join(tmpDir, "alice_1.wav")
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestUniquePathMultipleCollisions(t *testing.T) {
	tmpDir := t.TempDir()
	touch(t, filepath.Join(tmpDir, "alice.wav"))
	touch(t, filepath.Join(tmpDir, "alice_1.wav"))
	touch(t, filepath.Join(tmpDir, "alice_2.wav"))

	got := UniquePath(filepath.Join(tmpDir, "alice.wav"))
	want := filepath.Join(tmpDir, "alice_3.wav")
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestUniquePathPreservesExtension(t *testing.T) {
	tmpDir := t.TempDir()
	touch(t, filepath.Join(tmpDir, "sample.mp3"))

	got := UniquePath(filepath.Join(tmpDir, "sample.mp3"))
	if filepath.Ext(got) != ".mp3" {
		t.Errorf("Expected .mp3 extension preserved, got %s", got)
	}
}

func TestMakeDirNested(t *testing.T) {
	tmpDir := t.TempDir()
	nested := filepath.Join(tmpDir, "a", "b", "c")

	if err := MakeDir(nested); err != nil {
		t.Fatalf("MakeDir failed: %v", err)
	}
	info, err := os.Stat(nested)
	if err != nil {
		t.Fatalf("Expected directory to exist: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("Expected %s to be a directory", nested)
	}

	// Creating an existing directory is a no-op
	if err := MakeDir(nested); err != nil {
		t.Errorf("MakeDir on existing dir should not error: %v", err)
	}
}

func TestFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "present.txt")
	touch(t, path)

	if !FileExists(path) {
		t.Errorf("Expected FileExists to be true for %s", path)
	}
	if FileExists(filepath.Join(tmpDir, "absent.txt")) {
		t.Error("Expected FileExists to be false for missing file")
	}
}

func TestDeleteFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "doomed.txt")
	touch(t, path)

	if err := DeleteFile(path); err != nil {
		t.Fatalf("DeleteFile failed: %v", err)
	}
	if FileExists(path) {
		t.Error("Expected file to be gone after DeleteFile")
	}
}

func TestMoveFile(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "src.txt")
	dst := filepath.Join(tmpDir, "dst.txt")
	touch(t, src)

	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile failed: %v", err)
	}
	if FileExists(src) {
		t.Error("Expected source to be gone after move")
	}
	if !FileExists(dst) {
		t.Error("Expected destination to exist after move")
	}
}
