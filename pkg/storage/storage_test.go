package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveFile(t *testing.T) {
	s := &Storage{}
	path := filepath.Join(t.TempDir(), "nested", "dir", "report.txt")

	if err := s.SaveFile(path, []byte("first")); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}
	if err := s.SaveFile(path, []byte("second")); err != nil {
		t.Fatalf("SaveFile() overwrite error = %v", err)
	}

	data, err := s.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want %q", data, "second")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("mode = %v, want 0644", info.Mode().Perm())
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %d entries", len(entries))
	}
}

func TestReadFile_Missing(t *testing.T) {
	if _, err := (&Storage{}).ReadFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("ReadFile() error = nil for missing file")
	}
}
