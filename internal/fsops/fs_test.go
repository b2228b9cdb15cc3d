package fsops

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRealFS_AtomicWrite(t *testing.T) {
	fs := NewRealFS()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "settings.yaml")

	t.Run("creates parent directories and file", func(t *testing.T) {
		if err := fs.AtomicWrite(path, []byte("first"), 0600); err != nil {
			t.Fatalf("AtomicWrite failed: %v", err)
		}

		data, err := fs.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile failed: %v", err)
		}
		if string(data) != "first" {
			t.Errorf("content = %q, want %q", data, "first")
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("perm = %v, want 0600", info.Mode().Perm())
		}
	})

	t.Run("overwrites without leaving temp files", func(t *testing.T) {
		if err := fs.AtomicWrite(path, []byte("second"), 0600); err != nil {
			t.Fatalf("AtomicWrite failed: %v", err)
		}

		data, _ := fs.ReadFile(path)
		if string(data) != "second" {
			t.Errorf("content = %q, want %q", data, "second")
		}

		entries, err := os.ReadDir(filepath.Dir(path))
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 {
			t.Errorf("expected only the target file, found %d entries", len(entries))
		}
	})
}
