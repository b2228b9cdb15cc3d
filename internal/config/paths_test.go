package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultPaths(t *testing.T) {
	t.Run("returns paths based on home directory", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		t.Setenv("WSOVERLAY_ROOT", "")
		t.Setenv("WSOVERLAY_SOCKET", "")
		t.Setenv("XDG_CONFIG_HOME", "")
		t.Setenv("XDG_RUNTIME_DIR", "")

		paths, err := DefaultPaths()
		if err != nil {
			t.Fatalf("DefaultPaths failed: %v", err)
		}

		wantRoot := filepath.Join(home, ".config", "wsoverlay")
		if paths.Root != wantRoot {
			t.Errorf("Root = %s, want %s", paths.Root, wantRoot)
		}
		if paths.Settings != filepath.Join(wantRoot, "settings.yaml") {
			t.Errorf("Settings path incorrect: got %s", paths.Settings)
		}
		if paths.Socket != filepath.Join(wantRoot, "wsoverlay.sock") {
			t.Errorf("Socket path incorrect: got %s", paths.Socket)
		}
	})

	t.Run("uses XDG directories", func(t *testing.T) {
		t.Setenv("WSOVERLAY_ROOT", "")
		t.Setenv("WSOVERLAY_SOCKET", "")
		t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
		t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")

		paths, err := DefaultPaths()
		if err != nil {
			t.Fatalf("DefaultPaths failed: %v", err)
		}

		if paths.Root != "/xdg/config/wsoverlay" {
			t.Errorf("Root = %s", paths.Root)
		}
		if paths.Socket != "/run/user/1000/wsoverlay.sock" {
			t.Errorf("Socket = %s", paths.Socket)
		}
	})

	t.Run("respects WSOVERLAY_ROOT and WSOVERLAY_SOCKET (highest priority)", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
		t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
		t.Setenv("WSOVERLAY_ROOT", "/custom/root")
		t.Setenv("WSOVERLAY_SOCKET", "/tmp/custom.sock")

		paths, err := DefaultPaths()
		if err != nil {
			t.Fatalf("DefaultPaths failed: %v", err)
		}

		if paths.Root != "/custom/root" {
			t.Errorf("Expected root /custom/root, got %s", paths.Root)
		}
		if paths.Settings != filepath.Join("/custom/root", "settings.yaml") {
			t.Errorf("Settings should be under custom root, got: %s", paths.Settings)
		}
		if paths.Socket != "/tmp/custom.sock" {
			t.Errorf("Socket = %s", paths.Socket)
		}
	})
}

func TestEnsureDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	paths := &Paths{
		Root:     filepath.Join(tmpDir, "root"),
		Settings: filepath.Join(tmpDir, "root", "settings.yaml"),
		Socket:   filepath.Join(tmpDir, "run", "wsoverlay.sock"),
	}

	if err := paths.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	// Idempotent
	if err := paths.EnsureDirectories(); err != nil {
		t.Fatalf("second EnsureDirectories failed: %v", err)
	}
}
