// Package config manages wsoverlay configuration and filesystem paths.
//
// The settings root defaults to $XDG_CONFIG_HOME/wsoverlay (or
// ~/.config/wsoverlay) and holds settings.yaml. The control socket lives
// in $XDG_RUNTIME_DIR, falling back to the settings root.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains all the filesystem paths used by wsoverlay.
type Paths struct {
	// Root is the base directory for wsoverlay settings
	Root string

	// Settings is the path to the settings file
	Settings string

	// Socket is the path to the daemon's control socket
	Socket string
}

// DefaultPaths returns the default paths for wsoverlay.
// Paths can be overridden with environment variables:
// - WSOVERLAY_ROOT: Override the settings root directory
// - WSOVERLAY_SOCKET: Override the control socket path
func DefaultPaths() (*Paths, error) {
	root := os.Getenv("WSOVERLAY_ROOT")
	if root == "" {
		base := os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get user home directory: %w", err)
			}
			base = filepath.Join(home, ".config")
		}
		root = filepath.Join(base, "wsoverlay")
	}

	socket := os.Getenv("WSOVERLAY_SOCKET")
	if socket == "" {
		if runtime := os.Getenv("XDG_RUNTIME_DIR"); runtime != "" {
			socket = filepath.Join(runtime, "wsoverlay.sock")
		} else {
			socket = filepath.Join(root, "wsoverlay.sock")
		}
	}

	return &Paths{
		Root:     root,
		Settings: filepath.Join(root, "settings.yaml"),
		Socket:   socket,
	}, nil
}

// EnsureDirectories creates all necessary directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.Root,
		filepath.Dir(p.Socket),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
