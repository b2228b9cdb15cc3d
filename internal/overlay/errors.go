package overlay

import (
	"errors"

	"github.com/danieljhkim/wsoverlay/internal/wm"
)

var (
	// ErrInvalidWorkspaceIndex indicates an index outside [0, count).
	ErrInvalidWorkspaceIndex = errors.New("invalid workspace index")

	// ErrEmptyPull indicates a stash of a pull that captured no windows.
	// It is logged, never returned.
	ErrEmptyPull = errors.New("pull captured no windows")

	// ErrWindowGone indicates a captured window no longer exists.
	ErrWindowGone = wm.ErrWindowGone

	// ErrNotInitialized indicates the engine was used before Initialize.
	ErrNotInitialized = errors.New("engine not initialized")

	// ErrAlreadyInitialized indicates Initialize was called twice.
	ErrAlreadyInitialized = errors.New("engine already initialized")

	// ErrClosed indicates the engine was used after Shutdown.
	ErrClosed = errors.New("engine shut down")
)
