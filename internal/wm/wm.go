// Package wm defines the window-manager boundary used by the overlay engine.
//
// The engine never owns windows. It reads the stacking order of a
// workspace through WindowSource and asks a WindowMover to change where a
// window lives. Both are implemented against a real host in wm/ewmh and
// in memory in wm/wmtest.
package wm

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrWindowGone indicates the window no longer exists on the host.
var ErrWindowGone = errors.New("window gone")

// AllWorkspaces is the desktop value of a window shown on every workspace.
const AllWorkspaces = -1

// WindowID identifies a top-level window on the host.
type WindowID uint32

// String formats the id the way wmctrl and xprop print it.
func (id WindowID) String() string {
	return fmt.Sprintf("0x%08x", uint32(id))
}

// ParseWindowID parses a hex ("0x03a00007") or decimal window id.
func ParseWindowID(s string) (WindowID, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ","))
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid window id %q: %w", s, err)
	}
	return WindowID(v), nil
}

// WindowSource answers read-only questions about windows.
type WindowSource interface {
	// ListWindows returns the windows visible on the workspace, including
	// windows shown on all workspaces, ordered back-to-front (the bottom
	// of the stack first). An invalid workspace yields an empty list.
	ListWindows(ctx context.Context, workspace int) ([]WindowID, error)

	// IsGlobal reports whether the window is shown on all workspaces.
	IsGlobal(ctx context.Context, id WindowID) (bool, error)
}

// WindowMover executes window placement commands.
// Methods return an error wrapping ErrWindowGone when the window has
// disappeared.
type WindowMover interface {
	// SetGlobal sticks or unsticks the window across all workspaces.
	SetGlobal(ctx context.Context, id WindowID, global bool) error

	// MoveToWorkspace reassigns the window's home workspace.
	MoveToWorkspace(ctx context.Context, id WindowID, workspace int) error

	// Raise brings the window to the front and focuses it.
	Raise(ctx context.Context, id WindowID) error
}

// Switch is an active-workspace change reported by the host.
type Switch struct {
	From int
	To   int
}

// Desktop describes the host's workspace layout at a point in time.
type Desktop struct {
	Count  int
	Active int
}
