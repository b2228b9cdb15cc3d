package overlay

import (
	"github.com/danieljhkim/wsoverlay/internal/wm"
)

// RepullPolicy decides what Pull does on a workspace that is already pulled.
type RepullPolicy string

const (
	// RepullNoop leaves the existing capture alone.
	RepullNoop RepullPolicy = "noop"

	// RepullRecapture sticks windows that appeared on the source
	// workspace since the pull and appends them to the capture.
	RepullRecapture RepullPolicy = "recapture"
)

// Valid reports whether p is a known policy.
func (p RepullPolicy) Valid() bool {
	return p == RepullNoop || p == RepullRecapture
}

// Action is the outcome of a toggle, pull or stash.
type Action string

const (
	ActionNone    Action = "none"
	ActionPulled  Action = "pulled"
	ActionStashed Action = "stashed"
)

// Result describes what a pull or stash did.
type Result struct {
	// Workspace is the zero-based index operated on.
	Workspace int `json:"workspace"`

	// Action is what happened to the workspace.
	Action Action `json:"action"`

	// Windows are the windows captured by a pull or restored by a stash,
	// front-to-back.
	Windows []wm.WindowID `json:"windows"`

	// Skipped are windows that could not be placed, usually because they
	// were closed.
	Skipped []wm.WindowID `json:"skipped,omitempty"`
}

// Provenance records where a pulled window came from.
type Provenance struct {
	// Workspace is the index the window belonged to before the pull.
	Workspace int

	// WasGlobal is true if the window was already on all workspaces.
	// Stash leaves such windows untouched.
	WasGlobal bool
}

// WorkspaceStatus is the reported state of one workspace.
type WorkspaceStatus struct {
	Index   int           `json:"index"`
	Number  int           `json:"number"`
	Label   string        `json:"label,omitempty"`
	Overlay bool          `json:"overlay"`
	Windows []wm.WindowID `json:"windows,omitempty"`
}

// State is a point-in-time copy of the engine's overlay state.
type State struct {
	Active     int               `json:"active"`
	Pulled     []int             `json:"pulled"`
	Workspaces []WorkspaceStatus `json:"workspaces"`
}
