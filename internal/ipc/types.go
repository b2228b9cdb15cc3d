// Package ipc is the control protocol between the wsoverlay CLI and the
// daemon. Each connection to the daemon's Unix socket carries exactly one
// CBOR-encoded Request followed by one CBOR-encoded Response.
package ipc

import (
	"github.com/danieljhkim/wsoverlay/internal/overlay"
)

// Actions understood by the daemon.
const (
	// ActionToggle toggles the overlay of Request.Workspace (1-based).
	ActionToggle = "toggle"

	// ActionStatus returns the overlay state.
	ActionStatus = "status"

	// ActionStashAll stashes every pulled workspace.
	ActionStashAll = "stash-all"

	// ActionStop stashes every pulled workspace and stops the daemon.
	ActionStop = "stop"
)

// Request is sent by the CLI.
type Request struct {
	// Action is one of the Action* constants.
	Action string `cbor:"action"`

	// Workspace is the 1-based workspace number for toggle.
	Workspace int `cbor:"workspace,omitempty"`
}

// Response is sent by the daemon.
type Response struct {
	// OK is false when the request failed. Error then holds the reason.
	OK    bool   `cbor:"ok"`
	Error string `cbor:"error,omitempty"`

	// Results holds one entry per workspace the request changed, or the
	// single toggle result.
	Results []*overlay.Result `cbor:"results,omitempty"`

	// State is the overlay state after the request.
	State *overlay.State `cbor:"state,omitempty"`
}

// ErrorResponse wraps err in a failed Response.
func ErrorResponse(err error) Response {
	return Response{OK: false, Error: err.Error()}
}
