// Package ewmh drives an EWMH-compliant X11 window manager through the
// wmctrl and xprop command-line tools.
//
// Windows on all workspaces report desktop -1. The stacking order comes
// from the root window's _NET_CLIENT_LIST_STACKING property, which lists
// clients bottom-to-top.
package ewmh

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/danieljhkim/wsoverlay/internal/wm"
)

const (
	wmctrl = "wmctrl"
	xprop  = "xprop"
)

// Backend implements wm.WindowSource and wm.WindowMover.
type Backend struct {
	run Runner
	log *zap.Logger
}

// New creates a Backend that runs commands through run.
func New(run Runner, log *zap.Logger) *Backend {
	if log == nil {
		log = zap.NewNop()
	}
	return &Backend{run: run, log: log}
}

// Desktop returns the workspace count and the active workspace.
func (b *Backend) Desktop(ctx context.Context) (wm.Desktop, error) {
	out, err := b.run.Output(ctx, wmctrl, "-d")
	if err != nil {
		return wm.Desktop{}, fmt.Errorf("failed to list desktops: %w", err)
	}
	return parseDesktops(out)
}

// ListWindows returns the windows on a workspace, plus windows on all
// workspaces, back-to-front.
func (b *Backend) ListWindows(ctx context.Context, workspace int) ([]wm.WindowID, error) {
	if workspace < 0 {
		return nil, nil
	}
	desk, err := b.Desktop(ctx)
	if err != nil {
		return nil, err
	}
	if workspace >= desk.Count {
		return nil, nil
	}

	clients, err := b.clients(ctx)
	if err != nil {
		return nil, err
	}
	stacking, err := b.stacking(ctx)
	if err != nil {
		return nil, err
	}

	var out []wm.WindowID
	for _, id := range stacking {
		d, ok := clients[id]
		if !ok {
			continue
		}
		if d == workspace || d == wm.AllWorkspaces {
			out = append(out, id)
		}
	}
	b.log.Debug("listed windows", zap.Int("workspace", workspace), zap.Int("count", len(out)))
	return out, nil
}

// IsGlobal reports whether the window is on all workspaces.
func (b *Backend) IsGlobal(ctx context.Context, id wm.WindowID) (bool, error) {
	clients, err := b.clients(ctx)
	if err != nil {
		return false, err
	}
	d, ok := clients[id]
	if !ok {
		return false, fmt.Errorf("%s: %w", id, wm.ErrWindowGone)
	}
	return d == wm.AllWorkspaces, nil
}

// SetGlobal moves the window to all workspaces, or removes its sticky
// state. Unsticking is normally followed by MoveToWorkspace.
func (b *Backend) SetGlobal(ctx context.Context, id wm.WindowID, global bool) error {
	if global {
		return b.windowCommand(ctx, id, "-i", "-r", id.String(), "-t", "-1")
	}
	return b.windowCommand(ctx, id, "-i", "-r", id.String(), "-b", "remove,sticky")
}

// MoveToWorkspace assigns the window to a workspace.
func (b *Backend) MoveToWorkspace(ctx context.Context, id wm.WindowID, workspace int) error {
	return b.windowCommand(ctx, id, "-i", "-r", id.String(), "-t", strconv.Itoa(workspace))
}

// Raise activates the window.
func (b *Backend) Raise(ctx context.Context, id wm.WindowID) error {
	return b.windowCommand(ctx, id, "-i", "-a", id.String())
}

// windowCommand runs a wmctrl command against one window. A failure on a
// window that is no longer listed is reported as wm.ErrWindowGone.
func (b *Backend) windowCommand(ctx context.Context, id wm.WindowID, args ...string) error {
	if _, err := b.run.Output(ctx, wmctrl, args...); err != nil {
		clients, listErr := b.clients(ctx)
		if listErr == nil {
			if _, ok := clients[id]; !ok {
				return fmt.Errorf("%s: %w", id, wm.ErrWindowGone)
			}
		}
		return fmt.Errorf("wmctrl %s failed: %w", strings.Join(args, " "), err)
	}
	return nil
}

// clients maps each managed window to its desktop.
func (b *Backend) clients(ctx context.Context) (map[wm.WindowID]int, error) {
	out, err := b.run.Output(ctx, wmctrl, "-l")
	if err != nil {
		return nil, fmt.Errorf("failed to list windows: %w", err)
	}
	return parseClients(out)
}

// stacking returns managed windows bottom-to-top.
func (b *Backend) stacking(ctx context.Context) ([]wm.WindowID, error) {
	out, err := b.run.Output(ctx, xprop, "-root", "_NET_CLIENT_LIST_STACKING")
	if err != nil {
		return nil, fmt.Errorf("failed to read stacking order: %w", err)
	}
	return parseStacking(out)
}

// parseDesktops parses `wmctrl -d` output:
//
//	0  * DG: 3840x1080  VP: 0,0  WA: 0,0 3840x1052  Workspace 1
//	1  - DG: 3840x1080  VP: N/A  WA: 0,0 3840x1052  Workspace 2
func parseDesktops(out []byte) (wm.Desktop, error) {
	desk := wm.Desktop{Active: -1}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		index, err := strconv.Atoi(fields[0])
		if err != nil {
			return wm.Desktop{}, fmt.Errorf("invalid desktop line %q: %w", scanner.Text(), err)
		}
		desk.Count++
		if fields[1] == "*" {
			desk.Active = index
		}
	}
	if err := scanner.Err(); err != nil {
		return wm.Desktop{}, fmt.Errorf("failed to read desktops: %w", err)
	}
	if desk.Count == 0 {
		return wm.Desktop{}, fmt.Errorf("window manager reported no desktops")
	}
	if desk.Active < 0 {
		desk.Active = 0
	}
	return desk, nil
}

// parseClients parses `wmctrl -l` output:
//
//	0x03a00007  0 host Terminal
//	0x01e00003 -1 host Panel
func parseClients(out []byte) (map[wm.WindowID]int, error) {
	clients := make(map[wm.WindowID]int)
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		id, err := wm.ParseWindowID(fields[0])
		if err != nil {
			return nil, err
		}
		desktop, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("invalid desktop for window %s: %w", fields[0], err)
		}
		if desktop < 0 {
			desktop = wm.AllWorkspaces
		}
		clients[id] = desktop
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read window list: %w", err)
	}
	return clients, nil
}

// parseStacking parses the root window property:
//
//	_NET_CLIENT_LIST_STACKING(WINDOW): window id # 0x1a00007, 0x3a00007
func parseStacking(out []byte) ([]wm.WindowID, error) {
	line := strings.TrimSpace(string(out))
	i := strings.Index(line, "#")
	if i < 0 {
		// "not found." when no clients are managed.
		return nil, nil
	}

	var ids []wm.WindowID
	for _, part := range strings.Split(line[i+1:], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := wm.ParseWindowID(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseCurrentDesktop parses one line of
// `xprop -root -spy _NET_CURRENT_DESKTOP`:
//
//	_NET_CURRENT_DESKTOP(CARDINAL) = 2
func parseCurrentDesktop(line string) (int, bool) {
	i := strings.LastIndex(line, "=")
	if i < 0 {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(line[i+1:]))
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
