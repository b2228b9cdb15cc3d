// Package wmtest provides an in-memory window manager for tests.
package wmtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/danieljhkim/wsoverlay/internal/wm"
)

// Command operations recorded by FakeWM.
const (
	OpSetGlobal   = "set-global"
	OpUnsetGlobal = "unset-global"
	OpMove        = "move"
	OpRaise       = "raise"
)

// Command is one placement command received by FakeWM.
type Command struct {
	Op        string
	ID        wm.WindowID
	Workspace int
}

func (c Command) String() string {
	if c.Op == OpMove {
		return fmt.Sprintf("%s %s %d", c.Op, c.ID, c.Workspace)
	}
	return fmt.Sprintf("%s %s", c.Op, c.ID)
}

// FakeWM implements wm.WindowSource and wm.WindowMover in memory.
// Windows live on one stack, ordered back-to-front.
type FakeWM struct {
	mu       sync.Mutex
	stack    []wm.WindowID
	desktops map[wm.WindowID]int
	active   int
	commands []Command
	listErr  error

	// OnRaise, when set, runs synchronously inside Raise after the window
	// has been raised. Tests use it to simulate a host that emits a
	// workspace switch while a pull is running.
	OnRaise func(id wm.WindowID)
}

// NewFakeWM creates an empty FakeWM whose active workspace is active.
func NewFakeWM(active int) *FakeWM {
	return &FakeWM{
		desktops: make(map[wm.WindowID]int),
		active:   active,
	}
}

// AddWindow places a new window on top of the stack on the given
// workspace. Use wm.AllWorkspaces for a window shown everywhere.
func (f *FakeWM) AddWindow(id wm.WindowID, workspace int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stack = append(f.stack, id)
	f.desktops[id] = workspace
}

// Close removes a window as if the user closed it.
func (f *FakeWM) Close(id wm.WindowID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.desktops, id)
	for i, w := range f.stack {
		if w == id {
			f.stack = append(f.stack[:i], f.stack[i+1:]...)
			break
		}
	}
}

// SetActive changes the workspace the fake considers active.
func (f *FakeWM) SetActive(workspace int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = workspace
}

// SetListError makes ListWindows fail with err until cleared with nil.
func (f *FakeWM) SetListError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
}

// WorkspaceOf returns the workspace a window is assigned to.
func (f *FakeWM) WorkspaceOf(id wm.WindowID) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.desktops[id]
	return d, ok
}

// Stack returns a copy of the stack, back-to-front.
func (f *FakeWM) Stack() []wm.WindowID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]wm.WindowID(nil), f.stack...)
}

// Commands returns the placement commands received so far.
func (f *FakeWM) Commands() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Command(nil), f.commands...)
}

// CommandsFor returns the commands received for one window.
func (f *FakeWM) CommandsFor(id wm.WindowID) []Command {
	var out []Command
	for _, c := range f.Commands() {
		if c.ID == id {
			out = append(out, c)
		}
	}
	return out
}

// ResetCommands clears the command log.
func (f *FakeWM) ResetCommands() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = nil
}

// ListWindows implements wm.WindowSource.
func (f *FakeWM) ListWindows(ctx context.Context, workspace int) ([]wm.WindowID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []wm.WindowID
	for _, id := range f.stack {
		d := f.desktops[id]
		if d == workspace || d == wm.AllWorkspaces {
			out = append(out, id)
		}
	}
	return out, nil
}

// IsGlobal implements wm.WindowSource.
func (f *FakeWM) IsGlobal(ctx context.Context, id wm.WindowID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.desktops[id]
	if !ok {
		return false, fmt.Errorf("%s: %w", id, wm.ErrWindowGone)
	}
	return d == wm.AllWorkspaces, nil
}

// SetGlobal implements wm.WindowMover. Unsticking leaves the window on
// the active workspace.
func (f *FakeWM) SetGlobal(ctx context.Context, id wm.WindowID, global bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.desktops[id]; !ok {
		return fmt.Errorf("%s: %w", id, wm.ErrWindowGone)
	}
	if global {
		f.commands = append(f.commands, Command{Op: OpSetGlobal, ID: id})
		f.desktops[id] = wm.AllWorkspaces
		return nil
	}
	f.commands = append(f.commands, Command{Op: OpUnsetGlobal, ID: id})
	if f.desktops[id] == wm.AllWorkspaces {
		f.desktops[id] = f.active
	}
	return nil
}

// MoveToWorkspace implements wm.WindowMover.
func (f *FakeWM) MoveToWorkspace(ctx context.Context, id wm.WindowID, workspace int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.desktops[id]; !ok {
		return fmt.Errorf("%s: %w", id, wm.ErrWindowGone)
	}
	f.commands = append(f.commands, Command{Op: OpMove, ID: id, Workspace: workspace})
	f.desktops[id] = workspace
	return nil
}

// Raise implements wm.WindowMover.
func (f *FakeWM) Raise(ctx context.Context, id wm.WindowID) error {
	f.mu.Lock()
	if _, ok := f.desktops[id]; !ok {
		f.mu.Unlock()
		return fmt.Errorf("%s: %w", id, wm.ErrWindowGone)
	}
	f.commands = append(f.commands, Command{Op: OpRaise, ID: id})
	for i, w := range f.stack {
		if w == id {
			f.stack = append(f.stack[:i], f.stack[i+1:]...)
			break
		}
	}
	f.stack = append(f.stack, id)
	hook := f.OnRaise
	f.mu.Unlock()

	if hook != nil {
		hook(id)
	}
	return nil
}
