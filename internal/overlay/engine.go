// Package overlay implements the workspace overlay state machine.
//
// Pulling a workspace sticks all of its windows to every workspace so
// they float over whatever is active. Stashing reverses the pull and
// returns each window to the workspace it came from.
//
// Key concepts:
//   - Engine: owns per-workspace overlay state and the provenance table
//   - Capture: the front-to-back window list recorded by a pull
//   - Provenance: origin workspace and prior stickiness of a pulled window
//
// The engine is not safe for concurrent use. Callers serialize Toggle,
// OnSwitch and Shutdown through a single goroutine.
package overlay

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/danieljhkim/wsoverlay/internal/workspace"
	"github.com/danieljhkim/wsoverlay/internal/wm"
)

// Options configures engine policies.
type Options struct {
	// AutoStashOnEnter stashes a pulled workspace as soon as the user
	// switches to it.
	AutoStashOnEnter bool

	// Repull selects the behavior of Pull on a pulled workspace.
	// Defaults to RepullNoop.
	Repull RepullPolicy

	// Labels are optional workspace labels keyed by index.
	Labels map[int]string
}

type workspaceState struct {
	isOverlay bool
	pulled    []wm.WindowID
}

// Engine tracks which workspaces are pulled and how to undo each pull.
type Engine struct {
	source wm.WindowSource
	mover  wm.WindowMover
	log    *zap.Logger
	opts   Options

	registry   *workspace.Registry
	workspaces []workspaceState
	active     int
	pulledSet  map[int]struct{}
	provenance map[wm.WindowID]Provenance

	// busy marks workspaces with a pull or stash in progress. Placement
	// commands may synchronously trigger OnSwitch.
	busy map[int]bool

	initialized bool
	closed      bool
}

// New creates an Engine. Initialize must be called before use.
func New(source wm.WindowSource, mover wm.WindowMover, log *zap.Logger, opts Options) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Repull == "" {
		opts.Repull = RepullNoop
	}
	return &Engine{
		source: source,
		mover:  mover,
		log:    log,
		opts:   opts,
	}
}

// Initialize creates the workspace entries and records the active
// workspace. It may be called exactly once.
func (e *Engine) Initialize(workspaceCount, activeIndex int) error {
	if e.initialized || e.closed {
		return ErrAlreadyInitialized
	}

	registry, err := workspace.New(workspaceCount, e.opts.Labels)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWorkspaceIndex, err)
	}
	if !registry.Valid(activeIndex) {
		return fmt.Errorf("%w: active workspace %d of %d", ErrInvalidWorkspaceIndex, activeIndex, workspaceCount)
	}

	e.registry = registry
	e.workspaces = make([]workspaceState, workspaceCount)
	e.active = activeIndex
	e.pulledSet = make(map[int]struct{})
	e.provenance = make(map[wm.WindowID]Provenance)
	e.busy = make(map[int]bool)
	e.initialized = true

	e.log.Info("overlay engine initialized",
		zap.Int("workspaces", workspaceCount),
		zap.String("active", registry.Name(activeIndex)),
		zap.Bool("auto_stash_on_enter", e.opts.AutoStashOnEnter),
		zap.String("repull", string(e.opts.Repull)),
	)
	return nil
}

// Toggle pulls the workspace if it is not pulled and stashes it
// otherwise. An out-of-range index is logged and returns
// ErrInvalidWorkspaceIndex without changing state.
func (e *Engine) Toggle(ctx context.Context, index int) (*Result, error) {
	if err := e.check(index); err != nil {
		e.log.Warn("toggle rejected", zap.Int("index", index), zap.Error(err))
		return nil, err
	}

	if e.isPulled(index) {
		return e.Stash(ctx, index)
	}
	return e.Pull(ctx, index)
}

// IsOverlay reports whether the workspace is currently pulled.
func (e *Engine) IsOverlay(index int) bool {
	if e.check(index) != nil {
		return false
	}
	return e.workspaces[index].isOverlay
}

// PulledWindows returns a copy of the capture of a workspace.
func (e *Engine) PulledWindows(index int) []wm.WindowID {
	if e.check(index) != nil {
		return nil
	}
	return append([]wm.WindowID(nil), e.workspaces[index].pulled...)
}

// Provenance returns the provenance record of a pulled window.
func (e *Engine) Provenance(id wm.WindowID) (Provenance, bool) {
	p, ok := e.provenance[id]
	return p, ok
}

// Active returns the last reported active workspace index.
func (e *Engine) Active() int {
	return e.active
}

// Snapshot returns a copy of the overlay state.
func (e *Engine) Snapshot() State {
	st := State{Active: e.active, Pulled: e.pulledIndices()}
	if e.registry == nil {
		return st
	}
	for _, i := range e.registry.Indices() {
		ws := e.workspaces[i]
		st.Workspaces = append(st.Workspaces, WorkspaceStatus{
			Index:   i,
			Number:  workspace.Number(i),
			Label:   e.registry.Label(i),
			Overlay: ws.isOverlay,
			Windows: append([]wm.WindowID(nil), ws.pulled...),
		})
	}
	return st
}

// Shutdown stashes every pulled workspace in ascending order and clears
// all state. The engine cannot be used afterwards.
func (e *Engine) Shutdown(ctx context.Context) ([]*Result, error) {
	if e.closed {
		return nil, ErrClosed
	}
	if !e.initialized {
		e.closed = true
		return nil, nil
	}

	var results []*Result
	for _, index := range e.pulledIndices() {
		res, err := e.Stash(ctx, index)
		if err != nil {
			e.log.Error("stash during shutdown failed", zap.String("workspace", e.registry.Name(index)), zap.Error(err))
			continue
		}
		results = append(results, res)
	}

	for i := range e.workspaces {
		e.workspaces[i] = workspaceState{}
	}
	e.pulledSet = make(map[int]struct{})
	e.provenance = make(map[wm.WindowID]Provenance)
	e.busy = make(map[int]bool)
	e.closed = true

	e.log.Info("overlay engine shut down", zap.Int("stashed", len(results)))
	return results, nil
}

// check validates engine lifecycle and the workspace index.
func (e *Engine) check(index int) error {
	if e.closed {
		return ErrClosed
	}
	if !e.initialized {
		return ErrNotInitialized
	}
	if !e.registry.Valid(index) {
		return fmt.Errorf("%w: %d (have %d workspaces)", ErrInvalidWorkspaceIndex, index, e.registry.Count())
	}
	return nil
}

func (e *Engine) isPulled(index int) bool {
	_, ok := e.pulledSet[index]
	return ok
}

// pulledIndices returns the pulled workspaces in ascending order.
func (e *Engine) pulledIndices() []int {
	out := make([]int, 0, len(e.pulledSet))
	for i := range e.pulledSet {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// frontToBack reverses a back-to-front listing.
func frontToBack(windows []wm.WindowID) []wm.WindowID {
	out := make([]wm.WindowID, len(windows))
	for i, id := range windows {
		out[len(windows)-1-i] = id
	}
	return out
}

func windowFields(windows []wm.WindowID) zap.Field {
	ids := make([]string, len(windows))
	for i, id := range windows {
		ids[i] = id.String()
	}
	return zap.Strings("windows", ids)
}
