package overlay

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/danieljhkim/wsoverlay/internal/wm"
)

// Pull sticks every window of a workspace to all workspaces and raises
// them over the active one.
//
// Algorithm:
// 1. List the source workspace back-to-front and reverse it; the
// front-to-back list is the capture order
// 2. Drop windows owned by another pull
// 3. Record already-global windows without touching them
// 4. Stick and raise the rest one at a time in capture order
// 5. Commit the capture and provenance records
//
// Windows that disappear while being placed are dropped from the
// capture. A listing failure aborts with no state change.
func (e *Engine) Pull(ctx context.Context, index int) (*Result, error) {
	if err := e.check(index); err != nil {
		return nil, err
	}
	name := e.registry.Name(index)

	if e.busy[index] {
		e.log.Warn("pull ignored, workspace busy", zap.String("workspace", name))
		return &Result{Workspace: index, Action: ActionNone}, nil
	}

	ws := &e.workspaces[index]
	recapture := false
	if ws.isOverlay {
		if e.opts.Repull != RepullRecapture {
			e.log.Info("workspace already pulled", zap.String("workspace", name))
			return &Result{Workspace: index, Action: ActionNone, Windows: append([]wm.WindowID(nil), ws.pulled...)}, nil
		}
		recapture = true
	}

	e.busy[index] = true
	defer delete(e.busy, index)

	listed, err := e.source.ListWindows(ctx, index)
	if err != nil {
		e.log.Error("failed to list windows", zap.String("workspace", name), zap.Error(err))
		return nil, fmt.Errorf("failed to list windows of workspace %s: %w", name, err)
	}

	var (
		captured []wm.WindowID
		skipped  []wm.WindowID
		stuck    int
		records  = make(map[wm.WindowID]Provenance)
	)
	if recapture {
		captured = append(captured, ws.pulled...)
	}

	for _, id := range frontToBack(listed) {
		if owner, ok := e.provenance[id]; ok {
			if owner.Workspace != index {
				e.log.Debug("window owned by another pull",
					zap.Stringer("window", id),
					zap.String("owner", e.registry.Name(owner.Workspace)),
				)
			}
			continue
		}

		global, err := e.source.IsGlobal(ctx, id)
		if err != nil {
			e.logPlacementFailure("failed to query window", id, err)
			skipped = append(skipped, id)
			continue
		}
		if global {
			records[id] = Provenance{Workspace: index, WasGlobal: true}
			captured = append(captured, id)
			continue
		}

		if err := e.mover.SetGlobal(ctx, id, true); err != nil {
			e.logPlacementFailure("failed to stick window", id, err)
			skipped = append(skipped, id)
			continue
		}
		records[id] = Provenance{Workspace: index}
		captured = append(captured, id)
		stuck++

		if err := e.mover.Raise(ctx, id); err != nil {
			e.logPlacementFailure("failed to raise window", id, err)
		}
	}

	for id, p := range records {
		e.provenance[id] = p
	}
	ws.pulled = captured
	ws.isOverlay = true
	e.pulledSet[index] = struct{}{}

	e.log.Info("pulled workspace",
		zap.String("workspace", name),
		zap.String("onto", e.registry.Name(e.active)),
		zap.Int("stuck", stuck),
		zap.Bool("recapture", recapture),
		windowFields(captured),
	)

	return &Result{
		Workspace: index,
		Action:    ActionPulled,
		Windows:   append([]wm.WindowID(nil), captured...),
		Skipped:   skipped,
	}, nil
}

func (e *Engine) logPlacementFailure(msg string, id wm.WindowID, err error) {
	if errors.Is(err, wm.ErrWindowGone) {
		e.log.Info("skipping window", zap.Stringer("window", id), zap.Error(err))
		return
	}
	e.log.Warn(msg, zap.Stringer("window", id), zap.Error(err))
}
