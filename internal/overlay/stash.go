package overlay

import (
	"context"

	"go.uber.org/zap"

	"github.com/danieljhkim/wsoverlay/internal/wm"
)

// Stash returns the windows of a pulled workspace to where they came from.
//
// Windows are restored in their current front-to-back order on the
// active workspace, since the user may have restacked them while they
// were pulled. Windows that were already global are left untouched.
// Closed windows are skipped. Bookkeeping for the workspace is always
// cleared in full.
func (e *Engine) Stash(ctx context.Context, index int) (*Result, error) {
	if err := e.check(index); err != nil {
		return nil, err
	}
	name := e.registry.Name(index)
	ws := &e.workspaces[index]

	if !ws.isOverlay {
		e.log.Debug("workspace not pulled, nothing to stash", zap.String("workspace", name))
		return &Result{Workspace: index, Action: ActionNone}, nil
	}
	if e.busy[index] {
		e.log.Warn("stash ignored, workspace busy", zap.String("workspace", name))
		return &Result{Workspace: index, Action: ActionNone}, nil
	}

	if len(ws.pulled) == 0 {
		e.log.Info("stashing workspace", zap.String("workspace", name), zap.NamedError("reason", ErrEmptyPull))
		e.clearWorkspace(index)
		return &Result{Workspace: index, Action: ActionStashed}, nil
	}

	e.busy[index] = true
	defer delete(e.busy, index)

	order := e.restoreOrder(ctx, index)

	var restored, skipped []wm.WindowID
	seen := make(map[wm.WindowID]bool, len(order))
	for _, id := range order {
		seen[id] = true
		p := e.provenance[id]
		if p.WasGlobal {
			restored = append(restored, id)
			continue
		}

		if err := e.mover.SetGlobal(ctx, id, false); err != nil {
			e.logPlacementFailure("failed to unstick window", id, err)
			skipped = append(skipped, id)
			continue
		}
		if err := e.mover.MoveToWorkspace(ctx, id, p.Workspace); err != nil {
			e.logPlacementFailure("failed to move window", id, err)
			skipped = append(skipped, id)
			continue
		}
		restored = append(restored, id)
	}

	for _, id := range ws.pulled {
		if !seen[id] {
			e.log.Info("skipping window", zap.Stringer("window", id), zap.Error(ErrWindowGone))
			skipped = append(skipped, id)
		}
	}

	e.clearWorkspace(index)

	e.log.Info("stashed workspace",
		zap.String("workspace", name),
		zap.Int("skipped", len(skipped)),
		windowFields(restored),
	)

	return &Result{
		Workspace: index,
		Action:    ActionStashed,
		Windows:   restored,
		Skipped:   skipped,
	}, nil
}

// restoreOrder returns the captured windows of a workspace in their live
// front-to-back order on the active workspace. If the listing fails the
// captured order is used.
func (e *Engine) restoreOrder(ctx context.Context, index int) []wm.WindowID {
	ws := e.workspaces[index]

	live, err := e.source.ListWindows(ctx, e.active)
	if err != nil {
		e.log.Warn("failed to list active workspace, restoring in captured order",
			zap.String("active", e.registry.Name(e.active)),
			zap.Error(err),
		)
		return append([]wm.WindowID(nil), ws.pulled...)
	}

	members := make(map[wm.WindowID]bool, len(ws.pulled))
	for _, id := range ws.pulled {
		members[id] = true
	}

	var out []wm.WindowID
	for _, id := range frontToBack(live) {
		if members[id] {
			out = append(out, id)
		}
	}
	return out
}

// clearWorkspace drops the capture and provenance records of a workspace.
func (e *Engine) clearWorkspace(index int) {
	ws := &e.workspaces[index]
	for _, id := range ws.pulled {
		delete(e.provenance, id)
	}
	ws.pulled = nil
	ws.isOverlay = false
	delete(e.pulledSet, index)
}
