package overlay

import (
	"context"

	"go.uber.org/zap"
)

// OnSwitch records a change of the active workspace reported by the host.
//
// Pulled workspaces are refreshed. With AutoStashOnEnter set, a pulled
// workspace is stashed when the user switches to it. It returns the
// stash result in that case and nil otherwise.
func (e *Engine) OnSwitch(ctx context.Context, from, to int) *Result {
	if e.closed || !e.initialized {
		return nil
	}
	if !e.registry.Valid(to) {
		e.log.Warn("ignoring switch to unknown workspace", zap.Int("from", from), zap.Int("to", to), zap.Error(ErrInvalidWorkspaceIndex))
		return nil
	}

	e.active = to
	e.log.Debug("workspace switched", zap.Int("from", from), zap.String("to", e.registry.Name(to)))

	for _, index := range e.pulledIndices() {
		if e.busy[index] {
			continue
		}
		e.refresh(index)
	}

	if e.opts.AutoStashOnEnter && e.isPulled(to) && !e.busy[to] {
		res, err := e.Stash(ctx, to)
		if err != nil {
			e.log.Error("auto-stash failed", zap.String("workspace", e.registry.Name(to)), zap.Error(err))
			return nil
		}
		return res
	}
	return nil
}

// refresh is called for each pulled workspace after a switch. Global
// windows already follow the user, so it only records the overlay.
func (e *Engine) refresh(index int) {
	e.log.Debug("overlay visible",
		zap.String("workspace", e.registry.Name(index)),
		zap.String("on", e.registry.Name(e.active)),
		zap.Int("windows", len(e.workspaces[index].pulled)),
	)
}
