package ewmh

import (
	"bufio"
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/danieljhkim/wsoverlay/internal/wm"
)

// WatchSwitches streams active-workspace changes until ctx is done or
// xprop exits. The channel is closed when the stream ends. Values equal
// to the previous one, starting from initial, are dropped.
func (b *Backend) WatchSwitches(ctx context.Context, initial int) (<-chan wm.Switch, error) {
	rc, err := b.run.Stream(ctx, xprop, "-root", "-spy", "_NET_CURRENT_DESKTOP")
	if err != nil {
		return nil, fmt.Errorf("failed to watch current desktop: %w", err)
	}

	ch := make(chan wm.Switch)
	go func() {
		defer close(ch)
		defer func() { _ = rc.Close() }()

		prev := initial
		scanner := bufio.NewScanner(rc)
		for scanner.Scan() {
			to, ok := parseCurrentDesktop(scanner.Text())
			if !ok {
				b.log.Debug("ignoring xprop line", zap.String("line", scanner.Text()))
				continue
			}
			if to == prev {
				continue
			}

			select {
			case ch <- wm.Switch{From: prev, To: to}:
				prev = to
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			b.log.Warn("desktop watch ended", zap.Error(err))
		}
	}()
	return ch, nil
}
