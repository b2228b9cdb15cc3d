package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"
)

// ErrDaemonNotRunning is returned by Call when nothing listens on the
// socket.
var ErrDaemonNotRunning = errors.New("wsoverlay daemon is not running")

// DefaultTimeout bounds a single request when ctx has no deadline.
const DefaultTimeout = 10 * time.Second

// Call sends req to the daemon listening on socketPath and returns its
// response. A response with OK false is returned as an error.
func Call(ctx context.Context, socketPath string, req Request) (*Response, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		if errors.Is(err, syscall.ENOENT) || errors.Is(err, syscall.ECONNREFUSED) {
			return nil, fmt.Errorf("%w (socket %s)", ErrDaemonNotRunning, socketPath)
		}
		return nil, fmt.Errorf("dial daemon socket %s: %w", socketPath, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := NewEncoder(conn).Encode(req); err != nil {
		return nil, fmt.Errorf("send %s request: %w", req.Action, err)
	}

	var resp Response
	if err := NewDecoder(conn).Decode(&resp); err != nil {
		return nil, fmt.Errorf("read %s response: %w", req.Action, err)
	}
	if !resp.OK {
		return &resp, fmt.Errorf("%s: %s", req.Action, resp.Error)
	}
	return &resp, nil
}
