package ipc

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/wsoverlay/internal/overlay"
	"github.com/danieljhkim/wsoverlay/internal/wm"
)

// socketPath returns a short path; t.TempDir can exceed the sun_path limit.
func socketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "wso")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

func startServer(t *testing.T, path string, h Handler) *Server {
	t.Helper()
	srv, err := Listen(path, h, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
		_ = srv.Close()
	})
	return srv
}

func TestCodec_ResultRoundTrip(t *testing.T) {
	resp := Response{
		OK: true,
		Results: []*overlay.Result{{
			Workspace: 2,
			Action:    overlay.ActionPulled,
			Windows:   []wm.WindowID{0x3c00004, 0x3a00007},
		}},
	}
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(resp))
	data := append([]byte(nil), buf.Bytes()...)

	var got Response
	require.NoError(t, NewDecoder(&buf).Decode(&got))
	assert.Equal(t, resp, got)

	var again bytes.Buffer
	require.NoError(t, NewEncoder(&again).Encode(got))
	assert.Equal(t, data, again.Bytes(), "encoding is deterministic")
}

func TestCall(t *testing.T) {
	path := socketPath(t)
	startServer(t, path, func(_ context.Context, req Request) Response {
		switch req.Action {
		case ActionToggle:
			return Response{OK: true, Results: []*overlay.Result{{
				Workspace: req.Workspace - 1,
				Action:    overlay.ActionPulled,
			}}}
		case ActionStatus:
			return Response{OK: true, State: &overlay.State{Active: 1, Pulled: []int{0}}}
		}
		return ErrorResponse(errors.New("unknown action"))
	})
	ctx := context.Background()

	resp, err := Call(ctx, path, Request{Action: ActionToggle, Workspace: 3})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, 2, resp.Results[0].Workspace)
	assert.Equal(t, overlay.ActionPulled, resp.Results[0].Action)

	resp, err = Call(ctx, path, Request{Action: ActionStatus})
	require.NoError(t, err)
	require.NotNil(t, resp.State)
	assert.Equal(t, []int{0}, resp.State.Pulled)

	resp, err = Call(ctx, path, Request{Action: "bogus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown action")
	require.NotNil(t, resp)
	assert.False(t, resp.OK)
}

func TestCall_DaemonNotRunning(t *testing.T) {
	_, err := Call(context.Background(), socketPath(t), Request{Action: ActionStatus})
	assert.ErrorIs(t, err, ErrDaemonNotRunning)
}

func TestListen_RemovesStaleSocket(t *testing.T) {
	path := socketPath(t)
	require.NoError(t, os.WriteFile(path, nil, 0600))

	startServer(t, path, func(context.Context, Request) Response {
		return Response{OK: true}
	})

	_, err := Call(context.Background(), path, Request{Action: ActionStatus})
	assert.NoError(t, err)
}

func TestListen_RefusesLiveSocket(t *testing.T) {
	path := socketPath(t)
	startServer(t, path, func(context.Context, Request) Response {
		return Response{OK: true}
	})

	_, err := Listen(path, nil, nil)
	assert.Error(t, err)
}
