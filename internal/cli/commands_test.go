package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/wsoverlay/internal/fsops"
	"github.com/danieljhkim/wsoverlay/internal/ipc"
	"github.com/danieljhkim/wsoverlay/internal/overlay"
	"github.com/danieljhkim/wsoverlay/internal/settings"
	"github.com/danieljhkim/wsoverlay/internal/wm"
)

// setupTestEnv points the settings root and the socket at temp paths.
func setupTestEnv(t *testing.T) (root, socket string) {
	t.Helper()
	dir, err := os.MkdirTemp("", "wsocli")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	root = filepath.Join(dir, "cfg")
	socket = filepath.Join(dir, "d.sock")
	t.Setenv("WSOVERLAY_ROOT", root)
	t.Setenv("WSOVERLAY_SOCKET", socket)
	return root, socket
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	jsonOutput = false
	exportCommand = "wsoverlay"
	exportOutput = ""

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

// serveFake answers control requests with handler until the test ends.
func serveFake(t *testing.T, socket string, handler ipc.Handler) {
	t.Helper()
	srv, err := ipc.Listen(socket, handler, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("fake daemon did not stop")
		}
		_ = srv.Close()
	})
}

func fakeState(pulled ...int) *overlay.State {
	st := &overlay.State{Active: 0, Pulled: pulled}
	for i := 0; i < 4; i++ {
		ws := overlay.WorkspaceStatus{Index: i, Number: i + 1}
		if i == 2 {
			ws.Label = "communication"
		}
		for _, p := range pulled {
			if p == i {
				ws.Overlay = true
				ws.Windows = []wm.WindowID{0x3c00004, 0x3a00007}
			}
		}
		st.Workspaces = append(st.Workspaces, ws)
	}
	return st
}

func TestBindingsLs_Defaults(t *testing.T) {
	setupTestEnv(t)

	out, err := execute(t, "bindings", "ls", "--json")
	require.NoError(t, err)

	var got map[string][]string
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	assert.Len(t, got, settings.Slots)
	assert.Equal(t, []string{"<Control><Super>3"}, got["overlay-workspace-3"])
	assert.Equal(t, []string{"<Control><Super>0"}, got["overlay-workspace-10"])
}

func TestBindingsSetAndClear(t *testing.T) {
	root, _ := setupTestEnv(t)

	out, err := execute(t, "bindings", "set", "3", "<Super><Ctrl>c")
	require.NoError(t, err)
	assert.Contains(t, out, "overlay-workspace-3 = <Control><Super>c")

	_, err = execute(t, "bindings", "clear", "10")
	require.NoError(t, err)

	s, err := settings.NewStore(fsops.NewRealFS(), filepath.Join(root, "settings.yaml")).Load()
	require.NoError(t, err)
	assert.Equal(t, "<Control><Super>c", s.Accelerator(3))
	assert.Equal(t, "", s.Accelerator(10))

	out, err = execute(t, "bindings", "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "(disabled)")
}

func TestBindingsSet_Invalid(t *testing.T) {
	setupTestEnv(t)

	_, err := execute(t, "bindings", "set", "3", "<Hyper>3")
	assert.Error(t, err)

	_, err = execute(t, "bindings", "set", "11", "<Super>1")
	assert.Error(t, err)

	_, err = execute(t, "bindings", "clear", "zero")
	assert.Error(t, err)
}

func TestBindingsExport(t *testing.T) {
	root, _ := setupTestEnv(t)

	_, err := execute(t, "bindings", "clear", "10")
	require.NoError(t, err)

	out, err := execute(t, "bindings", "export", "--command", "/usr/bin/wsoverlay")
	require.NoError(t, err)
	assert.Contains(t, out, "ctrl + super + 1\n\t/usr/bin/wsoverlay toggle 1\n")
	assert.NotContains(t, out, "toggle 10")

	target := filepath.Join(root, "sxhkdrc.wsoverlay")
	out, err = execute(t, "bindings", "export", "-o", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 9 bindings")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "wsoverlay toggle 9")
}

func TestLabel(t *testing.T) {
	root, _ := setupTestEnv(t)

	_, err := execute(t, "label", "3", "communication")
	require.NoError(t, err)

	s, err := settings.NewStore(fsops.NewRealFS(), filepath.Join(root, "settings.yaml")).Load()
	require.NoError(t, err)
	assert.Equal(t, map[int]string{3: "communication"}, s.Labels)

	_, err = execute(t, "label", "3")
	require.NoError(t, err)
	s, err = settings.NewStore(fsops.NewRealFS(), filepath.Join(root, "settings.yaml")).Load()
	require.NoError(t, err)
	assert.Empty(t, s.Labels)
}

func TestToggle_DaemonNotRunning(t *testing.T) {
	setupTestEnv(t)

	_, err := execute(t, "toggle", "1")
	assert.ErrorIs(t, err, ipc.ErrDaemonNotRunning)
}

func TestToggle_InvalidNumber(t *testing.T) {
	setupTestEnv(t)

	for _, arg := range []string{"0", "-1", "three"} {
		_, err := execute(t, "toggle", arg)
		assert.Error(t, err, arg)
	}
}

func TestToggleAndStatus(t *testing.T) {
	_, socket := setupTestEnv(t)

	var (
		mu  sync.Mutex
		got []ipc.Request
	)
	serveFake(t, socket, func(_ context.Context, req ipc.Request) ipc.Response {
		mu.Lock()
		got = append(got, req)
		mu.Unlock()
		switch req.Action {
		case ipc.ActionToggle:
			return ipc.Response{
				OK: true,
				Results: []*overlay.Result{{
					Workspace: req.Workspace - 1,
					Action:    overlay.ActionPulled,
					Windows:   []wm.WindowID{0x3c00004, 0x3a00007},
					Skipped:   []wm.WindowID{0x3a00009},
				}},
				State: fakeState(req.Workspace - 1),
			}
		case ipc.ActionStatus:
			return ipc.Response{OK: true, State: fakeState(2)}
		}
		return ipc.ErrorResponse(assert.AnError)
	})

	out, err := execute(t, "toggle", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Pulled workspace 3 (communication) (2 windows)")
	assert.Contains(t, out, "Skipped 1 window: 0x03a00009")

	out, err = execute(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Overlay Status")
	assert.Contains(t, out, "pulled")
	assert.Contains(t, out, "0x03c00004, 0x03a00007")

	out, err = execute(t, "status", "--json")
	require.NoError(t, err)
	var state overlay.State
	require.NoError(t, json.Unmarshal([]byte(out), &state), out)
	assert.Equal(t, []int{2}, state.Pulled)

	_, err = execute(t, "stash-all")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), assert.AnError.Error()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 4)
	assert.Equal(t, ipc.Request{Action: ipc.ActionToggle, Workspace: 3}, got[0])
	assert.Equal(t, ipc.ActionStashAll, got[3].Action)
}

func TestStop(t *testing.T) {
	_, socket := setupTestEnv(t)

	serveFake(t, socket, func(_ context.Context, req ipc.Request) ipc.Response {
		return ipc.Response{OK: true, State: fakeState()}
	})

	out, err := execute(t, "stop")
	require.NoError(t, err)
	assert.Contains(t, out, "No workspace is pulled")
	assert.Contains(t, out, "Daemon stopped")
}
