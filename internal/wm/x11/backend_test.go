package x11

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/wsoverlay/internal/wm"
)

func TestOnWorkspace(t *testing.T) {
	assert.True(t, onWorkspace(2, 2))
	assert.True(t, onWorkspace(allDesktops, 0))
	assert.True(t, onWorkspace(allDesktops, 7))
	assert.False(t, onWorkspace(1, 2))
}

func TestFilterWorkspace(t *testing.T) {
	desktops := map[xproto.Window]uint{
		0x1e00003: allDesktops,
		0x3a00007: 2,
		0x3c00004: 2,
		0x4400001: 0,
	}
	desktopOf := func(win xproto.Window) (uint, error) {
		d, ok := desktops[win]
		if !ok {
			return 0, errors.New("BadWindow")
		}
		return d, nil
	}
	stacking := []xproto.Window{0x1e00003, 0x3c00004, 0x5000001, 0x4400001, 0x3a00007}

	tests := []struct {
		name      string
		workspace int
		want      []wm.WindowID
	}{
		{"workspace with windows", 2, []wm.WindowID{0x1e00003, 0x3c00004, 0x3a00007}},
		{"first workspace", 0, []wm.WindowID{0x1e00003, 0x4400001}},
		{"only global windows", 3, []wm.WindowID{0x1e00003}},
		{"negative index", -1, nil},
		{"index equal to count", 4, nil},
		{"index past count", 12, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filterWorkspace(stacking, desktopOf, tt.workspace, 4))
		})
	}
}

func TestContainsWindow(t *testing.T) {
	list := []xproto.Window{0x1e00003, 0x3a00007}
	assert.True(t, containsWindow(list, 0x3a00007))
	assert.False(t, containsWindow(list, 0x3c00004))
	assert.False(t, containsWindow(nil, 0x3c00004))
}

func TestConnect_LiveDisplay(t *testing.T) {
	if os.Getenv("WSOVERLAY_X11_TEST") == "" || os.Getenv("DISPLAY") == "" {
		t.Skip("set WSOVERLAY_X11_TEST and DISPLAY to run against a live X server")
	}

	b, err := Connect(nil)
	require.NoError(t, err)
	defer b.Close()

	desk, err := b.Desktop(context.Background())
	require.NoError(t, err)
	assert.Greater(t, desk.Count, 0)
	assert.Less(t, desk.Active, desk.Count)

	_, err = b.ListWindows(context.Background(), desk.Active)
	assert.NoError(t, err)
}
