// Package x11 drives an EWMH-compliant window manager over a direct X
// connection with xgbutil. It is the in-process alternative to the
// wmctrl-based ewmh package.
package x11

import (
	"context"
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
	"go.uber.org/zap"

	"github.com/danieljhkim/wsoverlay/internal/wm"
)

// allDesktops is the _NET_WM_DESKTOP value of a window shown everywhere.
const allDesktops = 0xFFFFFFFF

const stickyState = "_NET_WM_STATE_STICKY"

// Backend implements wm.WindowSource and wm.WindowMover.
type Backend struct {
	xu  *xgbutil.XUtil
	log *zap.Logger

	quitOnce sync.Once
}

// Connect opens the display named by $DISPLAY.
func Connect(log *zap.Logger) (*Backend, error) {
	if log == nil {
		log = zap.NewNop()
	}
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}
	if _, err := ewmh.GetEwmhWM(xu); err != nil {
		log.Warn("window manager does not advertise EWMH support", zap.Error(err))
	}
	return &Backend{xu: xu, log: log}, nil
}

// Close stops the event loop, if running, and closes the connection.
func (b *Backend) Close() error {
	b.quit()
	b.xu.Conn().Close()
	return nil
}

// Desktop returns the workspace count and the active workspace.
func (b *Backend) Desktop(ctx context.Context) (wm.Desktop, error) {
	count, err := ewmh.NumberOfDesktopsGet(b.xu)
	if err != nil {
		return wm.Desktop{}, fmt.Errorf("failed to read _NET_NUMBER_OF_DESKTOPS: %w", err)
	}
	if count == 0 {
		return wm.Desktop{}, fmt.Errorf("window manager reported no desktops")
	}
	active, err := ewmh.CurrentDesktopGet(b.xu)
	if err != nil {
		return wm.Desktop{}, fmt.Errorf("failed to read _NET_CURRENT_DESKTOP: %w", err)
	}
	return wm.Desktop{Count: int(count), Active: int(active)}, nil
}

// ListWindows returns the windows on a workspace, plus windows on all
// workspaces, back-to-front.
func (b *Backend) ListWindows(ctx context.Context, workspace int) ([]wm.WindowID, error) {
	if workspace < 0 {
		return nil, nil
	}
	count, err := ewmh.NumberOfDesktopsGet(b.xu)
	if err != nil {
		return nil, fmt.Errorf("failed to read _NET_NUMBER_OF_DESKTOPS: %w", err)
	}
	stacking, err := ewmh.ClientListStackingGet(b.xu)
	if err != nil {
		return nil, fmt.Errorf("failed to read stacking order: %w", err)
	}
	desktopOf := func(win xproto.Window) (uint, error) {
		return ewmh.WmDesktopGet(b.xu, win)
	}
	return filterWorkspace(stacking, desktopOf, workspace, count), nil
}

// IsGlobal reports whether the window is on all workspaces.
func (b *Backend) IsGlobal(ctx context.Context, id wm.WindowID) (bool, error) {
	d, err := ewmh.WmDesktopGet(b.xu, xproto.Window(id))
	if err != nil {
		if !b.exists(id) {
			return false, fmt.Errorf("%s: %w", id, wm.ErrWindowGone)
		}
		return false, err
	}
	return d == allDesktops, nil
}

// SetGlobal moves the window to all workspaces, or removes the sticky
// state and leaves it on the active workspace.
func (b *Backend) SetGlobal(ctx context.Context, id wm.WindowID, global bool) error {
	win := xproto.Window(id)
	if global {
		return b.request(id, ewmh.WmDesktopReq(b.xu, win, allDesktops))
	}
	if err := b.request(id, ewmh.WmStateReq(b.xu, win, ewmh.StateRemove, stickyState)); err != nil {
		return err
	}
	active, err := ewmh.CurrentDesktopGet(b.xu)
	if err != nil {
		return fmt.Errorf("failed to read _NET_CURRENT_DESKTOP: %w", err)
	}
	return b.request(id, ewmh.WmDesktopReq(b.xu, win, active))
}

// MoveToWorkspace assigns the window to a workspace.
func (b *Backend) MoveToWorkspace(ctx context.Context, id wm.WindowID, workspace int) error {
	return b.request(id, ewmh.WmDesktopReq(b.xu, xproto.Window(id), uint(workspace)))
}

// Raise activates the window.
func (b *Backend) Raise(ctx context.Context, id wm.WindowID) error {
	return b.request(id, ewmh.ActiveWindowReq(b.xu, xproto.Window(id)))
}

// WatchSwitches streams _NET_CURRENT_DESKTOP changes on the root window
// until ctx is done. Values equal to the previous one are dropped.
func (b *Backend) WatchSwitches(ctx context.Context, initial int) (<-chan wm.Switch, error) {
	root := xwindow.New(b.xu, b.xu.RootWin())
	if err := root.Listen(xproto.EventMaskPropertyChange); err != nil {
		return nil, fmt.Errorf("failed to listen on root window: %w", err)
	}

	ch := make(chan wm.Switch, 16)
	prev := initial
	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		name, err := xprop.AtomName(xu, ev.Atom)
		if err != nil || name != "_NET_CURRENT_DESKTOP" {
			return
		}
		cur, err := ewmh.CurrentDesktopGet(xu)
		if err != nil {
			b.log.Debug("failed to read current desktop", zap.Error(err))
			return
		}
		to := int(cur)
		if to == prev {
			return
		}
		select {
		case ch <- wm.Switch{From: prev, To: to}:
			prev = to
		case <-ctx.Done():
		}
	}).Connect(b.xu, b.xu.RootWin())

	go func() {
		<-ctx.Done()
		b.quit()
	}()
	go func() {
		defer close(ch)
		xevent.Main(b.xu)
	}()
	return ch, nil
}

func (b *Backend) quit() {
	b.quitOnce.Do(func() { xevent.Quit(b.xu) })
}

// request maps a failed client message on a destroyed window to
// wm.ErrWindowGone.
func (b *Backend) request(id wm.WindowID, err error) error {
	if err == nil {
		return nil
	}
	if !b.exists(id) {
		return fmt.Errorf("%s: %w", id, wm.ErrWindowGone)
	}
	return fmt.Errorf("%s: %w", id, err)
}

func (b *Backend) exists(id wm.WindowID) bool {
	clients, err := ewmh.ClientListGet(b.xu)
	if err != nil {
		return true
	}
	return containsWindow(clients, xproto.Window(id))
}

// filterWorkspace keeps the windows of stacking that are on workspace or
// on all workspaces. A workspace outside [0, count) has no windows.
func filterWorkspace(stacking []xproto.Window, desktopOf func(xproto.Window) (uint, error), workspace int, count uint) []wm.WindowID {
	if workspace < 0 || uint(workspace) >= count {
		return nil
	}
	var out []wm.WindowID
	for _, win := range stacking {
		d, err := desktopOf(win)
		if err != nil {
			// Window closed after the stacking list was read.
			continue
		}
		if onWorkspace(d, workspace) {
			out = append(out, wm.WindowID(win))
		}
	}
	return out
}

func onWorkspace(desktop uint, workspace int) bool {
	return desktop == allDesktops || int(desktop) == workspace
}

func containsWindow(list []xproto.Window, win xproto.Window) bool {
	for _, w := range list {
		if w == win {
			return true
		}
	}
	return false
}
