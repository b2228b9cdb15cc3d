// Package daemon runs the overlay engine behind a control socket.
//
// One goroutine owns the engine. Control requests and workspace switch
// notifications are queued into it, so engine calls never overlap.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/danieljhkim/wsoverlay/internal/ipc"
	"github.com/danieljhkim/wsoverlay/internal/metrics"
	"github.com/danieljhkim/wsoverlay/internal/overlay"
	"github.com/danieljhkim/wsoverlay/internal/wm"
	"github.com/danieljhkim/wsoverlay/internal/workspace"
)

// ShutdownTimeout bounds the final stash of all overlays.
const ShutdownTimeout = 10 * time.Second

// ErrWatchEnded is returned by Run when the switch stream closes.
var ErrWatchEnded = errors.New("workspace switch stream ended")

// Backend is the window manager the daemon drives.
type Backend interface {
	wm.WindowSource
	wm.WindowMover

	// Desktop reports the workspace count and the active workspace.
	Desktop(ctx context.Context) (wm.Desktop, error)

	// WatchSwitches streams active workspace changes until ctx is done.
	WatchSwitches(ctx context.Context, initial int) (<-chan wm.Switch, error)
}

// Options configures a Daemon.
type Options struct {
	SocketPath  string
	MetricsAddr string
	Overlay     overlay.Options
}

type call struct {
	req   ipc.Request
	reply chan ipc.Response
}

// Daemon serves one overlay engine.
type Daemon struct {
	backend Backend
	engine  *overlay.Engine
	metrics *metrics.Metrics
	log     *zap.Logger
	opts    Options

	calls chan call
}

// New creates a Daemon. A nil m gets a fresh, unserved Metrics.
func New(backend Backend, m *metrics.Metrics, log *zap.Logger, opts Options) *Daemon {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Daemon{
		backend: backend,
		engine:  overlay.New(backend, backend, log.Named("overlay"), opts.Overlay),
		metrics: m,
		log:     log,
		opts:    opts,
		calls:   make(chan call),
	}
}

// Run initializes the engine from the backend, serves the control
// socket and processes events until ctx is done, a stop request arrives
// or the switch stream ends. Every pulled workspace is stashed before
// Run returns.
func (d *Daemon) Run(ctx context.Context) (err error) {
	desk, err := d.backend.Desktop(ctx)
	if err != nil {
		return fmt.Errorf("failed to query desktops: %w", err)
	}
	if err := d.engine.Initialize(desk.Count, desk.Active); err != nil {
		return err
	}

	defer func() {
		if shutdownErr := d.shutdown(); shutdownErr != nil && err == nil {
			err = shutdownErr
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	switches, err := d.backend.WatchSwitches(runCtx, desk.Active)
	if err != nil {
		return fmt.Errorf("failed to watch workspace switches: %w", err)
	}

	srv, err := ipc.Listen(d.opts.SocketPath, d.enqueue(runCtx), d.log.Named("ipc"))
	if err != nil {
		return err
	}
	defer srv.Close()

	serveErr := make(chan error, 1)
	serveDone := make(chan struct{})
	go func() {
		defer close(serveDone)
		serveErr <- srv.Serve(runCtx)
	}()

	if d.opts.MetricsAddr != "" {
		go func() {
			if err := d.metrics.Serve(runCtx, d.opts.MetricsAddr, d.log.Named("metrics")); err != nil {
				d.log.Warn("metrics server failed", zap.Error(err))
			}
		}()
	}

	d.log.Info("daemon listening", zap.String("socket", srv.Path()))
	err = d.loop(runCtx, switches, serveErr)

	// Let in-flight connections receive their responses.
	cancel()
	<-serveDone
	return err
}

func (d *Daemon) loop(ctx context.Context, switches <-chan wm.Switch, serveErr <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			d.log.Info("daemon stopping", zap.Error(ctx.Err()))
			return nil

		case err := <-serveErr:
			if err != nil {
				return fmt.Errorf("control socket failed: %w", err)
			}
			return nil

		case sw, ok := <-switches:
			if !ok {
				// Cancelling ctx also ends the watcher.
				if ctx.Err() != nil {
					d.log.Info("daemon stopping", zap.Error(ctx.Err()))
					return nil
				}
				return ErrWatchEnded
			}
			d.onSwitch(ctx, sw)

		case c := <-d.calls:
			c.reply <- d.handle(ctx, c.req)
			if c.req.Action == ipc.ActionStop {
				d.log.Info("stop requested")
				return nil
			}
		}
	}
}

// enqueue returns the socket handler, which hands each request to the
// loop and waits for the answer.
func (d *Daemon) enqueue(ctx context.Context) ipc.Handler {
	return func(_ context.Context, req ipc.Request) ipc.Response {
		c := call{req: req, reply: make(chan ipc.Response, 1)}
		select {
		case d.calls <- c:
		case <-ctx.Done():
			return ipc.ErrorResponse(errors.New("daemon is shutting down"))
		}
		// The loop always answers a call it has received.
		return <-c.reply
	}
}

func (d *Daemon) onSwitch(ctx context.Context, sw wm.Switch) {
	d.metrics.Switches.Inc()
	if res := d.engine.OnSwitch(ctx, sw.From, sw.To); res != nil {
		d.metrics.RecordResult(res)
	}
	d.metrics.SetOverlaysActive(len(d.engine.Snapshot().Pulled))
}

func (d *Daemon) handle(ctx context.Context, req ipc.Request) ipc.Response {
	resp, err := d.dispatch(ctx, req)
	d.metrics.RecordRequest(req.Action, err)
	if err != nil {
		d.log.Warn("request failed", zap.String("action", req.Action), zap.Error(err))
		resp = ipc.ErrorResponse(err)
	}
	state := d.engine.Snapshot()
	d.metrics.SetOverlaysActive(len(state.Pulled))
	resp.State = &state
	return resp
}

func (d *Daemon) dispatch(ctx context.Context, req ipc.Request) (ipc.Response, error) {
	switch req.Action {
	case ipc.ActionToggle:
		res, err := d.engine.Toggle(ctx, workspace.Index(req.Workspace))
		d.metrics.RecordToggle(res, err)
		if err != nil {
			return ipc.Response{}, err
		}
		return ipc.Response{OK: true, Results: []*overlay.Result{res}}, nil

	case ipc.ActionStatus:
		return ipc.Response{OK: true}, nil

	case ipc.ActionStashAll, ipc.ActionStop:
		results, err := d.stashAll(ctx)
		return ipc.Response{OK: err == nil, Results: results}, err

	default:
		return ipc.Response{}, fmt.Errorf("unknown action %q", req.Action)
	}
}

func (d *Daemon) stashAll(ctx context.Context) ([]*overlay.Result, error) {
	var (
		results []*overlay.Result
		errs    []error
	)
	for _, index := range d.engine.Snapshot().Pulled {
		res, err := d.engine.Stash(ctx, index)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		d.metrics.RecordResult(res)
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (d *Daemon) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	results, err := d.engine.Shutdown(ctx)
	for _, res := range results {
		d.metrics.RecordResult(res)
	}
	d.metrics.SetOverlaysActive(0)
	if err != nil && !errors.Is(err, overlay.ErrClosed) {
		return fmt.Errorf("failed to shut down overlay engine: %w", err)
	}
	d.log.Info("daemon stopped", zap.Int("stashed", len(results)))
	return nil
}
