package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danieljhkim/wsoverlay/internal/config"
	"github.com/danieljhkim/wsoverlay/internal/daemon"
	"github.com/danieljhkim/wsoverlay/internal/fsops"
	"github.com/danieljhkim/wsoverlay/internal/logging"
	"github.com/danieljhkim/wsoverlay/internal/metrics"
	"github.com/danieljhkim/wsoverlay/internal/overlay"
	"github.com/danieljhkim/wsoverlay/internal/settings"
	"github.com/danieljhkim/wsoverlay/internal/wm/ewmh"
	"github.com/danieljhkim/wsoverlay/internal/wm/x11"
	"github.com/danieljhkim/wsoverlay/internal/workspace"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the overlay daemon",
	Long: `Run the overlay daemon in the foreground.

The daemon tracks the active workspace, listens for toggle requests on its
control socket and stashes every pulled workspace when it exits.

Environment:
  WSOVERLAY_LOG_LEVEL            debug, info, warn or error (default info)
  WSOVERLAY_LOG_DEV              console logs instead of JSON
  WSOVERLAY_BACKEND              wmctrl or x11 (default wmctrl)
  WSOVERLAY_AUTO_STASH_ON_ENTER  stash a pulled workspace when switching to it
  WSOVERLAY_REPULL               noop or recapture (default noop)
  WSOVERLAY_METRICS_ADDR         serve Prometheus metrics on this address
  WSOVERLAY_SOCKET               control socket path`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	paths, err := loadPaths()
	if err != nil {
		return err
	}
	s, err := settings.NewStore(fsops.NewRealFS(), paths.Settings).Load()
	if err != nil {
		return err
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.LogConfig.Level
	logCfg.Development = cfg.LogConfig.Development
	log, err := logging.New(logCfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	backend, closeBackend, err := newBackend(cfg.BackendConfig.Backend, log)
	if err != nil {
		return err
	}
	defer closeBackend()

	d := daemon.New(backend, metrics.New(), log, daemon.Options{
		SocketPath:  paths.Socket,
		MetricsAddr: cfg.MetricsConfig.Addr,
		Overlay: overlay.Options{
			AutoStashOnEnter: cfg.OverlayConfig.AutoStashOnEnter,
			Repull:           overlay.RepullPolicy(cfg.OverlayConfig.Repull),
			Labels:           workspace.LabelsByNumber(s.Labels),
		},
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return d.Run(ctx)
}

// newBackend connects to the window manager the configured way.
func newBackend(kind string, log *zap.Logger) (daemon.Backend, func(), error) {
	switch kind {
	case config.BackendX11:
		b, err := x11.Connect(log.Named("x11"))
		if err != nil {
			return nil, nil, err
		}
		return b, func() { _ = b.Close() }, nil
	default:
		return ewmh.New(ewmh.NewExecRunner(), log.Named("ewmh")), func() {}, nil
	}
}
