// Package metrics exposes Prometheus metrics of overlay activity.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/danieljhkim/wsoverlay/internal/overlay"
)

// Metrics holds the daemon's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// Overlay metrics
	Toggles         *prometheus.CounterVec
	ToggleErrors    prometheus.Counter
	WindowsPulled   prometheus.Counter
	WindowsRestored prometheus.Counter
	WindowsSkipped  prometheus.Counter
	OverlaysActive  prometheus.Gauge
	Switches        prometheus.Counter

	// IPC metrics
	Requests *prometheus.CounterVec
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,

		Toggles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wsoverlay_toggles_total",
				Help: "Total number of toggles by resulting action",
			},
			[]string{"action"},
		),
		ToggleErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "wsoverlay_toggle_errors_total",
				Help: "Total number of rejected or failed toggles",
			},
		),
		WindowsPulled: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "wsoverlay_windows_pulled_total",
				Help: "Total number of windows captured by pulls",
			},
		),
		WindowsRestored: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "wsoverlay_windows_restored_total",
				Help: "Total number of windows returned by stashes",
			},
		),
		WindowsSkipped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "wsoverlay_windows_skipped_total",
				Help: "Total number of windows skipped during placement",
			},
		),
		OverlaysActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "wsoverlay_overlays_active",
				Help: "Number of workspaces currently pulled",
			},
		),
		Switches: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "wsoverlay_workspace_switches_total",
				Help: "Total number of workspace switches observed",
			},
		),
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wsoverlay_ipc_requests_total",
				Help: "Total number of control socket requests",
			},
			[]string{"action", "status"},
		),
	}

	reg.MustRegister(collectors.NewGoCollector())
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordResult records the outcome of a pull or stash.
func (m *Metrics) RecordResult(res *overlay.Result) {
	if res == nil {
		return
	}
	switch res.Action {
	case overlay.ActionPulled:
		m.WindowsPulled.Add(float64(len(res.Windows)))
	case overlay.ActionStashed:
		m.WindowsRestored.Add(float64(len(res.Windows)))
	}
	m.WindowsSkipped.Add(float64(len(res.Skipped)))
}

// RecordToggle records a toggle request and its outcome.
func (m *Metrics) RecordToggle(res *overlay.Result, err error) {
	if err != nil {
		m.ToggleErrors.Inc()
		return
	}
	m.Toggles.WithLabelValues(string(res.Action)).Inc()
	m.RecordResult(res)
}

// RecordRequest counts a control socket request.
func (m *Metrics) RecordRequest(action string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.Requests.WithLabelValues(action, status).Inc()
}

// SetOverlaysActive sets the number of pulled workspaces.
func (m *Metrics) SetOverlaysActive(count int) {
	m.OverlaysActive.Set(float64(count))
}

// Handler returns an HTTP handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Info("serving metrics", zap.String("addr", ln.Addr().String()))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
