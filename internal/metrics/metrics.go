package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	checks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockwatch",
			Name:      "checks_total",
			Help:      "Number of page checks by classified status.",
		}, []string{"status"},
	)
	cycles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "stockwatch",
			Name:      "cycles_total",
			Help:      "Number of poll cycles started.",
		},
	)
	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockwatch",
			Name:      "transitions_total",
			Help:      "Number of stock status changes between consecutive observations.",
		}, []string{"from", "to"},
	)
	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockwatch",
			Name:      "notifications_total",
			Help:      "Number of notification attempts by result.",
		}, []string{"result"},
	)
	running = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "stockwatch",
			Name:      "monitoring_running",
			Help:      "1 while the monitoring loop is active.",
		},
	)
	targets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "stockwatch",
			Name:      "targets",
			Help:      "Number of registered targets.",
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	for _, c := range []prometheus.Collector{checks, cycles, transitions, notifications, running, targets} {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return err
			}
		}
	}
	regOK.Store(true)
	return nil
}

// Handler exposes the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func ObserveCheck(status string) { checks.WithLabelValues(status).Inc() }

func IncCycle() { cycles.Inc() }

func ObserveTransition(from, to string) { transitions.WithLabelValues(from, to).Inc() }

func ObserveNotification(ok bool) {
	result := "failure"
	if ok {
		result = "success"
	}
	notifications.WithLabelValues(result).Inc()
}

func SetRunning(on bool) {
	if on {
		running.Set(1)
		return
	}
	running.Set(0)
}

func SetTargets(n int) { targets.Set(float64(n)) }
