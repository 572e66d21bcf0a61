// Package metrics provides Prometheus metrics for the shuttle service.
package metrics

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Registry is the Prometheus registry for this metrics instance
	Registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Route discovery metrics
	DiscoveryDuration    *prometheus.HistogramVec
	DiscoveryItineraries *prometheus.HistogramVec

	// Booking metrics
	BookingsCreated *prometheus.CounterVec
	PointsDeducted  prometheus.Counter

	// Database metrics
	DBConnectionsOpen  prometheus.Gauge
	DBConnectionsInUse prometheus.Gauge
	DBConnectionsIdle  prometheus.Gauge
	DBWaitSecondsTotal prometheus.Counter

	logger *zap.Logger

	// collectorStarted prevents spawning multiple collector goroutines
	collectorStarted atomic.Bool
	cancel           context.CancelFunc
	wg               sync.WaitGroup
}

// New creates and registers all application metrics with a new registry.
func New(logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shuttle_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shuttle_http_request_duration_seconds",
				Help:    "HTTP request latency distribution",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		DiscoveryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shuttle_discovery_duration_seconds",
				Help:    "Time spent enumerating itineraries for a query",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
			},
			[]string{"strategy"},
		),
		DiscoveryItineraries: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shuttle_discovery_itineraries",
				Help:    "Number of itineraries returned per query",
				Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
			},
			[]string{"strategy"},
		),
		BookingsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shuttle_bookings_created_total",
				Help: "Bookings created, by itinerary kind",
			},
			[]string{"kind"},
		),
		PointsDeducted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shuttle_points_deducted_total",
			Help: "Points deducted from rider balances by bookings",
		}),
		DBConnectionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shuttle_db_connections_open",
			Help: "Number of open database connections",
		}),
		DBConnectionsInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shuttle_db_connections_in_use",
			Help: "Number of database connections currently in use",
		}),
		DBConnectionsIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shuttle_db_connections_idle",
			Help: "Number of idle database connections",
		}),
		DBWaitSecondsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shuttle_db_wait_seconds_total",
			Help: "Total time blocked waiting for a database connection",
		}),
		logger: logger,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DiscoveryDuration,
		m.DiscoveryItineraries,
		m.BookingsCreated,
		m.PointsDeducted,
		m.DBConnectionsOpen,
		m.DBConnectionsInUse,
		m.DBConnectionsIdle,
		m.DBWaitSecondsTotal,
	)

	return m
}

// ObserveDiscovery records the latency and result size of one discovery query.
// Safe to call on a nil receiver.
func (m *Metrics) ObserveDiscovery(strategy string, took time.Duration, itineraries int) {
	if m == nil {
		return
	}
	m.DiscoveryDuration.WithLabelValues(strategy).Observe(took.Seconds())
	m.DiscoveryItineraries.WithLabelValues(strategy).Observe(float64(itineraries))
}

// ObserveBooking records a created booking. Safe to call on a nil receiver.
func (m *Metrics) ObserveBooking(kind string, points int) {
	if m == nil {
		return
	}
	m.BookingsCreated.WithLabelValues(kind).Inc()
	m.PointsDeducted.Add(float64(points))
}

// StartDBStatsCollector periodically copies connection pool statistics into
// the DB gauges. Calling it more than once has no effect; Shutdown stops it.
func (m *Metrics) StartDBStatsCollector(db *sql.DB, interval time.Duration) {
	if db == nil {
		return
	}
	if !m.collectorStarted.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	var lastWaitDuration time.Duration

	m.wg.Add(1)
	m.cancel = cancel

	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error("panic in DB stats collector", zap.Any("error", r))
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				stats := db.Stats()
				m.DBConnectionsOpen.Set(float64(stats.OpenConnections))
				m.DBConnectionsInUse.Set(float64(stats.InUse))
				m.DBConnectionsIdle.Set(float64(stats.Idle))

				waitDelta := stats.WaitDuration - lastWaitDuration
				if waitDelta > 0 {
					m.DBWaitSecondsTotal.Add(waitDelta.Seconds())
				}
				lastWaitDuration = stats.WaitDuration

			case <-ctx.Done():
				return
			}
		}
	}()
}

// Shutdown stops the DB stats collector goroutine and waits for it to exit.
func (m *Metrics) Shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}
