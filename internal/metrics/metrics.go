package metrics

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Evaluation cycle metrics
	CyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screenbreak_cycles_total",
			Help: "Total evaluation cycles by result",
		},
		[]string{"result"},
	)

	CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "screenbreak_cycle_duration_seconds",
			Help:    "Evaluation cycle duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	// Feed metrics
	FeedErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "screenbreak_feed_errors_total",
			Help: "Observation feed query errors",
		},
	)

	ObservationsReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "screenbreak_observations_received_total",
			Help: "Observations returned by the feed",
		},
	)

	// Usage metrics
	EntriesDerived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "screenbreak_entries_derived_total",
			Help: "Usage entries derived from observations",
		},
	)

	EntriesPersisted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "screenbreak_entries_persisted_total",
			Help: "New usage entries written to the log",
		},
	)

	UsageMinutesConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screenbreak_usage_minutes_consumed_total",
			Help: "Total usage minutes consumed",
		},
		[]string{"platform"},
	)

	TodayUsageMinutes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "screenbreak_today_usage_minutes",
			Help: "Usage minutes recorded today",
		},
	)

	StoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screenbreak_store_errors_total",
			Help: "Settings store errors",
		},
		[]string{"operation"},
	)

	// Notification metrics
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screenbreak_notifications_total",
			Help: "Intervention notifications by result",
		},
		[]string{"result"},
	)

	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "screenbreak_api_requests_total",
			Help: "Total API requests processed",
		},
		[]string{"method", "status"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(
		CyclesTotal,
		CycleDuration,
		FeedErrors,
		ObservationsReceived,
		EntriesDerived,
		EntriesPersisted,
		UsageMinutesConsumed,
		TodayUsageMinutes,
		StoreErrors,
		NotificationsTotal,
		APIRequestsTotal,
	)
}

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: Handler(),
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// Handler serves /metrics and /health.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return mux
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the metrics server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		var err error
		if s.listener != nil {
			s.logger.Debug().Msg("Using systemd socket-activated metrics listener")
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
