package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for forecast resolution and the
// remote predictor.
type Metrics struct {
	ForecastsResolved *prometheus.CounterVec   // labels: source={remote,fallback}
	PredictorRequests *prometheus.CounterVec   // labels: endpoint, outcome={success,error}
	PredictorDuration *prometheus.HistogramVec // labels: endpoint
	TrendRefreshes    *prometheus.CounterVec   // labels: model, outcome
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ForecastsResolved,
		m.PredictorRequests,
		m.PredictorDuration,
		m.TrendRefreshes,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics so tests can build as
// many as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ForecastsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fireguard",
			Name:      "forecasts_total",
			Help:      "Forecasts resolved, by result source.",
		}, []string{"source"}),
		PredictorRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fireguard",
			Name:      "predictor_requests_total",
			Help:      "Remote predictor requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		PredictorDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fireguard",
			Name:      "predictor_request_duration_seconds",
			Help:      "Remote predictor request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		TrendRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fireguard",
			Name:      "trend_refreshes_total",
			Help:      "Trend forecast refreshes by model and outcome.",
		}, []string{"model", "outcome"}),
	}
}

// ObservePredictor records one remote predictor call. Safe on a nil receiver.
func (m *Metrics) ObservePredictor(endpoint string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.PredictorRequests.WithLabelValues(endpoint, outcome).Inc()
	m.PredictorDuration.WithLabelValues(endpoint).Observe(time.Since(started).Seconds())
}

func (m *Metrics) ObserveForecast(source string) {
	if m == nil {
		return
	}
	m.ForecastsResolved.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveTrendRefresh(model string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.TrendRefreshes.WithLabelValues(model, outcome).Inc()
}
