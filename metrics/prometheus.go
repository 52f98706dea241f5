package metrics

import (
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/foomo/layoutinfer/errors"
)

const namespace = "layoutinfer"

// PrometheusRecorder records build observations as Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	roundDuration prom.Histogram
	buildDuration prom.Histogram
	documents     prom.Histogram
	buildOutcome  *prom.CounterVec
	variables     prom.Gauge
}

// NewPrometheusRecorder constructs and registers the metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.roundDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "round_duration_seconds",
			Help:      "Duration of a single diff round",
			Buckets:   prom.DefBuckets,
		})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.documents = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_documents",
			Help:      "Documents per build",
			Buckets:   prom.ExponentialBuckets(2, 2, 10),
		})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by error category",
		}, []string{"outcome"})
		pr.variables = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "variables",
			Help:      "Variables inferred by the last build",
		})
		reg.MustRegister(pr.roundDuration, pr.buildDuration, pr.documents, pr.buildOutcome, pr.variables)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveRound(d time.Duration) {
	p.roundDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuild(d time.Duration, documents int, err error) {
	p.buildDuration.Observe(d.Seconds())
	p.documents.Observe(float64(documents))
	p.buildOutcome.WithLabelValues(Outcome(err)).Inc()
}

func (p *PrometheusRecorder) ObserveVariables(n int) {
	p.variables.Set(float64(n))
}

// Outcome labels err by its category.
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	return string(errors.GetCategory(err))
}

// HTTPHandler serves the metrics registered on reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
