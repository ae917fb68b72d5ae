// Package metrics expone las métricas Prometheus del servicio: uso de resoluciones y tráfico HTTP.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/dian-resoluciones/internal/application/usecase"
	"github.com/jhoicas/dian-resoluciones/internal/domain/entity"
)

var _ usecase.UsageRecorder = (*Metrics)(nil)

// Metrics agrupa los collectors en un registry propio (no el global), para poder crear
// varias instancias en pruebas.
type Metrics struct {
	registry *prometheus.Registry

	usagePercent *prometheus.GaugeVec
	remaining    *prometheus.GaugeVec

	httpReqs     *prometheus.CounterVec
	httpLat      *prometheus.HistogramVec
	httpInflight prometheus.Gauge
}

var resolutionLabels = []string{"company_id", "resolution_id", "document_type", "prefix"}

// New registra todos los collectors, incluidos los de proceso y runtime de Go.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		usagePercent: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dian_resolution_usage_percent",
			Help: "Porcentaje del rango autorizado ya emitido.",
		}, resolutionLabels),
		remaining: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dian_resolution_remaining_numbers",
			Help: "Números que quedan por emitir en la resolución.",
		}, resolutionLabels),
		httpReqs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpLat: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.usagePercent, m.remaining,
		m.httpReqs, m.httpLat, m.httpInflight,
	)
	return m
}

// Registry registry con todos los collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler handler de exposición en formato Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ResetUsage() {
	m.usagePercent.Reset()
	m.remaining.Reset()
}

func (m *Metrics) ObserveUsage(res *entity.Resolution, usagePercent decimal.Decimal) {
	labels := prometheus.Labels{
		"company_id":    res.CompanyID,
		"resolution_id": res.ID,
		"document_type": string(res.DocumentType),
		"prefix":        res.Prefix,
	}
	m.usagePercent.With(labels).Set(usagePercent.InexactFloat64())
	m.remaining.With(labels).Set(float64(res.RemainingNumbers()))
}

// ObserveRequest registra una petición HTTP ya respondida.
func (m *Metrics) ObserveRequest(method, path, status string, seconds float64) {
	m.httpReqs.WithLabelValues(method, path, status).Inc()
	m.httpLat.WithLabelValues(method, path).Observe(seconds)
}

// InflightInc y InflightDec llevan la cuenta de peticiones en curso.
func (m *Metrics) InflightInc() { m.httpInflight.Inc() }
func (m *Metrics) InflightDec() { m.httpInflight.Dec() }
