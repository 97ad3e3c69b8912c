// Package metrics expone contadores e histogramas del motor de inventario en formato Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	app "github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

var _ app.Metrics = (*Prometheus)(nil)

// Prometheus implementa app.Metrics sobre un registry propio (no el global).
type Prometheus struct {
	registry *prometheus.Registry

	appendsTotal    *prometheus.CounterVec
	appendDuration  *prometheus.HistogramVec
	alertsTotal     *prometheus.CounterVec
	stocktakesTotal *prometheus.CounterVec
	conflictsTotal  *prometheus.CounterVec
}

// NewPrometheus registra las métricas bajo el namespace indicado ("inventory" si vacío).
func NewPrometheus(namespace string) *Prometheus {
	if namespace == "" {
		namespace = "inventory"
	}
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		appendsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_appends_total",
			Help:      "Movimientos procesados por tipo y resultado.",
		}, []string{"type", "outcome"}),
		appendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ledger_append_duration_seconds",
			Help:      "Duración de Append incluyendo la transacción.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"type"}),
		alertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Cambios de alertas por tipo y acción.",
		}, []string{"kind", "action"}),
		stocktakesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stocktakes_total",
			Help:      "Transiciones de tomas físicas por estado destino.",
		}, []string{"status"}),
		conflictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflicts_total",
			Help:      "Operaciones abortadas por contención de locks.",
		}, []string{"operation"}),
	}
	p.registry.MustRegister(
		p.appendsTotal,
		p.appendDuration,
		p.alertsTotal,
		p.stocktakesTotal,
		p.conflictsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

// Registry expone el registry (tests y collectors adicionales).
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// Handler sirve /metrics.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *Prometheus) ObserveAppend(t entity.LedgerEntryType, outcome string, elapsed time.Duration) {
	label := string(t)
	if !t.IsValid() {
		label = "UNKNOWN"
	}
	p.appendsTotal.WithLabelValues(label, outcome).Inc()
	p.appendDuration.WithLabelValues(label).Observe(elapsed.Seconds())
}

func (p *Prometheus) IncAlert(kind entity.AlertKind, action app.AlertAction) {
	p.alertsTotal.WithLabelValues(string(kind), string(action)).Inc()
}

func (p *Prometheus) IncStocktake(status entity.StocktakeStatus) {
	p.stocktakesTotal.WithLabelValues(string(status)).Inc()
}

func (p *Prometheus) IncConflict(operation string) {
	p.conflictsTotal.WithLabelValues(operation).Inc()
}
