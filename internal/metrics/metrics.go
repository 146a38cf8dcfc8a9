// Package metrics exports stop engine state for Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stop_guard/internal/models"
	"stop_guard/internal/stops"
)

const namespace = "stop_guard"

// Metrics holds collectors on a private registry so tests and multiple watchers do not collide.
type Metrics struct {
	registry *prometheus.Registry

	cycles          prometheus.Counter
	violations      *prometheus.CounterVec
	alerts          *prometheus.CounterVec
	skipped         prometheus.Counter
	missing         prometheus.Counter
	positions       *prometheus.GaugeVec
	portfolioValue  prometheus.Gauge
	totalAtRisk     prometheus.Gauge
	riskPct         prometheus.Gauge
	weightedDist    prometheus.Gauge
	stopDistance    *prometheus.GaugeVec
	stopLevel       *prometheus.GaugeVec
	lastCycleUnixTS prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Evaluation cycles completed",
		}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "violations_total",
			Help:      "Stops triggered",
		}, []string{"symbol", "mode"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Approaching-stop alerts raised",
		}, []string{"severity"}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_positions_total",
			Help:      "Positions skipped for invalid input",
		}),
		missing: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "missing_prices_total",
			Help:      "Positions evaluated without a price",
		}),
		positions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "positions",
			Help:      "Open positions by stop mode",
		}, []string{"mode"}),
		portfolioValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "portfolio_value",
			Help:      "Market value of open positions",
		}),
		totalAtRisk: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "total_at_risk",
			Help:      "Loss if every stop is hit",
		}),
		riskPct: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "portfolio_risk_ratio",
			Help:      "Total at risk over portfolio value",
		}),
		weightedDist: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "weighted_stop_distance_ratio",
			Help:      "Market value weighted distance to stop",
		}),
		stopDistance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stop_distance_ratio",
			Help:      "Distance from price to stop per position",
		}, []string{"symbol"}),
		stopLevel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stop_level",
			Help:      "Active stop level per position",
		}, []string{"symbol"}),
		lastCycleUnixTS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_cycle_timestamp_seconds",
			Help:      "Unix time of the last completed cycle",
		}),
	}

	m.registry.MustRegister(
		m.cycles, m.violations, m.alerts, m.skipped, m.missing,
		m.positions, m.portfolioValue, m.totalAtRisk, m.riskPct, m.weightedDist,
		m.stopDistance, m.stopLevel, m.lastCycleUnixTS,
	)
	return m
}

// Observe records the outcome of one cycle.
func (m *Metrics) Observe(res stops.CycleResult) {
	m.cycles.Inc()
	m.lastCycleUnixTS.SetToCurrentTime()

	for _, v := range res.Violations {
		m.violations.WithLabelValues(v.Symbol, string(v.StopMode)).Inc()
	}
	for _, a := range res.Alerts {
		m.alerts.WithLabelValues(string(a.Severity)).Inc()
	}
	m.skipped.Add(float64(len(res.Skipped)))
	m.missing.Add(float64(len(res.Missing)))

	r := res.Risk
	m.positions.WithLabelValues(string(models.StopModeInitial)).Set(float64(r.InitialActive))
	m.positions.WithLabelValues(string(models.StopModeTrailing)).Set(float64(r.TrailingActive))
	m.portfolioValue.Set(r.PortfolioValue.InexactFloat64())
	m.totalAtRisk.Set(r.TotalAtRisk.InexactFloat64())
	m.riskPct.Set(r.PortfolioRiskPct.InexactFloat64())
	m.weightedDist.Set(r.WeightedAvgStopDistance.InexactFloat64())

	// Closed positions must not linger as stale series.
	m.stopDistance.Reset()
	m.stopLevel.Reset()
	for _, p := range res.Positions {
		if !p.StopLevel.IsPositive() {
			continue
		}
		m.stopDistance.WithLabelValues(p.Symbol).Set(stops.StopDistance(p.CurrentPrice, p.StopLevel).InexactFloat64())
		m.stopLevel.WithLabelValues(p.Symbol).Set(p.StopLevel.InexactFloat64())
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
