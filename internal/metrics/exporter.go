package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tinytelemetry/pfwatch/internal/model"
)

const namespace = "pfwatch"

// Exporter exposes a Collector through its own Prometheus registry.
type Exporter struct {
	registry *prometheus.Registry
}

// NewExporter registers func-backed metrics that read c on every scrape,
// plus the standard Go and process collectors.
func NewExporter(c *Collector) *Exporter {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	counter := func(name, help string, read func() uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(read()) })
	}

	reg.MustRegister(
		counter("lines_received_total", "Raw log lines read from all sources.", c.linesReceived.Load),
		counter("parse_errors_total", "Lines that could not be decoded as filterlog records.", c.parseErrors.Load),
		counter("records_stored_total", "Decoded records appended to the record store.", c.recordsStored.Load),
		counter("pipeline_drains_total", "Filter pipeline drain passes.", c.drains.Load),
		counter("mirror_rows_total", "Matched records copied into the SQL mirror.", c.mirrorRows.Load),
		counter("mirror_errors_total", "Failed SQL mirror flushes.", c.mirrorErrors.Load),
	)

	for _, a := range []model.Action{model.ActionPass, model.ActionBlock, model.ActionReject} {
		a := a
		reg.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "records_matched_total",
			Help:        "Records added to the match index, by pf action.",
			ConstLabels: prometheus.Labels{"action": a.String()},
		}, func() float64 { return float64(c.matched[a].Load()) }))
	}

	return &Exporter{registry: reg}
}

// AddGauge registers a gauge whose value is read on every scrape.
func (e *Exporter) AddGauge(name, help string, read func() float64) {
	e.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, read))
}

// Registry returns the underlying registry so callers can add gauges.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
