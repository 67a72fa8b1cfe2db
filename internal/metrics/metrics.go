package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry creates a registry with the Go and process collectors attached.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves reg in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Metrics holds the protocol and control counters. All methods are safe on a
// nil receiver so components can run without a registry.
type Metrics struct {
	FramesSent         *prometheus.CounterVec // labels: kind=standard|extended|query
	Replies            *prometheus.CounterVec // labels: kind=general|extended, result=ok|timeout|checksum|opcode|error
	TransactionSeconds prometheus.Histogram
	TranslatorSamples  *prometheus.CounterVec // labels: outcome=issued|suppressed|dropped|deadzone
	TranslatorResets   prometheus.Counter
	WSClients          prometheus.Gauge
}

// New registers and returns the metrics.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		FramesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pelco_frames_sent_total",
			Help: "Command frames written to the serial line.",
		}, []string{"kind"}),
		Replies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pelco_replies_total",
			Help: "Replies read from the serial line by result.",
		}, []string{"kind", "result"}),
		TransactionSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pelco_transaction_seconds",
			Help:    "Time from command write to decoded reply.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		TranslatorSamples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ptz_translator_samples_total",
			Help: "Analog samples handled by the translator by outcome.",
		}, []string{"outcome"}),
		TranslatorResets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ptz_translator_resets_total",
			Help: "Translator state resets after a link error.",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ws_clients",
			Help: "Connected WebSocket clients.",
		}),
	}
	reg.MustRegister(m.FramesSent, m.Replies, m.TransactionSeconds, m.TranslatorSamples, m.TranslatorResets, m.WSClients)
	return m
}

func (m *Metrics) FrameSent(kind string) {
	if m == nil {
		return
	}
	m.FramesSent.WithLabelValues(kind).Inc()
}

func (m *Metrics) Reply(kind, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Replies.WithLabelValues(kind, result).Inc()
	if result == "ok" {
		m.TransactionSeconds.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) Sample(outcome string) {
	if m == nil {
		return
	}
	m.TranslatorSamples.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Reset() {
	if m == nil {
		return
	}
	m.TranslatorResets.Inc()
}

func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.WSClients.Inc()
}

func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.WSClients.Dec()
}
