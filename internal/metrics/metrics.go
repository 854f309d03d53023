// Package metrics exposes the receiver pipeline counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"es1090/internal/adsb"
	"es1090/internal/demod"
)

const namespace = "es1090"

// Message kinds used as the "kind" label of messages_total.
const (
	KindIdentification = "identification"
	KindPosition       = "airborne_position"
	KindVelocity       = "airborne_velocity"
	KindUnhandled      = "unhandled"
)

// Pipeline holds the collectors of one receiver pipeline, registered on its
// own registry.
type Pipeline struct {
	registry *prometheus.Registry

	rawMessages       prometheus.Counter
	messages          *prometheus.CounterVec
	positionsResolved prometheus.Counter
	purged            prometheus.Counter
	sinkErrors        *prometheus.CounterVec

	aircraftTracked prometheus.Gauge
	aircraftVisible prometheus.Gauge
	queueDepth      prometheus.Gauge
}

// NewPipeline creates and registers the pipeline collectors.
func NewPipeline() *Pipeline {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Pipeline{
		registry: reg,
		rawMessages: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "raw_messages_total",
			Help:      "Frames with a valid CRC received from the input",
		}),
		messages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Decoded messages by kind",
		}, []string{"kind"}),
		positionsResolved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "positions_resolved_total",
			Help:      "Aircraft positions resolved from an even/odd CPR pair",
		}),
		purged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aircraft_purged_total",
			Help:      "Aircraft dropped after staying silent",
		}),
		sinkErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Failed writes to output sinks",
		}, []string{"sink"}),
		aircraftTracked: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "aircraft_tracked",
			Help:      "Aircraft currently held in memory",
		}),
		aircraftVisible: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "aircraft_visible",
			Help:      "Tracked aircraft with a known position",
		}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Raw messages waiting between the input and the decoder",
		}),
	}
}

// RegisterDemodulator exports the demodulator counters read from stats at
// scrape time.
func (p *Pipeline) RegisterDemodulator(stats func() demod.Stats) {
	factory := promauto.With(p.registry)
	counter := func(name, help string, read func(demod.Stats) uint64) {
		factory.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "demod",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(read(stats())) })
	}
	counter("candidates_total", "Windows passing the preamble test", func(s demod.Stats) uint64 { return s.Candidates })
	counter("rejected_format_total", "Candidates with an unsupported downlink format", func(s demod.Stats) uint64 { return s.RejectedFormat })
	counter("rejected_crc_total", "Candidates failing the CRC", func(s demod.Stats) uint64 { return s.RejectedCRC })
	counter("accepted_total", "Frames accepted", func(s demod.Stats) uint64 { return s.Accepted })
}

// ObserveRaw counts one received frame.
func (p *Pipeline) ObserveRaw() { p.rawMessages.Inc() }

// ObserveMessage counts msg by kind; nil counts as unhandled.
func (p *Pipeline) ObserveMessage(msg adsb.Message) {
	p.messages.WithLabelValues(Kind(msg)).Inc()
}

// ObservePositionResolved counts one resolved position.
func (p *Pipeline) ObservePositionResolved() { p.positionsResolved.Inc() }

// ObservePurged counts n dropped aircraft.
func (p *Pipeline) ObservePurged(n int) { p.purged.Add(float64(n)) }

// ObserveSinkError counts one failed write to sink.
func (p *Pipeline) ObserveSinkError(sink string) { p.sinkErrors.WithLabelValues(sink).Inc() }

// SetAircraft sets the tracked and visible aircraft gauges.
func (p *Pipeline) SetAircraft(tracked, visible int) {
	p.aircraftTracked.Set(float64(tracked))
	p.aircraftVisible.Set(float64(visible))
}

// SetQueueDepth sets the pending raw message gauge.
func (p *Pipeline) SetQueueDepth(n int) { p.queueDepth.Set(float64(n)) }

// Registry returns the registry holding the collectors.
func (p *Pipeline) Registry() *prometheus.Registry { return p.registry }

// Handler serves the collectors in the Prometheus exposition format.
func (p *Pipeline) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Kind returns the messages_total label of msg.
func Kind(msg adsb.Message) string {
	switch msg.(type) {
	case adsb.Identification:
		return KindIdentification
	case adsb.AirbornePosition:
		return KindPosition
	case adsb.AirborneVelocity:
		return KindVelocity
	default:
		return KindUnhandled
	}
}
