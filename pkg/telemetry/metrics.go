// Package telemetry exposes prometheus metrics for the teleop loop and the
// perception workers. A nil *Metrics is valid and records nothing.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "magicdog"

// Metrics groups every collector. Each instance owns its registry.
type Metrics struct {
	reg *prometheus.Registry

	joystickSent   prometheus.Counter
	joystickErrors prometheus.Counter
	velocity       *prometheus.GaugeVec

	gateWaits   *prometheus.HistogramVec
	gatePolls   prometheus.Histogram
	gaitTarget  prometheus.Gauge
	tricks      *prometheus.CounterVec
	keys        *prometheus.CounterVec

	perceptionRequests *prometheus.CounterVec
	perceptionLatency  *prometheus.HistogramVec
	reactions          *prometheus.CounterVec
	streamDropped      *prometheus.GaugeVec

	battery *prometheus.GaugeVec
	faults  prometheus.Gauge
}

// New creates and registers all collectors, plus the Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		joystickSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sender", Name: "joystick_sent_total",
			Help: "Joystick commands submitted to the robot.",
		}),
		joystickErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sender", Name: "joystick_errors_total",
			Help: "Joystick submissions that failed.",
		}),
		velocity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "sender", Name: "velocity",
			Help: "Last gained velocity per axis.",
		}, []string{"axis"}),
		gateWaits: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "gate", Name: "wait_seconds",
			Help:    "Time spent ensuring a gait.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"outcome"}),
		gatePolls: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "gate", Name: "polls",
			Help:    "GetGait polls needed after SetGait.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		gaitTarget: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "gate", Name: "target_gait",
			Help: "Current gait target.",
		}),
		tricks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "dispatcher", Name: "tricks_total",
			Help: "Tricks executed, by trick and result.",
		}, []string{"trick", "result"}),
		keys: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "dispatcher", Name: "keys_total",
			Help: "Keys read, by whether they were bound.",
		}, []string{"bound"}),
		perceptionRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "perception", Name: "requests_total",
			Help: "Recognition uploads by kind and result.",
		}, []string{"kind", "result"}),
		perceptionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "perception", Name: "request_seconds",
			Help:    "Recognition upload latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		reactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "perception", Name: "reactions_total",
			Help: "Greetings and voice actions triggered.",
		}, []string{"kind"}),
		streamDropped: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "stream", Name: "dropped",
			Help: "Samples dropped by full subscription buffers.",
		}, []string{"topic"}),
		battery: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "robot", Name: "battery",
			Help: "Battery percentage and health as last reported.",
		}, []string{"field"}),
		faults: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "robot", Name: "faults",
			Help: "Active faults as last reported.",
		}),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.joystickSent, m.joystickErrors, m.velocity,
		m.gateWaits, m.gatePolls, m.gaitTarget, m.tricks, m.keys,
		m.perceptionRequests, m.perceptionLatency, m.reactions, m.streamDropped,
		m.battery, m.faults,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// Handler serves the metrics in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) JoystickSent() {
	if m != nil {
		m.joystickSent.Inc()
	}
}

func (m *Metrics) JoystickError() {
	if m != nil {
		m.joystickErrors.Inc()
	}
}

// Velocity records the gained velocity of the last logged change.
func (m *Metrics) Velocity(lateral, straight, turn float64) {
	if m == nil {
		return
	}
	m.velocity.WithLabelValues("lateral").Set(lateral)
	m.velocity.WithLabelValues("straight").Set(straight)
	m.velocity.WithLabelValues("turn").Set(turn)
}

// GateDone records one gate invocation. polls is zero when no SetGait was needed.
func (m *Metrics) GateDone(outcome string, elapsed time.Duration, polls int) {
	if m == nil {
		return
	}
	m.gateWaits.WithLabelValues(outcome).Observe(elapsed.Seconds())
	if polls > 0 {
		m.gatePolls.Observe(float64(polls))
	}
}

func (m *Metrics) GaitTarget(g int) {
	if m != nil {
		m.gaitTarget.Set(float64(g))
	}
}

func (m *Metrics) Trick(name string, err error) {
	if m != nil {
		m.tricks.WithLabelValues(name, result(err)).Inc()
	}
}

func (m *Metrics) Key(bound bool) {
	if m == nil {
		return
	}
	label := "false"
	if bound {
		label = "true"
	}
	m.keys.WithLabelValues(label).Inc()
}

// PerceptionRequest records one recognition upload.
func (m *Metrics) PerceptionRequest(kind string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.perceptionRequests.WithLabelValues(kind, result(err)).Inc()
	m.perceptionLatency.WithLabelValues(kind).Observe(elapsed.Seconds())
}

func (m *Metrics) Reaction(kind string) {
	if m != nil {
		m.reactions.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) StreamDropped(topic string, n uint64) {
	if m != nil {
		m.streamDropped.WithLabelValues(topic).Set(float64(n))
	}
}

// RobotState records one state monitor report.
func (m *Metrics) RobotState(percentage, health float64, faults int) {
	if m == nil {
		return
	}
	m.battery.WithLabelValues("percentage").Set(percentage)
	m.battery.WithLabelValues("health").Set(health)
	m.faults.Set(float64(faults))
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
