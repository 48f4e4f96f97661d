package main

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "parkgate_"

	sourceBackground = "background"
	sourceStatus     = "status"
)

var (
	registerOnce sync.Once

	samplesTotal     *prometheus.CounterVec
	distanceCM       prometheus.Gauge
	spotOccupied     prometheus.Gauge
	occupancyChanges prometheus.Counter
	gateOpen         prometheus.Gauge
	gateCommands     *prometheus.CounterVec
	gateLatency      prometheus.Histogram
	invalidCommands  prometheus.Counter
	notifyErrors     *prometheus.CounterVec
)

// initMetrics registers the controller metrics with the default registry.
// It is safe to call more than once.
func initMetrics() {
	registerOnce.Do(func() {
		samplesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "samples_total",
				Help: "Range samples taken, by trigger",
			},
			[]string{"source"},
		)
		distanceCM = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "distance_cm",
			Help: "Most recent clamped range sample in centimetres",
		})
		spotOccupied = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "spot_occupied",
			Help: "1 when the most recent sample classified the spot as occupied",
		})
		occupancyChanges = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "occupancy_changes_total",
			Help: "Number of times the occupancy verdict flipped",
		})
		gateOpen = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "gate_open",
			Help: "1 when the gate was last commanded open",
		})
		gateCommands = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "gate_commands_total",
				Help: "Gate commands executed, by action",
			},
			[]string{"action"},
		)
		gateLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    metricPrefix + "gate_command_seconds",
			Help:    "Gate command duration including settle time",
			Buckets: []float64{0.1, 0.25, 0.5, 0.75, 1, 2, 5},
		})
		invalidCommands = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "gate_invalid_commands_total",
			Help: "Gate requests rejected for a missing or unknown action",
		})
		notifyErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "notify_errors_total",
				Help: "Occupancy notifications that failed, by notifier",
			},
			[]string{"notifier"},
		)

		prometheus.MustRegister(
			samplesTotal,
			distanceCM,
			spotOccupied,
			occupancyChanges,
			gateOpen,
			gateCommands,
			gateLatency,
			invalidCommands,
			notifyErrors,
		)
	})
}

// observeReading records one classifier refresh.
func observeReading(source string, r Reading) {
	if samplesTotal != nil {
		samplesTotal.WithLabelValues(source).Inc()
	}
	if distanceCM != nil {
		distanceCM.Set(r.DistanceCM)
	}
	if spotOccupied != nil {
		spotOccupied.Set(boolGauge(r.Occupied))
	}
}

func incOccupancyChange() {
	if occupancyChanges != nil {
		occupancyChanges.Inc()
	}
}

// observeGateCommand records an executed command and the resulting position.
func observeGateCommand(action GateAction, open bool, duration time.Duration) {
	if gateCommands != nil {
		gateCommands.WithLabelValues(string(action)).Inc()
	}
	if gateLatency != nil {
		gateLatency.Observe(duration.Seconds())
	}
	if gateOpen != nil {
		gateOpen.Set(boolGauge(open))
	}
}

func incInvalidCommand() {
	if invalidCommands != nil {
		invalidCommands.Inc()
	}
}

func incNotifyError(notifier string) {
	if notifyErrors != nil {
		notifyErrors.WithLabelValues(notifier).Inc()
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
