// Package telemetry counts pipeline events. Hooks run inline with the
// acquisition path, so implementations must be cheap.
package telemetry

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector captures events emitted by the pipeline.
type Collector interface {
	IncSample(channel int)
	IncBusError()
	IncSensorError(channel int, stage string)
	IncFlush(records int)
	IncDropped(records int)
	IncTimeSync(accepted bool)
}

type noopCollector struct{}

// Noop returns a collector that discards all events.
func Noop() Collector { return noopCollector{} }

func (noopCollector) IncSample(int)              {}
func (noopCollector) IncBusError()               {}
func (noopCollector) IncSensorError(int, string) {}
func (noopCollector) IncFlush(int)               {}
func (noopCollector) IncDropped(int)             {}
func (noopCollector) IncTimeSync(bool)           {}

// PrometheusCollector exposes the pipeline counters via Prometheus.
type PrometheusCollector struct {
	samples      *prometheus.CounterVec
	busErrors    prometheus.Counter
	sensorErrors *prometheus.CounterVec
	flushes      prometheus.Counter
	flushed      prometheus.Counter
	dropped      prometheus.Counter
	timeSyncs    *prometheus.CounterVec
}

// NewPrometheusCollector registers the pipeline metrics with the provided
// registerer. A nil registerer falls back to the default one.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &PrometheusCollector{
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "as7341_logger_samples_total",
			Help: "Successful sensor reads per mux channel.",
		}, []string{"channel"}),
		busErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "as7341_logger_bus_errors_total",
			Help: "Failed multiplexer channel-select transactions.",
		}),
		sensorErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "as7341_logger_sensor_errors_total",
			Help: "Failed sensor operations per mux channel and stage.",
		}, []string{"channel", "stage"}),
		flushes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "as7341_logger_flushes_total",
			Help: "Successful buffer flushes to storage.",
		}),
		flushed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "as7341_logger_records_written_total",
			Help: "Records written to storage.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "as7341_logger_records_dropped_total",
			Help: "Records lost because a storage write failed.",
		}),
		timeSyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "as7341_logger_time_syncs_total",
			Help: "Received time-sync messages by result.",
		}, []string{"result"}),
	}
	collectors := []prometheus.Collector{
		c.samples, c.busErrors, c.sensorErrors, c.flushes, c.flushed, c.dropped, c.timeSyncs,
	}
	for _, col := range collectors {
		if err := reg.Register(col); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return c, nil
}

func (c *PrometheusCollector) IncSample(channel int) {
	c.samples.WithLabelValues(strconv.Itoa(channel)).Inc()
}

func (c *PrometheusCollector) IncBusError() {
	c.busErrors.Inc()
}

func (c *PrometheusCollector) IncSensorError(channel int, stage string) {
	c.sensorErrors.WithLabelValues(strconv.Itoa(channel), stage).Inc()
}

func (c *PrometheusCollector) IncFlush(records int) {
	c.flushes.Inc()
	c.flushed.Add(float64(records))
}

func (c *PrometheusCollector) IncDropped(records int) {
	c.dropped.Add(float64(records))
}

func (c *PrometheusCollector) IncTimeSync(accepted bool) {
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	c.timeSyncs.WithLabelValues(result).Inc()
}
