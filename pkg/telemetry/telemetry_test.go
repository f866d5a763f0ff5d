package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestNoopCollector(t *testing.T) {
	collector := Noop()
	require.NotNil(t, collector)
	collector.IncSample(0)
	collector.IncBusError()
	collector.IncSensorError(1, "init")
	collector.IncFlush(10)
	collector.IncDropped(10)
	collector.IncTimeSync(true)
}

func TestPrometheusCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewPrometheusCollector(reg)
	require.NoError(t, err)

	collector.IncSample(2)
	collector.IncSample(2)
	collector.IncSensorError(2, "read")
	collector.IncFlush(10)
	collector.IncDropped(10)
	collector.IncTimeSync(true)
	collector.IncTimeSync(false)

	values := gather(t, reg)
	require.Equal(t, 2.0, values["as7341_logger_samples_total"])
	require.Equal(t, 1.0, values["as7341_logger_sensor_errors_total"])
	require.Equal(t, 1.0, values["as7341_logger_flushes_total"])
	require.Equal(t, 10.0, values["as7341_logger_records_written_total"])
	require.Equal(t, 10.0, values["as7341_logger_records_dropped_total"])
	require.Equal(t, 2.0, values["as7341_logger_time_syncs_total"])
}

func TestPrometheusCollectorToleratesReRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusCollector(reg)
	require.NoError(t, err)
	_, err = NewPrometheusCollector(reg)
	require.NoError(t, err)
}

// gather sums all series of each metric family.
func gather(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	values := make(map[string]float64, len(families))
	for _, mf := range families {
		values[mf.GetName()] = counterTotal(mf)
	}
	return values
}

func counterTotal(mf *dto.MetricFamily) float64 {
	var total float64
	for _, m := range mf.Metric {
		if c := m.GetCounter(); c != nil {
			total += c.GetValue()
		}
	}
	return total
}
