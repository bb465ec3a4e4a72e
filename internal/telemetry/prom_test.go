package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unibus/internal/domain"
)

func TestPromSinkCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSink(reg)
	require.NoError(t, err)

	sink.RecordSample(domain.PositionSample{VehicleID: "v1", CrowdLevel: domain.CrowdMedium})
	sink.RecordSample(domain.PositionSample{VehicleID: "v1", CrowdLevel: domain.CrowdMedium})
	sink.RecordBroadcast("location_update", 3, 1)
	sink.RecordObservers(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(sink.samples.WithLabelValues("v1", "medium")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.broadcasts.WithLabelValues("location_update")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.failures.WithLabelValues("location_update")))
	assert.Equal(t, 4.0, testutil.ToFloat64(sink.observers))
}

func TestPromSinkZeroFailuresNotCounted(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSink(reg)
	require.NoError(t, err)

	sink.RecordBroadcast("alert", 5, 0)

	assert.Equal(t, 0, testutil.CollectAndCount(sink.failures))
}

func TestPromSinkDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSink(reg)
	require.NoError(t, err)
	second, err := NewPromSink(reg)
	require.NoError(t, err)

	first.RecordBroadcast("notification", 1, 0)
	second.RecordBroadcast("notification", 1, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(first.broadcasts.WithLabelValues("notification")))
}

func TestMultiSinkFansOut(t *testing.T) {
	reg := prometheus.NewRegistry()
	prom, err := NewPromSink(reg)
	require.NoError(t, err)

	multi := NewMultiSink(prom, NopSink{})
	multi.RecordObservers(7)

	assert.Equal(t, 7.0, testutil.ToFloat64(prom.observers))
}
