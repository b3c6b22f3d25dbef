package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outagealert/internal/types"
)

// mockCloudWatchClient records PutMetricData calls for verification.
type mockCloudWatchClient struct {
	calls     []*cloudwatch.PutMetricDataInput
	returnErr error
}

func (m *mockCloudWatchClient) PutMetricData(_ context.Context, params *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.calls = append(m.calls, params)
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func assertDimension(t *testing.T, dims []cwtypes.Dimension, name, value string) {
	t.Helper()
	for _, d := range dims {
		if *d.Name == name {
			if *d.Value != value {
				t.Errorf("dimension %s = %q, want %q", name, *d.Value, value)
			}
			return
		}
	}
	t.Errorf("dimension %s not found", name)
}

func TestCloudWatchNotificationMetrics_RecordDelivery(t *testing.T) {
	cw := &mockCloudWatchClient{}
	metrics := NewCloudWatchNotificationMetrics(cw, "OutageAlert", types.NopLogger{})

	metrics.RecordDelivery(context.Background(), types.ChannelSMS, MetricFailed)

	require.Len(t, cw.calls, 1)
	input := cw.calls[0]
	assert.Equal(t, "OutageAlert", *input.Namespace)
	require.Len(t, input.MetricData, 1)

	datum := input.MetricData[0]
	assert.Equal(t, MetricDeliveryAttempt, *datum.MetricName)
	assert.Equal(t, 1.0, *datum.Value)
	assert.Equal(t, cwtypes.StandardUnitCount, datum.Unit)
	assertDimension(t, datum.Dimensions, DimChannel, "SMS")
	assertDimension(t, datum.Dimensions, DimResult, "failed")
}

func TestCloudWatchNotificationMetrics_RecordLatency(t *testing.T) {
	cw := &mockCloudWatchClient{}
	metrics := NewCloudWatchNotificationMetrics(cw, "OutageAlert", types.NopLogger{})

	metrics.RecordLatency(context.Background(), types.ChannelEmail, 1500*time.Millisecond)

	require.Len(t, cw.calls, 1)
	datum := cw.calls[0].MetricData[0]
	assert.Equal(t, MetricDeliveryLatency, *datum.MetricName)
	assert.Equal(t, 1500.0, *datum.Value)
	assert.Equal(t, cwtypes.StandardUnitMilliseconds, datum.Unit)
	assert.Len(t, datum.Dimensions, 1)
}

func TestCloudWatchNotificationMetrics_ErrorIsLogged(t *testing.T) {
	cw := &mockCloudWatchClient{returnErr: errors.New("throttled")}
	logger := newCaptureLogger()
	metrics := NewCloudWatchNotificationMetrics(cw, "OutageAlert", logger)

	metrics.RecordDelivery(context.Background(), types.ChannelPush, MetricSuccess)

	assert.True(t, logger.has("error", "failed to publish metric"))
}

func TestPrometheusNotificationMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewPrometheusNotificationMetrics(reg)

	metrics.RecordDelivery(context.Background(), types.ChannelEmail, MetricSuccess)
	metrics.RecordDelivery(context.Background(), types.ChannelEmail, MetricSuccess)
	metrics.RecordDelivery(context.Background(), types.ChannelEmail, MetricFailed)
	metrics.RecordLatency(context.Background(), types.ChannelEmail, 200*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	var observations uint64
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			switch mf.GetName() {
			case "outagealert_delivery_attempts_total":
				var result string
				for _, lp := range m.GetLabel() {
					if lp.GetName() == "result" {
						result = lp.GetValue()
					}
				}
				counts[result] = m.GetCounter().GetValue()
			case "outagealert_delivery_latency_seconds":
				observations += m.GetHistogram().GetSampleCount()
			}
		}
	}
	assert.Equal(t, map[string]float64{"success": 2, "failed": 1}, counts)
	assert.Equal(t, uint64(1), observations)
}
