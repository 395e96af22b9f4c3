package aws

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const metricNamespace = "Storefront/Orders"

// MetricsRecorder emits order lifecycle counters to CloudWatch.
type MetricsRecorder struct {
	client CloudWatchAPI
}

// NewMetricsRecorder returns a recorder, or nil when no client is
// configured (callers treat nil as disabled).
func NewMetricsRecorder(client CloudWatchAPI) *MetricsRecorder {
	if client == nil {
		return nil
	}
	return &MetricsRecorder{client: client}
}

// Count emits a count-of-one metric, e.g. "OrdersConfirmed". Metric
// delivery is best-effort: a failed put is logged, never propagated into
// order processing.
func (m *MetricsRecorder) Count(ctx context.Context, name string) {
	if m == nil {
		return
	}

	namespace := metricNamespace
	value := 1.0
	now := time.Now().UTC()

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: &namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: &name,
				Value:      &value,
				Timestamp:  &now,
				Unit:       cwtypes.StandardUnitCount,
			},
		},
	})
	if err != nil {
		log.Printf("[metrics] put %s: %v", name, err)
	}
}
