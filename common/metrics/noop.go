package metrics

import (
	"context"

	"github.com/ceramicnetwork/go-sqs-flow/models"
)

var _ models.MetricService = &NoOpMetricService{}

type NoOpMetricService struct{}

func (n *NoOpMetricService) Count(_ context.Context, _ models.MetricName, _ int) error {
	return nil
}

func (n *NoOpMetricService) Shutdown(_ context.Context) {
}
