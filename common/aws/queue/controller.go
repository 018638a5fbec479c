package queue

import (
	"github.com/ceramicnetwork/go-sqs-flow/models"
)

const fifoMessageGroupId = "sqs-flow"

// Controller moves messages through a provisioned queue: send, long-poll receive and acknowledge. Redelivery after
// the visibility timeout, and redirection to a dead-letter queue once maxReceiveCount is exceeded, are enforced by the
// service and have no call here.
type Controller struct {
	client        Client
	metricService models.MetricService
	logger        models.Logger
}

func NewController(client Client, metricService models.MetricService, logger models.Logger) *Controller {
	return &Controller{client, metricService, logger}
}
