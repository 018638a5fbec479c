package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ceramicnetwork/go-sqs-flow/common/aws/queue"
	"github.com/ceramicnetwork/go-sqs-flow/models"
)

// DeadLetterService reports on messages that the service redirected to a dead-letter queue.
type DeadLetterService struct {
	controller    *queue.Controller
	notif         models.Notifier
	metricService models.MetricService
	logger        models.Logger
}

func NewDeadLetterService(controller *queue.Controller, notif models.Notifier, metricService models.MetricService, logger models.Logger) *DeadLetterService {
	return &DeadLetterService{controller, notif, metricService, logger}
}

// Drain receives whatever is currently visible in dlq, raises an alert for each message and acknowledges it. It
// returns the number of dead-lettered messages seen.
func (d DeadLetterService) Drain(ctx context.Context, dlq *models.QueueHandle) (int, error) {
	msgs, err := d.controller.Receive(ctx, dlq)
	if err != nil {
		return 0, err
	}
	for _, msg := range msgs {
		d.metricService.Count(ctx, models.MetricName_DeadLetterMessage, 1)
		d.logger.Debugw("dlq: dequeued",
			"queue", dlq.Name,
			"id", msg.MessageId,
			"receiveCount", msg.ReceiveCount,
		)
		if err = d.notif.SendAlert(
			models.AlertTitle,
			models.AlertDesc_DeadLetterQueue,
			fmt.Sprintf(models.AlertFmt_DeadLetterQueue, msg.MessageId, msg.ReceiveCount, msg.Body),
		); err != nil {
			d.logger.Errorf("dlq: error sending alert for %s: %v", msg.MessageId, err)
		}
		if err = d.controller.Acknowledge(ctx, dlq, msg); err != nil && !errors.Is(err, models.ErrAck) {
			return 0, err
		}
	}
	return len(msgs), nil
}
