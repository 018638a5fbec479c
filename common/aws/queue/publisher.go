package queue

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/google/uuid"

	"github.com/ceramicnetwork/go-sqs-flow/common"
	"github.com/ceramicnetwork/go-sqs-flow/models"
)

// Send enqueues a single message. A delay of zero makes the message visible to receivers immediately. Failures are
// not retried.
func (c Controller) Send(ctx context.Context, handle *models.QueueHandle, body string, delaySeconds int) (string, error) {
	const op = "send message"
	if err := validateSend(handle, body, delaySeconds); err != nil {
		return "", models.NewInvalidInputError(models.ErrSend, op, handle.Name, err)
	}
	sendMessageIn := sqs.SendMessageInput{
		QueueUrl:     aws.String(handle.Url),
		MessageBody:  aws.String(body),
		DelaySeconds: int32(delaySeconds),
	}
	if handle.Type == models.QueueType_Fifo {
		sendMessageIn.MessageGroupId = aws.String(fifoMessageGroupId)
		sendMessageIn.MessageDeduplicationId = aws.String(uuid.New().String())
	}

	httpCtx, httpCancel := context.WithTimeout(ctx, common.DefaultRpcWaitTime)
	defer httpCancel()

	if sendMessageOut, err := c.client.SendMessage(httpCtx, &sendMessageIn); err != nil {
		return "", models.NewQueueError(models.ErrSend, op, handle.Name, err)
	} else {
		msgId := aws.ToString(sendMessageOut.MessageId)
		c.metricService.Count(ctx, models.MetricName_MessageSent, 1)
		c.logger.Infof("controller: sent message %s to %s", msgId, handle.Url)
		return msgId, nil
	}
}

func validateSend(handle *models.QueueHandle, body string, delaySeconds int) error {
	if len(body) == 0 {
		return fmt.Errorf("message body must not be empty")
	}
	if len(body) > models.QueueMaxMessageSize {
		return fmt.Errorf("message body of %d bytes exceeds the %d byte limit", len(body), models.QueueMaxMessageSize)
	}
	if delaySeconds < 0 || delaySeconds > int(models.QueueMaxDelay.Seconds()) {
		return fmt.Errorf("delay of %ds outside [0, %d]", delaySeconds, int(models.QueueMaxDelay.Seconds()))
	}
	// Per-message delays are not supported on fifo queues
	if handle.Type == models.QueueType_Fifo && delaySeconds > 0 {
		return fmt.Errorf("fifo queue %s does not accept per-message delays", handle.Name)
	}
	return nil
}
