package queue

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/ceramicnetwork/go-sqs-flow/common"
	"github.com/ceramicnetwork/go-sqs-flow/models"
)

// Receive performs one long poll, blocking for up to the queue's receive wait time. It returns as soon as any message
// is available and an empty slice if none arrived before the wait elapsed. Every call is a fresh poll.
func (c Controller) Receive(ctx context.Context, handle *models.QueueHandle) ([]models.Message, error) {
	receiveMessageIn := sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(handle.Url),
		MaxNumberOfMessages: models.QueueMaxReceiveMessages,
		WaitTimeSeconds:     int32(handle.ReceiveWaitTimeSeconds),
		AttributeNames:      []types.QueueAttributeName{types.QueueAttributeNameAll},
	}

	// Leave room for the long poll on top of the usual request timeout
	waitTime := time.Duration(handle.ReceiveWaitTimeSeconds) * time.Second
	httpCtx, httpCancel := context.WithTimeout(ctx, common.DefaultRpcWaitTime+waitTime)
	defer httpCancel()

	receiveMessageOut, err := c.client.ReceiveMessage(httpCtx, &receiveMessageIn)
	if err != nil {
		return nil, models.NewQueueError(models.ErrTransport, "receive message", handle.Name, err)
	}
	messages := make([]models.Message, 0, len(receiveMessageOut.Messages))
	for _, m := range receiveMessageOut.Messages {
		msg := models.Message{
			MessageId:     aws.ToString(m.MessageId),
			Body:          aws.ToString(m.Body),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
		}
		if receiveCountStr, found := m.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)]; found {
			if receiveCount, err := strconv.Atoi(receiveCountStr); err == nil {
				msg.ReceiveCount = receiveCount
			}
		}
		messages = append(messages, msg)
	}
	if len(messages) > 0 {
		c.metricService.Count(ctx, models.MetricName_MessageReceived, len(messages))
	}
	c.logger.Debugf("controller: received %d messages from %s", len(messages), handle.Name)
	return messages, nil
}

// Acknowledge deletes a processed message using the receipt handle of the delivery that produced it. A stale handle
// fails with ErrAck, which callers should treat as the message having been handled elsewhere.
func (c Controller) Acknowledge(ctx context.Context, handle *models.QueueHandle, msg models.Message) error {
	const op = "acknowledge message"
	deleteMessageIn := sqs.DeleteMessageInput{
		QueueUrl:      aws.String(handle.Url),
		ReceiptHandle: aws.String(msg.ReceiptHandle),
	}

	httpCtx, httpCancel := context.WithTimeout(ctx, common.DefaultRpcWaitTime)
	defer httpCancel()

	if _, err := c.client.DeleteMessage(httpCtx, &deleteMessageIn); err != nil {
		if models.IsTransportFault(err) {
			return models.NewQueueError(models.ErrTransport, op, handle.Name, err)
		}
		c.metricService.Count(ctx, models.MetricName_MessageAckStale, 1)
		return models.NewQueueError(models.ErrAck, op, handle.Name, err)
	}
	c.metricService.Count(ctx, models.MetricName_MessageAcked, 1)
	c.logger.Debugf("controller: acknowledged message %s on %s", msg.MessageId, handle.Name)
	return nil
}
