package queue

import (
	"context"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/ceramicnetwork/go-sqs-flow/models"
)

var _ models.QueueMonitor = &Monitor{}

// Monitor reports the approximate number of visible and in-flight messages in a queue.
type Monitor struct {
	handle *models.QueueHandle
	client Client
}

func NewMonitor(client Client, handle *models.QueueHandle) *Monitor {
	return &Monitor{handle, client}
}

func (m Monitor) GetUtilization(ctx context.Context) (int, int, error) {
	queueAttr, err := getQueueAttributes(
		ctx,
		m.client,
		m.handle.Url,
		types.QueueAttributeNameApproximateNumberOfMessages,
		types.QueueAttributeNameApproximateNumberOfMessagesNotVisible,
	)
	if err != nil {
		return 0, 0, models.NewQueueError(models.ErrTransport, "get utilization", m.handle.Name, err)
	}
	numMsgsUnprocessed, err := atoiAttribute(queueAttr, types.QueueAttributeNameApproximateNumberOfMessages)
	if err != nil {
		return 0, 0, models.NewQueueError(models.ErrTransport, "get utilization", m.handle.Name, err)
	}
	numMsgsInFlight, err := atoiAttribute(queueAttr, types.QueueAttributeNameApproximateNumberOfMessagesNotVisible)
	if err != nil {
		return 0, 0, models.NewQueueError(models.ErrTransport, "get utilization", m.handle.Name, err)
	}
	return numMsgsUnprocessed, numMsgsInFlight, nil
}

func atoiAttribute(queueAttr map[string]string, name types.QueueAttributeName) (int, error) {
	if valStr, found := queueAttr[string(name)]; !found {
		return 0, nil
	} else {
		return strconv.Atoi(valStr)
	}
}
