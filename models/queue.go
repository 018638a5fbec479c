package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type QueueType string

const (
	QueueType_Standard QueueType = "standard"
	QueueType_Fifo     QueueType = "fifo"
)

const FifoQueueSuffix = ".fifo"

const (
	QueueMaxReceiveWaitTime     = 20 * time.Second
	QueueMaxVisibilityTimeout   = 12 * time.Hour
	QueueMaxDelay               = 15 * time.Minute
	QueueMaxMessageSize         = 256 * 1024
	QueueMaxReceiveMessages     = 10
	QueueDefaultMaxReceiveCount = 5
	QueueMaxMaxReceiveCount     = 1000
)

// QueueConfig is submitted once to create a queue. Durations are whole seconds on the wire.
type QueueConfig struct {
	Name                     string    `validate:"required,max=80"`
	Type                     QueueType `validate:"omitempty,oneof=standard fifo"`
	VisibilityTimeoutSeconds int       `validate:"min=0,max=43200"`
	ReceiveWaitTimeSeconds   int       `validate:"min=0,max=20"`
}

func (c QueueConfig) QueueType() QueueType {
	if len(c.Type) == 0 {
		return QueueType_Standard
	}
	return c.Type
}

// QueueHandle identifies a queue resolved from the service. Url is required for every operation, Arn only for
// redrive policy wiring.
type QueueHandle struct {
	Name                   string
	Url                    string
	Arn                    string
	Type                   QueueType
	ReceiveWaitTimeSeconds int
}

func (h QueueHandle) String() string {
	return h.Name
}

// RedrivePolicy is the edge from a source queue to its dead-letter queue.
type RedrivePolicy struct {
	DeadLetterTargetArn string `json:"deadLetterTargetArn" validate:"required"`
	MaxReceiveCount     int    `json:"maxReceiveCount" validate:"min=1,max=1000"`
}

// MarshalJSON writes maxReceiveCount as a string, e.g. {"maxReceiveCount":"5","deadLetterTargetArn":"arn:..."}.
func (p RedrivePolicy) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		MaxReceiveCount     string `json:"maxReceiveCount"`
		DeadLetterTargetArn string `json:"deadLetterTargetArn"`
	}{
		MaxReceiveCount:     strconv.Itoa(p.MaxReceiveCount),
		DeadLetterTargetArn: p.DeadLetterTargetArn,
	})
}

// UnmarshalJSON accepts maxReceiveCount as either a string or a number since SQS echoes back a number.
func (p *RedrivePolicy) UnmarshalJSON(data []byte) error {
	var raw struct {
		MaxReceiveCount     json.RawMessage `json:"maxReceiveCount"`
		DeadLetterTargetArn string          `json:"deadLetterTargetArn"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	countStr := strings.Trim(string(raw.MaxReceiveCount), `"`)
	if count, err := strconv.Atoi(countStr); err != nil {
		return fmt.Errorf("redrive policy: invalid maxReceiveCount %s: %w", raw.MaxReceiveCount, err)
	} else {
		p.MaxReceiveCount = count
	}
	p.DeadLetterTargetArn = raw.DeadLetterTargetArn
	return nil
}

// Message is a single delivery of a queued message. ReceiptHandle is only valid for the delivery that produced it.
type Message struct {
	MessageId     string
	Body          string
	ReceiptHandle string
	ReceiveCount  int
}
