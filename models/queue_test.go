package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedrivePolicyJSON(t *testing.T) {
	policy := RedrivePolicy{DeadLetterTargetArn: "arn:aws:sqs:us-east-1:000000000000:dlq", MaxReceiveCount: 5}
	data, err := json.Marshal(policy)
	require.NoError(t, err)
	assert.JSONEq(t, `{"maxReceiveCount":"5","deadLetterTargetArn":"arn:aws:sqs:us-east-1:000000000000:dlq"}`, string(data))

	tests := map[string]struct {
		input       string
		expected    RedrivePolicy
		expectedErr bool
	}{
		"count as string": {
			input:    `{"maxReceiveCount":"5","deadLetterTargetArn":"arn:dlq"}`,
			expected: RedrivePolicy{DeadLetterTargetArn: "arn:dlq", MaxReceiveCount: 5},
		},
		"count as number": {
			input:    `{"deadLetterTargetArn":"arn:dlq","maxReceiveCount":1000}`,
			expected: RedrivePolicy{DeadLetterTargetArn: "arn:dlq", MaxReceiveCount: 1000},
		},
		"count not an integer": {
			input:       `{"deadLetterTargetArn":"arn:dlq","maxReceiveCount":"five"}`,
			expectedErr: true,
		},
		"count missing": {
			input:       `{"deadLetterTargetArn":"arn:dlq"}`,
			expectedErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var parsed RedrivePolicy
			err := json.Unmarshal([]byte(test.input), &parsed)
			if test.expectedErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expected, parsed)
		})
	}
}

func TestQueueConfigType(t *testing.T) {
	assert.Equal(t, QueueType_Standard, QueueConfig{}.QueueType())
	assert.Equal(t, QueueType_Fifo, QueueConfig{Type: QueueType_Fifo}.QueueType())
}
