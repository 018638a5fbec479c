package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ceramicnetwork/go-sqs-flow/common/aws/queue/sqstest"
	"github.com/ceramicnetwork/go-sqs-flow/common/loggers"
	"github.com/ceramicnetwork/go-sqs-flow/models"
)

func newTestProvisioner() (*sqstest.Server, *Provisioner, *mockMetricService) {
	server := sqstest.New()
	metricService := &mockMetricService{}
	return server, NewProvisioner(server, metricService, loggers.NewTestLogger()), metricService
}

func TestCreateQueue(t *testing.T) {
	ctx := context.Background()
	server, provisioner, metricService := newTestProvisioner()

	handle, err := provisioner.CreateQueue(ctx, models.QueueConfig{
		Name:                     "test-queue",
		VisibilityTimeoutSeconds: 10,
		ReceiveWaitTimeSeconds:   20,
	})
	require.NoError(t, err)
	assert.Equal(t, "test-queue", handle.Name)
	assert.Equal(t, models.QueueType_Standard, handle.Type)
	assert.Equal(t, 20, handle.ReceiveWaitTimeSeconds)
	assert.True(t, strings.HasSuffix(handle.Url, "/test-queue"), handle.Url)
	assert.True(t, strings.HasPrefix(handle.Arn, "arn:aws:sqs:"), handle.Arn)
	assert.Equal(t, 1, metricService.getCount(models.MetricName_QueueCreated))

	// The handle is stable for the life of the queue
	for i := 0; i < 3; i++ {
		resolved, err := provisioner.ResolveHandle(ctx, "test-queue")
		require.NoError(t, err)
		assert.Equal(t, *handle, *resolved)
	}

	attrs, err := server.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl:       aws.String(handle.Url),
		AttributeNames: []types.QueueAttributeName{types.QueueAttributeNameAll},
	})
	require.NoError(t, err)
	assert.Equal(t, "10", attrs.Attributes[string(types.QueueAttributeNameVisibilityTimeout)])
	assert.Equal(t, "20", attrs.Attributes[string(types.QueueAttributeNameReceiveMessageWaitTimeSeconds)])
}

func TestCreateFifoQueue(t *testing.T) {
	ctx := context.Background()
	_, provisioner, _ := newTestProvisioner()

	handle, err := provisioner.CreateQueue(ctx, models.QueueConfig{Name: "test-queue.fifo", Type: models.QueueType_Fifo})
	require.NoError(t, err)
	assert.Equal(t, models.QueueType_Fifo, handle.Type)

	resolved, err := provisioner.ResolveHandle(ctx, "test-queue.fifo")
	require.NoError(t, err)
	assert.Equal(t, models.QueueType_Fifo, resolved.Type)
}

func TestCreateQueueValidation(t *testing.T) {
	tests := map[string]struct {
		cfg models.QueueConfig
	}{
		"negative receive wait time": {
			cfg: models.QueueConfig{Name: "q", ReceiveWaitTimeSeconds: -1},
		},
		"receive wait time above 20s": {
			cfg: models.QueueConfig{Name: "q", ReceiveWaitTimeSeconds: 21},
		},
		"negative visibility timeout": {
			cfg: models.QueueConfig{Name: "q", VisibilityTimeoutSeconds: -1},
		},
		"visibility timeout above 12h": {
			cfg: models.QueueConfig{Name: "q", VisibilityTimeoutSeconds: 43201},
		},
		"empty name": {
			cfg: models.QueueConfig{},
		},
		"name with invalid characters": {
			cfg: models.QueueConfig{Name: "my queue!"},
		},
		"name too long": {
			cfg: models.QueueConfig{Name: strings.Repeat("q", 81)},
		},
		"fifo without suffix": {
			cfg: models.QueueConfig{Name: "q", Type: models.QueueType_Fifo},
		},
		"standard queue with fifo suffix": {
			cfg: models.QueueConfig{Name: "q.fifo"},
		},
		"unknown queue type": {
			cfg: models.QueueConfig{Name: "q", Type: "priority"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			server, provisioner, _ := newTestProvisioner()
			_, err := provisioner.CreateQueue(context.Background(), test.cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrProvisioning)
			assert.ErrorIs(t, err, models.ErrInvalidInput)
			assert.False(t, errors.Is(err, models.ErrTransport))
			assert.Empty(t, server.Calls(), "invalid configs must not reach the service")
		})
	}
}

func TestCreateQueueConflict(t *testing.T) {
	ctx := context.Background()
	_, provisioner, _ := newTestProvisioner()

	_, err := provisioner.CreateQueue(ctx, models.QueueConfig{Name: "q", VisibilityTimeoutSeconds: 10})
	require.NoError(t, err)
	_, err = provisioner.CreateQueue(ctx, models.QueueConfig{Name: "q", VisibilityTimeoutSeconds: 30})
	assert.ErrorIs(t, err, models.ErrProvisioning)
	var queueNameExists *types.QueueNameExists
	assert.ErrorAs(t, err, &queueNameExists)
}

func TestCreateQueueTransportFault(t *testing.T) {
	server, provisioner, metricService := newTestProvisioner()
	server.FailNext("CreateQueue", errors.New("connection reset"))

	_, err := provisioner.CreateQueue(context.Background(), models.QueueConfig{Name: "q"})
	assert.ErrorIs(t, err, models.ErrProvisioning)
	assert.ErrorIs(t, err, models.ErrTransport)
	assert.Equal(t, 0, metricService.getCount(models.MetricName_QueueCreated))
}

func TestAttachRedrivePolicy(t *testing.T) {
	for _, maxReceiveCount := range []int{1, 5, 1000} {
		t.Run(fmt.Sprintf("maxReceiveCount=%d", maxReceiveCount), func(t *testing.T) {
			ctx := context.Background()
			server, provisioner, metricService := newTestProvisioner()
			source, err := provisioner.CreateQueue(ctx, models.QueueConfig{Name: "source"})
			require.NoError(t, err)
			dlq, err := provisioner.CreateDeadLetterQueue(ctx, "source-dlq", source.Type)
			require.NoError(t, err)

			policy, err := provisioner.RedrivePolicy(ctx, source)
			require.NoError(t, err)
			assert.Nil(t, policy)

			require.NoError(t, provisioner.AttachRedrivePolicy(ctx, source, dlq, maxReceiveCount))
			policy, err = provisioner.RedrivePolicy(ctx, source)
			require.NoError(t, err)
			require.NotNil(t, policy)
			assert.Equal(t, dlq.Arn, policy.DeadLetterTargetArn)
			assert.Equal(t, maxReceiveCount, policy.MaxReceiveCount)
			assert.Equal(t, 1, metricService.getCount(models.MetricName_RedrivePolicySet))

			// The DLQ ARN is read from the service before the policy is written
			calls := server.Calls()
			dlqLookup, setAttr := -1, -1
			for i, call := range calls {
				if call.Op == "GetQueueAttributes" && call.Queue == dlq.Name {
					dlqLookup = i
				}
				if call.Op == "SetQueueAttributes" {
					setAttr = i
					break
				}
			}
			require.NotEqual(t, -1, setAttr)
			assert.Equal(t, setAttr-1, dlqLookup)
		})
	}
}

func TestAttachRedrivePolicyFailures(t *testing.T) {
	tests := map[string]struct {
		sourceType      models.QueueType
		dlqType         models.QueueType
		maxReceiveCount int
		setup           func(s *sqstest.Server)
		sameQueue       bool
		noSetCall       bool
		invalid         bool
		transport       bool
	}{
		"max receive count of zero": {
			maxReceiveCount: 0,
			noSetCall:       true,
			invalid:         true,
		},
		"max receive count above 1000": {
			maxReceiveCount: 1001,
			noSetCall:       true,
			invalid:         true,
		},
		"queue type mismatch": {
			dlqType:         models.QueueType_Fifo,
			maxReceiveCount: 5,
			noSetCall:       true,
			invalid:         true,
		},
		"queue as its own dead-letter queue": {
			maxReceiveCount: 5,
			sameQueue:       true,
			noSetCall:       true,
			invalid:         true,
		},
		"dead-letter queue lookup fails": {
			maxReceiveCount: 5,
			setup:           func(s *sqstest.Server) { s.FailNext("GetQueueAttributes", errors.New("connection reset")) },
			noSetCall:       true,
			transport:       true,
		},
		"set attributes rejected": {
			maxReceiveCount: 5,
			setup: func(s *sqstest.Server) {
				s.FailNext("SetQueueAttributes", &types.InvalidAttributeName{Message: aws.String("test error")})
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			server, provisioner, metricService := newTestProvisioner()
			source, err := provisioner.CreateQueue(ctx, models.QueueConfig{Name: "source"})
			require.NoError(t, err)
			dlqName := "source-dlq"
			if test.dlqType == models.QueueType_Fifo {
				dlqName += models.FifoQueueSuffix
			}
			dlq, err := provisioner.CreateDeadLetterQueue(ctx, dlqName, test.dlqType)
			require.NoError(t, err)
			if test.sameQueue {
				dlq = source
			}
			if test.setup != nil {
				test.setup(server)
			}
			numCalls := len(server.Calls())

			err = provisioner.AttachRedrivePolicy(ctx, source, dlq, test.maxReceiveCount)
			require.Error(t, err)
			assert.ErrorIs(t, err, models.ErrPolicyAttachment)
			assert.Equal(t, test.invalid, errors.Is(err, models.ErrInvalidInput))
			assert.Equal(t, test.transport, errors.Is(err, models.ErrTransport))
			assert.Equal(t, 0, metricService.getCount(models.MetricName_RedrivePolicySet))
			if test.noSetCall {
				for _, call := range server.Calls()[numCalls:] {
					assert.NotEqual(t, "SetQueueAttributes", call.Op)
				}
			}

			policy, err := provisioner.RedrivePolicy(ctx, source)
			require.NoError(t, err)
			assert.Nil(t, policy, "failed attachment must not leave a policy behind")
		})
	}
}

func TestAttachRedrivePolicyMissingHandles(t *testing.T) {
	_, provisioner, _ := newTestProvisioner()
	err := provisioner.AttachRedrivePolicy(context.Background(), nil, &models.QueueHandle{}, 5)
	assert.ErrorIs(t, err, models.ErrPolicyAttachment)
	assert.False(t, errors.Is(err, models.ErrTransport))
}

func TestListQueues(t *testing.T) {
	ctx := context.Background()
	server, provisioner, _ := newTestProvisioner()
	var expected []string
	for i := 0; i < 7; i++ {
		handle, err := provisioner.CreateQueue(ctx, models.QueueConfig{Name: fmt.Sprintf("list-%d", i)})
		require.NoError(t, err)
		expected = append(expected, handle.Url)
	}
	_, err := provisioner.CreateQueue(ctx, models.QueueConfig{Name: "other"})
	require.NoError(t, err)

	tests := map[string]struct {
		pageSize      int32
		expectedPages int
	}{
		"single page":        {pageSize: listQueuesPageSize, expectedPages: 1},
		"several pages":      {pageSize: 3, expectedPages: 3},
		"page per queue":     {pageSize: 1, expectedPages: 7},
		"exactly full pages": {pageSize: 7, expectedPages: 1},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			before := len(server.Calls())
			it := newQueueUrlIterator(sqs.NewListQueuesPaginator(
				server,
				&sqs.ListQueuesInput{QueueNamePrefix: aws.String("list-")},
				func(o *sqs.ListQueuesPaginatorOptions) { o.Limit = test.pageSize },
			))
			var urls []string
			for it.Next(ctx) {
				urls = append(urls, it.Url())
			}
			require.NoError(t, it.Err())
			assert.ElementsMatch(t, expected, urls)
			assert.Len(t, server.Calls()[before:], test.expectedPages)
		})
	}

	t.Run("all queues", func(t *testing.T) {
		it := provisioner.ListQueues("")
		count := 0
		for it.Next(ctx) {
			count++
		}
		require.NoError(t, it.Err())
		assert.Equal(t, 8, count)
	})
}

func TestListQueuesFailure(t *testing.T) {
	ctx := context.Background()
	server, provisioner, _ := newTestProvisioner()
	_, err := provisioner.CreateQueue(ctx, models.QueueConfig{Name: "q"})
	require.NoError(t, err)
	server.FailNext("ListQueues", errors.New("connection reset"))

	it := provisioner.ListQueues("")
	assert.False(t, it.Next(ctx))
	assert.ErrorIs(t, it.Err(), models.ErrTransport)
	// The iterator stays failed
	assert.False(t, it.Next(ctx))
}

func TestDeleteQueue(t *testing.T) {
	ctx := context.Background()
	server, provisioner, metricService := newTestProvisioner()
	handle, err := provisioner.CreateQueue(ctx, models.QueueConfig{Name: "q"})
	require.NoError(t, err)

	provisioner.DeleteQueue(ctx, handle)
	assert.Empty(t, server.QueueNames())
	assert.Equal(t, 1, metricService.getCount(models.MetricName_QueueDeleted))

	// A second delete fails, but only gets logged and counted
	provisioner.DeleteQueue(ctx, handle)
	assert.Equal(t, 1, metricService.getCount(models.MetricName_QueueDeleteFailed))

	_, err = provisioner.ResolveHandle(ctx, "q")
	assert.ErrorIs(t, err, models.ErrProvisioning)
	var queueDoesNotExist *types.QueueDoesNotExist
	assert.ErrorAs(t, err, &queueDoesNotExist)

	provisioner.DeleteQueue(ctx, nil)
}

func TestMonitor(t *testing.T) {
	ctx := context.Background()
	server, provisioner, metricService := newTestProvisioner()
	handle, err := provisioner.CreateQueue(ctx, models.QueueConfig{Name: "q", VisibilityTimeoutSeconds: 10})
	require.NoError(t, err)
	controller := NewController(server, metricService, loggers.NewTestLogger())
	for i := 0; i < 3; i++ {
		_, err = controller.Send(ctx, handle, "hello", 0)
		require.NoError(t, err)
	}

	monitor := NewMonitor(server, handle)
	unprocessed, inFlight, err := monitor.GetUtilization(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, unprocessed)
	assert.Equal(t, 0, inFlight)

	_, err = controller.Receive(ctx, handle)
	require.NoError(t, err)
	unprocessed, inFlight, err = monitor.GetUtilization(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, unprocessed)
	assert.Equal(t, 3, inFlight)

	server.FailNext("GetQueueAttributes", errors.New("connection reset"))
	_, _, err = monitor.GetUtilization(ctx)
	assert.ErrorIs(t, err, models.ErrTransport)
}
