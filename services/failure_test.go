package services

import (
	"context"
	"testing"

	"github.com/ceramicnetwork/go-sqs-flow/common/aws/queue"
	"github.com/ceramicnetwork/go-sqs-flow/common/aws/queue/sqstest"
	"github.com/ceramicnetwork/go-sqs-flow/common/loggers"
	"github.com/ceramicnetwork/go-sqs-flow/models"
)

func TestDrain(t *testing.T) {
	tests := map[string]struct {
		notif           *MockNotifier
		poisonMessages  int
		expectedAlerts  int
		expectedDrained int
	}{
		"drain redirected message": {
			notif:           &MockNotifier{},
			poisonMessages:  1,
			expectedAlerts:  1,
			expectedDrained: 1,
		},
		"drain several redirected messages": {
			notif:           &MockNotifier{},
			poisonMessages:  3,
			expectedAlerts:  3,
			expectedDrained: 3,
		},
		"empty dead-letter queue": {
			notif: &MockNotifier{},
		},
		"alert failures do not stop draining": {
			notif:           &MockNotifier{fail: true},
			poisonMessages:  1,
			expectedDrained: 1,
		},
	}

	logger := loggers.NewTestLogger()
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			server := sqstest.New()
			metricService := &MockMetricService{}
			provisioner := queue.NewProvisioner(server, metricService, logger)
			controller := queue.NewController(server, metricService, logger)

			source, err := provisioner.CreateQueue(ctx, models.QueueConfig{
				Name:                     "source",
				VisibilityTimeoutSeconds: 10,
				ReceiveWaitTimeSeconds:   20,
			})
			if err != nil {
				t.Fatalf("unexpected error received %v", err)
			}
			dlq, err := provisioner.CreateDeadLetterQueue(ctx, "source-dlq", models.QueueType_Standard)
			if err != nil {
				t.Fatalf("unexpected error received %v", err)
			}
			if err = provisioner.AttachRedrivePolicy(ctx, source, dlq, 1); err != nil {
				t.Fatalf("unexpected error received %v", err)
			}
			for i := 0; i < test.poisonMessages; i++ {
				if _, err = controller.Send(ctx, source, "poison", 0); err != nil {
					t.Fatalf("unexpected error received %v", err)
				}
			}
			// First delivery is never acknowledged, the second attempt redirects to the DLQ
			for i := 0; i < 2; i++ {
				if _, err = controller.Receive(ctx, source); err != nil {
					t.Fatalf("unexpected error received %v", err)
				}
			}

			deadLetterService := NewDeadLetterService(controller, test.notif, metricService, logger)
			drained, err := deadLetterService.Drain(ctx, dlq)
			if err != nil {
				t.Fatalf("unexpected error received %v", err)
			}
			if drained != test.expectedDrained {
				t.Errorf("incorrect number %d of messages drained, expected %d", drained, test.expectedDrained)
			}
			if len(test.notif.alerts) != test.expectedAlerts {
				t.Errorf("incorrect number %d of alerts, expected %d", len(test.notif.alerts), test.expectedAlerts)
			}
			for _, a := range test.notif.alerts {
				if a.desc != models.AlertDesc_DeadLetterQueue {
					t.Errorf("unexpected alert %s", a.desc)
				}
			}
			if metricService.getCount(models.MetricName_DeadLetterMessage) != test.expectedDrained {
				t.Errorf("dlq metric=%d, expected=%d", metricService.getCount(models.MetricName_DeadLetterMessage), test.expectedDrained)
			}
			if states := server.MessageStates("source-dlq"); len(states) != 0 {
				t.Errorf("dead-letter queue should be empty, found %v", states)
			}
			if states := server.MessageStates("source"); len(states) != 0 {
				t.Errorf("source queue should be empty, found %v", states)
			}
		})
	}
}
