package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ceramicnetwork/go-sqs-flow/common/aws/queue"
	"github.com/ceramicnetwork/go-sqs-flow/models"
)

const (
	Step_CreateQueue           = "create queue"
	Step_CreateDeadLetterQueue = "create dead-letter queue"
	Step_AttachRedrivePolicy   = "attach redrive policy"
	Step_ListQueues            = "list queues"
	Step_ResolveQueue          = "resolve queue"
	Step_SendMessage           = "send message"
	Step_ReceiveMessages       = "receive messages"
	Step_InspectDeadLetter     = "inspect dead-letter queue"
)

type WorkflowOpts struct {
	QueuePrefix              string
	DeadLetterQueuePrefix    string
	QueueType                models.QueueType
	VisibilityTimeoutSeconds int
	ReceiveWaitTimeSeconds   int
	MaxReceiveCount          int
	MessageBody              string
	DelaySeconds             int
	ListQueues               bool
	InspectDeadLetterQueue   bool
}

func DefaultWorkflowOpts() WorkflowOpts {
	return WorkflowOpts{
		QueuePrefix:              models.DefaultQueuePrefix,
		DeadLetterQueuePrefix:    models.DefaultDeadLetterQueuePrefix,
		QueueType:                models.QueueType_Standard,
		VisibilityTimeoutSeconds: models.DefaultVisibilityTimeout,
		ReceiveWaitTimeSeconds:   models.DefaultReceiveWaitTime,
		MaxReceiveCount:          models.QueueDefaultMaxReceiveCount,
		MessageBody:              models.DefaultMessageBody,
		ListQueues:               true,
	}
}

// Workflow provisions a queue and its dead-letter queue, drives one send/receive/acknowledge cycle through it and
// tears everything down again. Steps run strictly in order and the first failure aborts the rest.
type Workflow struct {
	client        queue.Client
	provisioner   *queue.Provisioner
	controller    *queue.Controller
	deadLetter    *DeadLetterService
	runStore      models.RunStore
	notif         models.Notifier
	metricService models.MetricService
	logger        models.Logger
	opts          WorkflowOpts
}

// NewWorkflow wires a workflow to an SQS client. runStore may be nil, in which case run reports are only logged.
func NewWorkflow(
	client queue.Client,
	runStore models.RunStore,
	notif models.Notifier,
	metricService models.MetricService,
	logger models.Logger,
	opts WorkflowOpts,
) *Workflow {
	controller := queue.NewController(client, metricService, logger)
	return &Workflow{
		client:        client,
		provisioner:   queue.NewProvisioner(client, metricService, logger),
		controller:    controller,
		deadLetter:    NewDeadLetterService(controller, notif, metricService, logger),
		runStore:      runStore,
		notif:         notif,
		metricService: metricService,
		logger:        logger,
		opts:          opts,
	}
}

// Run executes the workflow once. Every queue created before a failure is still deleted, newest first, and teardown
// errors are only logged so that the returned error is always the one that stopped the run.
func (w Workflow) Run(ctx context.Context) (*models.RunReport, error) {
	report := &models.RunReport{RunId: uuid.New().String(), StartedAt: time.Now()}
	var created []*models.QueueHandle
	err := w.run(ctx, report, &created)
	w.teardown(ctx, created)
	report.FinishedAt = time.Now()
	if err != nil {
		report.Error = err.Error()
	}
	w.storeRun(ctx, report)
	if err != nil {
		w.metricService.Count(ctx, models.MetricName_WorkflowFailed, 1)
		if notifErr := w.notif.SendAlert(
			models.AlertTitle,
			models.AlertDesc_WorkflowFailed,
			fmt.Sprintf(models.AlertFmt_WorkflowFailed, report.RunId, report.FailedStep, err),
		); notifErr != nil {
			w.logger.Errorf("workflow: error sending failure alert: %v", notifErr)
		}
		return report, err
	}
	w.metricService.Count(ctx, models.MetricName_WorkflowCompleted, 1)
	w.logger.Infof("workflow: run %s completed: %+v", report.RunId, *report)
	return report, nil
}

func (w Workflow) run(ctx context.Context, report *models.RunReport, created *[]*models.QueueHandle) error {
	queueName := w.queueName(w.opts.QueuePrefix, report.RunId)
	deadLetterQueueName := w.queueName(w.opts.DeadLetterQueuePrefix, report.RunId)
	track := func(handle *models.QueueHandle) {
		*created = append(*created, handle)
		report.Queues = append(report.Queues, handle.Name)
	}
	fail := func(step string, err error) error {
		report.FailedStep = step
		return fmt.Errorf("%s: %w", step, err)
	}

	source, err := w.provisioner.CreateQueue(ctx, models.QueueConfig{
		Name:                     queueName,
		Type:                     w.opts.QueueType,
		VisibilityTimeoutSeconds: w.opts.VisibilityTimeoutSeconds,
		ReceiveWaitTimeSeconds:   w.opts.ReceiveWaitTimeSeconds,
	})
	if err != nil {
		return fail(Step_CreateQueue, err)
	}
	track(source)

	dlq, err := w.provisioner.CreateDeadLetterQueue(ctx, deadLetterQueueName, source.Type)
	if err != nil {
		return fail(Step_CreateDeadLetterQueue, err)
	}
	track(dlq)

	if err = w.provisioner.AttachRedrivePolicy(ctx, source, dlq, w.opts.MaxReceiveCount); err != nil {
		return fail(Step_AttachRedrivePolicy, err)
	}

	if w.opts.ListQueues {
		it := w.provisioner.ListQueues("")
		for it.Next(ctx) {
			report.QueuesListed++
			w.logger.Infof("workflow: queue url: %s", it.Url())
		}
		if err = it.Err(); err != nil {
			return fail(Step_ListQueues, err)
		}
	}

	// Messages go to the queue as the service now describes it, not as it was at creation
	if source, err = w.provisioner.ResolveHandle(ctx, source.Name); err != nil {
		return fail(Step_ResolveQueue, err)
	}

	if _, err = w.controller.Send(ctx, source, w.opts.MessageBody, w.opts.DelaySeconds); err != nil {
		return fail(Step_SendMessage, err)
	}
	report.Sent++

	msgs, err := w.controller.Receive(ctx, source)
	if err != nil {
		return fail(Step_ReceiveMessages, err)
	}
	report.Received += len(msgs)
	w.logger.Infof("workflow: received %d messages from %s", len(msgs), source.Name)
	for _, msg := range msgs {
		w.logger.Infof("workflow: message received: %s", msg.Body)
		if err = w.controller.Acknowledge(ctx, source, msg); err != nil {
			if errors.Is(err, models.ErrAck) {
				// Already handled elsewhere, e.g. redelivered after the visibility timeout
				report.StaleAcks++
				w.logger.Warnf("workflow: skipping stale message %s: %v", msg.MessageId, err)
				continue
			}
			return fail(Step_ReceiveMessages, err)
		}
		report.Acked++
	}

	if w.opts.InspectDeadLetterQueue {
		if report.DeadLettered, err = w.deadLetter.Drain(ctx, dlq); err != nil {
			return fail(Step_InspectDeadLetter, err)
		}
	}
	w.recordUtilization(ctx, report, source, dlq)
	return nil
}

// recordUtilization snapshots what is left in both queues before teardown. Failures leave the counts at zero.
func (w Workflow) recordUtilization(ctx context.Context, report *models.RunReport, source, dlq *models.QueueHandle) {
	var err error
	if report.SourceVisible, report.SourceInFlight, err = queue.NewMonitor(w.client, source).GetUtilization(ctx); err != nil {
		w.logger.Warnf("workflow: error reading utilization of %s: %v", source.Name, err)
	}
	if report.DeadLetterVisible, _, err = queue.NewMonitor(w.client, dlq).GetUtilization(ctx); err != nil {
		w.logger.Warnf("workflow: error reading utilization of %s: %v", dlq.Name, err)
	}
}

func (w Workflow) storeRun(ctx context.Context, report *models.RunReport) {
	if w.runStore == nil {
		return
	}
	if stored, err := w.runStore.StoreRun(ctx, report); err != nil {
		w.logger.Errorf("workflow: error storing run %s: %v", report.RunId, err)
	} else if !stored {
		w.logger.Warnf("workflow: run %s was already stored", report.RunId)
	}
}

func (w Workflow) teardown(ctx context.Context, created []*models.QueueHandle) {
	for i := len(created) - 1; i >= 0; i-- {
		w.provisioner.DeleteQueue(ctx, created[i])
	}
}

func (w Workflow) queueName(prefix, runId string) string {
	name := prefix + runId
	if w.opts.QueueType == models.QueueType_Fifo {
		name += models.FifoQueueSuffix
	}
	return name
}
