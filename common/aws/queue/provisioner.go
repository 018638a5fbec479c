package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/go-playground/validator"

	"github.com/ceramicnetwork/go-sqs-flow/common"
	"github.com/ceramicnetwork/go-sqs-flow/models"
)

var queueNameRegexp = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,80}$`)

// Provisioner creates queues, wires dead-letter queues to them and tears them down.
type Provisioner struct {
	client        Client
	metricService models.MetricService
	logger        models.Logger
	validator     *validator.Validate
}

func NewProvisioner(client Client, metricService models.MetricService, logger models.Logger) *Provisioner {
	return &Provisioner{client, metricService, logger, validator.New()}
}

// CreateQueue validates the config before any network call, creates the queue and resolves its ARN. Callers are
// expected to pass a fresh name since an existing queue with different attributes will be rejected.
func (p Provisioner) CreateQueue(ctx context.Context, cfg models.QueueConfig) (*models.QueueHandle, error) {
	const op = "create queue"
	if err := p.validator.Struct(cfg); err != nil {
		return nil, models.NewInvalidInputError(models.ErrProvisioning, op, cfg.Name, err)
	}
	queueType := cfg.QueueType()
	if err := validateQueueName(cfg.Name, queueType); err != nil {
		return nil, models.NewInvalidInputError(models.ErrProvisioning, op, cfg.Name, err)
	}
	attributes := map[string]string{
		string(types.QueueAttributeNameVisibilityTimeout):             strconv.Itoa(cfg.VisibilityTimeoutSeconds),
		string(types.QueueAttributeNameReceiveMessageWaitTimeSeconds): strconv.Itoa(cfg.ReceiveWaitTimeSeconds),
	}
	if queueType == models.QueueType_Fifo {
		attributes[string(types.QueueAttributeNameFifoQueue)] = "true"
	}
	p.logger.Infof("provisioner: creating queue %s", cfg.Name)
	handle, err := p.createQueue(ctx, cfg.Name, queueType, attributes)
	if err != nil {
		return nil, models.NewQueueError(models.ErrProvisioning, op, cfg.Name, err)
	}
	handle.ReceiveWaitTimeSeconds = cfg.ReceiveWaitTimeSeconds
	return handle, nil
}

// CreateDeadLetterQueue creates an unconfigured queue to receive redirected messages. It must be of the same type as
// the source queue it will later be attached to.
func (p Provisioner) CreateDeadLetterQueue(ctx context.Context, name string, queueType models.QueueType) (*models.QueueHandle, error) {
	const op = "create dead-letter queue"
	if len(queueType) == 0 {
		queueType = models.QueueType_Standard
	}
	if err := validateQueueName(name, queueType); err != nil {
		return nil, models.NewInvalidInputError(models.ErrProvisioning, op, name, err)
	}
	attributes := map[string]string{}
	if queueType == models.QueueType_Fifo {
		attributes[string(types.QueueAttributeNameFifoQueue)] = "true"
	}
	p.logger.Infof("provisioner: creating dead-letter queue %s", name)
	handle, err := p.createQueue(ctx, name, queueType, attributes)
	if err != nil {
		return nil, models.NewQueueError(models.ErrProvisioning, op, name, err)
	}
	return handle, nil
}

func (p Provisioner) createQueue(ctx context.Context, name string, queueType models.QueueType, attributes map[string]string) (*models.QueueHandle, error) {
	createQueueIn := sqs.CreateQueueInput{
		QueueName:  aws.String(name),
		Attributes: attributes,
	}

	httpCtx, httpCancel := context.WithTimeout(ctx, common.DefaultRpcWaitTime)
	defer httpCancel()

	if createQueueOut, err := p.client.CreateQueue(httpCtx, &createQueueIn); err != nil {
		return nil, err
	} else if arn, err := getQueueArn(ctx, p.client, aws.ToString(createQueueOut.QueueUrl)); err != nil {
		return nil, err
	} else {
		p.metricService.Count(ctx, models.MetricName_QueueCreated, 1)
		p.logger.Infof("provisioner: created queue %s: url=%s, arn=%s", name, aws.ToString(createQueueOut.QueueUrl), arn)
		return &models.QueueHandle{
			Name: name,
			Url:  aws.ToString(createQueueOut.QueueUrl),
			Arn:  arn,
			Type: queueType,
		}, nil
	}
}

// AttachRedrivePolicy links source to dlq. The DLQ ARN is looked up from the service rather than taken from the
// handle so that the policy only ever references a queue that exists.
func (p Provisioner) AttachRedrivePolicy(ctx context.Context, source, dlq *models.QueueHandle, maxReceiveCount int) error {
	const op = "attach redrive policy"
	if source == nil || dlq == nil {
		return models.NewInvalidInputError(models.ErrPolicyAttachment, op, "", fmt.Errorf("source and dead-letter queue are required"))
	}
	if source.Type != dlq.Type {
		return models.NewInvalidInputError(
			models.ErrPolicyAttachment,
			op,
			source.Name,
			fmt.Errorf("dead-letter queue %s is %s but source is %s", dlq.Name, dlq.Type, source.Type),
		)
	}
	if source.Url == dlq.Url {
		return models.NewInvalidInputError(models.ErrPolicyAttachment, op, source.Name, fmt.Errorf("queue cannot be its own dead-letter queue"))
	}
	dlqArn, err := getQueueArn(ctx, p.client, dlq.Url)
	if err != nil {
		return models.NewQueueError(models.ErrPolicyAttachment, op, dlq.Name, err)
	}
	if len(dlq.Arn) > 0 && dlq.Arn != dlqArn {
		p.logger.Warnf("provisioner: dead-letter queue %s arn changed from %s to %s", dlq.Name, dlq.Arn, dlqArn)
	}
	policy := models.RedrivePolicy{
		DeadLetterTargetArn: dlqArn,
		MaxReceiveCount:     maxReceiveCount,
	}
	if err = p.validator.Struct(policy); err != nil {
		return models.NewInvalidInputError(models.ErrPolicyAttachment, op, source.Name, err)
	}
	marshaledRedrivePolicy, err := json.Marshal(policy)
	if err != nil {
		return models.NewInvalidInputError(models.ErrPolicyAttachment, op, source.Name, err)
	}
	if err = setQueueAttributes(ctx, p.client, source.Url, map[string]string{
		string(types.QueueAttributeNameRedrivePolicy): string(marshaledRedrivePolicy),
	}); err != nil {
		return models.NewQueueError(models.ErrPolicyAttachment, op, source.Name, err)
	}
	p.metricService.Count(ctx, models.MetricName_RedrivePolicySet, 1)
	p.logger.Infof("provisioner: dead-letter queue %s configured for %s with maxReceiveCount=%d", dlq.Name, source.Name, maxReceiveCount)
	return nil
}

// RedrivePolicy reads the policy currently installed on source. It returns nil if there is none.
func (p Provisioner) RedrivePolicy(ctx context.Context, source *models.QueueHandle) (*models.RedrivePolicy, error) {
	const op = "get redrive policy"
	queueAttr, err := getQueueAttributes(ctx, p.client, source.Url, types.QueueAttributeNameRedrivePolicy)
	if err != nil {
		return nil, models.NewQueueError(models.ErrPolicyAttachment, op, source.Name, err)
	}
	policyStr, found := queueAttr[string(types.QueueAttributeNameRedrivePolicy)]
	if !found || len(policyStr) == 0 {
		return nil, nil
	}
	policy := new(models.RedrivePolicy)
	if err = json.Unmarshal([]byte(policyStr), policy); err != nil {
		return nil, models.NewQueueError(models.ErrPolicyAttachment, op, source.Name, err)
	}
	return policy, nil
}

// ResolveHandle re-reads a queue's url and attributes from the service.
func (p Provisioner) ResolveHandle(ctx context.Context, name string) (*models.QueueHandle, error) {
	const op = "resolve queue"
	queueUrl, err := getQueueUrl(ctx, p.client, name)
	if err != nil {
		return nil, models.NewQueueError(models.ErrProvisioning, op, name, err)
	}
	queueAttr, err := getQueueAttributes(ctx, p.client, queueUrl)
	if err != nil {
		return nil, models.NewQueueError(models.ErrProvisioning, op, name, err)
	}
	handle := &models.QueueHandle{
		Name: name,
		Url:  queueUrl,
		Arn:  queueAttr[string(types.QueueAttributeNameQueueArn)],
		Type: models.QueueType_Standard,
	}
	if fifo, _ := strconv.ParseBool(queueAttr[string(types.QueueAttributeNameFifoQueue)]); fifo {
		handle.Type = models.QueueType_Fifo
	}
	if waitTimeStr, found := queueAttr[string(types.QueueAttributeNameReceiveMessageWaitTimeSeconds)]; found {
		if handle.ReceiveWaitTimeSeconds, err = strconv.Atoi(waitTimeStr); err != nil {
			return nil, models.NewQueueError(models.ErrProvisioning, op, name, err)
		}
	}
	return handle, nil
}

// ListQueues enumerates the urls of all queues visible to the caller whose name starts with prefix. The returned
// iterator fetches pages lazily and can only be walked once.
func (p Provisioner) ListQueues(prefix string) *QueueUrlIterator {
	listQueuesIn := sqs.ListQueuesInput{}
	if len(prefix) > 0 {
		listQueuesIn.QueueNamePrefix = aws.String(prefix)
	}
	return newQueueUrlIterator(sqs.NewListQueuesPaginator(p.client, &listQueuesIn, func(o *sqs.ListQueuesPaginatorOptions) {
		o.Limit = listQueuesPageSize
	}))
}

// DeleteQueue deletes the queue on a best-effort basis. Failures are logged and counted but never returned so that
// cleanup of one queue cannot prevent cleanup of another, or mask the error that triggered the cleanup.
func (p Provisioner) DeleteQueue(ctx context.Context, handle *models.QueueHandle) {
	if handle == nil {
		return
	}
	httpCtx, httpCancel := context.WithTimeout(ctx, common.DefaultRpcWaitTime)
	defer httpCancel()

	if _, err := p.client.DeleteQueue(httpCtx, &sqs.DeleteQueueInput{QueueUrl: aws.String(handle.Url)}); err != nil {
		p.metricService.Count(ctx, models.MetricName_QueueDeleteFailed, 1)
		p.logger.Errorf("provisioner: error deleting queue %s: %v", handle.Name, err)
		return
	}
	p.metricService.Count(ctx, models.MetricName_QueueDeleted, 1)
	p.logger.Infof("provisioner: deleted queue %s", handle.Name)
}

func validateQueueName(name string, queueType models.QueueType) error {
	baseName := name
	if queueType == models.QueueType_Fifo {
		if !strings.HasSuffix(name, models.FifoQueueSuffix) {
			return fmt.Errorf("fifo queue name %s must end in %s", name, models.FifoQueueSuffix)
		}
		baseName = strings.TrimSuffix(name, models.FifoQueueSuffix)
	}
	if len(name) > 80 || !queueNameRegexp.MatchString(baseName) {
		return fmt.Errorf("invalid queue name %q", name)
	}
	return nil
}
