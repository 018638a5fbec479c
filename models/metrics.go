package models

type MetricName string

// Counts
const (
	MetricName_QueueCreated      MetricName = "queue_created"
	MetricName_QueueDeleted      MetricName = "queue_deleted"
	MetricName_QueueDeleteFailed MetricName = "queue_delete_failed"
	MetricName_RedrivePolicySet  MetricName = "redrive_policy_set"
	MetricName_MessageSent       MetricName = "message_sent"
	MetricName_MessageReceived   MetricName = "message_received"
	MetricName_MessageAcked      MetricName = "message_acked"
	MetricName_MessageAckStale   MetricName = "message_ack_stale"
	MetricName_DeadLetterMessage MetricName = "dlq_message"
	MetricName_WorkflowCompleted MetricName = "workflow_completed"
	MetricName_WorkflowFailed    MetricName = "workflow_failed"
)

const MetricsCallerName = "go-sqs-flow"
