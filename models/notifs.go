package models

const AlertTitle = "SQS Flow Alert"

const (
	AlertDesc_DeadLetterQueue = "Dead Letter Queue"
	AlertDesc_WorkflowFailed  = "Workflow Failed"
)

const (
	AlertFmt_DeadLetterQueue string = "%s (received %d times):\n%s"
	AlertFmt_WorkflowFailed  string = "run %s failed at %s:\n%v"
)
