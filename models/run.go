package models

import "time"

// RunReport summarizes a single workflow run, including runs that failed part way. The Source* and DeadLetter*
// counts are the queue contents just before teardown.
type RunReport struct {
	RunId             string    `dynamodbav:"id"`
	StartedAt         time.Time `dynamodbav:"startedAt"`
	FinishedAt        time.Time `dynamodbav:"finishedAt"`
	Queues            []string  `dynamodbav:"queues"`
	QueuesListed      int       `dynamodbav:"queuesListed"`
	Sent              int       `dynamodbav:"sent"`
	Received          int       `dynamodbav:"received"`
	Acked             int       `dynamodbav:"acked"`
	StaleAcks         int       `dynamodbav:"staleAcks"`
	DeadLettered      int       `dynamodbav:"deadLettered"`
	SourceVisible     int       `dynamodbav:"sourceVisible"`
	SourceInFlight    int       `dynamodbav:"sourceInFlight"`
	DeadLetterVisible int       `dynamodbav:"deadLetterVisible"`
	FailedStep        string    `dynamodbav:"failedStep,omitempty"`
	Error             string    `dynamodbav:"error,omitempty"`
}

func (r RunReport) Failed() bool {
	return len(r.FailedStep) > 0
}
