package models

const (
	DefaultQueuePrefix           = "test-queue-"
	DefaultDeadLetterQueuePrefix = "deadletter-queue-"
	DefaultMessageBody           = "hello world"
	DefaultVisibilityTimeout     = 10
	DefaultReceiveWaitTime       = 20
)
