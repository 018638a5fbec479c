package models

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

var (
	ErrProvisioning     = errors.New("provisioning error")
	ErrPolicyAttachment = errors.New("policy attachment error")
	ErrSend             = errors.New("send error")
	ErrAck              = errors.New("ack error")
	ErrTransport        = errors.New("transport error")
	ErrInvalidInput     = errors.New("invalid input")
)

// QueueError records the operation and queue that failed. Kind is one of the Err* sentinels above. Invalid is set
// when the request was rejected locally and never sent.
type QueueError struct {
	Kind    error
	Op      string
	Queue   string
	Err     error
	Invalid bool
}

func NewQueueError(kind error, op, queue string, err error) *QueueError {
	return &QueueError{Kind: kind, Op: op, Queue: queue, Err: err}
}

// NewInvalidInputError builds a QueueError for a request rejected before any call was made. It matches
// ErrInvalidInput and never ErrTransport.
func NewInvalidInputError(kind error, op, queue string, err error) *QueueError {
	return &QueueError{Kind: kind, Op: op, Queue: queue, Err: err, Invalid: true}
}

func (e *QueueError) Error() string {
	if len(e.Queue) > 0 {
		return fmt.Sprintf("%s: %s %s: %v", e.Kind, e.Op, e.Queue, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *QueueError) Unwrap() error {
	return e.Err
}

// Is matches the error kind, ErrInvalidInput for local rejections, and ErrTransport for a call that failed without
// an API error from the service.
func (e *QueueError) Is(target error) bool {
	switch target {
	case e.Kind:
		return true
	case ErrInvalidInput:
		return e.Invalid
	case ErrTransport:
		return !e.Invalid && IsTransportFault(e.Err)
	}
	return false
}

// IsTransportFault reports whether err failed before the service produced an API error, i.e. a network fault.
func IsTransportFault(err error) bool {
	if err == nil {
		return false
	}
	var apiErr smithy.APIError
	return !errors.As(err, &apiErr)
}

// ApiErrorCode returns the service error code carried by err, if any.
func ApiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
