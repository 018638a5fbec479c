package models

import (
	"context"
)

type QueueMonitor interface {
	GetUtilization(ctx context.Context) (int, int, error)
}

type Notifier interface {
	SendAlert(title, desc, content string) error
}

type RunStore interface {
	StoreRun(ctx context.Context, report *RunReport) (bool, error)
	GetRun(ctx context.Context, runId string) (*RunReport, error)
}

type MetricService interface {
	Count(ctx context.Context, name MetricName, val int) error
	Shutdown(ctx context.Context)
}

type Logger interface {
	Debugf(template string, args ...interface{})
	Debugw(msg string, args ...interface{})
	Errorf(template string, args ...interface{})
	Fatalf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Infoln(args ...interface{})
	Warnf(template string, args ...interface{})
	Sync() error
}
