package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexflint/go-arg"
	"github.com/joho/godotenv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	awsconfig "github.com/ceramicnetwork/go-sqs-flow/common/aws/config"
	"github.com/ceramicnetwork/go-sqs-flow/common/aws/ddb"
	"github.com/ceramicnetwork/go-sqs-flow/common/config"
	"github.com/ceramicnetwork/go-sqs-flow/common/loggers"
	"github.com/ceramicnetwork/go-sqs-flow/common/metrics"
	"github.com/ceramicnetwork/go-sqs-flow/common/notifs"
	"github.com/ceramicnetwork/go-sqs-flow/models"
	"github.com/ceramicnetwork/go-sqs-flow/services"
)

type args struct {
	QueuePrefix            string `arg:"--queue-prefix,env:QUEUE_PREFIX" default:"test-queue-" help:"name prefix for the primary queue"`
	DeadLetterQueuePrefix  string `arg:"--dlq-prefix,env:DLQ_PREFIX" default:"deadletter-queue-" help:"name prefix for the dead-letter queue"`
	QueueType              string `arg:"--queue-type,env:QUEUE_TYPE" default:"standard" help:"standard or fifo"`
	VisibilityTimeout      int    `arg:"--visibility-timeout,env:QUEUE_VISIBILITY_TIMEOUT" default:"10" help:"visibility timeout in seconds"`
	ReceiveWaitTime        int    `arg:"--receive-wait-time,env:QUEUE_RECEIVE_WAIT_TIME" default:"20" help:"long poll wait time in seconds"`
	MaxReceiveCount        int    `arg:"--max-receive-count,env:QUEUE_MAX_RECEIVE_COUNT" default:"5" help:"deliveries before a message is dead-lettered"`
	MessageBody            string `arg:"--body,env:MESSAGE_BODY" default:"hello world" help:"body of the test message"`
	DelaySeconds           int    `arg:"--delay,env:MESSAGE_DELAY" help:"delivery delay in seconds"`
	ListQueues             bool   `arg:"--list,env:LIST_QUEUES" default:"true" help:"list queues after provisioning"`
	InspectDeadLetterQueue bool   `arg:"--inspect-dlq,env:INSPECT_DLQ" help:"drain the dead-letter queue before teardown"`
}

func (args) Description() string {
	return "sqs-flow provisions a queue with a dead-letter queue, sends, receives and acknowledges a message, then deletes both queues."
}

func main() {
	// An .env file is optional
	if err := godotenv.Load("env/.env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("main: error loading .env file: %v", err)
	}
	var cliArgs args
	arg.MustParse(&cliArgs)

	settings, err := config.LoadSettings()
	if err != nil {
		log.Fatalf("main: error loading settings: %v", err)
	}
	logger, err := loggers.NewLogger(settings)
	if err != nil {
		log.Fatalf("main: error creating logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconfig.AwsConfig(ctx)
	if err != nil {
		logger.Fatalf("main: error creating aws cfg: %v", err)
	}

	metricService, err := metrics.NewMetricService(ctx, settings, logger)
	if err != nil {
		logger.Fatalf("main: error creating metric service: %v", err)
	}
	discordHandler, err := notifs.NewDiscordHandler(settings, logger)
	if err != nil {
		logger.Fatalf("main: error creating discord handler: %v", err)
	}

	var runStore models.RunStore
	if len(settings.RunTable) > 0 {
		// Use override endpoint, if specified, for the run history so that runs can be recorded locally while
		// exercising queues in AWS.
		dbAwsCfg := awsCfg
		if len(settings.DbAwsEndpoint) > 0 {
			logger.Infof("main: using custom run db endpoint: %s", settings.DbAwsEndpoint)
			if dbAwsCfg, err = awsconfig.AwsConfigWithOverride(ctx, settings.DbAwsEndpoint); err != nil {
				logger.Fatalf("main: error creating run db aws cfg: %v", err)
			}
		}
		if runStore, err = ddb.NewRunDb(ctx, dynamodb.NewFromConfig(dbAwsCfg), settings.RunTable, logger); err != nil {
			logger.Fatalf("main: error creating run db: %v", err)
		}
	}

	workflow := services.NewWorkflow(
		sqs.NewFromConfig(awsCfg),
		runStore,
		discordHandler,
		metricService,
		logger,
		services.WorkflowOpts{
			QueuePrefix:              cliArgs.QueuePrefix,
			DeadLetterQueuePrefix:    cliArgs.DeadLetterQueuePrefix,
			QueueType:                models.QueueType(cliArgs.QueueType),
			VisibilityTimeoutSeconds: cliArgs.VisibilityTimeout,
			ReceiveWaitTimeSeconds:   cliArgs.ReceiveWaitTime,
			MaxReceiveCount:          cliArgs.MaxReceiveCount,
			MessageBody:              cliArgs.MessageBody,
			DelaySeconds:             cliArgs.DelaySeconds,
			ListQueues:               cliArgs.ListQueues,
			InspectDeadLetterQueue:   cliArgs.InspectDeadLetterQueue,
		},
	)
	_, runErr := workflow.Run(ctx)
	metricService.Shutdown(context.Background())
	if runErr != nil {
		logger.Errorf("main: workflow failed: %v", runErr)
		logger.Sync()
		os.Exit(1)
	}
}
