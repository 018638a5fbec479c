package ddb

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/ceramicnetwork/go-sqs-flow/common"
	"github.com/ceramicnetwork/go-sqs-flow/models"
)

var _ models.RunStore = &RunDatabase{}

// RunDatabase keeps a history of workflow runs, one item per run keyed by run id.
type RunDatabase struct {
	client   Client
	runTable string
	logger   models.Logger
}

func NewRunDb(ctx context.Context, client Client, runTable string, logger models.Logger) (*RunDatabase, error) {
	rdb := RunDatabase{client, runTable, logger}
	if err := rdb.createRunTable(ctx); err != nil {
		return nil, err
	}
	return &rdb, nil
}

func (rdb *RunDatabase) createRunTable(ctx context.Context) error {
	createRunTableInput := dynamodb.CreateTableInput{
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("id"),
				AttributeType: "S",
			},
		},
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("id"),
				KeyType:       "HASH",
			},
		},
		TableName: aws.String(rdb.runTable),
		ProvisionedThroughput: &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(1),
			WriteCapacityUnits: aws.Int64(1),
		},
	}
	return createTable(ctx, rdb.logger, rdb.client, &createRunTableInput)
}

// StoreRun writes the report unless a run with the same id was already stored, in which case it returns false.
func (rdb *RunDatabase) StoreRun(ctx context.Context, report *models.RunReport) (bool, error) {
	if attributeValues, err := attributevalue.MarshalMapWithOptions(report, encoderOpts); err != nil {
		return false, err
	} else {
		putItemIn := dynamodb.PutItemInput{
			TableName:                aws.String(rdb.runTable),
			ConditionExpression:      aws.String("attribute_not_exists(#id)"),
			ExpressionAttributeNames: map[string]string{"#id": "id"},
			Item:                     attributeValues,
		}

		httpCtx, httpCancel := context.WithTimeout(ctx, common.DefaultRpcWaitTime)
		defer httpCancel()

		if _, err = rdb.client.PutItem(httpCtx, &putItemIn); err != nil {
			var condUpdErr *types.ConditionalCheckFailedException
			if errors.As(err, &condUpdErr) {
				return false, nil
			}
			rdb.logger.Errorf("ddb: error storing run %s: %v", report.RunId, err)
			return false, err
		}
		rdb.logger.Debugf("ddb: stored run %s", report.RunId)
		return true, nil
	}
}

// GetRun returns nil if no run with the given id exists.
func (rdb *RunDatabase) GetRun(ctx context.Context, runId string) (*models.RunReport, error) {
	getItemIn := dynamodb.GetItemInput{
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: runId},
		},
		TableName: aws.String(rdb.runTable),
	}

	httpCtx, httpCancel := context.WithTimeout(ctx, common.DefaultRpcWaitTime)
	defer httpCancel()

	getItemOut, err := rdb.client.GetItem(httpCtx, &getItemIn)
	if err != nil {
		return nil, err
	}
	if getItemOut.Item == nil {
		return nil, nil
	}
	report := new(models.RunReport)
	if err = attributevalue.UnmarshalMapWithOptions(getItemOut.Item, report, decoderOpts); err != nil {
		return nil, err
	}
	return report, nil
}
