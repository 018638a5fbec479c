package queue

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/ceramicnetwork/go-sqs-flow/common"
)

func getQueueUrl(ctx context.Context, client Client, name string) (string, error) {
	httpCtx, httpCancel := context.WithTimeout(ctx, common.DefaultRpcWaitTime)
	defer httpCancel()

	if getQueueUrlOut, err := client.GetQueueUrl(httpCtx, &sqs.GetQueueUrlInput{QueueName: aws.String(name)}); err != nil {
		return "", err
	} else {
		return aws.ToString(getQueueUrlOut.QueueUrl), nil
	}
}

func getQueueArn(ctx context.Context, client Client, queueUrl string) (string, error) {
	if queueAttr, err := getQueueAttributes(ctx, client, queueUrl, types.QueueAttributeNameQueueArn); err != nil {
		return "", err
	} else if arn, found := queueAttr[string(types.QueueAttributeNameQueueArn)]; !found || len(arn) == 0 {
		return "", errMissingAttribute(types.QueueAttributeNameQueueArn)
	} else {
		return arn, nil
	}
}

func getQueueAttributes(ctx context.Context, client Client, queueUrl string, names ...types.QueueAttributeName) (map[string]string, error) {
	if len(names) == 0 {
		names = []types.QueueAttributeName{types.QueueAttributeNameAll}
	}
	getQueueAttrIn := sqs.GetQueueAttributesInput{
		QueueUrl:       aws.String(queueUrl),
		AttributeNames: names,
	}

	httpCtx, httpCancel := context.WithTimeout(ctx, common.DefaultRpcWaitTime)
	defer httpCancel()

	if getQueueAttrOut, err := client.GetQueueAttributes(httpCtx, &getQueueAttrIn); err != nil {
		return nil, err
	} else {
		return getQueueAttrOut.Attributes, nil
	}
}

func setQueueAttributes(ctx context.Context, client Client, queueUrl string, attributes map[string]string) error {
	httpCtx, httpCancel := context.WithTimeout(ctx, common.DefaultRpcWaitTime)
	defer httpCancel()

	_, err := client.SetQueueAttributes(httpCtx, &sqs.SetQueueAttributesInput{
		QueueUrl:   aws.String(queueUrl),
		Attributes: attributes,
	})
	return err
}

type errMissingAttribute types.QueueAttributeName

func (e errMissingAttribute) Error() string {
	return "attribute " + string(e) + " missing from response"
}
