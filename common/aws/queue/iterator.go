package queue

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/ceramicnetwork/go-sqs-flow/common"
	"github.com/ceramicnetwork/go-sqs-flow/models"
)

const listQueuesPageSize = 1000

// QueueUrlIterator walks ListQueues pages one call at a time.
//
//	it := provisioner.ListQueues("")
//	for it.Next(ctx) {
//		fmt.Println(it.Url())
//	}
//	if err := it.Err(); err != nil { ... }
type QueueUrlIterator struct {
	paginator *sqs.ListQueuesPaginator
	page      []string
	url       string
	err       error
}

func newQueueUrlIterator(paginator *sqs.ListQueuesPaginator) *QueueUrlIterator {
	return &QueueUrlIterator{paginator: paginator}
}

// Next advances to the next url, fetching another page when the current one is exhausted. It returns false once
// every page has been read or a request failed.
func (i *QueueUrlIterator) Next(ctx context.Context) bool {
	if i.err != nil {
		return false
	}
	for len(i.page) == 0 {
		if !i.paginator.HasMorePages() {
			return false
		}
		httpCtx, httpCancel := context.WithTimeout(ctx, common.DefaultRpcWaitTime)
		listQueuesOut, err := i.paginator.NextPage(httpCtx)
		httpCancel()
		if err != nil {
			i.err = models.NewQueueError(models.ErrTransport, "list queues", "", err)
			return false
		}
		i.page = listQueuesOut.QueueUrls
	}
	i.url, i.page = i.page[0], i.page[1:]
	return true
}

func (i *QueueUrlIterator) Url() string {
	return i.url
}

func (i *QueueUrlIterator) Err() error {
	return i.err
}
