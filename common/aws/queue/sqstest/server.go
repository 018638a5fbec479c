// Package sqstest provides an in-memory SQS server for tests.
//
// The server keeps a virtual clock instead of reading wall time. Visibility timeouts, message delays and long polls
// are all measured against it, so tests can step through redelivery and dead-letter redirection deterministically:
// a long poll that finds nothing advances the clock to the next time a message becomes visible, or to the end of the
// wait if none will.
//
// Each message moves through Available -> Delivered(n) -> {Available, Deleted, Redirected}. A delivered message that
// is not deleted before its visibility timeout expires becomes available again. When a source queue has a redrive
// policy and a message that has already been received maxReceiveCount times is about to be delivered again, it is
// moved to the dead-letter queue instead.
package sqstest

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/ceramicnetwork/go-sqs-flow/models"
)

const (
	DefaultRegion    = "us-east-1"
	DefaultAccountId = "000000000000"
)

const (
	defaultVisibilityTimeout = 30 * time.Second
	defaultMaxReceive        = 1
	maxListResults           = 1000
)

var queueNameRegexp = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,80}$`)

type MessageState int

const (
	MessageState_Available MessageState = iota
	MessageState_Delivered
	MessageState_Deleted
	MessageState_Redirected
)

func (s MessageState) String() string {
	switch s {
	case MessageState_Available:
		return "available"
	case MessageState_Delivered:
		return "delivered"
	case MessageState_Deleted:
		return "deleted"
	case MessageState_Redirected:
		return "redirected"
	default:
		return "unknown"
	}
}

// Call records one API request made against the server.
type Call struct {
	Op    string
	Queue string
}

type Option func(*Server)

func WithRegion(region string) Option {
	return func(s *Server) {
		s.region = region
	}
}

func WithAccountId(accountId string) Option {
	return func(s *Server) {
		s.accountId = accountId
	}
}

func WithStartTime(t time.Time) Option {
	return func(s *Server) {
		s.now = t
	}
}

// Server is an in-memory implementation of the SQS operations in queue.Client. It is safe for concurrent use.
type Server struct {
	mu        sync.Mutex
	region    string
	accountId string
	now       time.Time
	queues    map[string]*fakeQueue
	urls      map[string]string
	calls     []Call
	faults    map[string][]error
}

type fakeQueue struct {
	name              string
	url               string
	arn               string
	fifo              bool
	created           time.Time
	attributes        map[string]string
	visibilityTimeout time.Duration
	receiveWaitTime   time.Duration
	delay             time.Duration
	redrivePolicy     *models.RedrivePolicy
	messages          []*message
	handles           map[string]*message
	dedupIds          map[string]string
}

type message struct {
	id            string
	body          string
	groupId       string
	state         MessageState
	receiveCount  int
	sent          time.Time
	firstReceived time.Time
	visibleAt     time.Time
	receiptHandle string
}

func New(opts ...Option) *Server {
	s := &Server{
		region:    DefaultRegion,
		accountId: DefaultAccountId,
		now:       time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
		queues:    make(map[string]*fakeQueue),
		urls:      make(map[string]string),
		faults:    make(map[string][]error),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the server's virtual time.
func (s *Server) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Advance moves the virtual clock forward, e.g. past a visibility timeout.
func (s *Server) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}

// FailNext makes the next call to op (e.g. "SetQueueAttributes") return err without touching any state. Faults queue
// up per op, and a nil err lets that call through, so FailNext(op, nil) followed by FailNext(op, err) fails the second
// call.
func (s *Server) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = append(s.faults[op], err)
}

// Calls returns every request made so far, in order.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// QueueNames returns the names of all existing queues, sorted.
func (s *Server) QueueNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.urls))
	for name := range s.urls {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MessageStates returns the state of every message still held by the named queue, in send order.
func (s *Server) MessageStates(name string) []MessageState {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, found := s.queues[s.urls[name]]
	if !found {
		return nil
	}
	states := make([]MessageState, 0, len(q.messages))
	for _, m := range q.messages {
		states = append(states, s.effectiveState(m))
	}
	return states
}

func (s *Server) CreateQueue(ctx context.Context, params *sqs.CreateQueueInput, _ ...func(*sqs.Options)) (*sqs.CreateQueueOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := aws.ToString(params.QueueName)
	if err := s.begin(ctx, "CreateQueue", name); err != nil {
		return nil, err
	}
	fifo := strings.HasSuffix(name, models.FifoQueueSuffix)
	if !queueNameRegexp.MatchString(strings.TrimSuffix(name, models.FifoQueueSuffix)) || len(name) > 80 {
		return nil, invalidParameter("invalid queue name %q", name)
	}
	if fifoAttr, found := params.Attributes[string(types.QueueAttributeNameFifoQueue)]; found {
		if isFifo, err := strconv.ParseBool(fifoAttr); err != nil || isFifo != fifo {
			return nil, invalidParameter("FifoQueue=%s does not match queue name %s", fifoAttr, name)
		}
	} else if fifo {
		return nil, invalidParameter("queue name %s ends in %s but FifoQueue is not set", name, models.FifoQueueSuffix)
	}
	if url, found := s.urls[name]; found {
		existing := s.queues[url]
		if !sameAttributes(existing.attributes, params.Attributes) {
			return nil, &types.QueueNameExists{Message: aws.String(fmt.Sprintf("queue %s already exists with different attributes", name))}
		}
		return &sqs.CreateQueueOutput{QueueUrl: aws.String(url)}, nil
	}
	q := &fakeQueue{
		name:              name,
		url:               fmt.Sprintf("https://sqs.%s.amazonaws.com/%s/%s", s.region, s.accountId, name),
		arn:               fmt.Sprintf("arn:aws:sqs:%s:%s:%s", s.region, s.accountId, name),
		fifo:              fifo,
		created:           s.now,
		attributes:        make(map[string]string),
		visibilityTimeout: defaultVisibilityTimeout,
		handles:           make(map[string]*message),
		dedupIds:          make(map[string]string),
	}
	if err := s.applyAttributes(q, params.Attributes); err != nil {
		return nil, err
	}
	s.queues[q.url] = q
	s.urls[name] = q.url
	return &sqs.CreateQueueOutput{QueueUrl: aws.String(q.url)}, nil
}

func (s *Server) GetQueueUrl(ctx context.Context, params *sqs.GetQueueUrlInput, _ ...func(*sqs.Options)) (*sqs.GetQueueUrlOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := aws.ToString(params.QueueName)
	if err := s.begin(ctx, "GetQueueUrl", name); err != nil {
		return nil, err
	}
	if url, found := s.urls[name]; !found {
		return nil, queueDoesNotExist(name)
	} else {
		return &sqs.GetQueueUrlOutput{QueueUrl: aws.String(url)}, nil
	}
}

func (s *Server) GetQueueAttributes(ctx context.Context, params *sqs.GetQueueAttributesInput, _ ...func(*sqs.Options)) (*sqs.GetQueueAttributesOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, err := s.lookup(ctx, "GetQueueAttributes", params.QueueUrl)
	if err != nil {
		return nil, err
	}
	all := s.allAttributes(q)
	attributes := make(map[string]string)
	for _, name := range params.AttributeNames {
		if name == types.QueueAttributeNameAll {
			return &sqs.GetQueueAttributesOutput{Attributes: all}, nil
		}
		if val, found := all[string(name)]; found {
			attributes[string(name)] = val
		} else if !knownAttribute(string(name)) {
			return nil, &types.InvalidAttributeName{Message: aws.String(fmt.Sprintf("unknown attribute %s", name))}
		}
	}
	return &sqs.GetQueueAttributesOutput{Attributes: attributes}, nil
}

func (s *Server) SetQueueAttributes(ctx context.Context, params *sqs.SetQueueAttributesInput, _ ...func(*sqs.Options)) (*sqs.SetQueueAttributesOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, err := s.lookup(ctx, "SetQueueAttributes", params.QueueUrl)
	if err != nil {
		return nil, err
	}
	if _, found := params.Attributes[string(types.QueueAttributeNameFifoQueue)]; found {
		return nil, invalidParameter("FifoQueue cannot be changed after creation")
	}
	if err = s.applyAttributes(q, params.Attributes); err != nil {
		return nil, err
	}
	return &sqs.SetQueueAttributesOutput{}, nil
}

func (s *Server) SendMessage(ctx context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, err := s.lookup(ctx, "SendMessage", params.QueueUrl)
	if err != nil {
		return nil, err
	}
	body := aws.ToString(params.MessageBody)
	if len(body) == 0 {
		return nil, invalidParameter("message body must not be empty")
	}
	if len(body) > models.QueueMaxMessageSize {
		return nil, invalidParameter("message body of %d bytes exceeds %d", len(body), models.QueueMaxMessageSize)
	}
	delay := time.Duration(params.DelaySeconds) * time.Second
	if params.DelaySeconds < 0 || delay > models.QueueMaxDelay {
		return nil, invalidParameter("DelaySeconds %d outside [0, 900]", params.DelaySeconds)
	}
	if params.DelaySeconds == 0 {
		delay = q.delay
	}
	m := &message{
		id:        uuid.New().String(),
		body:      body,
		state:     MessageState_Available,
		sent:      s.now,
		visibleAt: s.now.Add(delay),
	}
	if q.fifo {
		if params.DelaySeconds > 0 {
			return nil, invalidParameter("fifo queues do not support per-message delays")
		}
		if len(aws.ToString(params.MessageGroupId)) == 0 {
			return nil, &smithy.GenericAPIError{Code: "MissingParameter", Message: "MessageGroupId is required for fifo queues", Fault: smithy.FaultClient}
		}
		m.groupId = aws.ToString(params.MessageGroupId)
		dedupId := aws.ToString(params.MessageDeduplicationId)
		if len(dedupId) == 0 {
			return nil, invalidParameter("MessageDeduplicationId is required without content-based deduplication")
		}
		if msgId, found := q.dedupIds[dedupId]; found {
			return &sqs.SendMessageOutput{MessageId: aws.String(msgId), MD5OfMessageBody: aws.String(md5Hex(body))}, nil
		}
		q.dedupIds[dedupId] = m.id
	}
	q.messages = append(q.messages, m)
	return &sqs.SendMessageOutput{MessageId: aws.String(m.id), MD5OfMessageBody: aws.String(md5Hex(body))}, nil
}

func (s *Server) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, err := s.lookup(ctx, "ReceiveMessage", params.QueueUrl)
	if err != nil {
		return nil, err
	}
	maxMessages := int(params.MaxNumberOfMessages)
	if maxMessages == 0 {
		maxMessages = defaultMaxReceive
	}
	if maxMessages < 1 || maxMessages > models.QueueMaxReceiveMessages {
		return nil, invalidParameter("MaxNumberOfMessages %d outside [1, 10]", maxMessages)
	}
	waitTime := q.receiveWaitTime
	if params.WaitTimeSeconds != 0 {
		waitTime = time.Duration(params.WaitTimeSeconds) * time.Second
	}
	if waitTime < 0 || waitTime > models.QueueMaxReceiveWaitTime {
		return nil, invalidParameter("WaitTimeSeconds %d outside [0, 20]", params.WaitTimeSeconds)
	}
	visibilityTimeout := q.visibilityTimeout
	if params.VisibilityTimeout > 0 {
		visibilityTimeout = time.Duration(params.VisibilityTimeout) * time.Second
	}
	withReceiveCount := false
	for _, name := range params.AttributeNames {
		if name == types.QueueAttributeNameAll || string(name) == string(types.MessageSystemAttributeNameApproximateReceiveCount) {
			withReceiveCount = true
		}
	}

	delivered := s.deliver(q, maxMessages, visibilityTimeout, withReceiveCount)
	if len(delivered) == 0 && waitTime > 0 {
		// Long poll: jump to the first moment within the wait that a message becomes visible, or to the end of the wait
		deadline := s.now.Add(waitTime)
		if next, found := s.nextVisible(q); found && !next.After(deadline) {
			s.now = next
			delivered = s.deliver(q, maxMessages, visibilityTimeout, withReceiveCount)
		} else {
			s.now = deadline
		}
	}
	return &sqs.ReceiveMessageOutput{Messages: delivered}, nil
}

func (s *Server) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, err := s.lookup(ctx, "DeleteMessage", params.QueueUrl)
	if err != nil {
		return nil, err
	}
	receiptHandle := aws.ToString(params.ReceiptHandle)
	m, found := q.handles[receiptHandle]
	if !found {
		return nil, &types.ReceiptHandleIsInvalid{Message: aws.String(fmt.Sprintf("receipt handle %q is invalid", receiptHandle))}
	}
	delete(q.handles, receiptHandle)
	m.state = MessageState_Deleted
	q.remove(m)
	return &sqs.DeleteMessageOutput{}, nil
}

func (s *Server) ListQueues(ctx context.Context, params *sqs.ListQueuesInput, _ ...func(*sqs.Options)) (*sqs.ListQueuesOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin(ctx, "ListQueues", ""); err != nil {
		return nil, err
	}
	prefix := aws.ToString(params.QueueNamePrefix)
	names := make([]string, 0, len(s.urls))
	for name := range s.urls {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	start := 0
	if token := aws.ToString(params.NextToken); len(token) > 0 {
		var err error
		if start, err = strconv.Atoi(token); err != nil || start < 0 || start > len(names) {
			return nil, invalidParameter("invalid NextToken %q", token)
		}
	}
	limit := maxListResults
	paged := params.MaxResults != nil
	if paged {
		limit = int(*params.MaxResults)
		if limit < 1 || limit > maxListResults {
			return nil, invalidParameter("MaxResults %d outside [1, 1000]", limit)
		}
	}
	end := start + limit
	if end > len(names) {
		end = len(names)
	}
	listQueuesOut := &sqs.ListQueuesOutput{QueueUrls: make([]string, 0, end-start)}
	for _, name := range names[start:end] {
		listQueuesOut.QueueUrls = append(listQueuesOut.QueueUrls, s.urls[name])
	}
	// Tokens are only handed out when the caller asked for paging
	if paged && end < len(names) {
		listQueuesOut.NextToken = aws.String(strconv.Itoa(end))
	}
	return listQueuesOut, nil
}

func (s *Server) DeleteQueue(ctx context.Context, params *sqs.DeleteQueueInput, _ ...func(*sqs.Options)) (*sqs.DeleteQueueOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, err := s.lookup(ctx, "DeleteQueue", params.QueueUrl)
	if err != nil {
		return nil, err
	}
	delete(s.queues, q.url)
	delete(s.urls, q.name)
	return &sqs.DeleteQueueOutput{}, nil
}

// begin records the call and returns any injected fault. Callers hold s.mu.
func (s *Server) begin(ctx context.Context, op, queueName string) error {
	s.calls = append(s.calls, Call{op, queueName})
	if err := ctx.Err(); err != nil {
		return err
	}
	if faults := s.faults[op]; len(faults) > 0 {
		s.faults[op] = faults[1:]
		return faults[0]
	}
	return nil
}

func (s *Server) lookup(ctx context.Context, op string, queueUrl *string) (*fakeQueue, error) {
	q, found := s.queues[aws.ToString(queueUrl)]
	name := aws.ToString(queueUrl)
	if found {
		name = q.name
	}
	if err := s.begin(ctx, op, name); err != nil {
		return nil, err
	}
	if !found {
		return nil, queueDoesNotExist(aws.ToString(queueUrl))
	}
	return q, nil
}

func (s *Server) deliver(q *fakeQueue, maxMessages int, visibilityTimeout time.Duration, withReceiveCount bool) []types.Message {
	// Fifo groups with a message in flight are held back so that ordering within the group is preserved
	blockedGroups := make(map[string]bool)
	if q.fifo {
		for _, m := range q.messages {
			if s.effectiveState(m) == MessageState_Delivered {
				blockedGroups[m.groupId] = true
			}
		}
	}
	var delivered []types.Message
	for _, m := range append([]*message(nil), q.messages...) {
		if len(delivered) == maxMessages {
			break
		}
		if s.effectiveState(m) != MessageState_Available || m.visibleAt.After(s.now) {
			continue
		}
		if q.fifo && blockedGroups[m.groupId] {
			continue
		}
		if q.redrivePolicy != nil && m.receiveCount >= q.redrivePolicy.MaxReceiveCount {
			if s.redirect(q, m) {
				continue
			}
		}
		if len(m.receiptHandle) > 0 {
			delete(q.handles, m.receiptHandle)
		}
		m.receiveCount++
		m.state = MessageState_Delivered
		m.visibleAt = s.now.Add(visibilityTimeout)
		m.receiptHandle = uuid.New().String()
		if m.firstReceived.IsZero() {
			m.firstReceived = s.now
		}
		q.handles[m.receiptHandle] = m

		msg := types.Message{
			MessageId:     aws.String(m.id),
			Body:          aws.String(m.body),
			ReceiptHandle: aws.String(m.receiptHandle),
			MD5OfBody:     aws.String(md5Hex(m.body)),
		}
		if withReceiveCount {
			msg.Attributes = map[string]string{
				string(types.MessageSystemAttributeNameApproximateReceiveCount):          strconv.Itoa(m.receiveCount),
				string(types.MessageSystemAttributeNameSentTimestamp):                    strconv.FormatInt(m.sent.UnixMilli(), 10),
				string(types.MessageSystemAttributeNameApproximateFirstReceiveTimestamp): strconv.FormatInt(m.firstReceived.UnixMilli(), 10),
			}
			if q.fifo {
				msg.Attributes[string(types.MessageSystemAttributeNameMessageGroupId)] = m.groupId
			}
		}
		delivered = append(delivered, msg)
	}
	return delivered
}

// redirect moves m to q's dead-letter queue. It returns false if the dead-letter queue no longer exists, in which case
// the message stays where it is, as SQS does.
func (s *Server) redirect(q *fakeQueue, m *message) bool {
	dlq := s.queueByArn(q.redrivePolicy.DeadLetterTargetArn)
	if dlq == nil {
		return false
	}
	if len(m.receiptHandle) > 0 {
		delete(q.handles, m.receiptHandle)
	}
	m.state = MessageState_Redirected
	q.remove(m)
	dlq.messages = append(dlq.messages, &message{
		id:            m.id,
		body:          m.body,
		groupId:       m.groupId,
		state:         MessageState_Available,
		receiveCount:  m.receiveCount,
		sent:          m.sent,
		firstReceived: m.firstReceived,
		visibleAt:     s.now,
	})
	return true
}

func (s *Server) nextVisible(q *fakeQueue) (time.Time, bool) {
	var next time.Time
	found := false
	for _, m := range q.messages {
		if !m.visibleAt.After(s.now) {
			continue
		}
		if !found || m.visibleAt.Before(next) {
			next = m.visibleAt
			found = true
		}
	}
	return next, found
}

// effectiveState folds an expired visibility timeout back into Available.
func (s *Server) effectiveState(m *message) MessageState {
	if m.state == MessageState_Delivered && !m.visibleAt.After(s.now) {
		return MessageState_Available
	}
	return m.state
}

func (s *Server) queueByArn(arn string) *fakeQueue {
	for _, q := range s.queues {
		if q.arn == arn {
			return q
		}
	}
	return nil
}

func (s *Server) applyAttributes(q *fakeQueue, attributes map[string]string) error {
	visibilityTimeout, receiveWaitTime, delay := q.visibilityTimeout, q.receiveWaitTime, q.delay
	redrivePolicy := q.redrivePolicy
	for name, val := range attributes {
		var err error
		switch types.QueueAttributeName(name) {
		case types.QueueAttributeNameVisibilityTimeout:
			visibilityTimeout, err = parseSeconds(name, val, models.QueueMaxVisibilityTimeout)
		case types.QueueAttributeNameReceiveMessageWaitTimeSeconds:
			receiveWaitTime, err = parseSeconds(name, val, models.QueueMaxReceiveWaitTime)
		case types.QueueAttributeNameDelaySeconds:
			delay, err = parseSeconds(name, val, models.QueueMaxDelay)
		case types.QueueAttributeNameRedrivePolicy:
			redrivePolicy, err = s.parseRedrivePolicy(q, val)
		case types.QueueAttributeNameFifoQueue,
			types.QueueAttributeNameMaximumMessageSize,
			types.QueueAttributeNameMessageRetentionPeriod,
			types.QueueAttributeNameContentBasedDeduplication:
		default:
			err = &types.InvalidAttributeName{Message: aws.String(fmt.Sprintf("unknown attribute %s", name))}
		}
		if err != nil {
			return err
		}
	}
	q.visibilityTimeout, q.receiveWaitTime, q.delay = visibilityTimeout, receiveWaitTime, delay
	q.redrivePolicy = redrivePolicy
	for name, val := range attributes {
		if len(val) == 0 {
			delete(q.attributes, name)
		} else {
			q.attributes[name] = val
		}
	}
	return nil
}

func (s *Server) parseRedrivePolicy(q *fakeQueue, val string) (*models.RedrivePolicy, error) {
	if len(val) == 0 {
		return nil, nil
	}
	policy := new(models.RedrivePolicy)
	if err := json.Unmarshal([]byte(val), policy); err != nil {
		return nil, invalidParameter("invalid RedrivePolicy %s: %v", val, err)
	}
	if policy.MaxReceiveCount < 1 || policy.MaxReceiveCount > models.QueueMaxMaxReceiveCount {
		return nil, invalidParameter("maxReceiveCount %d outside [1, 1000]", policy.MaxReceiveCount)
	}
	dlq := s.queueByArn(policy.DeadLetterTargetArn)
	if dlq == nil {
		return nil, invalidParameter("dead-letter target %s does not exist", policy.DeadLetterTargetArn)
	}
	if dlq.fifo != q.fifo {
		return nil, invalidParameter("dead-letter queue %s must be the same type as %s", dlq.name, q.name)
	}
	return policy, nil
}

func (s *Server) allAttributes(q *fakeQueue) map[string]string {
	numVisible, numInFlight, numDelayed := 0, 0, 0
	for _, m := range q.messages {
		switch {
		case s.effectiveState(m) == MessageState_Delivered:
			numInFlight++
		case m.visibleAt.After(s.now):
			numDelayed++
		default:
			numVisible++
		}
	}
	attributes := map[string]string{
		string(types.QueueAttributeNameQueueArn):                              q.arn,
		string(types.QueueAttributeNameVisibilityTimeout):                     strconv.Itoa(int(q.visibilityTimeout.Seconds())),
		string(types.QueueAttributeNameReceiveMessageWaitTimeSeconds):         strconv.Itoa(int(q.receiveWaitTime.Seconds())),
		string(types.QueueAttributeNameDelaySeconds):                          strconv.Itoa(int(q.delay.Seconds())),
		string(types.QueueAttributeNameCreatedTimestamp):                      strconv.FormatInt(q.created.Unix(), 10),
		string(types.QueueAttributeNameApproximateNumberOfMessages):           strconv.Itoa(numVisible),
		string(types.QueueAttributeNameApproximateNumberOfMessagesNotVisible): strconv.Itoa(numInFlight),
		string(types.QueueAttributeNameApproximateNumberOfMessagesDelayed):    strconv.Itoa(numDelayed),
	}
	if q.fifo {
		attributes[string(types.QueueAttributeNameFifoQueue)] = "true"
	}
	if q.redrivePolicy != nil {
		// SQS echoes maxReceiveCount back as a number regardless of how it was set
		attributes[string(types.QueueAttributeNameRedrivePolicy)] = fmt.Sprintf(
			`{"deadLetterTargetArn":%q,"maxReceiveCount":%d}`,
			q.redrivePolicy.DeadLetterTargetArn,
			q.redrivePolicy.MaxReceiveCount,
		)
	}
	return attributes
}

func (q *fakeQueue) remove(m *message) {
	for i, candidate := range q.messages {
		if candidate == m {
			q.messages = append(q.messages[:i], q.messages[i+1:]...)
			return
		}
	}
}

func knownAttribute(name string) bool {
	for _, known := range types.QueueAttributeNameAll.Values() {
		if string(known) == name {
			return true
		}
	}
	return false
}

func sameAttributes(a, b map[string]string) bool {
	for name, val := range b {
		if a[name] != val {
			return false
		}
	}
	for name, val := range a {
		if b[name] != val {
			return false
		}
	}
	return true
}

func parseSeconds(name, val string, max time.Duration) (time.Duration, error) {
	seconds, err := strconv.Atoi(val)
	if err != nil {
		return 0, invalidParameter("%s must be an integer, got %q", name, val)
	}
	d := time.Duration(seconds) * time.Second
	if seconds < 0 || d > max {
		return 0, invalidParameter("%s %d outside [0, %d]", name, seconds, int(max.Seconds()))
	}
	return d, nil
}

func invalidParameter(format string, args ...interface{}) error {
	return &smithy.GenericAPIError{Code: "InvalidParameterValue", Message: fmt.Sprintf(format, args...), Fault: smithy.FaultClient}
}

func queueDoesNotExist(queue string) error {
	return &types.QueueDoesNotExist{Message: aws.String(fmt.Sprintf("queue %s does not exist", queue))}
}

func md5Hex(body string) string {
	sum := md5.Sum([]byte(body))
	return hex.EncodeToString(sum[:])
}
