package queue

import (
	"context"
	"sync"

	"github.com/ceramicnetwork/go-sqs-flow/models"
)

type mockMetricService struct {
	mu     sync.Mutex
	counts map[models.MetricName]int
}

func (m *mockMetricService) Count(ctx context.Context, name models.MetricName, val int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = make(map[models.MetricName]int)
	}
	m.counts[name] += val
	return nil
}

func (m *mockMetricService) Shutdown(ctx context.Context) {}

func (m *mockMetricService) getCount(name models.MetricName) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}
