package services

import (
	"context"
	"errors"
	"sync"

	"github.com/ceramicnetwork/go-sqs-flow/models"
)

type MockMetricService struct {
	mu     sync.Mutex
	counts map[models.MetricName]int
}

func (m *MockMetricService) Count(ctx context.Context, name models.MetricName, val int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = make(map[models.MetricName]int)
	}
	m.counts[name] += val
	return nil
}

func (m *MockMetricService) Shutdown(ctx context.Context) {}

func (m *MockMetricService) getCount(name models.MetricName) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}

type alert struct {
	title   string
	desc    string
	content string
}

type MockNotifier struct {
	alerts []alert
	fail   bool
}

func (m *MockNotifier) SendAlert(title, desc, content string) error {
	if m.fail {
		return errors.New("test error")
	}
	m.alerts = append(m.alerts, alert{title, desc, content})
	return nil
}

type MockRunStore struct {
	runs map[string]*models.RunReport
	fail bool
}

func (m *MockRunStore) StoreRun(ctx context.Context, report *models.RunReport) (bool, error) {
	if m.fail {
		return false, errors.New("test error")
	}
	if m.runs == nil {
		m.runs = make(map[string]*models.RunReport)
	}
	if _, found := m.runs[report.RunId]; found {
		return false, nil
	}
	stored := *report
	m.runs[report.RunId] = &stored
	return true, nil
}

func (m *MockRunStore) GetRun(ctx context.Context, runId string) (*models.RunReport, error) {
	return m.runs[runId], nil
}
