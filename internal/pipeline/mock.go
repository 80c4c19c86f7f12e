package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/telaro/tariffa/internal/model"
)

// MockSink collects written artifacts in memory for tests.
type MockSink struct {
	WriteErr error

	mu        sync.Mutex
	Reports   []*model.ContractReport
	Summaries []*model.GlobalSummary
}

// WriteContractReport records the report and returns a synthetic path.
func (m *MockSink) WriteContractReport(_ context.Context, rep *model.ContractReport) (string, error) {
	if m.WriteErr != nil {
		return "", m.WriteErr
	}
	m.mu.Lock()
	m.Reports = append(m.Reports, rep)
	m.mu.Unlock()
	return fmt.Sprintf("mock/%s.json", rep.Metadata.ContractCode), nil
}

// WriteSummary records the summary and returns a synthetic path.
func (m *MockSink) WriteSummary(_ context.Context, sum *model.GlobalSummary) (string, error) {
	if m.WriteErr != nil {
		return "", m.WriteErr
	}
	m.mu.Lock()
	m.Summaries = append(m.Summaries, sum)
	m.mu.Unlock()
	return "mock/SUMMARY.json", nil
}

// MockInvoicer records submitted contract codes for tests.
type MockInvoicer struct {
	Err error

	mu        sync.Mutex
	Submitted []string
}

// SubmitReport records the submission, failing when Err is set.
func (m *MockInvoicer) SubmitReport(_ context.Context, rep *model.ContractReport) error {
	m.mu.Lock()
	m.Submitted = append(m.Submitted, rep.Metadata.ContractCode)
	m.mu.Unlock()
	return m.Err
}
