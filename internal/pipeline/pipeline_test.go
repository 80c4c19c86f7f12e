package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telaro/tariffa/internal/common"
	"github.com/telaro/tariffa/internal/model"
	"github.com/telaro/tariffa/internal/report"
	"github.com/telaro/tariffa/internal/storage"
)

func newTestStore(t *testing.T) *storage.CategoryStore {
	t.Helper()
	store, err := storage.NewCategoryStore(filepath.Join(t.TempDir(), "categories.json"))
	require.NoError(t, err)
	require.NoError(t, store.Load(context.Background()))
	return store
}

func feedRecord(contract, label string, seconds int, cost float64) model.CDRRecord {
	return model.CDRRecord{
		CallTime:        model.ParseCallTime("2025-07-01 09:00:00"),
		RawCallType:     label,
		ContractCode:    model.Code(contract),
		DurationSeconds: seconds,
		OriginalCost:    cost,
	}
}

func sampleBatch() *model.BatchDocument {
	return &model.BatchDocument{
		Metadata: model.BatchMetadata{
			SourceFile:   "RIV_12345_MESE_07_2025-001.CDR",
			TotalRecords: 5,
		},
		Records: []model.CDRRecord{
			feedRecord("88001", "URBANE", 300, 0.05),
			feedRecord("88001", "CELLULARE", 60, 0.05),
			feedRecord("88001", "COLLEGAMENTO SATELLITARE", 90, 0.03),
			feedRecord("88002", "URBANE", 120, 0.02),
			feedRecord("88002", "NUMERO VERDE", 180, 0),
		},
	}
}

func TestProcessBatch(t *testing.T) {
	store := newTestStore(t)
	sink := &MockSink{}
	p := New(store, sink)
	ctx := context.Background()

	result, err := p.Process(ctx, sampleBatch())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "RIV_12345_MESE_07_2025-001.CDR", result.SourceFile)
	assert.Equal(t, 5, result.RecordCount)
	assert.Equal(t, 2, result.ContractCount)
	assert.Equal(t, 0, result.ExcludedRecords)
	assert.Equal(t, 1, result.UnmatchedRecords)
	assert.Equal(t, []string{"COLLEGAMENTO SATELLITARE"}, result.UnmatchedLabels)
	assert.Equal(t, []string{"mock/88001.json", "mock/88002.json"}, result.ReportPaths)
	assert.Equal(t, "mock/SUMMARY.json", result.SummaryPath)
	assert.Equal(t, "EUR", result.Currency)

	require.Len(t, sink.Reports, 2)
	require.Len(t, sink.Summaries, 1)

	first := sink.Reports[0]
	assert.Equal(t, "88001", first.Metadata.ContractCode)
	assert.Equal(t, result.RunID, first.Metadata.RunID)
	assert.Equal(t, 3, first.Summary.TotalCalls)
	require.Contains(t, first.CategoryBreakdown, "ALTRO")
	assert.Equal(t, 1, first.CategoryBreakdown["ALTRO"].Calls)

	summary := sink.Summaries[0]
	assert.Equal(t, result.RunID, summary.Metadata.RunID)
	assert.Equal(t, 2, summary.Metadata.ContractCount)
	assert.Equal(t, 5, summary.GlobalTotals.TotalCalls)
	assert.InDelta(t, result.TotalCustomerCost, summary.GlobalTotals.TotalCustomerCost, 1e-9)
}

func TestProcessEmptyBatch(t *testing.T) {
	p := New(newTestStore(t), &MockSink{})

	_, err := p.Process(context.Background(), &model.BatchDocument{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNoRecords)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageLoad, stageErr.Stage)
}

func TestProcessNilDocument(t *testing.T) {
	p := New(newTestStore(t), &MockSink{})

	_, err := p.Process(context.Background(), nil)
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageLoad, stageErr.Stage)
}

type failingCategories struct {
	err error
}

func (f *failingCategories) GetCategories(context.Context) ([]model.Category, error) {
	return nil, f.err
}

func (f *failingCategories) GlobalMarkup(context.Context) (float64, error) {
	return 0, f.err
}

func TestCategoryLoadFailure(t *testing.T) {
	p := New(&failingCategories{err: errors.New("store offline")}, &MockSink{})

	_, err := p.Process(context.Background(), sampleBatch())
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageClassify, stageErr.Stage)
}

func TestWriteFailure(t *testing.T) {
	sink := &MockSink{WriteErr: errors.New("disk full")}
	p := New(newTestStore(t), sink)

	_, err := p.Process(context.Background(), sampleBatch())
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageWrite, stageErr.Stage)
}

func TestInvoicerFailureDoesNotFailRun(t *testing.T) {
	store := newTestStore(t)
	sink := &MockSink{}
	invoicer := &MockInvoicer{Err: errors.New("endpoint unreachable")}
	p := NewWithConfig(store, sink, Config{Invoicer: invoicer})

	result, err := p.Process(context.Background(), sampleBatch())
	require.NoError(t, err)
	assert.Equal(t, 2, result.ContractCount)
	assert.Equal(t, []string{"88001", "88002"}, invoicer.Submitted)
}

func TestReportsAreImmutableAfterMarkupChange(t *testing.T) {
	store := newTestStore(t)
	writer := report.NewWriter(t.TempDir())
	p := New(store, writer)
	ctx := context.Background()

	first, err := p.Process(ctx, sampleBatch())
	require.NoError(t, err)
	require.Len(t, first.ReportPaths, 2)

	before, err := os.ReadFile(first.ReportPaths[0])
	require.NoError(t, err)

	require.NoError(t, store.SetGlobalMarkup(ctx, 50))

	second, err := p.Process(ctx, sampleBatch())
	require.NoError(t, err)
	assert.Greater(t, second.TotalCustomerCost, first.TotalCustomerCost)

	after, err := os.ReadFile(first.ReportPaths[0])
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestProcessFileRawFeed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "RIV_12345_MESE_07_2025-001.CDR")
	lines := "2025-07-01 08:15:23;0544123456;3921234567;120;URBANE;TIM;0,0456;88001;1;RAVENNA;0544\n" +
		"2025-07-01 09:30:00;0544123456;3487654321;45;CELLULARE;VODAFONE;0,0789;88002;1;CESENA;348\n"
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))

	store := newTestStore(t)
	sink := &MockSink{}
	p := New(store, sink)

	result, err := p.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, result.RecordCount)
	assert.Equal(t, 2, result.ContractCount)
	assert.Zero(t, result.UnmatchedRecords)
	require.Len(t, sink.Reports, 2)
}

func TestProcessFileMissing(t *testing.T) {
	p := New(newTestStore(t), &MockSink{})

	_, err := p.ProcessFile(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageLoad, stageErr.Stage)
}
