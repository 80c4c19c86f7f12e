// Package pipeline orchestrates a batch run: load the batch document,
// classify and price every record, aggregate per contract and write the
// report artifacts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/telaro/tariffa/internal/aggregate"
	"github.com/telaro/tariffa/internal/cdr"
	"github.com/telaro/tariffa/internal/classify"
	"github.com/telaro/tariffa/internal/common"
	"github.com/telaro/tariffa/internal/model"
)

// Stage names a pipeline phase for error reporting.
type Stage string

// Pipeline stages in execution order.
const (
	StageLoad      Stage = "load"
	StageClassify  Stage = "classify"
	StageAggregate Stage = "aggregate"
	StageWrite     Stage = "write"
)

// StageError wraps a failure with the stage it happened in.
type StageError struct {
	Err   error
	Stage Stage
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Config holds the optional knobs of a pipeline.
type Config struct {
	Invoicer    Invoicer
	BillingMode classify.BillingMode
	RankingSize int
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		BillingMode: classify.BillPerMinute,
		RankingSize: aggregate.DefaultRankingSize,
	}
}

// Pipeline runs batches end to end against a category source and a
// report sink.
type Pipeline struct {
	categories CategorySource
	sink       ReportSink
	invoicer   Invoicer
	engine     *aggregate.Engine
	parser     *cdr.Parser
	now        func() time.Time
	billing    classify.BillingMode
}

// New creates a pipeline with the default configuration.
func New(categories CategorySource, sink ReportSink) *Pipeline {
	return NewWithConfig(categories, sink, DefaultConfig())
}

// NewWithConfig creates a pipeline with custom configuration.
func NewWithConfig(categories CategorySource, sink ReportSink, cfg Config) *Pipeline {
	if cfg.BillingMode == "" {
		cfg.BillingMode = classify.BillPerMinute
	}
	if cfg.RankingSize <= 0 {
		cfg.RankingSize = aggregate.DefaultRankingSize
	}
	return &Pipeline{
		categories: categories,
		sink:       sink,
		invoicer:   cfg.Invoicer,
		engine:     aggregate.NewEngineWithSize(cfg.RankingSize),
		parser:     cdr.NewParser(),
		now:        time.Now,
		billing:    cfg.BillingMode,
	}
}

// Result summarizes a completed batch run.
type Result struct {
	StartedAt         time.Time
	RunID             string
	SourceFile        string
	SummaryPath       string
	Currency          string
	UnmatchedLabels   []string
	ReportPaths       []string
	Duration          time.Duration
	RecordCount       int
	ContractCount     int
	ExcludedRecords   int
	UnmatchedRecords  int
	TotalOriginalCost float64
	TotalCustomerCost float64
}

// ProcessFile loads the batch at path, parsing raw feeds and reading
// converted JSON documents, then runs it.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (*Result, error) {
	var (
		doc *model.BatchDocument
		err error
	)
	if cdr.IsFeedFile(path) {
		doc, err = p.parser.ParseFile(ctx, path)
	} else {
		doc, err = cdr.LoadDocument(ctx, path)
	}
	if err != nil {
		return nil, &StageError{Stage: StageLoad, Err: err}
	}
	return p.Process(ctx, doc)
}

// Process runs one batch document through classification, aggregation
// and report writing.
func (p *Pipeline) Process(ctx context.Context, doc *model.BatchDocument) (*Result, error) {
	if ctx == nil {
		return nil, errors.New("context cannot be nil")
	}
	if doc == nil {
		return nil, &StageError{Stage: StageLoad, Err: errors.New("batch document cannot be nil")}
	}
	if len(doc.Records) == 0 {
		return nil, &StageError{Stage: StageLoad, Err: common.ErrNoRecords}
	}

	started := p.now()
	runID := uuid.New().String()
	slog.Info("Starting batch run",
		"run_id", runID,
		"source", doc.Metadata.SourceFile,
		"records", len(doc.Records))

	classified, err := p.classifyRecords(ctx, doc.Records)
	if err != nil {
		return nil, &StageError{Stage: StageClassify, Err: err}
	}

	unmatchedLabels, unmatchedCount := collectUnmatched(classified)
	if unmatchedCount > 0 {
		slog.Warn("Records without a matching category",
			"run_id", runID,
			"count", unmatchedCount,
			"labels", unmatchedLabels)
	}

	grouping := p.engine.GroupByContract(classified)
	if grouping.Excluded > 0 {
		slog.Warn("Records without a contract code excluded from reports",
			"run_id", runID,
			"count", grouping.Excluded)
	}

	result := &Result{
		StartedAt:        started,
		RunID:            runID,
		SourceFile:       doc.Metadata.SourceFile,
		UnmatchedLabels:  unmatchedLabels,
		RecordCount:      len(doc.Records),
		ContractCount:    len(grouping.Order),
		ExcludedRecords:  grouping.Excluded,
		UnmatchedRecords: unmatchedCount,
	}

	for _, code := range grouping.Order {
		if err := ctx.Err(); err != nil {
			return nil, &StageError{Stage: StageWrite, Err: err}
		}

		agg := p.engine.AggregateContract(code, grouping.Groups[code])
		rep := p.buildContractReport(runID, started, doc.Metadata.SourceFile, agg)

		path, err := p.sink.WriteContractReport(ctx, rep)
		if err != nil {
			return nil, &StageError{Stage: StageWrite, Err: err}
		}
		result.ReportPaths = append(result.ReportPaths, path)

		if p.invoicer != nil {
			if err := p.invoicer.SubmitReport(ctx, rep); err != nil {
				slog.Warn("Invoicer rejected report",
					"run_id", runID,
					"contract_code", code,
					"error", err)
			}
		}
	}

	summaryAgg := p.engine.BuildGlobalSummary(grouping)
	summary := p.buildGlobalSummary(runID, started, doc.Metadata.SourceFile, summaryAgg)

	summaryPath, err := p.sink.WriteSummary(ctx, summary)
	if err != nil {
		return nil, &StageError{Stage: StageWrite, Err: err}
	}

	result.SummaryPath = summaryPath
	result.Currency = summaryAgg.GlobalTotals.Currency
	result.TotalOriginalCost = summaryAgg.GlobalTotals.TotalOriginalCost
	result.TotalCustomerCost = summaryAgg.GlobalTotals.TotalCustomerCost
	result.Duration = p.now().Sub(started)

	slog.Info("Batch run complete",
		"run_id", runID,
		"contracts", result.ContractCount,
		"reports", len(result.ReportPaths),
		"unmatched", result.UnmatchedRecords,
		"duration", result.Duration)
	return result, nil
}

func (p *Pipeline) classifyRecords(ctx context.Context, records []model.CDRRecord) ([]model.ClassifiedRecord, error) {
	categories, err := p.categories.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading categories: %w", err)
	}
	markup, err := p.categories.GlobalMarkup(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading global markup: %w", err)
	}

	classifier := classify.NewClassifier(categories)
	calc := classify.NewCalculator(markup, p.billing)
	return classify.ClassifyAll(records, classifier, calc), nil
}

func (p *Pipeline) buildContractReport(runID string, started time.Time, sourceFile string, agg *aggregate.ContractAggregate) *model.ContractReport {
	return &model.ContractReport{
		Metadata: model.ReportMetadata{
			GeneratedAt:  started,
			RunID:        runID,
			SourceFile:   sourceFile,
			ContractCode: agg.ContractCode,
			Month:        started.Format("01"),
			Year:         started.Year(),
			RecordCount:  len(agg.Records),
		},
		Summary:           agg.Summary,
		CategoryBreakdown: agg.CategoryBreakdown,
		DailyBreakdown:    agg.DailyBreakdown,
		Records:           agg.Records,
	}
}

func (p *Pipeline) buildGlobalSummary(runID string, started time.Time, sourceFile string, agg *aggregate.SummaryAggregate) *model.GlobalSummary {
	return &model.GlobalSummary{
		Metadata: model.ReportMetadata{
			GeneratedAt:   started,
			RunID:         runID,
			SourceFile:    sourceFile,
			Month:         started.Format("01"),
			Year:          started.Year(),
			RecordCount:   agg.RecordCount,
			ContractCount: agg.ContractCount,
		},
		GlobalTotals:     agg.GlobalTotals,
		GlobalByCategory: agg.GlobalByCategory,
		ContractsSummary: agg.ContractsSummary,
		TopContracts:     agg.TopContracts,
	}
}

// collectUnmatched returns the distinct raw labels of unmatched records
// in first-seen order, plus the unmatched record count.
func collectUnmatched(records []model.ClassifiedRecord) ([]string, int) {
	var labels []string
	seen := make(map[string]struct{})
	count := 0
	for i := range records {
		if records[i].Matched {
			continue
		}
		count++
		label := records[i].RawCallType
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	return labels, count
}
