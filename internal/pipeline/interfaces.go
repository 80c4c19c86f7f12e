package pipeline

import (
	"context"

	"github.com/telaro/tariffa/internal/model"
)

// CategorySource provides the classification rules and global markup
// for a run.
type CategorySource interface {
	GetCategories(ctx context.Context) ([]model.Category, error)
	GlobalMarkup(ctx context.Context) (float64, error)
}

// ReportSink persists the generated artifacts and returns the paths
// they were written to.
type ReportSink interface {
	WriteContractReport(ctx context.Context, rep *model.ContractReport) (string, error)
	WriteSummary(ctx context.Context, sum *model.GlobalSummary) (string, error)
}

// Invoicer receives finalized contract reports for downstream billing
// systems. Submission happens after the report is written; a failed
// submission is logged but never fails the run.
type Invoicer interface {
	SubmitReport(ctx context.Context, rep *model.ContractReport) error
}
