package store

import (
	"time"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/analytics"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/approval"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/blocks"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/compliance"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/kpi"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/sufficiency"
)

type Status string

const (
	StatusCreated       Status = "created"
	StatusPreprocessing Status = "preprocessing"
	StatusClassifying   Status = "classifying"
	StatusExtracting    Status = "extracting"
	StatusQualityCheck  Status = "quality_check"
	StatusSufficiency   Status = "sufficiency"
	StatusKPIScoring    Status = "kpi_scoring"
	StatusTrendAnalysis Status = "trend_analysis"
	StatusCompliance    Status = "compliance"
	StatusCompleted     Status = "completed"
	StatusFailed        Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type Batch struct {
	ID              string      `json:"batch_id"`
	Mode            blocks.Mode `json:"mode"`
	InstitutionName string      `json:"institution_name,omitempty"`
	Status          Status      `json:"status"`
	ErrorMessage    string      `json:"error_message,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Results is the derived payload of a completed batch, published once.
type Results struct {
	Sufficiency     sufficiency.Result      `json:"sufficiency"`
	KPI             kpi.Result              `json:"kpi"`
	Assessment      kpi.Assessment          `json:"assessment"`
	Compliance      []compliance.Flag       `json:"compliance_flags"`
	Classification  approval.Classification `json:"approval_classification"`
	Readiness       approval.Readiness      `json:"approval_readiness"`
	Trend           *analytics.YearPoint    `json:"trend,omitempty"`
	Benchmark       *analytics.Comparison   `json:"benchmark,omitempty"`
	AcademicYear    string                  `json:"academic_year,omitempty"`
	InstitutionName string                  `json:"institution_name,omitempty"`
}
