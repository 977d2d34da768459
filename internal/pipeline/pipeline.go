package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/analytics"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/approval"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/blocks"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/compliance"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/config"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/extract"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/kpi"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/quality"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/snippet"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/store"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/sufficiency"
)

var tracer = otel.Tracer("accreditation/pipeline")

var (
	ErrNoDocuments = errors.New("batch has no documents")
	ErrNotRunnable = errors.New("batch is not in created state")
)

type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// StageNameFromError returns the failing stage, or "pipeline" when the error
// was raised outside any stage.
func StageNameFromError(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return "pipeline"
}

type StageProgressFn func(stage, message string)

func emit(progress StageProgressFn, stage, message string) {
	if progress != nil {
		progress(stage, message)
	}
}

// Store is the persistence the pipeline needs.
type Store interface {
	GetBatch(ctx context.Context, batchID string) (store.Batch, error)
	UpdateStatus(ctx context.Context, batchID string, status store.Status, message string) error
	SaveBlocks(ctx context.Context, batchID string, bs []blocks.Block) error
	PublishResults(ctx context.Context, batchID string, r store.Results) error
	Benchmarks(ctx context.Context) ([]analytics.Benchmark, error)
}

// BlockExtractor turns the snippets of one document into block candidates.
type BlockExtractor interface {
	ExtractDocument(ctx context.Context, batchID, docName string, snippets []snippet.Snippet) ([]blocks.Block, error)
}

type Config struct {
	Tables          config.Tables
	SnippetMaxLines int
	Quality         quality.Thresholds
	Logger          *zap.Logger
}

type Pipeline struct {
	store     Store
	extractor BlockExtractor
	tables    config.Tables
	filter    *snippet.Filter
	assessor  *quality.Assessor
	logger    *zap.Logger
}

func New(st Store, extractor BlockExtractor, cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	th := cfg.Quality
	if th == (quality.Thresholds{}) {
		th = quality.DefaultThresholds()
	}
	return &Pipeline{
		store:     st,
		extractor: extractor,
		tables:    cfg.Tables,
		filter:    snippet.NewFilter(cfg.Tables, cfg.SnippetMaxLines),
		assessor:  quality.NewAssessor(th),
		logger:    logger,
	}
}

// Outcome is what a successful run produced.
type Outcome struct {
	BatchID string          `json:"batch_id"`
	Blocks  []blocks.Block  `json:"blocks"`
	Results store.Results   `json:"results"`
	Timings []StageDuration `json:"timings"`
}

type StageDuration struct {
	Stage   string        `json:"stage"`
	Elapsed time.Duration `json:"elapsed"`
}

// run state shared by the stages of one batch.
type state struct {
	batch     store.Batch
	docs      []blocks.Document
	direct    []blocks.Block
	snippets  map[string][]snippet.Snippet
	blocks    []blocks.Block
	aggregate blocks.Data
	results   store.Results
	timings   []StageDuration
}

var stageLabels = map[store.Status]string{
	store.StatusPreprocessing: "Preprocessing documents",
	store.StatusClassifying:   "Selecting candidate text per block type",
	store.StatusExtracting:    "Extracting information blocks",
	store.StatusQualityCheck:  "Assessing block quality",
	store.StatusSufficiency:   "Calculating sufficiency",
	store.StatusKPIScoring:    "Scoring KPIs",
	store.StatusTrendAnalysis: "Preparing trend data",
	store.StatusCompliance:    "Evaluating compliance and approval readiness",
}

func (p *Pipeline) Run(ctx context.Context, batchID string, docs []blocks.Document) (Outcome, error) {
	return p.RunWithProgress(ctx, batchID, docs, nil)
}

// RunWithProgress drives one created batch through every stage. Any error
// marks the batch failed and nothing derived is published.
func (p *Pipeline) RunWithProgress(ctx context.Context, batchID string, docs []blocks.Document, progress StageProgressFn) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "pipeline.Run")
	defer span.End()
	span.SetAttributes(attribute.String("batch_id", batchID), attribute.Int("documents", len(docs)))

	batch, err := p.store.GetBatch(ctx, batchID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load batch %s: %w", batchID, err)
	}
	if batch.Status != store.StatusCreated {
		return Outcome{}, fmt.Errorf("%w: %s is %s", ErrNotRunnable, batchID, batch.Status)
	}

	st := &state{batch: batch, docs: docs, snippets: map[string][]snippet.Snippet{}}
	started := time.Now()
	err = p.run(ctx, st, progress)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.fail(ctx, batchID, err)
		return Outcome{BatchID: batchID, Timings: st.timings}, err
	}

	p.logger.Info("batch completed",
		zap.String("batch_id", batchID),
		zap.Int("blocks", len(st.blocks)),
		zap.Float64("sufficiency", st.results.Sufficiency.Percentage),
		zap.Duration("elapsed", time.Since(started)),
	)
	emit(progress, string(store.StatusCompleted), fmt.Sprintf("Batch complete in %s", time.Since(started).Round(time.Millisecond)))
	return Outcome{BatchID: batchID, Blocks: st.blocks, Results: st.results, Timings: st.timings}, nil
}

func (p *Pipeline) run(ctx context.Context, st *state, progress StageProgressFn) error {
	stages := []struct {
		status store.Status
		fn     func(context.Context, *state) error
	}{
		{store.StatusPreprocessing, p.preprocess},
		{store.StatusClassifying, p.classify},
		{store.StatusExtracting, p.extractBlocks},
		{store.StatusQualityCheck, p.assessQuality},
		{store.StatusSufficiency, p.scoreSufficiency},
		{store.StatusKPIScoring, p.scoreKPIs},
		{store.StatusTrendAnalysis, p.prepareTrend},
		{store.StatusCompliance, p.evaluateCompliance},
	}
	for _, s := range stages {
		if err := p.stage(ctx, st, s.status, progress, s.fn); err != nil {
			return err
		}
	}
	if err := p.store.PublishResults(ctx, st.batch.ID, st.results); err != nil {
		return &StageError{Stage: string(store.StatusCompleted), Err: fmt.Errorf("publish results: %w", err)}
	}
	return nil
}

func (p *Pipeline) stage(ctx context.Context, st *state, status store.Status, progress StageProgressFn, fn func(context.Context, *state) error) error {
	name := string(status)
	if err := ctx.Err(); err != nil {
		return &StageError{Stage: name, Err: err}
	}
	if err := p.store.UpdateStatus(ctx, st.batch.ID, status, ""); err != nil {
		return &StageError{Stage: name, Err: fmt.Errorf("update status: %w", err)}
	}
	label := stageLabels[status]
	emit(progress, name, label+"...")

	sctx, span := tracer.Start(ctx, "pipeline."+name)
	started := time.Now()
	err := fn(sctx, st)
	elapsed := time.Since(started)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	if err != nil {
		return &StageError{Stage: name, Err: err}
	}

	st.timings = append(st.timings, StageDuration{Stage: name, Elapsed: elapsed})
	p.logger.Debug("stage complete",
		zap.String("batch_id", st.batch.ID),
		zap.String("stage", name),
		zap.Duration("elapsed", elapsed),
	)
	emit(progress, name, fmt.Sprintf("%s complete in %s", label, elapsed.Round(time.Millisecond)))
	return nil
}

// The failure record outlives a cancelled run.
func (p *Pipeline) fail(ctx context.Context, batchID string, cause error) {
	stage := StageNameFromError(cause)
	p.logger.Error("batch failed",
		zap.String("batch_id", batchID),
		zap.String("stage", stage),
		zap.Error(cause),
	)
	if err := p.store.UpdateStatus(context.WithoutCancel(ctx), batchID, store.StatusFailed, cause.Error()); err != nil {
		p.logger.Error("record batch failure",
			zap.String("batch_id", batchID),
			zap.Error(err),
		)
	}
}

func isCSV(d blocks.Document) bool {
	if strings.EqualFold(d.Kind, "csv") {
		return true
	}
	return strings.EqualFold(filepath.Ext(d.Name), ".csv")
}

func (p *Pipeline) preprocess(_ context.Context, st *state) error {
	if len(st.docs) == 0 {
		return ErrNoDocuments
	}
	docs := make([]blocks.Document, 0, len(st.docs))
	for _, d := range st.docs {
		if isCSV(d) {
			mapped, err := extract.MapCSV(st.batch.ID, d.Name, strings.NewReader(d.FullText()))
			if err != nil {
				return fmt.Errorf("map csv %s: %w", d.Name, err)
			}
			st.direct = append(st.direct, mapped...)
			continue
		}
		pages := make([]blocks.Page, len(d.Pages))
		for i, pg := range d.Pages {
			pages[i] = blocks.Page{Number: pg.Number, Text: extract.NormalizeTables(pg.Text)}
		}
		docs = append(docs, blocks.Document{Name: d.Name, Kind: d.Kind, Pages: pages})
	}
	st.docs = docs
	return nil
}

func (p *Pipeline) classify(_ context.Context, st *state) error {
	for _, d := range st.docs {
		st.snippets[d.Name] = p.filter.Extract(d.Pages)
	}
	return nil
}

func (p *Pipeline) extractBlocks(ctx context.Context, st *state) error {
	var out []blocks.Block
	for _, d := range st.docs {
		bs, err := p.extractor.ExtractDocument(ctx, st.batch.ID, d.Name, st.snippets[d.Name])
		if err != nil {
			return fmt.Errorf("extract %s: %w", d.Name, err)
		}
		out = append(out, bs...)
	}
	st.blocks = append(out, st.direct...)
	return nil
}

func (p *Pipeline) assessQuality(ctx context.Context, st *state) error {
	st.blocks = p.assessor.AssessAll(st.blocks)
	if err := p.store.SaveBlocks(ctx, st.batch.ID, st.blocks); err != nil {
		return fmt.Errorf("save blocks: %w", err)
	}
	return nil
}

func (p *Pipeline) scoreSufficiency(_ context.Context, st *state) error {
	st.results.Sufficiency = sufficiency.Calculate(st.batch.Mode, st.blocks)
	return nil
}

func (p *Pipeline) scoreKPIs(_ context.Context, st *state) error {
	st.aggregate = blocks.Aggregate(st.blocks)
	st.results.KPI = kpi.Calculate(p.tables, st.batch.Mode, st.aggregate)
	st.results.Assessment = kpi.Assess(st.results.KPI)
	if st.batch.InstitutionName == "" {
		if name, ok := st.aggregate.Text("institution_name", "name_of_institution", "college_name", "institute_name"); ok {
			st.results.InstitutionName = name
		}
	}
	return nil
}

func (p *Pipeline) prepareTrend(ctx context.Context, st *state) error {
	if label, ok := st.aggregate.Text("academic_year", "session", "academic_session"); ok {
		st.results.AcademicYear = label
	}
	year, ok := analytics.ExtractYear(st.aggregate)
	if !ok {
		p.logger.Info("no academic year found; batch excluded from trends", zap.String("batch_id", st.batch.ID))
		return nil
	}
	point := analytics.YearPoint{BatchID: st.batch.ID, Year: year, Values: st.results.KPI.Values()}
	st.results.Trend = &point

	benchmarks, err := p.store.Benchmarks(ctx)
	if err != nil {
		return fmt.Errorf("load benchmarks: %w", err)
	}
	if c, ok := analytics.CompareBenchmarks(point, benchmarks, analytics.Metrics); ok {
		st.results.Benchmark = &c
	}
	return nil
}

func (p *Pipeline) evaluateCompliance(_ context.Context, st *state) error {
	st.results.Compliance = compliance.Evaluate(p.tables, st.batch.Mode, st.blocks)
	st.results.Classification = approval.Classify(p.tables, st.blocks)
	st.results.Readiness = approval.Score(p.tables, st.results.Classification, st.batch.Mode, st.blocks)
	return nil
}
