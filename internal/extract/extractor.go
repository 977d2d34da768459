package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/blocks"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/config"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/llm"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/snippet"
)

const (
	DefaultRetryLimit  = 3
	maxEvidenceChars   = 500
	callFailurePrefix  = "extraction call failed"
	parseFailurePrefix = "unparsable model response"
)

var tracer = otel.Tracer("accreditation/extract")

// Caller is the model-call contract the extractor depends on.
type Caller interface {
	Complete(ctx context.Context, messages []llm.Message) (llm.Result, error)
}

type Config struct {
	RetryLimit  int
	Concurrency int
	Logger      *zap.Logger
}

type Extractor struct {
	caller Caller
	tables config.Tables
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

func NewExtractor(caller Caller, tables config.Tables, cfg Config) *Extractor {
	if cfg.RetryLimit < 1 {
		cfg.RetryLimit = DefaultRetryLimit
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		caller: caller,
		tables: tables,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// ExtractDocument extracts one block candidate per non-empty snippet. Calls
// may run concurrently; the result keeps snippet order. Only cancellation of
// ctx is returned as an error: failed calls degrade their block instead.
func (e *Extractor) ExtractDocument(ctx context.Context, batchID, docName string, snippets []snippet.Snippet) ([]blocks.Block, error) {
	ctx, span := tracer.Start(ctx, "extract.ExtractDocument")
	defer span.End()
	span.SetAttributes(attribute.String("batch_id", batchID), attribute.String("document", docName))

	var work []snippet.Snippet
	for _, s := range snippets {
		if !s.Empty() {
			work = append(work, s)
		}
	}
	out := make([]blocks.Block, len(work))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for i, s := range work {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = e.ExtractBlock(gctx, batchID, docName, s)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("blocks", len(out)))
	return out, nil
}

// ExtractBlock runs the retry loop for one snippet. It always returns a block:
// exhausting the retry limit yields an invalid block carrying the reason.
func (e *Extractor) ExtractBlock(ctx context.Context, batchID, docName string, snip snippet.Snippet) blocks.Block {
	spec, ok := e.tables.Block(snip.Type)
	if !ok {
		spec = config.BlockSpec{Type: snip.Type, Name: string(snip.Type)}
	}
	b := blocks.Block{
		ID:        e.newID(),
		BatchID:   batchID,
		SourceDoc: docName,
		Type:      snip.Type,
		Data:      blocks.Data{},
		Evidence:  blocks.Evidence{Page: snip.FirstPage(), Snippet: truncate(snip.Text(), maxEvidenceChars), SourceDoc: docName},
		CreatedAt: e.now(),
	}

	feedback := ""
	var lastFailure string
	for attempt := 1; attempt <= e.cfg.RetryLimit; attempt++ {
		b.Attempts = attempt
		if ctx.Err() != nil {
			lastFailure = fmt.Sprintf("%s: %v", callFailurePrefix, ctx.Err())
			break
		}
		res, err := e.caller.Complete(ctx, buildMessages(spec, e.tables.Blocks, snip, feedback))
		if err != nil {
			lastFailure = fmt.Sprintf("%s: %v", callFailurePrefix, err)
			e.logger.Warn("block extraction call failed",
				zap.String("batch_id", batchID),
				zap.String("block_type", string(snip.Type)),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}

		var resp modelResponse
		if err := llm.DecodeJSON(res.Content, &resp); err != nil {
			lastFailure = fmt.Sprintf("%s: %v", parseFailurePrefix, err)
			feedback = "Your previous response was not valid JSON. Respond with only valid JSON."
			e.logger.Warn("block extraction response unparsable",
				zap.String("batch_id", batchID),
				zap.String("block_type", string(snip.Type)),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}
		return e.applyResponse(b, resp, snip)
	}

	b.RetriesExhausted = true
	b.Quality.IsInvalid = true
	b.Quality.InvalidReason = lastFailure
	return b
}

func (e *Extractor) applyResponse(b blocks.Block, resp modelResponse, snip snippet.Snippet) blocks.Block {
	if bt := blocks.Type(strings.TrimSpace(resp.BlockType)); bt.Valid() {
		b.Type = bt
	}
	b.ClassificationConfidence = clampConfidence(resp.ClassificationConfidence)
	b.ExtractionConfidence = clampConfidence(resp.ExtractionConfidence)
	data := blocks.Data{}
	for k, v := range resp.Data {
		key := normalizeKey(k)
		if key == "" {
			continue
		}
		data[key] = v
	}
	b.Data = data
	if resp.Evidence.Page > 0 {
		b.Evidence.Page = resp.Evidence.Page
	}
	if s := strings.TrimSpace(resp.Evidence.Snippet); s != "" {
		b.Evidence.Snippet = truncate(s, maxEvidenceChars)
	}
	if b.Evidence.Page == 0 {
		b.Evidence.Page = snip.FirstPage()
	}
	return b
}

// Missing confidence reads as zero so the block is flagged rather than trusted.
func clampConfidence(v *float64) float64 {
	if v == nil {
		return 0
	}
	switch {
	case *v < 0:
		return 0
	case *v > 1:
		return 1
	}
	return *v
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
