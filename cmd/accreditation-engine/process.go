package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/blocks"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/config"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/extract"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/llm"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/pipeline"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/quality"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/store"
)

var (
	processBatchID string
	processMode    string
	processName    string
)

var processCmd = &cobra.Command{
	Use:   "process [files...]",
	Short: "Run a new batch through extraction and scoring",
	Long: `Creates a batch and drives it through preprocessing, snippet selection,
block extraction, quality checks, sufficiency, KPI scoring, trend
preparation and compliance. Inputs may be .json (pre-partitioned
documents), .csv (structured data mapped without model calls) or plain
text with pages separated by form feeds.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcess,
}

func init() {
	f := processCmd.Flags()
	f.StringVar(&processBatchID, "batch-id", "", "Batch id (generated when empty)")
	f.StringVar(&processMode, "mode", "aicte", "Batch mode: aicte, ugc or mixed")
	f.StringVar(&processName, "name", "", "Institution name")
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	mode, ok := blocks.ParseMode(processMode)
	if !ok {
		return fmt.Errorf("unknown mode %q", processMode)
	}
	tables, err := config.LoadTables(settings.TablesPath)
	if err != nil {
		return err
	}
	docs, err := loadDocuments(args)
	if err != nil {
		return err
	}
	caller, err := newModelClient(settings)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	id := processBatchID
	if id == "" {
		id = uuid.NewString()
	}
	if _, err := st.CreateBatch(ctx, store.Batch{ID: id, Mode: mode, InstitutionName: processName}); err != nil {
		return fmt.Errorf("create batch: %w", err)
	}

	extractor := extract.NewExtractor(caller, tables, extract.Config{
		RetryLimit:  settings.RetryLimit,
		Concurrency: settings.ExtractionConcurrency,
		Logger:      logger,
	})
	p := pipeline.New(st, extractor, pipeline.Config{
		Tables:          tables,
		SnippetMaxLines: settings.SnippetMaxLines,
		Quality:         quality.ThresholdsFromSettings(settings),
		Logger:          logger,
	})

	logger.Info("processing batch",
		zap.String("batch_id", id),
		zap.String("mode", string(mode)),
		zap.Int("documents", len(docs)),
	)
	out, err := p.RunWithProgress(ctx, id, docs, func(stage, message string) {
		logger.Info(message, zap.String("batch_id", id), zap.String("stage", stage))
	})
	if err != nil {
		return fmt.Errorf("batch %s failed at %s: %w", id, pipeline.StageNameFromError(err), err)
	}
	return writeJSON(cmd.OutOrStdout(), out)
}

func newModelClient(s config.Settings) (*llm.Client, error) {
	var transport llm.Transport
	switch s.LLMProvider {
	case "openai":
		t, err := llm.NewOpenAITransportFromEnv(s.LLMBaseURL)
		if err != nil {
			return nil, err
		}
		transport = t
	case "anthropic", "":
		t, err := llm.NewAnthropicTransportFromEnv()
		if err != nil {
			return nil, err
		}
		transport = t
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", s.LLMProvider)
	}
	return llm.NewClient(transport, llm.ClientConfig{
		Model:   s.LLMModel,
		Timeout: s.LLMTimeout,
		Logger:  logger,
	}), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
