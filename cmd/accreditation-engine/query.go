package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/analytics"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/blocks"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/kpi"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/ranking"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/report"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/store"
)

var (
	rankTop      int
	rankWeights  map[string]string
	predictYears int

	benchYear    int
	benchSource  string
	benchMetrics map[string]string

	reportHTML   bool
	reportOutput string
)

var showCmd = &cobra.Command{
	Use:   "show [batch-id]",
	Short: "Print a batch with its blocks and published results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		b, err := st.GetBatch(ctx, args[0])
		if err != nil {
			return err
		}
		bs, err := st.Blocks(ctx, b.ID)
		if err != nil {
			return err
		}
		out := struct {
			Batch   store.Batch    `json:"batch"`
			Blocks  []blocks.Block `json:"blocks"`
			Results *store.Results `json:"results,omitempty"`
		}{Batch: b, Blocks: bs}
		if b.Status == store.StatusCompleted {
			r, err := st.Results(ctx, b.ID)
			if err != nil {
				return err
			}
			out.Results = &r
		}
		return writeJSON(cmd.OutOrStdout(), out)
	},
}

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "List batches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		list, err := st.ListBatches(cmd.Context())
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), list)
	},
}

var rankCmd = &cobra.Command{
	Use:   "rank [batch-id...]",
	Short: "Rank completed batches by a weighted KPI score",
	Long: `Ranks batches by sum(weight * kpi) over the canonical KPI keys
(fsr_score, infrastructure_score, placement_index, lab_compliance_index,
overall_score). A batch missing any KPI with a nonzero weight is excluded
and reported with its reason.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		weights, err := parseFloatMap(rankWeights)
		if err != nil {
			return fmt.Errorf("--weight: %w", err)
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		res, err := ranking.Rank(cmd.Context(), st, args, weights, rankTop)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), res)
	},
}

var trendsCmd = &cobra.Command{
	Use:   "trends [batch-id...]",
	Short: "Summarize KPI trends across the academic years of completed batches",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		points, skipped, err := st.YearPoints(cmd.Context(), args)
		if err != nil {
			return err
		}
		out := struct {
			analytics.Summary
			Skipped []string `json:"skipped_batches"`
		}{Summary: analytics.Summarize(points, analytics.Metrics), Skipped: nonNil(skipped)}
		return writeJSON(cmd.OutOrStdout(), out)
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict [batch-id...]",
	Short: "Forecast KPIs from at least three years of history",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		points, skipped, err := st.YearPoints(cmd.Context(), args)
		if err != nil {
			return err
		}
		horizon := predictYears
		if !cmd.Flags().Changed("years") {
			horizon = settings.ForecastYears
		}
		series := analytics.Aggregate(points, analytics.Metrics)
		out := struct {
			analytics.Prediction
			Skipped []string `json:"skipped_batches"`
		}{Prediction: analytics.Predict(series, analytics.Metrics, horizon), Skipped: nonNil(skipped)}
		return writeJSON(cmd.OutOrStdout(), out)
	},
}

var benchmarksCmd = &cobra.Command{
	Use:   "benchmarks",
	Short: "List or record historical KPI benchmarks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		list, err := st.Benchmarks(cmd.Context())
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), list)
	},
}

var benchmarksPutCmd = &cobra.Command{
	Use:   "put",
	Short: "Record the benchmark values of one year",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		metrics, err := parseFloatMap(benchMetrics)
		if err != nil {
			return fmt.Errorf("--metric: %w", err)
		}
		if len(metrics) == 0 {
			return fmt.Errorf("at least one --metric is required")
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()
		bm := analytics.Benchmark{Year: benchYear, Source: benchSource, Metrics: metrics}
		if err := st.PutBenchmark(cmd.Context(), bm); err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), bm)
	},
}

var reportCmd = &cobra.Command{
	Use:   "report [batch-id]",
	Short: "Render the batch report as markdown or HTML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		b, err := st.GetBatch(ctx, args[0])
		if err != nil {
			return err
		}
		var r store.Results
		if b.Status == store.StatusCompleted {
			if r, err = st.Results(ctx, b.ID); err != nil {
				return err
			}
		}
		out := report.Markdown(b, r)
		if reportHTML {
			if out, err = report.HTML("Accreditation report "+b.ID, out); err != nil {
				return err
			}
		}
		if reportOutput == "" {
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		}
		return os.WriteFile(reportOutput, []byte(out), 0o644)
	},
}

func init() {
	rankCmd.Flags().IntVar(&rankTop, "top", 10, "Number of institutions to return")
	rankCmd.Flags().StringToStringVar(&rankWeights, "weight", map[string]string{kpi.KeyOverall: "1"}, "KPI weights as key=value")

	predictCmd.Flags().IntVar(&predictYears, "years", 0, "Forecast horizon in years (defaults to ACCRED_FORECAST_YEARS)")

	benchmarksPutCmd.Flags().IntVar(&benchYear, "year", 0, "Benchmark year")
	benchmarksPutCmd.Flags().StringVar(&benchSource, "source", "", "Benchmark source label")
	benchmarksPutCmd.Flags().StringToStringVar(&benchMetrics, "metric", nil, "Metric values as key=value")
	_ = benchmarksPutCmd.MarkFlagRequired("year")
	benchmarksCmd.AddCommand(benchmarksPutCmd)

	reportCmd.Flags().BoolVar(&reportHTML, "html", false, "Render HTML instead of markdown")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Write to a file instead of stdout")
}

func parseFloatMap(in map[string]string) (map[string]float64, error) {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("%s=%q is not a number", k, v)
		}
		out[strings.TrimSpace(k)] = n
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
