package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/analytics"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/blocks"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/kpi"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/store"
)

func f(v float64) *float64 { return &v }

func newServerForTest(t *testing.T, token string) http.Handler {
	t.Helper()
	ctx := context.Background()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"), nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	for i, overall := range []float64{70, 75, 80} {
		id := []string{"y21", "y22", "y23"}[i]
		year := 2021 + i
		if _, err := st.CreateBatch(ctx, store.Batch{ID: id, Mode: blocks.ModeAICTE, InstitutionName: "Sunrise Institute"}); err != nil {
			t.Fatalf("create batch: %v", err)
		}
		if err := st.SaveBlocks(ctx, id, []blocks.Block{{ID: id + "-f", BatchID: id, Type: blocks.TypeFaculty, Data: blocks.Data{"faculty_count": 40.0}}}); err != nil {
			t.Fatalf("save blocks: %v", err)
		}
		values := map[string]*float64{kpi.KeyOverall: f(overall)}
		if err := st.PublishResults(ctx, id, store.Results{
			KPI:   kpi.Result{Mode: blocks.ModeAICTE, Overall: kpi.Score{Key: kpi.KeyOverall, Name: "Overall Score", Value: f(overall)}},
			Trend: &analytics.YearPoint{BatchID: id, Year: year, Values: values},
		}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	if _, err := st.CreateBatch(ctx, store.Batch{ID: "pending", Mode: blocks.ModeUGC}); err != nil {
		t.Fatalf("create batch: %v", err)
	}
	return NewServer(st, Config{Token: token, ForecastYears: 2})
}

func do(t *testing.T, h http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		blob, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(blob)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestHealthAndAuth(t *testing.T) {
	h := newServerForTest(t, "s3cret")

	if rr := do(t, h, http.MethodGet, "/v1/health", nil, ""); rr.Code != http.StatusOK {
		t.Fatalf("health: %d", rr.Code)
	}
	rr := do(t, h, http.MethodGet, "/v1/batches", nil, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/v1/batches", nil, "wrong"); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", rr.Code)
	}
	rr = do(t, h, http.MethodGet, "/v1/batches", nil, "s3cret")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := len(decode(t, rr)["batches"].([]any)); got != 4 {
		t.Fatalf("expected 4 batches, got %d", got)
	}
}

func TestBatchResources(t *testing.T) {
	h := newServerForTest(t, "")

	body := decode(t, do(t, h, http.MethodGet, "/v1/batches/y23", nil, ""))
	if _, ok := body["results"]; !ok {
		t.Fatal("completed batch should include results")
	}
	body = decode(t, do(t, h, http.MethodGet, "/v1/batches/pending", nil, ""))
	if _, ok := body["results"]; ok {
		t.Fatal("unfinished batch must not include results")
	}

	body = decode(t, do(t, h, http.MethodGet, "/v1/batches/y21/blocks", nil, ""))
	if got := len(body["blocks"].([]any)); got != 1 {
		t.Fatalf("expected 1 block, got %d", got)
	}

	rr := do(t, h, http.MethodGet, "/v1/batches/y23/report", nil, "")
	if !strings.Contains(rr.Body.String(), "# Accreditation Pre-Assessment: Sunrise Institute") {
		t.Fatalf("unexpected report:\n%s", rr.Body.String())
	}
	rr = do(t, h, http.MethodGet, "/v1/batches/y23/report?format=html", nil, "")
	if !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/html") || !strings.Contains(rr.Body.String(), "<h1>") {
		t.Fatalf("expected html report, got %q", rr.Header().Get("Content-Type"))
	}

	rr = do(t, h, http.MethodGet, "/v1/batches/ghost", nil, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if code := decode(t, rr)["error"].(map[string]any)["code"]; code != CodeNotFound {
		t.Fatalf("unexpected error code %v", code)
	}
	if rr := do(t, h, http.MethodPost, "/v1/batches/y23", nil, ""); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestRankTrendsPredict(t *testing.T) {
	h := newServerForTest(t, "")

	rr := do(t, h, http.MethodPost, "/v1/rank", map[string]any{
		"batch_ids": []string{"y21", "y23", "pending", "y22"},
		"weights":   map[string]float64{kpi.KeyOverall: 1},
		"top_n":     2,
	}, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("rank: %d %s", rr.Code, rr.Body.String())
	}
	body := decode(t, rr)
	inst := body["institutions"].([]any)
	if len(inst) != 2 || inst[0].(map[string]any)["batch_id"] != "y23" {
		t.Fatalf("unexpected ranking: %v", inst)
	}
	excluded := body["insufficient_batches"].([]any)
	if len(excluded) != 1 || excluded[0].(map[string]any)["reason"] != "status_created" {
		t.Fatalf("unexpected exclusions: %v", excluded)
	}

	if rr := do(t, h, http.MethodPost, "/v1/rank", map[string]any{}, ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty rank request, got %d", rr.Code)
	}

	body = decode(t, do(t, h, http.MethodPost, "/v1/trends", map[string]any{"batch_ids": []string{"y21", "y22", "y23", "pending"}}, ""))
	if skipped := body["skipped_batches"].([]any); len(skipped) != 1 {
		t.Fatalf("expected one skipped batch, got %v", skipped)
	}

	body = decode(t, do(t, h, http.MethodPost, "/v1/predict", map[string]any{"batch_ids": []string{"y21", "y22", "y23"}}, ""))
	pred := body["prediction"].(map[string]any)
	if pred["has_enough_data"] != true {
		t.Fatalf("expected enough data: %v", pred)
	}
	fc := pred["forecasts"].(map[string]any)[kpi.KeyOverall].(map[string]any)
	if got := len(fc["predicted_values"].([]any)); got != 2 {
		t.Fatalf("expected default horizon of 2, got %d", got)
	}
}

func TestBenchmarks(t *testing.T) {
	h := newServerForTest(t, "")

	rr := do(t, h, http.MethodPut, "/v1/benchmarks", analytics.Benchmark{Year: 2023, Source: "national", Metrics: map[string]float64{kpi.KeyOverall: 68}}, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("put benchmark: %d %s", rr.Code, rr.Body.String())
	}
	if got := len(decode(t, rr)["benchmarks"].([]any)); got != 1 {
		t.Fatalf("expected 1 benchmark, got %d", got)
	}
	if rr := do(t, h, http.MethodPut, "/v1/benchmarks", map[string]any{"year": 2024}, ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without metrics, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodDelete, "/v1/benchmarks", nil, ""); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}
