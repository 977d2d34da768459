package httpapi

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/analytics"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/blocks"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/ranking"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/report"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/store"
)

const (
	CodeNotFound     = "not_found"
	CodeValidation   = "validation_error"
	CodeUnauthorized = "unauthorized"
	CodeInternal     = "internal_error"

	defaultTopN   = 10
	maxBodyBytes  = 1 << 20
	bearerPrefix  = "bearer "
	batchesPrefix = "/v1/batches/"
)

// Store is the read side of the batch store plus benchmark writes.
type Store interface {
	ranking.Source
	GetBatch(ctx context.Context, id string) (store.Batch, error)
	ListBatches(ctx context.Context) ([]store.Batch, error)
	Blocks(ctx context.Context, batchID string) ([]blocks.Block, error)
	Results(ctx context.Context, batchID string) (store.Results, error)
	YearPoints(ctx context.Context, batchIDs []string) ([]analytics.YearPoint, []string, error)
	Benchmarks(ctx context.Context) ([]analytics.Benchmark, error)
	PutBenchmark(ctx context.Context, b analytics.Benchmark) error
}

type Config struct {
	// Token, when set, must be presented as a bearer token on every request
	// except health.
	Token         string
	ForecastYears int
	Logger        *zap.Logger
}

type Error struct {
	Code    string
	Message string
	Status  int
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

func validationError(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg, Status: http.StatusBadRequest}
}

type Server struct {
	store  Store
	cfg    Config
	logger *zap.Logger
	token  [sha256.Size]byte
}

func NewServer(st Store, cfg Config) http.Handler {
	if cfg.ForecastYears <= 0 {
		cfg.ForecastYears = 5
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{store: st, cfg: cfg, logger: logger, token: sha256.Sum256([]byte(cfg.Token))}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/health", s.handleHealth)
	mux.HandleFunc("/v1/batches", s.auth(s.handleBatches))
	mux.HandleFunc(batchesPrefix, s.auth(s.handleBatch))
	mux.HandleFunc("/v1/rank", s.auth(s.handleRank))
	mux.HandleFunc("/v1/trends", s.auth(s.handleTrends))
	mux.HandleFunc("/v1/predict", s.auth(s.handlePredict))
	mux.HandleFunc("/v1/benchmarks", s.auth(s.handleBenchmarks))
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var ae *Error
	if !errors.As(err, &ae) {
		switch {
		case errors.Is(err, store.ErrNotFound):
			ae = &Error{Code: CodeNotFound, Message: err.Error(), Status: http.StatusNotFound}
		default:
			s.logger.Error("request failed", zap.Error(err))
			ae = &Error{Code: CodeInternal, Message: err.Error(), Status: http.StatusInternalServerError}
		}
	}
	writeJSON(w, ae.Status, map[string]any{
		"ok": false,
		"error": map[string]any{
			"code":    ae.Code,
			"message": ae.Message,
		},
	})
}

func readBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	blob, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return validationError(err.Error())
	}
	if len(blob) == 0 {
		return nil
	}
	if err := json.Unmarshal(blob, dst); err != nil {
		return validationError("invalid JSON: " + err.Error())
	}
	return nil
}

func methodOnly(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	w.WriteHeader(http.StatusMethodNotAllowed)
	return false
}

// Tokens are compared as digests so the comparison time does not depend on
// the provided value.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Token == "" {
			next(w, r)
			return
		}
		h := r.Header.Get("Authorization")
		if len(h) < len(bearerPrefix) || !strings.EqualFold(h[:len(bearerPrefix)], bearerPrefix) {
			s.writeError(w, &Error{Code: CodeUnauthorized, Message: "bearer token required", Status: http.StatusUnauthorized})
			return
		}
		provided := sha256.Sum256([]byte(strings.TrimSpace(h[len(bearerPrefix):])))
		if !hmac.Equal(provided[:], s.token[:]) {
			s.writeError(w, &Error{Code: CodeUnauthorized, Message: "invalid token", Status: http.StatusUnauthorized})
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleBatches(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	list, err := s.store.ListBatches(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if list == nil {
		list = []store.Batch{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "batches": list})
}

// handleBatch serves /v1/batches/{id}, /v1/batches/{id}/blocks and
// /v1/batches/{id}/report.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, batchesPrefix), "/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		s.writeError(w, validationError("batch id required"))
		return
	}
	ctx := r.Context()
	b, err := s.store.GetBatch(ctx, id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	switch sub {
	case "":
		payload := map[string]any{"ok": true, "batch": b}
		if b.Status == store.StatusCompleted {
			res, err := s.store.Results(ctx, id)
			if err != nil {
				s.writeError(w, err)
				return
			}
			payload["results"] = res
		}
		writeJSON(w, http.StatusOK, payload)
	case "blocks":
		bs, err := s.store.Blocks(ctx, id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if bs == nil {
			bs = []blocks.Block{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "blocks": bs})
	case "report":
		s.writeReport(w, r, b)
	default:
		s.writeError(w, &Error{Code: CodeNotFound, Message: "unknown resource " + sub, Status: http.StatusNotFound})
	}
}

func (s *Server) writeReport(w http.ResponseWriter, r *http.Request, b store.Batch) {
	var res store.Results
	if b.Status == store.StatusCompleted {
		var err error
		if res, err = s.store.Results(r.Context(), b.ID); err != nil {
			s.writeError(w, err)
			return
		}
	}
	md := report.Markdown(b, res)
	if r.URL.Query().Get("format") != "html" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = io.WriteString(w, md)
		return
	}
	page, err := report.HTML("Accreditation report "+b.ID, md)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, page)
}

type rankRequest struct {
	BatchIDs []string           `json:"batch_ids"`
	Weights  map[string]float64 `json:"weights"`
	TopN     *int               `json:"top_n"`
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	var req rankRequest
	if err := readBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if len(req.BatchIDs) == 0 {
		s.writeError(w, validationError("batch_ids required"))
		return
	}
	topN := defaultTopN
	if req.TopN != nil {
		topN = *req.TopN
	}
	res, err := ranking.Rank(r.Context(), s.store, req.BatchIDs, req.Weights, topN)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type seriesRequest struct {
	BatchIDs []string `json:"batch_ids"`
	Years    int      `json:"years"`
}

func (s *Server) loadPoints(w http.ResponseWriter, r *http.Request) (seriesRequest, []analytics.YearPoint, []string, bool) {
	var req seriesRequest
	if err := readBody(r, &req); err != nil {
		s.writeError(w, err)
		return req, nil, nil, false
	}
	if len(req.BatchIDs) == 0 {
		s.writeError(w, validationError("batch_ids required"))
		return req, nil, nil, false
	}
	points, skipped, err := s.store.YearPoints(r.Context(), req.BatchIDs)
	if err != nil {
		s.writeError(w, err)
		return req, nil, nil, false
	}
	if skipped == nil {
		skipped = []string{}
	}
	return req, points, skipped, true
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	_, points, skipped, ok := s.loadPoints(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary":         analytics.Summarize(points, analytics.Metrics),
		"skipped_batches": skipped,
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodPost) {
		return
	}
	req, points, skipped, ok := s.loadPoints(w, r)
	if !ok {
		return
	}
	horizon := req.Years
	if horizon <= 0 {
		horizon = s.cfg.ForecastYears
	}
	series := analytics.Aggregate(points, analytics.Metrics)
	writeJSON(w, http.StatusOK, map[string]any{
		"prediction":      analytics.Predict(series, analytics.Metrics, horizon),
		"skipped_batches": skipped,
	})
}

func (s *Server) handleBenchmarks(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet, http.MethodPut) {
		return
	}
	ctx := r.Context()
	if r.Method == http.MethodPut {
		var bm analytics.Benchmark
		if err := readBody(r, &bm); err != nil {
			s.writeError(w, err)
			return
		}
		if bm.Year <= 0 || len(bm.Metrics) == 0 {
			s.writeError(w, validationError("year and metrics required"))
			return
		}
		if err := s.store.PutBenchmark(ctx, bm); err != nil {
			s.writeError(w, err)
			return
		}
		s.logger.Info("benchmark recorded", zap.Int("year", bm.Year), zap.String("source", bm.Source))
	}
	list, err := s.store.Benchmarks(ctx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if list == nil {
		list = []analytics.Benchmark{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "benchmarks": list})
}
