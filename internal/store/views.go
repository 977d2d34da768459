package store

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/analytics"
	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/ranking"
)

// Candidate implements ranking.Source. Batches without published results carry
// no KPI values.
func (s *SQLiteStore) Candidate(ctx context.Context, batchID string) (ranking.Candidate, bool, error) {
	b, err := s.GetBatch(ctx, batchID)
	if errors.Is(err, ErrNotFound) {
		return ranking.Candidate{}, false, nil
	}
	if err != nil {
		return ranking.Candidate{}, false, err
	}
	c := ranking.Candidate{
		BatchID:         b.ID,
		Status:          string(b.Status),
		Mode:            string(b.Mode),
		InstitutionName: b.InstitutionName,
		KPIs:            map[string]*float64{},
	}
	if b.Status != StatusCompleted {
		return c, true, nil
	}
	r, err := s.Results(ctx, batchID)
	if err != nil {
		return ranking.Candidate{}, false, err
	}
	c.KPIs = r.KPI.Values()
	c.AcademicYear = r.AcademicYear
	if c.InstitutionName == "" {
		c.InstitutionName = r.InstitutionName
	}
	return c, true, nil
}

// YearPoints loads the trend points of the given completed batches. Batches
// that are unknown, unfinished or undated are skipped and reported by id.
func (s *SQLiteStore) YearPoints(ctx context.Context, batchIDs []string) ([]analytics.YearPoint, []string, error) {
	var points []analytics.YearPoint
	var skipped []string
	for _, id := range batchIDs {
		b, err := s.GetBatch(ctx, id)
		if errors.Is(err, ErrNotFound) {
			skipped = append(skipped, id)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		if b.Status != StatusCompleted {
			skipped = append(skipped, id)
			continue
		}
		r, err := s.Results(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		if r.Trend == nil || r.Trend.Year == 0 {
			s.logger.Debug("batch has no academic year", zap.String("batch_id", id))
			skipped = append(skipped, id)
			continue
		}
		points = append(points, *r.Trend)
	}
	return points, skipped, nil
}
