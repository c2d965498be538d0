package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/kirillkom/kyc-extractor/internal/core/domain"
	"github.com/kirillkom/kyc-extractor/internal/core/ports"
)

const (
	trendDays               = 7
	recentActivityLimit     = 5
	processingTimeSample    = 50
	defaultProcessingTimeMS = 5000.0
)

type StatsUseCase struct {
	repo ports.ExtractionRepository
	now  func() time.Time
}

func NewStatsUseCase(repo ports.ExtractionRepository) *StatsUseCase {
	return &StatsUseCase{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (uc *StatsUseCase) Dashboard(ctx context.Context) (*domain.DashboardStats, error) {
	agg, err := uc.repo.Aggregates(ctx, trendDays)
	if err != nil {
		return nil, fmt.Errorf("load extraction aggregates: %w", err)
	}

	recent, _, err := uc.repo.List(ctx, domain.ExtractionFilter{Limit: recentActivityLimit})
	if err != nil {
		return nil, fmt.Errorf("load recent activity: %w", err)
	}
	for i := range recent {
		withGrade(&recent[i])
	}
	if recent == nil {
		recent = []domain.Extraction{}
	}

	scored, successful := 0, 0
	for score, count := range agg.ScoreCounts {
		scored += count
		if domain.IsSuccessfulScore(score) {
			successful += count
		}
	}

	now := uc.now()
	return &domain.DashboardStats{
		Summary: domain.DashboardSummary{
			TotalDocuments: agg.Total,
			SuccessRate:    percentage(successful, scored),
			AvgConfidence:  math.Round(agg.AvgConfidence*100) / 100,
			PendingReviews: scored - successful,
			TodaysVolume:   agg.Today,
			VolumeTrend:    volumeTrend(agg.Today, agg.Yesterday),
		},
		Charts: domain.DashboardCharts{
			DailyTrend:          dailyTrend(agg.Daily, now),
			QualityDistribution: qualityDistribution(agg.ScoreCounts),
		},
		RecentActivity: recent,
		GeneratedAt:    now,
	}, nil
}

// AvgProcessingTime feeds client progress estimates; with no history it
// falls back to a fixed guess.
func (uc *StatsUseCase) AvgProcessingTime(ctx context.Context) (*domain.ProcessingTimeEstimate, error) {
	avg, err := uc.repo.AvgProcessingTime(ctx, processingTimeSample)
	if err != nil {
		return nil, fmt.Errorf("load average processing time: %w", err)
	}
	if avg <= 0 {
		avg = defaultProcessingTimeMS
	}
	return &domain.ProcessingTimeEstimate{
		AvgTimeMS:        math.Round(avg),
		EstimatedSeconds: round1(avg / 1000),
	}, nil
}

func dailyTrend(daily map[string]int, now time.Time) []domain.ChartDataPoint {
	out := make([]domain.ChartDataPoint, 0, trendDays)
	for offset := trendDays - 1; offset >= 0; offset-- {
		day := now.AddDate(0, 0, -offset).Format(time.DateOnly)
		out = append(out, domain.ChartDataPoint{Date: day, Count: daily[day]})
	}
	return out
}

func qualityDistribution(scoreCounts map[int]int) []domain.QualityDataPoint {
	byGrade := make(map[domain.QualityGrade]int, len(domain.Grades()))
	for score, count := range scoreCounts {
		byGrade[domain.GradeFor(score)] += count
	}
	out := make([]domain.QualityDataPoint, 0, len(domain.Grades()))
	for _, grade := range domain.Grades() {
		out = append(out, domain.QualityDataPoint{Name: string(grade), Value: byGrade[grade]})
	}
	return out
}

func volumeTrend(today, yesterday int) float64 {
	if yesterday == 0 {
		if today > 0 {
			return 100
		}
		return 0
	}
	return round1(float64(today-yesterday) / float64(yesterday) * 100)
}

func percentage(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round1(float64(part) / float64(whole) * 100)
}

func round1(value float64) float64 {
	return math.Round(value*10) / 10
}
