package domain

import "time"

// ExtractionAggregates are the raw counters the repository computes in one pass.
// Grade-dependent figures are derived from ScoreCounts so the band table stays
// the only place thresholds live.
type ExtractionAggregates struct {
	Total         int
	AvgConfidence float64
	Today         int
	Yesterday     int
	Daily         map[string]int
	ScoreCounts   map[int]int
}

type DashboardSummary struct {
	TotalDocuments int     `json:"total_documents"`
	SuccessRate    float64 `json:"success_rate"`
	AvgConfidence  float64 `json:"avg_confidence"`
	PendingReviews int     `json:"pending_reviews"`
	TodaysVolume   int     `json:"todays_volume"`
	VolumeTrend    float64 `json:"volume_trend"`
}

type ChartDataPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type QualityDataPoint struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type DashboardCharts struct {
	DailyTrend          []ChartDataPoint   `json:"daily_trend"`
	QualityDistribution []QualityDataPoint `json:"quality_distribution"`
}

type DashboardStats struct {
	Summary        DashboardSummary `json:"summary"`
	Charts         DashboardCharts  `json:"charts"`
	RecentActivity []Extraction     `json:"recent_activity"`
	GeneratedAt    time.Time        `json:"generated_at"`
}

type ProcessingTimeEstimate struct {
	AvgTimeMS        float64 `json:"avg_time_ms"`
	EstimatedSeconds float64 `json:"estimated_seconds"`
}
