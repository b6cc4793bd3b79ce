package models

// AnalysisPeriod describes the analyzed window and the equal-length
// lookback window preceding it. Derived purely from request parameters.
type AnalysisPeriod struct {
	Start         string `json:"start"`
	End           string `json:"end"`
	LookbackStart string `json:"lookbackStart"`
	Granularity   string `json:"granularity"`
	DataPoints    int    `json:"dataPoints"`
}

// AnalysisSummary holds the headline spend figures for the window.
type AnalysisSummary struct {
	Currency                  string   `json:"currency"`
	TotalSpend                float64  `json:"totalSpend"`
	PreviousTotalSpend        *float64 `json:"previousTotalSpend"`
	PeriodOverPeriodChangePct *float64 `json:"periodOverPeriodChangePct"`
	AveragePerDataPoint       float64  `json:"averagePerDataPoint"`
}

// GroupTotal is one contributor ranked by absolute spend.
type GroupTotal struct {
	Label    string  `json:"label"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// GroupDelta is one mover ranked by period-over-period spend delta.
type GroupDelta struct {
	Label            string   `json:"label"`
	AmountDelta      float64  `json:"amountDelta"`
	Currency         string   `json:"currency"`
	PercentageChange *float64 `json:"percentageChange"`
}

// BiggestMovers splits movers by delta sign.
type BiggestMovers struct {
	Risers    []GroupDelta `json:"risers"`
	Decliners []GroupDelta `json:"decliners"`
}

// TrendPoint is one time bucket with its change against the prior bucket.
type TrendPoint struct {
	Timestamp        string   `json:"timestamp"`
	Amount           float64  `json:"amount"`
	Currency         string   `json:"currency"`
	PercentageChange *float64 `json:"percentageChange"`
}

// ForecastPoint is one predicted time bucket.
type ForecastPoint struct {
	Timestamp string  `json:"timestamp"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
}

// Forecast is the Cost Explorer spend projection for the horizon window.
type Forecast struct {
	Period   map[string]string `json:"period"`
	Total    float64           `json:"total"`
	Currency string            `json:"currency"`
	Points   []ForecastPoint   `json:"points"`
}

// CoverageStats averages commitment coverage across the returned rows.
type CoverageStats struct {
	TotalHours         *float64 `json:"totalHours"`
	AverageCoveragePct *float64 `json:"averageCoveragePct"`
}

// Coverage holds Savings Plans and Reserved Instance coverage when the
// respective sub-queries succeed.
type Coverage struct {
	SavingsPlans      *CoverageStats `json:"savingsPlans,omitempty"`
	ReservedInstances *CoverageStats `json:"reservedInstances,omitempty"`
}

// Anomaly is one detected cost anomaly with its joined root causes.
type Anomaly struct {
	AnomalyID    string             `json:"anomalyId"`
	StartDate    string             `json:"startDate"`
	EndDate      string             `json:"endDate"`
	ImpactAmount float64            `json:"impactAmount"`
	Currency     string             `json:"currency"`
	AnomalyScore map[string]float64 `json:"anomalyScore"`
	RootCauses   []string           `json:"rootCauses"`
}

// AnalysisReport is the full cost analysis response. Optional sections are
// omitted when their sub-query failed; the failure reason lands in Warnings.
type AnalysisReport struct {
	Period          AnalysisPeriod    `json:"period"`
	GroupBy         []string          `json:"groupBy"`
	Filter          map[string]string `json:"filter,omitempty"`
	Summary         AnalysisSummary   `json:"summary"`
	TopContributors []GroupTotal      `json:"topContributors"`
	BiggestMovers   BiggestMovers     `json:"biggestMovers"`
	Trend           []TrendPoint      `json:"trend"`
	Forecast        *Forecast         `json:"forecast,omitempty"`
	Coverage        *Coverage         `json:"coverage,omitempty"`
	Anomalies       []Anomaly         `json:"anomalies,omitempty"`
	Warnings        []string          `json:"warnings,omitempty"`
}
