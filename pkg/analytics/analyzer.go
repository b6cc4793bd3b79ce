// Package analytics turns raw Cost Explorer data into cost analysis
// reports: period-over-period deltas, top contributors, trend, forecast,
// commitment coverage, and anomalies.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	ceTypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"

	"github.com/brickwatch/rita/internal/models"
)

const dateLayout = "2006-01-02"

var supportedGranularity = map[string]bool{"DAILY": true, "MONTHLY": true}

// CostSource provides Cost Explorer data. Implemented by the Cost Explorer
// client wrapper; faked in tests.
type CostSource interface {
	GetCostAndUsage(ctx context.Context, start, end, granularity string, groupBy []ceTypes.GroupDefinition, filter *ceTypes.Expression) ([]ceTypes.ResultByTime, error)
	GetCostForecast(ctx context.Context, start, end, granularity string, filter *ceTypes.Expression) (*costexplorer.GetCostForecastOutput, error)
	GetSavingsPlansCoverage(ctx context.Context, start, end string) ([]ceTypes.SavingsPlansCoverage, error)
	GetReservationCoverage(ctx context.Context, start, end string) (*costexplorer.GetReservationCoverageOutput, error)
	GetAnomalies(ctx context.Context, start, end string) ([]ceTypes.Anomaly, error)
}

// Request parameterizes one cost analysis.
type Request struct {
	Days            int
	Granularity     string
	GroupBy         []string
	FilterDimension string
	FilterValue     string

	IncludeForecast  bool
	IncludeAnomalies bool
	IncludeSavings   bool
}

// DefaultRequest analyzes the last 7 days at daily granularity with all
// optional sections enabled.
func DefaultRequest() Request {
	return Request{
		Days:             7,
		Granularity:      "DAILY",
		IncludeForecast:  true,
		IncludeAnomalies: true,
		IncludeSavings:   true,
	}
}

// Analyzer computes cost analysis reports.
type Analyzer struct {
	ce     CostSource
	logger *slog.Logger
	now    func() time.Time
}

// NewAnalyzer creates an analyzer over a Cost Explorer source.
func NewAnalyzer(ce CostSource, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{ce: ce, logger: logger, now: time.Now}
}

// SetClock overrides the time source. Intended for tests.
func (a *Analyzer) SetClock(now func() time.Time) {
	a.now = now
}

// Analyze returns cost drivers, trend, and optional forecast, coverage, and
// anomaly sections for the requested window. Failures in optional sections
// degrade to warnings; only the main usage query is fatal.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*models.AnalysisReport, error) {
	if req.Days <= 0 {
		return nil, validationErrorf("days must be a positive integer")
	}
	granularity := strings.ToUpper(req.Granularity)
	if granularity == "" {
		granularity = "DAILY"
	}
	if !supportedGranularity[granularity] {
		return nil, validationErrorf("unsupported granularity %q: use DAILY or MONTHLY", req.Granularity)
	}

	// Cost Explorer end dates are exclusive; today gives the latest full
	// day. One query spans both windows so deltas line up exactly.
	end := a.now().UTC().Truncate(24 * time.Hour)
	currentStart := end.AddDate(0, 0, -req.Days)
	lookbackStart := currentStart.AddDate(0, 0, -req.Days)

	groupKeys, groupLabels := normalizeGroupKeys(req.GroupBy)
	filter := buildFilter(req.FilterDimension, req.FilterValue)

	results, err := a.ce.GetCostAndUsage(ctx, lookbackStart.Format(dateLayout), end.Format(dateLayout), granularity, groupKeys, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query Cost Explorer: %w", err)
	}

	periodCount := determinePeriodCount(req.Days, granularity, len(results))
	current := results[max(0, len(results)-periodCount):]
	var previous []ceTypes.ResultByTime
	if len(results) >= periodCount*2 {
		previous = results[len(results)-periodCount*2 : len(results)-periodCount]
	} else {
		previous = results[:len(results)-periodCount]
	}

	currency := detectCurrency(current, previous)
	currentTotal := sumResults(current)
	previousTotal := sumResults(previous)

	report := &models.AnalysisReport{
		Period: models.AnalysisPeriod{
			Start:         currentStart.Format(dateLayout),
			End:           end.Format(dateLayout),
			LookbackStart: lookbackStart.Format(dateLayout),
			Granularity:   granularity,
			DataPoints:    periodCount,
		},
		GroupBy: groupLabels,
		Summary: models.AnalysisSummary{
			Currency:            currency,
			TotalSpend:          round2(currentTotal),
			AveragePerDataPoint: round2(currentTotal / float64(max(1, periodCount))),
		},
	}
	if req.FilterDimension != "" && req.FilterValue != "" {
		report.Filter = map[string]string{
			"dimension": req.FilterDimension,
			"value":     req.FilterValue,
		}
	}
	if len(previous) > 0 {
		prev := round2(previousTotal)
		report.Summary.PreviousTotalSpend = &prev
	}
	report.Summary.PeriodOverPeriodChangePct = percentageDelta(previousTotal, currentTotal)

	currentGroups := aggregateGroups(current)
	previousGroups := aggregateGroups(previous)

	report.TopContributors = topContributors(currentGroups, currency, 10)
	report.BiggestMovers = models.BiggestMovers{
		Risers:    groupDeltas(currentGroups, previousGroups, currency, true, 5),
		Decliners: groupDeltas(currentGroups, previousGroups, currency, false, 5),
	}
	report.Trend = trendPoints(current, currency)

	if req.IncludeForecast {
		report.Forecast = a.safeForecast(ctx, end, granularity, req.Days, filter, &report.Warnings)
	}
	if req.IncludeSavings {
		report.Coverage = a.collectCoverage(ctx, currentStart, end, &report.Warnings)
	}
	if req.IncludeAnomalies {
		report.Anomalies = a.collectAnomalies(ctx, currentStart, end, &report.Warnings)
	}

	return report, nil
}

// normalizeGroupKeys parses at most two group-by keys. A "tag:" prefix
// selects TAG grouping; anything else is an upper-cased DIMENSION. The
// default grouping is SERVICE.
func normalizeGroupKeys(raw []string) ([]ceTypes.GroupDefinition, []string) {
	keys := []string{}
	for _, item := range raw {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	if len(keys) == 0 {
		keys = []string{"SERVICE"}
	}

	defs := []ceTypes.GroupDefinition{}
	labels := []string{}
	for _, key := range keys {
		if strings.HasPrefix(strings.ToLower(key), "tag:") {
			tagKey := key[strings.Index(key, ":")+1:]
			defs = append(defs, ceTypes.GroupDefinition{
				Type: ceTypes.GroupDefinitionTypeTag,
				Key:  aws.String(tagKey),
			})
			labels = append(labels, "tag:"+tagKey)
		} else {
			defs = append(defs, ceTypes.GroupDefinition{
				Type: ceTypes.GroupDefinitionTypeDimension,
				Key:  aws.String(strings.ToUpper(key)),
			})
			labels = append(labels, strings.ToUpper(key))
		}
		if len(defs) == 2 {
			break
		}
	}
	return defs, labels
}

func buildFilter(dimension, value string) *ceTypes.Expression {
	dim := strings.TrimSpace(dimension)
	val := strings.TrimSpace(value)
	if dim == "" || val == "" {
		return nil
	}
	if strings.HasPrefix(strings.ToLower(dim), "tag:") {
		return &ceTypes.Expression{
			Tags: &ceTypes.TagValues{
				Key:    aws.String(dim[strings.Index(dim, ":")+1:]),
				Values: []string{val},
			},
		}
	}
	return &ceTypes.Expression{
		Dimensions: &ceTypes.DimensionValues{
			Key:    ceTypes.Dimension(strings.ToUpper(dim)),
			Values: []string{val},
		},
	}
}

func determinePeriodCount(days int, granularity string, available int) int {
	if available == 0 {
		return 0
	}
	if granularity == "DAILY" {
		return min(days, available)
	}
	monthsRequested := max(1, int(math.Ceil(float64(days)/30)))
	return min(monthsRequested, available)
}

func sumResults(results []ceTypes.ResultByTime) float64 {
	total := 0.0
	for _, item := range results {
		total += metricAmount(item.Total)
	}
	return total
}

func metricAmount(metrics map[string]ceTypes.MetricValue) float64 {
	mv, ok := metrics["UnblendedCost"]
	if !ok {
		return 0
	}
	return parseFloat(aws.ToString(mv.Amount))
}

func detectCurrency(groups ...[]ceTypes.ResultByTime) string {
	for _, results := range groups {
		for _, item := range results {
			if mv, ok := item.Total["UnblendedCost"]; ok {
				if unit := aws.ToString(mv.Unit); unit != "" {
					return unit
				}
			}
		}
	}
	return "USD"
}

// aggregateGroups sums group amounts across the window, keyed by the joined
// group labels.
func aggregateGroups(results []ceTypes.ResultByTime) map[string]float64 {
	aggregates := map[string]float64{}
	for _, item := range results {
		for _, group := range item.Groups {
			keys := group.Keys
			if len(keys) == 0 {
				keys = []string{"Unknown"}
			}
			label := strings.Join(keys, " · ")
			if mv, ok := group.Metrics["UnblendedCost"]; ok {
				aggregates[label] += parseFloat(aws.ToString(mv.Amount))
			}
		}
	}
	return aggregates
}

func topContributors(totals map[string]float64, currency string, limit int) []models.GroupTotal {
	ordered := []models.GroupTotal{}
	for label, amount := range totals {
		if amount > 0 {
			ordered = append(ordered, models.GroupTotal{
				Label:    label,
				Amount:   round2(amount),
				Currency: currency,
			})
		}
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Amount != ordered[j].Amount {
			return ordered[i].Amount > ordered[j].Amount
		}
		return ordered[i].Label < ordered[j].Label
	})
	if len(ordered) > limit {
		ordered = ordered[:limit]
	}
	return ordered
}

// groupDeltas ranks movers by period-over-period delta. Risers keep only
// positive deltas, decliners only negative ones.
func groupDeltas(current, previous map[string]float64, currency string, risers bool, limit int) []models.GroupDelta {
	labels := map[string]bool{}
	for label := range current {
		labels[label] = true
	}
	for label := range previous {
		labels[label] = true
	}

	movers := []models.GroupDelta{}
	for label := range labels {
		currentAmount := current[label]
		previousAmount := previous[label]
		if currentAmount == previousAmount {
			continue
		}
		delta := currentAmount - previousAmount
		if risers && delta <= 0 {
			continue
		}
		if !risers && delta >= 0 {
			continue
		}

		pct := 0.0
		if p := percentageDelta(previousAmount, currentAmount); p != nil {
			pct = *p
		}
		rounded := round2(pct)
		movers = append(movers, models.GroupDelta{
			Label:            label,
			AmountDelta:      round2(delta),
			Currency:         currency,
			PercentageChange: &rounded,
		})
	}

	sort.Slice(movers, func(i, j int) bool {
		if risers {
			return movers[i].AmountDelta > movers[j].AmountDelta
		}
		return movers[i].AmountDelta < movers[j].AmountDelta
	})
	if len(movers) > limit {
		movers = movers[:limit]
	}
	return movers
}

func trendPoints(results []ceTypes.ResultByTime, currency string) []models.TrendPoint {
	trend := []models.TrendPoint{}
	var previousAmount *float64
	for _, item := range results {
		amount := metricAmount(item.Total)
		point := models.TrendPoint{
			Amount:   round2(amount),
			Currency: currency,
		}
		if item.TimePeriod != nil {
			point.Timestamp = aws.ToString(item.TimePeriod.Start)
		}
		if previousAmount != nil {
			if pct := percentageDelta(*previousAmount, amount); pct != nil {
				rounded := round2(*pct)
				point.PercentageChange = &rounded
			}
		}
		trend = append(trend, point)
		amountCopy := amount
		previousAmount = &amountCopy
	}
	return trend
}

func (a *Analyzer) safeForecast(ctx context.Context, end time.Time, granularity string, days int, filter *ceTypes.Expression, warnings *[]string) *models.Forecast {
	futureDays := max(7, min(60, days))
	forecastEnd := end.AddDate(0, 0, futureDays)

	response, err := a.ce.GetCostForecast(ctx, end.Format(dateLayout), forecastEnd.Format(dateLayout), granularity, filter)
	if err != nil {
		*warnings = append(*warnings, fmt.Sprintf("Unable to retrieve forecast: %v", err))
		return nil
	}

	points := []models.ForecastPoint{}
	total := 0.0
	for _, entry := range response.ForecastResultsByTime {
		mean := parseFloat(aws.ToString(entry.MeanValue))
		point := models.ForecastPoint{
			Amount:   round2(mean),
			Currency: "USD",
		}
		if entry.TimePeriod != nil {
			point.Timestamp = aws.ToString(entry.TimePeriod.Start)
		}
		points = append(points, point)
		total += mean
	}
	if len(points) == 0 {
		return nil
	}

	return &models.Forecast{
		Period: map[string]string{
			"start": end.Format(dateLayout),
			"end":   forecastEnd.Format(dateLayout),
		},
		Total:    round2(total),
		Currency: points[0].Currency,
		Points:   points,
	}
}

func (a *Analyzer) collectCoverage(ctx context.Context, start, end time.Time, warnings *[]string) *models.Coverage {
	coverage := &models.Coverage{}

	sp, err := a.ce.GetSavingsPlansCoverage(ctx, start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		*warnings = append(*warnings, fmt.Sprintf("Savings Plans coverage unavailable: %v", err))
	} else if stats := parseSavingsPlansCoverage(sp); stats != nil {
		coverage.SavingsPlans = stats
	}

	ri, err := a.ce.GetReservationCoverage(ctx, start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		*warnings = append(*warnings, fmt.Sprintf("Reserved Instance coverage unavailable: %v", err))
	} else if stats := parseReservationCoverage(ri.CoveragesByTime); stats != nil {
		coverage.ReservedInstances = stats
	}

	if coverage.SavingsPlans == nil && coverage.ReservedInstances == nil {
		return nil
	}
	return coverage
}

func parseSavingsPlansCoverage(rows []ceTypes.SavingsPlansCoverage) *models.CoverageStats {
	percentages := []float64{}
	for _, row := range rows {
		if row.Coverage == nil {
			continue
		}
		if pct := parseFloat(aws.ToString(row.Coverage.CoveragePercentage)); pct != 0 {
			percentages = append(percentages, pct)
		}
	}
	if len(percentages) == 0 {
		return nil
	}
	avg := round2(mean(percentages))
	return &models.CoverageStats{AverageCoveragePct: &avg}
}

func parseReservationCoverage(rows []ceTypes.CoverageByTime) *models.CoverageStats {
	totalHours := 0.0
	percentages := []float64{}
	for _, row := range rows {
		if row.Total == nil || row.Total.CoverageHours == nil {
			continue
		}
		hours := row.Total.CoverageHours
		totalHours += parseFloat(aws.ToString(hours.TotalRunningHours))
		if pct := parseFloat(aws.ToString(hours.CoverageHoursPercentage)); pct != 0 {
			percentages = append(percentages, pct)
		}
	}

	stats := &models.CoverageStats{}
	if totalHours != 0 {
		rounded := round2(totalHours)
		stats.TotalHours = &rounded
	}
	if len(percentages) > 0 {
		avg := round2(mean(percentages))
		stats.AverageCoveragePct = &avg
	}
	if stats.TotalHours == nil && stats.AverageCoveragePct == nil {
		return nil
	}
	return stats
}

func (a *Analyzer) collectAnomalies(ctx context.Context, start, end time.Time, warnings *[]string) []models.Anomaly {
	rows, err := a.ce.GetAnomalies(ctx, start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		*warnings = append(*warnings, fmt.Sprintf("Anomaly detection unavailable: %v", err))
		return nil
	}

	anomalies := []models.Anomaly{}
	for _, row := range rows {
		anomaly := models.Anomaly{
			AnomalyID: aws.ToString(row.AnomalyId),
			StartDate: aws.ToString(row.AnomalyStartDate),
			EndDate:   aws.ToString(row.AnomalyEndDate),
			Currency:  "USD",
		}
		if row.Impact != nil {
			anomaly.ImpactAmount = round2(row.Impact.TotalImpact)
		}
		if row.AnomalyScore != nil {
			anomaly.AnomalyScore = map[string]float64{
				"currentScore": row.AnomalyScore.CurrentScore,
				"maxScore":     row.AnomalyScore.MaxScore,
			}
		}
		for _, root := range row.RootCauses {
			segments := []string{}
			for _, segment := range []*string{root.Service, root.LinkedAccount, root.UsageType} {
				if s := aws.ToString(segment); s != "" {
					segments = append(segments, s)
				}
			}
			anomaly.RootCauses = append(anomaly.RootCauses, strings.Join(segments, " / "))
		}
		anomalies = append(anomalies, anomaly)
	}
	if len(anomalies) == 0 {
		return nil
	}
	return anomalies
}

// percentageDelta returns nil when both values are zero and 100 when only
// the previous value is zero.
func percentageDelta(previous, current float64) *float64 {
	if previous == 0 {
		if current == 0 {
			return nil
		}
		v := 100.0
		return &v
	}
	v := (current - previous) / previous * 100
	return &v
}

func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func mean(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}
