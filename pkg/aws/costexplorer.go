package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	ceTypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
)

// CostExplorerAPI is the subset of the Cost Explorer service used for spend
// analysis.
type CostExplorerAPI interface {
	GetCostAndUsage(ctx context.Context, params *costexplorer.GetCostAndUsageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostAndUsageOutput, error)
	GetCostForecast(ctx context.Context, params *costexplorer.GetCostForecastInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetCostForecastOutput, error)
	GetSavingsPlansCoverage(ctx context.Context, params *costexplorer.GetSavingsPlansCoverageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetSavingsPlansCoverageOutput, error)
	GetReservationCoverage(ctx context.Context, params *costexplorer.GetReservationCoverageInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetReservationCoverageOutput, error)
	GetAnomalies(ctx context.Context, params *costexplorer.GetAnomaliesInput, optFns ...func(*costexplorer.Options)) (*costexplorer.GetAnomaliesOutput, error)
}

// CostExplorerClient struct for Cost Explorer client
type CostExplorerClient struct {
	client CostExplorerAPI
}

// NewCostExplorerClient creates a new CostExplorerClient from an AWS config.
func NewCostExplorerClient(cfg aws.Config) *CostExplorerClient {
	return &CostExplorerClient{client: costexplorer.NewFromConfig(cfg)}
}

// NewCostExplorerClientFromAPI creates a CostExplorerClient around an
// existing API implementation. Intended for tests.
func NewCostExplorerClientFromAPI(api CostExplorerAPI) *CostExplorerClient {
	return &CostExplorerClient{client: api}
}

// GetCostAndUsage returns unblended cost grouped by the given dimensions for
// the [start, end) window. Dates are YYYY-MM-DD.
func (c *CostExplorerClient) GetCostAndUsage(ctx context.Context, start, end, granularity string, groupBy []ceTypes.GroupDefinition, filter *ceTypes.Expression) ([]ceTypes.ResultByTime, error) {
	input := &costexplorer.GetCostAndUsageInput{
		TimePeriod: &ceTypes.DateInterval{
			Start: aws.String(start),
			End:   aws.String(end),
		},
		Granularity: ceTypes.Granularity(granularity),
		Metrics:     []string{"UnblendedCost"},
		GroupBy:     groupBy,
		Filter:      filter,
	}

	result, err := c.client.GetCostAndUsage(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("error getting cost and usage: %w", err)
	}
	return result.ResultsByTime, nil
}

// GetCostForecast returns the unblended cost forecast for the window with an
// 80 percent prediction interval.
func (c *CostExplorerClient) GetCostForecast(ctx context.Context, start, end, granularity string, filter *ceTypes.Expression) (*costexplorer.GetCostForecastOutput, error) {
	result, err := c.client.GetCostForecast(ctx, &costexplorer.GetCostForecastInput{
		TimePeriod: &ceTypes.DateInterval{
			Start: aws.String(start),
			End:   aws.String(end),
		},
		Granularity:             ceTypes.Granularity(granularity),
		Metric:                  ceTypes.MetricUnblendedCost,
		PredictionIntervalLevel: aws.Int32(80),
		Filter:                  filter,
	})
	if err != nil {
		return nil, fmt.Errorf("error getting cost forecast: %w", err)
	}
	return result, nil
}

// GetSavingsPlansCoverage returns daily Savings Plans coverage rows for the
// window.
func (c *CostExplorerClient) GetSavingsPlansCoverage(ctx context.Context, start, end string) ([]ceTypes.SavingsPlansCoverage, error) {
	result, err := c.client.GetSavingsPlansCoverage(ctx, &costexplorer.GetSavingsPlansCoverageInput{
		TimePeriod: &ceTypes.DateInterval{
			Start: aws.String(start),
			End:   aws.String(end),
		},
		Granularity: ceTypes.GranularityDaily,
	})
	if err != nil {
		return nil, fmt.Errorf("error getting savings plans coverage: %w", err)
	}
	return result.SavingsPlansCoverages, nil
}

// GetReservationCoverage returns daily Reserved Instance coverage for the
// window, grouped by service.
func (c *CostExplorerClient) GetReservationCoverage(ctx context.Context, start, end string) (*costexplorer.GetReservationCoverageOutput, error) {
	result, err := c.client.GetReservationCoverage(ctx, &costexplorer.GetReservationCoverageInput{
		TimePeriod: &ceTypes.DateInterval{
			Start: aws.String(start),
			End:   aws.String(end),
		},
		GroupBy: []ceTypes.GroupDefinition{
			{Type: ceTypes.GroupDefinitionTypeDimension, Key: aws.String("SERVICE")},
		},
		Granularity: ceTypes.GranularityDaily,
	})
	if err != nil {
		return nil, fmt.Errorf("error getting reservation coverage: %w", err)
	}
	return result, nil
}

// GetAnomalies returns cost anomalies detected in the window.
func (c *CostExplorerClient) GetAnomalies(ctx context.Context, start, end string) ([]ceTypes.Anomaly, error) {
	result, err := c.client.GetAnomalies(ctx, &costexplorer.GetAnomaliesInput{
		DateInterval: &ceTypes.AnomalyDateInterval{
			StartDate: aws.String(start),
			EndDate:   aws.String(end),
		},
		MaxResults: aws.Int32(10),
	})
	if err != nil {
		return nil, fmt.Errorf("error getting cost anomalies: %w", err)
	}
	return result.Anomalies, nil
}
