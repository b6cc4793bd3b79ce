package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	coTypes "github.com/aws/aws-sdk-go-v2/service/computeoptimizer/types"

	"github.com/brickwatch/rita/internal/models"
)

// DefaultRightsizingClasses is the resource-class order of the summary.
var DefaultRightsizingClasses = []string{"ec2", "ebs", "rds", "lambda"}

// OptimizerSource provides Compute Optimizer advisories per resource class.
type OptimizerSource interface {
	GetEC2Recommendations(ctx context.Context, limit int) ([]coTypes.InstanceRecommendation, error)
	GetLambdaRecommendations(ctx context.Context, limit int) ([]coTypes.LambdaFunctionRecommendation, error)
	GetEBSRecommendations(ctx context.Context, limit int) ([]coTypes.VolumeRecommendation, error)
	GetRDSRecommendations(ctx context.Context, limit int) ([]coTypes.RDSDBRecommendation, error)
}

// RightsizingSummary aggregates Compute Optimizer recommendations across
// resource classes. A class whose query fails produces a warning; the
// remaining classes still contribute.
func RightsizingSummary(ctx context.Context, optimizer OptimizerSource, resourceTypes []string, limit int, logger *slog.Logger) *models.RightsizingReport {
	if logger == nil {
		logger = slog.Default()
	}
	if len(resourceTypes) == 0 {
		resourceTypes = DefaultRightsizingClasses
	}
	if limit <= 0 {
		limit = 50
	}

	report := &models.RightsizingReport{
		Resources: map[string][]models.RightsizingEntry{},
	}

	totalSavings := 0.0
	savingsPercentages := []float64{}
	totalCount := 0
	resolved := []string{}

	for _, rt := range resourceTypes {
		class := strings.ToLower(strings.TrimSpace(rt))
		resolved = append(resolved, class)

		entries, err := fetchClassEntries(ctx, optimizer, class, limit)
		if err != nil {
			logger.Warn("rightsizing class unavailable", "resource_type", class, "error", err)
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s recommendations unavailable: %v", class, err))
			continue
		}
		if len(entries) == 0 {
			continue
		}

		report.Resources[class] = entries
		totalCount += len(entries)
		for _, entry := range entries {
			if entry.EstimatedMonthlySavings != nil {
				totalSavings += *entry.EstimatedMonthlySavings
			}
			if entry.SavingsOpportunityPct != nil {
				savingsPercentages = append(savingsPercentages, *entry.SavingsOpportunityPct)
			}
		}
	}

	report.Summary = models.RightsizingSummaryStats{
		GeneratedAt:                  time.Now().UTC().Format(time.RFC3339),
		ResourceTypes:                resolved,
		TotalRecommendations:         totalCount,
		TotalEstimatedMonthlySavings: round2(totalSavings),
	}
	if len(savingsPercentages) > 0 {
		avg := round2(mean(savingsPercentages))
		report.Summary.AverageSavingsOpportunityPct = &avg
	}

	return report
}

func fetchClassEntries(ctx context.Context, optimizer OptimizerSource, class string, limit int) ([]models.RightsizingEntry, error) {
	switch class {
	case "ec2":
		rows, err := optimizer.GetEC2Recommendations(ctx, limit)
		if err != nil {
			return nil, err
		}
		entries := []models.RightsizingEntry{}
		for _, row := range rows {
			entry := models.RightsizingEntry{
				ResourceArn:          aws.ToString(row.InstanceArn),
				ResourceName:         aws.ToString(row.InstanceName),
				Finding:              string(row.Finding),
				CurrentConfiguration: aws.ToString(row.CurrentInstanceType),
			}
			if len(row.RecommendationOptions) > 0 {
				best := row.RecommendationOptions[0]
				entry.RecommendedConfiguration = aws.ToString(best.InstanceType)
				entry.Rank = best.Rank
				applySavings(&entry, best.SavingsOpportunity)
			}
			entries = append(entries, entry)
		}
		return entries, nil

	case "ebs":
		rows, err := optimizer.GetEBSRecommendations(ctx, limit)
		if err != nil {
			return nil, err
		}
		entries := []models.RightsizingEntry{}
		for _, row := range rows {
			entry := models.RightsizingEntry{
				ResourceArn: aws.ToString(row.VolumeArn),
				Finding:     string(row.Finding),
			}
			if row.CurrentConfiguration != nil {
				entry.CurrentConfiguration = aws.ToString(row.CurrentConfiguration.VolumeType)
			}
			if len(row.VolumeRecommendationOptions) > 0 {
				best := row.VolumeRecommendationOptions[0]
				if best.Configuration != nil {
					entry.RecommendedConfiguration = aws.ToString(best.Configuration.VolumeType)
				}
				entry.Rank = best.Rank
				applySavings(&entry, best.SavingsOpportunity)
			}
			entries = append(entries, entry)
		}
		return entries, nil

	case "rds":
		rows, err := optimizer.GetRDSRecommendations(ctx, limit)
		if err != nil {
			return nil, err
		}
		entries := []models.RightsizingEntry{}
		for _, row := range rows {
			entry := models.RightsizingEntry{
				ResourceArn:          aws.ToString(row.ResourceArn),
				Finding:              string(row.InstanceFinding),
				CurrentConfiguration: aws.ToString(row.CurrentDBInstanceClass),
			}
			if len(row.InstanceRecommendationOptions) > 0 {
				best := row.InstanceRecommendationOptions[0]
				entry.RecommendedConfiguration = aws.ToString(best.DbInstanceClass)
				entry.Rank = best.Rank
				applySavings(&entry, best.SavingsOpportunity)
			}
			entries = append(entries, entry)
		}
		return entries, nil

	case "lambda":
		rows, err := optimizer.GetLambdaRecommendations(ctx, limit)
		if err != nil {
			return nil, err
		}
		entries := []models.RightsizingEntry{}
		for _, row := range rows {
			entry := models.RightsizingEntry{
				ResourceArn:          aws.ToString(row.FunctionArn),
				Finding:              string(row.Finding),
				CurrentConfiguration: fmt.Sprintf("%d MB", row.CurrentMemorySize),
			}
			if len(row.MemorySizeRecommendationOptions) > 0 {
				best := row.MemorySizeRecommendationOptions[0]
				entry.RecommendedConfiguration = fmt.Sprintf("%d MB", best.MemorySize)
				entry.Rank = best.Rank
				applySavings(&entry, best.SavingsOpportunity)
			}
			entries = append(entries, entry)
		}
		return entries, nil
	}

	return nil, fmt.Errorf("unsupported resource type %q", class)
}

func applySavings(entry *models.RightsizingEntry, so *coTypes.SavingsOpportunity) {
	if so == nil {
		return
	}
	if so.EstimatedMonthlySavings != nil {
		amount := so.EstimatedMonthlySavings.Value
		entry.EstimatedMonthlySavings = &amount
	}
	if so.SavingsOpportunityPercentage != 0 {
		pct := so.SavingsOpportunityPercentage
		entry.SavingsOpportunityPct = &pct
	}
}
