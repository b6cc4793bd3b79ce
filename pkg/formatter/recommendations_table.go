package formatter

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/brickwatch/rita/internal/models"
)

// PrintRecommendationsTable prints a formatted table of cost optimization
// recommendations, highest savings first, followed by the scan summary.
func PrintRecommendationsTable(result *models.CollectionResult, scanTime time.Time, scanDuration time.Duration) {
	if result.TotalRecommendations == 0 {
		fmt.Println(result.Message)
		return
	}

	recommendations := make([]models.Recommendation, len(result.Recommendations))
	copy(recommendations, result.Recommendations)

	// Sort by savings (largest first)
	sort.Slice(recommendations, func(i, j int) bool {
		return recommendations[i].EstimatedMonthlySavings > recommendations[j].EstimatedMonthlySavings
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)

	printScanBanner(w, scanTime, scanDuration)

	fmt.Fprintln(w, "RESOURCE\tTYPE\tCURRENT\tRECOMMENDED\tSAVINGS/MO\tSOURCE")

	for _, rec := range recommendations {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.ResourceID(),
			rec.ResourceType,
			currentSetting(rec),
			recommendedSetting(rec),
			rec.EstimatedMonthlySavings,
			rec.RecommendationSource,
		)
	}

	fmt.Fprintf(w, "TOTAL: %d recommendation(s)\t\t\t\t%s\t\n",
		result.TotalRecommendations,
		result.EstimatedTotalSavings,
	)

	w.Flush()

	printScanSummary(result)
}

func currentSetting(rec models.Recommendation) string {
	switch rec.ResourceType {
	case models.ResourceEC2:
		return rec.CurrentInstanceType
	case models.ResourceLambda:
		if rec.RecommendedMemoryMB > 0 {
			return fmt.Sprintf("%d MB", rec.CurrentMemoryMB)
		}
		return fmt.Sprintf("concurrency %d", rec.CurrentConcurrency)
	case models.ResourceS3:
		return "no lifecycle policy"
	case models.ResourceRDS:
		return rec.CurrentClass
	case models.ResourceEBS:
		return rec.CurrentVolumeType
	}
	return "-"
}

func recommendedSetting(rec models.Recommendation) string {
	switch rec.ResourceType {
	case models.ResourceEC2:
		return rec.RecommendedInstanceType
	case models.ResourceLambda:
		if rec.RecommendedMemoryMB > 0 {
			return fmt.Sprintf("%d MB", rec.RecommendedMemoryMB)
		}
		return fmt.Sprintf("concurrency %d", rec.RecommendedConcurrency)
	case models.ResourceS3:
		return "Intelligent-Tiering"
	case models.ResourceRDS:
		return rec.RecommendedClass
	case models.ResourceEBS:
		return rec.RecommendedVolumeType
	}
	return "-"
}

// printScanSummary prints the aggregate counters below the table.
func printScanSummary(result *models.CollectionResult) {
	fmt.Println("\n## Scan Summary")

	totalScanned := 0
	for _, count := range result.ResourcesScanned {
		totalScanned += count
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "Resources scanned:\t%s\n", humanize.Comma(int64(totalScanned)))
	fmt.Fprintf(w, "Policy violations:\t%d\n", result.PolicyViolations)
	fmt.Fprintf(w, "Optimizer recommendations:\t%d\n", result.OptimizerRecommendations)
	fmt.Fprintf(w, "Estimated total savings:\t%s/month\n", result.EstimatedTotalSavings)
	fmt.Fprintf(w, "Compliance status:\t%s\n", result.ComplianceStatus)
	w.Flush()

	if result.Message != "" {
		fmt.Printf("\n%s\n", result.Message)
	}

	for _, warning := range result.Warnings {
		fmt.Printf("WARNING: %s\n", warning)
	}
}
