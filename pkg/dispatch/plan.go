package dispatch

import (
	"fmt"
	"strings"

	"github.com/brickwatch/rita/internal/models"
	"github.com/brickwatch/rita/pkg/money"
)

// How many resources each group lists before collapsing to a count.
const planPreviewSize = 3

type planSection struct {
	resourceType models.ResourceType
	header       string
	unit         string
	describe     func(models.Recommendation) string
}

// Section order is fixed so plans render deterministically.
var planSections = []planSection{
	{
		resourceType: models.ResourceEC2,
		header:       "EC2 Instances",
		unit:         "instance(s)",
		describe: func(rec models.Recommendation) string {
			return fmt.Sprintf("Stop instance `%s`, modify from `%s` to `%s`, restart and verify",
				orNA(rec.InstanceID), orNA(rec.CurrentInstanceType), orNA(rec.RecommendedInstanceType))
		},
	},
	{
		resourceType: models.ResourceS3,
		header:       "S3 Buckets",
		unit:         "bucket(s)",
		describe: func(rec models.Recommendation) string {
			return fmt.Sprintf("Apply Intelligent-Tiering lifecycle policy to bucket `%s`", orNA(rec.BucketName))
		},
	},
	{
		resourceType: models.ResourceLambda,
		header:       "Lambda Functions",
		unit:         "function(s)",
		describe: func(rec models.Recommendation) string {
			changes := []string{}
			if rec.RecommendedMemoryMB > 0 {
				changes = append(changes, fmt.Sprintf("memory: %dMB → %dMB", rec.CurrentMemoryMB, rec.RecommendedMemoryMB))
			}
			if rec.RecommendedConcurrency > 0 {
				changes = append(changes, fmt.Sprintf("concurrency: %d → %d", rec.CurrentConcurrency, rec.RecommendedConcurrency))
			}
			return fmt.Sprintf("Update function `%s` (%s)", orNA(rec.FunctionName), strings.Join(changes, ", "))
		},
	},
	{
		resourceType: models.ResourceRDS,
		header:       "RDS Instances",
		unit:         "instance(s)",
		describe: func(rec models.Recommendation) string {
			return fmt.Sprintf("Modify database `%s` from `%s` to `%s`",
				orNA(rec.DBIdentifier), orNA(rec.CurrentClass), orNA(rec.RecommendedClass))
		},
	},
	{
		resourceType: models.ResourceEBS,
		header:       "EBS Volumes",
		unit:         "volume(s)",
		describe: func(rec models.Recommendation) string {
			return fmt.Sprintf("Modify volume `%s` from `%s` to `%s`",
				orNA(rec.VolumeID), orNA(rec.CurrentVolumeType), orNA(rec.RecommendedVolumeType))
		},
	},
}

// BuildPlan renders a human-readable execution plan: recommendations grouped
// by resource type, the first few of each group spelled out, and the total
// estimated savings.
func BuildPlan(recommendations []models.Recommendation) string {
	grouped := map[models.ResourceType][]models.Recommendation{}
	for _, rec := range recommendations {
		rtype := rec.ResourceType
		if rtype == "" {
			rtype = models.ResourceEC2
		}
		grouped[rtype] = append(grouped[rtype], rec)
	}

	var b strings.Builder
	b.WriteString("**Execution Plan:**\n\n")

	for _, section := range planSections {
		group := grouped[section.resourceType]
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "**%s (%d):**\n", section.header, len(group))
		for _, rec := range group[:min(planPreviewSize, len(group))] {
			fmt.Fprintf(&b, "- %s\n", section.describe(rec))
		}
		if len(group) > planPreviewSize {
			fmt.Fprintf(&b, "- ... and %d more %s\n", len(group)-planPreviewSize, section.unit)
		}
		b.WriteString("\n")
	}

	var total money.Amount
	for _, rec := range recommendations {
		total += rec.EstimatedMonthlySavings
	}
	fmt.Fprintf(&b, "**Estimated Total Monthly Savings:** %s", total)

	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
