package recommend

import (
	"math"
	"strings"

	"github.com/brickwatch/rita/pkg/money"
)

// Lambda pricing model: ~$0.0000166667 per GB-second, assuming 1M
// invocations/month at 1s average duration.
const lambdaGBSecondRate = 0.0000166667

// S3 Intelligent-Tiering saves roughly $0.007/GB-month over Standard for
// infrequently accessed data.
const s3SavingsPerGBMonth = 0.007

// EC2InstanceSavings estimates the monthly savings of moving a disallowed
// instance type to the policy-recommended type. Family-level heuristics,
// not pricing-API figures.
func EC2InstanceSavings(instanceType string) money.Amount {
	switch {
	case strings.HasPrefix(instanceType, "r5"), strings.HasPrefix(instanceType, "m5"):
		return money.FromDollars(50)
	case strings.HasPrefix(instanceType, "c5"):
		return money.FromDollars(40)
	case strings.Contains(instanceType, "t3.large"):
		return money.FromDollars(20)
	case strings.Contains(instanceType, "t3.xlarge"):
		return money.FromDollars(40)
	}
	return 0
}

// LambdaMemorySavings estimates the monthly savings of reducing an
// over-provisioned function to 1GB. Floored at $5.00.
func LambdaMemorySavings(memoryMB int32) money.Amount {
	currentGB := float64(memoryMB) / 1024
	gbSecondsSaved := (currentGB - 1) * 1_000_000
	monthly := math.Round(gbSecondsSaved*lambdaGBSecondRate*100) / 100
	if monthly < 5 {
		monthly = 5.0
	}
	return money.FromDollars(monthly)
}

// S3LifecycleSavings estimates the monthly savings of enabling
// Intelligent-Tiering on a bucket, clamped to [$5, $100]. A nil size means
// the CloudWatch metric was unavailable; the conservative default applies.
func S3LifecycleSavings(sizeBytes *float64) money.Amount {
	if sizeBytes == nil {
		return money.FromDollars(5)
	}
	sizeGB := *sizeBytes / (1 << 30)
	estimated := money.FromDollars(math.Round(sizeGB*s3SavingsPerGBMonth*100) / 100)
	return estimated.Clamp(money.FromDollars(5), money.FromDollars(100))
}
