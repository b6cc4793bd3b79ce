package analytics

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	coTypes "github.com/aws/aws-sdk-go-v2/service/computeoptimizer/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOptimizerSource struct {
	ec2       []coTypes.InstanceRecommendation
	ec2Err    error
	lambdas   []coTypes.LambdaFunctionRecommendation
	lambdaErr error
	ebs       []coTypes.VolumeRecommendation
	ebsErr    error
	rds       []coTypes.RDSDBRecommendation
	rdsErr    error
}

func (f *fakeOptimizerSource) GetEC2Recommendations(ctx context.Context, limit int) ([]coTypes.InstanceRecommendation, error) {
	return f.ec2, f.ec2Err
}

func (f *fakeOptimizerSource) GetLambdaRecommendations(ctx context.Context, limit int) ([]coTypes.LambdaFunctionRecommendation, error) {
	return f.lambdas, f.lambdaErr
}

func (f *fakeOptimizerSource) GetEBSRecommendations(ctx context.Context, limit int) ([]coTypes.VolumeRecommendation, error) {
	return f.ebs, f.ebsErr
}

func (f *fakeOptimizerSource) GetRDSRecommendations(ctx context.Context, limit int) ([]coTypes.RDSDBRecommendation, error) {
	return f.rds, f.rdsErr
}

func savingsOpportunity(amount, pct float64) *coTypes.SavingsOpportunity {
	return &coTypes.SavingsOpportunity{
		EstimatedMonthlySavings:      &coTypes.EstimatedMonthlySavings{Value: amount},
		SavingsOpportunityPercentage: pct,
	}
}

func TestRightsizingSummaryAggregates(t *testing.T) {
	source := &fakeOptimizerSource{
		ec2: []coTypes.InstanceRecommendation{
			{
				InstanceArn:         aws.String("arn:aws:ec2:us-east-1:123456789012:instance/i-abc"),
				InstanceName:        aws.String("api-server"),
				Finding:             coTypes.FindingOverProvisioned,
				CurrentInstanceType: aws.String("m5.large"),
				RecommendationOptions: []coTypes.InstanceRecommendationOption{
					{
						InstanceType:       aws.String("t3.medium"),
						Rank:               1,
						SavingsOpportunity: savingsOpportunity(32.5, 40),
					},
				},
			},
		},
		lambdas: []coTypes.LambdaFunctionRecommendation{
			{
				FunctionArn:       aws.String("arn:aws:lambda:us-east-1:123456789012:function:etl"),
				Finding:           coTypes.LambdaFunctionRecommendationFindingNotOptimized,
				CurrentMemorySize: 3008,
				MemorySizeRecommendationOptions: []coTypes.LambdaFunctionMemoryRecommendationOption{
					{
						MemorySize:         1024,
						Rank:               1,
						SavingsOpportunity: savingsOpportunity(7.5, 60),
					},
				},
			},
		},
	}

	report := RightsizingSummary(context.Background(), source, nil, 0, nil)

	assert.Equal(t, DefaultRightsizingClasses, report.Summary.ResourceTypes)
	assert.Equal(t, 2, report.Summary.TotalRecommendations)
	assert.Equal(t, 40.0, report.Summary.TotalEstimatedMonthlySavings)
	require.NotNil(t, report.Summary.AverageSavingsOpportunityPct)
	assert.Equal(t, 50.0, *report.Summary.AverageSavingsOpportunityPct)
	assert.Empty(t, report.Warnings)

	require.Len(t, report.Resources["ec2"], 1)
	ec2 := report.Resources["ec2"][0]
	assert.Equal(t, "api-server", ec2.ResourceName)
	assert.Equal(t, "m5.large", ec2.CurrentConfiguration)
	assert.Equal(t, "t3.medium", ec2.RecommendedConfiguration)

	require.Len(t, report.Resources["lambda"], 1)
	fn := report.Resources["lambda"][0]
	assert.Equal(t, "3008 MB", fn.CurrentConfiguration)
	assert.Equal(t, "1024 MB", fn.RecommendedConfiguration)

	// Classes with no findings are omitted from the map.
	assert.NotContains(t, report.Resources, "ebs")
	assert.NotContains(t, report.Resources, "rds")
}

func TestRightsizingSummaryClassFailureIsWarning(t *testing.T) {
	source := &fakeOptimizerSource{
		ebsErr: errors.New("opt-in required"),
		rds: []coTypes.RDSDBRecommendation{
			{
				ResourceArn:            aws.String("arn:aws:rds:us-east-1:123456789012:db:orders"),
				InstanceFinding:        coTypes.RDSInstanceFindingOverProvisioned,
				CurrentDBInstanceClass: aws.String("db.m5.large"),
				InstanceRecommendationOptions: []coTypes.RDSDBInstanceRecommendationOption{
					{
						DbInstanceClass:    aws.String("db.t3.medium"),
						Rank:               1,
						SavingsOpportunity: savingsOpportunity(30, 35),
					},
				},
			},
		},
	}

	report := RightsizingSummary(context.Background(), source, []string{"EBS", "rds"}, 10, nil)

	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "ebs recommendations unavailable")
	assert.Equal(t, []string{"ebs", "rds"}, report.Summary.ResourceTypes)
	assert.Equal(t, 1, report.Summary.TotalRecommendations)
	require.Len(t, report.Resources["rds"], 1)
	assert.Equal(t, "db.t3.medium", report.Resources["rds"][0].RecommendedConfiguration)
}

func TestRightsizingSummaryUnknownClass(t *testing.T) {
	report := RightsizingSummary(context.Background(), &fakeOptimizerSource{}, []string{"redshift"}, 10, nil)

	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "redshift recommendations unavailable")
	assert.Zero(t, report.Summary.TotalRecommendations)
}
