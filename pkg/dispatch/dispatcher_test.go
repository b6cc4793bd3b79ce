package dispatch

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brickwatch/rita/internal/models"
	"github.com/brickwatch/rita/pkg/executor"
	"github.com/brickwatch/rita/pkg/money"
	"github.com/brickwatch/rita/pkg/workflow"
)

func ec2Rec(id string) models.Recommendation {
	return models.Recommendation{
		ResourceType:            models.ResourceEC2,
		InstanceID:              id,
		CurrentInstanceType:     "m5.large",
		RecommendedInstanceType: "t3.medium",
		EstimatedMonthlySavings: money.FromDollars(50),
	}
}

func s3Rec(bucket string) models.Recommendation {
	return models.Recommendation{
		ResourceType:            models.ResourceS3,
		BucketName:              bucket,
		RecommendedAction:       "enable_intelligent_tiering",
		EstimatedMonthlySavings: money.FromDollars(5),
	}
}

func TestBuildPlanGroupsByResourceType(t *testing.T) {
	recs := []models.Recommendation{
		ec2Rec("i-1"), ec2Rec("i-2"), ec2Rec("i-3"),
		s3Rec("bucket-a"), s3Rec("bucket-b"),
	}

	plan := BuildPlan(recs)

	assert.Contains(t, plan, "**EC2 Instances (3):**")
	assert.Contains(t, plan, "**S3 Buckets (2):**")
	assert.Contains(t, plan, "Stop instance `i-1`, modify from `m5.large` to `t3.medium`")
	assert.Contains(t, plan, "Apply Intelligent-Tiering lifecycle policy to bucket `bucket-a`")
	assert.Contains(t, plan, "**Estimated Total Monthly Savings:** $160.00")
	assert.NotContains(t, plan, "more instance(s)")
}

func TestBuildPlanTruncatesLargeGroups(t *testing.T) {
	recs := []models.Recommendation{
		ec2Rec("i-1"), ec2Rec("i-2"), ec2Rec("i-3"), ec2Rec("i-4"), ec2Rec("i-5"),
	}

	plan := BuildPlan(recs)

	assert.Contains(t, plan, "**EC2 Instances (5):**")
	assert.Contains(t, plan, "- ... and 2 more instance(s)")
	assert.Equal(t, 3, strings.Count(plan, "Stop instance"))
}

func TestBuildPlanLambdaChanges(t *testing.T) {
	plan := BuildPlan([]models.Recommendation{
		{
			ResourceType:        models.ResourceLambda,
			FunctionName:        "etl-loader",
			CurrentMemoryMB:     8192,
			RecommendedMemoryMB: 1024,
		},
	})

	assert.Contains(t, plan, "**Lambda Functions (1):**")
	assert.Contains(t, plan, "Update function `etl-loader` (memory: 8192MB → 1024MB)")
}

func TestBuildPlanDefaultsMissingTypeToEC2(t *testing.T) {
	plan := BuildPlan([]models.Recommendation{
		{InstanceID: "i-1", RecommendedInstanceType: "t3.medium"},
	})

	assert.Contains(t, plan, "**EC2 Instances (1):**")
}

type stubS3Control struct{ lifecycles map[string]bool }

func (s *stubS3Control) ApplyIntelligentTiering(ctx context.Context, bucketName string) error {
	s.lifecycles[bucketName] = true
	return nil
}

func (s *stubS3Control) HasLifecyclePolicy(ctx context.Context, bucketName string) (bool, error) {
	return s.lifecycles[bucketName], nil
}

func newTestDispatcher() (*Dispatcher, *stubS3Control) {
	s3 := &stubS3Control{lifecycles: map[string]bool{}}
	exec := executor.New(nil, nil, s3, nil, nil, nil)
	runner := workflow.NewRunner(workflow.NewRegistry(exec), nil)
	return New(runner, NewStore(), 2, nil), s3
}

func TestSubmitRunsWorkflowAsynchronously(t *testing.T) {
	d, s3 := newTestDispatcher()

	submission, err := d.Submit(context.Background(), []models.Recommendation{
		s3Rec("bucket-a"), s3Rec("bucket-b"),
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusAccepted, submission.Status)
	assert.True(t, strings.HasPrefix(submission.ExecutionID, "workflow-"))
	assert.Equal(t, 2, submission.RecommendationsProcessed)
	assert.Contains(t, submission.Message, "3-5 minutes")
	assert.Contains(t, submission.Plan, "**S3 Buckets (2):**")

	d.Wait()

	execution, ok := d.Store().Get(submission.ExecutionID)
	require.True(t, ok)
	assert.Equal(t, models.StatusCompleted, execution.Status)
	require.NotNil(t, execution.Result)
	assert.Equal(t, models.StatusCompleted, execution.Result.Status)
	assert.NotNil(t, execution.CompletedAt)

	assert.True(t, s3.lifecycles["bucket-a"])
	assert.True(t, s3.lifecycles["bucket-b"])
}

func TestSubmitEmptyBatchRejected(t *testing.T) {
	d, _ := newTestDispatcher()

	_, err := d.Submit(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recommendations")
}

func TestStoreGetUnknownExecution(t *testing.T) {
	store := NewStore()

	_, ok := store.Get("workflow-0")
	assert.False(t, ok)
}
