package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brickwatch/rita/internal/models"
	"github.com/brickwatch/rita/pkg/executor"
	"github.com/brickwatch/rita/pkg/money"
)

// stubEC2 tracks instance state so the validate/apply/verify sequence can be
// exercised end to end.
type stubEC2 struct {
	types     map[string]string
	states    map[string]string
	modifyErr map[string]error
}

func newStubEC2() *stubEC2 {
	return &stubEC2{
		types:     map[string]string{},
		states:    map[string]string{},
		modifyErr: map[string]error{},
	}
}

func (s *stubEC2) GetInstance(ctx context.Context, instanceID string) (string, string, error) {
	t, ok := s.types[instanceID]
	if !ok {
		return "", "", errors.New("InvalidInstanceID.NotFound")
	}
	return s.states[instanceID], t, nil
}

func (s *stubEC2) StopInstance(ctx context.Context, instanceID string) error {
	s.states[instanceID] = "stopped"
	return nil
}

func (s *stubEC2) ModifyInstanceType(ctx context.Context, instanceID, instanceType string) error {
	if err := s.modifyErr[instanceID]; err != nil {
		return err
	}
	s.types[instanceID] = instanceType
	return nil
}

func (s *stubEC2) StartInstance(ctx context.Context, instanceID string) error {
	s.states[instanceID] = "running"
	return nil
}

type stubLambda struct{}

func (stubLambda) GetFunctionMemory(ctx context.Context, functionName string) (int32, error) {
	return 8192, nil
}
func (stubLambda) UpdateFunctionMemory(ctx context.Context, functionName string, memoryMB int32) error {
	return nil
}
func (stubLambda) SetReservedConcurrency(ctx context.Context, functionName string, concurrency int32) error {
	return nil
}

type stubS3 struct{ lifecycles map[string]bool }

func (s *stubS3) ApplyIntelligentTiering(ctx context.Context, bucketName string) error {
	s.lifecycles[bucketName] = true
	return nil
}
func (s *stubS3) HasLifecyclePolicy(ctx context.Context, bucketName string) (bool, error) {
	return s.lifecycles[bucketName], nil
}

type stubRDS struct{}

func (stubRDS) GetDBInstance(ctx context.Context, dbIdentifier string) (string, string, error) {
	return "db.m5.large", "available", nil
}
func (stubRDS) ModifyDBInstanceClass(ctx context.Context, dbIdentifier, instanceClass string) error {
	return nil
}

type stubEBS struct{}

func (stubEBS) GetVolume(ctx context.Context, volumeID string) (*models.VolumeInfo, error) {
	return &models.VolumeInfo{VolumeID: volumeID, VolumeType: "io1", SizeGB: 100}, nil
}
func (stubEBS) ModifyVolumeType(ctx context.Context, volumeID, volumeType string, sizeGB int32) error {
	return nil
}

func newTestRunner(ec2 *stubEC2) (*Runner, *Registry) {
	exec := executor.New(ec2, stubLambda{}, &stubS3{lifecycles: map[string]bool{}}, stubRDS{}, stubEBS{}, nil)
	registry := NewRegistry(exec)
	return NewRunner(registry, nil), registry
}

func TestRunnerHappyPath(t *testing.T) {
	ec2 := newStubEC2()
	ec2.types["i-1"] = "m5.large"
	ec2.states["i-1"] = "running"
	ec2.types["i-2"] = "r5.xlarge"
	ec2.states["i-2"] = "running"

	runner, _ := newTestRunner(ec2)

	result := runner.Run(context.Background(), ActionOptimizeInstances, Context{
		KeyRecommendations: []models.Recommendation{
			{
				ResourceType:            models.ResourceEC2,
				InstanceID:              "i-1",
				CurrentInstanceType:     "m5.large",
				RecommendedInstanceType: "t3.medium",
				EstimatedMonthlySavings: money.FromDollars(50),
			},
			{
				ResourceType:            models.ResourceEC2,
				InstanceID:              "i-2",
				CurrentInstanceType:     "r5.xlarge",
				RecommendedInstanceType: "t3.medium",
				EstimatedMonthlySavings: money.FromDollars(50),
			},
		},
	})

	assert.Equal(t, models.StatusCompleted, result.Status)
	assert.Equal(t, "Workflow completed successfully", result.Message)
	assert.Equal(t, StateMachineInProcess, result.StateMachineArn)
	assert.NotEmpty(t, result.ExecutionID)

	// Each step's result is stored under its own name.
	applyOut, ok := result.Steps[StepApplyRightsizing].(Context)
	require.True(t, ok)
	records, ok := applyOut[KeyExecutionRecs].([]models.ExecutionRecord)
	require.True(t, ok)
	require.Len(t, records, 2)
	assert.Equal(t, models.StatusSuccess, records[0].Status)

	summary, ok := applyOut[KeySummary].(models.ExecutionSummary)
	require.True(t, ok)
	assert.Equal(t, 2, summary.ResourcesModified)
	assert.Equal(t, money.FromDollars(100), summary.TotalSavings)

	verifyOut, ok := result.Steps[StepVerifyOptimization].(Context)
	require.True(t, ok)
	verifications, ok := verifyOut[KeyVerificationRecs].([]models.VerificationRecord)
	require.True(t, ok)
	require.Len(t, verifications, 2)
	assert.Equal(t, models.StatusSuccess, verifications[0].Status)
	assert.Equal(t, "t3.medium", verifications[0].CurrentValue)
}

func TestRunnerValidationFiltersMissingInstance(t *testing.T) {
	ec2 := newStubEC2()
	ec2.types["i-1"] = "m5.large"
	ec2.states["i-1"] = "running"

	runner, _ := newTestRunner(ec2)

	result := runner.Run(context.Background(), ActionRightsizing, Context{
		KeyRecommendations: []models.Recommendation{
			{
				ResourceType:            models.ResourceEC2,
				InstanceID:              "i-1",
				RecommendedInstanceType: "t3.medium",
			},
			{
				ResourceType:            models.ResourceEC2,
				InstanceID:              "i-gone",
				RecommendedInstanceType: "t3.medium",
			},
		},
	})

	assert.Equal(t, models.StatusCompleted, result.Status)

	validateOut := result.Steps[StepValidateRecommendations].(Context)
	assert.Equal(t, 1, validateOut["validated_count"])
	assert.Equal(t, 1, validateOut["filtered_count"])

	// The summary counts the filtered recommendation as failed alongside
	// the successful apply.
	applyOut := result.Steps[StepApplyRightsizing].(Context)
	summary := applyOut[KeySummary].(models.ExecutionSummary)
	assert.Equal(t, 1, summary.ResourcesModified)
	assert.Equal(t, 1, summary.ResourcesFailed)
}

func TestRunnerApplyFailureIsVerifiedAsSkipped(t *testing.T) {
	ec2 := newStubEC2()
	ec2.types["i-1"] = "m5.large"
	ec2.states["i-1"] = "running"
	ec2.modifyErr["i-1"] = errors.New("Unsupported instance type")

	runner, _ := newTestRunner(ec2)

	result := runner.Run(context.Background(), ActionOptimizeInstances, Context{
		KeyRecommendations: []models.Recommendation{
			{
				ResourceType:            models.ResourceEC2,
				InstanceID:              "i-1",
				RecommendedInstanceType: "t3.medium",
			},
		},
	})

	// Per-resource failures do not fail the run itself.
	assert.Equal(t, models.StatusCompleted, result.Status)

	verifyOut := result.Steps[StepVerifyOptimization].(Context)
	verifications := verifyOut[KeyVerificationRecs].([]models.VerificationRecord)
	require.Len(t, verifications, 1)
	assert.Equal(t, models.StatusSkipped, verifications[0].Status)
	assert.Equal(t, "apply step did not succeed", verifications[0].Reason)
}

type failingStep struct{}

func (failingStep) Name() string { return "always_fails" }
func (failingStep) Run(ctx context.Context, wc Context) Context {
	return failure(errors.New("induced failure"))
}

type recordingStep struct{ ran *bool }

func (recordingStep) Name() string { return "records_execution" }
func (s recordingStep) Run(ctx context.Context, wc Context) Context {
	*s.ran = true
	return Context{KeyStatus: models.StatusSuccess}
}

func TestRunnerFailFast(t *testing.T) {
	runner, registry := newTestRunner(newStubEC2())

	ran := false
	registry.Register(failingStep{})
	registry.Register(recordingStep{ran: &ran})
	require.NoError(t, registry.RegisterAction("doomed", []string{"always_fails", "records_execution"}))

	result := runner.Run(context.Background(), "doomed", Context{})

	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Equal(t, "Workflow failed at step: always_fails", result.Message)
	assert.False(t, ran, "steps after the failing one must not run")

	failedOut := result.Steps["always_fails"].(Context)
	assert.Equal(t, "induced failure", failedOut[KeyError])
	assert.NotContains(t, result.Steps, "records_execution")
}

func TestRunnerUnknownAction(t *testing.T) {
	runner, _ := newTestRunner(newStubEC2())

	result := runner.Run(context.Background(), "drain_the_ocean", Context{})

	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Contains(t, result.Message, "unknown workflow action")
}

func TestRunnerActionAliasNormalization(t *testing.T) {
	ec2 := newStubEC2()
	ec2.types["i-1"] = "m5.large"
	ec2.states["i-1"] = "running"

	runner, _ := newTestRunner(ec2)

	result := runner.Run(context.Background(), "Optimize-Existing-Instances", Context{
		KeyRecommendations: []models.Recommendation{
			{
				ResourceType:            models.ResourceEC2,
				InstanceID:              "i-1",
				RecommendedInstanceType: "t3.medium",
			},
		},
	})

	assert.Equal(t, models.StatusCompleted, result.Status)
	assert.Equal(t, ActionOptimizeInstances, result.Action)
}

func TestRegisterActionRejectsUnknownStep(t *testing.T) {
	_, registry := newTestRunner(newStubEC2())

	err := registry.RegisterAction("bogus", []string{"no_such_step"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown workflow step "no_such_step"`)
}
