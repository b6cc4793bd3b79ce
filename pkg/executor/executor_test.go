package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brickwatch/rita/internal/models"
	"github.com/brickwatch/rita/pkg/money"
)

type fakeEC2Control struct {
	state        string
	instanceType string
	getErr       error
	stopErr      error
	modifyErr    error
	startErr     error
	calls        []string
}

func (f *fakeEC2Control) GetInstance(ctx context.Context, instanceID string) (string, string, error) {
	f.calls = append(f.calls, "get")
	return f.state, f.instanceType, f.getErr
}

func (f *fakeEC2Control) StopInstance(ctx context.Context, instanceID string) error {
	f.calls = append(f.calls, "stop")
	return f.stopErr
}

func (f *fakeEC2Control) ModifyInstanceType(ctx context.Context, instanceID, instanceType string) error {
	f.calls = append(f.calls, "modify")
	return f.modifyErr
}

func (f *fakeEC2Control) StartInstance(ctx context.Context, instanceID string) error {
	f.calls = append(f.calls, "start")
	return f.startErr
}

type fakeLambdaControl struct {
	memory         int32
	getErr         error
	updateErr      error
	concurrencyErr error
	updatedMemory  int32
	setConcurrency int32
}

func (f *fakeLambdaControl) GetFunctionMemory(ctx context.Context, functionName string) (int32, error) {
	return f.memory, f.getErr
}

func (f *fakeLambdaControl) UpdateFunctionMemory(ctx context.Context, functionName string, memoryMB int32) error {
	f.updatedMemory = memoryMB
	return f.updateErr
}

func (f *fakeLambdaControl) SetReservedConcurrency(ctx context.Context, functionName string, concurrency int32) error {
	f.setConcurrency = concurrency
	return f.concurrencyErr
}

type fakeS3Control struct {
	applyErr     error
	hasLifecycle bool
	lookupErr    error
	applied      []string
}

func (f *fakeS3Control) ApplyIntelligentTiering(ctx context.Context, bucketName string) error {
	f.applied = append(f.applied, bucketName)
	return f.applyErr
}

func (f *fakeS3Control) HasLifecyclePolicy(ctx context.Context, bucketName string) (bool, error) {
	return f.hasLifecycle, f.lookupErr
}

type fakeRDSControl struct {
	class     string
	status    string
	getErr    error
	modifyErr error
	modified  string
}

func (f *fakeRDSControl) GetDBInstance(ctx context.Context, dbIdentifier string) (string, string, error) {
	return f.class, f.status, f.getErr
}

func (f *fakeRDSControl) ModifyDBInstanceClass(ctx context.Context, dbIdentifier, instanceClass string) error {
	f.modified = instanceClass
	return f.modifyErr
}

type fakeEBSControl struct {
	volume    *models.VolumeInfo
	getErr    error
	modifyErr error
	modified  string
}

func (f *fakeEBSControl) GetVolume(ctx context.Context, volumeID string) (*models.VolumeInfo, error) {
	return f.volume, f.getErr
}

func (f *fakeEBSControl) ModifyVolumeType(ctx context.Context, volumeID, volumeType string, sizeGB int32) error {
	f.modified = volumeType
	return f.modifyErr
}

func newTestExecutor(ec2 *fakeEC2Control, lambdas *fakeLambdaControl, s3 *fakeS3Control, rds *fakeRDSControl, ebs *fakeEBSControl) *Executor {
	if ec2 == nil {
		ec2 = &fakeEC2Control{}
	}
	if lambdas == nil {
		lambdas = &fakeLambdaControl{}
	}
	if s3 == nil {
		s3 = &fakeS3Control{}
	}
	if rds == nil {
		rds = &fakeRDSControl{}
	}
	if ebs == nil {
		ebs = &fakeEBSControl{}
	}
	e := New(ec2, lambdas, s3, rds, ebs, nil)
	e.SetClock(func() time.Time {
		return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	})
	return e
}

func ec2Recommendation() models.Recommendation {
	return models.Recommendation{
		ResourceType:            models.ResourceEC2,
		InstanceID:              "i-0abc",
		CurrentInstanceType:     "m5.large",
		RecommendedInstanceType: "t3.medium",
		EstimatedMonthlySavings: money.FromDollars(50),
	}
}

func TestApplyEC2Sequence(t *testing.T) {
	ec2 := &fakeEC2Control{}
	e := newTestExecutor(ec2, nil, nil, nil, nil)

	record := e.Apply(context.Background(), ec2Recommendation())

	assert.Equal(t, models.StatusSuccess, record.Status)
	assert.Equal(t, []string{"stop", "modify", "start"}, ec2.calls)
	assert.Equal(t, "m5.large", record.FromValue)
	assert.Equal(t, "t3.medium", record.ToValue)
	assert.Equal(t, money.FromDollars(50), record.EstimatedSavings)
}

func TestApplyEC2ModifyFailureRestarts(t *testing.T) {
	ec2 := &fakeEC2Control{modifyErr: errors.New("unsupported type")}
	e := newTestExecutor(ec2, nil, nil, nil, nil)

	record := e.Apply(context.Background(), ec2Recommendation())

	assert.Equal(t, models.StatusFailed, record.Status)
	assert.Contains(t, record.Error, "failed to modify instance type")
	// The instance is restarted at its old size after the failed modify.
	assert.Equal(t, []string{"stop", "modify", "start"}, ec2.calls)
}

func TestApplyEC2StopTimeout(t *testing.T) {
	ec2 := &fakeEC2Control{stopErr: errors.New("exceeded max wait time for InstanceStopped waiter")}
	e := newTestExecutor(ec2, nil, nil, nil, nil)

	record := e.Apply(context.Background(), ec2Recommendation())

	assert.Equal(t, models.StatusFailed, record.Status)
	assert.Contains(t, record.Error, "failed to stop instance")
	assert.Equal(t, []string{"stop"}, ec2.calls)
}

func TestApplyLambdaMemoryAndConcurrency(t *testing.T) {
	lambdas := &fakeLambdaControl{}
	e := newTestExecutor(nil, lambdas, nil, nil, nil)

	record := e.Apply(context.Background(), models.Recommendation{
		ResourceType:           models.ResourceLambda,
		FunctionName:           "etl-loader",
		CurrentMemoryMB:        8192,
		RecommendedMemoryMB:    1024,
		RecommendedConcurrency: 100,
	})

	assert.Equal(t, models.StatusSuccess, record.Status)
	assert.Equal(t, int32(1024), lambdas.updatedMemory)
	assert.Equal(t, int32(100), lambdas.setConcurrency)
	assert.Equal(t, "8192 MB", record.FromValue)
	assert.Equal(t, "1024 MB", record.ToValue)
}

func TestApplyS3(t *testing.T) {
	s3 := &fakeS3Control{}
	e := newTestExecutor(nil, nil, s3, nil, nil)

	record := e.Apply(context.Background(), models.Recommendation{
		ResourceType: models.ResourceS3,
		BucketName:   "brickwatch-logs",
	})

	assert.Equal(t, models.StatusSuccess, record.Status)
	assert.Equal(t, []string{"brickwatch-logs"}, s3.applied)
	assert.Equal(t, "INTELLIGENT_TIERING", record.ToValue)
}

func TestApplyRDSAndEBS(t *testing.T) {
	rds := &fakeRDSControl{}
	ebs := &fakeEBSControl{}
	e := newTestExecutor(nil, nil, nil, rds, ebs)

	dbRecord := e.Apply(context.Background(), models.Recommendation{
		ResourceType:     models.ResourceRDS,
		DBIdentifier:     "orders-db",
		CurrentClass:     "db.m5.large",
		RecommendedClass: "db.t3.medium",
	})
	assert.Equal(t, models.StatusSuccess, dbRecord.Status)
	assert.Equal(t, "db.t3.medium", rds.modified)

	volRecord := e.Apply(context.Background(), models.Recommendation{
		ResourceType:          models.ResourceEBS,
		VolumeID:              "vol-0abc",
		CurrentVolumeType:     "io1",
		RecommendedVolumeType: "gp3",
	})
	assert.Equal(t, models.StatusSuccess, volRecord.Status)
	assert.Equal(t, "gp3", ebs.modified)
}

func TestApplyMissingIdentity(t *testing.T) {
	e := newTestExecutor(nil, nil, nil, nil, nil)

	record := e.Apply(context.Background(), models.Recommendation{ResourceType: models.ResourceEC2})

	assert.Equal(t, models.StatusFailed, record.Status)
	assert.Contains(t, record.Error, "required")
}

func TestValidateEC2RefreshesCurrentType(t *testing.T) {
	ec2 := &fakeEC2Control{state: "running", instanceType: "m5.xlarge"}
	e := newTestExecutor(ec2, nil, nil, nil, nil)

	rec := ec2Recommendation()
	record := e.Validate(context.Background(), &rec)

	assert.Nil(t, record)
	assert.Equal(t, "m5.xlarge", rec.CurrentInstanceType)
}

func TestValidateEC2AlreadyRecommended(t *testing.T) {
	ec2 := &fakeEC2Control{state: "running", instanceType: "t3.medium"}
	e := newTestExecutor(ec2, nil, nil, nil, nil)

	rec := ec2Recommendation()
	record := e.Validate(context.Background(), &rec)

	require.NotNil(t, record)
	assert.Equal(t, models.StatusSkipped, record.Status)
	assert.Contains(t, record.Reason, "already t3.medium")
}

func TestValidateEC2Terminated(t *testing.T) {
	ec2 := &fakeEC2Control{state: "terminated", instanceType: "m5.large"}
	e := newTestExecutor(ec2, nil, nil, nil, nil)

	rec := ec2Recommendation()
	record := e.Validate(context.Background(), &rec)

	require.NotNil(t, record)
	assert.Equal(t, models.StatusSkipped, record.Status)
}

func TestValidateLookupFailure(t *testing.T) {
	ec2 := &fakeEC2Control{getErr: errors.New("InvalidInstanceID.NotFound")}
	e := newTestExecutor(ec2, nil, nil, nil, nil)

	rec := ec2Recommendation()
	record := e.Validate(context.Background(), &rec)

	require.NotNil(t, record)
	assert.Equal(t, models.StatusFailed, record.Status)
	assert.Contains(t, record.Error, "instance lookup failed")
}

func TestValidateRDSNotAvailable(t *testing.T) {
	rds := &fakeRDSControl{class: "db.m5.large", status: "backing-up"}
	e := newTestExecutor(nil, nil, nil, rds, nil)

	rec := models.Recommendation{
		ResourceType:     models.ResourceRDS,
		DBIdentifier:     "orders-db",
		RecommendedClass: "db.t3.medium",
	}
	record := e.Validate(context.Background(), &rec)

	require.NotNil(t, record)
	assert.Equal(t, models.StatusSkipped, record.Status)
	assert.Contains(t, record.Reason, "backing-up")
}

func TestVerifyEC2(t *testing.T) {
	ec2 := &fakeEC2Control{state: "running", instanceType: "t3.medium"}
	e := newTestExecutor(ec2, nil, nil, nil, nil)

	record := e.Verify(context.Background(), ec2Recommendation())

	assert.Equal(t, models.StatusSuccess, record.Status)
	assert.Equal(t, "t3.medium", record.CurrentValue)
	assert.Equal(t, "running", record.ResourceState)
}

func TestVerifyEC2Stopped(t *testing.T) {
	ec2 := &fakeEC2Control{state: "stopped", instanceType: "t3.medium"}
	e := newTestExecutor(ec2, nil, nil, nil, nil)

	record := e.Verify(context.Background(), ec2Recommendation())

	assert.Equal(t, StatusWarning, record.Status)
	assert.Contains(t, record.Reason, "state is stopped")
}

func TestVerifyEC2TypeMismatch(t *testing.T) {
	ec2 := &fakeEC2Control{state: "running", instanceType: "m5.large"}
	e := newTestExecutor(ec2, nil, nil, nil, nil)

	record := e.Verify(context.Background(), ec2Recommendation())

	assert.Equal(t, models.StatusFailed, record.Status)
	assert.Contains(t, record.Reason, "expected t3.medium")
}

func TestVerifyS3(t *testing.T) {
	s3 := &fakeS3Control{hasLifecycle: true}
	e := newTestExecutor(nil, nil, s3, nil, nil)

	record := e.Verify(context.Background(), models.Recommendation{
		ResourceType: models.ResourceS3,
		BucketName:   "brickwatch-logs",
	})

	assert.Equal(t, models.StatusSuccess, record.Status)
}

func TestVerifyRDSModifying(t *testing.T) {
	rds := &fakeRDSControl{class: "db.m5.large", status: "modifying"}
	e := newTestExecutor(nil, nil, nil, rds, nil)

	record := e.Verify(context.Background(), models.Recommendation{
		ResourceType:     models.ResourceRDS,
		DBIdentifier:     "orders-db",
		RecommendedClass: "db.t3.medium",
	})

	assert.Equal(t, StatusWarning, record.Status)
	assert.Contains(t, record.Reason, "in progress")
}
