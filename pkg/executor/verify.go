package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/brickwatch/rita/internal/models"
)

// Verification statuses beyond the shared execution statuses.
const StatusWarning = "warning"

// Verify re-reads a modified resource's live state and compares it against
// the recommendation's target values.
func (e *Executor) Verify(ctx context.Context, rec models.Recommendation) models.VerificationRecord {
	record := models.VerificationRecord{
		ResourceID: rec.ResourceID(),
		VerifiedAt: e.now().UTC().Format(time.RFC3339),
	}

	switch rec.ResourceType {
	case models.ResourceEC2:
		e.verifyEC2(ctx, rec, &record)
	case models.ResourceLambda:
		e.verifyLambda(ctx, rec, &record)
	case models.ResourceS3:
		e.verifyS3(ctx, rec, &record)
	case models.ResourceRDS:
		e.verifyRDS(ctx, rec, &record)
	case models.ResourceEBS:
		e.verifyEBS(ctx, rec, &record)
	default:
		record.Status = models.StatusFailed
		record.Error = fmt.Sprintf("unsupported resource type %q", rec.ResourceType)
	}
	return record
}

func (e *Executor) verifyEC2(ctx context.Context, rec models.Recommendation, record *models.VerificationRecord) {
	record.ExpectedValue = rec.RecommendedInstanceType

	state, actualType, err := e.ec2.GetInstance(ctx, rec.InstanceID)
	if err != nil {
		record.Status = models.StatusFailed
		record.Error = fmt.Sprintf("instance lookup failed: %v", err)
		return
	}
	record.CurrentValue = actualType
	record.ResourceState = state

	switch {
	case actualType == rec.RecommendedInstanceType && state == "running":
		record.Status = models.StatusSuccess
	case actualType == rec.RecommendedInstanceType:
		record.Status = StatusWarning
		record.Reason = fmt.Sprintf("instance type matches but state is %s", state)
	default:
		record.Status = models.StatusFailed
		record.Reason = fmt.Sprintf("instance type is %s, expected %s", actualType, rec.RecommendedInstanceType)
	}
}

func (e *Executor) verifyLambda(ctx context.Context, rec models.Recommendation, record *models.VerificationRecord) {
	if rec.RecommendedMemoryMB <= 0 {
		// Concurrency-only changes take effect synchronously; nothing
		// further to read back.
		record.Status = models.StatusSuccess
		return
	}
	record.ExpectedValue = fmt.Sprintf("%d MB", rec.RecommendedMemoryMB)

	memory, err := e.lambdas.GetFunctionMemory(ctx, rec.FunctionName)
	if err != nil {
		record.Status = models.StatusFailed
		record.Error = fmt.Sprintf("function lookup failed: %v", err)
		return
	}
	record.CurrentValue = fmt.Sprintf("%d MB", memory)

	if memory == rec.RecommendedMemoryMB {
		record.Status = models.StatusSuccess
	} else {
		record.Status = models.StatusFailed
		record.Reason = fmt.Sprintf("function memory is %d MB, expected %d MB", memory, rec.RecommendedMemoryMB)
	}
}

func (e *Executor) verifyS3(ctx context.Context, rec models.Recommendation, record *models.VerificationRecord) {
	record.ExpectedValue = "lifecycle policy present"

	present, err := e.s3.HasLifecyclePolicy(ctx, rec.BucketName)
	if err != nil {
		record.Status = models.StatusFailed
		record.Error = fmt.Sprintf("lifecycle lookup failed: %v", err)
		return
	}
	if present {
		record.Status = models.StatusSuccess
		record.CurrentValue = "lifecycle policy present"
	} else {
		record.Status = models.StatusFailed
		record.Reason = "bucket still has no lifecycle configuration"
	}
}

func (e *Executor) verifyRDS(ctx context.Context, rec models.Recommendation, record *models.VerificationRecord) {
	record.ExpectedValue = rec.RecommendedClass

	class, status, err := e.rds.GetDBInstance(ctx, rec.DBIdentifier)
	if err != nil {
		record.Status = models.StatusFailed
		record.Error = fmt.Sprintf("db instance lookup failed: %v", err)
		return
	}
	record.CurrentValue = class
	record.ResourceState = status

	switch {
	case class == rec.RecommendedClass:
		record.Status = models.StatusSuccess
	case status == "modifying":
		// ApplyImmediately still takes minutes; the change is in flight.
		record.Status = StatusWarning
		record.Reason = "instance class modification is still in progress"
	default:
		record.Status = models.StatusFailed
		record.Reason = fmt.Sprintf("instance class is %s, expected %s", class, rec.RecommendedClass)
	}
}

func (e *Executor) verifyEBS(ctx context.Context, rec models.Recommendation, record *models.VerificationRecord) {
	record.ExpectedValue = rec.RecommendedVolumeType

	volume, err := e.ebs.GetVolume(ctx, rec.VolumeID)
	if err != nil {
		record.Status = models.StatusFailed
		record.Error = fmt.Sprintf("volume lookup failed: %v", err)
		return
	}
	record.CurrentValue = volume.VolumeType
	record.ResourceState = volume.State

	if volume.VolumeType == rec.RecommendedVolumeType {
		record.Status = models.StatusSuccess
	} else {
		record.Status = models.StatusFailed
		record.Reason = fmt.Sprintf("volume type is %s, expected %s", volume.VolumeType, rec.RecommendedVolumeType)
	}
}
