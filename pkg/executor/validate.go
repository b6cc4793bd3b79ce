package executor

import (
	"context"
	"fmt"

	"github.com/brickwatch/rita/internal/models"
)

const ActionValidate = "validate"

// Validate checks that a recommendation still references a real resource in
// a modifiable state, and refreshes the recommendation's current values from
// the live configuration. A nil record means the recommendation passed; a
// non-nil record explains why it was filtered out (failed or skipped).
func (e *Executor) Validate(ctx context.Context, rec *models.Recommendation) *models.ExecutionRecord {
	switch rec.ResourceType {
	case models.ResourceEC2:
		return e.validateEC2(ctx, rec)
	case models.ResourceLambda:
		return e.validateLambda(ctx, rec)
	case models.ResourceS3:
		// Lifecycle application is idempotent; nothing to pre-check.
		return nil
	case models.ResourceRDS:
		return e.validateRDS(ctx, rec)
	case models.ResourceEBS:
		return e.validateEBS(ctx, rec)
	}

	record := e.record(*rec, ActionValidate)
	out := failed(record, fmt.Errorf("unsupported resource type %q", rec.ResourceType))
	return &out
}

func (e *Executor) validateEC2(ctx context.Context, rec *models.Recommendation) *models.ExecutionRecord {
	record := e.record(*rec, ActionValidate)

	state, actualType, err := e.ec2.GetInstance(ctx, rec.InstanceID)
	if err != nil {
		out := failed(record, fmt.Errorf("instance lookup failed: %w", err))
		return &out
	}
	if state == "terminated" || state == "shutting-down" {
		record.Status = models.StatusSkipped
		record.Reason = fmt.Sprintf("instance is %s", state)
		return &record
	}
	if actualType == rec.RecommendedInstanceType {
		record.Status = models.StatusSkipped
		record.Reason = fmt.Sprintf("instance is already %s", actualType)
		return &record
	}

	rec.CurrentInstanceType = actualType
	return nil
}

func (e *Executor) validateLambda(ctx context.Context, rec *models.Recommendation) *models.ExecutionRecord {
	record := e.record(*rec, ActionValidate)

	memory, err := e.lambdas.GetFunctionMemory(ctx, rec.FunctionName)
	if err != nil {
		out := failed(record, fmt.Errorf("function lookup failed: %w", err))
		return &out
	}
	if rec.RecommendedMemoryMB > 0 && memory == rec.RecommendedMemoryMB && rec.RecommendedConcurrency <= 0 {
		record.Status = models.StatusSkipped
		record.Reason = fmt.Sprintf("function memory is already %d MB", memory)
		return &record
	}

	rec.CurrentMemoryMB = memory
	return nil
}

func (e *Executor) validateRDS(ctx context.Context, rec *models.Recommendation) *models.ExecutionRecord {
	record := e.record(*rec, ActionValidate)

	class, status, err := e.rds.GetDBInstance(ctx, rec.DBIdentifier)
	if err != nil {
		out := failed(record, fmt.Errorf("db instance lookup failed: %w", err))
		return &out
	}
	if class == rec.RecommendedClass {
		record.Status = models.StatusSkipped
		record.Reason = fmt.Sprintf("db instance is already %s", class)
		return &record
	}
	if status != "available" {
		record.Status = models.StatusSkipped
		record.Reason = fmt.Sprintf("db instance is %s, not available", status)
		return &record
	}

	rec.CurrentClass = class
	return nil
}

func (e *Executor) validateEBS(ctx context.Context, rec *models.Recommendation) *models.ExecutionRecord {
	record := e.record(*rec, ActionValidate)

	volume, err := e.ebs.GetVolume(ctx, rec.VolumeID)
	if err != nil {
		out := failed(record, fmt.Errorf("volume lookup failed: %w", err))
		return &out
	}
	if volume.VolumeType == rec.RecommendedVolumeType {
		record.Status = models.StatusSkipped
		record.Reason = fmt.Sprintf("volume is already %s", volume.VolumeType)
		return &record
	}

	rec.CurrentVolumeType = volume.VolumeType
	rec.SizeGB = volume.SizeGB
	return nil
}
