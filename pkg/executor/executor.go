// Package executor applies rightsizing recommendations to live resources.
// Every operation converts its outcome into a structured record; errors never
// escape past a resource's own boundary, so one failure cannot abort a batch.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brickwatch/rita/internal/models"
)

// Actions recorded per resource type.
const (
	ActionModifyInstanceType   = "modify_instance_type"
	ActionUpdateFunctionConfig = "update_function_configuration"
	ActionApplyLifecyclePolicy = "apply_lifecycle_policy"
	ActionModifyDBClass        = "modify_db_instance_class"
	ActionModifyVolume         = "modify_volume"
)

// EC2Control is the instance control surface the executor needs.
type EC2Control interface {
	GetInstance(ctx context.Context, instanceID string) (state string, instanceType string, err error)
	StopInstance(ctx context.Context, instanceID string) error
	ModifyInstanceType(ctx context.Context, instanceID, instanceType string) error
	StartInstance(ctx context.Context, instanceID string) error
}

// LambdaControl updates function configuration.
type LambdaControl interface {
	GetFunctionMemory(ctx context.Context, functionName string) (int32, error)
	UpdateFunctionMemory(ctx context.Context, functionName string, memoryMB int32) error
	SetReservedConcurrency(ctx context.Context, functionName string, concurrency int32) error
}

// S3Control applies and inspects bucket lifecycle configuration.
type S3Control interface {
	ApplyIntelligentTiering(ctx context.Context, bucketName string) error
	HasLifecyclePolicy(ctx context.Context, bucketName string) (bool, error)
}

// RDSControl modifies database instance classes.
type RDSControl interface {
	GetDBInstance(ctx context.Context, dbIdentifier string) (class string, status string, err error)
	ModifyDBInstanceClass(ctx context.Context, dbIdentifier, instanceClass string) error
}

// EBSControl modifies volumes.
type EBSControl interface {
	GetVolume(ctx context.Context, volumeID string) (*models.VolumeInfo, error)
	ModifyVolumeType(ctx context.Context, volumeID, volumeType string, sizeGB int32) error
}

// Executor drives per-resource mutations for a batch of recommendations.
type Executor struct {
	ec2     EC2Control
	lambdas LambdaControl
	s3      S3Control
	rds     RDSControl
	ebs     EBSControl
	logger  *slog.Logger
	now     func() time.Time
}

func New(ec2 EC2Control, lambdas LambdaControl, s3 S3Control, rds RDSControl, ebs EBSControl, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		ec2:     ec2,
		lambdas: lambdas,
		s3:      s3,
		rds:     rds,
		ebs:     ebs,
		logger:  logger,
		now:     time.Now,
	}
}

// SetClock overrides the record timestamp source. Intended for tests.
func (e *Executor) SetClock(now func() time.Time) {
	e.now = now
}

func (e *Executor) record(rec models.Recommendation, action string) models.ExecutionRecord {
	return models.ExecutionRecord{
		ResourceID:       rec.ResourceID(),
		ResourceType:     rec.ResourceType,
		Action:           action,
		EstimatedSavings: rec.EstimatedMonthlySavings,
		Timestamp:        e.now().UTC(),
	}
}

func failed(record models.ExecutionRecord, err error) models.ExecutionRecord {
	record.Status = models.StatusFailed
	record.Error = err.Error()
	return record
}

// Apply performs the mutating call(s) for one recommendation and returns
// the per-resource outcome.
func (e *Executor) Apply(ctx context.Context, rec models.Recommendation) models.ExecutionRecord {
	e.logger.Info("applying recommendation",
		"resource_type", rec.ResourceType,
		"resource_id", rec.ResourceID(),
	)

	switch rec.ResourceType {
	case models.ResourceEC2:
		return e.applyEC2(ctx, rec)
	case models.ResourceLambda:
		return e.applyLambda(ctx, rec)
	case models.ResourceS3:
		return e.applyS3(ctx, rec)
	case models.ResourceRDS:
		return e.applyRDS(ctx, rec)
	case models.ResourceEBS:
		return e.applyEBS(ctx, rec)
	}

	record := e.record(rec, "unknown")
	return failed(record, fmt.Errorf("unsupported resource type %q", rec.ResourceType))
}

// applyEC2 runs the full stop, modify, start sequence. The client waits for
// the stopped and running states internally with bounded polling; a timeout
// surfaces as an error on the corresponding call.
func (e *Executor) applyEC2(ctx context.Context, rec models.Recommendation) models.ExecutionRecord {
	record := e.record(rec, ActionModifyInstanceType)
	record.FromValue = rec.CurrentInstanceType
	record.ToValue = rec.RecommendedInstanceType

	if rec.InstanceID == "" || rec.RecommendedInstanceType == "" {
		return failed(record, fmt.Errorf("instance id and recommended type are required"))
	}

	if err := e.ec2.StopInstance(ctx, rec.InstanceID); err != nil {
		return failed(record, fmt.Errorf("failed to stop instance: %w", err))
	}
	if err := e.ec2.ModifyInstanceType(ctx, rec.InstanceID, rec.RecommendedInstanceType); err != nil {
		// Best effort: bring the instance back up at its old size rather
		// than leaving it stopped.
		if startErr := e.ec2.StartInstance(ctx, rec.InstanceID); startErr != nil {
			e.logger.Error("failed to restart instance after modify failure",
				"instance_id", rec.InstanceID, "error", startErr)
		}
		return failed(record, fmt.Errorf("failed to modify instance type: %w", err))
	}
	if err := e.ec2.StartInstance(ctx, rec.InstanceID); err != nil {
		return failed(record, fmt.Errorf("failed to start instance: %w", err))
	}

	record.Status = models.StatusSuccess
	return record
}

func (e *Executor) applyLambda(ctx context.Context, rec models.Recommendation) models.ExecutionRecord {
	record := e.record(rec, ActionUpdateFunctionConfig)

	if rec.FunctionName == "" {
		return failed(record, fmt.Errorf("function name is required"))
	}
	if rec.RecommendedMemoryMB <= 0 && rec.RecommendedConcurrency <= 0 {
		return failed(record, fmt.Errorf("no memory or concurrency target set"))
	}

	if rec.RecommendedMemoryMB > 0 {
		record.FromValue = fmt.Sprintf("%d MB", rec.CurrentMemoryMB)
		record.ToValue = fmt.Sprintf("%d MB", rec.RecommendedMemoryMB)
		if err := e.lambdas.UpdateFunctionMemory(ctx, rec.FunctionName, rec.RecommendedMemoryMB); err != nil {
			return failed(record, fmt.Errorf("failed to update function memory: %w", err))
		}
	}
	if rec.RecommendedConcurrency > 0 {
		if rec.RecommendedMemoryMB <= 0 {
			record.FromValue = fmt.Sprintf("%d", rec.CurrentConcurrency)
			record.ToValue = fmt.Sprintf("%d", rec.RecommendedConcurrency)
		}
		if err := e.lambdas.SetReservedConcurrency(ctx, rec.FunctionName, rec.RecommendedConcurrency); err != nil {
			return failed(record, fmt.Errorf("failed to set reserved concurrency: %w", err))
		}
	}

	record.Status = models.StatusSuccess
	return record
}

func (e *Executor) applyS3(ctx context.Context, rec models.Recommendation) models.ExecutionRecord {
	record := e.record(rec, ActionApplyLifecyclePolicy)
	record.ToValue = "INTELLIGENT_TIERING"

	if rec.BucketName == "" {
		return failed(record, fmt.Errorf("bucket name is required"))
	}
	if err := e.s3.ApplyIntelligentTiering(ctx, rec.BucketName); err != nil {
		return failed(record, fmt.Errorf("failed to apply lifecycle policy: %w", err))
	}

	record.Status = models.StatusSuccess
	return record
}

func (e *Executor) applyRDS(ctx context.Context, rec models.Recommendation) models.ExecutionRecord {
	record := e.record(rec, ActionModifyDBClass)
	record.FromValue = rec.CurrentClass
	record.ToValue = rec.RecommendedClass

	if rec.DBIdentifier == "" || rec.RecommendedClass == "" {
		return failed(record, fmt.Errorf("db identifier and recommended class are required"))
	}
	if err := e.rds.ModifyDBInstanceClass(ctx, rec.DBIdentifier, rec.RecommendedClass); err != nil {
		return failed(record, fmt.Errorf("failed to modify db instance class: %w", err))
	}

	record.Status = models.StatusSuccess
	return record
}

func (e *Executor) applyEBS(ctx context.Context, rec models.Recommendation) models.ExecutionRecord {
	record := e.record(rec, ActionModifyVolume)
	record.FromValue = rec.CurrentVolumeType
	record.ToValue = rec.RecommendedVolumeType

	if rec.VolumeID == "" || rec.RecommendedVolumeType == "" {
		return failed(record, fmt.Errorf("volume id and recommended type are required"))
	}
	// Type change only; size stays as provisioned.
	if err := e.ebs.ModifyVolumeType(ctx, rec.VolumeID, rec.RecommendedVolumeType, 0); err != nil {
		return failed(record, fmt.Errorf("failed to modify volume: %w", err))
	}

	record.Status = models.StatusSuccess
	return record
}
