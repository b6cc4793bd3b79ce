// Package recommend evaluates AWS resources against the company cost policy
// and merges the results with Compute Optimizer advisories into a single
// recommendation list.
package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	coTypes "github.com/aws/aws-sdk-go-v2/service/computeoptimizer/types"

	"github.com/brickwatch/rita/internal/models"
	"github.com/brickwatch/rita/pkg/money"
	"github.com/brickwatch/rita/pkg/policy"
)

// DefaultLimit caps the merged recommendation list.
const DefaultLimit = 50

// Lambda functions above this memory allocation are flagged as
// over-provisioned.
const lambdaMemoryCeilingMB = 5120

// Inventory sources, one per resource class. Implemented by the AWS client
// wrappers; faked in tests.
type (
	EC2Inventory interface {
		GetRunningInstances(ctx context.Context) ([]models.InstanceInfo, error)
	}
	LambdaInventory interface {
		GetFunctions(ctx context.Context) ([]models.LambdaFunctionInfo, error)
	}
	S3Inventory interface {
		GetBuckets(ctx context.Context) ([]models.BucketInfo, error)
	}
	RDSInventory interface {
		GetDBInstances(ctx context.Context) ([]models.DBInstanceInfo, error)
	}
	EBSInventory interface {
		GetVolumes(ctx context.Context) ([]models.VolumeInfo, error)
	}
)

// OptimizerSource provides Compute Optimizer advisories per resource class.
type OptimizerSource interface {
	GetEC2Recommendations(ctx context.Context, limit int) ([]coTypes.InstanceRecommendation, error)
	GetLambdaRecommendations(ctx context.Context, limit int) ([]coTypes.LambdaFunctionRecommendation, error)
	GetEBSRecommendations(ctx context.Context, limit int) ([]coTypes.VolumeRecommendation, error)
	GetRDSRecommendations(ctx context.Context, limit int) ([]coTypes.RDSDBRecommendation, error)
}

// Options controls which resource classes are scanned and how many merged
// recommendations are returned.
type Options struct {
	ResourceTypes []models.ResourceType
	Limit         int
}

// DefaultOptions scans EC2, Lambda, and S3 with the default limit.
func DefaultOptions() Options {
	return Options{
		ResourceTypes: []models.ResourceType{models.ResourceEC2, models.ResourceLambda, models.ResourceS3},
		Limit:         DefaultLimit,
	}
}

// Collector merges policy evaluations with optimizer advisories. Policy
// findings win: a resource flagged by policy suppresses its optimizer
// record.
type Collector struct {
	policy    *policy.Policy
	ec2       EC2Inventory
	lambdas   LambdaInventory
	s3        S3Inventory
	rds       RDSInventory
	ebs       EBSInventory
	optimizer OptimizerSource
	logger    *slog.Logger
}

// NewCollector wires a collector. Any inventory or optimizer source may be
// nil; its resource class is then skipped with a warning when requested.
func NewCollector(p *policy.Policy, ec2 EC2Inventory, lambdas LambdaInventory, s3 S3Inventory, rds RDSInventory, ebs EBSInventory, optimizer OptimizerSource, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		policy:    p,
		ec2:       ec2,
		lambdas:   lambdas,
		s3:        s3,
		rds:       rds,
		ebs:       ebs,
		optimizer: optimizer,
		logger:    logger,
	}
}

// Collect runs the requested resource-class scans. A failure in one class
// produces a warning and the remaining classes still run.
func (c *Collector) Collect(ctx context.Context, opts Options) *models.CollectionResult {
	if len(opts.ResourceTypes) == 0 {
		opts.ResourceTypes = DefaultOptions().ResourceTypes
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}

	result := &models.CollectionResult{
		ResourcesScanned:         map[string]int{},
		RecommendationsByService: map[string]int{},
	}

	var policyRecs, optimizerRecs []models.Recommendation
	services := []string{}

	for _, rt := range opts.ResourceTypes {
		services = append(services, string(rt))

		scanned, recs, err := c.policyCheck(ctx, rt)
		result.ResourcesScanned[string(rt)] = scanned
		if err != nil {
			c.logger.Warn("policy check failed", "resource_type", rt, "error", err)
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s check failed: %v", rt, err))
			continue
		}
		policyRecs = append(policyRecs, recs...)

		advisories, err := c.optimizerCheck(ctx, rt, opts.Limit)
		if err != nil {
			// Optimizer data is optional; policy guidance still applies.
			c.logger.Info("optimizer data unavailable", "resource_type", rt, "error", err)
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s optimizer data unavailable: %v", rt, err))
			continue
		}
		optimizerRecs = append(optimizerRecs, advisories...)
	}

	// Policy findings first, then advisories for resources not already
	// flagged.
	flagged := map[string]bool{}
	merged := make([]models.Recommendation, 0, len(policyRecs)+len(optimizerRecs))
	for _, rec := range policyRecs {
		flagged[rec.ResourceID()] = true
		merged = append(merged, rec)
	}
	for _, rec := range optimizerRecs {
		if flagged[rec.ResourceID()] {
			continue
		}
		merged = append(merged, rec)
		result.OptimizerRecommendations++
	}
	if len(merged) > opts.Limit {
		merged = merged[:opts.Limit]
	}

	var total money.Amount
	for _, rec := range merged {
		total += rec.EstimatedMonthlySavings
		result.RecommendationsByService[string(rec.ResourceType)]++
	}

	result.Recommendations = merged
	result.PolicyViolations = len(policyRecs)
	result.TotalRecommendations = len(merged)
	result.EstimatedTotalSavings = total

	servicesAnalyzed := strings.Join(services, ", ")
	switch {
	case len(merged) == 0:
		result.ComplianceStatus = "compliant"
		result.Message = fmt.Sprintf("Excellent! All your %s resources comply with company cost policies. No optimization recommendations at this time.", servicesAnalyzed)
	case len(policyRecs) > 0:
		result.ComplianceStatus = "violations_detected"
		result.Message = fmt.Sprintf("Found %d optimization opportunity(ies) across %s.", len(merged), servicesAnalyzed)
	default:
		result.ComplianceStatus = "compliant_with_optimizations"
		result.Message = fmt.Sprintf("Found %d optimization opportunities across %s based on usage metrics.", len(merged), servicesAnalyzed)
	}

	return result
}

func (c *Collector) policyCheck(ctx context.Context, rt models.ResourceType) (int, []models.Recommendation, error) {
	switch rt {
	case models.ResourceEC2:
		return c.checkEC2(ctx)
	case models.ResourceLambda:
		return c.checkLambda(ctx)
	case models.ResourceS3:
		return c.checkS3(ctx)
	case models.ResourceRDS:
		return c.checkRDS(ctx)
	case models.ResourceEBS:
		return c.checkEBS(ctx)
	}
	return 0, nil, fmt.Errorf("unsupported resource type %q", rt)
}

func (c *Collector) checkEC2(ctx context.Context) (int, []models.Recommendation, error) {
	if c.ec2 == nil {
		return 0, nil, fmt.Errorf("no EC2 inventory configured")
	}

	instances, err := c.ec2.GetRunningInstances(ctx)
	if err != nil {
		return 0, nil, err
	}

	recs := []models.Recommendation{}
	for _, instance := range instances {
		if c.policy.IsTypeAllowed("ec2", instance.InstanceType) {
			continue
		}
		recs = append(recs, models.Recommendation{
			ResourceType:            models.ResourceEC2,
			InstanceID:              instance.InstanceID,
			CurrentInstanceType:     instance.InstanceType,
			RecommendedInstanceType: c.policy.RecommendedType("ec2", instance.InstanceType),
			ViolationType:           "disallowed_instance_type",
			Reason:                  c.policy.Rationale("ec2"),
			EstimatedMonthlySavings: EC2InstanceSavings(instance.InstanceType),
			Confidence:              models.ConfidencePolicy,
			RecommendationSource:    models.SourcePolicy,
			Tags:                    instance.Tags,
		})
	}
	return len(instances), recs, nil
}

func (c *Collector) checkLambda(ctx context.Context) (int, []models.Recommendation, error) {
	if c.lambdas == nil {
		return 0, nil, fmt.Errorf("no Lambda inventory configured")
	}

	functions, err := c.lambdas.GetFunctions(ctx)
	if err != nil {
		return 0, nil, err
	}

	maxConcurrency := c.policy.MaxLambdaConcurrency()
	recs := []models.Recommendation{}
	for _, fn := range functions {
		if fn.MemorySize > lambdaMemoryCeilingMB {
			recs = append(recs, models.Recommendation{
				ResourceType:            models.ResourceLambda,
				FunctionName:            fn.FunctionName,
				CurrentMemoryMB:         fn.MemorySize,
				RecommendedMemoryMB:     1024,
				Reason:                  "Over-provisioned memory - most functions don't need > 5GB, recommend 1GB",
				EstimatedMonthlySavings: LambdaMemorySavings(fn.MemorySize),
				Confidence:              models.ConfidencePolicy,
				RecommendationSource:    models.SourcePolicy,
			})
		}

		if fn.ReservedConcurrency != nil && *fn.ReservedConcurrency > maxConcurrency {
			recs = append(recs, models.Recommendation{
				ResourceType:            models.ResourceLambda,
				FunctionName:            fn.FunctionName,
				CurrentConcurrency:      *fn.ReservedConcurrency,
				RecommendedConcurrency:  maxConcurrency,
				Reason:                  fmt.Sprintf("Reserved concurrency exceeds policy maximum of %d", maxConcurrency),
				EstimatedMonthlySavings: money.FromDollars(10),
				Confidence:              models.ConfidencePolicy,
				RecommendationSource:    models.SourcePolicy,
			})
		}
	}
	return len(functions), recs, nil
}

func (c *Collector) checkS3(ctx context.Context) (int, []models.Recommendation, error) {
	if c.s3 == nil {
		return 0, nil, fmt.Errorf("no S3 inventory configured")
	}
	if !c.policy.LifecycleRequired() {
		return 0, nil, nil
	}

	buckets, err := c.s3.GetBuckets(ctx)
	if err != nil {
		return 0, nil, err
	}

	recs := []models.Recommendation{}
	for _, bucket := range buckets {
		if bucket.HasLifecyclePolicy {
			continue
		}
		recs = append(recs, models.Recommendation{
			ResourceType:            models.ResourceS3,
			BucketName:              bucket.BucketName,
			Issue:                   "No lifecycle policy configured",
			RecommendedAction:       "Add Intelligent-Tiering or transition to Glacier",
			Reason:                  "Policy requires lifecycle management for all buckets",
			EstimatedMonthlySavings: S3LifecycleSavings(bucket.SizeBytes),
			Confidence:              models.ConfidencePolicy,
			RecommendationSource:    models.SourcePolicy,
		})
	}
	return len(buckets), recs, nil
}

func (c *Collector) checkRDS(ctx context.Context) (int, []models.Recommendation, error) {
	if c.rds == nil {
		return 0, nil, fmt.Errorf("no RDS inventory configured")
	}

	databases, err := c.rds.GetDBInstances(ctx)
	if err != nil {
		return 0, nil, err
	}

	recs := []models.Recommendation{}
	for _, db := range databases {
		if c.policy.IsTypeAllowed("rds", db.InstanceClass) {
			continue
		}
		recs = append(recs, models.Recommendation{
			ResourceType:            models.ResourceRDS,
			DBIdentifier:            db.DBIdentifier,
			CurrentClass:            db.InstanceClass,
			RecommendedClass:        c.policy.RecommendedType("rds", db.InstanceClass),
			Reason:                  c.policy.Rationale("rds"),
			EstimatedMonthlySavings: money.FromDollars(30),
			Confidence:              models.ConfidencePolicy,
			RecommendationSource:    models.SourcePolicy,
			Tags:                    db.Tags,
		})
	}
	return len(databases), recs, nil
}

func (c *Collector) checkEBS(ctx context.Context) (int, []models.Recommendation, error) {
	if c.ebs == nil {
		return 0, nil, fmt.Errorf("no EBS inventory configured")
	}

	volumes, err := c.ebs.GetVolumes(ctx)
	if err != nil {
		return 0, nil, err
	}

	recs := []models.Recommendation{}
	for _, volume := range volumes {
		if c.policy.IsTypeAllowed("ebs", volume.VolumeType) {
			continue
		}
		recommended := c.policy.RecommendedType("ebs", volume.VolumeType)
		recs = append(recs, models.Recommendation{
			ResourceType:            models.ResourceEBS,
			VolumeID:                volume.VolumeID,
			CurrentVolumeType:       volume.VolumeType,
			RecommendedVolumeType:   recommended,
			SizeGB:                  volume.SizeGB,
			Reason:                  fmt.Sprintf("Policy violation - %s is expensive, use %s instead", volume.VolumeType, recommended),
			EstimatedMonthlySavings: money.FromDollars(15),
			Confidence:              models.ConfidencePolicy,
			RecommendationSource:    models.SourcePolicy,
			Tags:                    volume.Tags,
		})
	}
	return len(volumes), recs, nil
}

func (c *Collector) optimizerCheck(ctx context.Context, rt models.ResourceType, limit int) ([]models.Recommendation, error) {
	if c.optimizer == nil {
		return nil, nil
	}

	switch rt {
	case models.ResourceEC2:
		rows, err := c.optimizer.GetEC2Recommendations(ctx, limit)
		if err != nil {
			return nil, err
		}
		return c.convertEC2Advisories(rows), nil
	case models.ResourceLambda:
		rows, err := c.optimizer.GetLambdaRecommendations(ctx, limit)
		if err != nil {
			return nil, err
		}
		return convertLambdaAdvisories(rows), nil
	case models.ResourceEBS:
		rows, err := c.optimizer.GetEBSRecommendations(ctx, limit)
		if err != nil {
			return nil, err
		}
		return convertEBSAdvisories(rows), nil
	case models.ResourceRDS:
		rows, err := c.optimizer.GetRDSRecommendations(ctx, limit)
		if err != nil {
			return nil, err
		}
		return convertRDSAdvisories(rows), nil
	}
	// Compute Optimizer has no S3 resource class.
	return nil, nil
}

func (c *Collector) convertEC2Advisories(rows []coTypes.InstanceRecommendation) []models.Recommendation {
	recs := []models.Recommendation{}
	for _, row := range rows {
		if len(row.RecommendationOptions) == 0 {
			continue
		}
		best := row.RecommendationOptions[0]

		// An optimizer suggestion that itself violates policy is replaced
		// with a policy-safe type.
		recommendedType := aws.ToString(best.InstanceType)
		if !c.policy.IsTypeAllowed("ec2", recommendedType) {
			recommendedType = c.policy.RecommendedType("ec2", recommendedType)
		}

		recs = append(recs, models.Recommendation{
			ResourceType:            models.ResourceEC2,
			InstanceID:              idFromARN(aws.ToString(row.InstanceArn)),
			CurrentInstanceType:     aws.ToString(row.CurrentInstanceType),
			RecommendedInstanceType: recommendedType,
			EstimatedMonthlySavings: savingsAmount(best.SavingsOpportunity),
			Confidence:              fmt.Sprintf("%d", best.Rank),
			RecommendationSource:    models.SourceOptimizer,
			UtilizationMetrics:      utilizationMap(row.UtilizationMetrics),
		})
	}
	return recs
}

func convertLambdaAdvisories(rows []coTypes.LambdaFunctionRecommendation) []models.Recommendation {
	recs := []models.Recommendation{}
	for _, row := range rows {
		if len(row.MemorySizeRecommendationOptions) == 0 {
			continue
		}
		best := row.MemorySizeRecommendationOptions[0]
		recs = append(recs, models.Recommendation{
			ResourceType:            models.ResourceLambda,
			FunctionName:            idFromARN(aws.ToString(row.FunctionArn)),
			CurrentMemoryMB:         row.CurrentMemorySize,
			RecommendedMemoryMB:     best.MemorySize,
			EstimatedMonthlySavings: savingsAmount(best.SavingsOpportunity),
			Confidence:              fmt.Sprintf("%d", best.Rank),
			RecommendationSource:    models.SourceOptimizer,
		})
	}
	return recs
}

func convertEBSAdvisories(rows []coTypes.VolumeRecommendation) []models.Recommendation {
	recs := []models.Recommendation{}
	for _, row := range rows {
		if len(row.VolumeRecommendationOptions) == 0 {
			continue
		}
		best := row.VolumeRecommendationOptions[0]

		rec := models.Recommendation{
			ResourceType:            models.ResourceEBS,
			VolumeID:                idFromARN(aws.ToString(row.VolumeArn)),
			EstimatedMonthlySavings: savingsAmount(best.SavingsOpportunity),
			Confidence:              fmt.Sprintf("%d", best.Rank),
			RecommendationSource:    models.SourceOptimizer,
		}
		if row.CurrentConfiguration != nil {
			rec.CurrentVolumeType = aws.ToString(row.CurrentConfiguration.VolumeType)
		}
		if best.Configuration != nil {
			rec.RecommendedVolumeType = aws.ToString(best.Configuration.VolumeType)
			rec.SizeGB = best.Configuration.VolumeSize
		}
		recs = append(recs, rec)
	}
	return recs
}

func convertRDSAdvisories(rows []coTypes.RDSDBRecommendation) []models.Recommendation {
	recs := []models.Recommendation{}
	for _, row := range rows {
		if len(row.InstanceRecommendationOptions) == 0 {
			continue
		}
		best := row.InstanceRecommendationOptions[0]
		recs = append(recs, models.Recommendation{
			ResourceType:            models.ResourceRDS,
			DBIdentifier:            idFromARN(aws.ToString(row.ResourceArn)),
			CurrentClass:            aws.ToString(row.CurrentDBInstanceClass),
			RecommendedClass:        aws.ToString(best.DbInstanceClass),
			EstimatedMonthlySavings: savingsAmount(best.SavingsOpportunity),
			Confidence:              fmt.Sprintf("%d", best.Rank),
			RecommendationSource:    models.SourceOptimizer,
		})
	}
	return recs
}

// idFromARN extracts the resource identity from an ARN's final path
// segment.
func idFromARN(arn string) string {
	if arn == "" {
		return "N/A"
	}
	if idx := strings.LastIndexAny(arn, "/:"); idx >= 0 {
		return arn[idx+1:]
	}
	return arn
}

func savingsAmount(so *coTypes.SavingsOpportunity) money.Amount {
	if so == nil || so.EstimatedMonthlySavings == nil {
		return 0
	}
	return money.FromDollars(so.EstimatedMonthlySavings.Value)
}

func utilizationMap(metrics []coTypes.UtilizationMetric) map[string]string {
	out := map[string]string{"cpu": "0.0%", "memory": "0.0%"}
	for _, m := range metrics {
		switch m.Name {
		case coTypes.MetricNameCpu:
			out["cpu"] = fmt.Sprintf("%.1f%%", m.Value)
		case coTypes.MetricNameMemory:
			out["memory"] = fmt.Sprintf("%.1f%%", m.Value)
		}
	}
	return out
}
