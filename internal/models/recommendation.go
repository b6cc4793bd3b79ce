package models

import "github.com/brickwatch/rita/pkg/money"

// ResourceType identifies the AWS resource class a recommendation targets.
type ResourceType string

const (
	ResourceEC2    ResourceType = "EC2"
	ResourceLambda ResourceType = "Lambda"
	ResourceS3     ResourceType = "S3"
	ResourceRDS    ResourceType = "RDS"
	ResourceEBS    ResourceType = "EBS"
)

// Recommendation source labels. Exactly one applies per record: a resource
// flagged by the company policy is never duplicated by an optimizer record.
const (
	SourcePolicy    = "Company Cost Policy"
	SourceOptimizer = "Compute Optimizer"

	ConfidencePolicy = "Policy-Based"
)

// Recommendation is a proposed configuration change for a single resource.
// The populated identity/configuration fields vary by ResourceType; JSON
// field names match the wire format consumed by the UI and agent runtime.
type Recommendation struct {
	ResourceType ResourceType `json:"resource_type"`

	// EC2
	InstanceID              string `json:"instance_id,omitempty"`
	CurrentInstanceType     string `json:"current_instance_type,omitempty"`
	RecommendedInstanceType string `json:"recommended_instance_type,omitempty"`
	ViolationType           string `json:"violation_type,omitempty"`

	// Lambda
	FunctionName           string `json:"function_name,omitempty"`
	CurrentMemoryMB        int32  `json:"current_memory_mb,omitempty"`
	RecommendedMemoryMB    int32  `json:"recommended_memory_mb,omitempty"`
	CurrentConcurrency     int32  `json:"current_concurrency,omitempty"`
	RecommendedConcurrency int32  `json:"recommended_concurrency,omitempty"`

	// S3
	BucketName        string `json:"bucket_name,omitempty"`
	Issue             string `json:"issue,omitempty"`
	RecommendedAction string `json:"recommended_action,omitempty"`

	// RDS
	DBIdentifier     string `json:"db_identifier,omitempty"`
	CurrentClass     string `json:"current_class,omitempty"`
	RecommendedClass string `json:"recommended_class,omitempty"`

	// EBS
	VolumeID              string `json:"volume_id,omitempty"`
	CurrentVolumeType     string `json:"current_volume_type,omitempty"`
	RecommendedVolumeType string `json:"recommended_volume_type,omitempty"`
	SizeGB                int32  `json:"size_gb,omitempty"`

	EstimatedMonthlySavings money.Amount      `json:"estimated_monthly_savings"`
	Reason                  string            `json:"reason,omitempty"`
	Confidence              string            `json:"confidence,omitempty"`
	RecommendationSource    string            `json:"recommendation_source,omitempty"`
	Tags                    map[string]string `json:"tags,omitempty"`
	UtilizationMetrics      map[string]string `json:"utilization_metrics,omitempty"`
}

// ResourceID returns the type-appropriate identity of the target resource.
func (r Recommendation) ResourceID() string {
	switch r.ResourceType {
	case ResourceEC2:
		return r.InstanceID
	case ResourceLambda:
		return r.FunctionName
	case ResourceS3:
		return r.BucketName
	case ResourceRDS:
		return r.DBIdentifier
	case ResourceEBS:
		return r.VolumeID
	}
	return ""
}

// CollectionResult is the merged output of a recommendation scan.
type CollectionResult struct {
	Recommendations          []Recommendation `json:"recommendations"`
	PolicyViolations         int              `json:"policy_violations"`
	OptimizerRecommendations int              `json:"optimizer_recommendations"`
	TotalRecommendations     int              `json:"total_recommendations"`
	EstimatedTotalSavings    money.Amount     `json:"estimated_total_monthly_savings"`
	ResourcesScanned         map[string]int   `json:"resources_scanned"`
	RecommendationsByService map[string]int   `json:"recommendations_by_service"`
	ComplianceStatus         string           `json:"compliance_status"`
	Message                  string           `json:"message,omitempty"`
	Warnings                 []string         `json:"warnings,omitempty"`
}
