package models

import "time"

// BucketInfo represents an S3 bucket's lifecycle compliance state.
type BucketInfo struct {
	BucketName   string
	Region       string
	CreationTime time.Time

	HasLifecyclePolicy bool

	// SizeBytes is the bucket's average StandardStorage size over the
	// last day, from CloudWatch. Nil when the metric is unavailable.
	SizeBytes *float64
}
