package aws

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwTypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3Types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/brickwatch/rita/internal/models"
)

// IntelligentTieringRuleID names the lifecycle rule installed on
// non-compliant buckets.
const IntelligentTieringRuleID = "Brickwatch-IntelligentTiering"

// S3API is the subset of the S3 service used for lifecycle compliance.
type S3API interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	GetBucketLocation(ctx context.Context, params *s3.GetBucketLocationInput, optFns ...func(*s3.Options)) (*s3.GetBucketLocationOutput, error)
	GetBucketLifecycleConfiguration(ctx context.Context, params *s3.GetBucketLifecycleConfigurationInput, optFns ...func(*s3.Options)) (*s3.GetBucketLifecycleConfigurationOutput, error)
	PutBucketLifecycleConfiguration(ctx context.Context, params *s3.PutBucketLifecycleConfigurationInput, optFns ...func(*s3.Options)) (*s3.PutBucketLifecycleConfigurationOutput, error)
}

// CloudWatchAPI is the subset of CloudWatch used for storage metrics.
type CloudWatchAPI interface {
	GetMetricStatistics(ctx context.Context, params *cloudwatch.GetMetricStatisticsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error)
}

// S3Client struct for S3 client
type S3Client struct {
	client   S3API
	cwClient CloudWatchAPI
	region   string
}

// NewS3Client creates a new S3Client from an AWS config.
func NewS3Client(cfg aws.Config) *S3Client {
	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return &S3Client{
		client:   s3Client,
		cwClient: cloudwatch.NewFromConfig(cfg),
		region:   cfg.Region,
	}
}

// NewS3ClientFromAPI creates an S3Client around existing API
// implementations. Intended for tests.
func NewS3ClientFromAPI(api S3API, cw CloudWatchAPI, region string) *S3Client {
	return &S3Client{client: api, cwClient: cw, region: region}
}

// GetBuckets returns all buckets in the client's region with their lifecycle
// compliance state. Buckets that cannot be accessed are skipped.
func (c *S3Client) GetBuckets(ctx context.Context) ([]models.BucketInfo, error) {
	result, err := c.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("error listing S3 buckets: %w", err)
	}

	bucketInfos := []models.BucketInfo{}
	for _, bucket := range result.Buckets {
		name := aws.ToString(bucket.Name)

		location, err := c.getBucketRegion(ctx, name)
		if err != nil || location != c.region {
			continue
		}

		hasLifecycle, err := c.HasLifecyclePolicy(ctx, name)
		if err != nil {
			continue
		}

		info := models.BucketInfo{
			BucketName:         name,
			Region:             c.region,
			HasLifecyclePolicy: hasLifecycle,
		}
		if bucket.CreationDate != nil {
			info.CreationTime = *bucket.CreationDate
		}
		if size, err := c.GetBucketSizeBytes(ctx, name); err == nil {
			info.SizeBytes = &size
		}

		bucketInfos = append(bucketInfos, info)
	}

	return bucketInfos, nil
}

func (c *S3Client) getBucketRegion(ctx context.Context, bucketName string) (string, error) {
	location, err := c.client.GetBucketLocation(ctx, &s3.GetBucketLocationInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		return "", err
	}

	// An empty LocationConstraint means us-east-1.
	region := string(location.LocationConstraint)
	if region == "" {
		region = "us-east-1"
	}
	return region, nil
}

// HasLifecyclePolicy reports whether the bucket has any lifecycle rules.
// A NoSuchLifecycleConfiguration response means none are configured.
func (c *S3Client) HasLifecyclePolicy(ctx context.Context, bucketName string) (bool, error) {
	result, err := c.client.GetBucketLifecycleConfiguration(ctx, &s3.GetBucketLifecycleConfigurationInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchLifecycleConfiguration" {
			return false, nil
		}
		return false, fmt.Errorf("error getting lifecycle configuration of %s: %w", bucketName, err)
	}
	return len(result.Rules) > 0, nil
}

// GetBucketSizeBytes returns the bucket's average StandardStorage size over
// the last day, from the CloudWatch BucketSizeBytes metric.
func (c *S3Client) GetBucketSizeBytes(ctx context.Context, bucketName string) (float64, error) {
	now := time.Now()
	result, err := c.cwClient.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String("AWS/S3"),
		MetricName: aws.String("BucketSizeBytes"),
		Dimensions: []cwTypes.Dimension{
			{Name: aws.String("BucketName"), Value: aws.String(bucketName)},
			{Name: aws.String("StorageType"), Value: aws.String("StandardStorage")},
		},
		StartTime:  aws.Time(now.AddDate(0, 0, -1)),
		EndTime:    aws.Time(now),
		Period:     aws.Int32(86400),
		Statistics: []cwTypes.Statistic{cwTypes.StatisticAverage},
	})
	if err != nil {
		return 0, fmt.Errorf("error getting BucketSizeBytes for %s: %w", bucketName, err)
	}

	if len(result.Datapoints) == 0 {
		return 0, fmt.Errorf("no BucketSizeBytes datapoints for %s", bucketName)
	}

	return aws.ToFloat64(result.Datapoints[0].Average), nil
}

// ApplyIntelligentTiering installs a lifecycle rule that transitions all
// objects to the Intelligent-Tiering storage class immediately.
func (c *S3Client) ApplyIntelligentTiering(ctx context.Context, bucketName string) error {
	_, err := c.client.PutBucketLifecycleConfiguration(ctx, &s3.PutBucketLifecycleConfigurationInput{
		Bucket: aws.String(bucketName),
		LifecycleConfiguration: &s3Types.BucketLifecycleConfiguration{
			Rules: []s3Types.LifecycleRule{
				{
					ID:     aws.String(IntelligentTieringRuleID),
					Status: s3Types.ExpirationStatusEnabled,
					Filter: &s3Types.LifecycleRuleFilter{
						Prefix: aws.String(""),
					},
					Transitions: []s3Types.Transition{
						{
							Days:         aws.Int32(0),
							StorageClass: s3Types.TransitionStorageClassIntelligentTiering,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("error applying lifecycle policy to %s: %w", bucketName, err)
	}
	return nil
}
