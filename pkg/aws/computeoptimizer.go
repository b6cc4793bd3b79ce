package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/computeoptimizer"
	coTypes "github.com/aws/aws-sdk-go-v2/service/computeoptimizer/types"
)

// ComputeOptimizerAPI is the subset of the Compute Optimizer service used
// for advisory rightsizing recommendations.
type ComputeOptimizerAPI interface {
	GetEC2InstanceRecommendations(ctx context.Context, params *computeoptimizer.GetEC2InstanceRecommendationsInput, optFns ...func(*computeoptimizer.Options)) (*computeoptimizer.GetEC2InstanceRecommendationsOutput, error)
	GetLambdaFunctionRecommendations(ctx context.Context, params *computeoptimizer.GetLambdaFunctionRecommendationsInput, optFns ...func(*computeoptimizer.Options)) (*computeoptimizer.GetLambdaFunctionRecommendationsOutput, error)
	GetEBSVolumeRecommendations(ctx context.Context, params *computeoptimizer.GetEBSVolumeRecommendationsInput, optFns ...func(*computeoptimizer.Options)) (*computeoptimizer.GetEBSVolumeRecommendationsOutput, error)
	GetRDSDatabaseRecommendations(ctx context.Context, params *computeoptimizer.GetRDSDatabaseRecommendationsInput, optFns ...func(*computeoptimizer.Options)) (*computeoptimizer.GetRDSDatabaseRecommendationsOutput, error)
}

// ComputeOptimizerClient struct for Compute Optimizer client
type ComputeOptimizerClient struct {
	client ComputeOptimizerAPI
}

// NewComputeOptimizerClient creates a new ComputeOptimizerClient from an
// AWS config.
func NewComputeOptimizerClient(cfg aws.Config) *ComputeOptimizerClient {
	return &ComputeOptimizerClient{client: computeoptimizer.NewFromConfig(cfg)}
}

// NewComputeOptimizerClientFromAPI creates a ComputeOptimizerClient around
// an existing API implementation. Intended for tests.
func NewComputeOptimizerClientFromAPI(api ComputeOptimizerAPI) *ComputeOptimizerClient {
	return &ComputeOptimizerClient{client: api}
}

// GetEC2Recommendations returns instance recommendations, following the
// cursor until limit rows are collected.
func (c *ComputeOptimizerClient) GetEC2Recommendations(ctx context.Context, limit int) ([]coTypes.InstanceRecommendation, error) {
	recommendations := []coTypes.InstanceRecommendation{}
	var nextToken *string

	for {
		result, err := c.client.GetEC2InstanceRecommendations(ctx, &computeoptimizer.GetEC2InstanceRecommendationsInput{
			MaxResults: aws.Int32(pageSize(limit, len(recommendations))),
			NextToken:  nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("error getting EC2 instance recommendations: %w", err)
		}

		recommendations = append(recommendations, result.InstanceRecommendations...)
		nextToken = result.NextToken
		if nextToken == nil || len(recommendations) >= limit {
			break
		}
	}

	return truncate(recommendations, limit), nil
}

// GetLambdaRecommendations returns function recommendations, following the
// cursor until limit rows are collected.
func (c *ComputeOptimizerClient) GetLambdaRecommendations(ctx context.Context, limit int) ([]coTypes.LambdaFunctionRecommendation, error) {
	recommendations := []coTypes.LambdaFunctionRecommendation{}
	var nextToken *string

	for {
		result, err := c.client.GetLambdaFunctionRecommendations(ctx, &computeoptimizer.GetLambdaFunctionRecommendationsInput{
			MaxResults: aws.Int32(pageSize(limit, len(recommendations))),
			NextToken:  nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("error getting Lambda function recommendations: %w", err)
		}

		recommendations = append(recommendations, result.LambdaFunctionRecommendations...)
		nextToken = result.NextToken
		if nextToken == nil || len(recommendations) >= limit {
			break
		}
	}

	return truncate(recommendations, limit), nil
}

// GetEBSRecommendations returns volume recommendations, following the
// cursor until limit rows are collected.
func (c *ComputeOptimizerClient) GetEBSRecommendations(ctx context.Context, limit int) ([]coTypes.VolumeRecommendation, error) {
	recommendations := []coTypes.VolumeRecommendation{}
	var nextToken *string

	for {
		result, err := c.client.GetEBSVolumeRecommendations(ctx, &computeoptimizer.GetEBSVolumeRecommendationsInput{
			MaxResults: aws.Int32(pageSize(limit, len(recommendations))),
			NextToken:  nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("error getting EBS volume recommendations: %w", err)
		}

		recommendations = append(recommendations, result.VolumeRecommendations...)
		nextToken = result.NextToken
		if nextToken == nil || len(recommendations) >= limit {
			break
		}
	}

	return truncate(recommendations, limit), nil
}

// GetRDSRecommendations returns database recommendations, following the
// cursor until limit rows are collected.
func (c *ComputeOptimizerClient) GetRDSRecommendations(ctx context.Context, limit int) ([]coTypes.RDSDBRecommendation, error) {
	recommendations := []coTypes.RDSDBRecommendation{}
	var nextToken *string

	for {
		result, err := c.client.GetRDSDatabaseRecommendations(ctx, &computeoptimizer.GetRDSDatabaseRecommendationsInput{
			MaxResults: aws.Int32(pageSize(limit, len(recommendations))),
			NextToken:  nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("error getting RDS database recommendations: %w", err)
		}

		recommendations = append(recommendations, result.RdsDBRecommendations...)
		nextToken = result.NextToken
		if nextToken == nil || len(recommendations) >= limit {
			break
		}
	}

	return truncate(recommendations, limit), nil
}

func pageSize(limit, collected int) int32 {
	remaining := limit - collected
	if remaining > 100 {
		return 100
	}
	if remaining < 1 {
		return 1
	}
	return int32(remaining)
}

func truncate[T any](rows []T, limit int) []T {
	if len(rows) > limit {
		return rows[:limit]
	}
	return rows
}
