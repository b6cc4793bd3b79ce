package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"

	"github.com/brickwatch/rita/internal/models"
)

// LambdaAPI is the subset of the Lambda service used for function inventory
// and rightsizing operations.
type LambdaAPI interface {
	lambda.ListFunctionsAPIClient
	GetFunctionConcurrency(ctx context.Context, params *lambda.GetFunctionConcurrencyInput, optFns ...func(*lambda.Options)) (*lambda.GetFunctionConcurrencyOutput, error)
	GetFunctionConfiguration(ctx context.Context, params *lambda.GetFunctionConfigurationInput, optFns ...func(*lambda.Options)) (*lambda.GetFunctionConfigurationOutput, error)
	UpdateFunctionConfiguration(ctx context.Context, params *lambda.UpdateFunctionConfigurationInput, optFns ...func(*lambda.Options)) (*lambda.UpdateFunctionConfigurationOutput, error)
	PutFunctionConcurrency(ctx context.Context, params *lambda.PutFunctionConcurrencyInput, optFns ...func(*lambda.Options)) (*lambda.PutFunctionConcurrencyOutput, error)
}

// LambdaClient struct for Lambda client
type LambdaClient struct {
	client LambdaAPI
	region string
}

// NewLambdaClient creates a new LambdaClient from an AWS config.
func NewLambdaClient(cfg aws.Config) *LambdaClient {
	return &LambdaClient{
		client: lambda.NewFromConfig(cfg),
		region: cfg.Region,
	}
}

// NewLambdaClientFromAPI creates a LambdaClient around an existing API
// implementation. Intended for tests.
func NewLambdaClientFromAPI(api LambdaAPI, region string) *LambdaClient {
	return &LambdaClient{client: api, region: region}
}

// GetFunctions returns all Lambda functions in the region with their
// reserved concurrency settings.
func (c *LambdaClient) GetFunctions(ctx context.Context) ([]models.LambdaFunctionInfo, error) {
	functions := []models.LambdaFunctionInfo{}

	paginator := lambda.NewListFunctionsPaginator(c.client, &lambda.ListFunctionsInput{})
	for paginator.HasMorePages() {
		result, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error listing Lambda functions: %w", err)
		}

		for _, fn := range result.Functions {
			info := models.LambdaFunctionInfo{
				FunctionName: aws.ToString(fn.FunctionName),
				Runtime:      string(fn.Runtime),
				Region:       c.region,
				MemorySize:   aws.ToInt32(fn.MemorySize),
				Timeout:      aws.ToInt32(fn.Timeout),
			}

			if fn.LastModified != nil {
				if t, err := time.Parse("2006-01-02T15:04:05.000-0700", *fn.LastModified); err == nil {
					info.LastModified = &t
				}
			}

			// Reserved concurrency is not part of the list response.
			conc, err := c.client.GetFunctionConcurrency(ctx, &lambda.GetFunctionConcurrencyInput{
				FunctionName: fn.FunctionName,
			})
			if err == nil {
				info.ReservedConcurrency = conc.ReservedConcurrentExecutions
			}

			functions = append(functions, info)
		}
	}

	return functions, nil
}

// GetFunctionMemory returns the current memory allocation of a function.
func (c *LambdaClient) GetFunctionMemory(ctx context.Context, functionName string) (int32, error) {
	cfg, err := c.client.GetFunctionConfiguration(ctx, &lambda.GetFunctionConfigurationInput{
		FunctionName: aws.String(functionName),
	})
	if err != nil {
		return 0, fmt.Errorf("error getting configuration of %s: %w", functionName, err)
	}
	return aws.ToInt32(cfg.MemorySize), nil
}

// UpdateFunctionMemory changes a function's memory allocation.
func (c *LambdaClient) UpdateFunctionMemory(ctx context.Context, functionName string, memoryMB int32) error {
	_, err := c.client.UpdateFunctionConfiguration(ctx, &lambda.UpdateFunctionConfigurationInput{
		FunctionName: aws.String(functionName),
		MemorySize:   aws.Int32(memoryMB),
	})
	if err != nil {
		return fmt.Errorf("error updating memory of %s: %w", functionName, err)
	}
	return nil
}

// SetReservedConcurrency caps a function's reserved concurrent executions.
func (c *LambdaClient) SetReservedConcurrency(ctx context.Context, functionName string, concurrency int32) error {
	_, err := c.client.PutFunctionConcurrency(ctx, &lambda.PutFunctionConcurrencyInput{
		FunctionName:                 aws.String(functionName),
		ReservedConcurrentExecutions: aws.Int32(concurrency),
	})
	if err != nil {
		return fmt.Errorf("error setting reserved concurrency of %s: %w", functionName, err)
	}
	return nil
}
