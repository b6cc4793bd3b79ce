package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// SSMAPI is the subset of Systems Manager used for parameter lookups.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// ParameterStore resolves configuration values from SSM Parameter Store.
type ParameterStore struct {
	client SSMAPI
}

// NewParameterStore creates a new ParameterStore from an AWS config.
func NewParameterStore(cfg aws.Config) *ParameterStore {
	return &ParameterStore{client: ssm.NewFromConfig(cfg)}
}

// NewParameterStoreFromAPI creates a ParameterStore around an existing API
// implementation. Intended for tests.
func NewParameterStoreFromAPI(api SSMAPI) *ParameterStore {
	return &ParameterStore{client: api}
}

// GetParameter returns a decrypted parameter value. An empty value is an
// error: callers depend on these parameters being provisioned.
func (p *ParameterStore) GetParameter(ctx context.Context, name string) (string, error) {
	result, err := p.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("error getting SSM parameter %s: %w", name, err)
	}

	value := aws.ToString(result.Parameter.Value)
	if value == "" {
		return "", fmt.Errorf("SSM parameter %s is empty", name)
	}
	return value, nil
}
