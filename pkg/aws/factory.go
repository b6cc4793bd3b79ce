package aws

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// Environment variables naming the IAM roles for the two privilege tiers.
// When unset, the default credential chain is used directly.
const (
	EnvReadRoleARN     = "READ_ROLE_ARN"
	EnvExecutorRoleARN = "EXECUTOR_ROLE_ARN"
)

// ConfigFactory builds AWS configs for the read-only and executor privilege
// tiers. Read-path clients (Cost Explorer, Compute Optimizer, inventory
// scans) assume the read role; mutating clients assume the executor role.
// Configs are cached per region and role.
type ConfigFactory struct {
	mu    sync.Mutex
	cache map[string]aws.Config
}

// NewConfigFactory creates an empty factory.
func NewConfigFactory() *ConfigFactory {
	return &ConfigFactory{cache: make(map[string]aws.Config)}
}

// ReadConfig returns a config with read-tier credentials for the region.
func (f *ConfigFactory) ReadConfig(ctx context.Context, region string) (aws.Config, error) {
	return f.load(ctx, region, os.Getenv(EnvReadRoleARN))
}

// ExecutorConfig returns a config with executor-tier credentials for the
// region.
func (f *ConfigFactory) ExecutorConfig(ctx context.Context, region string) (aws.Config, error) {
	return f.load(ctx, region, os.Getenv(EnvExecutorRoleARN))
}

func (f *ConfigFactory) load(ctx context.Context, region, roleARN string) (aws.Config, error) {
	key := region + "|" + roleARN

	f.mu.Lock()
	defer f.mu.Unlock()

	if cfg, ok := f.cache[key]; ok {
		return cfg, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("error loading AWS config: %w", err)
	}

	if roleARN != "" {
		stsClient := sts.NewFromConfig(cfg)
		provider := stscreds.NewAssumeRoleProvider(stsClient, roleARN)
		cfg.Credentials = aws.NewCredentialsCache(provider)
	}

	f.cache[key] = cfg
	return cfg, nil
}
