package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"

	"github.com/brickwatch/rita/internal/models"
)

// RDSAPI is the subset of the RDS service used for database inventory and
// rightsizing operations.
type RDSAPI interface {
	rds.DescribeDBInstancesAPIClient
	ModifyDBInstance(ctx context.Context, params *rds.ModifyDBInstanceInput, optFns ...func(*rds.Options)) (*rds.ModifyDBInstanceOutput, error)
}

// RDSClient struct for RDS client
type RDSClient struct {
	client RDSAPI
	region string
}

// NewRDSClient creates a new RDSClient from an AWS config.
func NewRDSClient(cfg aws.Config) *RDSClient {
	return &RDSClient{
		client: rds.NewFromConfig(cfg),
		region: cfg.Region,
	}
}

// NewRDSClientFromAPI creates an RDSClient around an existing API
// implementation. Intended for tests.
func NewRDSClientFromAPI(api RDSAPI, region string) *RDSClient {
	return &RDSClient{client: api, region: region}
}

// GetDBInstances returns all RDS database instances in the region.
func (c *RDSClient) GetDBInstances(ctx context.Context) ([]models.DBInstanceInfo, error) {
	instances := []models.DBInstanceInfo{}

	paginator := rds.NewDescribeDBInstancesPaginator(c.client, &rds.DescribeDBInstancesInput{})
	for paginator.HasMorePages() {
		result, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error querying RDS instances: %w", err)
		}

		for _, db := range result.DBInstances {
			info := models.DBInstanceInfo{
				DBIdentifier:    aws.ToString(db.DBInstanceIdentifier),
				Engine:          aws.ToString(db.Engine),
				InstanceClass:   aws.ToString(db.DBInstanceClass),
				Status:          aws.ToString(db.DBInstanceStatus),
				Region:          c.region,
				MultiAZ:         aws.ToBool(db.MultiAZ),
				AllocatedSizeGB: aws.ToInt32(db.AllocatedStorage),
			}
			if db.InstanceCreateTime != nil {
				info.CreationTime = *db.InstanceCreateTime
			}
			instances = append(instances, info)
		}
	}

	return instances, nil
}

// GetDBInstance returns the current class and status of a single database.
func (c *RDSClient) GetDBInstance(ctx context.Context, dbIdentifier string) (class string, status string, err error) {
	result, err := c.client.DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{
		DBInstanceIdentifier: aws.String(dbIdentifier),
	})
	if err != nil {
		return "", "", fmt.Errorf("error describing database %s: %w", dbIdentifier, err)
	}
	if len(result.DBInstances) == 0 {
		return "", "", fmt.Errorf("database %s not found", dbIdentifier)
	}

	db := result.DBInstances[0]
	return aws.ToString(db.DBInstanceClass), aws.ToString(db.DBInstanceStatus), nil
}

// ModifyDBInstanceClass changes a database's instance class immediately
// instead of waiting for the next maintenance window.
func (c *RDSClient) ModifyDBInstanceClass(ctx context.Context, dbIdentifier, instanceClass string) error {
	_, err := c.client.ModifyDBInstance(ctx, &rds.ModifyDBInstanceInput{
		DBInstanceIdentifier: aws.String(dbIdentifier),
		DBInstanceClass:      aws.String(instanceClass),
		ApplyImmediately:     aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("error modifying database %s: %w", dbIdentifier, err)
	}
	return nil
}
