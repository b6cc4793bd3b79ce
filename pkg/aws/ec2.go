package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/brickwatch/rita/internal/models"
	"github.com/brickwatch/rita/pkg/utils"
)

// EC2API is the subset of the EC2 service used for instance inventory and
// rightsizing operations.
type EC2API interface {
	ec2.DescribeInstancesAPIClient
	StopInstances(ctx context.Context, params *ec2.StopInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error)
	StartInstances(ctx context.Context, params *ec2.StartInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error)
	ModifyInstanceAttribute(ctx context.Context, params *ec2.ModifyInstanceAttributeInput, optFns ...func(*ec2.Options)) (*ec2.ModifyInstanceAttributeOutput, error)
}

// WaiterConfig controls how long state-change waiters poll.
type WaiterConfig struct {
	Delay       time.Duration
	MaxAttempts int
}

// DefaultWaiterConfig polls every 10 seconds for up to 30 attempts, matching
// the worst observed stop/start latency for large instance types.
var DefaultWaiterConfig = WaiterConfig{Delay: 10 * time.Second, MaxAttempts: 30}

func (w WaiterConfig) maxWait() time.Duration {
	return w.Delay * time.Duration(w.MaxAttempts)
}

// EC2Client struct for EC2 client
type EC2Client struct {
	client EC2API
	region string
	waiter WaiterConfig
}

// NewEC2Client creates a new EC2Client from an AWS config.
func NewEC2Client(cfg aws.Config) *EC2Client {
	return &EC2Client{
		client: ec2.NewFromConfig(cfg),
		region: cfg.Region,
		waiter: DefaultWaiterConfig,
	}
}

// NewEC2ClientFromAPI creates an EC2Client around an existing API
// implementation. Intended for tests.
func NewEC2ClientFromAPI(api EC2API, region string) *EC2Client {
	return &EC2Client{client: api, region: region, waiter: DefaultWaiterConfig}
}

// SetWaiterConfig overrides the polling behavior of state-change waiters.
func (c *EC2Client) SetWaiterConfig(w WaiterConfig) {
	c.waiter = w
}

// GetRunningInstances returns all EC2 instances in the running state.
func (c *EC2Client) GetRunningInstances(ctx context.Context) ([]models.InstanceInfo, error) {
	filter := types.Filter{
		Name:   aws.String("instance-state-name"),
		Values: []string{"running"},
	}

	input := &ec2.DescribeInstancesInput{
		Filters: []types.Filter{filter},
	}

	instances := []models.InstanceInfo{}

	paginator := ec2.NewDescribeInstancesPaginator(c.client, input)
	for paginator.HasMorePages() {
		result, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error querying EC2 instances: %w", err)
		}

		for _, reservation := range result.Reservations {
			for _, instance := range reservation.Instances {
				instances = append(instances, models.InstanceInfo{
					InstanceID:       *instance.InstanceId,
					Name:             utils.GetName(instance.Tags),
					InstanceType:     string(instance.InstanceType),
					State:            string(instance.State.Name),
					Region:           c.region,
					AvailabilityZone: *instance.Placement.AvailabilityZone,
					LaunchTime:       *instance.LaunchTime,
					Tags:             utils.GetTagsMap(instance.Tags),
					PricingSource:    "N/A",
				})
			}
		}
	}

	return instances, nil
}

// GetInstance returns the current state and type of a single instance.
func (c *EC2Client) GetInstance(ctx context.Context, instanceID string) (state string, instanceType string, err error) {
	result, err := c.client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return "", "", fmt.Errorf("error describing instance %s: %w", instanceID, err)
	}

	for _, reservation := range result.Reservations {
		for _, instance := range reservation.Instances {
			return string(instance.State.Name), string(instance.InstanceType), nil
		}
	}

	return "", "", fmt.Errorf("instance %s not found", instanceID)
}

// StopInstance issues a stop and waits until the instance reaches stopped.
func (c *EC2Client) StopInstance(ctx context.Context, instanceID string) error {
	_, err := c.client.StopInstances(ctx, &ec2.StopInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return fmt.Errorf("error stopping instance %s: %w", instanceID, err)
	}

	waiter := ec2.NewInstanceStoppedWaiter(c.client, func(o *ec2.InstanceStoppedWaiterOptions) {
		o.MinDelay = c.waiter.Delay
		o.MaxDelay = c.waiter.Delay
	})
	input := &ec2.DescribeInstancesInput{InstanceIds: []string{instanceID}}
	if err := waiter.Wait(ctx, input, c.waiter.maxWait()); err != nil {
		return fmt.Errorf("timed out waiting for instance %s to stop: %w", instanceID, err)
	}
	return nil
}

// ModifyInstanceType changes the instance type of a stopped instance.
func (c *EC2Client) ModifyInstanceType(ctx context.Context, instanceID, instanceType string) error {
	_, err := c.client.ModifyInstanceAttribute(ctx, &ec2.ModifyInstanceAttributeInput{
		InstanceId: aws.String(instanceID),
		InstanceType: &types.AttributeValue{
			Value: aws.String(instanceType),
		},
	})
	if err != nil {
		return fmt.Errorf("error modifying instance type of %s: %w", instanceID, err)
	}
	return nil
}

// StartInstance issues a start and waits until the instance is running.
func (c *EC2Client) StartInstance(ctx context.Context, instanceID string) error {
	_, err := c.client.StartInstances(ctx, &ec2.StartInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return fmt.Errorf("error starting instance %s: %w", instanceID, err)
	}

	waiter := ec2.NewInstanceRunningWaiter(c.client, func(o *ec2.InstanceRunningWaiterOptions) {
		o.MinDelay = c.waiter.Delay
		o.MaxDelay = c.waiter.Delay
	})
	input := &ec2.DescribeInstancesInput{InstanceIds: []string{instanceID}}
	if err := waiter.Wait(ctx, input, c.waiter.maxWait()); err != nil {
		return fmt.Errorf("timed out waiting for instance %s to start: %w", instanceID, err)
	}
	return nil
}
