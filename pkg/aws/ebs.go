package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/brickwatch/rita/internal/models"
	"github.com/brickwatch/rita/pkg/utils"
)

// EBSAPI is the subset of the EC2 service used for volume inventory and
// modification.
type EBSAPI interface {
	DescribeVolumes(ctx context.Context, params *ec2.DescribeVolumesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeVolumesOutput, error)
	ModifyVolume(ctx context.Context, params *ec2.ModifyVolumeInput, optFns ...func(*ec2.Options)) (*ec2.ModifyVolumeOutput, error)
}

// EBSClient struct for EBS client
type EBSClient struct {
	client EBSAPI
	region string
}

// NewEBSClient creates a new EBSClient from an AWS config.
func NewEBSClient(cfg aws.Config) *EBSClient {
	return &EBSClient{
		client: ec2.NewFromConfig(cfg),
		region: cfg.Region,
	}
}

// NewEBSClientFromAPI creates an EBSClient around an existing API
// implementation. Intended for tests.
func NewEBSClientFromAPI(api EBSAPI, region string) *EBSClient {
	return &EBSClient{client: api, region: region}
}

// GetVolumes returns all EBS volumes in the region.
func (c *EBSClient) GetVolumes(ctx context.Context) ([]models.VolumeInfo, error) {
	result, err := c.client.DescribeVolumes(ctx, &ec2.DescribeVolumesInput{})
	if err != nil {
		return nil, fmt.Errorf("error querying EBS volumes: %w", err)
	}

	volumes := []models.VolumeInfo{}
	for _, volume := range result.Volumes {
		info := models.VolumeInfo{
			VolumeID:         aws.ToString(volume.VolumeId),
			Name:             utils.GetName(volume.Tags),
			SizeGB:           aws.ToInt32(volume.Size),
			VolumeType:       string(volume.VolumeType),
			State:            string(volume.State),
			Region:           c.region,
			AvailabilityZone: aws.ToString(volume.AvailabilityZone),
			Attached:         len(volume.Attachments) > 0,
			Tags:             utils.GetTagsMap(volume.Tags),
		}
		if volume.CreateTime != nil {
			info.CreationTime = *volume.CreateTime
		}
		volumes = append(volumes, info)
	}

	return volumes, nil
}

// GetVolume returns the current type, size, and state of a single volume.
func (c *EBSClient) GetVolume(ctx context.Context, volumeID string) (*models.VolumeInfo, error) {
	result, err := c.client.DescribeVolumes(ctx, &ec2.DescribeVolumesInput{
		VolumeIds: []string{volumeID},
	})
	if err != nil {
		return nil, fmt.Errorf("error describing volume %s: %w", volumeID, err)
	}
	if len(result.Volumes) == 0 {
		return nil, fmt.Errorf("volume %s not found", volumeID)
	}

	volume := result.Volumes[0]
	return &models.VolumeInfo{
		VolumeID:   aws.ToString(volume.VolumeId),
		SizeGB:     aws.ToInt32(volume.Size),
		VolumeType: string(volume.VolumeType),
		State:      string(volume.State),
		Region:     c.region,
		Attached:   len(volume.Attachments) > 0,
	}, nil
}

// ModifyVolumeType changes a volume's type and, when sizeGB is positive,
// its size. EBS volume modifications apply without detaching.
func (c *EBSClient) ModifyVolumeType(ctx context.Context, volumeID, volumeType string, sizeGB int32) error {
	input := &ec2.ModifyVolumeInput{
		VolumeId:   aws.String(volumeID),
		VolumeType: types.VolumeType(volumeType),
	}
	if sizeGB > 0 {
		input.Size = aws.Int32(sizeGB)
	}

	_, err := c.client.ModifyVolume(ctx, input)
	if err != nil {
		return fmt.Errorf("error modifying volume %s: %w", volumeID, err)
	}
	return nil
}
