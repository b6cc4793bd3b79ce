package models

import "time"

// VolumeInfo represents an EBS volume from the inventory scan.
type VolumeInfo struct {
	VolumeID         string
	Name             string
	SizeGB           int32
	VolumeType       string
	State            string
	Region           string
	AvailabilityZone string
	CreationTime     time.Time
	Attached         bool
	Tags             map[string]string
}
