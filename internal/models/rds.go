package models

import "time"

// DBInstanceInfo represents an RDS database instance from the inventory scan.
type DBInstanceInfo struct {
	DBIdentifier    string
	Engine          string
	InstanceClass   string
	Status          string
	Region          string
	MultiAZ         bool
	AllocatedSizeGB int32
	CreationTime    time.Time
	Tags            map[string]string
}
