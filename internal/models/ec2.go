package models

import "time"

// InstanceInfo represents a running EC2 instance from the inventory scan,
// before policy evaluation.
type InstanceInfo struct {
	InstanceID           string
	Name                 string
	InstanceType         string
	State                string
	Region               string
	AvailabilityZone     string
	LaunchTime           time.Time
	Tags                 map[string]string
	EstimatedMonthlyCost float64
	PricingSource        string // "API", "Cache", or "N/A"
}
