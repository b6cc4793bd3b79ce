package utils

import "os"

// regionNames maps AWS region codes to the descriptive names the Pricing
// API expects as location filter values.
var regionNames = map[string]string{
	"us-east-1":      "US East (N. Virginia)",
	"us-east-2":      "US East (Ohio)",
	"us-west-1":      "US West (N. California)",
	"us-west-2":      "US West (Oregon)",
	"af-south-1":     "Africa (Cape Town)",
	"ap-east-1":      "Asia Pacific (Hong Kong)",
	"ap-south-1":     "Asia Pacific (Mumbai)",
	"ap-northeast-1": "Asia Pacific (Tokyo)",
	"ap-northeast-2": "Asia Pacific (Seoul)",
	"ap-northeast-3": "Asia Pacific (Osaka)",
	"ap-southeast-1": "Asia Pacific (Singapore)",
	"ap-southeast-2": "Asia Pacific (Sydney)",
	"ca-central-1":   "Canada (Central)",
	"eu-central-1":   "EU (Frankfurt)",
	"eu-west-1":      "EU (Ireland)",
	"eu-west-2":      "EU (London)",
	"eu-west-3":      "EU (Paris)",
	"eu-north-1":     "EU (Stockholm)",
	"eu-south-1":     "EU (Milan)",
	"me-south-1":     "Middle East (Bahrain)",
	"sa-east-1":      "South America (Sao Paulo)",
}

// GetRegionDescriptiveName returns the Pricing API location name for a
// region code. Unknown codes fall back to US East so a price lookup still
// returns something rather than an empty filter.
func GetRegionDescriptiveName(region string) string {
	if name, ok := regionNames[region]; ok {
		return name
	}
	return "US East (N. Virginia)"
}

// IsValidRegion reports whether the region code is one this tool can scan.
func IsValidRegion(region string) bool {
	_, ok := regionNames[region]
	return ok
}

// GetDefaultRegion returns AWS_REGION when set, otherwise us-east-1.
func GetDefaultRegion() string {
	if region := os.Getenv("AWS_REGION"); region != "" {
		return region
	}
	return "us-east-1"
}
