package models

// RightsizingEntry is one formatted Compute Optimizer recommendation in the
// cross-class summary.
type RightsizingEntry struct {
	ResourceArn              string   `json:"resourceArn"`
	ResourceName             string   `json:"resourceName,omitempty"`
	Finding                  string   `json:"finding,omitempty"`
	CurrentConfiguration     string   `json:"currentConfiguration,omitempty"`
	RecommendedConfiguration string   `json:"recommendedConfiguration,omitempty"`
	Rank                     int32    `json:"rank,omitempty"`
	EstimatedMonthlySavings  *float64 `json:"estimatedMonthlySavings,omitempty"`
	SavingsOpportunityPct    *float64 `json:"savingsOpportunityPct,omitempty"`
}

// RightsizingSummaryStats aggregates the summary section.
type RightsizingSummaryStats struct {
	GeneratedAt                  string   `json:"generatedAt"`
	ResourceTypes                []string `json:"resourceTypes"`
	TotalRecommendations         int      `json:"totalRecommendations"`
	TotalEstimatedMonthlySavings float64  `json:"totalEstimatedMonthlySavings"`
	AverageSavingsOpportunityPct *float64 `json:"averageSavingsOpportunityPct,omitempty"`
}

// RightsizingReport is the cross-class Compute Optimizer summary response.
type RightsizingReport struct {
	Summary   RightsizingSummaryStats       `json:"summary"`
	Resources map[string][]RightsizingEntry `json:"resources"`
	Warnings  []string                      `json:"warnings,omitempty"`
}
