package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/pricing/types"

	"github.com/brickwatch/rita/pkg/utils"
)

// InstanceHourlyPrice returns the on-demand hourly price for an EC2 instance
// type and the source of the pricing ("API", "Cache", or "N/A").
func (s *Service) InstanceHourlyPrice(ctx context.Context, instanceType, region string) (float64, string) {
	cacheKey := fmt.Sprintf("%s:%s", region, instanceType)

	s.mu.RLock()
	price, exists := s.cache[cacheKey]
	s.mu.RUnlock()
	if exists {
		s.recordStat(region, "cache")
		return price, string(PricingSourceCache)
	}

	price, err := s.ec2PriceFromAPI(ctx, instanceType, region)
	if err != nil {
		s.recordStat(region, "failure")
		return 0, string(PricingSourceNA)
	}

	s.recordStat(region, "success")
	s.mu.Lock()
	s.cache[cacheKey] = price
	s.mu.Unlock()

	return price, string(PricingSourceAPI)
}

// InstanceMonthlyCost returns the estimated on-demand monthly cost for an
// instance type and the source of the pricing.
func (s *Service) InstanceMonthlyCost(ctx context.Context, instanceType, region string) (float64, string) {
	hourlyPrice, source := s.InstanceHourlyPrice(ctx, instanceType, region)
	if source == string(PricingSourceNA) {
		return 0, string(PricingSourceNA)
	}
	return hourlyPrice * MonthlyHours, source
}

// ec2PriceFromAPI retrieves Linux on-demand pricing for a shared-tenancy
// instance from the AWS Pricing API.
func (s *Service) ec2PriceFromAPI(ctx context.Context, instanceType, region string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filters := []types.Filter{
		{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String("instanceType"),
			Value: aws.String(instanceType),
		},
		{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String("location"),
			Value: aws.String(utils.GetRegionDescriptiveName(region)),
		},
		{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String("operatingSystem"),
			Value: aws.String("Linux"),
		},
		{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String("tenancy"),
			Value: aws.String("Shared"),
		},
		{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String("preInstalledSw"),
			Value: aws.String("NA"),
		},
		{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String("capacitystatus"),
			Value: aws.String("Used"),
		},
	}

	priceJSON, err := s.getPriceFromAPI(ctx, "AmazonEC2", filters, instanceType, region)
	if err != nil {
		return 0, err
	}

	return ExtractOnDemandPrice(priceJSON)
}
