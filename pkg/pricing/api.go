package pricing

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/aws-sdk-go-v2/service/pricing/types"
)

// ProductsAPI is the subset of the AWS Pricing API the service depends on.
type ProductsAPI interface {
	GetProducts(ctx context.Context, params *pricing.GetProductsInput, optFns ...func(*pricing.Options)) (*pricing.GetProductsOutput, error)
}

// Service looks up on-demand prices through the AWS Pricing API with an
// in-memory cache and per-region call statistics.
type Service struct {
	client ProductsAPI

	mu    sync.RWMutex
	cache map[string]float64
	stats map[string]map[string]int // region -> {success, failure, cache}
}

// New creates a pricing service around an existing Pricing API client.
func New(client ProductsAPI) *Service {
	return &Service{
		client: client,
		cache:  make(map[string]float64),
		stats:  make(map[string]map[string]int),
	}
}

// NewFromDefaultConfig creates a pricing service with a client in us-east-1.
// The AWS Pricing API is only available in us-east-1 and ap-south-1.
func NewFromDefaultConfig(ctx context.Context) (*Service, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion("us-east-1"))
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config for pricing API: %w", err)
	}
	return New(pricing.NewFromConfig(cfg)), nil
}

// getPriceFromAPI fetches the first matching price list entry for a service
// code and filter set.
func (s *Service) getPriceFromAPI(ctx context.Context, serviceCode string, filters []types.Filter, resourceType, region string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("AWS pricing client not initialized")
	}

	input := &pricing.GetProductsInput{
		ServiceCode: aws.String(serviceCode),
		Filters:     filters,
		MaxResults:  aws.Int32(1),
	}

	resp, err := s.client.GetProducts(ctx, input)
	if err != nil {
		return "", fmt.Errorf("error calling AWS Pricing API: %w", err)
	}

	if len(resp.PriceList) == 0 {
		return "", fmt.Errorf("no pricing found for %s in region %s", resourceType, region)
	}

	return resp.PriceList[0], nil
}

func (s *Service) recordStat(region, statType string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.stats[region]; !exists {
		s.stats[region] = map[string]int{
			"success": 0,
			"failure": 0,
			"cache":   0,
		}
	}
	s.stats[region][statType]++
}

// APIStats returns a copy of the current pricing API statistics by region.
func (s *Service) APIStats() map[string]map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statsCopy := make(map[string]map[string]int, len(s.stats))
	for region, stats := range s.stats {
		statsCopy[region] = make(map[string]int, len(stats))
		for key, value := range stats {
			statsCopy[region][key] = value
		}
	}
	return statsCopy
}
