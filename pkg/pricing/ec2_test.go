package pricing

import (
	"context"
	"errors"
	"testing"

	awspricing "github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePriceJSON = `{
	"terms": {
		"OnDemand": {
			"SKU1": {
				"priceDimensions": {
					"SKU1.DIM": {
						"pricePerUnit": {"USD": "0.0416"}
					}
				}
			}
		}
	}
}`

type fakeProductsAPI struct {
	priceList []string
	err       error
	calls     int
}

func (f *fakeProductsAPI) GetProducts(ctx context.Context, params *awspricing.GetProductsInput, optFns ...func(*awspricing.Options)) (*awspricing.GetProductsOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &awspricing.GetProductsOutput{PriceList: f.priceList}, nil
}

func TestInstanceHourlyPriceCaches(t *testing.T) {
	api := &fakeProductsAPI{priceList: []string{samplePriceJSON}}
	svc := New(api)

	price, source := svc.InstanceHourlyPrice(context.Background(), "t3.medium", "us-east-1")
	require.Equal(t, string(PricingSourceAPI), source)
	assert.InDelta(t, 0.0416, price, 1e-9)

	// Second lookup must come from cache without another API call.
	price, source = svc.InstanceHourlyPrice(context.Background(), "t3.medium", "us-east-1")
	assert.Equal(t, string(PricingSourceCache), source)
	assert.InDelta(t, 0.0416, price, 1e-9)
	assert.Equal(t, 1, api.calls)

	stats := svc.APIStats()
	assert.Equal(t, 1, stats["us-east-1"]["success"])
	assert.Equal(t, 1, stats["us-east-1"]["cache"])
}

func TestInstanceHourlyPriceAPIFailure(t *testing.T) {
	svc := New(&fakeProductsAPI{err: errors.New("throttled")})

	price, source := svc.InstanceHourlyPrice(context.Background(), "t3.micro", "us-west-2")
	assert.Equal(t, string(PricingSourceNA), source)
	assert.Zero(t, price)
	assert.Equal(t, 1, svc.APIStats()["us-west-2"]["failure"])
}

func TestInstanceMonthlyCost(t *testing.T) {
	svc := New(&fakeProductsAPI{priceList: []string{samplePriceJSON}})

	monthly, source := svc.InstanceMonthlyCost(context.Background(), "t3.medium", "us-east-1")
	assert.Equal(t, string(PricingSourceAPI), source)
	assert.InDelta(t, 0.0416*MonthlyHours, monthly, 1e-6)
}

func TestExtractOnDemandPriceMalformed(t *testing.T) {
	_, err := ExtractOnDemandPrice(`{"terms": {}}`)
	assert.Error(t, err)
}
