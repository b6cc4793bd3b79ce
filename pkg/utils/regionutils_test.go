package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetRegionDescriptiveName(t *testing.T) {
	assert.Equal(t, "EU (Frankfurt)", GetRegionDescriptiveName("eu-central-1"))
	assert.Equal(t, "US East (N. Virginia)", GetRegionDescriptiveName("xx-invalid-9"))
}

func TestIsValidRegion(t *testing.T) {
	assert.True(t, IsValidRegion("ap-northeast-2"))
	assert.False(t, IsValidRegion(""))
	assert.False(t, IsValidRegion("us-east"))
}

func TestGetDefaultRegionFromEnv(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-west-1")
	assert.Equal(t, "eu-west-1", GetDefaultRegion())

	t.Setenv("AWS_REGION", "")
	assert.Equal(t, "us-east-1", GetDefaultRegion())
}
