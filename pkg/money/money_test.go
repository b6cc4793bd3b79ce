package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Amount
	}{
		{"$12.34", 1234},
		{"$1,234.00", 123400},
		{"$20.00/month", 2000},
		{"5", 500},
		{" $0.00 ", 0},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"", "$", "abc"} {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "$5.00", FromDollars(5).String())
	assert.Equal(t, "$49.50", Amount(4950).String())
}

func TestClamp(t *testing.T) {
	assert.Equal(t, FromDollars(5), FromDollars(2).Clamp(FromDollars(5), FromDollars(100)))
	assert.Equal(t, FromDollars(100), FromDollars(250).Clamp(FromDollars(5), FromDollars(100)))
	assert.Equal(t, FromDollars(40), FromDollars(40).Clamp(FromDollars(5), FromDollars(100)))
}

func TestJSONRoundTrip(t *testing.T) {
	b, err := json.Marshal(FromDollars(12.34))
	require.NoError(t, err)
	assert.Equal(t, `"$12.34"`, string(b))

	var a Amount
	require.NoError(t, json.Unmarshal([]byte(`"$50.00"`), &a))
	assert.Equal(t, FromDollars(50), a)

	require.NoError(t, json.Unmarshal([]byte(`12.5`), &a))
	assert.Equal(t, Amount(1250), a)
}
