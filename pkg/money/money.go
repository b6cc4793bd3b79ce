// Package money provides an integer-cents amount type for savings and
// spend figures. Amounts serialize as currency-formatted strings
// ("$12.34") for compatibility with the UI and the agent runtime, but
// all arithmetic stays in cents.
package money

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Amount is a USD amount in cents.
type Amount int64

// FromDollars converts a float dollar value to cents, rounding half away
// from zero.
func FromDollars(d float64) Amount {
	return Amount(math.Round(d * 100))
}

// Dollars returns the amount as a float dollar value.
func (a Amount) Dollars() float64 {
	return float64(a) / 100
}

// String formats the amount as "$12.34".
func (a Amount) String() string {
	return fmt.Sprintf("$%.2f", a.Dollars())
}

// Clamp bounds the amount to the [lo, hi] range.
func (a Amount) Clamp(lo, hi Amount) Amount {
	if a < lo {
		return lo
	}
	if a > hi {
		return hi
	}
	return a
}

// Parse accepts currency-formatted strings as produced by this package
// and by the legacy runtime: "$12.34", "$1,234.00", "$20.00/month",
// or a bare number.
func Parse(s string) (Amount, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimSuffix(cleaned, "/month")
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, fmt.Errorf("empty amount %q", s)
	}
	d, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return FromDollars(d), nil
}

// MarshalJSON emits the formatted string form.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts either the formatted string form or a bare JSON
// number (dollars).
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, perr := Parse(s)
		if perr != nil {
			return perr
		}
		*a = parsed
		return nil
	}
	var d float64
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("amount must be a string or number: %w", err)
	}
	*a = FromDollars(d)
	return nil
}
