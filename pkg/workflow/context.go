// Package workflow runs ordered sequences of named optimization steps,
// threading a shared context map forward and stopping at the first failed
// step.
package workflow

import (
	"github.com/brickwatch/rita/internal/models"
)

// Context keys shared between steps.
const (
	KeyStatus           = "status"
	KeyError            = "error"
	KeyNextStep         = "next_step"
	KeyRecommendations  = "recommendations"
	KeyValidated        = "validated_recommendations"
	KeyValidationRecs   = "validation_records"
	KeyExecutionRecs    = "execution_records"
	KeyVerificationRecs = "verification_records"
	KeySummary          = "summary"
)

// Context is the mutable accumulator threaded through one workflow run.
// Each step's output is merged into it for the next step to consume; it is
// owned by a single run and never shared.
type Context map[string]any

func (c Context) clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

func (c Context) merge(other Context) {
	for k, v := range other {
		c[k] = v
	}
}

// Status reads the conventional "status" key.
func (c Context) Status() string {
	s, _ := c[KeyStatus].(string)
	return s
}

func (c Context) recommendations(keys ...string) []models.Recommendation {
	for _, key := range keys {
		if recs, ok := c[key].([]models.Recommendation); ok {
			return recs
		}
	}
	return nil
}

func (c Context) executionRecords() []models.ExecutionRecord {
	records, _ := c[KeyExecutionRecs].([]models.ExecutionRecord)
	return records
}

func (c Context) validationRecords() []models.ExecutionRecord {
	records, _ := c[KeyValidationRecs].([]models.ExecutionRecord)
	return records
}

func failure(err error) Context {
	return Context{
		KeyStatus: models.StatusFailed,
		KeyError:  err.Error(),
	}
}
