package workflow

import (
	"context"
	"fmt"

	"github.com/brickwatch/rita/internal/models"
	"github.com/brickwatch/rita/pkg/executor"
)

// Step names registered for the rightsizing workflow.
const (
	StepValidateRecommendations = "validate_recommendations"
	StepApplyRightsizing        = "apply_rightsizing"
	StepVerifyOptimization      = "verify_optimization"
)

// Step is one named, composable unit of a workflow. Run reads the
// accumulated context and returns its own result map; a result with
// status "failed" stops the run.
type Step interface {
	Name() string
	Run(ctx context.Context, wc Context) Context
}

// validateStep filters out recommendations whose target resource no longer
// exists or is already in the recommended state, and refreshes each surviving
// recommendation with the server-verified current configuration.
type validateStep struct {
	exec *executor.Executor
}

func (s *validateStep) Name() string { return StepValidateRecommendations }

func (s *validateStep) Run(ctx context.Context, wc Context) Context {
	recs := wc.recommendations(KeyRecommendations)
	if recs == nil {
		return failure(fmt.Errorf("no recommendations provided"))
	}

	validated := []models.Recommendation{}
	records := []models.ExecutionRecord{}
	for i := range recs {
		rec := recs[i]
		if record := s.exec.Validate(ctx, &rec); record != nil {
			records = append(records, *record)
			continue
		}
		validated = append(validated, rec)
	}

	return Context{
		KeyStatus:         models.StatusSuccess,
		KeyValidated:      validated,
		KeyValidationRecs: records,
		"validated_count": len(validated),
		"filtered_count":  len(records),
		KeyNextStep:       StepApplyRightsizing,
	}
}

// applyStep executes each validated recommendation independently; a
// resource's failure is captured in its record and does not block siblings.
type applyStep struct {
	exec *executor.Executor
}

func (s *applyStep) Name() string { return StepApplyRightsizing }

func (s *applyStep) Run(ctx context.Context, wc Context) Context {
	recs := wc.recommendations(KeyValidated, KeyRecommendations)
	if recs == nil {
		return failure(fmt.Errorf("no validated recommendations in context"))
	}

	records := []models.ExecutionRecord{}
	for _, rec := range recs {
		records = append(records, s.exec.Apply(ctx, rec))
	}

	// Skipped and failed validations count toward the run summary too.
	all := append(wc.validationRecords(), records...)

	return Context{
		KeyStatus:        models.StatusSuccess,
		KeyExecutionRecs: records,
		KeySummary:       models.Summarize(all),
		KeyNextStep:      StepVerifyOptimization,
	}
}

// verifyStep re-reads each modified resource and confirms its live state
// matches the recommendation. Resources whose apply failed are classified
// as skipped rather than re-checked.
type verifyStep struct {
	exec *executor.Executor
}

func (s *verifyStep) Name() string { return StepVerifyOptimization }

func (s *verifyStep) Run(ctx context.Context, wc Context) Context {
	recs := wc.recommendations(KeyValidated, KeyRecommendations)
	records := wc.executionRecords()
	if recs == nil || len(records) != len(recs) {
		return failure(fmt.Errorf("no execution records in context"))
	}

	verifications := []models.VerificationRecord{}
	for i, rec := range recs {
		if records[i].Status != models.StatusSuccess {
			verifications = append(verifications, models.VerificationRecord{
				ResourceID: rec.ResourceID(),
				Status:     models.StatusSkipped,
				Reason:     "apply step did not succeed",
			})
			continue
		}
		verifications = append(verifications, s.exec.Verify(ctx, rec))
	}

	return Context{
		KeyStatus:           models.StatusSuccess,
		KeyVerificationRecs: verifications,
	}
}
