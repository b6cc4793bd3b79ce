package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brickwatch/rita/internal/models"
)

// StateMachineInProcess marks results produced by the in-process runner, as
// opposed to an external state machine execution.
const StateMachineInProcess = "in-process-execution"

// Result is the outcome of one workflow run. Steps holds each step's result
// under its name plus the run-level status and message.
type Result struct {
	ExecutionID     string         `json:"id"`
	Action          string         `json:"action"`
	Status          string         `json:"status"`
	Message         string         `json:"message"`
	StateMachineArn string         `json:"stateMachineArn"`
	ScheduleName    string         `json:"scheduleName,omitempty"`
	Steps           Context        `json:"workflow"`
	Payload         map[string]any `json:"payload"`
}

// Runner executes blueprints resolved from a registry.
type Runner struct {
	registry *Registry
	logger   *slog.Logger
	now      func() time.Time
}

func NewRunner(registry *Registry, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{registry: registry, logger: logger, now: time.Now}
}

// Run executes the named action's steps in order against the given input
// context. Step failures and unknown actions come back as failed results,
// never as errors; the caller always receives a serializable Result.
func (r *Runner) Run(ctx context.Context, action string, input Context) *Result {
	executionID := "run-" + shortID()

	blueprint, err := r.registry.Blueprint(action)
	if err != nil {
		r.logger.Error("workflow rejected", "action", action, "error", err)
		return &Result{
			ExecutionID:     "failed-" + shortID(),
			Action:          normalizeAction(action),
			Status:          models.StatusFailed,
			Message:         err.Error(),
			StateMachineArn: StateMachineInProcess,
		}
	}

	r.logger.Info("workflow starting",
		"execution_id", executionID,
		"action", blueprint.Action,
		"steps", len(blueprint.Steps),
	)

	stepContext := input.clone()
	results := Context{}
	status := models.StatusCompleted
	message := "Workflow completed successfully"

	for _, step := range blueprint.Steps {
		r.logger.Info("executing step", "execution_id", executionID, "step", step.Name())

		out := step.Run(ctx, stepContext)
		results[step.Name()] = out
		stepContext.merge(out)

		if out.Status() == models.StatusFailed {
			stepErr, _ := out[KeyError].(string)
			r.logger.Error("step failed",
				"execution_id", executionID,
				"step", step.Name(),
				"error", stepErr,
			)
			status = models.StatusFailed
			message = fmt.Sprintf("Workflow failed at step: %s", step.Name())
			break
		}
	}

	results[KeyStatus] = status
	results["message"] = message

	return &Result{
		ExecutionID:     executionID,
		Action:          blueprint.Action,
		Status:          status,
		Message:         message,
		StateMachineArn: StateMachineInProcess,
		Steps:           results,
		Payload: map[string]any{
			"action":      blueprint.Action,
			"context":     input,
			"steps":       blueprint.StepNames(),
			"workflow":    results,
			"requestedAt": r.now().UTC().Format(time.RFC3339),
		},
	}
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
