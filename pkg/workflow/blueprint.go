package workflow

import (
	"fmt"
	"strings"

	"github.com/brickwatch/rita/pkg/executor"
)

// ActionOptimizeInstances is the primary rightsizing action; "rightsizing"
// is accepted as an alias.
const (
	ActionOptimizeInstances = "optimize_existing_instances"
	ActionRightsizing       = "rightsizing"
)

// Registry holds the known steps and the actions composed from them. Step
// names are resolved when a blueprint is built, so an unknown step or action
// is rejected before anything runs.
type Registry struct {
	steps   map[string]Step
	actions map[string][]string
}

// NewRegistry builds a registry with the standard rightsizing steps and
// actions bound to the given executor.
func NewRegistry(exec *executor.Executor) *Registry {
	r := &Registry{
		steps:   map[string]Step{},
		actions: map[string][]string{},
	}
	r.Register(&validateStep{exec: exec})
	r.Register(&applyStep{exec: exec})
	r.Register(&verifyStep{exec: exec})

	rightsizing := []string{StepValidateRecommendations, StepApplyRightsizing, StepVerifyOptimization}
	r.actions[ActionOptimizeInstances] = rightsizing
	r.actions[ActionRightsizing] = rightsizing
	return r
}

// Register adds or replaces a step under its own name.
func (r *Registry) Register(step Step) {
	r.steps[step.Name()] = step
}

// RegisterAction binds an action name to an ordered step list. Unknown step
// names are rejected here rather than at run time.
func (r *Registry) RegisterAction(action string, stepNames []string) error {
	if len(stepNames) == 0 {
		return fmt.Errorf("action %q has no steps", action)
	}
	for _, name := range stepNames {
		if _, ok := r.steps[name]; !ok {
			return fmt.Errorf("unknown workflow step %q", name)
		}
	}
	r.actions[normalizeAction(action)] = stepNames
	return nil
}

// Blueprint is an immutable ordered step sequence for one action.
type Blueprint struct {
	Action string
	Steps  []Step
}

// StepNames lists the blueprint's steps in execution order.
func (b *Blueprint) StepNames() []string {
	names := make([]string, len(b.Steps))
	for i, step := range b.Steps {
		names[i] = step.Name()
	}
	return names
}

// Blueprint resolves an action name to its step sequence.
func (r *Registry) Blueprint(action string) (*Blueprint, error) {
	key := normalizeAction(action)
	names, ok := r.actions[key]
	if !ok {
		return nil, fmt.Errorf("unknown workflow action %q", action)
	}

	steps := make([]Step, len(names))
	for i, name := range names {
		step, ok := r.steps[name]
		if !ok {
			return nil, fmt.Errorf("unknown workflow step %q", name)
		}
		steps[i] = step
	}
	return &Blueprint{Action: key, Steps: steps}, nil
}

func normalizeAction(action string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(action), "-", "_"))
}
