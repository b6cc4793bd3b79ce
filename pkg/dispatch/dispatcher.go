// Package dispatch accepts batches of recommendations, answers immediately
// with a human-readable execution plan, and runs the actual workflow
// asynchronously under a bounded concurrency cap.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/brickwatch/rita/internal/models"
	"github.com/brickwatch/rita/pkg/workflow"
)

// DefaultMaxConcurrent caps simultaneous asynchronous workflow executions.
const DefaultMaxConcurrent = 4

// Submission is the synchronous answer to a dispatched batch: the id to poll,
// the rendered plan, and the completion estimate.
type Submission struct {
	ExecutionID              string
	Status                   string
	Message                  string
	Plan                     string
	RecommendationsProcessed int
}

// Dispatcher owns the async execution seam: submissions return immediately
// while a capped number of background workers drive the workflow runner.
type Dispatcher struct {
	runner *workflow.Runner
	store  *Store
	sem    *semaphore.Weighted
	logger *slog.Logger
	now    func() time.Time
	wg     sync.WaitGroup
}

func New(runner *workflow.Runner, store *Store, maxConcurrent int64, logger *slog.Logger) *Dispatcher {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		runner: runner,
		store:  store,
		sem:    semaphore.NewWeighted(maxConcurrent),
		logger: logger,
		now:    time.Now,
	}
}

// Store exposes the execution registry for status lookups.
func (d *Dispatcher) Store() *Store {
	return d.store
}

// Submit registers the batch, renders its plan, and spawns the asynchronous
// execution. It returns as soon as the execution is queued.
func (d *Dispatcher) Submit(ctx context.Context, recommendations []models.Recommendation) (*Submission, error) {
	if len(recommendations) == 0 {
		return nil, fmt.Errorf("no recommendations to execute")
	}

	executionID := fmt.Sprintf("workflow-%d", d.now().UnixMilli())
	plan := BuildPlan(recommendations)

	d.store.put(&Execution{
		ID:                       executionID,
		Status:                   models.StatusInProgress,
		RecommendationsProcessed: len(recommendations),
		SubmittedAt:              d.now().UTC(),
		Plan:                     plan,
	})

	d.logger.Info("workflow execution accepted",
		"execution_id", executionID,
		"recommendations", len(recommendations),
	)

	d.wg.Add(1)
	go d.execute(executionID, recommendations)

	message := plan + "\n\n---\n\n" +
		"**Status:** Workflow execution in progress  \n" +
		"**Estimated Time:** 3-5 minutes\n\n" +
		"The workflow runner is processing your optimizations in the background."

	return &Submission{
		ExecutionID:              executionID,
		Status:                   models.StatusAccepted,
		Message:                  message,
		Plan:                     plan,
		RecommendationsProcessed: len(recommendations),
	}, nil
}

// execute runs the workflow for one submission. The request context is gone
// by the time this runs, so the execution gets its own background context.
func (d *Dispatcher) execute(executionID string, recommendations []models.Recommendation) {
	defer d.wg.Done()

	ctx := context.Background()
	if err := d.sem.Acquire(ctx, 1); err != nil {
		d.store.update(executionID, func(e *Execution) {
			e.Status = models.StatusFailed
			e.Error = fmt.Sprintf("failed to acquire execution slot: %v", err)
		})
		return
	}
	defer d.sem.Release(1)

	d.logger.Info("workflow execution starting", "execution_id", executionID)

	result := d.runner.Run(ctx, workflow.ActionOptimizeInstances, workflow.Context{
		workflow.KeyRecommendations: recommendations,
	})
	d.store.markCompleted(executionID, result)

	d.logger.Info("workflow execution finished",
		"execution_id", executionID,
		"status", result.Status,
	)
}

// Wait blocks until all dispatched executions finish. Used on shutdown and
// in tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
