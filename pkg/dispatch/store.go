package dispatch

import (
	"sync"
	"time"

	"github.com/brickwatch/rita/internal/models"
	"github.com/brickwatch/rita/pkg/workflow"
)

// Execution is the tracked state of one dispatched run. The dispatcher
// updates it as the asynchronous workflow progresses; callers read it back
// through the status endpoint.
type Execution struct {
	ID                       string           `json:"execution_id"`
	Status                   string           `json:"status"`
	RecommendationsProcessed int              `json:"recommendations_processed"`
	SubmittedAt              time.Time        `json:"submitted_at"`
	CompletedAt              *time.Time       `json:"completed_at,omitempty"`
	Plan                     string           `json:"execution_details,omitempty"`
	Result                   *workflow.Result `json:"result,omitempty"`
	Error                    string           `json:"error,omitempty"`
}

// Store is an in-memory execution registry. Executions are kept for the
// process lifetime; there is no durable backing store.
type Store struct {
	mu         sync.RWMutex
	executions map[string]*Execution
}

func NewStore() *Store {
	return &Store{executions: map[string]*Execution{}}
}

func (s *Store) put(e *Execution) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executions[e.ID] = e
}

func (s *Store) update(id string, fn func(*Execution)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.executions[id]; ok {
		fn(e)
	}
}

// Get returns a copy of the execution's current state.
func (s *Store) Get(id string) (Execution, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.executions[id]
	if !ok {
		return Execution{}, false
	}
	return *e, true
}

// markCompleted records the terminal state of a run.
func (s *Store) markCompleted(id string, result *workflow.Result) {
	now := time.Now().UTC()
	s.update(id, func(e *Execution) {
		e.Status = result.Status
		e.Result = result
		e.CompletedAt = &now
		if result.Status == models.StatusFailed {
			e.Error = result.Message
		}
	})
}
