package pipeline

import (
	"sync"
	"time"
)

// StepStatus is the lifecycle state of one enrichment step
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepActive    StepStatus = "active"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

// Run-level states. While a step executes the run state carries the
// category, e.g. "enriching_salary".
const (
	RunNotStarted = "not_started"
	RunCompleted  = "completed"
	RunFailed     = "failed"
)

// StepState tracks the execution of one enrichment step. All accessors are
// safe for concurrent use so progress can be observed from another
// goroutine.
type StepState struct {
	mu          sync.Mutex
	category    string
	status      StepStatus
	startedAt   time.Time
	completedAt time.Time
	err         error
}

// NewStepState creates a pending step state for a category
func NewStepState(category string) *StepState {
	return &StepState{category: category, status: StepPending}
}

// Category returns the step's category name
func (s *StepState) Category() string {
	return s.category
}

// Status returns the current step status
func (s *StepState) Status() StepStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Start marks the step active
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StepActive
	s.startedAt = time.Now().UTC()
}

// Complete marks the step completed
func (s *StepState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StepCompleted
	s.completedAt = time.Now().UTC()
}

// Fail marks the step failed and records the error
func (s *StepState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StepFailed
	s.completedAt = time.Now().UTC()
	s.err = err
}

// Skip marks the step skipped; its checkpoint was restored instead
func (s *StepState) Skip() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StepSkipped
	s.completedAt = time.Now().UTC()
}

// Err returns the failure error, if any
func (s *StepState) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Duration returns how long the step ran; zero until it finishes
func (s *StepState) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startedAt.IsZero() || s.completedAt.IsZero() {
		return 0
	}
	return s.completedAt.Sub(s.startedAt)
}

// RunState tracks the whole run's state machine:
// not_started -> enriching_<category>... -> completed | failed
type RunState struct {
	mu     sync.RWMutex
	status string
	steps  []*StepState
}

// NewRunState creates a run state with one pending step per category
func NewRunState(categories []string) *RunState {
	steps := make([]*StepState, 0, len(categories))
	for _, category := range categories {
		steps = append(steps, NewStepState(category))
	}
	return &RunState{status: RunNotStarted, steps: steps}
}

// Status returns the current run status
func (r *RunState) Status() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Enriching marks the run as executing the given category
func (r *RunState) Enriching(category string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = "enriching_" + category
}

// Complete marks the run completed
func (r *RunState) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = RunCompleted
}

// Fail marks the run failed; failed is reachable from any enriching state
func (r *RunState) Fail() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = RunFailed
}

// Step returns the state of one category's step
func (r *RunState) Step(category string) *StepState {
	for _, step := range r.steps {
		if step.Category() == category {
			return step
		}
	}
	return nil
}

// Steps returns the step states in execution order
func (r *RunState) Steps() []*StepState {
	out := make([]*StepState, len(r.steps))
	copy(out, r.steps)
	return out
}
