package stage

import (
	"github.com/Carmen-Shannon/freefall-go/engine/profiler"
)

// StageBuilderOption is a functional option for configuring a Stage during construction.
type StageBuilderOption func(*stage)

// WithUpdateWorkers is an option builder that overrides the worker count used
// for parallel animator updates. Values below 1 are clamped to 1.
//
// Parameters:
//   - workers: the number of update workers
//
// Returns:
//   - StageBuilderOption: a function that applies the worker option to a stage
func WithUpdateWorkers(workers int) StageBuilderOption {
	return func(s *stage) {
		s.updateWorkers = max(workers, 1)
	}
}

// WithProfiler is an option builder that attaches a profiler ticked once per
// Update.
//
// Parameters:
//   - p: the profiler to attach
//
// Returns:
//   - StageBuilderOption: a function that applies the profiler option to a stage
func WithProfiler(p *profiler.Profiler) StageBuilderOption {
	return func(s *stage) {
		s.prof = p
	}
}

// WithInactive is an option builder that creates the stage paused; Update
// no-ops until SetActive(true).
//
// Returns:
//   - StageBuilderOption: a function that applies the inactive option to a stage
func WithInactive() StageBuilderOption {
	return func(s *stage) {
		s.active = false
	}
}
